package lobby

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/hangman-client/internal/engine"
	"github.com/DoyleJ11/hangman-client/internal/notify"
	"github.com/DoyleJ11/hangman-client/internal/sound"
	"github.com/DoyleJ11/hangman-client/pkg/types"
)

type fakeSender struct {
	out chan types.ClientCommand
}

func (f *fakeSender) Send(cmd types.ClientCommand) bool {
	select {
	case f.out <- cmd:
		return true
	default:
		return false
	}
}

type fakeSound struct {
	mu      sync.Mutex
	enabled bool
	played  []sound.Cue
}

func (f *fakeSound) Play(cue sound.Cue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enabled {
		f.played = append(f.played, cue)
	}
}

func (f *fakeSound) SetEnabled(enabled bool) {
	f.mu.Lock()
	f.enabled = enabled
	f.mu.Unlock()
}

func (f *fakeSound) Enabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

func (f *fakeSound) Played() []sound.Cue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sound.Cue(nil), f.played...)
}

// helper: receive one snapshot with a timeout so tests never hang
func recvSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatalf("client outbox closed unexpectedly")
		}
		return snap
	case <-time.After(within):
		t.Fatalf("timed out waiting for snapshot")
		return Snapshot{} // unreachable
	}
}

func recvNoSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			// channel closed → that's fine; no further snapshots possible
			return
		}
		t.Fatalf("expected no snapshot within %v, but got: %+v", within, s)
	case <-time.After(within):
		// good: no snapshot
	}
}

func recvCommand(t *testing.T, ch <-chan types.ClientCommand, within time.Duration) types.ClientCommand {
	t.Helper()
	select {
	case cmd := <-ch:
		return cmd
	case <-time.After(within):
		t.Fatalf("timed out waiting for command")
		return types.ClientCommand{}
	}
}

func recvNoCommand(t *testing.T, ch <-chan types.ClientCommand, within time.Duration) {
	t.Helper()
	select {
	case cmd := <-ch:
		t.Fatalf("expected no command, got %+v", cmd)
	case <-time.After(within):
	}
}

func recvErr(t *testing.T, ch <-chan error, within time.Duration) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(within):
		t.Fatalf("timed out waiting for reply")
		return nil
	}
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func getState(t *testing.T, l *Lobby) View {
	t.Helper()
	reply := make(chan View, 1)
	l.Inbox() <- GetState{Reply: reply}
	select {
	case v := <-reply:
		return v
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for view")
		return View{}
	}
}

type harness struct {
	l      *Lobby
	clock  clockwork.FakeClock
	sender *fakeSender
	sound  *fakeSound
	out    chan Snapshot
}

func newHarness(t *testing.T, viewer engine.Viewer) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	h := &harness{
		clock:  clockwork.NewFakeClock(),
		sender: &fakeSender{out: make(chan types.ClientCommand, 8)},
		sound:  &fakeSound{enabled: true},
		out:    make(chan Snapshot, 16),
	}
	h.l = NewLobby(ctx, Config{
		Clock:  h.clock,
		Sender: h.sender,
		Sound:  h.sound,
		Log:    zaptest.NewLogger(t),
	}, viewer)
	t.Cleanup(func() {
		cancel()
		<-h.l.Done()
	})

	h.l.Inbox() <- Join{ClientID: "view", Outbox: h.out}
	first := recvSnapshot(t, h.out, time.Second)
	require.Equal(t, 0, first.Version)
	require.Equal(t, engine.PhaseLoading, first.Phase)
	return h
}

func player() engine.Viewer {
	return engine.Viewer{UserID: "u1", UserName: "alice", LobbyCode: "ABC"}
}

func host() engine.Viewer {
	v := player()
	v.IsHost = true
	return v
}

func (h *harness) feed(t *testing.T, raw string) Snapshot {
	t.Helper()
	h.l.Inbox() <- Inbound{Data: []byte(raw)}
	return recvSnapshot(t, h.out, time.Second)
}

// playing puts the session into a live game where it is the viewer's turn.
func (h *harness) playing(t *testing.T, mine string) Snapshot {
	t.Helper()
	return h.feed(t, `{"type":"HANGMAN_CURRENT_GAME_STATE","lobbyCode":"ABC",
		"sharedGameState":{"gameStarted":true,"gameEnded":false,"currentPlayerId":"u1","languageMode":"en","maskedWord":"_____"},
		"playerSpecificGameState":`+mine+`}`)
}

func TestLobby_ConnectedJoins(t *testing.T) {
	h := newHarness(t, host())

	h.l.Inbox() <- Connected{}
	snap := recvSnapshot(t, h.out, time.Second)
	assert.Equal(t, 1, snap.Version)
	assert.Equal(t, engine.PhaseLoading, snap.Phase)

	assert.Equal(t, types.Join("ABC"), recvCommand(t, h.sender.out, time.Second))
	assert.Equal(t, types.GetCategories(), recvCommand(t, h.sender.out, time.Second))

	snap = h.feed(t, `{"type":"HANGMAN_JOIN_SUCCESS","lobbyCode":"ABC","sharedGameState":{"lobbyCode":"ABC","hostId":"u1"}}`)
	assert.Equal(t, 2, snap.Version)
	assert.Equal(t, engine.PhaseWaiting, snap.Phase)
	assert.True(t, snap.IsHost)
}

func TestLobby_ConnectedWithoutIdentityFails(t *testing.T) {
	h := newHarness(t, engine.Viewer{LobbyCode: "ABC"})

	h.l.Inbox() <- Connected{}
	snap := recvSnapshot(t, h.out, time.Second)
	assert.Equal(t, engine.PhaseError, snap.Phase)
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, notify.SeverityError, snap.Notifications[0].Severity)
	recvNoCommand(t, h.sender.out, 50*time.Millisecond)
}

func TestLobby_ForeignAndBrokenFramesAreDropped(t *testing.T) {
	h := newHarness(t, player())
	before := getState(t, h.l)

	h.l.Inbox() <- Inbound{Data: []byte(`{"type":"HANGMAN_TURN_CHANGE","lobbyCode":"XYZ","sharedGameState":{"currentPlayerId":"u1"}}`)}
	h.l.Inbox() <- Inbound{Data: []byte(`{"type":"HANGMAN_GAME_STARTED","sharedGameState":{"lobbyCode":"XYZ","gameStarted":true}}`)}
	h.l.Inbox() <- Inbound{Data: []byte(`not json`)}
	h.l.Inbox() <- Inbound{Data: []byte(`{"message":"no type"}`)}
	h.l.Inbox() <- Inbound{Data: []byte(`{"type":"HANGMAN_FROM_THE_FUTURE"}`)}

	recvNoSnapshot(t, h.out, 50*time.Millisecond)
	after := getState(t, h.l)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.State, after.State)
	assert.Empty(t, h.sound.Played())
}

func TestLobby_ConflictErrorBlocksView(t *testing.T) {
	h := newHarness(t, player())

	snap := h.feed(t, `{"type":"HANGMAN_ERROR","lobbyCode":"XYZ","message":"busy","activeGameInfo":{"lobbyCode":"XYZ"}}`)
	assert.Equal(t, engine.PhaseError, snap.Phase)
	require.NotNil(t, snap.Conflict)
	assert.Equal(t, "XYZ", snap.Conflict.LobbyCode)
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, engine.LongNotice, snap.Notifications[0].Duration)
}

func TestLobby_GameStartedClearsNotifications(t *testing.T) {
	h := newHarness(t, player())

	h.feed(t, `{"type":"HANGMAN_PLAYER_JOINED","player":{"userName":"bob"}}`)
	h.feed(t, `{"type":"HANGMAN_INFO","message":"Host is picking a word"}`)
	snap := h.feed(t, `{"type":"HANGMAN_COUNTDOWN","countdown":3}`)
	require.Equal(t, engine.PhaseCountdown, snap.Phase)
	require.Len(t, snap.Notifications, 2)

	snap = h.feed(t, `{"type":"HANGMAN_GAME_STARTED","sharedGameState":{"gameStarted":true,"gameEnded":false,"category":"animals"}}`)
	assert.Equal(t, engine.PhasePlaying, snap.Phase)
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, "Game started!", snap.Notifications[0].Text)
	assert.Equal(t, notify.SeveritySuccess, snap.Notifications[0].Severity)
	assert.Equal(t, []sound.Cue{sound.CueCountdown, sound.CueGameStart}, h.sound.Played())
}

func TestLobby_NotificationsExpireAndDismiss(t *testing.T) {
	h := newHarness(t, player())

	snap := h.feed(t, `{"type":"HANGMAN_INFO","message":"first"}`)
	require.Len(t, snap.Notifications, 1)
	first := snap.Notifications[0].ID

	snap = h.feed(t, `{"type":"HANGMAN_ERROR","message":"second"}`)
	require.Len(t, snap.Notifications, 2)

	h.l.Inbox() <- Dismiss{ID: first}
	snap = recvSnapshot(t, h.out, time.Second)
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, "Error: second", snap.Notifications[0].Text)

	h.l.Inbox() <- Dismiss{ID: first}
	recvNoSnapshot(t, h.out, 50*time.Millisecond)

	h.clock.Advance(notify.DefaultDuration)
	snap = recvSnapshot(t, h.out, time.Second)
	assert.Empty(t, snap.Notifications)
}

func TestLobby_NotificationCap(t *testing.T) {
	h := newHarness(t, player())

	var snap Snapshot
	for _, msg := range []string{"1", "2", "3", "4", "5", "6"} {
		snap = h.feed(t, `{"type":"HANGMAN_INFO","message":"`+msg+`"}`)
	}
	require.Len(t, snap.Notifications, notify.MaxVisible)
	var texts []string
	for _, n := range snap.Notifications {
		texts = append(texts, n.Text)
	}
	assert.Equal(t, []string{"6", "5", "4", "3"}, texts)
}

func TestLobby_TurnTimerCountsDown(t *testing.T) {
	h := newHarness(t, player())

	endsAt := h.clock.Now().Add(12 * time.Second).UnixMilli()
	snap := h.feed(t, `{"type":"HANGMAN_TURN_CHANGE","sharedGameState":{"gameStarted":true,"currentPlayerId":"u2","turnEndsAt":`+itoa(endsAt)+`}}`)
	assert.Equal(t, 12, snap.TurnRemaining)

	for want := 11; want >= 9; want-- {
		h.clock.Advance(time.Second)
		snap = recvSnapshot(t, h.out, time.Second)
		assert.Equal(t, want, snap.TurnRemaining)
	}

	endsAt = h.clock.Now().Add(12 * time.Second).UnixMilli()
	snap = h.feed(t, `{"type":"HANGMAN_TURN_CHANGE","sharedGameState":{"currentPlayerId":"u1","turnEndsAt":`+itoa(endsAt)+`}}`)
	assert.Equal(t, 12, snap.TurnRemaining)
	assert.Equal(t, []sound.Cue{sound.CueTurnChange}, h.sound.Played())

	h.clock.Advance(time.Second)
	snap = recvSnapshot(t, h.out, time.Second)
	assert.Equal(t, 11, snap.TurnRemaining)
	recvNoSnapshot(t, h.out, 50*time.Millisecond)

	snap = h.feed(t, `{"type":"HANGMAN_GAME_OVER_NO_WINNERS","message":"Nobody won.","word":"zebra"}`)
	assert.Equal(t, 12, snap.TurnRemaining, "inactive timer shows the default")
	assert.False(t, getState(t, h.l).TimerRunning)
}

func TestLobby_GuessLetter(t *testing.T) {
	h := newHarness(t, player())

	reply := make(chan error, 1)
	h.l.Inbox() <- GuessLetter{Letter: "a", Reply: reply}
	assert.ErrorIs(t, recvErr(t, reply, time.Second), ErrNotYourTurn)

	h.playing(t, `{"isMyTurn":true,"correctGuesses":["e"],"incorrectGuesses":["x"]}`)

	h.l.Inbox() <- GuessLetter{Letter: "A", Reply: reply}
	require.NoError(t, recvErr(t, reply, time.Second))
	assert.Equal(t, types.GuessLetter("ABC", "a"), recvCommand(t, h.sender.out, time.Second))

	h.l.Inbox() <- GuessLetter{Letter: "ab", Reply: reply}
	assert.ErrorIs(t, recvErr(t, reply, time.Second), ErrInvalidLetter)

	h.l.Inbox() <- GuessLetter{Letter: "E", Reply: reply}
	assert.ErrorIs(t, recvErr(t, reply, time.Second), ErrAlreadyGuessed)
	snap := recvSnapshot(t, h.out, time.Second)
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, notify.SeverityWarning, snap.Notifications[0].Severity)
	assert.Equal(t, RepeatLetterNotice, snap.Notifications[0].Duration)
	recvNoCommand(t, h.sender.out, 50*time.Millisecond)

	h.clock.Advance(RepeatLetterNotice)
	snap = recvSnapshot(t, h.out, time.Second)
	assert.Empty(t, snap.Notifications)
}

func TestLobby_GuessResultScenario(t *testing.T) {
	h := newHarness(t, player())
	h.playing(t, `{"isMyTurn":true,"incorrectGuesses":[]}`)

	snap := h.feed(t, `{"type":"HANGMAN_MY_GUESS_RESULT","correct":false,"playerSpecificGameState":{"incorrectGuesses":["a"]}}`)
	assert.Equal(t, []string{"a"}, snap.Mine.IncorrectGuesses)
	assert.Equal(t, engine.PhasePlaying, snap.Phase)
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, engine.ShortNotice, snap.Notifications[0].Duration)
	assert.Equal(t, []sound.Cue{sound.CueGuessIncorrect}, h.sound.Played())
}

func TestLobby_GuessWord(t *testing.T) {
	h := newHarness(t, player())
	h.playing(t, `{"isMyTurn":true}`)

	reply := make(chan error, 1)
	h.l.Inbox() <- GuessWord{Word: "   ", Reply: reply}
	assert.ErrorIs(t, recvErr(t, reply, time.Second), ErrEmptyWord)

	h.l.Inbox() <- GuessWord{Word: " Zebra ", Reply: reply}
	require.NoError(t, recvErr(t, reply, time.Second))
	assert.Equal(t, types.GuessWord("ABC", "zebra"), recvCommand(t, h.sender.out, time.Second))
}

func TestLobby_StartGame(t *testing.T) {
	t.Run("not host", func(t *testing.T) {
		h := newHarness(t, player())
		reply := make(chan error, 1)
		h.l.Inbox() <- StartGame{Reply: reply}
		assert.ErrorIs(t, recvErr(t, reply, time.Second), ErrNotHost)
		recvNoCommand(t, h.sender.out, 50*time.Millisecond)
	})

	t.Run("server word needs a category", func(t *testing.T) {
		h := newHarness(t, host())
		reply := make(chan error, 1)
		h.l.Inbox() <- StartGame{Reply: reply}
		assert.ErrorIs(t, recvErr(t, reply, time.Second), ErrIncompleteSetup)
		snap := recvSnapshot(t, h.out, time.Second)
		require.Len(t, snap.Notifications, 1)
		assert.Equal(t, notify.SeverityError, snap.Notifications[0].Severity)

		cat, lang := "animals", "en"
		h.l.Inbox() <- UpdateHostSetup{Update: HostSetupUpdate{Language: &lang}, Reply: reply}
		require.NoError(t, recvErr(t, reply, time.Second))
		assert.Equal(t, types.GetLanguageCategories("en"), recvCommand(t, h.sender.out, time.Second))
		h.l.Inbox() <- UpdateHostSetup{Update: HostSetupUpdate{Category: &cat}, Reply: reply}
		require.NoError(t, recvErr(t, reply, time.Second))

		h.l.Inbox() <- StartGame{Reply: reply}
		require.NoError(t, recvErr(t, reply, time.Second))
		cmd := recvCommand(t, h.sender.out, time.Second)
		assert.Equal(t, types.CmdStart, cmd.Type)
		assert.Equal(t, "animals", cmd.Category)
		assert.Equal(t, "en", cmd.LanguageMode)
		assert.Equal(t, types.WordSourceServer, cmd.WordSourceMode)
		assert.Empty(t, cmd.CustomWord)
	})

	t.Run("host word", func(t *testing.T) {
		h := newHarness(t, host())
		reply := make(chan error, 1)
		mode, word, cat := types.WordSourceHost, "zebra", "animals"

		bad := "dictionary"
		h.l.Inbox() <- UpdateHostSetup{Update: HostSetupUpdate{WordSourceMode: &bad}, Reply: reply}
		assert.ErrorIs(t, recvErr(t, reply, time.Second), ErrInvalidSetup)

		h.l.Inbox() <- UpdateHostSetup{Update: HostSetupUpdate{WordSourceMode: &mode, CustomWord: &word}, Reply: reply}
		require.NoError(t, recvErr(t, reply, time.Second))
		h.l.Inbox() <- StartGame{Reply: reply}
		assert.ErrorIs(t, recvErr(t, reply, time.Second), ErrIncompleteSetup)

		h.l.Inbox() <- UpdateHostSetup{Update: HostSetupUpdate{CustomCategory: &cat}, Reply: reply}
		require.NoError(t, recvErr(t, reply, time.Second))
		h.l.Inbox() <- StartGame{Reply: reply}
		require.NoError(t, recvErr(t, reply, time.Second))
		cmd := recvCommand(t, h.sender.out, time.Second)
		assert.Equal(t, "zebra", cmd.CustomWord)
		assert.Equal(t, "animals", cmd.CustomCategory)
		assert.Empty(t, cmd.Category)
	})
}

func TestLobby_EndGame(t *testing.T) {
	h := newHarness(t, host())
	reply := make(chan error, 1)

	h.l.Inbox() <- EndGame{Reply: reply}
	assert.ErrorIs(t, recvErr(t, reply, time.Second), ErrNotPlaying)

	h.playing(t, `{"isMyTurn":false}`)
	h.l.Inbox() <- EndGame{Reply: reply}
	require.NoError(t, recvErr(t, reply, time.Second))
	assert.Equal(t, types.EndGame("ABC"), recvCommand(t, h.sender.out, time.Second))
}

func TestLobby_ChannelDownReportsError(t *testing.T) {
	h := newHarness(t, player())
	h.playing(t, `{"isMyTurn":true}`)
	for i := 0; i < cap(h.sender.out); i++ {
		h.sender.out <- types.ClientCommand{}
	}

	reply := make(chan error, 1)
	h.l.Inbox() <- GuessLetter{Letter: "q", Reply: reply}
	assert.True(t, errors.Is(recvErr(t, reply, time.Second), ErrNotConnected))
}

func TestLobby_Sound(t *testing.T) {
	h := newHarness(t, player())

	h.l.Inbox() <- SetSound{Enabled: false}
	snap := recvSnapshot(t, h.out, time.Second)
	assert.False(t, snap.SoundEnabled)

	h.feed(t, `{"type":"HANGMAN_COUNTDOWN","countdown":3}`)
	assert.Empty(t, h.sound.Played())

	h.l.Inbox() <- SetSound{Enabled: false}
	recvNoSnapshot(t, h.out, 50*time.Millisecond)
}

func TestLobby_DropSlowClient(t *testing.T) {
	h := newHarness(t, player())

	slow := make(chan Snapshot, 1)
	h.l.Inbox() <- Join{ClientID: "slow", Outbox: slow}
	h.feed(t, `{"type":"HANGMAN_INFO","message":"hi"}`)

	view := getState(t, h.l)
	assert.Equal(t, 1, view.NumClients, "slow client should be dropped")

	h.l.Inbox() <- Leave{ClientID: "view"}
	assert.Equal(t, 0, getState(t, h.l).NumClients)
}

func TestLobby_ShutdownStopsTimers(t *testing.T) {
	h := newHarness(t, player())

	endsAt := h.clock.Now().Add(12 * time.Second).UnixMilli()
	h.feed(t, `{"type":"HANGMAN_TURN_CHANGE","sharedGameState":{"gameStarted":true,"turnEndsAt":`+itoa(endsAt)+`}}`)
	h.feed(t, `{"type":"HANGMAN_INFO","message":"bye soon"}`)
	require.True(t, getState(t, h.l).TimerRunning)

	h.l.Inbox() <- Shutdown{}
	select {
	case <-h.l.Done():
	case <-time.After(time.Second):
		t.Fatalf("session did not stop")
	}

	h.clock.Advance(10 * time.Second)
	recvNoSnapshot(t, h.out, 50*time.Millisecond)
	_, open := <-h.out
	assert.False(t, open, "outbox is closed on shutdown")

	err := h.l.Send(context.Background(), Connected{})
	if err != nil {
		assert.ErrorIs(t, err, ErrClosed)
	}
}
