package hub

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/hangman-client/internal/engine"
	"github.com/DoyleJ11/hangman-client/internal/lobby"
	"github.com/DoyleJ11/hangman-client/pkg/types"
)

type chanSender chan types.ClientCommand

func (c chanSender) Send(cmd types.ClientCommand) bool {
	select {
	case c <- cmd:
		return true
	default:
		return false
	}
}

func newTestHub(t *testing.T) (*Hub, chanSender) {
	t.Helper()
	sent := make(chanSender, 8)
	h := NewHub(context.Background(), lobby.Config{
		Clock:  clockwork.NewFakeClock(),
		Sender: sent,
		Log:    zaptest.NewLogger(t),
	})
	t.Cleanup(func() {
		h.Inbox() <- ShutdownHub{}
		<-h.Done()
	})
	return h, sent
}

func open(t *testing.T, h *Hub, code string) *lobby.Lobby {
	t.Helper()
	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- OpenSession{Viewer: engine.Viewer{UserID: "u1", LobbyCode: code}, Reply: reply}
	select {
	case lb := <-reply:
		require.NotNil(t, lb)
		return lb
	case <-time.After(time.Second):
		t.Fatalf("timed out opening session")
		return nil
	}
}

func state(t *testing.T, lb *lobby.Lobby) lobby.View {
	t.Helper()
	reply := make(chan lobby.View, 1)
	lb.Inbox() <- lobby.GetState{Reply: reply}
	select {
	case v := <-reply:
		return v
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for view")
		return lobby.View{}
	}
}

func TestHub_Open_Get_SamePointer(t *testing.T) {
	h, _ := newTestHub(t)

	lb1 := open(t, h, "ZED123")
	lb2 := open(t, h, "ZED123")
	assert.Same(t, lb1, lb2)
	assert.Same(t, lb1, h.Session(context.Background(), "ZED123"))
	assert.Nil(t, h.Session(context.Background(), "NOPE"))
}

func TestHub_LobbyChangeClosesPreviousSession(t *testing.T) {
	h, _ := newTestHub(t)

	first := open(t, h, "ABC")
	second := open(t, h, "XYZ")

	select {
	case <-first.Done():
	case <-time.After(time.Second):
		t.Fatalf("previous session still running")
	}
	assert.Nil(t, h.Session(context.Background(), "ABC"))
	assert.Same(t, second, h.Session(context.Background(), "XYZ"))
	assert.Equal(t, engine.PhaseLoading, state(t, second).State.Phase)
}

func TestHub_DeliverAndJoin(t *testing.T) {
	h, sent := newTestHub(t)
	lb := open(t, h, "ABC")

	h.Inbox() <- ChannelUp{}
	select {
	case cmd := <-sent:
		assert.Equal(t, types.Join("ABC"), cmd)
	case <-time.After(time.Second):
		t.Fatalf("session did not join")
	}

	h.Deliver([]byte(`{"type":"HANGMAN_JOIN_SUCCESS","lobbyCode":"ABC"}`))
	h.Deliver([]byte(`{"type":"HANGMAN_GAME_STARTED","lobbyCode":"XYZ"}`))

	// A round trip through the hub orders the check after both deliveries.
	require.Same(t, lb, h.Session(context.Background(), "ABC"))
	assert.Equal(t, engine.PhaseWaiting, state(t, lb).State.Phase)

	other := open(t, h, "DEF")
	select {
	case cmd := <-sent:
		assert.Equal(t, types.Join("DEF"), cmd, "sessions opened on a live channel join at once")
	case <-time.After(time.Second):
		t.Fatalf("new session did not join")
	}
	assert.NotNil(t, other)
}

func TestHub_CloseSession(t *testing.T) {
	h, _ := newTestHub(t)
	lb := open(t, h, "ABC")

	h.Inbox() <- CloseSession{Code: "ABC"}
	select {
	case <-lb.Done():
	case <-time.After(time.Second):
		t.Fatalf("session still running")
	}
	assert.Nil(t, h.Session(context.Background(), "ABC"))
}
