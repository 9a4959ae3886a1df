package lobby

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hangman-client/internal/engine"
	"github.com/DoyleJ11/hangman-client/internal/notify"
	"github.com/DoyleJ11/hangman-client/internal/sound"
	"github.com/DoyleJ11/hangman-client/internal/turntimer"
	"github.com/DoyleJ11/hangman-client/pkg/types"
)

// Local command rejections. They never reach the server.
var (
	ErrNotYourTurn     = errors.New("not your turn")
	ErrInvalidLetter   = errors.New("guess must be a single letter")
	ErrAlreadyGuessed  = errors.New("letter already guessed")
	ErrEmptyWord       = errors.New("word guess is empty")
	ErrNotHost         = errors.New("only the host can do that")
	ErrNotPlaying      = errors.New("no game in progress")
	ErrIncompleteSetup = errors.New("game setup is incomplete")
	ErrInvalidSetup    = errors.New("invalid game setup")
	ErrNotConnected    = errors.New("channel unavailable")
	ErrClosed          = errors.New("session closed")
)

const RepeatLetterNotice = 2 * time.Second

// Sender delivers commands to the server. Send must not block.
type Sender interface {
	Send(cmd types.ClientCommand) bool
}

// SoundBoard is the cue player plus its on/off switch.
type SoundBoard interface {
	sound.Player
	SetEnabled(enabled bool)
	Enabled() bool
}

type Config struct {
	Clock       clockwork.Clock
	Sender      Sender
	Sound       SoundBoard
	TurnSeconds int
	Log         *zap.Logger
}

type Msg interface{ isLobbyMsg() }

// Inbound is one raw text frame from the channel.
type Inbound struct{ Data []byte }

// Connected tells the session the channel is open; it joins the lobby.
type Connected struct{}

// Replies are optional. A non-nil Reply must have room for one value.
type GuessLetter struct {
	Letter string
	Reply  chan<- error
}

type GuessWord struct {
	Word  string
	Reply chan<- error
}

type StartGame struct{ Reply chan<- error }

type EndGame struct{ Reply chan<- error }

type RequestCategories struct{}

type RequestLanguageCategories struct{ Language string }

// HostSetupUpdate changes the fields that are set.
type HostSetupUpdate struct {
	Language       *string `json:"language,omitempty"`
	WordSourceMode *string `json:"wordSourceMode,omitempty"`
	Category       *string `json:"category,omitempty"`
	CustomWord     *string `json:"customWord,omitempty"`
	CustomCategory *string `json:"customCategory,omitempty"`
}

type UpdateHostSetup struct {
	Update HostSetupUpdate
	Reply  chan<- error
}

// Dismiss removes a notification before it expires.
type Dismiss struct{ ID string }

type SetSound struct{ Enabled bool }

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

type Leave struct{ ClientID string }

type Shutdown struct{}

type GetState struct {
	Reply chan View
}

type timerTick struct{ tick turntimer.Tick }

type expired struct{ id string }

func (Inbound) isLobbyMsg()                   {}
func (Connected) isLobbyMsg()                 {}
func (GuessLetter) isLobbyMsg()               {}
func (GuessWord) isLobbyMsg()                 {}
func (StartGame) isLobbyMsg()                 {}
func (EndGame) isLobbyMsg()                   {}
func (RequestCategories) isLobbyMsg()         {}
func (RequestLanguageCategories) isLobbyMsg() {}
func (UpdateHostSetup) isLobbyMsg()           {}
func (Dismiss) isLobbyMsg()                   {}
func (SetSound) isLobbyMsg()                  {}
func (Join) isLobbyMsg()                      {}
func (Leave) isLobbyMsg()                     {}
func (Shutdown) isLobbyMsg()                  {}
func (GetState) isLobbyMsg()                  {}
func (timerTick) isLobbyMsg()                 {}
func (expired) isLobbyMsg()                   {}

// Snapshot is what subscribers render.
type Snapshot struct {
	Version             int                       `json:"version"`
	Phase               engine.Phase              `json:"phase"`
	Countdown           *int                      `json:"countdown,omitempty"`
	Shared              engine.SharedState        `json:"sharedGameState"`
	Mine                engine.MyState            `json:"myPlayerSpecificState"`
	HostSetup           engine.HostSetup          `json:"hostSetup"`
	Conflict            *engine.Conflict          `json:"conflict,omitempty"`
	TurnRemaining       int                       `json:"turnRemaining"`
	Notifications       []notify.Notification     `json:"notifications"`
	SoundEnabled        bool                      `json:"soundEnabled"`
	IsHost              bool                      `json:"isHost"`
	AmIPlaying          bool                      `json:"amIPlaying"`
	CanGuess            bool                      `json:"canGuess"`
	MyRemainingAttempts int                       `json:"myRemainingAttempts"`
	CurrentPlayerName   string                    `json:"currentPlayerName"`
	Players             []types.PlayerPublicState `json:"players"`
	Standings           []engine.Standing         `json:"standings,omitempty"`
}

// View is the full internal state, for tests and diagnostics.
type View struct {
	Version       int
	NumClients    int
	State         engine.State
	TurnRemaining int
	TimerRunning  bool
	Notifications []notify.Notification
}

// Lobby is one mounted game view. A single goroutine owns the state, the turn
// timer and the notification queue; every timer callback re-enters via the inbox.
type Lobby struct {
	inbox   chan Msg
	code    string
	state   engine.State
	version int
	clients map[string]chan Snapshot

	sender Sender
	sound  SoundBoard
	timer  *turntimer.Timer
	queue  *notify.Queue
	log    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLobby(parent context.Context, cfg Config, viewer engine.Viewer) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Sound == nil {
		cfg.Sound = sound.NewDispatcher(nil, false, cfg.Log)
	}

	l := &Lobby{
		inbox:   make(chan Msg, 64),
		code:    viewer.LobbyCode,
		state:   engine.NewState(viewer),
		clients: make(map[string]chan Snapshot),
		sender:  cfg.Sender,
		sound:   cfg.Sound,
		log:     cfg.Log.Named("lobby").With(zap.String("lobby", viewer.LobbyCode)),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	l.timer = turntimer.New(cfg.Clock, cfg.TurnSeconds, func(tk turntimer.Tick) { l.post(timerTick{tick: tk}) })
	l.queue = notify.NewQueue(cfg.Clock, func(id string) { l.post(expired{id: id}) })

	go l.loop()
	return l
}

// Inbox accepts messages for the session.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Done is closed once the session has torn down.
func (l *Lobby) Done() <-chan struct{} { return l.done }

// Code is the lobby this session is scoped to.
func (l *Lobby) Code() string { return l.code }

// Send delivers m unless the session is gone.
func (l *Lobby) Send(ctx context.Context, m Msg) error {
	select {
	case l.inbox <- m:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post is used by timer goroutines. It gives up once the session is cancelled.
func (l *Lobby) post(m Msg) {
	select {
	case l.inbox <- m:
	case <-l.ctx.Done():
	}
}

func (l *Lobby) loop() {
	defer l.teardown()
	for {
		select {
		case <-l.ctx.Done():
			return

		case m := <-l.inbox:
			if l.handle(m) {
				return
			}
		}
	}
}

// handle runs one message and reports whether the session should stop.
func (l *Lobby) handle(m Msg) bool {
	switch msg := m.(type) {
	case Inbound:
		l.receive(msg.Data)

	case Connected:
		effects, next, ok := engine.Open(l.state)
		l.commit(effects, next)
		if !ok {
			l.log.Error("no user id, not joining")
			break
		}
		l.log.Info("joining lobby",
			zap.String("user", string(l.state.Viewer.UserID)),
			zap.String("name", l.state.Viewer.UserName))
		l.send(types.Join(l.Code()))
		if l.state.IsHost() {
			l.send(types.GetCategories())
		}

	case GuessLetter:
		reply(msg.Reply, l.guessLetter(msg.Letter))

	case GuessWord:
		reply(msg.Reply, l.guessWord(msg.Word))

	case StartGame:
		reply(msg.Reply, l.startGame())

	case EndGame:
		reply(msg.Reply, l.endGame())

	case RequestCategories:
		l.send(types.GetCategories())

	case RequestLanguageCategories:
		if msg.Language != l.state.HostSetup.Language {
			l.state.HostSetup.Language = msg.Language
			l.state.HostSetup.Category = ""
			l.publish()
		}
		l.send(types.GetLanguageCategories(msg.Language))

	case UpdateHostSetup:
		reply(msg.Reply, l.updateHostSetup(msg.Update))

	case Dismiss:
		if l.queue.Remove(msg.ID) {
			l.publish()
		}

	case SetSound:
		if l.sound.Enabled() != msg.Enabled {
			l.sound.SetEnabled(msg.Enabled)
			l.publish()
		}

	case Join:
		l.clients[msg.ClientID] = msg.Outbox
		l.deliver(msg.ClientID, msg.Outbox, l.snapshot())

	case Leave:
		delete(l.clients, msg.ClientID)

	case timerTick:
		if l.timer.Handle(msg.tick) {
			l.publish()
		}

	case expired:
		if l.queue.Remove(msg.id) {
			l.publish()
		}

	case GetState:
		msg.Reply <- View{
			Version:       l.version,
			NumClients:    len(l.clients),
			State:         l.state,
			TurnRemaining: l.timer.Remaining(),
			TimerRunning:  l.timer.Running(),
			Notifications: l.queue.Items(),
		}

	case Shutdown:
		return true
	}
	return false
}

func (l *Lobby) receive(data []byte) {
	env, err := types.Decode(data)
	if err != nil {
		l.log.Warn("drop unparsable frame", zap.Error(err), zap.Int("bytes", len(data)))
		return
	}

	switch engine.Admit(env, l.Code()) {
	case engine.VerdictReject:
		l.log.Debug("drop frame for another lobby",
			zap.String("type", string(env.Type)),
			zap.String("origin", env.OriginLobby()))
		return
	case engine.VerdictConflict:
		l.log.Warn("active game in another lobby", zap.String("other", env.ActiveGameInfo.LobbyCode))
	}

	ev := env.Event()
	if u, ok := ev.(types.Unknown); ok {
		l.log.Debug("ignore unknown message type", zap.String("type", string(u.Type)))
		return
	}
	effects, next := engine.Apply(l.state, ev)
	l.commit(effects, next)
}

// commit installs next, performs effects in order, re-syncs the turn timer and
// broadcasts.
func (l *Lobby) commit(effects []engine.Effect, next engine.State) {
	prev := l.state.Phase
	l.state = next
	for _, eff := range effects {
		switch e := eff.(type) {
		case engine.Notify:
			l.queue.Add(e.Text, e.Severity, e.Duration)
		case engine.PlayCue:
			l.sound.Play(e.Cue)
		case engine.ClearNotifications:
			l.queue.ClearAll()
		}
	}
	if prev != next.Phase {
		l.log.Info("phase changed", zap.String("from", string(prev)), zap.String("to", string(next.Phase)))
	}
	sh := l.state.Shared
	l.timer.Sync(sh.TurnEndsAt, sh.GameStarted, sh.GameEnded)
	l.publish()
}

func (l *Lobby) notice(text string, severity notify.Severity, d time.Duration) {
	l.queue.Add(text, severity, d)
	l.publish()
}

func (l *Lobby) send(cmd types.ClientCommand) error {
	if l.sender == nil || !l.sender.Send(cmd) {
		l.log.Warn("command not sent", zap.String("type", string(cmd.Type)))
		return ErrNotConnected
	}
	l.log.Debug("command sent", zap.String("type", string(cmd.Type)))
	return nil
}

func (l *Lobby) guessLetter(input string) error {
	s := l.state
	if !s.CanGuess() {
		return ErrNotYourTurn
	}
	letter, ok := engine.NormalizeLetter(input, s.Shared.LanguageMode)
	if !ok {
		return ErrInvalidLetter
	}
	if s.HasGuessed(letter) {
		l.notice(fmt.Sprintf("You already guessed the letter %q.", letter), notify.SeverityWarning, RepeatLetterNotice)
		return fmt.Errorf("%q: %w", letter, ErrAlreadyGuessed)
	}
	return l.send(types.GuessLetter(l.Code(), letter))
}

func (l *Lobby) guessWord(input string) error {
	s := l.state
	if !s.CanGuess() {
		return ErrNotYourTurn
	}
	word := engine.NormalizeWord(input, s.Shared.LanguageMode)
	if word == "" {
		return ErrEmptyWord
	}
	return l.send(types.GuessWord(l.Code(), word))
}

func (l *Lobby) startGame() error {
	s := l.state
	if !s.IsHost() {
		return ErrNotHost
	}
	h := s.HostSetup
	switch h.WordSourceMode {
	case types.WordSourceHost:
		if h.CustomWord == "" || h.CustomCategory == "" {
			l.notice("Please enter a word and a category.", notify.SeverityError, 0)
			return fmt.Errorf("custom word and category: %w", ErrIncompleteSetup)
		}
	default:
		if h.Category == "" {
			l.notice("Please select a category.", notify.SeverityError, 0)
			return fmt.Errorf("category: %w", ErrIncompleteSetup)
		}
	}
	return l.send(types.Start(l.Code(), types.StartOptions{
		Category:       h.Category,
		CustomWord:     h.CustomWord,
		CustomCategory: h.CustomCategory,
		LanguageMode:   h.Language,
		WordSourceMode: h.WordSourceMode,
	}))
}

func (l *Lobby) endGame() error {
	if !l.state.IsHost() {
		return ErrNotHost
	}
	if l.state.Phase != engine.PhasePlaying {
		return ErrNotPlaying
	}
	return l.send(types.EndGame(l.Code()))
}

func (l *Lobby) updateHostSetup(u HostSetupUpdate) error {
	h := l.state.HostSetup
	if u.WordSourceMode != nil {
		switch *u.WordSourceMode {
		case types.WordSourceServer, types.WordSourceHost:
			h.WordSourceMode = *u.WordSourceMode
		default:
			return fmt.Errorf("word source %q: %w", *u.WordSourceMode, ErrInvalidSetup)
		}
	}
	if u.Category != nil {
		h.Category = *u.Category
	}
	if u.CustomWord != nil {
		h.CustomWord = *u.CustomWord
	}
	if u.CustomCategory != nil {
		h.CustomCategory = *u.CustomCategory
	}

	var fetch string
	if u.Language != nil && *u.Language != h.Language {
		h.Language = *u.Language
		h.Category = ""
		fetch = h.Language
	}
	l.state.HostSetup = h
	l.publish()

	if fetch != "" {
		return l.send(types.GetLanguageCategories(fetch))
	}
	return nil
}

func (l *Lobby) snapshot() Snapshot {
	s := l.state
	return Snapshot{
		Version:             l.version,
		Phase:               s.Phase,
		Countdown:           s.Countdown,
		Shared:              s.Shared,
		Mine:                s.Mine,
		HostSetup:           s.HostSetup,
		Conflict:            s.Conflict,
		TurnRemaining:       l.timer.Remaining(),
		Notifications:       l.queue.Items(),
		SoundEnabled:        l.sound.Enabled(),
		IsHost:              s.IsHost(),
		AmIPlaying:          s.AmIPlaying(),
		CanGuess:            s.CanGuess(),
		MyRemainingAttempts: s.MyRemainingAttempts(),
		CurrentPlayerName:   s.CurrentPlayerName(),
		Players:             s.SortedPlayers(),
		Standings:           s.Standings(),
	}
}

func (l *Lobby) publish() {
	l.version++
	l.broadcast(l.snapshot())
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id, ch := range l.clients {
		l.deliver(id, ch, snap)
	}
}

func (l *Lobby) deliver(id string, ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
	default:
		// A full outbox means the subscriber stopped reading.
		l.log.Debug("drop slow subscriber", zap.String("client", id))
		close(ch)
		delete(l.clients, id)
	}
}

func (l *Lobby) teardown() {
	l.timer.Stop()
	l.queue.Close()
	for id, ch := range l.clients {
		close(ch)
		delete(l.clients, id)
	}
	l.cancel()
	close(l.done)
	l.log.Debug("session closed")
}

func reply(ch chan<- error, err error) {
	if ch == nil {
		return
	}
	select {
	case ch <- err:
	default:
	}
}
