package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/hangman-client/internal/engine"
	"github.com/DoyleJ11/hangman-client/internal/lobby"
)

type HubMsg interface{ isHubMsg() }

// OpenSession mounts the game view for a lobby. Sessions for any other lobby
// are closed first, so a lobby change starts from fresh aggregates. Opening the
// code that is already mounted returns the existing session.
type OpenSession struct {
	Viewer engine.Viewer
	Reply  chan *lobby.Lobby
}

type GetSession struct {
	Code  string
	Reply chan *lobby.Lobby
}

type CloseSession struct {
	Code string
}

// Deliver fans one inbound frame out to every mounted session. Each session
// filters by its own lobby code.
type Deliver struct {
	Data []byte
}

// ChannelUp and ChannelDown track the shared connection. Sessions opened while
// it is up are told to join immediately.
type ChannelUp struct{}

type ChannelDown struct{}

type ShutdownHub struct{}

func (OpenSession) isHubMsg()  {}
func (GetSession) isHubMsg()   {}
func (CloseSession) isHubMsg() {}
func (Deliver) isHubMsg()      {}
func (ChannelUp) isHubMsg()    {}
func (ChannelDown) isHubMsg()  {}
func (ShutdownHub) isHubMsg()  {}

type Hub struct {
	inbox     chan HubMsg
	sessions  map[string]*lobby.Lobby
	cfg       lobby.Config
	connected bool
	log       *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewHub(parent context.Context, cfg lobby.Config) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*lobby.Lobby),
		cfg:      cfg,
		log:      cfg.Log.Named("hub"),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed once every session has been shut down.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Deliver hands a frame to the hub. It is the ws read loop's sink.
func (h *Hub) Deliver(data []byte) {
	select {
	case h.inbox <- Deliver{Data: data}:
	case <-h.ctx.Done():
	}
}

// Session returns the mounted session for code, or nil.
func (h *Hub) Session(ctx context.Context, code string) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	select {
	case h.inbox <- GetSession{Code: code, Reply: reply}:
	case <-h.done:
		return nil
	case <-ctx.Done():
		return nil
	}
	select {
	case lb := <-reply:
		return lb
	case <-h.done:
		return nil
	case <-ctx.Done():
		return nil
	}
}

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case OpenSession:
				code := msg.Viewer.LobbyCode
				if lb := h.sessions[code]; lb != nil {
					msg.Reply <- lb
					break
				}
				for other, lb := range h.sessions {
					h.log.Info("lobby changed, closing session", zap.String("from", other), zap.String("to", code))
					h.stop(lb)
					delete(h.sessions, other)
				}
				lb := lobby.NewLobby(h.ctx, h.cfg, msg.Viewer)
				h.sessions[code] = lb
				if h.connected {
					h.forward(lb, lobby.Connected{})
				}
				msg.Reply <- lb

			case GetSession:
				msg.Reply <- h.sessions[msg.Code] // May be nil

			case CloseSession:
				if lb := h.sessions[msg.Code]; lb != nil {
					h.stop(lb)
					delete(h.sessions, msg.Code)
				}

			case Deliver:
				for _, lb := range h.sessions {
					h.forward(lb, lobby.Inbound{Data: msg.Data})
				}

			case ChannelUp:
				h.connected = true
				for _, lb := range h.sessions {
					h.forward(lb, lobby.Connected{})
				}

			case ChannelDown:
				h.connected = false

			case ShutdownHub:
				h.shutdown()
				h.cancel()
				return
			}
		}
	}
}

func (h *Hub) forward(lb *lobby.Lobby, m lobby.Msg) {
	if err := lb.Send(h.ctx, m); err != nil {
		h.log.Debug("session unavailable", zap.String("lobby", lb.Code()), zap.Error(err))
	}
}

func (h *Hub) stop(lb *lobby.Lobby) {
	h.forward(lb, lobby.Shutdown{})
	<-lb.Done()
}

func (h *Hub) shutdown() {
	for code, lb := range h.sessions {
		select {
		case lb.Inbox() <- lobby.Shutdown{}:
		case <-lb.Done():
		}
		<-lb.Done()
		delete(h.sessions, code)
	}
}
