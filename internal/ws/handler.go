package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hangman-client/internal/hub"
	"github.com/DoyleJ11/hangman-client/internal/lobby"
)

// Action is a user action sent by a local view over its socket.
type Action struct {
	Type     string `json:"type"`
	Letter   string `json:"letter,omitempty"`
	Word     string `json:"word,omitempty"`
	ID       string `json:"id,omitempty"`
	Language string `json:"language,omitempty"`
	Enabled  *bool  `json:"enabled,omitempty"`
}

// Frame is what the view receives: a snapshot or an action error.
type Frame struct {
	Type     string          `json:"type"`
	Snapshot *lobby.Snapshot `json:"snapshot,omitempty"`
	Error    string          `json:"error,omitempty"`
}

var errUnknownAction = errors.New("unknown action")

const replyTimeout = 2 * time.Second

// Handler streams session snapshots to a local view and feeds its actions back
// into the session. The lobby code comes from the {code} route parameter.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	log = log.Named("view")
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		lb := h.Session(r.Context(), code)
		if lb == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// The view is served from the same local process.
			OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
		})
		if err != nil {
			log.Warn("accept view socket", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan lobby.Snapshot, 8)
		clientID := uuid.NewString()
		if err := lb.Send(r.Context(), lobby.Join{ClientID: clientID, Outbox: out}); err != nil {
			return
		}
		defer lb.Send(context.Background(), lobby.Leave{ClientID: clientID})

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		frames := make(chan Frame, 8)
		go func() {
			for {
				var f Frame
				select {
				case <-writeCtx.Done():
					return
				case snap, ok := <-out:
					if !ok {
						// Session gone or we were too slow.
						conn.Close(websocket.StatusGoingAway, "session closed")
						return
					}
					f = Frame{Type: "snapshot", Snapshot: &snap}
				case f = <-frames:
				}
				payload, err := json.Marshal(f)
				if err != nil {
					log.Error("encode frame", zap.Error(err))
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				err = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
				if err != nil {
					return
				}
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				return
			}

			var a Action
			if err := json.Unmarshal(data, &a); err != nil {
				sendFrame(frames, Frame{Type: "error", Error: "bad json"})
				continue
			}
			if err := dispatch(r.Context(), lb, a); err != nil {
				log.Debug("action rejected", zap.String("lobby", code), zap.String("action", a.Type), zap.Error(err))
				sendFrame(frames, Frame{Type: "error", Error: err.Error()})
			}
		}
	}
}

func sendFrame(frames chan<- Frame, f Frame) {
	select {
	case frames <- f:
	default:
	}
}

// dispatch maps an action onto the session and waits for its verdict when the
// session gives one.
func dispatch(ctx context.Context, lb *lobby.Lobby, a Action) error {
	reply := make(chan error, 1)
	var m lobby.Msg
	switch a.Type {
	case "guessLetter":
		m = lobby.GuessLetter{Letter: a.Letter, Reply: reply}
	case "guessWord":
		m = lobby.GuessWord{Word: a.Word, Reply: reply}
	case "start":
		m = lobby.StartGame{Reply: reply}
	case "end":
		m = lobby.EndGame{Reply: reply}
	case "dismiss":
		return lb.Send(ctx, lobby.Dismiss{ID: a.ID})
	case "sound":
		if a.Enabled == nil {
			return errUnknownAction
		}
		return lb.Send(ctx, lobby.SetSound{Enabled: *a.Enabled})
	case "categories":
		return lb.Send(ctx, lobby.RequestCategories{})
	case "languageCategories":
		return lb.Send(ctx, lobby.RequestLanguageCategories{Language: a.Language})
	default:
		return errUnknownAction
	}
	return Ask(ctx, lb, m, reply)
}

// Ask sends m and waits for its reply.
func Ask(ctx context.Context, lb *lobby.Lobby, m lobby.Msg, reply <-chan error) error {
	if err := lb.Send(ctx, m); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()
	select {
	case err := <-reply:
		return err
	case <-lb.Done():
		return lobby.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}
