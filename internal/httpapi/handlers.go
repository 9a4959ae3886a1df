package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/DoyleJ11/hangman-client/internal/hub"
	"github.com/DoyleJ11/hangman-client/internal/lobby"
	"github.com/DoyleJ11/hangman-client/internal/ws"
)

type ctxKey struct{}

// SessionCtx resolves {code} to a mounted session.
func SessionCtx(h *hub.Hub) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lb := h.Session(r.Context(), chi.URLParam(r, "code"))
			if lb == nil {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, lb)))
		})
	}
}

func session(r *http.Request) *lobby.Lobby {
	lb, _ := r.Context().Value(ctxKey{}).(*lobby.Lobby)
	return lb
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// GetSnapshot subscribes just long enough to receive the current snapshot.
func GetSnapshot(w http.ResponseWriter, r *http.Request) {
	lb := session(r)
	out := make(chan lobby.Snapshot, 1)
	id := uuid.NewString()
	if err := lb.Send(r.Context(), lobby.Join{ClientID: id, Outbox: out}); err != nil {
		writeLobbyError(w, err)
		return
	}
	defer lb.Send(context.Background(), lobby.Leave{ClientID: id})

	select {
	case snap, ok := <-out:
		if !ok {
			writeLobbyError(w, lobby.ErrClosed)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	case <-r.Context().Done():
		writeError(w, http.StatusServiceUnavailable, r.Context().Err().Error())
	}
}

func GuessLetter(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Letter string `json:"letter"`
	}
	if !decode(w, r, &body) {
		return
	}
	reply := make(chan error, 1)
	respond(w, ws.Ask(r.Context(), session(r), lobby.GuessLetter{Letter: body.Letter, Reply: reply}, reply))
}

func GuessWord(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Word string `json:"word"`
	}
	if !decode(w, r, &body) {
		return
	}
	reply := make(chan error, 1)
	respond(w, ws.Ask(r.Context(), session(r), lobby.GuessWord{Word: body.Word, Reply: reply}, reply))
}

func StartGame(w http.ResponseWriter, r *http.Request) {
	reply := make(chan error, 1)
	respond(w, ws.Ask(r.Context(), session(r), lobby.StartGame{Reply: reply}, reply))
}

func EndGame(w http.ResponseWriter, r *http.Request) {
	reply := make(chan error, 1)
	respond(w, ws.Ask(r.Context(), session(r), lobby.EndGame{Reply: reply}, reply))
}

// RequestCategories asks the server for the category list, optionally for one
// language.
func RequestCategories(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Language string `json:"language"`
	}
	if r.ContentLength != 0 && !decode(w, r, &body) {
		return
	}
	var m lobby.Msg = lobby.RequestCategories{}
	if body.Language != "" {
		m = lobby.RequestLanguageCategories{Language: body.Language}
	}
	respond(w, session(r).Send(r.Context(), m))
}

func UpdateHostSetup(w http.ResponseWriter, r *http.Request) {
	var body lobby.HostSetupUpdate
	if !decode(w, r, &body) {
		return
	}
	reply := make(chan error, 1)
	respond(w, ws.Ask(r.Context(), session(r), lobby.UpdateHostSetup{Update: body, Reply: reply}, reply))
}

func SetSound(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}
	respond(w, session(r).Send(r.Context(), lobby.SetSound{Enabled: *body.Enabled}))
}

func DismissNotification(w http.ResponseWriter, r *http.Request) {
	if err := session(r).Send(r.Context(), lobby.Dismiss{ID: chi.URLParam(r, "id")}); err != nil {
		writeLobbyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return false
	}
	return true
}

// respond answers 202: commands are fire-and-forget and the outcome arrives as
// a later snapshot.
func respond(w http.ResponseWriter, err error) {
	if err != nil {
		writeLobbyError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func writeLobbyError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, lobby.ErrNotHost):
		return http.StatusForbidden
	case errors.Is(err, lobby.ErrNotYourTurn),
		errors.Is(err, lobby.ErrAlreadyGuessed),
		errors.Is(err, lobby.ErrNotPlaying):
		return http.StatusConflict
	case errors.Is(err, lobby.ErrInvalidLetter),
		errors.Is(err, lobby.ErrEmptyWord),
		errors.Is(err, lobby.ErrInvalidSetup),
		errors.Is(err, lobby.ErrIncompleteSetup):
		return http.StatusUnprocessableEntity
	case errors.Is(err, lobby.ErrNotConnected):
		return http.StatusServiceUnavailable
	case errors.Is(err, lobby.ErrClosed):
		return http.StatusGone
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
