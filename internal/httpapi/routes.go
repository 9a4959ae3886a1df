package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hangman-client/internal/hub"
	"github.com/DoyleJ11/hangman-client/internal/ws"
)

const requestTimeout = 15 * time.Second

func SetupRoutes(h *hub.Hub, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log.Named("http")))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)

	r.Route("/sessions/{code}", func(r chi.Router) {
		// Long-lived; no request timeout.
		r.Get("/ws", ws.Handler(h, log))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			r.Use(SessionCtx(h))
			r.Get("/", GetSnapshot)
			r.Post("/letters", GuessLetter)
			r.Post("/words", GuessWord)
			r.Post("/start", StartGame)
			r.Post("/end", EndGame)
			r.Post("/categories", RequestCategories)
			r.Post("/host-setup", UpdateHostSetup)
			r.Post("/sound", SetSound)
			r.Delete("/notifications/{id}", DismissNotification)
		})
	})
	return r
}

// RequestLogger logs one line per request through zap.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("took", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
