package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/hangman-client/internal/config"
	"github.com/DoyleJ11/hangman-client/internal/engine"
	"github.com/DoyleJ11/hangman-client/internal/httpapi"
	"github.com/DoyleJ11/hangman-client/internal/hub"
	"github.com/DoyleJ11/hangman-client/internal/lobby"
	"github.com/DoyleJ11/hangman-client/internal/sound"
	"github.com/DoyleJ11/hangman-client/internal/ws"
	"github.com/DoyleJ11/hangman-client/pkg/types"
)

var errChannelClosed = errors.New("game channel closed by server")

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Load()

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, log)
	stop()
	os.Exit(exitCode(log, err))
}

// exitCode reports err, flushes the logger and returns the process status.
func exitCode(log *zap.Logger, err error) int {
	if err != nil {
		log.Error("hangman client stopped", zap.Error(err))
	}
	_ = log.Sync()
	if err != nil {
		return 1
	}
	return 0
}

func newLogger(level string) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zc.Level = lvl
	return zc.Build()
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	header := http.Header{}
	if cfg.AuthToken != "" {
		header.Set("Authorization", "Bearer "+cfg.AuthToken)
	}
	conn, err := ws.Dial(ctx, cfg.ServerURL, header, log)
	if err != nil {
		return err
	}
	log.Info("connected", zap.String("url", cfg.ServerURL))

	h := hub.NewHub(ctx, lobby.Config{
		Clock:       clockwork.NewRealClock(),
		Sender:      conn,
		Sound:       sound.NewDispatcher(sound.Bells(os.Stderr), cfg.Sound, log.Named("sound")),
		TurnSeconds: cfg.TurnSeconds,
		Log:         log,
	})

	if cfg.LobbyCode != "" {
		reply := make(chan *lobby.Lobby, 1)
		h.Inbox() <- hub.OpenSession{
			Viewer: engine.Viewer{
				UserID:    types.PlayerID(cfg.UserID),
				UserName:  cfg.UserName,
				LobbyCode: cfg.LobbyCode,
				IsHost:    cfg.IsHost,
			},
			Reply: reply,
		}
		<-reply
	}
	h.Inbox() <- hub.ChannelUp{}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.SetupRoutes(h, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := conn.ReadLoop(gctx, h.Deliver); err != nil {
			return err
		}
		if gctx.Err() != nil {
			return nil
		}
		return errChannelClosed
	})
	g.Go(func() error {
		return conn.WriteLoop(gctx)
	})
	g.Go(func() error {
		log.Info("view api listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		tell(h, hub.ChannelDown{})
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := multierr.Combine(srv.Shutdown(shutdownCtx), conn.Close())
		tell(h, hub.ShutdownHub{})
		<-h.Done()
		return err
	})

	err = g.Wait()
	if errors.Is(err, errChannelClosed) {
		log.Info("server closed the game channel")
		return nil
	}
	return err
}

// tell posts m unless the hub has already stopped with the signal context.
func tell(h *hub.Hub, m hub.HubMsg) {
	select {
	case h.Inbox() <- m:
	case <-h.Done():
	}
}
