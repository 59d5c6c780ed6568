package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DoyleJ11/brawlbracket-backend/internal/config"
	"github.com/DoyleJ11/brawlbracket-backend/internal/httpapi"
	"github.com/DoyleJ11/brawlbracket-backend/internal/hub"
	"github.com/DoyleJ11/brawlbracket-backend/internal/lobby"
	"github.com/DoyleJ11/brawlbracket-backend/internal/metrics"
	"github.com/DoyleJ11/brawlbracket-backend/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet.
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	var log *zap.Logger
	if cfg.Development() {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.NewRegistry())
	opts := lobby.Options{Logger: log, Metrics: m}

	var st *store.Store
	if cfg.DatabaseURL != "" {
		var err error
		st, err = store.Open(postgres.Open(cfg.DatabaseURL))
		if err != nil {
			return err
		}
		defer st.Close()
		opts.Sink = st
	} else {
		log.Warn("DATABASE_URL not set, tournaments live in memory only")
	}

	h := hub.NewHub(ctx, opts)
	if st != nil {
		if err := restoreLobbies(ctx, st, h, log); err != nil {
			return err
		}
	}

	deps := httpapi.Deps{
		Hub:         h,
		Metrics:     m,
		Logger:      log,
		Defaults:    httpapi.Defaults{Ruleset: cfg.DefaultRuleset, BestOf: cfg.DefaultBestOf},
		CORSOrigins: cfg.CORSOrigins,
		OutboxSize:  cfg.OutboxSize,
	}
	if st != nil {
		deps.Store = st
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           httpapi.SetupRoutes(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(sctx)

		select {
		case h.Inbox() <- hub.ShutdownHub{}:
		case <-h.Done():
		}
		select {
		case <-h.Done():
		case <-sctx.Done():
		}
		return err
	})
	return g.Wait()
}

// restoreLobbies reopens a lobby for every saved tournament.
func restoreLobbies(ctx context.Context, st *store.Store, h *hub.Hub, log *zap.Logger) error {
	names, err := st.ShortNames(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		t, err := st.Load(ctx, name)
		if err != nil {
			log.Error("load tournament", zap.String("tournament", name), zap.Error(err))
			continue
		}
		reply := make(chan hub.CreateReply, 1)
		h.Inbox() <- hub.CreateLobby{Tournament: t, Reply: reply}
		<-reply
		log.Info("restored tournament", zap.String("tournament", name), zap.Int("matches", len(t.Matches())))
	}
	return nil
}
