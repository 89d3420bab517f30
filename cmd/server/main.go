package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Brownie44l1/digit-sketchpad/internal/backend"
	"github.com/Brownie44l1/digit-sketchpad/internal/config"
	"github.com/Brownie44l1/digit-sketchpad/internal/handlers"
	"github.com/Brownie44l1/digit-sketchpad/internal/logging"
	"github.com/Brownie44l1/digit-sketchpad/internal/sketchpad"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLogger := logging.Default("info", "console")
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := logging.Default(cfg.LogLevel, cfg.LogFormat)

	b, err := backend.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Backend).Msg("initialize classifier")
	}
	defer b.Close()

	opts := []handlers.Option{handlers.WithLogger(logger)}
	if b.Health != nil {
		opts = append(opts, handlers.WithUpstream(b.Health))
	}
	session := sketchpad.New(b.Classifier, logger)
	handler := handlers.NewHandler(session, cfg.Backend, opts...)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.Addr).Str("backend", cfg.Backend).Msg("sketchpad listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server failed")
		b.Close()
		os.Exit(1)
	}
	logger.Info().Msg("sketchpad stopped")
}
