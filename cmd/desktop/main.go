// Command desktop opens the digit sketchpad in a native window.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/Brownie44l1/digit-sketchpad/internal/backend"
	"github.com/Brownie44l1/digit-sketchpad/internal/config"
	"github.com/Brownie44l1/digit-sketchpad/internal/desktop"
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
		logger.Fatal().Err(err).Msg("initialize classifier")
	}
	defer b.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := desktop.Run(ctx, sketchpad.New(b.Classifier, logger), logger); err != nil {
		logger.Error().Err(err).Msg("window closed with error")
	}
}
