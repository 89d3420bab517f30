// Command predict classifies a digit image file from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/Brownie44l1/digit-sketchpad/internal/backend"
	"github.com/Brownie44l1/digit-sketchpad/internal/config"
	"github.com/Brownie44l1/digit-sketchpad/internal/logging"
	"github.com/Brownie44l1/digit-sketchpad/internal/sketchpad"
	"github.com/Brownie44l1/digit-sketchpad/internal/view"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	invert := flag.Bool("invert", false, "treat the image as dark ink on a light background")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] image.png\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLogger := logging.Default("info", "console")
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := logging.Default(cfg.LogLevel, cfg.LogFormat)

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		logger.Fatal().Err(err).Msg("open image")
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		logger.Fatal().Err(err).Msg("decode image")
	}

	b, err := backend.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialize classifier")
	}
	state := sketchpad.New(b.Classifier, logger).PredictImage(context.Background(), img, *invert)
	b.Close()
	fmt.Print(view.Text(state))
	if state.Error != "" {
		os.Exit(1)
	}
}
