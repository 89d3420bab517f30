// Package backend builds the classifier a config asks for.
package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Brownie44l1/digit-sketchpad/internal/config"
	"github.com/Brownie44l1/digit-sketchpad/internal/model"
	"github.com/Brownie44l1/digit-sketchpad/internal/predict"
)

type HealthChecker interface {
	Health(ctx context.Context) error
}

// Backend is a ready classifier. Health is nil when there is nothing
// remote to check.
type Backend struct {
	Classifier predict.Classifier
	Health     HealthChecker
	close      func()
}

// Close releases the classifier's resources. It is safe to call more than
// once.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
		b.close = nil
	}
}

func New(cfg *config.Config, logger zerolog.Logger) (*Backend, error) {
	switch cfg.Backend {
	case config.BackendONNX:
		logger.Info().Str("model", cfg.ModelPath).Msg("loading model")
		srv, err := model.NewServer(cfg.ModelPath, cfg.MetadataPath)
		if err != nil {
			return nil, fmt.Errorf("load model: %w", err)
		}
		return &Backend{Classifier: srv, close: srv.Close}, nil
	case config.BackendHTTP:
		client, err := predict.NewClient(cfg.Endpoint, &http.Client{Timeout: cfg.Timeout},
			predict.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("create client: %w", err)
		}
		logger.Info().Str("endpoint", client.Endpoint()).Msg("using remote classifier")
		return &Backend{Classifier: client, Health: client}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
