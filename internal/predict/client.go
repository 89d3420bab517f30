// Package predict talks to the external digit classification endpoint.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Brownie44l1/digit-sketchpad/internal/features"
)

// DefaultEndpoint is where the reference classifier listens.
const DefaultEndpoint = "http://localhost:5000/predict"

// Client posts feature grids to a fixed endpoint. One call is one request;
// nothing is retried.
type Client struct {
	url    *url.URL
	client *http.Client
	logger zerolog.Logger
}

type Option func(*Client)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func NewClient(endpoint string, client *http.Client, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme and host required", endpoint)
	}

	if client == nil {
		client = http.DefaultClient
	}

	c := &Client{url: u, client: client, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Endpoint() string {
	return c.url.String()
}

// Predict sends grid and returns the endpoint's answer. Non-2xx answers
// come back as *APIError; unusable 2xx bodies wrap ErrMalformedResponse.
func (c *Client) Predict(ctx context.Context, grid features.Grid) (*Result, error) {
	body, err := json.Marshal(Request{Pixels: grid})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("X-Request-Id", requestID)

	logger := c.logger.With().Str("request_id", requestID).Logger()
	logger.Debug().Str("endpoint", c.url.String()).Msg("sending prediction request")

	response, err := c.client.Do(request)
	if err != nil {
		logger.Warn().Err(err).Msg("prediction request failed")
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		apiErr := &APIError{StatusCode: response.StatusCode, Message: DefaultErrorMessage}
		var errBody errorResponse
		if err := json.NewDecoder(response.Body).Decode(&errBody); err == nil && errBody.Error != "" {
			apiErr.Message = errBody.Error
		}
		logger.Warn().Int("status", response.StatusCode).Str("error", apiErr.Message).Msg("prediction rejected")
		return nil, apiErr
	}

	var result Result
	if err := json.NewDecoder(response.Body).Decode(&result); err != nil {
		return nil, malformed("decode response body: %v", err)
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}

	logger.Debug().Int("prediction", result.Prediction).Msg("prediction received")
	return &result, nil
}

// Health checks the endpoint's sibling /health route.
func (c *Client) Health(ctx context.Context) error {
	u := *c.url
	u.Path = path.Join(path.Dir(u.Path), "health")
	u.RawQuery = ""

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	response, err := c.client.Do(request)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return fmt.Errorf("health status code: %d, body: %s", response.StatusCode, b)
	}
	var health healthResponse
	if err := json.NewDecoder(response.Body).Decode(&health); err != nil {
		return fmt.Errorf("decode health body: %w", err)
	}
	if health.Status != "ok" {
		return fmt.Errorf("health status %q", health.Status)
	}
	return nil
}
