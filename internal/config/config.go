// Package config loads sketchpad settings from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Brownie44l1/digit-sketchpad/internal/predict"
)

const (
	BackendHTTP = "http"
	BackendONNX = "onnx"
)

type Config struct {
	Addr         string        `yaml:"addr"`
	Backend      string        `yaml:"backend"`
	Endpoint     string        `yaml:"endpoint"`
	Timeout      time.Duration `yaml:"timeout"`
	ModelPath    string        `yaml:"model_path"`
	MetadataPath string        `yaml:"metadata_path"`
	LogLevel     string        `yaml:"log_level"`
	LogFormat    string        `yaml:"log_format"`
}

func (c *Config) defaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.Backend == "" {
		c.Backend = BackendHTTP
	}
	if c.Endpoint == "" {
		c.Endpoint = predict.DefaultEndpoint
	}
	if c.ModelPath == "" {
		c.ModelPath = "models/digits.onnx"
	}
	if c.MetadataPath == "" {
		c.MetadataPath = "models/digits_metadata.json"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "console"
	}
}

// applyEnv lets the environment override the file. PORT keeps the
// conventional meaning of "listen on all interfaces at this port".
func (c *Config) applyEnv(getenv func(string) string) {
	if port := getenv("PORT"); port != "" {
		c.Addr = ":" + port
	}
	if v := getenv("PREDICT_ENDPOINT"); v != "" {
		c.Endpoint = v
	}
	if v := getenv("SKETCHPAD_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendHTTP, BackendONNX:
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q)", c.Backend, BackendHTTP, BackendONNX)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

// Load reads path if it is non-empty, then applies defaults and environment
// overrides.
func Load(path string) (*Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv(getenv)
	cfg.defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
