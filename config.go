package hls

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultTimeout bounds each playlist fetch
	DefaultTimeout = 15 * time.Second

	// DefaultConcurrency resolves variants one at a time, in document order
	DefaultConcurrency = 1

	// MaxConcurrency caps parallel media playlist fetches
	MaxConcurrency = 32
)

// Config controls how a Client retrieves playlists
type Config struct {
	// Timeout applies to every single fetch. Zero disables it.
	Timeout time.Duration `yaml:"-"`

	// Concurrency is how many media playlists are fetched at once
	Concurrency int `yaml:"concurrency"`

	// Headers are sent with every request, before per-call headers
	Headers map[string]string `yaml:"headers,omitempty"`

	UserAgent string `yaml:"user_agent,omitempty"`
	LogLevel  string `yaml:"log_level,omitempty"`

	RawTimeout string `yaml:"timeout,omitempty"`
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() Config {
	return Config{
		Timeout:     DefaultTimeout,
		Concurrency: DefaultConcurrency,
		LogLevel:    zerolog.InfoLevel.String(),
	}
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "reading config file")
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "parsing config file")
	}

	if cfg.RawTimeout != "" {
		if cfg.Timeout, err = time.ParseDuration(cfg.RawTimeout); err != nil {
			return cfg, errors.Wrapf(err, "parsing timeout %q", cfg.RawTimeout)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(err, "validating config")
	}
	return cfg, nil
}

// Validate reports the first invalid setting
func (c Config) Validate() error {
	if c.Timeout < 0 {
		return errors.Errorf("timeout must not be negative, got %s", c.Timeout)
	}

	if c.Concurrency < 1 || c.Concurrency > MaxConcurrency {
		return errors.Errorf("concurrency must be between 1 and %d, got %d", MaxConcurrency, c.Concurrency)
	}

	if c.LogLevel != "" {
		if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
			return errors.Wrapf(err, "invalid log level %q", c.LogLevel)
		}
	}
	return nil
}

// Level returns the configured log level, defaulting to info
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return level
}
