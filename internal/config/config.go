// Package config loads the settings of the users demo service.
//
// Sources, from lowest to highest priority:
//  1. Defaults (in code)
//  2. An optional YAML file
//  3. .env files (never override variables already set)
//  4. Environment variables
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the service settings.
type Config struct {
	Environment   string `yaml:"environment" validate:"required,oneof=development staging production"`
	ListenAddress string `yaml:"listen_address" validate:"required"`
	LogLevel      string `yaml:"log_level" validate:"required,oneof=debug info warn error"`

	RecordCount  int           `yaml:"record_count" validate:"gte=0,lte=100000"`
	FetchDelay   time.Duration `yaml:"fetch_delay" validate:"gte=0"`
	FailureCause string        `yaml:"failure_cause"`

	BreakerMaxFailures uint32        `yaml:"breaker_max_failures"`
	BreakerTimeout     time.Duration `yaml:"breaker_timeout" validate:"required_with=BreakerMaxFailures"`

	EagerSingletons bool `yaml:"eager_singletons"`
	ExposeGraph     bool `yaml:"expose_graph"`
}

// Default returns the configuration used when no source overrides it.
func Default() *Config {
	return &Config{
		Environment:   "development",
		ListenAddress: ":8080",
		LogLevel:      "info",
		RecordCount:   50,
		FetchDelay:    2 * time.Second,
	}
}

// Load builds a Config from path (skipped when empty or missing), the given
// .env files (".env" when none are given) and the environment, then
// validates it.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// Non-fatal: .env files are optional
		_ = godotenv.Load(f)
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadEnv() error {
	c.Environment = env("USERSDEMO_ENV", c.Environment)
	c.ListenAddress = env("USERSDEMO_LISTEN_ADDRESS", c.ListenAddress)
	c.LogLevel = env("USERSDEMO_LOG_LEVEL", c.LogLevel)
	c.FailureCause = env("USERSDEMO_FAILURE_CAUSE", c.FailureCause)

	var err error
	if c.RecordCount, err = envInt("USERSDEMO_RECORD_COUNT", c.RecordCount); err != nil {
		return err
	}
	if c.FetchDelay, err = envDuration("USERSDEMO_FETCH_DELAY", c.FetchDelay); err != nil {
		return err
	}
	maxFailures, err := envInt("USERSDEMO_BREAKER_MAX_FAILURES", int(c.BreakerMaxFailures))
	if err != nil {
		return err
	}
	if maxFailures < 0 {
		return errors.New("USERSDEMO_BREAKER_MAX_FAILURES: must not be negative")
	}
	c.BreakerMaxFailures = uint32(maxFailures)
	if c.BreakerTimeout, err = envDuration("USERSDEMO_BREAKER_TIMEOUT", c.BreakerTimeout); err != nil {
		return err
	}
	if c.EagerSingletons, err = envBool("USERSDEMO_EAGER_SINGLETONS", c.EagerSingletons); err != nil {
		return err
	}
	if c.ExposeGraph, err = envBool("USERSDEMO_EXPOSE_GRAPH", c.ExposeGraph); err != nil {
		return err
	}
	return nil
}

// Validate checks the struct tags of c.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func env(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envBool(key string, defaultVal bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
