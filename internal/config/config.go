package config

//go:generate sh -c "cd ../.. && go run ./tools/schema-generator/"

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the dtcli configuration file, read from config.yml or config.toml in the
// config directory. Environment variables override the file.
type Config struct {
	APIEndpoint   string `yaml:"api_endpoint,omitempty" toml:"api_endpoint" jsonschema:"description=Base URL of the DataTrue API"`
	UserToken     string `yaml:"user_token,omitempty" toml:"user_token" jsonschema:"description=User API token used for management calls"`
	AccountToken  string `yaml:"account_token,omitempty" toml:"account_token" jsonschema:"description=Account API token used to trigger runs"`
	PollInterval  string `yaml:"poll_interval,omitempty" toml:"poll_interval" jsonschema:"description=How often job status is polled (Go duration),default=2s"`
	FetchTimeout  string `yaml:"fetch_timeout,omitempty" toml:"fetch_timeout" jsonschema:"description=Timeout for a single status request (Go duration),default=10s"`
	MaxPollErrors int    `yaml:"max_poll_errors,omitempty" toml:"max_poll_errors" jsonschema:"description=Consecutive poll failures before a job is dropped,default=5"`
	AbortedFails  bool   `yaml:"aborted_fails,omitempty" toml:"aborted_fails" jsonschema:"description=Treat aborted runs as failures for the exit status"`
	RetryMax      int    `yaml:"retry_max,omitempty" toml:"retry_max" jsonschema:"description=Retries for lookups and run triggers,default=3"`
	LogLevel      string `yaml:"log_level,omitempty" toml:"log_level" jsonschema:"description=logrus level,enum=trace,enum=debug,enum=info,enum=warn,enum=error,default=warn"`
	HistoryLimit  int    `yaml:"history_limit,omitempty" toml:"history_limit" jsonschema:"description=Number of finished runs kept in history,default=200"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIEndpoint:   "https://datatrue.com",
		PollInterval:  "2s",
		FetchTimeout:  "10s",
		MaxPollErrors: 5,
		RetryMax:      3,
		LogLevel:      "warn",
		HistoryLimit:  200,
	}
}

// fileNames are tried in order; the first one present wins.
var fileNames = []string{"config.yml", "config.yaml", "config.toml"}

// ExpandPath expands a leading ~ to the home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return path
}

// DefaultDir is ~/.config/dtcli.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "dtcli")
	}
	return filepath.Join(home, ".config", "dtcli")
}

// FindConfigFile returns the config file in dir, or an os.ErrNotExist error.
func FindConfigFile(dir string) (string, error) {
	dir = ExpandPath(dir)
	for _, name := range fileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no config file in %s: %w", dir, os.ErrNotExist)
}

// Load reads the config file from dir on top of the defaults and applies environment
// overrides. A missing file is not an error.
func Load(dir string) (*Config, error) {
	cfg := Default()

	path, err := FindConfigFile(dir)
	if err == nil {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if filepath.Ext(path) == ".toml" {
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"DTCLI_API_ENDPOINT":     &c.APIEndpoint,
		"DATATRUE_USER_TOKEN":    &c.UserToken,
		"DATATRUE_ACCOUNT_TOKEN": &c.AccountToken,
		"DTCLI_POLL_INTERVAL":    &c.PollInterval,
		"DTCLI_FETCH_TIMEOUT":    &c.FetchTimeout,
		"DTCLI_LOG_LEVEL":        &c.LogLevel,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("DTCLI_MAX_POLL_ERRORS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DTCLI_MAX_POLL_ERRORS: %w", err)
		}
		c.MaxPollErrors = n
	}
	if v, ok := lookup("DTCLI_ABORTED_FAILS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DTCLI_ABORTED_FAILS: %w", err)
		}
		c.AbortedFails = b
	}
	return nil
}

// Validate checks durations and counts.
func (c *Config) Validate() error {
	if _, err := c.Interval(); err != nil {
		return err
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if c.MaxPollErrors < 1 {
		return fmt.Errorf("max_poll_errors must be at least 1, got %d", c.MaxPollErrors)
	}
	if c.RetryMax < 0 {
		return fmt.Errorf("retry_max must not be negative, got %d", c.RetryMax)
	}
	return nil
}

// Interval parses poll_interval.
func (c *Config) Interval() (time.Duration, error) {
	return parsePositive("poll_interval", c.PollInterval)
}

// Timeout parses fetch_timeout.
func (c *Config) Timeout() (time.Duration, error) {
	return parsePositive("fetch_timeout", c.FetchTimeout)
}

func parsePositive(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, value)
	}
	return d, nil
}
