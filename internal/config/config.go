package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/krui/internal/logging"
	"github.com/five82/krui/internal/moonraker"
)

// Config is krui's runtime configuration.
type Config struct {
	Endpoint     string
	LogFile      string
	LogLevel     string
	ClientName   string
	HistoryLimit int
	ConsoleLimit int
	ReconnectMin time.Duration
	ReconnectMax time.Duration
	ReadTimeout  time.Duration
}

const (
	defaultConfigPath   = "~/.config/krui/config.toml"
	defaultLogFile      = "~/.local/state/krui/krui.log"
	defaultLogLevel     = "info"
	defaultClientName   = "krui"
	defaultHistoryLimit = 50
	defaultReconnectMin = 500 * time.Millisecond
	defaultReconnectMax = 30 * time.Second
	defaultReadTimeout  = time.Minute
)

// Default returns the configuration used when no file exists.
func Default() Config {
	endpoint, _ := moonraker.ParseEndpoint(moonraker.DefaultEndpoint)
	return Config{
		Endpoint:     endpoint.String(),
		LogFile:      mustExpand(defaultLogFile),
		LogLevel:     defaultLogLevel,
		ClientName:   defaultClientName,
		HistoryLimit: defaultHistoryLimit,
		ReconnectMin: defaultReconnectMin,
		ReconnectMax: defaultReconnectMax,
		ReadTimeout:  defaultReadTimeout,
	}
}

// Load reads the config at path (or the default location), falling back to
// defaults when the file is missing or a value is empty.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Endpoint     string `toml:"endpoint"`
		LogFile      string `toml:"log_file"`
		LogLevel     string `toml:"log_level"`
		ClientName   string `toml:"client_name"`
		HistoryLimit *int   `toml:"history_limit"`
		ConsoleLimit *int   `toml:"console_limit"`
		ReconnectMin string `toml:"reconnect_min"`
		ReconnectMax string `toml:"reconnect_max"`
		ReadTimeout  string `toml:"read_timeout"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.Endpoint); v != "" {
		if err := cfg.SetEndpoint(v); err != nil {
			return Config{}, err
		}
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.ClientName); v != "" {
		cfg.ClientName = v
	}
	if raw.HistoryLimit != nil && *raw.HistoryLimit > 0 {
		cfg.HistoryLimit = *raw.HistoryLimit
	}
	if raw.ConsoleLimit != nil {
		cfg.ConsoleLimit = *raw.ConsoleLimit
	}
	if cfg.ReconnectMin, err = parseDuration("reconnect_min", raw.ReconnectMin, cfg.ReconnectMin); err != nil {
		return Config{}, err
	}
	if cfg.ReconnectMax, err = parseDuration("reconnect_max", raw.ReconnectMax, cfg.ReconnectMax); err != nil {
		return Config{}, err
	}
	if cfg.ReadTimeout, err = parseDuration("read_timeout", raw.ReadTimeout, cfg.ReadTimeout); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetEndpoint normalises and stores a Moonraker address.
func (c *Config) SetEndpoint(raw string) error {
	u, err := moonraker.ParseEndpoint(raw)
	if err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}
	c.Endpoint = u.String()
	return nil
}

// Validate reports values that cannot work together.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.ConsoleLimit < 0 {
		return fmt.Errorf("console_limit: must not be negative, got %d", c.ConsoleLimit)
	}
	if c.ReconnectMax > 0 && c.ReconnectMin > c.ReconnectMax {
		return fmt.Errorf("reconnect_min %v exceeds reconnect_max %v", c.ReconnectMin, c.ReconnectMax)
	}
	return nil
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative, got %v", key, d)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
