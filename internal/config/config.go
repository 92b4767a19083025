package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultOrigin        = "http://localhost:3000"
	DefaultDemoMode      = "true"
	DefaultStateFileName = ".taskdash.db"
	DefaultPollInterval  = 5 * time.Second
	DefaultLogLevel      = "info"
	DefaultListenAddr    = "127.0.0.1:7420"

	configFileName = ".taskdash.toml"

	configDirEnvKey          = "TASKDASH_CONFIG_DIR"
	trustProjectConfigEnvKey = "TASKDASH_TRUST_PROJECT_CONFIG"

	backendURLEnvKey   = "TASKDASH_BACKEND_URL"
	originEnvKey       = "TASKDASH_ORIGIN"
	demoModeEnvKey     = "TASKDASH_DEMO_MODE"
	stateDBEnvKey      = "TASKDASH_STATE_DB"
	seedEnvKey         = "TASKDASH_SEED"
	pollIntervalEnvKey = "TASKDASH_POLL_INTERVAL"
	listenEnvKey       = "TASKDASH_LISTEN"
	logLevelEnvKey     = "TASKDASH_LOG_LEVEL"

	// LogLevelFromDefault marks a log level nobody configured.
	LogLevelFromDefault = "default"
)

// Config defines runtime configuration for taskdash.
type Config struct {
	APIURL                   string `toml:"api_url"`
	Origin                   string `toml:"origin"`
	DemoMode                 string `toml:"demo_mode"`
	StatePath                string `toml:"state_path"`
	SeedPath                 string `toml:"seed_path"`
	PollInterval             string `toml:"poll_interval"`
	LogLevel                 string `toml:"log_level"`
	ListenAddr               string `toml:"listen_addr"`
	HTTPTimeout              string `toml:"http_timeout"`
	TrustedProjectConfigPath string `toml:"-"`
	// LogLevelSource names where LogLevel came from: a config file path,
	// TASKDASH_LOG_LEVEL, or LogLevelFromDefault.
	LogLevelSource           string `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		Origin:         DefaultOrigin,
		DemoMode:       DefaultDemoMode,
		PollInterval:   DefaultPollInterval.String(),
		LogLevel:       DefaultLogLevel,
		ListenAddr:     DefaultListenAddr,
		LogLevelSource: LogLevelFromDefault,
	}
}

// IsDemo reports whether the mock store is selected. Only "false" (any case,
// surrounding space ignored) turns demo mode off.
func (c *Config) IsDemo() bool {
	return strings.ToLower(strings.TrimSpace(c.DemoMode)) != "false"
}

// PollEvery returns the refresh interval, falling back to the default on
// unparsable or non-positive values.
func (c *Config) PollEvery() time.Duration {
	if d, ok := parseDuration(c.PollInterval); ok {
		return d
	}
	return DefaultPollInterval
}

// Timeout returns the configured HTTP timeout, or zero when unset.
func (c *Config) Timeout() time.Duration {
	if d, ok := parseDuration(c.HTTPTimeout); ok {
		return d
	}
	return 0
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if md.IsDefined("log_level") {
		cfg.LogLevelSource = path
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(trustProjectConfigEnvKey))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

var allowedKeys = []string{
	"api_url",
	"origin",
	"demo_mode",
	"state_path",
	"seed_path",
	"poll_interval",
	"log_level",
	"listen_addr",
	"http_timeout",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "origin":
		return c.Origin, nil
	case "demo_mode":
		return c.DemoMode, nil
	case "state_path":
		return c.StatePath, nil
	case "seed_path":
		return c.SeedPath, nil
	case "poll_interval":
		return c.PollInterval, nil
	case "log_level":
		return c.LogLevel, nil
	case "listen_addr":
		return c.ListenAddr, nil
	case "http_timeout":
		return c.HTTPTimeout, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	data[key] = parsedValue

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from trusted files and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, configFileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
				projectPath := filepath.Join(cwd, configFileName)
				info, statErr := os.Stat(projectPath)
				switch {
				case statErr == nil && !info.IsDir():
					if err := loadFile(projectPath, &cfg); err != nil {
						return nil, err
					}
					cfg.TrustedProjectConfigPath = projectPath
				case statErr != nil && !os.IsNotExist(statErr):
					return nil, statErr
				}
			}
		}
	}

	if cfg.StatePath == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.StatePath = filepath.Join(cwd, DefaultStateFileName)
		}
	}

	overrides := []struct {
		env    string
		target *string
	}{
		{backendURLEnvKey, &cfg.APIURL},
		{originEnvKey, &cfg.Origin},
		{demoModeEnvKey, &cfg.DemoMode},
		{stateDBEnvKey, &cfg.StatePath},
		{seedEnvKey, &cfg.SeedPath},
		{pollIntervalEnvKey, &cfg.PollInterval},
		{listenEnvKey, &cfg.ListenAddr},
	}
	for _, o := range overrides {
		if value := os.Getenv(o.env); value != "" {
			*o.target = value
		}
	}

	if value := os.Getenv(logLevelEnvKey); strings.TrimSpace(value) != "" {
		cfg.LogLevel = value
		cfg.LogLevelSource = logLevelEnvKey
	}

	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = DefaultLogLevel
		cfg.LogLevelSource = LogLevelFromDefault
	}
	if strings.TrimSpace(cfg.DemoMode) == "" {
		cfg.DemoMode = DefaultDemoMode
	}
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		cfg.ListenAddr = DefaultListenAddr
	}

	return &cfg, nil
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "demo_mode":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false", key)
		}
		return strconv.FormatBool(parsed), nil
	case "poll_interval", "http_timeout":
		if _, ok := parseDuration(value); !ok {
			return nil, fmt.Errorf("%s must be a positive duration (e.g. 5s) or seconds", key)
		}
		return value, nil
	case "log_level":
		if _, err := ParseLogLevel(value); err != nil {
			return nil, fmt.Errorf("%s must be one of debug, info, warn, error or a number", key)
		}
		return strings.ToLower(value), nil
	default:
		return value, nil
	}
}

func parseDuration(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d, true
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second, true
	}
	return 0, false
}

// ParseLogLevel accepts slog level names in any case, "warning", or a numeric
// slog level. Blank selects DefaultLogLevel.
func ParseLogLevel(raw string) (slog.Level, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		value = DefaultLogLevel
	}
	if strings.EqualFold(value, "warning") {
		value = "warn"
	}
	if numeric, err := strconv.Atoi(value); err == nil {
		return slog.Level(numeric), nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}
