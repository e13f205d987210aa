// Package config loads runtime settings for the contact form binaries.
// Precedence, lowest first: defaults, YAML file, .env file, process env.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "CONTACTFORM_"

type Config struct {
	Server ServerConfig `yaml:"server"`
	Render RenderConfig `yaml:"render"`
	TUI    TUIConfig    `yaml:"tui"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	CookieName      string        `yaml:"cookie_name"`
	SecureCookie    bool          `yaml:"secure_cookie"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	JanitorInterval time.Duration `yaml:"janitor_interval"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type RenderConfig struct {
	TemplatesDir  string      `yaml:"templates_dir"`
	DefaultStyles bool        `yaml:"default_styles"`
	Theme         ThemeConfig `yaml:"theme"`
}

// ThemeConfig describes a single go-theme manifest inline.
type ThemeConfig struct {
	Name     string                       `yaml:"name"`
	Variant  string                       `yaml:"variant"`
	Tokens   map[string]string            `yaml:"tokens"`
	Variants map[string]map[string]string `yaml:"variants"`
}

type TUIConfig struct {
	Output      string `yaml:"output"`
	MaxAttempts int    `yaml:"max_attempts"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			CookieName:      "contactform_session",
			SessionTTL:      30 * time.Minute,
			JanitorInterval: time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Render: RenderConfig{DefaultStyles: true},
		TUI: TUIConfig{
			Output:      "json",
			MaxAttempts: 3,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Option tweaks how Load resolves its sources.
type Option func(*loader)

type loader struct {
	envFile string
	lookup  func(string) (string, bool)
}

// WithEnvFile reads overrides from a dotenv file. A missing file is not an
// error.
func WithEnvFile(path string) Option {
	return func(l *loader) {
		l.envFile = strings.TrimSpace(path)
	}
}

// WithLookup replaces os.LookupEnv, mainly for tests.
func WithLookup(fn func(string) (string, bool)) Option {
	return func(l *loader) {
		if fn != nil {
			l.lookup = fn
		}
	}
}

// Load resolves the configuration. An empty path skips the YAML file.
func Load(path string, opts ...Option) (Config, error) {
	l := loader{lookup: os.LookupEnv}
	for _, opt := range opts {
		if opt != nil {
			opt(&l)
		}
	}

	cfg := Default()
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	lookup := l.lookup
	if l.envFile != "" {
		fileEnv, err := godotenv.Read(l.envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: read env file %s: %w", l.envFile, err)
		}
		lookup = layered(l.lookup, fileEnv)
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Server.Addr) == "":
		return errors.New("config: server.addr is required")
	case strings.TrimSpace(c.Server.CookieName) == "":
		return errors.New("config: server.cookie_name is required")
	case c.Server.SessionTTL <= 0:
		return errors.New("config: server.session_ttl must be positive")
	case c.Server.JanitorInterval <= 0:
		return errors.New("config: server.janitor_interval must be positive")
	case c.Server.ShutdownTimeout <= 0:
		return errors.New("config: server.shutdown_timeout must be positive")
	case c.TUI.MaxAttempts < 1:
		return errors.New("config: tui.max_attempts must be at least 1")
	}
	switch c.TUI.Output {
	case "json", "form", "pretty":
	default:
		return fmt.Errorf("config: tui.output %q is not one of json, form, pretty", c.TUI.Output)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	return nil
}

func decodeYAML(data []byte, out *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// layered prefers the process environment over the dotenv file, matching
// godotenv.Load which never overwrites variables that are already set.
func layered(primary func(string) (string, bool), fallback map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if value, ok := primary(key); ok {
			return value, true
		}
		value, ok := fallback[key]
		return value, ok
	}
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		value, ok := lookup(EnvPrefix + name)
		if !ok {
			return "", false
		}
		return strings.TrimSpace(value), true
	}

	if v, ok := get("ADDR"); ok {
		cfg.Server.Addr = v
	}
	if v, ok := get("COOKIE_NAME"); ok {
		cfg.Server.CookieName = v
	}
	if v, ok := get("TEMPLATES_DIR"); ok {
		cfg.Render.TemplatesDir = v
	}
	if v, ok := get("THEME"); ok {
		cfg.Render.Theme.Name = v
	}
	if v, ok := get("THEME_VARIANT"); ok {
		cfg.Render.Theme.Variant = v
	}
	if v, ok := get("TUI_OUTPUT"); ok {
		cfg.TUI.Output = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}

	var err error
	if v, ok := get("SECURE_COOKIE"); ok {
		if cfg.Server.SecureCookie, err = strconv.ParseBool(v); err != nil {
			return envErr("SECURE_COOKIE", err)
		}
	}
	if v, ok := get("DEFAULT_STYLES"); ok {
		if cfg.Render.DefaultStyles, err = strconv.ParseBool(v); err != nil {
			return envErr("DEFAULT_STYLES", err)
		}
	}
	if v, ok := get("LOG_DEVELOPMENT"); ok {
		if cfg.Log.Development, err = strconv.ParseBool(v); err != nil {
			return envErr("LOG_DEVELOPMENT", err)
		}
	}
	if v, ok := get("SESSION_TTL"); ok {
		if cfg.Server.SessionTTL, err = time.ParseDuration(v); err != nil {
			return envErr("SESSION_TTL", err)
		}
	}
	if v, ok := get("JANITOR_INTERVAL"); ok {
		if cfg.Server.JanitorInterval, err = time.ParseDuration(v); err != nil {
			return envErr("JANITOR_INTERVAL", err)
		}
	}
	if v, ok := get("SHUTDOWN_TIMEOUT"); ok {
		if cfg.Server.ShutdownTimeout, err = time.ParseDuration(v); err != nil {
			return envErr("SHUTDOWN_TIMEOUT", err)
		}
	}
	if v, ok := get("TUI_MAX_ATTEMPTS"); ok {
		if cfg.TUI.MaxAttempts, err = strconv.Atoi(v); err != nil {
			return envErr("TUI_MAX_ATTEMPTS", err)
		}
	}
	return nil
}

func envErr(name string, err error) error {
	return fmt.Errorf("config: %s%s: %w", EnvPrefix, name, err)
}
