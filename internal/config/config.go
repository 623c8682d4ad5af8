// Package config loads SimplyRead settings from defaults, a TOML file and
// SIMPLYREAD_* environment variables, in increasing order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/metcalfc/simplyread/internal/errors"
)

const (
	envPrefix      = "SIMPLYREAD"
	configFileName = "config.toml"
)

// Config is the fully resolved configuration.
type Config struct {
	Backend    string           `mapstructure:"backend"`
	Gemini     BackendConfig    `mapstructure:"gemini"`
	OpenAI     BackendConfig    `mapstructure:"openai"`
	Credential CredentialConfig `mapstructure:"credential"`
	Requests   RequestsConfig   `mapstructure:"requests"`
	UI         UIConfig         `mapstructure:"ui"`
	Speech     SpeechConfig     `mapstructure:"speech"`
	Log        LogConfig        `mapstructure:"log"`
}

// BackendConfig selects the model and endpoint of a text-generation backend.
type BackendConfig struct {
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// CredentialConfig lists the places an API key may come from.
type CredentialConfig struct {
	APIKey string   `mapstructure:"api_key"`
	Env    []string `mapstructure:"env"`
	Helper string   `mapstructure:"helper"`
}

// RequestsConfig bounds outbound text-generation traffic.
type RequestsConfig struct {
	TimeoutSeconds         int `mapstructure:"timeout_seconds"`
	PerMinute              int `mapstructure:"per_minute"`
	BreakerFailures        int `mapstructure:"breaker_failures"`
	BreakerCooldownSeconds int `mapstructure:"breaker_cooldown_seconds"`
}

// UIConfig holds interaction timings shared by both front ends.
type UIConfig struct {
	BannerDwellMS   int `mapstructure:"banner_dwell_ms"`
	AffordanceTTLMS int `mapstructure:"affordance_ttl_ms"`
	TermMinLength   int `mapstructure:"term_min_length"`
	DoubleClickMS   int `mapstructure:"double_click_ms"`
}

// SpeechConfig configures the read-aloud command.
type SpeechConfig struct {
	Command string `mapstructure:"command"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
	File  string `mapstructure:"file"`
}

// Timeout returns the per-request deadline.
func (r RequestsConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// BreakerCooldown returns how long an open breaker waits before probing.
func (r RequestsConfig) BreakerCooldown() time.Duration {
	return time.Duration(r.BreakerCooldownSeconds) * time.Second
}

// BannerDwell returns how long a bias banner stays on screen.
func (u UIConfig) BannerDwell() time.Duration {
	return time.Duration(u.BannerDwellMS) * time.Millisecond
}

// AffordanceTTL returns how long an unused read-aloud affordance survives.
func (u UIConfig) AffordanceTTL() time.Duration {
	return time.Duration(u.AffordanceTTLMS) * time.Millisecond
}

// DoubleClick returns the maximum gap between two clicks of a double-click.
func (u UIConfig) DoubleClick() time.Duration {
	return time.Duration(u.DoubleClickMS) * time.Millisecond
}

// ActiveBackend returns the settings of the configured backend.
func (c *Config) ActiveBackend() BackendConfig {
	if c.Backend == BackendOpenAI {
		return c.OpenAI
	}
	return c.Gemini
}

// Backend names accepted by the backend key.
const (
	BackendGemini = "gemini"
	BackendOpenAI = "openai"
)

// New returns a viper instance with defaults and environment binding applied.
// Callers may bind command-line flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads the config file at path into v and unmarshals the result. An
// empty path searches the user config directory; a missing file there is not
// an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
	} else if p := defaultConfigPath(); p != "" {
		if _, err := os.Stat(p); err == nil {
			v.SetConfigFile(p)
			v.SetConfigType("toml")
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrapf(err, "read config file %s", p)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the rest of the program cannot run with.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendGemini, BackendOpenAI:
	default:
		return errors.WithHintf(errors.Newf("unknown backend %q", c.Backend),
			"use %q or %q", BackendGemini, BackendOpenAI)
	}
	if c.Requests.PerMinute <= 0 {
		return errors.Newf("requests.per_minute must be positive, got %d", c.Requests.PerMinute)
	}
	if c.UI.BannerDwellMS <= 0 || c.UI.AffordanceTTLMS <= 0 {
		return errors.New("ui timings must be positive")
	}
	return nil
}

// defaultConfigPath returns $XDG_CONFIG_HOME/simplyread/config.toml or the
// ~/.config equivalent.
func defaultConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "simplyread", configFileName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "simplyread", configFileName)
}

// StateDir returns $XDG_STATE_HOME/simplyread or ~/.local/state/simplyread.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "simplyread")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "simplyread")
}
