// Package config loads the screener configuration from a YAML file,
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/resume-screener/internal/types"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the screener reads,
// except for the conventional names bound in bindEnv.
const EnvPrefix = "SCREENER"

// Config is the full screener configuration.
type Config struct {
	Provider    string         `mapstructure:"provider"`
	Gemini      ProviderConfig `mapstructure:"gemini"`
	Groq        ProviderConfig `mapstructure:"groq"`
	DatabaseURL string         `mapstructure:"database-url"`
	SessionFile string         `mapstructure:"session-file"`
	UseBrowser  bool           `mapstructure:"use-browser"`

	Local    LocalConfig    `mapstructure:"local"`
	Score    ScoreConfig    `mapstructure:"score"`
	Weights  types.Weights  `mapstructure:"weights"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Password PasswordConfig `mapstructure:"password"`
}

// ProviderConfig holds the credentials and tuning for one analysis backend.
type ProviderConfig struct {
	APIKey      string  `mapstructure:"api-key"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base-url"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max-tokens"`
}

// LocalConfig configures the on-disk history.
type LocalConfig struct {
	Path       string `mapstructure:"path"`
	MaxRecords int    `mapstructure:"max-records"` // 0 keeps everything
}

// ScoreConfig selects how provider overall scores are treated.
type ScoreConfig struct {
	Policy    string  `mapstructure:"policy"`
	Tolerance float64 `mapstructure:"tolerance"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	RateLimit   float64  `mapstructure:"rate-limit"` // requests per second per client
	Burst       int      `mapstructure:"burst"`
	CORSOrigins []string `mapstructure:"cors-origins"`
	MaxUploadMB int      `mapstructure:"max-upload-mb"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// SetDefaults registers every key with its default value. Keys must be known to
// viper for environment variables to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	w := types.DefaultWeights()

	v.SetDefault("provider", "gemini")
	v.SetDefault("gemini.api-key", "")
	v.SetDefault("gemini.model", "")
	v.SetDefault("gemini.base-url", "")
	v.SetDefault("gemini.temperature", 0.0)
	v.SetDefault("gemini.max-tokens", 0)
	v.SetDefault("groq.api-key", "")
	v.SetDefault("groq.model", "")
	v.SetDefault("groq.base-url", "")
	v.SetDefault("groq.temperature", 0.0)
	v.SetDefault("groq.max-tokens", 0)
	v.SetDefault("database-url", "")
	v.SetDefault("session-file", DefaultSessionPath())
	v.SetDefault("use-browser", false)

	v.SetDefault("local.path", DefaultHistoryPath())
	v.SetDefault("local.max-records", 0)
	v.SetDefault("score.policy", "trust")
	v.SetDefault("score.tolerance", 1.0)
	v.SetDefault("weights.skills", w.Skills)
	v.SetDefault("weights.experience", w.Experience)
	v.SetDefault("weights.education", w.Education)

	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.rate-limit", 5.0)
	v.SetDefault("server.burst", 10)
	v.SetDefault("server.cors-origins", []string{})
	v.SetDefault("server.max-upload-mb", 10)

	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration-hours", DefaultJWTExpirationHours)
	v.SetDefault("password.bcrypt-cost", DefaultBcryptCost)
	v.SetDefault("password.pepper", "")
}

// bindEnv maps the conventional variable names used by the providers and
// the database on top of the SCREENER_ prefixed ones.
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	bindings := map[string][]string{
		"provider":             {"SCREENER_PROVIDER", "AI_PROVIDER"},
		"gemini.api-key":       {"SCREENER_GEMINI_API_KEY", "GEMINI_API_KEY", "API_KEY"},
		"groq.api-key":         {"SCREENER_GROQ_API_KEY", "GROQ_API_KEY"},
		"database-url":         {"SCREENER_DATABASE_URL", "DATABASE_URL"},
		"jwt.secret":           {"SCREENER_JWT_SECRET", "JWT_SECRET"},
		"jwt.expiration-hours": {"SCREENER_JWT_EXPIRATION_HOURS", "JWT_EXPIRATION_HOURS"},
		"password.bcrypt-cost": {"SCREENER_PASSWORD_BCRYPT_COST", "BCRYPT_COST"},
		"password.pepper":      {"SCREENER_PASSWORD_PEPPER", "PASSWORD_PEPPER"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}
	return nil
}

// Load reads the configuration into v and decodes it. An empty path looks for
// config.yaml in the XDG config directory and tolerates its absence; an
// explicit path must exist.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.AddConfigPath(DefaultConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	return &cfg, nil
}

// Validate checks that the configuration has valid values. Provider
// credentials are checked when the provider is built, not here, so that
// commands which never analyze can run without them.
func (c *Config) Validate() error {
	switch c.Provider {
	case "gemini", "groq":
	default:
		return fmt.Errorf("config error: unknown provider %q (expected gemini or groq)", c.Provider)
	}
	if c.Local.MaxRecords < 0 {
		return fmt.Errorf("config error: 'local.max-records' must be non-negative")
	}
	if c.Score.Tolerance < 0 {
		return fmt.Errorf("config error: 'score.tolerance' must be non-negative")
	}
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("config error: weights must be non-negative: %w", err)
	}
	if c.Server.Burst < 0 || c.Server.RateLimit < 0 {
		return fmt.Errorf("config error: server rate limit must be non-negative")
	}
	if c.RemoteEnabled() {
		if err := c.JWT.Validate(); err != nil {
			return err
		}
		if err := c.Password.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// RemoteEnabled reports whether accounts and remote history are configured.
func (c *Config) RemoteEnabled() bool {
	return c.DatabaseURL != ""
}

// ActiveProvider returns the settings of the selected provider.
func (c *Config) ActiveProvider() ProviderConfig {
	if c.Provider == "groq" {
		return c.Groq
	}
	return c.Gemini
}
