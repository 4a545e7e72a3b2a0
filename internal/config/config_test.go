package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonathan/resume-screener/internal/types"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the XDG directories at a temp dir and clears variables the
// loader reads so that the host environment cannot leak into a test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	for _, name := range []string{
		"AI_PROVIDER", "GEMINI_API_KEY", "API_KEY", "GROQ_API_KEY", "DATABASE_URL",
		"JWT_SECRET", "JWT_EXPIRATION_HOURS", "BCRYPT_COST", "PASSWORD_PEPPER",
	} {
		t.Setenv(name, "")
	}
	return dir
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, types.DefaultWeights(), cfg.Weights)
	assert.Equal(t, "trust", cfg.Score.Policy)
	assert.Equal(t, 1.0, cfg.Score.Tolerance)
	assert.Equal(t, 0, cfg.Local.MaxRecords)
	assert.Equal(t, filepath.Join(dir, "data", "resume-screener", "history.db"), cfg.Local.Path)
	assert.Equal(t, filepath.Join(dir, "data", "resume-screener", "session"), cfg.SessionFile)
	assert.Equal(t, DefaultJWTExpirationHours, cfg.JWT.ExpirationHours)
	assert.Equal(t, DefaultBcryptCost, cfg.Password.BcryptCost)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.False(t, cfg.RemoteEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
provider: Groq
groq:
  api-key: gsk-test
  model: llama-3.1-8b-instant
local:
  max-records: 25
score:
  policy: recompute
weights:
  skills: 60
  experience: 30
  education: 10
server:
  cors-origins: ["http://localhost:5173"]
`)

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "groq", cfg.Provider)
	assert.Equal(t, "gsk-test", cfg.ActiveProvider().APIKey)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.ActiveProvider().Model)
	assert.Equal(t, 25, cfg.Local.MaxRecords)
	assert.Equal(t, "recompute", cfg.Score.Policy)
	assert.Equal(t, types.Weights{Skills: 60, Experience: 30, Education: 10}, cfg.Weights)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
}

func TestLoad_DefaultLocationFile(t *testing.T) {
	dir := isolate(t)
	confDir := filepath.Join(dir, "config", "resume-screener")
	require.NoError(t, os.MkdirAll(confDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(confDir, "config.yaml"), []byte("local:\n  max-records: 7\n"), 0o644))

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Local.MaxRecords)
}

func TestLoad_Environment(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("DATABASE_URL", "postgres://localhost/screener")
	t.Setenv("JWT_SECRET", strings.Repeat("k", 32))
	t.Setenv("SCREENER_LOCAL_MAX_RECORDS", "3")
	t.Setenv("SCREENER_SCORE_POLICY", "reject")

	path := writeConfig(t, "gemini:\n  api-key: from-file\n")
	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Gemini.APIKey, "environment overrides the file")
	assert.Equal(t, 3, cfg.Local.MaxRecords)
	assert.Equal(t, "reject", cfg.Score.Policy)
	assert.True(t, cfg.RemoteEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(viper.New(), "/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "provider: [unterminated\n")
	_, err := Load(viper.New(), path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Provider: "gemini",
			Weights:  types.DefaultWeights(),
			JWT:      JWTConfig{Secret: strings.Repeat("k", 32), ExpirationHours: 24},
			Password: PasswordConfig{BcryptCost: DefaultBcryptCost},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown provider", mutate: func(c *Config) { c.Provider = "openai" }, wantErr: "unknown provider"},
		{name: "negative max records", mutate: func(c *Config) { c.Local.MaxRecords = -1 }, wantErr: "max-records"},
		{name: "negative tolerance", mutate: func(c *Config) { c.Score.Tolerance = -1 }, wantErr: "tolerance"},
		{name: "negative weight", mutate: func(c *Config) { c.Weights.Education = -10 }, wantErr: "weights"},
		{name: "negative rate limit", mutate: func(c *Config) { c.Server.RateLimit = -1 }, wantErr: "rate limit"},
		{
			name:    "database without jwt secret",
			mutate:  func(c *Config) { c.DatabaseURL = "postgres://x"; c.JWT.Secret = "" },
			wantErr: "JWT_SECRET",
		},
		{
			name:    "database with bad bcrypt cost",
			mutate:  func(c *Config) { c.DatabaseURL = "postgres://x"; c.Password.BcryptCost = 4 },
			wantErr: "bcrypt cost",
		},
		{name: "jwt ignored without database", mutate: func(c *Config) { c.JWT.Secret = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")

	assert.Equal(t, "/tmp/cfg/resume-screener", DefaultConfigDir())
	assert.Equal(t, "/tmp/data/resume-screener/history.db", DefaultHistoryPath())
	assert.Equal(t, "/tmp/data/resume-screener/session", DefaultSessionPath())
}
