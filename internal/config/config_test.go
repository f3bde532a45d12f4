package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "leadminer.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://generativelanguage.googleapis.com", cfg.Gemini.BaseURL)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.InDelta(t, 0.5, cfg.Gemini.RateLimit, 0.001)
	assert.Equal(t, 3, cfg.Extract.CooldownSecs)
	assert.Equal(t, 2, cfg.Extract.RateLimitRetries)
	assert.Equal(t, 10, cfg.Extract.RateLimitWaitSecs)
	assert.Equal(t, 3, cfg.Extract.MaxParallel)
	assert.False(t, cfg.Extract.Hybrid)
	assert.Equal(t, "winner", cfg.Scoring.Profile)
	assert.Equal(t, ".", cfg.Export.Dir)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/leads
log:
  level: debug
  format: console
server:
  port: 9090
extract:
  cooldown_secs: 1
  hybrid: true
scoring:
  profile: balanced
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 1, cfg.Extract.CooldownSecs)
	assert.True(t, cfg.Extract.Hybrid)
	assert.Equal(t, "balanced", cfg.Scoring.Profile)
	// Defaults still apply for unset values
	assert.Equal(t, 2, cfg.Extract.RateLimitRetries)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LEADMINER_STORE_DRIVER", "postgres")
	t.Setenv("LEADMINER_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("LEADMINER_SERVER_PORT", "3000")
	t.Setenv("LEADMINER_GEMINI_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "test-key", cfg.Gemini.Key)
}

// Credentials have no defaults, so their env bindings are explicit; this
// covers every bound key rather than just the ones with defaults.
func TestLoadEnvKeysWithoutDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("LEADMINER_GEMINI_KEY", "gem-key")
	t.Setenv("LEADMINER_ANTHROPIC_KEY", "ant-key")
	t.Setenv("LEADMINER_EXTRACT_HYBRID", "true")
	t.Setenv("LEADMINER_SCORING_PROFILES_PATH", "profiles.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gem-key", cfg.Gemini.Key)
	assert.Equal(t, "ant-key", cfg.Anthropic.Key)
	assert.True(t, cfg.Extract.Hybrid)
	assert.Equal(t, "profiles.yaml", cfg.Scoring.ProfilesPath)
}

// validDefaults returns a Config with defaults populated for validation tests.
func validDefaults() *Config {
	return &Config{
		Store:   StoreConfig{Driver: "sqlite", DatabaseURL: "leadminer.db"},
		Gemini:  GeminiConfig{Key: "test-key", RateLimit: 0.5},
		Extract: ExtractConfig{CooldownSecs: 3, RateLimitRetries: 2, RateLimitWaitSecs: 10, MaxParallel: 3},
		Server:  ServerConfig{Port: 8080},
	}
}

func TestValidateMine_Valid(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("mine"))
}

func TestValidateMine_MissingKey(t *testing.T) {
	cfg := validDefaults()
	cfg.Gemini.Key = ""

	err := cfg.Validate("mine")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "gemini.key is required")
}

func TestValidateMine_HybridNeedsFallbackKey(t *testing.T) {
	cfg := validDefaults()
	cfg.Extract.Hybrid = true

	err := cfg.Validate("mine")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")

	cfg.Anthropic.Key = "sk-ant-key"
	assert.NoError(t, cfg.Validate("mine"))
}

func TestValidateMine_BadDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("mine")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func TestValidateMine_RetryBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Extract.RateLimitRetries = 11
	err := cfg.Validate("mine")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rate_limit_retries must be between 0 and 10")

	cfg.Extract.RateLimitRetries = 10
	assert.NoError(t, cfg.Validate("mine"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be between 1 and 65535")
}

func TestValidateExport_OnlyNeedsStore(t *testing.T) {
	cfg := validDefaults()
	cfg.Gemini.Key = "" // search config irrelevant for export

	assert.NoError(t, cfg.Validate("export"))
	assert.NoError(t, cfg.Validate("runs"))

	cfg.Store.DatabaseURL = ""
	err := cfg.Validate("export")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
