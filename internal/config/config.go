package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run-history database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// GeminiConfig holds the primary search backend settings.
type GeminiConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	Model     string  `yaml:"model" mapstructure:"model"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// AnthropicConfig holds the fallback search backend settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ExtractConfig configures batch orchestration pacing.
type ExtractConfig struct {
	CooldownSecs      int  `yaml:"cooldown_secs" mapstructure:"cooldown_secs"`
	RateLimitRetries  int  `yaml:"rate_limit_retries" mapstructure:"rate_limit_retries"`
	RateLimitWaitSecs int  `yaml:"rate_limit_wait_secs" mapstructure:"rate_limit_wait_secs"`
	MaxParallel       int  `yaml:"max_parallel" mapstructure:"max_parallel"`
	Hybrid            bool `yaml:"hybrid" mapstructure:"hybrid"`
}

// ScoringConfig selects the weighting profile.
type ScoringConfig struct {
	Profile      string `yaml:"profile" mapstructure:"profile"`
	ProfilesPath string `yaml:"profiles_path" mapstructure:"profiles_path"`
}

// ExportConfig configures file exports.
type ExportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADMINER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so keys
	// without a default need an explicit binding.
	for _, key := range []string{"gemini.key", "anthropic.key", "extract.hybrid", "scoring.profiles_path"} {
		if err := v.BindEnv(key); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leadminer.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.rate_limit", 0.5)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("extract.cooldown_secs", 3)
	v.SetDefault("extract.rate_limit_retries", 2)
	v.SetDefault("extract.rate_limit_wait_secs", 10)
	v.SetDefault("extract.max_parallel", 3)
	v.SetDefault("scoring.profile", "winner")
	v.SetDefault("export.dir", ".")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration required for a command mode. Modes are
// "mine" (extraction run), "serve" (HTTP API), and "export" (re-export a
// stored run).
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "mine":
		errs = append(errs, c.validateSearch()...)
		errs = append(errs, c.validateStore()...)
		errs = append(errs, c.validateExtract()...)
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be between 1 and 65535")
		}
		errs = append(errs, c.validateSearch()...)
		errs = append(errs, c.validateStore()...)
		errs = append(errs, c.validateExtract()...)
	case "export", "runs":
		errs = append(errs, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateSearch() []string {
	var errs []string
	if c.Gemini.Key == "" {
		errs = append(errs, "gemini.key is required")
	}
	if c.Extract.Hybrid && c.Anthropic.Key == "" {
		errs = append(errs, "anthropic.key is required when extract.hybrid is on")
	}
	if c.Gemini.RateLimit < 0 {
		errs = append(errs, "gemini.rate_limit must be >= 0")
	}
	return errs
}

func (c *Config) validateStore() []string {
	var errs []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
}

func (c *Config) validateExtract() []string {
	var errs []string
	if c.Extract.CooldownSecs < 0 {
		errs = append(errs, "extract.cooldown_secs must be >= 0")
	}
	if c.Extract.RateLimitRetries < 0 || c.Extract.RateLimitRetries > 10 {
		errs = append(errs, "extract.rate_limit_retries must be between 0 and 10")
	}
	if c.Extract.RateLimitWaitSecs < 0 {
		errs = append(errs, "extract.rate_limit_wait_secs must be >= 0")
	}
	if c.Extract.MaxParallel < 0 {
		errs = append(errs, "extract.max_parallel must be >= 0")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
