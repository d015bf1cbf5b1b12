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
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Analysis   AnalysisConfig   `yaml:"analysis" mapstructure:"analysis"`
	Normalize  NormalizeConfig  `yaml:"normalize" mapstructure:"normalize"`
	Generator  GeneratorConfig  `yaml:"generator" mapstructure:"generator"`
	Evaluation EvaluationConfig `yaml:"evaluation" mapstructure:"evaluation"`
	Vote       VoteConfig       `yaml:"vote" mapstructure:"vote"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	// RateLimitRPS caps outgoing requests per second across all phases.
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	// MaxRetries is handed to the SDK transport; the engine itself never
	// retries a generation.
	MaxRetries  int `yaml:"max_retries" mapstructure:"max_retries"`
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnalysisConfig configures multi-perspective analysis.
type AnalysisConfig struct {
	Perspectives []string `yaml:"perspectives" mapstructure:"perspectives"`
	// PerspectivesFile, when set, loads custom perspectives from YAML.
	PerspectivesFile string `yaml:"perspectives_file" mapstructure:"perspectives_file"`
	Concurrency      int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// NormalizeConfig configures input normalization.
type NormalizeConfig struct {
	Strategy        string `yaml:"strategy" mapstructure:"strategy"`
	SummaryMaxWords int    `yaml:"summary_max_words" mapstructure:"summary_max_words"`
	MaxItems        int    `yaml:"max_items" mapstructure:"max_items"`
}

// GeneratorConfig configures dynamic perspective generation.
type GeneratorConfig struct {
	Count int `yaml:"count" mapstructure:"count"`
}

// EvaluationConfig configures criteria evaluation.
type EvaluationConfig struct {
	CriterionConcurrency int `yaml:"criterion_concurrency" mapstructure:"criterion_concurrency"`
	UserConcurrency      int `yaml:"user_concurrency" mapstructure:"user_concurrency"`
}

// VoteConfig configures vote synthesis.
type VoteConfig struct {
	Options []string `yaml:"options" mapstructure:"options"`
}

// ResilienceConfig configures the provider circuit breaker and write retries.
type ResilienceConfig struct {
	BreakerThreshold    int `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldownSecs int `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
	RetryAttempts       int `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoffMs      int `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
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
	v.SetEnvPrefix("GRANTREVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("anthropic.key", "GRANTREVIEW_ANTHROPIC_KEY", "ANTHROPIC_API_KEY")

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "grant-review.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("anthropic.temperature", 0.3)
	v.SetDefault("anthropic.rate_limit_rps", 5)
	v.SetDefault("anthropic.max_retries", 2)
	v.SetDefault("anthropic.timeout_secs", 120)
	v.SetDefault("analysis.perspectives", []string{"conservative", "progressive", "technical", "economic", "community"})
	v.SetDefault("analysis.concurrency", 5)
	v.SetDefault("normalize.strategy", "heuristic")
	v.SetDefault("normalize.summary_max_words", 150)
	v.SetDefault("normalize.max_items", 3)
	v.SetDefault("generator.count", 4)
	v.SetDefault("evaluation.criterion_concurrency", 8)
	v.SetDefault("evaluation.user_concurrency", 4)
	v.SetDefault("vote.options", []string{"approve", "reject", "abstain"})
	v.SetDefault("resilience.breaker_threshold", 5)
	v.SetDefault("resilience.breaker_cooldown_secs", 30)
	v.SetDefault("resilience.retry_attempts", 3)
	v.SetDefault("resilience.retry_backoff_ms", 200)

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
