// Package config provides centralized configuration management using Viper.
// All numeric thresholds of the orchestration subsystem live here rather than
// as hard-coded constants, and are validated at startup.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
)

// Config holds all service configuration.
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Providers    ProvidersConfig    `mapstructure:"providers"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Budget       BudgetConfig       `mapstructure:"budget"`
	Batch        BatchConfig        `mapstructure:"batch"`
}

// AppConfig contains application-level configuration.
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"gt=0"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RedisConfig contains Redis connection configuration.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ProviderConfig describes one generative provider endpoint.
type ProviderConfig struct {
	Name        string        `mapstructure:"name"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// ProvidersConfig groups the primary and secondary provider settings.
type ProvidersConfig struct {
	Primary   ProviderConfig `mapstructure:"primary"`
	Secondary ProviderConfig `mapstructure:"secondary"`
}

// OrchestratorConfig contains the decision-engine thresholds. The source
// material treats these as illustrative; they are configuration here.
type OrchestratorConfig struct {
	BudgetTolerance      float64       `mapstructure:"budget_tolerance" validate:"gte=0,lte=1"`
	TimeTolerance        float64       `mapstructure:"time_tolerance" validate:"gte=0,lte=1"`
	ErrorRateThreshold   float64       `mapstructure:"error_rate_threshold" validate:"gt=0,lte=1"`
	LatencyCeiling       time.Duration `mapstructure:"latency_ceiling" validate:"gt=0"`
	QualityTrendFloor    float64       `mapstructure:"quality_trend_floor" validate:"gte=0,lte=1"`
	HealthWindow         time.Duration `mapstructure:"health_window" validate:"gt=0"`
	HealthMinSamples     int           `mapstructure:"health_min_samples" validate:"gt=0"`
	RuleScoreFloor       float64       `mapstructure:"rule_score_floor"`
	RuleTopN             int           `mapstructure:"rule_top_n" validate:"gt=0"`
	AvailabilityCoverage float64       `mapstructure:"availability_coverage" validate:"gte=0,lte=1"`
	QualityWeights       map[string]float64
}

// CacheConfig contains response-cache settings.
type CacheConfig struct {
	MealSuggestionTTL   time.Duration `mapstructure:"meal_suggestion_ttl" validate:"gt=0"`
	WeeklyMenuTTL       time.Duration `mapstructure:"weekly_menu_ttl" validate:"gt=0"`
	PersonalizationTTL  time.Duration `mapstructure:"personalization_ttl" validate:"gt=0"`
	PatternDiscount     float64       `mapstructure:"pattern_discount" validate:"gt=0,lte=1"`
	SimilarityThreshold float64       `mapstructure:"similarity_threshold" validate:"gt=0,lte=1"`
	LocalCacheSize      int           `mapstructure:"local_cache_size"`
}

// TierBudget is one requester tier's money and rate ceilings.
type TierBudget struct {
	HardLimitCents int `mapstructure:"hard_limit_cents" validate:"gt=0"`
	SoftLimitCents int `mapstructure:"soft_limit_cents" validate:"gt=0"`
	HourlyRequests int `mapstructure:"hourly_requests" validate:"gt=0"`
}

// BudgetConfig contains the cost controller's tier table and global limits.
type BudgetConfig struct {
	Tiers       map[string]TierBudget `mapstructure:"tiers"`
	DefaultTier string                `mapstructure:"default_tier"`
	GlobalRPS   int                   `mapstructure:"global_rps" validate:"gt=0"`
	Period      time.Duration         `mapstructure:"period" validate:"gt=0"`
}

// BatchConfig contains the request-batcher flush policy.
type BatchConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	FlushInterval time.Duration `mapstructure:"flush_interval" validate:"gt=0"`
	FlushSize     int           `mapstructure:"flush_size" validate:"gt=0"`
	QueueCapacity int           `mapstructure:"queue_capacity" validate:"gt=0"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/mealprep")
	}

	v.SetEnvPrefix("MEALPREP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Defaults cover everything, so a missing file is fine.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Orchestrator.QualityWeights = suggestion.DefaultQualityWeights()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns a validated configuration built purely from defaults.
// Used by tests and the in-memory wiring.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "mealprep-suggestions")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")

	v.SetDefault("providers.primary.name", "ollama")
	v.SetDefault("providers.primary.base_url", "http://localhost:11434/v1")
	v.SetDefault("providers.primary.model", "llama3.2:3b")
	v.SetDefault("providers.primary.temperature", 0.7)
	v.SetDefault("providers.primary.max_tokens", 1500)
	v.SetDefault("providers.primary.timeout", "30s")

	v.SetDefault("providers.secondary.name", "openai")
	v.SetDefault("providers.secondary.model", "gpt-4o-mini")
	v.SetDefault("providers.secondary.temperature", 0.7)
	v.SetDefault("providers.secondary.max_tokens", 1500)
	v.SetDefault("providers.secondary.timeout", "20s")

	v.SetDefault("orchestrator.budget_tolerance", 0.10)
	v.SetDefault("orchestrator.time_tolerance", 0.20)
	v.SetDefault("orchestrator.error_rate_threshold", 0.5)
	v.SetDefault("orchestrator.latency_ceiling", "10s")
	v.SetDefault("orchestrator.quality_trend_floor", 0.6)
	v.SetDefault("orchestrator.health_window", "5m")
	// Two samples are enough to leave cold start, so a provider that times
	// out twice in a row already degrades the next run's starting level.
	v.SetDefault("orchestrator.health_min_samples", 2)
	v.SetDefault("orchestrator.rule_score_floor", 5.0)
	v.SetDefault("orchestrator.rule_top_n", 5)
	v.SetDefault("orchestrator.availability_coverage", 0.7)

	v.SetDefault("cache.meal_suggestion_ttl", "6h")
	v.SetDefault("cache.weekly_menu_ttl", "24h")
	v.SetDefault("cache.personalization_ttl", "168h")
	v.SetDefault("cache.pattern_discount", 0.8)
	v.SetDefault("cache.similarity_threshold", 0.85)
	v.SetDefault("cache.local_cache_size", 1000)

	v.SetDefault("budget.default_tier", "standard")
	v.SetDefault("budget.global_rps", 100)
	v.SetDefault("budget.period", "720h")
	v.SetDefault("budget.tiers", map[string]interface{}{
		"standard": map[string]interface{}{
			"hard_limit_cents": 1000,
			"soft_limit_cents": 700,
			"hourly_requests":  60,
		},
		"premium": map[string]interface{}{
			"hard_limit_cents": 10000,
			"soft_limit_cents": 8000,
			"hourly_requests":  300,
		},
	})

	v.SetDefault("batch.enabled", true)
	v.SetDefault("batch.flush_interval", "2s")
	v.SetDefault("batch.flush_size", 5)
	v.SetDefault("batch.queue_capacity", 64)
}

// Validate validates the configuration, including the quality-weight sum
// invariant and tier table consistency.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	if !suggestion.WeightsSumToOne(c.Orchestrator.QualityWeights) {
		return fmt.Errorf("quality component weights must sum to 1.0")
	}

	if len(c.Budget.Tiers) == 0 {
		return fmt.Errorf("budget.tiers must not be empty")
	}
	if _, ok := c.Budget.Tiers[c.Budget.DefaultTier]; !ok {
		return fmt.Errorf("budget.default_tier %q has no tier entry", c.Budget.DefaultTier)
	}
	for name, tier := range c.Budget.Tiers {
		if tier.SoftLimitCents > tier.HardLimitCents {
			return fmt.Errorf("tier %q: soft limit exceeds hard limit", name)
		}
	}

	return nil
}

// TTLFor returns the configured cache TTL for a request type.
func (c CacheConfig) TTLFor(t suggestion.RequestType) time.Duration {
	switch t {
	case suggestion.TypeWeeklyMenu:
		return c.WeeklyMenuTTL
	case suggestion.TypePersonalization:
		return c.PersonalizationTTL
	default:
		return c.MealSuggestionTTL
	}
}
