package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Resolver   ResolverConfig   `yaml:"resolver" mapstructure:"resolver"`
	Wikipedia  WikipediaConfig  `yaml:"wikipedia" mapstructure:"wikipedia"`
	Polymarket PolymarketConfig `yaml:"polymarket" mapstructure:"polymarket"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Circuit    CircuitConfig    `yaml:"circuit" mapstructure:"circuit"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the durable backend shared by the registry,
// cache and miss registry.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	RedisURL    string `yaml:"redis_url" mapstructure:"redis_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ResolverConfig tunes the resolution layers.
type ResolverConfig struct {
	RegistryThreshold int    `yaml:"registry_threshold" mapstructure:"registry_threshold"`
	CacheTTLDays      int    `yaml:"cache_ttl_days" mapstructure:"cache_ttl_days"`
	MissCooldownDays  int    `yaml:"miss_cooldown_days" mapstructure:"miss_cooldown_days"`
	DedupThreshold    int    `yaml:"dedup_threshold" mapstructure:"dedup_threshold"`
	BatchSize         int    `yaml:"batch_size" mapstructure:"batch_size"`
	MaxBatchSize      int    `yaml:"max_batch_size" mapstructure:"max_batch_size"`
	StaticTablePath   string `yaml:"static_table_path" mapstructure:"static_table_path"`
}

// CacheTTL returns the cache TTL as a duration.
func (c ResolverConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLDays) * 24 * time.Hour
}

// MissCooldown returns the miss cooldown as a duration.
func (c ResolverConfig) MissCooldown() time.Duration {
	return time.Duration(c.MissCooldownDays) * 24 * time.Hour
}

// WikipediaConfig holds knowledge-source client settings.
type WikipediaConfig struct {
	BaseURL              string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent            string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs          int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRequestsPerSecond int    `yaml:"max_requests_per_second" mapstructure:"max_requests_per_second"`
	MaxQueueSize         int    `yaml:"max_queue_size" mapstructure:"max_queue_size"`
}

// PolymarketConfig holds market-source client settings.
type PolymarketConfig struct {
	BaseURL              string `yaml:"base_url" mapstructure:"base_url"`
	MaxRequestsPerSecond int    `yaml:"max_requests_per_second" mapstructure:"max_requests_per_second"`
	MaxQueueSize         int    `yaml:"max_queue_size" mapstructure:"max_queue_size"`
	PageSize             int    `yaml:"page_size" mapstructure:"page_size"`
}

// RetryConfig holds backoff settings for outbound calls.
type RetryConfig struct {
	MaxRetries  int `yaml:"max_retries" mapstructure:"max_retries"`
	BaseDelayMs int `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
	MaxDelayMs  int `yaml:"max_delay_ms" mapstructure:"max_delay_ms"`
}

// CircuitConfig holds circuit breaker settings for the knowledge source.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ServerConfig configures the HTTP API.
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
	v.SetEnvPrefix("POLYCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "polycheck.db")
	v.SetDefault("store.redis_url", "")
	v.SetDefault("store.max_conns", 0)
	v.SetDefault("store.min_conns", 0)
	v.SetDefault("resolver.registry_threshold", 80)
	v.SetDefault("resolver.cache_ttl_days", 30)
	v.SetDefault("resolver.miss_cooldown_days", 7)
	v.SetDefault("resolver.dedup_threshold", 50)
	v.SetDefault("resolver.batch_size", 5)
	v.SetDefault("resolver.max_batch_size", 20)
	v.SetDefault("resolver.static_table_path", "")
	v.SetDefault("wikipedia.base_url", "https://en.wikipedia.org/w/api.php")
	v.SetDefault("wikipedia.user_agent", "PolyCheck/1.0 (birth date research tool)")
	v.SetDefault("wikipedia.timeout_secs", 15)
	v.SetDefault("wikipedia.max_requests_per_second", 5)
	v.SetDefault("wikipedia.max_queue_size", 100)
	v.SetDefault("polymarket.base_url", "https://gamma-api.polymarket.com")
	v.SetDefault("polymarket.max_requests_per_second", 10)
	v.SetDefault("polymarket.max_queue_size", 200)
	v.SetDefault("polymarket.page_size", 100)
	v.SetDefault("retry.max_retries", 2)
	v.SetDefault("retry.base_delay_ms", 500)
	v.SetDefault("retry.max_delay_ms", 5000)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks the settings a command needs. mode is one of "resolve",
// "crawl" or "serve"; every problem found is reported in one error.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres", "memory":
		if c.Store.Driver != "memory" && c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	case "redis":
		if c.Store.RedisURL == "" {
			errs = append(errs, "store.redis_url is required for the redis driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not one of sqlite, postgres, redis, memory", c.Store.Driver))
	}

	if c.Resolver.RegistryThreshold < 0 || c.Resolver.RegistryThreshold > 100 {
		errs = append(errs, "resolver.registry_threshold must be between 0 and 100")
	}
	if c.Resolver.DedupThreshold < 0 || c.Resolver.DedupThreshold > 100 {
		errs = append(errs, "resolver.dedup_threshold must be between 0 and 100")
	}
	if c.Resolver.CacheTTLDays <= 0 {
		errs = append(errs, "resolver.cache_ttl_days must be > 0")
	}
	if c.Resolver.MissCooldownDays < 0 {
		errs = append(errs, "resolver.miss_cooldown_days must be >= 0")
	}
	if c.Resolver.BatchSize < 1 || c.Resolver.BatchSize > c.Resolver.MaxBatchSize {
		errs = append(errs, "resolver.batch_size must be between 1 and resolver.max_batch_size")
	}

	switch mode {
	case "resolve":
	case "crawl":
		if c.Polymarket.BaseURL == "" {
			errs = append(errs, "polymarket.base_url is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
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
