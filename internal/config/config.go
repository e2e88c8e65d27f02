package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Threads    ThreadsConfig    `mapstructure:"threads"`
	Model      ModelConfig      `mapstructure:"model"`
	Cache      CacheConfig      `mapstructure:"cache"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Context    ContextConfig    `mapstructure:"context"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	I18n       I18nConfig       `mapstructure:"i18n"`
	Knowledge  KnowledgeConfig  `mapstructure:"knowledge"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	Name            string        `mapstructure:"name"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ThreadsConfig selects the conversation thread store backend.
type ThreadsConfig struct {
	Type   string       `mapstructure:"type"` // "redis" or "memory"
	Redis  RedisConfig  `mapstructure:"redis"`
	Memory MemoryConfig `mapstructure:"memory"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MemoryConfig struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type ModelConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Name        string  `mapstructure:"name"`
	Temperature float32 `mapstructure:"temperature"`
	MaxRetries  int     `mapstructure:"max_retries"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	MaxSize int           `mapstructure:"max_size"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

type ContextConfig struct {
	MaxMessages int `mapstructure:"max_messages"`
}

type LoggingConfig struct {
	Level  string     `mapstructure:"level"`
	Format string     `mapstructure:"format"`
	Output string     `mapstructure:"output"`
	File   FileConfig `mapstructure:"file"`
}

type FileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

type MonitoringConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

type I18nConfig struct {
	DefaultLanguage string   `mapstructure:"default_language"`
	Languages       []string `mapstructure:"languages"`
	Directory       string   `mapstructure:"directory"`
}

// KnowledgeConfig points at the prebuilt markdown corpora backing the
// medical-advice and system-flow retrieval indexes.
type KnowledgeConfig struct {
	MedicalDir    string `mapstructure:"medical_dir"`
	SystemFlowDir string `mapstructure:"system_flow_dir"`
}

type TelegramConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Token         string `mapstructure:"token"`
	UpdateTimeout int    `mapstructure:"update_timeout"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	viper.SetEnvPrefix("")
	viper.BindEnv("database.dsn", "DATABASE_DSN")
	viper.BindEnv("database.name", "MOSEFAK_APP_DATABASE_NAME")
	viper.BindEnv("model.api_key", "OPENAI_API_KEY")
	viper.BindEnv("model.base_url", "OPENAI_BASE_URL")
	viper.BindEnv("threads.redis.addr", "REDIS_ADDR")
	viper.BindEnv("threads.redis.password", "REDIS_PASSWORD")
	viper.BindEnv("telegram.token", "BOT_TOKEN")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 2 * time.Minute
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 20
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 10
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "mosefak-management"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 5 * time.Minute
	}
	if cfg.Cache.MaxSize == 0 {
		cfg.Cache.MaxSize = 1000
	}
	if cfg.Context.MaxMessages == 0 {
		cfg.Context.MaxMessages = 6
	}
	if cfg.Model.MaxRetries == 0 {
		cfg.Model.MaxRetries = 3
	}
	if cfg.I18n.DefaultLanguage == "" {
		cfg.I18n.DefaultLanguage = "en"
	}
	if len(cfg.I18n.Languages) == 0 {
		cfg.I18n.Languages = []string{"en", "ar"}
	}
	if cfg.I18n.Directory == "" {
		cfg.I18n.Directory = "configs/i18n"
	}
	if cfg.Threads.Type == "" {
		cfg.Threads.Type = "memory"
	}
	if cfg.Threads.Memory.DefaultExpiration == 0 {
		cfg.Threads.Memory.DefaultExpiration = 24 * time.Hour
	}
	if cfg.Threads.Memory.CleanupInterval == 0 {
		cfg.Threads.Memory.CleanupInterval = time.Hour
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	if cfg.Model.APIKey == "" {
		return fmt.Errorf("model api key is required")
	}
	if cfg.Telegram.Enabled && cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required when telegram is enabled")
	}
	switch cfg.Threads.Type {
	case "redis", "memory":
	default:
		return fmt.Errorf("unsupported thread store type: %s", cfg.Threads.Type)
	}
	return nil
}
