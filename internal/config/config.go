package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=pos port=5432 sslmode=disable"

type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"` // postgres | sqlite
	DSN        string `mapstructure:"dsn"`
	MaxRetries int    `mapstructure:"max_retries"`
	LogMode    bool   `mapstructure:"log_mode"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"` // json | console
}

type AuditConfig struct {
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	KafkaTopic   string   `mapstructure:"kafka_topic"`
}

type ForecastConfig struct {
	ServiceURL string        `mapstructure:"service_url"`
	RedisAddr  string        `mapstructure:"redis_addr"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Articles   []string      `mapstructure:"articles"` // trained model names
}

type Config struct {
	HTTPPort    string         `mapstructure:"http_port"`
	JWTSecret   string         `mapstructure:"jwt_secret"`
	CORSOrigins string         `mapstructure:"cors_origins"`
	Database    DatabaseConfig `mapstructure:"database"`
	Log         LogConfig      `mapstructure:"log"`
	Audit       AuditConfig    `mapstructure:"audit"`
	Forecast    ForecastConfig `mapstructure:"forecast"`
}

// env names keep the flat style used by deployments
var envKeys = map[string]string{
	"http_port":            "HTTP_PORT",
	"jwt_secret":           "JWT_SECRET",
	"cors_origins":         "CORS_ALLOWED_ORIGINS",
	"database.driver":      "DB_DRIVER",
	"database.dsn":         "DATABASE_DSN",
	"database.max_retries": "TX_MAX_RETRIES",
	"database.log_mode":    "DB_LOG_MODE",
	"log.level":            "LOG_LEVEL",
	"log.encoding":         "LOG_ENCODING",
	"audit.kafka_brokers":  "AUDIT_KAFKA_BROKERS",
	"audit.kafka_topic":    "AUDIT_KAFKA_TOPIC",
	"forecast.service_url": "FORECAST_SERVICE_URL",
	"forecast.redis_addr":  "REDIS_ADDR",
	"forecast.cache_ttl":   "FORECAST_CACHE_TTL",
	"forecast.timeout":     "FORECAST_TIMEOUT",
	"forecast.articles":    "FORECAST_ARTICLES",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_port", "8080")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("cors_origins", "http://localhost:5173")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", defaultDSN)
	v.SetDefault("database.max_retries", 3)
	v.SetDefault("database.log_mode", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("audit.kafka_brokers", []string{})
	v.SetDefault("audit.kafka_topic", "pos.audit")
	v.SetDefault("forecast.service_url", "")
	v.SetDefault("forecast.redis_addr", "")
	v.SetDefault("forecast.cache_ttl", 6*time.Hour)
	v.SetDefault("forecast.timeout", 10*time.Second)
	v.SetDefault("forecast.articles", []string{})
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Audit.KafkaBrokers = splitList(cfg.Audit.KafkaBrokers)
	cfg.Forecast.Articles = splitList(cfg.Forecast.Articles)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Database.MaxRetries < 0 {
		return errors.New("TX_MAX_RETRIES must not be negative")
	}
	return nil
}

// UsesDefaultDSN reports whether the development DSN is in effect.
func (c *Config) UsesDefaultDSN() bool {
	return c.Database.Driver == "postgres" && c.Database.DSN == defaultDSN
}

// splitList accepts both repeated values and a single comma separated value.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
