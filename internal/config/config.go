package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	// DSN selects the backing store: empty runs the seeded in-memory
	// store, a postgres DSN runs gorm.
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
	AccessTTL    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

type TouchNGoConfig struct {
	BaseURL    string
	MerchantID string
	APIKey     string
	Timeout    time.Duration
}

type GuestRateConfig struct {
	BaseRate      float64
	PerMinuteRate float64
}

type Config struct {
	Environment string
	Currency    string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Redis       RedisConfig
	RateLimit   RateLimitConfig
	TouchNGo    TouchNGoConfig
	GuestRate   GuestRateConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		Currency:    v.GetString("CURRENCY_CODE"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_SECRET"),
			AccessTTL:    time.Duration(v.GetInt("JWT_EXPIRE_MINUTES")) * time.Minute,
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Limit:  v.GetInt("RATE_LIMIT_REQUESTS"),
			Window: time.Duration(v.GetInt("RATE_LIMIT_WINDOW_SECONDS")) * time.Second,
		},
		TouchNGo: TouchNGoConfig{
			BaseURL:    v.GetString("TOUCHNGO_BASE_URL"),
			MerchantID: v.GetString("TOUCHNGO_MERCHANT_ID"),
			APIKey:     v.GetString("TOUCHNGO_API_KEY"),
			Timeout:    v.GetDuration("TOUCHNGO_TIMEOUT"),
		},
		GuestRate: GuestRateConfig{
			BaseRate:      v.GetFloat64("BASE_GUEST_RATE"),
			PerMinuteRate: v.GetFloat64("PER_MINUTE_GUEST_RATE"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Auth.AccessTTL == 0 {
		cfg.Auth.AccessTTL = 24 * time.Hour
	}
	if cfg.RateLimit.Limit == 0 {
		cfg.RateLimit.Limit = 5
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = 3 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "MYR"
	}
	if cfg.GuestRate.BaseRate == 0 {
		cfg.GuestRate.BaseRate = 2.5
	}
	if cfg.GuestRate.PerMinuteRate == 0 {
		cfg.GuestRate.PerMinuteRate = 0.75
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Auth.AccessSecret == "" {
		if cfg.Environment == "production" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.Auth.AccessSecret = "smartgate-dev-secret"
	}
	return nil
}
