package utils

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Email     EmailConfig
	OTP       OTPConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name       string
	Port       string
	Debug      bool
	LogPath    string
	CORSOrigin string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type JWTConfig struct {
	Secret           string
	AccessTTLMinutes int
	ResetTTLHours    int
}

type RedisConfig struct {
	Enabled   bool
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	OpTimeout time.Duration
}

// CacheConfig holds the TTL of every cached projection.
type CacheConfig struct {
	UserTTL    time.Duration
	SessionTTL time.Duration
	ContactTTL time.Duration
}

type EmailConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	From       string
	ServerHost string
}

type OTPConfig struct {
	ExpiryMinutes int
	Length        int
}

type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "contacts-api")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("CORS_ORIGIN", "*")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("JWT_ACCESS_TTL_MINUTES", 30)
	viper.SetDefault("JWT_RESET_TTL_HOURS", 1)
	viper.SetDefault("REDIS_ENABLED", true)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_KEY_PREFIX", "contacts-api:")
	viper.SetDefault("CACHE_OP_TIMEOUT", "200ms")
	viper.SetDefault("CACHE_USER_TTL", "1h")
	viper.SetDefault("CACHE_SESSION_TTL", "15m")
	viper.SetDefault("CACHE_CONTACT_TTL", "30m")
	viper.SetDefault("SERVER_HOST", "http://localhost:8080")
	viper.SetDefault("OTP_EXPIRY_MINUTES", 10)
	viper.SetDefault("OTP_LENGTH", 6)
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	viper.SetDefault("RATE_LIMIT_BURST", 30)

	// .env is optional, plain environment variables are enough in containers
	if _, err := os.Stat(".env"); err == nil {
		if err := viper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:       viper.GetString("APP_NAME"),
			Port:       viper.GetString("PORT"),
			Debug:      viper.GetBool("DEBUG"),
			LogPath:    viper.GetString("LOG_PATH"),
			CORSOrigin: viper.GetString("CORS_ORIGIN"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		JWT: JWTConfig{
			Secret:           viper.GetString("JWT_SECRET"),
			AccessTTLMinutes: viper.GetInt("JWT_ACCESS_TTL_MINUTES"),
			ResetTTLHours:    viper.GetInt("JWT_RESET_TTL_HOURS"),
		},
		Redis: RedisConfig{
			Enabled:   viper.GetBool("REDIS_ENABLED"),
			Addr:      viper.GetString("REDIS_ADDR"),
			Password:  viper.GetString("REDIS_PASSWORD"),
			DB:        viper.GetInt("REDIS_DB"),
			KeyPrefix: viper.GetString("CACHE_KEY_PREFIX"),
			OpTimeout: viper.GetDuration("CACHE_OP_TIMEOUT"),
		},
		Cache: CacheConfig{
			UserTTL:    viper.GetDuration("CACHE_USER_TTL"),
			SessionTTL: viper.GetDuration("CACHE_SESSION_TTL"),
			ContactTTL: viper.GetDuration("CACHE_CONTACT_TTL"),
		},
		Email: EmailConfig{
			Host:       viper.GetString("SMTP_HOST"),
			Port:       viper.GetInt("SMTP_PORT"),
			User:       viper.GetString("SMTP_USER"),
			Password:   viper.GetString("SMTP_PASS"),
			From:       viper.GetString("EMAIL_FROM"),
			ServerHost: viper.GetString("SERVER_HOST"),
		},
		OTP: OTPConfig{
			ExpiryMinutes: viper.GetInt("OTP_EXPIRY_MINUTES"),
			Length:        viper.GetInt("OTP_LENGTH"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: viper.GetInt("RATE_LIMIT_PER_MINUTE"),
			Burst:             viper.GetInt("RATE_LIMIT_BURST"),
		},
	}

	if config.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return config, nil
}
