package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultSessionSecret = "postboard-dev-secret"
	defaultJWTSecret     = "postboard-dev-jwt-secret-change-me"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	Env               string        `mapstructure:"APP_ENV"`
	ListenAddr        string        `mapstructure:"LISTEN_ADDR"`
	Port              string        `mapstructure:"PORT"`
	GinMode           string        `mapstructure:"GIN_MODE"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	DatabaseDriver    string        `mapstructure:"DATABASE_DRIVER"`
	DatabasePath      string        `mapstructure:"DATABASE_PATH"`
	DatabaseDSN       string        `mapstructure:"DATABASE_DSN"`
	SessionSecret     string        `mapstructure:"SESSION_SECRET"`
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	TokenTTL          time.Duration `mapstructure:"TOKEN_TTL"`
	UploadDir         string        `mapstructure:"UPLOAD_DIR"`
	UploadURLPath     string        `mapstructure:"UPLOAD_URL_PATH"`
	MaxUploadMB       int           `mapstructure:"MAX_UPLOAD_MB"`
	RedisURL          string        `mapstructure:"REDIS_URL"`
	RateLimitPerMin   int           `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	BlockStartHour    int           `mapstructure:"BLOCK_START_HOUR"`
	BlockEndHour      int           `mapstructure:"BLOCK_END_HOUR"`
	Timezone          string        `mapstructure:"TIMEZONE"`
	SuperRootUserName string        `mapstructure:"SUPER_ROOT_USER_NAME"`
	SuperRootPassword string        `mapstructure:"SUPER_ROOT_PASSWORD"`
}

var keys = []string{
	"APP_ENV", "LISTEN_ADDR", "PORT", "GIN_MODE", "LOG_LEVEL",
	"DATABASE_DRIVER", "DATABASE_PATH", "DATABASE_DSN",
	"SESSION_SECRET", "JWT_SECRET", "TOKEN_TTL",
	"UPLOAD_DIR", "UPLOAD_URL_PATH", "MAX_UPLOAD_MB",
	"REDIS_URL", "RATE_LIMIT_PER_MINUTE",
	"BLOCK_START_HOUR", "BLOCK_END_HOUR", "TIMEZONE",
	"SUPER_ROOT_USER_NAME", "SUPER_ROOT_PASSWORD",
}

// Load 依次读取 .env、config.yml 与环境变量，并为缺失项提供默认值。
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return AppConfig{}, fmt.Errorf("read config file: %w", err)
		}
	}

	setDefaults(v)
	// AutomaticEnv only resolves keys viper already knows about; binding them
	// explicitly makes Unmarshal see environment-only values.
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return AppConfig{}, err
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LISTEN_ADDR", "")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_PATH", "postboard.db")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("SESSION_SECRET", defaultSessionSecret)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("UPLOAD_DIR", "data/uploads")
	v.SetDefault("UPLOAD_URL_PATH", "/uploads")
	v.SetDefault("MAX_UPLOAD_MB", 10)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 60)
	v.SetDefault("BLOCK_START_HOUR", 22)
	v.SetDefault("BLOCK_END_HOUR", 7)
	v.SetDefault("TIMEZONE", "")
	v.SetDefault("SUPER_ROOT_USER_NAME", "")
	v.SetDefault("SUPER_ROOT_PASSWORD", "")
}

func (c *AppConfig) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.Port = strings.TrimSpace(c.Port)
	c.ListenAddr = strings.TrimSpace(c.ListenAddr)
	if c.ListenAddr == "" {
		c.ListenAddr = fmt.Sprintf(":%s", c.Port)
	}
	c.DatabaseDriver = strings.ToLower(strings.TrimSpace(c.DatabaseDriver))
	c.UploadURLPath = "/" + strings.Trim(strings.TrimSpace(c.UploadURLPath), "/")
	c.RedisURL = strings.TrimSpace(c.RedisURL)
	c.Timezone = strings.TrimSpace(c.Timezone)
	c.SuperRootUserName = strings.TrimSpace(c.SuperRootUserName)
	c.SuperRootPassword = strings.TrimSpace(c.SuperRootPassword)
}

// IsProduction reports whether the app runs with production safeguards.
func (c AppConfig) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate 检查配置的取值范围，生产环境下拒绝默认密钥。
func (c AppConfig) Validate() error {
	if c.Port == "" && c.ListenAddr == "" {
		return errors.New("PORT or LISTEN_ADDR is required")
	}
	switch c.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseDSN == "" {
			return errors.New("DATABASE_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.MaxUploadMB <= 0 {
		return errors.New("MAX_UPLOAD_MB must be positive")
	}
	if c.RateLimitPerMin < 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if c.BlockStartHour < 0 || c.BlockStartHour > 23 || c.BlockEndHour < 0 || c.BlockEndHour > 23 {
		return errors.New("BLOCK_START_HOUR and BLOCK_END_HOUR must be between 0 and 23")
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid TIMEZONE: %w", err)
		}
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret || len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be set to at least 32 characters in production")
		}
		if c.SessionSecret == defaultSessionSecret {
			return errors.New("SESSION_SECRET must be changed in production")
		}
	}
	return nil
}

// Location resolves TIMEZONE, falling back to the server's local zone.
func (c AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// MaxUploadBytes converts MAX_UPLOAD_MB to bytes.
func (c AppConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
