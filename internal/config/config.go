package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration values.
type Config struct {
	AppPort       string `mapstructure:"APP_PORT"`
	Env           string `mapstructure:"ENV"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	JWTSecret     string `mapstructure:"JWT_SECRET"`

	// Redis backs the matching run lock; empty address keeps the lock in-process.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	SchoolTimezone    string        `mapstructure:"SCHOOL_TIMEZONE"`
	MatchWorkers      int           `mapstructure:"MATCH_WORKERS"`
	MatchLockTTL      time.Duration `mapstructure:"MATCH_LOCK_TTL"`
	MaxRequestsPerMin int           `mapstructure:"MAX_REQUESTS_PER_MIN"`
	CORSOrigins       string        `mapstructure:"CORS_ORIGINS"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("STORAGE_DRIVER", DriverPostgres)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SCHOOL_TIMEZONE", "Africa/Lagos")
	v.SetDefault("MATCH_WORKERS", 4)
	v.SetDefault("MATCH_LOCK_TTL", "5m")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 120)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
}

// Load reads .env (if present), an optional config.yaml and the environment, in that order of
// increasing precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER=%s", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.MatchWorkers <= 0 {
		return fmt.Errorf("MATCH_WORKERS must be positive, got %d", c.MatchWorkers)
	}
	if c.MatchLockTTL <= 0 {
		return fmt.Errorf("MATCH_LOCK_TTL must be positive, got %s", c.MatchLockTTL)
	}
	if _, err := time.LoadLocation(c.SchoolTimezone); err != nil {
		return fmt.Errorf("invalid SCHOOL_TIMEZONE %q: %w", c.SchoolTimezone, err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location is the zone naive statement timestamps are read in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.SchoolTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
