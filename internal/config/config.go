// Package config loads application configuration from the environment, an
// optional .env file and an optional config/config.yaml.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on images without zoneinfo

	"github.com/joho/godotenv" // loads .env into the process environment
	"github.com/spf13/viper"   // env + file lookup with defaults
)

// Store drivers.
const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable of the same name in upper case.
type Config struct {
	Env       string // APP_ENV (dev/prod)
	Port      string // APP_PORT
	LogLevel  string // LOG_LEVEL (logrus level name)
	LogFormat string // LOG_FORMAT: json or text

	StoreDriver string // STORE_DRIVER: mysql or memory
	DBUser      string // DB_USER
	DBPass      string // DB_PASS (empty allowed)
	DBHost      string // DB_HOST
	DBPort      string // DB_PORT
	DBName      string // DB_NAME
	DBMigrate   bool   // DB_MIGRATE: create tables on startup

	JWTSecret string // JWT_SECRET, verifies bearer tokens

	AuthorityURL      string        // AUTHORITY_URL
	AuthorityToken    string        // AUTHORITY_TOKEN, sent as bearer token
	AuthorityTimeout  time.Duration // AUTHORITY_TIMEOUT
	NotificationToken string        // NOTIFICATION_TOKEN, expected in X-Authority-Token

	HoldDuration time.Duration // HOLD_DURATION
	Timezone     string        // TIMEZONE, IANA name for event dates
	SyncInterval time.Duration // SYNC_INTERVAL, 0 disables the periodic sync
	SyncLockTTL  time.Duration // SYNC_LOCK_TTL

	RabbitMQURL string // RABBITMQ_URL (AMQP_URL accepted), empty disables messaging

	Redis     RedisConfig
	RateLimit RateLimitConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "dev")
	v.SetDefault("app_port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "")
	v.SetDefault("store_driver", StoreMySQL)
	v.SetDefault("db_user", "")
	v.SetDefault("db_pass", "")
	v.SetDefault("db_host", "")
	v.SetDefault("db_port", "3306")
	v.SetDefault("db_name", "")
	v.SetDefault("db_migrate", true)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("authority_url", "http://localhost:8081")
	v.SetDefault("authority_token", "")
	v.SetDefault("authority_timeout", 5*time.Second)
	v.SetDefault("notification_token", "")
	v.SetDefault("hold_duration", 5*time.Minute)
	v.SetDefault("timezone", "America/Argentina/Buenos_Aires")
	v.SetDefault("sync_interval", 5*time.Minute)
	v.SetDefault("sync_lock_ttl", 10*time.Minute)
	v.SetDefault("rabbitmq_url", "")
	v.SetDefault("amqp_url", "")
}

// New returns a viper instance with defaults that reads the environment.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads .env (if present), config/config.yaml (if present) and the
// environment.  Environment variables win over the file.
func Load() (Config, error) {
	_ = godotenv.Load() // a missing .env is fine

	v := New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read file: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (Config, error) {
	c := Config{
		Env:               v.GetString("app_env"),
		Port:              v.GetString("app_port"),
		LogLevel:          v.GetString("log_level"),
		LogFormat:         strings.ToLower(v.GetString("log_format")),
		StoreDriver:       strings.ToLower(v.GetString("store_driver")),
		DBUser:            v.GetString("db_user"),
		DBPass:            v.GetString("db_pass"),
		DBHost:            v.GetString("db_host"),
		DBPort:            v.GetString("db_port"),
		DBName:            v.GetString("db_name"),
		DBMigrate:         v.GetBool("db_migrate"),
		JWTSecret:         v.GetString("jwt_secret"),
		AuthorityURL:      strings.TrimRight(v.GetString("authority_url"), "/"),
		AuthorityToken:    v.GetString("authority_token"),
		AuthorityTimeout:  v.GetDuration("authority_timeout"),
		NotificationToken: v.GetString("notification_token"),
		HoldDuration:      v.GetDuration("hold_duration"),
		Timezone:          v.GetString("timezone"),
		SyncInterval:      v.GetDuration("sync_interval"),
		SyncLockTTL:       v.GetDuration("sync_lock_ttl"),
		RabbitMQURL:       v.GetString("rabbitmq_url"),
	}
	c.Redis = LoadRedisConfig(v)
	c.RateLimit = LoadRateLimitConfig(v)
	if c.RabbitMQURL == "" {
		c.RabbitMQURL = v.GetString("amqp_url")
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
		if c.Env == "prod" {
			c.LogFormat = "json"
		}
	}
	return c, c.validate()
}

func (c Config) validate() error {
	var missing []string
	switch c.StoreDriver {
	case StoreMySQL:
		for k, val := range map[string]string{"DB_USER": c.DBUser, "DB_HOST": c.DBHost, "DB_NAME": c.DBName, "JWT_SECRET": c.JWTSecret} {
			if val == "" {
				missing = append(missing, k)
			}
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if len(missing) > 0 {
		sort.Strings(missing) // map order is random
		return fmt.Errorf("config: missing required env vars: %s", strings.Join(missing, ", "))
	}
	if c.HoldDuration <= 0 {
		return errors.New("config: HOLD_DURATION must be positive")
	}
	if c.AuthorityTimeout <= 0 {
		return errors.New("config: AUTHORITY_TIMEOUT must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
