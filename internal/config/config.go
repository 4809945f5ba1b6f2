package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	App          AppConfig          `envPrefix:"APP_"`
	Database     DatabaseConfig     `envPrefix:"DB_"`
	JWT          JWTConfig          `envPrefix:"JWT_"`
	Redis        RedisConfig        `envPrefix:"REDIS_"`
	RabbitMQ     RabbitMQConfig     `envPrefix:"RABBITMQ_"`
	Notification NotificationConfig `envPrefix:"NOTIFICATION_"`
	CheckIn      CheckInConfig
	CORS         CORSConfig `envPrefix:"CORS_"`
}

// AppConfig holds application configuration
type AppConfig struct {
	Name     string `env:"NAME" envDefault:"escalas"`
	Version  string `env:"VERSION" envDefault:"v1.0.0"`
	Port     int    `env:"PORT" envDefault:"8080"`
	Env      string `env:"ENV" envDefault:"development"`
	Timezone string `env:"TIMEZONE" envDefault:"America/Sao_Paulo"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type DatabaseConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"postgres"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME" envDefault:"escalas"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"`
	MaxConns int32  `env:"MAX_CONNS" envDefault:"25"`
	MinConns int32  `env:"MIN_CONNS" envDefault:"5"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `env:"SECRET_KEY"`
}

type RedisConfig struct {
	Host     string        `env:"HOST" envDefault:"localhost"`
	Port     int           `env:"PORT" envDefault:"6379"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB" envDefault:"0"`
	LockTTL  time.Duration `env:"LOCK_TTL" envDefault:"10m"`
}

// RabbitMQConfig is optional; an empty URL disables the broker.
type RabbitMQConfig struct {
	URL            string        `env:"URL"`
	Queue          string        `env:"QUEUE" envDefault:"notifications"`
	PublishTimeout time.Duration `env:"PUBLISH_TIMEOUT" envDefault:"10s"`
}

type NotificationConfig struct {
	WSURL        string        `env:"WS_URL"`
	WSToken      string        `env:"WS_TOKEN"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"60s"`
	Workers      int           `env:"WORKERS" envDefault:"2"`
	QueueSize    int           `env:"QUEUE_SIZE" envDefault:"1000"`
}

type CheckInConfig struct {
	WindowBefore      time.Duration `env:"CHECKIN_WINDOW_BEFORE" envDefault:"15m"`
	WindowAfter       time.Duration `env:"CHECKIN_WINDOW_AFTER" envDefault:"30m"`
	PositionTimeout   time.Duration `env:"POSITION_TIMEOUT" envDefault:"10s"`
	PositionMaxAge    time.Duration `env:"POSITION_MAX_AGE" envDefault:"5m"`
	StatsPollInterval time.Duration `env:"STATS_POLL_INTERVAL" envDefault:"30s"`
	AbsentInterval    time.Duration `env:"ABSENT_SWEEP_INTERVAL" envDefault:"1m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}
	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (*Config, error) {
	config := &Config{}
	if err := env.Parse(config); err != nil {
		var aggErr env.AggregateError
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			return nil, fmt.Errorf("failed to parse configuration: %w", aggErr.Errors[0])
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.CheckIn.WindowBefore < 0 || c.CheckIn.WindowAfter < 0 {
		return fmt.Errorf("check-in window bounds must not be negative")
	}
	if c.CheckIn.PositionTimeout <= 0 {
		return fmt.Errorf("POSITION_TIMEOUT must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// DatabaseURL builds the pgx connection string.
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}

func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}
