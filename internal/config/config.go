package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database     DatabaseConfig
	JWT          JWTConfig
	App          AppConfig
	SMTP         SMTPConfig
	Notification NotificationConfig
	Routing      RoutingConfig
	RateLimit    RateLimitConfig
	Tracing      TracingConfig
}

type DatabaseConfig struct {
	Driver         string // "postgres" or "memory"
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MigrationsPath string
	// Optional YAML file of directory records loaded at startup
	SeedPath       string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
	SSEExpiration    string
}

// AppConfig holds application configuration
type AppConfig struct {
	Name        string
	Version     string
	Port        int
	Env         string
	LogLevel    string
	FrontendURL string
}

// SMTPConfig holds outgoing mail settings. An empty Host disables e-mail.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// NotificationConfig tunes the notification workers and the fan-out dispatcher
type NotificationConfig struct {
	WorkerCount      int
	QueueSize        int
	BatchSize        int
	FlushInterval    time.Duration
	DispatchWorkers  int
	DispatchQueue    int
	Retention        time.Duration
	RetentionCheck   time.Duration
	EmailEnabled     bool
	RequestLinkBase  string
	ShutdownDeadline time.Duration
}

type RoutingConfig struct {
	// Path to the YAML file with the HR location groups. Empty means every
	// location only services itself.
	TablePath string
}

type RateLimitConfig struct {
	Enabled bool
	Rate    string // ulule/limiter formatted rate, e.g. "60-M"
}

type TracingConfig struct {
	Enabled    bool
	OutputFile string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded, using process environment")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Driver:         getEnv("DB_DRIVER", "postgres"),
		Host:           getEnv("DB_HOST", "localhost"),
		Port:           dbPort,
		User:           getEnv("DB_USER", "postgres"),
		Password:       getEnv("DB_PASSWORD", ""),
		Name:           getEnv("DB_NAME", "hris-approval"),
		SSLMode:        getEnv("DB_SSL_MODE", "disable"),
		MigrationsPath: getEnv("DB_MIGRATIONS_PATH", "migrations"),
		SeedPath:       getEnv("DIRECTORY_SEED_PATH", ""),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Name:        getEnv("APP_NAME", "hris-approval"),
		Version:     getEnv("APP_VERSION", "v1.0.0"),
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
		SSEExpiration:    getEnv("JWT_SSE_EXPIRATION_TIME", "5m"),
	}

	// SMTP configuration
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	config.SMTP = SMTPConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     smtpPort,
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", "no-reply@localhost"),
		FromName: getEnv("SMTP_FROM_NAME", "HRIS Approvals"),
	}

	// Notification configuration
	notification, err := loadNotificationConfig(config.App.FrontendURL)
	if err != nil {
		return nil, err
	}
	config.Notification = notification

	config.Routing = RoutingConfig{
		TablePath: getEnv("ROUTING_TABLE_PATH", "configs/routing.yaml"),
	}

	config.RateLimit = RateLimitConfig{
		Enabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		Rate:    getEnv("RATE_LIMIT", "120-M"),
	}

	config.Tracing = TracingConfig{
		Enabled:    getEnvBool("TRACING_ENABLED", false),
		OutputFile: getEnv("TRACING_OUTPUT_FILE", ""),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadNotificationConfig(frontendURL string) (NotificationConfig, error) {
	durations := map[string]string{
		"NOTIFICATION_FLUSH_INTERVAL":    "2s",
		"NOTIFICATION_RETENTION":         "720h",
		"NOTIFICATION_RETENTION_CHECK":   "6h",
		"NOTIFICATION_SHUTDOWN_DEADLINE": "10s",
	}
	parsed := make(map[string]time.Duration, len(durations))
	for key, fallback := range durations {
		d, err := time.ParseDuration(getEnv(key, fallback))
		if err != nil {
			return NotificationConfig{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		parsed[key] = d
	}

	ints := map[string]string{
		"NOTIFICATION_WORKERS":        "2",
		"NOTIFICATION_QUEUE_SIZE":     "1000",
		"NOTIFICATION_BATCH_SIZE":     "100",
		"NOTIFICATION_DISPATCHERS":    "2",
		"NOTIFICATION_DISPATCH_QUEUE": "256",
	}
	parsedInts := make(map[string]int, len(ints))
	for key, fallback := range ints {
		v, err := strconv.Atoi(getEnv(key, fallback))
		if err != nil {
			return NotificationConfig{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		parsedInts[key] = v
	}

	return NotificationConfig{
		WorkerCount:      parsedInts["NOTIFICATION_WORKERS"],
		QueueSize:        parsedInts["NOTIFICATION_QUEUE_SIZE"],
		BatchSize:        parsedInts["NOTIFICATION_BATCH_SIZE"],
		FlushInterval:    parsed["NOTIFICATION_FLUSH_INTERVAL"],
		DispatchWorkers:  parsedInts["NOTIFICATION_DISPATCHERS"],
		DispatchQueue:    parsedInts["NOTIFICATION_DISPATCH_QUEUE"],
		Retention:        parsed["NOTIFICATION_RETENTION"],
		RetentionCheck:   parsed["NOTIFICATION_RETENTION_CHECK"],
		EmailEnabled:     getEnvBool("NOTIFICATION_EMAIL_ENABLED", false),
		RequestLinkBase:  getEnv("NOTIFICATION_LINK_BASE", frontendURL),
		ShutdownDeadline: parsed["NOTIFICATION_SHUTDOWN_DEADLINE"],
	}, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Notification.WorkerCount < 1 || c.Notification.DispatchWorkers < 1 {
		return fmt.Errorf("notification worker counts must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(getEnv(key, ""))
	switch value {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return fallback
}
