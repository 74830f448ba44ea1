package config

import (
	"os"
	"strconv"
)

// Config holds all configuration for the service
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	NATS         NATSConfig
	App          AppConfig
	Notification NotificationConfig
	CORS         CORSConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL string
}

// AppConfig holds application configuration
type AppConfig struct {
	Environment   string
	LogLevel      string
	JWTSecret     string
	JWTExpiryHours int
}

// NotificationConfig holds email dispatcher configuration
type NotificationConfig struct {
	ServiceURL string
	APIKey     string
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// New creates a new configuration instance
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host: getEnvWithDefault("SERVER_HOST", "0.0.0.0"),
			Port: getEnvWithDefault("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnvWithDefault("DB_HOST", "localhost"),
			Port:     getEnvWithDefault("DB_PORT", "5432"),
			User:     getEnvWithDefault("DB_USER", "postgres"),
			Password: getEnvWithDefault("DB_PASSWORD", "postgres"),
			Name:     getEnvWithDefault("DB_NAME", "fleet_db"),
			SSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnvWithDefault("REDIS_HOST", "localhost"),
			Port:     getEnvWithDefault("REDIS_PORT", "6379"),
			Password: getEnvWithDefault("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		NATS: NATSConfig{
			URL: getEnvWithDefault("NATS_URL", "nats://localhost:4222"),
		},
		App: AppConfig{
			Environment:   getEnvWithDefault("APP_ENV", "development"),
			LogLevel:      getEnvWithDefault("LOG_LEVEL", "info"),
			JWTSecret:     getEnvWithDefault("JWT_SECRET", "dev-secret-change-me"),
			JWTExpiryHours: getEnvAsInt("JWT_EXPIRY_HOURS", 24),
		},
		Notification: NotificationConfig{
			ServiceURL: getEnvWithDefault("NOTIFICATION_SERVICE_URL", ""),
			APIKey:     getEnvWithDefault("NOTIFICATION_API_KEY", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{getEnvWithDefault("CORS_ALLOWED_ORIGIN", "*")},
		},
	}
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
