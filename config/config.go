package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv            string `validate:"oneof=development test production"`
	AppPort           string `validate:"required,numeric"`
	AllowedOrigins    string `validate:"required"`
	LogLevel          string `validate:"oneof=trace debug info warn error"`
	DBDriver          string `validate:"oneof=postgres sqlite"`
	DBHost            string `validate:"required_if=DBDriver postgres"`
	DBPort            string `validate:"required_if=DBDriver postgres"`
	DBUser            string
	DBPassword        string
	DBName            string        `validate:"required_if=DBDriver postgres"`
	DBPath            string        `validate:"required_if=DBDriver sqlite"`
	DBMaxIdleConns    int           `validate:"gte=0"`
	DBMaxOpenConns    int           `validate:"gte=1"`
	NATSURL           string        `validate:"omitempty,url"`
	EventPollInterval time.Duration `validate:"gte=10ms"`
	SanitizeBody      bool
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Debug().Str("key", key).Str("default", defaultValue).Msg("env not set, using default")
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Int("default", defaultValue).Msg("invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Warn().Str("key", key).Bool("default", defaultValue).Msg("invalid boolean, using default")
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Warn().Str("key", key).Dur("default", defaultValue).Msg("invalid duration, using default")
	}
	return defaultValue
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to read .env file")
	}

	return Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		AppPort:           getEnv("APP_PORT", "8080"),
		AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "*"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DBDriver:          getEnv("DB_DRIVER", "postgres"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "notepin"),
		DBPassword:        getEnv("DB_PASSWORD", "notepin"),
		DBName:            getEnv("DB_NAME", "notepin"),
		DBPath:            getEnv("DB_PATH", "notepin.db"),
		DBMaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		NATSURL:           getEnv("NATS_URL", ""),
		EventPollInterval: getEnvAsDuration("EVENT_POLL_INTERVAL", 250*time.Millisecond),
		SanitizeBody:      getEnvAsBool("SANITIZE_BODY", false),
	}
}

var validate = validator.New()

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// TUIConfig configures the terminal client.
type TUIConfig struct {
	ServerURL string `validate:"required,url"`
	LogFile   string
	LogLevel  string `validate:"oneof=trace debug info warn error"`
}

func LoadTUI() TUIConfig {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to read .env file")
	}

	return TUIConfig{
		ServerURL: getEnv("NOTEPIN_URL", "http://localhost:8080"),
		LogFile:   getEnv("NOTEPIN_LOG_FILE", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}
}

func (c TUIConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
