package config

import (
	"os"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on hosts without a zoneinfo database

	"github.com/pkg/errors"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	EventsNone  = "none"
	EventsKafka = "kafka"
	EventsRedis = "redis"
)

type AppConfig struct {
	HTTPAddr        string
	LookupHeader    string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	Location        *time.Location

	StoreDriver string
	DatabaseURL string

	EventsDriver string
	KafkaBrokers []string
	KafkaTopic   string
	RedisAddr    string
	RedisPass    string
	RedisChannel string

	LogLevel  string
	LogFormat string
}

// Load reads the configuration from the environment. Call godotenv.Load
// first to pick up a .env file.
func Load() (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddr:       getEnv("HTTP_ADDR", ":3333"),
		LookupHeader:   getEnv("LOOKUP_HEADER", "cpf"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		EventsDriver:   strings.ToLower(getEnv("EVENTS_DRIVER", EventsNone)),
		KafkaBrokers:   getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "statement_events"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:      getEnv("REDIS_PASS", ""),
		RedisChannel:   getEnv("REDIS_CHANNEL", "statement_events"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "json")),
	}

	var err error
	cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return AppConfig{}, err
	}

	cfg.Location = time.Local
	if tz := getEnv("TIMEZONE", ""); tz != "" {
		cfg.Location, err = time.LoadLocation(tz)
		if err != nil {
			return AppConfig{}, errors.Wrapf(err, "TIMEZONE %q", tz)
		}
	}

	switch cfg.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return AppConfig{}, errors.New("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return AppConfig{}, errors.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	switch cfg.EventsDriver {
	case EventsNone, EventsKafka, EventsRedis:
	default:
		return AppConfig{}, errors.Errorf("unknown EVENTS_DRIVER %q", cfg.EventsDriver)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Wrapf(err, "%s", key)
	}
	return d, nil
}
