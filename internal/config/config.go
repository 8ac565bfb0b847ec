// Package config reads the service configuration from the environment.
// A .env file in the working directory is loaded first when present.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port   string
	AppEnv string

	SearchBaseURL     string
	SearchFixturePath string
	SearchAPIKey      string
	SearchTimeout     time.Duration
	SearchMaxRetries  int
	SearchRateRPS     float64
	SearchRateBurst   int
	MinConnectionTime time.Duration
	DefaultTimezone   string

	CacheBackend  string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisTTL      time.Duration

	StateBackend string
	StateDSN     string
	StateTTL     time.Duration

	KnownLocationsSize int
}

// Load returns the configuration. A missing .env file is not an error.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() Config {
	return Config{
		Port:   getEnv("PORT", "8080"),
		AppEnv: getEnv("APP_ENV", "development"),

		SearchBaseURL:     getEnv("SEARCH_BASE_URL", ""),
		SearchFixturePath: getEnv("SEARCH_FIXTURE_PATH", ""),
		SearchAPIKey:      getEnv("SEARCH_API_KEY", ""),
		SearchTimeout:     getEnvDuration("SEARCH_TIMEOUT", 5*time.Second),
		SearchMaxRetries:  getEnvInt("SEARCH_MAX_RETRIES", 2),
		SearchRateRPS:     getEnvFloat("SEARCH_RATE_RPS", 5),
		SearchRateBurst:   getEnvInt("SEARCH_RATE_BURST", 10),
		MinConnectionTime: getEnvDuration("MIN_CONNECTION_TIME", 45*time.Minute),
		DefaultTimezone:   getEnv("DEFAULT_TIMEZONE", "Local"),

		CacheBackend:  strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTTL:      getEnvDuration("REDIS_TTL", 5*time.Minute),

		StateBackend: strings.ToLower(getEnv("STATE_BACKEND", "memory")),
		StateDSN:     getEnv("STATE_DSN", ""),
		StateTTL:     getEnvDuration("STATE_TTL", 720*time.Hour),

		KnownLocationsSize: getEnvInt("KNOWN_LOCATIONS_SIZE", 2048),
	}
}

// NeedsRedis reports whether any backend talks to redis.
func (c Config) NeedsRedis() bool {
	return c.CacheBackend == "redis" || c.StateBackend == "redis"
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
