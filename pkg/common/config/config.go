package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort   string
	ServerHost   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Registry API
	RegistryBaseURL string
	RegistrySort    string
	PageSize        int
	RequestTimeout  time.Duration

	// Sync run
	MaxRecords     int
	MaxRetries     int
	RetryDelay     time.Duration
	RunOnStart     bool
	SyncDayOfMonth int
	SyncHourUTC    int

	// Inputs / outputs
	KeywordsDir   string
	SponsorConfig string
	OutputDir     string

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RunLockTTL    time.Duration

	// Kafka
	KafkaBrokers []string
	KafkaGroupID string
	SyncTopic    string
}

func Load() *Config {
	return &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		ServerHost:   getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:  getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getDuration("WRITE_TIMEOUT", 30*time.Second),

		RegistryBaseURL: getEnv("REGISTRY_BASE_URL", "https://clinicaltrials.gov/api/v2/studies"),
		RegistrySort:    getEnv("REGISTRY_SORT", "LastUpdatePostDate"),
		PageSize:        getIntEnv("REGISTRY_PAGE_SIZE", 1000),
		RequestTimeout:  getDuration("REGISTRY_REQUEST_TIMEOUT", 30*time.Second),

		MaxRecords:     getIntEnv("SYNC_MAX_RECORDS", 10000),
		MaxRetries:     getIntEnv("SYNC_MAX_RETRIES", 5),
		RetryDelay:     getDuration("SYNC_RETRY_DELAY", 5*time.Second),
		RunOnStart:     getBoolEnv("SYNC_RUN_ON_START", true),
		SyncDayOfMonth: getIntEnv("SYNC_DAY_OF_MONTH", 1),
		SyncHourUTC:    getIntEnv("SYNC_HOUR_UTC", 8),

		KeywordsDir:   getEnv("KEYWORDS_DIR", "keywords"),
		SponsorConfig: getEnv("SPONSOR_CONFIG", ""),
		OutputDir:     getEnv("OUTPUT_DIR", "."),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "trialsync"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "trialsync123"),
		PostgresDB:       getEnv("POSTGRES_DB", "trialsync"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		RunLockTTL:    getDuration("RUN_LOCK_TTL", 2*time.Hour),

		KafkaBrokers: getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "trialsync"),
		SyncTopic:    getEnv("SYNC_EVENTS_TOPIC", "trialsync.runs"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
