package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"rifas/internal/cache"
	"rifas/internal/database"
	"rifas/internal/external"
	"rifas/internal/messaging"
)

// Config holds the application configuration
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	Version        string
	RequestTimeout time.Duration
	CORSOrigins    []string

	// DefaultTenant is used when neither X-Tenant nor Host resolve a tenant
	DefaultTenant string
	// WebhookToken authenticates the PIX provider callback
	WebhookToken string

	NATSEnabled   bool
	RedisEnabled  bool
	SearchEnabled bool

	Database      database.Config
	NATS          messaging.Config
	Redis         cache.Config
	Elasticsearch ElasticsearchConfig
	JWT           JWTConfig
	Pix           external.PixConfig
	WhatsApp      external.WhatsAppConfig
	Telegram      external.TelegramConfig
	Jobs          JobsConfig
	Antifraud     AntifraudConfig
}

// ElasticsearchConfig holds the raffle search index settings
type ElasticsearchConfig struct {
	URL        string
	Index      string
	Username   string
	Password   string
	MaxRetries int
	Timeout    time.Duration
}

type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// JobsConfig holds the worker tick intervals
type JobsConfig struct {
	ExpirationInterval time.Duration
	ClosingInterval    time.Duration
	AntifraudInterval  time.Duration
}

type AntifraudConfig struct {
	MaxActiveReservations  int
	MaxReservationsPerHour int
	MaxExpirationsPerHour  int
}

// Load reads the configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		Version:        getEnv("APP_VERSION", "1.0.0"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,
		CORSOrigins:    getEnvList("CORS_ORIGINS", "*"),

		DefaultTenant: getEnv("DEFAULT_TENANT", ""),
		WebhookToken:  getEnv("PIX_WEBHOOK_TOKEN", ""),

		NATSEnabled:   getEnvBool("NATS_ENABLED", true),
		RedisEnabled:  getEnvBool("REDIS_ENABLED", true),
		SearchEnabled: getEnvBool("SEARCH_ENABLED", true),

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "rifas"),
			Password:           getEnv("DB_PASSWORD", "rifas123"),
			DBName:             getEnv("DB_NAME", "rifas"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "rifas"),
			ClientID:  getEnv("NATS_CLIENT_ID", "rifas-api"),
		},

		Redis: cache.Config{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},

		Elasticsearch: ElasticsearchConfig{
			URL:        getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
			Index:      getEnv("ELASTICSEARCH_INDEX", "rifas"),
			Username:   getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:   getEnv("ELASTICSEARCH_PASSWORD", ""),
			MaxRetries: getEnvInt("ELASTICSEARCH_MAX_RETRIES", 3),
			Timeout:    getEnvDuration("ELASTICSEARCH_TIMEOUT", 30*time.Second),
		},

		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "change-me"),
			Issuer: getEnv("JWT_ISSUER", "rifas"),
			TTL:    time.Duration(getEnvInt("JWT_TTL_MIN", 60*24)) * time.Minute,
		},

		Pix: external.PixConfig{
			BaseURL:      getEnv("PIX_API_URL", ""),
			ClientID:     getEnv("PIX_CLIENT_ID", ""),
			ClientSecret: getEnv("PIX_CLIENT_SECRET", ""),
			PostbackURL:  getEnv("PIX_POSTBACK_URL", ""),
			MerchantName: getEnv("PIX_MERCHANT_NAME", "RIFAS"),
			MerchantCity: getEnv("PIX_MERCHANT_CITY", "SAO PAULO"),
			Timeout:      time.Duration(getEnvInt("PIX_TIMEOUT_SEC", 30)) * time.Second,
		},

		WhatsApp: external.WhatsAppConfig{
			BaseURL:    getEnv("TWILIO_API_URL", "https://api.twilio.com"),
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
			Timeout:    time.Duration(getEnvInt("TWILIO_TIMEOUT_SEC", 15)) * time.Second,
		},

		Telegram: external.TelegramConfig{
			Token:  getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID: int64(getEnvInt("TELEGRAM_CHAT_ID", 0)),
		},

		Jobs: JobsConfig{
			ExpirationInterval: getEnvDuration("JOB_EXPIRATION_INTERVAL", 30*time.Second),
			ClosingInterval:    getEnvDuration("JOB_CLOSING_INTERVAL", time.Minute),
			AntifraudInterval:  getEnvDuration("JOB_ANTIFRAUD_INTERVAL", 5*time.Minute),
		},

		Antifraud: AntifraudConfig{
			MaxActiveReservations:  getEnvInt("ANTIFRAUD_MAX_ACTIVE", 5),
			MaxReservationsPerHour: getEnvInt("ANTIFRAUD_MAX_RESERVATIONS_HOUR", 100),
			MaxExpirationsPerHour:  getEnvInt("ANTIFRAUD_MAX_EXPIRATIONS_HOUR", 10),
		},
	}
}

// getEnv returns the environment variable or the default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, defaultValue), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
