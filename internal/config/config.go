package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

type Config struct {
	Env      string
	Server   ServerConfig
	Auth     AuthConfig
	Store    StoreConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Log      LogConfig
	Bulletin BulletinConfig
}

type ServerConfig struct {
	Port         string
	CORSOrigins  []string
	TrustProxy   bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type AuthConfig struct {
	JWTSecret        string
	AdminHash        string
	LoginMaxAttempts int
	LoginWindow      time.Duration
}

type StoreConfig struct {
	Driver          string // postgres, sqlite or mongo
	PostgresDSN     string
	SQLiteDSN       string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	ConnectRetries  int
	ConnectDelay    time.Duration
	OpTimeout       time.Duration
	AutoMigrate     bool
	MaxOpenConns    int
	MaxIdleConns    int
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Brokers     []string
	EventsTopic string
	Enabled     bool
}

type LogConfig struct {
	Level string
	Dir   string
}

type BulletinConfig struct {
	Timezone      string
	PublicBaseURL string
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set in production")

func Load() *Config {
	return &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Port:         getEnv("PORT", ":3000"),
			CORSOrigins:  getEnvList("CORS_ORIGINS", nil),
			TrustProxy:   getEnvBool("TRUST_PROXY", false),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret:        getEnv("JWT_SECRET", ""),
			AdminHash:        getEnv("ADMIN_HASH", ""),
			LoginMaxAttempts: getEnvInt("LOGIN_MAX_ATTEMPTS", 5),
			LoginWindow:      getEnvDuration("LOGIN_WINDOW", 15*time.Minute),
		},
		Store: StoreConfig{
			Driver:          getEnv("STORE_DRIVER", "sqlite"),
			PostgresDSN:     getEnv("POSTGRES_DSN", ""),
			SQLiteDSN:       getEnv("SQLITE_DSN", "file:bulletin.db?cache=shared"),
			MongoURI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			MongoDatabase:   getEnv("MONGODB_DATABASE", "solidarity_seattle"),
			MongoCollection: getEnv("MONGODB_COLLECTION", "website_events"),
			ConnectRetries:  getEnvInt("STORE_CONNECT_RETRIES", 5),
			ConnectDelay:    getEnvDuration("STORE_CONNECT_DELAY", 2*time.Second),
			OpTimeout:       getEnvDuration("STORE_OP_TIMEOUT", 5*time.Second),
			AutoMigrate:     getEnvBool("AUTO_MIGRATE", true),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", ""),
		},
		Kafka: KafkaConfig{
			Brokers:     getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			EventsTopic: getEnv("KAFKA_TOPIC_EVENTS", "bulletin.events"),
			Enabled:     getEnvBool("KAFKA_ENABLED", false),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "INFO"),
			Dir:   getEnv("LOG_DIR", "logs"),
		},
		Bulletin: BulletinConfig{
			Timezone:      getEnv("BULLETIN_TIMEZONE", "Local"),
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:5173"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate reports configuration that must stop the process. A missing
// ADMIN_HASH is reported by the login endpoint instead.
func (c *Config) Validate() error {
	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

// Location resolves the bulletin timezone. An unknown name returns the
// process zone together with the lookup error.
func (c *Config) Location() (*time.Location, error) {
	name := c.Bulletin.Timezone
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local, fmt.Errorf("BULLETIN_TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
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
	return out
}
