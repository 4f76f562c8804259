package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Token       TokenConfig
	AWS         AWSConfig
	Playback    PlaybackConfig
	Fulfillment FulfillmentConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
	PublicWatchURL     string // base URL embedded in issued SMS watch links
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/adlaunch?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings (key bookkeeping, queue, audit pub/sub).
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// TokenConfig holds watch-token signing and validation settings.
type TokenConfig struct {
	Secret      string
	ExpireHours int
	KeyTTL      time.Duration // lifetime of a secure key chain per watch token
}

// AWSConfig holds AWS credentials and the creatives bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	CreativesBucket      string
	PresignExpireMinutes int
}

// PlaybackConfig holds client-side session protocol policy values.
type PlaybackConfig struct {
	SeekTolerance   time.Duration // max accepted position jump per update
	RewardSoftDelay time.Duration // delay before soft-rewarded UI on a failed complete call
	DemoVideoURL    string        // well-known public sample asset for demo mode
	DemoAdID        string
}

// FulfillmentConfig holds reward fulfillment backend settings.
type FulfillmentConfig struct {
	Endpoint   string // external crediting API; empty disables outbound calls
	TimeoutSec int
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			PublicWatchURL:     getEnv("PUBLIC_WATCH_URL", "https://watch.adlaunch.example/play"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", "postgres://localhost:5432/adlaunch?sslmode=disable"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "adlaunch"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Token: TokenConfig{
			Secret:      getEnv("WATCH_TOKEN_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("WATCH_TOKEN_EXPIRE_HOURS", 72),
			KeyTTL:      time.Duration(getEnvInt("SECURE_KEY_TTL_MINUTES", 30)) * time.Minute,
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			CreativesBucket:      getEnv("AWS_S3_CREATIVES_BUCKET", "adlaunch-creatives"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 60),
		},
		Playback: PlaybackConfig{
			SeekTolerance:   time.Duration(getEnvInt("PLAYBACK_SEEK_TOLERANCE_MS", 500)) * time.Millisecond,
			RewardSoftDelay: time.Duration(getEnvInt("REWARD_SOFT_DELAY_MS", 1200)) * time.Millisecond,
			DemoVideoURL:    getEnv("DEMO_VIDEO_URL", "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4"),
			DemoAdID:        getEnv("DEMO_AD_ID", "demo-ad"),
		},
		Fulfillment: FulfillmentConfig{
			Endpoint:   getEnv("FULFILLMENT_ENDPOINT", ""),
			TimeoutSec: getEnvInt("FULFILLMENT_TIMEOUT_SEC", 15),
		},
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
