package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBPort          string
	AppPort         string
	AppEnv          string
	RedisAddr       string
	StripeSecretKey string
	SuccessURL      string
	CancelURL       string
	JWTSecret       string
	AllowedOrigins  []string

	// MinOrderAmount is the checkout floor in rupees.
	MinOrderAmount int64
	// PollInterval drives the periodic order refresh backstop.
	PollInterval time.Duration
	// MirrorDir is where the local mirror collections are persisted.
	MirrorDir string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:          os.Getenv("DB_HOST"),
		DBUser:          os.Getenv("DB_USER"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBName:          os.Getenv("DB_NAME"),
		DBPort:          os.Getenv("DB_PORT"),
		AppPort:         os.Getenv("APP_PORT"),
		AppEnv:          os.Getenv("APP_ENV"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		SuccessURL:      os.Getenv("SUCCESS_URL"),
		CancelURL:       os.Getenv("CANCEL_URL"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AllowedOrigins:  envList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		MirrorDir:       os.Getenv("MIRROR_DIR"),
		MinOrderAmount:  envInt64("MIN_ORDER_AMOUNT", 50),
		PollInterval:    envDuration("POLL_INTERVAL", 5*time.Second),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	if cfg.MirrorDir == "" {
		cfg.MirrorDir = "./mirror"
	}

	return cfg
}

func envList(key string, def []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func envInt64(key string, def int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d", key, raw, def)
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using default %s", key, raw, def)
		return def
	}
	return v
}
