package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver  string
	DSN       string
	JWTSecret string
	AppPort   string
	TokenTTL  time.Duration
	UploadDir string
	LogLevel  string
	Seed      bool

	SeedAdminEmail    string
	SeedAdminPassword string

	LoginRatePerSec float64
	LoginBurst      int
}

// Load reads .env (when present) and the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env file not found, using system environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		DBDriver:  strings.ToLower(os.Getenv("DB_DRIVER")),
		DSN:       os.Getenv("DB_DSN"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		AppPort:   os.Getenv("APP_PORT"),
		UploadDir: os.Getenv("UPLOAD_DIR"),
		LogLevel:  os.Getenv("LOG_LEVEL"),

		SeedAdminEmail:    os.Getenv("SEED_ADMIN_EMAIL"),
		SeedAdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),
	}

	if cfg.DSN == "" {
		cfg.DSN = os.Getenv("MYSQL_DSN")
	}
	if cfg.DSN == "" {
		return Config{}, errors.New("DB_DSN not set in environment")
	}
	if cfg.DBDriver == "" {
		cfg.DBDriver = "mysql"
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-only"
	}
	if cfg.AppPort == "" {
		cfg.AppPort = "8080"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "./uploads"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	var err error
	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.LoginRatePerSec, err = floatEnv("LOGIN_RATE_PER_SEC", 1); err != nil {
		return Config{}, err
	}
	burst, err := floatEnv("LOGIN_BURST", 5)
	if err != nil {
		return Config{}, err
	}
	cfg.LoginBurst = int(burst)
	if v := os.Getenv("SEED"); v != "" {
		if cfg.Seed, err = strconv.ParseBool(v); err != nil {
			return Config{}, errors.New("SEED must be a boolean")
		}
	}
	return cfg, nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, errors.New(key + " must be a positive duration")
	}
	return d, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, errors.New(key + " must be a positive number")
	}
	return f, nil
}
