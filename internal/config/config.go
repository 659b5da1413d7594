package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds all externally injected settings. It is built once at startup
// and passed to components at construction; nothing reads the environment at
// request time.
type Config struct {
	DatabaseDSN string
	Port        string

	JWTSecret       []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int

	AllowedOrigins []string

	SeedAdminPassword string
}

// Load builds the Config from environment variables. In release mode a
// missing JWT_SECRET is a hard error; in development a fallback key is used.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseDSN: buildDSN(),
		Port:        getEnv("PORT", "8080"),
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			return nil, errors.New("JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	cfg.JWTSecret = []byte(secret)

	accessMinutes := getEnvInt("ACCESS_TOKEN_TTL_MINUTES", 60)
	refreshHours := getEnvInt("REFRESH_TOKEN_TTL_HOURS", 24*7)
	cfg.AccessTokenTTL = time.Duration(accessMinutes) * time.Minute
	cfg.RefreshTokenTTL = time.Duration(refreshHours) * time.Hour

	cfg.BcryptCost = getEnvInt("BCRYPT_COST", bcrypt.DefaultCost)
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, errors.New("BCRYPT_COST out of range")
	}

	origins := getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	cfg.AllowedOrigins = splitCSV(origins)

	cfg.SeedAdminPassword = getEnv("SEED_ADMIN_PASSWORD", "admin123")

	return cfg, nil
}

func buildDSN() string {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "postgres")
	name := getEnv("DB_NAME", "psms")
	sslMode := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + password + "@" + host + ":" + port + "/" + name + "?sslmode=" + sslMode
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
