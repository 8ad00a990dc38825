package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                  string
	BindHost              string
	AllowedOrigin         string
	SnapshotBackend       string
	SnapshotFile          string
	SnapshotKey           string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	GeminiAPIKey          string
	GeminiModel           string
	SuggestionTTLSeconds  int
	AuthSecret            string
	AccessTokenTTLMinutes int
	LogLevel              string
	LogDevelopment        bool
	StoreName             string
	StoreAddress          string
	StoreDocument         string
	ScannerStdin          bool
	SeedAdminPassword     string
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttl, err := strconv.Atoi(getEnv("SUGGESTION_TTL_SECONDS", "300"))
	if err != nil || ttl < 1 {
		ttl = 300
	}
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "720"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 720
	}
	devLog, _ := strconv.ParseBool(getEnv("LOG_DEVELOPMENT", "false"))
	scannerStdin, _ := strconv.ParseBool(getEnv("SCANNER_STDIN", "false"))

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		BindHost:              getEnv("BIND_HOST", "127.0.0.1"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		SnapshotBackend:       strings.ToLower(os.Getenv("SNAPSHOT_BACKEND")),
		SnapshotFile:          getEnv("SNAPSHOT_FILE", "data/pos-storage.json"),
		SnapshotKey:           getEnv("SNAPSHOT_KEY", "pos-storage"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		GeminiAPIKey:          strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.0-flash-001"),
		SuggestionTTLSeconds:  ttl,
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogDevelopment:        devLog,
		StoreName:             getEnv("STORE_NAME", "MERCADINHO PDV"),
		StoreAddress:          os.Getenv("STORE_ADDRESS"),
		StoreDocument:         os.Getenv("STORE_DOCUMENT"),
		ScannerStdin:          scannerStdin,
		SeedAdminPassword:     os.Getenv("SEED_ADMIN_PASSWORD"),
	}
	if cfg.SnapshotBackend == "" {
		cfg.SnapshotBackend = defaultBackend(cfg)
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%s", c.BindHost, c.Port)
}

// defaultBackend picks the most durable backend the environment allows.
func defaultBackend(cfg Config) string {
	switch {
	case cfg.DatabaseURL != "":
		return "postgres"
	case cfg.RedisAddr != "":
		return "redis"
	default:
		return "file"
	}
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
