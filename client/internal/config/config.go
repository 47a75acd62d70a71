package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	SessionFile     = "file"
	SessionPostgres = "postgres"
	SessionMemory   = "memory"
)

// Config contiene le impostazioni runtime del client TCG.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	RateLimit      float64
	RateBurst      int

	Profile        string
	SessionBackend string
	SessionFile    string
	DBDSN          string

	RedisAddr   string
	LockTTL     time.Duration
	MetricsAddr string
	LogLevel    string

	MockAddr string
	SeedPath string
}

// Load legge le variabili d'ambiente con default minimi.
func Load() Config {
	dbDSN := os.Getenv("DB_DSN")
	if dbDSN == "" {
		dbDSN = buildDSN()
	}

	profile := getEnv("PROFILE", "default")
	return Config{
		APIBaseURL:     strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8000"), "/"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 10*time.Second),
		RateLimit:      getFloat("RATE_LIMIT", 0),
		RateBurst:      getInt("RATE_BURST", 5),

		Profile:        profile,
		SessionBackend: strings.ToLower(getEnv("SESSION_BACKEND", SessionFile)),
		SessionFile:    getEnv("SESSION_FILE", defaultSessionFile(profile)),
		DBDSN:          dbDSN,

		RedisAddr:   os.Getenv("REDIS_ADDR"),
		LockTTL:     getDuration("LOCK_TTL", 30*time.Second),
		MetricsAddr: os.Getenv("METRICS_ADDR"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		MockAddr: getEnv("MOCK_ADDR", ":8000"),
		SeedPath: os.Getenv("SEED_PATH"),
	}
}

// Validate controlla le combinazioni che il client non puo' usare.
func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	switch c.SessionBackend {
	case SessionFile:
		if c.SessionFile == "" {
			return errors.New("SESSION_FILE is required for the file backend")
		}
	case SessionPostgres:
		if c.DBDSN == "" {
			return errors.New("DB_DSN is required for the postgres backend")
		}
	case SessionMemory:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	return nil
}

// Level converte LOG_LEVEL nel livello slog; valori sconosciuti diventano info.
func (c Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// getEnv ritorna il fallback quando la variabile non è presente.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func getFloat(key string, fallback float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func getInt(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func defaultSessionFile(profile string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "narcissus-tcg", "session-"+profile+".json")
}

func buildDSN() string {
	host := os.Getenv("DB_HOST")
	port := getEnv("DB_PORT", "5432")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	name := os.Getenv("DB_NAME")
	sslmode := getEnv("DB_SSLMODE", "require")
	if host == "" || user == "" || name == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, name, sslmode)
}
