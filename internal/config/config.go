package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultIntervalMinutes = 5
	BackendFile            = "file"
	BackendPostgres        = "postgres"
)

var DefaultSourceURLs = []string{
	"https://www.ticketmaster.gr/osfpbc/",
	"https://www.ticketmaster.gr/olympiacos/",
}

type Config struct {
	Interval     time.Duration
	SourceURLs   []string
	FetchTimeout time.Duration
	QueuePattern string
	UserAgent    string

	KnownSetBackend string
	DataDir         string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	TelegramToken    string
	TelegramChat     string
	TelegramThreadID *int
	TelegramCalendar string

	HTTPPort string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Interval:         ParseInterval(os.Getenv("SEARCH_FREQUENCY")),
		SourceURLs:       ParseSourceURLs(os.Getenv("SOURCE_URLS")),
		FetchTimeout:     time.Duration(envOrPositiveInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second,
		QueuePattern:     envOrDefault("QUEUE_URL_PATTERN", "queue-it"),
		UserAgent:        os.Getenv("USER_AGENT"),
		KnownSetBackend:  strings.ToLower(envOrDefault("KNOWN_SET_BACKEND", BackendFile)),
		DataDir:          envOrDefault("DATA_DIR", "data"),
		DBHost:           envOrDefault("DB_HOST", "localhost"),
		DBPort:           envOrDefault("DB_PORT", "5432"),
		DBUser:           envOrDefault("DB_USERNAME", "postgres"),
		DBPassword:       envOrDefault("DB_PASSWORD", "postgres"),
		DBName:           envOrDefault("DB_DATABASE", "ticketwatch"),
		DBSSLMode:        envOrDefault("DB_SSLMODE", "disable"),
		TelegramToken:    envFirst("TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_API_KEY"),
		TelegramChat:     envFirst("TELEGRAM_CHAT_ID", "TELEGRAM_GROUP_ID"),
		TelegramCalendar: envOrDefault("TELEGRAM_CALENDAR", "gregorian"),
		HTTPPort:         envOrDefault("HTTP_PORT", "3000"),
	}

	threadID, err := envOrIntPtr("TELEGRAM_CHAT_THREAD_ID")
	if err != nil {
		return cfg, err
	}
	cfg.TelegramThreadID = threadID

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.TelegramToken == "" || c.TelegramChat == "" {
		return errors.New("missing TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID")
	}
	if len(c.SourceURLs) == 0 {
		return errors.New("no source urls configured")
	}

	switch c.KnownSetBackend {
	case BackendFile:
		if c.DataDir == "" {
			return errors.New("missing DATA_DIR")
		}
	case BackendPostgres:
		if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
			return errors.New("missing database configuration")
		}
	default:
		return fmt.Errorf("unknown KNOWN_SET_BACKEND %q", c.KnownSetBackend)
	}
	return nil
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// ParseInterval reads a whole number of minutes. Empty, non-numeric and
// non-positive values fall back to DefaultIntervalMinutes.
func ParseInterval(value string) time.Duration {
	minutes, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || minutes <= 0 {
		minutes = DefaultIntervalMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// ParseSourceURLs splits a comma separated list, dropping blanks and
// duplicates. An empty value yields DefaultSourceURLs.
func ParseSourceURLs(value string) []string {
	seen := map[string]bool{}
	var urls []string
	for _, part := range strings.Split(value, ",") {
		u := strings.TrimSpace(part)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	if len(urls) == 0 {
		return append([]string(nil), DefaultSourceURLs...)
	}
	return urls
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envFirst(keys ...string) string {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	return ""
}

func envOrPositiveInt(key string, fallback int) int {
	parsed, err := strconv.Atoi(os.Getenv(key))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envOrIntPtr(key string) (*int, error) {
	val := os.Getenv(key)
	if val == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &parsed, nil
}
