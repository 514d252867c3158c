package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	LogLevel    string
	LogFormat   string

	JWTSecret   string
	JWTTokenTTL time.Duration

	MergeWindow  time.Duration
	RulesFile    string
	SyncDays     int
	SyncInterval time.Duration

	MailProvider       string // "gmail", "imap" or "" to disable mail sync
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string
	GmailQuery         string
	GmailMaxMessages   int

	IMAPAddr     string
	IMAPUsername string
	IMAPPassword string
	IMAPMailbox  string

	GoogleProjectID     string
	GooglePubSubTopic   string
	GoogleCredentials   string
	FirebaseCredentials string
	FollowUpInterval    time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),

		JWTSecret:   getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTTokenTTL: getDuration("JWT_TOKEN_TTL", 365*24*time.Hour),

		MergeWindow:  time.Duration(getInt("MERGE_WINDOW_DAYS", 14)) * 24 * time.Hour,
		RulesFile:    getEnv("RULES_FILE", ""),
		SyncDays:     getInt("SYNC_DAYS", 30),
		SyncInterval: getDuration("SYNC_INTERVAL", 0),

		MailProvider:       getEnv("MAIL_PROVIDER", ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRefreshToken: getEnv("GOOGLE_REFRESH_TOKEN", ""),
		GmailQuery:         getEnv("GMAIL_QUERY", "-category:promotions -category:social"),
		GmailMaxMessages:   getInt("GMAIL_MAX_MESSAGES", 500),

		IMAPAddr:     getEnv("IMAP_ADDR", ""),
		IMAPUsername: getEnv("IMAP_USERNAME", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMailbox:  getEnv("IMAP_MAILBOX", "INBOX"),

		GoogleProjectID:     getEnv("GOOGLE_PROJECT_ID", ""),
		GooglePubSubTopic:   getEnv("GOOGLE_PUBSUB_TOPIC", ""),
		GoogleCredentials:   getEnv("GOOGLE_CREDENTIALS", ""),
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),
		FollowUpInterval:    getDuration("FOLLOW_UP_INTERVAL", time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
