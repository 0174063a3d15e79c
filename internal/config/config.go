package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backend selectors.
const (
	BackendFile  = "file"
	BackendS3    = "s3"
	BackendRedis = "redis"
)

// Identity provider selectors.
const (
	ProviderDiscord = "discord"
	ProviderGoogle  = "google"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string
	LogLevel string

	// PublicBaseURL is where the identity provider redirects back to;
	// the /callback route is appended to it.
	PublicBaseURL string

	BotToken string

	IdentityProvider  string // "discord" | "google"
	OAuthClientID     string
	OAuthClientSecret string
	OAuthRedirectURL  string
	GoogleAudience    string // client ID the Google id_token must be minted for

	SessionWindow time.Duration
	SweepInterval time.Duration

	StoreBackend  string // "file" | "s3" | "redis"
	SessionsFile  string
	SettingsFile  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	S3Bucket       string
	S3SessionsKey  string
	S3SettingsKey  string
	SNSTopicARN    string // empty disables security alerts

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AllowedOrigins []string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:  getEnv("APP_PORT", "3000"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:3000"),

		BotToken: getEnv("DISCORD_BOT_TOKEN", ""),

		IdentityProvider:  getEnv("IDENTITY_PROVIDER", ProviderDiscord),
		OAuthClientID:     getEnv("OAUTH_CLIENT_ID", ""),
		OAuthClientSecret: getEnv("OAUTH_CLIENT_SECRET", ""),
		OAuthRedirectURL:  getEnv("OAUTH_REDIRECT_URL", ""),
		GoogleAudience:    getEnv("GOOGLE_AUDIENCE", ""),

		SessionWindow: time.Duration(getEnvInt("SESSION_WINDOW_MS", 300000)) * time.Millisecond,
		SweepInterval: time.Duration(getEnvInt("SWEEP_INTERVAL_MS", 60000)) * time.Millisecond,

		StoreBackend: getEnv("STORE_BACKEND", BackendFile),
		SessionsFile: getEnv("SESSIONS_FILE", "./data/sessions.json"),
		SettingsFile: getEnv("SETTINGS_FILE", "./data/settings.json"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3Bucket:       getEnv("S3_BUCKET_NAME", "rolegate-state"),
		S3SessionsKey:  getEnv("S3_SESSIONS_KEY", "sessions.json"),
		S3SettingsKey:  getEnv("S3_SETTINGS_KEY", "settings.json"),
		SNSTopicARN:    getEnv("SNS_ALERT_TOPIC_ARN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

// Validate checks the credentials the process cannot run without.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	if c.OAuthClientID == "" || c.OAuthClientSecret == "" {
		return fmt.Errorf("OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET are required")
	}
	if c.OAuthRedirectURL == "" {
		c.OAuthRedirectURL = strings.TrimRight(c.PublicBaseURL, "/") + "/callback"
	}
	return nil
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
