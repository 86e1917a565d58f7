package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	uberconfig "go.uber.org/config"

	"github.com/xyz-asif/habitstreak/internal/pkg/logger"
)

const minDevSecretLength = 16

type Config struct {
	Port        string `yaml:"port"`
	AppEnv      string `yaml:"app_env"`
	FrontendURL string `yaml:"frontend_url"`
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`

	// Store selects the habit store: "mongo" or "memory".
	Store string `yaml:"store"`

	MongoURI            string `yaml:"mongo_uri"`
	MongoDB             string `yaml:"mongo_db"`
	MongoTimeoutSeconds int    `yaml:"mongo_timeout_seconds"`

	FirebaseServiceAccountPath string `yaml:"firebase_service_account_path"`
	FirebaseProjectID          string `yaml:"firebase_project_id"`
	GoogleClientID             string `yaml:"google_client_id"`
	// DevLoginEnabled turns on /auth/dev-login and dev tokens. Never in production.
	DevLoginEnabled  bool   `yaml:"dev_login_enabled"`
	DevTokenSecret   string `yaml:"dev_token_secret"`
	DevTokenTTLHours int    `yaml:"dev_token_ttl_hours"`

	// Calendar days for completions and streaks are evaluated in this zone.
	StreakTimezone          string `yaml:"streak_timezone"`
	FeaturedCount           int    `yaml:"featured_count"`
	FeaturedCacheTTLSeconds int    `yaml:"featured_cache_ttl_seconds"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`

	CloudinaryCloudName string `yaml:"cloudinary_cloud_name"`
	CloudinaryAPIKey    string `yaml:"cloudinary_api_key"`
	CloudinaryAPISecret string `yaml:"cloudinary_api_secret"`

	SMTPHost      string `yaml:"smtp_host"`
	SMTPPort      int    `yaml:"smtp_port"`
	SMTPUsername  string `yaml:"smtp_username"`
	SMTPPassword  string `yaml:"smtp_password"`
	SMTPFromEmail string `yaml:"smtp_from_email"`
	SMTPFromName  string `yaml:"smtp_from_name"`

	StreakRefreshSchedule string `yaml:"streak_refresh_schedule"`
	RemindersEnabled      bool   `yaml:"reminders_enabled"`

	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`

	location *time.Location
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port:                    "8080",
		AppEnv:                  "development",
		FrontendURL:             "http://localhost:5173",
		LogLevel:                "info",
		Store:                   "mongo",
		MongoURI:                "mongodb://localhost:27017",
		MongoDB:                 "habitstreak",
		MongoTimeoutSeconds:     10,
		DevTokenTTLHours:        24,
		StreakTimezone:          "UTC",
		FeaturedCount:           6,
		FeaturedCacheTTLSeconds: 60,
		KafkaTopic:              "habit-events",
		SMTPPort:                587,
		SMTPFromName:            "Habit Tracker",
		StreakRefreshSchedule:   "5 0 * * *",
		RateLimitPerMinute:      60,
	}
}

// Load reads .env, then an optional YAML file named by CONFIG_PATH,
// then environment variables, each layer overriding the previous one.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found")
	}

	cfg := Default()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		provider, err := uberconfig.NewYAML(
			uberconfig.File(path),
			uberconfig.Expand(os.LookupEnv),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create config provider: %w", err)
		}
		if err := provider.Get(uberconfig.Root).Populate(cfg); err != nil {
			return nil, fmt.Errorf("failed to populate config: %w", err)
		}
	}

	cfg.overrideFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overrideFromEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.AppEnv = getEnv("APP_ENV", c.AppEnv)
	c.FrontendURL = getEnv("FRONTEND_URL", c.FrontendURL)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("LOG_FILE", c.LogFile)

	c.Store = strings.ToLower(getEnv("STORE", c.Store))
	c.MongoURI = getEnv("MONGO_URI", c.MongoURI)
	c.MongoDB = getEnv("MONGO_DB", c.MongoDB)
	c.MongoTimeoutSeconds = getEnvInt("MONGO_TIMEOUT_SECONDS", c.MongoTimeoutSeconds)

	c.FirebaseServiceAccountPath = getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", c.FirebaseServiceAccountPath)
	c.FirebaseProjectID = getEnv("FIREBASE_PROJECT_ID", c.FirebaseProjectID)
	c.GoogleClientID = getEnv("GOOGLE_CLIENT_ID", c.GoogleClientID)
	c.DevLoginEnabled = getEnvBool("DEV_LOGIN_ENABLED", c.DevLoginEnabled)
	c.DevTokenSecret = getEnv("DEV_TOKEN_SECRET", c.DevTokenSecret)
	c.DevTokenTTLHours = getEnvInt("DEV_TOKEN_TTL_HOURS", c.DevTokenTTLHours)

	c.StreakTimezone = getEnv("STREAK_TIMEZONE", c.StreakTimezone)
	c.FeaturedCount = getEnvInt("FEATURED_COUNT", c.FeaturedCount)
	c.FeaturedCacheTTLSeconds = getEnvInt("FEATURED_CACHE_TTL_SECONDS", c.FeaturedCacheTTLSeconds)

	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.KafkaBrokers = splitList(brokers)
	}
	c.KafkaTopic = getEnv("KAFKA_TOPIC", c.KafkaTopic)

	c.CloudinaryCloudName = getEnv("CLOUDINARY_CLOUD_NAME", c.CloudinaryCloudName)
	c.CloudinaryAPIKey = getEnv("CLOUDINARY_API_KEY", c.CloudinaryAPIKey)
	c.CloudinaryAPISecret = getEnv("CLOUDINARY_API_SECRET", c.CloudinaryAPISecret)

	c.SMTPHost = getEnv("SMTP_HOST", c.SMTPHost)
	c.SMTPPort = getEnvInt("SMTP_PORT", c.SMTPPort)
	c.SMTPUsername = getEnv("SMTP_USERNAME", c.SMTPUsername)
	c.SMTPPassword = getEnv("SMTP_PASSWORD", c.SMTPPassword)
	c.SMTPFromEmail = getEnv("SMTP_FROM_EMAIL", c.SMTPFromEmail)
	c.SMTPFromName = getEnv("SMTP_FROM_NAME", c.SMTPFromName)

	c.StreakRefreshSchedule = getEnv("STREAK_REFRESH_SCHEDULE", c.StreakRefreshSchedule)
	c.RemindersEnabled = getEnvBool("REMINDERS_ENABLED", c.RemindersEnabled)

	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
}

// Validate checks values that would otherwise fail later at request time.
func (c *Config) Validate() error {
	loc, err := time.LoadLocation(c.StreakTimezone)
	if err != nil {
		return fmt.Errorf("invalid STREAK_TIMEZONE %q: %w", c.StreakTimezone, err)
	}
	c.location = loc

	if c.Store != "mongo" && c.Store != "memory" {
		return fmt.Errorf("STORE must be mongo or memory, got %q", c.Store)
	}
	if c.FeaturedCount <= 0 {
		return fmt.Errorf("FEATURED_COUNT must be positive, got %d", c.FeaturedCount)
	}
	if c.MongoTimeoutSeconds <= 0 {
		return fmt.Errorf("MONGO_TIMEOUT_SECONDS must be positive, got %d", c.MongoTimeoutSeconds)
	}
	if c.IsProduction() && c.FirebaseServiceAccountPath == "" && c.GoogleClientID == "" {
		return fmt.Errorf("production requires FIREBASE_SERVICE_ACCOUNT_PATH or GOOGLE_CLIENT_ID")
	}
	if c.DevLoginEnabled {
		if c.IsProduction() {
			return fmt.Errorf("DEV_LOGIN_ENABLED is not allowed in production")
		}
		if len(c.DevTokenSecret) < minDevSecretLength {
			return fmt.Errorf("DEV_LOGIN_ENABLED requires DEV_TOKEN_SECRET of at least %d characters", minDevSecretLength)
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// DevLoginAllowed reports whether development tokens may be issued and accepted.
func (c *Config) DevLoginAllowed() bool {
	return c.DevLoginEnabled && !c.IsProduction()
}

// Location returns the streak timezone. Validate must have succeeded.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// UsesMemoryStore reports whether habits live in process memory only.
func (c *Config) UsesMemoryStore() bool {
	return c.Store == "memory"
}

func (c *Config) MongoTimeout() time.Duration {
	return time.Duration(c.MongoTimeoutSeconds) * time.Second
}

func (c *Config) FeaturedCacheTTL() time.Duration {
	return time.Duration(c.FeaturedCacheTTLSeconds) * time.Second
}

func (c *Config) DevTokenTTL() time.Duration {
	return time.Duration(c.DevTokenTTLHours) * time.Hour
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		logger.Warn("Ignoring %s=%q: not an integer", key, value)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		logger.Warn("Ignoring %s=%q: not a boolean", key, value)
		return defaultValue
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
