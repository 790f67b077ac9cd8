package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds the application configuration
type Config struct {
	Port       int
	LogLevel   string
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	LogDir     string
	APIKey     string // API key for authentication

	// TicketPriceSUP is the SUP cost of one bought prize ticket
	TicketPriceSUP decimal.Decimal
	// NGNPerSUP is the fixed conversion rate applied to buys and cashouts
	NGNPerSUP decimal.Decimal
	// DailyCapUnverified and DailyCapVerified limit reward actions per day
	// by verification tier; 0 means unlimited
	DailyCapUnverified int
	DailyCapVerified   int
	// PrizeTierWeights splits the prize pool across tiers, highest first
	PrizeTierWeights []int
	// LockSweepIntervalSeconds is how often overdue open rounds are swept
	LockSweepIntervalSeconds int
	// DeadLetterPath is where undeliverable events are persisted
	DeadLetterPath string
	// EventRetentionDays is how long audit log rows are kept
	EventRetentionDays int
	// TrustedProxies lists proxy addresses allowed to set forwarding headers
	TrustedProxies []string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:       getEnv("LOG_LEVEL", "INFO"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBName:         getEnv("DB_NAME", "supcore"),
		LogDir:         getEnv("LOG_DIR", "logs"),
		APIKey:         getEnv("API_KEY", ""),
		DeadLetterPath: getEnv("DEAD_LETTER_PATH", DefaultDeadLetterPath),
	}

	port, err := getEnvInt("PORT", DefaultPort)
	if err != nil {
		return nil, err
	}
	cfg.Port = port

	cfg.TicketPriceSUP, err = getEnvDecimal("TICKET_PRICE_SUP", DefaultTicketPriceSUP)
	if err != nil {
		return nil, err
	}
	cfg.NGNPerSUP, err = getEnvDecimal("NGN_PER_SUP", DefaultNGNPerSUP)
	if err != nil {
		return nil, err
	}
	if !cfg.TicketPriceSUP.IsPositive() || !cfg.NGNPerSUP.IsPositive() {
		return nil, fmt.Errorf("TICKET_PRICE_SUP and NGN_PER_SUP must be positive")
	}

	cfg.DailyCapUnverified, err = getEnvInt("DAILY_CAP_UNVERIFIED", DefaultDailyCapUnverified)
	if err != nil {
		return nil, err
	}
	cfg.DailyCapVerified, err = getEnvInt("DAILY_CAP_VERIFIED", DefaultDailyCapVerified)
	if err != nil {
		return nil, err
	}

	cfg.PrizeTierWeights, err = getEnvIntList("PRIZE_TIER_WEIGHTS", nil)
	if err != nil {
		return nil, err
	}

	cfg.LockSweepIntervalSeconds, err = getEnvInt("LOCK_SWEEP_INTERVAL_SECONDS", DefaultLockSweepIntervalSeconds)
	if err != nil {
		return nil, err
	}

	cfg.EventRetentionDays, err = getEnvInt("EVENT_RETENTION_DAYS", DefaultEventRetentionDays)
	if err != nil {
		return nil, err
	}

	if proxies := getEnv("TRUSTED_PROXIES", ""); proxies != "" {
		for _, p := range strings.Split(proxies, ",") {
			cfg.TrustedProxies = append(cfg.TrustedProxies, strings.TrimSpace(p))
		}
	}

	// Validate API key is set
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY environment variable must be set for security")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return n, nil
}

func getEnvDecimal(key, defaultValue string) (decimal.Decimal, error) {
	value := getEnv(key, defaultValue)
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return d, nil
}

// getEnvIntList parses a comma separated list of integers
func getEnvIntList(key string, defaultValue []int) ([]int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	parts := strings.Split(value, ",")
	list := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid %s value: %w", key, err)
		}
		list = append(list, n)
	}
	return list, nil
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
