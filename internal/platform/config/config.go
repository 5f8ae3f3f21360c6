package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	JWTSecret     string

	// Currency handling. Amounts are stored in integer minor units; the
	// exponent says how many decimal places the boundary representation has.
	DefaultCurrencyCode string
	CurrencyExponent    int32

	// VarianceToleranceMinor is the auto-accept threshold for cash count
	// variances, in minor units. Counts above it are flagged for review.
	VarianceToleranceMinor int64

	// RedisURL, when set, backs the rate limiter with a shared Redis store.
	RedisURL string
	// WriteRateLimit is a ulule/limiter formatted rate for posting endpoints.
	WriteRateLimit string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("DEFAULT_CURRENCY_CODE", "KES")
	viper.SetDefault("CURRENCY_EXPONENT", 2)
	viper.SetDefault("VARIANCE_TOLERANCE_MINOR", 0)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("WRITE_RATE_LIMIT", "120-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.DefaultCurrencyCode = viper.GetString("DEFAULT_CURRENCY_CODE")
	cfg.CurrencyExponent = viper.GetInt32("CURRENCY_EXPONENT")
	if cfg.CurrencyExponent < 0 || cfg.CurrencyExponent > 4 {
		log.Printf("Warning: CURRENCY_EXPONENT %d out of range, defaulting to 2\n", cfg.CurrencyExponent)
		cfg.CurrencyExponent = 2
	}

	cfg.VarianceToleranceMinor = viper.GetInt64("VARIANCE_TOLERANCE_MINOR")
	if cfg.VarianceToleranceMinor < 0 {
		log.Printf("Warning: VARIANCE_TOLERANCE_MINOR must not be negative, defaulting to 0\n")
		cfg.VarianceToleranceMinor = 0
	}

	cfg.RedisURL = viper.GetString("REDIS_URL")
	cfg.WriteRateLimit = viper.GetString("WRITE_RATE_LIMIT")

	return cfg, nil
}
