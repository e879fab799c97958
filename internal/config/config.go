package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	RedisURL string

	MeiliSearchHost string
	MeiliMasterKey  string

	ReferralRewardPoints int
	RedemptionTTL        time.Duration
	RateLimitRedeem      time.Duration
	ExpirySweepInterval  time.Duration
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		RedisURL: os.Getenv("REDIS_URL"),

		MeiliSearchHost: getEnv("MEILISEARCH_HOST", "http://localhost:7700"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),
	}

	points, err := strconv.Atoi(getEnv("REFERRAL_REWARD_POINTS", "500"))
	if err != nil || points <= 0 {
		return nil, fmt.Errorf("invalid REFERRAL_REWARD_POINTS: %q", os.Getenv("REFERRAL_REWARD_POINTS"))
	}
	cfg.ReferralRewardPoints = points

	cfg.RedemptionTTL, err = time.ParseDuration(getEnv("REDEMPTION_TTL", "720h"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDEMPTION_TTL: %w", err)
	}
	cfg.RateLimitRedeem, err = time.ParseDuration(getEnv("RATE_LIMIT_REDEEM", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REDEEM: %w", err)
	}
	cfg.ExpirySweepInterval, err = time.ParseDuration(getEnv("EXPIRY_SWEEP_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid EXPIRY_SWEEP_INTERVAL: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
