package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries all runtime settings, loaded from the environment with an
// optional .env file.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	// JWTSignKeyHex is a hex-encoded P-256 private key for ES256 token
	// signing. When empty an ephemeral key is generated at startup.
	JWTSignKeyHex string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ChallengeTTL  time.Duration

	SupportedChainIDs   []string
	LocationThresholdKm float64

	ChainRPCURL      string
	MinterKeyHex     string
	TokenContract    string
	TokenDecimals    int32
	DispatchInterval time.Duration
	MaxBatchSize     int
	SubmitTimeout    time.Duration
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	// A missing .env file is fine; real deployments inject env directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "9000"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSignKeyHex:       os.Getenv("JWT_SIGN_KEY"),
		AccessTTL:           getDuration("ACCESS_TOKEN_TTL", 5*time.Minute),
		RefreshTTL:          getDuration("REFRESH_TOKEN_TTL", 5*24*time.Hour),
		ChallengeTTL:        getDuration("CHALLENGE_TTL", 5*time.Minute),
		SupportedChainIDs:   splitList(getEnv("SUPPORTED_CHAIN_IDS", "84532")),
		LocationThresholdKm: getFloat("LOCATION_THRESHOLD_KM", 500),
		ChainRPCURL:         os.Getenv("CHAIN_RPC_URL"),
		MinterKeyHex:        os.Getenv("MINTER_PRIVATE_KEY"),
		TokenContract:       os.Getenv("TOKEN_CONTRACT_ADDRESS"),
		TokenDecimals:       int32(getInt("TOKEN_DECIMALS", 18)),
		DispatchInterval:    getDuration("DISPATCH_INTERVAL", 5*time.Minute),
		MaxBatchSize:        getInt("MAX_BATCH_SIZE", 10),
		SubmitTimeout:       getDuration("SUBMIT_TIMEOUT", 2*time.Minute),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
