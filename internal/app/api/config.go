package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/client"
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port                  string
	PostgresDSN           string
	RedisAddr             string
	KafkaBrokers          string
	TemporalAddress       string
	TemporalNamespace     string
	TemporalDisabled      bool
	SessionTTL            time.Duration
	CartTTL               time.Duration
	OutboxDrainInterval   time.Duration
	GatewayDeclineOver    string
	GatewayDeclineAuth    bool
	GatewayDeclineCapture bool
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:                  envDefault("PORT", "8080"),
		PostgresDSN:           strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		RedisAddr:             strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		KafkaBrokers:          strings.TrimSpace(os.Getenv("KAFKA_BROKERS")),
		TemporalAddress:       envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:     envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:      isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		GatewayDeclineOver:    strings.TrimSpace(os.Getenv("GATEWAY_DECLINE_OVER")),
		GatewayDeclineAuth:    isTruthy(os.Getenv("GATEWAY_DECLINE_AUTHORIZATIONS")),
		GatewayDeclineCapture: isTruthy(os.Getenv("GATEWAY_DECLINE_CAPTURES")),
	}
	var err error
	if cfg.SessionTTL, err = hoursEnv("SESSION_TTL_HOURS", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.CartTTL, err = hoursEnv("CART_TTL_HOURS", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.OutboxDrainInterval, err = secondsEnv("OUTBOX_DRAIN_INTERVAL_SECONDS", 5*time.Second); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func hoursEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return time.Duration(hours) * time.Hour, nil
}

func secondsEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return time.Duration(seconds) * time.Second, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
