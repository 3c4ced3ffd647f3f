// Package config holds every tunable of the review-arcade server in one
// struct, defaulted the way the teacher's utils.Config/DefaultConfig is, and
// overridden from the environment the way
// FenixDeveloper-vector-racer-v2's loadConfig reads os.Getenv.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every server-wide tunable. Per-session values (time limit,
// max players, question source) live on the session itself — see
// internal/session.Config — since they are chosen per POST /sessions call,
// not process-wide.
type Config struct {
	ListenAddr string

	HeartbeatInterval   time.Duration
	HeartbeatTimeout    time.Duration
	AnswerTimeout       time.Duration
	OutboundQueueSize   int
	ReapGracePeriod     time.Duration
	MaxSessionsPerProc  int

	JWTPublicKeyPEM string
	IdentityProviderURL string

	RedisURL    string
	PostgresDSN string

	LogFile  string
	LogDebug bool
}

// Default returns the out-of-the-box configuration, matching spec §6.3's
// defaults (20s heartbeat, 45s timeout, 120s answer window, 60s reap grace).
func Default() Config {
	return Config{
		ListenAddr: ":8080",

		HeartbeatInterval:  20 * time.Second,
		HeartbeatTimeout:   45 * time.Second,
		AnswerTimeout:      120 * time.Second,
		OutboundQueueSize:  256,
		ReapGracePeriod:    60 * time.Second,
		MaxSessionsPerProc: 500,

		RedisURL:    "localhost:6379",
		PostgresDSN: "",
	}
}

// FromEnv starts from Default and overrides with REVIEWARCADE_* environment
// variables when present, falling back to defaults on parse failure just
// like the teacher's loadConfig does for PORT.
func FromEnv() Config {
	cfg := Default()

	if v := os.Getenv("REVIEWARCADE_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("REVIEWARCADE_HEARTBEAT_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HeartbeatInterval = d
		}
	}
	if v := os.Getenv("REVIEWARCADE_HEARTBEAT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HeartbeatTimeout = d
		}
	}
	if v := os.Getenv("REVIEWARCADE_ANSWER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.AnswerTimeout = d
		}
	}
	if v := os.Getenv("REVIEWARCADE_OUTBOUND_QUEUE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.OutboundQueueSize = n
		}
	}
	if v := os.Getenv("REVIEWARCADE_REAP_GRACE_PERIOD"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ReapGracePeriod = d
		}
	}
	if v := os.Getenv("REVIEWARCADE_MAX_SESSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxSessionsPerProc = n
		}
	}
	if v := os.Getenv("REVIEWARCADE_JWT_PUBLIC_KEY"); v != "" {
		cfg.JWTPublicKeyPEM = v
	}
	if v := os.Getenv("REVIEWARCADE_IDENTITY_PROVIDER_URL"); v != "" {
		cfg.IdentityProviderURL = v
	}
	if v := os.Getenv("REVIEWARCADE_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("REVIEWARCADE_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("REVIEWARCADE_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("REVIEWARCADE_DEBUG"); v == "true" {
		cfg.LogDebug = true
	}

	return cfg
}
