package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable wait bounds. A zero duration waits without
// limit.
type Timeouts struct {
	TokenWait      time.Duration // Waiting for the initializer's join token
	CredentialWait time.Duration // Waiting for the local kubeconfig after install
	APIReady       time.Duration // Waiting for the API server and node readiness
	Rollout        time.Duration // Waiting for platform workloads
	PollInterval   time.Duration // Initial delay between polls
	SSHMaxAttempts int           // SSH dial attempts per remote command
	SSHRetryDelay  time.Duration // Initial delay between SSH dial attempts
	HelmTimeout    time.Duration // Per-release helm install timeout
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - K3STAGE_TIMEOUT_TOKEN (default: 30m)
//   - K3STAGE_TIMEOUT_CREDENTIALS (default: 10m)
//   - K3STAGE_TIMEOUT_API (default: 10m)
//   - K3STAGE_TIMEOUT_ROLLOUT (default: 15m)
//   - K3STAGE_POLL_INTERVAL (default: 5s)
//   - K3STAGE_SSH_MAX_ATTEMPTS (default: 5)
//   - K3STAGE_SSH_RETRY_DELAY (default: 2s)
//   - K3STAGE_TIMEOUT_HELM (default: 10m)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		TokenWait:      parseDuration("K3STAGE_TIMEOUT_TOKEN", 30*time.Minute),
		CredentialWait: parseDuration("K3STAGE_TIMEOUT_CREDENTIALS", 10*time.Minute),
		APIReady:       parseDuration("K3STAGE_TIMEOUT_API", 10*time.Minute),
		Rollout:        parseDuration("K3STAGE_TIMEOUT_ROLLOUT", 15*time.Minute),
		PollInterval:   parseDuration("K3STAGE_POLL_INTERVAL", 5*time.Second),
		SSHMaxAttempts: parseInt("K3STAGE_SSH_MAX_ATTEMPTS", 5),
		SSHRetryDelay:  parseDuration("K3STAGE_SSH_RETRY_DELAY", 2*time.Second),
		HelmTimeout:    parseDuration("K3STAGE_TIMEOUT_HELM", 10*time.Minute),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d < 0 {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
