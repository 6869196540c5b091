// Package config resolves runtime settings for a run with the precedence
// env var > .env file > default. The core packages never read the process
// environment themselves; everything they need is passed in from here.
package config

import (
	"os"
	"time"
)

const (
	DefaultCacheDir  = "/var/tmp/aws-mon"
	DefaultCacheTTL  = 6 * time.Hour
	DefaultNamespace = "System/Linux"
)

// RuntimeConfig holds everything the run needs that is not part of the
// metrics request itself.
type RuntimeConfig struct {
	// Metadata cache location and entry lifetime.
	CacheDir string
	CacheTTL time.Duration

	// CloudWatch namespace metrics are submitted under.
	Namespace string

	// Logging configuration.
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadRuntimeConfig reads the runtime configuration from the environment.
func LoadRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		CacheDir:  getValue("CWMON_CACHE_DIR", DefaultCacheDir),
		CacheTTL:  getDuration("CWMON_CACHE_TTL", DefaultCacheTTL),
		Namespace: getValue("CWMON_NAMESPACE", DefaultNamespace),
		LogLevel:  getValue("CWMON_LOG_LEVEL", "INFO"),
		LogFormat: getValue("CWMON_LOG_FORMAT", "text"),
		LogOutput: getValue("CWMON_LOG_OUTPUT", "stderr"),
	}
}

// getValue returns the env value or the default when unset or empty.
func getValue(envKey, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	return defaultValue
}

// getDuration parses a duration env value ("6h", "90m"), falling back to
// the default when unset or unparsable.
func getDuration(envKey string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
