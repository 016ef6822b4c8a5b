package env

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Prefix namespaces overrides so several services can share one environment.
// SPINWHEEL_REDIS_ADDR wins over REDIS_ADDR.
const Prefix = "SPINWHEEL_"

func lookup(key string) (string, bool) {
	if val, ok := os.LookupEnv(Prefix + key); ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val), true
	}
	if val, ok := os.LookupEnv(key); ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val), true
	}
	return "", false
}

func GetString(key, fallback string) string {
	if val, ok := lookup(key); ok {
		return val
	}
	return fallback
}

func GetInt(key string, fallback int) int {
	val, ok := lookup(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func GetBool(key string, fallback bool) bool {
	val, ok := lookup(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

// GetDuration accepts Go durations ("30s") or a bare number of seconds.
func GetDuration(key string, fallback time.Duration) time.Duration {
	val, ok := lookup(key)
	if !ok {
		return fallback
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}
