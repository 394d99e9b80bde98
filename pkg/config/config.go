// Package config reads process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds configuration for fuzzyctl
type Config struct {
	SystemPath         string
	Crop               string
	LogLevel           string
	LogFormat          string
	MetricsAddr        string
	JaegerEndpoint     string
	LoopRateHz         float64
	LoopCycles         int
	FallbackPolicy     string
	CacheSize          int
	BreakerMaxFailures int
	BreakerTimeout     time.Duration

	// Fallbacks override the fallback values declared in the system file.
	Fallbacks map[string]float64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	config := &Config{
		SystemPath:         getEnv("FUZZY_SYSTEM", ""),
		Crop:               getEnv("CROP", "lettuce"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		MetricsAddr:        getEnv("METRICS_ADDR", ""),
		JaegerEndpoint:     getEnv("JAEGER_ENDPOINT", ""),
		LoopRateHz:         getEnvFloat("LOOP_RATE_HZ", 1),
		LoopCycles:         getEnvInt("LOOP_CYCLES", 0),
		FallbackPolicy:     getEnv("FALLBACK_POLICY", "hold-last"),
		CacheSize:          getEnvInt("CACHE_SIZE", 0),
		BreakerMaxFailures: getEnvInt("BREAKER_MAX_FAILURES", 3),
		BreakerTimeout:     getEnvDuration("BREAKER_TIMEOUT", "10s"),
		Fallbacks:          parseAssignments(getEnv("FALLBACK_DEFAULTS", "")),
	}

	return config
}

// Validate reports every setting that cannot be used as given
func (c *Config) Validate() error {
	var errs []error
	if c.BreakerMaxFailures < 1 {
		errs = append(errs, fmt.Errorf("BREAKER_MAX_FAILURES must be at least 1, got %d", c.BreakerMaxFailures))
	}
	if c.BreakerTimeout < 0 {
		errs = append(errs, fmt.Errorf("BREAKER_TIMEOUT must not be negative, got %s", c.BreakerTimeout))
	}
	if c.LoopCycles < 0 {
		errs = append(errs, fmt.Errorf("LOOP_CYCLES must not be negative, got %d", c.LoopCycles))
	}
	if c.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("CACHE_SIZE must not be negative, got %d", c.CacheSize))
	}
	return errors.Join(errs...)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

// parseCommaSeparated parses a comma-separated string into a slice
func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// parseAssignments parses "name=value,name=value", skipping malformed pairs
func parseAssignments(value string) map[string]float64 {
	result := make(map[string]float64)
	for _, pair := range parseCommaSeparated(value) {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			continue
		}
		result[strings.TrimSpace(name)] = f
	}
	return result
}
