package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Helper to get string env with default
func getEnv(key, fallback string) string {
	if val, exists := os.LookupEnv(key); exists && val != "" {
		return val
	}
	return fallback
}

// Helper to get int env with default
func getEnvAsInt(key string, fallback int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	val, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid int for config %s=%q, using default %d", key, valueStr, fallback)
		return fallback
	}
	return val
}

// Helper to get decimal env with default
func getEnvAsDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	val, err := decimal.NewFromString(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid decimal for config %s=%q, using default %s", key, valueStr, fallback)
		return fallback
	}
	return val
}

// Helper to get comma-separated list env with default
func getEnvAsList(key string, fallback []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
