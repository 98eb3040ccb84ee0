// Package config provides configuration types and utilities for the query agent.
// This file contains environment variable expansion for configuration values.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ============================================================================
// ENVIRONMENT VARIABLE EXPANSION
// ============================================================================

// Supported reference formats, matched most-specific first.
var (
	envWithDefaultPattern = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*):-(.*?)\}`) // ${VAR:-default}
	envBracedPattern      = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)        // ${VAR}
	envBarePattern        = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)            // $VAR
)

// expandEnvVars replaces environment variable references in a string.
// An unset or empty variable resolves to its ${VAR:-default} fallback when
// one is given, otherwise to the empty string.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}

	s = envWithDefaultPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := envWithDefaultPattern.FindStringSubmatch(match)
		if len(parts) != 3 {
			return match
		}
		if val := os.Getenv(parts[1]); val != "" {
			return val
		}
		return parts[2]
	})

	s = envBracedPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := envBracedPattern.FindStringSubmatch(match)
		if len(parts) != 2 {
			return match
		}
		return os.Getenv(parts[1])
	})

	s = envBarePattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := envBarePattern.FindStringSubmatch(match)
		if len(parts) != 2 {
			return match
		}
		return os.Getenv(parts[1])
	})

	return s
}

// parseValue converts an expanded string to the type it reads as.
// Returns the original string when no conversion applies.
func parseValue(value string) interface{} {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}

	if intVal, err := strconv.Atoi(value); err == nil {
		return intVal
	}

	if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
		return floatVal
	}

	return value
}

// ExpandEnvVarsInData walks parsed YAML data and expands environment variable
// references in every string it finds. A string that was expanded is re-typed
// through parseValue so "8080" from $PORT becomes an int, not a string.
func ExpandEnvVarsInData(data interface{}) interface{} {
	switch v := data.(type) {
	case string:
		expanded := expandEnvVars(v)
		if expanded != v {
			return parseValue(expanded)
		}
		return expanded

	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, value := range v {
			result[key] = ExpandEnvVarsInData(value)
		}
		return result

	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = ExpandEnvVarsInData(item)
		}
		return result

	default:
		return v
	}
}

// LoadEnvFiles loads environment variables from .env files.
// Priority order: .env.local (highest), then .env, then the process environment.
func LoadEnvFiles() error {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}
