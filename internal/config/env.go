package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// IntFromEnv reads an integer, falling back to defaultValue when unset or blank.
func IntFromEnv(key string, defaultValue int) (int, error) {
	rawValue, ok := lookup(key)
	if !ok {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(rawValue)
	if err != nil {
		return 0, fmt.Errorf("invalid int env %s=%q: %w", key, rawValue, err)
	}
	return value, nil
}

// DurationSecondsFromEnv reads a whole number of seconds.
func DurationSecondsFromEnv(key string, defaultSeconds int) (time.Duration, error) {
	seconds, err := IntFromEnv(key, defaultSeconds)
	if err != nil {
		return 0, err
	}
	if seconds < 0 {
		return 0, fmt.Errorf("invalid duration seconds env %s=%d", key, seconds)
	}
	return time.Duration(seconds) * time.Second, nil
}

// DurationMillisFromEnv reads a whole number of milliseconds.
func DurationMillisFromEnv(key string, defaultMillis int) (time.Duration, error) {
	millis, err := IntFromEnv(key, defaultMillis)
	if err != nil {
		return 0, err
	}
	if millis < 0 {
		return 0, fmt.Errorf("invalid duration millis env %s=%d", key, millis)
	}
	return time.Duration(millis) * time.Millisecond, nil
}

// BoolFromEnv reads a boolean (true/1/yes/y, false/0/no/n).
func BoolFromEnv(key string, defaultValue bool) (bool, error) {
	rawValue, ok := lookup(key)
	if !ok {
		return defaultValue, nil
	}

	switch strings.ToLower(rawValue) {
	case "true", "1", "yes", "y":
		return true, nil
	case "false", "0", "no", "n":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool env %s=%q", key, rawValue)
	}
}

// StringFromEnv reads a trimmed string.
func StringFromEnv(key string, defaultValue string) string {
	rawValue, ok := lookup(key)
	if !ok {
		return defaultValue
	}
	return rawValue
}

func lookup(key string) (string, bool) {
	rawValue, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	rawValue = strings.TrimSpace(rawValue)
	return rawValue, rawValue != ""
}
