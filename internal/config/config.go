// Package config reads slashirc settings from the environment (and an
// optional .env file). Command-line flags are applied on top by the caller.
package config

import (
	"fmt"
	"time"
)

// Environment variables.
const (
	EnvServer        = "SLASHIRC_SERVER"
	EnvNick          = "SLASHIRC_NICK"
	EnvUser          = "SLASHIRC_USER"
	EnvRealName      = "SLASHIRC_REALNAME"
	EnvTLS           = "SLASHIRC_TLS"
	EnvTLSInsecure   = "SLASHIRC_TLS_INSECURE"
	EnvLocale        = "SLASHIRC_LOCALE"
	EnvQueryTimeout  = "SLASHIRC_QUERY_TIMEOUT_SECONDS"
	EnvSendInterval  = "SLASHIRC_SEND_INTERVAL_MILLIS"
	EnvSendBurst     = "SLASHIRC_SEND_BURST"
	EnvLogDir        = "SLASHIRC_LOG_DIR"
	EnvLogLevel      = "SLASHIRC_LOG_LEVEL"
	EnvLogMaxSizeMB  = "SLASHIRC_LOG_MAX_SIZE_MB"
	EnvLogMaxBackups = "SLASHIRC_LOG_MAX_BACKUPS"
	EnvLogMaxAgeDays = "SLASHIRC_LOG_MAX_AGE_DAYS"
)

// Config is the full client configuration.
type Config struct {
	Server   string
	Nick     string
	User     string
	RealName string

	TLS         bool
	TLSInsecure bool

	Locale       string
	QueryTimeout time.Duration

	// SendInterval is the steady gap between outgoing lines; SendBurst
	// lines may go out back to back.
	SendInterval time.Duration
	SendBurst    int

	Log LogConfig
}

// LogConfig controls the log file. An empty Dir disables file logging.
type LogConfig struct {
	Dir        string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	useTLS, err := BoolFromEnv(EnvTLS, false)
	if err != nil {
		return Config{}, fmt.Errorf("read %s failed: %w", EnvTLS, err)
	}

	insecure, err := BoolFromEnv(EnvTLSInsecure, false)
	if err != nil {
		return Config{}, fmt.Errorf("read %s failed: %w", EnvTLSInsecure, err)
	}

	queryTimeout, err := DurationSecondsFromEnv(EnvQueryTimeout, 30)
	if err != nil {
		return Config{}, fmt.Errorf("read %s failed: %w", EnvQueryTimeout, err)
	}
	if queryTimeout == 0 {
		return Config{}, fmt.Errorf("invalid %s: must be positive", EnvQueryTimeout)
	}

	sendInterval, err := DurationMillisFromEnv(EnvSendInterval, 500)
	if err != nil {
		return Config{}, fmt.Errorf("read %s failed: %w", EnvSendInterval, err)
	}

	sendBurst, err := IntFromEnv(EnvSendBurst, 5)
	if err != nil {
		return Config{}, fmt.Errorf("read %s failed: %w", EnvSendBurst, err)
	}
	if sendBurst <= 0 {
		return Config{}, fmt.Errorf("invalid %s: %d", EnvSendBurst, sendBurst)
	}

	logCfg, err := readLogConfig()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Server:       StringFromEnv(EnvServer, ""),
		Nick:         StringFromEnv(EnvNick, ""),
		User:         StringFromEnv(EnvUser, ""),
		RealName:     StringFromEnv(EnvRealName, ""),
		TLS:          useTLS,
		TLSInsecure:  insecure,
		Locale:       StringFromEnv(EnvLocale, "en"),
		QueryTimeout: queryTimeout,
		SendInterval: sendInterval,
		SendBurst:    sendBurst,
		Log:          logCfg,
	}, nil
}

func readLogConfig() (LogConfig, error) {
	maxSizeMB, err := IntFromEnv(EnvLogMaxSizeMB, 5)
	if err != nil {
		return LogConfig{}, fmt.Errorf("read %s failed: %w", EnvLogMaxSizeMB, err)
	}
	if maxSizeMB <= 0 {
		return LogConfig{}, fmt.Errorf("invalid %s: %d", EnvLogMaxSizeMB, maxSizeMB)
	}

	maxBackups, err := IntFromEnv(EnvLogMaxBackups, 3)
	if err != nil {
		return LogConfig{}, fmt.Errorf("read %s failed: %w", EnvLogMaxBackups, err)
	}
	if maxBackups <= 0 {
		return LogConfig{}, fmt.Errorf("invalid %s: %d", EnvLogMaxBackups, maxBackups)
	}

	maxAgeDays, err := IntFromEnv(EnvLogMaxAgeDays, 7)
	if err != nil {
		return LogConfig{}, fmt.Errorf("read %s failed: %w", EnvLogMaxAgeDays, err)
	}
	if maxAgeDays <= 0 {
		return LogConfig{}, fmt.Errorf("invalid %s: %d", EnvLogMaxAgeDays, maxAgeDays)
	}

	return LogConfig{
		Dir:        StringFromEnv(EnvLogDir, ""),
		Level:      StringFromEnv(EnvLogLevel, "info"),
		MaxSizeMB:  maxSizeMB,
		MaxBackups: maxBackups,
		MaxAgeDays: maxAgeDays,
	}, nil
}
