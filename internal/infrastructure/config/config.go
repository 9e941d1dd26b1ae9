// Package config provides configuration loading for the prepare-release application.
// Settings come from environment variables, read through viper.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Environment variable names.
const (
	// EnvLogLevel is the log level (debug, info, warn, error).
	EnvLogLevel = "LOG_LEVEL"

	// EnvLogAppName is the application name for log context.
	EnvLogAppName = "LOG_APP_NAME"

	// EnvGitGlobalConfig controls whether system and global git config are
	// searched for the commit identity.
	EnvGitGlobalConfig = "PREPARE_RELEASE_GIT_GLOBAL_CONFIG"

	// EnvTelemetryEnabled turns on OpenTelemetry tracing to stderr.
	EnvTelemetryEnabled = "PREPARE_RELEASE_OTEL_ENABLED"
)

// Default values.
const (
	DefaultLogLevel         = "info"
	DefaultLogAppName       = "prepare-release"
	DefaultGitGlobalConfig  = true
	DefaultTelemetryEnabled = false
)

// Configuration keys.
const (
	keyLogLevel         = "log_level"
	keyLogAppName       = "log_app_name"
	keyGitGlobalConfig  = "git_global_config"
	keyTelemetryEnabled = "otel_enabled"
)

// ErrInvalidConfig indicates an environment variable holds an unusable value.
var ErrInvalidConfig = errors.New("invalid configuration")

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Config holds all application configuration.
type Config struct {
	// LogLevel is the logging level (debug, info, warn, error).
	LogLevel string

	// LogAppName is the application name for log context.
	LogAppName string

	// UseGlobalGitConfig searches system and global git config for the commit identity.
	UseGlobalGitConfig bool

	// TelemetryEnabled installs the OpenTelemetry SDK tracer provider.
	TelemetryEnabled bool
}

// Load loads the application configuration from environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault(keyLogLevel, DefaultLogLevel)
	v.SetDefault(keyLogAppName, DefaultLogAppName)
	v.SetDefault(keyGitGlobalConfig, DefaultGitGlobalConfig)
	v.SetDefault(keyTelemetryEnabled, DefaultTelemetryEnabled)

	bindings := map[string]string{
		keyLogLevel:         EnvLogLevel,
		keyLogAppName:       EnvLogAppName,
		keyGitGlobalConfig:  EnvGitGlobalConfig,
		keyTelemetryEnabled: EnvTelemetryEnabled,
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	logLevel := strings.ToLower(strings.TrimSpace(v.GetString(keyLogLevel)))
	if logLevel == "" {
		logLevel = DefaultLogLevel
	}
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("%w: %s=%q (want one of %s)",
			ErrInvalidConfig, EnvLogLevel, logLevel, strings.Join(validLogLevels, ", "))
	}

	appName := strings.TrimSpace(v.GetString(keyLogAppName))
	if appName == "" {
		appName = DefaultLogAppName
	}

	globalGit, err := getBool(v, keyGitGlobalConfig, EnvGitGlobalConfig)
	if err != nil {
		return nil, err
	}
	telemetry, err := getBool(v, keyTelemetryEnabled, EnvTelemetryEnabled)
	if err != nil {
		return nil, err
	}

	return &Config{
		LogLevel:           logLevel,
		LogAppName:         appName,
		UseGlobalGitConfig: globalGit,
		TelemetryEnabled:   telemetry,
	}, nil
}

// getBool reads a boolean key strictly. viper's GetBool maps unparsable
// strings to false, which would hide typos in the environment.
func getBool(v *viper.Viper, key, env string) (bool, error) {
	switch val := v.Get(key).(type) {
	case bool:
		return val, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return false, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, env, val)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w: %s has unexpected type %T", ErrInvalidConfig, env, val)
	}
}

func isValidLogLevel(level string) bool {
	for _, l := range validLogLevels {
		if l == level {
			return true
		}
	}
	return false
}
