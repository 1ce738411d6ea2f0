package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults for every optional key. Gateway credentials have no default
// and must come from the selected source.
const (
	DefaultSourceURL         = "https://www.investorgain.com/report/live-ipo-gmp/331/"
	DefaultWindowDays        = 3
	DefaultThreshold         = 30.0
	DefaultFallbackThreshold = 20.0
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "console"
	DefaultSchedule          = "0 30 9 * * *" // 09:30 daily, with seconds field
	DefaultPort              = "8085"
)

// Mode selects where configuration values are read from.
type Mode string

const (
	// ModeFile reads a key=value file (dotenv format). The process
	// environment is never consulted and never mutated in this mode.
	ModeFile Mode = "file"
	// ModeEnv reads the process environment, for deployments that inject
	// secrets as env vars.
	ModeEnv Mode = "env"
)

// Config holds every setting the pipeline needs. It is resolved once at
// startup, returned by value and never mutated afterwards.
type Config struct {
	// Data source
	SourceURL string

	// WhatsApp gateway
	WhatsAppBaseURL string
	WhatsAppToken   string
	WhatsAppGroupID string

	// Screening
	WindowDays        int     // close-date window in civil days, inclusive
	Threshold         float64 // primary GMP percent threshold
	FallbackThreshold float64 // secondary threshold, must not exceed Threshold

	// Delivery
	DryRun bool

	// Logging
	LogLevel  string
	LogFormat string // console or json
	LogFile   string // rotating file output when set

	// Watch mode
	Schedule string // cron expression with seconds field
	Port     string // status API listen port
}

// Overrides carries flag-level settings that beat the source. A nil field
// means the flag was not set.
type Overrides struct {
	WindowDays        *int
	Threshold         *float64
	FallbackThreshold *float64
	DryRun            *bool
	LogLevel          *string
}

// Error reports a missing or unusable configuration value.
type Error struct {
	Key    string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %s: %v", e.Key, e.Reason, e.Err)
	}
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Resolve reads the selected source, applies overrides, validates and
// returns the finished Config. path is only used in ModeFile and defaults
// to ".env". All failures are *Error.
func Resolve(mode Mode, path string, ov Overrides) (Config, error) {
	var lookup func(string) string

	switch mode {
	case ModeFile:
		if path == "" {
			path = ".env"
		}
		values, err := godotenv.Read(path)
		if err != nil {
			return Config{}, &Error{Key: path, Reason: "cannot read config file", Err: err}
		}
		lookup = func(key string) string { return values[key] }
	case ModeEnv:
		lookup = os.Getenv
	default:
		return Config{}, &Error{Key: string(mode), Reason: "unknown config mode"}
	}

	cfg := Config{
		SourceURL:       strValue(lookup, "GMP_BASE_URL", DefaultSourceURL),
		WhatsAppBaseURL: strValue(lookup, "WHATSAPP_BASE_URL", ""),
		WhatsAppToken:   strValue(lookup, "WHATSAPP_TOKEN", ""),
		WhatsAppGroupID: strValue(lookup, "WHATSAPP_GROUP_ID", ""),
		LogLevel:        strValue(lookup, "LOG_LEVEL", DefaultLogLevel),
		LogFormat:       strValue(lookup, "LOG_FORMAT", DefaultLogFormat),
		LogFile:         strValue(lookup, "LOG_FILE", ""),
		Schedule:        strValue(lookup, "WATCH_SCHEDULE", DefaultSchedule),
		Port:            strValue(lookup, "PORT", DefaultPort),
	}

	var err error
	if cfg.WindowDays, err = intValue(lookup, "ALERT_WINDOW_DAYS", DefaultWindowDays); err != nil {
		return Config{}, err
	}
	if cfg.Threshold, err = floatValue(lookup, "GMP_THRESHOLD", DefaultThreshold); err != nil {
		return Config{}, err
	}
	if cfg.FallbackThreshold, err = floatValue(lookup, "GMP_FALLBACK_THRESHOLD", DefaultFallbackThreshold); err != nil {
		return Config{}, err
	}
	if cfg.DryRun, err = boolValue(lookup, "DRY_RUN", false); err != nil {
		return Config{}, err
	}

	cfg.apply(ov)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// apply copies set override fields onto the config. Overrides beat both
// source modes.
func (c *Config) apply(ov Overrides) {
	if ov.WindowDays != nil {
		c.WindowDays = *ov.WindowDays
	}
	if ov.Threshold != nil {
		c.Threshold = *ov.Threshold
	}
	if ov.FallbackThreshold != nil {
		c.FallbackThreshold = *ov.FallbackThreshold
	}
	if ov.DryRun != nil {
		c.DryRun = *ov.DryRun
	}
	if ov.LogLevel != nil {
		c.LogLevel = *ov.LogLevel
	}
}

// validate checks required keys and value ranges after the merge.
func (c *Config) validate() error {
	if c.SourceURL == "" {
		return &Error{Key: "GMP_BASE_URL", Reason: "must not be empty"}
	}
	if c.WhatsAppBaseURL == "" {
		return &Error{Key: "WHATSAPP_BASE_URL", Reason: "required"}
	}
	if c.WhatsAppToken == "" {
		return &Error{Key: "WHATSAPP_TOKEN", Reason: "required"}
	}
	if c.WhatsAppGroupID == "" {
		return &Error{Key: "WHATSAPP_GROUP_ID", Reason: "required"}
	}
	if c.WindowDays < 0 {
		return &Error{Key: "ALERT_WINDOW_DAYS", Reason: "must not be negative"}
	}
	if c.Threshold < 0 {
		return &Error{Key: "GMP_THRESHOLD", Reason: "must not be negative"}
	}
	if c.FallbackThreshold < 0 {
		return &Error{Key: "GMP_FALLBACK_THRESHOLD", Reason: "must not be negative"}
	}
	if c.FallbackThreshold > c.Threshold {
		return &Error{
			Key:    "GMP_FALLBACK_THRESHOLD",
			Reason: fmt.Sprintf("fallback threshold %.1f exceeds primary threshold %.1f", c.FallbackThreshold, c.Threshold),
		}
	}
	// The cron expression is left to the scheduler's parser, which also
	// accepts descriptors like @daily.
	if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		return &Error{Key: "PORT", Reason: "not a valid port number"}
	}
	return nil
}

// Helper functions (private, only used within this file)

func strValue(lookup func(string) string, key, defaultValue string) string {
	if value := lookup(key); value != "" {
		return value
	}
	return defaultValue
}

func intValue(lookup func(string) string, key string, defaultValue int) (int, error) {
	raw := lookup(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &Error{Key: key, Reason: "not an integer", Err: err}
	}
	return value, nil
}

func floatValue(lookup func(string) string, key string, defaultValue float64) (float64, error) {
	raw := lookup(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &Error{Key: key, Reason: "not a number", Err: err}
	}
	return value, nil
}

func boolValue(lookup func(string) string, key string, defaultValue bool) (bool, error) {
	raw := lookup(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &Error{Key: key, Reason: "not a boolean", Err: err}
	}
	return value, nil
}
