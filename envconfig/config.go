// Package envconfig centralizes the environment-driven configuration knobs
// that apply across the runtime: log verbosity, the optional NPU/GPU
// dispatch-library path, thread count, and session defaults.
package envconfig

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Var returns an environment variable's value with surrounding whitespace
// and quoting stripped.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// BoolWithDefault returns a getter for a boolean environment variable that
// falls back to defaultValue when unset or unparsable.
func BoolWithDefault(key string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		s := Var(key)
		if s == "" {
			return defaultValue
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			slog.Warn("invalid boolean environment variable, using default", "key", key, "value", s, "default", defaultValue)
			return defaultValue
		}
		return b
	}
}

// Bool returns a getter for a boolean environment variable (default false).
func Bool(key string) func() bool {
	withDefault := BoolWithDefault(key)
	return func() bool { return withDefault(false) }
}

// String returns a getter for a string environment variable.
func String(key string) func() string {
	return func() string { return Var(key) }
}

// Int returns a getter for an integer environment variable with a default.
func Int(key string, defaultValue int) func() int {
	return func() int {
		s := Var(key)
		if s == "" {
			return defaultValue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			slog.Warn("invalid integer environment variable, using default", "key", key, "value", s, "default", defaultValue)
			return defaultValue
		}
		return n
	}
}

// LogLevel reports the configured slog level.
// EXECUTOR_DEBUG unset or "0"/"false" -> Info, "1"/"true" -> Debug,
// any other integer n -> slog.Level(n * -4) (mirrors slog's own convention
// that each level step is 4 apart).
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("EXECUTOR_DEBUG"); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			if b {
				level = slog.LevelDebug
			}
		} else if i, err := strconv.ParseInt(s, 10, 64); err == nil && i != 0 {
			level = slog.Level(i * -4)
		}
	}
	return level
}

var (
	// DispatchLibraryPath points at a directory of accelerator dispatch
	// libraries (NPU/GPU delegate .so files), a value for
	// executor.Settings.DispatchLibraryPath. Nothing in this module reads
	// it on its own; a caller copies it into Settings.
	DispatchLibraryPath = String("EXECUTOR_DISPATCH_LIBRARY_PATH")

	// NumThreads is a CPU accelerator thread-count value for
	// executor.Settings.NumThreads. 0 means "let the accelerator decide".
	// Nothing in this module reads it on its own.
	NumThreads = Int("EXECUTOR_NUM_THREADS", 0)

	// MaxTokens is a session token budget (default 1024) for a caller to
	// pass to session.NewConfig. session does not read it on its own.
	MaxTokens = Int("EXECUTOR_MAX_TOKENS", 1024)
)
