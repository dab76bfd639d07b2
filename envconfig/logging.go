package envconfig

import (
	"fmt"
	"io"
	"log/slog"
)

// NewLogger builds the default text handler logger for the runtime, at the
// level reported by LogLevel. Callers that embed this module into a larger
// host process are free to install their own slog.Default instead; this is
// only the module's own opinion about the shape of its log lines when run
// standalone (tests, examples).
func NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: LogLevel(),
	}))
}

// EnvVar describes one environment-backed setting for introspection.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap reports every configuration knob this package recognizes, along
// with its current value. Useful for a host process to log its effective
// configuration at startup.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"EXECUTOR_DEBUG":                 {"EXECUTOR_DEBUG", LogLevel(), "Log verbosity (0=info, 1=debug, 2=trace)"},
		"EXECUTOR_DISPATCH_LIBRARY_PATH": {"EXECUTOR_DISPATCH_LIBRARY_PATH", DispatchLibraryPath(), "Directory of NPU/GPU dispatch libraries"},
		"EXECUTOR_NUM_THREADS":           {"EXECUTOR_NUM_THREADS", NumThreads(), "CPU accelerator thread count override (0 = auto)"},
		"EXECUTOR_MAX_TOKENS":            {"EXECUTOR_MAX_TOKENS", MaxTokens(), "Default maximum generated tokens per session"},
	}
}

// Values renders AsMap as name -> stringified value, for logging.
func Values() map[string]string {
	vals := make(map[string]string, len(AsMap()))
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
