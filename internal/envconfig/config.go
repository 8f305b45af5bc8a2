// Package envconfig reads parkit settings from the environment.
//
// Every setting is exposed as a getter so values are read at call time,
// which lets tests override them with t.Setenv.
package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Var returns the trimmed value of an environment variable with surrounding
// quotes removed.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// BoolWithDefault returns a getter for a boolean variable. Unparseable
// non-empty values count as true.
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool returns a getter for a boolean variable that defaults to false.
func Bool(k string) func() bool {
	withDefault := BoolWithDefault(k)
	return func() bool {
		return withDefault(false)
	}
}

// Uint returns a getter for an unsigned variable with a default.
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

var (
	// NumWorkers is the number of worker goroutines of the CPU space.
	NumWorkers = Uint("PARKIT_NUM_WORKERS", uint(runtime.NumCPU()))
	// MinChunkSize is the smallest number of indices handed to one worker.
	MinChunkSize = Uint("PARKIT_MIN_CHUNK", 64)
	// Sequential disables parallel execution entirely.
	Sequential = Bool("PARKIT_SEQUENTIAL")
	// GPUMinElements is the array length below which the WebGPU space runs
	// typed kernels on its host pool.
	GPUMinElements = Uint("PARKIT_GPU_MIN_ELEMENTS", 1024)
)

// LogLevel returns the log level selected by PARKIT_DEBUG.
// Unset or false is info, true or 1 is debug, 2 and above is trace.
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("PARKIT_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}
	return level
}

// EnvVar describes one configuration variable.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns all configuration variables with their current values.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"PARKIT_DEBUG":            {"PARKIT_DEBUG", LogLevel(), "Show additional debug information (e.g. PARKIT_DEBUG=1)"},
		"PARKIT_NUM_WORKERS":      {"PARKIT_NUM_WORKERS", NumWorkers(), "Worker goroutines used by the CPU space"},
		"PARKIT_MIN_CHUNK":        {"PARKIT_MIN_CHUNK", MinChunkSize(), "Minimum indices per worker chunk (default 64)"},
		"PARKIT_SEQUENTIAL":       {"PARKIT_SEQUENTIAL", Sequential(), "Run every primitive on the calling goroutine"},
		"PARKIT_GPU_MIN_ELEMENTS": {"PARKIT_GPU_MIN_ELEMENTS", GPUMinElements(), "Smallest array offloaded to the GPU (default 1024)"},
	}
}

// Values returns the configuration as printable strings.
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
