// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging provides the leveled logger handed to every signing
// component. There is no package-level logger: callers construct one
// (DefaultLogger, ZapLogger or NopLogger) and pass it down explicitly.
package logging

import "strings"

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LevelDebug carries per-attempt transport details and server replies.
	LevelDebug LogLevel = iota
	// LevelInfo carries per-target progress.
	LevelInfo
	// LevelWarn carries recoverable failures (continue-on-fail, retries).
	LevelWarn
	// LevelError carries failures that abort a run.
	LevelError
	// LevelSilent disables all output.
	LevelSilent
)

// String returns the string representation of a log level.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelSilent:
		return "silent"
	default:
		return "unknown"
	}
}

// ParseLogLevel parses a string into a LogLevel.
// Unrecognized values fall back to LevelInfo.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "silent", "none", "off":
		return LevelSilent
	default:
		return LevelInfo
	}
}

// LogFormat selects the backend and encoding of log output.
type LogFormat int

const (
	// FormatText is the built-in human readable format.
	FormatText LogFormat = iota
	// FormatJSON is the built-in JSON lines format.
	FormatJSON
	// FormatZap routes output through a zap production logger.
	FormatZap
)

// String returns the string representation of a log format.
func (f LogFormat) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	case FormatZap:
		return "zap"
	default:
		return "unknown"
	}
}

// ParseLogFormat parses a string into a LogFormat.
// Unrecognized values fall back to FormatText.
func ParseLogFormat(s string) LogFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	case "zap", "structured":
		return FormatZap
	default:
		return FormatText
	}
}

// Logger is the logging contract used across discovery, signing and
// transport.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})

	// GetLevel returns the current minimum log level.
	GetLevel() LogLevel

	// WithField returns a Logger that attaches key=value to every entry.
	WithField(key string, value interface{}) Logger
	// WithFields returns a Logger that attaches all fields to every entry.
	WithFields(fields map[string]interface{}) Logger
}

// Default returns an info-level text logger writing to stderr.
func Default() Logger {
	return NewLogger(false)
}

// EnsureLogger returns l if non-nil, otherwise a no-op logger. Library
// code never writes to the terminal unless the caller asked for it.
func EnsureLogger(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}

// NopLogger discards everything.
type NopLogger struct{}

var _ Logger = NopLogger{}

func (NopLogger) Debug(string, ...interface{})           {}
func (NopLogger) Info(string, ...interface{})            {}
func (NopLogger) Warn(string, ...interface{})            {}
func (NopLogger) Error(string, ...interface{})           {}
func (NopLogger) GetLevel() LogLevel                     { return LevelSilent }
func (n NopLogger) WithField(string, interface{}) Logger { return n }
func (n NopLogger) WithFields(map[string]interface{}) Logger {
	return n
}
