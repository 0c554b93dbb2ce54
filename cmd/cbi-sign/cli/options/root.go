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

// Package options defines the command-line options and flags for the cbi-sign CLI.
package options

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/GEBIT/cbi.maven.plugins/pkg/config"
	"github.com/GEBIT/cbi.maven.plugins/pkg/logging"
)

// EnvPrefix is the prefix used for environment variables that configure the CLI.
const EnvPrefix = config.EnvPrefix

// RootOptions defines flags and options for the root CLI command.
// These options are available globally across all subcommands.
type RootOptions struct {
	// OutputFile specifies a file path to redirect output to instead of stdout.
	OutputFile string
	// LogLevel sets the minimum log level (debug, info, warn, error, silent).
	LogLevel string
	// LogFormat sets the log output format (text, json, zap).
	LogFormat string
	// Timeout bounds a whole run. Zero disables it.
	Timeout time.Duration
	// ConfigFile is a YAML signing job. Flags override its values.
	ConfigFile string
	// MetricsFile receives Prometheus metrics in text format after a run.
	MetricsFile string
	// NoColor disables colored terminal output.
	NoColor bool
}

// DefaultTimeout specifies the default timeout duration for commands.
const DefaultTimeout = time.Hour

// ValidLogLevels lists the valid log level strings.
var ValidLogLevels = []string{"debug", "info", "warn", "error", "silent"}

// ValidLogFormats lists the valid log format strings.
var ValidLogFormats = []string{"text", "json", "zap"}

var logExts = []string{"log", "txt"}

var _ FlagAdder = (*RootOptions)(nil)

// AddFlags adds root-level flags to the cobra command.
func (o *RootOptions) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&o.OutputFile, "output-file", "",
		"log output to a file")
	_ = cmd.MarkFlagFilename("output-file", logExts...)

	cmd.PersistentFlags().StringVar(&o.LogLevel, "log-level", "info",
		"set the minimum log level (debug, info, warn, error, silent)")

	cmd.PersistentFlags().StringVar(&o.LogFormat, "log-format", "text",
		"set the log output format (text, json, zap)")

	cmd.PersistentFlags().DurationVarP(&o.Timeout, "timeout", "t", DefaultTimeout,
		"timeout for the whole run, 0 to disable")

	cmd.PersistentFlags().StringVarP(&o.ConfigFile, "config", "c", "",
		"YAML signing job; flags override its values")
	_ = cmd.MarkFlagFilename("config", "yaml", "yml")

	cmd.PersistentFlags().StringVar(&o.MetricsFile, "metrics-file", "",
		"write Prometheus metrics to this file after the run")

	cmd.PersistentFlags().BoolVar(&o.NoColor, "no-color", false,
		"disable colored output (also honors NO_COLOR)")
}

// GetLogLevel returns the effective log level based on the options.
func (o *RootOptions) GetLogLevel() logging.LogLevel {
	return logging.ParseLogLevel(o.LogLevel)
}

// GetLogFormat returns the log format based on the options.
func (o *RootOptions) GetLogFormat() logging.LogFormat {
	return logging.ParseLogFormat(o.LogFormat)
}

// NewLogger creates a new logger based on the root options.
func (o *RootOptions) NewLogger() (logging.Logger, error) {
	if o.GetLogFormat() == logging.FormatZap {
		return logging.NewZapLogger(o.GetLogLevel())
	}
	return logging.NewLoggerWithOptions(logging.LoggerOptions{
		Level:  o.GetLogLevel(),
		Format: o.GetLogFormat(),
	}), nil
}
