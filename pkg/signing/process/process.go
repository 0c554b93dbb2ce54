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

// Package process implements a signer that runs a local command, such as
// codesign or osslsigncode, once per target.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/GEBIT/cbi.maven.plugins/pkg/errs"
	"github.com/GEBIT/cbi.maven.plugins/pkg/logging"
	"github.com/GEBIT/cbi.maven.plugins/pkg/signing"
	"github.com/GEBIT/cbi.maven.plugins/pkg/tracing"
	"github.com/GEBIT/cbi.maven.plugins/pkg/utils"
)

// Placeholders replaced by the target path in every argument. When no
// argument holds one, the path is appended as the last argument.
const (
	Placeholder     = "{}"
	PathPlaceholder = "${path}"
)

// waitDelay bounds how long Wait blocks on output pipes held open by
// children of a killed command.
const waitDelay = 2 * time.Second

// maxLoggedOutput caps the output kept on a CommandError.
const maxLoggedOutput = 64 * 1024

var _ signing.Signer = (*Signer)(nil)

// Config describes the command to run.
type Config struct {
	// Command is the program followed by its argument template.
	Command []string
	// Timeout bounds one invocation. Zero means no limit.
	Timeout time.Duration
	// Dir is the working directory. Empty means the current one.
	Dir string
	// Env is appended to the inherited environment.
	Env []string

	Logger logging.Logger
}

// Validate reports whether the command can be run.
func (c Config) Validate() error {
	if len(c.Command) == 0 || strings.TrimSpace(c.Command[0]) == "" {
		return errs.Contract("signing command must not be empty")
	}
	if c.Timeout < 0 {
		return errs.Contract("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

// CommandError reports a command that did not exit successfully.
type CommandError struct {
	Args     []string
	ExitCode int
	TimedOut bool
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "command '%s' ", strings.Join(e.Args, " "))
	switch {
	case e.TimedOut:
		b.WriteString("timed out")
	case e.ExitCode > 0:
		fmt.Fprintf(&b, "exited with code %d", e.ExitCode)
	default:
		fmt.Fprintf(&b, "failed: %v", e.Err)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		fmt.Fprintf(&b, ": %s", out)
	}
	return b.String()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Signer runs the configured command with the target path substituted.
type Signer struct {
	cfg    Config
	logger logging.Logger
}

// New returns a Signer for cfg.
func New(cfg Config) (*Signer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Signer{cfg: cfg, logger: logging.EnsureLogger(cfg.Logger)}, nil
}

// Sign implements signing.Signer. A zero exit status means signed; any
// other outcome is a *CommandError carrying the combined output.
func (s *Signer) Sign(ctx context.Context, path string) (bool, error) {
	if err := utils.ValidatePathExists("target", path); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%w: %w", errs.ErrCancelled, err)
	}

	args := Expand(s.cfg.Command, path)
	err := tracing.Run(ctx, tracing.SpanProcessSign, map[string]interface{}{
		"command": args[0],
		"target":  path,
	}, func(ctx context.Context) error {
		return s.run(ctx, args)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Signer) run(parent context.Context, args []string) error {
	ctx := parent
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.cfg.Timeout)
		defer cancel()
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = s.cfg.Dir
	if len(s.cfg.Env) > 0 {
		cmd.Env = append(cmd.Environ(), s.cfg.Env...)
	}
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = waitDelay

	s.logger.Debug("Running %s", strings.Join(args, " "))
	start := time.Now()
	err := cmd.Run()
	output := truncate(out.String())
	if output != "" {
		s.logger.Debug("%s", output)
	}
	if err == nil {
		s.logger.Debug("Command finished in %s", time.Since(start).Round(time.Millisecond))
		return nil
	}

	if perr := parent.Err(); perr != nil {
		return fmt.Errorf("%w: %w", errs.ErrCancelled, perr)
	}
	cmdErr := &CommandError{Args: args, Output: output, Err: err}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		cmdErr.TimedOut = true
		cmdErr.Err = fmt.Errorf("%w: %w", errs.ErrTransient, context.DeadlineExceeded)
		return cmdErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cmdErr.ExitCode = exitErr.ExitCode()
	}
	return cmdErr
}

// Expand substitutes path into template. If no argument carries a
// placeholder, path is appended.
func Expand(template []string, path string) []string {
	args := make([]string, 0, len(template)+1)
	substituted := false
	for _, a := range template {
		if strings.Contains(a, Placeholder) || strings.Contains(a, PathPlaceholder) {
			a = strings.ReplaceAll(a, PathPlaceholder, path)
			a = strings.ReplaceAll(a, Placeholder, path)
			substituted = true
		}
		args = append(args, a)
	}
	if !substituted {
		args = append(args, path)
	}
	return args
}

func truncate(s string) string {
	if len(s) <= maxLoggedOutput {
		return s
	}
	return s[:maxLoggedOutput] + "..."
}
