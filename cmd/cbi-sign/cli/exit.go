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

package cli

import (
	"errors"

	"github.com/GEBIT/cbi.maven.plugins/pkg/errs"
)

// Exit codes by failure class.
const (
	ExitFailure        = 1
	ExitUsage          = 2
	ExitAuthentication = 3
	ExitTransient      = 4
	ExitCancelled      = 130
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Err  error
	Code int
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode returns the process exit code.
func (e *ExitError) ExitCode() int { return e.Code }

// withExitCode classifies err. nil stays nil.
func withExitCode(err error) error {
	if err == nil {
		return nil
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return err
	}
	code := ExitFailure
	switch errs.Classify(err) {
	case errs.ClassContract, errs.ClassPrecondition:
		code = ExitUsage
	case errs.ClassAuthentication:
		code = ExitAuthentication
	case errs.ClassTransient:
		code = ExitTransient
	case errs.ClassCancelled:
		code = ExitCancelled
	}
	return &ExitError{Err: err, Code: code}
}
