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

package transport

import (
	"fmt"

	"github.com/GEBIT/cbi.maven.plugins/pkg/errs"
)

var (
	// ErrInvalidSource is returned when the path to send is missing or
	// is not a regular file.
	ErrInvalidSource = fmt.Errorf("%w: source must be an existing regular file", errs.ErrPrecondition)

	// ErrEmptyPartName is returned when the multipart field name is empty.
	ErrEmptyPartName = fmt.Errorf("%w: part name must not be empty", errs.ErrPrecondition)

	// ErrInvalidPolicy is returned for a negative retry count or interval.
	ErrInvalidPolicy = fmt.Errorf("%w: retry count and interval must not be negative", errs.ErrContract)

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = fmt.Errorf("%w: invalid transport configuration", errs.ErrPrecondition)

	// ErrCancelled is returned when the context ends before the upload
	// loop completes. The context error is wrapped alongside it.
	ErrCancelled = errs.ErrCancelled
)

// AuthenticationError is returned when the signing server answers 401.
// It is never retried.
type AuthenticationError struct {
	User string
	URI  string
}

func (e *AuthenticationError) Error() string {
	if e.User == "" {
		return fmt.Sprintf("authentication failed on %s (no credentials configured)", e.URI)
	}
	return fmt.Sprintf("authentication failed for user '%s' on %s", e.User, e.URI)
}

// Unwrap lets errors.Is match errs.ErrAuthentication.
func (e *AuthenticationError) Unwrap() error {
	return errs.ErrAuthentication
}
