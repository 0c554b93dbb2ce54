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

// Package errs holds the failure taxonomy shared by discovery, signing and
// transport. Packages define their own sentinels and wrap one of the class
// sentinels below so callers can branch on the class with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrContract marks a caller programming error (nil sets, negative
	// retry budgets). Never retried.
	ErrContract = errors.New("contract violation")

	// ErrPrecondition marks bad input (missing path, wrong kind, empty
	// required string). Never retried.
	ErrPrecondition = errors.New("precondition failed")

	// ErrAuthentication marks a rejected credential. Never retried.
	ErrAuthentication = errors.New("authentication failed")

	// ErrTransient marks a failure eligible for retry.
	ErrTransient = errors.New("transient failure")

	// ErrCancelled marks a run aborted through its context.
	ErrCancelled = errors.New("cancelled")
)

// Class categorizes an error for reporting and metrics.
type Class int

const (
	ClassUnknown Class = iota
	ClassContract
	ClassPrecondition
	ClassAuthentication
	ClassTransient
	ClassCancelled
)

// String returns a label suitable for logs and metric labels.
func (c Class) String() string {
	switch c {
	case ClassContract:
		return "contract"
	case ClassPrecondition:
		return "precondition"
	case ClassAuthentication:
		return "authentication"
	case ClassTransient:
		return "transient"
	case ClassCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Classify returns the class of err by walking its chain.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassUnknown
	case errors.Is(err, ErrContract):
		return ClassContract
	case errors.Is(err, ErrPrecondition):
		return ClassPrecondition
	case errors.Is(err, ErrAuthentication):
		return ClassAuthentication
	case errors.Is(err, ErrCancelled):
		return ClassCancelled
	case errors.Is(err, ErrTransient):
		return ClassTransient
	default:
		return ClassUnknown
	}
}

// Contract returns an error wrapping ErrContract.
func Contract(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrContract, fmt.Sprintf(format, args...))
}

// Precondition returns an error wrapping ErrPrecondition and cause.
// cause may be nil.
func Precondition(cause error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrPrecondition, msg)
	}
	return fmt.Errorf("%w: %s: %w", ErrPrecondition, msg, cause)
}
