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

// Package signingtest provides Signer doubles for tests and dry runs.
package signingtest

import (
	"context"
	"errors"
	"sync"

	"github.com/GEBIT/cbi.maven.plugins/pkg/signing"
)

// ErrSigning is returned by ErrorSigner.
var ErrSigning = errors.New("signing error")

var (
	_ signing.Signer = DummySigner{}
	_ signing.Signer = NotSigningSigner{}
	_ signing.Signer = ErrorSigner{}
	_ signing.Signer = (*CountingSigner)(nil)
)

// DummySigner reports every target as signed without touching it.
type DummySigner struct{}

func (DummySigner) Sign(context.Context, string) (bool, error) {
	return true, nil
}

// NotSigningSigner declines every target.
type NotSigningSigner struct{}

func (NotSigningSigner) Sign(context.Context, string) (bool, error) {
	return false, nil
}

// ErrorSigner fails every target with Err, or ErrSigning when Err is nil.
type ErrorSigner struct {
	Err error
}

func (s ErrorSigner) Sign(context.Context, string) (bool, error) {
	if s.Err != nil {
		return false, s.Err
	}
	return false, ErrSigning
}

// CountingSigner records the paths it is asked to sign and delegates to
// Next, or reports success when Next is nil.
type CountingSigner struct {
	Next signing.Signer

	mu    sync.Mutex
	paths []string
}

func (s *CountingSigner) Sign(ctx context.Context, path string) (bool, error) {
	s.mu.Lock()
	s.paths = append(s.paths, path)
	s.mu.Unlock()
	if s.Next == nil {
		return true, nil
	}
	return s.Next.Sign(ctx, path)
}

// Paths returns the recorded paths in call order.
func (s *CountingSigner) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Calls returns the number of Sign calls.
func (s *CountingSigner) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}
