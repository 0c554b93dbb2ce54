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

// Package signing drives a Signer over a set of targets. The Orchestrator
// checks each target, calls the Signer, and either stops at the first
// failure or, with ContinueOnFail, records it and moves on.
package signing

import "context"

//go:generate mockgen -source=signer.go -destination=mocks/mock_signer.go -package=mocks Signer

// Signer signs one target in place.
//
// Sign returns true when the target was signed and false when the signer
// declined it. An error means the attempt failed; the orchestrator never
// inspects which implementation it holds.
type Signer interface {
	Sign(ctx context.Context, path string) (bool, error)
}

// SignerFunc adapts a function to Signer.
type SignerFunc func(ctx context.Context, path string) (bool, error)

// Sign calls f.
func (f SignerFunc) Sign(ctx context.Context, path string) (bool, error) {
	return f(ctx, path)
}
