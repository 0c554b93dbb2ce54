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

package signing

import (
	"fmt"

	"github.com/GEBIT/cbi.maven.plugins/pkg/hashing"
	"github.com/GEBIT/cbi.maven.plugins/pkg/logging"
	"github.com/GEBIT/cbi.maven.plugins/pkg/metrics"
)

// Config configures an Orchestrator.
type Config struct {
	// Signer is called once per target. Required.
	Signer Signer

	// ContinueOnFail records failures and keeps going instead of stopping
	// at the first one.
	ContinueOnFail bool

	// DigestAlgorithm, when set, digests every signed target for the
	// report. Use one of hashing.SupportedAlgorithms.
	DigestAlgorithm string

	Logger  logging.Logger
	Metrics *metrics.Metrics
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Signer == nil {
		return ErrNilSigner
	}
	if c.DigestAlgorithm != "" {
		if _, err := hashing.NewEngine(c.DigestAlgorithm); err != nil {
			return fmt.Errorf("digest algorithm: %w", err)
		}
	}
	return nil
}
