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
	"net/http"
	"net/url"
	"time"

	"github.com/GEBIT/cbi.maven.plugins/pkg/hashing"
	"github.com/GEBIT/cbi.maven.plugins/pkg/logging"
	"github.com/GEBIT/cbi.maven.plugins/pkg/metrics"
)

// Credentials enable HTTP Basic authentication.
type Credentials struct {
	Username string
	Password string
}

// Param is a text part sent ahead of the file part.
type Param struct {
	Name  string
	Value string
}

// Config configures a PostFileSender.
type Config struct {
	// URI of the signing endpoint. Required, http or https.
	URI string

	// Credentials, when set, are sent as Basic auth to the endpoint's
	// host and port under both http and https.
	Credentials *Credentials

	// Params are sent as text parts, in order, before the file part.
	Params []Param

	// HTTPClient is used for the requests. When nil a client with a
	// private connection pool is created per Send and closed afterwards.
	HTTPClient *http.Client

	// DigestAlgorithm is used to detect a server returning the content
	// unchanged. Defaults to sha256.
	DigestAlgorithm string

	Logger  logging.Logger
	Metrics *metrics.Metrics
}

// Validate checks the URI and credentials.
func (c Config) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("%w: URI is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.URI)
	if err != nil {
		return fmt.Errorf("%w: URI %q: %w", ErrInvalidConfig, c.URI, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: URI %q must use http or https", ErrInvalidConfig, c.URI)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: URI %q has no host", ErrInvalidConfig, c.URI)
	}
	if c.Credentials != nil && c.Credentials.Username == "" {
		return fmt.Errorf("%w: credentials require a username", ErrInvalidConfig)
	}
	for i, p := range c.Params {
		if p.Name == "" {
			return fmt.Errorf("%w: parameter %d has no name", ErrInvalidConfig, i)
		}
	}
	if c.DigestAlgorithm != "" {
		if _, err := hashing.NewEngine(c.DigestAlgorithm); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// RetryPolicy bounds the upload loop. MaxRetries counts retries after the
// first attempt, so MaxRetries+1 attempts are made at most. Interval is
// waited before each retry.
type RetryPolicy struct {
	MaxRetries int
	Interval   time.Duration
}

// NoRetry makes a single attempt.
var NoRetry = RetryPolicy{}

// Validate rejects negative values.
func (p RetryPolicy) Validate() error {
	if p.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries is %d", ErrInvalidPolicy, p.MaxRetries)
	}
	if p.Interval < 0 {
		return fmt.Errorf("%w: interval is %s", ErrInvalidPolicy, p.Interval)
	}
	return nil
}
