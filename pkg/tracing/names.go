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

package tracing

// DefaultServiceName is reported when OTEL_SERVICE_NAME is unset.
const DefaultServiceName = "cbi-sign"

const instrumentationName = "github.com/GEBIT/cbi.maven.plugins"

// Environment read when describing the run to an exporter.
const (
	EnvSignerURL     = "CBI_SIGN_SIGNER_URL"
	EnvBaseSearchDir = "CBI_SIGN_BASE_SEARCH_DIR"
)

// Resource and span attribute keys.
const (
	AttrSigningServer = "cbi.sign.server"
	AttrBaseSearchDir = "cbi.sign.base_dir"
	AttrErrorClass    = "error.class"
)

// Span names.
const (
	SpanDiscover         = "discovery.Discover"
	SpanSignAll          = "signing.SignAll"
	SpanTransportSend    = "transport.Send"
	SpanTransportAttempt = "transport.attempt"
	SpanProcessSign      = "process.Sign"
)
