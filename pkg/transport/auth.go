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
	"net/http"
	"net/url"
)

// basicAuthTransport adds Basic auth to requests whose host and port match
// the signing endpoint, whatever their scheme. Redirects between http and
// https on the same endpoint keep their credentials.
type basicAuthTransport struct {
	next     http.RoundTripper
	hostname string
	port     string
	creds    Credentials
}

func newBasicAuthTransport(next http.RoundTripper, endpoint *url.URL, creds Credentials) *basicAuthTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &basicAuthTransport{
		next:     next,
		hostname: endpoint.Hostname(),
		port:     endpoint.Port(),
		creds:    creds,
	}
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.matches(req.URL) {
		return t.next.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.SetBasicAuth(t.creds.Username, t.creds.Password)
	return t.next.RoundTrip(r)
}

func (t *basicAuthTransport) matches(u *url.URL) bool {
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Hostname() == t.hostname && u.Port() == t.port
}
