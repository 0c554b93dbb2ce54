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

// Package transporttest provides a fake signing endpoint for tests.
package transporttest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// SignPath is the route the fake server accepts uploads on.
const SignPath = "/sign"

// Request is what the fake server saw in one upload.
type Request struct {
	// PartNames lists the multipart form names in arrival order.
	PartNames []string
	// Fields holds the text parts.
	Fields map[string]string
	// FilePart and FileName describe the single file part.
	FilePart string
	FileName string
	Content  []byte

	Username  string
	Password  string
	HasAuth   bool
	RequestID string
}

// Responder decides the answer to the n-th upload (starting at 1).
type Responder func(n int, req Request) (status int, body []byte)

// Always answers every upload with status and body.
func Always(status int, body string) Responder {
	return func(int, Request) (int, []byte) {
		return status, []byte(body)
	}
}

// FailThenSign answers the first failures uploads with failStatus, then
// 200 and body.
func FailThenSign(failures, failStatus int, body string) Responder {
	return func(n int, _ Request) (int, []byte) {
		if n <= failures {
			return failStatus, []byte("temporarily unavailable")
		}
		return http.StatusOK, []byte(body)
	}
}

// Sign answers 200 with transform applied to the uploaded content.
func Sign(transform func([]byte) []byte) Responder {
	return func(_ int, req Request) (int, []byte) {
		return http.StatusOK, transform(req.Content)
	}
}

// Server is an httptest server routing uploads through chi.
type Server struct {
	srv     *httptest.Server
	respond Responder

	mu       sync.Mutex
	requests []Request
}

// NewServer starts a fake endpoint and closes it when the test ends.
func NewServer(t testing.TB, respond Responder) *Server {
	t.Helper()
	s := &Server{respond: respond}

	r := chi.NewRouter()
	r.Post(SignPath, s.handleSign)
	s.srv = httptest.NewServer(r)
	t.Cleanup(s.srv.Close)
	return s
}

// URL is the upload endpoint.
func (s *Server) URL() string {
	return s.srv.URL + SignPath
}

// Close stops the server. Later uploads fail at the network level.
func (s *Server) Close() {
	s.srv.Close()
}

// Requests returns the uploads seen so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns the number of uploads seen so far.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *Server) handleSign(w http.ResponseWriter, r *http.Request) {
	req := Request{
		Fields:    map[string]string{},
		RequestID: r.Header.Get("X-Request-ID"),
	}
	req.Username, req.Password, req.HasAuth = r.BasicAuth()

	mr, err := r.MultipartReader()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(p)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req.PartNames = append(req.PartNames, p.FormName())
		if p.FileName() != "" {
			req.FilePart = p.FormName()
			req.FileName = p.FileName()
			req.Content = data
		} else {
			req.Fields[p.FormName()] = string(data)
		}
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	n := len(s.requests)
	s.mu.Unlock()

	status, body := s.respond(n, req)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
