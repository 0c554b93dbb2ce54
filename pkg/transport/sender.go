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

// Package transport uploads a file to a remote signing endpoint as a
// multipart POST and replaces the local file with the signed content the
// server returns. Failed attempts are retried with a fixed wait; a 401
// answer stops the loop at once.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/GEBIT/cbi.maven.plugins/pkg/errs"
	"github.com/GEBIT/cbi.maven.plugins/pkg/hashing"
	"github.com/GEBIT/cbi.maven.plugins/pkg/logging"
	"github.com/GEBIT/cbi.maven.plugins/pkg/metrics"
	"github.com/GEBIT/cbi.maven.plugins/pkg/tracing"
)

// RequestIDHeader carries a fresh UUID on every attempt.
const RequestIDHeader = "X-Request-ID"

// maxLoggedBody caps how much of a rejection body is logged.
const maxLoggedBody = 64 * 1024

// errNotSigned marks an attempt that completed without a signed result.
var errNotSigned = errors.New("signing server did not return signed content")

// FileSender uploads a file for signing. PostFileSender is the HTTP
// implementation.
type FileSender interface {
	Send(ctx context.Context, path, partName string, policy RetryPolicy) (bool, error)
}

var _ FileSender = (*PostFileSender)(nil)

// PostFileSender sends files to one signing endpoint.
type PostFileSender struct {
	cfg      Config
	endpoint *url.URL
	logger   logging.Logger
	metrics  *metrics.Metrics
}

// NewPostFileSender validates cfg and returns a sender for it.
func NewPostFileSender(cfg Config) (*PostFileSender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	endpoint, err := url.Parse(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if cfg.DigestAlgorithm == "" {
		cfg.DigestAlgorithm = hashing.SHA256
	}
	return &PostFileSender{
		cfg:      cfg,
		endpoint: endpoint,
		logger:   logging.EnsureLogger(cfg.Logger),
		metrics:  cfg.Metrics,
	}, nil
}

// URI returns the signing endpoint.
func (s *PostFileSender) URI() string {
	return s.endpoint.String()
}

// Send uploads path as the file part partName and, on a 200 answer with a
// non-empty body, atomically replaces the file with that body and returns
// true. Up to policy.MaxRetries retries follow a failed attempt, each after
// waiting policy.Interval.
//
// A 401 answer returns an *AuthenticationError immediately. Other non-200
// answers and network errors are retried. Once the budget is spent the
// last network error is returned, wrapped with errs.ErrTransient; if no
// attempt hit a network error Send returns false and a nil error.
// Cancelling ctx aborts the loop, including a wait in progress, with an
// error wrapping ErrCancelled.
func (s *PostFileSender) Send(ctx context.Context, path, partName string, policy RetryPolicy) (bool, error) {
	if path == "" {
		return false, ErrInvalidSource
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false, fmt.Errorf("%w: %q", ErrInvalidSource, path)
	}
	if partName == "" {
		return false, ErrEmptyPartName
	}
	if err := policy.Validate(); err != nil {
		return false, err
	}

	var signed bool
	err = tracing.Run(ctx, tracing.SpanTransportSend, map[string]interface{}{
		"path":        path,
		"part":        partName,
		"uri":         s.endpoint.Redacted(),
		"max_retries": policy.MaxRetries,
	}, func(ctx context.Context) error {
		var err error
		signed, err = s.send(ctx, path, partName, policy)
		return err
	})
	return signed, err
}

func (s *PostFileSender) send(ctx context.Context, path, partName string, policy RetryPolicy) (bool, error) {
	logger := s.logger.WithFields(map[string]interface{}{
		"path": path,
		"uri":  s.endpoint.Redacted(),
	})

	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	before, err := hashing.HashFile(path, s.cfg.DigestAlgorithm)
	if err != nil {
		logger.Debug("Unable to digest %s before upload: %v", path, err)
	}

	client, closeIdle := s.client()
	defer closeIdle()

	var (
		attempt int
		lastErr error
	)
	operation := func() error {
		attempt++
		ok, err := s.attempt(ctx, client, path, partName, attempt)
		switch {
		case err != nil:
			var authErr *AuthenticationError
			if errors.As(err, &authErr) {
				return backoff.Permanent(err)
			}
			lastErr = err
			logger.Debug("Error occurred while communicating with '%s': %v", s.endpoint.Redacted(), err)
			return err
		case ok:
			return nil
		default:
			return errNotSigned
		}
	}
	notify := func(_ error, wait time.Duration) {
		s.metrics.IncRetryWait()
		logger.Debug("Unable to sign '%s' on '%s'. Will retry (%d / %d) in %s...",
			path, s.endpoint.Redacted(), attempt, policy.MaxRetries, wait)
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(policy.Interval), uint64(policy.MaxRetries)),
		ctx,
	)
	err = backoff.RetryNotify(operation, b, notify)

	switch {
	case err == nil:
		s.warnIfUnchanged(logger, path, before)
		return true, nil
	case ctx.Err() != nil:
		logger.Debug("Signing of '%s' cancelled after %d attempt(s)", path, attempt)
		return false, fmt.Errorf("%w: sending %q: %w", ErrCancelled, path, ctx.Err())
	}

	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return false, err
	}
	if lastErr != nil {
		return false, fmt.Errorf("%w: sending %q to %s after %d attempt(s): %w",
			errs.ErrTransient, path, s.endpoint.Redacted(), attempt, lastErr)
	}
	return false, nil
}

// attempt performs one POST. It returns (true, nil) when the file was
// replaced, (false, nil) when the server answered without signed content,
// and an error for 401 or a network failure.
func (s *PostFileSender) attempt(ctx context.Context, client *http.Client, path, partName string, n int) (signed bool, err error) {
	ctx, span := tracing.Start(ctx, tracing.SpanTransportAttempt)
	defer func() {
		span.RecordError(err)
		span.End()
	}()
	span.SetAttribute("attempt", n)

	requestID := uuid.NewString()
	logger := s.logger.WithFields(map[string]interface{}{
		"attempt":    n,
		"request_id": requestID,
	})
	logger.Debug("Sending '%s' for signing to '%s'", path, s.endpoint.Redacted())

	req, err := s.newRequest(ctx, path, partName)
	if err != nil {
		s.metrics.IncAttempt(metrics.AttemptError)
		return false, err
	}
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := client.Do(req)
	if err != nil {
		s.metrics.IncAttempt(metrics.AttemptError)
		return false, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	span.SetAttribute("status", resp.StatusCode)

	switch resp.StatusCode {
	case http.StatusOK:
		written, err := replaceContent(path, resp.Body)
		if err != nil {
			s.metrics.IncAttempt(metrics.AttemptError)
			return false, err
		}
		if written == 0 {
			s.metrics.IncAttempt(metrics.AttemptEmptyBody)
			logger.Debug("Signing server replied with: '%s' and an empty body", resp.Status)
			return false, nil
		}
		s.metrics.IncAttempt(metrics.AttemptSigned)
		s.metrics.AddSignedBytes(written)
		return true, nil
	case http.StatusUnauthorized:
		s.metrics.IncAttempt(metrics.AttemptUnauthorized)
		logger.Debug("Signing server replied with: '%s'", resp.Status)
		return false, &AuthenticationError{User: s.username(), URI: s.endpoint.Redacted()}
	default:
		s.metrics.IncAttempt(metrics.AttemptRejected)
		logger.Debug("Signing server replied with: '%s'", resp.Status)
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
		if err != nil {
			logger.Debug("Error occurred while reading the content returned by the signing server: %v", err)
		} else if len(body) > 0 {
			logger.Debug("Signing server failed by returning content '%s'", strings.TrimSpace(string(body)))
		}
		return false, nil
	}
}

// newRequest builds a streaming multipart POST. Text parts come first,
// then the file part carrying the file's base name.
func (s *PostFileSender) newRequest(ctx context.Context, path, partName string) (*http.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		defer f.Close()
		pw.CloseWithError(writeMultipart(mw, s.cfg.Params, partName, filepath.Base(path), f))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint.String(), pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}

func writeMultipart(mw *multipart.Writer, params []Param, partName, fileName string, content io.Reader) error {
	for _, p := range params {
		if err := mw.WriteField(p.Name, p.Value); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile(partName, fileName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}
	return mw.Close()
}

// client returns the HTTP client for one Send and a func releasing its
// idle connections.
func (s *PostFileSender) client() (*http.Client, func()) {
	base := s.cfg.HTTPClient
	owned := base == nil
	if owned {
		base = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}

	c := *base
	if s.cfg.Credentials != nil {
		c.Transport = newBasicAuthTransport(base.Transport, s.endpoint, *s.cfg.Credentials)
	}

	release := func() {}
	if owned {
		release = base.CloseIdleConnections
	}
	return &c, release
}

func (s *PostFileSender) username() string {
	if s.cfg.Credentials == nil {
		return ""
	}
	return s.cfg.Credentials.Username
}

func (s *PostFileSender) warnIfUnchanged(logger logging.Logger, path string, before hashing.Digest) {
	if before.IsZero() {
		return
	}
	after, err := hashing.HashFile(path, s.cfg.DigestAlgorithm)
	if err != nil {
		logger.Debug("Unable to digest %s after upload: %v", path, err)
		return
	}
	if after.Equal(before) {
		logger.Warn("Signing server returned content identical to '%s'", path)
		return
	}
	logger.Debug("Signed content of '%s' is %s", path, after)
}
