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

import (
	"context"
	"sync"
)

// RecordedSpan is a finished span captured by a Recorder.
type RecordedSpan struct {
	Name       string
	Attributes map[string]interface{}
	Err        error
}

// Recorder is an in-memory Tracer. Install it with SetTracer to inspect
// which spans an operation produced.
type Recorder struct {
	mu    sync.Mutex
	spans []RecordedSpan
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Start implements Tracer.
func (r *Recorder) Start(ctx context.Context, name string) (context.Context, Span) {
	return ctx, &recordedSpan{rec: r, span: RecordedSpan{Name: name, Attributes: map[string]interface{}{}}}
}

// Spans returns a copy of the finished spans in end order.
func (r *Recorder) Spans() []RecordedSpan {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedSpan, len(r.spans))
	copy(out, r.spans)
	return out
}

// Names returns the names of the finished spans in end order.
func (r *Recorder) Names() []string {
	spans := r.Spans()
	names := make([]string, 0, len(spans))
	for _, s := range spans {
		names = append(names, s.Name)
	}
	return names
}

type recordedSpan struct {
	rec   *Recorder
	span  RecordedSpan
	ended bool
}

func (s *recordedSpan) SetAttribute(key string, value interface{}) {
	s.span.Attributes[key] = value
}

func (s *recordedSpan) RecordError(err error) {
	if err != nil {
		s.span.Err = err
	}
}

func (s *recordedSpan) End() {
	if s.ended {
		return
	}
	s.ended = true
	s.rec.mu.Lock()
	s.rec.spans = append(s.rec.spans, s.span)
	s.rec.mu.Unlock()
}
