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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithoutTracerCallsFn(t *testing.T) {
	SetTracer(nil)
	require.False(t, Enabled())

	called := false
	err := Run(context.Background(), SpanDiscover, nil, func(context.Context) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
}

func TestRunRecordsSpan(t *testing.T) {
	rec := NewRecorder()
	SetTracer(rec)
	t.Cleanup(func() { SetTracer(nil) })
	require.True(t, Enabled())

	boom := errors.New("boom")
	err := Run(context.Background(), SpanSignAll, map[string]interface{}{"targets": 3}, func(ctx context.Context) error {
		_, child := Start(ctx, SpanTransportSend)
		child.End()
		return boom
	})

	require.ErrorIs(t, err, boom)
	spans := rec.Spans()
	require.Len(t, spans, 2)
	assert.Equal(t, SpanTransportSend, spans[0].Name)
	assert.Equal(t, SpanSignAll, spans[1].Name)
	assert.Equal(t, 3, spans[1].Attributes["targets"])
	assert.ErrorIs(t, spans[1].Err, boom)
}

func TestRecorderEndIsIdempotent(t *testing.T) {
	rec := NewRecorder()
	_, span := rec.Start(context.Background(), SpanTransportAttempt)
	span.End()
	span.End()

	assert.Equal(t, []string{SpanTransportAttempt}, rec.Names())
}

func TestNoopSpan(t *testing.T) {
	ctx := context.Background()
	got, span := NoopTracer{}.Start(ctx, "x")
	assert.Equal(t, ctx, got)
	span.SetAttribute("k", "v")
	span.RecordError(errors.New("ignored"))
	span.End()
}
