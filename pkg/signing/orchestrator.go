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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GEBIT/cbi.maven.plugins/pkg/discovery"
	"github.com/GEBIT/cbi.maven.plugins/pkg/errs"
	"github.com/GEBIT/cbi.maven.plugins/pkg/hashing"
	"github.com/GEBIT/cbi.maven.plugins/pkg/logging"
	"github.com/GEBIT/cbi.maven.plugins/pkg/tracing"
)

// Orchestrator signs targets one after another with a single Signer.
type Orchestrator struct {
	cfg    Config
	logger logging.Logger
}

// NewOrchestrator validates cfg and returns an Orchestrator.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Orchestrator{
		cfg:    cfg,
		logger: logging.EnsureLogger(cfg.Logger),
	}, nil
}

// SignAll signs targets in order and returns how many were signed.
//
// Without ContinueOnFail the first declined or failed target stops the run
// and SignAll returns 0 and a *SigningError for that target. With
// ContinueOnFail failures are logged and the count of signed targets is
// returned with a nil error. A nil targets slice returns ErrNilTargets;
// an empty one returns 0.
func (o *Orchestrator) SignAll(ctx context.Context, targets []Target) (int, error) {
	report, err := o.Run(ctx, targets)
	if err != nil {
		return 0, err
	}
	return report.Signed(), nil
}

// Run is SignAll returning the per-target report. The report is returned
// alongside a fail-fast error and covers the targets processed so far.
// Targets naming the same path are signed once, at their first position.
func (o *Orchestrator) Run(ctx context.Context, targets []Target) (*Report, error) {
	if targets == nil {
		return nil, ErrNilTargets
	}

	targets = unique(targets)
	report := &Report{Entries: make([]Entry, 0, len(targets))}
	err := tracing.Run(ctx, tracing.SpanSignAll, map[string]interface{}{
		"targets":          len(targets),
		"continue_on_fail": o.cfg.ContinueOnFail,
	}, func(ctx context.Context) error {
		return o.run(ctx, targets, report)
	})
	return report, err
}

// SignTree discovers targets of kind below baseDir and signs them.
func (o *Orchestrator) SignTree(ctx context.Context, baseDir string, matchers discovery.MatcherSet, kind TargetKind) (int, error) {
	set, err := discovery.Discover(ctx, baseDir, matchers, discovery.Options{Logger: o.logger})
	if err != nil {
		return 0, err
	}
	o.cfg.Metrics.SetDiscovered(set.Len())
	return o.SignAll(ctx, TargetsFromSet(set, kind))
}

// unique normalizes every target path and drops repeats.
func unique(targets []Target) []Target {
	var seen discovery.TargetSet
	out := make([]Target, 0, len(targets))
	for _, t := range targets {
		t = NewTarget(t.Path, t.Kind)
		if seen.Add(t.Path) {
			out = append(out, t)
		}
	}
	return out
}

func (o *Orchestrator) run(ctx context.Context, targets []Target, report *Report) error {
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %d of %d target(s) processed: %w", errs.ErrCancelled, len(report.Entries), len(targets), err)
		}

		entry := o.signOne(ctx, t)
		report.Entries = append(report.Entries, entry)
		o.cfg.Metrics.ObserveTarget(entry.Outcome.String(), entry.Duration)

		logger := o.logger.WithFields(map[string]interface{}{
			"target":  t.Path,
			"kind":    t.Kind.String(),
			"outcome": entry.Outcome.String(),
		})
		if entry.Outcome == OutcomeSigned {
			logger.Info("Signed %s", t.Path)
			continue
		}

		sigErr := &SigningError{Target: t, Outcome: entry.Outcome, Err: entry.Err}
		if errors.Is(entry.Err, errs.ErrCancelled) {
			return sigErr
		}
		if !o.cfg.ContinueOnFail {
			return sigErr
		}
		logger.Warn("%v (continuing)", sigErr)
	}
	return nil
}

func (o *Orchestrator) signOne(ctx context.Context, t Target) Entry {
	start := time.Now()
	entry := Entry{Target: t}

	if err := t.Check(); err != nil {
		entry.Outcome = OutcomeFailed
		entry.Err = err
		entry.Duration = time.Since(start)
		return entry
	}

	ok, err := o.cfg.Signer.Sign(ctx, t.Path)
	entry.Duration = time.Since(start)
	switch {
	case err != nil:
		entry.Outcome = OutcomeFailed
		entry.Err = err
	case !ok:
		entry.Outcome = OutcomeDeclined
		entry.Err = ErrDeclined
	default:
		entry.Outcome = OutcomeSigned
		entry.Digest = o.digest(t)
	}
	return entry
}

func (o *Orchestrator) digest(t Target) hashing.Digest {
	if o.cfg.DigestAlgorithm == "" {
		return hashing.Digest{}
	}
	d, err := hashing.HashPath(t.Path, o.cfg.DigestAlgorithm)
	if err != nil {
		o.logger.Warn("Unable to digest signed target %s: %v", t.Path, err)
		return hashing.Digest{}
	}
	return d
}
