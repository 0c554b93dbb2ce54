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

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GEBIT/cbi.maven.plugins/cmd/cbi-sign/cli/options"
	"github.com/GEBIT/cbi.maven.plugins/cmd/cbi-sign/cli/ui"
	"github.com/GEBIT/cbi.maven.plugins/pkg/config"
	"github.com/GEBIT/cbi.maven.plugins/pkg/discovery"
	"github.com/GEBIT/cbi.maven.plugins/pkg/errs"
	"github.com/GEBIT/cbi.maven.plugins/pkg/logging"
	"github.com/GEBIT/cbi.maven.plugins/pkg/signing"
)

type signerFactory func(obs options.Observability) (signing.Signer, error)

func errUnknownKind(kind string) error {
	return errs.Precondition(nil, "unknown target kind %q, want file or bundle", kind)
}

// run signs the explicit files of job, or the targets found under its
// base search directory.
func run(cmd *cobra.Command, job *config.SignJob, ignore []string, kind signing.TargetKind, newSigner signerFactory) (err error) {
	obs, err := ro.NewObservability()
	if err != nil {
		return err
	}
	defer func() {
		if ferr := ro.Flush(obs); ferr != nil && err == nil {
			err = fmt.Errorf("writing metrics: %w", ferr)
		}
	}()

	printer := ui.NewPrinter(cmd.OutOrStdout(), ro.NoColor)
	if job.Skip {
		obs.Logger.Info("Skipping signing")
		printer.Skipped()
		return nil
	}

	signer, err := newSigner(obs)
	if err != nil {
		return err
	}
	orch, err := signing.NewOrchestrator(signing.Config{
		Signer:          signer,
		ContinueOnFail:  job.ContinueOnFail,
		DigestAlgorithm: job.DigestAlgorithm,
		Logger:          obs.Logger,
		Metrics:         obs.Metrics,
	})
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(cmd.Context())
	defer cancel()

	targets, err := resolveTargets(ctx, job, ignore, kind, obs)
	if err != nil || targets == nil {
		return err
	}

	report, err := orch.Run(ctx, targets)
	printer.Report(report)
	return err
}

// resolveTargets returns nil targets when there is nothing to do.
func resolveTargets(ctx context.Context, job *config.SignJob, ignore []string, kind signing.TargetKind, obs options.Observability) ([]signing.Target, error) {
	if len(job.SignFiles) > 0 {
		return signing.Targets(job.SignFiles, kind), nil
	}

	set, err := search(ctx, job, ignore, kind, obs.Logger)
	if err != nil {
		if errors.Is(err, discovery.ErrDirectoryNotFound) {
			obs.Logger.Debug("Base search directory '%s' does not exist, nothing to sign", job.BaseSearchDir)
			return nil, nil
		}
		return nil, err
	}
	obs.Metrics.SetDiscovered(set.Len())
	if set.Len() == 0 {
		obs.Logger.Info("No %s found under '%s'", kind, job.BaseSearchDir)
	}
	return signing.TargetsFromSet(set, kind), nil
}

func search(ctx context.Context, job *config.SignJob, ignore []string, kind signing.TargetKind, logger logging.Logger) (*discovery.TargetSet, error) {
	matchers, err := discovery.MatcherSetFromNames(job.Names(options.DefaultNames(kind))...)
	if err != nil {
		return nil, err
	}
	return discovery.Discover(ctx, job.BaseSearchDir, matchers, discovery.Options{
		IgnorePaths: ignore,
		Logger:      logger,
	})
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if ro.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, ro.Timeout)
}
