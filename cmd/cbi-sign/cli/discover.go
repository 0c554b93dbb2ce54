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
	"github.com/spf13/cobra"

	"github.com/GEBIT/cbi.maven.plugins/cmd/cbi-sign/cli/options"
	"github.com/GEBIT/cbi.maven.plugins/cmd/cbi-sign/cli/ui"
)

// Discover creates the discover command, which prints the targets a sign
// command would process without signing them.
func Discover() *cobra.Command {
	o := &options.DiscoverOptions{}

	cmd := &cobra.Command{
		Use:   "discover [OPTIONS] [BASE_SEARCH_DIR]",
		Short: "List the targets that would be signed.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := options.LoadJob(ro.ConfigFile, cmd.Flags(), &o.SearchFlags)
			if err != nil {
				return withExitCode(err)
			}
			if len(args) == 1 {
				job.BaseSearchDir = args[0]
			}
			kind, ok := options.ParseKind(o.Kind)
			if !ok {
				return withExitCode(errUnknownKind(o.Kind))
			}

			obs, err := ro.NewObservability()
			if err != nil {
				return withExitCode(err)
			}
			ctx, cancel := withTimeout(cmd.Context())
			defer cancel()

			set, err := search(ctx, job, o.IgnorePaths, kind, obs.Logger)
			if err != nil {
				return withExitCode(err)
			}
			ui.NewPrinter(cmd.OutOrStdout(), ro.NoColor).Targets(set.Paths())
			return nil
		},
	}

	o.AddFlags(cmd)
	return cmd
}
