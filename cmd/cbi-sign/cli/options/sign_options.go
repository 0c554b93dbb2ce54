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

package options

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/GEBIT/cbi.maven.plugins/pkg/config"
	"github.com/GEBIT/cbi.maven.plugins/pkg/signing"
)

// RemoteSignOptions configure sign exe and sign app.
type RemoteSignOptions struct {
	ServerFlags
	SearchFlags
	RunFlags
}

// AddFlags adds all remote signing flags.
func (o *RemoteSignOptions) AddFlags(cmd *cobra.Command) {
	AddAllFlags(cmd, &o.ServerFlags, &o.SearchFlags, &o.RunFlags)
}

// Job loads the signing job. Positional files replace any configured
// file list.
func (o *RemoteSignOptions) Job(configFile string, fs *pflag.FlagSet, files []string) (*config.SignJob, error) {
	job, err := LoadJob(configFile, fs, &o.ServerFlags, &o.SearchFlags, &o.RunFlags)
	if err != nil {
		return nil, err
	}
	if len(files) > 0 {
		job.SignFiles = files
	}
	return job, nil
}

// ProcessSignOptions configure sign process.
type ProcessSignOptions struct {
	SearchFlags
	RunFlags
	Kind           string
	CommandTimeout time.Duration
}

// AddFlags adds all process signing flags.
func (o *ProcessSignOptions) AddFlags(cmd *cobra.Command) {
	AddAllFlags(cmd, &o.SearchFlags, &o.RunFlags)
	cmd.Flags().StringVar(&o.Kind, "kind", "file", "Target kind, file or bundle.")
	cmd.Flags().DurationVar(&o.CommandTimeout, "command-timeout", 0, "Timeout of one command invocation, 0 to disable.")
}

// Job loads the signing job. command replaces any configured command.
func (o *ProcessSignOptions) Job(configFile string, fs *pflag.FlagSet, command []string) (*config.SignJob, error) {
	job, err := LoadJob(configFile, fs, &o.SearchFlags, &o.RunFlags)
	if err != nil {
		return nil, err
	}
	if len(command) > 0 {
		job.Command = command
	}
	if fs.Changed("command-timeout") {
		job.CommandTimeout = config.Duration(o.CommandTimeout)
	}
	return job, nil
}

// DiscoverOptions configure discover.
type DiscoverOptions struct {
	SearchFlags
	Kind string
}

// AddFlags adds discover flags.
func (o *DiscoverOptions) AddFlags(cmd *cobra.Command) {
	o.SearchFlags.AddFlags(cmd)
	cmd.Flags().StringVar(&o.Kind, "kind", "file", "Target kind, file or bundle. Selects the default names.")
}

// ParseKind maps a --kind value to a target kind.
func ParseKind(s string) (signing.TargetKind, bool) {
	switch s {
	case "file", "exe":
		return signing.KindFile, true
	case "bundle", "app":
		return signing.KindBundle, true
	default:
		return 0, false
	}
}

// DefaultNames returns the names searched for kind when none are set.
func DefaultNames(kind signing.TargetKind) []string {
	if kind == signing.KindBundle {
		return config.DefaultAppNames
	}
	return config.DefaultExeNames
}
