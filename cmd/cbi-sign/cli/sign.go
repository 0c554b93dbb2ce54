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
	"github.com/GEBIT/cbi.maven.plugins/pkg/config"
	"github.com/GEBIT/cbi.maven.plugins/pkg/signing"
	"github.com/GEBIT/cbi.maven.plugins/pkg/signing/process"
	"github.com/GEBIT/cbi.maven.plugins/pkg/signing/remote"
	"github.com/GEBIT/cbi.maven.plugins/pkg/transport"
)

// Sign creates the sign command with one subcommand per target kind.
func Sign() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign files or bundles.",
	}
	cmd.AddCommand(NewExeSign())
	cmd.AddCommand(NewAppSign())
	cmd.AddCommand(NewProcessSign())
	return cmd
}

// NewExeSign creates the exe subcommand, which posts Windows executables
// to a signing server.
func NewExeSign() *cobra.Command {
	o := &options.RemoteSignOptions{}

	long := `Sign Windows executables through a signing server.

    Files given as arguments (or signFiles in the config file) are signed
    as-is. Otherwise BASE_SEARCH_DIR is searched for FILE_NAMES, by default
    eclipse.exe and eclipsec.exe. Each signed file is replaced in place by
    the server's answer.`

	cmd := &cobra.Command{
		Use:   "exe [OPTIONS] [FILE...]",
		Short: "Sign Windows executables.",
		Long:  long,
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := o.Job(ro.ConfigFile, cmd.Flags(), args)
			if err != nil {
				return withExitCode(err)
			}
			return withExitCode(runRemote(cmd, job, o.IgnorePaths, signing.KindFile))
		},
	}

	o.AddFlags(cmd)
	return cmd
}

// NewAppSign creates the app subcommand, which signs macOS application
// bundles as zip archives.
func NewAppSign() *cobra.Command {
	o := &options.RemoteSignOptions{}

	long := `Sign macOS application bundles through a signing server.

    Each bundle is zipped, posted, and replaced by the signed archive the
    server returns. Directories given as arguments are signed as-is.
    Otherwise BASE_SEARCH_DIR is searched for FILE_NAMES, by default
    Eclipse.app. A matched bundle is never searched for nested bundles.`

	cmd := &cobra.Command{
		Use:   "app [OPTIONS] [BUNDLE...]",
		Short: "Sign macOS application bundles.",
		Long:  long,
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := o.Job(ro.ConfigFile, cmd.Flags(), args)
			if err != nil {
				return withExitCode(err)
			}
			return withExitCode(runRemote(cmd, job, o.IgnorePaths, signing.KindBundle))
		},
	}

	o.AddFlags(cmd)
	return cmd
}

// NewProcessSign creates the process subcommand, which runs a local
// signing tool once per target.
func NewProcessSign() *cobra.Command {
	o := &options.ProcessSignOptions{}

	long := `Sign targets with a local command.

    The command follows "--". Every "{}" or "${path}" in it is replaced by
    the target path; without a placeholder the path is appended. A zero
    exit status means the target was signed.

    Example:

      cbi-sign sign process --file-names '*.exe' -- osslsigncode sign -in {} -out {}`

	cmd := &cobra.Command{
		Use:   "process [OPTIONS] -- COMMAND [ARG...]",
		Short: "Sign with a local command.",
		Long:  long,
		RunE: func(cmd *cobra.Command, args []string) error {
			var command []string
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				command = args[dash:]
			}
			job, err := o.Job(ro.ConfigFile, cmd.Flags(), command)
			if err != nil {
				return withExitCode(err)
			}
			kind, ok := options.ParseKind(o.Kind)
			if !ok {
				return withExitCode(errUnknownKind(o.Kind))
			}
			return withExitCode(runProcess(cmd, job, o.IgnorePaths, kind))
		},
	}

	o.AddFlags(cmd)
	return cmd
}

func runRemote(cmd *cobra.Command, job *config.SignJob, ignore []string, kind signing.TargetKind) error {
	return run(cmd, job, ignore, kind, func(obs options.Observability) (signing.Signer, error) {
		if err := job.ValidateRemote(); err != nil {
			return nil, err
		}
		cfg, err := job.TransportConfig(obs.Logger, obs.Metrics)
		if err != nil {
			return nil, err
		}
		sender, err := transport.NewPostFileSender(cfg)
		if err != nil {
			return nil, err
		}
		opts := remote.Options{
			PartName: job.PartName,
			Policy:   job.RetryPolicy(),
			Logger:   obs.Logger,
		}
		if kind == signing.KindBundle {
			return remote.NewBundleSigner(sender, opts)
		}
		return remote.NewFileSigner(sender, opts)
	})
}

func runProcess(cmd *cobra.Command, job *config.SignJob, ignore []string, kind signing.TargetKind) error {
	return run(cmd, job, ignore, kind, func(obs options.Observability) (signing.Signer, error) {
		if err := job.ValidateProcess(); err != nil {
			return nil, err
		}
		return process.New(process.Config{
			Command: job.Command,
			Timeout: job.CommandTimeout.Std(),
			Logger:  obs.Logger,
		})
	})
}
