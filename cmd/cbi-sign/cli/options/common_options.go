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
)

// FlagAdder is implemented by any flag group that can register itself to a cobra command.
type FlagAdder interface {
	AddFlags(cmd *cobra.Command)
}

// JobApplier is implemented by flag groups that override a loaded job.
// Only flags set on the command line are applied.
type JobApplier interface {
	ApplyTo(fs *pflag.FlagSet, job *config.SignJob)
}

// SearchFlags select what to sign when no explicit files are given.
type SearchFlags struct {
	BaseSearchDir string
	FileNames     []string
	IgnorePaths   []string
}

// AddFlags adds search flags to the cobra command.
func (o *SearchFlags) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.BaseSearchDir, "base-search-dir", ".", "Directory searched for targets.")
	_ = cmd.MarkFlagDirname("base-search-dir")
	cmd.Flags().StringSliceVar(&o.FileNames, "file-names", nil, "Names or globs of targets to search for. Each name matches at any depth.")
	cmd.Flags().StringSliceVar(&o.IgnorePaths, "ignore-paths", nil, "Paths skipped while searching.")
}

// ApplyTo implements JobApplier.
func (o *SearchFlags) ApplyTo(fs *pflag.FlagSet, job *config.SignJob) {
	if fs.Changed("base-search-dir") || job.BaseSearchDir == "" {
		job.BaseSearchDir = o.BaseSearchDir
	}
	if fs.Changed("file-names") {
		job.FileNames = o.FileNames
	}
}

// RunFlags control failure handling and retries.
type RunFlags struct {
	ContinueOnFail  bool
	Skip            bool
	RetryLimit      int
	RetryTimer      time.Duration
	DigestAlgorithm string
}

// AddFlags adds run flags to the cobra command.
func (o *RunFlags) AddFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.ContinueOnFail, "continue-on-fail", false, "Keep signing remaining targets after a failure.")
	cmd.Flags().BoolVar(&o.Skip, "skip", false, "Skip signing and exit successfully.")
	cmd.Flags().IntVar(&o.RetryLimit, "retry-limit", config.DefaultRetryLimit, "Retries after a failed upload.")
	cmd.Flags().DurationVar(&o.RetryTimer, "retry-timer", config.DefaultRetryTimer, "Wait before each retry.")
	cmd.Flags().StringVar(&o.DigestAlgorithm, "digest", "", "Digest signed targets for the report (sha256, blake2b).")
}

// ApplyTo implements JobApplier.
func (o *RunFlags) ApplyTo(fs *pflag.FlagSet, job *config.SignJob) {
	if fs.Changed("continue-on-fail") {
		job.ContinueOnFail = o.ContinueOnFail
	}
	if fs.Changed("skip") {
		job.Skip = o.Skip
	}
	if fs.Changed("retry-limit") {
		job.RetryLimit = o.RetryLimit
	}
	if fs.Changed("retry-timer") {
		job.RetryTimer = config.Duration(o.RetryTimer)
	}
	if fs.Changed("digest") {
		job.DigestAlgorithm = o.DigestAlgorithm
	}
}

// ServerFlags locate and authenticate against the signing server.
type ServerFlags struct {
	SignerURL       string
	ServerID        string
	CredentialsFile string
	Username        string
	Name            string
	URL             string
	PartName        string
}

// AddFlags adds server flags to the cobra command.
func (o *ServerFlags) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.SignerURL, "signer-url", "", "Signing server endpoint.")
	cmd.Flags().StringVar(&o.ServerID, "server-id", "", "Server id looked up in the credentials file.")
	cmd.Flags().StringVar(&o.CredentialsFile, "credentials-file", "", "YAML credentials file. Defaults to the user config directory.")
	cmd.Flags().StringVar(&o.Username, "username", "", "Basic auth user. The password is read from "+config.EnvKey("PASSWORD")+".")
	cmd.Flags().StringVar(&o.Name, "name", "", "Product name sent with every upload.")
	cmd.Flags().StringVar(&o.URL, "url", "", "Product URL sent with every upload.")
	cmd.Flags().StringVar(&o.PartName, "part-name", config.DefaultPartName, "Multipart form name of the uploaded file.")
}

// ApplyTo implements JobApplier.
func (o *ServerFlags) ApplyTo(fs *pflag.FlagSet, job *config.SignJob) {
	for name, pair := range map[string]struct {
		dst *string
		val string
	}{
		"signer-url":       {&job.SignerURL, o.SignerURL},
		"server-id":        {&job.ServerID, o.ServerID},
		"credentials-file": {&job.CredentialsFile, o.CredentialsFile},
		"username":         {&job.Username, o.Username},
		"name":             {&job.Name, o.Name},
		"url":              {&job.URL, o.URL},
		"part-name":        {&job.PartName, o.PartName},
	} {
		if fs.Changed(name) {
			*pair.dst = pair.val
		}
	}
}

// AddAllFlags is a helper function to register multiple flag groups at once.
func AddAllFlags(cmd *cobra.Command, flagGroups ...FlagAdder) {
	for _, fg := range flagGroups {
		fg.AddFlags(cmd)
	}
}

// LoadJob reads the job from configFile and applies the flags set on fs.
func LoadJob(configFile string, fs *pflag.FlagSet, groups ...JobApplier) (*config.SignJob, error) {
	job, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		g.ApplyTo(fs, job)
	}
	return job, nil
}
