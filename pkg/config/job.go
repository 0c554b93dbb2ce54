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

// Package config loads signing jobs from YAML files and the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/GEBIT/cbi.maven.plugins/pkg/errs"
	"github.com/GEBIT/cbi.maven.plugins/pkg/hashing"
	"github.com/GEBIT/cbi.maven.plugins/pkg/logging"
	"github.com/GEBIT/cbi.maven.plugins/pkg/metrics"
	"github.com/GEBIT/cbi.maven.plugins/pkg/transport"
	"github.com/GEBIT/cbi.maven.plugins/pkg/utils"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "CBI_SIGN"

const (
	DefaultRetryLimit = 3
	DefaultRetryTimer = 30 * time.Second
	DefaultPartName   = "file"
)

// Default file names searched for when none are configured.
var (
	DefaultExeNames = []string{"eclipse.exe", "eclipsec.exe"}
	DefaultAppNames = []string{"Eclipse.app"}
)

// Duration is a time.Duration that reads "30s" style strings or a plain
// number of seconds from YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := parseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

// SignJob describes one signing run.
type SignJob struct {
	// SignerURL is the signing server endpoint.
	SignerURL string `yaml:"signerUrl"`

	// Username and Password authenticate directly. When Username is empty
	// and ServerID is set, credentials are read from CredentialsFile.
	Username        string `yaml:"username,omitempty"`
	Password        string `yaml:"password,omitempty"`
	ServerID        string `yaml:"serverId,omitempty"`
	CredentialsFile string `yaml:"credentialsFile,omitempty"`

	// SignFiles, when set, are signed as-is and no search happens.
	SignFiles []string `yaml:"signFiles,omitempty"`
	// BaseSearchDir is searched for FileNames otherwise.
	BaseSearchDir string   `yaml:"baseSearchDir,omitempty"`
	FileNames     []string `yaml:"fileNames,omitempty"`

	ContinueOnFail bool     `yaml:"continueOnFail"`
	RetryLimit     int      `yaml:"retryLimit"`
	RetryTimer     Duration `yaml:"retryTimer"`
	Skip           bool     `yaml:"skip"`

	// Name and URL are sent as text parts with every upload.
	Name string `yaml:"name,omitempty"`
	URL  string `yaml:"url,omitempty"`

	PartName        string `yaml:"partName"`
	DigestAlgorithm string `yaml:"digestAlgorithm,omitempty"`

	// Command and CommandTimeout configure the local process signer.
	Command        []string `yaml:"command,omitempty"`
	CommandTimeout Duration `yaml:"commandTimeout,omitempty"`
}

// DefaultSignJob returns a job with the default retry and part settings.
func DefaultSignJob() *SignJob {
	return &SignJob{
		RetryLimit: DefaultRetryLimit,
		RetryTimer: Duration(DefaultRetryTimer),
		PartName:   DefaultPartName,
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path yields the defaults plus the environment.
func Load(path string) (*SignJob, error) {
	job := DefaultSignJob()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errs.Precondition(os.ErrNotExist, "config file %q does not exist", path)
			}
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, job); err != nil {
			return nil, errs.Precondition(err, "failed to parse config %q", path)
		}
	}
	if err := job.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return job, nil
}

// EnvKey returns the environment variable overriding name.
func EnvKey(name string) string {
	return EnvPrefix + "_" + name
}

// ApplyEnv overrides fields from variables found through lookup. List
// values are comma separated.
func (j *SignJob) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvKey(name)); ok {
			*dst = v
		}
	}
	list := func(name string, dst *[]string) {
		if v, ok := lookup(EnvKey(name)); ok {
			*dst = splitList(v)
		}
	}

	str("SIGNER_URL", &j.SignerURL)
	str("USERNAME", &j.Username)
	str("PASSWORD", &j.Password)
	str("SERVER_ID", &j.ServerID)
	str("CREDENTIALS_FILE", &j.CredentialsFile)
	str("BASE_SEARCH_DIR", &j.BaseSearchDir)
	str("NAME", &j.Name)
	str("URL", &j.URL)
	str("PART_NAME", &j.PartName)
	str("DIGEST_ALGORITHM", &j.DigestAlgorithm)
	list("SIGN_FILES", &j.SignFiles)
	list("FILE_NAMES", &j.FileNames)

	for name, dst := range map[string]*bool{
		"CONTINUE_ON_FAIL": &j.ContinueOnFail,
		"SKIP":             &j.Skip,
	} {
		if v, ok := lookup(EnvKey(name)); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return errs.Precondition(err, "%s", EnvKey(name))
			}
			*dst = b
		}
	}
	if v, ok := lookup(EnvKey("RETRY_LIMIT")); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errs.Precondition(err, "%s", EnvKey("RETRY_LIMIT"))
		}
		j.RetryLimit = n
	}
	for name, dst := range map[string]*Duration{
		"RETRY_TIMER":     &j.RetryTimer,
		"COMMAND_TIMEOUT": &j.CommandTimeout,
	} {
		if v, ok := lookup(EnvKey(name)); ok {
			d, err := parseDuration(v)
			if err != nil {
				return errs.Precondition(err, "%s", EnvKey(name))
			}
			*dst = Duration(d)
		}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks the settings shared by every signer.
func (j *SignJob) Validate() error {
	if j.RetryLimit < 0 {
		return errs.Precondition(nil, "retryLimit must not be negative, got %d", j.RetryLimit)
	}
	if j.RetryTimer < 0 {
		return errs.Precondition(nil, "retryTimer must not be negative, got %s", time.Duration(j.RetryTimer))
	}
	if strings.TrimSpace(j.PartName) == "" {
		return errs.Precondition(nil, "partName is required")
	}
	if j.DigestAlgorithm != "" {
		if _, err := hashing.NewEngine(j.DigestAlgorithm); err != nil {
			return errs.Precondition(err, "digestAlgorithm")
		}
	}
	for i, f := range j.SignFiles {
		if strings.TrimSpace(f) == "" {
			return errs.Precondition(nil, "signFiles[%d] is empty", i)
		}
	}
	return utils.ValidateOptionalFile("credentialsFile", j.CredentialsFile)
}

// ValidateRemote checks the settings needed to reach a signing server.
func (j *SignJob) ValidateRemote() error {
	if err := j.Validate(); err != nil {
		return err
	}
	if j.SignerURL == "" {
		return errs.Precondition(nil, "signerUrl is required")
	}
	u, err := url.Parse(j.SignerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errs.Precondition(err, "signerUrl %q is not an http(s) URL", j.SignerURL)
	}
	return nil
}

// ValidateProcess checks the settings needed to run a local command.
func (j *SignJob) ValidateProcess() error {
	if err := j.Validate(); err != nil {
		return err
	}
	if len(j.Command) == 0 {
		return errs.Precondition(nil, "command is required")
	}
	if j.CommandTimeout < 0 {
		return errs.Precondition(nil, "commandTimeout must not be negative")
	}
	return nil
}

// RetryPolicy returns the upload retry policy.
func (j *SignJob) RetryPolicy() transport.RetryPolicy {
	return transport.RetryPolicy{MaxRetries: j.RetryLimit, Interval: time.Duration(j.RetryTimer)}
}

// Params returns the name and url text parts that are set.
func (j *SignJob) Params() []transport.Param {
	var params []transport.Param
	if j.Name != "" {
		params = append(params, transport.Param{Name: "name", Value: j.Name})
	}
	if j.URL != "" {
		params = append(params, transport.Param{Name: "url", Value: j.URL})
	}
	return params
}

// Credentials resolves the Basic auth credentials, or nil when none are
// configured.
func (j *SignJob) Credentials() (*transport.Credentials, error) {
	if j.Username != "" {
		return &transport.Credentials{Username: j.Username, Password: j.Password}, nil
	}
	if j.ServerID == "" {
		return nil, nil
	}
	path := j.CredentialsFile
	if path == "" {
		var err error
		if path, err = DefaultCredentialsPath(); err != nil {
			return nil, err
		}
	}
	store, err := LoadCredentials(path)
	if err != nil {
		return nil, err
	}
	creds, err := store.Lookup(j.ServerID)
	if err != nil {
		return nil, err
	}
	return &creds, nil
}

// TransportConfig builds the sender configuration for this job.
func (j *SignJob) TransportConfig(logger logging.Logger, m *metrics.Metrics) (transport.Config, error) {
	creds, err := j.Credentials()
	if err != nil {
		return transport.Config{}, err
	}
	if creds != nil {
		logging.EnsureLogger(logger).Debug("Authenticating to %s as '%s' (password %s)",
			j.SignerURL, creds.Username, utils.MaskSecret(creds.Password))
	}
	return transport.Config{
		URI:             j.SignerURL,
		Credentials:     creds,
		Params:          j.Params(),
		DigestAlgorithm: j.DigestAlgorithm,
		Logger:          logger,
		Metrics:         m,
	}, nil
}

// Names returns the configured file names, or defaults when none are set.
func (j *SignJob) Names(defaults []string) []string {
	if len(j.FileNames) > 0 {
		return j.FileNames
	}
	return defaults
}
