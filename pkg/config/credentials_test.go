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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GEBIT/cbi.maven.plugins/pkg/errs"
	"github.com/GEBIT/cbi.maven.plugins/pkg/transport"
)

const credentialsYAML = `
servers:
  eclipse-signer:
    username: build
    password: s3cr3t
  no-password:
    username: build
  no-user:
    password: s3cr3t
`

func TestCredentialStoreLookup(t *testing.T) {
	store, err := LoadCredentials(writeFile(t, "credentials.yaml", credentialsYAML))
	require.NoError(t, err)

	creds, err := store.Lookup("eclipse-signer")
	require.NoError(t, err)
	assert.Equal(t, transport.Credentials{Username: "build", Password: "s3cr3t"}, creds)

	_, err = store.Lookup("missing")
	assert.ErrorIs(t, err, ErrUnknownServer)
	_, err = store.Lookup("no-password")
	assert.ErrorIs(t, err, ErrIncompleteCredentials)
	_, err = store.Lookup("no-user")
	assert.ErrorIs(t, err, ErrIncompleteCredentials)
	assert.ErrorIs(t, err, errs.ErrPrecondition)
}

func TestLoadCredentialsErrors(t *testing.T) {
	_, err := LoadCredentials(filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadCredentials(writeFile(t, "bad.yaml", "servers: [1, 2"))
	assert.ErrorIs(t, err, errs.ErrPrecondition)
}

func TestSignJobCredentials(t *testing.T) {
	file := writeFile(t, "credentials.yaml", credentialsYAML)

	job := DefaultSignJob()
	creds, err := job.Credentials()
	require.NoError(t, err)
	assert.Nil(t, creds)

	job.ServerID = "eclipse-signer"
	job.CredentialsFile = file
	creds, err = job.Credentials()
	require.NoError(t, err)
	assert.Equal(t, "build", creds.Username)

	job.Username, job.Password = "direct", "pw"
	creds, err = job.Credentials()
	require.NoError(t, err)
	assert.Equal(t, "direct", creds.Username)

	job.Username = ""
	job.ServerID = "missing"
	_, err = job.Credentials()
	assert.ErrorIs(t, err, ErrUnknownServer)
}

func TestTransportConfig(t *testing.T) {
	job := DefaultSignJob()
	job.SignerURL = "https://cbi.example.org/sign"
	job.Name = "Eclipse"

	cfg, err := job.TransportConfig(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, job.SignerURL, cfg.URI)
	assert.Nil(t, cfg.Credentials)
	assert.Equal(t, []transport.Param{{Name: "name", Value: "Eclipse"}}, cfg.Params)
	assert.NoError(t, cfg.Validate())
}
