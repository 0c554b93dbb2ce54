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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/GEBIT/cbi.maven.plugins/pkg/errs"
	"github.com/GEBIT/cbi.maven.plugins/pkg/transport"
)

var (
	// ErrUnknownServer is returned when a server id has no entry.
	ErrUnknownServer = fmt.Errorf("%w: unknown server id", errs.ErrPrecondition)

	// ErrIncompleteCredentials is returned when an entry lacks a username
	// or a password.
	ErrIncompleteCredentials = fmt.Errorf("%w: incomplete credentials", errs.ErrPrecondition)
)

// Server holds the credentials of one signing server.
type Server struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// CredentialStore maps server ids to credentials.
//
//	servers:
//	  eclipse-signer:
//	    username: build
//	    password: secret
type CredentialStore struct {
	Servers map[string]Server `yaml:"servers"`
}

// DefaultCredentialsPath is cbi-sign/credentials.yaml under the user
// config directory.
func DefaultCredentialsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config directory: %w", err)
	}
	return filepath.Join(dir, "cbi-sign", "credentials.yaml"), nil
}

// LoadCredentials reads a credential store from path.
func LoadCredentials(path string) (*CredentialStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.Precondition(os.ErrNotExist, "credentials file %q does not exist", path)
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	store := &CredentialStore{}
	if err := yaml.Unmarshal(data, store); err != nil {
		return nil, errs.Precondition(err, "failed to parse credentials %q", path)
	}
	return store, nil
}

// Lookup returns the credentials for id. Both username and password must
// be set.
func (s *CredentialStore) Lookup(id string) (transport.Credentials, error) {
	server, ok := s.Servers[id]
	if !ok {
		return transport.Credentials{}, fmt.Errorf("%w: %q", ErrUnknownServer, id)
	}
	if server.Username == "" {
		return transport.Credentials{}, fmt.Errorf("%w: server %q has no username", ErrIncompleteCredentials, id)
	}
	if server.Password == "" {
		return transport.Credentials{}, fmt.Errorf("%w: server %q has no password", ErrIncompleteCredentials, id)
	}
	return transport.Credentials{Username: server.Username, Password: server.Password}, nil
}
