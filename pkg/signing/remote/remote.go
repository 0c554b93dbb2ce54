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

// Package remote implements signers that delegate to a signing server
// through a transport.FileSender.
package remote

import (
	"context"
	"fmt"

	"github.com/GEBIT/cbi.maven.plugins/pkg/errs"
	"github.com/GEBIT/cbi.maven.plugins/pkg/logging"
	"github.com/GEBIT/cbi.maven.plugins/pkg/signing"
	"github.com/GEBIT/cbi.maven.plugins/pkg/transport"
	"github.com/GEBIT/cbi.maven.plugins/pkg/utils"
)

// DefaultPartName is the multipart form name of the uploaded file.
const DefaultPartName = "file"

// ErrNilSender is returned when a signer is built without a sender.
var ErrNilSender = fmt.Errorf("%w: file sender must not be nil", errs.ErrContract)

var (
	_ signing.Signer = (*FileSigner)(nil)
	_ signing.Signer = (*BundleSigner)(nil)
)

// Options configures both remote signers.
type Options struct {
	// PartName defaults to DefaultPartName.
	PartName string
	Policy   transport.RetryPolicy
	Logger   logging.Logger
}

func (o Options) normalize() (Options, error) {
	if o.PartName == "" {
		o.PartName = DefaultPartName
	}
	if err := o.Policy.Validate(); err != nil {
		return o, err
	}
	o.Logger = logging.EnsureLogger(o.Logger)
	return o, nil
}

// FileSigner posts a regular file to the signing server and lets the
// sender replace it with the signed result.
type FileSigner struct {
	sender transport.FileSender
	opts   Options
}

// NewFileSigner returns a FileSigner sending through sender.
func NewFileSigner(sender transport.FileSender, opts Options) (*FileSigner, error) {
	if sender == nil {
		return nil, ErrNilSender
	}
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	return &FileSigner{sender: sender, opts: opts}, nil
}

// Sign implements signing.Signer.
func (s *FileSigner) Sign(ctx context.Context, path string) (bool, error) {
	if err := utils.ValidateFileExists("file", path); err != nil {
		return false, err
	}
	s.opts.Logger.Debug("Sending '%s' for signing", path)
	return s.sender.Send(ctx, path, s.opts.PartName, s.opts.Policy)
}
