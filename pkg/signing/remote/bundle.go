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

package remote

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/GEBIT/cbi.maven.plugins/pkg/transport"
	"github.com/GEBIT/cbi.maven.plugins/pkg/utils"
)

// ErrInvalidArchive is returned when the signed archive cannot be
// unpacked over the bundle.
var ErrInvalidArchive = errors.New("signing server returned an invalid archive")

// BundleSigner signs a directory bundle such as a macOS .app. The bundle
// is zipped under its own name, posted, and the signed archive replaces
// the bundle only once it has been fully unpacked.
type BundleSigner struct {
	sender transport.FileSender
	opts   Options
}

// NewBundleSigner returns a BundleSigner sending through sender.
func NewBundleSigner(sender transport.FileSender, opts Options) (*BundleSigner, error) {
	if sender == nil {
		return nil, ErrNilSender
	}
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	return &BundleSigner{sender: sender, opts: opts}, nil
}

// Sign implements signing.Signer.
func (s *BundleSigner) Sign(ctx context.Context, path string) (bool, error) {
	if err := utils.ValidateFolderExists("bundle", path); err != nil {
		return false, err
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	base := filepath.Base(path)

	work, err := os.MkdirTemp("", "cbi-sign-*")
	if err != nil {
		return false, fmt.Errorf("creating work directory: %w", err)
	}
	defer os.RemoveAll(work)

	archive := filepath.Join(work, base+".zip")
	if err := writeArchive(path, archive); err != nil {
		return false, fmt.Errorf("archiving bundle '%s': %w", path, err)
	}
	s.opts.Logger.Debug("Sending '%s' for signing as %s", path, filepath.Base(archive))

	ok, err := s.sender.Send(ctx, archive, s.opts.PartName, s.opts.Policy)
	if err != nil || !ok {
		return ok, err
	}
	if err := replaceBundle(path, archive); err != nil {
		return false, err
	}
	return true, nil
}

func writeArchive(dir, archive string) error {
	f, err := os.Create(archive)
	if err != nil {
		return err
	}
	if err := zipDir(dir, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// replaceBundle unpacks archive next to path and swaps it in. The
// original bundle is restored if the swap fails.
func replaceBundle(path, archive string) error {
	base := filepath.Base(path)
	staging, err := os.MkdirTemp(filepath.Dir(path), "."+base+".signed-*")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := unzip(archive, staging); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArchive, err)
	}
	signed := filepath.Join(staging, base)
	info, err := os.Lstat(signed)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: no top-level '%s' directory", ErrInvalidArchive, base)
	}

	backup := filepath.Join(staging, ".original")
	if err := os.Rename(path, backup); err != nil {
		return fmt.Errorf("moving '%s' aside: %w", path, err)
	}
	if err := os.Rename(signed, path); err != nil {
		if rerr := os.Rename(backup, path); rerr != nil {
			return fmt.Errorf("installing signed bundle: %w (restore failed: %v)", err, rerr)
		}
		return fmt.Errorf("installing signed bundle: %w", err)
	}
	return nil
}
