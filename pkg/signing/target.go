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

package signing

import (
	"fmt"
	"path/filepath"

	"github.com/GEBIT/cbi.maven.plugins/pkg/discovery"
	"github.com/GEBIT/cbi.maven.plugins/pkg/utils"
)

// TargetKind is the filesystem shape a target must have.
type TargetKind int

const (
	// KindFile is a regular file, such as a Windows executable.
	KindFile TargetKind = iota
	// KindBundle is a directory signed as a unit, such as a macOS .app.
	KindBundle
)

func (k TargetKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindBundle:
		return "bundle"
	default:
		return fmt.Sprintf("TargetKind(%d)", int(k))
	}
}

// Target is one path to sign.
type Target struct {
	Path string
	Kind TargetKind
}

// NewTarget returns a target for the absolute, cleaned form of path.
func NewTarget(path string, kind TargetKind) Target {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return Target{Path: filepath.Clean(path), Kind: kind}
}

// Check verifies that the target exists and has the shape its kind
// requires. Failures wrap errs.ErrPrecondition.
func (t Target) Check() error {
	switch t.Kind {
	case KindBundle:
		return utils.ValidateFolderExists("bundle", t.Path)
	case KindFile:
		return utils.ValidateFileExists("file", t.Path)
	default:
		return utils.ValidatePathExists("target", t.Path)
	}
}

func (t Target) String() string {
	return t.Path
}

// Targets builds targets of one kind from paths. Duplicate paths are
// dropped, keeping the first occurrence. A nil paths slice yields nil.
func Targets(paths []string, kind TargetKind) []Target {
	if paths == nil {
		return nil
	}
	return TargetsFromSet(discovery.NewTargetSet(paths...), kind)
}

// TargetsFromSet converts a discovered set, in order.
func TargetsFromSet(set *discovery.TargetSet, kind TargetKind) []Target {
	if set == nil {
		return nil
	}
	paths := set.Paths()
	out := make([]Target, 0, len(paths))
	for _, p := range paths {
		out = append(out, Target{Path: p, Kind: kind})
	}
	return out
}
