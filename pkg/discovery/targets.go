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

package discovery

import "path/filepath"

// TargetSet is an insertion-ordered set of absolute, cleaned paths.
// The zero value is ready to use.
type TargetSet struct {
	paths []string
	seen  map[string]struct{}
}

// NewTargetSet returns a set holding paths in order, with duplicates
// collapsed onto their first occurrence.
func NewTargetSet(paths ...string) *TargetSet {
	s := &TargetSet{}
	for _, p := range paths {
		s.Add(p)
	}
	return s
}

// Add inserts path and reports whether it was new. Relative paths are
// made absolute against the working directory.
func (s *TargetSet) Add(path string) bool {
	key := normalize(path)
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	s.paths = append(s.paths, key)
	return true
}

// Contains reports whether path is in the set.
func (s *TargetSet) Contains(path string) bool {
	_, ok := s.seen[normalize(path)]
	return ok
}

// Len returns the number of targets.
func (s *TargetSet) Len() int {
	return len(s.paths)
}

// Paths returns a copy of the targets in insertion order.
func (s *TargetSet) Paths() []string {
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

func normalize(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
