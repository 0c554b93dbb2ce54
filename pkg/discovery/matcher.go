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

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PathMatcher decides whether a path is a signing target.
type PathMatcher interface {
	// Match reports whether path (absolute, OS separators) is a target.
	Match(path string) bool
	// String returns the pattern for logging.
	String() string
}

// GlobMatcher matches a path against a doublestar glob. Patterns use
// forward slashes and are matched against the absolute path with its
// leading separator removed, so "**/Eclipse.app" matches any entry named
// Eclipse.app at any depth.
type GlobMatcher struct {
	pattern string
}

// NewGlobMatcher compiles pattern. Invalid patterns are rejected.
func NewGlobMatcher(pattern string) (*GlobMatcher, error) {
	if pattern == "" {
		return nil, fmt.Errorf("empty glob pattern")
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q", pattern)
	}
	return &GlobMatcher{pattern: pattern}, nil
}

// Match implements PathMatcher.
func (g *GlobMatcher) Match(path string) bool {
	p := strings.TrimPrefix(filepath.ToSlash(path), "/")
	ok, err := doublestar.Match(g.pattern, p)
	return err == nil && ok
}

// String implements PathMatcher.
func (g *GlobMatcher) String() string {
	return g.pattern
}

// PatternFromName turns a file name or relative glob into a pattern that
// matches at any depth. Names already starting with "**" are kept as is.
func PatternFromName(name string) string {
	name = filepath.ToSlash(strings.TrimSpace(name))
	if strings.HasPrefix(name, "**") {
		return name
	}
	return "**/" + strings.TrimPrefix(name, "/")
}

// MatcherSet is an ordered list of matchers. A nil MatcherSet is a caller
// error; an empty, non-nil one matches nothing.
type MatcherSet []PathMatcher

// NewMatcherSet compiles patterns into a MatcherSet, preserving order.
// The result is never nil.
func NewMatcherSet(patterns ...string) (MatcherSet, error) {
	set := make(MatcherSet, 0, len(patterns))
	for _, p := range patterns {
		m, err := NewGlobMatcher(p)
		if err != nil {
			return nil, err
		}
		set = append(set, m)
	}
	return set, nil
}

// MatcherSetFromNames is NewMatcherSet over PatternFromName of each name.
func MatcherSetFromNames(names ...string) (MatcherSet, error) {
	patterns := make([]string, 0, len(names))
	for _, n := range names {
		patterns = append(patterns, PatternFromName(n))
	}
	return NewMatcherSet(patterns...)
}

// Match returns the first matcher accepting path.
func (s MatcherSet) Match(path string) (PathMatcher, bool) {
	for _, m := range s {
		if m.Match(path) {
			return m, true
		}
	}
	return nil, false
}

// Patterns returns the string form of every matcher.
func (s MatcherSet) Patterns() []string {
	out := make([]string, 0, len(s))
	for _, m := range s {
		out = append(out, m.String())
	}
	return out
}
