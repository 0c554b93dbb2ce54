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

// Package discovery walks a directory tree and collects the entries that
// match an ordered set of glob patterns. A matched directory is recorded
// as one target and its contents are not visited.
package discovery

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/GEBIT/cbi.maven.plugins/pkg/errs"
	"github.com/GEBIT/cbi.maven.plugins/pkg/logging"
	"github.com/GEBIT/cbi.maven.plugins/pkg/tracing"
)

var (
	// ErrNilMatchers is returned when Discover is given a nil MatcherSet.
	ErrNilMatchers = fmt.Errorf("%w: matcher set must not be nil", errs.ErrContract)

	// ErrDirectoryNotFound is returned when the base directory is missing
	// or is not a directory.
	ErrDirectoryNotFound = fmt.Errorf("%w: directory not found", errs.ErrPrecondition)
)

// Options configures Discover.
type Options struct {
	// IgnorePaths lists paths that are neither matched nor descended
	// into. Entries may be absolute or relative to the working directory.
	IgnorePaths []string

	// Logger receives one debug line per matched entry.
	Logger logging.Logger
}

// Discover walks baseDir depth first and returns every entry accepted by
// matchers, in walk order. When a directory matches it is recorded and
// pruned. Unmatched directories are descended into. If baseDir itself
// matches it is the only target.
func Discover(ctx context.Context, baseDir string, matchers MatcherSet, opts Options) (*TargetSet, error) {
	if matchers == nil {
		return nil, ErrNilMatchers
	}

	var result *TargetSet
	err := tracing.Run(ctx, tracing.SpanDiscover, map[string]interface{}{
		"base_dir": baseDir,
		"patterns": strings.Join(matchers.Patterns(), ","),
	}, func(ctx context.Context) error {
		var err error
		result, err = walk(ctx, baseDir, matchers, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func walk(ctx context.Context, baseDir string, matchers MatcherSet, opts Options) (*TargetSet, error) {
	logger := logging.EnsureLogger(opts.Logger)

	root, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrDirectoryNotFound, baseDir, err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %q", ErrDirectoryNotFound, baseDir)
	}

	targets := &TargetSet{}
	if len(matchers) == 0 {
		return targets, nil
	}

	ignore := make([]string, 0, len(opts.IgnorePaths))
	for _, p := range opts.IgnorePaths {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			ignore = append(ignore, abs)
		}
	}

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", errs.ErrCancelled, err)
		}

		if shouldIgnore(path, ignore) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		m, ok := matchers.Match(path)
		if !ok {
			return nil
		}
		targets.Add(path)
		logger.WithFields(map[string]interface{}{
			"path":    path,
			"pattern": m.String(),
		}).Debug("Matched signing target")
		if d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	}

	if err := filepath.WalkDir(root, walkFn); err != nil {
		return nil, fmt.Errorf("walk %q: %w", root, err)
	}
	logger.Debug("Discovered %d target(s) under %s", targets.Len(), root)
	return targets, nil
}

// shouldIgnore reports whether path equals or lies below one of the
// absolute paths in ignore.
func shouldIgnore(path string, ignore []string) bool {
	for _, base := range ignore {
		rel, err := filepath.Rel(base, path)
		if err != nil {
			continue
		}
		if rel == "." {
			return true
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
