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

package hashing

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

const chunkSize = 32 * 1024

// HashFile streams the content of the regular file at path into a digest.
func HashFile(path, algorithm string) (Digest, error) {
	e, err := NewEngine(algorithm)
	if err != nil {
		return Digest{}, err
	}
	if err := hashInto(e, path); err != nil {
		return Digest{}, err
	}
	return e.Compute(), nil
}

// HashPath digests a regular file with HashFile, or a directory bundle
// by hashing every regular file below it in lexical order of its slash
// separated relative path. Each file contributes its relative path and
// its own digest, so renames and content changes both alter the result.
func HashPath(path, algorithm string) (Digest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Digest{}, fmt.Errorf("stat %q: %w", path, err)
	}
	if !info.IsDir() {
		return HashFile(path, algorithm)
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return Digest{}, fmt.Errorf("walk %q: %w", path, err)
	}

	type entry struct {
		rel    string
		digest Digest
	}
	entries := make([]entry, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(path, f)
		if err != nil {
			return Digest{}, err
		}
		d, err := HashFile(f, algorithm)
		if err != nil {
			return Digest{}, err
		}
		entries = append(entries, entry{rel: filepath.ToSlash(rel), digest: d})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].rel < entries[j].rel })

	root, err := NewEngine(algorithm)
	if err != nil {
		return Digest{}, err
	}
	for _, e := range entries {
		root.Update([]byte(e.rel))
		root.Update([]byte{0})
		root.Update(e.digest.Value())
	}
	return root.Compute(), nil
}

func hashInto(e Engine, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file %q: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, chunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			e.Update(buf[:n])
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read file %q: %w", path, err)
		}
	}
}
