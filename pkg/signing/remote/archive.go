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
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// zipDir writes dir to w. Entry names start with the base name of dir.
// Symlinks are stored as links, not followed.
func zipDir(dir string, w io.Writer) error {
	zw := zip.NewWriter(w)
	parent := filepath.Dir(dir)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(parent, path)
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)

		switch {
		case d.IsDir():
			hdr.Name += "/"
			hdr.Method = zip.Store
			_, err = zw.CreateHeader(hdr)
			return err
		case info.Mode()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			hdr.Method = zip.Store
			fw, err := zw.CreateHeader(hdr)
			if err != nil {
				return err
			}
			_, err = io.WriteString(fw, filepath.ToSlash(target))
			return err
		case info.Mode().IsRegular():
			hdr.Method = zip.Deflate
			fw, err := zw.CreateHeader(hdr)
			if err != nil {
				return err
			}
			return copyFile(fw, path)
		default:
			return nil
		}
	})
	if err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

// unzip extracts src into dest, which must exist. Entries and link
// targets that would land outside dest are rejected, including paths
// that reach outside through links extracted earlier.
func unzip(src, dest string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer zr.Close()

	root, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return err
	}

	for _, f := range zr.File {
		target, err := safeJoin(root, f.Name)
		if err != nil {
			return err
		}
		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := resolveWithin(root, target); err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
			if err := os.MkdirAll(target, dirPerm(mode)); err != nil {
				return err
			}
		case mode&fs.ModeSymlink != 0:
			if err := resolveWithin(root, filepath.Dir(target)); err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
			if err := extractSymlink(f, root, target); err != nil {
				return err
			}
		default:
			if err := resolveWithin(root, filepath.Dir(target)); err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
			if err := extractFile(f, target); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveWithin follows the links in the longest existing prefix of path
// and fails unless the result stays inside root. root must already be
// free of links.
func resolveWithin(root, path string) error {
	existing := path
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			break
		}
		existing = parent
	}
	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return fmt.Errorf("resolving '%s': %w", existing, err)
	}
	if !within(root, resolved) {
		return fmt.Errorf("path escapes archive root through a link: %s", path)
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	perm := f.Mode().Perm()
	if perm == 0 {
		perm = 0o644
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func extractSymlink(f *zip.File, dest, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	link, err := io.ReadAll(io.LimitReader(rc, 4096))
	rc.Close()
	if err != nil {
		return err
	}
	linkTarget := filepath.FromSlash(string(link))
	if filepath.IsAbs(linkTarget) {
		return fmt.Errorf("absolute link target in archive: %s -> %s", f.Name, link)
	}
	resolved := filepath.Join(filepath.Dir(target), linkTarget)
	if !within(dest, resolved) {
		return fmt.Errorf("link escapes archive root: %s -> %s", f.Name, link)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if err := os.Symlink(linkTarget, target); err != nil {
		return err
	}
	// Lexical checks miss targets that pass through links already on disk.
	if onDisk, err := filepath.EvalSymlinks(target); err == nil && !within(dest, onDisk) {
		os.Remove(target)
		return fmt.Errorf("link escapes archive root: %s -> %s", f.Name, link)
	}
	return nil
}

func safeJoin(base, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimSpace(name)))
	if clean == "." || clean == "" {
		return "", fmt.Errorf("invalid archive path: %s", name)
	}
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("absolute archive path: %s", name)
	}
	target := filepath.Join(base, clean)
	if !within(base, target) {
		return "", fmt.Errorf("invalid archive path: %s", name)
	}
	return target, nil
}

func within(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

// dirPerm keeps directories traversable and writable by the owner.
func dirPerm(mode fs.FileMode) fs.FileMode {
	return mode.Perm() | 0o700
}
