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

package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/GEBIT/cbi.maven.plugins/pkg/errs"
)

func TestValidateFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "eclipse.exe")
	if err := os.WriteFile(file, []byte("MZ"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "valid file", path: file, wantErr: false},
		{name: "empty path", path: "", wantErr: true},
		{name: "non-existent file", path: filepath.Join(tmpDir, "missing.exe"), wantErr: true},
		{name: "directory instead of file", path: tmpDir, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFileExists("target", tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateFileExists() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errs.ErrPrecondition) {
				t.Errorf("error %v does not wrap ErrPrecondition", err)
			}
		})
	}
}

func TestValidateFolderExists(t *testing.T) {
	tmpDir := t.TempDir()
	app := filepath.Join(tmpDir, "Eclipse.app")
	if err := os.MkdirAll(app, 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	file := filepath.Join(tmpDir, "fake.app")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if err := ValidateFolderExists("bundle", app); err != nil {
		t.Errorf("ValidateFolderExists(dir) unexpected error: %v", err)
	}
	if err := ValidateFolderExists("bundle", file); err == nil {
		t.Error("ValidateFolderExists(file) expected error")
	}
	err := ValidateFolderExists("bundle", filepath.Join(tmpDir, "missing.app"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing folder error should wrap os.ErrNotExist, got %v", err)
	}
}

func TestValidateMultiple(t *testing.T) {
	tmpDir := t.TempDir()
	file1 := filepath.Join(tmpDir, "a.exe")
	file2 := filepath.Join(tmpDir, "b.exe")
	for _, f := range []string{file1, file2} {
		if err := os.WriteFile(f, []byte("MZ"), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", f, err)
		}
	}

	tests := []struct {
		name    string
		paths   []string
		wantErr bool
	}{
		{name: "all valid files", paths: []string{file1, file2}, wantErr: false},
		{name: "empty path in slice", paths: []string{file1, "", file2}, wantErr: true},
		{name: "non-existent file", paths: []string{file1, "/nonexistent.exe"}, wantErr: true},
		{name: "empty slice", paths: []string{}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMultiple("sign files", tt.paths, PathTypeFile)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMultiple() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateOptionalFile(t *testing.T) {
	if err := ValidateOptionalFile("credentials", ""); err != nil {
		t.Errorf("empty optional path should be valid, got %v", err)
	}
	if err := ValidateOptionalFile("credentials", "/nonexistent.yaml"); err == nil {
		t.Error("missing optional file should be invalid")
	}
}

func TestMaskSecret(t *testing.T) {
	tests := map[string]string{
		"":           "",
		"abc":        "****",
		"s3cr3tpass": "****ss",
	}
	for in, want := range tests {
		if got := MaskSecret(in); got != want {
			t.Errorf("MaskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}
