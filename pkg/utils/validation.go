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
	"fmt"
	"os"

	"github.com/GEBIT/cbi.maven.plugins/pkg/errs"
)

// PathType represents the kind of filesystem entry a path must be.
type PathType int

const (
	// PathTypeFile expects a regular file.
	PathTypeFile PathType = iota
	// PathTypeFolder expects a directory.
	PathTypeFolder
	// PathTypeAny accepts any existing entry.
	PathTypeAny
)

// String returns the noun used in validation messages.
func (p PathType) String() string {
	switch p {
	case PathTypeFile:
		return "regular file"
	case PathTypeFolder:
		return "directory"
	default:
		return "path"
	}
}

// PathValidator checks that a path is set, exists, and has the expected type.
type PathValidator struct {
	fieldName string
	path      string
	pathType  PathType
}

// NewPathValidator creates a validator for path. fieldName is used in
// error messages.
func NewPathValidator(fieldName, path string, pathType PathType) *PathValidator {
	return &PathValidator{
		fieldName: fieldName,
		path:      path,
		pathType:  pathType,
	}
}

// Validate returns nil when the path satisfies the validator. Every
// failure wraps errs.ErrPrecondition; a missing path also wraps
// os.ErrNotExist.
func (v *PathValidator) Validate() error {
	if v.path == "" {
		return errs.Precondition(nil, "%s is required", v.fieldName)
	}

	info, err := os.Stat(v.path)
	if err != nil {
		if os.IsNotExist(err) {
			return errs.Precondition(os.ErrNotExist, "%s %q does not exist", v.fieldName, v.path)
		}
		return errs.Precondition(err, "checking %s %q", v.fieldName, v.path)
	}

	switch v.pathType {
	case PathTypeFile:
		if !info.Mode().IsRegular() {
			return errs.Precondition(nil, "%s %q is not a %s", v.fieldName, v.path, v.pathType)
		}
	case PathTypeFolder:
		if !info.IsDir() {
			return errs.Precondition(nil, "%s %q is not a %s", v.fieldName, v.path, v.pathType)
		}
	case PathTypeAny:
	}

	return nil
}

// ValidateMultiple validates every path in paths and returns the first
// failure.
func ValidateMultiple(fieldName string, paths []string, pathType PathType) error {
	for i, path := range paths {
		if path == "" {
			return errs.Precondition(nil, "%s contains empty path at index %d", fieldName, i)
		}
		if err := NewPathValidator(fmt.Sprintf("%s[%d]", fieldName, i), path, pathType).Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateFileExists validates that path exists and is a regular file.
func ValidateFileExists(fieldName, path string) error {
	return NewPathValidator(fieldName, path, PathTypeFile).Validate()
}

// ValidateFolderExists validates that path exists and is a directory.
func ValidateFolderExists(fieldName, path string) error {
	return NewPathValidator(fieldName, path, PathTypeFolder).Validate()
}

// ValidatePathExists validates that path exists.
func ValidatePathExists(fieldName, path string) error {
	return NewPathValidator(fieldName, path, PathTypeAny).Validate()
}

// ValidateOptionalFile validates path only when it is set.
func ValidateOptionalFile(fieldName, path string) error {
	if path == "" {
		return nil
	}
	return ValidateFileExists(fieldName, path)
}

// MaskSecret hides all but the last two characters of s.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-2:]
}
