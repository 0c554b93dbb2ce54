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

// Package hashing computes content digests of signing targets. The
// report and the upload path use them to show what changed on disk.
package hashing

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// Digest is an algorithm name plus the raw digest bytes. The zero value
// means "not computed".
type Digest struct {
	algorithm string
	value     []byte
}

// NewDigest copies value into a new Digest.
func NewDigest(algorithm string, value []byte) Digest {
	v := make([]byte, len(value))
	copy(v, value)
	return Digest{algorithm: algorithm, value: v}
}

// Algorithm returns the algorithm name.
func (d Digest) Algorithm() string {
	return d.algorithm
}

// Value returns a copy of the digest bytes.
func (d Digest) Value() []byte {
	v := make([]byte, len(d.value))
	copy(v, d.value)
	return v
}

// Hex returns the lowercase hex encoding of the digest bytes.
func (d Digest) Hex() string {
	return hex.EncodeToString(d.value)
}

// IsZero reports whether d was never computed.
func (d Digest) IsZero() bool {
	return d.algorithm == "" && len(d.value) == 0
}

// String returns "algorithm:hex", or "" for the zero Digest.
func (d Digest) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s:%s", d.algorithm, d.Hex())
}

// Equal reports whether both digests use the same algorithm and value.
func (d Digest) Equal(other Digest) bool {
	return d.algorithm == other.algorithm && bytes.Equal(d.value, other.value)
}
