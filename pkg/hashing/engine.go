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
	"crypto/sha256"
	"fmt"
	"hash"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// Supported algorithm names.
const (
	SHA256  = "sha256"
	BLAKE2b = "blake2b"
)

// Engine is a streaming hash.
type Engine interface {
	// Update appends data to the hash state.
	Update(data []byte)
	// Reset clears the hash state.
	Reset()
	// Compute returns the digest of everything written since the last Reset.
	Compute() Digest
	// Name returns the algorithm name recorded in computed digests.
	Name() string
}

type factory func() hash.Hash

var factories = map[string]factory{
	SHA256:  sha256.New,
	BLAKE2b: newBLAKE2b,
}

// newBLAKE2b returns an unkeyed BLAKE2b-512 hash.
func newBLAKE2b() hash.Hash {
	h, _ := blake2b.New512(nil)
	return h
}

// NewEngine returns an Engine for algorithm.
func NewEngine(algorithm string) (Engine, error) {
	f, ok := factories[algorithm]
	if !ok {
		return nil, fmt.Errorf("unsupported hash algorithm: %s (supported: %v)", algorithm, SupportedAlgorithms())
	}
	return &genericEngine{name: algorithm, factory: f, h: f()}, nil
}

// SupportedAlgorithms returns the algorithm names accepted by NewEngine,
// sorted.
func SupportedAlgorithms() []string {
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type genericEngine struct {
	name    string
	factory factory
	h       hash.Hash
}

func (e *genericEngine) Update(data []byte) {
	if len(data) > 0 {
		_, _ = e.h.Write(data)
	}
}

func (e *genericEngine) Reset() {
	e.h = e.factory()
}

func (e *genericEngine) Compute() Digest {
	return NewDigest(e.name, e.h.Sum(nil))
}

func (e *genericEngine) Name() string {
	return e.name
}
