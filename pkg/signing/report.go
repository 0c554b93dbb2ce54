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
	"time"

	"github.com/GEBIT/cbi.maven.plugins/pkg/hashing"
)

// Entry records what happened to one target.
type Entry struct {
	Target   Target
	Outcome  Outcome
	Err      error
	Duration time.Duration
	// Digest is the content digest after signing. Zero unless the target
	// was signed and a digest algorithm is configured.
	Digest hashing.Digest
}

// Report lists the processed targets in order.
type Report struct {
	Entries []Entry
}

// Signed returns the number of signed targets.
func (r *Report) Signed() int {
	return r.count(OutcomeSigned)
}

// Declined returns the number of targets the signer declined.
func (r *Report) Declined() int {
	return r.count(OutcomeDeclined)
}

// Failed returns the number of targets that failed with an error.
func (r *Report) Failed() int {
	return r.count(OutcomeFailed)
}

// Failures returns the declined and failed entries.
func (r *Report) Failures() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Outcome != OutcomeSigned {
			out = append(out, e)
		}
	}
	return out
}

func (r *Report) count(o Outcome) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, e := range r.Entries {
		if e.Outcome == o {
			n++
		}
	}
	return n
}
