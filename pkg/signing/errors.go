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
	"errors"
	"fmt"

	"github.com/GEBIT/cbi.maven.plugins/pkg/errs"
)

var (
	// ErrNilTargets is returned when SignAll is given a nil target slice.
	ErrNilTargets = fmt.Errorf("%w: targets must not be nil", errs.ErrContract)

	// ErrNilSigner is returned by Config.Validate without a Signer.
	ErrNilSigner = fmt.Errorf("%w: signer must not be nil", errs.ErrContract)

	// ErrDeclined is the cause recorded when a signer returns false.
	ErrDeclined = errors.New("signer declined the target")
)

// Outcome is the result of processing one target.
type Outcome int

const (
	OutcomeSigned Outcome = iota
	OutcomeDeclined
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSigned:
		return "signed"
	case OutcomeDeclined:
		return "declined"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// SigningError reports the target that stopped a fail-fast run.
type SigningError struct {
	Target  Target
	Outcome Outcome
	Err     error
}

func (e *SigningError) Error() string {
	if e.Outcome == OutcomeDeclined {
		return fmt.Sprintf("%s '%s' was not signed", e.Target.Kind, e.Target.Path)
	}
	return fmt.Sprintf("unable to sign %s '%s': %v", e.Target.Kind, e.Target.Path, e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}
