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

// Package ui renders run summaries for the terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/GEBIT/cbi.maven.plugins/pkg/signing"
)

// Printer writes summaries to w. Colors are used only when enabled and
// NO_COLOR is unset.
type Printer struct {
	w       io.Writer
	ok      *color.Color
	warn    *color.Color
	fail    *color.Color
	dim     *color.Color
	colored bool
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer, noColor bool) *Printer {
	p := &Printer{
		w:       w,
		ok:      color.New(color.FgGreen, color.Bold),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed, color.Bold),
		dim:     color.New(color.Faint),
		colored: !noColor && !color.NoColor && os.Getenv("NO_COLOR") == "",
	}
	for _, c := range []*color.Color{p.ok, p.warn, p.fail, p.dim} {
		if p.colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *Printer) outcome(o signing.Outcome) string {
	switch o {
	case signing.OutcomeSigned:
		return p.ok.Sprint("signed  ")
	case signing.OutcomeDeclined:
		return p.warn.Sprint("declined")
	default:
		return p.fail.Sprint("failed  ")
	}
}

// Report prints one line per target and a totals line.
func (p *Printer) Report(r *signing.Report) {
	if r == nil {
		return
	}
	for _, e := range r.Entries {
		line := fmt.Sprintf("%s %s", p.outcome(e.Outcome), e.Target.Path)
		if !e.Digest.IsZero() {
			line += " " + p.dim.Sprint(e.Digest.String())
		}
		if e.Err != nil && e.Outcome == signing.OutcomeFailed {
			line += ": " + e.Err.Error()
		}
		fmt.Fprintf(p.w, "%s %s\n", line, p.dim.Sprintf("(%s)", e.Duration.Round(time.Millisecond)))
	}
	fmt.Fprintf(p.w, "%s, %s, %s\n",
		p.ok.Sprintf("%d signed", r.Signed()),
		p.warn.Sprintf("%d declined", r.Declined()),
		p.fail.Sprintf("%d failed", r.Failed()))
}

// Targets prints discovered paths, one per line.
func (p *Printer) Targets(paths []string) {
	for _, path := range paths {
		fmt.Fprintln(p.w, path)
	}
	fmt.Fprintln(p.w, p.dim.Sprintf("%d target(s)", len(paths)))
}

// Skipped reports a run skipped by configuration.
func (p *Printer) Skipped() {
	fmt.Fprintln(p.w, p.warn.Sprint("signing skipped"))
}
