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

package signing_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/GEBIT/cbi.maven.plugins/pkg/discovery"
	"github.com/GEBIT/cbi.maven.plugins/pkg/errs"
	"github.com/GEBIT/cbi.maven.plugins/pkg/hashing"
	"github.com/GEBIT/cbi.maven.plugins/pkg/metrics"
	"github.com/GEBIT/cbi.maven.plugins/pkg/signing"
	"github.com/GEBIT/cbi.maven.plugins/pkg/signing/mocks"
	"github.com/GEBIT/cbi.maven.plugins/pkg/signing/signingtest"
)

// OrchestratorSuite covers fail-fast and continue-on-fail processing.
type OrchestratorSuite struct {
	suite.Suite
	root string
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorSuite))
}

func (s *OrchestratorSuite) SetupTest() {
	s.root = filepath.Join(s.T().TempDir(), "test")
	s.Require().NoError(os.MkdirAll(s.root, 0o755))
}

func (s *OrchestratorSuite) orchestrator(signer signing.Signer, continueOnFail bool) *signing.Orchestrator {
	o, err := signing.NewOrchestrator(signing.Config{Signer: signer, ContinueOnFail: continueOnFail})
	s.Require().NoError(err)
	return o
}

func (s *OrchestratorSuite) app(rel string) string {
	p := filepath.Join(s.root, filepath.FromSlash(rel))
	s.Require().NoError(os.MkdirAll(p, 0o755))
	return p
}

func (s *OrchestratorSuite) file(rel, content string) string {
	p := filepath.Join(s.root, filepath.FromSlash(rel))
	s.Require().NoError(os.MkdirAll(filepath.Dir(p), 0o755))
	s.Require().NoError(os.WriteFile(p, []byte(content), 0o644))
	return p
}

func (s *OrchestratorSuite) bundles(paths ...string) []signing.Target {
	return signing.Targets(paths, signing.KindBundle)
}

// appTree builds the nested bundle layout used by the discovery scenarios.
func (s *OrchestratorSuite) appTree() string {
	for _, d := range []string{
		"app1.app",
		"app1.app/subFolder/appSUB.app",
		"app2.app",
		"Eclipse.app",
		"subFolder/app3.app",
		"subFolder2/subSub/app4.app",
		"subFolder2/subSub/app5.app",
		"subFolder2/subSub/app6.app",
		"subFolder2/subSub/Eclipse.app",
	} {
		s.app(d)
	}
	return s.root
}

func (s *OrchestratorSuite) TestNilTargets() {
	_, err := s.orchestrator(signingtest.DummySigner{}, false).SignAll(context.Background(), nil)

	s.ErrorIs(err, signing.ErrNilTargets)
	s.ErrorIs(err, errs.ErrContract)
}

func (s *OrchestratorSuite) TestEmptyTargets() {
	n, err := s.orchestrator(signingtest.DummySigner{}, false).SignAll(context.Background(), []signing.Target{})

	s.NoError(err)
	s.Zero(n)
}

func (s *OrchestratorSuite) TestPreconditionFailures() {
	ctx := context.Background()
	o := s.orchestrator(signingtest.DummySigner{}, false)

	s.Run("regular file given as bundle", func() {
		f := s.file("testFile.app", "content of the file")
		_, err := o.SignAll(ctx, s.bundles(f))

		var sigErr *signing.SigningError
		s.Require().ErrorAs(err, &sigErr)
		s.Equal(signing.OutcomeFailed, sigErr.Outcome)
		s.ErrorIs(err, errs.ErrPrecondition)
	})

	s.Run("empty regular file given as bundle", func() {
		f := s.file("empty.app", "")
		_, err := o.SignAll(ctx, s.bundles(f))
		s.ErrorIs(err, errs.ErrPrecondition)
	})

	s.Run("missing bundle", func() {
		_, err := o.SignAll(ctx, s.bundles(filepath.Join(s.root, "testApp.app")))
		s.ErrorIs(err, errs.ErrPrecondition)
		s.ErrorIs(err, os.ErrNotExist)
	})

	s.Run("missing file", func() {
		_, err := o.SignAll(ctx, signing.Targets([]string{filepath.Join(s.root, "testFile.txt")}, signing.KindFile))
		s.ErrorIs(err, os.ErrNotExist)
	})

	s.Run("directory given as file", func() {
		_, err := o.SignAll(ctx, signing.Targets([]string{s.app("dir.exe")}, signing.KindFile))
		s.ErrorIs(err, errs.ErrPrecondition)
	})
}

func (s *OrchestratorSuite) TestSignsBundles() {
	ctx := context.Background()
	o := s.orchestrator(signingtest.DummySigner{}, false)

	s.Run("empty bundle", func() {
		n, err := o.SignAll(ctx, s.bundles(s.app("empty/testApp.app")))
		s.NoError(err)
		s.Equal(1, n)
	})

	s.Run("bundle content is untouched", func() {
		app := s.app("content/testApp.app")
		f1 := s.file("content/testApp.app/testFile.txt", "content of the file")
		f2 := s.file("content/testApp.app/Contents/testFile2.txt", "content of the file 2")

		n, err := o.SignAll(ctx, s.bundles(app))
		s.NoError(err)
		s.Equal(1, n)

		data, err := os.ReadFile(f1)
		s.Require().NoError(err)
		s.Equal("content of the file", string(data))
		data, err = os.ReadFile(f2)
		s.Require().NoError(err)
		s.Equal("content of the file 2", string(data))
	})

	s.Run("nested bundle counts once", func() {
		app := s.app("nested/testApp.app")
		s.app("nested/testApp.app/anotherApp.app")

		n, err := o.SignAll(ctx, s.bundles(app))
		s.NoError(err)
		s.Equal(1, n)
	})

	s.Run("two bundles", func() {
		n, err := o.SignAll(ctx, s.bundles(s.app("two/testApp1.app"), s.app("two/testApp2.app")))
		s.NoError(err)
		s.Equal(2, n)
	})

	s.Run("duplicates collapse", func() {
		app := s.app("dup/testApp.app")
		n, err := o.SignAll(ctx, s.bundles(app, app, filepath.Join(app, ".")))
		s.NoError(err)
		s.Equal(1, n)
	})

	s.Run("duplicate literal targets collapse", func() {
		app := s.app("lit/testApp.app")
		rel, err := filepath.Rel(s.cwd(), app)
		s.Require().NoError(err)
		counter := &signingtest.CountingSigner{}

		report, err := s.orchestrator(counter, false).Run(ctx, []signing.Target{
			{Path: app, Kind: signing.KindBundle},
			{Path: rel, Kind: signing.KindBundle},
			{Path: app + string(filepath.Separator), Kind: signing.KindBundle},
		})
		s.NoError(err)
		s.Equal([]string{app}, counter.Paths())
		s.Len(report.Entries, 1)
	})
}

func (s *OrchestratorSuite) cwd() string {
	wd, err := os.Getwd()
	s.Require().NoError(err)
	return wd
}

func (s *OrchestratorSuite) TestFileAmongBundles() {
	ctx := context.Background()
	f := s.file("testFile.txt", "content of the file")
	app1 := s.app("testApp1.app")
	app2 := s.app("testApp2.app")

	s.Run("fail fast", func() {
		counter := &signingtest.CountingSigner{}
		n, err := s.orchestrator(counter, false).SignAll(ctx, s.bundles(f, app1, app2))

		s.Error(err)
		s.Zero(n)
		s.Zero(counter.Calls(), "no target after the failing one may be signed")
	})

	s.Run("continue on fail", func() {
		counter := &signingtest.CountingSigner{}
		n, err := s.orchestrator(counter, true).SignAll(ctx, s.bundles(f, app1, app2))

		s.NoError(err)
		s.Equal(2, n)
		s.Equal([]string{app1, app2}, counter.Paths())
	})
}

func (s *OrchestratorSuite) TestDecliningSigner() {
	ctx := context.Background()
	app1 := s.app("testApp1.app")
	app2 := s.app("testApp2.app")

	s.Run("fail fast stops at first target", func() {
		counter := &signingtest.CountingSigner{Next: signingtest.NotSigningSigner{}}
		n, err := s.orchestrator(counter, false).SignAll(ctx, s.bundles(app1, app2))

		s.Zero(n)
		s.ErrorIs(err, signing.ErrDeclined)
		var sigErr *signing.SigningError
		s.Require().ErrorAs(err, &sigErr)
		s.Equal(signing.OutcomeDeclined, sigErr.Outcome)
		s.Equal(app1, sigErr.Target.Path)
		s.Equal([]string{app1}, counter.Paths())
	})

	s.Run("continue on fail returns zero", func() {
		o := s.orchestrator(signingtest.NotSigningSigner{}, true)
		report, err := o.Run(ctx, s.bundles(app1, app2))

		s.NoError(err)
		s.Zero(report.Signed())
		s.Equal(2, report.Declined())
		s.Len(report.Failures(), 2)
	})
}

func (s *OrchestratorSuite) TestErrorSigner() {
	ctx := context.Background()
	app1 := s.app("testApp1.app")
	app2 := s.app("testApp2.app")

	for _, targets := range [][]signing.Target{s.bundles(app1), s.bundles(app1, app2)} {
		_, err := s.orchestrator(signingtest.ErrorSigner{}, false).SignAll(ctx, targets)
		s.ErrorIs(err, signingtest.ErrSigning)

		n, err := s.orchestrator(signingtest.ErrorSigner{}, true).SignAll(ctx, targets)
		s.NoError(err)
		s.Zero(n)
	}
}

func (s *OrchestratorSuite) TestSignTree() {
	ctx := context.Background()
	root := s.appTree()

	tests := []struct {
		names []string
		want  int
	}{
		{names: []string{"**/Eclipse.app"}, want: 2},
		{names: []string{"app1.app", "app5.app", "app3.app"}, want: 3},
		{names: []string{"app*.app"}, want: 6},
		{names: []string{"subFolder2/*.app"}, want: 0},
		{names: []string{"subSub/*.app"}, want: 4},
		{names: []string{}, want: 0},
	}
	for _, tt := range tests {
		s.Run(fmt.Sprintf("%v", tt.names), func() {
			matchers, err := discovery.MatcherSetFromNames(tt.names...)
			s.Require().NoError(err)

			n, err := s.orchestrator(signingtest.DummySigner{}, false).SignTree(ctx, root, matchers, signing.KindBundle)
			s.NoError(err)
			s.Equal(tt.want, n)
		})
	}
}

func (s *OrchestratorSuite) TestSignTreeErrors() {
	ctx := context.Background()
	root := s.appTree()
	names, err := discovery.MatcherSetFromNames("app1.app", "app5.app", "app3.app")
	s.Require().NoError(err)

	s.Run("nil matchers", func() {
		_, err := s.orchestrator(signingtest.DummySigner{}, false).SignTree(ctx, root, nil, signing.KindBundle)
		s.ErrorIs(err, discovery.ErrNilMatchers)
	})

	s.Run("missing base directory", func() {
		empty, err := discovery.NewMatcherSet()
		s.Require().NoError(err)
		_, err = s.orchestrator(signingtest.DummySigner{}, false).SignTree(ctx, filepath.Join(root, "nope"), empty, signing.KindBundle)
		s.ErrorIs(err, discovery.ErrDirectoryNotFound)
	})

	s.Run("declining signer fails fast", func() {
		_, err := s.orchestrator(signingtest.NotSigningSigner{}, false).SignTree(ctx, root, names, signing.KindBundle)
		s.ErrorIs(err, signing.ErrDeclined)
	})

	s.Run("declining signer with continue on fail", func() {
		n, err := s.orchestrator(signingtest.NotSigningSigner{}, true).SignTree(ctx, root, names, signing.KindBundle)
		s.NoError(err)
		s.Zero(n)
	})

	s.Run("error signer fails fast", func() {
		_, err := s.orchestrator(signingtest.ErrorSigner{}, false).SignTree(ctx, root, names, signing.KindBundle)
		s.ErrorIs(err, signingtest.ErrSigning)
	})

	s.Run("error signer with continue on fail", func() {
		n, err := s.orchestrator(signingtest.ErrorSigner{}, true).SignTree(ctx, root, names, signing.KindBundle)
		s.NoError(err)
		s.Zero(n)
	})
}

func (s *OrchestratorSuite) TestSigningIsRepeatable() {
	ctx := context.Background()
	f := s.file("eclipse.exe", "MZ")
	o := s.orchestrator(signingtest.DummySigner{}, false)
	targets := signing.Targets([]string{f}, signing.KindFile)

	first, err := o.SignAll(ctx, targets)
	s.Require().NoError(err)
	second, err := o.SignAll(ctx, targets)
	s.Require().NoError(err)

	s.Equal(1, first)
	s.Equal(first, second)
}

func (s *OrchestratorSuite) TestSignerCalledInOrder() {
	ctrl := gomock.NewController(s.T())
	signer := mocks.NewMockSigner(ctrl)
	app1 := s.app("testApp1.app")
	app2 := s.app("testApp2.app")
	app3 := s.app("testApp3.app")

	gomock.InOrder(
		signer.EXPECT().Sign(gomock.Any(), app1).Return(true, nil),
		signer.EXPECT().Sign(gomock.Any(), app2).Return(false, fmt.Errorf("server rejected %s", app2)),
	)

	n, err := s.orchestrator(signer, false).SignAll(context.Background(), s.bundles(app1, app2, app3))

	s.Zero(n)
	var sigErr *signing.SigningError
	s.Require().ErrorAs(err, &sigErr)
	s.Equal(app2, sigErr.Target.Path)
	s.Contains(err.Error(), "server rejected")
}

func (s *OrchestratorSuite) TestCancellation() {
	app1 := s.app("testApp1.app")
	app2 := s.app("testApp2.app")

	s.Run("cancelled before start", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		counter := &signingtest.CountingSigner{}

		_, err := s.orchestrator(counter, true).SignAll(ctx, s.bundles(app1, app2))
		s.ErrorIs(err, errs.ErrCancelled)
		s.ErrorIs(err, context.Canceled)
		s.Zero(counter.Calls())
	})

	s.Run("cancelled signer stops continue on fail", func() {
		counter := &signingtest.CountingSigner{Next: signingtest.ErrorSigner{Err: fmt.Errorf("%w: upload", errs.ErrCancelled)}}

		_, err := s.orchestrator(counter, true).SignAll(context.Background(), s.bundles(app1, app2))
		s.ErrorIs(err, errs.ErrCancelled)
		s.Equal(1, counter.Calls())
	})

	s.Run("cancelled between targets", func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		var seen []string
		signer := signing.SignerFunc(func(_ context.Context, path string) (bool, error) {
			seen = append(seen, path)
			cancel()
			return true, nil
		})

		_, err := s.orchestrator(signer, true).SignAll(ctx, s.bundles(app1, app2))
		s.ErrorIs(err, errs.ErrCancelled)
		s.Equal([]string{app1}, seen)
	})
}

func (s *OrchestratorSuite) TestReportAndMetrics() {
	f := s.file("eclipse.exe", "abcd")
	missing := filepath.Join(s.root, "missing.exe")
	m := metrics.New()

	o, err := signing.NewOrchestrator(signing.Config{
		Signer:          signingtest.DummySigner{},
		ContinueOnFail:  true,
		DigestAlgorithm: hashing.SHA256,
		Metrics:         m,
	})
	s.Require().NoError(err)

	report, err := o.Run(context.Background(), signing.Targets([]string{f, missing}, signing.KindFile))
	s.Require().NoError(err)
	s.Require().Len(report.Entries, 2)

	s.Equal(signing.OutcomeSigned, report.Entries[0].Outcome)
	s.Equal("sha256:88d4266fd4e6338d13b845fcf289579d209c897823b9217da3e161936f031589", report.Entries[0].Digest.String())
	s.Equal(signing.OutcomeFailed, report.Entries[1].Outcome)
	s.True(report.Entries[1].Digest.IsZero())
	s.Equal(1, report.Signed())
	s.Equal(1, report.Failed())

	out := filepath.Join(s.T().TempDir(), "metrics.prom")
	s.Require().NoError(m.WriteTextfile(out))
	data, err := os.ReadFile(out)
	s.Require().NoError(err)
	s.Contains(string(data), `cbi_sign_targets_total{outcome="signed"} 1`)
	s.Contains(string(data), `cbi_sign_targets_total{outcome="failed"} 1`)
}

func TestConfigValidate(t *testing.T) {
	if err := (signing.Config{}).Validate(); err == nil {
		t.Error("Validate() without signer expected error")
	}
	if err := (signing.Config{Signer: signingtest.DummySigner{}, DigestAlgorithm: "md5"}).Validate(); err == nil {
		t.Error("Validate() with unknown digest expected error")
	}
	if err := (signing.Config{Signer: signingtest.DummySigner{}}).Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestOutcomeAndKindStrings(t *testing.T) {
	if signing.OutcomeDeclined.String() != "declined" {
		t.Errorf("OutcomeDeclined.String() = %q", signing.OutcomeDeclined.String())
	}
	if signing.KindBundle.String() != "bundle" {
		t.Errorf("KindBundle.String() = %q", signing.KindBundle.String())
	}
	if signing.Targets(nil, signing.KindFile) != nil {
		t.Error("Targets(nil) should be nil")
	}
}
