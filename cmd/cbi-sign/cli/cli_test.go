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

package cli

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GEBIT/cbi.maven.plugins/pkg/errs"
	"github.com/GEBIT/cbi.maven.plugins/pkg/transport/transporttest"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := New()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--log-level", "silent", "--no-color"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func exeTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "eclipse", "eclipse.exe"), "MZ-gui")
	writeFile(t, filepath.Join(dir, "eclipse", "plugins", "eclipsec.exe"), "MZ-console")
	writeFile(t, filepath.Join(dir, "eclipse", "other.exe"), "MZ-other")
	return dir
}

func prefixSigner() transporttest.Responder {
	return transporttest.Sign(func(b []byte) []byte {
		return append([]byte("signed:"), b...)
	})
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var ee *ExitError
	require.True(t, errors.As(err, &ee), "expected an ExitError, got %v", err)
	return ee.ExitCode()
}

func TestSignExeSearchesDefaultNames(t *testing.T) {
	srv := transporttest.NewServer(t, prefixSigner())
	dir := exeTree(t)

	out, err := execute(t, "sign", "exe", "--signer-url", srv.URL(), "--base-search-dir", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "2 signed, 0 declined, 0 failed")
	assert.Equal(t, "signed:MZ-gui", readFile(t, filepath.Join(dir, "eclipse", "eclipse.exe")))
	assert.Equal(t, "signed:MZ-console", readFile(t, filepath.Join(dir, "eclipse", "plugins", "eclipsec.exe")))
	assert.Equal(t, "MZ-other", readFile(t, filepath.Join(dir, "eclipse", "other.exe")))
}

func TestSignExeExplicitFilesAndParams(t *testing.T) {
	srv := transporttest.NewServer(t, prefixSigner())
	dir := exeTree(t)
	other := filepath.Join(dir, "eclipse", "other.exe")

	t.Setenv("CBI_SIGN_PASSWORD", "s3cr3t")
	_, err := execute(t, "sign", "exe", "--signer-url", srv.URL(),
		"--username", "build", "--name", "Eclipse SDK", "--url", "https://eclipse.org", other)
	require.NoError(t, err)

	assert.Equal(t, "signed:MZ-other", readFile(t, other))
	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, []string{"name", "url", "file"}, reqs[0].PartNames)
	assert.Equal(t, "Eclipse SDK", reqs[0].Fields["name"])
	assert.Equal(t, "build", reqs[0].Username)
	assert.Equal(t, "s3cr3t", reqs[0].Password)
}

func TestSignExeFromConfigFile(t *testing.T) {
	srv := transporttest.NewServer(t, prefixSigner())
	dir := exeTree(t)
	cfg := filepath.Join(t.TempDir(), "sign.yaml")
	writeFile(t, cfg, fmt.Sprintf("signerUrl: %s\nbaseSearchDir: %s\nfileNames: [other.exe]\nretryLimit: 0\n", srv.URL(), dir))

	out, err := execute(t, "--config", cfg, "sign", "exe")
	require.NoError(t, err)

	assert.Contains(t, out, "1 signed")
	assert.Equal(t, "signed:MZ-other", readFile(t, filepath.Join(dir, "eclipse", "other.exe")))
	assert.Equal(t, "MZ-gui", readFile(t, filepath.Join(dir, "eclipse", "eclipse.exe")))
}

func TestSignExeUnauthorized(t *testing.T) {
	srv := transporttest.NewServer(t, transporttest.Always(http.StatusUnauthorized, "no"))
	dir := exeTree(t)

	_, err := execute(t, "sign", "exe", "--signer-url", srv.URL(), "--base-search-dir", dir)

	assert.ErrorIs(t, err, errs.ErrAuthentication)
	assert.Equal(t, ExitAuthentication, exitCode(t, err))
	assert.Equal(t, 1, srv.Count(), "a rejected credential is neither retried nor reused")
}

func TestSignExeDeclined(t *testing.T) {
	srv := transporttest.NewServer(t, transporttest.Always(http.StatusInternalServerError, "down"))
	dir := exeTree(t)

	t.Run("fail fast", func(t *testing.T) {
		_, err := execute(t, "sign", "exe", "--signer-url", srv.URL(), "--base-search-dir", dir, "--retry-limit", "0")
		assert.Equal(t, ExitFailure, exitCode(t, err))
	})

	t.Run("continue on fail", func(t *testing.T) {
		out, err := execute(t, "sign", "exe", "--signer-url", srv.URL(), "--base-search-dir", dir,
			"--retry-limit", "0", "--continue-on-fail")
		require.NoError(t, err)
		assert.Contains(t, out, "0 signed, 2 declined, 0 failed")
	})
}

func TestSignExeNothingToDo(t *testing.T) {
	srv := transporttest.NewServer(t, prefixSigner())

	t.Run("missing base directory", func(t *testing.T) {
		out, err := execute(t, "sign", "exe", "--signer-url", srv.URL(),
			"--base-search-dir", filepath.Join(t.TempDir(), "missing"))
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("skip", func(t *testing.T) {
		out, err := execute(t, "sign", "exe", "--signer-url", srv.URL(), "--base-search-dir", exeTree(t), "--skip")
		require.NoError(t, err)
		assert.Contains(t, out, "signing skipped")
	})

	assert.Zero(t, srv.Count())
}

func TestSignExeRequiresSignerURL(t *testing.T) {
	_, err := execute(t, "sign", "exe", "--base-search-dir", exeTree(t))

	assert.ErrorIs(t, err, errs.ErrPrecondition)
	assert.Equal(t, ExitUsage, exitCode(t, err))
}

func TestSignExeWritesMetrics(t *testing.T) {
	srv := transporttest.NewServer(t, prefixSigner())
	metricsFile := filepath.Join(t.TempDir(), "cbi-sign.prom")

	_, err := execute(t, "--metrics-file", metricsFile, "sign", "exe", "--signer-url", srv.URL(), "--base-search-dir", exeTree(t))
	require.NoError(t, err)

	data := readFile(t, metricsFile)
	assert.Contains(t, data, `cbi_sign_targets_total{outcome="signed"} 2`)
	assert.Contains(t, data, "cbi_sign_discovered_targets 2")
}

func signedBundle(t *testing.T, name string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name + "/Contents/_CodeSignature/CodeResources")
	require.NoError(t, err)
	_, err = io.WriteString(w, "signature")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.String()
}

func TestSignApp(t *testing.T) {
	srv := transporttest.NewServer(t, transporttest.Always(http.StatusOK, signedBundle(t, "Eclipse.app")))
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Eclipse.app", "Contents", "Info.plist"), "<plist/>")
	writeFile(t, filepath.Join(dir, "Eclipse.app", "Contents", "Eclipse.app", "nested"), "x")

	out, err := execute(t, "sign", "app", "--signer-url", srv.URL(), "--base-search-dir", dir, "--digest", "sha256")
	require.NoError(t, err)

	assert.Contains(t, out, "1 signed")
	assert.Contains(t, out, "sha256:")
	assert.Equal(t, "signature", readFile(t, filepath.Join(dir, "Eclipse.app", "Contents", "_CodeSignature", "CodeResources")))
	require.Len(t, srv.Requests(), 1)
	assert.Equal(t, "Eclipse.app.zip", srv.Requests()[0].FileName)
}

func TestSignProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	dir := exeTree(t)

	out, err := execute(t, "sign", "process", "--base-search-dir", dir, "--",
		"sh", "-c", `printf signed > "$1"`, "sh")
	require.NoError(t, err)

	assert.Contains(t, out, "2 signed")
	assert.Equal(t, "signed", readFile(t, filepath.Join(dir, "eclipse", "eclipse.exe")))
}

func TestSignProcessErrors(t *testing.T) {
	_, err := execute(t, "sign", "process", "--base-search-dir", exeTree(t))
	assert.Equal(t, ExitUsage, exitCode(t, err), "a command is required")

	_, err = execute(t, "sign", "process", "--kind", "dmg", "--", "true")
	assert.Equal(t, ExitUsage, exitCode(t, err))
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, app := range []string{"app1.app/subFolder/appSUB.app", "app2.app", "subFolder/app3.app", "Eclipse.app"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, filepath.FromSlash(app)), 0o755))
	}

	out, err := execute(t, "discover", dir, "--kind", "bundle", "--file-names", "app*.app")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "app1.app"),
		filepath.Join(dir, "app2.app"),
		filepath.Join(dir, "subFolder", "app3.app"),
		"3 target(s)",
	}, lines)

	out, err = execute(t, "discover", dir, "--kind", "app")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "Eclipse.app"))

	_, err = execute(t, "discover", filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, errs.ErrPrecondition)
}

func TestWithExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: errors.New("boom"), want: ExitFailure},
		{err: errs.Contract("nil"), want: ExitUsage},
		{err: fmt.Errorf("%w: 503", errs.ErrTransient), want: ExitTransient},
		{err: fmt.Errorf("%w: %w", errs.ErrCancelled, context.Canceled), want: ExitCancelled},
		{err: &ExitError{Err: errors.New("x"), Code: 42}, want: 42},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(t, withExitCode(tt.err)), tt.err.Error())
	}
	assert.NoError(t, withExitCode(nil))
}
