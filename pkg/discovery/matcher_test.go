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

package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternFromName(t *testing.T) {
	tests := map[string]string{
		"Eclipse.app":      "**/Eclipse.app",
		"**/eclipse.exe":   "**/eclipse.exe",
		"**eclipsec.exe":   "**eclipsec.exe",
		"subSub/*.app":     "**/subSub/*.app",
		"/abs/Eclipse.app": "**/abs/Eclipse.app",
		" padded.exe ":     "**/padded.exe",
	}
	for in, want := range tests {
		assert.Equal(t, want, PatternFromName(in), "PatternFromName(%q)", in)
	}
}

func TestGlobMatcher(t *testing.T) {
	m, err := NewGlobMatcher("**/Eclipse.app")
	require.NoError(t, err)

	assert.True(t, m.Match("/work/test/Eclipse.app"))
	assert.True(t, m.Match("/Eclipse.app"))
	assert.False(t, m.Match("/work/test/Eclipse.app/Contents"))
	assert.False(t, m.Match("/work/test/eclipse.app"))
	assert.False(t, m.Match("/work/test/MyEclipse.app"), "names match whole path elements only")

	suffix, err := NewGlobMatcher("**/*Eclipse.app")
	require.NoError(t, err)
	assert.True(t, suffix.Match("/work/test/MyEclipse.app"))
	assert.Equal(t, "**/Eclipse.app", m.String())
}

func TestNewGlobMatcherRejectsBadPatterns(t *testing.T) {
	_, err := NewGlobMatcher("")
	assert.Error(t, err)

	_, err = NewGlobMatcher("**/[unclosed")
	assert.Error(t, err)

	_, err = NewMatcherSet("**/ok.app", "**/[bad")
	assert.Error(t, err)
}

func TestMatcherSetFirstMatchWins(t *testing.T) {
	set, err := NewMatcherSet("**/*.app", "**/Eclipse.app")
	require.NoError(t, err)

	m, ok := set.Match("/x/Eclipse.app")
	require.True(t, ok)
	assert.Equal(t, "**/*.app", m.String())

	_, ok = set.Match("/x/eclipse.exe")
	assert.False(t, ok)
	assert.Equal(t, []string{"**/*.app", "**/Eclipse.app"}, set.Patterns())
}

func TestNewMatcherSetEmptyIsNotNil(t *testing.T) {
	set, err := NewMatcherSet()
	require.NoError(t, err)
	assert.NotNil(t, set)
	assert.Empty(t, set)
}

func TestTargetSet(t *testing.T) {
	s := NewTargetSet("/a/one.exe", "/a/two.exe", "/a/../a/one.exe")

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"/a/one.exe", "/a/two.exe"}, s.Paths())
	assert.True(t, s.Contains("/a/./two.exe"))
	assert.False(t, s.Add("/a/two.exe"))
	assert.True(t, s.Add("/a/three.exe"))

	var zero TargetSet
	assert.False(t, zero.Contains("/a"))
	assert.True(t, zero.Add("/a"))
}
