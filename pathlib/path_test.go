// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pathlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcsfuse-contrib/memfs/config"
)

func unixParser() Parser {
	cfg := &config.Config{}
	return NewParser(SyntaxFor(cfg), NewNormalizer(cfg), false)
}

func TestParse_AbsoluteAndRelative(t *testing.T) {
	p := unixParser()

	abs, err := p.Parse("/a/b/c")
	require.NoError(t, err)
	assert.True(t, abs.IsAbsolute())
	assert.Equal(t, "/", abs.Root())
	assert.Len(t, abs.Names(), 3)

	rel, err := p.Parse("a/b")
	require.NoError(t, err)
	assert.False(t, rel.IsAbsolute())
	assert.Len(t, rel.Names(), 2)
}

func TestParse_CollapsesRepeatedSeparators(t *testing.T) {
	p := unixParser()

	pth, err := p.Parse("/a//b///c")
	require.NoError(t, err)
	assert.Len(t, pth.Names(), 3)
}

func TestString_RoundTrips(t *testing.T) {
	p := unixParser()

	pth, err := p.Parse("/a/b/c")
	require.NoError(t, err)
	assert.Equal(t, "/a/b/c", pth.String())
}

func TestJoin_OtherAbsoluteShortCircuits(t *testing.T) {
	p := unixParser()

	base, err := p.Parse("/a/b")
	require.NoError(t, err)
	absOther, err := p.Parse("/x/y")
	require.NoError(t, err)

	joined := base.Join(absOther)
	assert.Equal(t, "/x/y", joined.String())
}

func TestJoin_RelativeAppends(t *testing.T) {
	p := unixParser()

	base, err := p.Parse("/a/b")
	require.NoError(t, err)
	rel, err := p.Parse("c/d")
	require.NoError(t, err)

	joined := base.Join(rel)
	assert.Equal(t, "/a/b/c/d", joined.String())
}

func TestNormalize_RemovesSelfAndResolvesParent(t *testing.T) {
	p := unixParser()

	pth, err := p.Parse("/a/./b/../c")
	require.NoError(t, err)
	assert.Equal(t, "/a/c", pth.Normalize().String())
}

func TestNormalize_AbsorbsParentAboveRoot(t *testing.T) {
	p := unixParser()

	pth, err := p.Parse("/../../a")
	require.NoError(t, err)
	assert.Equal(t, "/a", pth.Normalize().String())
}

func TestNormalize_RelativeParentSurvivesWithNoPrecedingComponent(t *testing.T) {
	p := unixParser()

	pth, err := p.Parse("../a")
	require.NoError(t, err)
	assert.Equal(t, "../a", pth.Normalize().String())
}

func TestRelativize_ComputesCommonPrefix(t *testing.T) {
	p := unixParser()

	from, err := p.Parse("/a/b/c")
	require.NoError(t, err)
	to, err := p.Parse("/a/x/y")
	require.NoError(t, err)

	rel, err := from.Relativize(to)
	require.NoError(t, err)
	assert.Equal(t, "../../x/y", rel.String())
}

func TestRelativize_RejectsMismatchedRoots(t *testing.T) {
	p := unixParser()

	abs, err := p.Parse("/a")
	require.NoError(t, err)
	rel, err := p.Parse("a")
	require.NoError(t, err)

	_, err = abs.Relativize(rel)
	assert.Error(t, err)
}
