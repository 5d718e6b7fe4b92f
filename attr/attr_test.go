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

package attr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcsfuse-contrib/memfs/clock"
	"github.com/gcsfuse-contrib/memfs/inode"
)

func newRegularFile() *inode.RegularFile {
	f := inode.NewFactory(clock.NewSimulatedClock(time.Unix(0, 0)))
	return inode.NewRegularFile(f, nil, time.Unix(1000, 0))
}

func TestGet_BareNameMeansBasic(t *testing.T) {
	s := DefaultService()
	f := newRegularFile()

	vals, err := s.ReadAttributes("isRegularFile", f)
	require.NoError(t, err)
	assert.Equal(t, true, vals["isRegularFile"])
}

func TestGet_ResolvesThroughInheritance(t *testing.T) {
	s := DefaultService()
	f := newRegularFile()

	// "size" is a basic attribute, reached through posix's inheritance of
	// basic (§4.E: "consults the view, then each inherited view in
	// declaration order").
	v, err := s.Get("posix", "size", f)
	require.NoError(t, err)
	assert.EqualValues(t, 0, v)
}

func TestSet_RequiresDirectViewSupport(t *testing.T) {
	s := DefaultService()
	f := newRegularFile()

	// "size" is basic's attribute; posix only inherits it and must not be
	// able to set it directly (§4.E).
	err := s.Set("posix", "size", int64(5), f, false)
	assert.Error(t, err)
}

func TestReadAttributes_Star_UnionsInheritedViews(t *testing.T) {
	s := DefaultService()
	f := newRegularFile()

	vals, err := s.ReadAttributes("posix:*", f)
	require.NoError(t, err)
	assert.Contains(t, vals, "permissions") // posix's own
	assert.Contains(t, vals, "size")        // inherited from basic
	assert.Contains(t, vals, "owner")       // inherited from owner
}

func TestReadAttributes_MixingStarWithNamesFails(t *testing.T) {
	s := DefaultService()
	f := newRegularFile()

	_, err := s.ReadAttributes("posix:*,size", f)
	assert.Error(t, err)
}

func TestDefaultValues_GroupsByViewAndValidates(t *testing.T) {
	s := DefaultService()

	resolved, err := s.DefaultValues(map[string]interface{}{
		"posix:permissions": "rwxr-xr-x",
		"owner:owner":       UserPrincipal("alice"),
	})
	require.NoError(t, err)
	require.Contains(t, resolved, "posix")
	require.Contains(t, resolved, "owner")
	assert.Equal(t, UserPrincipal("alice"), resolved["owner"]["owner"])
}

func TestApplyDefaults_WritesResolvedValues(t *testing.T) {
	s := DefaultService()
	f := newRegularFile()

	defaults, err := s.DefaultValues(map[string]interface{}{"owner:owner": UserPrincipal("bob")})
	require.NoError(t, err)
	require.NoError(t, s.ApplyDefaults(defaults, f))

	v, err := s.Get("owner", "owner", f)
	require.NoError(t, err)
	assert.Equal(t, UserPrincipal("bob"), v)
}

func TestPermissionSet_StringAndParseRoundTrip(t *testing.T) {
	want := "rwxr-xr--"
	p, err := ParsePermissions(want)
	require.NoError(t, err)
	assert.Equal(t, want, p.String())
}

func TestPermissionSet_Mode(t *testing.T) {
	p, err := ParsePermissions("rwxr-xr--")
	require.NoError(t, err)
	assert.EqualValues(t, 0o754, p.Mode())
}

func TestUnknownView_ReturnsAttributeUnsupported(t *testing.T) {
	s := DefaultService()
	f := newRegularFile()

	_, err := s.Get("nope", "x", f)
	assert.Error(t, err)
}
