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

package vfsview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcsfuse-contrib/memfs/channel"
)

func TestGetOrCreateRegularFile_CreateMakesNewFile(t *testing.T) {
	v, p := newTestView(t)
	path := mustParse(t, p, "/a.txt")

	rf, err := v.GetOrCreateRegularFile(path, channel.NewOpenOptions(channel.Read, channel.Write, channel.Create), nil)
	require.NoError(t, err)
	assert.NotNil(t, rf)
}

func TestGetOrCreateRegularFile_WithoutCreateMissingFails(t *testing.T) {
	v, p := newTestView(t)
	path := mustParse(t, p, "/missing.txt")

	_, err := v.GetOrCreateRegularFile(path, channel.NewOpenOptions(channel.Read), nil)
	assert.Error(t, err)
}

func TestGetOrCreateRegularFile_FastPathFindsExisting(t *testing.T) {
	v, p := newTestView(t)
	path := mustParse(t, p, "/a.txt")
	first, err := v.GetOrCreateRegularFile(path, channel.NewOpenOptions(channel.Write, channel.Create), nil)
	require.NoError(t, err)
	_, err = first.WriteAt([]byte("hi"), 0)
	require.NoError(t, err)

	second, err := v.GetOrCreateRegularFile(path, channel.NewOpenOptions(channel.Read), nil)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestGetOrCreateRegularFile_CreateNewRefusesExisting(t *testing.T) {
	v, p := newTestView(t)
	path := mustParse(t, p, "/a.txt")
	_, err := v.GetOrCreateRegularFile(path, channel.NewOpenOptions(channel.Write, channel.CreateNew), nil)
	require.NoError(t, err)

	_, err = v.GetOrCreateRegularFile(path, channel.NewOpenOptions(channel.Write, channel.CreateNew), nil)
	assert.Error(t, err)
}

func TestGetOrCreateRegularFile_RefusesNonRegularFile(t *testing.T) {
	v, p := newTestView(t)
	dirPath := mustParse(t, p, "/dir")
	_, err := v.CreateDirectory(dirPath, true, nil)
	require.NoError(t, err)

	_, err = v.GetOrCreateRegularFile(dirPath, channel.NewOpenOptions(channel.Read), nil)
	assert.Error(t, err)
}

func TestGetOrCreateRegularFile_TruncateExistingZeroesContent(t *testing.T) {
	v, p := newTestView(t)
	path := mustParse(t, p, "/a.txt")
	rf, err := v.GetOrCreateRegularFile(path, channel.NewOpenOptions(channel.Write, channel.Create), nil)
	require.NoError(t, err)
	_, err = rf.WriteAt([]byte("hello"), 0)
	require.NoError(t, err)

	reopened, err := v.GetOrCreateRegularFile(path, channel.NewOpenOptions(channel.Write, channel.TruncateExisting), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, reopened.Size())
}

func TestGetOrCreateRegularFile_TruncateExistingRequiresWrite(t *testing.T) {
	v, p := newTestView(t)
	path := mustParse(t, p, "/a.txt")
	rf, err := v.GetOrCreateRegularFile(path, channel.NewOpenOptions(channel.Write, channel.Create), nil)
	require.NoError(t, err)
	_, err = rf.WriteAt([]byte("hello"), 0)
	require.NoError(t, err)

	reopened, err := v.GetOrCreateRegularFile(path, channel.NewOpenOptions(channel.Read, channel.TruncateExisting), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 5, reopened.Size(), "TRUNCATE_EXISTING without WRITE must not truncate")
}
