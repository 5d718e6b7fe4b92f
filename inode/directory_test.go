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

package inode

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcsfuse-contrib/memfs/clock"
	"github.com/gcsfuse-contrib/memfs/config"
	"github.com/gcsfuse-contrib/memfs/pathlib"
)

func newFactory() *Factory { return NewFactory(clock.NewSimulatedClock(time.Unix(0, 0))) }

var testNormalizer = pathlib.NewNormalizer(&config.Config{})

func newName(s string) Name { return testNormalizer.NewName(s) }

func TestNewRootDirectory_ParentPointsToSelf(t *testing.T) {
	f := newFactory()
	now := time.Now()

	root := NewRootDirectory(f, now)

	entry, ok := root.Lookup(pathlib.Parent)
	require.True(t, ok)
	assert.Same(t, root, entry.File())
}

func TestNewDirectory_OnlyHasSelf(t *testing.T) {
	f := newFactory()
	d := NewDirectory(f, time.Now())

	// IsEmpty counts SELF and PARENT; a never-linked directory has only SELF.
	assert.False(t, d.IsEmpty())
	_, ok := d.Lookup(pathlib.Parent)
	assert.False(t, ok)
}

func TestLink_RefusesReservedNames(t *testing.T) {
	f := newFactory()
	now := time.Now()
	root := NewRootDirectory(f, now)
	child := NewDirectory(f, now)

	err := root.Link(pathlib.Self, child)
	assert.Error(t, err)

	err = root.Link(pathlib.Parent, child)
	assert.Error(t, err)
}

func TestLink_RefusesDuplicateNames(t *testing.T) {
	f := newFactory()
	now := time.Now()
	root := NewRootDirectory(f, now)
	name := newName("foo")

	require.NoError(t, root.Link(name, NewDirectory(f, now)))
	err := root.Link(name, NewDirectory(f, now))
	assert.Error(t, err)
}

func TestLink_Subdirectory_SetsEntryInParentAndParentEntry(t *testing.T) {
	f := newFactory()
	now := time.Now()
	root := NewRootDirectory(f, now)
	child := NewDirectory(f, now)
	name := newName("child")

	require.NoError(t, root.Link(name, child))

	assert.Same(t, root, child.EntryInParent().Directory())
	assert.True(t, name.Equal(child.EntryInParent().Name()))

	parentEntry, ok := child.Lookup(pathlib.Parent)
	require.True(t, ok)
	assert.Same(t, root, parentEntry.File())
}

func TestUnlink_RemovesEntryAndDecrementsLinks(t *testing.T) {
	f := newFactory()
	now := time.Now()
	root := NewRootDirectory(f, now)
	child := NewDirectory(f, now)
	name := newName("child")
	require.NoError(t, root.Link(name, child))

	destroyed, err := root.Unlink(name)
	require.NoError(t, err)
	assert.True(t, destroyed) // child's only link was root's entry for it
	assert.Nil(t, child.EntryInParent())

	_, ok := root.Lookup(name)
	assert.False(t, ok)
}

func TestUnlink_NonexistentNameFails(t *testing.T) {
	f := newFactory()
	root := NewRootDirectory(f, time.Now())

	_, err := root.Unlink(newName("missing"))
	assert.Error(t, err)
}

func TestMaybeGrow_RehashesAndPreservesEntries(t *testing.T) {
	f := newFactory()
	now := time.Now()
	root := NewRootDirectory(f, now)

	const n = 40 // forces at least one resize past the 0.75 load factor
	for i := 0; i < n; i++ {
		require.NoError(t, root.Link(newName(fmt.Sprintf("f%d", i)), NewDirectory(f, now)))
	}

	for i := 0; i < n; i++ {
		_, ok := root.Lookup(newName(fmt.Sprintf("f%d", i)))
		assert.True(t, ok, "f%d should still be found after resize", i)
	}
}

func TestSnapshot_ExcludesReservedAndSortsByDisplay(t *testing.T) {
	f := newFactory()
	now := time.Now()
	root := NewRootDirectory(f, now)
	require.NoError(t, root.Link(newName("b"), NewDirectory(f, now)))
	require.NoError(t, root.Link(newName("a"), NewDirectory(f, now)))

	snap := root.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "a", snap[0].Name().String())
	assert.Equal(t, "b", snap[1].Name().String())
}

func TestIsEmpty_CountsOnlySelfAndParent(t *testing.T) {
	f := newFactory()
	now := time.Now()
	root := NewRootDirectory(f, now)
	assert.True(t, root.IsEmpty())

	require.NoError(t, root.Link(newName("x"), NewDirectory(f, now)))
	assert.False(t, root.IsEmpty())
}
