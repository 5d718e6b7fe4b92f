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

package watch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcsfuse-contrib/memfs/clock"
	"github.com/gcsfuse-contrib/memfs/config"
	"github.com/gcsfuse-contrib/memfs/inode"
	"github.com/gcsfuse-contrib/memfs/internal/telemetry"
	"github.com/gcsfuse-contrib/memfs/pathlib"
)

type recordingMetrics struct {
	telemetry.MetricHandle
	posted, overflowed int64
}

func (r *recordingMetrics) WatchEventPosted()     { r.posted++ }
func (r *recordingMetrics) WatchEventOverflowed() { r.overflowed++ }

// neverTicks lets a Service start its background poller without it ever
// firing on its own; tests drive diffing directly via tick().
func neverTicks() <-chan struct{} { return make(chan struct{}) }

// directReader snapshots a Directory with no locking of its own, standing
// in for vfsview.View's store-lock-guarded implementation in tests that
// never mutate the directory concurrently with a tick.
type directReader struct{}

func (directReader) SnapshotModifiedTimes(dir *inode.Directory) map[string]int64 {
	return dir.SnapshotModifiedTimes()
}

func newService() *Service {
	return New(clock.NewSimulatedClock(time.Unix(0, 0)), neverTicks, directReader{})
}

func newDir() (*inode.Factory, *inode.Directory) {
	f := inode.NewFactory(clock.NewSimulatedClock(time.Unix(0, 0)))
	return f, inode.NewRootDirectory(f, time.Now())
}

func TestKey_PostCoalescesIntoSingleOverflow(t *testing.T) {
	k := &Key{kinds: map[EventKind]bool{Create: true}}

	for i := 0; i < maxQueueLen+5; i++ {
		k.post(Create, "x")
	}
	// maxQueueLen regular events plus exactly one coalesced Overflow
	// sentinel appended alongside them, per §4.I step 3.
	require.Len(t, k.queue, maxQueueLen+1)
	assert.Equal(t, Overflow, k.queue[maxQueueLen].Kind)
	assert.True(t, k.overflow)
}

func TestKey_Poll_ClearsQueueAndOverflow(t *testing.T) {
	k := &Key{}
	k.post(Create, "a")
	k.overflow = true

	events := k.Poll()
	assert.Len(t, events, 1)
	assert.Empty(t, k.queue)
	assert.False(t, k.overflow)
}

func TestKey_Signal_TransitionsReadyToSignalled(t *testing.T) {
	s := newService()
	k := &Key{service: s, state: stateReady}

	k.signal()
	assert.Equal(t, stateSignalled, k.state)

	select {
	case got := <-s.ready:
		assert.Same(t, k, got)
	default:
		t.Fatal("expected key to be enqueued on the ready channel")
	}
}

func TestKey_Signal_SetsPendingWhenAlreadySignalled(t *testing.T) {
	s := newService()
	k := &Key{service: s, state: stateSignalled}

	k.signal()
	assert.True(t, k.pending)
	assert.Equal(t, stateSignalled, k.state)
}

func TestKey_Reset_ReadiesWithoutPending(t *testing.T) {
	k := &Key{state: stateSignalled}
	k.Reset()
	assert.Equal(t, stateReady, k.state)
}

func TestKey_Reset_ResignalsWhenPending(t *testing.T) {
	k := &Key{state: stateSignalled, pending: true}
	k.Reset()
	assert.Equal(t, stateSignalled, k.state)
	assert.False(t, k.pending)
}

func TestKey_Cancel_MarksInvalidAndDeregisters(t *testing.T) {
	s := newService()
	_, dir := newDir()
	key, err := s.Register(dir, "/", Create)
	require.NoError(t, err)

	key.Cancel()
	assert.False(t, key.valid())

	s.mu.Lock()
	_, stillTracked := s.keys[key.id]
	s.mu.Unlock()
	assert.False(t, stillTracked)
}

func TestRegister_RefusedAfterClose(t *testing.T) {
	s := newService()
	require.NoError(t, s.Close())

	_, dir := newDir()
	_, err := s.Register(dir, "/", Create)
	assert.Error(t, err)
}

func TestTick_PostsCreateDeleteAndModifyEvents(t *testing.T) {
	s := newService()
	f, dir := newDir()
	nz := pathlib.NewNormalizer(&config.Config{})

	now := time.Now()
	keep := inode.NewDirectory(f, now)
	stale := inode.NewDirectory(f, now)
	require.NoError(t, dir.Link(nz.NewName("keep"), keep))
	require.NoError(t, dir.Link(nz.NewName("stale"), stale))

	key, err := s.Register(dir, "/", Create, Delete, Modify)
	require.NoError(t, err)

	// Remove "stale", touch "keep"'s mtime, and add "new".
	_, err = dir.Unlink(nz.NewName("stale"))
	require.NoError(t, err)
	keep.SetLastModifiedTime(now.Add(time.Second))
	added := inode.NewDirectory(f, now)
	require.NoError(t, dir.Link(nz.NewName("new"), added))

	s.tick()

	events := key.Poll()
	var gotCreate, gotDelete, gotModify bool
	for _, e := range events {
		switch e.Kind {
		case Create:
			if e.Name == "new" {
				gotCreate = true
			}
		case Delete:
			if e.Name == "stale" {
				gotDelete = true
			}
		case Modify:
			if e.Name == "keep" {
				gotModify = true
			}
		}
	}
	assert.True(t, gotCreate, "expected a Create event for \"new\"")
	assert.True(t, gotDelete, "expected a Delete event for \"stale\"")
	assert.True(t, gotModify, "expected a Modify event for \"keep\"")
	assert.Equal(t, stateSignalled, key.state)
}

func TestTick_IgnoresKindsNotSubscribedTo(t *testing.T) {
	s := newService()
	f, dir := newDir()
	nz := pathlib.NewNormalizer(&config.Config{})

	key, err := s.Register(dir, "/", Delete) // subscribes only to Delete
	require.NoError(t, err)

	require.NoError(t, dir.Link(nz.NewName("new"), inode.NewDirectory(f, time.Now())))
	s.tick()

	assert.Empty(t, key.Poll())
}

func TestClose_UnblocksTake(t *testing.T) {
	s := newService()
	require.NoError(t, s.Close())

	_, err := s.Take()
	assert.Error(t, err)
}

func TestPoll_ReturnsNilWithoutBlockingWhenEmpty(t *testing.T) {
	s := newService()
	k, err := s.Poll()
	assert.NoError(t, err)
	assert.Nil(t, k)
}

func TestSetMetrics_CountsPostedAndOverflowedEvents(t *testing.T) {
	s := newService()
	m := &recordingMetrics{MetricHandle: telemetry.NewNoopMetrics()}
	s.SetMetrics(m)

	k := &Key{kinds: map[EventKind]bool{Create: true}, service: s}
	for i := 0; i < maxQueueLen+3; i++ {
		k.post(Create, "x")
	}

	assert.EqualValues(t, maxQueueLen, m.posted)
	assert.EqualValues(t, 1, m.overflowed, "repeated overflow while already overflowed must not double count")
}

func TestPoll_DeliversOverflowEventAlongsideQueuedEvents(t *testing.T) {
	k := &Key{kinds: map[EventKind]bool{Create: true}}
	for i := 0; i < maxQueueLen+5; i++ {
		k.post(Create, "x")
	}

	events := k.Poll()
	require.Len(t, events, maxQueueLen+1)

	var sawOverflow bool
	for _, e := range events {
		if e.Kind == Overflow {
			sawOverflow = true
			assert.Empty(t, e.Name)
		}
	}
	assert.True(t, sawOverflow, "Poll must deliver the coalesced Overflow event, not just the 256 regular events")
}
