// Copyright 2015 Google Inc. All Rights Reserved.
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

// Package watch implements the polling directory watch service of §4.I: a
// single periodic task diffs name->mtime snapshots of every registered
// directory and posts CREATE/DELETE/MODIFY events to each key's bounded
// queue. Grounded in clock.Clock for a testable tick and in
// inode.Directory.SnapshotModifiedTimes for the diffed state, read through
// a DirectoryReader (typically *vfsview.View) so every tick is serialized
// against concurrent namespace mutations rather than racing the store lock.
package watch

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gcsfuse-contrib/memfs/clock"
	"github.com/gcsfuse-contrib/memfs/errs"
	"github.com/gcsfuse-contrib/memfs/inode"
	"github.com/gcsfuse-contrib/memfs/internal/telemetry"
)

// EventKind is one of the three event classes a key can subscribe to.
type EventKind int

const (
	Create EventKind = iota
	Delete
	Modify
	Overflow
)

// Event is a single posted change, or the coalesced Overflow sentinel
// (Name == "" in that case).
type Event struct {
	Kind EventKind
	Name string
}

const maxQueueLen = 256

type keyState int

const (
	stateReady keyState = iota
	stateSignalled
	stateCancelled
)

// Key is a single registration: a directory, the event kinds it
// subscribes to, and its own bounded event queue (§4.I).
type Key struct {
	id      uuid.UUID
	dir     *inode.Directory
	path    string
	kinds   map[EventKind]bool
	service *Service

	mu       sync.Mutex
	state    keyState
	queue    []Event
	overflow bool
	pending  bool // a signal arrived while already SIGNALLED; re-signal on reset
}

// Poll returns and clears this key's queued events, whatever the key's
// signal state.
func (k *Key) Poll() []Event {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := k.queue
	k.queue = nil
	k.overflow = false
	return out
}

// Reset implements the key state machine's SIGNALLED -> READY transition,
// re-signalling immediately if events arrived while still SIGNALLED
// (§4.I's state diagram).
func (k *Key) Reset() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.state == stateCancelled {
		return
	}
	if k.pending {
		k.pending = false
		if k.service != nil {
			k.service.enqueueReady(k)
		}
		return // stays SIGNALLED
	}
	k.state = stateReady
}

// Cancel marks the key invalid and deregisters it from the service
// (§4.I).
func (k *Key) Cancel() {
	k.mu.Lock()
	k.state = stateCancelled
	k.mu.Unlock()
	k.service.cancel(k)
}

func (k *Key) valid() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.state != stateCancelled
}

// post appends one event to the key's queue, coalescing into a single
// Overflow event emitted alongside the queued events once the 256-entry
// bound is exceeded, per §4.I step 3. The Overflow sentinel itself is
// appended once, at the moment the bound is first exceeded; further posts
// while still overflowed are no-ops so Poll only ever sees it once.
func (k *Key) post(kind EventKind, name string) (posted bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.queue) >= maxQueueLen {
		if !k.overflow {
			k.overflow = true
			k.queue = append(k.queue, Event{Kind: Overflow})
			if k.service != nil {
				k.service.metrics.WatchEventOverflowed()
			}
		}
		return true
	}
	k.queue = append(k.queue, Event{Kind: kind, Name: name})
	if k.service != nil {
		k.service.metrics.WatchEventPosted()
	}
	return true
}

// signal transitions READY->SIGNALLED (or records a pending re-signal if
// already SIGNALLED) and enqueues the key on the service's ready channel
// at most once until Reset, per §4.I step 4.
func (k *Key) signal() {
	k.mu.Lock()
	switch k.state {
	case stateReady:
		k.state = stateSignalled
	case stateSignalled:
		k.pending = true
		k.mu.Unlock()
		return
	default:
		k.mu.Unlock()
		return
	}
	k.mu.Unlock()

	k.service.enqueueReady(k)
}

// DirectoryReader snapshots a directory's name->last-modified-time table
// under whatever lock serializes it against concurrent namespace mutations.
// inode.Directory's bucket table has no lock of its own (see
// inode/regular_file.go's comment on fileCommon: the store lock, §5 level
// 2, is the only thing protecting a Directory's structural fields), so the
// poller must never call Directory.SnapshotModifiedTimes directly — it has
// to go through whatever holds that lock. Satisfied by *vfsview.View,
// mirroring fs/fs.go serializing every inode read through fs.mu.
type DirectoryReader interface {
	SnapshotModifiedTimes(dir *inode.Directory) map[string]int64
}

// Service is the PollingWatchService of §4.I.
type Service struct {
	clock    clock.Clock
	interval func() <-chan struct{}
	reader   DirectoryReader

	mu        sync.Mutex
	keys      map[uuid.UUID]*Key
	snapshots map[uuid.UUID]map[string]int64
	started   bool
	stop      chan struct{}
	closed    bool

	ready chan *Key

	metrics telemetry.MetricHandle
}

// New constructs a watch service that ticks every interval (read from the
// clock injected so tests can drive it deterministically), diffing
// directories via reader rather than reading them directly so every poll
// tick is serialized against concurrent namespace mutations (§5 "all
// lookups take the store read lock").
func New(c clock.Clock, interval func() <-chan struct{}, reader DirectoryReader) *Service {
	return &Service{
		clock:     c,
		interval:  interval,
		reader:    reader,
		keys:      make(map[uuid.UUID]*Key),
		snapshots: make(map[uuid.UUID]map[string]int64),
		ready:     make(chan *Key, 64),
		metrics:   telemetry.NewNoopMetrics(),
	}
}

// SetMetrics swaps in a MetricHandle that post/overflow events report to.
func (s *Service) SetMetrics(m telemetry.MetricHandle) { s.metrics = m }

// Register subscribes dir (identified by path, for event context) to the
// given event kinds, taking an immediate snapshot and starting the
// background poller on the first registration (§4.I "Register").
func (s *Service) Register(dir *inode.Directory, path string, kinds ...EventKind) (*Key, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errs.New("watch", errs.Closed, path)
	}

	set := make(map[EventKind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	k := &Key{id: uuid.New(), dir: dir, path: path, kinds: set, service: s}
	s.keys[k.id] = k
	s.snapshots[k.id] = s.reader.SnapshotModifiedTimes(dir)

	first := !s.started
	if first {
		s.started = true
		s.stop = make(chan struct{})
	}
	s.mu.Unlock()

	if first {
		go s.run()
	}
	return k, nil
}

func (s *Service) cancel(k *Key) {
	s.mu.Lock()
	delete(s.keys, k.id)
	delete(s.snapshots, k.id)
	s.mu.Unlock()
}

// Take blocks until a signalled key is available or the service is closed.
func (s *Service) Take() (*Key, error) {
	k, ok := <-s.ready
	if !ok {
		return nil, errs.New("watch", errs.Closed, "")
	}
	return k, nil
}

// Poll returns a signalled key without blocking, or (nil, nil) if none are
// ready.
func (s *Service) Poll() (*Key, error) {
	select {
	case k, ok := <-s.ready:
		if !ok {
			return nil, errs.New("watch", errs.Closed, "")
		}
		return k, nil
	default:
		return nil, nil
	}
}

func (s *Service) enqueueReady(k *Key) {
	select {
	case s.ready <- k:
	default:
		// The ready channel's own buffer is generous relative to the number
		// of live keys; a full buffer here means many keys signalled between
		// Take calls, which is fine — the key stays SIGNALLED and will be
		// picked up whenever a consumer next calls Take/Poll and re-sends.
		go func() { s.ready <- k }()
	}
}

func (s *Service) run() {
	ticker := s.interval()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker:
			s.tick()
		}
	}
}

// tick implements §4.I's "Poll tick" algorithm for every live key, diffing
// each key's directory independently and in parallel: every key owns its
// own snapshot slot and queue, so the only shared state (s.snapshots,
// s.ready) is already guarded by its own lock.
func (s *Service) tick() {
	s.mu.Lock()
	keys := make([]*Key, 0, len(s.keys))
	for _, k := range s.keys {
		keys = append(keys, k)
	}
	s.mu.Unlock()

	g, _ := errgroup.WithContext(context.Background())
	for _, k := range keys {
		k := k
		if !k.valid() {
			continue
		}
		g.Go(func() error {
			s.tickOne(k)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) tickOne(k *Key) {
	newSnap := s.reader.SnapshotModifiedTimes(k.dir)

	s.mu.Lock()
	oldSnap := s.snapshots[k.id]
	s.mu.Unlock()

	posted := false
	if k.kinds[Create] {
		for name := range newSnap {
			if _, existed := oldSnap[name]; !existed {
				k.post(Create, name)
				posted = true
			}
		}
	}
	if k.kinds[Delete] {
		for name := range oldSnap {
			if _, exists := newSnap[name]; !exists {
				k.post(Delete, name)
				posted = true
			}
		}
	}
	if k.kinds[Modify] {
		for name, mtime := range newSnap {
			if old, existed := oldSnap[name]; existed && old != mtime {
				k.post(Modify, name)
				posted = true
			}
		}
	}

	s.mu.Lock()
	s.snapshots[k.id] = newSnap
	s.mu.Unlock()

	if posted {
		k.signal()
	}
}

// Close cancels every key, stops the poller, and unblocks any caller
// blocked in Take by closing the ready channel (§4.I).
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	started := s.started
	for _, k := range s.keys {
		k.mu.Lock()
		k.state = stateCancelled
		k.mu.Unlock()
	}
	s.mu.Unlock()

	if started {
		close(s.stop)
	}
	close(s.ready)
	return nil
}
