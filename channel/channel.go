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

// Package channel implements the positioned, seekable, cancellable I/O
// layer of §4.G: a FileChannel bound to one (RegularFile, open-option set)
// pair, plus thin InputStream/OutputStream adapters. Blocking-call
// cancellation is grounded in jacobsa/fuse's connection.go, which records a
// context.CancelFunc per in-flight request and invokes it on interrupt or
// teardown; here every blocking read/write registers its cancel func in the
// channel's own blockers map instead of a per-connection one.
package channel

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jacobsa/syncutil"

	"github.com/gcsfuse-contrib/memfs/clock"
	"github.com/gcsfuse-contrib/memfs/errs"
	"github.com/gcsfuse-contrib/memfs/fsstate"
	"github.com/gcsfuse-contrib/memfs/inode"
	"github.com/gcsfuse-contrib/memfs/internal/telemetry"
)

// FileChannel is a seekable, positioned handle onto a RegularFile (§4.G).
type FileChannel struct {
	id    uuid.UUID
	file  *inode.RegularFile
	clock clock.Clock
	state *fsstate.State

	opts OpenOptions

	// monitor guards position and blockers, matching §5 lock level 4
	// ("per-channel monitor"). An InvariantMutex so a negative position
	// panics immediately under lock, per fs/inode/file.go's own use of
	// syncutil.InvariantMutex for its per-file lock.
	monitor  syncutil.InvariantMutex
	position int64
	closed   bool
	blockers map[uuid.UUID]context.CancelFunc

	metrics telemetry.MetricHandle
}

func (c *FileChannel) checkInvariants() {
	if c.position < 0 {
		panic(fmt.Sprintf("negative channel position: %d", c.position))
	}
}

// New constructs a channel over file with the given option set, registering
// it with state so a filesystem Close drains it. If Append is set, the
// channel's initial position is the file's current size.
func New(file *inode.RegularFile, opts OpenOptions, c clock.Clock, state *fsstate.State) (*FileChannel, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ch := &FileChannel{
		id:       uuid.New(),
		file:     file,
		clock:    c,
		state:    state,
		opts:     opts,
		blockers: make(map[uuid.UUID]context.CancelFunc),
		metrics:  telemetry.NewNoopMetrics(),
	}
	ch.monitor = syncutil.NewInvariantMutex(ch.checkInvariants)

	if opts.Has(Append) {
		file.ContentLock.RLock()
		ch.position = file.Size()
		file.ContentLock.RUnlock()
	}

	if err := state.Register(ch); err != nil {
		return nil, err
	}
	file.Opened()
	return ch, nil
}

// SetMetrics swaps in a MetricHandle that Read/Write/Close report byte
// counts and open-channel deltas to. Must be called before the channel is
// shared across goroutines; there is no synchronization between this and
// concurrent Read/Write calls.
func (c *FileChannel) SetMetrics(m telemetry.MetricHandle) {
	c.metrics = m
	c.metrics.OpenChannelsChanged(1)
}

// beginBlocking registers a cancel func under a fresh id and returns a
// context plus a cleanup function the caller must defer, mirroring
// Connection.beginOp/finishOp in connection.go.
func (c *FileChannel) beginBlocking() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New()

	c.monitor.Lock()
	c.blockers[id] = cancel
	c.monitor.Unlock()

	return ctx, func() {
		c.monitor.Lock()
		delete(c.blockers, id)
		c.monitor.Unlock()
		cancel()
	}
}

func (c *FileChannel) checkOpen() error {
	c.monitor.Lock()
	defer c.monitor.Unlock()
	if c.closed {
		return errs.New("channel", errs.Closed, "")
	}
	return nil
}

// Read reads at the channel's current position, advancing it, per §4.G.
func (c *FileChannel) Read(buf []byte) (int, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	if !c.opts.Has(Read) {
		return 0, errs.New("read", errs.UnsupportedOption, "")
	}

	c.monitor.Lock()
	pos := c.position
	c.monitor.Unlock()

	n, err := c.ReadAt(buf, pos)
	if n > 0 {
		c.monitor.Lock()
		c.position = pos + int64(n)
		c.monitor.Unlock()
	}
	return n, err
}

// ReadAt performs a positioned read without touching the channel position
// (§4.G "read(buf, pos)").
func (c *FileChannel) ReadAt(buf []byte, pos int64) (int, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	if !c.opts.Has(Read) {
		return 0, errs.New("read", errs.UnsupportedOption, "")
	}

	ctx, done := c.beginBlocking()
	defer done()

	if err := acquireRead(ctx, &c.file.ContentLock); err != nil {
		return 0, err
	}
	defer c.file.ContentLock.RUnlock()

	n, err := c.file.ReadAt(buf, pos)
	if err == nil || n > 0 {
		c.file.SetLastAccessTime(c.clock.Now())
		c.metrics.BytesRead(int64(n))
	}
	return n, err
}

// Write writes at the channel's current position (or at the file's size,
// if Append is set), advancing the position, per §4.G.
func (c *FileChannel) Write(buf []byte) (int, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	if !c.opts.Has(Write) {
		return 0, errs.New("write", errs.UnsupportedOption, "")
	}

	ctx, done := c.beginBlocking()
	defer done()

	if err := acquireWrite(ctx, &c.file.ContentLock); err != nil {
		return 0, err
	}
	defer c.file.ContentLock.Unlock()

	pos := c.writePosition()
	n, err := c.file.WriteAt(buf, pos)
	if n > 0 {
		c.file.SetLastModifiedTime(c.clock.Now())
		c.metrics.BytesWritten(int64(n))
		c.monitor.Lock()
		c.position = pos + int64(n)
		c.monitor.Unlock()
	}
	return n, err
}

// writePosition computes where an append-mode write should land, reading
// size under the file's write lock per §5's ordering guarantee for
// concurrent appends. Callers must already hold ContentLock for write.
func (c *FileChannel) writePosition() int64 {
	if !c.opts.Has(Append) {
		c.monitor.Lock()
		defer c.monitor.Unlock()
		return c.position
	}
	return c.file.Size()
}

// WriteAt performs a positioned write. In append mode this still advances
// the channel position, per §4.G's "write(buf, pos)" row.
func (c *FileChannel) WriteAt(buf []byte, pos int64) (int, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	if !c.opts.Has(Write) {
		return 0, errs.New("write", errs.UnsupportedOption, "")
	}

	ctx, done := c.beginBlocking()
	defer done()

	if err := acquireWrite(ctx, &c.file.ContentLock); err != nil {
		return 0, err
	}
	defer c.file.ContentLock.Unlock()

	writeAt := pos
	if c.opts.Has(Append) {
		writeAt = c.file.Size()
	}

	n, err := c.file.WriteAt(buf, writeAt)
	if n > 0 {
		c.file.SetLastModifiedTime(c.clock.Now())
		c.metrics.BytesWritten(int64(n))
		if c.opts.Has(Append) {
			c.monitor.Lock()
			c.position = writeAt + int64(n)
			c.monitor.Unlock()
		}
	}
	return n, err
}

// Position returns the channel's current position.
func (c *FileChannel) Position() int64 {
	c.monitor.Lock()
	defer c.monitor.Unlock()
	return c.position
}

// SetPosition sets the channel's current position (§4.G: "no blocking").
func (c *FileChannel) SetPosition(p int64) {
	c.monitor.Lock()
	defer c.monitor.Unlock()
	c.position = p
}

// Size snapshots the file's current size under its read lock.
func (c *FileChannel) Size() (int64, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	c.file.ContentLock.RLock()
	defer c.file.ContentLock.RUnlock()
	return c.file.Size(), nil
}

// Truncate shrinks the file and clamps the channel position if it now
// exceeds the new size, per §4.G.
func (c *FileChannel) Truncate(n int64) error {
	if err := c.checkOpen(); err != nil {
		return err
	}

	ctx, done := c.beginBlocking()
	defer done()

	if err := acquireWrite(ctx, &c.file.ContentLock); err != nil {
		return err
	}
	defer c.file.ContentLock.Unlock()

	shrunk, err := c.file.Truncate(n)
	if err != nil {
		return err
	}
	if shrunk {
		c.file.SetLastModifiedTime(c.clock.Now())
		c.monitor.Lock()
		if c.position > n {
			c.position = n
		}
		c.monitor.Unlock()
	}
	return nil
}

// TransferTo reads up to n bytes starting at pos and writes them into dst,
// per §4.G's "transferTo" (a positioned read fanned out to another
// channel).
func (c *FileChannel) TransferTo(pos, n int64, dst *FileChannel) (int64, error) {
	buf := make([]byte, n)
	read, err := c.ReadAt(buf, pos)
	if read == 0 {
		return 0, err
	}
	written, werr := dst.Write(buf[:read])
	if werr != nil {
		return int64(written), werr
	}
	return int64(written), nil
}

// TransferFrom reads up to n bytes from src and writes them at pos (or, in
// append mode, at the file's size), per §4.G's "transferFrom".
func (c *FileChannel) TransferFrom(src *FileChannel, pos, n int64) (int64, error) {
	buf := make([]byte, n)
	read, err := src.Read(buf)
	if read == 0 {
		return 0, err
	}
	written, werr := c.WriteAt(buf[:read], pos)
	if werr != nil {
		return int64(written), werr
	}
	return int64(written), nil
}

// LockToken is the no-op advisory lock handle of §4.G ("lock/tryLock
// return a no-op lock token valid until released"), since permission and
// range locking are not enforced (Non-goal: access-control enforcement).
type LockToken struct{ released bool }

func (l *LockToken) Release() { l.released = true }

// Lock and TryLock both return immediately since no other channel
// contends for an advisory range lock in this implementation.
func (c *FileChannel) Lock() (*LockToken, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	return &LockToken{}, nil
}

func (c *FileChannel) TryLock() (*LockToken, error) { return c.Lock() }

// Close interrupts every blocking call on this channel, marks it closed,
// and deregisters it from FileSystemState. Idempotent, per §4.G.
func (c *FileChannel) Close() error {
	c.monitor.Lock()
	if c.closed {
		c.monitor.Unlock()
		return nil
	}
	c.closed = true
	blockers := c.blockers
	c.blockers = nil
	c.monitor.Unlock()

	for _, cancel := range blockers {
		cancel()
	}

	c.file.Closed()
	c.state.Deregister(c)
	c.metrics.OpenChannelsChanged(-1)
	return nil
}
