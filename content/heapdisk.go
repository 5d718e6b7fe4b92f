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

// Package content implements the block-pool and positioned-byte-store layer
// (§4.A HeapDisk, §4.B RegularFile) that regular files allocate their bytes
// from. It plays the role gcsproxy.MutableContent and lease.ReadWriteLease
// play in the teacher: a dirty-tracked, positioned byte store behind an
// explicit external lock, except the backing bytes are local heap blocks
// rather than a GCS-object-backed lease.
package content

import (
	"fmt"

	"github.com/jacobsa/syncutil"

	"github.com/gcsfuse-contrib/memfs/errs"
	"github.com/gcsfuse-contrib/memfs/internal/telemetry"
)

// HeapDisk is a shared pool of fixed-size blocks. All RegularFiles sharing a
// HeapDisk draw their storage from it and return blocks to its free cache on
// truncate/free, enforcing a global quota (§4.A).
type HeapDisk struct {
	blockSize           int
	maxBlockCount       int
	maxCachedBlockCount int

	// mu is the innermost lock in §5's hierarchy; an InvariantMutex so a
	// quota or cache-bound violation panics immediately under lock instead
	// of silently corrupting allocatedBlockCount, matching
	// fs/inode/dir.go's/fs/inode/file.go's own use of syncutil.InvariantMutex.
	mu                  syncutil.InvariantMutex
	allocatedBlockCount int
	cache               [][]byte // free blocks available for reuse

	metrics telemetry.MetricHandle
}

// NewHeapDisk creates a disk with the given block size and a total-size /
// cache-size quota expressed in bytes. Both are rounded down to whole
// blocks.
func NewHeapDisk(blockSize int, maxSize, maxCacheSize int64) *HeapDisk {
	if blockSize <= 0 {
		blockSize = 1
	}
	d := &HeapDisk{
		blockSize:           blockSize,
		maxBlockCount:       int(maxSize / int64(blockSize)),
		maxCachedBlockCount: int(maxCacheSize / int64(blockSize)),
		metrics:             telemetry.NewNoopMetrics(),
	}
	d.mu = syncutil.NewInvariantMutex(d.checkInvariants)
	return d
}

// checkInvariants enforces §4.A's quota and cache bounds; a violation here
// means a bug in Allocate/Free's bookkeeping, not bad caller input.
func (d *HeapDisk) checkInvariants() {
	if d.allocatedBlockCount < 0 || d.allocatedBlockCount > d.maxBlockCount {
		panic(fmt.Sprintf("allocatedBlockCount %d out of range [0, %d]", d.allocatedBlockCount, d.maxBlockCount))
	}
	if len(d.cache) > d.maxCachedBlockCount {
		panic(fmt.Sprintf("cache length %d exceeds maxCachedBlockCount %d", len(d.cache), d.maxCachedBlockCount))
	}
}

// SetMetrics swaps in a MetricHandle that Allocate/Free report block counts
// to. The zero value (before this is called) is a no-op handle.
func (d *HeapDisk) SetMetrics(m telemetry.MetricHandle) { d.metrics = m }

// BlockSize returns the fixed size, in bytes, of every block this disk
// hands out.
func (d *HeapDisk) BlockSize() int { return d.blockSize }

// Allocate appends count freshly-available blocks to file's block list,
// reusing cached blocks before zeroing new ones, per §4.A.
func (d *HeapDisk) Allocate(file *BlockList, count int) error {
	if count <= 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.allocatedBlockCount+count > d.maxBlockCount {
		return errs.New("allocate", errs.OutOfSpace, "")
	}

	reuse := count
	if reuse > len(d.cache) {
		reuse = len(d.cache)
	}

	for i := 0; i < reuse; i++ {
		n := len(d.cache)
		blk := d.cache[n-1]
		d.cache = d.cache[:n-1]
		file.blocks = append(file.blocks, blk)
	}
	for i := reuse; i < count; i++ {
		file.blocks = append(file.blocks, make([]byte, d.blockSize))
	}

	file.blockCount += count
	d.allocatedBlockCount += count
	d.metrics.BlocksAllocated(int64(count))
	return nil
}

// Free moves up to count of file's trailing blocks into the shared cache
// (bounded by maxCachedBlockCount) and discards the rest. A zero or negative
// count frees the entire file. Decrements allocatedBlockCount by the total
// number of blocks removed from the file.
func (d *HeapDisk) Free(file *BlockList, count int) {
	if count <= 0 || count > file.blockCount {
		count = file.blockCount
	}
	if count == 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cacheable := d.maxCachedBlockCount - len(d.cache)
	if cacheable < 0 {
		cacheable = 0
	}
	if cacheable > count {
		cacheable = count
	}

	start := file.blockCount - count
	for i := 0; i < cacheable; i++ {
		d.cache = append(d.cache, file.blocks[start+i])
	}

	file.blocks = file.blocks[:start]
	file.blockCount -= count
	d.allocatedBlockCount -= count
	d.metrics.BlocksFreed(int64(count))
}

// TotalSpace returns the disk's configured capacity in bytes.
func (d *HeapDisk) TotalSpace() int64 {
	return int64(d.maxBlockCount) * int64(d.blockSize)
}

// UnallocatedSpace returns the remaining capacity in bytes.
func (d *HeapDisk) UnallocatedSpace() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.maxBlockCount-d.allocatedBlockCount) * int64(d.blockSize)
}

// BlockList is the block-list shape shared by RegularFile and HeapDisk's own
// internal free cache (§4.A: "itself a RegularFile-shaped block list but
// used only via block-list ops"). RegularFile embeds one; HeapDisk's cache
// does not need a full BlockList since it is just a slice of spare blocks.
type BlockList struct {
	blocks     [][]byte
	blockCount int
}
