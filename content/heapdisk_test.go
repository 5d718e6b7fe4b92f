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

package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcsfuse-contrib/memfs/internal/telemetry"
)

type recordingMetrics struct {
	telemetry.MetricHandle
	allocated, freed int64
}

func (r *recordingMetrics) BlocksAllocated(count int64) { r.allocated += count }
func (r *recordingMetrics) BlocksFreed(count int64)     { r.freed += count }

func TestHeapDisk_SetMetricsReportsAllocateAndFree(t *testing.T) {
	d := NewHeapDisk(4, 64, 64)
	m := &recordingMetrics{MetricHandle: telemetry.NewNoopMetrics()}
	d.SetMetrics(m)

	var list BlockList
	require.NoError(t, d.Allocate(&list, 3))
	assert.EqualValues(t, 3, m.allocated)

	d.Free(&list, 2)
	assert.EqualValues(t, 2, m.freed)
}

func TestHeapDisk_TotalAndUnallocatedSpace(t *testing.T) {
	d := NewHeapDisk(4, 16, 16) // 4 blocks total

	assert.EqualValues(t, 16, d.TotalSpace())
	assert.EqualValues(t, 16, d.UnallocatedSpace())

	var list BlockList
	require.NoError(t, d.Allocate(&list, 2))
	assert.EqualValues(t, 8, d.UnallocatedSpace())
}

func TestHeapDisk_AllocateRefusesOverQuota(t *testing.T) {
	d := NewHeapDisk(4, 8, 8) // 2 blocks total

	var list BlockList
	require.NoError(t, d.Allocate(&list, 2))

	err := d.Allocate(&list, 1)
	assert.Error(t, err)
}

func TestHeapDisk_AllocateReusesCachedBlocksBeforeZeroing(t *testing.T) {
	d := NewHeapDisk(4, 1<<20, 4) // cache holds 1 block

	var a BlockList
	require.NoError(t, d.Allocate(&a, 1))
	copy(a.blocks[0], []byte("abcd"))
	d.Free(&a, 1) // block goes into the cache, not discarded

	var b BlockList
	require.NoError(t, d.Allocate(&b, 1))
	assert.Equal(t, []byte("abcd"), b.blocks[0], "reused block keeps its stale bytes until overwritten")
}

func TestHeapDisk_FreeZeroOrNegativeCountFreesWholeFile(t *testing.T) {
	d := NewHeapDisk(4, 1<<20, 1<<20)

	var list BlockList
	require.NoError(t, d.Allocate(&list, 3))
	d.Free(&list, 0)

	assert.Equal(t, 0, list.blockCount)
	assert.EqualValues(t, 1<<20, d.UnallocatedSpace())
}

func TestHeapDisk_FreeDiscardsBeyondCacheCapacity(t *testing.T) {
	d := NewHeapDisk(4, 1<<20, 8) // cache holds 2 blocks

	var list BlockList
	require.NoError(t, d.Allocate(&list, 5))
	d.Free(&list, 5)

	assert.Len(t, d.cache, 2, "cache is bounded by maxCachedBlockCount regardless of how many blocks were freed")
	assert.EqualValues(t, 1<<20, d.UnallocatedSpace())
}

func TestHeapDisk_FreePartialKeepsLeadingBlocks(t *testing.T) {
	d := NewHeapDisk(4, 1<<20, 1<<20)

	var list BlockList
	require.NoError(t, d.Allocate(&list, 3))
	d.Free(&list, 1)

	assert.Equal(t, 2, list.blockCount)
	assert.Len(t, list.blocks, 2)
}

func TestHeapDisk_ZeroBlockSizeDefaultsToOne(t *testing.T) {
	d := NewHeapDisk(0, 10, 10)
	assert.Equal(t, 1, d.BlockSize())
}
