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

package inode

import (
	"sync"
	"time"

	"github.com/gcsfuse-contrib/memfs/content"
)

// RegularFile is a block-list-backed byte store inode (§4.B), generalizing
// fs/inode.FileInode (which wraps gcsproxy.MutableContent over a GCS
// object) to a local content.File over a shared content.HeapDisk.
//
// Its content is guarded by ContentLock, a dedicated RW-lock distinct from
// fileCommon's embedded sync.Mutex (which Directory's Link and Unlink do not
// take; the store lock, §5 level 2, is the only thing protecting a
// Directory's structural fields): §5's lock hierarchy places the store lock and the
// per-RegularFile content lock at different levels, so they must be
// different locks even when, as here, both live on the same struct.
type RegularFile struct {
	fileCommon

	ContentLock sync.RWMutex
	content     *content.File

	openCount int
	deleted   bool
}

func NewRegularFile(f *Factory, disk *content.HeapDisk, now time.Time) *RegularFile {
	return &RegularFile{
		fileCommon: newFileCommon(f.allocID(), now),
		content:    content.NewFile(disk),
	}
}

func (r *RegularFile) IsDirectory() bool    { return false }
func (r *RegularFile) IsRegularFile() bool  { return true }
func (r *RegularFile) IsSymbolicLink() bool { return false }

var _ File = (*RegularFile)(nil)
var _ Destroyer = (*RegularFile)(nil)

// Size returns the file's current logical size.
func (r *RegularFile) Size() int64 { return r.content.Size() }

// ReadAt, WriteAt and Truncate delegate to the backing content.File. The
// caller (a Channel) is responsible for holding ContentLock for the
// duration, per §4.B's "RW-lock" contract and §4.G's per-op lock column.
func (r *RegularFile) ReadAt(buf []byte, p int64) (int, error)  { return r.content.ReadAt(buf, p) }
func (r *RegularFile) WriteAt(buf []byte, p int64) (int, error) { return r.content.WriteAt(buf, p) }
func (r *RegularFile) Truncate(n int64) (bool, error)           { return r.content.Truncate(n) }

// CopyContentTo byte-copies this file's blocks onto other, per §4.B.
func (r *RegularFile) CopyContentTo(other *RegularFile) error {
	return r.content.CopyContentTo(other.content)
}

// Opened records a new open handle (§4.B "open_count / deleted").
func (r *RegularFile) Opened() {
	r.openCount++
}

// Closed releases one open handle and, if this was the last one and the
// file has been unlinked in the meantime, frees its content (§3 invariant
// 8, §4.B delete-on-last-close).
func (r *RegularFile) Closed() {
	r.openCount--
	if r.openCount == 0 && r.deleted {
		r.content.FreeAll()
	}
}

// unlinked overrides fileCommon.unlinked to implement delete-on-last-close:
// reaching zero links marks the file deleted rather than freeing content
// immediately if it is still open (§3 invariant 8).
func (r *RegularFile) unlinked() bool {
	destroyed := r.fileCommon.unlinked()
	if destroyed {
		r.deleted = true
	}
	return destroyed
}

// destroy frees content immediately if there is no open handle; otherwise
// defers to the last Close (§4.B).
func (r *RegularFile) destroy() {
	if r.openCount == 0 {
		r.content.FreeAll()
	}
}
