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

// Package inode implements the file-object model (§3, §4.B-E): a File
// interface shared by Directory, RegularFile and SymbolicLink, each
// carrying a monotonic id, a link count, timestamps and an attribute
// table, generalizing the id/lookup-count/checkInvariants idiom of
// fs/inode.Inode and fs/inode.DirInode from the teacher to a local,
// in-memory backing store rather than a GCS bucket.
package inode

import (
	"sync"
	"time"

	"github.com/gcsfuse-contrib/memfs/clock"
)

// ID uniquely identifies an inode within one filesystem instance (§3:
// "monotonically increasing integer id ... used as fileKey").
type ID uint64

// File is the common interface implemented by Directory, RegularFile and
// SymbolicLink. It intentionally mirrors fs/inode.Inode's shape (ID, Name
// via lookups, IncrementLookupCount/DecrementLookupCount) but swaps "lookup
// count" for "link count" since this filesystem's lifetime is governed by
// §3 invariant 3 (links == 0 implies unreachable), not FUSE kernel
// lookups.
type File interface {
	sync.Locker

	// ID returns this inode's unique, never-reused identifier.
	ID() ID

	// IsDirectory / IsRegularFile / IsSymbolicLink report this inode's kind,
	// mirroring the basic:isDirectory family of attributes (§6.2).
	IsDirectory() bool
	IsRegularFile() bool
	IsSymbolicLink() bool

	// Links returns the current hard-link count (§3 invariant 3).
	Links() int

	// linked/unlinked are called by Directory.Link/Unlink; see file_common.go.
	linked()
	unlinked() (destroyed bool)

	// CreationTime / LastAccessTime / LastModifiedTime report the dedicated
	// timestamp fields named in §3's attribute-table note ("Creation/
	// last-access/last-modified times are dedicated fields on the inode, not
	// in the table").
	CreationTime() time.Time
	LastAccessTime() time.Time
	LastModifiedTime() time.Time

	// SetLastModifiedTime / SetLastAccessTime / SetCreationTime support the
	// basic view's writable timestamp attributes (§6.2).
	SetLastModifiedTime(t time.Time)
	SetLastAccessTime(t time.Time)
	SetCreationTime(t time.Time)

	// Attributes returns the lazily-instantiated view->attr->value table
	// (§3's "Attribute table (per inode)").
	Attributes() *AttributeTable
}

// Destroyer is implemented by inodes that free external resources (regular
// files free their blocks) once their link count reaches zero and no
// channel holds them open.
type Destroyer interface {
	// destroy is called once unlinked() reports destroyed == true. Directory
	// has nothing to free and does not implement this.
	destroy()
}

// Factory allocates Files with monotonically increasing IDs, mirroring
// fs/inode's id-per-inode convention without a GCS bucket dependency.
type Factory struct {
	clock clock.Clock

	mu     sync.Mutex
	nextID ID
}

func NewFactory(c clock.Clock) *Factory {
	return &Factory{clock: c, nextID: 1}
}

func (f *Factory) allocID() ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	return id
}
