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
	"sort"
	"time"

	"github.com/gcsfuse-contrib/memfs/errs"
	"github.com/gcsfuse-contrib/memfs/pathlib"
)

const (
	initialBucketCount = 16
	loadFactor         = 0.75
)

// Entry is a single directory-table node, the DirectoryEntry of §3: the
// owning directory, a name, the file it's bound to, and the intrusive
// "next" pointer of its owning bucket's chain.
type Entry struct {
	dir  *Directory
	name Name
	file File
	next *Entry
}

func (e *Entry) Directory() *Directory { return e.dir }
func (e *Entry) Name() Name            { return e.name }
func (e *Entry) File() File            { return e.file }

// Name is an alias so this package need not re-export pathlib's type at
// every call site.
type Name = pathlib.Name

// Directory is the hash-bucketed directory table of §4.C: a power-of-two
// bucket array of Entry chains, always containing a SELF entry and, once
// linked under a parent, a PARENT entry.
type Directory struct {
	fileCommon

	buckets []*Entry
	count   int // total entries, including SELF/PARENT

	// entryInParent is the Entry object living in the parent directory's own
	// bucket table that names this directory, used to recover "our own name"
	// after deletion and to normalize a trailing SELF/PARENT lookup (§4.D
	// step 4).
	entryInParent *Entry
}

// NewDirectory creates a directory with only a SELF entry; it is not yet
// reachable from any parent.
func NewDirectory(f *Factory, now time.Time) *Directory {
	d := &Directory{
		fileCommon: newFileCommon(f.allocID(), now),
		buckets:    make([]*Entry, initialBucketCount),
	}
	d.insertRaw(selfName, d)
	return d
}

// NewRootDirectory creates a directory whose PARENT entry points to itself,
// per §3 invariant 2: "root directories' PARENT points to themselves."
func NewRootDirectory(f *Factory, now time.Time) *Directory {
	d := NewDirectory(f, now)
	d.insertRaw(parentName, d)
	return d
}

func (d *Directory) IsDirectory() bool    { return true }
func (d *Directory) IsRegularFile() bool  { return false }
func (d *Directory) IsSymbolicLink() bool { return false }

var _ File = (*Directory)(nil)

// EntryInParent returns the Entry, in the parent directory's table, that
// names this directory, or nil for a directory never linked (or already
// detached).
func (d *Directory) EntryInParent() *Entry { return d.entryInParent }

func bucketIndex(n Name, capacity int) int {
	return int(n.Hash()) & (capacity - 1)
}

var (
	selfName   = pathlib.Self
	parentName = pathlib.Parent
)

// insertRaw inserts name->file at the head of its bucket's chain without
// any of Link's reserved-name or duplicate checks; used for SELF/PARENT
// bookkeeping only.
func (d *Directory) insertRaw(n Name, f File) *Entry {
	idx := bucketIndex(n, len(d.buckets))
	e := &Entry{dir: d, name: n, file: f, next: d.buckets[idx]}
	d.buckets[idx] = e
	d.count++
	return e
}

func (d *Directory) lookupRaw(n Name) *Entry {
	idx := bucketIndex(n, len(d.buckets))
	for e := d.buckets[idx]; e != nil; e = e.next {
		if e.name.Equal(n) {
			return e
		}
	}
	return nil
}

// setParentEntry overwrites (or, the first time, creates) this directory's
// own PARENT entry to point at parent, per §4.C: "overwrites the child's
// PARENT entry without changing the child's entry_count" on every relink
// after the first.
func (d *Directory) setParentEntry(parent *Directory) {
	if e := d.lookupRaw(parentName); e != nil {
		e.file = parent
		return
	}
	d.insertRaw(parentName, parent)
}

// Lookup finds name in d's table, returning (entry, true) on a hit.
func (d *Directory) Lookup(n Name) (*Entry, bool) {
	e := d.lookupRaw(n)
	return e, e != nil
}

// Link inserts name->file, refusing SELF/PARENT and duplicate names (§4.C).
// If file is itself a *Directory, its entryInParent and PARENT entry are
// installed/overwritten and d's own link count is bumped once to account
// for the child's ".." back-link.
func (d *Directory) Link(n Name, file File) error {
	if n.IsReserved() {
		return errs.New("link", errs.InvalidArgument, n.String())
	}
	if _, exists := d.Lookup(n); exists {
		return errs.New("link", errs.FileAlreadyExists, n.String())
	}

	d.maybeGrow()
	e := d.insertRaw(n, file)
	file.linked()

	if child, ok := file.(*Directory); ok {
		child.entryInParent = e
		child.setParentEntry(d)
		d.linked()
	}
	return nil
}

// maybeGrow doubles the bucket array and rehashes every entry once count
// would exceed capacity*loadFactor, per §4.C: "Expansion doubles capacity
// and rehashes; resize threshold = capacity * 0.75." Rehashed entries are
// appended at the tail of their new bucket's chain, preserving the
// iteration order entries had before expansion; a plain Link that doesn't
// trigger expansion instead inserts at the head of its bucket (see
// insertRaw), matching §4.C's stated asymmetry.
func (d *Directory) maybeGrow() {
	threshold := float64(len(d.buckets)) * loadFactor
	if float64(d.count+1) <= threshold {
		return
	}

	newCap := len(d.buckets) * 2
	newBuckets := make([]*Entry, newCap)

	for _, head := range d.buckets {
		for e := head; e != nil; {
			next := e.next
			e.next = nil
			idx := bucketIndex(e.name, newCap)
			if newBuckets[idx] == nil {
				newBuckets[idx] = e
			} else {
				tail := newBuckets[idx]
				for tail.next != nil {
					tail = tail.next
				}
				tail.next = e
			}
			e = next
		}
	}

	d.buckets = newBuckets
}

// Unlink removes name, decrements the bound file's link count, and, if the
// removed entry named a subdirectory, decrements d's own link count once
// more to account for the removed ".." back-link (§4.C).
func (d *Directory) Unlink(n Name) (destroyed bool, err error) {
	if n.IsReserved() {
		return false, errs.New("unlink", errs.InvalidArgument, n.String())
	}

	idx := bucketIndex(n, len(d.buckets))
	var prev *Entry
	e := d.buckets[idx]
	for e != nil && !e.name.Equal(n) {
		prev = e
		e = e.next
	}
	if e == nil {
		return false, errs.New("unlink", errs.NoSuchFile, n.String())
	}

	if prev == nil {
		d.buckets[idx] = e.next
	} else {
		prev.next = e.next
	}
	d.count--

	destroyed = e.file.unlinked()
	if destroyed {
		if dd, ok := e.file.(Destroyer); ok {
			dd.destroy()
		}
	}

	if child, ok := e.file.(*Directory); ok {
		child.entryInParent = nil
		d.unlinked()
	}

	return destroyed, nil
}

// IsEmpty reports §4.C's definition: only SELF and PARENT remain.
func (d *Directory) IsEmpty() bool { return d.count == 2 }

// Snapshot returns the sorted (by display form) list of non-reserved
// entries, per §4.C.
func (d *Directory) Snapshot() []*Entry {
	out := make([]*Entry, 0, d.count)
	for _, head := range d.buckets {
		for e := head; e != nil; e = e.next {
			if !e.name.IsReserved() {
				out = append(out, e)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return pathlib.ByDisplay(out[i].name, out[j].name) })
	return out
}

// SnapshotModifiedTimes returns name -> last-modified-time (ms since
// epoch) for the same set Snapshot returns, used by the polling watch
// service to diff generations (§4.I, §4.C).
func (d *Directory) SnapshotModifiedTimes() map[string]int64 {
	out := make(map[string]int64, d.count)
	for _, e := range d.Snapshot() {
		out[e.name.Canonical()] = e.file.LastModifiedTime().UnixMilli()
	}
	return out
}
