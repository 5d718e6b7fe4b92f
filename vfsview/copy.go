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

package vfsview

import (
	"github.com/gcsfuse-contrib/memfs/errs"
	"github.com/gcsfuse-contrib/memfs/inode"
	"github.com/gcsfuse-contrib/memfs/pathfs"
	"github.com/gcsfuse-contrib/memfs/pathlib"
)

// CopyOption is one flag of §4.F's copy option set.
type CopyOption uint8

const (
	ReplaceExisting CopyOption = 1 << iota
	CopyAttributes
	NoFollowLinks
	AtomicMove // move only
)

func (o CopyOption) Has(want CopyOption) bool { return o&want == want }

// lockStores acquires both views' store locks using the try-lock-backoff
// protocol of §4.F/§5 ("lock a; if tryLock(b) fails, release a, lock b, try
// a; repeat") and returns the matching unlock function. A single lock is
// taken when both operations are on the same store.
func lockStores(a, b *View) func() {
	if a == b {
		a.mu.Lock()
		return a.mu.Unlock
	}
	for {
		a.mu.Lock()
		if b.mu.TryLock() {
			return func() {
				b.mu.Unlock()
				a.mu.Unlock()
			}
		}
		a.mu.Unlock()

		b.mu.Lock()
		if a.mu.TryLock() {
			return func() {
				a.mu.Unlock()
				b.mu.Unlock()
			}
		}
		b.mu.Unlock()
	}
}

// sameInode reports whether two File handles name the identical inode.
func sameInode(a, b inode.File) bool { return a.ID() == b.ID() }

// isAncestorOrSelf reports whether target is dir or one of dir's proper
// ancestors, walking entryInParent links up to a root (§4.F: "verify the
// destination's parent is not a descendant of the source").
func isAncestorOrSelf(target, dir *inode.Directory) bool {
	cur := dir
	for {
		if cur == target {
			return true
		}
		entry := cur.EntryInParent()
		if entry == nil {
			return false // reached a root without finding target
		}
		cur = entry.Directory()
	}
}

// copyWithoutContent builds a fresh inode of the same kind as src, with no
// content, copying the attribute table when copyAttrs is set (§4.F
// "copyWithoutContent").
func (v *View) copyWithoutContent(src inode.File, copyAttrs bool) (inode.File, error) {
	now := v.clock.Now()

	var dst inode.File
	switch f := src.(type) {
	case *inode.Directory:
		dst = inode.NewDirectory(v.factory, now)
	case *inode.RegularFile:
		dst = inode.NewRegularFile(v.factory, v.disk, now)
	case *inode.SymbolicLink:
		dst = inode.NewSymbolicLink(v.factory, f.Target(), now)
	default:
		return nil, errs.New("copy", errs.UnsupportedFeature, "")
	}

	if copyAttrs {
		dst.SetCreationTime(src.CreationTime())
		dst.SetLastAccessTime(src.LastAccessTime())
		dst.SetLastModifiedTime(src.LastModifiedTime())
		for _, view := range src.Attributes().Views() {
			for attr, val := range src.Attributes().Snapshot(view) {
				dst.Attributes().Set(view, attr, val)
			}
		}
	} else {
		dst.SetCreationTime(now)
		dst.SetLastAccessTime(now)
		dst.SetLastModifiedTime(now)
	}

	return dst, nil
}

// Copy implements §4.F's copy/move: REPLACE_EXISTING, COPY_ATTRIBUTES and
// NoFollowLinks. Same-store moves are an atomic relink; cross-store moves and
// all copies go through copyWithoutContent plus a byte copy performed after
// the store lock(s) are released. AtomicMove is not consulted: a cross-store
// move with it set is still a copy followed by a delete.
func (v *View) Copy(source pathlib.Path, dest *View, destPath pathlib.Path, opts CopyOption, move bool) error {
	same := dest == v
	unlock := lockStores(v, dest)

	srcLink := pathfs.Follow
	if opts.Has(NoFollowLinks) {
		srcLink = pathfs.NoFollow
	}
	srcRes, err := v.lookup(source, srcLink)
	if err != nil {
		unlock()
		return err
	}
	if !srcRes.Found {
		unlock()
		return errs.New("copy", errs.NoSuchFile, source.String())
	}

	destRes, err := dest.tree.Lookup(dest.wd, destPath, pathfs.NoFollow)
	if err != nil {
		unlock()
		return err
	}

	// Reject a move into the source directory's own subtree before touching
	// anything at the destination: checked ahead of the destination unlink
	// below so a move whose destination both exists and is a descendant of
	// the source is rejected without destroying the existing destination
	// entry first.
	if move && same {
		if srcDir, ok := srcRes.File.(*inode.Directory); ok {
			if isAncestorOrSelf(srcDir, destRes.Parent) {
				unlock()
				return errs.NewTwoPath("move", errs.InvalidArgument, source.String(), destPath.String())
			}
		}
	}

	if destRes.Found {
		if sameInode(destRes.File, srcRes.File) {
			unlock()
			return nil
		}
		if !opts.Has(ReplaceExisting) {
			unlock()
			return errs.NewTwoPath("copy", errs.FileAlreadyExists, source.String(), destPath.String())
		}
		if dir, ok := destRes.File.(*inode.Directory); ok && !dir.IsEmpty() {
			unlock()
			return errs.NewTwoPath("copy", errs.DirectoryNotEmpty, source.String(), destPath.String())
		}
		if _, err := destRes.Parent.Unlink(destRes.Name); err != nil {
			unlock()
			return err
		}
	}

	if move && same {
		if _, err := srcRes.Parent.Unlink(srcRes.Name); err != nil {
			unlock()
			return err
		}
		if err := destRes.Parent.Link(destRes.Name, srcRes.File); err != nil {
			unlock()
			return err
		}
		now := v.clock.Now()
		srcRes.Parent.SetLastModifiedTime(now)
		destRes.Parent.SetLastModifiedTime(now)
		unlock()
		return nil
	}

	// Copy (or cross-store move): metadata phase under the store lock(s).
	// A cross-store move only carries BASIC attributes across (§4.F).
	crossStoreMove := move && !same
	newFile, err := v.copyWithoutContent(srcRes.File, opts.Has(CopyAttributes) && !crossStoreMove)
	if err != nil {
		unlock()
		return err
	}
	if crossStoreMove {
		newFile.SetCreationTime(srcRes.File.CreationTime())
		newFile.SetLastAccessTime(srcRes.File.LastAccessTime())
		newFile.SetLastModifiedTime(srcRes.File.LastModifiedTime())
	}
	if err := destRes.Parent.Link(destRes.Name, newFile); err != nil {
		unlock()
		return err
	}
	destRes.Parent.SetLastModifiedTime(v.clock.Now())

	var srcRF *inode.RegularFile
	if rf, ok := srcRes.File.(*inode.RegularFile); ok {
		srcRF = rf
		srcRF.Opened() // pin the source open across the unlocked byte copy
	}

	if move {
		if _, err := srcRes.Parent.Unlink(srcRes.Name); err != nil {
			if srcRF != nil {
				srcRF.Closed()
			}
			unlock()
			return err
		}
		srcRes.Parent.SetLastModifiedTime(v.clock.Now())
	}

	// Release the store lock(s) before the potentially large byte copy, per
	// §4.F/§5: the store must not stall while content.File.CopyContentTo
	// runs, and the destination's bytes must not be observable until it
	// completes.
	unlock()

	if srcRF != nil {
		newRF := newFile.(*inode.RegularFile)

		srcRF.ContentLock.RLock()
		newRF.ContentLock.Lock()
		err := srcRF.CopyContentTo(newRF)
		newRF.ContentLock.Unlock()
		srcRF.ContentLock.RUnlock()

		srcRF.Closed()
		if err != nil {
			return err
		}
	}

	return nil
}
