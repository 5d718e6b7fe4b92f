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

// Package pathfs implements the root set and path-lookup algorithm of
// §4.D: resolving a structured pathlib.Path, against a working directory,
// to either a bound directory entry or a miss, following symlinks
// according to a caller-supplied link option and a hard cycle cap.
package pathfs

import (
	"github.com/gcsfuse-contrib/memfs/errs"
	"github.com/gcsfuse-contrib/memfs/inode"
	"github.com/gcsfuse-contrib/memfs/pathlib"
)

// maxSymlinkDepth is §4.D's "hard cap of 40 recursive follow steps."
const maxSymlinkDepth = 40

// LinkOption selects whether the final path component is followed if it is
// a symlink (§4.D step 4).
type LinkOption int

const (
	Follow LinkOption = iota
	NoFollow
)

// Tree owns the root set a lookup resolves absolute paths against.
type Tree struct {
	roots map[string]*inode.Directory
}

func NewTree() *Tree { return &Tree{roots: make(map[string]*inode.Directory)} }

// AddRoot registers name (e.g. "/" or `C:\`) as a root directory. Roots are
// never auto-created by lookup (§4.D step 1).
func (t *Tree) AddRoot(name string, dir *inode.Directory) { t.roots[name] = dir }

func (t *Tree) Root(name string) (*inode.Directory, bool) {
	d, ok := t.roots[name]
	return d, ok
}

// Result is the outcome of a lookup: either a bound entry (Found == true)
// or a non-existent entry naming the parent directory and the missing
// name, so callers can create into it (§4.D step 4).
type Result struct {
	Parent *inode.Directory
	Name   pathlib.Name
	File   inode.File // nil if !Found
	Found  bool
}

// Lookup resolves path against wd (used when path is relative), following
// symlinks per link and §4.D's algorithm.
func (t *Tree) Lookup(wd *inode.Directory, path pathlib.Path, link LinkOption) (Result, error) {
	return t.lookup(wd, path, link, 0)
}

func (t *Tree) lookup(wd *inode.Directory, path pathlib.Path, link LinkOption, depth int) (Result, error) {
	cur := wd
	if path.IsAbsolute() {
		root, ok := t.Root(path.Root())
		if !ok {
			return Result{}, errs.New("lookup", errs.NoSuchFile, path.String())
		}
		cur = root
	}

	names := path.Names()
	if len(names) == 0 {
		names = []pathlib.Name{pathlib.Self}
	}

	// Walk every name but the last, always following symlinks mid-path.
	for _, n := range names[:len(names)-1] {
		entry, ok := cur.Lookup(n)
		if !ok {
			return Result{}, errs.New("lookup", errs.NoSuchFile, path.String())
		}

		next := entry.File()
		if sym, isSym := next.(*inode.SymbolicLink); isSym {
			resolved, err := t.followSymlink(sym, cur, &depth)
			if err != nil {
				return Result{}, err
			}
			next = resolved
		}

		d, ok := next.(*inode.Directory)
		if !ok {
			return Result{}, errs.New("lookup", errs.NotDirectory, path.String())
		}
		cur = d
	}

	last := names[len(names)-1]

	if last.IsSelf() || last.IsParent() {
		return t.normalizeSelfParent(cur, last)
	}

	entry, ok := cur.Lookup(last)
	if !ok {
		return Result{Parent: cur, Name: last, Found: false}, nil
	}

	f := entry.File()
	if sym, isSym := f.(*inode.SymbolicLink); isSym && link == Follow {
		resolved, err := t.followSymlink(sym, cur, &depth)
		if err != nil {
			return Result{}, err
		}
		return Result{Parent: cur, Name: last, File: resolved, Found: true}, nil
	}

	return Result{Parent: cur, Name: last, File: f, Found: true}, nil
}

// normalizeSelfParent implements §4.D step 4's last clause: a trailing
// SELF or PARENT is normalized to the directory's entryInParent so the
// returned entry reflects the real parent/name rather than the synthetic
// "." or ".." binding.
func (t *Tree) normalizeSelfParent(cur *inode.Directory, n pathlib.Name) (Result, error) {
	target := cur
	if n.IsParent() {
		// First resolve ".." itself: the real PARENT entry in cur's own
		// table. The normalized result then describes *that* directory's
		// location, not cur's.
		parentEntry, ok := cur.Lookup(pathlib.Parent)
		if !ok {
			return Result{Parent: cur, Name: pathlib.Self, File: cur, Found: true}, nil
		}
		parentDir, ok := parentEntry.File().(*inode.Directory)
		if !ok {
			return Result{}, errs.New("lookup", errs.NotDirectory, "")
		}
		target = parentDir
	}

	entry := target.EntryInParent()
	if entry == nil {
		// target is a root: its PARENT entry points at itself, so there is no
		// separate parent Entry to normalize against.
		return Result{Parent: target, Name: pathlib.Self, File: target, Found: true}, nil
	}
	return Result{Parent: entry.Directory(), Name: entry.Name(), File: target, Found: true}, nil
}

// followSymlink resolves sym's target, restarting from the root set if the
// target is absolute (§4.D: "Absolute targets restart lookup from the root
// set"), enforcing the 40-step cap.
func (t *Tree) followSymlink(sym *inode.SymbolicLink, wd *inode.Directory, depth *int) (inode.File, error) {
	*depth++
	if *depth > maxSymlinkDepth {
		return nil, errs.New("lookup", errs.SymbolicLinkLoop, "")
	}

	target := sym.Target()
	base := wd
	if target.IsAbsolute() {
		base = nil
	}

	res, err := t.lookup(base, target, Follow, *depth)
	if err != nil {
		return nil, err
	}
	if !res.Found {
		return nil, errs.New("lookup", errs.NoSuchFile, target.String())
	}
	return res.File, nil
}
