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

// Package vfsview implements the transactional mutation layer of §4.F: a
// FileSystemView bundling the store lock, the path tree, the attribute
// registry and the inode/content factories, and exposing the namespace
// operations (create, link, delete, copy/move, attribute read/write) that
// every one of them acquires that lock around. Generalizes fs/fs.go's
// top-level fileSystem, which serializes every fuseops call through a
// single sync.Mutex over one fs/inode.DirInode tree, to a store that can
// also interoperate with a second store for cross-view copy/move.
package vfsview

import (
	"strings"
	"sync"
	"time"

	"github.com/gcsfuse-contrib/memfs/attr"
	"github.com/gcsfuse-contrib/memfs/clock"
	"github.com/gcsfuse-contrib/memfs/config"
	"github.com/gcsfuse-contrib/memfs/content"
	"github.com/gcsfuse-contrib/memfs/errs"
	"github.com/gcsfuse-contrib/memfs/inode"
	"github.com/gcsfuse-contrib/memfs/pathfs"
	"github.com/gcsfuse-contrib/memfs/pathlib"
)

// View is one FileSystemView: the store lock (§5 level 2) plus everything
// a namespace mutation needs to touch under it.
type View struct {
	// mu is the store read-write lock. All namespace mutations
	// (link/unlink/move/copy-metadata) take it for write; all lookups take
	// it for read (§5 "Rules").
	mu sync.RWMutex

	tree    *pathfs.Tree
	attrs   *attr.Service
	factory *inode.Factory
	disk    *content.HeapDisk
	clock   clock.Clock
	cfg     *config.Config

	wd *inode.Directory
}

// New constructs a View over an already-populated root set. wd is the
// working directory inode relative paths resolve against.
func New(tree *pathfs.Tree, attrs *attr.Service, factory *inode.Factory, disk *content.HeapDisk, c clock.Clock, cfg *config.Config, wd *inode.Directory) *View {
	return &View{tree: tree, attrs: attrs, factory: factory, disk: disk, clock: c, cfg: cfg, wd: wd}
}

// WorkingDirectory returns the inode relative lookups resolve against.
func (v *View) WorkingDirectory() *inode.Directory { return v.wd }

// lookup resolves path under the caller-held store lock.
func (v *View) lookup(path pathlib.Path, link pathfs.LinkOption) (pathfs.Result, error) {
	return v.tree.Lookup(v.wd, path, link)
}

// createFile implements §4.F's createFile: NOFOLLOW lookup; if the entry
// exists, either fail (failIfExists) or return it as-is (covering the
// CREATE-vs-CREATE_NEW race); otherwise build the inode via factory, apply
// attribute defaults, link it into the parent and bump the parent's
// modified time. Caller must already hold v.mu for write.
func (v *View) createFile(path pathlib.Path, factory func(now time.Time) inode.File, failIfExists bool, userAttrs map[string]interface{}) (inode.File, error) {
	res, err := v.lookup(path, pathfs.NoFollow)
	if err != nil {
		return nil, err
	}
	if res.Found {
		if failIfExists {
			return nil, errs.New("create", errs.FileAlreadyExists, path.String())
		}
		return res.File, nil
	}

	now := v.clock.Now()
	f := factory(now)

	defaults, err := v.attrs.DefaultValues(userAttrs)
	if err != nil {
		return nil, err
	}
	if err := v.attrs.ApplyDefaults(defaults, f); err != nil {
		return nil, err
	}

	if err := res.Parent.Link(res.Name, f); err != nil {
		return nil, err
	}
	res.Parent.SetLastModifiedTime(now)
	return f, nil
}

// CreateFile creates a plain regular file at path (§4.F createFile).
func (v *View) CreateFile(path pathlib.Path, failIfExists bool, attrs map[string]interface{}) (*inode.RegularFile, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	f, err := v.createFile(path, func(now time.Time) inode.File {
		return inode.NewRegularFile(v.factory, v.disk, now)
	}, failIfExists, attrs)
	if err != nil {
		return nil, err
	}
	return f.(*inode.RegularFile), nil
}

// CreateDirectory creates an empty directory at path (§4.F).
func (v *View) CreateDirectory(path pathlib.Path, failIfExists bool, attrs map[string]interface{}) (*inode.Directory, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	f, err := v.createFile(path, func(now time.Time) inode.File {
		return inode.NewDirectory(v.factory, now)
	}, failIfExists, attrs)
	if err != nil {
		return nil, err
	}
	return f.(*inode.Directory), nil
}

// CreateSymbolicLink creates a symlink at path pointing at target, gated by
// the SYMBOLIC_LINKS feature (§4.F: "createSymbolicLink wraps createFile
// with the appropriate factory and feature gate").
func (v *View) CreateSymbolicLink(path pathlib.Path, target pathlib.Path, failIfExists bool, attrs map[string]interface{}) (*inode.SymbolicLink, error) {
	if !v.cfg.SupportedFeatures.Has(config.FeatureSymbolicLinks) {
		return nil, errs.New("create", errs.UnsupportedFeature, path.String())
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	f, err := v.createFile(path, func(now time.Time) inode.File {
		return inode.NewSymbolicLink(v.factory, target, now)
	}, failIfExists, attrs)
	if err != nil {
		return nil, err
	}
	return f.(*inode.SymbolicLink), nil
}

// Link creates a new hard link at linkPath naming the same inode as
// existingPath, gated by the LINKS feature (§4.F). existing must belong to
// the same store.
func (v *View) Link(linkPath pathlib.Path, existing *View, existingPath pathlib.Path) error {
	if existing != v {
		return errs.NewTwoPath("link", errs.ProviderMismatch, linkPath.String(), existingPath.String())
	}
	if !v.cfg.SupportedFeatures.Has(config.FeatureLinks) {
		return errs.NewTwoPath("link", errs.UnsupportedFeature, linkPath.String(), existingPath.String())
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	src, err := v.lookup(existingPath, pathfs.Follow)
	if err != nil {
		return err
	}
	if !src.Found {
		return errs.NewTwoPath("link", errs.NoSuchFile, linkPath.String(), existingPath.String())
	}
	rf, ok := src.File.(*inode.RegularFile)
	if !ok {
		return errs.NewTwoPath("link", errs.NotRegularFile, linkPath.String(), existingPath.String())
	}

	dest, err := v.lookup(linkPath, pathfs.NoFollow)
	if err != nil {
		return err
	}
	if dest.Found {
		return errs.NewTwoPath("link", errs.FileAlreadyExists, linkPath.String(), existingPath.String())
	}

	if err := dest.Parent.Link(dest.Name, rf); err != nil {
		return err
	}
	dest.Parent.SetLastModifiedTime(v.clock.Now())
	return nil
}

// DeleteMode constrains what kind of file deleteFile is willing to remove.
type DeleteMode int

const (
	DeleteAny DeleteMode = iota
	DeleteNonDirectoryOnly
	DeleteDirectoryOnly
)

// DeleteFile removes the entry at path (§4.F deleteFile): NOFOLLOW lookup,
// refusing roots, the working directory reached via a relative path, a
// non-empty directory, or a kind mismatch against mode.
func (v *View) DeleteFile(path pathlib.Path, mode DeleteMode) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	res, err := v.lookup(path, pathfs.NoFollow)
	if err != nil {
		return err
	}
	if !res.Found {
		return errs.New("delete", errs.NoSuchFile, path.String())
	}

	if dir, ok := res.File.(*inode.Directory); ok {
		if dir.EntryInParent() == nil {
			return errs.New("delete", errs.InvalidArgument, path.String())
		}
		if mode == DeleteNonDirectoryOnly {
			return errs.New("delete", errs.NotRegularFile, path.String())
		}
		if !dir.IsEmpty() {
			return errs.New("delete", errs.DirectoryNotEmpty, path.String())
		}
	} else if mode == DeleteDirectoryOnly {
		return errs.New("delete", errs.NotDirectory, path.String())
	}

	if !path.IsAbsolute() && res.File == inode.File(v.wd) {
		return errs.New("delete", errs.InvalidArgument, path.String())
	}

	if _, err := res.Parent.Unlink(res.Name); err != nil {
		return err
	}
	res.Parent.SetLastModifiedTime(v.clock.Now())
	return nil
}

// ReadSymbolicLink returns a symlink's target (§4.F).
func (v *View) ReadSymbolicLink(path pathlib.Path) (pathlib.Path, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	res, err := v.lookup(path, pathfs.NoFollow)
	if err != nil {
		return pathlib.Path{}, err
	}
	if !res.Found {
		return pathlib.Path{}, errs.New("readlink", errs.NoSuchFile, path.String())
	}
	sym, ok := res.File.(*inode.SymbolicLink)
	if !ok {
		return pathlib.Path{}, errs.New("readlink", errs.NotSymbolicLink, path.String())
	}
	return sym.Target(), nil
}

// SnapshotModifiedTimes reads dir's current name->last-modified-time table
// under the store read lock, satisfying watch.DirectoryReader so the
// polling watch service never reads a Directory's bucket table outside the
// lock that serializes it against concurrent link/unlink (§5 "all lookups
// take the store read lock").
func (v *View) SnapshotModifiedTimes(dir *inode.Directory) map[string]int64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return dir.SnapshotModifiedTimes()
}

// CheckAccess is an existence check only (§4.F: "checkAccess (existence
// check only)") since permission enforcement is a Non-goal.
func (v *View) CheckAccess(path pathlib.Path) error {
	v.mu.RLock()
	defer v.mu.RUnlock()

	res, err := v.lookup(path, pathfs.Follow)
	if err != nil {
		return err
	}
	if !res.Found {
		return errs.New("access", errs.NoSuchFile, path.String())
	}
	return nil
}

// ReadAttributes evaluates an attribute expression against path (§4.F). The
// read-only "unix" view is refused here.
func (v *View) ReadAttributes(path pathlib.Path, expr string) (map[string]interface{}, error) {
	if strings.HasPrefix(expr, "unix:") {
		return nil, errs.New("attributes", errs.AttributeUnsupported, "unix")
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	res, err := v.lookup(path, pathfs.Follow)
	if err != nil {
		return nil, err
	}
	if !res.Found {
		return nil, errs.New("attributes", errs.NoSuchFile, path.String())
	}
	return v.attrs.ReadAttributes(expr, res.File)
}

// SetAttribute assigns a single view:attr pair on path (§4.F).
func (v *View) SetAttribute(path pathlib.Path, view, attr string, value interface{}) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	res, err := v.lookup(path, pathfs.Follow)
	if err != nil {
		return err
	}
	if !res.Found {
		return errs.New("attributes", errs.NoSuchFile, path.String())
	}
	return v.attrs.Set(view, attr, value, res.File, false)
}
