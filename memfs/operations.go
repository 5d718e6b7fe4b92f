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

package memfs

import (
	"github.com/gcsfuse-contrib/memfs/channel"
	"github.com/gcsfuse-contrib/memfs/inode"
	"github.com/gcsfuse-contrib/memfs/pathlib"
	"github.com/gcsfuse-contrib/memfs/vfsview"
	"github.com/gcsfuse-contrib/memfs/watch"
)

// Parse turns raw into a Path using this FileSystem's configured Parser, a
// convenience so callers need not import pathlib directly for the common
// case.
func (fs *FileSystem) Parse(raw string) (pathlib.Path, error) {
	return fs.parser.Parse(raw)
}

// CreateFile creates a plain regular file at path (§4.F createFile).
func (fs *FileSystem) CreateFile(path pathlib.Path, failIfExists bool, attrs map[string]interface{}) (*inode.RegularFile, error) {
	f, err := fs.view.CreateFile(path, failIfExists, attrs)
	if err != nil {
		fs.log.Warnf("createFile %s: %v", path, err)
		return nil, err
	}
	fs.log.Debugf("createFile %s", path)
	return f, nil
}

// Mkdir creates an empty directory at path (§4.F createDirectory).
func (fs *FileSystem) Mkdir(path pathlib.Path, failIfExists bool, attrs map[string]interface{}) (*inode.Directory, error) {
	d, err := fs.view.CreateDirectory(path, failIfExists, attrs)
	if err != nil {
		fs.log.Warnf("mkdir %s: %v", path, err)
		return nil, err
	}
	fs.log.Debugf("mkdir %s", path)
	return d, nil
}

// Symlink creates a symbolic link at path pointing at target (§4.F
// createSymbolicLink).
func (fs *FileSystem) Symlink(path, target pathlib.Path, failIfExists bool, attrs map[string]interface{}) (*inode.SymbolicLink, error) {
	l, err := fs.view.CreateSymbolicLink(path, target, failIfExists, attrs)
	if err != nil {
		fs.log.Warnf("symlink %s -> %s: %v", path, target, err)
		return nil, err
	}
	fs.log.Debugf("symlink %s -> %s", path, target)
	return l, nil
}

// Link creates a hard link at linkPath naming the same inode as
// existingPath, both within this FileSystem's single store (§4.F link).
func (fs *FileSystem) Link(linkPath, existingPath pathlib.Path) error {
	if err := fs.view.Link(linkPath, fs.view, existingPath); err != nil {
		fs.log.Warnf("link %s -> %s: %v", linkPath, existingPath, err)
		return err
	}
	fs.log.Debugf("link %s -> %s", linkPath, existingPath)
	return nil
}

// Remove deletes the entry at path (§4.F deleteFile), refusing a root, a
// non-empty directory, or a kind mismatch against mode.
func (fs *FileSystem) Remove(path pathlib.Path, mode vfsview.DeleteMode) error {
	if err := fs.view.DeleteFile(path, mode); err != nil {
		fs.log.Warnf("remove %s: %v", path, err)
		return err
	}
	fs.log.Debugf("remove %s", path)
	return nil
}

// CopyOrMove implements §4.F's copy/move with source and dest both in this
// FileSystem's single store. A cross-store copy/move between two FileSystem
// instances goes through View() and vfsview.View.Copy instead.
func (fs *FileSystem) CopyOrMove(source, dest pathlib.Path, opts vfsview.CopyOption, move bool) error {
	if err := fs.view.Copy(source, fs.view, dest, opts, move); err != nil {
		fs.log.Warnf("copyOrMove %s -> %s (move=%v): %v", source, dest, move, err)
		return err
	}
	fs.log.Debugf("copyOrMove %s -> %s (move=%v)", source, dest, move)
	return nil
}

// View exposes the underlying vfsview.View, for cross-store operations that
// must name two FileSystem instances' views directly (vfsview.View.Copy's
// dest argument).
func (fs *FileSystem) View() *vfsview.View { return fs.view }

// ReadSymbolicLink returns a symlink's target (§4.F).
func (fs *FileSystem) ReadSymbolicLink(path pathlib.Path) (pathlib.Path, error) {
	return fs.view.ReadSymbolicLink(path)
}

// CheckAccess is an existence check only, since permission enforcement is a
// Non-goal (§4.F checkAccess).
func (fs *FileSystem) CheckAccess(path pathlib.Path) error {
	return fs.view.CheckAccess(path)
}

// ReadAttributes evaluates an attribute expression against path (§4.F).
func (fs *FileSystem) ReadAttributes(path pathlib.Path, expr string) (map[string]interface{}, error) {
	return fs.view.ReadAttributes(path, expr)
}

// SetAttribute assigns a single view:attr pair on path (§4.F).
func (fs *FileSystem) SetAttribute(path pathlib.Path, view, attr string, value interface{}) error {
	if err := fs.view.SetAttribute(path, view, attr, value); err != nil {
		fs.log.Warnf("setAttribute %s %s:%s: %v", path, view, attr, err)
		return err
	}
	return nil
}

// Open resolves or creates the regular file at path per opts and returns a
// FileChannel bound to it, registered with this FileSystem's metrics and
// state (§4.F getOrCreateRegularFile, §4.G FileChannel.open).
func (fs *FileSystem) Open(path pathlib.Path, opts channel.OpenOptions, attrs map[string]interface{}) (*channel.FileChannel, error) {
	rf, err := fs.view.GetOrCreateRegularFile(path, opts, attrs)
	if err != nil {
		fs.log.Warnf("open %s: %v", path, err)
		return nil, err
	}

	ch, err := channel.New(rf, opts, fs.clock, fs.state)
	if err != nil {
		fs.log.Warnf("open %s: %v", path, err)
		return nil, err
	}
	ch.SetMetrics(fs.metrics)
	fs.log.Debugf("open %s", path)
	return ch, nil
}

// Watch registers dir for the given event kinds, per §4.I Register. path
// only labels the registration in errors and logs; it is not resolved.
func (fs *FileSystem) Watch(dir *inode.Directory, path string, kinds ...watch.EventKind) (*watch.Key, error) {
	k, err := fs.watch.Register(dir, path, kinds...)
	if err != nil {
		fs.log.Warnf("watch %s: %v", path, err)
		return nil, err
	}
	return k, nil
}

// TakeWatchEvent blocks until a signalled watch key is available or the
// watch service is closed.
func (fs *FileSystem) TakeWatchEvent() (*watch.Key, error) {
	return fs.watch.Take()
}

// PollWatchEvent returns a signalled watch key without blocking, or
// (nil, nil) if none are ready.
func (fs *FileSystem) PollWatchEvent() (*watch.Key, error) {
	return fs.watch.Poll()
}
