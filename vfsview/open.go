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
	"github.com/gcsfuse-contrib/memfs/channel"
	"github.com/gcsfuse-contrib/memfs/errs"
	"github.com/gcsfuse-contrib/memfs/inode"
	"github.com/gcsfuse-contrib/memfs/pathfs"
	"github.com/gcsfuse-contrib/memfs/pathlib"
)

func finalLinkOption(opts channel.OpenOptions) pathfs.LinkOption {
	if opts.Has(channel.NoFollowLinks) {
		return pathfs.NoFollow
	}
	return pathfs.Follow
}

// GetOrCreateRegularFile implements §4.F's getOrCreateRegularFile:
// CREATE_NEW always takes the write-lock path; otherwise a read-locked
// fast path returns an already-existing regular file, falling through to
// the write-lock path (which creates or re-finds) only on a miss with
// CREATE set. TRUNCATE_EXISTING is applied under the file's own write lock
// once Write is also set.
func (v *View) GetOrCreateRegularFile(path pathlib.Path, opts channel.OpenOptions, attrs map[string]interface{}) (*inode.RegularFile, error) {
	link := finalLinkOption(opts)

	if !opts.Has(channel.CreateNew) {
		v.mu.RLock()
		res, err := v.lookup(path, link)
		if err != nil {
			v.mu.RUnlock()
			return nil, err
		}
		if res.Found {
			rf, ok := res.File.(*inode.RegularFile)
			if !ok {
				v.mu.RUnlock()
				return nil, errs.New("open", errs.NotRegularFile, path.String())
			}
			rf.Opened()
			v.mu.RUnlock()
			v.applyTruncateExisting(rf, opts)
			return rf, nil
		}
		v.mu.RUnlock()

		if !opts.Has(channel.Create) {
			return nil, errs.New("open", errs.NoSuchFile, path.String())
		}
		// Fall through to the write-lock path below.
	}

	v.mu.Lock()

	res, err := v.lookup(path, link)
	if err != nil {
		v.mu.Unlock()
		return nil, err
	}

	if res.Found {
		if opts.Has(channel.CreateNew) {
			v.mu.Unlock()
			return nil, errs.New("open", errs.FileAlreadyExists, path.String())
		}
		rf, ok := res.File.(*inode.RegularFile)
		if !ok {
			v.mu.Unlock()
			return nil, errs.New("open", errs.NotRegularFile, path.String())
		}
		rf.Opened()
		v.mu.Unlock()
		v.applyTruncateExisting(rf, opts)
		return rf, nil
	}

	now := v.clock.Now()
	rf := inode.NewRegularFile(v.factory, v.disk, now)

	defaults, err := v.attrs.DefaultValues(attrs)
	if err != nil {
		v.mu.Unlock()
		return nil, err
	}
	if err := v.attrs.ApplyDefaults(defaults, rf); err != nil {
		v.mu.Unlock()
		return nil, err
	}
	if err := res.Parent.Link(res.Name, rf); err != nil {
		v.mu.Unlock()
		return nil, err
	}
	res.Parent.SetLastModifiedTime(now)
	rf.Opened()
	v.mu.Unlock()
	return rf, nil
}

func (v *View) applyTruncateExisting(rf *inode.RegularFile, opts channel.OpenOptions) {
	if !opts.Has(channel.TruncateExisting) || !opts.Has(channel.Write) {
		return
	}
	rf.ContentLock.Lock()
	rf.Truncate(0)
	rf.ContentLock.Unlock()
}
