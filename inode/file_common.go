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
)

// AttributeTable is the nested view -> attribute -> value mapping described
// in §3. It is lazily instantiated; a nil *AttributeTable behaves as empty.
type AttributeTable struct {
	mu    sync.Mutex
	views map[string]map[string]interface{}
}

func (t *AttributeTable) Get(view, attr string) (interface{}, bool) {
	if t == nil {
		return nil, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.views[view]
	if !ok {
		return nil, false
	}
	val, ok := v[attr]
	return val, ok
}

func (t *AttributeTable) Set(view, attr string, value interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.views == nil {
		t.views = make(map[string]map[string]interface{})
	}
	if t.views[view] == nil {
		t.views[view] = make(map[string]interface{})
	}
	t.views[view][attr] = value
}

// Views returns the names of every view that has at least one attribute
// recorded, used when deep-copying a file's attribute table on copy
// (§4.F "copyWithoutContent").
func (t *AttributeTable) Views() []string {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.views))
	for v := range t.views {
		out = append(out, v)
	}
	return out
}

// Snapshot returns a shallow copy of one view's attributes, or nil if the
// view has never been written.
func (t *AttributeTable) Snapshot(view string) map[string]interface{} {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	src, ok := t.views[view]
	if !ok {
		return nil
	}
	out := make(map[string]interface{}, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// fileCommon implements the fields and methods shared by every File
// variant: id, link count, timestamps, and the attribute table. It embeds
// sync.Mutex to satisfy sync.Locker directly, as fs/inode.DirInode and
// fs/inode.FileInode do with their own syncutil.InvariantMutex.
type fileCommon struct {
	sync.Mutex

	id    ID
	links int

	creationTime     time.Time
	lastAccessTime   time.Time
	lastModifiedTime time.Time

	attrs AttributeTable
}

func newFileCommon(id ID, now time.Time) fileCommon {
	return fileCommon{
		id:               id,
		creationTime:     now,
		lastAccessTime:   now,
		lastModifiedTime: now,
	}
}

func (f *fileCommon) ID() ID { return f.id }

func (f *fileCommon) Links() int { return f.links }

func (f *fileCommon) linked() { f.links++ }

// unlinked decrements the link count and reports whether it reached zero
// (§3 invariant 3: links == 0 implies unreachable by name).
func (f *fileCommon) unlinked() bool {
	f.links--
	return f.links == 0
}

func (f *fileCommon) CreationTime() time.Time     { return f.creationTime }
func (f *fileCommon) LastAccessTime() time.Time   { return f.lastAccessTime }
func (f *fileCommon) LastModifiedTime() time.Time { return f.lastModifiedTime }

func (f *fileCommon) SetCreationTime(t time.Time)     { f.creationTime = t }
func (f *fileCommon) SetLastAccessTime(t time.Time)   { f.lastAccessTime = t }
func (f *fileCommon) SetLastModifiedTime(t time.Time) { f.lastModifiedTime = t }

func (f *fileCommon) Attributes() *AttributeTable { return &f.attrs }
