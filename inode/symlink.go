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
	"time"

	"github.com/gcsfuse-contrib/memfs/pathlib"
)

// SymbolicLink is an inode holding an immutable path value (§3 invariant
// 9), generalizing fs/inode.SymlinkInode (which stores a GCS object
// generation alongside its target) to hold just the target path.
type SymbolicLink struct {
	fileCommon

	target pathlib.Path
}

func NewSymbolicLink(f *Factory, target pathlib.Path, now time.Time) *SymbolicLink {
	return &SymbolicLink{
		fileCommon: newFileCommon(f.allocID(), now),
		target:     target,
	}
}

func (s *SymbolicLink) IsDirectory() bool    { return false }
func (s *SymbolicLink) IsRegularFile() bool  { return false }
func (s *SymbolicLink) IsSymbolicLink() bool { return true }

// Target returns the link's immutable target path.
func (s *SymbolicLink) Target() pathlib.Path { return s.target }

var _ File = (*SymbolicLink)(nil)
