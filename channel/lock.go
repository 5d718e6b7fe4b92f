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

package channel

import (
	"context"
	"time"

	"github.com/gcsfuse-contrib/memfs/errs"
)

// pollInterval bounds how long an interruptible acquire can go between
// checking ctx.Done(), mirroring (at far coarser grain, since Go mutexes
// have no native cancellation) the cancel-func registration jacobsa/fuse's
// Connection uses around context.WithCancel in connection.go.
const pollInterval = time.Millisecond

// acquireRead blocks until rw's read lock is held or ctx is done, whichever
// comes first, returning AsyncClosed in the latter case (§4.G
// "Cancellation / interruption").
func acquireRead(ctx context.Context, rw rwLocker) error {
	for {
		if rw.TryRLock() {
			return nil
		}
		select {
		case <-ctx.Done():
			return errs.New("read", errs.AsyncClosed, "")
		case <-time.After(pollInterval):
		}
	}
}

// acquireWrite is acquireRead's write-lock counterpart.
func acquireWrite(ctx context.Context, rw rwLocker) error {
	for {
		if rw.TryLock() {
			return nil
		}
		select {
		case <-ctx.Done():
			return errs.New("write", errs.AsyncClosed, "")
		case <-time.After(pollInterval):
		}
	}
}

// rwLocker is the subset of sync.RWMutex this package needs; satisfied by
// *inode.RegularFile's ContentLock field.
type rwLocker interface {
	TryLock() bool
	Unlock()
	TryRLock() bool
	RUnlock()
}
