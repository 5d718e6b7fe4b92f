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
	"time"

	"github.com/gcsfuse-contrib/memfs/clock"
)

// tickerFunc returns a watch.Service interval function that fires every d
// according to c, by chaining successive Clock.After calls onto a single
// channel. watch.Service calls the returned func exactly once and reads
// from the channel it gets back for as long as the service runs.
func tickerFunc(c clock.Clock, d time.Duration) func() <-chan struct{} {
	return func() <-chan struct{} {
		out := make(chan struct{})
		go func() {
			for {
				<-c.After(d)
				out <- struct{}{}
			}
		}()
		return out
	}
}
