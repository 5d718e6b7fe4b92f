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

// Package clock provides the single time source every inode, channel and
// watch tick reads from. Production code takes a Clock so tests can swap in
// SimulatedClock instead of sleeping on the wall clock.
package clock

import "time"

// Clock is the filesystem's only source of "now". Inode creation/access/
// modification times, the polling watch service's tick, and channel
// timestamps all go through a Clock rather than calling time.Now directly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After notifies on the returned channel once d has elapsed according to
	// this clock.
	After(d time.Duration) <-chan time.Time
}

var _ Clock = RealClock{}
var _ Clock = &SimulatedClock{}
