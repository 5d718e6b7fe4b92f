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

// Package fsstate implements the open/closed lifecycle and Closeable
// registry of §4.H FileSystemState: every channel, stream and watch
// service registers itself here so a filesystem Close drains them all.
package fsstate

import (
	"errors"
	"sync"

	"github.com/gcsfuse-contrib/memfs/errs"
)

// Closeable is any resource FileSystemState can drain on Close.
type Closeable interface {
	Close() error
}

// State is the shared open/closed flag plus resource registry described in
// §4.H. The zero value is open.
type State struct {
	mu       sync.Mutex
	closed   bool
	pending  int // registrations currently in progress
	resources map[Closeable]struct{}
	onClose  func()
}

func New() *State {
	return &State{resources: make(map[Closeable]struct{})}
}

// OnClose installs a callback run once, synchronously, at the start of
// Close — used by the outer provider to evict the filesystem from a cache
// (§4.H).
func (s *State) OnClose(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClose = f
}

// CheckOpen returns Closed if the filesystem has already been closed,
// per §4.H: "Operations call check_open() before proceeding."
func (s *State) CheckOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errs.New("check_open", errs.Closed, "")
	}
	return nil
}

// Register adds r to the resource set, double-checking the open flag so a
// resource created concurrently with Close is either rejected or reliably
// drained (§4.H: "register() double-checks the flag, bumps a
// registration-in-progress counter, inserts the resource, decrements").
func (s *State) Register(r Closeable) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errs.New("register", errs.Closed, "")
	}
	s.pending++
	s.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	if s.closed {
		return errs.New("register", errs.Closed, "")
	}
	s.resources[r] = struct{}{}
	return nil
}

// Deregister removes r from the resource set; called by a resource's own
// Close once it has finished tearing itself down.
func (s *State) Deregister(r Closeable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.resources, r)
}

// Close CASes open->closed, runs the on-close callback, then repeatedly
// drains the resource set until both the in-progress-registration counter
// and the set are empty, per §4.H. Errors from individual resources are
// collected and joined rather than aborting the drain.
func (s *State) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cb := s.onClose
	s.mu.Unlock()

	if cb != nil {
		cb()
	}

	var errsList []error
	for {
		s.mu.Lock()
		if s.pending == 0 && len(s.resources) == 0 {
			s.mu.Unlock()
			break
		}
		var batch []Closeable
		for r := range s.resources {
			batch = append(batch, r)
		}
		s.resources = make(map[Closeable]struct{})
		s.mu.Unlock()

		for _, r := range batch {
			if err := r.Close(); err != nil {
				errsList = append(errsList, err)
			}
		}
	}

	return errors.Join(errsList...)
}

// IsOpen reports whether Close has not yet been called.
func (s *State) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}
