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

package fsstate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCloseable struct {
	err    error
	closed bool
}

func (f *fakeCloseable) Close() error {
	f.closed = true
	return f.err
}

func TestCheckOpen_InitiallyOpen(t *testing.T) {
	s := New()
	assert.NoError(t, s.CheckOpen())
	assert.True(t, s.IsOpen())
}

func TestRegister_RejectedAfterClose(t *testing.T) {
	s := New()
	require.NoError(t, s.Close())

	err := s.Register(&fakeCloseable{})
	assert.Error(t, err)
}

func TestClose_DrainsRegisteredResources(t *testing.T) {
	s := New()
	a := &fakeCloseable{}
	b := &fakeCloseable{}
	require.NoError(t, s.Register(a))
	require.NoError(t, s.Register(b))

	require.NoError(t, s.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.False(t, s.IsOpen())
}

func TestClose_IsIdempotent(t *testing.T) {
	s := New()
	a := &fakeCloseable{}
	require.NoError(t, s.Register(a))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close()) // second call is a no-op, not a re-drain
}

func TestClose_AggregatesResourceErrors(t *testing.T) {
	s := New()
	boom1 := errors.New("boom1")
	boom2 := errors.New("boom2")
	require.NoError(t, s.Register(&fakeCloseable{err: boom1}))
	require.NoError(t, s.Register(&fakeCloseable{err: boom2}))

	err := s.Close()
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom1))
	assert.True(t, errors.Is(err, boom2))
}

func TestClose_RunsOnCloseCallback(t *testing.T) {
	s := New()
	called := false
	s.OnClose(func() { called = true })

	require.NoError(t, s.Close())
	assert.True(t, called)
}

func TestDeregister_RemovesResourceSoCloseSkipsIt(t *testing.T) {
	s := New()
	a := &fakeCloseable{}
	require.NoError(t, s.Register(a))
	s.Deregister(a)

	require.NoError(t, s.Close())
	assert.False(t, a.closed, "a deregistered resource must not be closed again by Close")
}

// registerDuringClose exercises the rejection path of a resource whose own
// Close tries to register something new: once Close has set the flag,
// Register must refuse rather than silently reinserting it (§4.H).
type registerDuringClose struct {
	state *State
	next  *fakeCloseable
}

func (r *registerDuringClose) Close() error {
	return r.state.Register(r.next)
}

func TestClose_RejectsRegistrationAttemptedDuringDrain(t *testing.T) {
	s := New()
	next := &fakeCloseable{}
	first := &registerDuringClose{state: s, next: next}
	require.NoError(t, s.Register(first))

	err := s.Close()
	require.Error(t, err)
	assert.False(t, next.closed, "a resource rejected by Register during drain is never closed")
}
