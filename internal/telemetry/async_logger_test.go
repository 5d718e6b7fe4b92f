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

package telemetry

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer wraps bytes.Buffer with a mutex since AsyncLogger's draining
// goroutine writes concurrently with test assertions reading the buffer
// after Close has synchronized with it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestAsyncLogger_WriteAndClose(t *testing.T) {
	buf := &syncBuffer{}
	a := NewAsyncLogger(buf, 10)

	fmt.Fprintln(a, "message 1")
	fmt.Fprintln(a, "message 2")
	fmt.Fprintln(a, "message 3")

	require.NoError(t, a.Close())
	assert.Equal(t, "message 1\nmessage 2\nmessage 3\n", buf.String())
}

func TestAsyncLogger_WriteReturnsFullLengthEvenWhenDropped(t *testing.T) {
	buf := &syncBuffer{}
	a := NewAsyncLogger(buf, 0)

	n, err := a.Write([]byte("dropped"))
	require.NoError(t, err)
	assert.Equal(t, len("dropped"), n, "Write must report the caller's byte count even on drop")

	require.NoError(t, a.Close())
}

func TestAsyncLogger_CloseClosesUnderlyingCloser(t *testing.T) {
	closed := false
	a := NewAsyncLogger(closerFunc{write: func(p []byte) (int, error) { return len(p), nil }, close: func() error {
		closed = true
		return nil
	}}, 4)

	require.NoError(t, a.Close())
	assert.True(t, closed)
}

type closerFunc struct {
	write func([]byte) (int, error)
	close func() error
}

func (c closerFunc) Write(p []byte) (int, error) { return c.write(p) }
func (c closerFunc) Close() error                { return c.close() }
