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
	"fmt"
	"io"
	"os"
)

// AsyncLogger decouples log writers from the underlying io.Writer (usually
// a rotating lumberjack.Logger) by buffering writes on a channel drained by
// a single goroutine. A full buffer drops the write rather than blocking
// the caller, logging a warning to stderr instead.
type AsyncLogger struct {
	w       io.Writer
	entries chan []byte
	done    chan struct{}
}

// NewAsyncLogger starts the draining goroutine and returns the logger.
// Close must be called to flush buffered entries and stop the goroutine.
func NewAsyncLogger(w io.Writer, bufSize int) *AsyncLogger {
	a := &AsyncLogger{
		w:       w,
		entries: make(chan []byte, bufSize),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AsyncLogger) run() {
	defer close(a.done)
	for entry := range a.entries {
		a.w.Write(entry)
	}
}

// Write implements io.Writer. The caller's slice is copied since the
// draining goroutine reads it asynchronously.
func (a *AsyncLogger) Write(p []byte) (int, error) {
	cp := make([]byte, len(p))
	copy(cp, p)

	select {
	case a.entries <- cp:
	default:
		fmt.Fprintln(os.Stderr, "asynclogger: log buffer is full, dropping message.")
	}
	return len(p), nil
}

// Close stops accepting new entries, waits for the goroutine to drain what
// remains, then closes the underlying writer if it is an io.Closer.
func (a *AsyncLogger) Close() error {
	close(a.entries)
	<-a.done

	if c, ok := a.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
