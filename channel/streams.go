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
	"io"

	"github.com/gcsfuse-contrib/memfs/clock"
	"github.com/gcsfuse-contrib/memfs/fsstate"
	"github.com/gcsfuse-contrib/memfs/inode"
)

// InputStream wraps positioned reads at an internal, stream-local position
// (§4.G: "input stream wraps positioned read at an internal position").
type InputStream struct {
	ch  *FileChannel
	pos int64
}

func NewInputStream(file *inode.RegularFile, c clock.Clock, state *fsstate.State) (*InputStream, error) {
	ch, err := New(file, NewOpenOptions(Read), c, state)
	if err != nil {
		return nil, err
	}
	return &InputStream{ch: ch}, nil
}

func (s *InputStream) Read(buf []byte) (int, error) {
	n, err := s.ch.ReadAt(buf, s.pos)
	s.pos += int64(n)
	if err != nil {
		return n, err
	}
	if n == 0 && len(buf) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (s *InputStream) Close() error { return s.ch.Close() }

// OutputStream wraps positioned writes, recomputing its position from the
// file's size on every write when opened in append mode (§4.G).
type OutputStream struct {
	ch     *FileChannel
	pos    int64
	append bool
}

func NewOutputStream(file *inode.RegularFile, appendMode bool, c clock.Clock, state *fsstate.State) (*OutputStream, error) {
	opts := NewOpenOptions(Write)
	if appendMode {
		opts = NewOpenOptions(Write, Append)
	}
	ch, err := New(file, opts, c, state)
	if err != nil {
		return nil, err
	}
	s := &OutputStream{ch: ch, append: appendMode}
	if appendMode {
		s.pos = ch.Position()
	}
	return s, nil
}

func (s *OutputStream) Write(buf []byte) (int, error) {
	pos := s.pos
	if s.append {
		var err error
		pos, err = s.ch.Size()
		if err != nil {
			return 0, err
		}
	}
	n, err := s.ch.WriteAt(buf, pos)
	s.pos = pos + int64(n)
	return n, err
}

func (s *OutputStream) Close() error { return s.ch.Close() }
