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

package content

import (
	"io"

	"github.com/gcsfuse-contrib/memfs/errs"
)

// File is a block-list-backed positioned byte store (§4.B). It holds no
// lock of its own — callers (inode.RegularFile) serialize access with their
// own RW-lock, mirroring gcsproxy.MutableContent's "external synchronization
// required" contract.
type File struct {
	BlockList
	disk *HeapDisk
	size int64
}

// NewFile creates an empty file drawing blocks from disk.
func NewFile(disk *HeapDisk) *File {
	return &File{disk: disk}
}

// Size returns the file's logical size in bytes.
func (f *File) Size() int64 { return f.size }

// BlockCount returns the number of blocks currently backing the file.
func (f *File) BlockCount() int { return f.blockCount }

const eof = -1

// ReadAt reads into buf starting at position p, per §4.B's positioned-I/O
// contract: a read starting at or beyond size returns (0, io.EOF); a read
// crossing size returns the bytes up to size; reads never grow the file.
func (f *File) ReadAt(buf []byte, p int64) (n int, err error) {
	if p < 0 {
		return 0, errs.New("read", errs.InvalidArgument, "")
	}
	if p >= f.size {
		return 0, io.EOF
	}

	avail := f.size - p
	want := int64(len(buf))
	if want > avail {
		want = avail
	}

	blockSize := int64(f.disk.BlockSize())
	remaining := want
	pos := p
	off := 0
	for remaining > 0 {
		blockIdx := pos / blockSize
		blockOff := pos % blockSize
		chunk := blockSize - blockOff
		if chunk > remaining {
			chunk = remaining
		}
		copy(buf[off:off+int(chunk)], f.blocks[blockIdx][blockOff:blockOff+chunk])
		pos += chunk
		off += int(chunk)
		remaining -= chunk
	}

	return off, nil
}

// ReadByteAt returns the single byte at position p, or the EOF sentinel
// (-1) if p >= size, per §4.B.
func (f *File) ReadByteAt(p int64) (int, error) {
	if p < 0 {
		return 0, errs.New("read", errs.InvalidArgument, "")
	}
	if p >= f.size {
		return eof, nil
	}
	var b [1]byte
	if _, err := f.ReadAt(b[:], p); err != nil {
		return 0, err
	}
	return int(b[0]), nil
}

// WriteAt writes buf at position p, growing the file and zeroing any gap
// [size, p) first, per §4.B's write algorithm.
func (f *File) WriteAt(buf []byte, p int64) (n int, err error) {
	if p < 0 {
		return 0, errs.New("write", errs.InvalidArgument, "")
	}

	end := p + int64(len(buf))
	blockSize := int64(f.disk.BlockSize())
	requiredBlocks := int((end + blockSize - 1) / blockSize)

	if requiredBlocks > f.blockCount {
		if err := f.disk.Allocate(&f.BlockList, requiredBlocks-f.blockCount); err != nil {
			return 0, err
		}
	}

	if p > f.size {
		f.zeroRange(f.size, p)
		f.size = p
	}

	remaining := int64(len(buf))
	pos := p
	off := 0
	for remaining > 0 {
		blockIdx := pos / blockSize
		blockOff := pos % blockSize
		chunk := blockSize - blockOff
		if chunk > remaining {
			chunk = remaining
		}
		copy(f.blocks[blockIdx][blockOff:blockOff+chunk], buf[off:off+int(chunk)])
		pos += chunk
		off += int(chunk)
		remaining -= chunk
	}

	if end > f.size {
		f.size = end
	}

	return len(buf), nil
}

func (f *File) zeroRange(lo, hi int64) {
	blockSize := int64(f.disk.BlockSize())
	pos := lo
	for pos < hi {
		blockIdx := pos / blockSize
		blockOff := pos % blockSize
		chunk := blockSize - blockOff
		if pos+chunk > hi {
			chunk = hi - pos
		}
		blk := f.blocks[blockIdx]
		for i := int64(0); i < chunk; i++ {
			blk[blockOff+i] = 0
		}
		pos += chunk
	}
}

// Truncate implements §4.B: shrinking frees trailing blocks via the disk;
// growing past the current size is a no-op returning false (callers that
// want zero-filled growth should WriteAt instead, matching
// MutableContent.Truncate's extend-or-shrink duality via the disk's Free).
func (f *File) Truncate(newSize int64) (shrunk bool, err error) {
	if newSize < 0 {
		return false, errs.New("truncate", errs.InvalidArgument, "")
	}
	if newSize >= f.size {
		return false, nil
	}

	f.size = newSize
	blockSize := int64(f.disk.BlockSize())
	newBlockCount := int((newSize + blockSize - 1) / blockSize)
	if newBlockCount < f.blockCount {
		f.disk.Free(&f.BlockList, f.blockCount-newBlockCount)
	}
	return true, nil
}

// FreeAll returns every block this file holds to the disk and resets size
// to zero, used on delete-on-last-close (§4.B: "opened()/closed() ...
// frees its blocks and sets size = 0").
func (f *File) FreeAll() {
	f.disk.Free(&f.BlockList, f.blockCount)
	f.size = 0
}

// CopyContentTo allocates block_count blocks on other and byte-copies each
// block, per §4.B's copyContentTo.
func (f *File) CopyContentTo(other *File) error {
	if f.blockCount > 0 {
		if err := other.disk.Allocate(&other.BlockList, f.blockCount); err != nil {
			return err
		}
		for i := 0; i < f.blockCount; i++ {
			copy(other.blocks[i], f.blocks[i])
		}
	}
	if f.size > other.size {
		other.size = f.size
	}
	return nil
}
