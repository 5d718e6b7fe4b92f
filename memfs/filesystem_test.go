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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcsfuse-contrib/memfs/channel"
	"github.com/gcsfuse-contrib/memfs/config"
	"github.com/gcsfuse-contrib/memfs/internal/telemetry"
	"github.com/gcsfuse-contrib/memfs/vfsview"
)

func newTestFileSystem(t *testing.T) *FileSystem {
	t.Helper()
	fs, err := New(config.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = fs.Close() })
	return fs
}

func TestNew_RejectsUnknownWorkingDirectory(t *testing.T) {
	cfg := config.Default()
	cfg.WorkingDirectory = "/nope"

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNew_AppliesLoggerAndMetricsOptions(t *testing.T) {
	m := telemetry.NewNoopMetrics()
	fs, err := New(config.Default(), WithLogger(telemetry.Nop()), WithMetrics(m))
	require.NoError(t, err)
	defer fs.Close()

	assert.NotNil(t, fs.Logger())
}

func TestFileSystem_CreateFileMkdirAndLookupViaAttributes(t *testing.T) {
	fs := newTestFileSystem(t)

	dirPath, err := fs.Parse("/sub")
	require.NoError(t, err)
	_, err = fs.Mkdir(dirPath, true, nil)
	require.NoError(t, err)

	filePath, err := fs.Parse("/sub/file.txt")
	require.NoError(t, err)
	_, err = fs.CreateFile(filePath, true, nil)
	require.NoError(t, err)

	require.NoError(t, fs.CheckAccess(filePath))

	attrs, err := fs.ReadAttributes(filePath, "basic:*")
	require.NoError(t, err)
	assert.NotEmpty(t, attrs)
}

func TestFileSystem_CreateFileFailIfExists(t *testing.T) {
	fs := newTestFileSystem(t)

	p, err := fs.Parse("/dup.txt")
	require.NoError(t, err)
	_, err = fs.CreateFile(p, true, nil)
	require.NoError(t, err)

	_, err = fs.CreateFile(p, true, nil)
	assert.Error(t, err)
}

func TestFileSystem_SymlinkAndReadSymbolicLink(t *testing.T) {
	fs := newTestFileSystem(t)

	target, err := fs.Parse("/target.txt")
	require.NoError(t, err)
	_, err = fs.CreateFile(target, true, nil)
	require.NoError(t, err)

	link, err := fs.Parse("/link.txt")
	require.NoError(t, err)
	_, err = fs.Symlink(link, target, true, nil)
	require.NoError(t, err)

	got, err := fs.ReadSymbolicLink(link)
	require.NoError(t, err)
	assert.Equal(t, target.String(), got.String())
}

func TestFileSystem_LinkCreatesSecondName(t *testing.T) {
	fs := newTestFileSystem(t)

	existing, err := fs.Parse("/a.txt")
	require.NoError(t, err)
	_, err = fs.CreateFile(existing, true, nil)
	require.NoError(t, err)

	linked, err := fs.Parse("/b.txt")
	require.NoError(t, err)
	require.NoError(t, fs.Link(linked, existing))

	require.NoError(t, fs.CheckAccess(linked))
}

func TestFileSystem_RemoveDeletesFile(t *testing.T) {
	fs := newTestFileSystem(t)

	p, err := fs.Parse("/gone.txt")
	require.NoError(t, err)
	_, err = fs.CreateFile(p, true, nil)
	require.NoError(t, err)

	require.NoError(t, fs.Remove(p, vfsview.DeleteAny))
	assert.Error(t, fs.CheckAccess(p))
}

func TestFileSystem_CopyOrMoveRenamesFile(t *testing.T) {
	fs := newTestFileSystem(t)

	src, err := fs.Parse("/src.txt")
	require.NoError(t, err)
	_, err = fs.CreateFile(src, true, nil)
	require.NoError(t, err)

	dst, err := fs.Parse("/dst.txt")
	require.NoError(t, err)
	require.NoError(t, fs.CopyOrMove(src, dst, 0, true))

	assert.Error(t, fs.CheckAccess(src))
	assert.NoError(t, fs.CheckAccess(dst))
}

func TestFileSystem_OpenWriteAndReadBackThroughChannel(t *testing.T) {
	fs := newTestFileSystem(t)

	p, err := fs.Parse("/data.txt")
	require.NoError(t, err)

	w, err := fs.Open(p, channel.NewOpenOptions(channel.Write, channel.Create), nil)
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := fs.Open(p, channel.NewOpenOptions(channel.Read), nil)
	require.NoError(t, err)
	defer r.Close()

	buf := make([]byte, 5)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
}

func TestFileSystem_SetAttributeRoundTrips(t *testing.T) {
	fs := newTestFileSystem(t)

	p, err := fs.Parse("/attrd.txt")
	require.NoError(t, err)
	_, err = fs.CreateFile(p, true, nil)
	require.NoError(t, err)

	require.NoError(t, fs.SetAttribute(p, "dos", "readonly", true))
	attrs, err := fs.ReadAttributes(p, "dos:readonly")
	require.NoError(t, err)
	assert.Equal(t, true, attrs["readonly"])
}

func TestFileSystem_ClosePreventsFurtherOpens(t *testing.T) {
	fs, err := New(config.Default())
	require.NoError(t, err)

	p, err := fs.Parse("/after-close.txt")
	require.NoError(t, err)
	_, err = fs.CreateFile(p, true, nil)
	require.NoError(t, err)

	require.NoError(t, fs.Close())

	_, err = fs.Open(p, channel.NewOpenOptions(channel.Read, channel.Write), nil)
	assert.Error(t, err)
}
