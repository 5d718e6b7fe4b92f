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

package vfsview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gcsfuse-contrib/memfs/attr"
	"github.com/gcsfuse-contrib/memfs/clock"
	"github.com/gcsfuse-contrib/memfs/config"
	"github.com/gcsfuse-contrib/memfs/content"
	"github.com/gcsfuse-contrib/memfs/inode"
	"github.com/gcsfuse-contrib/memfs/pathfs"
	"github.com/gcsfuse-contrib/memfs/pathlib"
)

// newTestView constructs a View over a fresh single-root tree, with links,
// symbolic links and file channels enabled, for use as a test fixture.
func newTestView(t *testing.T) (*View, pathlib.Parser) {
	t.Helper()
	c := clock.NewSimulatedClock(time.Unix(1000, 0))
	factory := inode.NewFactory(c)
	disk := content.NewHeapDisk(4, 1<<20, 1<<20)
	cfg := &config.Config{
		SupportedFeatures: config.FeatureLinks | config.FeatureSymbolicLinks | config.FeatureFileChannel,
	}
	parser := pathlib.NewParser(pathlib.SyntaxFor(cfg), pathlib.NewNormalizer(cfg), false)

	root := inode.NewRootDirectory(factory, time.Now())
	tree := pathfs.NewTree()
	tree.AddRoot("/", root)

	v := New(tree, attr.DefaultService(), factory, disk, c, cfg, root)
	return v, parser
}

func mustParse(t *testing.T, p pathlib.Parser, s string) pathlib.Path {
	t.Helper()
	pth, err := p.Parse(s)
	require.NoError(t, err)
	return pth
}
