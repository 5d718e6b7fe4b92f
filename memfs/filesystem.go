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

// Package memfs wires the package-level components (config, inode,
// content, pathfs, attr, channel, vfsview, watch, internal/telemetry) into
// the single FileSystem facade an embedder constructs and operates against,
// generalizing fs/fs.go's top-level fileSystem type (which wires a GCS
// bucket, a lease manager and a fuseops-facing API together) to this
// module's in-memory store and path/attribute/channel/watch API.
package memfs

import (
	"time"

	"github.com/gcsfuse-contrib/memfs/attr"
	"github.com/gcsfuse-contrib/memfs/clock"
	"github.com/gcsfuse-contrib/memfs/config"
	"github.com/gcsfuse-contrib/memfs/content"
	"github.com/gcsfuse-contrib/memfs/errs"
	"github.com/gcsfuse-contrib/memfs/fsstate"
	"github.com/gcsfuse-contrib/memfs/inode"
	"github.com/gcsfuse-contrib/memfs/internal/telemetry"
	"github.com/gcsfuse-contrib/memfs/pathfs"
	"github.com/gcsfuse-contrib/memfs/pathlib"
	"github.com/gcsfuse-contrib/memfs/vfsview"
	"github.com/gcsfuse-contrib/memfs/watch"
)

// FileSystem is one instance of the in-memory virtual filesystem: a root
// set, a single store (View), a channel registry (State), a polling watch
// service, and the logger/metrics it records through.
type FileSystem struct {
	cfg *config.Config

	clock   clock.Clock
	factory *inode.Factory
	disk    *content.HeapDisk
	attrs   *attr.Service
	tree    *pathfs.Tree
	parser  pathlib.Parser
	view    *vfsview.View

	state *fsstate.State
	watch *watch.Service

	log     *telemetry.Logger
	metrics telemetry.MetricHandle
}

// Option configures a FileSystem at construction time, beyond what cfg
// already carries.
type Option func(*options)

type options struct {
	logger  *telemetry.Logger
	metrics telemetry.MetricHandle
}

// WithLogger overrides the default no-op Logger.
func WithLogger(l *telemetry.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics overrides the default no-op MetricHandle.
func WithMetrics(m telemetry.MetricHandle) Option {
	return func(o *options) { o.metrics = m }
}

// New builds a FileSystem from cfg, which must already have passed
// config.Validate and config.Rationalize (config.Decode does both). Every
// root named in cfg.Roots is created fresh and empty; cfg.WorkingDirectory
// must name one of them.
func New(cfg *config.Config, opts ...Option) (*FileSystem, error) {
	o := &options{logger: telemetry.Nop(), metrics: telemetry.NewNoopMetrics()}
	for _, opt := range opts {
		opt(o)
	}

	c := clock.RealClock{}
	factory := inode.NewFactory(c)
	disk := content.NewHeapDisk(int(cfg.BlockSize), cfg.MaxSize, cfg.MaxCacheSize)
	attrs := attr.DefaultService()
	tree := pathfs.NewTree()

	now := c.Now()
	var wd *inode.Directory
	for _, root := range cfg.Roots {
		dir := inode.NewRootDirectory(factory, now)
		tree.AddRoot(root, dir)
		if root == cfg.WorkingDirectory {
			wd = dir
		}
	}
	if wd == nil {
		return nil, errs.New("New", errs.InvalidArgument, cfg.WorkingDirectory)
	}

	syntax := pathlib.SyntaxFor(cfg)
	norm := pathlib.NewNormalizer(cfg)
	parser := pathlib.NewParser(syntax, norm, cfg.PathEqualityUsesCanonical)

	view := vfsview.New(tree, attrs, factory, disk, c, cfg, wd)

	state := fsstate.New()
	watchService := watch.New(c, tickerFunc(c, cfg.WatchPollInterval), view)

	fs := &FileSystem{
		cfg:     cfg,
		clock:   c,
		factory: factory,
		disk:    disk,
		attrs:   attrs,
		tree:    tree,
		parser:  parser,
		view:    view,
		state:   state,
		watch:   watchService,
		log:     o.logger,
		metrics: o.metrics,
	}

	state.OnClose(func() {
		if err := watchService.Close(); err != nil {
			fs.log.Warnf("watch service close: %v", err)
		}
	})

	fs.log.Infof("filesystem opened: roots=%v workingDirectory=%s", cfg.Roots, cfg.WorkingDirectory)
	return fs, nil
}

// Close drains every registered resource (open channels, the watch
// service) per §4.H, then blocks further use of the FileSystem.
func (fs *FileSystem) Close() error {
	err := fs.state.Close()
	if err != nil {
		fs.log.Warnf("filesystem close: %v", err)
	} else {
		fs.log.Infof("filesystem closed")
	}
	return err
}

// Parser returns the path parser this FileSystem's configuration selected,
// so callers can turn raw strings into pathlib.Path values to pass to the
// other FileSystem methods.
func (fs *FileSystem) Parser() pathlib.Parser { return fs.parser }

// Logger returns the Logger this FileSystem records through.
func (fs *FileSystem) Logger() *telemetry.Logger { return fs.log }
