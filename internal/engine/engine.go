// Package engine is the command surface over the walker, the scan cache and
// the deletion coordinator. One Engine is shared by every front end.
package engine

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/sadopc/dutree/internal/cache"
	"github.com/sadopc/dutree/internal/logging"
	"github.com/sadopc/dutree/internal/model"
	"github.com/sadopc/dutree/internal/scanner"
)

// FullDepth materializes an entire tree.
const FullDepth = math.MaxInt32

// Config configures an Engine.
type Config struct {
	// DefaultDepth is the materialization depth used by BuildCache and the
	// minimum depth of implicit builds.
	DefaultDepth int
	// MaxRoots caps the number of cached roots (0 = unlimited).
	MaxRoots int
	// Scan configures the walker.
	Scan scanner.Options
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		DefaultDepth: 2,
		Scan:         scanner.DefaultOptions(),
	}
}

// Engine owns the shared state: the scan cache and the error tally.
type Engine struct {
	cfg    Config
	src    scanner.Source
	walker *scanner.Walker
	cache  *cache.Cache
	tally  scanner.Tally
	flight singleflight.Group
	roots  keyedMutex
	logger *logging.Logger
}

// New creates an engine reading from src.
func New(src scanner.Source, cfg Config, logger *logging.Logger) (*Engine, error) {
	if cfg.DefaultDepth < 0 {
		return nil, errors.Wrap(ErrInvalidDepth, "default depth")
	}
	if cfg.MaxRoots < 0 {
		return nil, errors.New("max roots must not be negative")
	}
	if err := cfg.Scan.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid scan options")
	}
	return &Engine{
		cfg:    cfg,
		src:    src,
		walker: scanner.NewWalker(src, cfg.Scan, logger.Sublogger("walker")),
		cache:  cache.New(cfg.MaxRoots, logger.Sublogger("cache")),
		logger: logger,
	}, nil
}

// Source returns the filesystem the engine operates on.
func (e *Engine) Source() scanner.Source {
	return e.src
}

// DefaultDepth returns the configured build depth.
func (e *Engine) DefaultDepth() int {
	return e.cfg.DefaultDepth
}

// BuildCache scans path at the configured default depth and replaces any
// cached tree for it.
func (e *Engine) BuildCache(ctx context.Context, path string, progress chan<- scanner.Progress) (cache.Info, error) {
	return e.BuildCacheWithDepth(ctx, path, e.cfg.DefaultDepth, progress)
}

// BuildCacheWithDepth scans path, materializing depth levels, and replaces
// any cached tree for it. path must be an existing directory.
func (e *Engine) BuildCacheWithDepth(ctx context.Context, path string, depth int, progress chan<- scanner.Progress) (cache.Info, error) {
	if depth < 0 {
		return cache.Info{}, errors.Wrapf(ErrInvalidDepth, "%d", depth)
	}
	root, err := e.resolve(path)
	if err != nil {
		return cache.Info{}, err
	}
	entry, err := e.build(ctx, root, depth, progress)
	if errors.Is(err, ErrNotDirectory) {
		return cache.Info{}, errors.Wrapf(ErrInvalidPath, "%s is not a directory", root)
	} else if err != nil {
		return cache.Info{}, err
	}
	return entry.Info(), nil
}

// GetResultWithDepth returns the tree rooted at path with depth levels of
// children. It is served from the cache when a covering tree is deep enough
// and otherwise triggers a build.
func (e *Engine) GetResultWithDepth(ctx context.Context, path string, depth int) (*model.Node, error) {
	if depth < 0 {
		return nil, errors.Wrapf(ErrInvalidDepth, "%d", depth)
	}
	root, err := e.resolve(path)
	if err != nil {
		return nil, err
	}

	node, err := e.cache.Project(root, depth)
	switch {
	case err == nil:
		e.logger.Tracef("cache hit for %s at depth %d", root, depth)
		return node, nil
	case errors.Is(err, cache.ErrNotDirectory):
		return nil, errors.Wrapf(ErrNotDirectory, "%s", root)
	}

	buildDepth := depth
	if buildDepth < e.cfg.DefaultDepth {
		buildDepth = e.cfg.DefaultDepth
	}
	e.logger.Debugf("cache miss for %s at depth %d (%v), building to depth %d", root, depth, err, buildDepth)
	entry, err := e.build(ctx, root, buildDepth, nil)
	if err != nil {
		return nil, err
	}
	// Served from the entry just built: a later, shallower build may already
	// have replaced it in the cache.
	node, err = entry.Project(root, depth)
	if errors.Is(err, cache.ErrNotDirectory) {
		return nil, errors.Wrapf(ErrNotDirectory, "%s", root)
	} else if err != nil {
		return nil, errors.Wrapf(err, "unable to serve %s", root)
	}
	return node, nil
}

// GetDirectoryChildrenWithDepth returns the children of path, each carrying
// depth-1 further levels. A depth of zero is treated as one.
func (e *Engine) GetDirectoryChildrenWithDepth(ctx context.Context, path string, depth int) ([]*model.Node, error) {
	if depth < 0 {
		return nil, errors.Wrapf(ErrInvalidDepth, "%d", depth)
	}
	if depth == 0 {
		depth = 1
	}
	node, err := e.GetResultWithDepth(ctx, path, depth)
	if err != nil {
		return nil, err
	}
	if node.Children == nil {
		return []*model.Node{}, nil
	}
	return node.Children, nil
}

// GetErrorStats returns the failures counted since the last reset.
func (e *Engine) GetErrorStats() model.ErrorStats {
	return e.tally.Snapshot()
}

// ResetErrorStats zeroes the failure counters.
func (e *Engine) ResetErrorStats() {
	e.tally.Reset()
}

// Cached returns metadata for the cached tree rooted exactly at path.
func (e *Engine) Cached(path string) (cache.Info, bool) {
	root, err := e.resolve(path)
	if err != nil {
		return cache.Info{}, false
	}
	entry, ok := e.cache.Get(root)
	if !ok {
		return cache.Info{}, false
	}
	return entry.Info(), true
}

// Roots lists the cached roots.
func (e *Engine) Roots() []string {
	return e.cache.Roots()
}

// Invalidate drops the cached tree rooted at path.
func (e *Engine) Invalidate(path string) bool {
	root, err := e.resolve(path)
	if err != nil {
		return false
	}
	unlock := e.roots.Lock(root)
	defer unlock()
	return e.cache.Invalidate(root)
}

func (e *Engine) resolve(path string) (string, error) {
	if path == "" {
		return "", errors.Wrap(ErrInvalidPath, "empty path")
	}
	root, err := e.src.Abs(path)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidPath, "%s: %v", path, err)
	}
	return root, nil
}

// build walks root and installs the result. Concurrent requests for the same
// root and depth share one walk; builds and deletions touching the same root
// are serialized.
func (e *Engine) build(ctx context.Context, root string, depth int, progress chan<- scanner.Progress) (*cache.Entry, error) {
	key := root + "\x00" + strconv.Itoa(depth)
	v, err, shared := e.flight.Do(key, func() (interface{}, error) {
		unlock := e.roots.Lock(root)
		defer unlock()

		seq := e.cache.Begin()
		start := time.Now()
		tree, stats, err := e.walker.Walk(ctx, root, depth, &e.tally, progress)
		if err != nil {
			return nil, rootError(root, err)
		}
		if !tree.IsDirectory {
			return nil, errors.Wrapf(ErrNotDirectory, "%s", root)
		}

		entry := cache.NewEntry(tree, depth, stats, seq, time.Since(start))
		e.cache.Put(entry)
		e.logger.Printf("built %s to depth %d in %s (%d errors)",
			root, depth, time.Since(start).Round(time.Millisecond), stats.Total())
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		e.logger.Tracef("shared build of %s at depth %d", root, depth)
	}
	return v.(*cache.Entry), nil
}
