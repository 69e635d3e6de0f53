package scanner

import (
	"context"
	"io/fs"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/sadopc/dutree/internal/logging"
	"github.com/sadopc/dutree/internal/model"
)

// Walker computes recursive sizes for a directory subtree with bounded
// goroutine-per-directory parallelism.
//
// A directory reachable by more than one path is counted once. Real
// directories always win over directories reached through a followed link,
// and ties are broken by path order, so the result never depends on which
// goroutine got there first.
type Walker struct {
	src    Source
	opts   Options
	logger *logging.Logger
}

// NewWalker creates a walker reading from src.
func NewWalker(src Source, opts Options, logger *logging.Logger) *Walker {
	return &Walker{src: src, opts: opts, logger: logger}
}

// totals is the aggregate of one directory. children is only populated for
// directories inside the materialization frontier.
type totals struct {
	size     int64
	usage    int64
	count    int
	children []*model.Node
}

func (t *totals) add(size, usage int64) {
	t.size = model.SaturatingAdd(t.size, size)
	t.usage = model.SaturatingAdd(t.usage, usage)
}

type fault struct {
	path string
	kind Kind
	err  error
}

// listing is one directory as read from the source. Sizes are summed only
// after every linked directory has been resolved.
type listing struct {
	name, path string
	key        string
	mtime      int64
	level      int
	linked     bool

	files   totals
	subdirs []*listing
	links   []*listing
	faults  []fault
	err     error
	listed  bool
	// dup is set when another path already accounts for this directory.
	dup bool
}

// lineage is the chain of directory keys from a listing up to where its
// listing pass started.
type lineage struct {
	key string
	up  *lineage
}

func (l *lineage) has(key string) bool {
	for ; l != nil; l = l.up {
		if l.key == key {
			return true
		}
	}
	return false
}

// walk holds the state shared by every directory of a single Walk call.
type walk struct {
	*Walker
	ctx      context.Context
	root     string
	depth    int
	sem      chan struct{}
	local    Tally
	claimed  map[string]bool
	pending  []*listing
	current  atomic.Pointer[string]
	files    atomic.Int64
	dirs     atomic.Int64
	bytes    atomic.Int64
	failures atomic.Int64
}

// Walk scans root and returns its node with children materialized for every
// directory shallower than depth (the root is at depth 0). Sizes and counts
// always cover the full subtree. Entry failures are recorded in shared (if
// non-nil) and in the returned per-walk snapshot. A failure on the root itself
// fails the walk. Progress snapshots are sent without blocking; the caller
// owns the channel.
func (w *Walker) Walk(ctx context.Context, root string, depth int, shared *Tally, progress chan<- Progress) (*model.Node, model.ErrorStats, error) {
	absRoot, err := w.src.Abs(root)
	if err != nil {
		return nil, model.ErrorStats{}, errors.Wrapf(err, "unable to resolve %s", root)
	}

	rootEntry := Classify(w.src, absRoot, nil, true)
	if rootEntry.Kind.Failed() {
		return nil, model.ErrorStats{}, errors.Wrapf(rootEntry.Err, "unable to access %s", absRoot)
	}
	node := &model.Node{
		Name:  baseName(absRoot),
		Path:  absRoot,
		Mtime: rootEntry.Mtime,
	}
	if rootEntry.Kind == KindFile {
		node.Size, node.Usage = rootEntry.Size, rootEntry.Usage
		return node, model.ErrorStats{}, nil
	}

	if w.opts.DisableGC {
		oldGC := debug.SetGCPercent(-1)
		defer debug.SetGCPercent(oldGC)
	}

	wk := &walk{
		Walker:  w,
		ctx:     ctx,
		root:    absRoot,
		depth:   depth,
		sem:     make(chan struct{}, w.opts.workers()),
		claimed: map[string]bool{},
	}

	startTime := time.Now()
	var progressWg sync.WaitGroup
	progressDone := make(chan struct{})
	if progress != nil {
		progressWg.Add(1)
		go func() {
			defer progressWg.Done()
			ticker := time.NewTicker(50 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					select {
					case progress <- wk.snapshot(startTime, false):
					default:
						// Drop if channel full
					}
				case <-progressDone:
					return
				}
			}
		}()
	}

	top := &listing{name: node.Name, path: absRoot, key: rootEntry.Key, mtime: rootEntry.Mtime}
	wk.list(top, nil)
	if top.err == nil {
		wk.claim(top)
		wk.resolveLinks()
	}

	if progress != nil {
		close(progressDone)
		progressWg.Wait()
		select {
		case progress <- wk.snapshot(startTime, true):
		default:
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, model.ErrorStats{}, ctxErr
	}
	if top.err != nil {
		return nil, model.ErrorStats{}, errors.Wrapf(top.err, "unable to list %s", absRoot)
	}

	t := wk.sum(top)
	node.IsDirectory = true
	node.Size, node.Usage = t.size, t.usage
	node.ChildrenCount = t.count
	node.Children = t.children

	stats := wk.local.Snapshot()
	shared.Add(stats)

	w.logger.Debugf("walked %s in %s (depth %d, %d entries, %d failures)",
		absRoot, time.Since(startTime).Round(time.Millisecond), depth,
		wk.files.Load()+wk.dirs.Load(), stats.Total())
	return node, stats, nil
}

func (wk *walk) snapshot(start time.Time, done bool) Progress {
	p := Progress{
		FilesScanned: wk.files.Load(),
		DirsScanned:  wk.dirs.Load(),
		BytesFound:   wk.bytes.Load(),
		Errors:       wk.failures.Load(),
		Elapsed:      time.Since(start),
		Done:         done,
	}
	if cur := wk.current.Load(); cur != nil {
		p.CurrentPath = *cur
	}
	return p
}

// spawn runs fn on a new goroutine when a worker slot is free. If all workers
// are busy, fn runs synchronously in the current goroutine instead of
// spawning a blocked goroutine.
func (wk *walk) spawn(wg *sync.WaitGroup, fn func()) {
	select {
	case wk.sem <- struct{}{}:
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-wk.sem }()
			fn()
		}()
	default:
		fn()
	}
}

// list reads d and, in parallel, every real directory below it. Directories
// reached through a followed link are recorded in d.links and left unread.
// A directory whose key is already on the chain above it is skipped so that
// self-nested bind mounts terminate.
func (wk *walk) list(d *listing, above *lineage) {
	if err := wk.ctx.Err(); err != nil {
		d.err = err
		return
	}
	entries, err := wk.src.ReadDir(d.path)
	if err != nil {
		d.err = err
		wk.failures.Add(1)
		return
	}
	d.listed = true
	wk.dirs.Add(1)
	wk.current.Store(&d.path)

	chain := &lineage{key: d.key, up: above}
	materialize := d.level < wk.depth

	for _, entry := range entries {
		name := entry.Name()
		path := wk.src.Join(d.path, name)
		if wk.excluded(path, name) {
			continue
		}

		e := Classify(wk.src, path, entry, wk.opts.FollowSymlinks)
		switch e.Kind {
		case KindFile:
			d.files.add(e.Size, e.Usage)
			d.files.count++
			wk.files.Add(1)
			wk.bytes.Add(e.Size)
			if materialize {
				d.files.children = append(d.files.children, &model.Node{
					Name:  name,
					Path:  path,
					Size:  e.Size,
					Usage: e.Usage,
					Mtime: e.Mtime,
				})
			}
		case KindDirectory:
			sub := &listing{name: name, path: path, key: e.Key, mtime: e.Mtime, level: d.level + 1}
			switch {
			case entry.Type()&fs.ModeSymlink != 0:
				sub.linked = true
				d.links = append(d.links, sub)
			case chain.has(e.Key):
				wk.logger.Tracef("skipping %s: directory contains itself", path)
			default:
				d.subdirs = append(d.subdirs, sub)
			}
		default:
			d.faults = append(d.faults, fault{path, e.Kind, e.Err})
			wk.failures.Add(1)
		}
	}

	var wg sync.WaitGroup
	for _, sub := range d.subdirs {
		wk.spawn(&wg, func() { wk.list(sub, chain) })
	}
	wg.Wait()
}

// claim marks the directories below d as accounted for, parents first and
// siblings in name order. A directory whose key is already claimed becomes a
// duplicate along with everything under it.
func (wk *walk) claim(d *listing) {
	if !d.listed {
		return
	}
	if wk.claimed[d.key] {
		d.dup = true
		return
	}
	wk.claimed[d.key] = true
	wk.pending = append(wk.pending, d.links...)

	slices.SortFunc(d.subdirs, func(a, b *listing) int { return strings.Compare(a.name, b.name) })
	for _, sub := range d.subdirs {
		wk.claim(sub)
	}
}

// resolveLinks reads linked directories one at a time in path order. Each
// round may uncover links of its own, which are resolved in the next round.
func (wk *walk) resolveLinks() {
	for len(wk.pending) > 0 && wk.ctx.Err() == nil {
		round := wk.pending
		wk.pending = nil
		slices.SortFunc(round, func(a, b *listing) int { return strings.Compare(a.path, b.path) })

		for _, l := range round {
			if wk.claimed[l.key] {
				l.dup = true
				continue
			}
			wk.list(l, nil)
			wk.claim(l)
		}
	}
}

// sum folds d's subtree into totals and records the failures of every
// directory that was not a duplicate.
func (wk *walk) sum(d *listing) totals {
	t := d.files
	for _, f := range d.faults {
		wk.fail(f.path, f.kind, f.err)
	}
	materialize := d.level < wk.depth

	for _, group := range [][]*listing{d.subdirs, d.links} {
		for _, sub := range group {
			switch {
			case sub.dup:
				wk.logger.Tracef("skipping %s: directory already counted", sub.path)
				continue
			case sub.err != nil:
				wk.fail(sub.path, KindOf(sub.err), sub.err)
				continue
			case !sub.listed:
				continue
			}

			r := wk.sum(sub)
			t.add(r.size, r.usage)
			t.count++
			if materialize {
				children := r.children
				if children == nil {
					children = []*model.Node{}
				}
				t.children = append(t.children, &model.Node{
					Name:          sub.name,
					Path:          sub.path,
					Size:          r.size,
					Usage:         r.usage,
					Mtime:         sub.mtime,
					IsDirectory:   true,
					Children:      children,
					ChildrenCount: r.count,
				})
			}
		}
	}

	if materialize {
		if t.children == nil {
			t.children = []*model.Node{}
		}
		model.SortBySizeDesc(t.children)
	}
	return t
}

func (wk *walk) fail(path string, kind Kind, err error) {
	wk.local.Record(kind)
	wk.logger.Tracef("skipping %s: %v", path, err)
}

func (wk *walk) excluded(path, name string) bool {
	if len(wk.opts.ExcludePatterns) == 0 {
		return false
	}
	rel := strings.TrimLeft(strings.TrimPrefix(path, wk.root), `/\`)
	rel = strings.ReplaceAll(rel, `\`, "/")
	for _, p := range wk.opts.ExcludePatterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// baseName returns the last element of p, accepting either separator. A
// filesystem root is its own name.
func baseName(p string) string {
	trimmed := strings.TrimRight(p, `/\`)
	if trimmed == "" {
		return p
	}
	if i := strings.LastIndexAny(trimmed, `/\`); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
