package cache

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/dutree/internal/model"
)

// Entry is one cached scan result. The tree is guarded by the entry's own
// lock so that readers of different roots never contend.
type Entry struct {
	root       string
	seq        uint64
	generation uuid.UUID
	builtAt    time.Time
	duration   time.Duration

	mu         sync.RWMutex
	tree       *model.Node
	builtDepth int
	errors     model.ErrorStats
}

// Info describes an entry without exposing its tree.
type Info struct {
	Root       string           `json:"root"`
	BuiltDepth int              `json:"built_depth"`
	Errors     model.ErrorStats `json:"errors"`
	Generation uuid.UUID        `json:"generation"`
	BuiltAt    time.Time        `json:"built_at"`
	Duration   time.Duration    `json:"duration"`
	Size       int64            `json:"size"`
}

// NewEntry wraps a finished tree. seq orders builds of the same root and must
// come from Cache.Begin before the walk starts.
func NewEntry(tree *model.Node, builtDepth int, errs model.ErrorStats, seq uint64, duration time.Duration) *Entry {
	return &Entry{
		root:       tree.Path,
		seq:        seq,
		generation: uuid.New(),
		builtAt:    time.Now(),
		duration:   duration,
		tree:       tree,
		builtDepth: builtDepth,
		errors:     errs,
	}
}

// Root returns the scanned root path.
func (e *Entry) Root() string {
	return e.root
}

// Info returns a snapshot of the entry's metadata.
func (e *Entry) Info() Info {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Info{
		Root:       e.root,
		BuiltDepth: e.builtDepth,
		Errors:     e.errors,
		Generation: e.generation,
		BuiltAt:    e.builtAt,
		Duration:   e.duration,
		Size:       e.tree.Size,
	}
}

// Remove detaches path from the cached tree and updates ancestor totals.
func (e *Entry) Remove(path string) (*model.Node, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return model.Remove(e.tree, path)
}

// Project serves a pruned copy of path from this entry alone. It returns
// ErrInsufficientDepth when path is not in the tree or the tree is too
// shallow, and ErrNotDirectory when path names a file.
func (e *Entry) Project(path string, depth int) (*model.Node, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	node, k, ok := model.Find(e.tree, path)
	if !ok {
		return nil, ErrInsufficientDepth
	}
	if !node.IsDirectory {
		return nil, ErrNotDirectory
	}
	if depth > e.builtDepth-k {
		return nil, ErrInsufficientDepth
	}
	return model.Project(node, depth), nil
}
