package cache

import (
	"github.com/pkg/errors"

	"github.com/sadopc/dutree/internal/model"
)

// Project returns a copy of the cached node for path, materialized to depth
// levels, without touching the filesystem. Covering roots are tried deepest
// first. It returns ErrNotCached when nothing covers path and
// ErrInsufficientDepth when no covering tree is deep enough.
func (c *Cache) Project(path string, depth int) (*model.Node, error) {
	covering := c.Covering(path)
	if len(covering) == 0 {
		return nil, ErrNotCached
	}

	for _, e := range covering {
		node, err := e.Project(path, depth)
		switch {
		case err == nil:
			c.touch(e.root)
			return node, nil
		case errors.Is(err, ErrInsufficientDepth):
			continue
		default:
			return nil, err
		}
	}
	return nil, ErrInsufficientDepth
}
