package scanner

import (
	"runtime"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// Options configures the walker behavior.
type Options struct {
	// FollowSymlinks follows symbolic links (default: true)
	FollowSymlinks bool
	// ExcludePatterns are doublestar globs matched against entry names and
	// root-relative slash paths. Matching entries are omitted entirely.
	ExcludePatterns []string
	// DisableGC disables garbage collection during a walk for speed
	DisableGC bool
	// Concurrency overrides the default semaphore count (0 = auto)
	Concurrency int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		FollowSymlinks:  true,
		ExcludePatterns: []string{},
		DisableGC:       false,
		Concurrency:     0,
	}
}

// Validate checks the exclusion patterns.
func (o Options) Validate() error {
	if o.Concurrency < 0 {
		return errors.New("concurrency must not be negative")
	}
	for _, p := range o.ExcludePatterns {
		if !doublestar.ValidatePattern(p) {
			return errors.Errorf("invalid exclude pattern %q", p)
		}
	}
	return nil
}

func (o Options) workers() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return runtime.GOMAXPROCS(0) * 3
}
