package scanner

import (
	"sync/atomic"

	"github.com/sadopc/dutree/internal/model"
)

// Tally counts classification failures. It is lock-free and safe for
// concurrent use; a Reset racing with a walk may undercount that walk.
type Tally struct {
	permission atomic.Uint64
	notFound   atomic.Uint64
	other      atomic.Uint64
}

// Record counts one failure of the given kind. Successful kinds are ignored.
func (t *Tally) Record(kind Kind) {
	if t == nil {
		return
	}
	switch kind {
	case KindPermissionDenied:
		t.permission.Add(1)
	case KindNotFound:
		t.notFound.Add(1)
	case KindOther:
		t.other.Add(1)
	}
}

// Add merges a snapshot into the tally. A nil tally ignores it.
func (t *Tally) Add(s model.ErrorStats) {
	if t == nil {
		return
	}
	t.permission.Add(s.PermissionErrors)
	t.notFound.Add(s.NotFoundErrors)
	t.other.Add(s.OtherErrors)
}

// Snapshot returns the current counters.
func (t *Tally) Snapshot() model.ErrorStats {
	return model.ErrorStats{
		PermissionErrors: t.permission.Load(),
		NotFoundErrors:   t.notFound.Load(),
		OtherErrors:      t.other.Load(),
	}
}

// Reset zeroes all counters.
func (t *Tally) Reset() {
	t.permission.Store(0)
	t.notFound.Store(0)
	t.other.Store(0)
}
