package engine

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/sadopc/dutree/internal/model"
	"github.com/sadopc/dutree/internal/scanner"
)

// DeleteResult is the outcome for one requested path.
type DeleteResult struct {
	Path string
	// Freed is the size removed from the cached trees.
	Freed int64
	// CoveredBy names an earlier path of the same batch whose removal
	// already took this one with it.
	CoveredBy string
	Err       error
}

// DeleteReport lists the per-path outcomes of a batch in request order.
type DeleteReport struct {
	Results []DeleteResult
}

// Freed sums the bytes released by successful deletions.
func (r DeleteReport) Freed() int64 {
	var total int64
	for _, res := range r.Results {
		if res.Err == nil {
			total = model.SaturatingAdd(total, res.Freed)
		}
	}
	return total
}

// Failed counts the paths that could not be deleted.
func (r DeleteReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// DeleteItems permanently removes every path from disk and patches the cached
// trees that contain it. Each path must lie strictly inside a cached root.
// Failures are reported per path and never abort the batch.
func (e *Engine) DeleteItems(ctx context.Context, paths []string) DeleteReport {
	report := DeleteReport{Results: make([]DeleteResult, len(paths))}

	// Ancestors are processed before their descendants so the latter can be
	// reported as covered.
	order := make([]int, len(paths))
	resolved := make([]string, len(paths))
	for i, p := range paths {
		order[i] = i
		report.Results[i].Path = p
		abs, err := e.resolve(p)
		if err != nil {
			report.Results[i].Err = &DeletionFailure{Path: p, Kind: scanner.KindOther, Cause: err}
			continue
		}
		resolved[i] = abs
		report.Results[i].Path = abs
	}
	sort.SliceStable(order, func(a, b int) bool {
		return len(resolved[order[a]]) < len(resolved[order[b]])
	})

	var deleted []string
	for _, i := range order {
		res := &report.Results[i]
		if res.Err != nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			res.Err = &DeletionFailure{Path: res.Path, Kind: scanner.KindOther, Cause: err}
			continue
		}
		if by, ok := coveredBy(deleted, res.Path); ok {
			res.CoveredBy = by
			continue
		}

		freed, err := e.deleteOne(res.Path)
		res.Freed = freed
		if err != nil {
			res.Err = err
			e.logger.Warn(err)
			continue
		}
		deleted = append(deleted, res.Path)
	}
	return report
}

func coveredBy(deleted []string, path string) (string, bool) {
	for _, d := range deleted {
		if model.StrictlyContains(d, path) {
			return d, true
		}
	}
	return "", false
}

func (e *Engine) deleteOne(path string) (int64, error) {
	covering := e.cache.Covering(path)
	var root string
	for _, entry := range covering {
		if model.StrictlyContains(entry.Root(), path) {
			root = entry.Root()
			break
		}
	}
	if root == "" {
		return 0, &DeletionFailure{
			Path:  path,
			Kind:  scanner.KindOther,
			Cause: errors.Wrapf(ErrOutsideScannedRoot, "%s", path),
		}
	}

	affected := make([]string, 0, len(covering))
	for _, entry := range covering {
		affected = append(affected, entry.Root())
	}
	for _, entry := range e.cache.Within(path) {
		affected = append(affected, entry.Root())
	}
	unlock := e.roots.Lock(affected...)
	defer unlock()

	removeErr := e.src.Remove(root, path)
	if removeErr != nil && scanner.KindOf(removeErr) != scanner.KindNotFound {
		return 0, &DeletionFailure{Path: path, Kind: scanner.KindOf(removeErr), Cause: removeErr}
	}

	// The entry is gone from disk either way; bring the cache in line.
	freed := e.patchCaches(path)
	if removeErr != nil {
		return freed, &DeletionFailure{Path: path, Kind: scanner.KindNotFound, Cause: removeErr}
	}
	e.logger.Printf("deleted %s (%d bytes)", path, freed)
	return freed, nil
}

// patchCaches removes path from every cached tree that contains it and drops
// cached roots that lived inside it. Trees that do not materialize path are
// invalidated so the next access rescans them.
func (e *Engine) patchCaches(path string) int64 {
	var freed int64
	for _, entry := range e.cache.Covering(path) {
		if entry.Root() == path {
			continue
		}
		removed, ok := entry.Remove(path)
		if !ok {
			e.logger.Debugf("%s not materialized under %s, invalidating", path, entry.Root())
			e.cache.Invalidate(entry.Root())
			continue
		}
		if removed.Size > freed {
			freed = removed.Size
		}
	}
	for _, entry := range e.cache.Within(path) {
		e.cache.Invalidate(entry.Root())
	}
	return freed
}
