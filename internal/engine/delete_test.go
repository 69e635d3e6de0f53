package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteItems_PatchesAncestors(t *testing.T) {
	root := fixture(t)
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.BuildCache(ctx, root, nil)
	require.NoError(t, err)

	target := filepath.Join(root, "sub", "b.txt")
	report := e.DeleteItems(ctx, []string{target})
	require.Len(t, report.Results, 1)
	require.NoError(t, report.Results[0].Err)
	assert.Equal(t, int64(50), report.Results[0].Freed)
	assert.Equal(t, int64(50), report.Freed())
	assert.Zero(t, report.Failed())

	_, err = os.Lstat(target)
	assert.True(t, os.IsNotExist(err))

	node, err := e.GetResultWithDepth(ctx, root, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(100), node.Size)
	sub := child(t, node, "sub")
	assert.Zero(t, sub.Size)
	assert.Zero(t, sub.ChildrenCount)
	assert.Empty(t, sub.Children)

	// The patched tree matches a fresh scan.
	_, err = e.BuildCache(ctx, root, nil)
	require.NoError(t, err)
	fresh, err := e.GetResultWithDepth(ctx, root, 2)
	require.NoError(t, err)
	assert.Equal(t, node.Size, fresh.Size)
	assert.Equal(t, node.Usage, fresh.Usage)
	assert.Equal(t, node.ChildrenCount, fresh.ChildrenCount)
	assert.Equal(t, sub.ChildrenCount, child(t, fresh, "sub").ChildrenCount)
}

func TestDeleteItems_Directory(t *testing.T) {
	root := fixture(t)
	e := newEngine(t)
	ctx := context.Background()
	_, err := e.BuildCache(ctx, root, nil)
	require.NoError(t, err)

	report := e.DeleteItems(ctx, []string{filepath.Join(root, "sub")})
	require.NoError(t, report.Results[0].Err)

	node, err := e.GetResultWithDepth(ctx, root, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), node.Size)
	assert.Equal(t, 2, node.ChildrenCount)
	for _, c := range node.Children {
		assert.NotEqual(t, "sub", c.Name)
	}
}

func TestDeleteItems_RejectsPathsOutsideRoots(t *testing.T) {
	root := fixture(t)
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "keep.txt"), 5)

	e := newEngine(t)
	ctx := context.Background()
	_, err := e.BuildCache(ctx, root, nil)
	require.NoError(t, err)

	report := e.DeleteItems(ctx, []string{
		filepath.Join(outside, "keep.txt"),
		root,
		filepath.Join(root, "a.txt"),
	})
	require.Len(t, report.Results, 3)

	assert.ErrorIs(t, report.Results[0].Err, ErrOutsideScannedRoot)
	assert.ErrorIs(t, report.Results[1].Err, ErrOutsideScannedRoot)
	assert.Equal(t, "outside_root", Kind(report.Results[1].Err))
	assert.NoError(t, report.Results[2].Err)
	assert.Equal(t, 2, report.Failed())

	_, err = os.Stat(filepath.Join(outside, "keep.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(root)
	assert.NoError(t, err)

	var failure *DeletionFailure
	require.ErrorAs(t, report.Results[0].Err, &failure)
	assert.Equal(t, filepath.Join(outside, "keep.txt"), failure.Path)
}

func TestDeleteItems_DescendantCoveredByAncestor(t *testing.T) {
	root := fixture(t)
	e := newEngine(t)
	ctx := context.Background()
	_, err := e.BuildCache(ctx, root, nil)
	require.NoError(t, err)

	sub := filepath.Join(root, "sub")
	report := e.DeleteItems(ctx, []string{filepath.Join(sub, "b.txt"), sub})
	require.NoError(t, report.Results[0].Err)
	require.NoError(t, report.Results[1].Err)
	assert.Equal(t, sub, report.Results[0].CoveredBy)
	assert.Equal(t, int64(50), report.Freed())

	node, err := e.GetResultWithDepth(ctx, root, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), node.Size)
}

func TestDeleteItems_NotMaterializedInvalidates(t *testing.T) {
	root := fixture(t)
	writeFile(t, filepath.Join(root, "sub", "deep", "c.bin"), 30)
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.BuildCacheWithDepth(ctx, root, 1, nil)
	require.NoError(t, err)

	report := e.DeleteItems(ctx, []string{filepath.Join(root, "sub", "deep", "c.bin")})
	require.NoError(t, report.Results[0].Err)
	assert.Empty(t, e.Roots())

	node, err := e.GetResultWithDepth(ctx, root, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(150), node.Size)
}

func TestDeleteItems_NestedRoots(t *testing.T) {
	root := fixture(t)
	writeFile(t, filepath.Join(root, "sub", "inner", "d.bin"), 25)
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.BuildCacheWithDepth(ctx, root, 3, nil)
	require.NoError(t, err)
	sub := filepath.Join(root, "sub")
	_, err = e.BuildCacheWithDepth(ctx, sub, 2, nil)
	require.NoError(t, err)
	require.Len(t, e.Roots(), 2)

	inner := filepath.Join(sub, "inner")
	report := e.DeleteItems(ctx, []string{inner})
	require.NoError(t, report.Results[0].Err)
	assert.Equal(t, int64(25), report.Results[0].Freed)

	subView, err := e.GetResultWithDepth(ctx, sub, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), subView.Size)

	rootView, err := e.GetResultWithDepth(ctx, root, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(150), rootView.Size)

	// Deleting a cached root from its parent drops its entry.
	report = e.DeleteItems(ctx, []string{sub})
	require.NoError(t, report.Results[0].Err)
	assert.Equal(t, []string{root}, e.Roots())
}

func TestDeleteItems_MissingOnDiskStillPatches(t *testing.T) {
	root := fixture(t)
	e := newEngine(t)
	ctx := context.Background()
	_, err := e.BuildCache(ctx, root, nil)
	require.NoError(t, err)

	target := filepath.Join(root, "a.txt")
	require.NoError(t, os.Remove(target))

	report := e.DeleteItems(ctx, []string{target})
	assert.Equal(t, "not_found", Kind(report.Results[0].Err))

	node, err := e.GetResultWithDepth(ctx, root, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), node.Size)
}
