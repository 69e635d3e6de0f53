package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/dutree/internal/model"
)

// tree returns /data with a.txt (100), sub (50: b.txt) and sub/deep built to
// the given depth.
func tree(root string, depth int) *model.Node {
	c := &model.Node{Name: "c.txt", Path: root + "/sub/deep/c.txt", Size: 20}
	deep := &model.Node{Name: "deep", Path: root + "/sub/deep", Size: 20, IsDirectory: true, Children: []*model.Node{c}, ChildrenCount: 1}
	b := &model.Node{Name: "b.txt", Path: root + "/sub/b.txt", Size: 30}
	sub := &model.Node{Name: "sub", Path: root + "/sub", Size: 50, IsDirectory: true, Children: []*model.Node{b, deep}, ChildrenCount: 2}
	a := &model.Node{Name: "a.txt", Path: root + "/a.txt", Size: 100}
	full := &model.Node{Name: "data", Path: root, Size: 150, IsDirectory: true, Children: []*model.Node{a, sub}, ChildrenCount: 2}
	return model.Project(full, depth)
}

func put(t *testing.T, c *Cache, root string, depth int) *Entry {
	t.Helper()
	e := NewEntry(tree(root, depth), depth, model.ErrorStats{}, c.Begin(), 0)
	require.True(t, c.Put(e))
	return e
}

func TestProject_ServesShallowerViews(t *testing.T) {
	c := New(0, nil)
	put(t, c, "/data", 2)

	n, err := c.Project("/data", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(150), n.Size)
	require.Len(t, n.Children, 2)
	assert.Empty(t, n.Children[1].Children)

	n, err = c.Project("/data/sub", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), n.Size)
	assert.Len(t, n.Children, 2)
}

func TestProject_Signals(t *testing.T) {
	c := New(0, nil)
	put(t, c, "/data", 2)

	_, err := c.Project("/data", 3)
	assert.ErrorIs(t, err, ErrInsufficientDepth)

	// sub sits at depth 1, so only one more level is available.
	_, err = c.Project("/data/sub", 2)
	assert.ErrorIs(t, err, ErrInsufficientDepth)

	// deep's children are beyond the frontier.
	_, err = c.Project("/data/sub/deep/c.txt", 0)
	assert.ErrorIs(t, err, ErrInsufficientDepth)

	_, err = c.Project("/data/a.txt", 0)
	assert.ErrorIs(t, err, ErrNotDirectory)

	_, err = c.Project("/elsewhere", 1)
	assert.ErrorIs(t, err, ErrNotCached)

	_, err = c.Project("/dat", 1)
	assert.ErrorIs(t, err, ErrNotCached)
}

func TestProject_PrefersDeepestCoveringRoot(t *testing.T) {
	c := New(0, nil)
	put(t, c, "/data", 1)
	put(t, c, "/data/sub", 3)

	n, err := c.Project("/data/sub", 2)
	require.NoError(t, err)
	assert.Equal(t, "/data/sub", n.Path)

	e, ok := c.Lookup("/data/sub/deep")
	require.True(t, ok)
	assert.Equal(t, "/data/sub", e.Root())
}

func TestProject_ReturnsIndependentCopy(t *testing.T) {
	c := New(0, nil)
	put(t, c, "/data", 2)

	n, err := c.Project("/data", 2)
	require.NoError(t, err)
	n.Children = nil
	n.Size = 0

	again, err := c.Project("/data", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(150), again.Size)
	assert.Len(t, again.Children, 2)
}

func TestEntryProject_OutlivesReplacement(t *testing.T) {
	c := New(0, nil)
	deep := put(t, c, "/data", 3)
	put(t, c, "/data", 0)

	_, err := c.Project("/data", 3)
	assert.ErrorIs(t, err, ErrInsufficientDepth)

	n, err := deep.Project("/data", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(20), n.Children[1].Children[1].Size)

	_, err = deep.Project("/data/a.txt", 0)
	assert.ErrorIs(t, err, ErrNotDirectory)
	_, err = deep.Project("/elsewhere", 0)
	assert.ErrorIs(t, err, ErrInsufficientDepth)
}

func TestPut_RejectsOlderBuild(t *testing.T) {
	c := New(0, nil)
	older := c.Begin()
	newer := c.Begin()

	require.True(t, c.Put(NewEntry(tree("/data", 3), 3, model.ErrorStats{}, newer, 0)))
	assert.False(t, c.Put(NewEntry(tree("/data", 1), 1, model.ErrorStats{}, older, 0)))

	e, ok := c.Get("/data")
	require.True(t, ok)
	assert.Equal(t, 3, e.Info().BuiltDepth)
}

func TestGenerationChangesOnRebuild(t *testing.T) {
	c := New(0, nil)
	first := put(t, c, "/data", 1).Info().Generation
	second := put(t, c, "/data", 1).Info().Generation
	assert.NotEqual(t, first, second)
}

func TestMaxRootsEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2, nil)
	put(t, c, "/a", 1)
	put(t, c, "/b", 1)

	_, ok := c.Get("/a")
	require.True(t, ok)
	put(t, c, "/c", 1)

	assert.Equal(t, []string{"/a", "/c"}, c.Roots())
	assert.Equal(t, 2, c.Len())
}

func TestCoveringWithinAndInvalidate(t *testing.T) {
	c := New(0, nil)
	put(t, c, "/data", 1)
	put(t, c, "/data/sub", 1)
	put(t, c, "/other", 1)

	covering := c.Covering("/data/sub/x")
	require.Len(t, covering, 2)
	assert.Equal(t, "/data/sub", covering[0].Root())
	assert.Equal(t, "/data", covering[1].Root())

	within := c.Within("/data")
	assert.Len(t, within, 2)

	assert.True(t, c.Invalidate("/data/sub"))
	assert.False(t, c.Invalidate("/data/sub"))
	assert.Equal(t, []string{"/data", "/other"}, c.Roots())
}

func TestEntryRemove(t *testing.T) {
	c := New(0, nil)
	e := put(t, c, "/data", 3)

	removed, ok := e.Remove("/data/sub/deep")
	require.True(t, ok)
	assert.Equal(t, int64(20), removed.Size)

	info := e.Info()
	assert.Equal(t, int64(130), info.Size)

	n, err := c.Project("/data/sub", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(30), n.Size)
	assert.Equal(t, 1, n.ChildrenCount)
}
