package remote

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"os"
	pathpkg "path"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/sadopc/dutree/internal/engine"
	"github.com/sadopc/dutree/internal/scanner"
)

func TestCleanRemotePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: "."},
		{in: ".", want: "."},
		{in: "/tmp/../var", want: "/var"},
		{in: `C:\temp\x`, want: "C:/temp/x"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, cleanRemotePath(tc.in), tc.in)
	}
}

func TestIsStrictlyWithinRemote(t *testing.T) {
	tests := []struct {
		root, target string
		want         bool
	}{
		{"/root", "/root", false},
		{"/root", "/root/sub", true},
		{"/root", "/root/sub/deep", true},
		{"/root", "/other", false},
		{"/root", "/rootmore", false},
		{"/", "/etc", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isStrictlyWithinRemote(tt.root, tt.target), "%s in %s", tt.target, tt.root)
	}
}

func TestEstimateDiskUsage(t *testing.T) {
	assert.Zero(t, estimateDiskUsage(0, 512))
	assert.Zero(t, estimateDiskUsage(-1, 512))
	assert.Equal(t, int64(512), estimateDiskUsage(1, 512))
	assert.Equal(t, int64(512), estimateDiskUsage(512, 512))
	assert.Equal(t, int64(1024), estimateDiskUsage(513, 512))
	assert.Equal(t, defaultBlockSize, estimateDiskUsage(1, 0))
}

func TestSource_WalkAggregates(t *testing.T) {
	src := newSource(newFakeSFTP(map[string]fakeNode{
		"/root":                  {mode: fs.ModeDir},
		"/root/keep":             {mode: fs.ModeDir},
		"/root/keep/inside.txt":  {size: 5},
		"/root/skip":             {mode: fs.ModeDir},
		"/root/skip/ignored.txt": {size: 9},
		"/root/file.txt":         {size: 7},
		"/root/tiny":             {size: 1},
	}), nil, nil)

	opts := scanner.DefaultOptions()
	opts.ExcludePatterns = []string{"skip"}
	node, stats, err := scanner.NewWalker(src, opts, nil).Walk(context.Background(), "/root", 2, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "root", node.Name)
	assert.Equal(t, int64(13), node.Size)
	assert.Equal(t, 3*defaultBlockSize, node.Usage)
	assert.Equal(t, 3, node.ChildrenCount)
	assert.Equal(t, "/root/keep/inside.txt", node.Children[1].Children[0].Path)
	assert.Zero(t, stats.Total())
}

func TestSource_SymlinkedDirectoryCountedOnce(t *testing.T) {
	src := newSource(newFakeSFTP(map[string]fakeNode{
		"/root":              {mode: fs.ModeDir},
		"/root/dir":          {mode: fs.ModeDir},
		"/root/dir/item.txt": {size: 10},
		"/root/dir-link":     {mode: fs.ModeSymlink, target: "/root/dir"},
		"/root/broken":       {mode: fs.ModeSymlink, target: "/missing"},
	}), nil, nil)

	node, stats, err := scanner.NewWalker(src, scanner.DefaultOptions(), nil).Walk(context.Background(), "/root", 1, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), node.Size)
	assert.Equal(t, 1, node.ChildrenCount)
	assert.Equal(t, uint64(1), stats.NotFoundErrors)
}

func TestSource_UnreadableDirectoryTallied(t *testing.T) {
	src := newSource(newFakeSFTP(map[string]fakeNode{
		"/root":        {mode: fs.ModeDir},
		"/root/denied": {mode: fs.ModeDir, errOnRead: true},
		"/root/a":      {size: 3},
	}), nil, nil)

	node, stats, err := scanner.NewWalker(src, scanner.DefaultOptions(), nil).Walk(context.Background(), "/root", 1, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), node.Size)
	assert.Equal(t, 1, node.ChildrenCount)
	assert.Equal(t, uint64(1), stats.PermissionErrors)
}

func TestSource_Abs(t *testing.T) {
	src := newSource(newFakeSFTP(map[string]fakeNode{
		"/home/alice": {mode: fs.ModeDir},
	}), nil, nil)

	abs, err := src.Abs("/home/../home/alice/")
	require.NoError(t, err)
	assert.Equal(t, "/home/alice", abs)

	abs, err = src.Abs(".")
	require.NoError(t, err)
	assert.Equal(t, "/home/alice", abs)
}

func TestSource_RemoveDoesNotFollowLinks(t *testing.T) {
	fake := newFakeSFTP(map[string]fakeNode{
		"/root":              {mode: fs.ModeDir},
		"/root/sub":          {mode: fs.ModeDir},
		"/root/sub/a":        {size: 4},
		"/root/sub/deeper":   {mode: fs.ModeDir},
		"/root/sub/deeper/b": {size: 6},
		"/root/sub/link":     {mode: fs.ModeSymlink, target: "/keep"},
		"/keep":              {mode: fs.ModeDir},
		"/keep/precious":     {size: 100},
	})
	src := newSource(fake, nil, nil)

	require.Error(t, src.Remove("/root", "/root"))
	require.Error(t, src.Remove("/root", "/keep"))

	require.NoError(t, src.Remove("/root", "/root/sub"))
	for p := range fake.nodes {
		assert.False(t, strings.HasPrefix(p, "/root/sub"), "%s survived", p)
	}
	assert.Contains(t, fake.nodes, "/keep/precious")

	err := src.Remove("/root", "/root/sub")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestSource_EngineDeletePatchesCache(t *testing.T) {
	fake := newFakeSFTP(map[string]fakeNode{
		"/srv":           {mode: fs.ModeDir},
		"/srv/logs":      {mode: fs.ModeDir},
		"/srv/logs/a.gz": {size: 40},
		"/srv/logs/b.gz": {size: 60},
		"/srv/data.db":   {size: 500},
	})
	e, err := engine.New(newSource(fake, nil, nil), engine.DefaultConfig(), nil)
	require.NoError(t, err)

	ctx := context.Background()
	root, err := e.GetResultWithDepth(ctx, "/srv", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(600), root.Size)

	report := e.DeleteItems(ctx, []string{"/srv/logs/b.gz"})
	require.NoError(t, report.Results[0].Err)
	assert.Equal(t, int64(60), report.Freed())

	logs, err := e.GetResultWithDepth(ctx, "/srv/logs", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(40), logs.Size)
	assert.Equal(t, 1, logs.ChildrenCount)
	assert.NotContains(t, fake.nodes, "/srv/logs/b.gz")
}

func TestConnect_CanceledBeforeHandshake(t *testing.T) {
	var dialed, shook bool
	tr := transport{
		dial: func(ctx context.Context, _, _ string) (net.Conn, error) {
			dialed = true
			<-ctx.Done()
			return nil, ctx.Err()
		},
		handshake: func(net.Conn, string, *ssh.ClientConfig) (ssh.Conn, <-chan ssh.NewChannel, <-chan *ssh.Request, error) {
			shook = true
			return nil, nil, nil, errors.New("unexpected handshake")
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.connect(ctx, "example.com:22", &ssh.ClientConfig{
		User:            "user",
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, dialed)
	assert.False(t, shook, "handshake started after canceled dial")
}

func TestConnect_CancelDuringHandshakeClosesConn(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	tr := transport{
		dial: func(context.Context, string, string) (net.Conn, error) { return client, nil },
		handshake: func(conn net.Conn, _ string, _ *ssh.ClientConfig) (ssh.Conn, <-chan ssh.NewChannel, <-chan *ssh.Request, error) {
			cancel()
			// Blocks until the cancellation closes the connection.
			_, err := conn.Read(make([]byte, 1))
			return nil, nil, nil, err
		},
	}

	_, err := tr.connect(ctx, "example.com:22", &ssh.ClientConfig{HostKeyCallback: ssh.InsecureIgnoreHostKey()})
	assert.Error(t, err)
}

type fakeNode struct {
	mode      fs.FileMode
	size      int64
	target    string
	errOnRead bool
}

// fakeSFTP serves a flat path map. The working directory is /home/alice.
type fakeSFTP struct {
	nodes map[string]fakeNode
}

func newFakeSFTP(nodes map[string]fakeNode) *fakeSFTP {
	return &fakeSFTP{nodes: nodes}
}

func (f *fakeSFTP) info(p string, n fakeNode) os.FileInfo {
	return fakeInfo{name: pathpkg.Base(p), size: n.size, mode: n.mode}
}

func (f *fakeSFTP) ReadDir(p string) ([]os.FileInfo, error) {
	n, ok := f.nodes[p]
	if !ok {
		return nil, os.ErrNotExist
	}
	if !n.mode.IsDir() {
		return nil, errors.New("not a directory")
	}
	if n.errOnRead {
		return nil, os.ErrPermission
	}
	var names []string
	for child := range f.nodes {
		if child != p && pathpkg.Dir(child) == p {
			names = append(names, child)
		}
	}
	sort.Strings(names)
	out := make([]os.FileInfo, len(names))
	for i, child := range names {
		out[i] = f.info(child, f.nodes[child])
	}
	return out, nil
}

func (f *fakeSFTP) Lstat(p string) (os.FileInfo, error) {
	n, ok := f.nodes[p]
	if !ok {
		return nil, os.ErrNotExist
	}
	return f.info(p, n), nil
}

func (f *fakeSFTP) Stat(p string) (os.FileInfo, error) {
	resolved, err := f.RealPath(p)
	if err != nil {
		return nil, err
	}
	return f.info(p, f.nodes[resolved]), nil
}

func (f *fakeSFTP) RealPath(p string) (string, error) {
	if !pathpkg.IsAbs(p) {
		p = pathpkg.Join("/home/alice", p)
	}
	for range 8 {
		n, ok := f.nodes[p]
		if !ok {
			return "", os.ErrNotExist
		}
		if n.mode&fs.ModeSymlink == 0 {
			return p, nil
		}
		p = n.target
	}
	return "", errors.New("too many links")
}

func (f *fakeSFTP) Remove(p string) error {
	n, ok := f.nodes[p]
	if !ok {
		return os.ErrNotExist
	}
	if n.mode.IsDir() {
		return f.RemoveDirectory(p)
	}
	delete(f.nodes, p)
	return nil
}

func (f *fakeSFTP) RemoveDirectory(p string) error {
	if _, ok := f.nodes[p]; !ok {
		return os.ErrNotExist
	}
	for child := range f.nodes {
		if pathpkg.Dir(child) == p && child != p {
			return errors.New("directory not empty")
		}
	}
	delete(f.nodes, p)
	return nil
}

type fakeInfo struct {
	name string
	size int64
	mode fs.FileMode
}

func (fi fakeInfo) Name() string       { return fi.name }
func (fi fakeInfo) Size() int64        { return fi.size }
func (fi fakeInfo) Mode() fs.FileMode  { return fi.mode }
func (fi fakeInfo) ModTime() time.Time { return time.Unix(1700000000, 0) }
func (fi fakeInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi fakeInfo) Sys() any           { return nil }
