package ops

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/dutree/internal/model"
)

// sampleTree has one file and one directory exported without its children.
func sampleTree() *model.Node {
	file := &model.Node{Name: "file.txt", Path: "/root/file.txt", Size: 12, Usage: 4096}
	pruned := &model.Node{Name: "pruned", Path: "/root/pruned", Size: 300, Usage: 8192, IsDirectory: true, ChildrenCount: 4}
	return &model.Node{
		Name:          "root",
		Path:          "/root",
		Size:          312,
		Usage:         12288,
		IsDirectory:   true,
		Children:      []*model.Node{pruned, file},
		ChildrenCount: 2,
	}
}

func TestExportTo_Layout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportTo(&buf, sampleTree(), "test-version"))

	var top []json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &top), buf.String())
	require.Len(t, top, 4)
	assert.JSONEq(t, "1", string(top[0]))

	var header dumpHeader
	require.NoError(t, json.Unmarshal(top[2], &header))
	assert.Equal(t, "dutree", header.Progname)
	assert.Equal(t, "test-version", header.Progver)

	var root []json.RawMessage
	require.NoError(t, json.Unmarshal(top[3], &root))
	require.Len(t, root, 3)
	assert.JSONEq(t, `{"name":"/root","asize":312,"dsize":12288,"items":2}`, string(root[0]))
	assert.JSONEq(t, `[{"name":"pruned","asize":300,"dsize":8192,"items":4}]`, string(root[1]))
	assert.JSONEq(t, `{"name":"file.txt","asize":12,"dsize":4096}`, string(root[2]))
}

func TestExportTo_DefaultVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportTo(&buf, sampleTree(), ""))
	assert.Contains(t, buf.String(), `"progver":"dev"`)
}

func TestExportJSON_Stdout(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	orig := os.Stdout
	os.Stdout = w
	exportErr := ExportJSON(sampleTree(), "-", "v")
	os.Stdout = orig
	require.NoError(t, w.Close())
	require.NoError(t, exportErr)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	root, err := ParseJSON(out)
	require.NoError(t, err)
	assert.Equal(t, "/root", root.Path)
}

func TestExportJSON_RoundTripKeepsPrunedTotals(t *testing.T) {
	target := filepath.Join(t.TempDir(), "output.json")
	require.NoError(t, ExportJSON(sampleTree(), target, "test"))

	imported, err := ImportJSON(target)
	require.NoError(t, err)
	assert.Equal(t, "/root", imported.Path)
	assert.Equal(t, "root", imported.Name)
	assert.Equal(t, int64(312), imported.Size)
	assert.Equal(t, 2, imported.ChildrenCount)

	pruned := imported.Children[0]
	assert.Equal(t, filepath.Join("/root", "pruned"), pruned.Path)
	assert.Equal(t, int64(300), pruned.Size)
	assert.Equal(t, 4, pruned.ChildrenCount)
	assert.Empty(t, pruned.Children)
}

func TestExportJSON_RejectsFile(t *testing.T) {
	dir := t.TempDir()
	err := ExportJSON(&model.Node{Name: "f", Path: "/f"}, filepath.Join(dir, "x.json"), "test")
	assert.Error(t, err)

	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, left, "failed export left files behind")
}

func TestExportJSON_OverwriteExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.json")
	tree := func(name string, size int64) *model.Node {
		return &model.Node{Name: "root", Path: "/root", IsDirectory: true, Size: size, Usage: size, ChildrenCount: 1,
			Children: []*model.Node{{Name: name, Path: "/root/" + name, Size: size, Usage: size}}}
	}

	require.NoError(t, ExportJSON(tree("a.txt", 1), path, "test"))
	require.NoError(t, ExportJSON(tree("b.txt", 7), path, "test"))

	imported, err := ImportJSON(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), imported.Size)
	require.Len(t, imported.Children, 1)
	assert.Equal(t, "b.txt", imported.Children[0].Name)
}
