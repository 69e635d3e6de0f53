package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportJSON_RejectsScalarChild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	dump := `[1,0,{"progname":"dutree","progver":"dev","timestamp":0},` +
		`[{"name":"/tmp/root"},123,{"name":"ok.txt","asize":1,"dsize":1}]]`
	require.NoError(t, os.WriteFile(path, []byte(dump), 0o644))

	_, err := ImportJSON(path)
	assert.ErrorContains(t, err, "entry 1 of /tmp/root: neither a file nor a directory")
}

func TestParseJSON_Malformed(t *testing.T) {
	for name, dump := range map[string]string{
		"not json":     `{`,
		"too short":    `[1,0,{}]`,
		"root is file": `[1,0,{},{"name":"/x","asize":1}]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJSON([]byte(dump))
			assert.Error(t, err)
		})
	}
}

func TestParseJSON_SumsPlainNcduDirectories(t *testing.T) {
	// ncdu records the size of the directory inode, not of its contents.
	dump := `[1,2,{"progname":"ncdu","progver":"1.19","timestamp":0},
[{"name":"/data","asize":4096,"dsize":4096},
 {"name":"a","asize":10,"dsize":4096},
 {"name":"denied","read_error":true},
 [{"name":"sub","asize":4096},{"name":"b","asize":5,"dsize":4096}]]]`

	root, err := ParseJSON([]byte(dump))
	require.NoError(t, err)
	assert.Equal(t, int64(15), root.Size)
	assert.Equal(t, int64(8192), root.Usage)
	assert.Equal(t, 2, root.ChildrenCount, "entries with read errors are not counted")

	require.Len(t, root.Children, 2)
	assert.Equal(t, "a", root.Children[0].Name)
	assert.Equal(t, filepath.Join("/data", "sub"), root.Children[1].Path)
}
