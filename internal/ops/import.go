package ops

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sadopc/dutree/internal/model"
)

// ImportJSON loads a dump written by ExportJSON or by ncdu -o.
func ImportJSON(path string) (*model.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open import file: %w", err)
	}
	return ParseJSON(data)
}

// ParseJSON decodes a dump held in memory.
func ParseJSON(data []byte) (*model.Node, error) {
	var top []json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if len(top) < 4 {
		return nil, fmt.Errorf("not an ncdu dump: %d top-level elements, want 4", len(top))
	}
	root, err := decodeDir(top[3], "")
	if err != nil {
		return nil, fmt.Errorf("cannot parse root directory: %w", err)
	}
	return root, nil
}

// decodeDir rebuilds a directory array. A directory with no listed children
// keeps the totals it was written with. Otherwise its totals are summed from
// the children, since plain ncdu dumps record only the directory's own
// inode size.
func decodeDir(data json.RawMessage, parent string) (*model.Node, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("directory is not an array: %w", err)
	}
	if len(elems) == 0 {
		return nil, fmt.Errorf("directory array is empty")
	}
	var self dumpEntry
	if err := json.Unmarshal(elems[0], &self); err != nil {
		return nil, fmt.Errorf("cannot parse directory entry: %w", err)
	}

	dir := importedNode(self, parent)
	dir.IsDirectory = true
	dir.Children = []*model.Node{}
	if len(elems) == 1 {
		dir.ChildrenCount = self.Items
		return dir, nil
	}

	dir.Size, dir.Usage = 0, 0
	for i, elem := range elems[1:] {
		child, err := decodeChild(elem, dir.Path)
		if err != nil {
			return nil, fmt.Errorf("entry %d of %s: %w", i+1, dir.Path, err)
		}
		if child == nil {
			continue
		}
		dir.Children = append(dir.Children, child)
		dir.AddSize(child.Size, child.Usage)
	}
	dir.ChildrenCount = len(dir.Children)
	model.SortBySizeDesc(dir.Children)
	return dir, nil
}

// decodeChild returns nil for entries ncdu could not read.
func decodeChild(elem json.RawMessage, parent string) (*model.Node, error) {
	trimmed := bytes.TrimLeft(elem, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty element")
	}
	switch trimmed[0] {
	case '[':
		return decodeDir(elem, parent)
	case '{':
		var e dumpEntry
		if err := json.Unmarshal(elem, &e); err != nil {
			return nil, fmt.Errorf("cannot parse file entry: %w", err)
		}
		if e.ReadError {
			return nil, nil
		}
		return importedNode(e, parent), nil
	}
	return nil, fmt.Errorf("neither a file nor a directory")
}

// importedNode places e under parent. The root entry holds the absolute
// path, which also becomes its Path.
func importedNode(e dumpEntry, parent string) *model.Node {
	n := &model.Node{Name: e.Name, Path: e.Name, Size: e.Asize, Usage: e.Dsize, Mtime: e.Mtime}
	if parent == "" {
		n.Name = filepath.Base(e.Name)
	} else {
		n.Path = filepath.Join(parent, e.Name)
	}
	return n
}
