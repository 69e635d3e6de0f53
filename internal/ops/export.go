package ops

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sadopc/dutree/internal/model"
)

// Exports use the ncdu dump layout: a [major, minor, header, root] array in
// which every directory is an array whose first element describes the
// directory itself and whose remaining elements are its children.
//
//	[1, 0, {"progname":"dutree",...},
//	[{"name":"/abs/root","asize":312,"dsize":12288},
//	[{"name":"sub","asize":300,"dsize":8192,"items":4}],
//	{"name":"file.txt","asize":12,"dsize":4096}]
//	]
//
// Directories record their recursive totals and entry count, so a
// directory written without its children still imports at its real size.
const (
	dumpMajor = 1
	dumpMinor = 0
)

type dumpHeader struct {
	Progname  string `json:"progname"`
	Progver   string `json:"progver"`
	Timestamp int64  `json:"timestamp"`
}

type dumpEntry struct {
	Name      string `json:"name"`
	Asize     int64  `json:"asize"`
	Dsize     int64  `json:"dsize,omitempty"`
	Mtime     int64  `json:"mtime,omitempty"`
	Items     int    `json:"items,omitempty"`
	ReadError bool   `json:"read_error,omitempty"`
}

func entryFor(n *model.Node, name string) dumpEntry {
	e := dumpEntry{Name: name, Asize: n.Size, Dsize: n.Usage, Mtime: n.Mtime}
	if n.IsDirectory {
		e.Items = n.ChildrenCount
	}
	return e
}

// dumpWriter streams a dump and remembers the first failure, so the
// recursive writers need no error plumbing.
type dumpWriter struct {
	w   *bufio.Writer
	err error
}

func (d *dumpWriter) raw(s string) {
	if d.err == nil {
		_, d.err = d.w.WriteString(s)
	}
}

func (d *dumpWriter) value(v interface{}) {
	if d.err != nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		d.err = err
		return
	}
	_, d.err = d.w.Write(b)
}

func (d *dumpWriter) dir(n *model.Node, name string) {
	d.raw("[")
	d.value(entryFor(n, name))
	for _, c := range n.Children {
		if d.err != nil {
			return
		}
		d.raw(",\n")
		if c.IsDirectory {
			d.dir(c, c.Name)
		} else {
			d.value(entryFor(c, c.Name))
		}
	}
	d.raw("]")
}

// ExportTo writes root as an ncdu dump. The root entry carries the absolute
// path and every other entry its base name.
func ExportTo(out io.Writer, root *model.Node, version string) error {
	if root == nil || !root.IsDirectory {
		return errors.New("only a directory tree can be exported")
	}
	if version == "" {
		version = "dev"
	}

	d := &dumpWriter{w: bufio.NewWriterSize(out, 64<<10)}
	d.raw(fmt.Sprintf("[%d, %d, ", dumpMajor, dumpMinor))
	d.value(dumpHeader{Progname: "dutree", Progver: version, Timestamp: time.Now().Unix()})
	d.raw(",\n")
	d.dir(root, root.Path)
	d.raw("\n]\n")
	if d.err != nil {
		return d.err
	}
	return d.w.Flush()
}

// ExportJSON writes root to path, or to stdout when path is "-". Files are
// written beside the destination and renamed into place, so a failed
// export never leaves a truncated dump behind.
func ExportJSON(root *model.Node, path string, version string) error {
	if path == "-" {
		return ExportTo(os.Stdout, root, version)
	}
	return writeAtomic(path, func(w io.Writer) error {
		return ExportTo(w, root, version)
	})
}

func writeAtomic(path string, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".dutree-export-*.tmp")
	if err != nil {
		return fmt.Errorf("cannot create export file: %w", err)
	}
	if err := fill(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := replaceFile(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// replaceFile renames src over dst. Windows refuses to rename onto an
// existing file, so dst is removed first there.
func replaceFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || runtime.GOOS != "windows" {
		return err
	}
	if rmErr := os.Remove(dst); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		return fmt.Errorf("cannot replace export file %s: %w", dst, err)
	}
	return os.Rename(src, dst)
}
