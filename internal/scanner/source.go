package scanner

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sadopc/dutree/internal/ops"
)

// Source is the filesystem a Walker reads from and the deletion coordinator
// removes from.
type Source interface {
	// Abs returns the absolute, cleaned form of path.
	Abs(path string) (string, error)
	// Stat returns metadata for path, following symlinks.
	Stat(path string) (fs.FileInfo, error)
	// ReadDir lists the entries of a directory.
	ReadDir(path string) ([]fs.DirEntry, error)
	// Join appends name to dir with the source's separator.
	Join(dir, name string) string
	// DirKey identifies a directory for cycle detection.
	DirKey(path string, info fs.FileInfo) string
	// Usage returns the on-disk size of an entry.
	Usage(info fs.FileInfo) int64
	// Remove deletes path, which must lie strictly inside root.
	Remove(root, path string) error
}

// LocalSource reads the local filesystem.
type LocalSource struct{}

func (LocalSource) Abs(path string) (string, error)            { return filepath.Abs(path) }
func (LocalSource) Stat(path string) (fs.FileInfo, error)      { return os.Stat(path) }
func (LocalSource) ReadDir(path string) ([]fs.DirEntry, error) { return os.ReadDir(path) }
func (LocalSource) Join(dir, name string) string               { return filepath.Join(dir, name) }

func (LocalSource) DirKey(path string, info fs.FileInfo) string {
	if id, ok := fileIdentity(info); ok {
		return id
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}

func (LocalSource) Usage(info fs.FileInfo) int64 {
	return allocated(info)
}

func (LocalSource) Remove(root, path string) error {
	return ops.Delete(path, root)
}
