//go:build windows

package ops

import (
	"os"
	"path/filepath"
)

// removeEntry deletes name inside dir. A directory junction or link is
// removed as an entry; RemoveAll does not descend into it.
func removeEntry(dir, name string) error {
	p := filepath.Join(dir, name)
	if _, err := os.Lstat(p); err != nil {
		return err
	}
	return os.RemoveAll(p)
}
