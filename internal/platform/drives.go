// Package platform holds the operating-system collaborators of the engine:
// mounted drive enumeration and the full-disk-access check.
package platform

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// Drive is a mounted filesystem worth scanning.
type Drive struct {
	Path   string `json:"path"`
	Device string `json:"device,omitempty"`
	FSType string `json:"fs_type,omitempty"`
	Total  uint64 `json:"total"`
	Free   uint64 `json:"free"`
}

// Used returns the occupied bytes.
func (d Drive) Used() uint64 {
	if d.Free > d.Total {
		return 0
	}
	return d.Total - d.Free
}

// SystemDrives lists the mounted filesystems, skipping pseudo and memory
// filesystems.
func SystemDrives() ([]Drive, error) {
	drives, err := systemDrives()
	if err != nil {
		return nil, errors.Wrap(err, "unable to enumerate drives")
	}
	return drives, nil
}

// CheckAccess reports whether the directory at path can be listed.
func CheckAccess(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Readdirnames(1)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
