package platform

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// systemDrives reports the boot volume and every browsable volume mounted
// under /Volumes.
func systemDrives() ([]Drive, error) {
	paths := []string{"/"}
	if entries, err := os.ReadDir("/Volumes"); err == nil {
		for _, e := range entries {
			p := filepath.Join("/Volumes", e.Name())
			// The boot volume shows up here as a link to /.
			if target, err := os.Readlink(p); err == nil && target == "/" {
				continue
			}
			paths = append(paths, p)
		}
	}

	var drives []Drive
	for _, p := range paths {
		var st unix.Statfs_t
		if err := unix.Statfs(p, &st); err != nil {
			continue
		}
		bsize := uint64(st.Bsize)
		drives = append(drives, Drive{
			Path:   p,
			Device: unix.ByteSliceToString(st.Mntfromname[:]),
			FSType: unix.ByteSliceToString(st.Fstypename[:]),
			Total:  st.Blocks * bsize,
			Free:   st.Bavail * bsize,
		})
	}
	return drives, nil
}
