package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

const mountTable = "/proc/self/mounts"

func systemDrives() ([]Drive, error) {
	f, err := os.Open(mountTable)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mounts, err := parseMounts(f)
	if err != nil {
		return nil, err
	}

	var drives []Drive
	for _, m := range mounts {
		var st unix.Statfs_t
		if err := unix.Statfs(m.path, &st); err != nil {
			continue
		}
		// Like df, hide filesystems without blocks.
		if st.Blocks == 0 {
			continue
		}
		bsize := uint64(st.Bsize)
		drives = append(drives, Drive{
			Path:   m.path,
			Device: m.device,
			FSType: m.fsType,
			Total:  uint64(st.Blocks) * bsize,
			Free:   uint64(st.Bavail) * bsize,
		})
	}
	return drives, nil
}
