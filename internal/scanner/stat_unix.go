//go:build !windows

package scanner

import (
	"fmt"
	"io/fs"
	"syscall"
)

// fileIdentity names the object behind info as "dev:ino", which stays the
// same across every path that reaches it.
func fileIdentity(info fs.FileInfo) (string, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%d:%d", uint64(st.Dev), uint64(st.Ino)), true
}

// allocated is the space the filesystem reserved for info. st_blocks counts
// 512-byte units whatever the block size.
func allocated(info fs.FileInfo) int64 {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return int64(st.Blocks) * 512
	}
	return info.Size()
}
