//go:build !windows

package ops

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

const dirFlags = unix.O_RDONLY | unix.O_DIRECTORY | unix.O_CLOEXEC

// removeEntry deletes name inside the directory dir. The walk below dir uses
// directory descriptors only, so a symlink is unlinked and never followed.
func removeEntry(dir, name string) error {
	fd, err := unix.Open(dir, dirFlags, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)
	return removeAt(fd, name)
}

func removeAt(dirfd int, name string) error {
	err := unix.Unlinkat(dirfd, name, 0)
	// Linux answers EISDIR for directories, darwin EPERM.
	if err == nil || !(errors.Is(err, unix.EISDIR) || errors.Is(err, unix.EPERM)) {
		return err
	}

	fd, err := unix.Openat(dirfd, name, dirFlags|unix.O_NOFOLLOW, 0)
	if errors.Is(err, unix.ENOTDIR) {
		// Swapped for a file since the unlink attempt.
		return unix.Unlinkat(dirfd, name, 0)
	} else if err != nil {
		return err
	}
	if err := emptyDir(fd, name); err != nil {
		return err
	}
	return unix.Unlinkat(dirfd, name, unix.AT_REMOVEDIR)
}

// emptyDir removes every entry of the directory open at fd, then closes fd.
func emptyDir(fd int, name string) error {
	dir := os.NewFile(uintptr(fd), name)
	names, err := dir.Readdirnames(-1)
	if err == nil {
		for _, n := range names {
			if err = removeAt(fd, n); err != nil {
				break
			}
		}
	}
	if closeErr := dir.Close(); err == nil {
		err = closeErr
	}
	return err
}
