package scanner

import (
	"io/fs"

	"github.com/pkg/errors"
)

// Kind is the outcome of classifying one directory entry.
type Kind uint8

const (
	KindFile Kind = iota
	KindDirectory
	KindPermissionDenied
	KindNotFound
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindPermissionDenied:
		return "permission denied"
	case KindNotFound:
		return "not found"
	default:
		return "error"
	}
}

// Failed reports whether the entry could not be classified.
func (k Kind) Failed() bool {
	return k >= KindPermissionDenied
}

// Entry is the classification of a single path.
type Entry struct {
	Kind  Kind
	Size  int64
	Usage int64
	Mtime int64
	// Key identifies directories for cycle detection.
	Key string
	Err error
}

// KindOf maps an I/O error to the matching failure kind.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	default:
		return KindOther
	}
}

// Classify inspects path. When entry is non-nil its cached type is used to
// avoid a stat for plain files; symlinks are resolved through the source
// when follow is set and otherwise counted as files of their own size.
// Device files, sockets and pipes classify as files with their stat size.
func Classify(src Source, path string, entry fs.DirEntry, follow bool) Entry {
	var (
		info fs.FileInfo
		err  error
	)
	switch {
	case entry == nil:
		info, err = src.Stat(path)
	case follow && entry.Type()&fs.ModeSymlink != 0:
		info, err = src.Stat(path)
	default:
		info, err = entry.Info()
	}
	if err != nil {
		return Entry{Kind: KindOf(err), Err: err}
	}

	e := Entry{Mtime: info.ModTime().Unix()}
	if info.IsDir() {
		e.Kind = KindDirectory
		e.Key = src.DirKey(path, info)
		return e
	}
	e.Kind = KindFile
	e.Size = info.Size()
	e.Usage = src.Usage(info)
	return e
}
