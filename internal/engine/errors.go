package engine

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/pkg/errors"

	"github.com/sadopc/dutree/internal/cache"
	"github.com/sadopc/dutree/internal/scanner"
)

var (
	// ErrInvalidPath indicates a root that does not exist or is not a
	// directory.
	ErrInvalidPath = errors.New("invalid path")
	// ErrNotDirectory indicates a directory view requested for a file.
	ErrNotDirectory = cache.ErrNotDirectory
	// ErrPermissionDenied indicates the root itself could not be read.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidDepth indicates a negative depth.
	ErrInvalidDepth = errors.New("invalid depth")
	// ErrOutsideScannedRoot indicates a deletion target that is not strictly
	// inside any cached root.
	ErrOutsideScannedRoot = errors.New("path is not inside a scanned root")
)

// DeletionFailure describes why one path of a deletion batch failed.
type DeletionFailure struct {
	Path  string
	Kind  scanner.Kind
	Cause error
}

func (f *DeletionFailure) Error() string {
	return fmt.Sprintf("unable to delete %s: %v", f.Path, f.Cause)
}

func (f *DeletionFailure) Unwrap() error {
	return f.Cause
}

// Kind returns a stable identifier for err, suitable for clients that switch
// on error categories.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidPath):
		return "invalid_path"
	case errors.Is(err, ErrNotDirectory):
		return "not_a_directory"
	case errors.Is(err, ErrInvalidDepth):
		return "invalid_depth"
	case errors.Is(err, ErrOutsideScannedRoot):
		return "outside_root"
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, fs.ErrPermission):
		return "permission_denied"
	case errors.Is(err, fs.ErrNotExist):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "io_error"
	}
}

// rootError maps a walk failure on a root to the engine's taxonomy.
func rootError(root string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, fs.ErrNotExist):
		return errors.Wrapf(ErrInvalidPath, "%s does not exist", root)
	case errors.Is(err, fs.ErrPermission):
		return errors.Wrapf(ErrPermissionDenied, "%s", root)
	default:
		return errors.Wrapf(err, "unable to scan %s", root)
	}
}
