package ops

import (
	"context"
	"io/fs"
	"os"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
)

// PreviewStats summarizes what a deletion would remove.
type PreviewStats struct {
	Files  int64
	Dirs   int64
	Bytes  int64
	Errors int64
}

// Preview counts the files, directories and bytes under the given local
// paths. Symlinks are counted as entries but never followed.
func Preview(ctx context.Context, paths []string) (PreviewStats, error) {
	var files, dirs, bytes, errCount atomic.Int64

	conf := &fastwalk.Config{
		Follow: false,
	}

	for _, root := range paths {
		info, err := os.Lstat(root)
		if err != nil {
			errCount.Add(1)
			continue
		}
		if !info.IsDir() {
			files.Add(1)
			bytes.Add(info.Size())
			continue
		}

		// fastwalk invokes the callback from multiple goroutines.
		walkErr := fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				errCount.Add(1)
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if d.IsDir() {
				dirs.Add(1)
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				errCount.Add(1)
				return nil
			}
			files.Add(1)
			bytes.Add(fi.Size())
			return nil
		})
		if walkErr != nil {
			return PreviewStats{}, walkErr
		}
	}

	return PreviewStats{
		Files:  files.Load(),
		Dirs:   dirs.Load(),
		Bytes:  bytes.Load(),
		Errors: errCount.Load(),
	}, nil
}
