//go:build windows

package scanner

import "io/fs"

// Windows file info carries no stable identity; callers fall back to the
// resolved path.
func fileIdentity(fs.FileInfo) (string, bool) { return "", false }

func allocated(info fs.FileInfo) int64 { return info.Size() }
