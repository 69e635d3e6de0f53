// Package remote exposes a directory tree reachable over SSH as a
// scanner.Source, so remote hosts are scanned, cached and pruned exactly like
// local ones.
package remote

import (
	"context"
	"io"
	"io/fs"
	"os"
	pathpkg "path"
	"strings"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"

	"github.com/sadopc/dutree/internal/logging"
	"github.com/sadopc/dutree/internal/scanner"
)

var _ scanner.Source = (*Source)(nil)

const defaultBlockSize int64 = 4096

const maxInt64 = int64(^uint64(0) >> 1)

// client is the subset of *sftp.Client the source needs.
type client interface {
	ReadDir(string) ([]os.FileInfo, error)
	Stat(string) (os.FileInfo, error)
	Lstat(string) (os.FileInfo, error)
	RealPath(string) (string, error)
	Remove(string) error
	RemoveDirectory(string) error
}

// Source reads a remote filesystem over SFTP. Paths use forward slashes.
type Source struct {
	client    client
	closer    io.Closer
	blockSize int64
	logger    *logging.Logger
}

// Dial connects to cfg.Target and starts the SFTP subsystem. probe is used to
// query the remote block size for usage estimates.
func Dial(ctx context.Context, cfg Config, probe string, logger *logging.Logger) (*Source, error) {
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := newSource(sess, sess, logger)
	s.blockSize = remoteBlockSize(sess, cleanRemotePath(probe))
	logger.Debugf("connected to %s (block size %d)", cfg.Target, s.blockSize)
	return s, nil
}

func newSource(c client, closer io.Closer, logger *logging.Logger) *Source {
	return &Source{client: c, closer: closer, blockSize: defaultBlockSize, logger: logger}
}

// Close tears down the SFTP session and the SSH connection.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Abs resolves p against the remote working directory. Relative paths are
// expanded by the server; absolute ones are only cleaned so that missing
// paths still resolve.
func (s *Source) Abs(p string) (string, error) {
	clean := cleanRemotePath(p)
	if pathpkg.IsAbs(clean) {
		return clean, nil
	}
	resolved, err := s.client.RealPath(clean)
	if err != nil {
		return "", errors.Wrapf(err, "cannot resolve remote path %q", p)
	}
	return cleanRemotePath(resolved), nil
}

func (s *Source) Stat(p string) (fs.FileInfo, error) {
	return s.client.Stat(p)
}

// ReadDir lists p. Entries carry lstat information, as SFTP READDIR returns.
func (s *Source) ReadDir(p string) ([]fs.DirEntry, error) {
	infos, err := s.client.ReadDir(p)
	if err != nil {
		return nil, err
	}
	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = fs.FileInfoToDirEntry(info)
	}
	return entries, nil
}

func (s *Source) Join(dir, name string) string {
	return pathpkg.Join(dir, name)
}

// DirKey uses the server-side canonical path, since SFTP exposes no inode
// numbers.
func (s *Source) DirKey(p string, _ fs.FileInfo) string {
	if resolved, err := s.client.RealPath(p); err == nil {
		return cleanRemotePath(resolved)
	}
	return p
}

// Usage rounds the apparent size up to whole blocks.
func (s *Source) Usage(info fs.FileInfo) int64 {
	return estimateDiskUsage(info.Size(), s.blockSize)
}

// Remove deletes p and everything below it. Symbolic links are removed, never
// followed.
func (s *Source) Remove(root, p string) error {
	root, p = cleanRemotePath(root), cleanRemotePath(p)
	if !isStrictlyWithinRemote(root, p) {
		return errors.Errorf("refusing to delete %s: not inside %s", p, root)
	}
	s.logger.Debugf("removing %s", p)
	return s.removeTree(p)
}

func (s *Source) removeTree(p string) error {
	info, err := s.client.Lstat(p)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return s.client.Remove(p)
	}
	children, err := s.client.ReadDir(p)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := s.removeTree(pathpkg.Join(p, child.Name())); err != nil {
			return err
		}
	}
	return s.client.RemoveDirectory(p)
}

func cleanRemotePath(p string) string {
	if p == "" {
		return "."
	}
	return pathpkg.Clean(strings.ReplaceAll(p, "\\", "/"))
}

func estimateDiskUsage(size, blockSize int64) int64 {
	if size <= 0 {
		return 0
	}
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}
	blocks := (size + blockSize - 1) / blockSize
	return blocks * blockSize
}

func remoteBlockSize(c interface{}, p string) int64 {
	vfs, ok := c.(interface {
		StatVFS(path string) (*sftp.StatVFS, error)
	})
	if !ok {
		return defaultBlockSize
	}

	stat, err := vfs.StatVFS(p)
	if err != nil || stat == nil {
		return defaultBlockSize
	}
	if stat.Frsize > 0 && stat.Frsize <= uint64(maxInt64) {
		return int64(stat.Frsize)
	}
	if stat.Bsize > 0 && stat.Bsize <= uint64(maxInt64) {
		return int64(stat.Bsize)
	}
	return defaultBlockSize
}

// isStrictlyWithinRemote reports whether target lies below root using POSIX
// path semantics.
func isStrictlyWithinRemote(root, target string) bool {
	if root == target {
		return false
	}
	prefix := root
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.HasPrefix(target, prefix)
}
