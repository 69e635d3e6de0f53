package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Delete removes path and, for a directory, everything below it without
// following links. path must lie strictly below root, and its parent must
// still be inside root once links are resolved, so a swapped-in directory
// link cannot point the removal elsewhere.
func Delete(path, root string) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	base, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("cannot resolve root %s: %w", root, err)
	}
	root = base
	if target == root || !below(root, target) {
		return fmt.Errorf("refusing to delete %s: outside scan root %s", target, root)
	}
	if _, err := os.Lstat(target); err != nil {
		return fmt.Errorf("cannot access %s: %w", target, err)
	}

	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return fmt.Errorf("cannot resolve root %s: %w", root, err)
	}
	parent, err := filepath.EvalSymlinks(filepath.Dir(target))
	if err != nil {
		return fmt.Errorf("cannot resolve parent of %s: %w", target, err)
	}
	if !below(realRoot, parent) {
		return fmt.Errorf("refusing to delete %s: parent resolves outside scan root %s", target, root)
	}

	if err := removeEntry(parent, filepath.Base(target)); err != nil {
		return fmt.Errorf("cannot delete %s: %w", target, err)
	}
	return nil
}

// below reports whether target is root or lies under it.
func below(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	up := ".." + string(filepath.Separator)
	return rel != ".." && !strings.HasPrefix(rel, up)
}
