// Package link publishes installed executables under stable paths and answers
// which package a published path belongs to.
//
// Two variants exist. SymlinkLinker uses symbolic links and resolves ownership
// by reading the link. HardlinkLinker is used where unprivileged symbolic
// links are unavailable: it falls back to hardlinks for files and junctions
// for directories, and resolves ownership by enumerating every path that
// shares the published file. The variant is chosen once by New; callers only
// see the Linker interface.
package link

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Owner identifies the installed package a link resolves into.
type Owner struct {
	Package string // packages/<Package>
	Version string // packages/<Package>/<Version>
	Path    string // resolved target inside the packages root
}

// Linker creates, removes and resolves links.
type Linker interface {
	// Link publishes target at link. The link path must not exist.
	Link(link, target string) error

	// Remove deletes the link at path. A missing path is not an error.
	Remove(path string) error

	// Owner reports the package under packagesRoot that link resolves into.
	// ok is false when link does not resolve into packagesRoot.
	Owner(link, packagesRoot string) (owner Owner, ok bool, err error)
}

// Remove deletes the link at path, choosing the directory primitive for
// directory links (junctions, directory symlinks on Windows) and the file
// primitive for everything else. A real non-empty directory is never removed.
func Remove(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat link %s: %w", path, err)
	}

	if info.IsDir() {
		if err := removeDir(path); err != nil {
			return fmt.Errorf("remove directory link %s: %w", path, err)
		}
		return nil
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove link %s: %w", path, err)
	}
	return nil
}

// Replace removes any existing link at link and publishes target there.
func Replace(l Linker, link, target string) error {
	if err := l.Remove(link); err != nil {
		return err
	}
	return l.Link(link, target)
}

// readTarget returns the absolute target of a symbolic link or junction.
// Relative targets are resolved against the link's directory.
func readTarget(link string) (string, error) {
	target, err := os.Readlink(link)
	if err != nil {
		return "", fmt.Errorf("read link %s: %w", link, err)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(link), target)
	}
	return filepath.Clean(target), nil
}

// ownerOf maps a path inside packagesRoot to its owner by splitting the
// relative path into <name>/<version>/...
func ownerOf(path, packagesRoot string) (Owner, bool) {
	rel, ok := within(path, packagesRoot)
	if !ok {
		return Owner{}, false
	}

	parts := strings.Split(rel, string(filepath.Separator))
	owner := Owner{Package: parts[0], Path: path}
	if len(parts) > 1 {
		owner.Version = parts[1]
	}
	return owner, true
}

// within reports whether path lies strictly below root, returning the
// relative path.
func within(path, root string) (string, bool) {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return "", false
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

// packageAncestor walks up from path to the immediate child of packagesRoot
// and returns it. The version is the name of path's parent directory.
func packageAncestor(path, packagesRoot string) (Owner, bool) {
	root := filepath.Clean(packagesRoot)
	dir := filepath.Clean(path)

	for {
		parent := filepath.Dir(dir)
		if parent == root {
			break
		}
		if parent == dir {
			return Owner{}, false
		}
		dir = parent
	}

	if dir == filepath.Clean(path) {
		// path is itself a direct child of the root, not a file inside a package.
		return Owner{}, false
	}

	return Owner{
		Package: filepath.Base(dir),
		Version: filepath.Base(filepath.Dir(path)),
		Path:    path,
	}, true
}
