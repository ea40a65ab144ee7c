package link

import (
	"fmt"
	"os"
)

// SymlinkLinker publishes links as symbolic links.
type SymlinkLinker struct{}

// NewSymlinkLinker creates a symbolic link variant.
func NewSymlinkLinker() *SymlinkLinker {
	return &SymlinkLinker{}
}

// Link creates a symbolic link at link pointing to target.
func (s *SymlinkLinker) Link(link, target string) error {
	if err := os.Symlink(target, link); err != nil {
		return fmt.Errorf("create symlink %s: %w", link, err)
	}
	return nil
}

// Remove deletes the link at path.
func (s *SymlinkLinker) Remove(path string) error {
	return Remove(path)
}

// Owner follows the symbolic link and prefix-matches it against packagesRoot.
// Entries that are not symbolic links belong to no package.
func (s *SymlinkLinker) Owner(link, packagesRoot string) (Owner, bool, error) {
	info, err := os.Lstat(link)
	if err != nil {
		return Owner{}, false, fmt.Errorf("stat link %s: %w", link, err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return Owner{}, false, nil
	}

	target, err := readTarget(link)
	if err != nil {
		return Owner{}, false, err
	}

	owner, ok := ownerOf(target, packagesRoot)
	return owner, ok, nil
}
