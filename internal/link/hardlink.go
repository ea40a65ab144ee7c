package link

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/ZebulonRouseFrantzich/kaleido/internal/logging"
)

// Lister enumerates every path hardlinked to a file, the file itself included.
type Lister interface {
	Hardlinks(path string) ([]string, error)
}

// HardlinkLinker publishes links as hardlinks (files) or junctions
// (directories), optionally trying a symbolic link first.
type HardlinkLinker struct {
	lister       Lister
	symlinkFirst bool
	logger       *log.Logger
}

// HardlinkOption configures a HardlinkLinker.
type HardlinkOption func(*HardlinkLinker)

// WithSymlinkFirst makes Link attempt a symbolic link before falling back.
func WithSymlinkFirst(enabled bool) HardlinkOption {
	return func(h *HardlinkLinker) {
		h.symlinkFirst = enabled
	}
}

// WithLogger sets the logger used to report fallbacks.
func WithLogger(l *log.Logger) HardlinkOption {
	return func(h *HardlinkLinker) {
		h.logger = l
	}
}

// NewHardlinkLinker creates a hardlink variant that enumerates links with lister.
func NewHardlinkLinker(lister Lister, opts ...HardlinkOption) *HardlinkLinker {
	h := &HardlinkLinker{lister: lister}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = logging.Or(h.logger)
	return h
}

// Link publishes target at link.
func (h *HardlinkLinker) Link(link, target string) error {
	if h.symlinkFirst {
		err := os.Symlink(target, link)
		if err == nil {
			return nil
		}
		h.logger.Debug("symlink unavailable, falling back", "link", link, "error", err)
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat link target %s: %w", target, err)
	}

	if info.IsDir() {
		if err := junction(link, target); err != nil {
			return fmt.Errorf("create junction %s: %w", link, err)
		}
		return nil
	}

	if err := os.Link(target, link); err != nil {
		return fmt.Errorf("create hardlink %s: %w", link, err)
	}
	return nil
}

// Remove deletes the link at path.
func (h *HardlinkLinker) Remove(path string) error {
	return Remove(path)
}

// Hardlinks returns every path sharing the underlying file of path.
func (h *HardlinkLinker) Hardlinks(path string) ([]string, error) {
	if h.lister == nil {
		return nil, errors.New("no hardlink lister configured")
	}
	return h.lister.Hardlinks(path)
}

// Owner resolves link to its package. Symbolic links and junctions are
// followed directly. Hardlinks are resolved by enumerating the file's links,
// keeping those under packagesRoot, and walking up to the packages root's
// immediate child to recover the package name.
func (h *HardlinkLinker) Owner(link, packagesRoot string) (Owner, bool, error) {
	info, err := os.Lstat(link)
	if err != nil {
		return Owner{}, false, fmt.Errorf("stat link %s: %w", link, err)
	}

	if info.Mode()&(os.ModeSymlink|os.ModeIrregular) != 0 || info.IsDir() {
		target, err := readTarget(link)
		if err != nil {
			return Owner{}, false, err
		}
		owner, ok := ownerOf(target, packagesRoot)
		return owner, ok, nil
	}

	paths, err := h.Hardlinks(link)
	if err != nil {
		return Owner{}, false, fmt.Errorf("enumerate hardlinks of %s: %w", link, err)
	}

	for _, p := range paths {
		if _, ok := within(p, packagesRoot); !ok {
			continue
		}
		if owner, ok := packageAncestor(filepath.Clean(p), packagesRoot); ok {
			return owner, true, nil
		}
	}
	return Owner{}, false, nil
}
