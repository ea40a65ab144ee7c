// Package inventory derives installed packages from published links.
//
// No manifest is kept: a package is installed when a link in a link
// directory resolves into packages/<name>/<version>/.
package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/ZebulonRouseFrantzich/kaleido/internal/link"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/logging"
)

// Entry is one link traced back to its package.
type Entry struct {
	Link    string // path of the link
	Package string
	Version string
	Target  string // resolved path inside the packages root
}

// Scan traces every entry of dir through linker. Entries that do not resolve
// into packagesRoot are ignored. Entries that fail to resolve are logged and
// skipped so one unreadable link cannot hide the rest. A missing dir yields
// no entries.
func Scan(linker link.Linker, dir, packagesRoot string, logger *log.Logger) ([]Entry, error) {
	logger = logging.Or(logger)

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read link dir %s: %w", dir, err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		path := filepath.Join(dir, de.Name())

		owner, ok, err := linker.Owner(path, packagesRoot)
		if err != nil {
			logger.Debug("skipping unresolvable link", "path", path, "error", err)
			continue
		}
		if !ok {
			continue
		}

		entries = append(entries, Entry{
			Link:    path,
			Package: owner.Package,
			Version: owner.Version,
			Target:  owner.Path,
		})
	}
	return entries, nil
}

// Installed is a package with the version its bin link points at.
type Installed struct {
	Name    string
	Version string
}

// InstalledPackages returns installed packages from the bin directory, one per
// package, sorted by name.
func InstalledPackages(linker link.Linker, binDir, packagesRoot string, logger *log.Logger) ([]Installed, error) {
	entries, err := Scan(linker, binDir, packagesRoot, logger)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var installed []Installed
	for _, e := range entries {
		if seen[e.Package] {
			continue
		}
		seen[e.Package] = true
		installed = append(installed, Installed{Name: e.Package, Version: e.Version})
	}

	sort.Slice(installed, func(i, j int) bool {
		return installed[i].Name < installed[j].Name
	})
	return installed, nil
}

// Index maps package names to installed versions.
func Index(installed []Installed) map[string]string {
	idx := make(map[string]string, len(installed))
	for _, i := range installed {
		idx[i.Name] = i.Version
	}
	return idx
}
