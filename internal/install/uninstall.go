package install

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/ZebulonRouseFrantzich/kaleido/internal/home"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/inventory"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/link"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/logging"
)

// UninstallResult reports the outcome for one package name.
type UninstallResult struct {
	Name    string
	Removed bool     // false when the package was not installed
	Links   []string // links removed
	Err     error
}

// Uninstaller removes packages and every link resolving into them.
type Uninstaller struct {
	layout *home.Layout
	linker link.Linker
	logger *log.Logger
}

// NewUninstaller creates an uninstaller.
func NewUninstaller(layout *home.Layout, linker link.Linker, logger *log.Logger) *Uninstaller {
	return &Uninstaller{layout: layout, linker: linker, logger: logging.Or(logger)}
}

// Uninstall removes the named packages. Links in every link directory that
// resolve into a target package are removed first, then the package
// directories. Names that are not installed are skipped. Links that cannot be
// resolved or removed are logged and skipped.
func (u *Uninstaller) Uninstall(ctx context.Context, names []string) []UninstallResult {
	targets := make(map[string]*UninstallResult)
	var order []string
	for _, name := range names {
		if _, seen := targets[name]; seen {
			continue
		}
		info, err := os.Stat(u.layout.PackageDir(name))
		if err != nil || !info.IsDir() {
			u.logger.Debug("not installed, skipping", "package", name)
			targets[name] = &UninstallResult{Name: name}
			order = append(order, name)
			continue
		}
		targets[name] = &UninstallResult{Name: name, Removed: true}
		order = append(order, name)
	}

	for _, dir := range u.layout.LinkDirs() {
		entries, err := inventory.Scan(u.linker, dir, u.layout.Packages, u.logger)
		if err != nil {
			u.logger.Error("failed to scan link dir", "dir", dir, "error", err)
			continue
		}
		for _, e := range entries {
			res, ok := targets[e.Package]
			if !ok || !res.Removed {
				continue
			}
			if err := u.linker.Remove(e.Link); err != nil {
				u.logger.Error("failed to remove link", "link", e.Link, "error", err)
				continue
			}
			u.logger.Debug("removed link", "link", e.Link, "package", e.Package)
			res.Links = append(res.Links, e.Link)
		}
	}

	results := make([]UninstallResult, 0, len(order))
	for _, name := range order {
		res := targets[name]
		if res.Removed {
			if err := os.RemoveAll(u.layout.PackageDir(name)); err != nil {
				res.Err = fmt.Errorf("remove package dir: %w", err)
				res.Removed = false
				u.logger.Error("uninstall failed", "package", name, "error", err)
			} else {
				u.logger.Info("uninstalled", "package", name)
			}
		}
		results = append(results, *res)
	}
	return results
}
