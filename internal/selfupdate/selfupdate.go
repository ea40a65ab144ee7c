// Package selfupdate replaces the running kaleido executable with a newer
// release of its own repository.
package selfupdate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/mod/semver"

	"github.com/ZebulonRouseFrantzich/kaleido/internal/archive"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/home"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/logging"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/release"
)

// DefaultRepo is the repository kaleido releases are published to.
var DefaultRepo = release.Repo{Owner: "ZebulonRouseFrantzich", Name: "kaleido"}

var (
	// ErrInvalidVersion indicates a version string is not valid semver.
	ErrInvalidVersion = errors.New("invalid semantic version")

	// ErrBinaryNotFound indicates the release archive has no kaleido executable.
	ErrBinaryNotFound = errors.New("executable not found in release asset")

	osExecutable = os.Executable
	evalSymlinks = filepath.EvalSymlinks
)

// Resolver resolves a version of a repository to a release.
type Resolver interface {
	Resolve(ctx context.Context, repo release.Repo, version string) (*release.Release, error)
}

// Downloader fetches a URL into a file.
type Downloader interface {
	Download(ctx context.Context, url, destPath string) error
}

// Extractor unpacks an archive and reports its top-level directory.
type Extractor interface {
	Extract(archivePath, destDir string) (string, error)
}

// Check is the result of comparing the running version with a release.
type Check struct {
	CurrentVersion   string
	LatestVersion    string
	Asset            release.Asset // asset to apply, set when UpgradeAvailable
	UpgradeAvailable bool
	Message          string
}

// Updater checks for and applies upgrades.
type Updater struct {
	current    string
	resolver   Resolver
	downloader Downloader
	extractor  Extractor
	criteria   release.Criteria
	repo       release.Repo
	binName    string
	logger     *log.Logger
}

// Option configures an Updater.
type Option func(*Updater)

// WithRepo overrides the repository releases are looked up in.
func WithRepo(repo release.Repo) Option {
	return func(u *Updater) {
		u.repo = repo
	}
}

// WithBinaryName overrides the executable name looked for in release assets.
func WithBinaryName(name string) Option {
	return func(u *Updater) {
		u.binName = name
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(u *Updater) {
		u.logger = l
	}
}

// NewUpdater creates an Updater for the running version. criteria select the
// release asset for this host.
func NewUpdater(current string, r Resolver, d Downloader, x Extractor, criteria release.Criteria, opts ...Option) *Updater {
	u := &Updater{
		current:    current,
		resolver:   r,
		downloader: d,
		extractor:  x,
		criteria:   criteria,
		repo:       DefaultRepo,
		binName:    "kaleido",
	}
	for _, opt := range opts {
		opt(u)
	}
	u.logger = logging.Or(u.logger)
	return u
}

// Check compares the running version with the latest release, or with
// target when it is not empty.
func (u *Updater) Check(ctx context.Context, target string) (*Check, error) {
	version := target
	if version == "" {
		version = release.Latest
	}

	rel, err := u.resolver.Resolve(ctx, u.repo, version)
	if err != nil {
		return nil, fmt.Errorf("resolve %s release: %w", u.repo, err)
	}

	currentNorm, err := normalizeVersion(u.current)
	if err != nil {
		return nil, fmt.Errorf("current version: %w", err)
	}
	latestNorm, err := normalizeVersion(rel.Version)
	if err != nil {
		return nil, fmt.Errorf("release version: %w", err)
	}

	check := &Check{CurrentVersion: u.current, LatestVersion: rel.Version}
	if semver.Compare(currentNorm, latestNorm) >= 0 {
		check.Message = fmt.Sprintf("kaleido %s is the latest version.", u.current)
		return check, nil
	}

	asset, err := release.Select(rel.Assets, u.criteria)
	if err != nil {
		return nil, fmt.Errorf("select asset for %s: %w", rel.Version, err)
	}
	u.logger.Debug("upgrade asset selected", "version", rel.Version, "asset", asset.Name)

	check.Asset = asset
	check.UpgradeAvailable = true
	check.Message = fmt.Sprintf("Upgrade available: %s -> %s", u.current, rel.Version)
	return check, nil
}

// Apply downloads the checked asset and atomically replaces the running
// executable. All temporary files live in the executable's directory so the
// final rename stays on one filesystem.
func (u *Updater) Apply(ctx context.Context, check *Check) error {
	if check == nil || !check.UpgradeAvailable {
		return errors.New("no upgrade to apply")
	}

	execPath, err := resolveExecPath()
	if err != nil {
		return err
	}

	work, err := os.MkdirTemp(filepath.Dir(execPath), ".kaleido-upgrade-*")
	if err != nil {
		return fmt.Errorf("create upgrade dir: %w", err)
	}
	defer os.RemoveAll(work)

	downloaded := filepath.Join(work, check.Asset.Name)
	if err := u.downloader.Download(ctx, check.Asset.URL, downloaded); err != nil {
		return fmt.Errorf("download %s: %w", check.Asset.Name, err)
	}

	binary, err := u.locateBinary(downloaded, work)
	if err != nil {
		return err
	}

	info, err := os.Stat(execPath)
	if err != nil {
		return fmt.Errorf("read executable permissions: %w", err)
	}
	if err := os.Chmod(binary, info.Mode().Perm()|0111); err != nil {
		return fmt.Errorf("set executable permissions: %w", err)
	}

	if err := replace(binary, execPath); err != nil {
		return fmt.Errorf("replace executable: %w", err)
	}
	u.logger.Info("upgraded kaleido", "from", check.CurrentVersion, "to", check.LatestVersion, "path", execPath)
	return nil
}

// locateBinary returns the new executable inside the downloaded asset.
func (u *Updater) locateBinary(downloaded, work string) (string, error) {
	format := archive.Detect(downloaded)
	if format == archive.Plain {
		return downloaded, nil
	}
	if !format.IsArchive() {
		return "", fmt.Errorf("%w: %s", archive.ErrUnsupportedFormat, filepath.Base(downloaded))
	}

	dest := filepath.Join(work, "extract")
	if err := os.MkdirAll(dest, 0755); err != nil {
		return "", fmt.Errorf("create extract dir: %w", err)
	}
	if _, err := u.extractor.Extract(downloaded, dest); err != nil {
		return "", fmt.Errorf("extract %s: %w", filepath.Base(downloaded), err)
	}

	// Match by base name so flat and nested layouts both work.
	want := home.ExecutableName(u.binName)
	var found string
	err := filepath.WalkDir(dest, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && d.Name() == want {
			found = p
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("search extracted files: %w", err)
	}
	if found == "" {
		return "", fmt.Errorf("%w: %s", ErrBinaryNotFound, want)
	}
	return found, nil
}

// replace renames src over dst. Windows refuses to overwrite a running
// executable but allows renaming it, so the old one is moved aside first.
func replace(src, dst string) error {
	if runtime.GOOS != "windows" {
		return os.Rename(src, dst)
	}

	old := dst + ".old"
	_ = os.Remove(old)
	if err := os.Rename(dst, old); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		_ = os.Rename(old, dst)
		return err
	}
	return nil
}

// resolveExecPath returns the absolute, symlink-resolved path to the running
// executable.
func resolveExecPath() (string, error) {
	p, err := osExecutable()
	if err != nil {
		return "", fmt.Errorf("determine executable path: %w", err)
	}
	resolved, err := evalSymlinks(p)
	if err != nil {
		return "", fmt.Errorf("resolve symlinks for %s: %w", p, err)
	}
	return resolved, nil
}

// normalizeVersion adds the "v" prefix semver expects and validates the result.
func normalizeVersion(v string) (string, error) {
	norm := v
	if !strings.HasPrefix(norm, "v") {
		norm = "v" + norm
	}
	if !semver.IsValid(norm) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	return norm, nil
}
