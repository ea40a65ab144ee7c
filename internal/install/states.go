package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ZebulonRouseFrantzich/kaleido/internal/archive"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/catalog"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/home"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/link"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/release"
)

// State is a step of the install workflow.
type State int

const (
	StateResolving State = iota
	StateDownloading
	StateExtracting
	StatePlacing
	StateLinking
	StateDone
	StateSkipped
	StatePromptSourceBuild
	StateBuildingFromSource
)

var stateNames = map[State]string{
	StateResolving:          "resolving",
	StateDownloading:        "downloading",
	StateExtracting:         "extracting",
	StatePlacing:            "placing",
	StateLinking:            "linking",
	StateDone:               "done",
	StateSkipped:            "skipped",
	StatePromptSourceBuild:  "prompt-source-build",
	StateBuildingFromSource: "building-from-source",
}

// String returns the string representation of the state.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether s ends the workflow.
func (s State) Terminal() bool {
	return s == StateDone || s == StateSkipped
}

// SourceBuildPrompt is asked before building a package from source.
const SourceBuildPrompt = "cannot find appropriate package to install, would you like to install from source code?"

// job is the state carried between steps of one request.
type job struct {
	req catalog.Request
	pkg *catalog.Package

	release *release.Release
	asset   release.Asset

	download string         // downloaded file in the workspace
	format   archive.Format // format of download
	payload  string         // executable to place
	placed   string         // executable inside the version directory

	trace []State
}

type stepFunc func(ctx context.Context, j *job) (State, error)

func (in *Installer) table() map[State]stepFunc {
	return map[State]stepFunc{
		StateResolving:          in.resolve,
		StateDownloading:        in.download,
		StateExtracting:         in.extract,
		StatePlacing:            in.place,
		StateLinking:            in.publish,
		StatePromptSourceBuild:  in.promptSourceBuild,
		StateBuildingFromSource: in.buildFromSource,
	}
}

func (in *Installer) executable(j *job) string {
	return home.ExecutableName(j.pkg.BinName)
}

func (in *Installer) versionDir(j *job) string {
	return in.cfg.Layout.VersionDir(j.pkg.Name, j.release.Version)
}

// resolve finds the release and asset, and decides between the binary path,
// the source path and skipping an installed version.
func (in *Installer) resolve(ctx context.Context, j *job) (State, error) {
	gh := j.pkg.GitHub
	if gh == nil || gh.Org == "" || gh.Repo == "" {
		return 0, fmt.Errorf("%w: %s", ErrNoReleaseSource, j.pkg.Name)
	}

	version := j.req.Version
	if version == "" {
		version = release.Latest
	}

	rel, err := in.cfg.Resolver.Resolve(ctx, release.Repo{Owner: gh.Org, Name: gh.Repo}, version)
	if err != nil {
		return 0, err
	}
	j.release = rel
	in.logger.Debug("resolved release", "package", j.pkg.Name, "version", rel.Version, "assets", len(rel.Assets))

	asset, err := release.Select(rel.Assets, release.CriteriaFor(in.cfg.Signature, j.pkg.RemoteFilePrefix))
	if err != nil {
		if errors.Is(err, release.ErrNoMatchingAsset) && rel.SourceURL != "" {
			return StatePromptSourceBuild, nil
		}
		return 0, err
	}
	j.asset = asset

	versionDir := in.versionDir(j)
	if info, err := os.Stat(versionDir); err == nil && info.IsDir() {
		if in.cfg.Force {
			in.logger.Debug("removing installed version", "dir", versionDir)
			if err := os.RemoveAll(versionDir); err != nil {
				return 0, fmt.Errorf("remove installed version: %w", err)
			}
		} else if fileExists(filepath.Join(versionDir, in.executable(j))) {
			in.logger.Info("already installed, skipping", "package", j.pkg.Name, "version", rel.Version)
			return StateSkipped, nil
		}
	}

	return StateDownloading, nil
}

func (in *Installer) download(ctx context.Context, j *job) (State, error) {
	j.download = filepath.Join(in.cfg.Layout.Tmp, j.asset.Name)
	if err := in.cfg.Downloader.Download(ctx, j.asset.URL, j.download); err != nil {
		return 0, fmt.Errorf("download %s: %w", j.asset.Name, err)
	}

	j.format = archive.Detect(j.asset.Name)
	switch {
	case j.format == archive.Plain:
		j.payload = j.download
		return StatePlacing, nil
	case j.format.IsArchive():
		return StateExtracting, nil
	default:
		return 0, fmt.Errorf("%w: %s", archive.ErrUnsupportedFormat, j.asset.Name)
	}
}

func (in *Installer) extract(ctx context.Context, j *job) (State, error) {
	top, err := in.cfg.Extractor.Extract(j.download, in.cfg.Layout.Tmp)
	if err != nil {
		return 0, fmt.Errorf("extract %s: %w", j.asset.Name, err)
	}
	j.payload = filepath.Join(in.cfg.Layout.Tmp, top, j.pkg.BinPath, in.executable(j))
	return StatePlacing, nil
}

func (in *Installer) promptSourceBuild(ctx context.Context, j *job) (State, error) {
	if !in.cfg.Confirm(SourceBuildPrompt) {
		return 0, fmt.Errorf("%w: %s", ErrSourceBuildDeclined, j.pkg.Name)
	}
	return StateBuildingFromSource, nil
}

// buildFromSource downloads the source archive, builds it and points the
// payload at the build output. The version directory is always replaced.
func (in *Installer) buildFromSource(ctx context.Context, j *job) (State, error) {
	if in.cfg.Builder == nil {
		return 0, fmt.Errorf("%w: no builder configured", ErrBuildFailed)
	}

	tmp := in.cfg.Layout.Tmp
	j.download = filepath.Join(tmp, j.release.Version+".zip")
	if err := in.cfg.Downloader.Download(ctx, j.release.SourceURL, j.download); err != nil {
		return 0, fmt.Errorf("download source: %w", err)
	}

	srcDir := filepath.Join(tmp, j.pkg.Name)
	if err := os.MkdirAll(srcDir, 0755); err != nil {
		return 0, fmt.Errorf("create source dir: %w", err)
	}

	top, err := in.cfg.Extractor.Extract(j.download, srcDir)
	if err != nil {
		return 0, fmt.Errorf("extract source: %w", err)
	}

	buildDir := filepath.Join(srcDir, top)
	in.logger.Info("building from source", "package", j.pkg.Name, "dir", buildDir)
	if err := in.cfg.Builder.Build(ctx, buildDir); err != nil {
		return 0, err
	}

	if err := os.RemoveAll(in.versionDir(j)); err != nil {
		return 0, fmt.Errorf("remove installed version: %w", err)
	}

	j.payload = BuildOutput(buildDir, in.executable(j))
	return StatePlacing, nil
}

func (in *Installer) place(ctx context.Context, j *job) (State, error) {
	versionDir := in.versionDir(j)
	if err := os.MkdirAll(versionDir, 0755); err != nil {
		return 0, fmt.Errorf("create version dir: %w", err)
	}

	j.placed = filepath.Join(versionDir, in.executable(j))
	if err := copyFile(j.payload, j.placed); err != nil {
		return 0, fmt.Errorf("place executable: %w", err)
	}
	return StateLinking, nil
}

func (in *Installer) publish(ctx context.Context, j *job) (State, error) {
	binLink := filepath.Join(in.cfg.Layout.Bin, in.executable(j))
	if err := link.Replace(in.cfg.Linker, binLink, j.placed); err != nil {
		return 0, fmt.Errorf("link executable: %w", err)
	}

	if j.req.Alias != "" {
		aliasLink := filepath.Join(in.cfg.Layout.Alias, home.ExecutableName(j.req.Alias))
		if err := link.Replace(in.cfg.Linker, aliasLink, j.placed); err != nil {
			return 0, fmt.Errorf("link alias %s: %w", j.req.Alias, err)
		}
	}

	if err := in.cfg.Layout.ClearWorkspace(); err != nil {
		in.logger.Warn("failed to clear workspace", "dir", in.cfg.Layout.Tmp, "error", err)
	}
	return StateDone, nil
}

// copyFile copies src to dst with executable permissions.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chmod(dst, 0755)
}

// fileExists checks if a regular file exists at path.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
