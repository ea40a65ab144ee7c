// Package install drives package installation and removal.
//
// Installer runs one request at a time through an explicit state table:
//
//	Resolving -> Downloading -> Extracting -> Placing -> Linking -> Done
//	Resolving -> PromptSourceBuild -> BuildingFromSource -> Placing
//	Resolving -> Skipped
//
// A failing request is reported and the batch moves on. Nothing is rolled
// back; an incomplete version directory is cleared by a forced reinstall.
package install

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/ZebulonRouseFrantzich/kaleido/internal/catalog"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/home"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/link"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/logging"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/platform"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/release"
)

// Catalog looks up packages.
type Catalog interface {
	Package(name string) (*catalog.Package, error)
}

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

// ConfirmFunc asks the operator a yes/no question.
type ConfirmFunc func(prompt string) bool

// Config holds the collaborators of an Installer.
type Config struct {
	Layout     *home.Layout
	Catalog    Catalog
	Resolver   Resolver
	Downloader Downloader
	Extractor  Extractor
	Linker     link.Linker
	Builder    Builder
	Confirm    ConfirmFunc

	// Signature is the host's asset signature, ABI included.
	Signature platform.Signature

	// Force deletes an installed version directory and reinstalls it.
	Force bool

	// OnResult, if set, is called after each request finishes.
	OnResult func(Result)

	Logger *log.Logger
}

// Result reports the outcome of one request.
type Result struct {
	Request catalog.Request
	Version string  // resolved release version, if resolution succeeded
	State   State   // final state: Done, Skipped, or the state that failed
	Trace   []State // states visited, in order
	Err     error
}

// Installed reports whether the request ended with the package in place.
func (r Result) Installed() bool {
	return r.State == StateDone
}

// Installer runs install requests.
type Installer struct {
	cfg    Config
	steps  map[State]stepFunc
	logger *log.Logger
}

// NewInstaller creates an installer.
func NewInstaller(cfg Config) (*Installer, error) {
	switch {
	case cfg.Layout == nil:
		return nil, fmt.Errorf("layout is required")
	case cfg.Catalog == nil:
		return nil, fmt.Errorf("catalog is required")
	case cfg.Resolver == nil:
		return nil, fmt.Errorf("resolver is required")
	case cfg.Downloader == nil:
		return nil, fmt.Errorf("downloader is required")
	case cfg.Extractor == nil:
		return nil, fmt.Errorf("extractor is required")
	case cfg.Linker == nil:
		return nil, fmt.Errorf("linker is required")
	}
	if cfg.Confirm == nil {
		cfg.Confirm = func(string) bool { return false }
	}

	in := &Installer{cfg: cfg, logger: logging.Or(cfg.Logger)}
	in.steps = in.table()
	return in, nil
}

// Install runs requests in order. A failure never stops the batch.
func (in *Installer) Install(ctx context.Context, requests []catalog.Request) []Result {
	results := make([]Result, 0, len(requests))
	for _, req := range requests {
		res := in.InstallOne(ctx, req)
		if res.Err != nil {
			in.logger.Error("install failed", "package", req.Name, "kind", Kind(res.Err), "error", res.Err)
		}
		if in.cfg.OnResult != nil {
			in.cfg.OnResult(res)
		}
		results = append(results, res)
	}
	return results
}

// InstallOne runs a single request to completion.
func (in *Installer) InstallOne(ctx context.Context, req catalog.Request) Result {
	in.logger.Info("installing package", "package", req.Name)

	pkg, err := in.cfg.Catalog.Package(req.Name)
	if err != nil {
		return Result{Request: req, State: StateResolving, Err: err}
	}
	if !pkg.Installable() {
		in.logger.Warn("unsupported language", "package", pkg.Name, "language", pkg.Language)
		return Result{Request: req, State: StateResolving, Err: fmt.Errorf("%w: %q", ErrUnsupportedLanguage, pkg.Language)}
	}

	if err := in.cfg.Layout.ResetWorkspace(); err != nil {
		return Result{Request: req, State: StateResolving, Err: err}
	}

	j := &job{req: req, pkg: pkg}
	state, err := in.run(ctx, j, StateResolving)

	res := Result{Request: req, State: state, Trace: j.trace, Err: err}
	if j.release != nil {
		res.Version = j.release.Version
	}
	return res
}

// run drives j through the state table from start until a terminal state or
// an error. It returns the final state, which is the failing one on error.
func (in *Installer) run(ctx context.Context, j *job, start State) (State, error) {
	state := start
	for {
		j.trace = append(j.trace, state)
		if state.Terminal() {
			return state, nil
		}

		step, ok := in.steps[state]
		if !ok {
			return state, fmt.Errorf("no transition from state %s", state)
		}

		next, err := step(ctx, j)
		if err != nil {
			in.logger.Debug("step failed", "package", j.pkg.Name, "state", state, "error", err)
			return state, err
		}
		state = next
	}
}

// IsDeclined reports whether a result ended because the operator declined a
// source build.
func IsDeclined(r Result) bool {
	return errors.Is(r.Err, ErrSourceBuildDeclined)
}
