package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/kaleido/internal/archive"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/catalog"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/home"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/install"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/link"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/logging"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/platform"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/prompt"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/release"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/settings"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/transfer"
)

// app holds state shared by all commands. Collaborators are built lazily
// from the settings resolved in the root command's pre-run.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	verbose bool

	layout   *home.Layout
	settings *settings.Settings
	logger   *log.Logger
	closeLog func() error
	confirm  install.ConfirmFunc

	// Overridable collaborators.
	httpClient  *http.Client
	feedOptions []release.GitHubOption
	detector    platform.Detector
	linker      link.Linker
	builder     install.Builder
	interactive func() bool
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		in:          in,
		out:         out,
		errOut:      errOut,
		logger:      logging.Discard(),
		closeLog:    func() error { return nil },
		detector:    platform.NewDetector(),
		interactive: prompt.IsInteractive,
	}
}

// setup opens the application home, loads settings and builds the logger.
// Failing to establish the home is the only fatal startup error.
func (a *app) setup(cmd *cobra.Command) error {
	root, err := home.DefaultRoot()
	if err != nil {
		return err
	}
	layout, err := home.Open(root)
	if err != nil {
		return err
	}
	a.layout = layout

	s, err := settings.Load(layout.Root,
		settings.WithFlag(settings.KeyDebug, cmd.Flags().Lookup("verbose")),
		settings.WithFlag(settings.KeyRustABI, cmd.Flags().Lookup("rust-abi")),
	)
	if err != nil {
		return err
	}
	a.settings = s

	logger, closeLog, logErr := logging.Setup(a.errOut, layout.Log, a.verbose || s.Debug)
	a.logger = logger
	a.closeLog = closeLog
	if logErr != nil {
		a.logger.Warn("logging to console only", "error", logErr)
	}
	a.logger.Debug("kaleido starting", "home", layout.Root, "settings", s.File, "version", Version)

	a.confirm = prompt.New(a.in, a.errOut, prompt.WithInteractive(a.interactive)).Confirm
	if a.linker == nil {
		a.linker = link.New(link.WithLogger(a.logger))
	}
	if a.builder == nil {
		a.builder = install.NewCargoBuilder(a.errOut)
	}

	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))
	return nil
}

func (a *app) close() {
	if err := a.closeLog(); err != nil {
		fmt.Fprintf(a.errOut, "close log file: %v\n", err)
	}
}

// transfer returns a Transfer Manager; progress bars are shown when
// progress is true.
func (a *app) transfer(progress bool) *transfer.Manager {
	opts := []transfer.Option{transfer.WithLogger(a.logger)}
	if a.httpClient != nil {
		opts = append(opts, transfer.WithHTTPClient(a.httpClient))
	}
	if progress {
		opts = append(opts, transfer.WithReporter(transfer.ProgressBar(a.errOut)))
	}
	return transfer.NewManager(opts...)
}

func (a *app) resolver() (*release.Resolver, error) {
	opts := []release.GitHubOption{
		release.WithToken(a.settings.GitHubToken),
		release.WithUserAgent(transfer.DefaultUserAgent + "/" + Version),
	}
	if a.httpClient != nil {
		opts = append(opts, release.WithHTTPClient(a.httpClient))
	}
	opts = append(opts, a.feedOptions...)

	feed, err := release.NewGitHubFeed(opts...)
	if err != nil {
		return nil, fmt.Errorf("create release feed: %w", err)
	}
	return release.NewResolver(feed, release.WithLogger(a.logger)), nil
}

func (a *app) catalogStore() *catalog.Store {
	return catalog.NewStore(a.layout.Root, a.transfer(false),
		catalog.WithURL(a.settings.CatalogURL),
		catalog.WithMaxAge(a.settings.CatalogMaxAge),
		catalog.WithConfirm(a.confirm),
		catalog.WithLogger(a.logger),
	)
}

// loadCatalog makes sure the system catalog is present and fresh, then loads
// it merged with the user catalog.
func (a *app) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	if err := a.catalogStore().Ensure(ctx); err != nil {
		a.logger.Error("failed to refresh catalog", "error", err)
	}
	return catalog.Load(a.layout.Root)
}

func (a *app) signature(ctx context.Context) (platform.Signature, *platform.Info, error) {
	info, err := a.detector.Detect(ctx)
	if err != nil {
		return platform.Signature{}, nil, err
	}
	return info.Signature(a.settings.RustABI), info, nil
}

// installer wires the install engine for one command invocation.
func (a *app) installer(ctx context.Context, cat *catalog.Catalog, force bool) (*install.Installer, error) {
	sig, _, err := a.signature(ctx)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("host signature", "arch", sig.Arch, "os", sig.OS, "abi", sig.ABI)

	resolver, err := a.resolver()
	if err != nil {
		return nil, err
	}

	return install.NewInstaller(install.Config{
		Layout:     a.layout,
		Catalog:    cat,
		Resolver:   resolver,
		Downloader: a.transfer(true),
		Extractor:  archive.NewExtractor(archive.WithLogger(a.logger)),
		Linker:     a.linker,
		Builder:    a.builder,
		Confirm:    a.confirm,
		Signature:  sig,
		Force:      force,
		OnResult:   a.printResult,
		Logger:     a.logger,
	})
}

func (a *app) uninstaller() *install.Uninstaller {
	return install.NewUninstaller(a.layout, a.linker, a.logger)
}
