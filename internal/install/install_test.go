package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ZebulonRouseFrantzich/kaleido/internal/archive"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/catalog"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/home"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/link"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/platform"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/release"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/transfer"
)

const testCatalog = `
[[packages]]
name = "ripgrep"
url = "https://github.com/BurntSushi/ripgrep"
language = "rust"
bin_name = "rg"
github = { org = "BurntSushi", repo = "ripgrep" }

[[packages]]
name = "fd"
url = "https://github.com/sharkdp/fd"
language = "Rust"
bin_name = "fd"
bin_path = "bin"
github = { org = "sharkdp", repo = "fd" }

[[packages]]
name = "nosrc"
url = "https://example.com"
language = "rust"
bin_name = "nosrc"

[[packages]]
name = "gotool"
url = "https://example.com"
language = "go"
bin_name = "gotool"
github = { org = "x", repo = "gotool" }
`

var testSignature = platform.Signature{Arch: "x86_64", OS: "linux", ABI: "gnu"}

// fakeResolver returns fixed releases per repository.
type fakeResolver struct {
	releases map[string]*release.Release
	err      error
	calls    int
}

func (f *fakeResolver) Resolve(ctx context.Context, repo release.Repo, version string) (*release.Release, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	rel, ok := f.releases[repo.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", release.ErrReleaseNotFound, repo)
	}
	return rel, nil
}

// fakeDownloader writes a marker file for every URL and counts downloads.
type fakeDownloader struct {
	errs  map[string]error
	count map[string]int
}

func (f *fakeDownloader) Download(ctx context.Context, url, dest string) error {
	if f.count == nil {
		f.count = make(map[string]int)
	}
	f.count[url]++
	if err := f.errs[url]; err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte("payload from "+url), 0644)
}

func (f *fakeDownloader) total() int {
	n := 0
	for _, c := range f.count {
		n += c
	}
	return n
}

// fakeExtractor lays out files under dest/top and returns top.
type fakeExtractor struct {
	top   string
	files []string // relative to top
}

func (f *fakeExtractor) Extract(archivePath, dest string) (string, error) {
	for _, name := range f.files {
		p := filepath.Join(dest, f.top, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return "", err
		}
		if err := os.WriteFile(p, []byte("extracted "+name), 0644); err != nil {
			return "", err
		}
	}
	return f.top, nil
}

// fakeBuilder produces target/release/<exe> or fails.
type fakeBuilder struct {
	exe  string
	err  error
	dirs []string
}

func (f *fakeBuilder) Build(ctx context.Context, dir string) error {
	f.dirs = append(f.dirs, dir)
	if f.err != nil {
		return f.err
	}
	out := BuildOutput(dir, f.exe)
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}
	return os.WriteFile(out, []byte("built"), 0755)
}

type fixture struct {
	layout     *home.Layout
	resolver   *fakeResolver
	downloader *fakeDownloader
	extractor  *fakeExtractor
	builder    *fakeBuilder
	linker     link.Linker
	confirm    func(string) bool
	force      bool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	layout, err := home.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	rg := home.ExecutableName("rg")
	return &fixture{
		layout: layout,
		resolver: &fakeResolver{releases: map[string]*release.Release{
			"ripgrep": {
				Version:   "14.1.0",
				SourceURL: "https://example.com/ripgrep/zipball/14.1.0",
				Assets: []release.Asset{
					{Name: "ripgrep-14.1.0-x86_64-pc-windows-msvc.zip", URL: "https://example.com/rg-win.zip"},
					{Name: "ripgrep-14.1.0-x86_64-unknown-linux-gnu.tar.gz", URL: "https://example.com/rg-linux.tar.gz"},
				},
			},
			"fd": {
				Version: "v9.0.0",
				Assets: []release.Asset{
					{Name: "fd-v9.0.0-x86_64-unknown-linux-gnu", URL: "https://example.com/fd"},
				},
			},
		}},
		downloader: &fakeDownloader{},
		extractor:  &fakeExtractor{top: "ripgrep-14.1.0-x86_64-unknown-linux-gnu", files: []string{rg, "README.md"}},
		builder:    &fakeBuilder{exe: rg},
		linker:     link.NewSymlinkLinker(),
		confirm:    func(string) bool { return false },
	}
}

func (f *fixture) installer(t *testing.T) *Installer {
	t.Helper()

	cat, err := catalog.Parse([]byte(testCatalog))
	if err != nil {
		t.Fatal(err)
	}

	in, err := NewInstaller(Config{
		Layout:     f.layout,
		Catalog:    cat,
		Resolver:   f.resolver,
		Downloader: f.downloader,
		Extractor:  f.extractor,
		Linker:     f.linker,
		Builder:    f.builder,
		Confirm:    f.confirm,
		Signature:  testSignature,
		Force:      f.force,
	})
	if err != nil {
		t.Fatalf("NewInstaller() error = %v", err)
	}
	return in
}

func assertLinked(t *testing.T, linker link.Linker, l *home.Layout, linkPath, wantPkg, wantVersion string) {
	t.Helper()

	owner, ok, err := linker.Owner(linkPath, l.Packages)
	if err != nil {
		t.Fatalf("Owner(%s) error = %v", linkPath, err)
	}
	if !ok || owner.Package != wantPkg || owner.Version != wantVersion {
		t.Errorf("Owner(%s) = %+v, %v; want %s/%s", linkPath, owner, ok, wantPkg, wantVersion)
	}
}

func TestNewInstaller_Validation(t *testing.T) {
	if _, err := NewInstaller(Config{}); err == nil {
		t.Error("expected error for empty config")
	}
}

func TestInstall_Archive(t *testing.T) {
	f := newFixture(t)
	in := f.installer(t)

	res := in.InstallOne(context.Background(), catalog.Request{Name: "ripgrep", Alias: "grep"})
	if res.Err != nil {
		t.Fatalf("InstallOne() error = %v", res.Err)
	}

	wantTrace := []State{StateResolving, StateDownloading, StateExtracting, StatePlacing, StateLinking, StateDone}
	if !reflect.DeepEqual(res.Trace, wantTrace) {
		t.Errorf("trace = %v, want %v", res.Trace, wantTrace)
	}
	if !res.Installed() || res.Version != "14.1.0" {
		t.Errorf("result = %+v", res)
	}

	rg := home.ExecutableName("rg")
	placed := filepath.Join(f.layout.VersionDir("ripgrep", "14.1.0"), rg)
	data, err := os.ReadFile(placed)
	if err != nil {
		t.Fatalf("executable not placed: %v", err)
	}
	if string(data) != "extracted "+rg {
		t.Errorf("placed content = %q", data)
	}
	info, _ := os.Stat(placed)
	if info.Mode().Perm()&0100 == 0 {
		t.Errorf("placed mode = %v, want executable", info.Mode())
	}

	if f.downloader.count["https://example.com/rg-linux.tar.gz"] != 1 {
		t.Errorf("downloads = %v, want the linux asset once", f.downloader.count)
	}

	assertLinked(t, f.linker, f.layout, filepath.Join(f.layout.Bin, rg), "ripgrep", "14.1.0")
	assertLinked(t, f.linker, f.layout, filepath.Join(f.layout.Alias, home.ExecutableName("grep")), "ripgrep", "14.1.0")

	if _, err := os.Stat(f.layout.Tmp); !os.IsNotExist(err) {
		t.Error("workspace not cleared after success")
	}
}

func TestInstall_PlainAssetWithBinPath(t *testing.T) {
	f := newFixture(t)
	in := f.installer(t)

	res := in.InstallOne(context.Background(), catalog.Request{Name: "fd"})
	if res.Err != nil {
		t.Fatalf("InstallOne() error = %v", res.Err)
	}

	wantTrace := []State{StateResolving, StateDownloading, StatePlacing, StateLinking, StateDone}
	if !reflect.DeepEqual(res.Trace, wantTrace) {
		t.Errorf("trace = %v, want %v", res.Trace, wantTrace)
	}

	placed := filepath.Join(f.layout.VersionDir("fd", "v9.0.0"), home.ExecutableName("fd"))
	data, err := os.ReadFile(placed)
	if err != nil {
		t.Fatalf("executable not placed: %v", err)
	}
	if string(data) != "payload from https://example.com/fd" {
		t.Errorf("placed content = %q", data)
	}
}

func TestInstall_SkipIfInstalled(t *testing.T) {
	f := newFixture(t)
	in := f.installer(t)
	ctx := context.Background()

	if res := in.InstallOne(ctx, catalog.Request{Name: "ripgrep"}); res.Err != nil {
		t.Fatalf("first install error = %v", res.Err)
	}

	res := in.InstallOne(ctx, catalog.Request{Name: "ripgrep"})
	if res.Err != nil {
		t.Fatalf("second install error = %v", res.Err)
	}
	if res.State != StateSkipped {
		t.Errorf("second install state = %v, want skipped", res.State)
	}
	if n := f.downloader.total(); n != 1 {
		t.Errorf("downloads = %d, want 1", n)
	}
}

func TestInstall_ForceReinstalls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if res := f.installer(t).InstallOne(ctx, catalog.Request{Name: "ripgrep"}); res.Err != nil {
		t.Fatalf("first install error = %v", res.Err)
	}

	stale := filepath.Join(f.layout.VersionDir("ripgrep", "14.1.0"), "stale")
	if err := os.WriteFile(stale, nil, 0644); err != nil {
		t.Fatal(err)
	}

	f.force = true
	res := f.installer(t).InstallOne(ctx, catalog.Request{Name: "ripgrep"})
	if res.Err != nil || res.State != StateDone {
		t.Fatalf("forced install = %+v", res)
	}
	if n := f.downloader.total(); n != 2 {
		t.Errorf("downloads = %d, want 2", n)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("version directory was not recreated")
	}
}

func TestInstall_IncompleteVersionDirIsReinstalled(t *testing.T) {
	f := newFixture(t)

	// Left behind by a failed install: directory without the executable.
	if err := os.MkdirAll(f.layout.VersionDir("ripgrep", "14.1.0"), 0755); err != nil {
		t.Fatal(err)
	}

	res := f.installer(t).InstallOne(context.Background(), catalog.Request{Name: "ripgrep"})
	if res.Err != nil || res.State != StateDone {
		t.Fatalf("install = %+v", res)
	}
}

func TestInstall_BatchIndependence(t *testing.T) {
	f := newFixture(t)

	var seen []string
	cat, _ := catalog.Parse([]byte(testCatalog))
	in, err := NewInstaller(Config{
		Layout:     f.layout,
		Catalog:    cat,
		Resolver:   f.resolver,
		Downloader: f.downloader,
		Extractor:  f.extractor,
		Linker:     f.linker,
		Signature:  testSignature,
		OnResult:   func(r Result) { seen = append(seen, r.Request.Name) },
	})
	if err != nil {
		t.Fatal(err)
	}

	results := in.Install(context.Background(), catalog.Requests([]string{"missing-pkg", "ripgrep"}, "", ""))
	if len(results) != 2 {
		t.Fatalf("Install() returned %d results", len(results))
	}

	if !errors.Is(results[0].Err, catalog.ErrPackageNotFound) {
		t.Errorf("missing-pkg error = %v, want ErrPackageNotFound", results[0].Err)
	}
	if Kind(results[0].Err) != KindNotFound {
		t.Errorf("missing-pkg kind = %v", Kind(results[0].Err))
	}
	if !results[1].Installed() {
		t.Errorf("ripgrep result = %+v, want installed", results[1])
	}
	if !reflect.DeepEqual(seen, []string{"missing-pkg", "ripgrep"}) {
		t.Errorf("OnResult order = %v", seen)
	}
}

func TestInstall_SourceBuild(t *testing.T) {
	f := newFixture(t)
	// Only a windows asset, so nothing matches on the test signature.
	f.resolver.releases["ripgrep"].Assets = f.resolver.releases["ripgrep"].Assets[:1]
	f.extractor.top = "BurntSushi-ripgrep-abc123"
	f.extractor.files = []string{"Cargo.toml"}

	var prompts []string
	f.confirm = func(p string) bool {
		prompts = append(prompts, p)
		return true
	}

	res := f.installer(t).InstallOne(context.Background(), catalog.Request{Name: "ripgrep", Alias: "grep"})
	if res.Err != nil {
		t.Fatalf("InstallOne() error = %v", res.Err)
	}

	wantTrace := []State{StateResolving, StatePromptSourceBuild, StateBuildingFromSource, StatePlacing, StateLinking, StateDone}
	if !reflect.DeepEqual(res.Trace, wantTrace) {
		t.Errorf("trace = %v, want %v", res.Trace, wantTrace)
	}
	if len(prompts) != 1 || prompts[0] != SourceBuildPrompt {
		t.Errorf("prompts = %v", prompts)
	}

	if f.downloader.count["https://example.com/ripgrep/zipball/14.1.0"] != 1 {
		t.Errorf("source archive not downloaded: %v", f.downloader.count)
	}
	wantDir := filepath.Join(f.layout.Tmp, "ripgrep", "BurntSushi-ripgrep-abc123")
	if len(f.builder.dirs) != 1 || f.builder.dirs[0] != wantDir {
		t.Errorf("build dirs = %v, want %s", f.builder.dirs, wantDir)
	}

	rg := home.ExecutableName("rg")
	data, err := os.ReadFile(filepath.Join(f.layout.VersionDir("ripgrep", "14.1.0"), rg))
	if err != nil || string(data) != "built" {
		t.Errorf("placed build output = %q, %v", data, err)
	}
	assertLinked(t, f.linker, f.layout, filepath.Join(f.layout.Alias, home.ExecutableName("grep")), "ripgrep", "14.1.0")
}

func TestInstall_SourceBuildDeclined(t *testing.T) {
	f := newFixture(t)
	f.resolver.releases["ripgrep"].Assets = nil

	res := f.installer(t).InstallOne(context.Background(), catalog.Request{Name: "ripgrep"})
	if !errors.Is(res.Err, ErrSourceBuildDeclined) || !IsDeclined(res) {
		t.Fatalf("InstallOne() error = %v, want declined", res.Err)
	}
	if res.State != StatePromptSourceBuild {
		t.Errorf("state = %v", res.State)
	}
	if n := f.downloader.total(); n != 0 {
		t.Errorf("downloads = %d, want none", n)
	}
	if _, err := os.Stat(f.layout.PackageDir("ripgrep")); !os.IsNotExist(err) {
		t.Error("package directory created for declined build")
	}
}

func TestInstall_BuildFailure(t *testing.T) {
	f := newFixture(t)
	f.resolver.releases["ripgrep"].Assets = nil
	f.confirm = func(string) bool { return true }
	f.builder.err = fmt.Errorf("%w: exit status 101", ErrBuildFailed)

	res := f.installer(t).InstallOne(context.Background(), catalog.Request{Name: "ripgrep"})
	if Kind(res.Err) != KindBuildFailure {
		t.Fatalf("kind = %v (%v), want build-failure", Kind(res.Err), res.Err)
	}
	if res.State != StateBuildingFromSource {
		t.Errorf("state = %v", res.State)
	}
	if _, err := os.Stat(filepath.Join(f.layout.Bin, home.ExecutableName("rg"))); !os.IsNotExist(err) {
		t.Error("link created for failed build")
	}
}

func TestInstall_Failures(t *testing.T) {
	tests := []struct {
		name     string
		request  string
		setup    func(f *fixture)
		wantKind ErrorKind
		wantErr  error
	}{
		{
			name:     "no matching asset and no source",
			request:  "fd",
			setup:    func(f *fixture) { f.resolver.releases["fd"].Assets[0].Name = "fd-v9.0.0-aarch64-apple-darwin" },
			wantKind: KindNotFound,
			wantErr:  release.ErrNoMatchingAsset,
		},
		{
			name:     "release not found",
			request:  "ripgrep",
			setup:    func(f *fixture) { delete(f.resolver.releases, "ripgrep") },
			wantKind: KindNotFound,
			wantErr:  release.ErrReleaseNotFound,
		},
		{
			name:     "feed unavailable",
			request:  "ripgrep",
			setup:    func(f *fixture) { f.resolver.err = fmt.Errorf("%w: timeout", release.ErrFeed) },
			wantKind: KindTransport,
			wantErr:  release.ErrFeed,
		},
		{
			name:    "download status",
			request: "ripgrep",
			setup: func(f *fixture) {
				f.downloader.errs = map[string]error{
					"https://example.com/rg-linux.tar.gz": fmt.Errorf("%w: 404", transfer.ErrUnexpectedStatus),
				}
			},
			wantKind: KindTransport,
			wantErr:  transfer.ErrUnexpectedStatus,
		},
		{
			name:    "unsupported format",
			request: "fd",
			setup: func(f *fixture) {
				f.resolver.releases["fd"].Assets[0].Name = "fd-v9.0.0-x86_64-unknown-linux-gnu.deb"
			},
			wantKind: KindUnsupported,
			wantErr:  archive.ErrUnsupportedFormat,
		},
		{
			name:     "no release source",
			request:  "nosrc",
			wantKind: KindNotFound,
			wantErr:  ErrNoReleaseSource,
		},
		{
			name:     "unsupported language",
			request:  "gotool",
			wantKind: KindOther,
			wantErr:  ErrUnsupportedLanguage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}

			res := f.installer(t).InstallOne(context.Background(), catalog.Request{Name: tt.request})
			if !errors.Is(res.Err, tt.wantErr) {
				t.Fatalf("InstallOne() error = %v, want %v", res.Err, tt.wantErr)
			}
			if got := Kind(res.Err); got != tt.wantKind {
				t.Errorf("Kind() = %v, want %v", got, tt.wantKind)
			}
			if res.Installed() {
				t.Error("failed request reported as installed")
			}
		})
	}
}

func TestInstall_ResetsWorkspace(t *testing.T) {
	f := newFixture(t)
	if err := os.MkdirAll(f.layout.Tmp, 0755); err != nil {
		t.Fatal(err)
	}
	leftover := filepath.Join(f.layout.Tmp, "interrupted.tar.gz")
	if err := os.WriteFile(leftover, []byte("partial"), 0644); err != nil {
		t.Fatal(err)
	}

	f.downloader.errs = map[string]error{"https://example.com/rg-linux.tar.gz": errors.New("boom")}
	f.installer(t).InstallOne(context.Background(), catalog.Request{Name: "ripgrep"})

	if _, err := os.Stat(leftover); !os.IsNotExist(err) {
		t.Error("leftover download survived workspace reset")
	}
}

func TestState_String(t *testing.T) {
	if StatePromptSourceBuild.String() != "prompt-source-build" {
		t.Errorf("String() = %q", StatePromptSourceBuild.String())
	}
	if !StateSkipped.Terminal() || StateLinking.Terminal() {
		t.Error("Terminal() mismatch")
	}
}
