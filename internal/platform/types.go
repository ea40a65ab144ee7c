// Package platform detects the host platform and maps it onto the tokens
// release assets are named with.
//
// Release assets are conventionally named after a target triple, for example
// ripgrep-14.1.0-x86_64-unknown-linux-musl.tar.gz. The detector reports the
// Go runtime view of the host (GOOS/GOARCH), the kernel's own architecture via
// gopsutil, and on Linux the distribution details, which are only used for
// diagnostics.
package platform

import "context"

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyGentoo  = "gentoo"  // Gentoo
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// ABI tokens accepted by --rust-abi.
const (
	ABIGnu  = "gnu"
	ABIMusl = "musl"
	ABIMsvc = "msvc"
)

// Info contains platform detection information.
type Info struct {
	OS         string // runtime.GOOS: "linux", "darwin", "windows"
	GoArch     string // runtime.GOARCH: "amd64", "arm64"
	Arch       string // asset token for GoArch: "x86_64", "aarch64"
	KernelArch string // kernel reported machine, e.g. "x86_64" (empty if unavailable)
	Platform   string // distro ID (Linux only, e.g. "ubuntu", "arch")
	Family     string // canonical family (e.g. "debian", "rhel", "arch")
	Version    string // distro version (Linux only, e.g. "22.04")
}

// Distro contains Linux distribution information.
type Distro struct {
	ID      string
	Family  string
	Version string
}

// GetDistro returns distro information if this is a Linux platform.
// Returns nil for non-Linux platforms or if distro detection failed.
func (i *Info) GetDistro() *Distro {
	if i.OS != "linux" || i.Platform == "" {
		return nil
	}
	return &Distro{
		ID:      i.Platform,
		Family:  i.Family,
		Version: i.Version,
	}
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// OSToken returns the token release assets use for this OS.
func (i *Info) OSToken() string {
	return OSToken(i.OS)
}

// Signature is the set of filename tokens an asset must carry to run here.
type Signature struct {
	Arch string
	OS   string
	ABI  string
}

// Signature returns the asset signature for this host with the given ABI.
// An empty abi selects DefaultABI for the host OS.
func (i *Info) Signature(abi string) Signature {
	if abi == "" {
		abi = DefaultABI(i.OS)
	}
	return Signature{Arch: i.Arch, OS: i.OSToken(), ABI: abi}
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
