package platform

import (
	"fmt"
	"strings"
)

// familyMap maps distribution names to their canonical family names.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian,
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
	"gentoo":   FamilyGentoo,
}

// archTokens maps GOARCH values to the architecture part of a target triple.
var archTokens = map[string]string{
	"amd64":   "x86_64",
	"arm64":   "aarch64",
	"386":     "i686",
	"arm":     "arm",
	"riscv64": "riscv64gc",
	"ppc64le": "powerpc64le",
	"s390x":   "s390x",
	"loong64": "loongarch64",
}

// osTokens holds OS names that assets spell differently from GOOS.
var osTokens = map[string]string{
	"macos": "darwin",
}

// ArchToken converts a GOARCH value to its asset token.
func ArchToken(goarch string) (string, error) {
	if token, ok := archTokens[goarch]; ok {
		return token, nil
	}
	return "", fmt.Errorf("unsupported architecture: %s", goarch)
}

// OSToken converts an OS name to its asset token.
func OSToken(os string) string {
	os = strings.ToLower(strings.TrimSpace(os))
	if token, ok := osTokens[os]; ok {
		return token
	}
	return os
}

// DefaultABI returns the ABI token used when none is configured. Windows
// builds without symlink privileges are MSVC builds; everything else is gnu.
func DefaultABI(goos string) string {
	if goos == "windows" {
		return ABIMsvc
	}
	return ABIGnu
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
func mapFamily(family string) string {
	normalized := strings.ToLower(strings.TrimSpace(family))
	if canonical, ok := familyMap[normalized]; ok {
		return canonical
	}
	return FamilyUnknown
}
