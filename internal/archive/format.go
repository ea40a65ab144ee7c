// Package archive unpacks downloaded release assets and infers the single
// top-level directory their payload is rooted under.
package archive

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for files with an unrecognized extension.
var ErrUnsupportedFormat = errors.New("unsupported archive format")

// Format identifies how a downloaded file is unpacked.
type Format int

const (
	// Unknown is a file with an extension that is not recognized.
	Unknown Format = iota
	// Plain is a bare executable that needs no extraction.
	Plain
	Zip
	SevenZip
	Tar
	TarGz
	TarXz
	TarZst
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case Plain:
		return "plain"
	case Zip:
		return "zip"
	case SevenZip:
		return "7z"
	case Tar:
		return "tar"
	case TarGz:
		return "tar.gz"
	case TarXz:
		return "tar.xz"
	case TarZst:
		return "tar.zst"
	default:
		return "unknown"
	}
}

// IsArchive reports whether f needs extraction.
func (f Format) IsArchive() bool {
	return f != Unknown && f != Plain
}

var suffixes = []struct {
	suffix string
	format Format
}{
	{".tar.gz", TarGz},
	{".tgz", TarGz},
	{".gz", TarGz},
	{".tar.xz", TarXz},
	{".txz", TarXz},
	{".tar.zst", TarZst},
	{".tzst", TarZst},
	{".tar", Tar},
	{".zip", Zip},
	{".7z", SevenZip},
	{".exe", Plain},
}

// Detect classifies a file by name. Names without an extension are plain
// executables; so are names whose last dot is followed by a dash-separated
// run (tool-1.2.3-x86_64-linux), which is a version, not an extension.
func Detect(name string) Format {
	base := strings.ToLower(filepath.Base(name))
	for _, s := range suffixes {
		if strings.HasSuffix(base, s.suffix) {
			return s.format
		}
	}

	ext := filepath.Ext(base)
	if ext == "" || strings.Contains(ext, "-") {
		return Plain
	}
	return Unknown
}
