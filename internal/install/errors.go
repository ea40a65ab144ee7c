package install

import (
	"errors"
	"io/fs"
	"os"

	"github.com/ZebulonRouseFrantzich/kaleido/internal/archive"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/catalog"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/release"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/transfer"
)

var (
	// ErrBuildFailed is returned when a source build exits unsuccessfully.
	ErrBuildFailed = errors.New("build from source failed")

	// ErrSourceBuildDeclined is returned when the operator declines a source build.
	ErrSourceBuildDeclined = errors.New("source build declined")

	// ErrNoReleaseSource is returned for packages without repository coordinates.
	ErrNoReleaseSource = errors.New("package has no release source")

	// ErrUnsupportedLanguage is returned for packages of an unsupported ecosystem.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// ErrorKind classifies request failures for reporting.
type ErrorKind string

const (
	KindNone         ErrorKind = ""
	KindNotFound     ErrorKind = "not-found"
	KindTransport    ErrorKind = "transport"
	KindFilesystem   ErrorKind = "filesystem"
	KindUnsupported  ErrorKind = "unsupported-format"
	KindBuildFailure ErrorKind = "build-failure"
	KindOther        ErrorKind = "other"
)

// Kind classifies err.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, catalog.ErrPackageNotFound),
		errors.Is(err, catalog.ErrBindleNotFound),
		errors.Is(err, release.ErrReleaseNotFound),
		errors.Is(err, release.ErrNoMatchingAsset),
		errors.Is(err, ErrNoReleaseSource):
		return KindNotFound
	case errors.Is(err, transfer.ErrTransport),
		errors.Is(err, transfer.ErrUnexpectedStatus),
		errors.Is(err, release.ErrFeed):
		return KindTransport
	case errors.Is(err, archive.ErrUnsupportedFormat):
		return KindUnsupported
	case errors.Is(err, ErrBuildFailed):
		return KindBuildFailure
	}

	var pathErr *fs.PathError
	var linkErr *os.LinkError
	var sysErr *os.SyscallError
	if errors.As(err, &pathErr) || errors.As(err, &linkErr) || errors.As(err, &sysErr) {
		return KindFilesystem
	}
	return KindOther
}
