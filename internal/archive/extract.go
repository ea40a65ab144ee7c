package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ZebulonRouseFrantzich/kaleido/internal/logging"
)

// Extractor handles archive extraction.
type Extractor struct {
	logger *log.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the extractor's logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Extractor) {
		e.logger = l
	}
}

// NewExtractor creates a new extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.Or(e.logger)
	return e
}

// Extract unpacks archivePath into destDir and returns the top-level
// directory the payload is rooted under, or "" if it has none.
func (e *Extractor) Extract(archivePath, destDir string) (string, error) {
	format := Detect(archivePath)
	e.logger.Debug("extracting", "archive", archivePath, "format", format, "dest", destDir)

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("create dest dir: %w", err)
	}

	var (
		top string
		err error
	)
	switch format {
	case Zip:
		top, err = extractZip(archivePath, destDir)
	case SevenZip:
		top, err = extract7z(archivePath, destDir)
	case Tar, TarGz, TarXz, TarZst:
		top, err = extractTar(archivePath, destDir, format)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(archivePath))
	}
	if err != nil {
		return "", err
	}

	top = strings.TrimSuffix(top, "/")
	e.logger.Debug("extracted", "archive", archivePath, "top", top)
	return top, nil
}

// Extract unpacks archivePath into destDir with a default extractor.
func Extract(archivePath, destDir string) (string, error) {
	return NewExtractor().Extract(archivePath, destDir)
}

// safeJoin joins an archive entry name onto destDir, rejecting names that
// would escape it.
func safeJoin(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	clean := filepath.Clean(destDir)
	if target != clean && !strings.HasPrefix(target, clean+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal file path: %s", name)
	}
	return target, nil
}

// writeFile copies r into a new file at target, creating parent directories.
func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", target, err)
	}

	if mode.Perm() == 0 {
		mode = 0644
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return fmt.Errorf("create file %s: %w", target, err)
	}

	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("write file %s: %w", target, err)
	}
	return out.Close()
}
