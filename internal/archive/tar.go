package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// openTar returns a decompressed stream for a tar family archive.
func openTar(f io.Reader, format Format) (io.Reader, func(), error) {
	switch format {
	case TarGz:
		r, err := gzip.NewReader(f)
		if err != nil {
			return nil, nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return r, func() { r.Close() }, nil
	case TarXz:
		r, err := xz.NewReader(f)
		if err != nil {
			return nil, nil, fmt.Errorf("create xz reader: %w", err)
		}
		return r, func() {}, nil
	case TarZst:
		r, err := zstd.NewReader(f)
		if err != nil {
			return nil, nil, fmt.Errorf("create zstd reader: %w", err)
		}
		return r, r.Close, nil
	default:
		return f, func() {}, nil
	}
}

func extractTar(archivePath, destDir string, format Format) (string, error) {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	stream, closeStream, err := openTar(archiveFile, format)
	if err != nil {
		return "", err
	}
	defer closeStream()

	tarReader := tar.NewReader(stream)

	top := ""
	first := true
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read tar header: %w", err)
		}

		if first {
			top = tarTop(header.Name, header.Typeflag == tar.TypeDir)
			first = false
		}

		target, err := safeJoin(destDir, header.Name)
		if err != nil {
			return "", err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return "", fmt.Errorf("create directory %s: %w", target, err)
			}

		case tar.TypeReg:
			if err := writeFile(target, tarReader, os.FileMode(header.Mode)); err != nil {
				return "", err
			}

		case tar.TypeSymlink:
			if err := os.Symlink(header.Linkname, target); err != nil {
				return "", fmt.Errorf("create symlink %s: %w", target, err)
			}

		case tar.TypeLink:
			source, err := safeJoin(destDir, header.Linkname)
			if err != nil {
				return "", err
			}
			if err := os.Link(source, target); err != nil {
				return "", fmt.Errorf("create hardlink %s: %w", target, err)
			}

		default:
			// Skip other types (char devices, block devices, etc.)
			continue
		}
	}

	return top, nil
}

// tarTop infers the top folder from the first entry of a tar stream. Leading
// root, current and parent markers are skipped. A first entry that is a
// single file at the archive root means the payload has no top folder.
func tarTop(name string, isDir bool) string {
	var components []string
	for _, p := range strings.Split(name, "/") {
		if p == "" || p == "." || p == ".." {
			continue
		}
		components = append(components, p)
	}

	switch {
	case len(components) == 0:
		return ""
	case len(components) == 1 && !isDir:
		return ""
	default:
		return components[0]
	}
}
