package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
)

// extract7z unpacks a 7z archive. The top folder converges on the outermost
// directory entry: a directory replaces the tracked one when it is an
// ancestor of (or equal to) it.
func extract7z(archivePath, destDir string) (string, error) {
	r, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return "", fmt.Errorf("open 7z: %w", err)
	}
	defer r.Close()

	tracked := ""
	for _, f := range r.File {
		target, err := safeJoin(destDir, f.Name)
		if err != nil {
			return "", err
		}

		info := f.FileInfo()
		if info.IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return "", fmt.Errorf("create directory %s: %w", target, err)
			}
			tracked = converge(tracked, target)
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open 7z entry %s: %w", f.Name, err)
		}
		err = writeFile(target, rc, info.Mode())
		rc.Close()
		if err != nil {
			return "", err
		}
	}

	if tracked == "" {
		return "", nil
	}
	return topSegment(filepath.Clean(destDir), tracked), nil
}

// converge returns dir if it should replace the tracked directory.
func converge(tracked, dir string) string {
	if tracked == "" || isAncestor(dir, tracked) {
		return dir
	}
	return tracked
}

// isAncestor reports whether dir is p or one of its ancestors.
func isAncestor(dir, p string) bool {
	dir, p = filepath.Clean(dir), filepath.Clean(p)
	return p == dir || strings.HasPrefix(p, dir+string(os.PathSeparator))
}
