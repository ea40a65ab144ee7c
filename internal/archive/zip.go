package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// extractZip unpacks a zip archive. The top folder is the lowest common
// ancestor of every entry: directory entries contribute themselves and file
// entries their parent directory. A stray file at the root therefore pulls the
// ancestor back to destDir, and the archive has no top folder. The reported
// top folder is the ancestor's first segment below destDir, not its own name:
// an archive holding only a/b/tool reports "a", so destDir/<top>/<bin_path>
// stays the path to the payload.
func extractZip(archivePath, destDir string) (string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	fold := newAncestorFold(destDir)
	for _, f := range r.File {
		target, err := safeJoin(destDir, f.Name)
		if err != nil {
			return "", err
		}

		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			if err := os.MkdirAll(target, 0755); err != nil {
				return "", fmt.Errorf("create directory %s: %w", target, err)
			}
			fold = fold.add(target)
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open zip entry %s: %w", f.Name, err)
		}
		err = writeFile(target, rc, f.Mode())
		rc.Close()
		if err != nil {
			return "", err
		}
		fold = fold.add(filepath.Dir(target))
	}

	return fold.top(), nil
}
