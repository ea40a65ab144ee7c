package link

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// FsutilLister enumerates hardlinks with the Windows fsutil utility.
type FsutilLister struct{}

// Hardlinks runs `fsutil hardlink list` for path.
func (FsutilLister) Hardlinks(path string) ([]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	cmd := exec.CommandContext(context.Background(), "fsutil", "hardlink", "list", abs)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("fsutil hardlink list %s: %w", abs, err)
	}
	return parseFsutil(out, filepath.VolumeName(abs)), nil
}

// parseFsutil parses fsutil output. fsutil prints volume-relative paths, one
// per line; the volume of the queried file is prepended to them.
func parseFsutil(out []byte, volume string) []string {
	var paths []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if filepath.VolumeName(line) == "" && volume != "" {
			line = volume + line
		}
		paths = append(paths, line)
	}
	return paths
}

// WalkLister enumerates hardlinks by walking Roots and comparing file
// identity. It serves platforms without a native enumeration facility.
type WalkLister struct {
	Roots []string
}

// NewWalkLister creates a lister that searches roots.
func NewWalkLister(roots ...string) *WalkLister {
	return &WalkLister{Roots: roots}
}

// Hardlinks returns every regular file under Roots that is the same file as path.
func (w *WalkLister) Hardlinks(path string) ([]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	want, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", abs, err)
	}

	if n, ok := linkCount(abs); ok && n < 2 {
		return []string{abs}, nil
	}

	seen := map[string]bool{abs: true}
	paths := []string{abs}

	for _, root := range w.Roots {
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() || seen[p] {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			if os.SameFile(want, info) {
				seen[p] = true
				paths = append(paths, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	return paths, nil
}
