package link

import (
	"os"
	"path/filepath"
	"testing"
)

// setupPackages creates packages/<name>/<version>/<name> for each entry and
// returns the home root.
func setupPackages(t *testing.T, pkgs map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, version := range pkgs {
		dir := filepath.Join(root, "packages", name, version)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(root, "bin"), 0755); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestOwnerOf(t *testing.T) {
	root := filepath.Join("/", "k", "packages")

	tests := []struct {
		name   string
		path   string
		want   Owner
		wantOK bool
	}{
		{
			name:   "executable",
			path:   filepath.Join(root, "rg", "14.1.0", "rg"),
			want:   Owner{Package: "rg", Version: "14.1.0", Path: filepath.Join(root, "rg", "14.1.0", "rg")},
			wantOK: true,
		},
		{
			name:   "package dir only",
			path:   filepath.Join(root, "rg"),
			want:   Owner{Package: "rg", Path: filepath.Join(root, "rg")},
			wantOK: true,
		},
		{
			name: "root itself",
			path: root,
		},
		{
			name: "outside root",
			path: filepath.Join("/", "usr", "bin", "rg"),
		},
		{
			name: "sibling with shared prefix",
			path: filepath.Join("/", "k", "packages-old", "rg", "1.0", "rg"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ownerOf(tt.path, root)
			if ok != tt.wantOK {
				t.Fatalf("ownerOf() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ownerOf() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPackageAncestor(t *testing.T) {
	root := filepath.Join("/", "k", "packages")

	got, ok := packageAncestor(filepath.Join(root, "fd", "9.0.0", "fd"), root)
	if !ok {
		t.Fatal("packageAncestor() ok = false")
	}
	if got.Package != "fd" || got.Version != "9.0.0" {
		t.Errorf("packageAncestor() = %+v", got)
	}

	if _, ok := packageAncestor(filepath.Join(root, "fd"), root); ok {
		t.Error("direct child of root must not resolve")
	}
	if _, ok := packageAncestor(filepath.Join("/", "elsewhere", "fd"), root); ok {
		t.Error("path outside root must not resolve")
	}
}

func TestParseFsutil(t *testing.T) {
	out := []byte("\\Users\\me\\.kaleido\\bin\\rg.exe\r\n\\Users\\me\\.kaleido\\packages\\rg\\14.1.0\\rg.exe\r\n\r\n")

	got := parseFsutil(out, "C:")
	if len(got) != 2 {
		t.Fatalf("parseFsutil() returned %d paths: %v", len(got), got)
	}
	for _, p := range got {
		if p[:2] != "C:" {
			t.Errorf("path %q missing volume prefix", p)
		}
	}
}

func TestSymlinkLinker(t *testing.T) {
	root := setupPackages(t, map[string]string{"rg": "14.1.0"})
	packages := filepath.Join(root, "packages")
	target := filepath.Join(packages, "rg", "14.1.0", "rg")
	link := filepath.Join(root, "bin", "rg")

	l := NewSymlinkLinker()
	if err := l.Link(link, target); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	owner, ok, err := l.Owner(link, packages)
	if err != nil {
		t.Fatalf("Owner() error = %v", err)
	}
	if !ok || owner.Package != "rg" || owner.Version != "14.1.0" {
		t.Errorf("Owner() = %+v, %v", owner, ok)
	}

	if err := Replace(l, link, target); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	if err := l.Remove(link); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Lstat(link); !os.IsNotExist(err) {
		t.Errorf("link still exists after Remove")
	}
	if _, err := os.Stat(target); err != nil {
		t.Errorf("Remove() touched the target: %v", err)
	}

	// Removing a missing link is not an error.
	if err := l.Remove(link); err != nil {
		t.Errorf("Remove() on missing link error = %v", err)
	}
}

func TestSymlinkLinker_RelativeTarget(t *testing.T) {
	root := setupPackages(t, map[string]string{"fd": "9.0.0"})
	link := filepath.Join(root, "bin", "fd")

	if err := os.Symlink(filepath.Join("..", "packages", "fd", "9.0.0", "fd"), link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	owner, ok, err := NewSymlinkLinker().Owner(link, filepath.Join(root, "packages"))
	if err != nil {
		t.Fatalf("Owner() error = %v", err)
	}
	if !ok || owner.Package != "fd" {
		t.Errorf("Owner() = %+v, %v", owner, ok)
	}
}

func TestSymlinkLinker_RegularFileHasNoOwner(t *testing.T) {
	root := setupPackages(t, nil)
	stray := filepath.Join(root, "bin", "stray")
	if err := os.WriteFile(stray, nil, 0644); err != nil {
		t.Fatal(err)
	}

	_, ok, err := NewSymlinkLinker().Owner(stray, filepath.Join(root, "packages"))
	if err != nil {
		t.Fatalf("Owner() error = %v", err)
	}
	if ok {
		t.Error("regular file reported as owned")
	}
}

func TestRemove_RefusesNonEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "keep"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	if err := Remove(dir); err == nil {
		t.Error("Remove() deleted a non-empty directory")
	}
	if _, err := os.Stat(filepath.Join(dir, "keep")); err != nil {
		t.Errorf("directory contents lost: %v", err)
	}
}
