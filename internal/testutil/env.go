// Package testutil provides utilities for testing kaleido in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZebulonRouseFrantzich/kaleido/internal/catalog"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/home"
)

// SetupTestEnv points kaleido at a fresh application home and user home
// under t.TempDir, so tests never touch the operator's installation, rc files
// or tokens. It returns the opened layout.
func SetupTestEnv(t *testing.T) *home.Layout {
	t.Helper()

	tmpDir := t.TempDir()
	userHome := filepath.Join(tmpDir, "user")
	root := filepath.Join(tmpDir, "kaleido")

	t.Setenv(home.EnvHome, root)
	t.Setenv("HOME", userHome)
	t.Setenv("USERPROFILE", userHome)
	t.Setenv("SHELL", "/bin/bash")
	for _, k := range []string{
		"GITHUB_TOKEN", "KALEIDO_GITHUB_TOKEN", "KALEIDO_CATALOG_URL",
		"KALEIDO_RUST_ABI", "KALEIDO_DEBUG", "KALEIDO_CATALOG_MAX_AGE",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	if err := os.MkdirAll(userHome, 0o750); err != nil {
		t.Fatalf("failed to create user home %s: %v", userHome, err)
	}

	layout, err := home.Open(root)
	if err != nil {
		t.Fatalf("failed to open test home %s: %v", root, err)
	}
	return layout
}

// WriteCatalog writes content as the system catalog of layout.
func WriteCatalog(t *testing.T, layout *home.Layout, content string) {
	t.Helper()

	path := filepath.Join(layout.Root, catalog.SystemFile)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write catalog %s: %v", path, err)
	}
}
