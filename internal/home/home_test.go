package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenCreatesLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "kaleido")

	l, err := Open(root)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	for _, dir := range []string{l.Root, l.Packages, l.Bin, l.Alias, l.Log} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("directory %s not created: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}

	if _, err := os.Stat(l.Tmp); !os.IsNotExist(err) {
		t.Errorf("workspace should not exist before ResetWorkspace, stat err = %v", err)
	}

	// Idempotent
	if _, err := Open(root); err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
}

func TestOpenEmptyRoot(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty root")
	}
}

func TestResetWorkspaceWipesContents(t *testing.T) {
	l, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := l.ResetWorkspace(); err != nil {
		t.Fatalf("ResetWorkspace() error = %v", err)
	}
	stale := filepath.Join(l.Tmp, "partial.tar.gz")
	if err := os.WriteFile(stale, []byte("half"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := l.ResetWorkspace(); err != nil {
		t.Fatalf("ResetWorkspace() error = %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale download survived workspace reset")
	}

	if err := l.ClearWorkspace(); err != nil {
		t.Fatalf("ClearWorkspace() error = %v", err)
	}
	if _, err := os.Stat(l.Tmp); !os.IsNotExist(err) {
		t.Errorf("workspace still exists after ClearWorkspace")
	}
}

func TestDefaultRootFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvHome, dir)

	got, err := DefaultRoot()
	if err != nil {
		t.Fatalf("DefaultRoot() error = %v", err)
	}
	if got != dir {
		t.Errorf("DefaultRoot() = %q, want %q", got, dir)
	}
}

func TestVersionDir(t *testing.T) {
	l := New("/k")
	want := filepath.Join("/k", "packages", "rg", "14.1.0")
	if got := l.VersionDir("rg", "14.1.0"); got != want {
		t.Errorf("VersionDir() = %q, want %q", got, want)
	}
}

func TestExecutableName(t *testing.T) {
	tests := []struct {
		name string
		goos string
		want string
	}{
		{"rg", "linux", "rg"},
		{"rg", "windows", "rg.exe"},
		{"rg.exe", "windows", "rg.exe"},
		{"rg", "darwin", "rg"},
	}
	for _, tt := range tests {
		if got := executableName(tt.name, tt.goos); got != tt.want {
			t.Errorf("executableName(%q, %q) = %q, want %q", tt.name, tt.goos, got, tt.want)
		}
	}
}
