// Package home manages the kaleido application home directory.
//
// The layout is fixed:
//
//	<home>/packages/<name>/<version>/<executable>   installed payloads
//	<home>/bin/<executable>                         one link per linked package
//	<home>/alias/<alias>                            one link per alias
//	<home>/tmp/                                     scratch workspace for one install
//	<home>/log/                                     log files
//	<home>/kaleido.toml, <home>/custom.toml          system and user catalogs
package home

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/mitchellh/go-homedir"
)

const (
	// EnvHome overrides the default application home directory.
	EnvHome = "KALEIDO_HOME"

	// DirName is the default application home directory name under the user home.
	DirName = ".kaleido"
)

// ErrNoHome is returned when the application home cannot be established.
var ErrNoHome = errors.New("cannot establish kaleido home directory")

// Layout holds the resolved paths of an application home.
type Layout struct {
	Root     string
	Packages string
	Bin      string
	Alias    string
	Tmp      string
	Log      string
}

// DefaultRoot returns $KALEIDO_HOME if set, otherwise ~/.kaleido.
func DefaultRoot() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return filepath.Abs(dir)
	}

	userHome, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoHome, err)
	}
	return filepath.Join(userHome, DirName), nil
}

// New returns the layout rooted at root without touching the filesystem.
func New(root string) *Layout {
	return &Layout{
		Root:     root,
		Packages: filepath.Join(root, "packages"),
		Bin:      filepath.Join(root, "bin"),
		Alias:    filepath.Join(root, "alias"),
		Tmp:      filepath.Join(root, "tmp"),
		Log:      filepath.Join(root, "log"),
	}
}

// Open returns the layout rooted at root, creating the persistent directories.
// This is idempotent. The scratch workspace is not created here; it is owned by
// the install orchestrator.
func Open(root string) (*Layout, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: empty root", ErrNoHome)
	}

	l := New(root)
	for _, dir := range []string{l.Root, l.Packages, l.Bin, l.Alias, l.Log} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: create directory %s: %v", ErrNoHome, dir, err)
		}
	}
	return l, nil
}

// PackageDir returns packages/<name>.
func (l *Layout) PackageDir(name string) string {
	return filepath.Join(l.Packages, name)
}

// VersionDir returns packages/<name>/<version>.
func (l *Layout) VersionDir(name, version string) string {
	return filepath.Join(l.Packages, name, version)
}

// LinkDirs returns every directory that holds published links.
func (l *Layout) LinkDirs() []string {
	return []string{l.Bin, l.Alias}
}

// ResetWorkspace wipes and recreates the scratch workspace.
func (l *Layout) ResetWorkspace() error {
	if err := os.RemoveAll(l.Tmp); err != nil {
		return fmt.Errorf("remove workspace: %w", err)
	}
	if err := os.Mkdir(l.Tmp, 0755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	return nil
}

// ClearWorkspace deletes the scratch workspace.
func (l *Layout) ClearWorkspace() error {
	return os.RemoveAll(l.Tmp)
}

// ExecutableName appends the platform executable suffix to name.
func ExecutableName(name string) string {
	return executableName(name, runtime.GOOS)
}

func executableName(name, goos string) string {
	if goos == "windows" && filepath.Ext(name) != ".exe" {
		return name + ".exe"
	}
	return name
}
