package install

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
)

// Builder compiles a source tree in release mode.
type Builder interface {
	Build(ctx context.Context, dir string) error
}

// CargoBuilder runs `cargo build --workspace --release`. The produced
// executables land in target/release.
type CargoBuilder struct {
	Command string
	Args    []string
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewCargoBuilder creates a builder that streams build output to w.
func NewCargoBuilder(w io.Writer) *CargoBuilder {
	return &CargoBuilder{
		Command: "cargo",
		Args:    []string{"build", "--workspace", "--release"},
		Stdout:  w,
		Stderr:  w,
	}
}

// Build runs the build in dir.
func (b *CargoBuilder) Build(ctx context.Context, dir string) error {
	cmd := exec.CommandContext(ctx, b.Command, b.Args...)
	cmd.Dir = dir
	cmd.Stdout = b.Stdout
	cmd.Stderr = b.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s in %s: %w", ErrBuildFailed, b.Command, dir, err)
	}
	return nil
}

// BuildOutput returns the path of a release executable under dir.
func BuildOutput(dir, executable string) string {
	return filepath.Join(dir, "target", "release", executable)
}
