//go:build windows

package link

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// New returns the linker for this platform. Symbolic links need a privilege
// most accounts lack, so hardlinks and junctions back them up.
func New(opts ...HardlinkOption) Linker {
	opts = append([]HardlinkOption{WithSymlinkFirst(true)}, opts...)
	return NewHardlinkLinker(FsutilLister{}, opts...)
}

func removeDir(path string) error {
	return os.Remove(path)
}

func junction(link, target string) error {
	out, err := exec.CommandContext(context.Background(), "cmd", "/c", "mklink", "/J", link, target).CombinedOutput()
	if err != nil {
		return fmt.Errorf("mklink /J: %w: %s", err, out)
	}
	return nil
}

func linkCount(path string) (uint64, bool) {
	return 0, false
}
