//go:build unix

package link

import (
	"errors"

	"golang.org/x/sys/unix"
)

// New returns the linker for this platform: symbolic links.
func New(opts ...HardlinkOption) Linker {
	return NewSymlinkLinker()
}

func removeDir(path string) error {
	return unix.Rmdir(path)
}

func junction(link, target string) error {
	return errors.New("directory junctions are not supported on this platform")
}

func linkCount(path string) (uint64, bool) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, false
	}
	return uint64(st.Nlink), true
}
