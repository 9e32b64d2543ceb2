//go:build unix

package walker

import (
	"golang.org/x/sys/unix"
)

// dirKey identifies a directory independently of the path used to reach it.
type dirKey struct {
	dev uint64
	ino uint64
}

// identify returns the device and inode of path, following symbolic links.
func identify(path string) (dirKey, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return dirKey{}, err
	}
	return dirKey{dev: uint64(st.Dev), ino: uint64(st.Ino)}, nil //nolint:unconvert // Dev and Ino widths vary by platform
}
