//go:build !unix

package walker

import (
	"path/filepath"
)

// dirKey identifies a directory by its fully resolved absolute path.
type dirKey struct {
	path string
}

// identify resolves every symbolic link in path.
func identify(path string) (dirKey, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return dirKey{}, err
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return dirKey{}, err
	}
	return dirKey{path: abs}, nil
}
