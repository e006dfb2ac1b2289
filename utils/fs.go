// Copyright Safing ICS Technologies GmbH. Use of this source code is governed by the GPLv3 license that can be found in the LICENSE file.

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// EnsureDirectory ensures that the given directory exists with the given
// permissions. Missing parent directories are created with the same
// permissions. Unlike a plain MkdirAll, an existing file at path is an error.
func EnsureDirectory(path string, perm os.FileMode) error {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(path, perm); err != nil {
			return fmt.Errorf("could not create dir %s: %w", path, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to access %s: %w", path, err)
	case !info.IsDir():
		return fmt.Errorf("%s exists and is not a directory", path)
	}

	// windows does not support unix permissions
	if info.Mode().Perm() == perm || runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, perm)
}

// EnsureParentDirectory ensures that the directory of the given file exists.
// Existing directories are left as they are.
func EnsureParentDirectory(file string, perm os.FileMode) error {
	dir := filepath.Dir(file)
	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		return nil
	}
	return EnsureDirectory(dir, perm)
}
