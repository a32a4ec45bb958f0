// Package utils provides small internal helpers shared by the transit
// core and the output sinks: power-of-two rounding for ring capacities
// and path hardening for user-supplied log file locations.
//
// Nothing in this package is part of the public API.
package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hyp3rd/ewrap"
)

// SecurePath confines a relative, user-supplied path to the system's
// temporary directory and returns the resulting absolute path.
//
// The checks performed:
//   - empty paths are rejected
//   - the path is normalized with filepath.Clean
//   - directory traversal sequences (..) are rejected
//   - absolute paths are rejected unless already inside the temp directory
//   - symlinks that resolve outside the temp directory are rejected
//
// Call it before opening a log file at a path that did not come from
// trusted configuration.
func SecurePath(path string) (string, error) {
	if path == "" {
		return "", ewrap.New("path cannot be empty")
	}

	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return "", ewrap.New("path contains a directory traversal sequence").
			WithMetadata("path", path)
	}

	tempDir := os.TempDir()

	if filepath.IsAbs(cleanPath) {
		// Absolute paths are only accepted when already confined to the
		// temp directory, which keeps tests convenient.
		if strings.HasPrefix(path, tempDir) {
			return path, nil
		}

		return "", ewrap.New("absolute paths are not allowed").WithMetadata("path", path)
	}

	fullPath := filepath.Join(tempDir, cleanPath)

	// Resolve symlinks when the path exists so a link cannot smuggle the
	// file outside the temp directory.
	resolvedPath, err := filepath.EvalSymlinks(fullPath)
	if err == nil && !strings.HasPrefix(resolvedPath, tempDir) {
		return "", ewrap.New("path resolves outside of the temp directory").
			WithMetadata("path", path)
	}

	return fullPath, nil
}
