package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateFilename validates that a bare filename (an avatar file, a staged
// media file) contains no path separators or traversal components. Filenames
// end up joined under served directories, so anything path-like is rejected.
func ValidateFilename(name string) error {
	if name == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("filename contains path separator: %s", name)
	}
	if name == "." || name == ".." || strings.Contains(name, "..") {
		return fmt.Errorf("filename contains traversal component: %s", name)
	}
	return nil
}

// ValidatePathWithinBase validates that joining name under baseDir cannot
// escape baseDir.
func ValidatePathWithinBase(name, baseDir string) error {
	if err := ValidateFilename(name); err != nil {
		return err
	}

	cleanBase := filepath.Clean(baseDir)
	cleanPath := filepath.Clean(filepath.Join(cleanBase, name))

	if !strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory: %s", name)
	}
	return nil
}
