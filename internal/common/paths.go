package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CleanPath resolves a path to an absolute, traversal-free form
func CleanPath(path string) (string, error) {
	cleaned := filepath.Clean(ExpandHome(path))

	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid path: contains directory traversal")
	}

	if !filepath.IsAbs(cleaned) {
		abs, err := filepath.Abs(cleaned)
		if err != nil {
			return "", fmt.Errorf("failed to resolve absolute path: %w", err)
		}
		cleaned = abs
	}

	return cleaned, nil
}

// ValidatePath ensures a path is within an allowed directory
func ValidatePath(path, baseDir string) (string, error) {
	cleanedPath, err := CleanPath(path)
	if err != nil {
		return "", err
	}

	cleanedBase, err := CleanPath(baseDir)
	if err != nil {
		return "", err
	}

	if cleanedPath != cleanedBase && !strings.HasPrefix(cleanedPath, cleanedBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path is outside allowed directory")
	}

	return cleanedPath, nil
}

// JoinPath joins path components and rejects results that escape base
func JoinPath(base string, elements ...string) (string, error) {
	cleanedBase, err := CleanPath(base)
	if err != nil {
		return "", err
	}

	joined := filepath.Join(append([]string{cleanedBase}, elements...)...)
	return ValidatePath(joined, cleanedBase)
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
