// Package sanitize validates caller-supplied file paths against a trusted
// project root. Every path entering the enforcement pipeline passes through
// here before any filesystem or subprocess access.
package sanitize

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validation errors for security checks.
var (
	// ErrPathTraversal indicates a path resolves outside the project root.
	ErrPathTraversal = errors.New("path escapes project root")

	// ErrEmptyPath indicates an empty path was provided.
	ErrEmptyPath = errors.New("path cannot be empty")

	// ErrEmptyRoot indicates no project root was provided.
	ErrEmptyRoot = errors.New("project root cannot be empty")
)

// ValidatePath resolves path against projectRoot and verifies the result
// stays inside it. Relative paths are joined to the root; absolute paths are
// checked as-is after cleaning. Returns the cleaned absolute path.
//
// The check is pure given its two inputs: it never touches the filesystem
// beyond lexical resolution, and it never corrects an escaping path.
func ValidatePath(path, projectRoot string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	if projectRoot == "" {
		return "", ErrEmptyRoot
	}

	absRoot, err := filepath.Abs(filepath.Clean(projectRoot))
	if err != nil {
		return "", fmt.Errorf("failed to resolve project root: %w", err)
	}

	// Relative inputs are anchored at the project root, not the process cwd.
	abs := filepath.Clean(path)
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(absRoot, abs)
	}
	abs = filepath.Clean(abs)

	rel, err := filepath.Rel(absRoot, abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, path)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, path)
	}

	return abs, nil
}

// SanitizePath normalizes redundant separators and dot segments before
// validating. Use for inputs that may carry noisy but legitimate paths
// (e.g. "src//./pkg/main.py").
func SanitizePath(path, projectRoot string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}

	normalized := filepath.Clean(filepath.FromSlash(path))
	return ValidatePath(normalized, projectRoot)
}
