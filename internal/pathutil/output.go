// Package pathutil validates where population files may be written.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gophecy/agentgen/internal/constants"
)

// ErrOutsideRoot is returned when an output path escapes every allowed directory.
var ErrOutsideRoot = errors.New("outside allowed directories")

// RedactPath shortens a path to .../<parent>/<basename> for error messages.
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	base := filepath.Base(cleaned)
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}

// AllowedOutputDirs returns the directories a remote caller may write to:
// the working root and ~/.agentgen/exports.
func AllowedOutputDirs(root string) ([]string, error) {
	dirs := []string{root}
	home, err := os.UserHomeDir()
	if err != nil {
		return dirs, nil
	}
	return append(dirs, filepath.Join(home, constants.AppDirName, "exports")), nil
}

// ResolveOutputPath turns path into an absolute file path for writing.
// Relative paths are taken relative to root. The result must lie inside
// one of allowedDirs after symlinks are resolved, and must not name an
// existing directory.
func ResolveOutputPath(path, root string, allowedDirs []string) (string, error) {
	if path == "" {
		return "", errors.New("output path is empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	if err := ValidatePath(path, allowedDirs); err != nil {
		return "", err
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return "", fmt.Errorf("output path %q is a directory", RedactPath(abs))
	}
	return abs, nil
}

// ValidatePath checks that path, once cleaned and with symlinks resolved on
// its existing ancestors, is inside one of allowedDirs.
func ValidatePath(path string, allowedDirs []string) error {
	switch {
	case path == "":
		return errors.New("path validation failed: path is empty")
	case len(allowedDirs) == 0:
		return errors.New("path validation failed: no allowed directories configured")
	case strings.ContainsRune(path, '\x00'):
		return errors.New("path validation failed: path contains null byte")
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}

	// The file itself may not exist yet, so resolve through its parent.
	dir, err := resolveExisting(filepath.Dir(abs))
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	resolved := filepath.Join(dir, filepath.Base(abs))

	for _, allowed := range allowedDirs {
		allowedAbs, err := filepath.Abs(filepath.Clean(allowed))
		if err != nil {
			continue
		}
		allowedResolved, err := resolveExisting(allowedAbs)
		if err != nil {
			continue
		}
		if within(resolved, allowedResolved) {
			return nil
		}
	}

	return fmt.Errorf("path validation failed: %q is %w", RedactPath(abs), ErrOutsideRoot)
}

// resolveExisting evaluates symlinks on the deepest existing ancestor of dir
// and re-appends the missing tail.
func resolveExisting(dir string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return resolved, nil
	}

	parent := filepath.Dir(dir)
	if parent == dir {
		return "", fmt.Errorf("cannot resolve path %s", RedactPath(dir))
	}
	resolvedParent, err := resolveExisting(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(dir)), nil
}

func within(path, base string) bool {
	if path == base {
		return true
	}
	return strings.HasPrefix(path, base+string(os.PathSeparator))
}
