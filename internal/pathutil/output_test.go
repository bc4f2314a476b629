package pathutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestValidatePath(t *testing.T) {
	allowedDir := t.TempDir()
	otherDir := t.TempDir()

	subDir := filepath.Join(allowedDir, "subdir")
	if err := os.MkdirAll(subDir, 0700); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}

	tests := []struct {
		name        string
		path        string
		allowedDirs []string
		errContains string
	}{
		{name: "inside allowed dir", path: filepath.Join(allowedDir, "agents.json"), allowedDirs: []string{allowedDir}},
		{name: "in subdirectory", path: filepath.Join(subDir, "agents.yaml"), allowedDirs: []string{allowedDir}},
		{name: "missing intermediate dirs", path: filepath.Join(allowedDir, "a", "b", "agents.json"), allowedDirs: []string{allowedDir}},
		{name: "second allowed dir", path: filepath.Join(otherDir, "agents.json"), allowedDirs: []string{allowedDir, otherDir}},
		{
			name:        "dot-dot traversal",
			path:        filepath.Join(allowedDir, "subdir", "..", "..", "agents.json"),
			allowedDirs: []string{allowedDir},
			errContains: "outside allowed directories",
		},
		{
			name:        "outside",
			path:        filepath.Join(otherDir, "agents.json"),
			allowedDirs: []string{allowedDir},
			errContains: "outside allowed directories",
		},
		{
			name:        "null byte",
			path:        filepath.Join(allowedDir, "age\x00nts.json"),
			allowedDirs: []string{allowedDir},
			errContains: "null byte",
		},
		{name: "empty", path: "", allowedDirs: []string{allowedDir}, errContains: "empty"},
		{name: "no allowed dirs", path: filepath.Join(allowedDir, "agents.json"), errContains: "no allowed directories"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path, tt.allowedDirs)
			if tt.errContains == "" {
				if err != nil {
					t.Errorf("ValidatePath() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("ValidatePath() error = %v, want error containing %q", err, tt.errContains)
			}
		})
	}
}

func TestValidatePath_SymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test not supported on Windows")
	}

	allowedDir := t.TempDir()
	outsideDir := t.TempDir()

	link := filepath.Join(allowedDir, "escape")
	if err := os.Symlink(outsideDir, link); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	err := ValidatePath(filepath.Join(link, "agents.json"), []string{allowedDir})
	if !errors.Is(err, ErrOutsideRoot) {
		t.Errorf("ValidatePath() error = %v, want ErrOutsideRoot", err)
	}
}

func TestResolveOutputPath(t *testing.T) {
	root := t.TempDir()
	allowed := []string{root}

	got, err := ResolveOutputPath("out/agents.json", root, allowed)
	if err != nil {
		t.Fatalf("ResolveOutputPath() error = %v", err)
	}
	if got != filepath.Join(root, "out", "agents.json") {
		t.Errorf("ResolveOutputPath() = %q", got)
	}

	if _, err := ResolveOutputPath("../agents.json", root, allowed); !errors.Is(err, ErrOutsideRoot) {
		t.Errorf("relative escape error = %v, want ErrOutsideRoot", err)
	}

	if err := os.Mkdir(filepath.Join(root, "dir"), 0700); err != nil {
		t.Fatal(err)
	}
	if _, err := ResolveOutputPath("dir", root, allowed); err == nil || !strings.Contains(err.Error(), "is a directory") {
		t.Errorf("directory target error = %v, want directory error", err)
	}

	if _, err := ResolveOutputPath("", root, allowed); err == nil {
		t.Error("ResolveOutputPath(\"\") expected error")
	}
}

func TestAllowedOutputDirs(t *testing.T) {
	root := t.TempDir()
	dirs, err := AllowedOutputDirs(root)
	if err != nil {
		t.Fatalf("AllowedOutputDirs() error = %v", err)
	}
	if len(dirs) == 0 || dirs[0] != root {
		t.Fatalf("AllowedOutputDirs() = %v, want root first", dirs)
	}
	if home, err := os.UserHomeDir(); err == nil {
		want := filepath.Join(home, ".agentgen", "exports")
		if len(dirs) != 2 || dirs[1] != want {
			t.Errorf("AllowedOutputDirs() = %v, want %s second", dirs, want)
		}
	}
}

func TestRedactPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"/home/user/.agentgen/runs.db", ".../.agentgen/runs.db"},
		{"/a/b/c/agents.json", ".../c/agents.json"},
		{"/agents.json", "agents.json"},
		{"out/agents.json", ".../out/agents.json"},
		{"agents.json", "agents.json"},
		{"/home/user/out/", ".../user/out"},
	}
	for _, tt := range tests {
		if got := RedactPath(tt.input); got != tt.want {
			t.Errorf("RedactPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
