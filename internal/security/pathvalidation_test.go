package security

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveWithinDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	safeDir := filepath.Join(tmpDir, "safe")
	unsafeDir := filepath.Join(tmpDir, "unsafe")
	for _, d := range []string{safeDir, unsafeDir, filepath.Join(safeDir, "frames")} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	if err := os.WriteFile(filepath.Join(safeDir, "frames", "a.bin"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(unsafeDir, filepath.Join(safeDir, "evil-symlink")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"existing file", "frames/a.bin", false},
		{"missing file in subdir", "frames/new.bin", false},
		{"missing nested dirs", "x/y/z.bin", false},
		{"dot dot escape", "../unsafe/secret.bin", true},
		{"dot dot inside", "frames/../frames/a.bin", false},
		{"absolute", filepath.Join(unsafeDir, "a.bin"), true},
		{"symlink escape", "evil-symlink/a.bin", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveWithinDirectory(safeDir, tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrPathEscapes) {
					t.Errorf("ResolveWithinDirectory(%q) error = %v, want ErrPathEscapes", tt.path, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveWithinDirectory(%q) unexpected error: %v", tt.path, err)
			}
			if !filepath.IsAbs(got) {
				t.Errorf("result %q is not absolute", got)
			}
		})
	}
}

func TestResolveWithinDirectory_MissingBase(t *testing.T) {
	_, err := ResolveWithinDirectory(filepath.Join(t.TempDir(), "nope"), "a.bin")
	if err == nil {
		t.Fatal("expected error for missing base directory")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"frame_001.bin":    "frame_001.bin",
		"my frame (1)":     "my_frame_1",
		"../../etc/passwd": "etc_passwd",
		"":                 "unknown",
		"...":              "unknown",
		"caf\u00e9-scan":   "caf_-scan",
		"a///b":            "a_b",
	}
	for in, want := range tests {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
