package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"control chars dropped", " A\nB\rC\tD\x00 ", 100, "ABCD"},
		{"allowed chars kept", "Az09 -_.,()", 100, "Az09 -_.,()"},
		{"disallowed replaced", "bad<>|\"name", 100, "bad____name"},
		{"whitespace only", "   ", 100, ""},
		{"truncated to max runes", "abcdefghijklmnop", 10, "abcdefghij"},
		{"zero max means unlimited", strings.Repeat("x", 200), 0, strings.Repeat("x", 200)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeName(tt.input, tt.max); got != tt.want {
				t.Errorf("SanitizeName(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}

func TestExportBaseName(t *testing.T) {
	if got := ExportBaseName("My Cut"); got != "My Cut" {
		t.Errorf("ExportBaseName = %q, want %q", got, "My Cut")
	}
	if got := ExportBaseName(" \t\n "); got != DefaultExportName {
		t.Errorf("ExportBaseName fallback = %q, want %q", got, DefaultExportName)
	}
}

func TestValidateOutputDir_Valid(t *testing.T) {
	dir := t.TempDir()
	if err := ValidateOutputDir(dir); err != nil {
		t.Fatalf("ValidateOutputDir(%q) error = %v, want nil", dir, err)
	}
}

func TestValidateOutputDir_Rejections(t *testing.T) {
	base := t.TempDir()
	filePath := filepath.Join(base, "file.txt")
	if err := os.WriteFile(filePath, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	tests := []struct {
		name string
		dir  string
	}{
		{"empty", "   "},
		{"traversal", "/tmp/../etc"},
		{"unclean", base + "//out"},
		{"missing", filepath.Join(base, "missing")},
		{"not a directory", filePath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateOutputDir(tt.dir); err == nil {
				t.Errorf("ValidateOutputDir(%q) expected error", tt.dir)
			}
		})
	}
}
