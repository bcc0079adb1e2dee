package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// MaxNameLength bounds file names derived from user-supplied titles.
const MaxNameLength = 120

// DefaultExportName names an export whose project title sanitises to nothing.
const DefaultExportName = "cutroom_export"

// SanitizeName strips control characters from a user-supplied name, replaces
// anything outside the allowed set with underscores and caps the result at
// maxLen runes. Leading and trailing whitespace is trimmed, so a name of
// pure whitespace sanitises to the empty string.
func SanitizeName(s string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return -1
		case allowedNameRune(r):
			return r
		default:
			return '_'
		}
	}, s)

	cleaned = strings.TrimSpace(cleaned)
	if maxLen > 0 {
		if runes := []rune(cleaned); len(runes) > maxLen {
			cleaned = string(runes[:maxLen])
		}
	}
	return cleaned
}

// ExportBaseName returns the sanitised file base name for an export,
// falling back to DefaultExportName when nothing survives sanitisation.
func ExportBaseName(title string) string {
	name := SanitizeName(title, MaxNameLength)
	if name == "" {
		return DefaultExportName
	}
	return name
}

func allowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	return strings.ContainsRune(" -_.,()", r)
}

// ValidateOutputDir rejects output directories that are empty, contain
// path traversal, are not clean paths or do not exist as directories.
func ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("output directory is required")
	}

	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part == ".." {
			return fmt.Errorf("output directory cannot contain path traversal")
		}
	}

	if filepath.Clean(dir) != dir {
		return fmt.Errorf("output directory must be a clean path")
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist")
		}
		return fmt.Errorf("invalid output directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output directory is not a directory")
	}
	return nil
}
