package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/cutforge/cutforge-agent/internal/timeline"
)

// maxFilenameLen bounds sanitized output filenames, extension included.
const maxFilenameLen = 120

// ErrOutputExists is returned by CheckOutputPath when the requested
// output file is already present.
var ErrOutputExists = errors.New("output file already exists")

func SanitizeName(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if isAllowedNameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if maxLen > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxLen {
			cleaned = string(runes[:maxLen])
		}
	}
	return cleaned
}

func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case ' ', '-', '_', '.', ',', '(', ')':
		return true
	default:
		return false
	}
}

func ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("output_dir is required")
	}

	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part == ".." {
			return fmt.Errorf("output_dir cannot contain path traversal")
		}
	}

	cleaned := filepath.Clean(dir)
	if cleaned != dir {
		return fmt.Errorf("output_dir must be clean path")
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output_dir does not exist")
		}
		return fmt.Errorf("invalid output_dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output_dir is not a directory")
	}

	return nil
}

// BuildOutputPath validates the output directory, sanitizes the
// requested filename and forces an .mp4 extension. It does not check
// whether the file already exists; see CheckOutputPath.
func BuildOutputPath(dir, filename string) (string, error) {
	if err := ValidateOutputDir(dir); err != nil {
		return "", err
	}

	name := strings.TrimSpace(filename)
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("filename cannot contain path separators")
	}

	name = SanitizeName(name, maxFilenameLen)
	if name == "" || strings.Trim(name, ".") == "" {
		return "", fmt.Errorf("filename has no usable characters")
	}

	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case ext == ".mp4":
		// keep as-is
	case timeline.SourceExtensions[ext]:
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".mp4"
	default:
		name += ".mp4"
	}

	return filepath.Join(dir, name), nil
}

// CheckOutputPath returns ErrOutputExists when the path is already
// occupied. Callers refuse the export rather than overwrite user files.
func CheckOutputPath(path string) error {
	if _, err := os.Stat(path); err == nil {
		return ErrOutputExists
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("cannot stat output path: %w", err)
	}
	return nil
}
