package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// maxPathLength bounds every path accepted from a job list or datafile.
const maxPathLength = 4096

// outputExtensions lists the file extensions an export may be written to.
// An empty extension is accepted; the format then comes from the tokens.
var outputExtensions = map[string]bool{
	"":      true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// ValidatePath validates a file path taken from the command line or a datafile.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateOutputPath validates an export destination. On top of [ValidatePath]
// it rejects extensions that no engine can encode (e.g. "out.gif").
func ValidateOutputPath(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		return New(ErrCodeInvalidPath, "output must be a file, not a directory: %q", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !outputExtensions[ext] {
		return New(ErrCodeInvalidFormat, "unsupported output extension %q (must be .png, .jpg or .jpeg)", ext)
	}
	return nil
}

// ValidateInputPath validates an SVG source path. Glob patterns are allowed;
// they are expanded by the job loader.
func ValidateInputPath(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if strings.HasSuffix(path, "/") {
		return New(ErrCodeInvalidPath, "input must be a file, not a directory: %q", path)
	}
	return nil
}
