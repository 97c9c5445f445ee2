package platform

import (
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizePath normalizes a path for the current platform
func NormalizePath(path string) string {
	// Convert to platform-specific separators
	normalized := filepath.Clean(path)

	// On Windows, ensure UNC paths are preserved
	if runtime.GOOS == "windows" {
		if strings.HasPrefix(path, "\\\\") && !strings.HasPrefix(normalized, "\\\\") {
			normalized = "\\\\" + normalized
		}
	}

	return normalized
}

// IsUNCPath checks if a path is a UNC path (Windows network share)
func IsUNCPath(path string) bool {
	if runtime.GOOS != "windows" {
		return false
	}
	return strings.HasPrefix(path, "\\\\") || strings.HasPrefix(path, "//")
}

// IsAbsolute checks if a path is absolute
func IsAbsolute(path string) bool {
	if IsUNCPath(path) {
		return true
	}
	return filepath.IsAbs(path)
}

// HasScheme reports whether location starts with "<scheme>://"
func HasScheme(location string) bool {
	i := strings.Index(location, "://")
	if i <= 1 {
		// a single letter before ":" is a Windows drive, not a scheme
		return false
	}
	for _, r := range location[:i] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}

// ResolveLocation turns a command line argument into a storage location.
// Locations with a scheme are returned untouched; anything else is a local
// path made absolute and written with forward slashes.
func ResolveLocation(arg string) (string, error) {
	if HasScheme(arg) {
		return arg, nil
	}
	if err := ValidatePath(arg); err != nil {
		return "", err
	}

	path := NormalizePath(arg)
	if !IsAbsolute(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", &PathError{Path: arg, Message: err.Error()}
		}
		path = abs
	}
	return filepath.ToSlash(path), nil
}

// ValidatePath checks if a path is valid for the current platform
func ValidatePath(path string) error {
	if path == "" {
		return &PathError{Path: path, Message: "path is empty"}
	}

	// Check for invalid characters based on OS
	if runtime.GOOS == "windows" {
		invalidChars := []string{"<", ">", "\"", "|", "?", "*"}
		for _, char := range invalidChars {
			if strings.Contains(path, char) && !IsUNCPath(path) {
				return &PathError{Path: path, Message: "path contains invalid character: " + char}
			}
		}
	}

	return nil
}

// PathError represents a path validation error
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Message
}
