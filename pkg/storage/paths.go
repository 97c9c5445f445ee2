package storage

import (
	"path"
	"strings"
)

// JoinPath appends name to a location path, inserting a "/" if needed.
// It never touches the network and never cleans the parent.
func JoinPath(parent, name string) string {
	if !strings.HasSuffix(parent, "/") {
		parent += "/"
	}
	return parent + name
}

// FileName returns the last "/" separated element of a location path
func FileName(location string) string {
	trimmed := strings.TrimRight(location, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// StripExtension removes the final extension from a file name
func StripExtension(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}

// SchemeOf returns the scheme of a location path, or "" when it has none
func SchemeOf(location string) string {
	i := strings.Index(location, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(location[:i])
}
