package storage

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps location schemes to the backend that serves them.
// Locations without a scheme resolve to the "file" backend.
//
//	reg := NewRegistry()
//	reg.Register(NewLocal())
//	reg.Register(ftpStorage)
//	fs, _ := reg.ForLocation("ftp://0/example.com/notes.kdbx")
type Registry struct {
	mu       sync.RWMutex
	backends map[string]FileStorage
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]FileStorage)}
}

// Register adds a backend under every scheme it supports.
// Returns an error if one of those schemes is already taken.
func (r *Registry) Register(fs FileStorage) error {
	if fs == nil {
		return fmt.Errorf("cannot register nil storage")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	schemes := fs.SupportedProtocols()
	if len(schemes) == 0 {
		return fmt.Errorf("storage supports no protocols")
	}
	for _, scheme := range schemes {
		if _, exists := r.backends[scheme]; exists {
			return fmt.Errorf("scheme %q already registered", scheme)
		}
	}
	for _, scheme := range schemes {
		r.backends[scheme] = fs
	}
	return nil
}

// ForLocation returns the backend responsible for a location path
func (r *Registry) ForLocation(location string) (FileStorage, error) {
	scheme := SchemeOf(location)
	if scheme == "" {
		scheme = "file"
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	fs, ok := r.backends[scheme]
	if !ok {
		return nil, fmt.Errorf("no storage registered for scheme %q", scheme)
	}
	return fs, nil
}

// Schemes lists every registered scheme in sorted order
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemes := make([]string, 0, len(r.backends))
	for scheme := range r.backends {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}
