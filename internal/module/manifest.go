package module

import (
	"context"
	"fmt"
	"maps"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

var (
	manifestMu sync.RWMutex
	manifest   = map[string]Export{}
)

// Register records the export of a compiled-in module under key, the
// slash-separated path of its source file relative to the project directory
// (e.g. "addons/ping/ping.go"). Call it from init() and blank-import the
// package from main.
func Register(key string, exp Export) {
	manifestMu.Lock()
	defer manifestMu.Unlock()
	manifest[cleanKey(key)] = exp
}

// Registered returns a copy of every manifest entry.
func Registered() map[string]Export {
	manifestMu.RLock()
	defer manifestMu.RUnlock()
	return maps.Clone(manifest)
}

// Manifest loads compiled-in Go modules by file path.
type Manifest struct {
	base    string
	entries map[string]Export
}

// NewManifest snapshots the registered entries; file paths are resolved
// against base.
func NewManifest(base string) *Manifest {
	return NewManifestFrom(base, Registered())
}

// NewManifestFrom builds a manifest over explicit entries.
func NewManifestFrom(base string, entries map[string]Export) *Manifest {
	clean := make(map[string]Export, len(entries))
	for k, v := range entries {
		clean[cleanKey(k)] = v
	}
	return &Manifest{base: base, entries: clean}
}

func (m *Manifest) Extensions() []string { return []string{".go"} }

// Load returns the export registered for file. Go test files never load.
func (m *Manifest) Load(_ context.Context, file string) (Export, error) {
	if strings.HasSuffix(file, "_test.go") {
		return nil, nil
	}
	key, err := m.key(file)
	if err != nil {
		return nil, err
	}
	exp, ok := m.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, key)
	}
	return exp, nil
}

// Len returns the number of manifest entries.
func (m *Manifest) Len() int { return len(m.entries) }

func (m *Manifest) key(file string) (string, error) {
	base, err := filepath.Abs(m.base)
	if err != nil {
		return "", fmt.Errorf("resolve manifest base: %w", err)
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolve module path: %w", err)
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		return "", fmt.Errorf("module %s outside %s: %w", file, m.base, err)
	}
	return cleanKey(filepath.ToSlash(rel)), nil
}

func cleanKey(key string) string {
	return strings.TrimPrefix(path.Clean(filepath.ToSlash(key)), "./")
}
