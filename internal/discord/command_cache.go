package discord

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// HashCache remembers the definitions hash last published per guild, in a
// JSON file shaped {"<guild id>": "<hash>"}. An empty path keeps it in
// memory only.
type HashCache struct {
	mu     sync.Mutex
	path   string
	hashes map[string]string
}

// OpenHashCache reads path if it exists. A corrupt file starts an empty
// cache and returns the parse error alongside it.
func OpenHashCache(path string) (*HashCache, error) {
	c := &HashCache{path: path, hashes: make(map[string]string)}
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("read command cache: %w", err)
	}
	if err := json.Unmarshal(data, &c.hashes); err != nil {
		c.hashes = make(map[string]string)
		return c, fmt.Errorf("parse command cache %s: %w", path, err)
	}
	return c, nil
}

func (c *HashCache) Get(guildID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hashes[guildID]
}

// Put stores hash for guildID and rewrites the file.
func (c *HashCache) Put(guildID, hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hashes[guildID] = hash
	if c.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(c.hashes, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal command cache: %w", err)
	}
	return writeFileAtomic(c.path, data)
}

// writeFileAtomic writes to a temp file next to path, syncs it and renames
// it over path.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp file: %w", err)
	}
	f.Close()
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
