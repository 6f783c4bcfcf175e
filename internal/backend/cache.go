package backend

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// Cache stores run results keyed by backend name and run parameters, so
// a deterministic simulation is executed at most once.
type Cache interface {
	Get(key string) (any, bool, error)
	Put(key string, value any) error
}

// CacheKey derives a stable key from a backend name and run parameters.
// Map iteration order must not leak into the key, so parameters are
// serialized with sorted keys.
func CacheKey(backendName string, params map[string]any) string {
	h := sha256.New()
	io.WriteString(h, backendName)
	io.WriteString(h, "\x00")

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		io.WriteString(h, k)
		io.WriteString(h, "=")
		// json.Marshal keeps nested map keys sorted as well.
		if encoded, err := json.Marshal(params[k]); err == nil {
			h.Write(encoded)
		} else {
			fmt.Fprintf(h, "%v", params[k])
		}
		io.WriteString(h, "\x00")
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// MemoryCache keeps results for the life of the process.
type MemoryCache struct {
	mu      sync.RWMutex
	results map[string]any
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{results: map[string]any{}}
}

func (c *MemoryCache) Get(key string) (any, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.results[key]
	return v, ok, nil
}

func (c *MemoryCache) Put(key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[key] = value
	return nil
}

// DiskCache persists results as gzipped JSON files under a directory, so
// expensive runs survive across invocations.
type DiskCache struct {
	dir string
}

func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) path(key string) string {
	// Keys are hex digests, but guard against path separators anyway.
	safe := strings.ReplaceAll(key, string(filepath.Separator), "_")
	return filepath.Join(c.dir, safe+".json.gz")
}

func (c *DiskCache) Get(key string) (any, bool, error) {
	f, err := os.Open(c.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("opening cached result: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, false, fmt.Errorf("decompressing cached result: %w", err)
	}
	defer zr.Close()

	var value any
	if err := json.NewDecoder(zr).Decode(&value); err != nil {
		return nil, false, fmt.Errorf("decoding cached result: %w", err)
	}
	return value, true, nil
}

func (c *DiskCache) Put(key string, value any) error {
	tmp, err := os.CreateTemp(c.dir, "result-*.tmp")
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	zw := gzip.NewWriter(tmp)
	if err := json.NewEncoder(zw).Encode(value); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding cached result: %w", err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing cached result: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing cache file: %w", err)
	}
	return os.Rename(tmp.Name(), c.path(key))
}

// TieredCache checks a fast cache before a slow one and backfills on a
// slow-cache hit.
type TieredCache struct {
	Fast Cache
	Slow Cache
}

func (c *TieredCache) Get(key string) (any, bool, error) {
	if v, ok, err := c.Fast.Get(key); err != nil || ok {
		return v, ok, err
	}
	v, ok, err := c.Slow.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	if err := c.Fast.Put(key, v); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (c *TieredCache) Put(key string, value any) error {
	if err := c.Fast.Put(key, value); err != nil {
		return err
	}
	return c.Slow.Put(key, value)
}
