package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// File persists each option name as a JSON document in a directory. A blob
// that cannot be parsed as a mapping loads as empty rather than erroring.
type File struct {
	dir  string
	mu   sync.Mutex
	meta map[string]Meta
}

// NewFile constructs a file backend rooted at dir, creating it when missing.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, fmt.Errorf("backend: directory must be provided")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("backend: create %s: %w", dir, err)
	}
	return &File{dir: dir, meta: map[string]Meta{}}, nil
}

// Load reads the JSON document for name. A missing file or a document that
// is not a JSON object yields an empty result.
func (f *File) Load(_ context.Context, name string) (map[string]any, error) {
	data, err := os.ReadFile(f.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("backend: read %s: %w", name, err)
	}

	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, nil
	}
	return values, nil
}

// Save writes values as the full document for name, replacing the previous
// one atomically via a rename.
func (f *File) Save(_ context.Context, name string, values map[string]any) error {
	if values == nil {
		values = map[string]any{}
	}
	payload, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("backend: marshal %s: %w", name, err)
	}

	target := f.path(name)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("backend: write %s: %w", name, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("backend: replace %s: %w", name, err)
	}

	f.mu.Lock()
	f.meta[name] = Meta{SnapshotID: uuid.NewString(), UpdatedAt: time.Now()}
	f.mu.Unlock()
	return nil
}

// Meta returns the audit metadata recorded by the last save under name.
func (f *File) Meta(name string) (Meta, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	meta, ok := f.meta[name]
	return meta, ok
}

func (f *File) path(name string) string {
	return filepath.Join(f.dir, name+".json")
}
