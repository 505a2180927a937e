package pagegrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileProvider serves pages from an extractor dump on disk. The dump is parsed
// on first use and shared by every caller afterwards.
type FileProvider struct {
	path string

	once sync.Once
	mem  *MemoryProvider
	err  error
}

// NewFileProvider returns a provider for the dump at path (.json, .yaml, or .yml).
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// Path returns the dump location.
func (f *FileProvider) Path() string {
	return f.path
}

// Load parses the dump if it has not been parsed yet.
func (f *FileProvider) Load() (*MemoryProvider, error) {
	f.once.Do(func() {
		f.mem, f.err = LoadFile(f.path)
	})
	return f.mem, f.err
}

// PageTables implements Provider.
func (f *FileProvider) PageTables(ctx context.Context, page int) ([]Block, error) {
	mem, err := f.Load()
	if err != nil {
		return nil, err
	}
	return mem.PageTables(ctx, page)
}

// PageText implements TextProvider.
func (f *FileProvider) PageText(ctx context.Context, page int) (string, error) {
	mem, err := f.Load()
	if err != nil {
		return "", err
	}
	return mem.PageText(ctx, page)
}

// LoadFile parses an extractor dump into memory.
func LoadFile(path string) (*MemoryProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grid dump: %w", err)
	}
	doc, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("grid dump %s: %w", path, err)
	}
	return NewMemoryProvider(doc.Pages...), nil
}

// Decode parses dump bytes. ext selects the format; anything other than
// .yaml or .yml is treated as JSON.
func Decode(data []byte, ext string) (*Document, error) {
	var doc Document
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	}
	for i, p := range doc.Pages {
		if p.Page < 1 {
			return nil, fmt.Errorf("pages[%d]: page number %d must be at least 1", i, p.Page)
		}
	}
	return &doc, nil
}
