package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"ortbridge/internal/common/fsutil"
	"ortbridge/pkg/types"
)

// modelExts maps recognised model file extensions to their format name.
var modelExts = map[string]string{
	".onnx": "onnx",
	".ort":  "ort",
}

// LoadDir scans a directory for *.onnx and *.ort files and builds an index from filenames.
// ID is the full filename (including extension); Path is the absolute file path.
func LoadDir(dir string) ([]types.Model, error) {
	abs, err := fsutil.AbsPath(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		format, ok := modelExts[ext]
		if !ok {
			continue
		}
		m := types.Model{
			ID:     name,
			Name:   strings.TrimSuffix(name, filepath.Ext(name)),
			Path:   filepath.Join(abs, name),
			Format: format,
		}
		if fi, err := e.Info(); err == nil {
			m.SizeBytes = fi.Size()
		}
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// Models is a refreshable index over a models directory. The zero directory
// disables the index; references must then be file paths.
type Models struct {
	dir string

	mu     sync.RWMutex
	models []types.Model
}

// NewModels builds an index over dir. A missing directory yields an empty
// index rather than an error so the server can start before models arrive.
func NewModels(dir string) (*Models, error) {
	m := &Models{dir: dir}
	if dir == "" {
		return m, nil
	}
	if err := m.Refresh(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return m, nil
}

// Dir returns the indexed directory.
func (m *Models) Dir() string { return m.dir }

// Refresh rescans the directory.
func (m *Models) Refresh() error {
	if m.dir == "" {
		return nil
	}
	models, err := LoadDir(m.dir)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.models = models
	m.mu.Unlock()
	return nil
}

// List returns a copy of the indexed models.
func (m *Models) List() []types.Model {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.Model(nil), m.models...)
}

// Resolve maps a model reference to an absolute file path. ref may be a
// path to an existing file, a path relative to the models directory, or the
// ID or Name of an indexed model.
func (m *Models) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrModelNotFound(ref)
	}
	if p, err := fsutil.AbsPath(ref); err == nil && fsutil.IsRegularFile(p) {
		return p, nil
	}
	if m.dir != "" && !filepath.IsAbs(ref) {
		if p, err := fsutil.AbsPath(filepath.Join(m.dir, ref)); err == nil && fsutil.IsRegularFile(p) {
			return p, nil
		}
	}
	if p, ok := m.lookup(ref); ok {
		return p, nil
	}
	// The file may have been added after the last scan.
	if err := m.Refresh(); err == nil {
		if p, ok := m.lookup(ref); ok {
			return p, nil
		}
	}
	return "", ErrModelNotFound(ref)
}

func (m *Models) lookup(ref string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, mdl := range m.models {
		if mdl.ID == ref || mdl.Name == ref {
			return mdl.Path, true
		}
	}
	return "", false
}
