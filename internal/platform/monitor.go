package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/josephgoksu/geotask/internal/geo"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// RegionsFileName is the registration file inside the data directory.
const RegionsFileName = "regions.yaml"

// registration is the on-disk form of the monitored set.
type registration struct {
	Task    string       `yaml:"task"`
	Regions []geo.Region `yaml:"regions"`
}

// FileMonitor persists the monitored set to a YAML file so the background
// watcher, which may run in another process, sees the same registration.
type FileMonitor struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

// NewFileMonitor creates a monitor writing to path on fs.
func NewFileMonitor(fs afero.Fs, path string) *FileMonitor {
	return &FileMonitor{fs: fs, path: path}
}

// Path returns the registration file location.
func (m *FileMonitor) Path() string { return m.path }

// StartMonitoring writes the full set, replacing the previous file through a
// temp file and rename so a reader never sees a partial registration.
func (m *FileMonitor) StartMonitoring(_ context.Context, taskName string, regions []geo.Region) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if regions == nil {
		regions = []geo.Region{}
	}
	data, err := yaml.Marshal(registration{Task: taskName, Regions: regions})
	if err != nil {
		return fmt.Errorf("encode regions: %w", err)
	}

	if err := m.fs.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("create regions dir: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := afero.WriteFile(m.fs, tmp, data, 0644); err != nil {
		return fmt.Errorf("write regions: %w", err)
	}
	if err := m.fs.Rename(tmp, m.path); err != nil {
		_ = m.fs.Remove(tmp)
		return fmt.Errorf("replace regions: %w", err)
	}
	return nil
}

// Registered reads the current registration.
func (m *FileMonitor) Registered(_ context.Context) (string, []geo.Region, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := afero.ReadFile(m.fs, m.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("read regions: %w", err)
	}
	var reg registration
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return "", nil, fmt.Errorf("parse %s: %w", m.path, err)
	}
	return reg.Task, reg.Regions, nil
}

var _ Monitor = (*FileMonitor)(nil)

func containsRegion(regions []geo.Region, id string) bool {
	for _, r := range regions {
		if r.Identifier == id {
			return true
		}
	}
	return false
}
