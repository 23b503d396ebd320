// Package telemetry sends opt-in anonymous usage counts: how many rows a
// flush wrote, whether regions were registered, whether region events were
// delivered. Task names, item text and coordinates are never sent.
package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// ConfigFileName is the consent file inside the data directory.
const ConfigFileName = "telemetry.json"

// Config is the stored consent state.
type Config struct {
	Enabled      bool   `json:"enabled"`
	ConsentAsked bool   `json:"consent_asked"`
	AnonymousID  string `json:"anonymous_id"`
}

// Store reads and writes Config under a data directory.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore returns a consent store for dir.
func NewStore(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

// Path returns the consent file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, ConfigFileName)
}

// Load reads the consent file. A missing file yields a disabled config with
// a fresh anonymous id.
func (s *Store) Load() (*Config, error) {
	cfg := &Config{}
	data, err := afero.ReadFile(s.fs, s.Path())
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read telemetry config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse telemetry config: %w", err)
		}
	}
	if cfg.AnonymousID == "" {
		cfg.AnonymousID = uuid.New().String()
	}
	return cfg, nil
}

// Save writes cfg with owner-only permissions.
func (s *Store) Save(cfg *Config) error {
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.Path(), data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Enable turns telemetry on and records that consent was given.
func (c *Config) Enable() {
	c.Enabled = true
	c.ConsentAsked = true
}

// Disable turns telemetry off and records the choice.
func (c *Config) Disable() {
	c.Enabled = false
	c.ConsentAsked = true
}

// NeedsConsent reports whether the user was never asked.
func (c *Config) NeedsConsent() bool {
	return !c.ConsentAsked
}

// IsEnabled reports whether events are sent.
func (c *Config) IsEnabled() bool {
	return c.Enabled
}
