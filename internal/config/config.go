// internal/config/config.go
//
// This package handles configuration and the .shipdeck directory structure.
// Every workspace that uses shipdeck gets a .shipdeck/ folder created in its
// root, holding the client config and logs. Domain documents live in a
// separate documents directory the config points at.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ShipdeckDir is the name of the directory we create in each workspace
	ShipdeckDir = ".shipdeck"

	configFileName = "config.yaml"

	defaultTimeoutSeconds = 30
	defaultTrackingBase   = "https://track.eshipz.com/track"
	defaultDocumentsPath  = "documents"
)

const defaultConfigYAML = `# shipdeck workspace configuration
version: 1

backend:
  base_url: https://app.eshipz.com
  timeout_seconds: 30
  tracking_base: https://track.eshipz.com/track

# Directory holding the shipment and delivery-note documents, relative to
# the workspace root unless absolute.
documents:
  path: documents
`

// BackendConfig points the client at the carrier-integration API.
type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
	TrackingBase   string `yaml:"tracking_base,omitempty"`
}

// DocumentsConfig locates the document store.
type DocumentsConfig struct {
	Path string `yaml:"path"`
}

// ProjectConfig models .shipdeck/config.yaml.
type ProjectConfig struct {
	Version   int             `yaml:"version"`
	Backend   BackendConfig   `yaml:"backend"`
	Documents DocumentsConfig `yaml:"documents"`
}

// Config holds the runtime configuration for shipdeck.
type Config struct {
	// ProjectDir is the directory where the user ran `shipdeck` from
	ProjectDir string

	// ShipdeckProjectDir is ProjectDir/.shipdeck
	ShipdeckProjectDir string

	Project ProjectConfig
}

// InitShipdeckDir creates the .shipdeck directory structure in the given
// workspace directory and seeds a default config when none exists.
//
// Structure created:
// .shipdeck/
// ├── config.yaml
// └── logs/
func InitShipdeckDir(projectDir string) error {
	shipdeckDir := filepath.Join(projectDir, ShipdeckDir)
	if err := os.MkdirAll(filepath.Join(shipdeckDir, "logs"), 0o755); err != nil {
		return fmt.Errorf("config: init %s: %w", ShipdeckDir, err)
	}
	configPath := filepath.Join(shipdeckDir, configFileName)
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(configPath, []byte(defaultConfigYAML), 0o644); err != nil {
			return fmt.Errorf("config: write default config: %w", err)
		}
	}
	return nil
}

// NewConfig loads the workspace configuration, applying defaults for
// anything the file leaves out.
func NewConfig(projectDir string) (*Config, error) {
	c := &Config{
		ProjectDir:         projectDir,
		ShipdeckProjectDir: filepath.Join(projectDir, ShipdeckDir),
		Project:            defaultProjectConfig(),
	}
	if err := c.loadProjectConfig(); err != nil {
		return nil, err
	}
	return c, nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Backend: BackendConfig{
			TimeoutSeconds: defaultTimeoutSeconds,
			TrackingBase:   defaultTrackingBase,
		},
		Documents: DocumentsConfig{Path: defaultDocumentsPath},
	}
}

// loadProjectConfig overlays .shipdeck/config.yaml onto the defaults and
// validates the result. A missing file keeps the defaults.
func (c *Config) loadProjectConfig() error {
	path := filepath.Join(c.ShipdeckProjectDir, configFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c.validate()
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &c.Project); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if c.Project.Version == 0 {
		c.Project.Version = 1
	}
	if c.Project.Backend.TimeoutSeconds <= 0 {
		c.Project.Backend.TimeoutSeconds = defaultTimeoutSeconds
	}
	if strings.TrimSpace(c.Project.Backend.TrackingBase) == "" {
		c.Project.Backend.TrackingBase = defaultTrackingBase
	}
	if strings.TrimSpace(c.Project.Documents.Path) == "" {
		c.Project.Documents.Path = defaultDocumentsPath
	}
	return c.validate()
}

func (c *Config) validate() error {
	if c.Project.Version != 1 {
		return fmt.Errorf("config: unsupported config version %d", c.Project.Version)
	}
	return nil
}

// BackendBaseURL returns the carrier API base URL; empty means unconfigured.
func (c *Config) BackendBaseURL() string {
	return strings.TrimSpace(c.Project.Backend.BaseURL)
}

// BackendTimeout returns the per-call timeout for backend requests.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Project.Backend.TimeoutSeconds) * time.Second
}

// TrackingURL composes the public tracking page URL for a consignment.
func (c *Config) TrackingURL(awbNumber, slug string) string {
	return fmt.Sprintf("%s?awb=%s&slug=%s", c.Project.Backend.TrackingBase, awbNumber, slug)
}

// DocumentsPath returns the document store directory, resolved against the
// workspace root when relative.
func (c *Config) DocumentsPath() string {
	path := c.Project.Documents.Path
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.ProjectDir, path)
}

// LogPath returns the journey log location inside .shipdeck.
func (c *Config) LogPath() string {
	return filepath.Join(c.ShipdeckProjectDir, "logs", "journey.log")
}
