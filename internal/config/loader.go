package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/creditline/internal/model"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".creditline"

// xdgConfigFile is the file name looked up in the XDG config directory.
const xdgConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .creditline configuration file.
type File struct {
	// Display overrides the default display configuration. Unknown keys are
	// ignored.
	Display model.ConfigPatch `yaml:"display,omitempty"`

	// Data lists JSON metadata tables to import. Relative paths are
	// resolved against the directory of the config file.
	Data []string `yaml:"data,omitempty"`

	// Records are inline copyright records keyed by image identifier.
	Records model.Table `yaml:"records,omitempty"`

	// Catalog is the directory holding the SQLite catalog.
	Catalog string `yaml:"catalog,omitempty"`

	// BaseURL resolves relative image sources.
	BaseURL string `yaml:"baseURL,omitempty"`
}

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i, p := range cf.Data {
		if !filepath.IsAbs(p) {
			cf.Data[i] = filepath.Join(dir, p)
		}
	}

	return &cf, nil
}

// Apply copies the file settings into c. Values already set on c, which come
// from flags, take precedence: display fields set by flags win, data files
// from the file are imported before those given on the command line, and
// the catalog and base URL are only taken when c has none.
func (cf *File) Apply(c *Config) {
	c.Display = cf.Display.Combine(c.Display)
	c.DataFiles = append(append([]string(nil), cf.Data...), c.DataFiles...)

	if len(cf.Records) > 0 {
		if c.Records == nil {
			c.Records = model.Table{}
		}
		for id, rec := range cf.Records {
			if _, ok := c.Records[id]; !ok {
				c.Records[id] = rec
			}
		}
	}
	if cf.Catalog != "" && (c.CatalogDir == "" || c.CatalogDir == XDGDataDir()) {
		c.CatalogDir = cf.Catalog
	}
	if c.BaseURL == "" {
		c.BaseURL = cf.BaseURL
	}
}

// FindConfigFile searches for the configuration file in the following order:
//  1. If configPath is specified, use it directly
//  2. Look for .creditline in the current directory
//  3. Look for .creditline in the user's home directory
//  4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), xdgConfigFile))

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
