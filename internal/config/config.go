package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/nao1215/creditline/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "creditline"

	// DefaultConcurrency is the number of documents annotated at once.
	// Annotation is CPU bound, so a small pool saturates most machines.
	DefaultConcurrency = 4

	// DefaultListen is the address the server binds. Loopback only, since
	// the API can rewrite the shared metadata table.
	DefaultListen = "127.0.0.1:8080"

	// DefaultRoot is the directory the server serves pages from.
	DefaultRoot = "."
)

// ReportFormat selects the run summary writer.
type ReportFormat string

// Report formats.
const (
	ReportText     ReportFormat = "text"
	ReportJSON     ReportFormat = "json"
	ReportMarkdown ReportFormat = "markdown"
)

// IsValid reports whether f is a known format.
func (f ReportFormat) IsValid() bool {
	switch f {
	case ReportText, ReportJSON, ReportMarkdown:
		return true
	default:
		return false
	}
}

// Config holds all configuration options for creditline.
// It is populated from CLI flags and the config file and passed through the
// application explicitly rather than through global state.
type Config struct {
	// Inputs are the HTML files to annotate.
	Inputs []string

	// OutputDir receives the annotated files under their base names.
	// When empty and InPlace is false, a single input is written to stdout
	// and multiple inputs get a ".annotated.html" sibling.
	OutputDir string

	// InPlace overwrites each input with its annotated version.
	InPlace bool

	// DataFiles are JSON metadata tables imported before annotating, in
	// order. Later files override earlier ones.
	DataFiles []string

	// Records are inline records from the config file. They are merged over
	// the seed table before DataFiles are imported.
	Records model.Table

	// CatalogDir is the directory holding the SQLite catalog.
	// Defaults to the XDG data directory.
	CatalogDir string

	// UseCatalog merges the catalog into the metadata table before
	// annotating.
	UseCatalog bool

	// Display overrides the default display configuration.
	Display model.ConfigPatch

	// BaseURL resolves relative image sources before identifiers are
	// derived. Empty means "/".
	BaseURL string

	// Hidden renders labels with the hidden class set.
	Hidden bool

	// ReportFormat selects the summary writer.
	ReportFormat ReportFormat

	// ReportFile is the output file path for the summary.
	// When empty, the summary goes to stderr.
	ReportFile string

	// Concurrency is the number of documents annotated at once.
	Concurrency int

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// Listen is the server address in "host:port" format.
	Listen string

	// Root is the directory the server serves pages from.
	Root string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		CatalogDir:   XDGDataDir(),
		ReportFormat: ReportText,
		Concurrency:  DefaultConcurrency,
		Listen:       DefaultListen,
		Root:         DefaultRoot,
	}
}

// XDGDataDir returns the XDG data directory for creditline.
// On Linux: ~/.local/share/creditline
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for creditline.
// On Linux: ~/.config/creditline
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DisplayConfig returns the display configuration the annotators start
// with: the defaults with Display applied.
func (c *Config) DisplayConfig() model.DisplayConfig {
	return model.DefaultDisplayConfig().Merge(c.Display)
}

// ParsedBaseURL returns BaseURL parsed, or nil when it is empty.
func (c *Config) ParsedBaseURL() (*url.URL, error) {
	if c.BaseURL == "" {
		return nil, nil
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
	}
	return u, nil
}

// validateCommon checks the options shared by every command.
func (c *Config) validateCommon() error {
	if c.Display.Position != nil && !c.Display.Position.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPosition, *c.Display.Position)
	}
	if _, err := c.ParsedBaseURL(); err != nil {
		return err
	}
	return nil
}

// Validate checks the configuration of the annotate command and returns
// the first problem found.
//
// Display values other than the position are not validated; they are
// written to the stylesheet as given.
func (c *Config) Validate() error {
	if len(c.Inputs) == 0 {
		return ErrNoInput
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if !c.ReportFormat.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownReportFormat, c.ReportFormat)
	}
	if c.InPlace && c.OutputDir != "" {
		return ErrConflictingOutput
	}
	return c.validateCommon()
}

// ValidateServer checks the configuration of the serve command.
func (c *Config) ValidateServer() error {
	if c.Listen == "" {
		return ErrNoListenAddress
	}
	info, err := os.Stat(c.Root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrInvalidRoot, c.Root)
	}
	return c.validateCommon()
}
