package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/creditline/internal/config"
	"github.com/nao1215/creditline/internal/database"
	crlog "github.com/nao1215/creditline/internal/log"
	"github.com/nao1215/creditline/internal/model"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getConfigFlag retrieves the config file path, which is empty when the
// command runs without the root command.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return ""
	}
	return path
}

// setupLogger creates the stderr logger for a command.
func setupLogger(verbose bool) *slog.Logger {
	return crlog.NewLogger(os.Stderr, verbose)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// loadConfigFile applies the configuration file to cfg.
// If the user named a file explicitly, a missing file is an error; otherwise
// a missing file leaves cfg unchanged.
func loadConfigFile(cfg *config.Config) error {
	explicit := cfg.ConfigFilePath != ""
	path := config.FindConfigFile(cfg.ConfigFilePath)

	if path == "" {
		if explicit {
			return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
		}
		return nil
	}

	cf, err := config.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	cf.Apply(cfg)
	return nil
}

// addDisplayFlags registers the display configuration flags.
func addDisplayFlags(cmd *cobra.Command) {
	defaults := model.DefaultDisplayConfig()

	cmd.Flags().StringP("position", "p", string(defaults.Position),
		"Label corner: bottom-right, bottom-left, top-right or top-left")
	cmd.Flags().Float64("opacity", defaults.Opacity, "Label opacity")
	cmd.Flags().Bool("show-source", defaults.ShowSource, "Show the source line")
	cmd.Flags().Bool("show-copyright", defaults.ShowCopyright, "Show the copyright and licence lines")
	cmd.Flags().Bool("show-on-hover", defaults.ShowOnHover, "Hide labels until the image is hovered")
	cmd.Flags().String("font-size", defaults.FontSize, "Label font size (CSS length)")
	cmd.Flags().String("bg-color", defaults.BgColor, "Label background (CSS color)")
}

// displayPatch returns the display flags the user set explicitly, so that
// unset flags do not override the configuration file.
func displayPatch(cmd *cobra.Command) (model.ConfigPatch, error) {
	var patch model.ConfigPatch
	flags := cmd.Flags()

	if flags.Changed("position") {
		v, err := flags.GetString("position")
		if err != nil {
			return patch, err
		}
		patch.Position = model.Ptr(model.Position(v))
	}
	if flags.Changed("opacity") {
		v, err := flags.GetFloat64("opacity")
		if err != nil {
			return patch, err
		}
		patch.Opacity = model.Ptr(v)
	}
	for name, dst := range map[string]**bool{
		"show-source":    &patch.ShowSource,
		"show-copyright": &patch.ShowCopyright,
		"show-on-hover":  &patch.ShowOnHover,
	} {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetBool(name)
		if err != nil {
			return patch, err
		}
		*dst = model.Ptr(v)
	}
	for name, dst := range map[string]**string{
		"font-size": &patch.FontSize,
		"bg-color":  &patch.BgColor,
	} {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return patch, err
		}
		*dst = model.Ptr(v)
	}

	return patch, nil
}

// addTableFlags registers the flags that select metadata sources.
func addTableFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("data", "d", nil,
		"JSON metadata table to import (repeatable; later files win)")
	cmd.Flags().Bool("catalog", false,
		"Merge records from the local catalog")
	cmd.Flags().String("catalog-dir", "",
		"Catalog directory (default: XDG data directory)")
}

// applyTableFlags copies the metadata source flags into cfg.
func applyTableFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error

	if cfg.DataFiles, err = cmd.Flags().GetStringSlice("data"); err != nil {
		return err
	}
	if cfg.UseCatalog, err = cmd.Flags().GetBool("catalog"); err != nil {
		return err
	}
	return applyCatalogDir(cmd, cfg)
}

// applyCatalogDir copies --catalog-dir into cfg when set.
func applyCatalogDir(cmd *cobra.Command, cfg *config.Config) error {
	dir, err := cmd.Flags().GetString("catalog-dir")
	if err != nil {
		return err
	}
	if dir != "" {
		cfg.CatalogDir = dir
	}
	return nil
}

// openCatalog opens the catalog in cfg.CatalogDir.
func openCatalog(cfg *config.Config, logger *slog.Logger) (*database.Catalog, error) {
	catalog, err := database.Open(cfg.CatalogDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	logger.Debug("catalog opened", "path", catalog.Path())
	return catalog, nil
}

// buildTable assembles the metadata table: the seed table, then inline
// records from the configuration file, then the catalog when enabled, then
// each data file in order.
func buildTable(ctx context.Context, cfg *config.Config, logger *slog.Logger) (model.Table, error) {
	table := model.SeedTable()
	table.Merge(cfg.Records)

	if cfg.UseCatalog {
		catalog, err := openCatalog(cfg, logger)
		if err != nil {
			return nil, err
		}
		defer catalog.Close()

		records, err := catalog.Table(ctx)
		if err != nil {
			return nil, err
		}
		table.Merge(records)
		logger.Info("catalog records loaded", "records", len(records))
	}

	for _, path := range cfg.DataFiles {
		data, err := os.ReadFile(path) //nolint:gosec // User-provided data path is intentional
		if err != nil {
			return nil, fmt.Errorf("failed to read data file: %w", err)
		}
		records, err := model.ParseTable(data)
		if err != nil {
			return nil, fmt.Errorf("failed to import %s: %w", path, err)
		}
		table.Merge(records)
		logger.Info("copyright data imported", "file", path, "records", len(records))
	}

	return table, nil
}

// createOutput opens path for writing, creating parent directories.
// An empty path returns fallback.
func createOutput(path string, fallback io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return fallback, func() error { return nil }, nil
	}
	if err := ensureParentDir(path); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// ensureParentDir creates the directory holding path.
func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}
