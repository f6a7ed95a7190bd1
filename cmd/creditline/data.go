package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/creditline/internal/config"
	"github.com/nao1215/creditline/internal/model"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the metadata table as JSON",
		Long: `Export prints the metadata table annotate would use, as a JSON object keyed
by image identifier. The output can be edited and passed back with --data
or loaded into the catalog with the import command.

Examples:
  # Export the seed table and configuration file records
  creditline export

  # Export everything, including the catalog, to a file
  creditline export --catalog -o credits.json`,
		Args: cobra.NoArgs,
		RunE: runExportCmd,
	}

	cmd.Flags().StringP("output", "o", "",
		"Write the table to this file instead of stdout")
	addTableFlags(cmd)

	return cmd
}

// runExportCmd executes the export command.
func runExportCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.ConfigFilePath = getConfigFlag(cmd)

	if err := applyTableFlags(cmd, cfg); err != nil {
		return err
	}
	if err := loadConfigFile(cfg); err != nil {
		return err
	}

	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Verbose)
	ctx, cancel := signalContext(logger)
	defer cancel()

	table, err := buildTable(ctx, cfg, logger)
	if err != nil {
		return err
	}
	data, err := table.Export()
	if err != nil {
		return fmt.Errorf("failed to export table: %w", err)
	}

	w, closeFn, err := createOutput(outputPath, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		_ = closeFn() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("failed to write table: %w", err)
	}
	return closeFn()
}

// NewImportCmd creates the import command.
func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [json-file...]",
		Short: "Load JSON metadata tables into the catalog",
		Long: `Import reads JSON metadata tables and stores their records in the local
catalog, where annotate --catalog and serve --catalog pick them up.

Files are imported in order; a record in a later file replaces the same
identifier from an earlier one. A file that cannot be parsed is reported
and leaves the catalog unchanged.

Examples:
  creditline import credits.json
  creditline import --catalog-dir ./catalog vendor.json overrides.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportCmd,
	}

	cmd.Flags().String("catalog-dir", "",
		"Catalog directory (default: XDG data directory)")

	return cmd
}

// runImportCmd executes the import command.
func runImportCmd(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	if err := applyCatalogDir(cmd, cfg); err != nil {
		return err
	}

	logger := setupLogger(cfg.Verbose)
	ctx, cancel := signalContext(logger)
	defer cancel()

	catalog, err := openCatalog(cfg, logger)
	if err != nil {
		return err
	}
	defer catalog.Close()

	var failed int
	for _, path := range args {
		data, err := os.ReadFile(path) //nolint:gosec // User-provided data path is intentional
		if err != nil {
			logger.Error("failed to read data file", "file", path, "error", err)
			failed++
			continue
		}
		table, err := model.ParseTable(data)
		if err != nil {
			logger.Error("failed to import copyright data", "file", path, "error", err)
			failed++
			continue
		}
		n, err := catalog.ImportTable(ctx, table, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records from %s\n", n, path)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be imported", failed, len(args))
	}
	return nil
}
