package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for creditline.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "creditline",
		Short: "Overlay copyright labels onto the images of HTML pages",
		Long: `creditline finds the images of HTML pages, derives an identifier for each
one and overlays a label with its source, copyright holder, year and licence.

Metadata comes from a built-in seed table, the configuration file, JSON
data files, EXIF tags harvested into the local catalog, or the HTTP API of
the serve command.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .creditline in current or home directory)")

	cmd.AddCommand(NewAnnotateCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewImportCmd())
	cmd.AddCommand(NewCatalogCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
