package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nao1215/creditline/internal/config"
	"github.com/nao1215/creditline/internal/database"
	"github.com/nao1215/creditline/internal/exifmeta"
	"github.com/nao1215/creditline/internal/model"
)

// timeLayout formats catalog timestamps in listings.
const timeLayout = "2006-01-02 15:04:05"

// NewCatalogCmd creates the catalog command and its subcommands.
func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the local copyright catalog",
		Long: `The catalog is a SQLite database of copyright records kept in the XDG data
directory (~/.local/share/creditline on Linux). Records in the catalog are
used by annotate and serve when --catalog is given.`,
	}

	cmd.PersistentFlags().String("catalog-dir", "",
		"Catalog directory (default: XDG data directory)")

	cmd.AddCommand(newCatalogListCmd())
	cmd.AddCommand(newCatalogAddCmd())
	cmd.AddCommand(newCatalogRemoveCmd())
	cmd.AddCommand(newCatalogExifCmd())
	cmd.AddCommand(newCatalogHistoryCmd())

	return cmd
}

// withCatalog opens the catalog selected by the command flags and calls fn.
func withCatalog(cmd *cobra.Command, fn func(cmd *cobra.Command, c *database.Catalog) error) error {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	if err := applyCatalogDir(cmd, cfg); err != nil {
		return err
	}

	catalog, err := openCatalog(cfg, setupLogger(cfg.Verbose))
	if err != nil {
		return err
	}
	defer catalog.Close()

	return fn(cmd, catalog)
}

func newCatalogListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCatalog(cmd, runCatalogList)
		},
	}
}

// runCatalogList prints every record as a table.
func runCatalogList(cmd *cobra.Command, c *database.Catalog) error {
	entries, err := c.ListRecords(cmd.Context())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "The catalog is empty.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tCOPYRIGHT\tYEAR\tLICENSE\tUPDATED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID,
			dashIfEmpty(e.Record.Source),
			dashIfEmpty(e.Record.Copyright),
			dashIfEmpty(e.Record.Year),
			dashIfEmpty(e.Record.License),
			e.UpdatedAt.Local().Format(timeLayout),
		)
	}
	return w.Flush()
}

func newCatalogAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Add or update a catalog record",
		Long: `Add stores a record for an image identifier. When the identifier already
exists, only the fields given as flags are changed.

Examples:
  creditline catalog add b2-001 --source "Northrop" --copyright "Northrop Grumman" --year 1989
  creditline catalog add b2-001 --license "CC BY 4.0"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(cmd *cobra.Command, c *database.Catalog) error {
				return runCatalogAdd(cmd, c, args[0])
			})
		},
	}

	cmd.Flags().String("source", "", "Where the image came from")
	cmd.Flags().String("copyright", "", "Copyright holder")
	cmd.Flags().String("license", "", "Licence")
	cmd.Flags().String("year", "", "Year")

	return cmd
}

// runCatalogAdd merges the flags into the record for id.
func runCatalogAdd(cmd *cobra.Command, c *database.Catalog, id string) error {
	var patch model.RecordPatch
	for name, dst := range map[string]**string{
		"source":    &patch.Source,
		"copyright": &patch.Copyright,
		"license":   &patch.License,
		"year":      &patch.Year,
	} {
		if !cmd.Flags().Changed(name) {
			continue
		}
		v, err := cmd.Flags().GetString(name)
		if err != nil {
			return err
		}
		*dst = model.Ptr(v)
	}

	var rec model.CopyrightRecord
	existing, err := c.GetRecord(cmd.Context(), id)
	if err != nil {
		return err
	}
	if existing != nil {
		rec = existing.Record
	}
	rec = rec.Merge(patch)

	if err := c.UpsertRecord(cmd.Context(), id, rec); err != nil {
		return err
	}

	verb := "Added"
	if existing != nil {
		verb = "Updated"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s %s\n", verb, id, rec.Copyright, rec.Year)
	return nil
}

func newCatalogRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove"},
		Short:   "Remove catalog records",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(cmd *cobra.Command, c *database.Catalog) error {
				return runCatalogRemove(cmd, c, args)
			})
		},
	}
}

// runCatalogRemove deletes each id. Unknown identifiers are an error after
// the others have been removed.
func runCatalogRemove(cmd *cobra.Command, c *database.Catalog, ids []string) error {
	var missing []string
	for _, id := range ids {
		ok, err := c.DeleteRecord(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !ok {
			missing = append(missing, id)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
	}
	if len(missing) > 0 {
		return fmt.Errorf("no catalog record for %v", missing)
	}
	return nil
}

func newCatalogExifCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exif <image-or-dir>...",
		Short: "Harvest records from image EXIF tags",
		Long: `Exif reads the Artist, Copyright, ImageDescription and DateTimeOriginal tags
of JPEG images and stores one record per image, keyed by the identifier
derived from the file name (f22-001.jpg becomes f22-001).

Directories are searched recursively for .jpg and .jpeg files. Images
without attribution tags are skipped.

Examples:
  creditline catalog exif photos/
  creditline catalog exif photos/f22-001.jpg photos/su57-001.jpg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(cmd *cobra.Command, c *database.Catalog) error {
				return runCatalogExif(cmd, c, args)
			})
		},
	}
}

// runCatalogExif harvests EXIF records from args into the catalog.
func runCatalogExif(cmd *cobra.Command, c *database.Catalog, args []string) error {
	paths, err := collectImages(args)
	if err != nil {
		return err
	}

	table, errs := exifmeta.Harvest(paths)
	for _, err := range errs {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
	}
	if len(table) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No attribution found in %d images\n", len(paths))
		return nil
	}

	n, err := c.ImportTable(cmd.Context(), table, "exif")
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Harvested %d records from %d images\n", n, len(paths))
	return nil
}

// collectImages expands directories in args to the JPEG files they hold.
func collectImages(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isJPEG(p) {
				paths = append(paths, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", arg, err)
		}
	}
	return paths, nil
}

// isJPEG reports whether p has a JPEG extension.
func isJPEG(p string) bool {
	switch filepath.Ext(p) {
	case ".jpg", ".jpeg", ".JPG", ".JPEG":
		return true
	default:
		return false
	}
}

func newCatalogHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List catalog imports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCatalog(cmd, runCatalogHistory)
		},
	}
}

// runCatalogHistory prints the import log, newest first.
func runCatalogHistory(cmd *cobra.Command, c *database.Catalog) error {
	imports, err := c.ListImports(cmd.Context())
	if err != nil {
		return err
	}
	if len(imports) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No imports yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tORIGIN\tRECORDS\tIMPORTED")
	for _, r := range imports {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", r.ID, r.Origin, r.Count, r.Timestamp.Local().Format(timeLayout))
	}
	return w.Flush()
}

// dashIfEmpty returns "-" for an empty field.
func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
