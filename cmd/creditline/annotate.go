package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/creditline/internal/config"
	"github.com/nao1215/creditline/internal/pipeline"
	"github.com/nao1215/creditline/internal/report"
)

// annotatedSuffix is inserted before the extension of sibling outputs.
const annotatedSuffix = ".annotated"

// NewAnnotateCmd creates the annotate command.
func NewAnnotateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "annotate [html-file...]",
		Short: "Add copyright labels to HTML files",
		Long: `Annotate parses each HTML file, finds its images and wraps them with a
copyright label built from the metadata table.

Images are found in three passes:
- Card images inside .card-image-container
- Gallery images inside .aircraft-gallery
- Every other image, unless it or an ancestor has the no-copyright class

Annotating a file twice does not add a second label.

Examples:
  # Annotate a single page and print it to stdout
  creditline annotate index.html

  # Annotate a site into another directory, four files at a time
  creditline annotate -o dist/ site/*.html

  # Rewrite files in place with labels pinned to the top left
  creditline annotate -i -p top-left site/*.html

  # Use extra metadata and the local catalog
  creditline annotate -d credits.json --catalog -o dist/ site/*.html

  # Write a Markdown summary of the run
  creditline annotate -o dist/ -f markdown -r report.md site/*.html`,
		Args: cobra.ArbitraryArgs,
		RunE: runAnnotateCmd,
	}

	// Output flags
	cmd.Flags().StringP("output-dir", "o", "",
		"Write annotated files to this directory")
	cmd.Flags().BoolP("in-place", "i", false,
		"Overwrite each input with its annotated version")

	// Annotation flags
	cmd.Flags().String("base-url", "",
		"Absolute URL relative image sources resolve against")
	cmd.Flags().Bool("hidden", false,
		"Render labels hidden (toggle them with the copyright-annotation-hidden class)")
	cmd.Flags().IntP("concurrency", "j", config.DefaultConcurrency,
		"Number of files annotated at once")
	addDisplayFlags(cmd)
	addTableFlags(cmd)

	// Report flags
	cmd.Flags().StringP("format", "f", string(config.ReportText),
		"Summary format: text, json or markdown")
	cmd.Flags().StringP("report", "r", "",
		"Write the summary to this file instead of stderr")

	return cmd
}

// runAnnotateCmd executes the annotate command.
func runAnnotateCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildAnnotateConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runAnnotate(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, logger)
}

// buildAnnotateConfig creates a Config from the flags, the positional
// arguments and the configuration file.
func buildAnnotateConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Inputs = args
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.ConfigFilePath = getConfigFlag(cmd)

	var err error

	if cfg.OutputDir, err = cmd.Flags().GetString("output-dir"); err != nil {
		return nil, err
	}
	if cfg.InPlace, err = cmd.Flags().GetBool("in-place"); err != nil {
		return nil, err
	}
	if cfg.BaseURL, err = cmd.Flags().GetString("base-url"); err != nil {
		return nil, err
	}
	if cfg.Hidden, err = cmd.Flags().GetBool("hidden"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = cmd.Flags().GetInt("concurrency"); err != nil {
		return nil, err
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}
	cfg.ReportFormat = config.ReportFormat(format)

	if cfg.ReportFile, err = cmd.Flags().GetString("report"); err != nil {
		return nil, err
	}

	if err := applyTableFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if cfg.Display, err = displayPatch(cmd); err != nil {
		return nil, err
	}

	if err := loadConfigFile(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// runAnnotate annotates cfg.Inputs. A single input without an output
// directory or --in-place is printed to stdout; otherwise files are written
// and stdout stays empty. The summary goes to cfg.ReportFile or stderr.
func runAnnotate(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, logger *slog.Logger) error {
	table, err := buildTable(ctx, cfg, logger)
	if err != nil {
		return err
	}
	base, err := cfg.ParsedBaseURL()
	if err != nil {
		return err
	}

	settings := pipeline.Settings{
		Config:          cfg.DisplayConfig(),
		Table:           table,
		BaseURL:         base,
		Hidden:          cfg.Hidden,
		MaxDocumentSize: pipeline.DefaultMaxDocumentSize,
	}

	logger.Info("starting annotation",
		"inputs", len(cfg.Inputs),
		"records", len(table),
		"position", settings.Config.Position,
		"concurrency", cfg.Concurrency,
	)

	var results []*pipeline.Result
	if toStdout(cfg) {
		res, err := annotateToWriter(ctx, stdout, cfg.Inputs[0], settings, logger)
		if err != nil {
			return err
		}
		results = []*pipeline.Result{res}
	} else {
		jobs, err := buildJobs(cfg)
		if err != nil {
			return err
		}
		processor := pipeline.NewProcessor(
			pipeline.WithSettings(settings),
			pipeline.WithConcurrency(cfg.Concurrency),
			pipeline.WithBatchLogger(logger),
		)
		results, err = processor.ProcessBatch(ctx, jobs)
		if err != nil {
			return err
		}
	}

	if err := writeReport(stderr, cfg, results); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	summary := report.NewSummary(results)
	if summary.HasFailures() {
		return fmt.Errorf("%d of %d documents failed", summary.Failed, summary.Documents)
	}
	return nil
}

// toStdout reports whether the single input is printed instead of written.
func toStdout(cfg *config.Config) bool {
	return len(cfg.Inputs) == 1 && !cfg.InPlace && cfg.OutputDir == ""
}

// annotateToWriter annotates the file at input and writes it to w.
func annotateToWriter(ctx context.Context, w io.Writer, input string, settings pipeline.Settings, logger *slog.Logger) (*pipeline.Result, error) {
	f, err := os.Open(input) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", input, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, settings.MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", input, err)
	}
	if int64(len(data)) > settings.MaxDocumentSize {
		return nil, fmt.Errorf("%w: %s", pipeline.ErrDocumentTooLarge, input)
	}

	res, err := pipeline.AnnotateDocument(ctx, bytes.NewReader(data), w, settings, pipeline.WithLogger(logger))
	if res != nil {
		res.Job = pipeline.Job{Input: input}
	}
	if err != nil {
		return res, fmt.Errorf("failed to annotate %s: %w", input, err)
	}
	return res, nil
}

// buildJobs maps each input to its output path.
func buildJobs(cfg *config.Config) ([]pipeline.Job, error) {
	jobs := make([]pipeline.Job, 0, len(cfg.Inputs))
	seen := make(map[string]string, len(cfg.Inputs))

	for _, input := range cfg.Inputs {
		output := outputPath(cfg, input)
		if prev, ok := seen[output]; ok {
			return nil, fmt.Errorf("%s and %s would both be written to %s", prev, input, output)
		}
		seen[output] = input
		jobs = append(jobs, pipeline.Job{Input: input, Output: output})
	}
	return jobs, nil
}

// outputPath returns where the annotated version of input is written.
func outputPath(cfg *config.Config, input string) string {
	switch {
	case cfg.InPlace:
		return input
	case cfg.OutputDir != "":
		return filepath.Join(cfg.OutputDir, filepath.Base(input))
	default:
		ext := filepath.Ext(input)
		return strings.TrimSuffix(input, ext) + annotatedSuffix + ext
	}
}

// newReportWriter returns the summary writer for format.
func newReportWriter(format config.ReportFormat, w io.Writer, verbose bool) report.Writer {
	switch format {
	case config.ReportJSON:
		return report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case config.ReportMarkdown:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(verbose))
	}
}

// writeReport writes the run summary to cfg.ReportFile, or to fallback when
// no file is set.
func writeReport(fallback io.Writer, cfg *config.Config, results []*pipeline.Result) error {
	w, closeFn, err := createOutput(cfg.ReportFile, fallback)
	if err != nil {
		return err
	}

	if _, err := newReportWriter(cfg.ReportFormat, w, cfg.Verbose).Write(results); err != nil {
		_ = closeFn() //nolint:errcheck // write error takes precedence
		return err
	}
	return closeFn()
}
