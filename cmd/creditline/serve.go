package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/creditline/internal/config"
	"github.com/nao1215/creditline/internal/database"
	crlog "github.com/nao1215/creditline/internal/log"
	"github.com/nao1215/creditline/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a directory with copyright labels injected",
		Long: `Serve serves the files under --root over HTTP. HTML pages are annotated on
every request; other files are served unchanged, so relative image paths
keep working.

The metadata table and display configuration can be changed while the
server runs through a JSON API:

  GET    /api/healthz              liveness and record count
  GET    /api/copyright            export the metadata table
  POST   /api/copyright            import a JSON table
  GET    /api/copyright/{id}       record shown for an identifier
  PUT    /api/copyright/{id}       add or update a record
  DELETE /api/copyright/{id}       remove a record
  GET    /api/config               display configuration
  PATCH  /api/config               update the display configuration

With --catalog, records written through the API are also stored in the
local catalog.

Examples:
  creditline serve --root site/
  creditline serve --root site/ --listen :9000 --catalog -p top-left`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("listen", "l", config.DefaultListen,
		"Address to listen on")
	cmd.Flags().String("root", config.DefaultRoot,
		"Directory to serve")
	cmd.Flags().String("base-url", "",
		"Absolute URL relative image sources resolve against (default: the page URL)")
	cmd.Flags().Bool("hidden", false,
		"Render labels hidden")
	cmd.Flags().StringSlice("allowed-origin", nil,
		"Origin allowed to call the API from a browser (repeatable; default: localhost)")
	cmd.Flags().Bool("json-log", false,
		"Write logs as JSON")
	addDisplayFlags(cmd)
	addTableFlags(cmd)

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildServeConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	jsonLog, err := cmd.Flags().GetBool("json-log")
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Verbose)
	if jsonLog {
		logger = crlog.NewJSONLogger(os.Stderr, cfg.Verbose)
	}
	slog.SetDefault(logger)

	origins, err := cmd.Flags().GetStringSlice("allowed-origin")
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runServe(ctx, cfg, origins, logger)
}

// buildServeConfig creates a Config from the flags and the configuration
// file.
func buildServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.ConfigFilePath = getConfigFlag(cmd)

	var err error

	if cfg.Listen, err = cmd.Flags().GetString("listen"); err != nil {
		return nil, err
	}
	if cfg.Root, err = cmd.Flags().GetString("root"); err != nil {
		return nil, err
	}
	if cfg.BaseURL, err = cmd.Flags().GetString("base-url"); err != nil {
		return nil, err
	}
	if cfg.Hidden, err = cmd.Flags().GetBool("hidden"); err != nil {
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

// runServe builds the shared state and serves until ctx is cancelled.
func runServe(ctx context.Context, cfg *config.Config, origins []string, logger *slog.Logger) error {
	table, err := buildTable(ctx, cfg, logger)
	if err != nil {
		if ctx.Err() != nil {
			logger.Info("shutdown requested before the server started")
			return nil
		}
		return err
	}

	state := server.NewState(table, cfg.DisplayConfig())
	state.SetHidden(cfg.Hidden)
	base, err := cfg.ParsedBaseURL()
	if err != nil {
		return err
	}
	if base != nil {
		state.SetBaseURL(base)
	}

	opts := []server.Option{server.WithLogger(logger)}
	if len(origins) > 0 {
		opts = append(opts, server.WithAllowedOrigins(origins...))
	}

	var catalog *database.Catalog
	if cfg.UseCatalog {
		catalog, err = openCatalog(cfg, logger)
		if err != nil {
			return err
		}
		defer catalog.Close()
		opts = append(opts, server.WithCatalog(catalog))
	}

	srv := server.New(cfg.Root, state, opts...)
	fmt.Fprintf(os.Stderr, "Serving %s on http://%s (%d records)\n", cfg.Root, cfg.Listen, len(table))
	return srv.ListenAndServe(ctx, cfg.Listen)
}
