// Package cli defines the cobra command tree for the shelf CLI.
package cli

import (
	"context"
	"fmt"

	"github.com/scbrown/shelf/internal/catalog"
	"github.com/scbrown/shelf/internal/config"
	"github.com/scbrown/shelf/internal/logging"
	"github.com/scbrown/shelf/internal/metrics"
	"github.com/scbrown/shelf/internal/recommend"
	"github.com/scbrown/shelf/internal/store"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	catalogPath string
	dbPath      string
	jsonOutput  bool
	logLevel    string
	logFormat   string

	// settings is the effective configuration: file, then SHELF_* environment,
	// then flags. Resolved before every command runs.
	settings = &config.Config{}
)

// rootCmd is the top-level shelf command.
var rootCmd = &cobra.Command{
	Use:   "shelf",
	Short: "shelf - find catalog products similar to the one you searched for",
	Long: `shelf recommends catalog products that resemble a search term.

The first product whose name contains the search term becomes the reference
item. Every product is scored by TF-IDF cosine similarity of its tags against
the reference, and the best matches are returned. When nothing matches, the
first products of the catalog are returned instead.

The catalog is read from a CSV file (--catalog or catalog_path), from a
remote shelf server (store_mode=remote), or from the SQLite database at
~/.shelf/shelf.db. All output commands support --json.`,
	Example: `  # Recommend products similar to a search term
  shelf --catalog clean_data.csv recommend lipstick

  # Import a CSV into the local database, then query it
  shelf catalog import clean_data.csv
  shelf recommend "nail polish" --top 5

  # Serve the JSON API
  shelf serve --addr :7480`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveSettings(cmd)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", config.Path(), "path to the config file")
	pf.StringVar(&catalogPath, "catalog", "", "path to a product catalog CSV (overrides the database)")
	pf.StringVar(&dbPath, "db", "", "path to SQLite database (default ~/.shelf/shelf.db)")
	pf.BoolVar(&jsonOutput, "json", false, "output in JSON format")
	pf.StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error, disabled")
	pf.StringVar(&logFormat, "log-format", "", "log format: auto, json, console")
}

// resolveSettings merges the config file, a .env file, SHELF_* variables and
// flags into settings, then configures logging.
func resolveSettings(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return fmt.Errorf("environment: %w", err)
	}

	flags := cmd.Flags()
	overrides := []struct {
		flag, key, value string
	}{
		{"catalog", "catalog_path", catalogPath},
		{"db", "db_path", dbPath},
		{"log-level", "log_level", logLevel},
		{"log-format", "log_format", logFormat},
	}
	for _, o := range overrides {
		if !flags.Changed(o.flag) {
			continue
		}
		if err := cfg.Set(o.key, o.value); err != nil {
			return fmt.Errorf("--%s: %w", o.flag, err)
		}
	}
	if cfg.DefaultFormat == "json" && !flags.Changed("json") {
		jsonOutput = true
	}

	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})
	settings = cfg
	return nil
}

// openStore returns a store.Store based on the current configuration.
// When store_mode is "remote", it returns a RemoteStore pointing at remote_url.
// Otherwise it opens the local SQLite database.
func openStore() (store.Store, error) {
	if settings.StoreMode == "remote" {
		if settings.RemoteURL == "" {
			return nil, fmt.Errorf("store_mode is \"remote\" but remote_url is not set; use: shelf config remote_url <url>")
		}
		return store.NewRemote(settings.RemoteURL), nil
	}
	return store.New(settings.ResolvedDBPath())
}

// loadCatalog reads the configured catalog. A CSV path takes precedence over
// the store. The returned store is nil for CSV catalogs and must otherwise be
// closed by the caller. Unreadable sources yield an empty catalog.
func loadCatalog(ctx context.Context) (*catalog.Catalog, store.Store, error) {
	if settings.CatalogPath != "" {
		src := catalog.CSVSource{Path: settings.CatalogPath}
		return catalog.Load(ctx, src, logging.Logger()), nil, nil
	}
	s, err := openStore()
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return catalog.Load(ctx, s, logging.Logger()), s, nil
}

// newRecommender builds a Recommender over c using the configured tuning.
func newRecommender(c *catalog.Catalog, m *metrics.Metrics) *recommend.Recommender {
	cfg := recommend.DefaultConfig()
	if settings.TopN > 0 {
		cfg.DefaultTopN = settings.TopN
	}
	if settings.MaxFeatures > 0 {
		cfg.MaxFeatures = settings.MaxFeatures
	}
	cfg.CacheTTL = settings.CacheTTLDuration()
	return recommend.New(c, cfg,
		recommend.WithMetrics(m),
		recommend.WithLogger(logging.Logger()),
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
