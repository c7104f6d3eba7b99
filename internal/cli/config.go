package cli

import (
	"fmt"
	"io"

	"github.com/scbrown/shelf/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Show or modify configuration",
	Long: `View or change shelf configuration stored in ~/.shelf/config.toml
(or the file given by --config).

With no arguments, shows all configuration settings.
With one argument, shows the value of that key.
With two arguments, sets the key to the given value. An empty value clears it.

Settings:
  catalog_path    Product catalog CSV to read instead of the database
  db_path         Path to the SQLite database
  top_n           Default number of recommendations
  max_features    Vocabulary size of the tag vectorizer
  cache_ttl       How long answers are memoized, e.g. "5m"; "0" disables
  listen_addr     Address for shelf serve
  log_level       trace, debug, info, warn, error or disabled
  log_format      auto, json or console
  default_format  Default output format: "table" or "json"
  store_mode      "local" (SQLite) or "remote" (a shelf serve instance)
  remote_url      Base URL of the remote shelf server

SHELF_* environment variables (also read from a .env file) override the file;
flags override both.`,
	Example: `  shelf config
  shelf config db_path
  shelf config catalog_path ~/data/clean_data.csv
  shelf config top_n 8
  shelf config store_mode remote
  shelf config remote_url http://catalog-host:7480`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Edit the file itself, not the environment-merged settings.
		cfg, err := config.LoadFrom(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		w := cmd.OutOrStdout()
		switch len(args) {
		case 0:
			return showConfig(w, cfg)
		case 1:
			return getConfig(w, cfg, args[0])
		default:
			return setConfig(w, cfg, args[0], args[1])
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func showConfig(w io.Writer, cfg *config.Config) error {
	if jsonOutput {
		return writeIndentedJSON(w, cfg)
	}

	tbl := NewTable(w, "KEY", "VALUE")
	for _, key := range config.ValidKeys() {
		val, _ := cfg.Get(key)
		if val == "" {
			val = "(not set)"
		}
		tbl.Row(key, val)
	}
	return tbl.Flush()
}

func getConfig(w io.Writer, cfg *config.Config, key string) error {
	val, err := cfg.Get(key)
	if err != nil {
		return err
	}
	if val == "" {
		return nil
	}
	fmt.Fprintln(w, val)
	return nil
}

func setConfig(w io.Writer, cfg *config.Config, key, value string) error {
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.SaveTo(configPath); err != nil {
		return err
	}
	got, _ := cfg.Get(key)
	fmt.Fprintf(w, "%s = %s\n", key, got)
	return nil
}
