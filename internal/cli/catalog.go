package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/scbrown/shelf/internal/catalog"
	"github.com/scbrown/shelf/internal/logging"
	"github.com/scbrown/shelf/internal/model"
	"github.com/scbrown/shelf/internal/store"
	"github.com/spf13/cobra"
)

var (
	catalogListLimit int
	catalogTrendTop  int
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and import the product catalog",
	Long: `Commands for the product catalog that recommendations are drawn from.

The catalog is read from --catalog (or catalog_path) when set, otherwise from
the configured store. Use "shelf catalog import" to load a CSV file into the
local SQLite database.`,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog products in load order",
	Example: `  shelf catalog list
  shelf catalog list --limit 20
  shelf catalog list --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, s, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		if s != nil {
			defer s.Close()
		}
		limit := catalogListLimit
		if limit <= 0 {
			limit = c.Len()
		}
		return writeProducts(cmd.OutOrStdout(), c.Head(limit))
	},
}

var catalogTrendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "List the highest rated products",
	Long: `Trending lists products by rating, then review count, then catalog order.`,
	Example: `  shelf catalog trending
  shelf catalog trending --top 5 --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, s, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		if s != nil {
			defer s.Close()
		}
		return writeProducts(cmd.OutOrStdout(), c.Trending(catalogTrendTop))
	},
}

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show summary statistics about the catalog",
	Long: `Display product, tag, brand and rating totals for the catalog. For the
SQLite and remote stores this includes the most recent import.`,
	Example: `  shelf catalog stats
  shelf catalog stats --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var st store.Stats
		if settings.CatalogPath != "" {
			c, _, err := loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			st = store.ComputeStats(c.Products())
		} else {
			s, err := openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer s.Close()
			st, err = s.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("get stats: %w", err)
			}
		}

		w := cmd.OutOrStdout()
		if jsonOutput {
			return writeIndentedJSON(w, st)
		}
		writeStatsText(w, st)
		return nil
	},
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Replace the local catalog with the products in a CSV file",
	Long: `Import reads a product CSV (or .tsv) file and replaces every product in the
local SQLite database with its rows, in file order. The file needs a Name
column and a Tags column; Brand, ImageURL, Rating and ReviewCount are read
when present.`,
	Example: `  shelf catalog import clean_data.csv
  shelf catalog import products.tsv --db /tmp/shelf.db`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		products, err := catalog.ReadCSVFile(path)
		if err != nil {
			return err
		}

		s, err := store.New(settings.ResolvedDBPath())
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		src := path
		if abs, err := filepath.Abs(path); err == nil {
			src = abs
		}
		n, err := s.ReplaceProducts(cmd.Context(), src, products)
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}
		logging.Ctx(cmd.Context()).Info().Str("source", src).Int("products", n).Msg("catalog imported")

		if jsonOutput {
			return writeIndentedJSON(cmd.OutOrStdout(), map[string]any{"source": src, "products": n})
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Imported %s products from %s\n", humanize.Comma(int64(n)), path)
		return nil
	},
}

func init() {
	catalogListCmd.Flags().IntVar(&catalogListLimit, "limit", 0, "maximum number of products (default all)")
	catalogTrendingCmd.Flags().IntVar(&catalogTrendTop, "top", 10, "number of products")
	catalogCmd.AddCommand(catalogListCmd, catalogTrendingCmd, catalogStatsCmd, catalogImportCmd)
	rootCmd.AddCommand(catalogCmd)
}

// writeProducts prints products as JSON or as a table.
func writeProducts(w io.Writer, products []model.Product) error {
	if jsonOutput {
		if products == nil {
			products = []model.Product{}
		}
		return writeIndentedJSON(w, products)
	}
	if len(products) == 0 {
		fmt.Fprintln(w, "No products in catalog.")
		return nil
	}
	tbl := NewTable(w, "POS", "NAME", "BRAND", "RATING", "REVIEWS").Fit(1).AlignRight(0, 3, 4)
	for _, p := range products {
		tbl.Row(
			strconv.Itoa(p.Position),
			p.Name,
			p.Brand,
			strconv.FormatFloat(p.Rating, 'f', 1, 64),
			humanize.Comma(int64(p.ReviewCount)),
		)
	}
	return tbl.Flush()
}

// writeStatsText prints catalog statistics for humans.
func writeStatsText(w io.Writer, st store.Stats) {
	color := isTTY(w)

	fmt.Fprintf(w, "Total products:     %s\n", humanize.Comma(int64(st.TotalProducts)))
	if st.TotalProducts == 0 {
		return
	}
	fmt.Fprintf(w, "Tagged products:    %s\n", humanize.Comma(int64(st.TaggedProducts)))
	fmt.Fprintf(w, "Brands:             %s\n", humanize.Comma(int64(st.Brands)))
	fmt.Fprintf(w, "Average rating:     %.2f\n", st.AvgRating)

	if len(st.TopBrands) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, bold("Top brands:", color))
		for _, b := range st.TopBrands {
			fmt.Fprintf(w, "  %-20s %d\n", b.Name, b.Count)
		}
	}

	if st.LastImport != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Last import:        %s (%s products, %s)\n",
			st.LastImport.Source,
			humanize.Comma(int64(st.LastImport.Products)),
			humanize.RelTime(st.LastImport.ImportedAt, time.Now(), "ago", "from now"))
	}
}
