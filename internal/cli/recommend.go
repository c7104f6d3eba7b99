package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/scbrown/shelf/internal/model"
	"github.com/spf13/cobra"
)

var (
	recommendTop     int
	recommendExplain bool
)

// recommendCmd prints products similar to the first catalog product matching a query.
var recommendCmd = &cobra.Command{
	Use:   "recommend <query...>",
	Short: "Recommend products similar to a search term",
	Long: `Recommend finds the first catalog product whose name contains the search
term (case-insensitive) and lists the products whose tags are most similar to
it. The matched product itself is never listed.

When no product name contains the term, the first products of the catalog are
listed instead, and a close product name is suggested on stderr when one
exists. Use --explain to show the reference product, the mode and the
similarity scores.`,
	Example: `  shelf recommend lipstick
  shelf recommend "nail polish" --top 5
  shelf recommend mascara --explain
  shelf recommend mascara --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, s, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		if s != nil {
			defer s.Close()
		}

		rec := newRecommender(c, nil)
		res := rec.Explain(cmd.Context(), strings.Join(args, " "), recommendTop)

		if res.DidYouMean != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "No product name contains %q. Did you mean %q?\n", res.Query, res.DidYouMean)
		}

		w := cmd.OutOrStdout()
		if jsonOutput {
			if recommendExplain {
				return writeIndentedJSON(w, res)
			}
			return writeIndentedJSON(w, res.Products)
		}
		if recommendExplain {
			writeExplainHeader(w, res)
		}
		return writeRecommendTable(w, res)
	},
}

func init() {
	recommendCmd.Flags().IntVar(&recommendTop, "top", 0, "number of products to recommend (default top_n, or 10)")
	recommendCmd.Flags().BoolVar(&recommendExplain, "explain", false, "show the reference product, mode and scores")
	rootCmd.AddCommand(recommendCmd)
}

// writeIndentedJSON encodes v as indented JSON.
func writeIndentedJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeExplainHeader prints how a result was produced.
func writeExplainHeader(w io.Writer, res model.Result) {
	fmt.Fprintf(w, "Query:      %s\n", res.Query)
	fmt.Fprintf(w, "Mode:       %s\n", res.Mode)
	if res.Reference != nil {
		fmt.Fprintf(w, "Reference:  #%d %s\n", res.Reference.Position, res.Reference.Name)
	}
	if res.Cached {
		fmt.Fprintln(w, "Cached:     yes")
	}
	if res.Error != "" {
		fmt.Fprintf(w, "Error:      %s\n", res.Error)
	}
	fmt.Fprintln(w)
}

// writeRecommendTable writes a result as an aligned text table. The SCORE
// column only appears for similarity-ranked results.
func writeRecommendTable(w io.Writer, res model.Result) error {
	if len(res.Products) == 0 {
		fmt.Fprintln(w, "No products in catalog.")
		return nil
	}
	scored := len(res.Scores) == len(res.Products)
	headers := []string{"RANK", "NAME", "BRAND"}
	if scored {
		headers = append(headers, "SCORE")
	}
	tbl := NewTable(w, headers...).Fit(1).AlignRight(0, 3)
	for i, p := range res.Products {
		row := []string{strconv.Itoa(i + 1), p.Name, p.Brand}
		if scored {
			row = append(row, formatScore(res.Scores[i]))
		}
		tbl.Row(row...)
	}
	return tbl.Flush()
}
