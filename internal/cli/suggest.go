package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/scbrown/shelf/internal/analyze"
	"github.com/spf13/cobra"
)

var (
	suggestThreshold float64
	suggestTopN      int
)

// suggestCmd finds catalog product names close to a possibly misspelled term.
var suggestCmd = &cobra.Command{
	Use:   "suggest <term...>",
	Short: "Find catalog product names similar to a term",
	Long: `Suggest ranks catalog product names by string similarity to the given term.
Each name scores the better of its whole-name similarity and its best single
word, so "maskara" finds "Lash Princess Mascara". Use it to find a search term
that recommend will match.`,
	Example: `  shelf suggest maskara
  shelf suggest lipstik --threshold 0.5 --top 3
  shelf suggest lipstik --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		term := strings.Join(args, " ")
		c, s, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		if s != nil {
			defer s.Close()
		}

		threshold := suggestThreshold
		if threshold == 0 {
			threshold = analyze.DefaultThreshold
		}
		suggestions := analyze.SuggestN(term, c.Names(), suggestTopN, threshold)

		w := cmd.OutOrStdout()
		if jsonOutput {
			return writeSuggestJSON(w, term, suggestions)
		}
		return writeSuggestTable(w, term, suggestions)
	},
}

func init() {
	suggestCmd.Flags().Float64Var(&suggestThreshold, "threshold", 0, "minimum similarity score (default 0.6)")
	suggestCmd.Flags().IntVar(&suggestTopN, "top", analyze.DefaultTopN, "maximum number of suggestions")
	rootCmd.AddCommand(suggestCmd)
}

// suggestOutput is the JSON structure for suggest results.
type suggestOutput struct {
	Query       string               `json:"query"`
	Suggestions []analyze.Suggestion `json:"suggestions"`
}

// writeSuggestJSON writes suggestions as JSON.
func writeSuggestJSON(w io.Writer, query string, suggestions []analyze.Suggestion) error {
	if suggestions == nil {
		suggestions = []analyze.Suggestion{}
	}
	return writeIndentedJSON(w, suggestOutput{Query: query, Suggestions: suggestions})
}

// writeSuggestTable writes suggestions as an aligned text table.
func writeSuggestTable(w io.Writer, query string, suggestions []analyze.Suggestion) error {
	if len(suggestions) == 0 {
		fmt.Fprintf(w, "No suggestions found for %q\n", query)
		return nil
	}
	tbl := NewTable(w, "RANK", "NAME", "SCORE").Fit(1).AlignRight(0, 2)
	for i, s := range suggestions {
		tbl.Row(strconv.Itoa(i+1), s.Name, formatScore(s.Score))
	}
	return tbl.Flush()
}
