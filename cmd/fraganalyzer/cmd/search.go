package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/analysis"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/filter"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/index"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/search"
)

var (
	// Flags shared by search and analyze
	searchMode    string
	charge        int
	instruments   []string
	nTerminal     string
	cTerminal     string
	modifications []string
	minimumPairs  int
	outputFormat  string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search identifications and list the matching peptides",
	Long: `Search identifications by charge, instrument, terminal groups and
modifications and list the matching peptide groups.

A general search groups identifications by modified sequence. A modification
search groups them by backbone sequence and lists every modified variant that
has at least --pairs unmodified and --pairs modified identifications.

Examples:
  # General search over flat files
  fraganalyzer search -i idents.tsv -f fragments.tsv --charge 2 --instrument QTOF

  # Modification search against the database
  fraganalyzer search --db results.db --mode modification --modification Phospho --pairs 3`,
	RunE: runSearch,
}

func init() {
	addSearchFlags(searchCmd)
	searchCmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json or yaml")
}

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&searchMode, "mode", "general", "Search mode: general or modification")
	cmd.Flags().IntVar(&charge, "charge", 0, "Precursor charge (0 = any)")
	cmd.Flags().StringSliceVar(&instruments, "instrument", nil, "Instrument name, up to 3 ('Select All' = any)")
	cmd.Flags().StringVar(&nTerminal, "nterm", "", "N-terminal group (empty = any)")
	cmd.Flags().StringVar(&cTerminal, "cterm", "", "C-terminal group (empty = any)")
	cmd.Flags().StringSliceVar(&modifications, "modification", nil, "Modification tag, up to 3 (empty = any)")
	cmd.Flags().IntVar(&minimumPairs, "pairs", 0, "Minimum unmodified and modified identifications per row (0 = config value)")
}

func searchParams() (search.Params, error) {
	mode, err := index.ParseMode(searchMode)
	if err != nil {
		return search.Params{}, err
	}
	pairs := minimumPairs
	if pairs == 0 {
		pairs = cfg.Analysis.MinimumPairs
	}
	params := search.Params{
		Mode: mode,
		Criteria: filter.Criteria{
			Charge:        charge,
			Instruments:   instruments,
			NTerminal:     nTerminal,
			CTerminal:     cTerminal,
			Modifications: modifications,
		},
		MinimumPairs: pairs,
	}
	return params, params.Validate()
}

// runSearchWith opens the identification stream and runs one search in session.
func runSearchWith(ctx context.Context, b *backend, session *analysis.Session, params search.Params) (*search.Result, error) {
	src, err := b.open(ctx)
	if err != nil {
		return nil, err
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}

	res, err := session.Search(ctx, src, params, progressPrinter("Scanned", "identifications"))
	if err != nil {
		return nil, err
	}
	if res.Malformed > 0 {
		fmt.Fprintf(os.Stderr, "Warning: skipped %d malformed identifications\n", res.Malformed)
	}
	return res, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	params, err := searchParams()
	if err != nil {
		return err
	}

	b, err := openBackend(cmd.Context())
	if err != nil {
		return err
	}
	defer b.Close()

	session, err := newSession(b)
	if err != nil {
		return err
	}
	res, err := runSearchWith(cmd.Context(), b, session, params)
	if err != nil {
		return err
	}

	if res.NoHits {
		fmt.Fprintf(os.Stderr, "No hits for %s\n", params.Criteria.String())
		return nil
	}

	switch outputFormat {
	case "table":
		fmt.Println(renderRows(res))
		return nil
	default:
		return encode(os.Stdout, outputFormat, res.Rows)
	}
}

// progressPrinter reports every 1000th record on stderr.
func progressPrinter(verb, noun string) func(current, total int) {
	return func(current, total int) {
		if current%1000 != 0 {
			return
		}
		if total > 0 {
			fmt.Fprintf(os.Stderr, "%s %d/%d %s...\n", verb, current, total, noun)
			return
		}
		fmt.Fprintf(os.Stderr, "%s %d %s...\n", verb, current, noun)
	}
}
