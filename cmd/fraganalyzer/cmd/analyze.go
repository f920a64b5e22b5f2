package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/aggregate"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/analysis"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/plot"
)

var (
	// Flags for analyze command
	selectRows      []string
	unit            string
	significance    string
	invert          bool
	bubbleScale     float64
	swapAxes        bool
	heatMapLower    float64
	heatMapUpper    float64
	ionFilter       string
	significantOnly bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <kind>",
	Short: "Search, select peptides and build the plot data of one analysis",
	Long: `Run a search, select rows of the result and build the plot data of one analysis.

Kinds:
  intensity-boxplot      b and y ion intensities per residue position
  modification-boxplot   unmodified versus modified intensities (modification search)
  mass-error-boxplot     mass error distribution per fragment ion
  mass-error-scatter     mass error against m/z
  mass-error-bubble      mass error against m/z, sized by intensity
  ion-probability        occurrence of every ion series per position
  heat-map               intensity profile correlation between the selected rows

Examples:
  # Intensity box plot of one peptide
  fraganalyzer analyze intensity-boxplot -i idents.tsv -f fragments.tsv --select PEPTIDEK

  # Mass errors in ppm of the significant ions, as YAML
  fraganalyzer analyze mass-error-boxplot --db results.db --unit ppm --significance 2,3 -o yaml

  # Heat map of every peptide with charge 2, significance colouring
  fraganalyzer analyze heat-map --db results.db --charge 2 --significant-only`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: kindNames(),
	RunE:      runAnalyze,
}

func init() {
	addSearchFlags(analyzeCmd)
	flags := analyzeCmd.Flags()
	flags.StringSliceVar(&selectRows, "select", nil, "Modified sequences to select (default: every row)")
	flags.StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json or yaml")
	flags.StringVar(&unit, "unit", "da", "Mass error unit: da or ppm")
	flags.StringVar(&significance, "significance", "all", "Fragment significance tiers: comma-separated 1-3 or 'all'")
	flags.BoolVar(&invert, "invert", false, "Place y ions at their residue position (length - n) in ion probabilities")
	flags.Float64Var(&bubbleScale, "bubble-scale", 0, "Bubble size multiplier (0 = config value)")
	flags.BoolVar(&swapAxes, "swap", false, "Swap x and y in scatter and bubble plots")
	flags.Float64Var(&heatMapLower, "lower", 0, "Heat map lower bound (default: config value)")
	flags.Float64Var(&heatMapUpper, "upper", 0, "Heat map upper bound (default: config value)")
	flags.StringVar(&ionFilter, "ion-filter", "by", "Heat map ion series: b, y or by")
	flags.BoolVar(&significantOnly, "significant-only", false, "Colour heat map cells by correlation significance")
}

func kindNames() []string {
	var names []string
	for _, k := range plot.Kinds() {
		names = append(names, k.String())
	}
	return names
}

func analysisOptions(cmd *cobra.Command) (analysis.Options, error) {
	opts := analysis.DefaultOptions()
	opts.BubbleScale = cfg.Analysis.BubbleScale
	opts.HeatMapLower = cfg.Analysis.HeatMapLower
	opts.HeatMapUpper = cfg.Analysis.HeatMapUpper

	var err error
	if opts.Unit, err = aggregate.ParseUnit(unit); err != nil {
		return opts, err
	}
	if opts.Significance, err = core.ParseSignificanceSet(significance); err != nil {
		return opts, err
	}
	if opts.IonFilter, err = plot.ParseIonFilter(ionFilter); err != nil {
		return opts, err
	}
	if bubbleScale > 0 {
		opts.BubbleScale = bubbleScale
	}
	if cmd.Flags().Changed("lower") {
		opts.HeatMapLower = heatMapLower
	}
	if cmd.Flags().Changed("upper") {
		opts.HeatMapUpper = heatMapUpper
	}
	opts.Invert = invert
	opts.Swap = swapAxes
	opts.SignificantOnly = significantOnly
	return opts, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	kind, err := plot.ParseKind(args[0])
	if err != nil {
		return err
	}
	params, err := searchParams()
	if err != nil {
		return err
	}
	opts, err := analysisOptions(cmd)
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
		return fmt.Errorf("no hits for %s", params.Criteria.String())
	}

	if len(selectRows) == 0 {
		if _, err := session.SelectAll(); err != nil {
			return err
		}
	} else {
		for _, want := range selectRows {
			matched := 0
			for _, row := range res.Rows {
				if strings.EqualFold(row.ModifiedSequence, strings.TrimSpace(want)) {
					if _, err := session.Select(row); err != nil {
						return err
					}
					matched++
				}
			}
			if matched == 0 {
				fmt.Fprintf(os.Stderr, "Warning: %s is not in the search result\n", want)
			}
		}
	}

	report, err := session.Run(cmd.Context(), kind, opts)
	if err != nil {
		return err
	}

	if outputFormat == "table" {
		fmt.Println(renderReport(report))
		return nil
	}
	return encode(os.Stdout, outputFormat, report)
}
