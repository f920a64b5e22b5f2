// Package cmd provides CLI command implementations
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/config"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/logger"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/metrics"
)

var (
	// Global flags
	configFile  string
	envFile     string
	logLevel    string
	logFormat   string
	metricsAddr string
	modsCSV     string

	// Data source flags
	identificationsFile string
	fragmentsFile       string
	peaksFile           string
	dbDriver            string
	dbPath              string

	// Aggregation flags
	workers   int
	normalize bool
)

// cfg, mods and appMetrics are populated before any sub-command runs.
var (
	cfg             *config.Config
	mods            *core.ModDatabase
	appMetrics      *metrics.Metrics
	shutdownMetrics func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "fraganalyzer",
	Short: "FragAnalyzer - peptide fragmentation analysis tool",
	Long: `FragAnalyzer searches peptide identifications by instrument, charge, terminal
chemistry and modification state, and turns the fragment ions of the selected
identifications into plot data.

Analyses:
- Residue intensity box plots (b and y ions per residue position)
- Unmodified versus modified intensity box plots
- Fragment mass error box, scatter and bubble plots
- Fragment ion occurrence probabilities
- Correlation heat maps between selected peptides

Identifications and fragment ions are read from flat files or from a SQLite or
PostgreSQL database filled with the import command.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdownMetrics == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return shutdownMetrics(ctx)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(modsCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "Path to YAML config file")
	flags.StringVar(&envFile, "env-file", ".env", "Environment file loaded before the config")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "", "Log format: text or json")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	flags.StringVar(&modsCSV, "mods", "", "CSV file with custom modification masses (name,mass)")

	flags.StringVarP(&identificationsFile, "identifications", "i", "", "Identification flat file (database is used when empty)")
	flags.StringVarP(&fragmentsFile, "fragments", "f", "", "Fragment ion flat file")
	flags.StringVarP(&peaksFile, "peaks", "p", "", "Peak list flat file used for total intensities")
	flags.StringVar(&dbDriver, "db-driver", "", "Database driver: sqlite3 or postgres")
	flags.StringVar(&dbPath, "db", "", "SQLite database file")

	flags.IntVar(&workers, "workers", 0, "Number of concurrent fragment fetches (0 = config value)")
	flags.BoolVar(&normalize, "normalize", false, "Divide fragment intensities by the spectrum total intensity")
}

// setup loads .env, the config file and the modification table, then applies
// flag overrides and configures logging and metrics.
func setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load %s: %v\n", envFile, err)
	}

	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	mods, err = loadMods(cfg.Analysis.ModsFile)
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		appMetrics = metrics.New()
		if cfg.Metrics.Addr != "" {
			shutdownMetrics = appMetrics.StartServer(cfg.Metrics.Addr)
		}
	}
	return nil
}

func applyFlagOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = logFormat
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = metricsAddr
	}
	if flags.Changed("mods") {
		cfg.Analysis.ModsFile = modsCSV
	}
	if flags.Changed("db-driver") {
		cfg.Database.Driver = dbDriver
	}
	if flags.Changed("db") {
		cfg.Database.Path = dbPath
	}
	if workers > 0 {
		cfg.Analysis.Workers = workers
	}
	if flags.Changed("normalize") {
		cfg.Analysis.Normalize = normalize
	}
}

// loadMods returns the built-in modification table extended by path, or by
// unimod_custom.csv in the working directory when path is empty.
func loadMods(path string) (*core.ModDatabase, error) {
	db := core.DefaultModDatabase()

	explicit := path != ""
	if !explicit {
		path = "unimod_custom.csv"
	}
	f, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return db, nil
		}
		return nil, fmt.Errorf("failed to open modification file: %w", err)
	}
	defer f.Close()

	if err := db.LoadFromCSV(f); err != nil {
		if !explicit {
			fmt.Fprintf(os.Stderr, "Warning: failed to load %s: %v\n", path, err)
			return core.DefaultModDatabase(), nil
		}
		return nil, fmt.Errorf("failed to load modification file %s: %w", path, err)
	}
	return db, nil
}
