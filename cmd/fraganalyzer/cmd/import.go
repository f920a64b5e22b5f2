package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/reader/fragments"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/reader/identifications"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/reader/peaks"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/store"
)

var replaceData bool

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import flat files into the database",
	Long: `Import identification, fragment ion and peak list flat files into a SQLite
or PostgreSQL database. Identifications and spectra already present are kept;
use --replace to clear the database first.

Examples:
  # Import into a SQLite file
  fraganalyzer import -i idents.tsv -f fragments.tsv -p peaks.txt --db results.db

  # Import into PostgreSQL configured in fraganalyzer.yaml
  fraganalyzer import -c fraganalyzer.yaml -i idents.tsv -f fragments.tsv`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&replaceData, "replace", false, "Delete existing rows before importing")
}

func runImport(cmd *cobra.Command, args []string) error {
	if identificationsFile == "" && fragmentsFile == "" && peaksFile == "" {
		return fmt.Errorf("nothing to import, specify --identifications, --fragments or --peaks")
	}
	ctx := cmd.Context()

	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if replaceData {
		if err := db.Reset(ctx); err != nil {
			return fmt.Errorf("failed to clear database: %w", err)
		}
	}

	writer, err := db.NewWriter(ctx, mods)
	if err != nil {
		return err
	}

	skipped, err := importAll(ctx, writer)
	if err != nil {
		writer.Rollback()
		return err
	}
	counts, err := writer.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Identifications: %d\n", counts.Identifications)
	fmt.Printf("Fragment ions: %d\n", counts.FragmentIons)
	fmt.Printf("Spectra: %d\n", counts.Spectra)
	if skipped > 0 {
		fmt.Printf("Skipped: %d records (validation errors)\n", skipped)
	}
	fmt.Printf("Output: %s\n", cfg.Database.Driver)
	return nil
}

func importAll(ctx context.Context, w *store.Writer) (skipped int, err error) {
	steps := []struct {
		path string
		run  func(context.Context, *store.Writer, string) (int, error)
	}{
		{identificationsFile, importIdentifications},
		{fragmentsFile, importFragments},
		{peaksFile, importPeaks},
	}
	for _, step := range steps {
		if step.path == "" {
			continue
		}
		n, err := step.run(ctx, w, step.path)
		if err != nil {
			return skipped, err
		}
		skipped += n
	}
	return skipped, nil
}

func importIdentifications(ctx context.Context, w *store.Writer, path string) (int, error) {
	reader, err := identifications.Open(path)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	fmt.Printf("Importing identifications from %s...\n", path)
	count, skipped := 0, 0
	for reader.Next() {
		rec, err := reader.Record()
		if err != nil {
			if !errors.Is(err, core.ErrMalformedRecord) {
				return skipped, err
			}
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			skipped++
			continue
		}
		if err := w.WriteIdentification(ctx, rec); err != nil {
			return skipped, err
		}
		count++
		if count%1000 == 0 {
			fmt.Printf("Processed %d identifications...\n", count)
		}
	}
	if err := reader.Err(); err != nil {
		return skipped, fmt.Errorf("error reading %s: %w", path, err)
	}
	return skipped, nil
}

func importFragments(ctx context.Context, w *store.Writer, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, core.NewSourceError("fragment ions", err)
	}
	defer f.Close()

	fmt.Printf("Importing fragment ions from %s...\n", path)
	reader := fragments.NewReader(f)
	count, skipped := 0, 0
	for reader.Next() {
		ion, err := reader.Ion()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			skipped++
			continue
		}
		if err := w.WriteFragmentIon(ctx, &ion); err != nil {
			return skipped, err
		}
		count++
		if count%10000 == 0 {
			fmt.Printf("Processed %d fragment ions...\n", count)
		}
	}
	if err := reader.Err(); err != nil {
		return skipped, fmt.Errorf("error reading %s: %w", path, err)
	}
	return skipped, nil
}

func importPeaks(ctx context.Context, w *store.Writer, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, core.NewSourceError("spectra", err)
	}
	defer f.Close()

	fmt.Printf("Importing spectra from %s...\n", path)
	reader := peaks.NewReader(f)
	count, skipped := 0, 0
	for reader.Next() {
		spec := reader.Spectrum()
		if err := spec.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: invalid spectrum %d: %v\n", spec.ID, err)
			skipped++
			continue
		}
		if err := w.WriteSpectrum(ctx, spec); err != nil {
			return skipped, err
		}
		count++
		if count%1000 == 0 {
			fmt.Printf("Processed %d spectra...\n", count)
		}
	}
	if err := reader.Err(); err != nil {
		return skipped, fmt.Errorf("error reading %s: %w", path, err)
	}
	return skipped, nil
}
