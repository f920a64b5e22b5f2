package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/jmoiron/sqlx"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
)

// ImportCounts reports how many rows were written per table.
type ImportCounts struct {
	Identifications int `json:"identifications" yaml:"identifications"`
	FragmentIons    int `json:"fragmentIons" yaml:"fragmentIons"`
	Spectra         int `json:"spectra" yaml:"spectra"`
}

// Writer imports records inside a single transaction. Identifications and
// spectra that already exist are left untouched.
type Writer struct {
	tx   *sqlx.Tx
	mods *core.ModDatabase

	identificationStmt *sqlx.Stmt
	fragmentStmt       *sqlx.Stmt
	spectrumStmt       *sqlx.Stmt

	counts ImportCounts
}

// NewWriter begins an import transaction. mods resolves modification masses
// for the stored neutral mass and defaults to the built-in table.
func (s *Store) NewWriter(ctx context.Context, mods *core.ModDatabase) (*Writer, error) {
	if mods == nil {
		mods = core.DefaultModDatabase()
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, core.NewSourceError("database", err)
	}

	w := &Writer{tx: tx, mods: mods}
	if err := w.prepareStatements(ctx); err != nil {
		tx.Rollback()
		return nil, err
	}
	return w, nil
}

func (w *Writer) prepareStatements(ctx context.Context) error {
	var err error

	w.identificationStmt, err = w.tx.PreparexContext(ctx, w.tx.Rebind(`
		INSERT INTO IdentificationTable (
			identification_id, spectrum_id, sequence, modified_sequence, charge,
			instrument_name, n_terminal, c_terminal, total_intensity, neutral_mass,
			precursor_mz
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (identification_id) DO NOTHING
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare identification statement: %w", err)
	}

	w.fragmentStmt, err = w.tx.PreparexContext(ctx, w.tx.Rebind(`
		INSERT INTO FragmentIonTable (
			identification_id, ion_type, ion_name, ion_number, charge,
			neutral_loss, mz, intensity, mass_error, significance
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare fragment ion statement: %w", err)
	}

	w.spectrumStmt, err = w.tx.PreparexContext(ctx, w.tx.Rebind(`
		INSERT INTO SpectrumTable (
			spectrum_id, num_peaks, total_intensity, blob_mass, blob_intensity
		) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (spectrum_id) DO NOTHING
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare spectrum statement: %w", err)
	}

	return nil
}

// WriteIdentification stores one identification together with its neutral
// mass and precursor m/z. Both are left NULL when a modification has no known
// mass.
func (w *Writer) WriteIdentification(ctx context.Context, rec *core.IdentificationRecord) error {
	var neutralMass, precursorMZ interface{}
	if mods, err := w.mods.Modifications(rec.Parsed()); err == nil {
		neutralMass = core.RoundFloat(core.CalculateNeutralMass(rec.Sequence, mods), 4)
		if rec.Charge > 0 {
			precursorMZ = core.RoundFloat(core.CalculatePeptideMass(rec.Sequence, rec.Charge, mods), 4)
		}
	}

	var spectrumID interface{}
	if rec.SpectrumFileID != nil {
		spectrumID = *rec.SpectrumFileID
	}
	var total interface{}
	if rec.TotalIntensity != nil {
		total = *rec.TotalIntensity
	}

	_, err := w.identificationStmt.ExecContext(ctx,
		rec.ID,
		spectrumID,
		rec.Sequence,
		rec.ModifiedSequence,
		rec.Charge,
		rec.Instrument,
		rec.NTerminal,
		rec.CTerminal,
		total,
		neutralMass,
		precursorMZ,
	)
	if err != nil {
		return fmt.Errorf("failed to insert identification %d: %w", rec.ID, err)
	}
	w.counts.Identifications++
	return nil
}

// WriteFragmentIon stores one fragment ion. A missing mass error is stored as NULL.
func (w *Writer) WriteFragmentIon(ctx context.Context, ion *core.FragmentIonRecord) error {
	var massError interface{}
	if ion.HasMassError() {
		massError = ion.MassError
	}

	_, err := w.fragmentStmt.ExecContext(ctx,
		ion.IdentificationID,
		string(ion.Type),
		ion.Name,
		ion.Number,
		ion.Charge,
		ion.NeutralLoss,
		ion.MZ,
		ion.Intensity,
		massError,
		int(ion.Significance),
	)
	if err != nil {
		return fmt.Errorf("failed to insert fragment ion of identification %d: %w", ion.IdentificationID, err)
	}
	w.counts.FragmentIons++
	return nil
}

// WriteSpectrum stores the peak list as little-endian float64 blobs and the
// precomputed total intensity.
func (w *Writer) WriteSpectrum(ctx context.Context, spec *core.Spectrum) error {
	if !spec.ArePeaksSorted() {
		spec.SortPeaks()
	}

	_, err := w.spectrumStmt.ExecContext(ctx,
		spec.ID,
		len(spec.Peaks),
		spec.TotalIntensity(),
		encodePeaksFloat64(spec.Peaks, true),
		encodePeaksFloat64(spec.Peaks, false),
	)
	if err != nil {
		return fmt.Errorf("failed to insert spectrum %d: %w", spec.ID, err)
	}
	w.counts.Spectra++
	return nil
}

// Commit closes the statements and commits the transaction.
func (w *Writer) Commit() (ImportCounts, error) {
	w.closeStatements()
	if err := w.tx.Commit(); err != nil {
		return ImportCounts{}, core.NewSourceError("database", err)
	}
	return w.counts, nil
}

// Rollback discards everything written so far.
func (w *Writer) Rollback() error {
	w.closeStatements()
	return w.tx.Rollback()
}

func (w *Writer) closeStatements() {
	for _, stmt := range []*sqlx.Stmt{w.identificationStmt, w.fragmentStmt, w.spectrumStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
}

// encodePeaksFloat64 encodes peak data as little-endian float64 blob
func encodePeaksFloat64(peaks []core.Peak, useMZ bool) []byte {
	buf := make([]byte, len(peaks)*8)
	for i, peak := range peaks {
		value := peak.Intensity
		if useMZ {
			value = peak.MZ
		}
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(value))
	}
	return buf
}

func decodeFloat64s(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 8", len(blob))
	}
	values := make([]float64, len(blob)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return values, nil
}
