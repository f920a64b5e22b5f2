package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/jmoiron/sqlx"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
)

type identificationRow struct {
	ID               int64           `db:"identification_id"`
	SpectrumID       sql.NullInt64   `db:"spectrum_id"`
	Sequence         string          `db:"sequence"`
	ModifiedSequence string          `db:"modified_sequence"`
	Charge           int             `db:"charge"`
	Instrument       string          `db:"instrument_name"`
	NTerminal        string          `db:"n_terminal"`
	CTerminal        string          `db:"c_terminal"`
	TotalIntensity   sql.NullFloat64 `db:"total_intensity"`
}

func (r *identificationRow) record() (*core.IdentificationRecord, error) {
	var spectrumID *int64
	if r.SpectrumID.Valid {
		id := r.SpectrumID.Int64
		spectrumID = &id
	}
	var total *float64
	if r.TotalIntensity.Valid {
		v := r.TotalIntensity.Float64
		total = &v
	}
	return core.NewIdentification(r.ID, spectrumID, r.Sequence, r.ModifiedSequence,
		r.Charge, r.Instrument, r.NTerminal, r.CTerminal, total)
}

type fragmentRow struct {
	IdentificationID int64           `db:"identification_id"`
	Type             string          `db:"ion_type"`
	Name             string          `db:"ion_name"`
	Number           int             `db:"ion_number"`
	Charge           int             `db:"charge"`
	NeutralLoss      string          `db:"neutral_loss"`
	MZ               float64         `db:"mz"`
	Intensity        float64         `db:"intensity"`
	MassError        sql.NullFloat64 `db:"mass_error"`
	Significance     int             `db:"significance"`
}

// Cursor streams identifications in id order. It satisfies search.Source.
type Cursor struct {
	rows    *sqlx.Rows
	total   int
	current identificationRow
	scanErr error
	err     error
}

// Identifications opens a cursor over every stored identification.
func (s *Store) Identifications(ctx context.Context) (*Cursor, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM IdentificationTable"); err != nil {
		return nil, core.NewSourceError("identifications", err)
	}

	rows, err := s.db.QueryxContext(ctx, `
		SELECT identification_id, spectrum_id, sequence, modified_sequence, charge,
			instrument_name, n_terminal, c_terminal, total_intensity
		FROM IdentificationTable
		ORDER BY identification_id
	`)
	if err != nil {
		return nil, core.NewSourceError("identifications", err)
	}
	return &Cursor{rows: rows, total: total}, nil
}

// Next advances to the next row.
func (c *Cursor) Next() bool {
	if c.err != nil {
		return false
	}
	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			c.err = err
		}
		c.rows.Close()
		return false
	}
	c.current = identificationRow{}
	c.scanErr = c.rows.StructScan(&c.current)
	return true
}

// Record converts the current row. Rows that fail validation are reported as
// malformed.
func (c *Cursor) Record() (*core.IdentificationRecord, error) {
	if c.scanErr != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedRecord, c.scanErr)
	}
	rec, err := c.current.record()
	if err != nil {
		return nil, fmt.Errorf("%w: identification %d: %v", core.ErrMalformedRecord, c.current.ID, err)
	}
	return rec, nil
}

// Total returns the row count taken when the cursor was opened.
func (c *Cursor) Total() int {
	return c.total
}

// Err returns the error that stopped iteration.
func (c *Cursor) Err() error {
	if c.err == nil {
		return nil
	}
	return core.NewSourceError("identifications", c.err)
}

// Close releases the cursor.
func (c *Cursor) Close() error {
	return c.rows.Close()
}

// FetchFragmentIons returns the ions of one identification in insertion order,
// restricted to types when given.
func (s *Store) FetchFragmentIons(ctx context.Context, id int64, types []core.IonType) ([]core.FragmentIonRecord, error) {
	query := `
		SELECT identification_id, ion_type, ion_name, ion_number, charge,
			neutral_loss, mz, intensity, mass_error, significance
		FROM FragmentIonTable
		WHERE identification_id = ?`
	args := []interface{}{id}

	if len(types) > 0 {
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = string(t)
		}
		var err error
		query, args, err = sqlx.In(query+" AND ion_type IN (?)", id, names)
		if err != nil {
			return nil, fmt.Errorf("failed to build fragment ion query: %w", err)
		}
	}
	query = s.db.Rebind(query + " ORDER BY fragment_ion_id")

	var rows []fragmentRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, core.NewSourceError("fragment ions", err)
	}

	ions := make([]core.FragmentIonRecord, 0, len(rows))
	for _, r := range rows {
		ionType, err := core.ParseIonType(r.Type)
		if err != nil {
			s.logger.Warn("skipping stored fragment ion", "identification", id, "error", err)
			continue
		}
		massError := math.NaN()
		if r.MassError.Valid {
			massError = r.MassError.Float64
		}
		ions = append(ions, core.FragmentIonRecord{
			IdentificationID: r.IdentificationID,
			Type:             ionType,
			Name:             r.Name,
			Number:           r.Number,
			Charge:           r.Charge,
			NeutralLoss:      r.NeutralLoss,
			MZ:               r.MZ,
			Intensity:        r.Intensity,
			MassError:        massError,
			Significance:     core.Significance(r.Significance),
		})
	}
	return ions, nil
}

// FetchTotalIntensity returns the summed peak intensity of a spectrum. The
// stored total is used when present, otherwise the intensity blob is summed.
// A missing spectrum yields core.ErrNotFound.
func (s *Store) FetchTotalIntensity(ctx context.Context, spectrumID int64) (float64, error) {
	var row struct {
		Total         sql.NullFloat64 `db:"total_intensity"`
		BlobIntensity []byte          `db:"blob_intensity"`
	}
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind("SELECT total_intensity, blob_intensity FROM SpectrumTable WHERE spectrum_id = ?"), spectrumID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("spectrum %d: %w", spectrumID, core.ErrNotFound)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, core.NewSourceError("spectra", err)
	}

	if row.Total.Valid {
		return row.Total.Float64, nil
	}
	values, err := decodeFloat64s(row.BlobIntensity)
	if err != nil {
		return 0, fmt.Errorf("spectrum %d: %w: %v", spectrumID, core.ErrMalformedRecord, err)
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum, nil
}
