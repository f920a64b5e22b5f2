// Package core provides the data model shared by the search engine, the fragment
// aggregator and the collaborators that load identification and fragment ion records.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

// IdentificationRecord is one parsed spectrum-to-peptide match. Records are
// immutable after construction.
type IdentificationRecord struct {
	ID               int64
	SpectrumFileID   *int64 // nil when the source did not link a spectrum
	Sequence         string // unmodified residues
	ModifiedSequence string // residues plus modification and terminal annotations
	Charge           int
	Instrument       string
	NTerminal        string
	CTerminal        string
	TotalIntensity   *float64 // nil when it must be computed from the spectrum

	parsed atomic.Pointer[ModifiedSequence]
}

// identificationFields is the number of mandatory tab-separated columns in an
// identification line. The total intensity column is optional.
const identificationFields = 8

// NewIdentification validates the fields and returns an immutable record.
func NewIdentification(id int64, spectrumFileID *int64, sequence, modifiedSequence string,
	charge int, instrument, nTerminal, cTerminal string, totalIntensity *float64) (*IdentificationRecord, error) {

	rec := &IdentificationRecord{
		ID:               id,
		SpectrumFileID:   spectrumFileID,
		Sequence:         strings.TrimSpace(sequence),
		ModifiedSequence: strings.TrimSpace(modifiedSequence),
		Charge:           charge,
		Instrument:       strings.TrimSpace(instrument),
		NTerminal:        strings.TrimSpace(nTerminal),
		CTerminal:        strings.TrimSpace(cTerminal),
		TotalIntensity:   totalIntensity,
	}
	if rec.ModifiedSequence == "" {
		rec.ModifiedSequence = rec.Sequence
	}

	if err := rec.validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// validate checks the record invariants and caches the parsed modified sequence.
func (r *IdentificationRecord) validate() error {
	var errs []string

	if r.Sequence == "" {
		errs = append(errs, "sequence is required")
	}
	if r.Charge < 1 {
		errs = append(errs, "charge must be positive")
	}
	if r.TotalIntensity != nil && *r.TotalIntensity < 0 {
		errs = append(errs, "total intensity must be non-negative")
	}

	if r.Sequence != "" {
		parsed, err := ParseModifiedSequence(r.ModifiedSequence)
		if err != nil {
			errs = append(errs, err.Error())
		} else if parsed.Plain() != r.Sequence {
			errs = append(errs, fmt.Sprintf("modified sequence %q does not match sequence %q", r.ModifiedSequence, r.Sequence))
		} else {
			r.parsed.Store(parsed)
		}
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Identification",
			Message: strings.Join(errs, "; "),
		}
	}
	return nil
}

// ParseIdentificationLine parses one tab-separated identification line:
//
//	id, spectrumFileId, sequence, modifiedSequence, charge, instrument, nTerm, cTerm[, totalIntensity]
//
// spectrumFileId and totalIntensity accept "", "null" or "-" as absent.
func ParseIdentificationLine(line string) (*IdentificationRecord, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) < identificationFields {
		return nil, fmt.Errorf("%w: expected at least %d tab-separated fields, got %d",
			ErrMalformedRecord, identificationFields, len(fields))
	}

	id, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid identification id %q", ErrMalformedRecord, fields[0])
	}

	spectrumFileID, err := parseOptionalInt(fields[1])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid spectrum file id %q", ErrMalformedRecord, fields[1])
	}

	charge, err := strconv.Atoi(strings.TrimSpace(fields[4]))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid charge %q", ErrMalformedRecord, fields[4])
	}

	var totalIntensity *float64
	if len(fields) > identificationFields {
		totalIntensity, err = parseOptionalFloat(fields[identificationFields])
		if err != nil {
			return nil, fmt.Errorf("%w: invalid total intensity %q", ErrMalformedRecord, fields[identificationFields])
		}
	}

	rec, err := NewIdentification(id, spectrumFileID, fields[2], fields[3], charge,
		fields[5], fields[6], fields[7], totalIntensity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return rec, nil
}

// FormatIdentificationLine is the inverse of ParseIdentificationLine.
func FormatIdentificationLine(r *IdentificationRecord) string {
	spectrum := "null"
	if r.SpectrumFileID != nil {
		spectrum = strconv.FormatInt(*r.SpectrumFileID, 10)
	}
	total := ""
	if r.TotalIntensity != nil {
		total = strconv.FormatFloat(*r.TotalIntensity, 'g', -1, 64)
	}
	return strings.Join([]string{
		strconv.FormatInt(r.ID, 10),
		spectrum,
		r.Sequence,
		r.ModifiedSequence,
		strconv.Itoa(r.Charge),
		r.Instrument,
		r.NTerminal,
		r.CTerminal,
		total,
	}, "\t")
}

func isNullField(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "null", "-", "na":
		return true
	}
	return false
}

func parseOptionalInt(s string) (*int64, error) {
	if isNullField(s) {
		return nil, nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseOptionalFloat(s string) (*float64, error) {
	if isNullField(s) {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Length returns the number of residues in the peptide.
func (r *IdentificationRecord) Length() int {
	return len(r.Sequence)
}

// Parsed returns the parsed modified sequence. Records built as struct
// literals are parsed on first use and the result is kept.
func (r *IdentificationRecord) Parsed() *ModifiedSequence {
	if p := r.parsed.Load(); p != nil {
		return p
	}
	parsed, err := ParseModifiedSequence(r.ModifiedSequence)
	if err != nil {
		parsed = &ModifiedSequence{Residues: plainResidues(r.Sequence)}
	}
	if !r.parsed.CompareAndSwap(nil, parsed) {
		return r.parsed.Load()
	}
	return parsed
}

// IsModified reports whether any residue carries a modification tag.
func (r *IdentificationRecord) IsModified() bool {
	return r.Parsed().IsModified()
}

// Modifications returns the modification tags in residue order.
func (r *IdentificationRecord) Modifications() []string {
	return r.Parsed().Tags()
}

// Name returns the identification name in format "ModifiedSequence/Charge".
func (r *IdentificationRecord) Name() string {
	return fmt.Sprintf("%s/%d", r.ModifiedSequence, r.Charge)
}
