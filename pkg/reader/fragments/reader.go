// Package fragments reads tab-separated fragment ion files and serves them as
// an in-memory fragment source
package fragments

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
)

const maxLineSize = 1024 * 1024

// minFields is the number of mandatory columns:
//
//	identificationId, ionName, ionNumber, mz, intensity[, massError]
const minFields = 5

// Reader provides streaming access to fragment ion files.
type Reader struct {
	scanner    *bufio.Scanner
	lineNum    int
	headerSeen bool
	current    core.FragmentIonRecord
	currentErr error
	err        error
}

// NewReader creates a new fragment ion reader
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Reader{scanner: scanner}
}

// Next advances to the next ion line. Returns false at end of input or on a read error.
func (r *Reader) Next() bool {
	r.current, r.currentErr = core.FragmentIonRecord{}, nil

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimRight(r.scanner.Text(), "\r")

		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !r.headerSeen {
			r.headerSeen = true
			if _, err := strconv.Atoi(strings.TrimSpace(line)); err == nil {
				continue
			}
		}

		ion, err := ParseLine(line)
		if err != nil {
			r.currentErr = fmt.Errorf("line %d: %w", r.lineNum, err)
		}
		r.current = ion
		return true
	}

	if err := r.scanner.Err(); err != nil {
		r.err = core.NewSourceError("fragment ions", err)
	}
	return false
}

// Ion returns the current ion, or the parse error of the current line.
func (r *Reader) Ion() (core.FragmentIonRecord, error) {
	return r.current, r.currentErr
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// ParseLine parses one fragment ion line. The ion name carries the series,
// neutral loss and charge ("b", "y-H2O", "b++", "Prec", "iK"); the ion number
// column supplies the position when the name does not.
func ParseLine(line string) (core.FragmentIonRecord, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < minFields {
		return core.FragmentIonRecord{}, fmt.Errorf("%w: expected at least %d tab-separated fields, got %d",
			core.ErrMalformedRecord, minFields, len(fields))
	}

	id, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return core.FragmentIonRecord{}, fmt.Errorf("%w: invalid identification id %q", core.ErrMalformedRecord, fields[0])
	}

	name, err := core.ParseIonName(fields[1])
	if err != nil {
		return core.FragmentIonRecord{}, fmt.Errorf("%w: %v", core.ErrMalformedRecord, err)
	}

	number, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return core.FragmentIonRecord{}, fmt.Errorf("%w: invalid ion number %q", core.ErrMalformedRecord, fields[2])
	}
	if name.Number > 0 {
		number = name.Number
	}

	mz, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
	if err != nil {
		return core.FragmentIonRecord{}, fmt.Errorf("%w: invalid m/z %q", core.ErrMalformedRecord, fields[3])
	}
	intensity, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
	if err != nil {
		return core.FragmentIonRecord{}, fmt.Errorf("%w: invalid intensity %q", core.ErrMalformedRecord, fields[4])
	}

	massError := math.NaN()
	if len(fields) > minFields {
		if v := strings.TrimSpace(fields[5]); v != "" && !strings.EqualFold(v, "null") {
			massError, err = strconv.ParseFloat(v, 64)
			if err != nil {
				return core.FragmentIonRecord{}, fmt.Errorf("%w: invalid mass error %q", core.ErrMalformedRecord, fields[5])
			}
		}
	}

	ion := core.FragmentIonRecord{
		IdentificationID: id,
		Type:             name.Type,
		Name:             name.Name,
		Number:           number,
		Charge:           name.Charge,
		NeutralLoss:      name.NeutralLoss,
		MZ:               mz,
		Intensity:        intensity,
		MassError:        massError,
	}
	if ion.Type == core.IonOther {
		ion.Number = 0
	} else if ion.Number < 1 {
		return core.FragmentIonRecord{}, fmt.Errorf("%w: %s ion without position", core.ErrMalformedRecord, fields[1])
	}
	return ion, nil
}

// Source holds the fragment ions of a file grouped by identification.
type Source struct {
	ions      map[int64][]core.FragmentIonRecord
	count     int
	malformed int
}

// Load reads every ion from r. Malformed lines are skipped and counted.
func Load(r io.Reader) (*Source, error) {
	s := &Source{ions: make(map[int64][]core.FragmentIonRecord)}
	reader := NewReader(r)
	for reader.Next() {
		ion, err := reader.Ion()
		if err != nil {
			s.malformed++
			continue
		}
		s.ions[ion.IdentificationID] = append(s.ions[ion.IdentificationID], ion)
		s.count++
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFile reads a fragment ion file from disk.
func LoadFile(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.NewSourceError("fragment ions", err)
	}
	defer f.Close()
	return Load(f)
}

// FetchFragmentIons returns the ions of one identification, restricted to
// types when it is non-empty. Flat files carry no significance tiers.
func (s *Source) FetchFragmentIons(ctx context.Context, identificationID int64, types []core.IonType) ([]core.FragmentIonRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []core.FragmentIonRecord
	for _, ion := range s.ions[identificationID] {
		if len(types) == 0 || containsType(types, ion.Type) {
			out = append(out, ion)
		}
	}
	return out, nil
}

// Len returns the number of ions loaded.
func (s *Source) Len() int {
	return s.count
}

// Malformed returns the number of skipped lines.
func (s *Source) Malformed() int {
	return s.malformed
}

// Identifications returns the number of identifications with at least one ion.
func (s *Source) Identifications() int {
	return len(s.ions)
}

func containsType(types []core.IonType, t core.IonType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}
