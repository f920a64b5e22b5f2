// Package peaks provides a streaming reader for SpectraST-style peak list
// files and a total-intensity source built on it
package peaks

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
)

// Reader provides streaming access to peak list files. Each block starts with
// "SpectrumId: n", announces "NumPeaks: k" and is followed by k lines of
// "mz intensity [annotation]".
type Reader struct {
	scanner     *bufio.Scanner
	lineNum     int
	currentSpec *core.Spectrum
	err         error
}

// NewReader creates a new peak list reader
func NewReader(r io.Reader) *Reader {
	return &Reader{
		scanner: bufio.NewScanner(r),
	}
}

// Next advances to the next spectrum. Returns false when no more spectra or error.
func (r *Reader) Next() bool {
	r.currentSpec = nil

	spec, err := r.readSpectrum()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.currentSpec = spec
	return true
}

// Spectrum returns the current spectrum
func (r *Reader) Spectrum() *core.Spectrum {
	return r.currentSpec
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// readSpectrum reads a single spectrum block
func (r *Reader) readSpectrum() (*core.Spectrum, error) {
	var spec *core.Spectrum
	var numPeaks int
	inPeaks := false

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !inPeaks {
			switch {
			case strings.HasPrefix(line, "SpectrumId:"):
				id, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(line, "SpectrumId:")), 10, 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w: invalid spectrum id", r.lineNum, core.ErrMalformedRecord)
				}
				spec = &core.Spectrum{ID: id}
			case strings.HasPrefix(line, "NumPeaks:"):
				if spec == nil {
					return nil, fmt.Errorf("line %d: %w: NumPeaks before SpectrumId", r.lineNum, core.ErrMalformedRecord)
				}
				n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "NumPeaks:")))
				if err != nil || n < 0 {
					return nil, fmt.Errorf("line %d: %w: invalid num peaks", r.lineNum, core.ErrMalformedRecord)
				}
				numPeaks = n
				spec.Peaks = make([]core.Peak, 0, n)
				if n == 0 {
					return spec, nil
				}
				inPeaks = true
			}
			// Other header fields are not needed.
			continue
		}

		peak, err := parsePeak(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
		}
		spec.Peaks = append(spec.Peaks, peak)
		if len(spec.Peaks) >= numPeaks {
			return spec, nil
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, core.NewSourceError("spectra", err)
	}

	// A truncated final block still yields the peaks that were read.
	if spec != nil && inPeaks {
		return spec, nil
	}
	return nil, io.EOF
}

// parsePeak parses a single peak line
func parsePeak(line string) (core.Peak, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return core.Peak{}, fmt.Errorf("%w: invalid peak format, expected at least 2 fields", core.ErrMalformedRecord)
	}

	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("%w: invalid m/z value %q", core.ErrMalformedRecord, fields[0])
	}

	intensity, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("%w: invalid intensity value %q", core.ErrMalformedRecord, fields[1])
	}

	return core.Peak{MZ: mz, Intensity: intensity}, nil
}

// Source serves total spectrum intensities from a peak list file.
type Source struct {
	totals map[int64]float64
}

// Load reads every spectrum from r and keeps its summed intensity.
func Load(r io.Reader) (*Source, error) {
	s := &Source{totals: make(map[int64]float64)}
	reader := NewReader(r)
	for reader.Next() {
		spec := reader.Spectrum()
		s.totals[spec.ID] = spec.TotalIntensity()
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFile reads a peak list file from disk.
func LoadFile(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.NewSourceError("spectra", err)
	}
	defer f.Close()
	return Load(f)
}

// FetchTotalIntensity returns the summed peak intensity of a spectrum.
func (s *Source) FetchTotalIntensity(ctx context.Context, spectrumID int64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	v, ok := s.totals[spectrumID]
	if !ok {
		return 0, fmt.Errorf("spectrum %d: %w", spectrumID, core.ErrNotFound)
	}
	return v, nil
}

// Len returns the number of spectra loaded.
func (s *Source) Len() int {
	return len(s.totals)
}
