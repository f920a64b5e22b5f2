// Package identifications provides a streaming reader for tab-separated
// identification files
package identifications

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
)

const maxLineSize = 1024 * 1024

// Reader provides streaming access to identification files. The first
// non-comment line may be a record count used for progress reporting. Lines
// starting with '#' are ignored.
type Reader struct {
	scanner    *bufio.Scanner
	closer     io.Closer
	lineNum    int
	total      int
	headerSeen bool
	current    *core.IdentificationRecord
	currentErr error
	err        error
}

// NewReader creates a new identification reader
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Reader{scanner: scanner}
}

// Open opens an identification file. The count header, when present, is read
// immediately so that Total is known before the first record.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.NewSourceError("identifications", err)
	}
	r := NewReader(f)
	r.closer = f
	return r, nil
}

// Close closes the underlying file, if the reader owns one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Next advances to the next record. Returns false at end of input or on a read error.
func (r *Reader) Next() bool {
	r.current, r.currentErr = nil, nil

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimRight(r.scanner.Text(), "\r")

		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !r.headerSeen {
			r.headerSeen = true
			if n, ok := parseCount(line); ok {
				r.total = n
				continue
			}
		}

		rec, err := core.ParseIdentificationLine(line)
		if err != nil {
			r.currentErr = fmt.Errorf("line %d: %w", r.lineNum, err)
		}
		r.current = rec
		return true
	}

	if err := r.scanner.Err(); err != nil {
		r.err = core.NewSourceError("identifications", err)
	}
	return false
}

// Record returns the current record, or the parse error of the current line.
func (r *Reader) Record() (*core.IdentificationRecord, error) {
	return r.current, r.currentErr
}

// Total returns the record count announced by the header, 0 if there was none.
func (r *Reader) Total() int {
	return r.total
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// parseCount recognises a count header: a single non-negative integer.
func parseCount(line string) (int, bool) {
	line = strings.TrimSpace(line)
	if strings.ContainsAny(line, "\t ") {
		return 0, false
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ReadAll reads every well-formed record and counts the malformed ones.
func ReadAll(r *Reader) (recs []*core.IdentificationRecord, malformed int, err error) {
	for r.Next() {
		rec, err := r.Record()
		if err != nil {
			malformed++
			continue
		}
		recs = append(recs, rec)
	}
	return recs, malformed, r.Err()
}

// Writer writes identification files with a count header.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteAll writes the count header followed by one line per record.
func (w *Writer) WriteAll(recs []*core.IdentificationRecord) error {
	if _, err := fmt.Fprintf(w.w, "%d\n", len(recs)); err != nil {
		return err
	}
	for _, rec := range recs {
		if _, err := fmt.Fprintln(w.w, core.FormatIdentificationLine(rec)); err != nil {
			return err
		}
	}
	return w.w.Flush()
}
