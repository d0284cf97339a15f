// Package csv parses a delimited survey export into an in-memory RecordSet.
// Empty cells become nil, which is how the rest of the pipeline spells
// "missing".
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"survey/pkg/records"
)

// Options configures the CSV parser behavior. All fields are optional; sensible
// defaults are applied when a field is zero.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool

	// NormalizeHeaders lowercases headers and replaces spaces with
	// underscores. Survey headers are kept verbatim when false.
	NormalizeHeaders bool

	// HeaderMap maps source header names to canonical keys. Applied before
	// NormalizeHeaders.
	HeaderMap map[string]string

	// LazyQuotes accepts a bare '"' inside an unquoted field instead of
	// skipping the row.
	LazyQuotes bool

	// MaxLoggedSkips caps how many skipped rows are logged individually.
	// Zero means 400.
	MaxLoggedSkips int
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// ErrNoHeader is returned when the input has no header row.
var ErrNoHeader = errors.New("csv: input has no header row")

// Parse reads a header row followed by data rows and returns them as a
// RecordSet along with the number of rows skipped because they could not be
// parsed or had the wrong width.
func (p *Parser) Parse(r io.Reader) (records.RecordSet, int, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.LazyQuotes = p.opt.LazyQuotes
	// Width is enforced below so a single ragged row does not abort the read.
	cr.FieldsPerRecord = -1

	h, err := cr.Read()
	if err == io.EOF {
		return records.RecordSet{}, 0, ErrNoHeader
	}
	if err != nil {
		return records.RecordSet{}, 0, fmt.Errorf("read csv header: %w", err)
	}
	headers := normalizeHeaders(h, p.opt)

	limit := p.opt.MaxLoggedSkips
	if limit <= 0 {
		limit = 400
	}

	var rows []records.Record
	var skipped int
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				// Transport failure, not bad data.
				return records.RecordSet{}, skipped, fmt.Errorf("read csv: %w", err)
			}
			if skipped < limit {
				log.Printf("csv: skipping row %d: %v", line, err)
			}
			skipped++
			continue
		}
		if len(row) != len(headers) {
			if skipped < limit {
				log.Printf("csv: skipping row %d: incorrect number of fields (expected %d, got %d)", line, len(headers), len(row))
			}
			skipped++
			continue
		}

		rec := make(records.Record, len(row))
		for i, val := range row {
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[headers[i]] = emptyToNil(val)
		}
		rows = append(rows, rec)
	}

	return records.New(headers, rows), skipped, nil
}

// emptyToNil converts an empty string to nil; all other values are returned as-is.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// normalizeHeaders produces header keys using HeaderMap (when provided) and,
// if enabled, simple normalization (lowercase, spaces to underscores). A
// UTF-8 BOM on the first cell is stripped. Blank headers become "col_N".
func normalizeHeaders(h []string, opt Options) []string {
	h = StripHeaderBOM(append([]string(nil), h...))
	res := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if m, ok := opt.HeaderMap[c]; ok {
			res[i] = m
			continue
		}
		if opt.NormalizeHeaders {
			c = strings.ReplaceAll(strings.ToLower(c), " ", "_")
		}
		if c == "" {
			c = fmt.Sprintf("col_%d", i)
		}
		res[i] = c
	}
	return res
}
