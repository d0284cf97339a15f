// Package output serializes the cleaned record set and the derived tables.
//
// The cleaned set is written twice, once as CSV and once as Parquet, and the
// two files are interchangeable: reading either back yields the same rows in
// the same order. Derived tables are always CSV.
package output

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"survey/pkg/records"
)

// DefaultBaseName is the file stem of the cleaned dataset.
const DefaultBaseName = "survey_clean"

// WriteError reports a failed output file. Files written before the failure
// are left in place.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string { return fmt.Sprintf("write %s: %v", e.Path, e.Err) }

func (e *WriteError) Unwrap() error { return e.Err }

// SizeReport compares the on-disk size of both encodings of the cleaned set.
type SizeReport struct {
	CSVBytes     int64
	ParquetBytes int64
	// Ratio is larger / smaller; 0 when either file is empty.
	Ratio float64
}

// Smaller names the more compact format.
func (r SizeReport) Smaller() string {
	if r.ParquetBytes <= r.CSVBytes {
		return "parquet"
	}
	return "csv"
}

func newSizeReport(csvBytes, parquetBytes int64) SizeReport {
	rep := SizeReport{CSVBytes: csvBytes, ParquetBytes: parquetBytes}
	lo, hi := csvBytes, parquetBytes
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo > 0 {
		rep.Ratio = float64(hi) / float64(lo)
	}
	return rep
}

// Writer writes pipeline results below Dir.
type Writer struct {
	Dir string
	// BaseName overrides DefaultBaseName.
	BaseName string
	// Workers bounds concurrent table writes; <= 0 means one per table.
	Workers int
}

// WriteAll writes <base>.csv, <base>.parquet and <table>.csv for each table.
// The first failure cancels outstanding table writes and is returned as a
// *WriteError.
func (w Writer) WriteAll(ctx context.Context, clean records.RecordSet, tables []records.Table) (SizeReport, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return SizeReport{}, &WriteError{Path: w.Dir, Err: err}
	}
	base := w.BaseName
	if base == "" {
		base = DefaultBaseName
	}

	csvPath := filepath.Join(w.Dir, base+".csv")
	csvBytes, err := writeFile(csvPath, func(out io.Writer) error { return WriteCSV(out, clean) })
	if err != nil {
		return SizeReport{}, err
	}
	pqPath := filepath.Join(w.Dir, base+".parquet")
	pqBytes, err := writeFile(pqPath, func(out io.Writer) error { return WriteParquet(out, clean) })
	if err != nil {
		return SizeReport{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	if w.Workers > 0 {
		g.SetLimit(w.Workers)
	}
	for _, t := range tables {
		t := t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(w.Dir, t.Name+".csv")
			_, err := writeFile(path, func(out io.Writer) error { return WriteTable(out, t) })
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return SizeReport{}, err
	}

	rep := newSizeReport(csvBytes, pqBytes)
	log.Printf("output: dir=%s rows=%d tables=%d csv=%s parquet=%s ratio=%.2fx smaller=%s",
		w.Dir, clean.Len(), len(tables),
		humanize.Bytes(uint64(rep.CSVBytes)), humanize.Bytes(uint64(rep.ParquetBytes)),
		rep.Ratio, rep.Smaller())
	return rep, nil
}

// writeFile creates path, runs fn over a buffered writer and returns the final
// file size.
func writeFile(path string, fn func(io.Writer) error) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, &WriteError{Path: path, Err: err}
	}
	bw := bufio.NewWriterSize(f, 1<<16)
	if err := fn(bw); err != nil {
		_ = f.Close()
		return 0, &WriteError{Path: path, Err: err}
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return 0, &WriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return 0, &WriteError{Path: path, Err: err}
	}
	st, err := os.Stat(path)
	if err != nil {
		return 0, &WriteError{Path: path, Err: err}
	}
	return st.Size(), nil
}

// ReadCSVFile is ReadCSV over a path.
func ReadCSVFile(path string, numeric ...string) (records.RecordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return records.RecordSet{}, err
	}
	defer f.Close()
	return ReadCSV(bufio.NewReader(f), numeric...)
}

// ReadParquetFile is ReadParquet over a path.
func ReadParquetFile(path string) (records.RecordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return records.RecordSet{}, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return records.RecordSet{}, err
	}
	return ReadParquet(f, st.Size())
}
