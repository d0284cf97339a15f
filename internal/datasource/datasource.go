// Package datasource defines where raw survey bytes come from. Concrete
// sources live in subpackages (file, httpds).
package datasource

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Source opens the raw input for reading. Callers must close the returned
// reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name identifies the source in logs, e.g. a path or URL.
	Name() string
}

// AcquisitionError wraps any failure to obtain the raw input. It is fatal;
// nothing inside the pipeline retries it.
type AcquisitionError struct {
	Source string
	Err    error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquire %s: %v", e.Source, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// Open opens src and wraps a failure in an *AcquisitionError.
func Open(ctx context.Context, src Source) (io.ReadCloser, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, &AcquisitionError{Source: src.Name(), Err: err}
	}
	return rc, nil
}

// Snapshot opens src and returns a reader that also copies every byte read
// into path, creating its directory if needed. Closing the returned reader
// closes both the source and the copy.
func Snapshot(ctx context.Context, src Source, path string) (io.ReadCloser, error) {
	rc, err := Open(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("snapshot dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return &teeCloser{Reader: io.TeeReader(rc, f), src: rc, dst: f, name: src.Name()}, nil
}

type teeCloser struct {
	io.Reader
	src  io.Closer
	dst  *os.File
	name string
}

// Read wraps source failures so they surface as acquisition errors.
func (t *teeCloser) Read(p []byte) (int, error) {
	n, err := t.Reader.Read(p)
	if err != nil && err != io.EOF {
		return n, &AcquisitionError{Source: t.name, Err: err}
	}
	return n, err
}

func (t *teeCloser) Close() error {
	serr := t.src.Close()
	derr := t.dst.Close()
	if serr != nil {
		return serr
	}
	return derr
}
