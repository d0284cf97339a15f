// Package storage contains the storage-agnostic contracts of the optional
// database sink: the Repository interface, a registry of backend factories,
// and the batched loader that copies output tables into a database.
//
// Backends (postgres, sqlite, mssql, mysql) register themselves at init;
// import survey/internal/storage/all to enable every built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"survey/internal/ddl"
)

// Repository is the minimal contract a database backend fulfils.
type Repository interface {
	// CopyFrom bulk-inserts rows (aligned to columns) into table and returns
	// the number of rows written.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, sql string) error
	// Close releases the connection pool.
	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind string
	DSN  string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

type backend struct {
	factory Factory
	dialect ddl.Dialect
}

var (
	mu       sync.RWMutex
	backends = map[string]backend{}
)

// Register registers (or replaces) the factory and DDL dialect for kind. It
// is called from backend packages' init functions.
func Register(kind string, f Factory, d ddl.Dialect) {
	mu.Lock()
	defer mu.Unlock()
	d.Name = kind
	backends[kind] = backend{factory: f, dialect: d}
}

func lookup(kind string) (backend, bool) {
	mu.RLock()
	defer mu.RUnlock()
	b, ok := backends[kind]
	return b, ok
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	b, ok := lookup(cfg.Kind)
	if !ok {
		return nil, fmt.Errorf("storage: unsupported kind %q (registered: %v)", cfg.Kind, ListKinds())
	}
	return b.factory(ctx, cfg)
}

// DialectFor returns the DDL dialect registered for kind.
func DialectFor(kind string) (ddl.Dialect, bool) {
	b, ok := lookup(kind)
	return b.dialect, ok
}

// ListKinds returns the registered backend kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(backends))
	for k := range backends {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// EnsureTable creates def through repo if it does not exist yet.
func EnsureTable(ctx context.Context, kind string, repo Repository, def ddl.TableDef) error {
	d, ok := DialectFor(kind)
	if !ok {
		return fmt.Errorf("storage: no DDL dialect registered for kind %q", kind)
	}
	stmt, err := d.CreateTable(def)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, stmt)
}
