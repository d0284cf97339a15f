package storage

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"survey/internal/ddl"
	"survey/internal/metrics"
	"survey/pkg/records"
)

// DefaultBatchSize is used when LoadOptions.BatchSize is not positive.
const DefaultBatchSize = 5000

// LoadOptions configures LoadTables.
type LoadOptions struct {
	// Kind is the backend kind, used to pick the DDL dialect.
	Kind string
	// Job labels metrics.
	Job string
	// Prefix is prepended to every table name.
	Prefix string
	// AutoCreate issues CREATE TABLE IF NOT EXISTS before copying.
	AutoCreate bool
	BatchSize  int
	// Workers bounds concurrently loaded tables; <= 0 means one at a time.
	Workers int
}

// LoadResult reports rows copied per destination table.
type LoadResult struct {
	Rows map[string]int64
}

// Total sums every table.
func (r LoadResult) Total() int64 {
	var n int64
	for _, v := range r.Rows {
		n += v
	}
	return n
}

// LoadTables copies each table into repo. Tables are loaded concurrently up
// to opts.Workers; the first failure cancels the rest.
func LoadTables(ctx context.Context, repo Repository, opts LoadOptions, tables ...records.Table) (LoadResult, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	counts := make([]int64, len(tables))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, t := range tables {
		i, t := i, t
		g.Go(func() error {
			n, err := loadTable(gctx, repo, opts, t)
			counts[i] = n
			if err != nil {
				return fmt.Errorf("load table %s: %w", t.Name, err)
			}
			return nil
		})
	}
	err := g.Wait()

	res := LoadResult{Rows: make(map[string]int64, len(tables))}
	for i, t := range tables {
		res.Rows[opts.Prefix+t.Name] = counts[i]
	}
	if err != nil {
		return res, err
	}

	metrics.RecordTables(opts.Job, "db", int64(len(tables)))
	metrics.RecordRow(opts.Job, metrics.KindInserted, res.Total())
	log.Printf("storage: kind=%s tables=%d rows=%d", opts.Kind, len(tables), res.Total())
	return res, nil
}

func loadTable(ctx context.Context, repo Repository, opts LoadOptions, t records.Table) (int64, error) {
	name := opts.Prefix + t.Name
	if opts.AutoCreate {
		if err := EnsureTable(ctx, opts.Kind, repo, ddl.Infer(name, t)); err != nil {
			return 0, fmt.Errorf("ensure table: %w", err)
		}
	}

	in := make(chan []any, opts.BatchSize)
	feedCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		defer close(in)
		for _, row := range t.Rows {
			select {
			case in <- row:
			case <-feedCtx.Done():
				return
			}
		}
	}()

	copyFn := func(ctx context.Context, columns []string, rows [][]any) (int64, error) {
		return repo.CopyFrom(ctx, name, columns, rows)
	}
	total, batches, err := LoadBatches(ctx, name, t.Columns, in, opts.BatchSize, copyFn)
	metrics.RecordBatches(opts.Job, batches)
	return total, err
}
