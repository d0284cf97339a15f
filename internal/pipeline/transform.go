// Package pipeline runs the survey ETL: extract a raw RecordSet, clean it
// through the configured stages, derive the top-N and aggregation tables,
// then write the results and optionally load them into a database.
//
// Transform is the pure core; Run adds the I/O around it.
package pipeline

import (
	"fmt"

	"survey/internal/aggregate"
	"survey/internal/explode"
	"survey/internal/transformer/builtin"
	"survey/pkg/records"
)

// Stats are the row counts of one Transform call.
type Stats struct {
	// Rows is the number of input rows.
	Rows int
	// NullRemoved counts rows dropped by Require stages.
	NullRemoved int
	// Dedup is the last DeDup stage's report.
	Dedup builtin.DedupStats
	// Clean is the number of rows in Result.Clean.
	Clean int
}

// Result is the output of Transform.
type Result struct {
	Clean records.RecordSet
	// Tables are the top-N tables in Fields order followed by the
	// aggregation tables.
	Tables  []records.Table
	Summary aggregate.Summary
	Stats   Stats
}

// Transform applies cfg to rs. It does not modify rs and has no side
// effects, so equal inputs give equal results.
func Transform(rs records.RecordSet, cfg Config) (Result, error) {
	res := Result{Stats: Stats{Rows: rs.Len()}}

	cur := rs
	for i, st := range cfg.Stages {
		var (
			next records.RecordSet
			err  error
		)
		switch s := st.(type) {
		case builtin.Require:
			var removed int
			next, removed, err = s.Filter(cur)
			res.Stats.NullRemoved += removed
		case builtin.DeDup:
			next, res.Stats.Dedup, err = s.Filter(cur)
		default:
			next, err = st.Apply(cur)
		}
		if err != nil {
			return Result{}, fmt.Errorf("transform[%d]: %w", i, err)
		}
		cur = next
	}
	res.Clean = cur
	res.Stats.Clean = cur.Len()

	for _, f := range cfg.Fields {
		t, err := explode.TopN(cur, f, cfg.Delimiter, cfg.TopN)
		if err != nil {
			return Result{}, fmt.Errorf("explode %s: %w", f.Column, err)
		}
		res.Tables = append(res.Tables, t)
	}

	if cfg.Aggregate.Key != "" {
		sum, err := aggregate.Summarize(cur, cfg.Aggregate)
		if err != nil {
			return Result{}, fmt.Errorf("aggregate %s: %w", cfg.Aggregate.Key, err)
		}
		res.Summary = sum
		res.Tables = append(res.Tables, sum.Tables...)
	}
	return res, nil
}
