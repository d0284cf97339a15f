package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"survey/internal/datasource"
	"survey/internal/metrics"
	"survey/internal/output"
	"survey/internal/parser"
	"survey/internal/storage"
	"survey/pkg/records"
)

// SnapshotName is the file the raw input is copied to under Config.InputDir.
const SnapshotName = "survey.csv"

// Deps are the collaborators of Run.
type Deps struct {
	Source datasource.Source
	Parser parser.Parser
	Writer output.Writer

	// Repo is the optional database sink; nil skips the load into it.
	Repo storage.Repository
	Load storage.LoadOptions
}

// Report summarizes a completed run.
type Report struct {
	RunID   string
	Parsed  int
	Skipped int
	Stats   Stats
	Tables  int
	Sizes   output.SizeReport
	Loaded  storage.LoadResult
	Elapsed time.Duration
}

// Run executes extract, transform and load. Each step is timed through the
// metrics package; any failure aborts the run and is returned unchanged in
// kind (*datasource.AcquisitionError, *records.SchemaError,
// *aggregate.JoinError, *output.WriteError are all reachable with errors.As).
func Run(ctx context.Context, cfg Config, deps Deps) (Report, error) {
	if deps.Source == nil || deps.Parser == nil {
		return Report{}, errors.New("pipeline: source and parser are required")
	}
	start := time.Now()
	rep := Report{RunID: uuid.NewString()}
	job := cfg.Job
	log.Printf("pipeline: run=%s job=%s source=%s", rep.RunID, job, deps.Source.Name())

	var raw records.RecordSet
	err := metrics.Timed(job, "extract", func() error {
		var err error
		raw, rep.Skipped, err = extract(ctx, cfg, deps)
		return err
	})
	if err != nil {
		return rep, err
	}
	rep.Parsed = raw.Len()
	metrics.RecordRow(job, metrics.KindParsed, int64(rep.Parsed))
	metrics.RecordRow(job, metrics.KindSkipped, int64(rep.Skipped))
	log.Printf("pipeline: run=%s step=extract rows=%d skipped=%d", rep.RunID, rep.Parsed, rep.Skipped)

	var res Result
	err = metrics.Timed(job, "transform", func() error {
		var err error
		res, err = Transform(raw, cfg)
		return err
	})
	if err != nil {
		return rep, err
	}
	rep.Stats = res.Stats
	rep.Tables = len(res.Tables)
	metrics.RecordRow(job, metrics.KindNullRemoved, int64(res.Stats.NullRemoved))
	metrics.RecordRow(job, metrics.KindDuplicatesRemoved, int64(res.Stats.Dedup.Removed))
	metrics.RecordRow(job, metrics.KindClean, int64(res.Stats.Clean))
	log.Printf("pipeline: run=%s step=transform rows=%d null_removed=%d duplicates=%d before=%d after=%d tables=%d",
		rep.RunID, res.Stats.Rows, res.Stats.NullRemoved, res.Stats.Dedup.Duplicates,
		res.Stats.Dedup.Before, res.Stats.Dedup.After, len(res.Tables))

	err = metrics.Timed(job, "load", func() error {
		var err error
		rep.Sizes, rep.Loaded, err = load(ctx, cfg, deps, res)
		return err
	})
	if err != nil {
		return rep, err
	}

	rep.Elapsed = time.Since(start)
	log.Printf("pipeline: run=%s done clean=%d tables=%d elapsed=%s",
		rep.RunID, res.Stats.Clean, len(res.Tables), rep.Elapsed.Truncate(time.Millisecond))
	return rep, nil
}

func extract(ctx context.Context, cfg Config, deps Deps) (records.RecordSet, int, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	if cfg.InputDir != "" {
		rc, err = datasource.Snapshot(ctx, deps.Source, filepath.Join(cfg.InputDir, SnapshotName))
	} else {
		rc, err = datasource.Open(ctx, deps.Source)
	}
	if err != nil {
		return records.RecordSet{}, 0, err
	}

	rs, skipped, err := deps.Parser.Parse(rc)
	cerr := rc.Close()
	if err != nil {
		return records.RecordSet{}, skipped, fmt.Errorf("parse %s: %w", deps.Source.Name(), err)
	}
	if cerr != nil {
		return records.RecordSet{}, skipped, cerr
	}
	return rs, skipped, nil
}

func load(ctx context.Context, cfg Config, deps Deps, res Result) (output.SizeReport, storage.LoadResult, error) {
	w := deps.Writer
	if w.BaseName == "" {
		w.BaseName = cfg.BaseName
	}
	sizes, err := w.WriteAll(ctx, res.Clean, res.Tables)
	if err != nil {
		return output.SizeReport{}, storage.LoadResult{}, err
	}
	metrics.RecordOutputSize(cfg.Job, "csv", sizes.CSVBytes)
	metrics.RecordOutputSize(cfg.Job, "parquet", sizes.ParquetBytes)
	metrics.RecordTables(cfg.Job, "file", int64(len(res.Tables)))

	if deps.Repo == nil {
		return sizes, storage.LoadResult{}, nil
	}
	base := w.BaseName
	if base == "" {
		base = output.DefaultBaseName
	}
	opts := deps.Load
	if opts.Job == "" {
		opts.Job = cfg.Job
	}
	tables := append([]records.Table{res.Clean.Table(base)}, res.Tables...)
	loaded, err := storage.LoadTables(ctx, deps.Repo, opts, tables...)
	if err != nil {
		return sizes, loaded, fmt.Errorf("storage: %w", err)
	}
	return sizes, loaded, nil
}
