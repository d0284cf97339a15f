package pipeline

import (
	"fmt"
	"log"

	"survey/internal/aggregate"
	"survey/internal/config"
	"survey/internal/explode"
	"survey/internal/transformer"
	"survey/internal/transformer/builtin"
)

// Config is the resolved, typed form of a config.Pipeline.
type Config struct {
	// Job labels metrics and log lines.
	Job string

	// Stages run in order over the parsed RecordSet. Require and DeDup
	// stages also contribute to Stats.
	Stages []transformer.Transformer

	// Fields are the multi-valued columns ranked into top-N tables.
	Fields    []explode.Field
	Delimiter string
	TopN      int

	// Aggregate is skipped when Key is empty.
	Aggregate aggregate.Spec

	// InputDir receives a raw copy of the source as SnapshotName. Empty
	// disables the copy.
	InputDir string
	// BaseName names the cleaned dataset files and its database table.
	BaseName string
}

// FromPipeline resolves p into a Config. It assumes p passed
// config.ValidatePipeline but still reports stages it cannot build.
func FromPipeline(p config.Pipeline) (Config, error) {
	stages, err := BuildStages(p.Transform)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Job:       p.Job,
		Stages:    stages,
		Delimiter: p.Explode.Delimiter,
		TopN:      p.Explode.TopN,
		Aggregate: aggregate.Spec{
			Key:             p.Aggregate.Key,
			KeyLabel:        p.Aggregate.KeyLabel,
			Companion:       p.Aggregate.Companion,
			AverageLabel:    p.Aggregate.AverageLabel,
			CompanionLabel:  p.Aggregate.CompanionLabel,
			GroupOutput:     p.Aggregate.GroupOutput,
			CompanionOutput: p.Aggregate.CompanionOutput,
		},
		InputDir: p.Source.InputDir,
		BaseName: p.Output.BaseName,
	}
	for _, f := range p.Explode.Fields {
		cfg.Fields = append(cfg.Fields, explode.Field{Column: f.Column, Label: f.Label, Output: f.Output})
	}
	return cfg, nil
}

// BuildStages constructs the transformer list from configuration.
func BuildStages(ts []config.Transform) ([]transformer.Transformer, error) {
	out := make([]transformer.Transformer, 0, len(ts))
	for i, t := range ts {
		switch t.Kind {
		case "canonicalize":
			table, err := canonicalTable(t.Options)
			if err != nil {
				return nil, fmt.Errorf("transform[%d]: %w", i, err)
			}
			out = append(out, builtin.Canonicalize{Column: t.Options.String("column", ""), Table: table})
		case "bucket":
			name := t.Options.String("table", "")
			table, ok := builtin.NamedBucketTable(name)
			if !ok {
				return nil, fmt.Errorf("transform[%d]: unknown bucket table %q", i, name)
			}
			out = append(out, builtin.Bucket{Column: t.Options.String("column", ""), Table: table})
		case "normalize":
			out = append(out, builtin.Normalize{Columns: t.Options.StringSlice("columns")})
		case "coerce":
			out = append(out, builtin.Coerce{
				Types:  t.Options.StringMap("types"),
				Strict: t.Options.Bool("strict", false),
			})
		case "project":
			out = append(out, builtin.Project{Columns: t.Options.StringSlice("columns")})
		case "require":
			out = append(out, builtin.Require{Fields: t.Options.StringSlice("fields")})
		case "dedup":
			out = append(out, builtin.DeDup{
				Keys:   t.Options.StringSlice("keys"),
				Policy: t.Options.String("policy", builtin.PolicyDropAll),
			})
		default:
			return nil, fmt.Errorf("unsupported transform.kind=%s", t.Kind)
		}
	}
	return out, nil
}

// canonicalTable resolves a named table, extended or replaced by an inline
// "mapping" option.
func canonicalTable(o config.Options) (builtin.CanonicalTable, error) {
	name := o.String("table", "")
	inline := o.StringMap("mapping")

	var base map[string]string
	if name != "" {
		t, ok := builtin.NamedCanonicalTable(name)
		if !ok {
			return builtin.CanonicalTable{}, fmt.Errorf("unknown canonical table %q", name)
		}
		base = t.Map()
	}
	if base == nil && len(inline) == 0 {
		return builtin.CanonicalTable{}, fmt.Errorf("canonicalize needs a table or mapping")
	}
	if base == nil {
		base = make(map[string]string, len(inline))
	}
	for k, v := range inline {
		if prev, ok := base[k]; ok && prev != v {
			log.Printf("pipeline: canonical override raw=%q %q->%q", k, prev, v)
		}
		base[k] = v
	}
	return builtin.NewCanonicalTable(base), nil
}
