// This file holds a static linter for Pipeline values. It returns a list of
// issues (errors and warnings) that the CLI surfaces before running.

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"survey/internal/transformer/builtin"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single finding. Path is a dotted path into the config
// (e.g. "storage.kind", "transform[1].options.policy").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is a SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

func errorf(path, format string, args ...any) Issue {
	return Issue{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, args...)}
}

func warnf(path, format string, args ...any) Issue {
	return Issue{Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, args...)}
}

// ValidatePipeline lints p without mutating it.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, errorf("job", "job must not be empty; it labels metrics and log lines"))
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateTransforms(p.Transform)...)
	issues = append(issues, validateExplode(p.Explode)...)
	issues = append(issues, validateAggregate(p.Aggregate)...)
	issues = append(issues, validateOutput(p.Output, p.Explode, p.Aggregate)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateMetrics(p.Metrics)...)
	issues = append(issues, validateRuntime(p.Runtime)...)

	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	switch strings.TrimSpace(s.Kind) {
	case "":
		return append(issues, errorf("source.kind", "source.kind must not be empty"))
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, errorf("source.file.path", "file source requires a non-empty path"))
		}
	case "http":
		u, err := url.Parse(s.HTTP.URL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			issues = append(issues, errorf("source.http.url", "http source requires an absolute http(s) url, got %q", s.HTTP.URL))
		}
		if s.HTTP.Timeout != "" {
			if _, err := time.ParseDuration(s.HTTP.Timeout); err != nil {
				issues = append(issues, errorf("source.http.timeout", "invalid duration %q: %v", s.HTTP.Timeout, err))
			}
		}
		if s.HTTP.MaxRetries < 0 {
			issues = append(issues, errorf("source.http.max_retries", "max_retries must not be negative"))
		}
	default:
		issues = append(issues, errorf("source.kind", "unknown source kind %q; want file or http", s.Kind))
	}

	if strings.TrimSpace(s.InputDir) == "" {
		issues = append(issues, warnf("source.input_dir", "input_dir is empty; no raw copy of the export will be kept"))
	}
	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue

	switch strings.TrimSpace(p.Kind) {
	case "":
		return append(issues, errorf("parser.kind", "parser.kind must not be empty"))
	case "csv":
		if c := p.Options.String("comma", ""); len([]rune(c)) > 1 {
			issues = append(issues, warnf("parser.options.comma", "comma %q is longer than one character; only the first is used", c))
		}
	default:
		issues = append(issues, errorf("parser.kind", "unknown parser kind %q; want csv", p.Kind))
	}
	return issues
}

var dedupPolicies = map[string]struct{}{
	"":                      {},
	builtin.PolicyDropAll:   {},
	builtin.PolicyKeepFirst: {},
	builtin.PolicyKeepLast:  {},
}

func validateTransforms(ts []Transform) []Issue {
	var issues []Issue

	if len(ts) == 0 {
		return append(issues, warnf("transform", "no transforms configured; parsed records will be written as-is"))
	}

	projectAt, dedupAt := -1, -1
	for i, t := range ts {
		base := fmt.Sprintf("transform[%d]", i)
		switch t.Kind {
		case "":
			issues = append(issues, errorf(base+".kind", "transform kind must not be empty"))
		case "canonicalize":
			issues = append(issues, requireColumn(base, t.Options)...)
			if name := t.Options.String("table", ""); name != "" {
				if _, ok := builtin.NamedCanonicalTable(name); !ok {
					issues = append(issues, errorf(base+".options.table", "unknown canonical table %q", name))
				}
			} else if len(t.Options.StringMap("mapping")) == 0 {
				issues = append(issues, errorf(base+".options", "canonicalize needs a table name or an inline mapping"))
			}
		case "bucket":
			issues = append(issues, requireColumn(base, t.Options)...)
			if _, ok := builtin.NamedBucketTable(t.Options.String("table", "")); !ok {
				issues = append(issues, errorf(base+".options.table", "unknown bucket table %q", t.Options.String("table", "")))
			}
		case "normalize":
		case "coerce":
			types := t.Options.StringMap("types")
			if len(types) == 0 {
				issues = append(issues, warnf(base+".options.types", "coerce has no types; it will not change anything"))
			}
			for col, typ := range types {
				if typ != "float" && typ != "string" {
					issues = append(issues, errorf(base+".options.types."+col, "unsupported type %q; want float or string", typ))
				}
			}
		case "project":
			projectAt = i
			if len(t.Options.StringSlice("columns")) == 0 {
				issues = append(issues, errorf(base+".options.columns", "project needs at least one column"))
			}
		case "require":
			if len(t.Options.StringSlice("fields")) == 0 {
				issues = append(issues, warnf(base+".options.fields", "require has no fields; no rows will be removed"))
			}
		case "dedup":
			dedupAt = i
			policy := t.Options.String("policy", "")
			if _, ok := dedupPolicies[policy]; !ok {
				issues = append(issues, errorf(base+".options.policy", "unknown dedup policy %q", policy))
			}
		default:
			issues = append(issues, errorf(base+".kind", "unknown transform kind %q", t.Kind))
		}
	}

	if dedupAt >= 0 && dedupAt < projectAt {
		issues = append(issues, warnf(fmt.Sprintf("transform[%d]", dedupAt),
			"dedup runs before project; rows differing only in dropped columns are not duplicates"))
	}
	return issues
}

func requireColumn(base string, o Options) []Issue {
	if strings.TrimSpace(o.String("column", "")) == "" {
		return []Issue{errorf(base+".options.column", "column must not be empty")}
	}
	return nil
}

func validateExplode(e Explode) []Issue {
	var issues []Issue
	if e.TopN < 0 {
		issues = append(issues, errorf("explode.top_n", "top_n must not be negative"))
	}
	for i, f := range e.Fields {
		if strings.TrimSpace(f.Column) == "" {
			issues = append(issues, errorf(fmt.Sprintf("explode.fields[%d].column", i), "column must not be empty"))
		}
	}
	return issues
}

func validateAggregate(a Aggregate) []Issue {
	if a.Key == "" && a.Companion != "" {
		return []Issue{errorf("aggregate.key", "companion %q is set without a key", a.Companion)}
	}
	return nil
}

func validateOutput(o Output, e Explode, a Aggregate) []Issue {
	var issues []Issue
	if strings.TrimSpace(o.Dir) == "" {
		issues = append(issues, errorf("output.dir", "output.dir must not be empty"))
	}

	base := o.BaseName
	if base == "" {
		base = "survey_clean"
	}
	seen := map[string]string{base: "output.base_name"}
	claim := func(name, path string) {
		if name == "" {
			return
		}
		if prev, dup := seen[name]; dup {
			issues = append(issues, errorf(path, "output name %q already used by %s", name, prev))
			return
		}
		seen[name] = path
	}
	for i, f := range e.Fields {
		name := f.Output
		if name == "" {
			name = f.Column
		}
		claim(name, fmt.Sprintf("explode.fields[%d].output", i))
	}
	if a.Key != "" {
		claim(a.GroupOutput, "aggregate.group_output")
		if a.Companion != "" {
			claim(a.CompanionOutput, "aggregate.companion_output")
		}
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	switch s.Kind {
	case "":
		return nil
	case "postgres", "sqlite", "mssql", "mysql":
	default:
		return append(issues, errorf("storage.kind", "unknown storage kind %q; want postgres, sqlite, mssql or mysql", s.Kind))
	}

	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, errorf("storage.db.dsn", "storage.db.dsn must not be empty"))
	}
	if !s.DB.AutoCreateTable {
		issues = append(issues, warnf("storage.db.auto_create_table", "auto_create_table is false; destination tables must already exist"))
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	switch m.Backend {
	case "", "none", "datadog", "dd":
	case "prom", "prometheus", "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			return []Issue{errorf("metrics.pushgateway_url", "prometheus backend requires a pushgateway url")}
		}
	default:
		return []Issue{errorf("metrics.backend", "unknown metrics backend %q", m.Backend)}
	}
	return nil
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.BatchSize <= 0 {
		issues = append(issues, warnf("runtime.batch_size", "batch_size=%d; a default will be used", r.BatchSize))
	}
	if r.LoaderWorkers < 0 {
		issues = append(issues, errorf("runtime.loader_workers", "loader_workers must not be negative"))
	}
	return issues
}
