// Wiring between the pipeline config and the concrete collaborators. This
// file keeps main thin: it depends on storage-agnostic interfaces and never
// imports database drivers directly.

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"survey/internal/config"
	"survey/internal/datasource"
	"survey/internal/datasource/file"
	"survey/internal/datasource/httpds"
	"survey/internal/metrics"
	"survey/internal/metrics/datadog"
	"survey/internal/metrics/prompush"
	"survey/internal/output"
	"survey/internal/parser"
	csvparser "survey/internal/parser/csv"
	"survey/internal/pipeline"
	"survey/internal/storage"
)

// overrides are the flag values that take precedence over the config file.
type overrides struct {
	inputDir       string
	outputDir      string
	sourceURL      string
	metricsBackend string
	pushgatewayURL string
}

// Function variables used as test seams.
var (
	newRepositoryFn = storage.New
	runFn           = pipeline.Run
)

// loadPipeline reads path, or returns the built-in preset named variant when
// path is empty.
func loadPipeline(path, variant string) (config.Pipeline, error) {
	if path == "" {
		return config.Preset(variant)
	}
	if variant != "" {
		return config.Pipeline{}, fmt.Errorf("-variant %s cannot be combined with -config", variant)
	}
	return config.Load(path)
}

// apply copies non-empty flag values onto p. A source URL switches the
// source to HTTP.
func (o overrides) apply(p *config.Pipeline) {
	if o.inputDir != "" {
		p.Source.InputDir = o.inputDir
	}
	if o.outputDir != "" {
		p.Output.Dir = o.outputDir
	}
	if o.sourceURL != "" {
		p.Source.Kind = "http"
		p.Source.HTTP.URL = o.sourceURL
	}
	if o.metricsBackend != "" {
		p.Metrics.Backend = o.metricsBackend
	}
	if o.pushgatewayURL != "" {
		p.Metrics.PushgatewayURL = o.pushgatewayURL
	}
}

// ensureDirs creates the input and output directories if absent.
func ensureDirs(p config.Pipeline) error {
	for _, dir := range []string{p.Source.InputDir, p.Output.Dir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// newSource maps source configuration onto a datasource.Source.
func newSource(s config.Source) (datasource.Source, error) {
	switch s.Kind {
	case "file":
		return file.NewLocal(s.File.Path), nil
	case "http":
		var timeout time.Duration
		if s.HTTP.Timeout != "" {
			d, err := time.ParseDuration(s.HTTP.Timeout)
			if err != nil {
				return nil, fmt.Errorf("source.http.timeout: %w", err)
			}
			timeout = d
		}
		headers := http.Header{}
		for k, v := range s.HTTP.Headers {
			headers.Set(k, v)
		}
		client := httpds.NewClient(httpds.Config{
			Timeout:    timeout,
			MaxRetries: s.HTTP.MaxRetries,
			Headers:    headers,
		})
		return httpds.NewSource(client, s.HTTP.URL), nil
	default:
		return nil, fmt.Errorf("unsupported source.kind=%s", s.Kind)
	}
}

// newParser maps parser configuration onto a concrete parser.
func newParser(p config.Parser) (parser.Parser, error) {
	switch p.Kind {
	case "", "csv":
		return csvparser.NewParser(csvparser.Options{
			Comma:            p.Options.Rune("comma", ','),
			TrimSpace:        p.Options.Bool("trim_space", false),
			NormalizeHeaders: p.Options.Bool("normalize_headers", false),
			HeaderMap:        p.Options.StringMap("header_map"),
			LazyQuotes:       p.Options.Bool("lazy_quotes", true),
			MaxLoggedSkips:   p.Options.Int("max_logged_skips", 0),
		}), nil
	default:
		return nil, fmt.Errorf("unsupported parser.kind=%s", p.Kind)
	}
}

// setupMetrics installs the configured backend and returns a flush func that
// is always safe to call.
func setupMetrics(m config.Metrics, job string) func() {
	flush := func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}

	switch m.Backend {
	case "prom", "prometheus", "pushgateway":
		b, err := prompush.NewBackend(job, m.PushgatewayURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return flush
		}
		log.Printf("metrics: url=%v, backend=%v, job_name=%v", m.PushgatewayURL, m.Backend, job)
		metrics.SetBackend(b)

	case "datadog", "dd":
		b, err := datadog.NewBackend(datadog.Config{Addr: m.DatadogAddr, GlobalTags: []string{"job:" + job}})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return flush
		}
		log.Printf("metrics: addr=%v, backend=%v, job_name=%v", m.DatadogAddr, m.Backend, job)
		metrics.SetBackend(b)

	case "", "none":
		// nop backend remains

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", m.Backend)
	}
	return flush
}

// execute resolves p into collaborators and runs the pipeline.
func execute(ctx context.Context, p config.Pipeline) (pipeline.Report, error) {
	cfg, err := pipeline.FromPipeline(p)
	if err != nil {
		return pipeline.Report{}, err
	}
	src, err := newSource(p.Source)
	if err != nil {
		return pipeline.Report{}, err
	}
	prs, err := newParser(p.Parser)
	if err != nil {
		return pipeline.Report{}, err
	}

	deps := pipeline.Deps{
		Source: src,
		Parser: prs,
		Writer: output.Writer{Dir: p.Output.Dir, BaseName: p.Output.BaseName, Workers: p.Runtime.LoaderWorkers},
	}

	if p.Storage.Kind != "" {
		repo, err := newRepositoryFn(ctx, storage.Config{Kind: p.Storage.Kind, DSN: p.Storage.DB.DSN})
		if err != nil {
			return pipeline.Report{}, fmt.Errorf("init repo: %w", err)
		}
		defer repo.Close()
		deps.Repo = repo
		deps.Load = storage.LoadOptions{
			Kind:       p.Storage.Kind,
			Job:        p.Job,
			Prefix:     p.Storage.DB.TablePrefix,
			AutoCreate: p.Storage.DB.AutoCreateTable,
			BatchSize:  p.Runtime.BatchSize,
			Workers:    p.Runtime.LoaderWorkers,
		}
	}

	return runFn(ctx, cfg, deps)
}
