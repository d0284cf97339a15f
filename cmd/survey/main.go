// Command survey downloads the developer survey export, cleans it and writes
// the cleaned dataset (CSV and Parquet) plus the top-10 and per-country
// tables. With storage configured, every output is also loaded into a
// database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"

	"survey/internal/config"

	// register all backends with the storage factory.
	_ "survey/internal/storage/all"
)

func main() {
	var (
		cfgPath  string
		variant  string
		validate bool
		ov       overrides
	)

	flag.StringVar(&cfgPath, "config", "", "pipeline config path (.json, .yaml); empty uses the built-in survey pipeline")
	flag.StringVar(&variant, "variant", "", "built-in pipeline when -config is empty: default, or extended (adds web frameworks)")
	flag.StringVar(&ov.inputDir, "input-dir", "", "directory for the raw input copy (default data)")
	flag.StringVar(&ov.outputDir, "output-dir", "", "directory for output files (default output)")
	flag.StringVar(&ov.sourceURL, "source-url", "", "download the survey from this URL")
	flag.StringVar(&ov.metricsBackend, "metrics-backend", "", "metrics backend (none, prom, datadog); overrides env METRICS_BACKEND")
	flag.StringVar(&ov.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")
	flag.Parse()

	if ov.metricsBackend == "" {
		ov.metricsBackend = os.Getenv("METRICS_BACKEND")
	}
	if ov.pushgatewayURL == "" {
		ov.pushgatewayURL = os.Getenv("PUSHGATEWAY_URL")
	}

	p, err := loadPipeline(cfgPath, variant)
	if err != nil {
		fatalf("load config: %v", err)
	}
	ov.apply(&p)

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("Configuration is invalid: %v", describe(cfgPath, variant))
		os.Exit(1)
	}
	if validate {
		log.Printf("Configuration is valid: %v", describe(cfgPath, variant))
		os.Exit(0)
	}

	if err := ensureDirs(p); err != nil {
		fatalf("%v", err)
	}

	flush := setupMetrics(p.Metrics, p.Job)
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	start := time.Now()

	if *verbose {
		log.Printf("pipeline: source=%s parser=%s storage=%s output=%s",
			p.Source.Kind, p.Parser.Kind, p.Storage.Kind, p.Output.Dir)
	}

	rep, err := execute(ctx, p)
	if err != nil {
		flush()
		log.Fatalf("%v", err)
	}

	log.Printf("survey: run=%s parsed=%d null_removed=%d duplicates_removed=%d clean=%d tables=%d csv=%s parquet=%s",
		rep.RunID, rep.Parsed, rep.Stats.NullRemoved, rep.Stats.Dedup.Removed, rep.Stats.Clean, rep.Tables,
		humanize.Bytes(uint64(rep.Sizes.CSVBytes)), humanize.Bytes(uint64(rep.Sizes.ParquetBytes)))
	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

func describe(cfgPath, variant string) string {
	if cfgPath == "" {
		if variant == "" {
			variant = config.PresetDefault
		}
		return "built-in " + variant + " survey pipeline"
	}
	return cfgPath
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
