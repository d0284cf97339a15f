// Command surveyprobe samples the first N bytes of a survey export and prints
// a per-column profile. With -format yaml it prints a pipeline config whose
// explode fields cover every multi-valued column found in the sample.
//
// Example:
//
//	surveyprobe -url="https://example.com/survey.csv" -bytes=200000 -format=text
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"survey/internal/config"
	"survey/internal/probe"
)

func main() {
	var (
		url      = flag.String("url", config.DefaultSourceURL, "URL (or file path) of the survey CSV to sample")
		maxBytes = flag.Int("bytes", 200000, "number of bytes to sample from the start of the file")
		delim    = flag.String("delimiter", ",", "CSV field delimiter (single character)")
		multi    = flag.String("multi", ";", "separator inside multi-valued cells")
		format   = flag.String("format", "text", "output format: text, json or yaml (suggested pipeline)")
		save     = flag.String("save", "", "write the sampled bytes to this path")
		insecure = flag.Bool("insecure", false, "skip TLS certificate verification")
		timeout  = flag.Duration("timeout", 60*time.Second, "overall timeout")
	)
	flag.Parse()

	comma := ','
	if *delim != "" {
		if r, _ := utf8.DecodeRuneInString(*delim); r != utf8.RuneError {
			comma = r
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rep, err := probe.Probe(ctx, probe.Options{
		URL:              *url,
		MaxBytes:         *maxBytes,
		Delimiter:        comma,
		MultiDelimiter:   *multi,
		SavePath:         *save,
		AllowInsecureTLS: *insecure,
	})
	if err != nil {
		fatalf("%v", err)
	}
	if err := render(os.Stdout, rep, *format); err != nil {
		fatalf("%v", err)
	}
}

func render(w io.Writer, rep probe.Report, format string) error {
	switch format {
	case "text":
		return rep.WriteText(w)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "yaml":
		p := rep.Suggest(config.Default())
		p.Source.HTTP.URL = rep.Source
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown -format %q; want text, json or yaml", format)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
