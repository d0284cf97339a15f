package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSourceURL is the public survey export with planted duplicates.
const DefaultSourceURL = "https://cf-courses-data.s3.us.cloud-object-storage.appdomain.cloud/VYPrOu0Vs3I0hKLLjiPGrA/survey-data-with-duplicate.csv"

// Survey columns.
const (
	ColCountry      = "Country"
	ColAge          = "Age"
	ColLanguageHave = "LanguageHaveWorkedWith"
	ColLanguageWant = "LanguageWantToWorkWith"
	ColDatabaseHave = "DatabaseHaveWorkedWith"
	ColDatabaseWant = "DatabaseWantToWorkWith"
	ColPlatformHave = "PlatformHaveWorkedWith"
	ColPlatformWant = "PlatformWantToWorkWith"
	ColWebframeHave = "WebframeHaveWorkedWith"
	ColWebframeWant = "WebframeWantToWorkWith"
)

// Pipeline presets accepted by Preset.
const (
	PresetDefault  = "default"
	PresetExtended = "extended"
)

const (
	defaultInputDir    = "data"
	defaultOutputDir   = "output"
	defaultTopN        = 10
	defaultBatchSize   = 5000
	defaultHTTPTimeout = "60s"
)

// SurveyColumns are the columns kept in the cleaned dataset, in output order.
func SurveyColumns() []string {
	return []string{
		ColCountry, ColAge,
		ColLanguageHave, ColLanguageWant,
		ColDatabaseHave, ColDatabaseWant,
		ColPlatformHave, ColPlatformWant,
	}
}

// ExtendedColumns are SurveyColumns plus the two web framework columns.
func ExtendedColumns() []string {
	return append(SurveyColumns(), ColWebframeHave, ColWebframeWant)
}

func stringsAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// Default returns the survey pipeline: canonicalize Country, bucket Age,
// keep the eight survey columns, drop rows missing any of them, remove every
// duplicated row, then rank the six technology fields and summarize by
// country.
//
// The "want" fields produce the plain top10_* tables and the "have" fields
// the *_future tables, matching the published file names.
func Default() Pipeline {
	cols := SurveyColumns()
	return Pipeline{
		Job: "survey",
		Source: Source{
			Kind:     "http",
			HTTP:     SourceHTTP{URL: DefaultSourceURL, Timeout: defaultHTTPTimeout, MaxRetries: 3},
			InputDir: defaultInputDir,
		},
		Parser: Parser{Kind: "csv", Options: Options{}},
		Transform: []Transform{
			{Kind: "canonicalize", Options: Options{"column": ColCountry, "table": "country"}},
			{Kind: "bucket", Options: Options{"column": ColAge, "table": "age"}},
			{Kind: "project", Options: Options{"columns": stringsAny(cols)}},
			{Kind: "require", Options: Options{"fields": stringsAny(cols)}},
			{Kind: "dedup", Options: Options{"policy": "drop-all"}},
		},
		Explode: Explode{
			Delimiter: ";",
			TopN:      defaultTopN,
			Fields: []ExplodeField{
				{Column: ColDatabaseWant, Output: "top10_db"},
				{Column: ColDatabaseHave, Output: "top10_db_future"},
				{Column: ColLanguageWant, Output: "top10_lang"},
				{Column: ColLanguageHave, Output: "top10_lang_future"},
				{Column: ColPlatformWant, Output: "top10_platform"},
				{Column: ColPlatformHave, Output: "top10_platform_future"},
			},
		},
		Aggregate: Aggregate{
			Key:             ColCountry,
			Companion:       ColAge,
			AverageLabel:    "Average Age",
			GroupOutput:     "countries_age",
			CompanionOutput: "dev_age",
		},
		Output:  Output{Dir: defaultOutputDir, BaseName: "survey_clean"},
		Metrics: Metrics{Backend: "none"},
		Runtime: RuntimeConfig{LoaderWorkers: 4, BatchSize: defaultBatchSize},
	}
}

// Extended is Default with the web framework columns projected, required and
// ranked into top10_webframe and top10_webframe_future.
func Extended() Pipeline {
	p := Default()
	cols := stringsAny(ExtendedColumns())
	for i, t := range p.Transform {
		switch t.Kind {
		case "project":
			p.Transform[i].Options = Options{"columns": cols}
		case "require":
			p.Transform[i].Options = Options{"fields": cols}
		}
	}
	p.Explode.Fields = append(p.Explode.Fields,
		ExplodeField{Column: ColWebframeWant, Output: "top10_webframe"},
		ExplodeField{Column: ColWebframeHave, Output: "top10_webframe_future"},
	)
	return p
}

// Preset returns a built-in pipeline by name. An empty name is the default.
func Preset(name string) (Pipeline, error) {
	switch strings.ToLower(name) {
	case "", PresetDefault:
		return Default(), nil
	case PresetExtended:
		return Extended(), nil
	default:
		return Pipeline{}, fmt.Errorf("unknown preset %q (want %s or %s)", name, PresetDefault, PresetExtended)
	}
}

// Load reads a pipeline file. ".yaml" and ".yml" files are decoded as YAML,
// anything else as JSON. Fields absent from the file keep their Default
// values; unknown fields are an error.
func Load(path string) (Pipeline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read config: %w", err)
	}
	p := Default()
	// Decoders merge into existing slice elements; lists in the file replace
	// the defaults instead.
	transforms, fields := p.Transform, p.Explode.Fields
	p.Transform, p.Explode.Fields = nil, nil

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
			return Pipeline{}, fmt.Errorf("parse yaml config %s: %w", path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return Pipeline{}, fmt.Errorf("parse json config %s: %w", path, err)
		}
	}

	if p.Transform == nil {
		p.Transform = transforms
	}
	if p.Explode.Fields == nil {
		p.Explode.Fields = fields
	}
	return p, nil
}
