// Package config defines the serializable configuration model of the survey
// ETL. A pipeline file may be JSON or YAML; both decode into the same struct
// graph, and every field omitted from the file keeps the value from Default.
//
// Example (YAML, trimmed):
//
//	job: survey
//	source:
//	  kind: http
//	  http: { url: "https://example.com/survey.csv", max_retries: 3 }
//	transform:
//	  - { kind: canonicalize, options: { column: Country, table: country } }
//	  - { kind: bucket, options: { column: Age, table: age } }
//	  - { kind: require, options: { fields: [Country, Age] } }
//	  - { kind: dedup, options: { policy: drop-all } }
//	explode:
//	  top_n: 10
//	  fields: [ { column: LanguageWantToWorkWith, output: top10_lang } ]
//	aggregate: { key: Country, companion: Age }
package config

import (
	"encoding/json"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job labels metrics and log lines for this pipeline.
	Job string `json:"job" yaml:"job"`

	// Source describes where the raw survey export comes from.
	Source Source `json:"source" yaml:"source"`

	// Parser configures how raw bytes are turned into records.
	Parser Parser `json:"parser" yaml:"parser"`

	// Transform lists the ordered record stages. Each has a kind and an
	// options bag whose shape is defined by the stage.
	Transform []Transform `json:"transform" yaml:"transform"`

	// Explode lists the multi-valued fields ranked into top-N tables.
	Explode Explode `json:"explode" yaml:"explode"`

	// Aggregate configures the grouped count / mean tables.
	Aggregate Aggregate `json:"aggregate" yaml:"aggregate"`

	Output  Output        `json:"output" yaml:"output"`
	Storage Storage       `json:"storage" yaml:"storage"`
	Metrics Metrics       `json:"metrics" yaml:"metrics"`
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`
}

// RuntimeConfig controls batching and fan-out of the load step.
type RuntimeConfig struct {
	// LoaderWorkers bounds concurrent table writes (files and DB).
	LoaderWorkers int `json:"loader_workers" yaml:"loader_workers"`
	// BatchSize is the number of rows per database copy.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// Source identifies the data source.
type Source struct {
	// Kind selects the implementation: "file" or "http".
	Kind string `json:"kind" yaml:"kind"`

	File SourceFile `json:"file" yaml:"file"`
	HTTP SourceHTTP `json:"http" yaml:"http"`

	// InputDir receives a verbatim copy of the downloaded export.
	InputDir string `json:"input_dir" yaml:"input_dir"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path" yaml:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL string `json:"url" yaml:"url"`
	// Timeout is a Go duration string, e.g. "90s".
	Timeout    string            `json:"timeout" yaml:"timeout"`
	MaxRetries int               `json:"max_retries" yaml:"max_retries"`
	Headers    map[string]string `json:"headers" yaml:"headers"`
}

// Parser selects how to parse the raw source.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind" yaml:"kind"`

	// Options is interpreted by the parser. For CSV:
	//   comma (string), trim_space (bool), normalize_headers (bool),
	//   header_map (object)
	Options Options `json:"options" yaml:"options"`
}

// Transform defines a single record stage.
type Transform struct {
	// Kind is one of "canonicalize", "bucket", "normalize", "coerce",
	// "project", "require", "dedup".
	Kind string `json:"kind" yaml:"kind"`

	Options Options `json:"options" yaml:"options"`
}

// Explode configures the multi-valued field rankings.
type Explode struct {
	Delimiter string         `json:"delimiter" yaml:"delimiter"`
	TopN      int            `json:"top_n" yaml:"top_n"`
	Fields    []ExplodeField `json:"fields" yaml:"fields"`
}

// ExplodeField is one ranked column.
type ExplodeField struct {
	Column string `json:"column" yaml:"column"`
	Label  string `json:"label" yaml:"label"`
	Output string `json:"output" yaml:"output"`
}

// Aggregate configures the grouped tables. An empty Key disables them.
type Aggregate struct {
	Key             string `json:"key" yaml:"key"`
	KeyLabel        string `json:"key_label" yaml:"key_label"`
	Companion       string `json:"companion" yaml:"companion"`
	AverageLabel    string `json:"average_label" yaml:"average_label"`
	CompanionLabel  string `json:"companion_label" yaml:"companion_label"`
	GroupOutput     string `json:"group_output" yaml:"group_output"`
	CompanionOutput string `json:"companion_output" yaml:"companion_output"`
}

// Output configures where result files go.
type Output struct {
	Dir string `json:"dir" yaml:"dir"`
	// BaseName is the file stem of the cleaned dataset.
	BaseName string `json:"base_name" yaml:"base_name"`
}

// Storage selects an optional database sink. An empty Kind disables it.
type Storage struct {
	// Kind selects the backend: "postgres", "sqlite", "mssql" or "mysql".
	Kind string   `json:"kind" yaml:"kind"`
	DB   DBConfig `json:"db" yaml:"db"`
}

// DBConfig configures the DB sink.
type DBConfig struct {
	// DSN is the driver connection string.
	DSN string `json:"dsn" yaml:"dsn"`

	// TablePrefix is prepended to every output table name, e.g. "survey_".
	TablePrefix string `json:"table_prefix" yaml:"table_prefix"`

	// AutoCreateTable issues CREATE TABLE IF NOT EXISTS before loading.
	AutoCreateTable bool `json:"auto_create_table" yaml:"auto_create_table"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is "", "none", "prom" (alias "prometheus", "pushgateway") or
	// "datadog" (alias "dd").
	Backend        string `json:"backend" yaml:"backend"`
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url"`
	// DatadogAddr is the DogStatsD address; empty uses the client default.
	DatadogAddr string `json:"datadog_addr" yaml:"datadog_addr"`
}

// Options fetches typed values from a free-form map. Values decoded from JSON
// arrive as float64, values from YAML as int; both convert through cast. A
// missing key or an inconvertible value yields def.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, err := cast.ToStringE(v); err == nil {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, err := cast.ToBoolE(v); err == nil {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		if n, err := cast.ToIntE(v); err == nil {
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def when it is
// missing or empty.
func (o Options) Rune(key string, def rune) rune {
	if s := o.String(key, ""); s != "" {
		return []rune(s)[0]
	}
	return def
}

// StringMap returns key as a map[string]string. Non-string values are
// dropped. Missing or non-object values give an empty map.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, err := cast.ToStringMapE(v); err == nil {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// StringSlice returns key as a []string, or nil when missing or not a list.
func (o Options) StringSlice(key string) []string {
	v, ok := o[key]
	if !ok {
		return nil
	}
	switch v.(type) {
	case []any, []string:
		if s, err := cast.ToStringSliceE(v); err == nil {
			return s
		}
	}
	return nil
}

// Any returns the raw value for key.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON decodes a missing or null options object to an empty,
// non-nil map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

// UnmarshalYAML is the YAML counterpart of UnmarshalJSON.
func (o *Options) UnmarshalYAML(n *yaml.Node) error {
	var tmp map[string]any
	if err := n.Decode(&tmp); err != nil {
		return err
	}
	if tmp == nil {
		tmp = map[string]any{}
	}
	*o = Options(tmp)
	return nil
}
