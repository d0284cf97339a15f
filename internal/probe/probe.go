// Package probe samples the head of a survey export and profiles its columns:
// inferred kind, null and distinct counts, and for multi-valued columns the
// most frequent tags. The profile can seed a pipeline config.
package probe

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cast"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"survey/internal/config"
	"survey/internal/datasource/file"
	"survey/internal/datasource/httpds"
	"survey/internal/explode"
	csvparser "survey/internal/parser/csv"
	"survey/pkg/records"
)

// Options control sampling.
type Options struct {
	// URL is an http(s) URL, a file:// URL or a plain path.
	URL string
	// MaxBytes to sample from the start of the input.
	MaxBytes int
	// Delimiter is the CSV field separator; zero means ','.
	Delimiter rune
	// MultiDelimiter separates tags inside multi-valued cells; empty means ";".
	MultiDelimiter string
	// TopValues is how many frequent values to keep per column; zero means 3.
	TopValues int
	// SavePath, when set, receives the sampled bytes.
	SavePath string
	// AllowInsecureTLS skips TLS verification for HTTP sources.
	AllowInsecureTLS bool
}

// Kind is the inferred shape of a column.
type Kind string

const (
	KindEmpty  Kind = "empty"
	KindNumber Kind = "number"
	KindText   Kind = "text"
	KindMulti  Kind = "multi"
)

// Column is the profile of one column.
type Column struct {
	Name     string   `json:"name"`
	Field    string   `json:"field"`
	Kind     Kind     `json:"kind"`
	NonNull  int      `json:"non_null"`
	Nulls    int      `json:"nulls"`
	Distinct int      `json:"distinct"`
	MaxTags  int      `json:"max_tags,omitempty"`
	Top      []string `json:"top,omitempty"`
}

// Report is the result of Probe.
type Report struct {
	Source      string   `json:"source"`
	SampleBytes int      `json:"sample_bytes"`
	Rows        int      `json:"rows"`
	Skipped     int      `json:"skipped"`
	Columns     []Column `json:"columns"`
}

// peekFn fetches the first n bytes of url. Tests replace it to avoid I/O.
var peekFn = func(ctx context.Context, url string, n int, insecure bool) ([]byte, error) {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		client := httpds.NewClient(httpds.Config{InsecureSkipVerify: insecure})
		return client.FetchFirstBytes(ctx, url, n)
	}

	rc, err := file.NewLocal(strings.TrimPrefix(url, "file://")).Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, int64(n)))
}

// Probe samples opt.URL and profiles the parsed rows.
func Probe(ctx context.Context, opt Options) (Report, error) {
	if opt.MaxBytes <= 0 {
		return Report{}, fmt.Errorf("probe: MaxBytes must be > 0")
	}
	data, err := peekFn(ctx, opt.URL, opt.MaxBytes, opt.AllowInsecureTLS)
	if err != nil {
		return Report{}, fmt.Errorf("probe %s: %w", opt.URL, err)
	}
	// Cut to the last newline so a partial trailing record is not parsed.
	if len(data) >= opt.MaxBytes {
		if i := bytes.LastIndexByte(data, '\n'); i > 0 {
			data = data[:i+1]
		}
	}

	if opt.SavePath != "" {
		if err := writeSample(opt.SavePath, data); err != nil {
			return Report{}, err
		}
	}

	rs, skipped, err := csvparser.NewParser(csvparser.Options{Comma: opt.Delimiter}).Parse(bytes.NewReader(data))
	if err != nil {
		return Report{}, err
	}
	return Report{
		Source:      opt.URL,
		SampleBytes: len(data),
		Rows:        rs.Len(),
		Skipped:     skipped,
		Columns:     Profile(rs, opt.MultiDelimiter, opt.TopValues),
	}, nil
}

// Profile describes every column of rs.
func Profile(rs records.RecordSet, multiDelim string, top int) []Column {
	if multiDelim == "" {
		multiDelim = ";"
	}
	if top <= 0 {
		top = 3
	}

	out := make([]Column, 0, len(rs.Columns))
	for _, name := range rs.Columns {
		c := Column{Name: name, Field: normalizeFieldName(name)}
		numeric, multi := true, false
		var values []string
		for _, v := range rs.Column(name) {
			if v == nil {
				c.Nulls++
				continue
			}
			c.NonNull++
			s := cast.ToString(v)
			values = append(values, s)
			if _, err := cast.ToFloat64E(strings.TrimSpace(s)); err != nil {
				numeric = false
			}
			if strings.Contains(s, multiDelim) {
				multi = true
			}
		}

		switch {
		case c.NonNull == 0:
			c.Kind = KindEmpty
		case numeric:
			c.Kind = KindNumber
		case multi:
			c.Kind = KindMulti
		default:
			c.Kind = KindText
		}

		freq := explode.Count(values)
		c.Distinct = len(freq.Entries)
		if c.Kind == KindMulti {
			for _, s := range values {
				if n := len(strings.Split(s, multiDelim)); n > c.MaxTags {
					c.MaxTags = n
				}
			}
			freq = explode.Count(explode.Explode(records.New([]string{name}, recordsOf(name, values)), name, multiDelim))
		}
		for _, e := range freq.Top(top).Entries {
			c.Top = append(c.Top, e.Tag)
		}
		out = append(out, c)
	}
	return out
}

func recordsOf(column string, values []string) []records.Record {
	out := make([]records.Record, len(values))
	for i, v := range values {
		out[i] = records.Record{column: v}
	}
	return out
}

// Suggest returns base with one ranked explode field per multi-valued
// column. Output names are "top<N>_" plus the normalized column name.
func (r Report) Suggest(base config.Pipeline) config.Pipeline {
	p := base
	p.Explode.Fields = nil
	for _, c := range r.Columns {
		if c.Kind != KindMulti {
			continue
		}
		p.Explode.Fields = append(p.Explode.Fields, config.ExplodeField{
			Column: c.Name,
			Output: fmt.Sprintf("top%d_%s", p.Explode.TopN, c.Field),
		})
	}
	if len(p.Explode.Fields) == 0 {
		p.Explode.Fields = base.Explode.Fields
	}
	return p
}

// WriteText renders the report as CSV rows of name, field, kind, non_null,
// nulls, distinct and the "|"-joined top values.
func (r Report) WriteText(w io.Writer) error {
	cw := csv.NewWriter(w)
	for _, c := range r.Columns {
		rec := []string{
			c.Name, c.Field, string(c.Kind),
			strconv.Itoa(c.NonNull), strconv.Itoa(c.Nulls), strconv.Itoa(c.Distinct),
			strings.Join(c.Top, "|"),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// normalizeFieldName converts header text into a lowercase ASCII identifier:
// accents are stripped, runs of space, dash, dot and underscore become one
// underscore, anything else outside [a-z0-9] is dropped. Empty results
// become "col".
func normalizeFieldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "col"
	}
	return name
}
