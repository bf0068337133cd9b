// Package profile samples a dataset, profiles its columns, and generates a
// runnable pipeline config.
//
// This is the day-one workflow on a new crash extract: point the profiler at
// the file, read the quality report, then refine the emitted config instead
// of writing one from scratch. Sampling is bounded, detection is
// best-effort, and the generated pipeline carries safe defaults.
package profile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"crashprep/internal/config"
	"crashprep/internal/explode"
	csvloader "crashprep/internal/loader/csv"
	"crashprep/internal/loader/htmltable"
	jsonloader "crashprep/internal/loader/json"
	"crashprep/internal/render"
	"crashprep/internal/report"
	"crashprep/internal/table"
)

// Options control sampling, detection, and naming.
type Options struct {
	// Path is the local dataset file. When Kind is empty it is sniffed from
	// the extension, then from a peek at the content.
	Path string

	// URL fetches the dataset over HTTP instead; implies an html source.
	URL string

	// Kind forces the source kind: "csv", "json", or "html".
	Kind string

	// MaxRows bounds the sample. <= 0 means 500.
	MaxRows int

	// Delimiter is the multi-value separator to scan for. Empty means ",".
	Delimiter string

	// Columns restricts multi-value detection to the named columns.
	Columns []string

	// MinShare is the detection threshold, passed through to the classifier.
	MinShare float64

	// Name is the dataset name used for job and output naming. Empty means
	// "crash_data".
	Name string

	// Job overrides the job name recorded in the generated config; defaults
	// to the normalized Name.
	Job string
}

// Profile is what the sample revealed.
type Profile struct {
	// SampledRows is how many rows the bounded sample held.
	SampledRows int

	// Columns is the sampled header, in table order.
	Columns []string

	// Quality holds the per-column profile, worst columns first.
	Quality []report.ColumnQuality

	// MultiValue lists the columns flagged as delimiter-packed.
	MultiValue []string

	// Delimiter is the separator the detection scanned for.
	Delimiter string

	sourceKind string
}

// Run loads a bounded sample of the dataset named by opt and profiles it.
func Run(ctx context.Context, opt Options) (*Profile, error) {
	kind, err := resolveKind(opt)
	if err != nil {
		return nil, err
	}

	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = 500
	}
	delim := opt.Delimiter
	if delim == "" {
		delim = ","
	}

	tab, err := loadSample(ctx, kind, opt, maxRows, delim)
	if err != nil {
		return nil, err
	}

	delimRune, _ := utf8.DecodeRuneInString(delim)
	mv, err := explode.DetectMultiValue(tab, explode.DetectOptions{
		Columns:   opt.Columns,
		Delimiter: delimRune,
		MinShare:  opt.MinShare,
	})
	if err != nil {
		return nil, fmt.Errorf("profile: detect multi-value: %w", err)
	}

	return &Profile{
		SampledRows: tab.NumRows(),
		Columns:     tab.Columns(),
		Quality:     report.Quality(tab),
		MultiValue:  mv,
		Delimiter:   delim,
		sourceKind:  kind,
	}, nil
}

// resolveKind picks the source kind: explicit Kind wins, a URL means html,
// then the file extension, then a peek at the content.
func resolveKind(opt Options) (string, error) {
	if opt.Kind != "" {
		switch opt.Kind {
		case "csv", "json", "html":
			return opt.Kind, nil
		}
		return "", fmt.Errorf("profile: unsupported source kind %q", opt.Kind)
	}
	if opt.URL != "" {
		return "html", nil
	}
	if opt.Path == "" {
		return "", fmt.Errorf("profile: need a path or a url")
	}

	switch strings.ToLower(filepath.Ext(opt.Path)) {
	case ".csv", ".tsv":
		return "csv", nil
	case ".json", ".jsonl", ".ndjson":
		return "json", nil
	case ".html", ".htm":
		return "html", nil
	}

	peek, err := peekFile(opt.Path, 512)
	if err != nil {
		return "", err
	}
	return sniffKind(peek), nil
}

// sniffKind guesses the format from the first bytes: markup starts with '<',
// JSON with '{' or '[', anything else reads as CSV.
func sniffKind(peek []byte) string {
	trim := bytes.TrimSpace(peek)
	if len(trim) == 0 {
		return "csv"
	}
	switch trim[0] {
	case '<':
		return "html"
	case '{', '[':
		return "json"
	}
	return "csv"
}

func peekFile(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	defer f.Close()

	buf := make([]byte, n)
	m, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("profile: peek %s: %w", path, err)
	}
	return buf[:m], nil
}

func loadSample(ctx context.Context, kind string, opt Options, maxRows int, delim string) (*table.Table, error) {
	switch kind {
	case "csv":
		return csvloader.LoadFile(ctx, opt.Path, config.Options{"max_rows": maxRows})

	case "json":
		// The join separator matches the detection delimiter so scalar
		// arrays pack into cells the classifier will flag.
		tab, err := jsonloader.LoadFile(ctx, opt.Path, config.Options{"array_join_separator": delim})
		if err != nil {
			return nil, err
		}
		return headRows(tab, maxRows), nil

	case "html":
		src := config.Options{}
		if opt.Path != "" {
			src["path"] = opt.Path
		} else {
			src["url"] = opt.URL
		}
		tab, err := htmltable.Load(ctx, src)
		if err != nil {
			return nil, err
		}
		return headRows(tab, maxRows), nil

	default:
		return nil, fmt.Errorf("profile: unsupported source kind %q", kind)
	}
}

// headRows bounds a loaded table to its first maxRows rows.
func headRows(t *table.Table, maxRows int) *table.Table {
	if maxRows <= 0 || t.NumRows() <= maxRows {
		return t
	}
	out := table.MustNew(t.Columns()...)
	for r := 0; r < maxRows; r++ {
		if err := out.AppendRow(t.Row(r)...); err != nil {
			// rows come from a table with the same columns
			panic(err)
		}
	}
	return out
}

// Report renders the profile as text: a summary line, the flagged columns,
// and the per-column quality table.
func (p *Profile) Report() string {
	if p.SampledRows <= 0 {
		return "profile: no rows sampled"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "profile: sampled_rows=%d columns=%d source=%s\n", p.SampledRows, len(p.Columns), p.sourceKind)
	if len(p.MultiValue) > 0 {
		fmt.Fprintf(&b, "multi-value columns (delimiter %q): %s\n", p.Delimiter, strings.Join(p.MultiValue, ", "))
	} else {
		fmt.Fprintf(&b, "multi-value columns (delimiter %q): none\n", p.Delimiter)
	}
	b.WriteByte('\n')

	var tbl bytes.Buffer
	// writes to a bytes.Buffer cannot fail
	_ = render.NewText().Format(report.QualityTable(p.Quality), &tbl)
	b.Write(tbl.Bytes())

	return strings.TrimRight(b.String(), "\n")
}

// Pipeline generates a runnable config for the profiled dataset: the same
// source, a validate_columns step pinning the sampled schema, an explode
// step, and a CSV output named after the dataset.
//
// The explode step is always present. When detection flagged columns they
// are written into the step; otherwise the step is left without columns and
// the run detects them itself, since a bounded sample can miss packing that
// only appears in later rows.
func (p *Profile) Pipeline(opt Options) config.Pipeline {
	name := normalizeName(opt.Name)
	if name == "" {
		name = "crash_data"
	}
	job := strings.TrimSpace(opt.Job)
	if job == "" {
		job = name
	}

	src := config.Options{}
	switch p.sourceKind {
	case "csv":
		src["path"] = opt.Path
	case "json":
		src["path"] = opt.Path
		if p.Delimiter != "," {
			src["array_join_separator"] = p.Delimiter
		}
	case "html":
		if opt.Path != "" {
			src["path"] = opt.Path
		} else {
			src["url"] = opt.URL
		}
	}

	steps := []config.Step{
		{Kind: "validate_columns", Options: config.Options{"columns": p.Columns}},
	}
	ex := config.Options{"delimiter": p.Delimiter}
	if len(p.MultiValue) > 0 {
		ex["columns"] = p.MultiValue
	}
	steps = append(steps, config.Step{Kind: "explode", Options: ex})

	return config.Pipeline{
		Job:    job,
		Source: config.Source{Kind: p.sourceKind, Options: src},
		Steps:  steps,
		Output: config.Output{Kind: "csv", Options: config.Options{"path": name + "_prepared.csv"}},
	}
}

// normalizeName converts an arbitrary dataset name into a safe lowercase
// identifier for job and file naming.
func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	lastUnderscore := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case r == '_':
			if !lastUnderscore {
				b.WriteByte('_')
			}
			lastUnderscore = true
		default:
			if !lastUnderscore {
				b.WriteByte('_')
			}
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}
