// Package pipeline executes one configured preparation run: load the source
// table, apply the transform steps in order, write the resulting table.
//
// The run loop is deliberately sequential. Crash extracts fit in memory and
// every step is a pure table-to-table function, so orchestration stays a
// loop; the explode step fans out internally when configured with workers.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"crashprep/internal/config"
	"crashprep/internal/explode"
	csvloader "crashprep/internal/loader/csv"
	"crashprep/internal/loader/db"
	"crashprep/internal/loader/htmltable"
	jsonloader "crashprep/internal/loader/json"
	"crashprep/internal/metrics"
	"crashprep/internal/render"
	"crashprep/internal/table"
	"crashprep/internal/temporal"
	"crashprep/internal/validate"
)

// Logger is the minimal logging interface the runner uses. *log.Logger
// satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

// LoadFn produces the input table for a source config.
type LoadFn func(ctx context.Context, src config.Source) (*table.Table, error)

// Runner executes pipelines. The zero value runs with the production
// loaders, a discarded log, and stdout for path-less output.
type Runner struct {
	// Logger receives stage logs. nil discards them.
	Logger Logger

	// Load is an optional seam replacing the production source loaders.
	Load LoadFn

	// Stdout receives output when the output options carry no path. nil
	// means os.Stdout.
	Stdout io.Writer

	// NewRunID overrides run id generation. nil means a random UUID.
	NewRunID func() string
}

// StepStat describes one executed step.
type StepStat struct {
	Kind     string
	RowsIn   int
	RowsOut  int
	Duration time.Duration
}

// Result summarizes a completed run.
type Result struct {
	RunID   string
	Job     string
	RowsIn  int
	RowsOut int
	Steps   []StepStat
	Elapsed time.Duration
}

// Run validates p, loads its source, applies the steps in config order, and
// writes the output. Config warnings are logged; config errors, a failing
// load, the first failing step, and a failing write each abort the run.
func (r *Runner) Run(ctx context.Context, p config.Pipeline) (*Result, error) {
	logf := r.logf()

	var invalid []string
	for _, iss := range config.ValidatePipeline(p) {
		if iss.Severity == config.SeverityError {
			invalid = append(invalid, iss.String())
			continue
		}
		logf("config: %s", iss)
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("pipeline: invalid config: %s", strings.Join(invalid, "; "))
	}

	job := p.Job
	if job == "" {
		job = "crashprep"
	}
	runID := r.runID()
	start := time.Now()
	logf("run=%s job=%s source=%s steps=%d", runID, job, p.Source.Kind, len(p.Steps))

	loadStart := time.Now()
	tab, err := r.load(ctx, p.Source)
	metrics.RecordStep("load", err, time.Since(loadStart))
	if err != nil {
		return nil, fmt.Errorf("pipeline: load %s source: %w", p.Source.Kind, err)
	}
	metrics.RecordRows("loaded", tab.NumRows())
	logf("stage=load ok kind=%s rows=%d cols=%d duration=%s",
		p.Source.Kind, tab.NumRows(), tab.NumCols(), durMS(loadStart))

	res := &Result{RunID: runID, Job: job, RowsIn: tab.NumRows()}

	for i, s := range p.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stepStart := time.Now()
		out, err := applyStep(s, tab)
		elapsed := time.Since(stepStart)
		metrics.RecordStep(s.Kind, err, elapsed)
		if err != nil {
			return nil, fmt.Errorf("pipeline: step %d (%s): %w", i+1, s.Kind, err)
		}

		stat := StepStat{Kind: s.Kind, RowsIn: tab.NumRows(), RowsOut: out.NumRows(), Duration: elapsed}
		res.Steps = append(res.Steps, stat)
		if s.Kind == "explode" && stat.RowsOut > stat.RowsIn {
			metrics.RecordRows("exploded", stat.RowsOut-stat.RowsIn)
		}
		logf("stage=step kind=%s rows_in=%d rows_out=%d duration=%s",
			s.Kind, stat.RowsIn, stat.RowsOut, durMS(stepStart))
		tab = out
	}

	res.RowsOut = tab.NumRows()
	metrics.RecordRows("output", tab.NumRows())

	writeStart := time.Now()
	err = r.writeOutput(p.Output, tab)
	metrics.RecordStep("write", err, time.Since(writeStart))
	if err != nil {
		return nil, fmt.Errorf("pipeline: write output: %w", err)
	}
	logf("stage=write ok kind=%s rows=%d duration=%s",
		outputKind(p.Output), tab.NumRows(), durMS(writeStart))

	metrics.IncCounter("prep_runs_total", 1, nil)
	res.Elapsed = time.Since(start)
	logf("run=%s done rows_in=%d rows_out=%d duration=%s",
		runID, res.RowsIn, res.RowsOut, res.Elapsed.Truncate(time.Millisecond))
	return res, nil
}

func (r *Runner) logf() func(format string, v ...any) {
	if r.Logger == nil {
		l := log.New(discardWriter{}, "", 0)
		return l.Printf
	}
	return r.Logger.Printf
}

func (r *Runner) runID() string {
	if r.NewRunID != nil {
		return r.NewRunID()
	}
	return uuid.NewString()
}

func (r *Runner) load(ctx context.Context, src config.Source) (*table.Table, error) {
	if r.Load != nil {
		return r.Load(ctx, src)
	}
	return loadSource(ctx, src)
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

// loadSource dispatches to the production loaders by source kind.
func loadSource(ctx context.Context, src config.Source) (*table.Table, error) {
	switch src.Kind {
	case "csv":
		return csvloader.LoadFile(ctx, src.Options.String("path", ""), src.Options)
	case "json":
		return jsonloader.LoadFile(ctx, src.Options.String("path", ""), src.Options)
	case "html":
		return htmltable.Load(ctx, src.Options)
	case "postgres", "sqlite", "mssql":
		return db.Load(ctx, src.Kind, src.Options)
	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

// applyStep runs one transform step. Option defaults follow the accident
// extract conventions so a minimal config works on BAAC-shaped data.
func applyStep(s config.Step, t *table.Table) (*table.Table, error) {
	switch s.Kind {
	case "validate_columns":
		cols := s.Options.Strings("columns")
		if len(cols) == 0 {
			cols = validate.AccidentColumns
		}
		if err := validate.RequiredColumns(t, cols); err != nil {
			return nil, err
		}
		return t, nil

	case "normalize_id":
		column := s.Options.String("column", "ID_accident")
		asInt := s.Options.Bool("as_int", true)
		return validate.NormalizeID(t, column, asInt)

	case "coerce_numeric":
		cols := s.Options.Strings("columns")
		if len(cols) == 0 {
			cols = validate.AccidentNumericColumns
		}
		return validate.CoerceNumeric(t, cols)

	case "parse_time":
		source := s.Options.String("column", "Date_and_hour")
		target := s.Options.String("target", "Datetime")
		return temporal.ParseTime(t, source, target)

	case "time_parts":
		column := s.Options.String("column", "Datetime")
		yearCol := s.Options.String("year_column", "Year")
		return temporal.TimeParts(t, column, yearCol)

	case "temporal_features":
		column := s.Options.String("column", "Datetime")
		prefix := s.Options.String("prefix", "t_")
		return temporal.Features(t, column, prefix)

	case "derive_age":
		yob := s.Options.String("year_of_birth", "Year_of_birth")
		ref := s.Options.String("reference_year", "Year")
		target := s.Options.String("target", "Age")
		return temporal.DeriveAge(t, yob, ref, target)

	case "explode":
		return applyExplode(s.Options, t)

	case "one_hot":
		return explode.OneHot(t, s.Options.Strings("columns"), explode.OneHotOptions{
			Delimiter: s.Options.Rune("delimiter", 0),
			MinCount:  s.Options.Int("min_count", 0),
			Prefixes:  s.Options.StringMap("prefixes"),
		})

	default:
		return nil, fmt.Errorf("unknown step kind %q", s.Kind)
	}
}

// applyExplode explodes the configured columns, detecting them first when
// the config names none. A table with nothing packed passes through.
func applyExplode(opt config.Options, t *table.Table) (*table.Table, error) {
	columns := opt.Strings("columns")
	delim := opt.Rune("delimiter", 0)

	if len(columns) == 0 {
		detected, err := explode.DetectMultiValue(t, explode.DetectOptions{
			Delimiter: delim,
			MinShare:  opt.Float("min_share", 0),
		})
		if err != nil {
			return nil, err
		}
		if len(detected) == 0 {
			return t, nil
		}
		columns = detected
	}

	return explode.Explode(t, columns, explode.Options{
		Delimiter:     delim,
		KeepEmptyRows: opt.Bool("keep_empty_rows", false),
		Strict:        opt.Bool("strict", false),
		Workers:       opt.Int("workers", 0),
	})
}

// writeOutput renders the final table. No path, or path "-", writes to the
// runner's stdout; kind "none" discards the table.
func (r *Runner) writeOutput(out config.Output, t *table.Table) error {
	kind := outputKind(out)
	if kind == "none" {
		return nil
	}

	f, err := render.ForKind(kind)
	if err != nil {
		return err
	}

	path := out.Options.String("path", "")
	if path == "" || path == "-" {
		return f.Format(t, r.stdout())
	}

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := f.Format(t, dst); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func outputKind(out config.Output) string {
	if out.Kind == "" {
		return "csv"
	}
	return out.Kind
}

func durMS(start time.Time) time.Duration { return time.Since(start).Truncate(time.Millisecond) }

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
