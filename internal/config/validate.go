package config

import (
	"fmt"
	"unicode/utf8"
)

// Severity classifies a validation finding. Errors stop a run; warnings are
// advisory.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warn"
)

// Issue is one finding from ValidatePipeline, located by a dotted path into
// the config document.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

var sourceKinds = map[string]bool{
	"csv":      true,
	"json":     true,
	"html":     true,
	"postgres": true,
	"sqlite":   true,
	"mssql":    true,
}

var stepKinds = map[string]bool{
	"validate_columns":  true,
	"normalize_id":      true,
	"coerce_numeric":    true,
	"parse_time":        true,
	"time_parts":        true,
	"temporal_features": true,
	"derive_age":        true,
	"explode":           true,
	"one_hot":           true,
}

var outputKinds = map[string]bool{
	"":      true, // defaults to csv
	"csv":   true,
	"json":  true,
	"table": true,
	"none":  true,
}

// ValidatePipeline checks p for structural problems without touching any
// input. It reports every finding rather than stopping at the first, so one
// pass over the output shows everything wrong with a config file.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue
	errf := func(path, format string, a ...any) {
		issues = append(issues, Issue{SeverityError, path, fmt.Sprintf(format, a...)})
	}
	warnf := func(path, format string, a ...any) {
		issues = append(issues, Issue{SeverityWarn, path, fmt.Sprintf(format, a...)})
	}

	if p.Job == "" {
		warnf("job", "empty job name, runs will report as %q", "crashprep")
	}

	switch {
	case p.Source.Kind == "":
		errf("source.kind", "source kind is required")
	case !sourceKinds[p.Source.Kind]:
		errf("source.kind", "unknown source kind %q", p.Source.Kind)
	}
	switch p.Source.Kind {
	case "csv", "json":
		if p.Source.Options.String("path", "") == "" {
			errf("source.options.path", "%s source needs a file path", p.Source.Kind)
		}
	case "html":
		if p.Source.Options.String("path", "") == "" && p.Source.Options.String("url", "") == "" {
			errf("source.options", "html source needs a path or a url")
		}
	case "postgres", "sqlite", "mssql":
		if p.Source.Options.String("dsn", "") == "" {
			errf("source.options.dsn", "%s source needs a dsn", p.Source.Kind)
		}
		if p.Source.Options.String("query", "") == "" {
			errf("source.options.query", "%s source needs a query", p.Source.Kind)
		}
	}

	if len(p.Steps) == 0 {
		warnf("steps", "no steps configured, the source table passes through unchanged")
	}
	for i, s := range p.Steps {
		path := fmt.Sprintf("steps[%d]", i)
		switch {
		case s.Kind == "":
			errf(path+".kind", "step kind is required")
			continue
		case !stepKinds[s.Kind]:
			errf(path+".kind", "unknown step kind %q", s.Kind)
			continue
		}

		if d := s.Options.String("delimiter", ""); utf8.RuneCountInString(d) > 1 {
			warnf(path+".options.delimiter", "multi-character delimiter %q, only the first character is used", d)
		}

		switch s.Kind {
		case "explode":
			if w := s.Options.Int("workers", 0); w < 0 {
				errf(path+".options.workers", "workers must be >= 0, got %d", w)
			}
			if s.Options.Has("min_share") {
				if ms := s.Options.Float("min_share", 0); ms < 0 || ms > 1 {
					errf(path+".options.min_share", "min_share must be within [0,1], got %v", ms)
				}
			}
		case "one_hot":
			if mc := s.Options.Int("min_count", 0); mc < 0 {
				errf(path+".options.min_count", "min_count must be >= 0, got %d", mc)
			}
			if len(s.Options.Strings("columns")) == 0 {
				errf(path+".options.columns", "one_hot needs at least one column")
			}
		}
	}

	if !outputKinds[p.Output.Kind] {
		errf("output.kind", "unknown output kind %q", p.Output.Kind)
	}

	return issues
}
