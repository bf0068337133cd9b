// Package render writes tables to their delivery formats: CSV and JSON for
// files and downstream tools, a go-pretty text table for terminals.
package render

import (
	"fmt"
	"io"

	"crashprep/internal/table"
)

// Formatter writes one table to a writer in a fixed format.
type Formatter interface {
	// Name reports the output kind this formatter serves.
	Name() string

	// Format writes tab to w.
	Format(tab *table.Table, w io.Writer) error
}

// ForKind returns the formatter for an output kind. The empty kind means
// table, so a config without an output block still prints its result.
func ForKind(kind string) (Formatter, error) {
	switch kind {
	case "", "table":
		return NewText(), nil
	case "csv":
		return NewCSV(), nil
	case "json":
		return NewJSON(), nil
	}
	return nil, fmt.Errorf("render: unsupported output kind=%s", kind)
}
