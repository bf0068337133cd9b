// Package config defines the JSON run configuration for the crash
// preparation pipeline: one source, an ordered list of transform steps, and
// one output. Option bags are free-form maps with loose typed accessors;
// ValidatePipeline reports structural problems before a run touches data.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Pipeline is one run: where rows come from, the transforms applied in
// order, and where the resulting table goes.
type Pipeline struct {
	Job    string `json:"job"`
	Source Source `json:"source"`
	Steps  []Step `json:"steps"`
	Output Output `json:"output"`
}

// Source names the loader producing the input table.
// Kinds: csv, json, html, postgres, sqlite, mssql.
type Source struct {
	Kind    string  `json:"kind"`
	Options Options `json:"options"`
}

// Step is one table transform. Steps run in config order, each consuming the
// previous step's output.
type Step struct {
	Kind    string  `json:"kind"`
	Options Options `json:"options"`
}

// Output names the writer for the final table. Kinds: csv, json, table, and
// none to discard the table. An empty kind means csv.
type Output struct {
	Kind    string  `json:"kind"`
	Options Options `json:"options"`
}

// Load reads and decodes a pipeline config from a JSON file.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var p Pipeline
	if err := json.NewDecoder(f).Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return p, nil
}
