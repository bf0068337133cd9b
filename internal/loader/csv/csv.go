// Package csv loads delimiter-separated crash extracts into tables.
//
// French road-safety exports predate UTF-8: the encoding option transcodes
// latin1 and windows-1252 input on the fly. Header names are kept verbatim
// apart from edge trimming and BOM stripping, since downstream column
// contracts are case-sensitive; header_map renames individual columns.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"crashprep/internal/config"
	"crashprep/internal/table"
)

// defaultNullLiterals are the cell spellings read as missing when na_values
// is not configured. The empty string is always missing.
var defaultNullLiterals = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"NaN":  true,
	"nan":  true,
	"null": true,
	"NULL": true,
}

// Load reads one CSV document from r into a table.
//
// Options:
//   - has_header (default true): first record carries column names; without
//     it columns are named col_1..col_N from the first record's width.
//   - comma (default ","): field separator.
//   - trim_space (default true): trim cell edges before null matching.
//   - header_map: original header name to table column name.
//   - encoding: "", "utf-8", "latin1", "iso-8859-1", "windows-1252", "cp1252".
//   - na_values: replaces the default null literal set ("" stays missing).
//   - infer_types (default true): columns whose every non-missing cell parses
//     as a number load as numbers.
//   - max_rows: stop after this many data rows (0 means all).
//   - lazy_quotes, fields_per_record: passed through to the reader.
//
// Records shorter than the header are padded with missing cells; longer
// records fail with the offending line number.
func Load(ctx context.Context, r io.Reader, opt config.Options) (*table.Table, error) {
	hasHeader := opt.Bool("has_header", true)
	trim := opt.Bool("trim_space", true)
	hm := opt.StringMap("header_map")
	maxRows := opt.Int("max_rows", 0)
	inferTypes := opt.Bool("infer_types", true)

	nulls := defaultNullLiterals
	if opt.Has("na_values") {
		nulls = map[string]bool{"": true}
		for _, s := range opt.Strings("na_values") {
			nulls[s] = true
		}
	}

	if name := opt.String("encoding", ""); name != "" {
		enc, err := encodingByName(name)
		if err != nil {
			return nil, err
		}
		if enc != nil {
			r = transform.NewReader(r, enc.NewDecoder())
		}
	}

	cr := csv.NewReader(r)
	cr.Comma = opt.Rune("comma", ',')
	cr.ReuseRecord = true
	cr.LazyQuotes = opt.Bool("lazy_quotes", false)
	if fieldsPer := opt.Int("fields_per_record", 0); fieldsPer != 0 {
		cr.FieldsPerRecord = fieldsPer
	} else {
		cr.FieldsPerRecord = -1
	}

	line := 0
	readRec := func() ([]string, error) {
		line++
		return cr.Read()
	}

	var headers []string
	var pending [][]string // first data record when there is no header line

	if hasHeader {
		hdr, err := readRec()
		if err == io.EOF {
			return nil, fmt.Errorf("csv: empty input")
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read header: %w", err)
		}
		headers = make([]string, len(hdr))
		for i, h := range hdr {
			h = strings.TrimSpace(h)
			if i == 0 {
				h = strings.TrimPrefix(h, "\uFEFF")
			}
			if mapped, ok := hm[h]; ok {
				h = mapped
			}
			headers[i] = h
		}
	} else {
		first, err := readRec()
		if err == io.EOF {
			return nil, fmt.Errorf("csv: empty input")
		}
		if err != nil {
			return nil, fmt.Errorf("csv: line %d: %w", line, err)
		}
		headers = make([]string, len(first))
		for i := range first {
			headers[i] = "col_" + strconv.Itoa(i+1)
		}
		pending = append(pending, append([]string(nil), first...))
	}

	cells := pending
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if maxRows > 0 && len(cells) >= maxRows {
			break
		}

		rec, err := readRec()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: line %d: %w", line, err)
		}
		if len(rec) > len(headers) {
			return nil, fmt.Errorf("csv: line %d: record has %d fields, want %d", line, len(rec), len(headers))
		}
		row := make([]string, len(headers))
		copy(row, rec) // short records stay padded with ""
		cells = append(cells, row)
	}

	return buildTable(headers, cells, nulls, trim, inferTypes)
}

// buildTable converts raw cells to values, inferring numeric columns when
// every non-missing cell in the column parses as a number.
func buildTable(headers []string, cells [][]string, nulls map[string]bool, trim, inferTypes bool) (*table.Table, error) {
	out, err := table.New(headers)
	if err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}

	numeric := make([]bool, len(headers))
	for i := range numeric {
		numeric[i] = inferTypes
	}
	for _, row := range cells {
		for i := range row {
			if trim {
				row[i] = strings.TrimSpace(row[i])
			}
			if nulls[row[i]] {
				row[i] = ""
				continue
			}
			if numeric[i] {
				if _, err := strconv.ParseFloat(row[i], 64); err != nil {
					numeric[i] = false
				}
			}
		}
	}

	for _, row := range cells {
		vals := make([]table.Value, len(headers))
		for i, cell := range row {
			switch {
			case cell == "":
				vals[i] = table.Missing()
			case numeric[i]:
				f, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, fmt.Errorf("csv: parse %q as number: %w", cell, err)
				}
				vals[i] = table.Number(f)
			default:
				vals[i] = table.Text(cell)
			}
		}
		if err := out.AppendRow(vals...); err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
	}
	return out, nil
}

// LoadFile opens path and loads it; "-" reads standard input.
func LoadFile(ctx context.Context, path string, opt config.Options) (*table.Table, error) {
	if path == "-" {
		return Load(ctx, os.Stdin, opt)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	defer f.Close()
	return Load(ctx, f, opt)
}

// encodingByName resolves the encoding option. nil means the input is
// already UTF-8.
func encodingByName(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf8", "utf-8":
		return nil, nil
	case "latin1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	}
	return nil, fmt.Errorf("csv: unsupported encoding %q", name)
}
