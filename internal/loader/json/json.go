// Package json loads JSON crash extracts into tables.
//
// Accepted document shapes, mirroring what export tooling actually emits:
//
//   - a root array of objects, one record each;
//   - an envelope object whose first array-of-objects field holds the
//     records (remaining envelope fields are ignored);
//   - a single root object, loaded as one record;
//   - concatenated objects (JSONL), including trailing objects after a root
//     array or envelope.
//
// Arrays of scalars inside a record are joined into one delimiter-packed
// cell so the explosion steps can take them apart again; nested objects are
// kept as compact JSON text. Column order is the order keys are first seen.
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"crashprep/internal/config"
	"crashprep/internal/table"
)

// object is one decoded record with its key order preserved. Map decoding
// loses order, so records are materialized token by token.
type object struct {
	fields map[string]any
	keys   []string
}

// Load reads one JSON document from r into a table.
//
// Options:
//   - array_join_separator (default ","): joins scalar arrays into one cell.
//   - header_map: original key to table column name.
func Load(ctx context.Context, r io.Reader, opt config.Options) (*table.Table, error) {
	sep := strings.TrimSpace(opt.String("array_join_separator", ","))
	if sep == "" {
		sep = ","
	}
	hm := opt.StringMap("header_map")

	dec := json.NewDecoder(r)
	dec.UseNumber()

	var (
		objs    []*object
		columns []string
		seen    = map[string]bool{}
	)
	emit := func(o *object) {
		for i, k := range o.keys {
			if mapped, ok := hm[k]; ok && mapped != "" && mapped != k {
				if v, exists := o.fields[k]; exists {
					delete(o.fields, k)
					o.fields[mapped] = v
				}
				o.keys[i] = mapped
				k = mapped
			}
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
		objs = append(objs, o)
	}

	tok, err := dec.Token()
	if err == io.EOF {
		return nil, fmt.Errorf("json: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("json: read first token: %w", err)
	}

	switch d := tok.(type) {
	case json.Delim:
		switch d {
		case '[':
			if err := decodeArrayOfObjects(ctx, dec, emit); err != nil {
				return nil, err
			}
		case '{':
			root, err := decodeObjectBody(dec)
			if err != nil {
				return nil, err
			}
			if recs, ok := envelopeRecords(root); ok {
				for _, o := range recs {
					emit(o)
				}
			} else {
				emit(root)
			}
		default:
			return nil, fmt.Errorf("json: unsupported root delimiter %q", d)
		}
	default:
		return nil, fmt.Errorf("json: unsupported root token %T (want object or array)", tok)
	}

	if err := decodeTrailingObjects(ctx, dec, emit); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("json: no records with fields found")
	}

	out, err := table.New(columns)
	if err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	for _, o := range objs {
		vals := make([]table.Value, len(columns))
		for i, c := range columns {
			raw, ok := o.fields[c]
			if !ok {
				vals[i] = table.Missing()
				continue
			}
			v, err := cellValue(raw, sep)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		if err := out.AppendRow(vals...); err != nil {
			return nil, fmt.Errorf("json: %w", err)
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
		return nil, fmt.Errorf("json: %w", err)
	}
	defer f.Close()
	return Load(ctx, f, opt)
}

// decodeArrayOfObjects consumes the elements and closing ']' of the current
// array. Elements must be objects; nulls are skipped.
func decodeArrayOfObjects(ctx context.Context, dec *json.Decoder, emit func(*object)) error {
	for dec.More() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("json: read array element: %w", err)
		}
		if tok == nil {
			continue
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			return fmt.Errorf("json: array element not an object (got %v)", tok)
		}
		o, err := decodeObjectBody(dec)
		if err != nil {
			return err
		}
		emit(o)
	}
	end, err := dec.Token()
	if err != nil {
		return fmt.Errorf("json: read array end: %w", err)
	}
	if end != json.Delim(']') {
		return fmt.Errorf("json: expected array end ']', got %v", end)
	}
	return nil
}

// decodeTrailingObjects consumes optional concatenated objects after the
// root value (the JSONL pattern).
func decodeTrailingObjects(ctx context.Context, dec *json.Decoder, emit func(*object)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("json: read trailing token: %w", err)
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			return fmt.Errorf("json: trailing value not an object (got %v)", tok)
		}
		o, err := decodeObjectBody(dec)
		if err != nil {
			return err
		}
		emit(o)
	}
}

// decodeObjectBody materializes the fields and closing '}' of the current
// object, preserving key order.
func decodeObjectBody(dec *json.Decoder) (*object, error) {
	o := &object{fields: make(map[string]any)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("json: read object key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("json: object key not a string (got %T)", keyTok)
		}
		valTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("json: read object value token: %w", err)
		}
		val, err := decodeValue(dec, valTok)
		if err != nil {
			return nil, err
		}
		if _, dup := o.fields[key]; !dup {
			o.keys = append(o.keys, key)
		}
		o.fields[key] = val
	}
	end, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("json: read object end: %w", err)
	}
	if end != json.Delim('}') {
		return nil, fmt.Errorf("json: expected object end '}', got %v", end)
	}
	return o, nil
}

// decodeValue materializes the value whose first token has been read.
func decodeValue(dec *json.Decoder, tok json.Token) (any, error) {
	d, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch d {
	case '{':
		return decodeObjectBody(dec)
	case '[':
		var arr []any
		for dec.More() {
			vt, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("json: read array value token: %w", err)
			}
			v, err := decodeValue(dec, vt)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		end, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("json: read array end: %w", err)
		}
		if end != json.Delim(']') {
			return nil, fmt.Errorf("json: expected ']', got %v", end)
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("json: unexpected delimiter %q", d)
	}
}

// envelopeRecords returns the records of the first array-of-objects field,
// in key order, when root is an envelope.
func envelopeRecords(root *object) ([]*object, bool) {
	for _, k := range root.keys {
		arr, ok := root.fields[k].([]any)
		if !ok || len(arr) == 0 {
			continue
		}
		recs := make([]*object, 0, len(arr))
		allObjects := true
		for _, it := range arr {
			o, ok := it.(*object)
			if !ok {
				allObjects = false
				break
			}
			recs = append(recs, o)
		}
		if allObjects {
			return recs, true
		}
	}
	return nil, false
}

// cellValue converts one decoded field into a table cell. Scalar arrays
// become one joined cell (nulls skipped); anything nested is kept as compact
// JSON text.
func cellValue(raw any, sep string) (table.Value, error) {
	switch v := raw.(type) {
	case nil:
		return table.Missing(), nil
	case string:
		return table.Text(v), nil
	case bool:
		return table.FromAny(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return table.Text(v.String()), nil
		}
		return table.Number(f), nil
	case []any:
		if len(v) == 0 {
			return table.Text(""), nil
		}
		parts := make([]string, 0, len(v))
		for _, it := range v {
			switch s := it.(type) {
			case nil:
				continue
			case string:
				parts = append(parts, s)
			case json.Number:
				parts = append(parts, s.String())
			case bool:
				parts = append(parts, fmt.Sprintf("%t", s))
			default:
				return jsonText(raw)
			}
		}
		if len(parts) == 0 {
			return table.Text(""), nil
		}
		return table.Text(strings.Join(parts, sep)), nil
	case *object:
		return jsonText(raw)
	default:
		return table.Text(fmt.Sprint(raw)), nil
	}
}

// jsonText renders a nested value as compact JSON.
func jsonText(raw any) (table.Value, error) {
	b, err := json.Marshal(plain(raw))
	if err != nil {
		return table.Value{}, fmt.Errorf("json: render nested value: %w", err)
	}
	return table.Text(string(b)), nil
}

// plain converts materialized objects back to marshal-friendly maps.
func plain(raw any) any {
	switch v := raw.(type) {
	case *object:
		m := make(map[string]any, len(v.fields))
		for k, f := range v.fields {
			m[k] = plain(f)
		}
		return m
	case []any:
		out := make([]any, len(v))
		for i, it := range v {
			out[i] = plain(it)
		}
		return out
	default:
		return raw
	}
}
