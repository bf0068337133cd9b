package render

import (
	"bytes"
	"encoding/json"
	"io"

	"crashprep/internal/table"
)

var _ Formatter = (*JSON)(nil)

// JSON renders a table as an array of objects, one object per row with keys
// in column order. Missing cells become null so consumers can tell absence
// from an empty string.
type JSON struct{}

func NewJSON() *JSON {
	return &JSON{}
}

func (jf *JSON) Name() string {
	return "json"
}

// Format builds the objects by hand because encoding/json sorts map keys
// and the output must keep column order.
func (jf *JSON) Format(tab *table.Table, w io.Writer) error {
	keys := make([][]byte, tab.NumCols())
	for c := range keys {
		k, err := json.Marshal(tab.ColumnName(c))
		if err != nil {
			return err
		}
		keys[c] = k
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for r := 0; r < tab.NumRows(); r++ {
		if r > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString("\n  {")
		for c := 0; c < tab.NumCols(); c++ {
			if c > 0 {
				buf.WriteByte(',')
			}
			buf.Write(keys[c])
			buf.WriteByte(':')
			cell, err := marshalValue(tab.AtIndex(r, c))
			if err != nil {
				return err
			}
			buf.Write(cell)
		}
		buf.WriteByte('}')
	}
	if tab.NumRows() > 0 {
		buf.WriteByte('\n')
	}
	buf.WriteString("]\n")

	_, err := w.Write(buf.Bytes())
	return err
}

func marshalValue(v table.Value) ([]byte, error) {
	switch v.Kind() {
	case table.KindMissing:
		return []byte("null"), nil
	case table.KindNumber:
		f, _ := v.Number()
		return json.Marshal(f)
	default:
		return json.Marshal(v.String())
	}
}
