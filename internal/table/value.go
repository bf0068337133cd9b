// Package table defines the in-memory tabular model that every transform in
// this repository consumes and produces: an ordered set of named columns over
// ordered rows of tagged scalar values.
//
// Tables are value-like. A transform never mutates its input table; it
// returns a new one. Rows are write-once, with no cell setter, so derived
// tables may share row storage with their source wherever no column
// changes.
package table

import (
	"fmt"
	"strconv"
	"time"
)

// Kind discriminates the three states a cell can hold.
type Kind uint8

const (
	KindMissing Kind = iota
	KindText
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is one table cell: missing, text, or a float64 number.
//
// The zero Value is missing. Values are immutable. Converting between text
// and number is an explicit, fallible step owned by the validate package,
// never something a transform does implicitly.
type Value struct {
	kind Kind
	text string
	num  float64
}

// Missing returns the missing cell value.
func Missing() Value { return Value{} }

// Text returns a text cell.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number returns a numeric cell.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Kind reports which state the value holds.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether the cell is missing.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Number returns the numeric payload; ok is false for missing and text cells.
func (v Value) Number() (f float64, ok bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// String returns the cell's string form: the text payload for text cells, a
// shortest-roundtrip decimal for numbers, "" for missing. Tokenization and
// multi-value detection operate on this form.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	default:
		return ""
	}
}

// Equal reports whether two values hold the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == o.text
	case KindNumber:
		return v.num == o.num
	default:
		return true
	}
}

// FromAny converts a dynamically typed scalar (database scan result, decoded
// JSON) into a Value.
//
// nil becomes missing; integer and float types become numbers; strings and
// byte slices become text; booleans become the text "true"/"false" (the model
// has no boolean kind); times render as RFC 3339 in UTC. Anything else falls
// back to fmt.Sprint.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Missing()
	case Value:
		return t
	case string:
		return Text(t)
	case []byte:
		return Text(string(t))
	case bool:
		if t {
			return Text("true")
		}
		return Text("false")
	case int:
		return Number(float64(t))
	case int8:
		return Number(float64(t))
	case int16:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint:
		return Number(float64(t))
	case uint8:
		return Number(float64(t))
	case uint16:
		return Number(float64(t))
	case uint32:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case float32:
		return Number(float64(t))
	case float64:
		return Number(t)
	case time.Time:
		return Text(t.UTC().Format(time.RFC3339))
	default:
		return Text(fmt.Sprint(t))
	}
}
