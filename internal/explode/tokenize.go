package explode

import (
	"strings"

	"crashprep/internal/table"
)

// Tokenize splits one cell into its ordered multi-value tokens.
//
// A missing cell yields nil. Otherwise the cell's string form is split on the
// exact delimiter rune (0 means ','), each piece is trimmed, and pieces that
// trim to nothing are dropped rather than kept as empty tokens. "A,,B"
// yields two tokens, and that effective length is what strict alignment
// later compares. Total over its domain; there are no error conditions.
func Tokenize(v table.Value, delim rune) []string {
	if v.IsMissing() {
		return nil
	}
	raw := v.String()
	if raw == "" {
		return nil
	}
	if delim == 0 {
		delim = ','
	}
	parts := strings.Split(raw, string(delim))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
