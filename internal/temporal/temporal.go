// Package temporal derives time-based columns from accident timestamps:
// parsing the raw timestamp text, splitting it into calendar parts, adding
// simple day-rhythm features, and computing ages from birth years.
//
// Cells that cannot be parsed become missing rather than failing the run;
// referencing a column the table does not have is an error.
package temporal

import (
	"strconv"
	"strings"
	"time"

	"crashprep/internal/table"
)

// timeLayouts are tried in order when parsing timestamp text. Zone-less
// layouts parse as UTC.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseLoose parses s against the known layouts, normalized to UTC.
func parseLoose(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, lay := range timeLayouts {
		if t, err := time.Parse(lay, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseTime parses the timestamp text in source and writes the result to
// target as RFC3339 in UTC, replacing target when it already exists. Cells
// that are missing or fail every known layout come out missing.
func ParseTime(t *table.Table, source, target string) (*table.Table, error) {
	ci, ok := t.ColumnIndex(source)
	if !ok {
		return nil, &table.ColumnNotFoundError{Column: source}
	}
	vals := make([]table.Value, t.NumRows())
	for r := range vals {
		v := t.AtIndex(r, ci)
		if v.IsMissing() {
			vals[r] = table.Missing()
			continue
		}
		ts, ok := parseLoose(v.String())
		if !ok {
			vals[r] = table.Missing()
			continue
		}
		vals[r] = table.Text(ts.Format(time.RFC3339))
	}
	return t.SetColumn(target, vals)
}

// TimeParts splits the parsed timestamp column into the calendar parts the
// analysis steps key on: yearCol (numeric year), Date, Time, Hour and Month.
// Existing columns with those names are replaced. Unparseable or missing
// timestamps yield missing parts.
func TimeParts(t *table.Table, dtCol, yearCol string) (*table.Table, error) {
	ci, ok := t.ColumnIndex(dtCol)
	if !ok {
		return nil, &table.ColumnNotFoundError{Column: dtCol}
	}

	n := t.NumRows()
	years := make([]table.Value, n)
	dates := make([]table.Value, n)
	times := make([]table.Value, n)
	hours := make([]table.Value, n)
	months := make([]table.Value, n)
	for r := 0; r < n; r++ {
		ts, ok := cellTime(t.AtIndex(r, ci))
		if !ok {
			years[r] = table.Missing()
			dates[r] = table.Missing()
			times[r] = table.Missing()
			hours[r] = table.Missing()
			months[r] = table.Missing()
			continue
		}
		years[r] = table.Number(float64(ts.Year()))
		dates[r] = table.Text(ts.Format("2006-01-02"))
		times[r] = table.Text(ts.Format("15:04:05"))
		hours[r] = table.Number(float64(ts.Hour()))
		months[r] = table.Number(float64(int(ts.Month())))
	}

	out := t
	var err error
	for _, c := range []struct {
		name string
		vals []table.Value
	}{
		{yearCol, years},
		{"Date", dates},
		{"Time", times},
		{"Hour", hours},
		{"Month", months},
	} {
		out, err = out.SetColumn(c.name, c.vals)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Features adds the light temporal features used for exploratory cuts, all
// named with prefix (pass "t_" for the conventional names):
//
//   - {prefix}dayofweek: 0 for Monday through 6 for Sunday, missing when the
//     timestamp is.
//   - {prefix}weekend: 1 on Saturday and Sunday, else 0.
//   - {prefix}part_of_day: morning [5,12), afternoon [12,17), evening
//     [17,21), night otherwise, "unknown" when the hour is missing.
//   - {prefix}rush_hour: 1 for hours 7, 8, 9, 16, 17, 18 and 19, else 0.
//
// The hour comes from an existing Hour column when the table has one, so the
// features stay consistent with TimeParts output; otherwise it is computed
// from the timestamp.
func Features(t *table.Table, dtCol, prefix string) (*table.Table, error) {
	ci, ok := t.ColumnIndex(dtCol)
	if !ok {
		return nil, &table.ColumnNotFoundError{Column: dtCol}
	}
	hourIdx, hasHour := t.ColumnIndex("Hour")

	n := t.NumRows()
	dows := make([]table.Value, n)
	weekends := make([]table.Value, n)
	parts := make([]table.Value, n)
	rush := make([]table.Value, n)
	for r := 0; r < n; r++ {
		ts, tsOK := cellTime(t.AtIndex(r, ci))
		if tsOK {
			dow := (int(ts.Weekday()) + 6) % 7
			dows[r] = table.Number(float64(dow))
			weekends[r] = boolNumber(dow == 5 || dow == 6)
		} else {
			dows[r] = table.Missing()
			weekends[r] = table.Number(0)
		}

		hour, hourOK := -1, false
		if hasHour {
			if f, ok2 := t.AtIndex(r, hourIdx).Number(); ok2 {
				hour, hourOK = int(f), true
			}
		} else if tsOK {
			hour, hourOK = ts.Hour(), true
		}
		parts[r] = table.Text(partOfDay(hour, hourOK))
		rush[r] = boolNumber(hourOK && isRushHour(hour))
	}

	out := t
	var err error
	for _, c := range []struct {
		name string
		vals []table.Value
	}{
		{prefix + "dayofweek", dows},
		{prefix + "weekend", weekends},
		{prefix + "part_of_day", parts},
		{prefix + "rush_hour", rush},
	} {
		out, err = out.SetColumn(c.name, c.vals)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func partOfDay(hour int, ok bool) string {
	switch {
	case !ok:
		return "unknown"
	case 5 <= hour && hour < 12:
		return "morning"
	case 12 <= hour && hour < 17:
		return "afternoon"
	case 17 <= hour && hour < 21:
		return "evening"
	default:
		return "night"
	}
}

func isRushHour(hour int) bool {
	switch hour {
	case 7, 8, 9, 16, 17, 18, 19:
		return true
	}
	return false
}

func boolNumber(b bool) table.Value {
	if b {
		return table.Number(1)
	}
	return table.Number(0)
}

// Age bounds. Derived ages outside the range are pulled to the nearest bound
// instead of being dropped; impossible birth years show up as 0 or 110 in the
// output where they are easy to spot.
const (
	ageMin = 0
	ageMax = 110
)

// DeriveAge adds target = referenceYear - yearOfBirth, clamped to [0, 110].
// Both inputs are coerced to numbers first; a row where either side is
// missing or unparseable gets a missing age. An existing target column is
// replaced.
func DeriveAge(t *table.Table, yearOfBirth, referenceYear, target string) (*table.Table, error) {
	ybIdx, ok := t.ColumnIndex(yearOfBirth)
	if !ok {
		return nil, &table.ColumnNotFoundError{Column: yearOfBirth}
	}
	refIdx, ok := t.ColumnIndex(referenceYear)
	if !ok {
		return nil, &table.ColumnNotFoundError{Column: referenceYear}
	}

	vals := make([]table.Value, t.NumRows())
	for r := range vals {
		yb, okYB := cellNumber(t.AtIndex(r, ybIdx))
		ref, okRef := cellNumber(t.AtIndex(r, refIdx))
		if !okYB || !okRef {
			vals[r] = table.Missing()
			continue
		}
		age := ref - yb
		if age < ageMin {
			age = ageMin
		}
		if age > ageMax {
			age = ageMax
		}
		vals[r] = table.Number(age)
	}
	return t.SetColumn(target, vals)
}

// cellTime interprets a cell as a timestamp via the known layouts.
func cellTime(v table.Value) (time.Time, bool) {
	if v.IsMissing() {
		return time.Time{}, false
	}
	return parseLoose(v.String())
}

// cellNumber interprets a cell as a number, parsing text cells on the fly.
func cellNumber(v table.Value) (float64, bool) {
	if v.IsMissing() {
		return 0, false
	}
	if f, ok := v.Number(); ok {
		return f, true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
