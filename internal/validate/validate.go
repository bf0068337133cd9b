// Package validate carries the lightweight input checks applied before the
// multi-value transforms run: required-column presence, identifier cleanup,
// and explicit text-to-number coercion. Presence is the only schema rule
// enforced; values may still be missing row by row, and nothing here
// inspects cell contents beyond what the specific check needs.
package validate

import (
	"fmt"
	"strings"

	"crashprep/internal/table"
)

// AccidentColumns is the column set an accident extract is expected to carry.
// Extracts are superset-friendly: extra columns are fine, these must exist.
var AccidentColumns = []string{
	"ID_accident",
	"Date_and_hour",
	"Security_measures",
	"User_of_security_measures",
	"Place",
	"Sex",
	"Light",
	"User_category",
	"Intersection",
	"Weather_condition",
	"Collision",
	"Surface",
	"Circulation",
	"Width_of_the_roadway",
	"Width_of_the_central_bar",
	"Number_of_channels",
	"Road_category",
	"Plan",
	"Situation",
	"Year_of_birth",
	"Pedestrian_action",
	"Health_condition",
	"Point_of_shock",
	"Manuver",
	"Vehicle_category",
	"Reserved_lane",
	"Infrastructure",
	"Profile",
}

// AccidentNumericColumns lists the accident columns that should be numeric
// after coercion.
var AccidentNumericColumns = []string{
	"Width_of_the_roadway",
	"Width_of_the_central_bar",
	"Number_of_channels",
}

// MissingColumnsError lists every required column absent from a table.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

// RequiredColumns verifies that every named column exists in t, reporting all
// absent columns at once via *MissingColumnsError rather than stopping at the
// first.
func RequiredColumns(t *table.Table, required []string) error {
	var missing []string
	for _, c := range required {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}
