package report

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/hargabyte/capreport/internal/field"
)

// Row is one finished output row: column label -> value, in declared
// field order.
type Row = *orderedmap.OrderedMap[string, any]

// project relabels and reorders a working row into its output form.
// Only fields with a label survive; unlabeled fields are intermediate
// values for computed expressions. Missing values project as nil.
func project(fields []*field.Field, row map[string]any) Row {
	out := orderedmap.New[string, any]()
	for _, f := range fields {
		if f.Label == "" {
			continue
		}
		out.Set(f.Label, row[f.ID])
	}
	return out
}

// projectAll applies the sort stage and label projection to a slice of
// working rows.
func projectAll(fields []*field.Field, rows []map[string]any, sortBy []string) []Row {
	if len(sortBy) > 0 {
		MultiKeySort(rows, sortBy)
	}

	out := make([]Row, len(rows))
	for i, row := range rows {
		out[i] = project(fields, row)
	}
	return out
}

// gapFill sets every labeled field missing from the row to nil so the
// projection stage sees a complete column set.
func gapFill(fields []*field.Field, row map[string]any) {
	for _, f := range fields {
		if f.Label == "" {
			continue
		}
		if _, ok := row[f.ID]; !ok {
			row[f.ID] = nil
		}
	}
}
