package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/hargabyte/capreport/internal/report"
)

// Renderer writes assembled report rows to an output stream.
type Renderer interface {
	Render(w io.Writer, rows []report.Row) error
}

// GetRenderer returns the renderer for the specified format.
func GetRenderer(format Format) (Renderer, error) {
	switch format {
	case FormatTable:
		return &TableRenderer{}, nil
	case FormatCSV:
		return &CSVRenderer{}, nil
	case FormatJSON:
		return &JSONRenderer{}, nil
	case FormatYAML:
		return &YAMLRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// headers returns the column labels in declared order. Every row
// carries the full label set after gap fill, so the first row is
// authoritative.
func headers(rows []report.Row) []string {
	if len(rows) == 0 {
		return nil
	}
	var cols []string
	for pair := rows[0].Oldest(); pair != nil; pair = pair.Next() {
		cols = append(cols, pair.Key)
	}
	return cols
}

// cellString renders one cell for text output. Null cells are empty,
// whole numbers drop the decimal point.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}

// TableRenderer writes rows as an aligned text table.
type TableRenderer struct{}

// Render writes the table output.
func (r *TableRenderer) Render(w io.Writer, rows []report.Row) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers(rows))
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	for _, row := range rows {
		var cells []string
		for pair := row.Oldest(); pair != nil; pair = pair.Next() {
			cells = append(cells, cellString(pair.Value))
		}
		table.Append(cells)
	}

	table.Render()
	return nil
}

// CSVRenderer writes rows as CSV with a header record.
type CSVRenderer struct{}

// Render writes the CSV output.
func (r *CSVRenderer) Render(w io.Writer, rows []report.Row) error {
	cw := csv.NewWriter(w)

	if cols := headers(rows); cols != nil {
		if err := cw.Write(cols); err != nil {
			return err
		}
	}

	for _, row := range rows {
		var cells []string
		for pair := row.Oldest(); pair != nil; pair = pair.Next() {
			cells = append(cells, cellString(pair.Value))
		}
		if err := cw.Write(cells); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// JSONRenderer writes rows as a JSON array of objects, preserving
// column order.
type JSONRenderer struct{}

// Render writes the JSON output.
func (r *JSONRenderer) Render(w io.Writer, rows []report.Row) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if rows == nil {
		rows = []report.Row{}
	}
	return encoder.Encode(rows)
}

// YAMLRenderer writes rows as a YAML sequence of mappings, preserving
// column order.
type YAMLRenderer struct{}

// Render writes the YAML output.
func (r *YAMLRenderer) Render(w io.Writer, rows []report.Row) error {
	seq := &yaml.Node{Kind: yaml.SequenceNode}

	for _, row := range rows {
		mapping := &yaml.Node{Kind: yaml.MappingNode}
		for pair := row.Oldest(); pair != nil; pair = pair.Next() {
			key := &yaml.Node{}
			key.SetString(pair.Key)

			value := &yaml.Node{}
			if err := value.Encode(pair.Value); err != nil {
				return err
			}

			mapping.Content = append(mapping.Content, key, value)
		}
		seq.Content = append(seq.Content, mapping)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	return encoder.Encode(seq)
}
