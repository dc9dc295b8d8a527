package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"github.com/hargabyte/capreport/internal/report"
)

func testRows() []report.Row {
	r1 := orderedmap.New[string, any]()
	r1.Set("Cluster", "east-1")
	r1.Set("CPU", float64(7))
	r1.Set("Note", nil)

	r2 := orderedmap.New[string, any]()
	r2.Set("Cluster", "west-2")
	r2.Set("CPU", 5.25)
	r2.Set("Note", "drained")

	return []report.Row{r1, r2}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"", FormatTable, false},
		{" CSV ", FormatCSV, false},
		{"json", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestGetRenderer(t *testing.T) {
	for _, f := range []Format{FormatTable, FormatCSV, FormatJSON, FormatYAML} {
		if _, err := GetRenderer(f); err != nil {
			t.Errorf("GetRenderer(%s) failed: %v", f, err)
		}
	}
	if _, err := GetRenderer(Format("invalid")); err == nil {
		t.Error("GetRenderer should return error for invalid format")
	}
}

func TestTableRenderer(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableRenderer{}).Render(&buf, testRows()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Cluster", "CPU", "east-1", "7", "5.25", "drained"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestCSVRenderer(t *testing.T) {
	var buf bytes.Buffer
	if err := (&CSVRenderer{}).Render(&buf, testRows()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	want := "Cluster,CPU,Note\neast-1,7,\nwest-2,5.25,drained\n"
	if got := buf.String(); got != want {
		t.Errorf("csv output = %q, want %q", got, want)
	}
}

func TestJSONRendererPreservesColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONRenderer{}).Render(&buf, testRows()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	out := buf.String()
	if strings.Index(out, "Cluster") > strings.Index(out, "CPU") {
		t.Errorf("column order not preserved:\n%s", out)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded %d rows, want 2", len(decoded))
	}
	if decoded[0]["CPU"] != float64(7) {
		t.Errorf("first row CPU = %v, want 7", decoded[0]["CPU"])
	}
	if v, ok := decoded[0]["Note"]; !ok || v != nil {
		t.Errorf("first row Note = %v (present=%v), want null", v, ok)
	}
}

func TestJSONRendererEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONRenderer{}).Render(&buf, nil); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("empty output = %q, want []", got)
	}
}

func TestYAMLRenderer(t *testing.T) {
	var buf bytes.Buffer
	if err := (&YAMLRenderer{}).Render(&buf, testRows()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	var decoded []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded %d rows, want 2", len(decoded))
	}
	if decoded[1]["Cluster"] != "west-2" {
		t.Errorf("second row Cluster = %v, want west-2", decoded[1]["Cluster"])
	}

	out := buf.String()
	if strings.Index(out, "Cluster") > strings.Index(out, "CPU") {
		t.Errorf("column order not preserved:\n%s", out)
	}
}
