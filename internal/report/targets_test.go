package report

import (
	"context"
	"testing"

	"github.com/hargabyte/capreport/internal/config"
	"github.com/hargabyte/capreport/internal/field"
	"github.com/hargabyte/capreport/internal/platform"
)

func TestTargetReport(t *testing.T) {
	conn := &fakeConn{
		targets: []platform.Record{
			{
				"displayName": "vcenter-01",
				"type":        "vCenter",
				"status":      "Validated",
			},
			{
				"displayName": "vcenter-02",
				"type":        "vCenter",
				// status withheld by the platform
			},
		},
	}

	def := &config.Report{
		Type: "targets",
		Fields: []field.Config{
			{ID: "name", Type: "property", Value: "displayName", Label: "Target"},
			{ID: "kind", Type: "property", Value: "type", Label: "Type"},
			{ID: "status", Type: "property", Value: "status", Label: "Status"},
		},
		SortBy: []string{"name"},
	}

	rep, err := NewTargetReport(conn, def)
	if err != nil {
		t.Fatalf("NewTargetReport returned error: %v", err)
	}

	rows, err := rep.Apply(context.Background())
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	first := rowValues(rows[0])
	if first["Target"] != "vcenter-01" || first["Status"] != "Validated" {
		t.Errorf("first row = %v", first)
	}

	// gap fill gives the withheld status a null cell
	second := rowValues(rows[1])
	if v, ok := second["Status"]; !ok || v != nil {
		t.Errorf("second row Status = %v (present=%v), want nil cell", v, ok)
	}
}

func TestTargetReportComputedOverProperties(t *testing.T) {
	conn := &fakeConn{
		targets: []platform.Record{
			{"displayName": "t1", "discovery": map[string]any{"failureCount": float64(3)}},
		},
	}

	def := &config.Report{
		Type: "targets",
		Fields: []field.Config{
			{ID: "fails", Type: "property", Value: "discovery:failureCount"},
			{ID: "healthy", Type: "computed", Value: "$fails == 0", Label: "Healthy"},
		},
	}

	rep, err := NewTargetReport(conn, def)
	if err != nil {
		t.Fatalf("NewTargetReport returned error: %v", err)
	}

	rows, err := rep.Apply(context.Background())
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	if v := rowValues(rows[0])["Healthy"]; v != false {
		t.Errorf("Healthy = %v, want false", v)
	}
}
