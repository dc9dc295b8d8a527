package cmd

import (
	"testing"
	"time"

	"github.com/hargabyte/capreport/internal/config"
	"github.com/hargabyte/capreport/internal/output"
)

func TestResolveFormat(t *testing.T) {
	cfg := config.DefaultConfig()

	tests := []struct {
		name      string
		flag      string
		defFormat string
		want      output.Format
	}{
		{"config default", "", "", output.FormatTable},
		{"report overrides config", "", "json", output.FormatJSON},
		{"flag overrides report", "csv", "json", output.FormatCSV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outputFormat = tt.flag
			defer func() { outputFormat = "" }()

			got, err := resolveFormat(cfg, &config.Report{Format: tt.defFormat})
			if err != nil {
				t.Fatalf("resolveFormat: %v", err)
			}
			if got != tt.want {
				t.Errorf("format = %q, want %q", got, tt.want)
			}
		})
	}

	outputFormat = "xml"
	defer func() { outputFormat = "" }()
	if _, err := resolveFormat(cfg, &config.Report{}); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestParseServeDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"30m", 30 * time.Minute, false},
		{"1h30m", 90 * time.Minute, false},
		{"forever", 0, true},
	}

	for _, tt := range tests {
		got, err := parseServeDuration(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseServeDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseServeDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
