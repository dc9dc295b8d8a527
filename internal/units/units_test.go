package units

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

var testScale = []string{"A", "B", "C", "D", "E", "F"}

func TestCast(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		from, to  string
		factor    int64
		precision int
		want      string
	}{
		{"one step up", 10, "A", "B", 10, NoRounding, "1"},
		{"one step down", 1, "B", "A", 10, NoRounding, "10"},
		{"three steps up rounded", 25, "A", "D", 10, 4, "0.025"},
		{"three steps down", 21, "D", "A", 10, 1, "21000"},
		{"rounding", 2115, "A", "D", 10, 2, "2.12"},
		{"same unit", 7, "C", "C", 10, NoRounding, "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cast(tt.value, tt.from, tt.to, tt.factor, testScale, tt.precision)
			if err != nil {
				t.Fatalf("Cast returned error: %v", err)
			}
			want, _ := decimal.NewFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("Cast = %s, want %s", got, want)
			}
		})
	}
}

func TestCastUnknownUnit(t *testing.T) {
	if _, err := Cast(1, "A", "Z", 10, testScale, NoRounding); !errors.Is(err, ErrUnknownUnit) {
		t.Errorf("unknown target unit error = %v, want ErrUnknownUnit", err)
	}
	if _, err := Cast(1, "Z", "A", 10, testScale, NoRounding); !errors.Is(err, ErrUnknownUnit) {
		t.Errorf("unknown source unit error = %v, want ErrUnknownUnit", err)
	}
}

func TestMemCast(t *testing.T) {
	tests := []struct {
		value     float64
		unit, src string
		precision int
		want      string
	}{
		{2, "B", "KB", NoRounding, "2048"},
		{2048, "KB", "B", NoRounding, "2"},
		{256, "KB", "B", 2, "0.25"},
		{256, "KB", "B", 1, "0.2"},
		{2, "B", "", NoRounding, "2048"}, // source defaults to KB
		{1, "gb", "mb", NoRounding, "0.0009765625"},
	}

	for _, tt := range tests {
		got, err := MemCast(tt.value, tt.unit, tt.src, tt.precision)
		if err != nil {
			t.Fatalf("MemCast(%v, %q, %q) returned error: %v", tt.value, tt.unit, tt.src, err)
		}
		want, _ := decimal.NewFromString(tt.want)
		if !got.Equal(want) {
			t.Errorf("MemCast(%v, %q, %q) = %s, want %s", tt.value, tt.unit, tt.src, got, want)
		}
	}
}

func TestCPUCast(t *testing.T) {
	got, err := CPUCast(2, "HZ", "MHZ", NoRounding)
	if err != nil {
		t.Fatalf("CPUCast returned error: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(2000000)) {
		t.Errorf("CPUCast(2, HZ, MHZ) = %s, want 2000000", got)
	}

	// source defaults to MHz
	got, err = CPUCast(3, "GHZ", "", NoRounding)
	if err != nil {
		t.Fatalf("CPUCast returned error: %v", err)
	}
	want, _ := decimal.NewFromString("0.003")
	if !got.Equal(want) {
		t.Errorf("CPUCast(3, GHZ, default) = %s, want 0.003", got)
	}
}

func TestCastRepeatedNoDrift(t *testing.T) {
	// up and back down along the scale must return the exact input
	up, err := MemCast(1536, "GB", "KB", NoRounding)
	if err != nil {
		t.Fatal(err)
	}
	upf, _ := up.Float64()
	down, err := MemCast(upf, "KB", "GB", NoRounding)
	if err != nil {
		t.Fatal(err)
	}
	if !down.Equal(decimal.NewFromInt(1536)) {
		t.Errorf("round-trip = %s, want 1536", down)
	}
}
