package report

import (
	"reflect"
	"testing"
)

func TestMultiKeySort(t *testing.T) {
	rows := []map[string]any{
		{"a": "x", "b": float64(1), "n": 1},
		{"a": "y", "b": float64(3), "n": 2},
		{"a": "x", "b": float64(3), "n": 3},
		{"a": "z", "b": float64(2), "n": 4},
	}

	MultiKeySort(rows, []string{"-b", "a"})

	var order []int
	for _, row := range rows {
		order = append(order, row["n"].(int))
	}
	// b descending, ties broken by a ascending
	want := []int{3, 2, 4, 1}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("sort order = %v, want %v", order, want)
	}
}

func TestMultiKeySortStable(t *testing.T) {
	rows := []map[string]any{
		{"k": float64(1), "n": 1},
		{"k": float64(1), "n": 2},
		{"k": float64(1), "n": 3},
	}

	MultiKeySort(rows, []string{"k"})

	for i, row := range rows {
		if row["n"].(int) != i+1 {
			t.Fatalf("fully-tied rows reordered: %v", rows)
		}
	}
}

func TestMultiKeySortMixedTypes(t *testing.T) {
	rows := []map[string]any{
		{"k": "text"},
		{"k": nil},
		{"k": float64(5)},
	}

	MultiKeySort(rows, []string{"k"})

	if rows[0]["k"] != nil {
		t.Errorf("nil should sort first, got %v", rows[0]["k"])
	}
	if rows[1]["k"] != float64(5) {
		t.Errorf("number should sort before string, got %v", rows[1]["k"])
	}
}

func TestMultiKeySortDescendingPrefixWithSpace(t *testing.T) {
	rows := []map[string]any{
		{"k": float64(1)},
		{"k": float64(2)},
	}

	MultiKeySort(rows, []string{" -k "})

	if rows[0]["k"] != float64(2) {
		t.Errorf("descending sort ignored: %v", rows)
	}
}
