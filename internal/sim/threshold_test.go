package sim

import (
	"math"
	"reflect"
	"testing"
)

func TestThresholdCrossings(t *testing.T) {
	single := []Threshold{{Value: 150, Rising: "R", Falling: "F"}}

	tests := []struct {
		name       string
		prev, next float64
		thresholds []Threshold
		want       []string
	}{
		{name: "rising", prev: 149, next: 151, thresholds: single, want: []string{"R"}},
		{name: "falling", prev: 151, next: 149, thresholds: single, want: []string{"F"}},
		{name: "no crossing", prev: 140, next: 145, thresholds: single, want: nil},
		{name: "landing exactly on value is rising", prev: 149, next: 150, thresholds: single, want: []string{"R"}},
		{name: "leaving exactly from value is falling", prev: 150, next: 149, thresholds: single, want: []string{"F"}},
		{name: "starting at value going up is not a crossing", prev: 150, next: 151, thresholds: single, want: nil},
		{
			name: "multiple crossings in ascending order",
			prev: 90, next: 260,
			thresholds: []Threshold{
				{Value: 100, Rising: "r100", Falling: "f100"},
				{Value: 200, Rising: "r200", Falling: "f200"},
				{Value: 250, Rising: "r250", Falling: "f250"},
			},
			want: []string{"r100", "r200", "r250"},
		},
		{
			name: "collapse falls through several",
			prev: 300, next: 0,
			thresholds: []Threshold{
				{Value: 100, Rising: "r100", Falling: "f100"},
				{Value: 200, Rising: "r200", Falling: "f200"},
			},
			want: []string{"f100", "f200"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := thresholdCrossings(tt.prev, tt.next, tt.thresholds)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("crossings(%g, %g) = %v, want %v", tt.prev, tt.next, got, tt.want)
			}
		})
	}
}

func TestNormalizeThresholdsSortsAscending(t *testing.T) {
	valid, warnings := normalizeThresholds([]Threshold{
		{Value: 1500, Rising: "boom", Falling: "decline"},
		{Value: 500, Rising: "recovering", Falling: "low"},
		{Value: 2500, Rising: "surge", Falling: "drop"},
	})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(valid) != 3 || valid[0].Value != 500 || valid[1].Value != 1500 || valid[2].Value != 2500 {
		t.Fatalf("thresholds not sorted ascending: %+v", valid)
	}
}

func TestNormalizeThresholdsSkipsInvalid(t *testing.T) {
	valid, warnings := normalizeThresholds([]Threshold{
		{Value: math.NaN(), Rising: "r", Falling: "f"},
		{Value: math.Inf(1), Rising: "r", Falling: "f"},
		{Value: 100, Rising: "", Falling: "f"},
		{Value: 200, Rising: "r", Falling: ""},
		{Value: 300, Rising: "keep-r", Falling: "keep-f"},
	})

	if len(valid) != 1 || valid[0].Value != 300 {
		t.Fatalf("valid = %+v, want only the 300 entry", valid)
	}
	if len(warnings) != 4 {
		t.Fatalf("warnings = %v, want 4 entries", warnings)
	}
}

func TestNormalizeThresholdsAllowsDuplicateValues(t *testing.T) {
	valid, warnings := normalizeThresholds([]Threshold{
		{Value: 100, Rising: "a", Falling: "b"},
		{Value: 100, Rising: "c", Falling: "d"},
	})
	if len(warnings) != 0 || len(valid) != 2 {
		t.Fatalf("valid = %+v, warnings = %v", valid, warnings)
	}
	// Stable sort preserves registration order for equal values.
	if valid[0].Rising != "a" || valid[1].Rising != "c" {
		t.Fatalf("duplicate ordering not stable: %+v", valid)
	}
}
