package sim

import (
	"fmt"
	"math"
	"sort"
)

// Threshold pairs a population level with the labels emitted when the
// population crosses it upward (Rising) or downward (Falling).
type Threshold struct {
	Value   float64 `json:"value"`
	Rising  string  `json:"rising"`
	Falling string  `json:"falling"`
}

// normalizeThresholds drops malformed entries and sorts the rest ascending by
// value. Skipped entries come back as warnings; registration proceeds with
// whatever was valid. Duplicate values are allowed.
func normalizeThresholds(list []Threshold) (valid []Threshold, warnings []string) {
	for _, t := range list {
		if math.IsNaN(t.Value) || math.IsInf(t.Value, 0) {
			warnings = append(warnings, fmt.Sprintf("threshold value %v is not a finite number, skipping", t.Value))
			continue
		}
		if t.Rising == "" || t.Falling == "" {
			warnings = append(warnings, fmt.Sprintf("threshold %g is missing a rising or falling label, skipping", t.Value))
			continue
		}
		valid = append(valid, t)
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Value < valid[j].Value })
	return valid, warnings
}

// thresholdCrossings compares the pre-tick and post-tick population against
// each threshold and collects the crossing labels, in ascending threshold
// order. Landing exactly on a value counts as a rising crossing.
func thresholdCrossings(prev, next float64, thresholds []Threshold) []string {
	var labels []string
	for _, t := range thresholds {
		switch {
		case prev < t.Value && t.Value <= next:
			labels = append(labels, t.Rising)
		case prev >= t.Value && t.Value > next:
			labels = append(labels, t.Falling)
		}
	}
	return labels
}
