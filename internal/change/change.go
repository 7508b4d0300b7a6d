// Package change computes signed period-over-period percentage deltas.
package change

import (
	"math"
	"strconv"
)

// Type is the qualitative direction of a change.
type Type string

const (
	Positive Type = "positive"
	Negative Type = "negative"
	Neutral  Type = "neutral"
)

// NoChangeText is displayed for neutral results.
const NoChangeText = "No change"

// threshold below which a rounded change collapses to neutral.
const threshold = 0.1

// Change is a percentage delta ready for display.
type Change struct {
	Value float64 `json:"value"`
	Text  string  `json:"text"`
	Type  Type    `json:"type"`
}

// Percent returns the relative change from previous to current.
//
// A zero baseline cannot produce a true percentage: any non-zero current
// value against it reports +100%. Moves smaller than 0.1% after rounding to
// one decimal are reported as exactly zero. Non-finite inputs are not
// sanitized and yield non-finite values.
func Percent(current, previous float64) Change {
	if previous == 0 {
		if current == 0 {
			return Change{Value: 0, Text: NoChangeText, Type: Neutral}
		}
		return Change{Value: 100, Text: "+100%", Type: Positive}
	}

	rounded := roundTenth((current - previous) / previous * 100)
	if math.Abs(rounded) < threshold {
		return Change{Value: 0, Text: NoChangeText, Type: Neutral}
	}

	text := strconv.FormatFloat(rounded, 'f', -1, 64) + "%"
	if rounded > 0 {
		return Change{Value: rounded, Text: "+" + text, Type: Positive}
	}
	return Change{Value: rounded, Text: text, Type: Negative}
}

// roundTenth rounds half up to one decimal place.
func roundTenth(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}
