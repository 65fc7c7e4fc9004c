// Package normalize rescales rate series whose source expressed them as
// decimal fractions instead of percentage points.
package normalize

import (
	"math"

	"github.com/dobbobalina2/Crypto-US-yields/logger"
)

// DecimalThreshold is the inclusive maximum absolute value below which a
// series is assumed to be a decimal fraction. Real-world APY values
// routinely exceed 1.5%, so a series that never does is almost certainly
// expressed as a fraction. This is a heuristic, not a guarantee.
const DecimalThreshold = 1.5

// MaybeConvertPercent multiplies every value by 100 when the series'
// maximum absolute value is at or below DecimalThreshold. A series with no
// present values is returned unchanged. The input slice is not modified.
func MaybeConvertPercent(values []*float64, label string) []*float64 {
	maxAbs := math.Inf(-1)
	seen := false
	for _, v := range values {
		if v == nil {
			continue
		}
		seen = true
		if abs := math.Abs(*v); abs > maxAbs {
			maxAbs = abs
		}
	}

	out := make([]*float64, len(values))
	copy(out, values)
	if !seen || maxAbs > DecimalThreshold {
		return out
	}

	logger.GetLogger().WithComponent("normalizer").WithFields(logger.Fields{
		"series":  label,
		"max_abs": maxAbs,
	}).Info("series looks like a decimal fraction; converting to percent")

	for i, v := range values {
		if v == nil {
			continue
		}
		scaled := *v * 100
		out[i] = &scaled
	}
	return out
}
