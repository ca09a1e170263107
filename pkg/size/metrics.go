package size

import "errors"

var ErrZeroOriginal = errors.New("original size must be greater than zero")

// ReductionPercent returns how much smaller compressed is than original, in
// percent with two decimals. A negative value means compression inflated the
// payload.
func ReductionPercent(original, compressed int64) (float64, error) {
	if original <= 0 {
		return 0, ErrZeroOriginal
	}
	reduction := float64(original-compressed) / float64(original) * 100
	return round2(reduction), nil
}

// EstimateCompressedBytes extrapolates a whole video's compressed size from a
// single frame's reduction. It is a heuristic, not a measurement.
func EstimateCompressedBytes(original int64, reductionPercent float64) float64 {
	return float64(original) * (1 - reductionPercent/100)
}

func EstimateCompressedSize(original int64, reductionPercent float64) string {
	return formatFloat(EstimateCompressedBytes(original, reductionPercent))
}
