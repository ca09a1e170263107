package entities

import (
	"errors"
	"fmt"
	"frame-compress/constant"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidQuality = errors.New("quality must be a number")

type CompressionQuality int

// NewCompressionQuality clamps raw into [MinQuality, MaxQuality]. Out of range
// input is never rejected.
func NewCompressionQuality(raw int) CompressionQuality {
	if raw < constant.MinQuality {
		return constant.MinQuality
	}
	if raw > constant.MaxQuality {
		return constant.MaxQuality
	}
	return CompressionQuality(raw)
}

// ParseCompressionQuality clamps any numeric literal, including fractions and
// values past the int range. Only input that is not a number is an error.
func ParseCompressionQuality(raw string) (CompressionQuality, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if (err != nil && !errors.Is(err, strconv.ErrRange)) || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuality, raw)
	}
	switch {
	case f <= constant.MinQuality:
		return constant.MinQuality, nil
	case f >= constant.MaxQuality:
		return constant.MaxQuality, nil
	}
	return NewCompressionQuality(int(math.Round(f))), nil
}

func (q CompressionQuality) Int() int {
	return int(q)
}
