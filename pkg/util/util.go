package util

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var siFactors = []struct {
	exp    float64
	suffix string
}{
	{12, "T"}, {9, "G"}, {6, "M"}, {3, "k"},
	{0, ""},
	{-3, "m"}, {-6, "u"}, {-9, "n"}, {-12, "p"}, {-15, "f"},
}

// FormatValueFactor renders value with an SI prefix. 0.0047 -> "4.700m",
// 1500 -> "1.500k". Used by the harness tables only.
func FormatValueFactor(value float64, unit string) string {
	if value == 0 {
		return fmt.Sprintf("0.000%s", unit)
	}
	mag := math.Abs(value)
	for _, f := range siFactors {
		scale := math.Pow(10, f.exp)
		if mag >= scale {
			return fmt.Sprintf("%.3f%s%s", value/scale, f.suffix, unit)
		}
	}
	return fmt.Sprintf("%.3e%s", value, unit)
}
