package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMinMax(t *testing.T) {
	require.Equal(t, 3, Min(3, 7))
	require.Equal(t, 7, Max(3, 7))
	require.Equal(t, -1.5, Min(-1.5, 0.0))
}

func TestClamp(t *testing.T) {
	require.Equal(t, 2.0, Clamp(5.0, -2.0, 2.0))
	require.Equal(t, -2.0, Clamp(-5.0, -2.0, 2.0))
	require.Equal(t, 0.5, Clamp(0.5, -2.0, 2.0))
}

func TestFormatValueFactor(t *testing.T) {
	require.Equal(t, "4.700mV", FormatValueFactor(4.7e-3, "V"))
	require.Equal(t, "1.500kOhm", FormatValueFactor(1500, "Ohm"))
	require.Equal(t, "0.000A", FormatValueFactor(0, "A"))
	require.Equal(t, "-5.000V", FormatValueFactor(-5, "V"))
	require.Equal(t, "100.000nF", FormatValueFactor(1e-7, "F"))
}
