package device

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuiltinModelTable(t *testing.T) {
	lib := BuiltinModels()

	m := lib.BJTModel("BC414C")
	require.Equal(t, 5.911e-15, m.Is)
	require.InDelta(t, 0.02585, m.NVt(), 1e-12)

	p := m.Params()
	require.Equal(t, 394.1, p.BetaF)
	require.Equal(t, 10.0, p.Rb)
	require.Equal(t, 1e-12, p.Gmin)

	// Unknown names fall back to the generic device.
	g := lib.BJTModel("NO_SUCH")
	require.Equal(t, 1e-15, g.Is)

	dz, ok := lib.DiodeModel("1N4727")
	require.True(t, ok)
	require.Equal(t, 3.0, dz.Bv)
	dp := dz.Params()
	require.Equal(t, 3.0, dp.Bv)
	require.Equal(t, 1e-3, dp.Ibv)
}

func TestLoadModelsMergesOverBuiltins(t *testing.T) {
	cards := `
bjt:
  BC414C:
    is: 1.0e-14
    ne: 1.2
    bf: 250.0
    br: 5.0
    vaf: 60.0
  MY_NPN:
    is: 2.0e-15
    ne: 1.0
    bf: 120.0
    br: 3.0
    vaf: 90.0
diode:
  MY_D:
    is: 4.0e-9
    n: 1.8
    bv: 6.2
    ibv: 5.0e-3
`
	lib, err := LoadModels(strings.NewReader(cards))
	require.NoError(t, err)

	// Replaced card
	m := lib.BJTModel("BC414C")
	require.Equal(t, 1.0e-14, m.Is)
	require.InDelta(t, 1.2*0.02585, m.NVt(), 1e-12)

	// New card
	require.Equal(t, 2.0e-15, lib.BJTModel("MY_NPN").Is)

	// Untouched builtin survives the merge
	require.Equal(t, 4.872e-15, lib.BJTModel("TIS98").Is)

	d, ok := lib.DiodeModel("MY_D")
	require.True(t, ok)
	require.Equal(t, 6.2, d.Bv)
}

func TestLoadModelsRejectsGarbage(t *testing.T) {
	_, err := LoadModels(strings.NewReader("bjt: [not, a, map]"))
	require.Error(t, err)
}
