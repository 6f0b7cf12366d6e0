package device

import (
	"math"
)

type SourceShape int

const (
	ShapeDC SourceShape = iota
	ShapeSin
	ShapePulse
)

// CurrentSource drives I from a to b. Ideal: infinite impedance, so it
// contributes no DC conduction path for the floating-node audit.
type CurrentSource struct {
	name   string
	na, nb int
	shape  SourceShape

	value float64 // instantaneous current, refreshed by SetTime

	// DC / SIN
	offset    float64
	amplitude float64
	freq      float64
	phase     float64 // degrees

	// PULSE
	i1, i2 float64
	delay  float64
	rise   float64
	fall   float64
	pWidth float64
	period float64
}

func NewCurrentSource(name string, a, b int, value float64) *CurrentSource {
	return &CurrentSource{name: name, na: a, nb: b, shape: ShapeDC, value: value, offset: value}
}

func NewSinCurrentSource(name string, a, b int, offset, amplitude, freq, phase float64) *CurrentSource {
	return &CurrentSource{
		name: name, na: a, nb: b, shape: ShapeSin,
		value: offset, offset: offset, amplitude: amplitude, freq: freq, phase: phase,
	}
}

func NewPulseCurrentSource(name string, a, b int, i1, i2, delay, rise, fall, pWidth, period float64) *CurrentSource {
	return &CurrentSource{
		name: name, na: a, nb: b, shape: ShapePulse,
		value: i1, i1: i1, i2: i2, delay: delay, rise: rise, fall: fall, pWidth: pWidth, period: period,
	}
}

func (cs *CurrentSource) Name() string { return cs.name }

func (cs *CurrentSource) SetCurrent(i float64) {
	cs.value = i
	cs.offset = i
}

// SetTime refreshes the instantaneous value for transient analysis.
func (cs *CurrentSource) SetTime(t float64) {
	switch cs.shape {
	case ShapeSin:
		rad := cs.phase * math.Pi / 180.0
		cs.value = cs.offset + cs.amplitude*math.Sin(2.0*math.Pi*cs.freq*t+rad)
	case ShapePulse:
		cs.value = cs.pulseAt(t)
	}
}

func (cs *CurrentSource) pulseAt(t float64) float64 {
	if t < cs.delay {
		return cs.i1
	}
	t -= cs.delay
	if cs.period > 0 {
		t = math.Mod(t, cs.period)
	}
	if t < cs.rise {
		if cs.rise == 0 {
			return cs.i2
		}
		return cs.i1 + (cs.i2-cs.i1)*t/cs.rise
	}
	if t < cs.rise+cs.pWidth {
		return cs.i2
	}
	fallStart := cs.rise + cs.pWidth
	if t < fallStart+cs.fall {
		if cs.fall == 0 {
			return cs.i1
		}
		return cs.i2 - (cs.i2-cs.i1)*(t-fallStart)/cs.fall
	}
	return cs.i1
}

func (cs *CurrentSource) Stamp(ctx *StampContext) error {
	StampCurrentSource(ctx.Sys, cs.na, cs.nb, cs.value*ctx.Scale)
	return nil
}

func (cs *CurrentSource) AppendDCPaths(paths [][2]int) [][2]int {
	// Open at DC for floating-node purposes.
	return paths
}
