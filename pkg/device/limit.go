package device

import (
	"math"
)

const (
	expLim = 40.0

	// Hard cap on the junction voltage change per Newton iteration.
	maxJunctionStep = 0.2
)

// SafeExp clamps the argument to +-40 before exponentiating. Early
// Newton iterations can propose junction voltages of several volts;
// exp(40) ~ 2e17 keeps the stamps finite without changing the
// converged solution.
func SafeExp(x float64) float64 {
	if x < -expLim {
		return math.Exp(-expLim)
	}
	if x > expLim {
		return math.Exp(expLim)
	}
	return math.Exp(x)
}

// PNJLimit applies the classic SPICE junction limiting rule: above
// vcrit a growing forward voltage is pulled back onto a logarithmic
// curve, and the result is clamped to within maxJunctionStep of vOld.
// vt is the scaled thermal voltage n*Vt.
func PNJLimit(vNew, vOld, vt, vcrit float64) float64 {
	v := vNew

	if vNew > vcrit && vNew > vOld {
		arg := (vNew - vOld) / vt
		v = vOld + vt*math.Log(1.0+arg)
	}

	if v > vOld+maxJunctionStep {
		v = vOld + maxJunctionStep
	}
	if v < vOld-maxJunctionStep {
		v = vOld - maxJunctionStep
	}
	return v
}

// CriticalVoltage returns the limiting knee nVt*ln(nVt/(sqrt2*Is)).
func CriticalVoltage(is, nvt float64) float64 {
	return nvt * math.Log(nvt/(math.Sqrt2*is))
}
