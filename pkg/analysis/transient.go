package analysis

import (
	"fmt"
	"math"

	"aspice/pkg/device"
	"aspice/pkg/util"
)

// NewSolution returns a zeroed unknown vector sized for the circuit.
func (e *Engine) NewSolution() []float64 {
	e.ckt.Finalize()
	return make([]float64, e.ckt.Size())
}

// InitializeDynamics commits x as the seed history for every dynamic
// device without solving. Call once after SolveDC, before stepping.
func (e *Engine) InitializeDynamics(x []float64) {
	for _, d := range e.ckt.DynamicDevices() {
		d.CommitStep(x)
	}
	if len(e.lastSolution) != len(x) {
		e.lastSolution = make([]float64, len(x))
	}
	copy(e.lastSolution, x)
}

// Step advances one transient step of size dt. x is the previous state
// on entry and the new state on success. The inner Newton runs at full
// source scale and GminTarget with a short iteration budget; each
// component of the update is clamped to DxClampTran. Convergence is the
// per-component |dx| <= absTol or |dx| <= relTol*|x| test.
func (e *Engine) Step(dt float64, x []float64, maxNewtonIters int, relTol, absTol float64) bool {
	if dt <= 0 {
		return false
	}
	e.ckt.Finalize()
	e.ensureBuffers()
	n := e.ckt.Size()

	for _, d := range e.ckt.DynamicDevices() {
		d.BeginStep(dt)
	}

	guess := e.xCand[:n]
	copy(guess, x)

	converged := false
	for k := 0; k < maxNewtonIters; k++ {
		if err := e.stamp(1.0, e.cfg.GminTarget, guess); err != nil {
			return false
		}

		if row := e.solver.Solve(e.ckt.System(), e.xNew); row >= 0 {
			return false
		}

		conv := true
		for i := 0; i < n; i++ {
			delta := util.Clamp(e.xNew[i]-guess[i], -e.cfg.DxClampTran, e.cfg.DxClampTran)
			e.xNew[i] = guess[i] + delta
			if math.Abs(delta) > absTol && math.Abs(delta) > relTol*math.Abs(e.xNew[i]) {
				conv = false
			}
		}

		copy(e.deltaX, guess) // previous iterate for limiting
		copy(guess, e.xNew)
		e.computeLimited(guess, e.deltaX)

		if conv {
			converged = true
			break
		}
	}

	if converged {
		copy(x, guess)
		for _, d := range e.ckt.DynamicDevices() {
			d.CommitStep(x)
		}
	}
	if len(e.lastSolution) != n {
		e.lastSolution = make([]float64, n)
	}
	copy(e.lastSolution, x)
	return converged
}

// SolveDCPseudoTransient reaches a DC point by settling a transient run
// with relaxed tolerances, then polishing with the full homotopy. Used
// when source stepping alone cannot find the operating point.
func (e *Engine) SolveDCPseudoTransient(x []float64, duration, dt float64, stats *Stats) bool {
	e.ckt.Finalize()
	e.ensureBuffers()

	e.ckt.ApplyNodesets(x)
	e.InitializeDynamics(x)

	steps := int(duration / dt)
	for i := 0; i < steps; i++ {
		// A failed step is a rough patch, not a dead end: keep the
		// latest x and carry on.
		e.Step(dt, x, 10, 1e-3, 1e-6)
	}

	return e.SolveDC(x, stats)
}

// Transient runs a fixed-step simulation and records labeled node
// voltages and branch currents per step.
type Transient struct {
	eng      *Engine
	dt       float64
	duration float64

	MaxNewtonIters int
	RelTol         float64
	AbsTol         float64

	results map[string][]float64
}

func NewTransient(eng *Engine, dt, duration float64) (*Transient, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("transient: dt must be > 0, got %g", dt)
	}
	if duration < dt {
		return nil, fmt.Errorf("transient: duration %g shorter than dt %g", duration, dt)
	}
	return &Transient{
		eng: eng, dt: dt, duration: duration,
		MaxNewtonIters: 8, RelTol: 1e-6, AbsTol: 1e-9,
		results: make(map[string][]float64),
	}, nil
}

// Run steps from the state in x. Time-varying sources are advanced to
// each step's end time before stepping. Results accumulate under keys
// "TIME", "V(<node>)" and "I(<element>)".
func (tr *Transient) Run(x []float64) error {
	e := tr.eng
	e.ckt.Finalize()

	steps := int(tr.duration / tr.dt)
	for i := 1; i <= steps; i++ {
		t := float64(i) * tr.dt
		for _, d := range e.ckt.Devices() {
			if tv, ok := d.(device.TimeVarying); ok {
				tv.SetTime(t)
			}
		}
		if !e.Step(tr.dt, x, tr.MaxNewtonIters, tr.RelTol, tr.AbsTol) {
			return fmt.Errorf("transient: step %d (t=%g) did not converge", i, t)
		}
		tr.store(t, x)
	}
	return nil
}

func (tr *Transient) store(t float64, x []float64) {
	tr.results["TIME"] = append(tr.results["TIME"], t)

	ckt := tr.eng.ckt
	for n := 0; n < ckt.NumNodes(); n++ {
		name := ckt.NodeName(n)
		if name == "" {
			continue
		}
		key := fmt.Sprintf("V(%s)", name)
		tr.results[key] = append(tr.results[key], x[n])
	}
	for i := ckt.NumNodes(); i < ckt.Size(); i++ {
		key := ckt.UnknownMeaning(i)
		tr.results[key] = append(tr.results[key], x[i])
	}
}

func (tr *Transient) Results() map[string][]float64 { return tr.results }
