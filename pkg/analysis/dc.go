package analysis

import (
	"fmt"
	"math"

	"aspice/pkg/circuit"
	"aspice/pkg/device"
	"aspice/pkg/matrix"
	"aspice/pkg/util"
)

// Config carries the operating-point engine parameters. The zero value
// is not usable; start from DefaultConfig.
type Config struct {
	MaxIters    int     // inner Newton iteration budget per ramp level (never below 300; ladder levels get twice this)
	Tol         float64 // step-size stop: max|dx| < Tol
	ResidualTol float64 // residual stop: ||r||2 < ResidualTol
	Verbose     bool

	SourceSteps int // source-stepping ramp resolution

	// Gmin strategy. The ramp runs at ActiveGmin, restarting once at
	// FallbackGmin from x = 0 if it fails; the ladder then relaxes from
	// ActiveGmin down to GminTarget. Different drafts of the engine
	// shipped different ladders, so it is data here.
	ActiveGmin   float64
	FallbackGmin float64
	GminTarget   float64
	GminLadder   []float64

	// StabilizeNode, when >= 0, receives a soft shunt of
	// 1e-2*(1 - 2*scale) during source stepping below scale 0.5. A
	// topology-specific convergence aid; off by default.
	StabilizeNode int

	// GlobalIterCap bounds total Newton iterations across every
	// continuation path. CI safety against pathological runaway.
	GlobalIterCap int

	MaxHalvings int     // backtracking line-search halvings
	DxClampDC   float64 // per-component Newton step cap, DC
	DxClampTran float64 // per-component Newton step cap, transient
}

func DefaultConfig() Config {
	return Config{
		MaxIters:      250,
		Tol:           1e-6,
		ResidualTol:   1e-4,
		SourceSteps:   50,
		ActiveGmin:    1e-7,
		FallbackGmin:  1e-3,
		GminTarget:    1e-12,
		GminLadder:    DefaultGminLadder(1e-12),
		StabilizeNode: -1,
		GlobalIterCap: 10000,
		MaxHalvings:   10,
		DxClampDC:     2.0,
		DxClampTran:   5.0,
	}
}

// DefaultGminLadder is the 5-2-1 relaxation sequence: each entry
// is at most half the previous, ending at the target.
func DefaultGminLadder(target float64) []float64 {
	ladder := []float64{
		5e-4, 2e-4, 1e-4,
		5e-5, 2e-5, 1e-5,
		5e-6, 2e-6, 1e-6,
		5e-7, 2e-7, 1e-7,
		5e-8, 2e-8, 1e-8,
		5e-9, 2e-9, 1e-9,
		5e-10, 2e-10, 1e-10,
		5e-11, 2e-11, 1e-11,
		5e-12, 2e-12,
	}
	return append(ladder, target)
}

// Stats reports what the DC engine did, converged or not.
type Stats struct {
	TotalIterations    int
	SourceStepsReached int
	LastResidual       float64
	FinalGmin          float64
	Converged          bool

	// Partial marks a solution left at FinalGmin > 10*GminTarget: the
	// ladder stalled but the last good solution is still published.
	Partial bool
}

// Engine drives the damped-Newton operating point and the transient
// stepper over a finalized circuit. Single-threaded; it owns the
// circuit's (A, z) between phases and reuses all working buffers.
type Engine struct {
	ckt *circuit.Circuit
	cfg Config

	solver matrix.Solver

	deltaX   []float64
	xNew     []float64
	xCand    []float64
	residual []float64

	// Retained after an inner-loop failure for DiagnoseFailure.
	lastResidual []float64
	lastDeltaX   []float64
	lastGmin     float64

	lastSolution []float64
	finalGmin    float64

	globalIter int
}

func NewEngine(ckt *circuit.Circuit, cfg Config) *Engine {
	return &Engine{ckt: ckt, cfg: cfg, finalGmin: cfg.GminTarget}
}

func (e *Engine) Config() *Config { return &e.cfg }

// Solution returns the last published solve result.
func (e *Engine) Solution() []float64 { return e.lastSolution }

// FinalGmin is the Gmin level the last DC solve settled at.
func (e *Engine) FinalGmin() float64 { return e.finalGmin }

func (e *Engine) ensureBuffers() {
	n := e.ckt.Size()
	if len(e.deltaX) != n {
		e.deltaX = make([]float64, n)
		e.xNew = make([]float64, n)
		e.xCand = make([]float64, n)
		e.residual = make([]float64, n)
	}
}

// stamp rebuilds (A, z) from scratch: linear pass, Newton pass over the
// cached limited voltages, Gmin on the node-voltage diagonal, optional
// stabilization shunt. The fixed order is part of the contract.
func (e *Engine) stamp(scale, gmin float64, xGuess []float64) error {
	sys := e.ckt.System()
	sys.Clear()

	ctx := &device.StampContext{Sys: sys, Scale: scale}
	for _, d := range e.ckt.Devices() {
		if err := d.Stamp(ctx); err != nil {
			return err
		}
	}
	for _, nl := range e.ckt.NewtonDevices() {
		if err := nl.StampNewton(ctx, xGuess); err != nil {
			return err
		}
	}
	for i := 0; i < e.ckt.NumNodes(); i++ {
		sys.AddA(i, i, gmin)
	}
	if e.cfg.StabilizeNode >= 0 && scale < 0.5 {
		sys.AddA(e.cfg.StabilizeNode, e.cfg.StabilizeNode, 1e-2*(1.0-scale*2.0))
	}
	return nil
}

func (e *Engine) residualNorm(x []float64) float64 {
	e.ckt.System().Residual(x, e.residual)
	sumSq := 0.0
	for _, r := range e.residual {
		sumSq += r * r
	}
	return math.Sqrt(sumSq)
}

func (e *Engine) computeLimited(x, xOld []float64) {
	lctx := &device.LimitContext{X: x, XOld: xOld}
	for _, nl := range e.ckt.NewtonDevices() {
		nl.ComputeLimited(lctx)
	}
}

// innerNewton runs the damped loop at fixed (scale, gmin). guess is
// updated in place. Returns false on iteration exhaustion, a doubly
// singular matrix, or the global cap.
func (e *Engine) innerNewton(iters int, scale, gmin float64, guess []float64, diagnose bool, stats *Stats) bool {
	n := e.ckt.Size()
	maxIters := util.Max(iters, 300)
	e.lastGmin = gmin

	for k := 0; k < maxIters; k++ {
		e.globalIter++
		if e.globalIter > e.cfg.GlobalIterCap {
			if e.cfg.Verbose {
				fmt.Printf("[dc] global iteration cap (%d) exceeded\n", e.cfg.GlobalIterCap)
			}
			return false
		}
		if stats != nil {
			stats.TotalIterations++
		}

		if err := e.stamp(scale, gmin, guess); err != nil {
			if e.cfg.Verbose {
				fmt.Printf("[dc] stamp failed: %v\n", err)
			}
			return false
		}

		oldResid := e.residualNorm(guess)

		if row := e.solver.Solve(e.ckt.System(), e.deltaX); row >= 0 {
			// Singular pivot: retry once with a boosted diagonal.
			for i := 0; i < e.ckt.NumNodes(); i++ {
				e.ckt.System().AddA(i, i, gmin*100.0)
			}
			if row := e.solver.Solve(e.ckt.System(), e.deltaX); row >= 0 {
				if e.cfg.Verbose {
					fmt.Printf("[dc] singular at row %d (%s) after Gmin boost\n", row, e.ckt.UnknownMeaning(row))
				}
				return false
			}
		}

		// Backtracking line search on the full Newton step. The solver
		// returns the proposed x directly; the step is deltaX - guess.
		alpha := 1.0
		backtracked := false
		for b := 0; b < e.cfg.MaxHalvings; b++ {
			for i := 0; i < n; i++ {
				dx := util.Clamp(alpha*(e.deltaX[i]-guess[i]), -e.cfg.DxClampDC, e.cfg.DxClampDC)
				e.xNew[i] = guess[i] + dx
			}
			e.computeLimited(e.xNew, guess)
			if e.residualNorm(e.xNew) < oldResid || alpha < 1e-6 {
				if b > 0 {
					backtracked = true
				}
				break
			}
			alpha *= 0.5
		}

		dxMax := 0.0
		if len(e.lastDeltaX) != n {
			e.lastDeltaX = make([]float64, n)
		}
		for i := 0; i < n; i++ {
			d := e.xNew[i] - guess[i]
			e.lastDeltaX[i] = d
			dxMax = math.Max(dxMax, math.Abs(d))
		}
		copy(guess, e.xNew)

		if e.cfg.Verbose && (k%50 == 0 || dxMax < e.cfg.Tol) {
			bt := ""
			if backtracked {
				bt = " (BT)"
			}
			fmt.Printf("[dc] G=%.2e S=%.3f K=%d R=%.4e dX=%.4e%s\n", gmin, scale, k, oldResid, dxMax, bt)
		}

		if dxMax < e.cfg.Tol && oldResid < e.cfg.ResidualTol {
			return true
		}
	}

	if diagnose {
		e.ckt.System().Residual(guess, e.residual)
		if len(e.lastResidual) != n {
			e.lastResidual = make([]float64, n)
		}
		copy(e.lastResidual, e.residual)
	}
	return false
}

// SolveDC finds the operating point with the two-stage homotopy:
// source-scale ramp at ActiveGmin (restarting once at FallbackGmin),
// then Gmin ladder refinement at full scale. x is both the initial
// guess and the result. Returns true iff the ladder reached within 10x
// of GminTarget with the residual criterion satisfied; a stalled ladder
// still publishes the last good solution and sets stats.Partial.
func (e *Engine) SolveDC(x []float64, stats *Stats) bool {
	e.ckt.Finalize()
	e.ensureBuffers()
	n := e.ckt.Size()
	if len(x) != n {
		panic(fmt.Sprintf("analysis: x has length %d, want %d", len(x), n))
	}

	e.ckt.ApplyNodesets(x)

	guess := make([]float64, n)
	copy(guess, x)

	e.globalIter = 0

	// Stage 1: source ramp
	activeGmin := e.cfg.ActiveGmin
	rampSteps := util.Max(e.cfg.SourceSteps, 50)

	rampOK := false
	for s := 0; s <= rampSteps; s++ {
		scale := float64(s) / float64(rampSteps)
		if stats != nil {
			stats.SourceStepsReached = s
		}
		if !e.innerNewton(e.cfg.MaxIters, scale, activeGmin, guess, false, stats) {
			// Restart from zero with the fallback Gmin.
			activeGmin = e.cfg.FallbackGmin
			for i := range guess {
				guess[i] = 0
			}
			fallbackOK := true
			for s2 := 0; s2 <= rampSteps; s2++ {
				scale2 := float64(s2) / float64(rampSteps)
				if stats != nil {
					stats.SourceStepsReached = s2
				}
				if !e.innerNewton(e.cfg.MaxIters, scale2, activeGmin, guess, true, stats) {
					fallbackOK = false
					break
				}
			}
			if !fallbackOK {
				if stats != nil {
					stats.FinalGmin = activeGmin
					stats.LastResidual = e.lastResidualNorm()
				}
				return false
			}
			rampOK = true
			break
		}
		if s == rampSteps {
			rampOK = true
		}
	}
	if !rampOK {
		return false
	}

	// Stage 2: Gmin ladder at full scale
	xGood := make([]float64, n)
	for _, g := range e.cfg.GminLadder {
		if g >= activeGmin {
			continue
		}
		copy(xGood, guess)
		if !e.innerNewton(e.cfg.MaxIters*2, 1.0, g, guess, true, stats) {
			copy(guess, xGood)
			if e.cfg.Verbose {
				fmt.Printf("[dc] gmin stepping stopped at G=%.2e (failed at G=%.2e)\n", activeGmin, g)
			}
			break
		}
		activeGmin = g
	}

	partial := activeGmin > e.cfg.GminTarget*10.0
	if partial && e.cfg.Verbose {
		fmt.Printf("[dc] warning: final Gmin=%.2e (target=%.2e), solution may be contaminated\n",
			activeGmin, e.cfg.GminTarget)
	}

	copy(x, guess)
	if len(e.lastSolution) != n {
		e.lastSolution = make([]float64, n)
	}
	copy(e.lastSolution, x)
	e.finalGmin = activeGmin

	if stats != nil {
		stats.Converged = !partial
		stats.Partial = partial
		stats.FinalGmin = activeGmin
		stats.LastResidual = e.lastResidualNorm()
	}
	return !partial
}

func (e *Engine) lastResidualNorm() float64 {
	sumSq := 0.0
	for _, r := range e.residual {
		sumSq += r * r
	}
	return math.Sqrt(sumSq)
}
