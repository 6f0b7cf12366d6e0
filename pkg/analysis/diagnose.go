package analysis

import (
	"fmt"
	"io"
	"math"
	"sort"

	"aspice/pkg/util"
)

type unknownInfo struct {
	idx   int
	absR  float64
	absDx float64
	value float64
}

// DiagnoseFailure prints the worst offending unknowns from the last
// failed inner Newton loop, ranked by |r| and by |dx|. Only meaningful
// after SolveDC returned false or stalled the ladder.
func (e *Engine) DiagnoseFailure(w io.Writer) {
	if len(e.lastResidual) == 0 {
		fmt.Fprintln(w, "no failure recorded")
		return
	}

	x := e.lastSolution
	n := len(e.lastResidual)
	infos := make([]unknownInfo, n)
	for i := 0; i < n; i++ {
		v := 0.0
		if i < len(x) {
			v = x[i]
		}
		dx := 0.0
		if i < len(e.lastDeltaX) {
			dx = math.Abs(e.lastDeltaX[i])
		}
		infos[i] = unknownInfo{idx: i, absR: math.Abs(e.lastResidual[i]), absDx: dx, value: v}
	}

	fmt.Fprintf(w, "=== newton failure diagnosis at Gmin=%.2e ===\n", e.lastGmin)

	top := util.Min(10, n)

	fmt.Fprintln(w, "worst residuals:")
	fmt.Fprintf(w, "%-20s %14s %12s\n", "unknown", "|R|", "value")
	sort.Slice(infos, func(a, b int) bool { return infos[a].absR > infos[b].absR })
	for i := 0; i < top; i++ {
		fmt.Fprintf(w, "%-20s %14.3e %12.4f\n", e.ckt.UnknownMeaning(infos[i].idx), infos[i].absR, infos[i].value)
	}

	fmt.Fprintln(w, "worst delta-x:")
	fmt.Fprintf(w, "%-20s %14s %12s\n", "unknown", "|dX|", "value")
	sort.Slice(infos, func(a, b int) bool { return infos[a].absDx > infos[b].absDx })
	for i := 0; i < top; i++ {
		fmt.Fprintf(w, "%-20s %14.3e %12.4f\n", e.ckt.UnknownMeaning(infos[i].idx), infos[i].absDx, infos[i].value)
	}
}
