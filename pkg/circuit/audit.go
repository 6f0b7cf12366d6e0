package circuit

import (
	"fmt"
	"io"

	"aspice/pkg/device"
)

// ConnectivityAudit walks the DC conduction paths reported by every
// device and returns the nodes with no path to ground. A floating node
// guarantees a singular MNA matrix, so builders run this before the
// first solve.
func ConnectivityAudit(c *Circuit) ([]int, error) {
	if !c.Finalized() {
		return nil, fmt.Errorf("circuit: connectivity audit requested before Finalize")
	}

	numNodes := c.NumNodes()
	adj := make([][]int, numNodes)
	grounded := make([]bool, numNodes)

	var paths [][2]int
	for _, d := range c.Devices() {
		paths = d.AppendDCPaths(paths[:0])
		for _, p := range paths {
			u, v := p[0], p[1]
			switch {
			case u == device.GND && v == device.GND:
			case u != device.GND && v != device.GND:
				adj[u] = append(adj[u], v)
				adj[v] = append(adj[v], u)
			case u != device.GND:
				grounded[u] = true
			default:
				grounded[v] = true
			}
		}
	}

	// BFS from every ground-connected node
	reached := make([]bool, numNodes)
	var queue []int
	for i := 0; i < numNodes; i++ {
		if grounded[i] {
			reached[i] = true
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range adj[u] {
			if !reached[v] {
				reached[v] = true
				queue = append(queue, v)
			}
		}
	}

	var floating []int
	for i := 0; i < numNodes; i++ {
		if !reached[i] {
			floating = append(floating, i)
		}
	}
	return floating, nil
}

// ReportConnectivity runs the audit and prints the result in the
// harness table style. Returns true when no node floats.
func ReportConnectivity(c *Circuit, w io.Writer) (bool, error) {
	floating, err := ConnectivityAudit(c)
	if err != nil {
		return false, err
	}
	if len(floating) == 0 {
		fmt.Fprintln(w, "[audit] all nodes have a DC path to ground")
		return true, nil
	}
	for _, n := range floating {
		name := c.NodeName(n)
		if name == "" {
			name = fmt.Sprintf("node_%d", n)
		}
		fmt.Fprintf(w, "[audit] node %d (%s) is floating: no DC path to ground via R, V or junctions\n", n, name)
	}
	fmt.Fprintf(w, "[audit] %d floating nodes detected\n", len(floating))
	return false, nil
}
