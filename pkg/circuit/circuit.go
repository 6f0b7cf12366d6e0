package circuit

import (
	"fmt"

	"aspice/pkg/device"
	"aspice/pkg/matrix"
)

// GND re-exported for builders.
const GND = device.GND

type branchOwner struct {
	dev   device.BranchElement
	first int
	count int
}

// Circuit owns the nodes, the device registry and the MNA system.
// Builders create nodes and add devices, then Finalize; the analysis
// engine drives the capability views. Indices are stable from Finalize
// to destruction, so successive solves on the same Circuit warm-start.
type Circuit struct {
	sys *matrix.System

	devices []device.Device
	newton  []device.NonLinear
	dynamic []device.TimeDependent
	branch  []device.BranchElement

	nodeNames  map[int]string
	nameToNode map[string]int
	nodeset    map[int]float64

	branchOwners []branchOwner

	nextNode    int
	numNodes    int
	numBranches int
	finalized   bool
}

func New() *Circuit {
	return &Circuit{
		nodeNames:  make(map[int]string),
		nameToNode: make(map[string]int),
		nodeset:    make(map[int]float64),
	}
}

// CreateNode allocates the next node index. The label is optional and
// used only for diagnostics.
func (c *Circuit) CreateNode(label string) int {
	idx := c.nextNode
	c.nextNode++
	if label != "" {
		c.nodeNames[idx] = label
		c.nameToNode[label] = idx
	}
	return idx
}

// Add registers a device and sorts it into the capability dispatch
// lists. Adding after Finalize is forbidden.
func (c *Circuit) Add(d device.Device) error {
	if c.finalized {
		return fmt.Errorf("circuit: cannot add %s after Finalize", d.Name())
	}
	c.devices = append(c.devices, d)
	if nl, ok := d.(device.NonLinear); ok {
		c.newton = append(c.newton, nl)
	}
	if td, ok := d.(device.TimeDependent); ok {
		c.dynamic = append(c.dynamic, td)
	}
	if be, ok := d.(device.BranchElement); ok {
		c.branch = append(c.branch, be)
	}
	return nil
}

// MustAdd is Add for builders that construct devices from validated
// parameters; it panics on the post-Finalize programmer error.
func (c *Circuit) MustAdd(d device.Device) {
	if err := c.Add(d); err != nil {
		panic(err)
	}
}

// SetNodeset records an initial-guess voltage for a node. Nodesets are
// hints for the DC engine, not constraints.
func (c *Circuit) SetNodeset(n int, v float64) {
	if n >= 0 {
		c.nodeset[n] = v
	}
}

// ApplyNodesets seeds x with the recorded hints.
func (c *Circuit) ApplyNodesets(x []float64) {
	for n, v := range c.nodeset {
		if n < len(x) {
			x[n] = v
		}
	}
}

// Finalize freezes the node count, assigns branch slots leaves-first in
// registration order, and sizes the linear system. Idempotent.
func (c *Circuit) Finalize() {
	if c.finalized {
		return
	}
	c.numNodes = c.nextNode

	next := c.numNodes
	c.branchOwners = c.branchOwners[:0]
	for _, be := range c.branch {
		be.SetBranchIndex(next)
		c.branchOwners = append(c.branchOwners, branchOwner{dev: be, first: next, count: be.BranchCount()})
		next += be.BranchCount()
	}
	c.numBranches = next - c.numNodes

	if next > 0 {
		if c.sys == nil {
			c.sys, _ = matrix.New(next)
		} else {
			c.sys.Resize(next)
		}
	}
	c.finalized = true
}

func (c *Circuit) Finalized() bool { return c.finalized }

// System returns the MNA working set, valid after Finalize.
func (c *Circuit) System() *matrix.System { return c.sys }

func (c *Circuit) NumNodes() int    { return c.numNodes }
func (c *Circuit) NumBranches() int { return c.numBranches }

// Size is the total unknown count.
func (c *Circuit) Size() int { return c.numNodes + c.numBranches }

func (c *Circuit) Devices() []device.Device          { return c.devices }
func (c *Circuit) NewtonDevices() []device.NonLinear { return c.newton }
func (c *Circuit) DynamicDevices() []device.TimeDependent {
	return c.dynamic
}
func (c *Circuit) BranchDevices() []device.BranchElement { return c.branch }

// NodeByName resolves a diagnostic label back to its node index.
func (c *Circuit) NodeByName(label string) (int, bool) {
	n, ok := c.nameToNode[label]
	return n, ok
}

// NodeName returns the label for a node, or "" if unlabeled.
func (c *Circuit) NodeName(n int) string { return c.nodeNames[n] }

// UnknownMeaning renders unknown i as V(<node>) or I(<element>).
func (c *Circuit) UnknownMeaning(i int) string {
	if i < 0 {
		return "GND"
	}
	if i < c.numNodes {
		if name, ok := c.nodeNames[i]; ok {
			return fmt.Sprintf("V(%s)", name)
		}
		return fmt.Sprintf("V(Node %d)", i)
	}
	for _, bo := range c.branchOwners {
		if i >= bo.first && i < bo.first+bo.count {
			return fmt.Sprintf("I(%s)", bo.dev.Name())
		}
	}
	return fmt.Sprintf("UNKNOWN(%d)", i)
}

// NodeVoltageByName reads a labeled node's voltage from x; unknown
// labels read as 0.
func (c *Circuit) NodeVoltageByName(x []float64, label string) float64 {
	if n, ok := c.nameToNode[label]; ok && n < len(x) {
		return x[n]
	}
	return 0
}
