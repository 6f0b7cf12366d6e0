package circuit

import (
	"fmt"

	"aspice/pkg/device"
)

// ExtendedNodes are the internal BJT terminals created by
// AddBJTExtended. Where a parasitic is zero the internal node aliases
// the external one.
type ExtendedNodes struct {
	C, B, E int
}

// AddBJTExtended inserts a BJT with its parasitic wrapper: series
// Rb/Rc/Re between external and internal terminals, plus Cje/Cjc
// junction capacitors across the internal junctions. The parasitics are
// ordinary Resistor/Capacitor devices owning fresh interior nodes.
func AddBJTExtended(c *Circuit, cExt, bExt, eExt int, p device.BJTParams, isPnp bool, name string) (ExtendedNodes, error) {
	cInt, bInt, eInt := cExt, bExt, eExt
	if p.Rc > 0 {
		cInt = c.CreateNode(name + "_Ci")
	}
	if p.Rb > 0 {
		bInt = c.CreateNode(name + "_Bi")
	}
	if p.Re > 0 {
		eInt = c.CreateNode(name + "_Ei")
	}

	addResistor := func(suffix string, a, b int, r float64) error {
		res, err := device.NewResistor(name+suffix, a, b, r)
		if err != nil {
			return err
		}
		return c.Add(res)
	}

	if p.Rb > 0 {
		if err := addResistor("_RB", bExt, bInt, p.Rb); err != nil {
			return ExtendedNodes{}, err
		}
	}
	if p.Rc > 0 {
		if err := addResistor("_RC", cExt, cInt, p.Rc); err != nil {
			return ExtendedNodes{}, err
		}
	}
	if p.Re > 0 {
		if err := addResistor("_RE", eExt, eInt, p.Re); err != nil {
			return ExtendedNodes{}, err
		}
	}

	if p.Cje > 0 {
		cj, err := device.NewCapacitor(name+"_CJE", bInt, eInt, p.Cje)
		if err != nil {
			return ExtendedNodes{}, err
		}
		if err := c.Add(cj); err != nil {
			return ExtendedNodes{}, err
		}
	}
	if p.Cjc > 0 {
		cj, err := device.NewCapacitor(name+"_CJC", bInt, cInt, p.Cjc)
		if err != nil {
			return ExtendedNodes{}, err
		}
		if err := c.Add(cj); err != nil {
			return ExtendedNodes{}, err
		}
	}

	var q device.Device
	var err error
	if isPnp {
		q, err = device.NewBjtPNP(name, cInt, bInt, eInt, p)
	} else {
		q, err = device.NewBjtNPN(name, cInt, bInt, eInt, p)
	}
	if err != nil {
		return ExtendedNodes{}, fmt.Errorf("bjt extended %s: %w", name, err)
	}
	if err := c.Add(q); err != nil {
		return ExtendedNodes{}, err
	}
	return ExtendedNodes{C: cInt, B: bInt, E: eInt}, nil
}
