package main

import (
	"fmt"
	"log"
	"os"

	"aspice/pkg/analysis"
	"aspice/pkg/circuit"
	"aspice/pkg/device"
	"aspice/pkg/util"
)

// Voltage divider feeding a forward-biased diode clamp:
// V1 10V -> N1 -- R1 1k -- N2; R2 1k and D1 each from N2 to GND
func main() {
	ckt := circuit.New()
	n1 := ckt.CreateNode("N1")
	n2 := ckt.CreateNode("N2")

	v1 := device.NewVoltageSource("V1", n1, circuit.GND, 10.0)
	ckt.MustAdd(v1)

	r1, err := device.NewResistor("R1", n1, n2, 1000.0)
	if err != nil {
		log.Fatalf("building R1: %v", err)
	}
	ckt.MustAdd(r1)

	r2, err := device.NewResistor("R2", n2, circuit.GND, 1000.0)
	if err != nil {
		log.Fatalf("building R2: %v", err)
	}
	ckt.MustAdd(r2)

	dp := device.DefaultDiodeParams()
	dp.Is = 1e-15
	d1, err := device.NewDiode("D1", n2, circuit.GND, dp)
	if err != nil {
		log.Fatalf("building D1: %v", err)
	}
	ckt.MustAdd(d1)

	ckt.Finalize()

	if ok, err := circuit.ReportConnectivity(ckt, os.Stdout); err != nil || !ok {
		log.Fatalf("connectivity audit failed: %v", err)
	}

	eng := analysis.NewEngine(ckt, analysis.DefaultConfig())
	x := eng.NewSolution()
	var stats analysis.Stats
	if !eng.SolveDC(x, &stats) {
		eng.DiagnoseFailure(os.Stdout)
		log.Fatalf("DC solve failed (iters=%d, gmin=%g)", stats.TotalIterations, stats.FinalGmin)
	}

	fmt.Println("Unknown          | Value")
	fmt.Println("--------------------------")
	for i := 0; i < ckt.Size(); i++ {
		unit := "V"
		if i >= ckt.NumNodes() {
			unit = "A"
		}
		fmt.Printf("%-16s | %s\n", ckt.UnknownMeaning(i), util.FormatValueFactor(x[i], unit))
	}
	fmt.Printf("\nI(R1) = %s\n", util.FormatValueFactor(r1.Current(x), "A"))
	fmt.Printf("Newton iterations: %d, final Gmin: %g\n", stats.TotalIterations, stats.FinalGmin)
}
