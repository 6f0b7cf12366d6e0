package main

import (
	"fmt"
	"log"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"aspice/pkg/analysis"
	"aspice/pkg/circuit"
	"aspice/pkg/device"
	"aspice/pkg/wave"
)

// RC lowpass driven by a 1kHz sine: Vin -- R 1k -- OUT -- C 100n -- GND.
// Writes the output trace to tran1.csv and tran1.png.
func main() {
	const (
		r    = 1000.0 // 1k
		c    = 100e-9 // 100n
		vAmp = 1.0    // 1V peak
		freq = 1000.0 // 1kHz
		dt   = 1e-6   // 1us
		dur  = 5e-3   // 5 periods
	)

	ckt := circuit.New()
	nin := ckt.CreateNode("IN")
	nout := ckt.CreateNode("OUT")

	ckt.MustAdd(device.NewSinVoltageSource("Vin", nin, circuit.GND, 0, vAmp, freq, 0))

	r1, err := device.NewResistor("R1", nin, nout, r)
	if err != nil {
		log.Fatalf("building R1: %v", err)
	}
	ckt.MustAdd(r1)

	c1, err := device.NewCapacitor("C1", nout, circuit.GND, c)
	if err != nil {
		log.Fatalf("building C1: %v", err)
	}
	ckt.MustAdd(c1)

	ckt.Finalize()

	eng := analysis.NewEngine(ckt, analysis.DefaultConfig())
	x := eng.NewSolution()
	var stats analysis.Stats
	if !eng.SolveDC(x, &stats) {
		log.Fatalf("DC solve failed")
	}
	eng.InitializeDynamics(x)

	tr, err := analysis.NewTransient(eng, dt, dur)
	if err != nil {
		log.Fatalf("transient setup: %v", err)
	}
	if err := tr.Run(x); err != nil {
		log.Fatalf("transient: %v", err)
	}

	res := tr.Results()
	times := res["TIME"]
	vout := res["V(OUT)"]

	if err := wave.ExportCSV("tran1.csv", times, vout); err != nil {
		log.Fatalf("csv export: %v", err)
	}

	p := plot.New()
	p.Title.Text = "RC lowpass, 1kHz sine"
	p.X.Label.Text = "t (s)"
	p.Y.Label.Text = "V(OUT) (V)"

	pts := make(plotter.XYs, len(times))
	for i := range times {
		pts[i].X = times[i]
		pts[i].Y = vout[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		log.Fatalf("plot: %v", err)
	}
	p.Add(line)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, "tran1.png"); err != nil {
		log.Fatalf("plot save: %v", err)
	}

	fmt.Printf("%d steps, final V(OUT)=%.6f V\n", len(times), vout[len(vout)-1])
	fmt.Println("wrote tran1.csv, tran1.png")
}
