// Package wave holds the post-processing scaffolding around the
// solver: CSV export of transient traces and the single-frequency DFT
// used for THD figures. The DFT projects onto ten harmonics at known
// frequencies, so a full FFT buys nothing here.
package wave

import (
	"fmt"
	"math"
	"os"
)

// ExportCSV writes a time/value trace.
func ExportCSV(path string, time, signal []float64) error {
	if len(time) != len(signal) {
		return fmt.Errorf("wave: time and signal lengths differ (%d vs %d)", len(time), len(signal))
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wave: %w", err)
	}
	defer f.Close()

	fmt.Fprintln(f, "time,value")
	for i := range time {
		fmt.Fprintf(f, "%g,%g\n", time[i], signal[i])
	}
	return nil
}

// MagnitudeAt correlates the signal against targetFreq and returns the
// single-sided amplitude of that component.
func MagnitudeAt(signal []float64, dt, targetFreq float64) float64 {
	var re, im float64
	for n, s := range signal {
		angle := 2.0 * math.Pi * targetFreq * float64(n) * dt
		re += s * math.Cos(angle)
		im += s * -math.Sin(angle)
	}
	return 2.0 * math.Hypot(re, im) / float64(len(signal))
}

// THD returns total harmonic distortion over harmonics 2..10 as a
// fraction of the fundamental amplitude.
func THD(signal []float64, dt, fundamentalFreq float64) float64 {
	f1 := MagnitudeAt(signal, dt, fundamentalFreq)
	if f1 < 1e-9 {
		return 0
	}

	sumSq := 0.0
	for h := 2; h <= 10; h++ {
		mag := MagnitudeAt(signal, dt, fundamentalFreq*float64(h))
		sumSq += mag * mag
	}
	return math.Sqrt(sumSq) / f1
}
