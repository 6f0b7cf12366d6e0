package matrix

import (
	"fmt"
)

// System is the dense MNA linear system A*x = z.
// Row-major storage, 0-based indexing. Ground is never stored; stamp
// helpers in pkg/device guard against GND before touching rows.
// Dense is deliberate: target circuits stay under ~100 unknowns with
// fill above 30%, and the solver's pivot-on-failure reporting relies on
// plain row arithmetic.
type System struct {
	n int
	a []float64
	z []float64
}

func New(size int) (*System, error) {
	if size <= 0 {
		return nil, fmt.Errorf("matrix: invalid size: %d", size)
	}
	s := &System{}
	s.Resize(size)
	return s, nil
}

// Resize sets the system dimension. Existing contents are discarded.
func (s *System) Resize(n int) {
	if n == s.n {
		s.Clear()
		return
	}
	s.n = n
	s.a = make([]float64, n*n)
	s.z = make([]float64, n)
}

func (s *System) Size() int { return s.n }

// Clear zeroes A and z in place without reallocating.
func (s *System) Clear() {
	for i := range s.a {
		s.a[i] = 0
	}
	for i := range s.z {
		s.z[i] = 0
	}
}

func (s *System) AddA(r, c int, v float64) {
	s.a[r*s.n+c] += v
}

func (s *System) AddZ(r int, v float64) {
	s.z[r] += v
}

func (s *System) GetA(r, c int) float64 {
	return s.a[r*s.n+c]
}

func (s *System) GetZ(r int) float64 {
	return s.z[r]
}

// Mat exposes the raw row-major matrix for diagnostics and tests.
func (s *System) Mat() []float64 { return s.a }

// RHS exposes the raw right-hand side.
func (s *System) RHS() []float64 { return s.z }

// Residual computes r = A*x - z into out. out must have length Size.
func (s *System) Residual(x, out []float64) {
	n := s.n
	for i := 0; i < n; i++ {
		row := s.a[i*n : (i+1)*n]
		sum := 0.0
		for j := 0; j < n; j++ {
			sum += row[j] * x[j]
		}
		out[i] = sum - s.z[i]
	}
}
