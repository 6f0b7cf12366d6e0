package matrix

import (
	"fmt"
	"io"
)

// Print dumps A | z as a table. label maps an unknown index to its
// meaning; pass nil for bare indices.
func (s *System) Print(w io.Writer, label func(int) string) {
	n := s.n
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%d", i)
		if label != nil {
			name = label(i)
		}
		fmt.Fprintf(w, "%-16s", name)
		for j := 0; j < n; j++ {
			fmt.Fprintf(w, " %11.4e", s.GetA(i, j))
		}
		fmt.Fprintf(w, " | %11.4e\n", s.GetZ(i))
	}
}
