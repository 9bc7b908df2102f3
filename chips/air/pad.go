package air

import "github.com/rv32air/zkcore/field"

// NextPowerOfTwo returns the smallest power of two >= n, with a floor of 1
// (spec §4.9, "pads each chip's trace to a power of two").
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// PadRows extends rows to NextPowerOfTwo(len(rows)) by appending all-zero
// rows of the given width. An all-zero row satisfies every chip's
// constraints in this core because every chip's "is real" selector is
// column 0 of its layout and every eval gates its real constraints behind
// that selector (spec §3, "padding rows must satisfy all constraints
// ... by leaving is_real = 0").
func PadRows(rows [][]field.Element, width int) [][]field.Element {
	target := NextPowerOfTwo(len(rows))
	if target == len(rows) {
		return rows
	}
	out := make([][]field.Element, target)
	copy(out, rows)
	for i := len(rows); i < target; i++ {
		out[i] = make([]field.Element, width)
	}
	return out
}
