// Package word implements the universal 32-bit register/memory cell
// representation: an ordered 4-tuple of field elements, each constrained in
// AIR to lie in [0,256). Semantic value = b0 + 256*b1 + 256^2*b2 + 256^3*b3
// (little-endian byte order, matching RV32 memory semantics).
package word

import "github.com/rv32air/zkcore/field"

// Word is four field elements representing a 32-bit integer byte-wise.
type Word [4]field.Element

// Zero is the word with every byte zero.
var Zero = Word{}

// FromUint32 decomposes x into its four little-endian bytes.
func FromUint32(x uint32) Word {
	return Word{
		field.FromCanonicalU32(x & 0xff),
		field.FromCanonicalU32((x >> 8) & 0xff),
		field.FromCanonicalU32((x >> 16) & 0xff),
		field.FromCanonicalU32((x >> 24) & 0xff),
	}
}

// FromInt32 decomposes the two's-complement bit pattern of x.
func FromInt32(x int32) Word {
	return FromUint32(uint32(x))
}

// Uint32 recomposes the word's semantic value. The caller's own
// construction path (FromUint32, memory reads) guarantees each byte is
// already in [0,256); AIR-side validity of untrusted bytes is checked
// separately via InRangeByte.
func (w Word) Uint32() uint32 {
	return uint32(w[0].Uint32()) |
		uint32(w[1].Uint32())<<8 |
		uint32(w[2].Uint32())<<16 |
		uint32(w[3].Uint32())<<24
}

// Int32 recomposes the word's semantic value as a signed 32-bit integer.
func (w Word) Int32() int32 { return int32(w.Uint32()) }

// Equal reports whether w and o hold the same four bytes.
func (w Word) Equal(o Word) bool {
	for i := range w {
		if !w[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Valid reports whether every byte lies in [0,256), the invariant the AIR
// enforces on every Word cell (spec P7).
func (w Word) Valid() bool {
	for _, b := range w {
		if !b.InRangeByte() {
			return false
		}
	}
	return true
}

// Byte returns byte lane i (0 = least significant) as a plain uint8. Panics
// if the lane is out of range; callers index with constants 0..3.
func (w Word) Byte(i int) uint8 { return uint8(w[i].Uint32()) }
