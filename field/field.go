// Package field implements the prime field F that the AIR layer's trace
// matrices and constraints are defined over, plus its degree-4 extension EF
// used by the interaction (lookup) layer's permutation argument.
//
// F is the Baby Bear field: p = 2^31 - 2^27 + 1 = 2013265921. Every Word
// byte, every register value, and every trace cell is an element of F.
package field

import "fmt"

// Modulus is the Baby Bear prime p = 2^31 - 2^27 + 1.
const Modulus uint64 = 2013265921

// Element is a value in F, always held in canonical form (0 <= v < Modulus).
// The zero value is the field element 0.
type Element struct {
	v uint32
}

// Zero is the additive identity.
var Zero = Element{0}

// One is the multiplicative identity.
var One = Element{1}

// New reduces x modulo Modulus and returns the corresponding Element.
func New(x uint64) Element {
	return Element{uint32(x % Modulus)}
}

// FromCanonicalU32 wraps x, which the caller asserts already lies in
// [0, Modulus), without re-reducing it. Used on hot paths (byte
// decomposition) where the value is known small.
func FromCanonicalU32(x uint32) Element {
	return Element{x}
}

// FromInt64 reduces a signed value into F, mapping negative integers to
// their representative in [0, Modulus).
func FromInt64(x int64) Element {
	m := int64(Modulus)
	x %= m
	if x < 0 {
		x += m
	}
	return Element{uint32(x)}
}

// Uint32 returns the canonical representative in [0, Modulus).
func (a Element) Uint32() uint32 { return a.v }

// Uint64 returns the canonical representative widened to uint64.
func (a Element) Uint64() uint64 { return uint64(a.v) }

// IsZero reports whether a is the additive identity.
func (a Element) IsZero() bool { return a.v == 0 }

// Equal reports whether a and b represent the same field element.
func (a Element) Equal(b Element) bool { return a.v == b.v }

// Add returns a + b mod p.
func (a Element) Add(b Element) Element {
	s := uint64(a.v) + uint64(b.v)
	if s >= Modulus {
		s -= Modulus
	}
	return Element{uint32(s)}
}

// Sub returns a - b mod p.
func (a Element) Sub(b Element) Element {
	if a.v >= b.v {
		return Element{a.v - b.v}
	}
	return Element{uint32(Modulus) - b.v + a.v}
}

// Neg returns -a mod p.
func (a Element) Neg() Element {
	if a.v == 0 {
		return a
	}
	return Element{uint32(Modulus) - a.v}
}

// Mul returns a * b mod p.
func (a Element) Mul(b Element) Element {
	return Element{uint32((uint64(a.v) * uint64(b.v)) % Modulus)}
}

// Exp returns a^n mod p via square-and-multiply.
func (a Element) Exp(n uint64) Element {
	result := One
	base := a
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Mul(base)
		n >>= 1
	}
	return result
}

// Inverse returns a^-1 mod p via Fermat's little theorem (a^(p-2)). Panics on
// zero, matching the AIR's requirement that inverses are only ever taken of
// values already constrained nonzero.
func (a Element) Inverse() Element {
	if a.IsZero() {
		panic("field: inverse of zero")
	}
	return a.Exp(Modulus - 2)
}

// String renders the canonical representative for debugging.
func (a Element) String() string { return fmt.Sprintf("%d", a.v) }

// InRangeByte reports whether a's canonical representative lies in [0,256),
// the range every Word byte must satisfy. Used by the debug harness to
// check the "word validity" property (spec P7) directly against concrete
// trace values.
func (a Element) InRangeByte() bool { return a.v < 256 }
