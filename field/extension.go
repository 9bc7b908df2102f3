package field

// EF is the degree-4 extension of F used by the interaction layer's
// permutation argument: EF = F[x] / (x^4 - Beta), Beta = 11 (the standard
// Baby Bear quartic non-residue). Lookup challenges (beta, gamma) and the
// running cumulative-sum column live in EF so the argument has soundness
// error O(1/|EF|) instead of O(1/|F|).
type EF struct {
	c [4]Element
}

// nonResidue is the quartic non-residue Beta = 11 used to build EF.
var nonResidue = FromCanonicalU32(11)

// EFZero is the additive identity of EF.
var EFZero = EF{}

// EFOne is the multiplicative identity of EF.
var EFOne = EF{c: [4]Element{One, Zero, Zero, Zero}}

// NewEF builds an extension element from its four base-field coefficients,
// c0 + c1*x + c2*x^2 + c3*x^3.
func NewEF(c0, c1, c2, c3 Element) EF {
	return EF{c: [4]Element{c0, c1, c2, c3}}
}

// Embed lifts a base field element into EF as a constant (c1=c2=c3=0). This
// is the "base -> extension embedding" spec §3 requires.
func Embed(a Element) EF {
	return EF{c: [4]Element{a, Zero, Zero, Zero}}
}

// Coeffs returns the four base-field coefficients, least significant first.
func (a EF) Coeffs() [4]Element { return a.c }

// IsZero reports whether every coefficient is zero.
func (a EF) IsZero() bool {
	return a.c[0].IsZero() && a.c[1].IsZero() && a.c[2].IsZero() && a.c[3].IsZero()
}

// Equal reports whether a and b represent the same extension element.
func (a EF) Equal(b EF) bool {
	for i := range a.c {
		if !a.c[i].Equal(b.c[i]) {
			return false
		}
	}
	return true
}

// Add returns a + b, coefficient-wise.
func (a EF) Add(b EF) EF {
	var r EF
	for i := range a.c {
		r.c[i] = a.c[i].Add(b.c[i])
	}
	return r
}

// Sub returns a - b, coefficient-wise.
func (a EF) Sub(b EF) EF {
	var r EF
	for i := range a.c {
		r.c[i] = a.c[i].Sub(b.c[i])
	}
	return r
}

// Neg returns -a.
func (a EF) Neg() EF {
	var r EF
	for i := range a.c {
		r.c[i] = a.c[i].Neg()
	}
	return r
}

// Mul multiplies two extension elements via schoolbook polynomial
// multiplication followed by reduction modulo x^4 - Beta: any x^4 term
// produced by the convolution is replaced by Beta, x^5 by Beta*x, and so on.
func (a EF) Mul(b EF) EF {
	// Schoolbook convolution into degree-6 coefficients.
	var conv [7]Element
	for i := 0; i < 4; i++ {
		if a.c[i].IsZero() {
			continue
		}
		for j := 0; j < 4; j++ {
			conv[i+j] = conv[i+j].Add(a.c[i].Mul(b.c[j]))
		}
	}
	// Reduce degree >=4 terms: x^4 = Beta, x^5 = Beta*x, x^6 = Beta*x^2.
	var r EF
	r.c[0] = conv[0].Add(conv[4].Mul(nonResidue))
	r.c[1] = conv[1].Add(conv[5].Mul(nonResidue))
	r.c[2] = conv[2].Add(conv[6].Mul(nonResidue))
	r.c[3] = conv[3]
	return r
}

// MulBase multiplies an extension element by a base-field scalar.
func (a EF) MulBase(s Element) EF {
	var r EF
	for i := range a.c {
		r.c[i] = a.c[i].Mul(s)
	}
	return r
}

// p4Minus2Hi and p4Minus2Lo are the big-endian 64-bit limbs of p^4 - 2
// (p = 2013265921), the exponent Inverse raises a to. p^4 - 2 is a fixed
// constant of the field definition, so it is precomputed rather than
// derived at runtime.
const (
	p4Minus2Hi uint64 = 0xc5c100069780001
	p4Minus2Lo uint64 = 0x51800001dfffffff
)

// Inverse returns a^-1 in EF via a^(p^4-2) (Fermat's little theorem
// generalized to EF*, whose order is p^4-1), computed by square-and-multiply
// over EF.Mul. Panics if a is zero.
func (a EF) Inverse() EF {
	if a.IsZero() {
		panic("field: inverse of zero extension element")
	}
	result := EFOne
	base := a
	for _, word := range [2]uint64{p4Minus2Hi, p4Minus2Lo} {
		for b := 0; b < 64; b++ {
			if word&(1<<63) != 0 {
				result = result.Mul(result)
				result = result.Mul(base)
			} else {
				result = result.Mul(result)
			}
			word <<= 1
		}
	}
	return result
}
