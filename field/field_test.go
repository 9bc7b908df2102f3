package field

import "testing"

func TestAddSubRoundTrip(t *testing.T) {
	a := New(1000000000)
	b := New(1500000000)
	sum := a.Add(b)
	if got := sum.Sub(b); !got.Equal(a) {
		t.Errorf("(a+b)-b = %s, want %s", got, a)
	}
}

func TestAddWraps(t *testing.T) {
	a := New(Modulus - 1)
	b := New(2)
	got := a.Add(b)
	want := New(1)
	if !got.Equal(want) {
		t.Errorf("(p-1)+2 = %s, want %s", got, want)
	}
}

func TestSubUnderflow(t *testing.T) {
	a := New(0)
	b := New(1)
	got := a.Sub(b)
	want := New(Modulus - 1)
	if !got.Equal(want) {
		t.Errorf("0-1 = %s, want %s", got, want)
	}
}

func TestNeg(t *testing.T) {
	a := New(5)
	if s := a.Add(a.Neg()); !s.IsZero() {
		t.Errorf("a + (-a) = %s, want 0", s)
	}
	if z := Zero.Neg(); !z.IsZero() {
		t.Errorf("-0 = %s, want 0", z)
	}
}

func TestMulAndInverse(t *testing.T) {
	a := New(12345)
	inv := a.Inverse()
	if got := a.Mul(inv); !got.Equal(One) {
		t.Errorf("a * a^-1 = %s, want 1", got)
	}
}

func TestInverseZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Inverse of zero to panic")
		}
	}()
	Zero.Inverse()
}

func TestExp(t *testing.T) {
	a := New(3)
	if got := a.Exp(0); !got.Equal(One) {
		t.Errorf("a^0 = %s, want 1", got)
	}
	if got := a.Exp(2); !got.Equal(New(9)) {
		t.Errorf("3^2 = %s, want 9", got)
	}
}

func TestFromInt64Negative(t *testing.T) {
	got := FromInt64(-1)
	want := New(Modulus - 1)
	if !got.Equal(want) {
		t.Errorf("FromInt64(-1) = %s, want %s", got, want)
	}
}

func TestInRangeByte(t *testing.T) {
	if !New(255).InRangeByte() {
		t.Error("255 should be in byte range")
	}
	if New(256).InRangeByte() {
		t.Error("256 should not be in byte range")
	}
}

func TestFromCanonicalU32(t *testing.T) {
	if got := FromCanonicalU32(7).Uint32(); got != 7 {
		t.Errorf("FromCanonicalU32(7).Uint32() = %d, want 7", got)
	}
}

func TestModulusIsBabyBear(t *testing.T) {
	const want = uint64(1<<31) - (1 << 27) + 1
	if Modulus != want {
		t.Errorf("Modulus = %d, want %d", Modulus, want)
	}
}
