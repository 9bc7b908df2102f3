package field

import "testing"

func TestEFAddSub(t *testing.T) {
	a := NewEF(New(1), New(2), New(3), New(4))
	b := NewEF(New(5), New(6), New(7), New(8))
	sum := a.Add(b)
	if got := sum.Sub(b); !got.Equal(a) {
		t.Errorf("(a+b)-b = %+v, want %+v", got.Coeffs(), a.Coeffs())
	}
}

func TestEFEmbedIsConstant(t *testing.T) {
	e := Embed(New(9))
	want := NewEF(New(9), Zero, Zero, Zero)
	if !e.Equal(want) {
		t.Errorf("Embed(9) = %+v, want %+v", e.Coeffs(), want.Coeffs())
	}
}

func TestEFMulIdentity(t *testing.T) {
	a := NewEF(New(3), New(1), New(4), New(1))
	if got := a.Mul(EFOne); !got.Equal(a) {
		t.Errorf("a * 1 = %+v, want %+v", got.Coeffs(), a.Coeffs())
	}
}

func TestEFMulInverse(t *testing.T) {
	a := NewEF(New(3), New(1), New(4), New(1))
	inv := a.Inverse()
	if got := a.Mul(inv); !got.Equal(EFOne) {
		t.Errorf("a * a^-1 = %+v, want 1", got.Coeffs())
	}
}

func TestEFInverseZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Inverse of zero extension element to panic")
		}
	}()
	EFZero.Inverse()
}

func TestEFMulBase(t *testing.T) {
	a := NewEF(New(1), New(2), New(3), New(4))
	got := a.MulBase(New(2))
	want := NewEF(New(2), New(4), New(6), New(8))
	if !got.Equal(want) {
		t.Errorf("a.MulBase(2) = %+v, want %+v", got.Coeffs(), want.Coeffs())
	}
}

func TestEFIsZero(t *testing.T) {
	if !EFZero.IsZero() {
		t.Error("EFZero should report zero")
	}
	if EFOne.IsZero() {
		t.Error("EFOne should not report zero")
	}
}
