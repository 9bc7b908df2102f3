package word

import "testing"

func TestFromUint32RoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 255, 256, 0xDEADBEEF, 0xFFFFFFFF}
	for _, v := range cases {
		w := FromUint32(v)
		if got := w.Uint32(); got != v {
			t.Errorf("FromUint32(%#x).Uint32() = %#x, want %#x", v, got, v)
		}
		if !w.Valid() {
			t.Errorf("FromUint32(%#x) produced an invalid word: %+v", v, w)
		}
	}
}

func TestFromUint32LittleEndian(t *testing.T) {
	w := FromUint32(0xDEADBEEF)
	want := [4]uint8{0xEF, 0xBE, 0xAD, 0xDE}
	for i, b := range want {
		if w.Byte(i) != b {
			t.Errorf("byte %d = %#x, want %#x", i, w.Byte(i), b)
		}
	}
}

func TestFromInt32(t *testing.T) {
	w := FromInt32(-1)
	if w.Uint32() != 0xFFFFFFFF {
		t.Errorf("FromInt32(-1).Uint32() = %#x, want 0xFFFFFFFF", w.Uint32())
	}
	if w.Int32() != -1 {
		t.Errorf("Int32() = %d, want -1", w.Int32())
	}
}

func TestEqual(t *testing.T) {
	a := FromUint32(42)
	b := FromUint32(42)
	c := FromUint32(43)
	if !a.Equal(b) {
		t.Error("expected equal words to compare equal")
	}
	if a.Equal(c) {
		t.Error("expected distinct words to compare unequal")
	}
}

func TestZero(t *testing.T) {
	if Zero.Uint32() != 0 {
		t.Errorf("Zero.Uint32() = %d, want 0", Zero.Uint32())
	}
	if !Zero.Valid() {
		t.Error("Zero should be a valid word")
	}
}
