package interaction

import (
	"testing"

	"github.com/rv32air/zkcore/chips/air"
	"github.com/rv32air/zkcore/field"
)

func send(bus string, mult uint32, vals ...uint32) air.BusEvent {
	return air.BusEvent{Bus: bus, Tuple: elems(vals), Mult: field.FromCanonicalU32(mult)}
}

func receive(bus string, mult uint32, vals ...uint32) air.BusEvent {
	e := send(bus, mult, vals...)
	e.Receive = true
	return e
}

func elems(vals []uint32) []field.Element {
	out := make([]field.Element, len(vals))
	for i, v := range vals {
		out[i] = field.FromCanonicalU32(v)
	}
	return out
}

func TestCheckClosureBalanced(t *testing.T) {
	events := []air.BusEvent{
		send("alu", 1, 1, 7, 3, 4),
		receive("alu", 1, 1, 7, 3, 4),
		send("byte", 2, 3, 5),
		receive("byte", 1, 3, 5),
		receive("byte", 1, 3, 5),
	}
	if imb := CheckClosure(events); len(imb) != 0 {
		t.Fatalf("unexpected imbalances: %v", imb)
	}
}

func TestCheckClosureReportsNet(t *testing.T) {
	events := []air.BusEvent{
		send("alu", 1, 1, 7, 3, 4),
		receive("alu", 3, 1, 7, 3, 4),
		send("memory", 1, 9),
	}
	imb := CheckClosure(events)
	if len(imb) != 2 {
		t.Fatalf("imbalances = %d, want 2: %v", len(imb), imb)
	}
	// Sorted by key: "alu|..." before "memory|...".
	if imb[0].Bus != "alu" || imb[0].Net != 2 {
		t.Errorf("alu imbalance = %+v, want net +2", imb[0])
	}
	if imb[1].Bus != "memory" || imb[1].Net != -1 {
		t.Errorf("memory imbalance = %+v, want net -1", imb[1])
	}
}

func TestCheckClosureDistinguishesTuples(t *testing.T) {
	events := []air.BusEvent{
		send("alu", 1, 1, 2),
		receive("alu", 1, 2, 1), // same elements, different order
	}
	if imb := CheckClosure(events); len(imb) != 2 {
		t.Fatalf("tuples with permuted elements must not cancel, got %v", imb)
	}
}

func TestSha3ChallengerDeterministic(t *testing.T) {
	a := NewSha3Challenger("test")
	b := NewSha3Challenger("test")
	a.Observe(field.FromCanonicalU32(42))
	b.Observe(field.FromCanonicalU32(42))
	if !a.Sample().Equal(b.Sample()) {
		t.Error("identical transcripts must sample identically")
	}
	if !a.Sample().Equal(b.Sample()) {
		t.Error("identical transcripts must keep sampling identically")
	}
}

func TestSha3ChallengerDiverges(t *testing.T) {
	a := NewSha3Challenger("test")
	b := NewSha3Challenger("test")
	a.Observe(field.FromCanonicalU32(1))
	b.Observe(field.FromCanonicalU32(2))
	if a.Sample().Equal(b.Sample()) {
		t.Error("different transcripts must sample differently")
	}
}

func TestCommitDistinguishesLeaves(t *testing.T) {
	a := Commit([][]byte{[]byte("one"), []byte("two")})
	b := Commit([][]byte{[]byte("one"), []byte("two")})
	c := Commit([][]byte{[]byte("one"), []byte("three")})
	if a != b {
		t.Error("commit must be deterministic")
	}
	if a == c {
		t.Error("different leaves must commit differently")
	}
	if Commit(nil) == a {
		t.Error("empty commit must differ from nonempty")
	}
}
