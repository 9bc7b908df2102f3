package byte

import (
	"testing"

	"github.com/rv32air/zkcore/chips/air"
	"github.com/rv32air/zkcore/field"
	"github.com/rv32air/zkcore/record"
)

func fact(a, b uint32, mult uint32) air.BusEvent {
	return air.BusEvent{
		Bus: Bus,
		Tuple: []field.Element{
			field.FromCanonicalU32(a), field.FromCanonicalU32(b),
			field.FromCanonicalU32(a & b), field.FromCanonicalU32(a | b), field.FromCanonicalU32(a ^ b),
		},
		Mult: field.FromCanonicalU32(mult),
	}
}

func TestFeedDemandTallies(t *testing.T) {
	c := New()
	c.FeedDemand([]air.BusEvent{
		fact(3, 5, 1),
		fact(3, 5, 2), // same fact demanded again
		fact(0, 0, 1),
	})
	rows := c.GenerateTrace(record.NewExecutionRecord(0))
	if len(rows) != 1<<16 {
		t.Fatalf("rows = %d, want %d", len(rows), 1<<16)
	}
	// Rows are laid out a-major: row index = a*256 + b.
	if got := rows[3*256+5][colMult].Uint32(); got != 3 {
		t.Errorf("mult(3,5) = %d, want 3", got)
	}
	if got := rows[0][colMult].Uint32(); got != 1 {
		t.Errorf("mult(0,0) = %d, want 1", got)
	}
	if got := rows[7*256+7][colMult].Uint32(); got != 0 {
		t.Errorf("mult(7,7) = %d, want 0", got)
	}
}

func TestFeedDemandIgnoresMalformedFacts(t *testing.T) {
	c := New()
	bad := fact(3, 5, 1)
	bad.Tuple[4] = field.FromCanonicalU32(99) // wrong XOR claim
	c.FeedDemand([]air.BusEvent{bad})
	rows := c.GenerateTrace(record.NewExecutionRecord(0))
	if got := rows[3*256+5][colMult].Uint32(); got != 0 {
		t.Errorf("malformed fact must not be tallied, got mult %d", got)
	}
}

func TestByteChipEvalClean(t *testing.T) {
	c := New()
	c.FeedDemand([]air.BusEvent{fact(0xAB, 0xCD, 4)})
	rows := c.GenerateTrace(record.NewExecutionRecord(0))
	violations, events := air.EvalTrace(c.Name(), rows, c.Eval)
	if len(violations) != 0 {
		t.Fatalf("violations: %v", violations)
	}
	// Exactly one row carries a nonzero multiplicity, so exactly one
	// receive is recorded.
	if len(events) != 1 {
		t.Fatalf("bus events = %d, want 1", len(events))
	}
	if !events[0].Receive || events[0].Mult.Uint32() != 4 {
		t.Errorf("unexpected event: %+v", events[0])
	}
}
