package memory

import (
	"testing"

	"github.com/rv32air/zkcore/chips/air"
	"github.com/rv32air/zkcore/field"
	"github.com/rv32air/zkcore/record"
	"github.com/rv32air/zkcore/word"
)

func access(addr, clk, prevClk uint32, prev, val uint32) *record.MemAccess {
	return &record.MemAccess{
		Addr: addr, Shard: 0, Clk: clk, PrevShard: 0, PrevClk: prevClk,
		PrevValue: word.FromUint32(prev), Value: word.FromUint32(val),
	}
}

// recordOf threads accesses through CPU events the way the interpreter
// does (one op_a slot per event is enough for the chip's collector).
func recordOf(accesses ...*record.MemAccess) *record.ExecutionRecord {
	rec := record.NewExecutionRecord(0)
	for i, a := range accesses {
		rec.CPUEvents = append(rec.CPUEvents, record.CPUEvent{Clk: uint32(i) * 16, OpAAccess: a})
	}
	return rec
}

func TestMemoryChipSortsAndChains(t *testing.T) {
	// Two addresses, appended out of address order; the second touch of
	// 0x1000 chains from the first touch's value.
	rec := recordOf(
		access(0x2000, 4, 0, 0, 7),
		access(0x1000, 8, 0, 0, 5),
		access(0x1000, 24, 8, 5, 9),
	)
	chip := New()
	rows := chip.GenerateTrace(rec)
	violations, _ := air.EvalTrace(chip.Name(), rows, chip.Eval)
	for _, v := range violations {
		t.Errorf("%s", v)
	}
	if len(rows) != 4 { // 3 real rows padded to 4
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	// Sorted by (addr, shard, clk): both 0x1000 rows first, contiguous.
	if got := rows[0][colSameAsNext]; !got.Equal(field.One) {
		t.Error("first 0x1000 row should be flagged same-as-next")
	}
	if got := rows[1][colSameAsNext]; !got.IsZero() {
		t.Error("address boundary row must not be flagged same-as-next")
	}
}

func TestMemoryChipRejectsBrokenChain(t *testing.T) {
	// The second touch claims a previous value that does not match the
	// first touch's written value.
	rec := recordOf(
		access(0x1000, 8, 0, 0, 5),
		access(0x1000, 24, 8, 6, 9), // prev says 6, chain wrote 5
	)
	chip := New()
	rows := chip.GenerateTrace(rec)
	violations, _ := air.EvalTrace(chip.Name(), rows, chip.Eval)
	if len(violations) == 0 {
		t.Fatal("expected a value-continuity violation")
	}
}

func TestMemoryChipLexOrderDiff(t *testing.T) {
	// An access whose (prev_shard, prev_clk) sits after (shard, clk) has a
	// lex difference that cannot decompose into four range-checked bytes
	// matching the packed subtraction.
	rec := recordOf(access(0x1000, 8, 0x100000, 0, 5))
	chip := New()
	rows := chip.GenerateTrace(rec)
	violations, _ := air.EvalTrace(chip.Name(), rows, chip.Eval)
	if len(violations) == 0 {
		t.Fatal("expected a lex-order violation for a backwards access")
	}
}
