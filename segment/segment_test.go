package segment

import (
	"testing"

	"github.com/rv32air/zkcore/record"
	"github.com/rv32air/zkcore/word"
)

func cpuEvent(clk uint32) record.CPUEvent {
	return record.CPUEvent{
		Shard: 0, Clk: clk,
		OpAAccess: &record.MemAccess{Addr: 0x1000, Shard: 0, Clk: clk, PrevClk: 0, Value: word.FromUint32(1)},
	}
}

func TestSplitEmptyRecord(t *testing.T) {
	shards := Split(record.NewExecutionRecord(0), 2)
	if len(shards) != 1 {
		t.Fatalf("shards = %d, want 1", len(shards))
	}
	if len(shards[0].CPUEvents) != 0 {
		t.Errorf("empty record must split into one empty shard")
	}
}

func TestSplitRetagsShardAndClk(t *testing.T) {
	rec := record.NewExecutionRecord(0)
	for i := uint32(0); i < 4; i++ {
		rec.CPUEvents = append(rec.CPUEvents, cpuEvent(i*16))
	}
	rec.AppendALU(record.ALUEvent{Clk: 32, Opcode: 1}) // third cycle's event

	shards := Split(rec, 2)
	if len(shards) != 2 {
		t.Fatalf("shards = %d, want 2", len(shards))
	}
	// Shard 1 starts at global clk 32; its events are shard-local.
	if got := shards[1].CPUEvents[0].Clk; got != 0 {
		t.Errorf("shard 1 first cpu clk = %d, want 0", got)
	}
	if got := shards[1].CPUEvents[0].Shard; got != 1 {
		t.Errorf("shard 1 cpu shard tag = %d, want 1", got)
	}
	if got := shards[1].CPUEvents[1].Clk; got != 16 {
		t.Errorf("shard 1 second cpu clk = %d, want 16", got)
	}
	var aluRows int
	for _, evs := range shards[1].ALUEvents {
		for _, ev := range evs {
			aluRows++
			if ev.Shard != 1 || ev.Clk != 0 {
				t.Errorf("alu event retag = (shard %d, clk %d), want (1, 0)", ev.Shard, ev.Clk)
			}
		}
	}
	if aluRows != 1 {
		t.Errorf("shard 1 alu events = %d, want 1", aluRows)
	}
}

func TestSplitRemapsAccessPrevClk(t *testing.T) {
	rec := record.NewExecutionRecord(0)
	rec.CPUEvents = append(rec.CPUEvents, cpuEvent(0))
	second := cpuEvent(16)
	// The second access chains from the first shard's clk 0.
	second.OpAAccess.PrevClk = 0
	rec.CPUEvents = append(rec.CPUEvents, second)

	shards := Split(rec, 1)
	if len(shards) != 2 {
		t.Fatalf("shards = %d, want 2", len(shards))
	}
	acc := shards[1].CPUEvents[0].OpAAccess
	if acc.Shard != 1 || acc.Clk != 0 {
		t.Errorf("access retag = (shard %d, clk %d), want (1, 0)", acc.Shard, acc.Clk)
	}
	if acc.PrevShard != 0 || acc.PrevClk != 0 {
		t.Errorf("prev access = (shard %d, clk %d), want (0, 0)", acc.PrevShard, acc.PrevClk)
	}
}
