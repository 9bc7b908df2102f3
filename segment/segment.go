// Package segment implements shard splitting (spec §4.9): dividing one
// Runtime's Execution Record into bounded-size shards, each provable
// independently, while preserving the cross-shard memory coherence every
// access's (prev_shard, prev_clk) pair encodes (spec P4).
//
// The interpreter itself always runs as a single logical stream tagged
// Shard 0 with a globally increasing clk (runtime.Runtime never shards
// itself -- spec §5, "the interpreter is strictly single-threaded and
// sequential"); Split is the pure post-processing pass that re-tags every
// event with its shard index and rewrites every clk to be shard-local,
// matching spec §4.9's "Cross-shard memory coherence is preserved because
// every memory access carries (prev_shard, prev_clk)".
package segment

import (
	"sort"

	"github.com/rv32air/zkcore/log"
	"github.com/rv32air/zkcore/metrics"
	"github.com/rv32air/zkcore/record"
)

// DefaultMaxShardCycles is the typical shard bound spec §4.9 names
// ("power of two, configurable; typically 2^20").
const DefaultMaxShardCycles = 1 << 20

// boundaries maps global clk values to (shard index, shard-local clk).
type boundaries struct {
	clkLo []uint32 // clkLo[i] is shard i's first CPU event's global clk
}

func (b *boundaries) shardOf(globalClk uint32) (shard uint32, localClk uint32) {
	i := sort.Search(len(b.clkLo), func(i int) bool { return b.clkLo[i] > globalClk }) - 1
	if i < 0 {
		i = 0
	}
	return uint32(i), globalClk - b.clkLo[i]
}

// Split divides rec into shards of at most maxShardCycles CPU cycles
// each (spec §4.9). A record with no CPU events returns a single empty
// shard. maxShardCycles of 0 uses DefaultMaxShardCycles.
func Split(rec *record.ExecutionRecord, maxShardCycles uint32) []*record.ExecutionRecord {
	if maxShardCycles == 0 {
		maxShardCycles = DefaultMaxShardCycles
	}
	if len(rec.CPUEvents) == 0 {
		return []*record.ExecutionRecord{record.NewExecutionRecord(0)}
	}

	numShards := (len(rec.CPUEvents) + int(maxShardCycles) - 1) / int(maxShardCycles)
	b := &boundaries{clkLo: make([]uint32, numShards)}
	for i := 0; i < numShards; i++ {
		startIdx := i * int(maxShardCycles)
		b.clkLo[i] = rec.CPUEvents[startIdx].Clk
	}

	shards := make([]*record.ExecutionRecord, numShards)
	for i := range shards {
		shards[i] = record.NewExecutionRecord(uint32(i))
	}

	for idx, ev := range rec.CPUEvents {
		shardIdx := idx / int(maxShardCycles)
		s := shards[shardIdx]
		ev.Shard = uint32(shardIdx)
		ev.Clk -= b.clkLo[shardIdx]
		ev.OpAAccess = remapAccess(ev.OpAAccess, b)
		ev.OpBAccess = remapAccess(ev.OpBAccess, b)
		ev.OpCAccess = remapAccess(ev.OpCAccess, b)
		ev.MemAccess = remapAccess(ev.MemAccess, b)
		s.CPUEvents = append(s.CPUEvents, ev)
	}

	for _, events := range rec.ALUEvents {
		for _, ev := range events {
			shardIdx, localClk := b.shardOf(ev.Clk)
			ev.Shard = shardIdx
			ev.Clk = localClk
			shards[shardIdx].AppendALU(ev)
		}
	}

	for _, ev := range rec.MemoryEvents {
		shardIdx, localClk := b.shardOf(ev.Clk)
		ev.Shard = shardIdx
		ev.Clk = localClk
		access := remapAccess(&ev.Access, b)
		ev.Access = *access
		shards[shardIdx].MemoryEvents = append(shards[shardIdx].MemoryEvents, ev)
	}

	for _, events := range rec.PrecompileEvents {
		for _, ev := range events {
			// ClkIn always falls strictly within its triggering ecall
			// cycle's shard (see package doc); looking shard up from
			// ClkIn rather than ClkOut avoids misclassifying an
			// invocation whose ClkOut lands exactly on the next shard's
			// boundary clk.
			shardIdx, localIn := b.shardOf(ev.ClkIn)
			_, localOut := b.shardOf(ev.ClkOut)
			ev.Shard = shardIdx
			ev.ClkIn = localIn
			ev.ClkOut = localOut
			ev.MemReads = remapAccessSlice(ev.MemReads, b)
			ev.MemWrites = remapAccessSlice(ev.MemWrites, b)
			shards[shardIdx].AppendPrecompile(ev)
		}
	}

	metrics.ShardsEmitted.Add(int64(numShards))
	log.Debug("segment split", "shards", numShards, "cpu_events", len(rec.CPUEvents), "max_shard_cycles", maxShardCycles)
	return shards
}

func remapAccessSlice(accesses []record.MemAccess, b *boundaries) []record.MemAccess {
	if accesses == nil {
		return nil
	}
	out := make([]record.MemAccess, len(accesses))
	for i := range accesses {
		out[i] = *remapAccess(&accesses[i], b)
	}
	return out
}

func remapAccess(a *record.MemAccess, b *boundaries) *record.MemAccess {
	if a == nil {
		return nil
	}
	out := *a
	shardIdx, localClk := b.shardOf(a.Clk)
	out.Shard = shardIdx
	out.Clk = localClk
	prevShardIdx, prevLocalClk := b.shardOf(a.PrevClk)
	out.PrevShard = prevShardIdx
	out.PrevClk = prevLocalClk
	return &out
}
