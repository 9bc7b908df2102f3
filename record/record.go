package record

// ExecutionRecord is the complete set of event streams one run (or one
// shard of a run) produces. Trace generation consumes exactly this
// structure per chip; nothing downstream re-reads interpreter state (spec
// §5).
type ExecutionRecord struct {
	Shard uint32

	CPUEvents []CPUEvent

	// ALUEvents is keyed by opcode so each ALU sub-chip only sees the rows
	// it owns.
	ALUEvents map[string][]ALUEvent

	MemoryEvents []MemoryEvent

	// PrecompileEvents is keyed by kind so Poseidon2-external and
	// Poseidon2-internal each get their own chip's rows.
	PrecompileEvents map[PrecompileKind][]PrecompileEvent

	ByteEvents []ByteEvent

	// PublicValuesDigest binds this shard's public inputs/outputs (spec
	// §4.9); populated once the shard is sealed.
	PublicValuesDigest [32]byte
}

// NewExecutionRecord returns an empty record for the given shard index with
// its maps initialized, ready to be appended to by the interpreter.
func NewExecutionRecord(shard uint32) *ExecutionRecord {
	return &ExecutionRecord{
		Shard:            shard,
		ALUEvents:        make(map[string][]ALUEvent),
		PrecompileEvents: make(map[PrecompileKind][]PrecompileEvent),
	}
}

// AppendALU records an ALU event under its opcode's bucket.
func (r *ExecutionRecord) AppendALU(e ALUEvent) {
	key := e.Opcode.String()
	r.ALUEvents[key] = append(r.ALUEvents[key], e)
}

// AppendPrecompile records a precompile event under its kind's bucket.
func (r *ExecutionRecord) AppendPrecompile(e PrecompileEvent) {
	r.PrecompileEvents[e.Kind] = append(r.PrecompileEvents[e.Kind], e)
}

// RowCounts reports the number of rows each chip will need, used by the
// segmenter to decide shard boundaries and by trace generation to
// pre-allocate matrices (spec §6, sharding).
func (r *ExecutionRecord) RowCounts() map[string]int {
	counts := map[string]int{
		"cpu":    len(r.CPUEvents),
		"memory": len(r.MemoryEvents),
		"byte":   len(r.ByteEvents),
	}
	for kind, events := range r.ALUEvents {
		counts["alu."+kind] = len(events)
	}
	for kind, events := range r.PrecompileEvents {
		counts[precompileChipName(kind)] = len(events)
	}
	return counts
}

func precompileChipName(k PrecompileKind) string {
	switch k {
	case PrecompilePoseidon2External:
		return "poseidon2_external"
	case PrecompilePoseidon2Internal:
		return "poseidon2_internal"
	default:
		return "precompile.unknown"
	}
}
