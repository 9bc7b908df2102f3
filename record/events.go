// Package record defines the typed event streams the interpreter emits and
// trace generation consumes (spec §5, "Execution Record"). Every field that
// ends up as a trace cell is already a word.Word or field.Element here, so
// generate_trace never re-derives arithmetic the interpreter already did.
package record

import (
	"github.com/rv32air/zkcore/field"
	"github.com/rv32air/zkcore/program"
	"github.com/rv32air/zkcore/word"
)

// MemAccess captures one read-modify-write of a memory cell, carrying the
// (shard, clk) ordering pair from the previous access to this one so the
// Memory chip's lex-order range-check (spec §4.6) can be populated without
// re-scanning the whole access history.
type MemAccess struct {
	Addr       uint32
	Shard      uint32
	Clk        uint32
	PrevShard  uint32
	PrevClk    uint32
	PrevValue  word.Word
	Value      word.Word
}

// CPUEvent is one row of the CPU chip: the full state of a single
// instruction's execution (spec §4.3).
type CPUEvent struct {
	Shard uint32
	Clk   uint32
	PC    uint32
	NextPC uint32

	Instr program.Instruction

	OpAVal word.Word
	OpBVal word.Word
	OpCVal word.Word

	OpAAccess *MemAccess // register read/write of OpA, nil if OpA unused (e.g. ECALL)
	OpBAccess *MemAccess // nil when Instr.ImmB
	OpCAccess *MemAccess // nil when Instr.ImmC

	MemAccess *MemAccess // data memory access for loads/stores, nil otherwise

	BranchTaken bool // meaningful only when Instr.Opcode.IsBranch()

	IsHalt bool

	// PrecompileInvocations carries the (kind, state_ptr, clk_in, clk_out)
	// tuple of every precompile sub-invocation this ECALL row dispatched,
	// so the CPU chip can send each one on its matching precompile bus
	// (spec §4.7: "the overall CPU->precompile interaction sends (clk_in,
	// state_ptr, clk_out) once" per executed invocation).
	PrecompileInvocations []PrecompileInvocation
}

// PrecompileInvocation is the CPU-bus-facing projection of one
// PrecompileEvent: just enough to replay the interaction tuple the
// precompile chip receives, without duplicating its full state vectors
// into the CPU row.
type PrecompileInvocation struct {
	Kind     PrecompileKind
	StatePtr uint32
	ClkIn    uint32
	ClkOut   uint32
}

// ALUEvent is one row sent to an ALU sub-chip (spec §4.5). Kind selects
// which family (add/sub, bitwise, shift, mul, div, lt) owns the row; all
// families share this shape so the CPU chip can emit a uniform ALU-bus
// tuple regardless of opcode.
type ALUEvent struct {
	Shard uint32
	Clk   uint32
	Opcode program.Opcode
	A      word.Word // result
	B      word.Word // first operand
	C      word.Word // second operand
}

// MemoryEvent is one row of the Memory chip: a single load or store's
// effective address, previous value, and new value (spec §4.6).
type MemoryEvent struct {
	Shard   uint32
	Clk     uint32
	Addr    uint32
	IsLoad  bool
	IsStore bool
	Width   uint8 // 1, 2, or 4 bytes
	Access  MemAccess
}

// PrecompileKind distinguishes the families of precompile events a
// PrecompileRuntime can emit.
type PrecompileKind uint8

const (
	PrecompilePoseidon2External PrecompileKind = iota
	PrecompilePoseidon2Internal
)

// PrecompileEvent is one invocation of a precompile, recording the clock
// range it consumed so the CPU↔precompile interaction tuple
// (clk_in, state_ptr, clk_out) can be replayed by the bus (spec §9 ADR-2).
type PrecompileEvent struct {
	Shard    uint32
	ClkIn    uint32
	ClkOut   uint32
	StatePtr uint32
	Kind     PrecompileKind

	// StateIn/StateOut are the sixteen Baby Bear elements of the Poseidon2
	// permutation state before and after this invocation.
	StateIn  [16]field.Element
	StateOut [16]field.Element

	MemReads  []MemAccess
	MemWrites []MemAccess
}

// ByteEvent is one row of the Byte chip: a single (a,b) pair and the
// precomputed AND/OR/XOR/range-check facts about it, looked up by every
// other chip that needs a byte-level fact instead of re-deriving it in AIR
// (spec SUPPLEMENTED FEATURES: Byte chip).
type ByteEvent struct {
	A, B     uint8
	And, Or, Xor uint8
}
