package runtime

import "github.com/rv32air/zkcore/record"

// PrecompileRuntime is the capability a precompile handler receives instead
// of the full Runtime, so a handler can only touch memory and the clock
// accounting the interaction layer knows how to charge for (spec §9 ADR-2:
// "dynamic precompile clock jumps").
type PrecompileRuntime interface {
	// RegisterUnsafe returns the raw value of RISC-V integer register i
	// (0-31) without going through the access-chain bookkeeping a normal
	// CPU operand read would use; precompiles read their argument
	// pointers this way.
	RegisterUnsafe(i int) uint32

	// MemRead reads a word at addr, charging it as an access at the
	// precompile's current clock and advancing the clock by one.
	MemRead(addr uint32) (uint32, error)

	// MemWrite writes a word at addr, charging and advancing like MemRead.
	MemWrite(addr, value uint32) error

	// TakeAccesses drains every MemRead/MemWrite access charged so far
	// that hasn't already been taken, splitting it into reads and writes
	// so a handler can attach them to the PrecompileEvent(s) it emits
	// (spec §4.6's Memory chip folds these into the unified access chain
	// alongside ordinary CPU loads/stores).
	TakeAccesses() (reads, writes []record.MemAccess)

	// Clk returns the precompile's current clock. A handler that performs
	// n internal rounds each consuming a row of its own chip should leave
	// Clk advanced by n when it returns, so the CPU↔precompile bus tuple
	// (clk_in, state_ptr, clk_out) spans exactly the rows the handler
	// caused to exist.
	Clk() uint32
}

// PrecompileHandler executes one precompile invocation, given the pointer
// to its argument/state struct in guest memory (conventionally a7's
// sibling argument register), and returns the events it generated.
type PrecompileHandler func(rt PrecompileRuntime, statePtr uint32) ([]record.PrecompileEvent, error)
