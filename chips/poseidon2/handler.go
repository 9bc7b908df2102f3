package poseidon2

import (
	"github.com/rv32air/zkcore/field"
	"github.com/rv32air/zkcore/record"
	"github.com/rv32air/zkcore/runtime"
)

// Handler implements runtime.PrecompileHandler for a full Poseidon2
// permutation: one external-round bank, one internal-round bank, then a
// second external-round bank, each its own PrecompileEvent (spec §4.7;
// spec §9 SUPPLEMENTED FEATURES #3). statePtr points at Width consecutive
// words in guest memory holding the permutation state.
//
// Every round of every bank reads all Width lanes from memory, applies the
// round, and writes all Width lanes back, 4 clock ticks per access -- so an
// external bank emits Width*ExternalRounds read records and as many write
// records. The state round-trips through memory between rounds and between
// banks, so each bank's first-round read picks up exactly what the previous
// bank's last round wrote.
func Handler(rt runtime.PrecompileRuntime, statePtr uint32) ([]record.PrecompileEvent, error) {
	ext1, err := externalBank(rt, statePtr)
	if err != nil {
		return nil, err
	}
	intl, err := internalBank(rt, statePtr)
	if err != nil {
		return nil, err
	}
	ext2, err := externalBank(rt, statePtr)
	if err != nil {
		return nil, err
	}
	return []record.PrecompileEvent{ext1, intl, ext2}, nil
}

// externalBank runs ExternalRounds external rounds, each reading and
// writing the full state.
func externalBank(rt runtime.PrecompileRuntime, statePtr uint32) (record.PrecompileEvent, error) {
	clkIn := rt.Clk()
	var stateIn, state [Width]field.Element
	for r := 0; r < ExternalRounds; r++ {
		s, err := readState(rt, statePtr)
		if err != nil {
			return record.PrecompileEvent{}, err
		}
		if r == 0 {
			stateIn = s
		}
		state = externalRound(s, r)
		if err := writeState(rt, statePtr, state); err != nil {
			return record.PrecompileEvent{}, err
		}
	}
	reads, writes := rt.TakeAccesses()
	return record.PrecompileEvent{
		ClkIn: clkIn, ClkOut: rt.Clk(), StatePtr: statePtr,
		Kind: record.PrecompilePoseidon2External, StateIn: stateIn, StateOut: state,
		MemReads: reads, MemWrites: writes,
	}, nil
}

// internalBank runs InternalRounds internal rounds with the same
// read-round-write memory discipline as the external banks.
func internalBank(rt runtime.PrecompileRuntime, statePtr uint32) (record.PrecompileEvent, error) {
	clkIn := rt.Clk()
	var stateIn, state [Width]field.Element
	for r := 0; r < InternalRounds; r++ {
		s, err := readState(rt, statePtr)
		if err != nil {
			return record.PrecompileEvent{}, err
		}
		if r == 0 {
			stateIn = s
		}
		state = internalRound(s, r)
		if err := writeState(rt, statePtr, state); err != nil {
			return record.PrecompileEvent{}, err
		}
	}
	reads, writes := rt.TakeAccesses()
	return record.PrecompileEvent{
		ClkIn: clkIn, ClkOut: rt.Clk(), StatePtr: statePtr,
		Kind: record.PrecompilePoseidon2Internal, StateIn: stateIn, StateOut: state,
		MemReads: reads, MemWrites: writes,
	}, nil
}

func readState(rt runtime.PrecompileRuntime, ptr uint32) ([Width]field.Element, error) {
	var state [Width]field.Element
	for i := 0; i < Width; i++ {
		v, err := rt.MemRead(ptr + uint32(i)*4)
		if err != nil {
			return state, err
		}
		// Guest words are interpreted mod p: a raw u32 can exceed the Baby
		// Bear modulus, and the chip's memory-bus send compares this lane
		// against the Memory chip's own mod-p word reduction.
		state[i] = field.New(uint64(v))
	}
	return state, nil
}

func writeState(rt runtime.PrecompileRuntime, ptr uint32, state [Width]field.Element) error {
	for i := 0; i < Width; i++ {
		if err := rt.MemWrite(ptr+uint32(i)*4, state[i].Uint32()); err != nil {
			return err
		}
	}
	return nil
}
