package debug_test

import (
	"testing"

	"github.com/rv32air/zkcore/chips"
	"github.com/rv32air/zkcore/chips/poseidon2"
	"github.com/rv32air/zkcore/debug"
	"github.com/rv32air/zkcore/field"
	"github.com/rv32air/zkcore/program"
	"github.com/rv32air/zkcore/record"
	"github.com/rv32air/zkcore/runtime"
	"github.com/rv32air/zkcore/word"
)

// buildProgram assembles a Program whose Code is exactly the given words
// laid out consecutively from entryPC. The PROGRAM chip receives each
// static address with its visit-count multiplicity, so programs here may
// loop, skip branch arms, or carry dead code freely.
func buildProgram(entryPC uint32, words ...uint32) *program.Program {
	p := &program.Program{
		EntryPC: entryPC,
		Code:    make(map[uint32]program.Instruction),
		Memory:  make(map[uint32]word.Word),
	}
	for i, w := range words {
		addr := entryPC + uint32(i)*4
		inst, err := program.Decode(w)
		if err != nil {
			panic(err)
		}
		p.Code[addr] = inst
	}
	return p
}

func itAddi(rd, rs1 uint32, imm int32) uint32 {
	return program.EncodeIType(0x13, rd, 0x0, rs1, imm)
}

func itEcall() uint32 {
	return program.EncodeIType(0x73, 0, 0x0, 0, 0)
}

func itHalt() uint32 { return itAddi(17, 0, int32(runtime.EcallHalt)) }

// checkReport asserts the harness's two oracles: no chip's trace violates
// its own AIR (spec P2, padding included) and every bus nets to zero
// (spec P3).
func checkReport(t *testing.T, report debug.Report) {
	t.Helper()
	for _, c := range report.Chips {
		for _, v := range c.Violations {
			t.Errorf("chip %s: %s", c.Chip, v)
		}
	}
	for _, imb := range report.Imbalances {
		t.Errorf("unexpected imbalance: %s", imb)
	}
	for bus, sum := range report.PermutationSums {
		if !sum.IsZero() {
			t.Errorf("bus %q randomized permutation sum is nonzero", bus)
		}
	}
}

func runAndCheck(t *testing.T, prog *program.Program, setup func(*runtime.Runtime)) (*runtime.Runtime, *record.ExecutionRecord, debug.Report) {
	t.Helper()
	rt := runtime.NewRuntime(prog, nil, 1<<20)
	if setup != nil {
		setup(rt)
	}
	rec, fault := rt.Run()
	if fault != nil {
		t.Fatalf("unexpected fault: %v", fault)
	}
	report, err := debug.Run(chips.All(prog), rec)
	if err != nil {
		t.Fatalf("debug.Run: %v", err)
	}
	checkReport(t, report)
	return rt, rec, report
}

func TestIntegrationAddImmediate(t *testing.T) {
	prog := buildProgram(0x1000,
		itAddi(5, 0, 7),
		itHalt(),
		itEcall(),
	)
	rt, _, _ := runAndCheck(t, prog, nil)
	if rt.Regs[5] != 7 {
		t.Errorf("x5 = %d, want 7", rt.Regs[5])
	}
}

func TestIntegrationLoadStoreRoundTrip(t *testing.T) {
	const addr = uint32(0x1000)
	prog := buildProgram(0x2000,
		program.EncodeUType(0x37, 1, addr&0xfffff000), // lui x1, hi(addr)
		itAddi(1, 1, int32(addr&0xfff)),               // addi x1, x1, lo(addr)
		itAddi(2, 1, 0),                               // x2 = addr
		program.EncodeIType(0x03, 3, 0x2, 1, 0),       // lw x3, 0(x1)
		program.EncodeSType(0x23, 0x2, 2, 3, 0x100),   // sw x3, 0x100(x2)
		program.EncodeIType(0x03, 6, 0x2, 2, 0x100),   // lw x6, 0x100(x2)
		itHalt(),
		itEcall(),
	)
	prog.Memory[addr] = word.FromUint32(0xDEADBEEF)

	rt, _, _ := runAndCheck(t, prog, nil)
	if rt.Regs[6] != 0xDEADBEEF {
		t.Fatalf("x6 = %#x, want 0xDEADBEEF", rt.Regs[6])
	}
}

// TestIntegrationBranchTaken is spec scenario 4 run through the full chip
// set: a taken BLT skips one instruction, exercising the LT delegation on
// the ALU bus and the PROGRAM chip's zero-multiplicity row for the
// untaken arm.
func TestIntegrationBranchTaken(t *testing.T) {
	prog := buildProgram(0x1000,
		itAddi(5, 0, 3),                          // x5 = 3
		itAddi(6, 0, 7),                          // x6 = 7
		program.EncodeBType(0x63, 0x4, 5, 6, 8),  // blt x5, x6, +8 -> skips next
		itAddi(7, 0, 1),                          // skipped
		itAddi(7, 0, 2),                          // x7 = 2
		itHalt(),
		itEcall(),
	)
	rt, _, _ := runAndCheck(t, prog, nil)
	if rt.Regs[7] != 2 {
		t.Fatalf("x7 = %d, want 2", rt.Regs[7])
	}
}

// TestIntegrationLoop re-executes the same pcs several times: the PROGRAM
// chip's visit-count multiplicity must absorb the repeated sends.
func TestIntegrationLoop(t *testing.T) {
	prog := buildProgram(0x1000,
		itAddi(5, 0, 3),                            // x5 = 3 (counter)
		itAddi(6, 6, 10),                           // 0x1004: x6 += 10
		itAddi(5, 5, -1),                           // 0x1008: x5 -= 1
		program.EncodeBType(0x63, 0x1, 5, 0, -8),   // 0x100c: bne x5, x0, -8
		itHalt(),
		itEcall(),
	)
	rt, _, _ := runAndCheck(t, prog, nil)
	if rt.Regs[6] != 30 {
		t.Fatalf("x6 = %d, want 30", rt.Regs[6])
	}
}

// TestIntegrationJumps covers AUIPC, JAL (including a discarded x0 link),
// and a JALR return through the full chip set; every target computation
// rides the ALU bus's mod-2^32 carry gadget.
func TestIntegrationJumps(t *testing.T) {
	prog := buildProgram(0x1000,
		program.EncodeUType(0x17, 8, 0),          // 0x1000: auipc x8, 0 -> x8 = 0x1000
		program.EncodeJType(0x6f, 5, 12),         // 0x1004: jal x5, +12 -> 0x1010, x5 = 0x1008
		itAddi(7, 0, 9),                          // 0x1008: x7 = 9 (reached via jalr)
		program.EncodeJType(0x6f, 0, 8),          // 0x100c: jal x0, +8 -> 0x1014, link discarded
		program.EncodeIType(0x67, 0, 0x0, 5, 0),  // 0x1010: jalr x0, x5, 0 -> 0x1008
		itHalt(),                                 // 0x1014
		itEcall(),                                // 0x1018
	)
	rt, _, _ := runAndCheck(t, prog, nil)
	if rt.Regs[8] != 0x1000 {
		t.Errorf("x8 = %#x, want 0x1000", rt.Regs[8])
	}
	if rt.Regs[5] != 0x1008 {
		t.Errorf("x5 = %#x, want 0x1008", rt.Regs[5])
	}
	if rt.Regs[7] != 9 {
		t.Errorf("x7 = %d, want 9", rt.Regs[7])
	}
	if rt.Regs[0] != 0 {
		t.Errorf("x0 = %d, want 0", rt.Regs[0])
	}
}

// TestIntegrationRegZeroDiscard is spec scenario 5 through the full chip
// set: the computed result still satisfies the ALU bus while register 0's
// access chain records zero.
func TestIntegrationRegZeroDiscard(t *testing.T) {
	prog := buildProgram(0x1000,
		itAddi(0, 0, 5), // addi x0, x0, 5 -- discarded
		itHalt(),
		itEcall(),
	)
	rt, _, _ := runAndCheck(t, prog, nil)
	if rt.Regs[0] != 0 {
		t.Fatalf("x0 = %d, want 0", rt.Regs[0])
	}
}

func TestIntegrationPoseidon2Precompile(t *testing.T) {
	const statePtr = uint32(0x3000)
	prog := buildProgram(0x1000,
		program.EncodeUType(0x37, 10, statePtr&0xfffff000), // lui x10, hi(statePtr)
		itAddi(10, 10, int32(statePtr&0xfff)),              // addi x10, x10, lo(statePtr)
		itAddi(17, 0, 3),                                   // a7 = 3 -> precompile id 0
		itEcall(),
		itHalt(),
		itEcall(),
	)
	var stateIn [poseidon2.Width]field.Element
	for i := uint32(0); i < poseidon2.Width; i++ {
		prog.Memory[statePtr+i*4] = word.FromUint32(i + 1)
		stateIn[i] = field.FromCanonicalU32(i + 1)
	}

	rt, rec, _ := runAndCheck(t, prog, func(rt *runtime.Runtime) {
		rt.RegisterPrecompile(0, poseidon2.Handler)
	})

	// Spec scenario 6's quantified record counts: each external bank reads
	// and writes all Width lanes once per round.
	ext := rec.PrecompileEvents[record.PrecompilePoseidon2External]
	if len(ext) != 2 {
		t.Fatalf("external precompile events = %d, want 2", len(ext))
	}
	wantExt := poseidon2.Width * poseidon2.ExternalRounds
	for i, ev := range ext {
		if ev.StatePtr != statePtr {
			t.Errorf("external event %d state_ptr = %#x, want %#x", i, ev.StatePtr, statePtr)
		}
		if len(ev.MemReads) != wantExt {
			t.Errorf("external event %d read records = %d, want %d", i, len(ev.MemReads), wantExt)
		}
		if len(ev.MemWrites) != wantExt {
			t.Errorf("external event %d write records = %d, want %d", i, len(ev.MemWrites), wantExt)
		}
	}
	intl := rec.PrecompileEvents[record.PrecompilePoseidon2Internal]
	if len(intl) != 1 {
		t.Fatalf("internal precompile events = %d, want 1", len(intl))
	}
	wantIntl := poseidon2.Width * poseidon2.InternalRounds
	if len(intl[0].MemReads) != wantIntl || len(intl[0].MemWrites) != wantIntl {
		t.Errorf("internal event records = %d reads / %d writes, want %d each",
			len(intl[0].MemReads), len(intl[0].MemWrites), wantIntl)
	}

	// Final memory at state_ptr + 4i equals the reference permutation of
	// the initial state.
	want := poseidon2.Permute(stateIn)
	for i := uint32(0); i < poseidon2.Width; i++ {
		got := rt.Mem.ReadWord(statePtr + i*4).Uint32()
		if got != want[i].Uint32() {
			t.Errorf("final memory lane %d = %d, want %d", i, got, want[i].Uint32())
		}
	}
}
