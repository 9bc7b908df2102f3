// Package runtime implements the cycle-accurate RV32IM interpreter (spec
// §4). Running a program produces either a complete record.ExecutionRecord
// or a Fault; there is no third outcome.
package runtime

import (
	"github.com/rv32air/zkcore/chips/alu"
	"github.com/rv32air/zkcore/log"
	"github.com/rv32air/zkcore/metrics"
	"github.com/rv32air/zkcore/program"
	"github.com/rv32air/zkcore/record"
	"github.com/rv32air/zkcore/word"
)

var logger = log.Module("runtime")

// ECALL syscall numbers, selected by register x17 (a7), matching the
// teacher's RVEcallHalt convention.
const (
	EcallHalt   uint32 = 0
	EcallOutput uint32 = 1
	EcallInput  uint32 = 2
)

// Runtime is the interpreter's mutable state across one program run: its
// registers, memory, clock, and the event record it is accumulating.
type Runtime struct {
	Prog *program.Program

	Regs [32]uint32
	PC   uint32
	Clk  uint32

	Mem *Memory

	Stdin    []byte
	stdinPos int
	Stdout   []byte

	GasLimit uint64

	Precompiles map[uint32]PrecompileHandler

	rec *record.ExecutionRecord
}

// NewRuntime constructs a Runtime ready to execute prog, with stdin as its
// ECALL_INPUT byte source and gasLimit as the maximum number of cycles
// before a FaultGasExhausted (spec §4.2's cycle budget, named after the
// teacher's gasLimit parameter).
func NewRuntime(prog *program.Program, stdin []byte, gasLimit uint64) *Runtime {
	rt := &Runtime{
		Prog:        prog,
		PC:          prog.EntryPC,
		Mem:         NewMemory(),
		Stdin:       stdin,
		GasLimit:    gasLimit,
		Precompiles: make(map[uint32]PrecompileHandler),
		rec:         record.NewExecutionRecord(0),
	}
	for addr, w := range prog.Memory {
		rt.Mem.Seed(addr, w)
	}
	return rt
}

// RegisterPrecompile installs a handler for ECALL_PRECOMPILE id k, invoked
// when the guest issues ECALL with a7 = 3+k (the "ecall convention" reserves
// 0..2 for halt/output/input; spec §4.2).
func (rt *Runtime) RegisterPrecompile(id uint32, h PrecompileHandler) {
	rt.Precompiles[id] = h
}

// Run executes until an ECALL_HALT, a Fault, or gas exhaustion.
func (rt *Runtime) Run() (*record.ExecutionRecord, *Fault) {
	timer := metrics.NewTimer(metrics.RunDuration)
	defer timer.Stop()
	for {
		if uint64(rt.Clk) >= rt.GasLimit {
			return nil, &Fault{Kind: FaultGasExhausted, PC: rt.PC, Clk: rt.Clk}
		}
		halted, fault := rt.step()
		if fault != nil {
			return nil, fault
		}
		metrics.StepRate.Mark(1)
		if halted {
			metrics.CyclesExecuted.Add(int64(rt.Clk))
			logger.Debug("run halted", "cycles", rt.Clk, "pc", rt.PC)
			return rt.rec, nil
		}
	}
}

// step executes exactly one instruction, following fetch / resolve-b /
// resolve-c / execute / memory / writeback / pc-update (spec §4.1). Each
// cycle consumes 16 clock ticks, split into four sub-access slots in the
// order the interpreter actually touches them -- op_b at clkBase+0, op_c
// at clkBase+4, the instruction's own data-memory access (if any) at
// clkBase+8, and the op_a writeback at clkBase+12 -- so register file and
// data memory share one sorted access-chain in the Memory chip (spec §4.6,
// §4.3's "memory access at (shard, clk+B, instruction.op_b[0])"). The A
// slot coming last keeps a register's chain strictly increasing within a
// cycle when the same register is both read and written (addi x5, x5, 1;
// the ECALL row's triple touch of register 0).
func (rt *Runtime) step() (halted bool, fault *Fault) {
	inst, ok := rt.Prog.Code[rt.PC]
	if !ok {
		return false, &Fault{Kind: FaultPCOutOfRange, PC: rt.PC, Clk: rt.Clk}
	}

	clkBase := rt.Clk
	const clkOffB, clkOffC, clkOffMem, clkOffA = 0, 4, 8, 12

	opBVal, opBAccess := rt.resolveB(inst, clkBase+clkOffB)
	opCVal, opCAccess := rt.resolveC(inst, clkBase+clkOffC)

	ev := record.CPUEvent{
		Shard:     0,
		Clk:       clkBase,
		PC:        rt.PC,
		Instr:     inst,
		OpBVal:    word.FromUint32(opBVal),
		OpCVal:    word.FromUint32(opCVal),
		OpBAccess: opBAccess,
		OpCAccess: opCAccess,
	}

	// op_a is read at its current (pre-writeback) value for instructions
	// that need it as a value (stores, branches); ev.OpAVal itself is set
	// below, after the opcode switch computes the post-writeback value.
	opAVal := rt.Regs[inst.RegA()]

	nextPC := rt.PC + 4
	var result uint32
	writeback := false
	clkAfter := clkBase + 16

	switch {
	case inst.Opcode.IsALU():
		result = alu.Compute(inst.Opcode, opBVal, opCVal)
		writeback = true
		rt.rec.AppendALU(record.ALUEvent{Shard: 0, Clk: clkBase, Opcode: inst.Opcode, A: word.FromUint32(result), B: word.FromUint32(opBVal), C: word.FromUint32(opCVal)})

	case inst.Opcode.IsLoad():
		ea := opBVal + opCVal
		width, f := loadWidth(inst.Opcode)
		if !aligned(ea, width) {
			return false, &Fault{Kind: FaultMisalignedAccess, PC: rt.PC, Clk: clkBase, Detail: "load"}
		}
		rt.rec.AppendALU(record.ALUEvent{Shard: 0, Clk: clkBase, Opcode: program.OpAdd, A: word.FromUint32(ea), B: word.FromUint32(opBVal), C: word.FromUint32(opCVal)})
		raw, access := rt.loadMemory(ea, width, clkBase+clkOffMem)
		result = f(raw)
		writeback = true
		ev.MemAccess = access
		metrics.MemoryAccesses.Inc()

	case inst.Opcode.IsStore():
		ea := opBVal + opCVal
		width := storeWidth(inst.Opcode)
		if !aligned(ea, width) {
			return false, &Fault{Kind: FaultMisalignedAccess, PC: rt.PC, Clk: clkBase, Detail: "store"}
		}
		rt.rec.AppendALU(record.ALUEvent{Shard: 0, Clk: clkBase, Opcode: program.OpAdd, A: word.FromUint32(ea), B: word.FromUint32(opBVal), C: word.FromUint32(opCVal)})
		access := rt.storeMemory(ea, width, opAVal, clkBase+clkOffMem)
		ev.MemAccess = access
		metrics.MemoryAccesses.Inc()

	case inst.Opcode.IsBranch():
		taken := branchTaken(inst.Opcode, opAVal, opBVal)
		ev.BranchTaken = taken
		// BLT/BGE/BLTU/BGEU delegate their comparison to the LT chip, so
		// the bus needs a matching SLT/SLTU event with the branch's own
		// operands (spec §4.4). BEQ/BNE use the CPU row's local equality
		// gadget and emit nothing.
		if cmpOp, ok := branchCmpOpcode(inst.Opcode); ok {
			res := alu.Compute(cmpOp, opAVal, opBVal)
			rt.rec.AppendALU(record.ALUEvent{Shard: 0, Clk: clkBase, Opcode: cmpOp, A: word.FromUint32(res), B: word.FromUint32(opAVal), C: word.FromUint32(opBVal)})
		}
		if taken {
			// The taken target wraps mod 2^32 (negative offsets), which a
			// single field constraint cannot express; its computation is
			// offloaded to the ALU bus like the jumps below.
			nextPC = rt.PC + uint32(inst.ImmCVal())
			rt.rec.AppendALU(record.ALUEvent{Shard: 0, Clk: clkBase, Opcode: program.OpAdd, A: word.FromUint32(nextPC), B: word.FromUint32(rt.PC), C: word.FromUint32(uint32(inst.ImmCVal()))})
		}

	case inst.Opcode == program.OpJal:
		result = rt.PC + 4
		writeback = true
		nextPC = rt.PC + uint32(inst.ImmCVal())
		rt.rec.AppendALU(record.ALUEvent{Shard: 0, Clk: clkBase, Opcode: program.OpAdd, A: word.FromUint32(nextPC), B: word.FromUint32(rt.PC), C: word.FromUint32(uint32(inst.ImmCVal()))})

	case inst.Opcode == program.OpJalr:
		result = rt.PC + 4
		writeback = true
		sum := opBVal + opCVal
		nextPC = sum &^ 1
		rt.rec.AppendALU(record.ALUEvent{Shard: 0, Clk: clkBase, Opcode: program.OpAdd, A: word.FromUint32(sum), B: word.FromUint32(opBVal), C: word.FromUint32(opCVal)})

	case inst.Opcode == program.OpLui:
		result = opCVal
		writeback = true

	case inst.Opcode == program.OpAuipc:
		result = rt.PC + opCVal
		writeback = true
		rt.rec.AppendALU(record.ALUEvent{Shard: 0, Clk: clkBase, Opcode: program.OpAdd, A: word.FromUint32(result), B: word.FromUint32(rt.PC), C: word.FromUint32(opCVal)})

	case inst.Opcode == program.OpEcall:
		h, newClk, events, f := rt.ecall(clkAfter)
		if f != nil {
			return false, f
		}
		ev.IsHalt = h
		halted = h
		clkAfter = newClk
		for _, e := range events {
			ev.PrecompileInvocations = append(ev.PrecompileInvocations, record.PrecompileInvocation{
				Kind: e.Kind, StatePtr: e.StatePtr, ClkIn: e.ClkIn, ClkOut: e.ClkOut,
			})
		}
	}

	regA := inst.RegA()
	newAVal := opAVal
	if writeback {
		newAVal = result
		if regA != 0 {
			rt.Regs[regA] = result
		}
	}
	ev.OpAAccess = rt.touchRegA(regA, clkBase+clkOffA, newAVal)
	// op_a's recorded value is the post-writeback result (not the stale
	// pre-switch register read) -- it's what the CPU chip sends on the ALU
	// bus and asserts against JAL/JALR/LUI/AUIPC's result. When the
	// destination is register 0 the *access record* still carries zero
	// (touchRegA forces it, spec P5) while op_a_val keeps the computed
	// result; the CPU chip's memory-bus send zeroes the written value under
	// its reg_0_write selector to match.
	ev.OpAVal = word.FromUint32(newAVal)

	ev.NextPC = nextPC
	rt.rec.CPUEvents = append(rt.rec.CPUEvents, ev)
	rt.PC = nextPC
	rt.Clk = clkAfter
	return halted, nil
}

// touchRegA records the op_a access-chain entry at clk: a value-preserving
// re-touch when the instruction didn't write back, or the new value when
// it did. Register 0's chain entry is always forced to zero (spec P5).
func (rt *Runtime) touchRegA(r uint8, clk uint32, v uint32) *record.MemAccess {
	val := word.FromUint32(v)
	if r == 0 {
		val = word.Zero
	}
	prevShard, prevClk, prevValue := rt.Mem.TouchRegWrite(r, 0, clk, val)
	return &record.MemAccess{Addr: RegAddr(r), Shard: 0, Clk: clk, PrevShard: prevShard, PrevClk: prevClk, PrevValue: prevValue, Value: val}
}

// resolveB reads operand B: an immediate (no access-chain entry) or
// register RegB's current value, touched at clk.
func (rt *Runtime) resolveB(inst program.Instruction, clk uint32) (uint32, *record.MemAccess) {
	if inst.ImmB {
		return uint32(inst.ImmBVal()), nil
	}
	r := inst.RegB()
	v := rt.Regs[r]
	prevShard, prevClk, prevValue := rt.Mem.TouchRegRead(r, 0, clk, word.FromUint32(v))
	return v, &record.MemAccess{Addr: RegAddr(r), Shard: 0, Clk: clk, PrevShard: prevShard, PrevClk: prevClk, PrevValue: prevValue, Value: word.FromUint32(v)}
}

// resolveC reads operand C: an immediate (no access-chain entry) or
// register RegC's current value, touched at clk.
func (rt *Runtime) resolveC(inst program.Instruction, clk uint32) (uint32, *record.MemAccess) {
	if inst.ImmC {
		return uint32(inst.ImmCVal()), nil
	}
	r := inst.RegC()
	v := rt.Regs[r]
	prevShard, prevClk, prevValue := rt.Mem.TouchRegRead(r, 0, clk, word.FromUint32(v))
	return v, &record.MemAccess{Addr: RegAddr(r), Shard: 0, Clk: clk, PrevShard: prevShard, PrevClk: prevClk, PrevValue: prevValue, Value: word.FromUint32(v)}
}

func aligned(addr uint32, width uint8) bool {
	return addr%uint32(width) == 0
}

func loadWidth(op program.Opcode) (uint8, func(uint32) uint32) {
	switch op {
	case program.OpLb:
		return 1, func(v uint32) uint32 { return uint32(int32(int8(v))) }
	case program.OpLbu:
		return 1, func(v uint32) uint32 { return v & 0xff }
	case program.OpLh:
		return 2, func(v uint32) uint32 { return uint32(int32(int16(v))) }
	case program.OpLhu:
		return 2, func(v uint32) uint32 { return v & 0xffff }
	default: // OpLw
		return 4, func(v uint32) uint32 { return v }
	}
}

func storeWidth(op program.Opcode) uint8 {
	switch op {
	case program.OpSb:
		return 1
	case program.OpSh:
		return 2
	default: // OpSw
		return 4
	}
}

// branchCmpOpcode maps a magnitude-comparing branch to the LT-chip opcode
// that proves its comparison. Equality branches return ok=false.
func branchCmpOpcode(op program.Opcode) (program.Opcode, bool) {
	switch op {
	case program.OpBlt, program.OpBge:
		return program.OpSlt, true
	case program.OpBltu, program.OpBgeu:
		return program.OpSltu, true
	}
	return program.OpNoop, false
}

func branchTaken(op program.Opcode, a, b uint32) bool {
	sa, sb := int32(a), int32(b)
	switch op {
	case program.OpBeq:
		return a == b
	case program.OpBne:
		return a != b
	case program.OpBlt:
		return sa < sb
	case program.OpBge:
		return sa >= sb
	case program.OpBltu:
		return a < b
	case program.OpBgeu:
		return a >= b
	}
	return false
}

// loadMemory reads width bytes at ea (word-aligning the access-chain entry
// to ea's containing word) at the given clk and returns the raw
// little-endian value plus the MemAccess describing the access-chain
// transition.
func (rt *Runtime) loadMemory(ea uint32, width uint8, clk uint32) (uint32, *record.MemAccess) {
	wordAddr := ea &^ 3
	w := rt.Mem.ReadWord(wordAddr)
	prevShard, prevClk, prevValue := rt.Mem.Touch(wordAddr, 0, clk, w)
	rt.rec.MemoryEvents = append(rt.rec.MemoryEvents, record.MemoryEvent{
		Shard: 0, Clk: clk, Addr: wordAddr, IsLoad: true, Width: width,
		Access: record.MemAccess{Addr: wordAddr, Shard: 0, Clk: clk, PrevShard: prevShard, PrevClk: prevClk, PrevValue: prevValue, Value: w},
	})
	shift := (ea % 4) * 8
	return w.Uint32() >> shift, &record.MemAccess{Addr: wordAddr, Shard: 0, Clk: clk, PrevShard: prevShard, PrevClk: prevClk, PrevValue: prevValue, Value: w}
}

func (rt *Runtime) storeMemory(ea uint32, width uint8, value uint32, clk uint32) *record.MemAccess {
	wordAddr := ea &^ 3
	old := rt.Mem.ReadWord(wordAddr)
	shift := (ea % 4) * 8
	mask := (uint32(1)<<(width*8) - 1) << shift
	newVal := (old.Uint32() &^ mask) | ((value << shift) & mask)
	nw := word.FromUint32(newVal)
	rt.Mem.WriteWord(wordAddr, nw)
	prevShard, prevClk, prevValue := rt.Mem.Touch(wordAddr, 0, clk, nw)
	access := record.MemAccess{Addr: wordAddr, Shard: 0, Clk: clk, PrevShard: prevShard, PrevClk: prevClk, PrevValue: prevValue, Value: nw}
	rt.rec.MemoryEvents = append(rt.rec.MemoryEvents, record.MemoryEvent{
		Shard: 0, Clk: clk, Addr: wordAddr, IsStore: true, Width: width, Access: access,
	})
	return &access
}

// ecall dispatches on x17 (a7): halt, output a byte, read a byte of stdin,
// or hand off to a registered precompile (spec §4.2). defaultClk is the
// clk step() would otherwise advance to (clkBase+16); every path returns
// the clk the cycle actually ends on, which only diverges from
// defaultClk when a precompile dispatch free-runs the clock forward
// (spec §9 ADR-2, "dynamic precompile clock jumps").
func (rt *Runtime) ecall(defaultClk uint32) (halted bool, clk uint32, events []record.PrecompileEvent, fault *Fault) {
	switch syscall := rt.Regs[17]; syscall {
	case EcallHalt:
		return true, defaultClk, nil, nil
	case EcallOutput:
		rt.Stdout = append(rt.Stdout, byte(rt.Regs[10]))
		return false, defaultClk, nil, nil
	case EcallInput:
		if rt.stdinPos >= len(rt.Stdin) {
			return false, defaultClk, nil, &Fault{Kind: FaultStdinExhausted, PC: rt.PC, Clk: rt.Clk}
		}
		rt.Regs[10] = uint32(rt.Stdin[rt.stdinPos])
		rt.stdinPos++
		return false, defaultClk, nil, nil
	default:
		if syscall < 3 {
			return false, defaultClk, nil, &Fault{Kind: FaultUnknownSyscall, PC: rt.PC, Clk: rt.Clk}
		}
		id := syscall - 3
		h, ok := rt.Precompiles[id]
		if !ok {
			return false, defaultClk, nil, &Fault{Kind: FaultUnknownPrecompile, PC: rt.PC, Clk: rt.Clk}
		}
		statePtr := rt.Regs[10]
		pr := &precompileRuntime{rt: rt, clk: rt.Clk}
		evs, err := h(pr, statePtr)
		if err != nil {
			return false, defaultClk, nil, &Fault{Kind: FaultUnknownPrecompile, PC: rt.PC, Clk: rt.Clk, Detail: err.Error()}
		}
		for _, e := range evs {
			rt.rec.AppendPrecompile(e)
		}
		metrics.PrecompileInvocations.Inc()
		return false, pr.clk, evs, nil
	}
}

// precompileRuntime adapts a Runtime to the PrecompileRuntime capability
// interface. A precompile call's own cycle base is rt.Clk (the ECALL's
// clkBase); the precompile then free-runs its clock forward by 4 per
// memory access, a "dynamic clock jump" the next instruction's clkBase
// picks up from where the precompile left off (spec §9 ADR-2), instead of
// the uniform 16-per-cycle stride ordinary instructions use.
type precompileRuntime struct {
	rt     *Runtime
	clk    uint32
	reads  []record.MemAccess
	writes []record.MemAccess
}

func (p *precompileRuntime) RegisterUnsafe(i int) uint32 { return p.rt.Regs[i] }

func (p *precompileRuntime) MemRead(addr uint32) (uint32, error) {
	w := p.rt.Mem.ReadWord(addr)
	prevShard, prevClk, prevValue := p.rt.Mem.Touch(addr, 0, p.clk, w)
	p.reads = append(p.reads, record.MemAccess{Addr: addr, Shard: 0, Clk: p.clk, PrevShard: prevShard, PrevClk: prevClk, PrevValue: prevValue, Value: w})
	p.clk += 4
	return w.Uint32(), nil
}

func (p *precompileRuntime) MemWrite(addr, value uint32) error {
	v := word.FromUint32(value)
	p.rt.Mem.WriteWord(addr, v)
	prevShard, prevClk, prevValue := p.rt.Mem.Touch(addr, 0, p.clk, v)
	p.writes = append(p.writes, record.MemAccess{Addr: addr, Shard: 0, Clk: p.clk, PrevShard: prevShard, PrevClk: prevClk, PrevValue: prevValue, Value: v})
	p.clk += 4
	return nil
}

func (p *precompileRuntime) TakeAccesses() (reads, writes []record.MemAccess) {
	reads, writes = p.reads, p.writes
	p.reads, p.writes = nil, nil
	return reads, writes
}

func (p *precompileRuntime) Clk() uint32 { return p.clk }
