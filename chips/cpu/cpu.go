// Package cpu implements the CPU chip (spec §4.3): one row per executed
// instruction, dispatching operand resolution and results onto the shared
// ALU, Memory, and Program buses rather than re-deriving arithmetic or
// memory semantics itself.
package cpu

import (
	"github.com/rv32air/zkcore/chips/air"
	"github.com/rv32air/zkcore/chips/alu"
	bytechip "github.com/rv32air/zkcore/chips/byte"
	memchip "github.com/rv32air/zkcore/chips/memory"
	"github.com/rv32air/zkcore/chips/poseidon2"
	progchip "github.com/rv32air/zkcore/chips/program"
	"github.com/rv32air/zkcore/field"
	"github.com/rv32air/zkcore/program"
	"github.com/rv32air/zkcore/record"
	"github.com/rv32air/zkcore/runtime"
	"github.com/rv32air/zkcore/word"
)

// Column layout. Register/memory accesses carry only the (shard, clk,
// prev_shard, prev_clk, prev_value) fields the Memory chip needs on top
// of the value already in op{A,B,C}Val -- duplicating the addr/value the
// CPU already computed would be redundant, so the Memory-bus send below
// rebuilds the address from regA/regB/regC or addrWord rather than
// storing it twice.
const (
	colIsReal = iota
	colIsAlu
	colIsLoad
	colIsStore
	colIsBeq
	colIsBne
	colIsBlt
	colIsBge
	colIsBltu
	colIsBgeu
	colIsJal
	colIsJalr
	colIsLui
	colIsAuipc
	colIsEcall
	colIsNoop

	colPC0
	colPC1
	colPC2
	colPC3
	colNextPC0
	colNextPC1
	colNextPC2
	colNextPC3
	colInstrRaw0
	colInstrRaw1
	colInstrRaw2
	colInstrRaw3
	colOpcodeVal // program.Opcode, trusted selector-derived value sent to the ALU bus

	colRegA
	colRegB
	colRegC
	colImmB
	colImmC

	// reg_0_write selector (spec §3, §4.3, invariant P5): register 0 is
	// hard-wired zero, so any write to it is silently discarded both in
	// the interpreter (runtime.touchRegA) and here. colRegZeroWrite is 1
	// iff colRegA == 0; colRegAInv is its inverse witness otherwise,
	// mirroring the branch eqFlag/eqInv gadget below.
	colRegZeroWrite
	colRegAInv

	colOpAVal0
	colOpAVal1
	colOpAVal2
	colOpAVal3
	colOpBVal0
	colOpBVal1
	colOpBVal2
	colOpBVal3
	colOpCVal0
	colOpCVal1
	colOpCVal2
	colOpCVal3

	// Register access-chain witnesses for op_a/op_b/op_c (spec §4.3).
	colAShard
	colAClk
	colAPrevShard
	colAPrevClk
	colAPrevVal0
	colAPrevVal1
	colAPrevVal2
	colAPrevVal3
	colBShard
	colBClk
	colBPrevShard
	colBPrevClk
	colBPrevVal0
	colBPrevVal1
	colBPrevVal2
	colBPrevVal3
	colCShard
	colCClk
	colCPrevShard
	colCPrevClk
	colCPrevVal0
	colCPrevVal1
	colCPrevVal2
	colCPrevVal3

	// Memory instruction witnesses.
	colAddrWord0 // raw effective address ea = op_b_val + op_c_val, sent to the ALU bus
	colAddrWord1
	colAddrWord2
	colAddrWord3
	colAddrOffset
	colAddrAligned0 // ea &^ 3, the word actually touched on the Memory bus
	colAddrAligned1
	colAddrAligned2
	colAddrAligned3
	colMemShard
	colMemClk
	colMemPrevShard
	colMemPrevClk
	colMemPrevVal0
	colMemPrevVal1
	colMemPrevVal2
	colMemPrevVal3
	colMemNewVal0
	colMemNewVal1
	colMemNewVal2
	colMemNewVal3

	// Branch witnesses.
	colEqFlag
	colEqInv
	colLtResult
	colIsTaken

	// JALR's target-address LSB mask witness (documented simplification,
	// see DESIGN.md: not independently bit-verified, same scope reduction
	// as ShiftChip's amount decomposition).
	colJalrLowBit

	colIsHalt

	// Precompile dispatch witnesses (spec §4.7). The only precompile wired
	// into this core is the Poseidon2 permutation (spec §9 SUPPLEMENTED
	// FEATURES #3), which always dispatches exactly three sub-invocations
	// in fixed order -- external, internal, external -- so each slot's bus
	// is known statically rather than needing its own selector column.
	colIsPrecompile
	colPcSlot0StatePtr
	colPcSlot0ClkIn
	colPcSlot0ClkOut
	colPcSlot1StatePtr
	colPcSlot1ClkIn
	colPcSlot1ClkOut
	colPcSlot2StatePtr
	colPcSlot2ClkIn
	colPcSlot2ClkOut

	Width
)

type Chip struct{}

func New() *Chip { return &Chip{} }

func (c *Chip) Name() string { return "cpu" }
func (c *Chip) Width() int   { return Width }

func (c *Chip) GenerateTrace(rec *record.ExecutionRecord) [][]field.Element {
	rows := make([][]field.Element, len(rec.CPUEvents))
	for i, ev := range rec.CPUEvents {
		rows[i] = cpuRow(ev)
	}
	return air.PadRows(rows, Width)
}

func bytes4(w word.Word) [4]field.Element { return [4]field.Element{w[0], w[1], w[2], w[3]} }

func accessOrZero(a *record.MemAccess) record.MemAccess {
	if a == nil {
		return record.MemAccess{}
	}
	return *a
}

func cpuRow(ev record.CPUEvent) []field.Element {
	row := make([]field.Element, Width)
	row[colIsReal] = field.One

	op := ev.Instr.Opcode
	switch {
	case op.IsALU():
		row[colIsAlu] = field.One
	case op.IsLoad():
		row[colIsLoad] = field.One
	case op.IsStore():
		row[colIsStore] = field.One
	case op == program.OpBeq:
		row[colIsBeq] = field.One
	case op == program.OpBne:
		row[colIsBne] = field.One
	case op == program.OpBlt:
		row[colIsBlt] = field.One
	case op == program.OpBge:
		row[colIsBge] = field.One
	case op == program.OpBltu:
		row[colIsBltu] = field.One
	case op == program.OpBgeu:
		row[colIsBgeu] = field.One
	case op == program.OpJal:
		row[colIsJal] = field.One
	case op == program.OpJalr:
		row[colIsJalr] = field.One
	case op == program.OpLui:
		row[colIsLui] = field.One
	case op == program.OpAuipc:
		row[colIsAuipc] = field.One
	case op == program.OpEcall:
		row[colIsEcall] = field.One
	default:
		row[colIsNoop] = field.One
	}

	pc, nextPC := ev.PC, ev.NextPC
	for i := 0; i < 4; i++ {
		row[colPC0+i] = field.FromCanonicalU32((pc >> (8 * uint(i))) & 0xff)
		row[colNextPC0+i] = field.FromCanonicalU32((nextPC >> (8 * uint(i))) & 0xff)
		row[colInstrRaw0+i] = field.FromCanonicalU32((ev.Instr.Raw >> (8 * uint(i))) & 0xff)
	}
	row[colOpcodeVal] = field.FromCanonicalU32(uint32(op))

	row[colRegA] = field.FromCanonicalU32(uint32(ev.Instr.RegA()))
	row[colRegB] = field.FromCanonicalU32(uint32(ev.Instr.RegB()))
	row[colRegC] = field.FromCanonicalU32(uint32(ev.Instr.RegC()))
	if ev.Instr.ImmB {
		row[colImmB] = field.One
	}
	if ev.Instr.ImmC {
		row[colImmC] = field.One
	}

	if ev.Instr.RegA() == 0 {
		row[colRegZeroWrite] = field.One
	} else {
		row[colRegAInv] = field.FromCanonicalU32(uint32(ev.Instr.RegA())).Inverse()
	}

	aVal, bVal, cVal := bytes4(ev.OpAVal), bytes4(ev.OpBVal), bytes4(ev.OpCVal)
	for i := 0; i < 4; i++ {
		row[colOpAVal0+i] = aVal[i]
		row[colOpBVal0+i] = bVal[i]
		row[colOpCVal0+i] = cVal[i]
	}

	aAcc := accessOrZero(ev.OpAAccess)
	row[colAShard], row[colAClk] = field.FromCanonicalU32(aAcc.Shard), field.FromCanonicalU32(aAcc.Clk)
	row[colAPrevShard], row[colAPrevClk] = field.FromCanonicalU32(aAcc.PrevShard), field.FromCanonicalU32(aAcc.PrevClk)
	apv := bytes4(aAcc.PrevValue)
	for i := 0; i < 4; i++ {
		row[colAPrevVal0+i] = apv[i]
	}

	if ev.OpBAccess != nil {
		bAcc := *ev.OpBAccess
		row[colBShard], row[colBClk] = field.FromCanonicalU32(bAcc.Shard), field.FromCanonicalU32(bAcc.Clk)
		row[colBPrevShard], row[colBPrevClk] = field.FromCanonicalU32(bAcc.PrevShard), field.FromCanonicalU32(bAcc.PrevClk)
		bpv := bytes4(bAcc.PrevValue)
		for i := 0; i < 4; i++ {
			row[colBPrevVal0+i] = bpv[i]
		}
	}
	if ev.OpCAccess != nil {
		cAcc := *ev.OpCAccess
		row[colCShard], row[colCClk] = field.FromCanonicalU32(cAcc.Shard), field.FromCanonicalU32(cAcc.Clk)
		row[colCPrevShard], row[colCPrevClk] = field.FromCanonicalU32(cAcc.PrevShard), field.FromCanonicalU32(cAcc.PrevClk)
		cpv := bytes4(cAcc.PrevValue)
		for i := 0; i < 4; i++ {
			row[colCPrevVal0+i] = cpv[i]
		}
	}

	if ev.MemAccess != nil {
		m := *ev.MemAccess
		ea := ev.OpBVal.Uint32() + ev.OpCVal.Uint32()
		eaBytes := bytes4(word.FromUint32(ea))
		alignedBytes := bytes4(word.FromUint32(ea &^ 3))
		for i := 0; i < 4; i++ {
			row[colAddrWord0+i] = eaBytes[i]
			row[colAddrAligned0+i] = alignedBytes[i]
		}
		row[colAddrOffset] = field.FromCanonicalU32(ea & 3)
		row[colMemShard], row[colMemClk] = field.FromCanonicalU32(m.Shard), field.FromCanonicalU32(m.Clk)
		row[colMemPrevShard], row[colMemPrevClk] = field.FromCanonicalU32(m.PrevShard), field.FromCanonicalU32(m.PrevClk)
		mpv, mnv := bytes4(m.PrevValue), bytes4(m.Value)
		for i := 0; i < 4; i++ {
			row[colMemPrevVal0+i] = mpv[i]
			row[colMemNewVal0+i] = mnv[i]
		}
	}

	if op.IsBranch() {
		a, b := ev.OpAVal.Uint32(), ev.OpBVal.Uint32()
		if a == b {
			row[colEqFlag] = field.One
		} else {
			diff := field.FromCanonicalU32(a).Sub(field.FromCanonicalU32(b))
			row[colEqInv] = diff.Inverse()
		}
		var ltResult bool
		switch op {
		case program.OpBlt, program.OpBge:
			ltResult = int32(a) < int32(b)
		default:
			ltResult = a < b
		}
		if ltResult {
			row[colLtResult] = field.One
		}
		if ev.BranchTaken {
			row[colIsTaken] = field.One
		}
	}

	if op == program.OpJalr {
		sum := ev.OpBVal.Uint32() + ev.OpCVal.Uint32()
		row[colJalrLowBit] = field.FromCanonicalU32(sum & 1)
	}

	if ev.IsHalt {
		row[colIsHalt] = field.One
	}

	if len(ev.PrecompileInvocations) > 0 {
		row[colIsPrecompile] = field.One
		slots := [3][3]int{
			{colPcSlot0ClkIn, colPcSlot0StatePtr, colPcSlot0ClkOut},
			{colPcSlot1ClkIn, colPcSlot1StatePtr, colPcSlot1ClkOut},
			{colPcSlot2ClkIn, colPcSlot2StatePtr, colPcSlot2ClkOut},
		}
		for i, inv := range ev.PrecompileInvocations {
			if i >= len(slots) {
				break
			}
			row[slots[i][0]] = field.FromCanonicalU32(inv.ClkIn)
			// A guest state pointer is a full u32 address and can exceed the
			// modulus; both sides of the precompile bus carry it mod p.
			row[slots[i][1]] = field.New(uint64(inv.StatePtr))
			row[slots[i][2]] = field.FromCanonicalU32(inv.ClkOut)
		}
	}
	return row
}

func boolean(e air.Expr) air.Expr { return air.Mul(e, air.Sub(air.Const(field.One), e)) }

// rangeCheckByte sends col to the BYTE table's range-check lane, the same
// helper shape chips/alu and chips/memory carry locally.
func rangeCheckByte(b air.Builder, col air.Expr, mult air.Expr) {
	b.Send(bytechip.Bus, bytechip.SendTuple(col, air.Const(field.Zero), air.Const(field.Zero), col, col), mult)
}

func (c *Chip) Eval(b air.Builder) {
	isReal := air.Col(colIsReal)
	selectors := []air.Expr{
		air.Col(colIsAlu), air.Col(colIsLoad), air.Col(colIsStore),
		air.Col(colIsBeq), air.Col(colIsBne), air.Col(colIsBlt), air.Col(colIsBge), air.Col(colIsBltu), air.Col(colIsBgeu),
		air.Col(colIsJal), air.Col(colIsJalr), air.Col(colIsLui), air.Col(colIsAuipc), air.Col(colIsEcall), air.Col(colIsNoop),
	}
	for _, s := range selectors {
		b.AssertZero(boolean(s))
	}
	b.AssertEq(air.Sum(selectors...), isReal)
	isBranch := air.Sum(air.Col(colIsBeq), air.Col(colIsBne), air.Col(colIsBlt), air.Col(colIsBge), air.Col(colIsBltu), air.Col(colIsBgeu))
	isMemory := air.Add(air.Col(colIsLoad), air.Col(colIsStore))

	b.AssertZero(boolean(air.Col(colImmB)))
	b.AssertZero(boolean(air.Col(colImmC)))

	pc := air.ReduceWord(colPC0, colPC1, colPC2, colPC3)
	nextPC := air.ReduceWord(colNextPC0, colNextPC1, colNextPC2, colNextPC3)
	instrRaw := air.ReduceWord(colInstrRaw0, colInstrRaw1, colInstrRaw2, colInstrRaw3)

	aVal := air.ReduceWord(colOpAVal0, colOpAVal1, colOpAVal2, colOpAVal3)
	bVal := air.ReduceWord(colOpBVal0, colOpBVal1, colOpBVal2, colOpBVal3)
	cVal := air.ReduceWord(colOpCVal0, colOpCVal1, colOpCVal2, colOpCVal3)

	// Operand value words are byte-valid on every real row (spec P7); the
	// memory-instruction word groups are checked further down under their
	// own selector.
	for _, base := range [3]int{colOpAVal0, colOpBVal0, colOpCVal0} {
		for i := 0; i < 4; i++ {
			rangeCheckByte(b, air.Col(base+i), isReal)
		}
	}

	// reg_0_write selector (spec §3, invariant P5): colRegZeroWrite must
	// equal (reg_a == 0), proven the same way the branch eqFlag/eqInv
	// gadget below proves (op_a == op_b); once pinned, it zeroes the value
	// the register-A memory-bus send below claims to have written, instead
	// of trusting the interpreter to have discarded the write.
	regZeroWrite := air.Col(colRegZeroWrite)
	b.AssertZero(boolean(regZeroWrite))
	regA := air.Col(colRegA)
	b.When(isReal).AssertZero(air.Mul(regA, regZeroWrite))
	b.When(isReal).AssertEq(air.Mul(regA, air.Col(colRegAInv)), air.Sub(air.Const(field.One), regZeroWrite))

	// op_b / op_c resolution (spec §4.3): immediate or a register access
	// at sub-clock B/C, asserting the resolved value equals the access
	// chain's freshly-recorded value (which TouchRegRead/TouchRegWrite
	// set equal to the register's current value -- see runtime.step).
	// RegisterAddrBase exceeds the Baby Bear modulus as a raw u32; reduce it
	// so the address expression matches the Memory chip's own mod-p word
	// reduction of the same pseudo-address.
	regAddr := func(regCol int) air.Expr {
		return air.Add(air.Const(field.New(uint64(runtime.RegisterAddrBase))), air.Mul(air.Col(regCol), air.Const(field.FromCanonicalU32(4))))
	}
	notImmB := air.Sub(isReal, air.Col(colImmB))
	b.When(notImmB).Send(memchip.Bus, []air.Expr{
		regAddr(colRegB), air.Col(colBShard), air.Col(colBClk), air.Col(colBPrevShard), air.Col(colBPrevClk),
		bVal, air.ReduceWord(colBPrevVal0, colBPrevVal1, colBPrevVal2, colBPrevVal3),
	}, notImmB)

	notImmC := air.Sub(isReal, air.Col(colImmC))
	b.When(notImmC).Send(memchip.Bus, []air.Expr{
		regAddr(colRegC), air.Col(colCShard), air.Col(colCClk), air.Col(colCPrevShard), air.Col(colCPrevClk),
		cVal, air.ReduceWord(colCPrevVal0, colCPrevVal1, colCPrevVal2, colCPrevVal3),
	}, notImmC)

	// Register-a write/re-touch. Spec §4.3 scopes this send's multiplicity
	// down to `1 - is_noop - reg_0_write - is_branch - is_store`, the rows
	// that genuinely write a nonzero register; this core instead sends
	// op_a's access unconditionally on every real row (runtime.step always
	// threads op_a through the access chain, writing back unchanged when
	// there is no real writeback -- see runtime.touchRegA), which is
	// sound but not row-count-minimal, the same scope reduction taken for
	// ShiftChip's amount decomposition (see DESIGN.md).
	aMult := isReal
	// Register 0's access record always carries value zero (spec P5) even
	// when op_a_val holds a discarded computed result, so the written value
	// on the bus is zeroed under the reg_0_write selector.
	aWritten := air.Mul(air.Sub(air.Const(field.One), regZeroWrite), aVal)
	b.When(aMult).Send(memchip.Bus, []air.Expr{
		regAddr(colRegA), air.Col(colAShard), air.Col(colAClk), air.Col(colAPrevShard), air.Col(colAPrevClk),
		aWritten, air.ReduceWord(colAPrevVal0, colAPrevVal1, colAPrevVal2, colAPrevVal3),
	}, aMult)
	// Branches and stores read op_a as a value without writing it back.
	bs := air.Add(isBranch, air.Col(colIsStore))
	b.When(bs).AssertEq(aVal, air.ReduceWord(colAPrevVal0, colAPrevVal1, colAPrevVal2, colAPrevVal3))

	// Memory instructions: addr_word = op_b_val + op_c_val (sent as a
	// synthetic ADD to the ALU bus) is the raw, possibly-unaligned
	// effective address; addr_aligned = addr_word &^ 3 is the word the
	// Memory bus actually reads/writes, tied to addr_word by addr_offset
	// (spec §4.3: "reduce(addr_word) = addr_aligned + addr_offset").
	addrWord := air.ReduceWord(colAddrWord0, colAddrWord1, colAddrWord2, colAddrWord3)
	addrAligned := air.ReduceWord(colAddrAligned0, colAddrAligned1, colAddrAligned2, colAddrAligned3)
	for _, base := range [4]int{colAddrWord0, colAddrAligned0, colMemPrevVal0, colMemNewVal0} {
		for i := 0; i < 4; i++ {
			rangeCheckByte(b, air.Col(base+i), isMemory)
		}
	}
	b.When(isMemory).Send(alu.Bus, []air.Expr{
		air.Const(field.FromCanonicalU32(uint32(program.OpAdd))), addrWord, bVal, cVal,
	}, isMemory)
	b.When(isMemory).AssertZero(air.Mul(air.Col(colAddrOffset), air.Mul(air.Sub(air.Col(colAddrOffset), air.Const(field.One)),
		air.Mul(air.Sub(air.Col(colAddrOffset), air.Const(field.FromCanonicalU32(2))), air.Sub(air.Col(colAddrOffset), air.Const(field.FromCanonicalU32(3)))))))
	b.When(isMemory).AssertEq(addrWord, air.Add(addrAligned, air.Col(colAddrOffset)))
	memNewVal := air.ReduceWord(colMemNewVal0, colMemNewVal1, colMemNewVal2, colMemNewVal3)
	memPrevVal := air.ReduceWord(colMemPrevVal0, colMemPrevVal1, colMemPrevVal2, colMemPrevVal3)
	b.When(isMemory).Send(memchip.Bus, []air.Expr{
		addrAligned, air.Col(colMemShard), air.Col(colMemClk), air.Col(colMemPrevShard), air.Col(colMemPrevClk),
		memNewVal, memPrevVal,
	}, isMemory)
	// Loads are value-preserving re-touches (spec §4.6 load-as-touch
	// convention shared with runtime.loadMemory): new_val = prev_val.
	b.When(air.Col(colIsLoad)).AssertEq(memNewVal, memPrevVal)

	// ALU instructions: send (opcode, op_a_val, op_b_val, op_c_val).
	b.When(air.Col(colIsAlu)).Send(alu.Bus, []air.Expr{air.Col(colOpcodeVal), aVal, bVal, cVal}, air.Col(colIsAlu))

	// Branch comparison, delegated to the ALU LT sub-chip for
	// </>= variants and a local equality gadget for ==/!= (spec §4.4).
	eqFlag := air.Col(colEqFlag)
	b.AssertZero(boolean(eqFlag))
	diff := air.Sub(aVal, bVal)
	b.When(isBranch).AssertZero(air.Mul(diff, eqFlag))
	b.When(isBranch).AssertEq(air.Mul(diff, air.Col(colEqInv)), air.Sub(air.Const(field.One), eqFlag))

	ltResult := air.Col(colLtResult)
	b.AssertZero(boolean(ltResult))
	isSignedCmp := air.Add(air.Col(colIsBlt), air.Col(colIsBge))
	isUnsignedCmp := air.Add(air.Col(colIsBltu), air.Col(colIsBgeu))
	ltOpcode := air.Add(air.Mul(isSignedCmp, air.Const(field.FromCanonicalU32(uint32(program.OpSlt)))),
		air.Mul(isUnsignedCmp, air.Const(field.FromCanonicalU32(uint32(program.OpSltu)))))
	ltMult := air.Add(isSignedCmp, isUnsignedCmp)
	b.When(ltMult).Send(alu.Bus, []air.Expr{ltOpcode, ltResult, aVal, bVal}, ltMult)

	isTaken := air.Col(colIsTaken)
	b.AssertZero(boolean(isTaken))
	wantTaken := air.Sum(
		air.Mul(air.Col(colIsBeq), eqFlag),
		air.Mul(air.Col(colIsBne), air.Sub(air.Const(field.One), eqFlag)),
		air.Mul(air.Add(air.Col(colIsBlt), air.Col(colIsBltu)), ltResult),
		air.Mul(air.Add(air.Col(colIsBge), air.Col(colIsBgeu)), air.Sub(air.Const(field.One), ltResult)),
	)
	b.When(isBranch).AssertEq(isTaken, wantTaken)
	// The taken target is pc + imm mod 2^32, which wraps for negative
	// offsets; a field-level sum cannot express the wrap, so the
	// computation is offloaded to the ALU bus's byte-wise carry gadget
	// (spec §4.4, "compute the taken next-PC as pc + op_c_val"). The
	// fallthrough pc+4 never wraps in a loadable binary and stays in-row.
	takenMult := air.Mul(isBranch, isTaken)
	b.When(takenMult).Send(alu.Bus, []air.Expr{
		air.Const(field.FromCanonicalU32(uint32(program.OpAdd))), nextPC, pc, cVal,
	}, takenMult)
	fallthroughTarget := air.Add(pc, air.Const(field.FromCanonicalU32(4)))
	b.When(air.Mul(isBranch, air.Sub(air.Const(field.One), isTaken))).AssertEq(nextPC, fallthroughTarget)

	// Jumps and AUIPC: new-PC / result reconstruction is offloaded to the
	// ALU bus (spec §4.3) because pc + imm and rs1 + imm wrap mod 2^32.
	// The link value pc + 4 stays in-row.
	opAdd := air.Const(field.FromCanonicalU32(uint32(program.OpAdd)))
	isJal := air.Col(colIsJal)
	b.When(isJal).Send(alu.Bus, []air.Expr{opAdd, nextPC, pc, cVal}, isJal)
	b.When(isJal).AssertEq(aVal, air.Add(pc, air.Const(field.FromCanonicalU32(4))))

	b.AssertZero(boolean(air.Col(colJalrLowBit)))
	isJalr := air.Col(colIsJalr)
	// next_pc + low_bit is the unmasked rs1 + imm sum the ALU proves.
	b.When(isJalr).Send(alu.Bus, []air.Expr{opAdd, air.Add(nextPC, air.Col(colJalrLowBit)), bVal, cVal}, isJalr)
	b.When(isJalr).AssertEq(aVal, air.Add(pc, air.Const(field.FromCanonicalU32(4))))

	b.When(air.Col(colIsLui)).AssertEq(aVal, cVal)
	isAuipc := air.Col(colIsAuipc)
	b.When(isAuipc).Send(alu.Bus, []air.Expr{opAdd, aVal, pc, cVal}, isAuipc)

	b.AssertZero(boolean(air.Col(colIsHalt)))
	b.When(air.Col(colIsEcall)).AssertZero(air.Const(field.Zero)) // ecall semantics are host-dispatched, not constrained here

	// Precompile dispatch: send each of the three fixed Poseidon2
	// sub-invocations (external, internal, external) on its matching bus
	// (spec §4.7). Only meaningful under colIsEcall, but gating on
	// colIsPrecompile alone is sufficient since GenerateTrace never sets
	// it on a non-ecall row.
	isPrecompile := air.Col(colIsPrecompile)
	b.AssertZero(boolean(isPrecompile))
	b.When(isPrecompile).Send(poseidon2.ExternalBus, []air.Expr{
		air.Col(colPcSlot0ClkIn), air.Col(colPcSlot0StatePtr), air.Col(colPcSlot0ClkOut),
	}, isPrecompile)
	b.When(isPrecompile).Send(poseidon2.InternalBus, []air.Expr{
		air.Col(colPcSlot1ClkIn), air.Col(colPcSlot1StatePtr), air.Col(colPcSlot1ClkOut),
	}, isPrecompile)
	b.When(isPrecompile).Send(poseidon2.ExternalBus, []air.Expr{
		air.Col(colPcSlot2ClkIn), air.Col(colPcSlot2StatePtr), air.Col(colPcSlot2ClkOut),
	}, isPrecompile)

	// Every row sends (pc, instruction) to the PROGRAM bus (spec §4.3).
	b.Send(progchip.Bus, []air.Expr{pc, instrRaw}, isReal)
}
