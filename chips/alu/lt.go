package alu

import (
	"github.com/rv32air/zkcore/chips/air"
	bytechip "github.com/rv32air/zkcore/chips/byte"
	"github.com/rv32air/zkcore/field"
	"github.com/rv32air/zkcore/program"
	"github.com/rv32air/zkcore/record"
)

// LtChip proves SLT/SLTU. The comparison is decomposed byte-by-byte from
// the most significant lane down: a one-hot decision column points at the
// most significant lane where B and C differ (lane 0 when they are equal),
// every lane above it is constrained equal, and the decided lane's bytes
// are compared through a single range-checked 9-bit witness:
// sel_b - sel_c + 256*lt_bit must be a byte, which holds exactly when
// lt_bit = (sel_b < sel_c). Signed comparison flips bit 7 of the MSB lane
// on both sides (proven via an XOR lookup against the BYTE table) before
// selecting, turning SLT into the same unsigned byte compare. The branch
// chip's BLT/BGE/BLTU/BGEU delegate to this same chip (spec §4.4).
const (
	ltColIsReal = iota
	ltColIsSigned // 1 = SLT, 0 = SLTU
	ltColA        // result: 0 or 1, in lane 0; lanes 1-3 are zero
	ltColA1
	ltColA2
	ltColA3
	ltColB0
	ltColB1
	ltColB2
	ltColB3
	ltColC0
	ltColC1
	ltColC2
	ltColC3
	// decision[i] = 1 iff lane i is the most significant lane where B and C
	// differ (lane 0 when B == C).
	ltColDecision0
	ltColDecision1
	ltColDecision2
	ltColDecision3
	ltColLtBit
	// MSB-lane bytes with bit 7 flipped, pinned by an XOR lookup in the
	// BYTE table; only read on signed rows.
	ltColBAnd3
	ltColBOr3
	ltColBXor3
	ltColCAnd3
	ltColCOr3
	ltColCXor3
	// The decided lane's comparison bytes (signed-adjusted on lane 3).
	ltColSelB
	ltColSelC
	// sel_b - sel_c + 256*lt_bit, range-checked to a byte.
	ltColDiffByte
	// is_eq = 1 iff B == C byte-for-byte, with diff_inv the inverse witness
	// of the decided lane's raw byte difference otherwise.
	ltColIsEq
	ltColDiffInv
	ltWidth
)

const msbFlip = 0x80

type LtChip struct{}

func NewLt() *LtChip { return &LtChip{} }

func (c *LtChip) Name() string { return "alu_lt" }
func (c *LtChip) Width() int   { return ltWidth }

func (c *LtChip) GenerateTrace(rec *record.ExecutionRecord) [][]field.Element {
	var rows [][]field.Element
	for _, op := range [2]program.Opcode{program.OpSlt, program.OpSltu} {
		for _, ev := range eventsFor(rec, op) {
			rows = append(rows, ltRow(op, ev))
		}
	}
	return air.PadRows(rows, ltWidth)
}

func ltRow(op program.Opcode, ev record.ALUEvent) []field.Element {
	a, b, c := wordCols(ev.A), wordCols(ev.B), wordCols(ev.C)
	row := make([]field.Element, ltWidth)
	row[ltColIsReal] = field.One
	signed := op == program.OpSlt
	if signed {
		row[ltColIsSigned] = field.One
	}
	row[ltColA], row[ltColA1], row[ltColA2], row[ltColA3] = a[0], a[1], a[2], a[3]
	row[ltColB0], row[ltColB1], row[ltColB2], row[ltColB3] = b[0], b[1], b[2], b[3]
	row[ltColC0], row[ltColC1], row[ltColC2], row[ltColC3] = c[0], c[1], c[2], c[3]

	b3, c3 := b[3].Uint32(), c[3].Uint32()
	row[ltColBAnd3] = field.FromCanonicalU32(b3 & msbFlip)
	row[ltColBOr3] = field.FromCanonicalU32(b3 | msbFlip)
	row[ltColBXor3] = field.FromCanonicalU32(b3 ^ msbFlip)
	row[ltColCAnd3] = field.FromCanonicalU32(c3 & msbFlip)
	row[ltColCOr3] = field.FromCanonicalU32(c3 | msbFlip)
	row[ltColCXor3] = field.FromCanonicalU32(c3 ^ msbFlip)

	// cmpB/cmpC are the bytes the lexicographic compare actually runs on:
	// raw lanes, except lane 3 flipped under signed mode.
	cmpB := [4]uint32{b[0].Uint32(), b[1].Uint32(), b[2].Uint32(), b3}
	cmpC := [4]uint32{c[0].Uint32(), c[1].Uint32(), c[2].Uint32(), c3}
	if signed {
		cmpB[3] = b3 ^ msbFlip
		cmpC[3] = c3 ^ msbFlip
	}

	decLane := 0
	isEq := true
	for lane := 3; lane >= 0; lane-- {
		if b[lane].Uint32() != c[lane].Uint32() {
			decLane = lane
			isEq = false
			break
		}
	}
	row[ltColDecision0+decLane] = field.One
	if isEq {
		row[ltColIsEq] = field.One
	} else {
		row[ltColDiffInv] = b[decLane].Sub(c[decLane]).Inverse()
	}

	ltBit := uint32(0)
	if a[0].Uint32() == 1 {
		ltBit = 1
		row[ltColLtBit] = field.One
	}
	row[ltColSelB] = field.FromCanonicalU32(cmpB[decLane])
	row[ltColSelC] = field.FromCanonicalU32(cmpC[decLane])
	row[ltColDiffByte] = field.FromCanonicalU32(cmpB[decLane] - cmpC[decLane] + 256*ltBit)
	return row
}

func (c *LtChip) Eval(b air.Builder) {
	isReal := air.Col(ltColIsReal)
	isSigned := air.Col(ltColIsSigned)
	boolean := func(e air.Expr) air.Expr { return air.Mul(e, air.Sub(air.Const(field.One), e)) }

	decisionCols := [4]int{ltColDecision0, ltColDecision1, ltColDecision2, ltColDecision3}
	sum := air.Const(field.Zero)
	for _, dc := range decisionCols {
		d := air.Col(dc)
		b.AssertZero(boolean(d))
		sum = air.Add(sum, d)
	}
	b.AssertEq(sum, isReal)
	b.AssertZero(boolean(air.Col(ltColLtBit)))
	b.AssertZero(boolean(air.Col(ltColIsEq)))
	b.AssertZero(boolean(isSigned))

	// Result register: only lane 0 may be nonzero, and it equals the
	// decided less-than bit.
	b.AssertZero(air.Col(ltColA1))
	b.AssertZero(air.Col(ltColA2))
	b.AssertZero(air.Col(ltColA3))
	b.AssertEq(air.Col(ltColA), air.Col(ltColLtBit))

	bCols := [4]int{ltColB0, ltColB1, ltColB2, ltColB3}
	cCols := [4]int{ltColC0, ltColC1, ltColC2, ltColC3}

	// Every lane above the decision lane is equal.
	for lane := 0; lane < 3; lane++ {
		d := air.Col(decisionCols[lane])
		for above := lane + 1; above < 4; above++ {
			b.AssertZero(air.Mul(d, air.Sub(air.Col(bCols[above]), air.Col(cCols[above]))))
		}
	}

	// is_eq forces every lane equal; otherwise the decided lane's raw
	// difference must be invertible, so the decision points at a lane that
	// genuinely differs (with the prefix constraint above, the most
	// significant one).
	isEq := air.Col(ltColIsEq)
	for lane := 0; lane < 4; lane++ {
		b.AssertZero(air.Mul(isEq, air.Sub(air.Col(bCols[lane]), air.Col(cCols[lane]))))
	}
	rawDiff := air.Const(field.Zero)
	for lane := 0; lane < 4; lane++ {
		rawDiff = air.Add(rawDiff, air.Mul(air.Col(decisionCols[lane]), air.Sub(air.Col(bCols[lane]), air.Col(cCols[lane]))))
	}
	b.AssertEq(air.Mul(rawDiff, air.Col(ltColDiffInv)), air.Sub(isReal, isEq))

	// Signed mode flips bit 7 of the MSB lane on both operands; the XOR
	// lookup pins the flipped bytes to the table's facts.
	flip := air.Const(field.FromCanonicalU32(msbFlip))
	b.Send(bytechip.Bus, bytechip.SendTuple(
		air.Col(ltColB3), flip, air.Col(ltColBAnd3), air.Col(ltColBOr3), air.Col(ltColBXor3)), isSigned)
	b.Send(bytechip.Bus, bytechip.SendTuple(
		air.Col(ltColC3), flip, air.Col(ltColCAnd3), air.Col(ltColCOr3), air.Col(ltColCXor3)), isSigned)

	// The decided lane's comparison bytes: lane 3 signed-adjusted, lanes
	// 0-2 raw.
	cmpB3 := air.Add(air.Mul(isSigned, air.Col(ltColBXor3)), air.Mul(air.Sub(isReal, isSigned), air.Col(ltColB3)))
	cmpC3 := air.Add(air.Mul(isSigned, air.Col(ltColCXor3)), air.Mul(air.Sub(isReal, isSigned), air.Col(ltColC3)))
	selB := air.Sum(
		air.Mul(air.Col(decisionCols[0]), air.Col(bCols[0])),
		air.Mul(air.Col(decisionCols[1]), air.Col(bCols[1])),
		air.Mul(air.Col(decisionCols[2]), air.Col(bCols[2])),
		air.Mul(air.Col(decisionCols[3]), cmpB3),
	)
	selC := air.Sum(
		air.Mul(air.Col(decisionCols[0]), air.Col(cCols[0])),
		air.Mul(air.Col(decisionCols[1]), air.Col(cCols[1])),
		air.Mul(air.Col(decisionCols[2]), air.Col(cCols[2])),
		air.Mul(air.Col(decisionCols[3]), cmpC3),
	)
	b.AssertEq(air.Col(ltColSelB), selB)
	b.AssertEq(air.Col(ltColSelC), selC)

	// sel_b - sel_c + 256*lt_bit is a byte iff lt_bit = (sel_b < sel_c):
	// a wrong bit lands the value in [256, 511] or wraps negative, and the
	// range check rejects both.
	b.AssertEq(air.Col(ltColDiffByte),
		air.Add(air.Sub(air.Col(ltColSelB), air.Col(ltColSelC)), air.Mul(air.Const(field.FromCanonicalU32(256)), air.Col(ltColLtBit))))
	rangeCheckByte(b, air.Col(ltColDiffByte), isReal)

	opcodeVal := air.Sum(
		air.Mul(isSigned, opcodeExpr(program.OpSlt)),
		air.Mul(air.Sub(isReal, isSigned), opcodeExpr(program.OpSltu)),
	)
	b.Receive(Bus, []air.Expr{
		opcodeVal,
		air.ReduceWord(ltColA, ltColA1, ltColA2, ltColA3),
		air.ReduceWord(bCols[0], bCols[1], bCols[2], bCols[3]),
		air.ReduceWord(cCols[0], cCols[1], cCols[2], cCols[3]),
	}, isReal)
}
