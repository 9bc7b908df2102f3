package alu

import (
	"github.com/rv32air/zkcore/chips/air"
	bytechip "github.com/rv32air/zkcore/chips/byte"
	"github.com/rv32air/zkcore/field"
	"github.com/rv32air/zkcore/program"
	"github.com/rv32air/zkcore/record"
)

// BitwiseChip proves AND/OR/XOR by looking up each byte lane's AND/OR/XOR
// facts in the BYTE table (spec §4.5, §9 SUPPLEMENTED FEATURES #4) and
// then selecting, per opcode, which fact column is the claimed result: the
// chip itself does no bit decomposition.
const (
	bwColIsReal = iota
	bwColIsAnd
	bwColIsOr
	bwColIsXor
	bwColA0
	bwColA1
	bwColA2
	bwColA3
	bwColB0
	bwColB1
	bwColB2
	bwColB3
	bwColC0
	bwColC1
	bwColC2
	bwColC3
	bwColAnd0
	bwColAnd1
	bwColAnd2
	bwColAnd3
	bwColOr0
	bwColOr1
	bwColOr2
	bwColOr3
	bwColXor0
	bwColXor1
	bwColXor2
	bwColXor3
	bwWidth
)

type BitwiseChip struct{}

func NewBitwise() *BitwiseChip { return &BitwiseChip{} }

func (c *BitwiseChip) Name() string { return "alu_bitwise" }
func (c *BitwiseChip) Width() int   { return bwWidth }

func (c *BitwiseChip) GenerateTrace(rec *record.ExecutionRecord) [][]field.Element {
	var rows [][]field.Element
	for _, op := range [3]program.Opcode{program.OpAnd, program.OpOr, program.OpXor} {
		for _, ev := range eventsFor(rec, op) {
			rows = append(rows, bitwiseRow(op, ev))
		}
	}
	return air.PadRows(rows, bwWidth)
}

func bitwiseRow(op program.Opcode, ev record.ALUEvent) []field.Element {
	a, b, c := wordCols(ev.A), wordCols(ev.B), wordCols(ev.C)
	row := make([]field.Element, bwWidth)
	row[bwColIsReal] = field.One
	switch op {
	case program.OpAnd:
		row[bwColIsAnd] = field.One
	case program.OpOr:
		row[bwColIsOr] = field.One
	case program.OpXor:
		row[bwColIsXor] = field.One
	}
	row[bwColA0], row[bwColA1], row[bwColA2], row[bwColA3] = a[0], a[1], a[2], a[3]
	row[bwColB0], row[bwColB1], row[bwColB2], row[bwColB3] = b[0], b[1], b[2], b[3]
	row[bwColC0], row[bwColC1], row[bwColC2], row[bwColC3] = c[0], c[1], c[2], c[3]
	for i := 0; i < 4; i++ {
		bb, cc := b[i].Uint32(), c[i].Uint32()
		row[bwColAnd0+i] = field.FromCanonicalU32(bb & cc)
		row[bwColOr0+i] = field.FromCanonicalU32(bb | cc)
		row[bwColXor0+i] = field.FromCanonicalU32(bb ^ cc)
	}
	return row
}

func (c *BitwiseChip) Eval(b air.Builder) {
	isReal := air.Col(bwColIsReal)
	isAnd, isOr, isXor := air.Col(bwColIsAnd), air.Col(bwColIsOr), air.Col(bwColIsXor)
	boolean := func(e air.Expr) air.Expr { return air.Mul(e, air.Sub(air.Const(field.One), e)) }
	b.AssertZero(boolean(isAnd))
	b.AssertZero(boolean(isOr))
	b.AssertZero(boolean(isXor))
	b.AssertEq(air.Sum(isAnd, isOr, isXor), isReal)

	bCols := [4]int{bwColB0, bwColB1, bwColB2, bwColB3}
	cCols := [4]int{bwColC0, bwColC1, bwColC2, bwColC3}
	aCols := [4]int{bwColA0, bwColA1, bwColA2, bwColA3}
	andCols := [4]int{bwColAnd0, bwColAnd1, bwColAnd2, bwColAnd3}
	orCols := [4]int{bwColOr0, bwColOr1, bwColOr2, bwColOr3}
	xorCols := [4]int{bwColXor0, bwColXor1, bwColXor2, bwColXor3}

	for i := 0; i < 4; i++ {
		bi, ci := air.Col(bCols[i]), air.Col(cCols[i])
		andi, ori, xori := air.Col(andCols[i]), air.Col(orCols[i]), air.Col(xorCols[i])
		b.Send(bytechip.Bus, bytechip.SendTuple(bi, ci, andi, ori, xori), isReal)

		// The opcode selects which fact column is the claimed result.
		b.When(isAnd).AssertEq(air.Col(aCols[i]), andi)
		b.When(isOr).AssertEq(air.Col(aCols[i]), ori)
		b.When(isXor).AssertEq(air.Col(aCols[i]), xori)
	}

	opcodeVal := air.Sum(
		air.Mul(isAnd, opcodeExpr(program.OpAnd)),
		air.Mul(isOr, opcodeExpr(program.OpOr)),
		air.Mul(isXor, opcodeExpr(program.OpXor)),
	)
	b.Receive(Bus, []air.Expr{
		opcodeVal,
		air.ReduceWord(aCols[0], aCols[1], aCols[2], aCols[3]),
		air.ReduceWord(bCols[0], bCols[1], bCols[2], bCols[3]),
		air.ReduceWord(cCols[0], cCols[1], cCols[2], cCols[3]),
	}, isReal)
}
