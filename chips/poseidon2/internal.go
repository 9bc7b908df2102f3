package poseidon2

import (
	"github.com/rv32air/zkcore/chips/air"
	"github.com/rv32air/zkcore/field"
	"github.com/rv32air/zkcore/record"
)

// InternalRounds is the number of partial (internal) rounds one invocation
// of InternalChip performs inline within a single AIR row.
const InternalRounds = 6

// InternalChip proves one bank of internal Poseidon2 rounds: round
// constant addition to lane 0 only, an S-box applied to lane 0 only, and
// the diagonal internal linear layer. It keeps the external chip's memory
// discipline -- every round reads all Width lanes and writes them back --
// so the state image in guest memory stays the single source of truth
// between banks.
type InternalChip struct{}

func NewInternal() *InternalChip { return &InternalChip{} }

func (c *InternalChip) Name() string { return "poseidon2_internal" }

const (
	intColIsReal = iota
	intColShard
	intColStateIn
)

func intColRound(r int) int  { return intColStateIn + Width + r*Width }
func intColStatePtr() int    { return intColStateIn + Width + InternalRounds*Width }
func intColClkIn() int       { return intColStatePtr() + 1 }
func intColClkOut() int      { return intColStatePtr() + 2 }
func intColReadPrev(lane int) int { return intColStatePtr() + 3 + lane*2 }

func (c *InternalChip) Width() int { return intColStatePtr() + 3 + Width*2 }

// InternalBus is the CPU<->precompile interaction tuple for internal-round
// invocations, kept distinct from the external chip's bus since a
// Poseidon2 permutation invokes each bank independently (spec §9
// SUPPLEMENTED FEATURES #3).
const InternalBus = "poseidon2_internal"

func (c *InternalChip) GenerateTrace(rec *record.ExecutionRecord) [][]field.Element {
	events := rec.PrecompileEvents[record.PrecompilePoseidon2Internal]
	w := c.Width()
	rows := make([][]field.Element, len(events))
	for i, ev := range events {
		row := make([]field.Element, w)
		row[intColIsReal] = field.One
		row[intColShard] = field.FromCanonicalU32(ev.Shard)
		copy(row[intColStateIn:intColStateIn+Width], ev.StateIn[:])
		state := ev.StateIn
		for r := 0; r < InternalRounds; r++ {
			state = internalRound(state, r)
			copy(row[intColRound(r):intColRound(r)+Width], state[:])
		}
		row[intColStatePtr()] = field.New(uint64(ev.StatePtr))
		row[intColClkIn()] = field.FromCanonicalU32(ev.ClkIn)
		row[intColClkOut()] = field.FromCanonicalU32(ev.ClkOut)
		for lane := 0; lane < Width && lane < len(ev.MemReads); lane++ {
			base := intColReadPrev(lane)
			row[base] = field.FromCanonicalU32(ev.MemReads[lane].PrevShard)
			row[base+1] = field.FromCanonicalU32(ev.MemReads[lane].PrevClk)
		}
		rows[i] = row
	}
	return air.PadRows(rows, w)
}

func internalRound(state [Width]field.Element, round int) [Width]field.Element {
	state[0] = sbox(state[0].Add(roundConstant(round, 0)))
	return internalLinearLayer(state)
}

func (c *InternalChip) Eval(b air.Builder) {
	isReal := air.Col(intColIsReal)
	b.AssertZero(air.Mul(isReal, air.Sub(air.Const(field.One), isReal)))

	// Round constraints hold only on real rows: the all-zero padding row
	// does not satisfy them because round constants are nonzero.
	br := b.When(isReal)
	prevState := make([]air.Expr, Width)
	for i := 0; i < Width; i++ {
		prevState[i] = air.Col(intColStateIn + i)
	}
	for r := 0; r < InternalRounds; r++ {
		base := intColRound(r)
		added := air.Add(prevState[0], air.Const(roundConstant(r, 0)))
		lane0 := sboxExpr(added)
		afterSbox := append([]air.Expr{lane0}, prevState[1:]...)
		mixed := internalLinearLayerExpr(afterSbox)
		for i := 0; i < Width; i++ {
			br.AssertEq(air.Col(base+i), mixed[i])
		}
		prevState = make([]air.Expr, Width)
		for i := 0; i < Width; i++ {
			prevState[i] = air.Col(base + i)
		}
	}

	statePtr := air.Col(intColStatePtr())
	clkIn := air.Col(intColClkIn())
	clkOut := air.Col(intColClkOut())
	shard := air.Col(intColShard)

	bankSpan := air.Const(field.FromCanonicalU32(uint32(InternalRounds * roundClkStride)))
	b.AssertEq(clkOut, air.Add(clkIn, air.Mul(isReal, bankSpan)))

	sendRoundAccesses(b, isReal, shard, statePtr, clkIn, InternalRounds, intColStateIn, intColRound, intColReadPrev)

	b.Receive(InternalBus, []air.Expr{clkIn, statePtr, clkOut}, isReal)
}

func internalLinearLayerExpr(state []air.Expr) []air.Expr {
	sum := air.Const(field.Zero)
	for _, v := range state {
		sum = air.Add(sum, v)
	}
	out := make([]air.Expr, Width)
	for i, v := range state {
		out[i] = air.Mul(air.Add(v, sum), air.Const(field.FromCanonicalU32(internalDiag[i])))
	}
	return out
}
