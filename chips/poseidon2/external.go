package poseidon2

import (
	"github.com/rv32air/zkcore/chips/air"
	memchip "github.com/rv32air/zkcore/chips/memory"
	"github.com/rv32air/zkcore/field"
	"github.com/rv32air/zkcore/record"
)

// ExternalRounds is the number of full (external) rounds one invocation of
// ExternalChip performs inline within a single AIR row (spec §4.7: "one
// AIR row per outer invocation, containing all inner state reads,
// writes, and round constants inline").
const ExternalRounds = 4

// clkPerAccess is the clock stride one memory sub-access consumes (spec §3,
// "advanced by 4 per memory access position").
const clkPerAccess = 4

// roundClkStride is the clock one full round consumes: Width reads then
// Width writes, 4 ticks each.
const roundClkStride = 2 * Width * clkPerAccess

// ExternalChip proves one bank of external Poseidon2 rounds. Each round
// reads all Width state lanes from memory, adds the round constant,
// applies the full-width S-box and the MDS-based external linear layer,
// and writes all Width lanes back (spec §4.7, "one memory send per lane
// per round") -- so one row carries Width*ExternalRounds read sends and
// as many write sends on the Memory bus, and the state round-trips
// through memory between rounds.
type ExternalChip struct{}

func NewExternal() *ExternalChip { return &ExternalChip{} }

func (c *ExternalChip) Name() string { return "poseidon2_external" }

// Column layout: is_real, shard, state_in[16], one state[16] snapshot
// after each round, (state_ptr, clk_in, clk_out), then a
// (prev_shard, prev_clk) witness pair per round-0 read lane. Nothing else
// needs a witness: a read returns what the chain last wrote, so its value
// and prev_value are both the round's input lane; a write's predecessor
// is the same round's read and a later round's read predecessor is the
// previous round's write, all at clocks derived from clk_in.
const (
	extColIsReal = iota
	extColShard
	extColStateIn
)

func extColRound(r int) int  { return extColStateIn + Width + r*Width }
func extColStatePtr() int    { return extColStateIn + Width + ExternalRounds*Width }
func extColClkIn() int       { return extColStatePtr() + 1 }
func extColClkOut() int      { return extColStatePtr() + 2 }
func extColReadPrev(lane int) int { return extColStatePtr() + 3 + lane*2 }

func (c *ExternalChip) Width() int { return extColStatePtr() + 3 + Width*2 }

func (c *ExternalChip) GenerateTrace(rec *record.ExecutionRecord) [][]field.Element {
	events := rec.PrecompileEvents[record.PrecompilePoseidon2External]
	w := c.Width()
	rows := make([][]field.Element, len(events))
	for i, ev := range events {
		row := make([]field.Element, w)
		row[extColIsReal] = field.One
		row[extColShard] = field.FromCanonicalU32(ev.Shard)
		copy(row[extColStateIn:extColStateIn+Width], ev.StateIn[:])
		state := ev.StateIn
		for r := 0; r < ExternalRounds; r++ {
			state = externalRound(state, r)
			copy(row[extColRound(r):extColRound(r)+Width], state[:])
		}
		row[extColStatePtr()] = field.New(uint64(ev.StatePtr))
		row[extColClkIn()] = field.FromCanonicalU32(ev.ClkIn)
		row[extColClkOut()] = field.FromCanonicalU32(ev.ClkOut)
		// Only the first round's reads chain back outside this invocation.
		for lane := 0; lane < Width && lane < len(ev.MemReads); lane++ {
			base := extColReadPrev(lane)
			row[base] = field.FromCanonicalU32(ev.MemReads[lane].PrevShard)
			row[base+1] = field.FromCanonicalU32(ev.MemReads[lane].PrevClk)
		}
		rows[i] = row
	}
	return air.PadRows(rows, w)
}

func externalRound(state [Width]field.Element, round int) [Width]field.Element {
	for i := range state {
		state[i] = sbox(state[i].Add(roundConstant(round, i)))
	}
	return externalLinearLayer(state)
}

// ExternalBus is the CPU<->precompile interaction tuple (clk_in,
// state_ptr, clk_out), sent once per executed invocation (spec §4.7).
const ExternalBus = "poseidon2_external"

func (c *ExternalChip) Eval(b air.Builder) {
	isReal := air.Col(extColIsReal)
	b.AssertZero(air.Mul(isReal, air.Sub(air.Const(field.One), isReal)))

	// Round constraints hold only on real rows: the all-zero padding row
	// does not satisfy them because round constants are nonzero.
	br := b.When(isReal)
	prevState := make([]air.Expr, Width)
	for i := 0; i < Width; i++ {
		prevState[i] = air.Col(extColStateIn + i)
	}
	for r := 0; r < ExternalRounds; r++ {
		base := extColRound(r)
		next := make([]air.Expr, Width)
		for i := 0; i < Width; i++ {
			added := air.Add(prevState[i], air.Const(roundConstant(r, i)))
			next[i] = sboxExpr(added)
		}
		mixed := externalLinearLayerExpr(next)
		for i := 0; i < Width; i++ {
			br.AssertEq(air.Col(base+i), mixed[i])
		}
		prevState = make([]air.Expr, Width)
		for i := 0; i < Width; i++ {
			prevState[i] = air.Col(base + i)
		}
	}

	statePtr := air.Col(extColStatePtr())
	clkIn := air.Col(extColClkIn())
	clkOut := air.Col(extColClkOut())
	shard := air.Col(extColShard)

	// clk_out - clk_in is exactly the bank's memory traffic: Width reads
	// plus Width writes per round, 4 ticks each.
	bankSpan := air.Const(field.FromCanonicalU32(uint32(ExternalRounds * roundClkStride)))
	b.AssertEq(clkOut, air.Add(clkIn, air.Mul(isReal, bankSpan)))

	sendRoundAccesses(b, isReal, shard, statePtr, clkIn, ExternalRounds, extColStateIn, extColRound, extColReadPrev)

	b.Receive(ExternalBus, []air.Expr{clkIn, statePtr, clkOut}, isReal)
}

// sendRoundAccesses emits every round's Width read and Width write sends
// on the Memory bus, shared by the external and internal chips. stateIn is
// the column base of the bank's input state, roundCol(r) the base of the
// post-round-r snapshot, and readPrev(lane) the (prev_shard, prev_clk)
// witness pair for the first round's read of lane.
func sendRoundAccesses(b air.Builder, isReal, shard, statePtr, clkIn air.Expr, rounds int, stateIn int, roundCol func(int) int, readPrev func(int) int) {
	for r := 0; r < rounds; r++ {
		roundBase := uint32(r) * roundClkStride
		for lane := 0; lane < Width; lane++ {
			addr := air.Add(statePtr, air.Const(field.FromCanonicalU32(uint32(lane)*4)))
			readClk := air.Add(clkIn, air.Const(field.FromCanonicalU32(roundBase+uint32(lane)*clkPerAccess)))
			writeClk := air.Add(clkIn, air.Const(field.FromCanonicalU32(roundBase+uint32(Width+lane)*clkPerAccess)))

			// The round's input lane: the bank's state_in for round 0,
			// otherwise the previous round's output.
			var vIn air.Expr
			if r == 0 {
				vIn = air.Col(stateIn + lane)
			} else {
				vIn = air.Col(roundCol(r-1) + lane)
			}
			out := air.Col(roundCol(r) + lane)

			// A read is a value-preserving touch, so its value and
			// prev_value are both the round input. Round 0 chains outside
			// the invocation via witness columns; round r>0 chains from
			// round r-1's write of the same lane.
			var readPrevShard, readPrevClk air.Expr
			if r == 0 {
				readPrevShard = air.Col(readPrev(lane))
				readPrevClk = air.Col(readPrev(lane) + 1)
			} else {
				readPrevShard = shard
				readPrevClk = air.Add(clkIn, air.Const(field.FromCanonicalU32(uint32(r-1)*roundClkStride+uint32(Width+lane)*clkPerAccess)))
			}
			b.When(isReal).Send(memchip.Bus, []air.Expr{
				addr, shard, readClk, readPrevShard, readPrevClk, vIn, vIn,
			}, isReal)

			// The write's predecessor is this round's read of the lane.
			b.When(isReal).Send(memchip.Bus, []air.Expr{
				addr, shard, writeClk, shard, readClk, out, vIn,
			}, isReal)
		}
	}
}

func sboxExpr(v air.Expr) air.Expr { return air.Mul(air.Mul(v, v), v) }

func externalLinearLayerExpr(state []air.Expr) []air.Expr {
	var chunks [4][4]air.Expr
	for c := 0; c < 4; c++ {
		for i := 0; i < 4; i++ {
			acc := air.Const(field.Zero)
			for j := 0; j < 4; j++ {
				acc = air.Add(acc, air.Mul(air.Const(field.FromCanonicalU32(mds4[i][j])), state[c*4+j]))
			}
			chunks[c][i] = acc
		}
	}
	var sums [4]air.Expr
	for lane := 0; lane < 4; lane++ {
		acc := air.Const(field.Zero)
		for c := 0; c < 4; c++ {
			acc = air.Add(acc, chunks[c][lane])
		}
		sums[lane] = acc
	}
	out := make([]air.Expr, Width)
	for c := 0; c < 4; c++ {
		for lane := 0; lane < 4; lane++ {
			out[c*4+lane] = air.Add(chunks[c][lane], sums[lane])
		}
	}
	return out
}
