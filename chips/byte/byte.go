// Package byte implements the BYTE chip (spec §9 SUPPLEMENTED FEATURES
// #4): an 8-bit x 8-bit precomputed lookup table of AND/OR/XOR and a
// range-check fact, that every other chip needing a byte-level fact
// receives from instead of re-deriving it in AIR. This is what keeps the
// BITWISE chip (and the Memory/ALU chips' byte-range checks) at total
// degree <= 3: the expensive bit decomposition happens once, here, in
// trace generation, not per caller.
package byte

import (
	"github.com/rv32air/zkcore/chips/air"
	"github.com/rv32air/zkcore/field"
	"github.com/rv32air/zkcore/record"
)

// Column layout. The table is preprocessed -- every (a, b) pair's facts
// are populated by GenerateTrace directly, never by solving a constraint.
// mult is the row's receive multiplicity: the tally of how many times the
// other chips' Eval passes actually demanded this row's fact tuple, fed
// in by the debug harness after the demanding chips have run (the same
// role a LogUp multiplicity column plays in a committed proof). A fact
// demanded k times is received k times, so the bus nets to zero exactly.
const (
	colIsReal = iota
	colMult
	colA
	colB
	colAnd
	colOr
	colXor
	Width
)

// Bus is the name every other chip's byte-fact Send must match.
const Bus = "byte"

// Chip is the BYTE table.
type Chip struct {
	// demand maps a<<8|b to the total multiplicity of sends of that pair's
	// fact tuple, as tallied by FeedDemand. Nil until fed; a nil demand
	// generates an all-zero multiplicity column.
	demand map[uint32]uint32
}

func New() *Chip { return &Chip{} }

func (c *Chip) Name() string { return "byte" }
func (c *Chip) Width() int   { return Width }

// FeedDemand tallies every send on Bus whose tuple is a genuine table fact
// into the per-row multiplicity GenerateTrace will emit. Sends that match
// no table row (a malformed fact) are deliberately not tallied: they stay
// unmatched and surface as a bus imbalance, which is exactly the failure
// the closure check exists to report.
func (c *Chip) FeedDemand(events []air.BusEvent) {
	c.demand = make(map[uint32]uint32)
	for _, e := range events {
		if e.Bus != Bus || e.Receive || len(e.Tuple) != 5 {
			continue
		}
		a, bb := e.Tuple[0].Uint32(), e.Tuple[1].Uint32()
		if a > 0xff || bb > 0xff {
			continue
		}
		if e.Tuple[2].Uint32() != a&bb || e.Tuple[3].Uint32() != a|bb || e.Tuple[4].Uint32() != a^bb {
			continue
		}
		c.demand[a<<8|bb] += e.Mult.Uint32()
	}
}

// GenerateTrace emits the full 256x256 preprocessed table: every possible
// byte pair and its AND/OR/XOR, with each row's multiplicity set to the
// demand FeedDemand tallied (zero for pairs nothing looked up). The fact
// columns are constant across every shard of a proving run; only the
// multiplicity column varies, matching the real-system convention of a
// fixed preprocessed table plus a per-shard lookup-multiplicity witness.
func (c *Chip) GenerateTrace(rec *record.ExecutionRecord) [][]field.Element {
	rows := make([][]field.Element, 0, 1<<16)
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			rows = append(rows, []field.Element{
				field.One,
				field.FromCanonicalU32(c.demand[uint32(a)<<8|uint32(b)]),
				field.FromCanonicalU32(uint32(a)),
				field.FromCanonicalU32(uint32(b)),
				field.FromCanonicalU32(uint32(a & b)),
				field.FromCanonicalU32(uint32(a | b)),
				field.FromCanonicalU32(uint32(a ^ b)),
			})
		}
	}
	return air.PadRows(rows, Width)
}

// Eval checks is_real is boolean, pins the multiplicity column to real
// rows, and receives the byte-fact tuple on Bus weighted by it, so every
// chip's Send of a (a, b, and, or, xor) fact is matched against this table
// as many times as it was demanded (spec §4.8).
func (c *Chip) Eval(b air.Builder) {
	isReal := air.Col(colIsReal)
	mult := air.Col(colMult)
	b.AssertZero(air.Mul(isReal, air.Sub(air.Const(field.One), isReal)))
	b.AssertZero(air.Mul(mult, air.Sub(air.Const(field.One), isReal)))

	b.Receive(Bus, []air.Expr{
		air.Col(colA), air.Col(colB), air.Col(colAnd), air.Col(colOr), air.Col(colXor),
	}, mult)
}

// SendTuple builds the Send-side tuple a caller chip uses to look up a
// fact from this table, so every caller constructs the exact same tuple
// shape the table Receives (spec §4.5, "byte-decomposed constraints").
func SendTuple(a, b, and, or, xor air.Expr) []air.Expr {
	return []air.Expr{a, b, and, or, xor}
}
