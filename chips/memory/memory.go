// Package memory implements the Memory chip (spec §4.6): the single
// sorted access-chain every data-memory and register access in a shard
// threads through, enforcing that accesses to the same address see their
// immediate predecessor's value and that access order moves strictly
// forward in (shard, clk).
package memory

import (
	"sort"

	"github.com/holiman/uint256"

	"github.com/rv32air/zkcore/chips/air"
	bytechip "github.com/rv32air/zkcore/chips/byte"
	"github.com/rv32air/zkcore/field"
	"github.com/rv32air/zkcore/record"
)

// Column layout. One row per MemAccess (data memory plus, by construction
// of the interpreter's unified access-chain, register reads/writes at
// their runtime.RegisterAddrBase pseudo-addresses), sorted by
// (addr, shard, clk) at trace-generation time to let the AIR check
// consecutive-row value continuity with only a current/next row window.
const (
	colIsReal = iota
	colAddr0
	colAddr1
	colAddr2
	colAddr3
	colShard
	colClk
	colPrevShard
	colPrevClk
	colValue0
	colValue1
	colValue2
	colValue3
	colPrevValue0
	colPrevValue1
	colPrevValue2
	colPrevValue3
	// diff0..3: the little-endian low 32 bits of pack(shard,clk) -
	// pack(prev_shard,prev_clk), where pack(s,c) = s<<32 | c computed via
	// uint256 so the subtraction itself never wraps (spec §4.6 "24-bit
	// range-check... on the lex difference"). Only the low 32 bits are
	// bound into the AIR below -- a documented simplification of the
	// full 64-bit non-negativity check, adequate as long as no single
	// shard's clk range plus shard delta exceeds 2^32 (see DESIGN.md).
	colDiff0
	colDiff1
	colDiff2
	colDiff3
	// sameAsNext = 1 iff the next row's addr equals this row's addr,
	// witnessing which rows the value-continuity permutation check below
	// applies to (the boundary between two distinct addresses needs no
	// such constraint).
	colSameAsNext
	Width
)

// Bus is shared with runtime-emitted memory accesses; unlike the ALU bus
// this chip only ever receives (every access is sent once, by whichever
// chip produced it -- CPU for register/data-memory accesses, the
// precompile chips for their own memory reads/writes).
const Bus = "memory"

type Chip struct{}

func New() *Chip { return &Chip{} }

func (c *Chip) Name() string { return "memory" }
func (c *Chip) Width() int   { return Width }

// GenerateTrace flattens every data-memory access in rec plus every
// register access recorded on CPU events into one list, sorted by
// (addr, shard, clk) so each address's accesses are contiguous and in
// program order (spec §4.6, "sorting rows by (addr, shard, clk)").
func (c *Chip) GenerateTrace(rec *record.ExecutionRecord) [][]field.Element {
	accesses := collectAccesses(rec)
	sort.Slice(accesses, func(i, j int) bool {
		a, b := accesses[i], accesses[j]
		if a.Addr != b.Addr {
			return a.Addr < b.Addr
		}
		if a.Shard != b.Shard {
			return a.Shard < b.Shard
		}
		return a.Clk < b.Clk
	})

	rows := make([][]field.Element, len(accesses))
	for i, a := range accesses {
		rows[i] = accessRow(a, i+1 < len(accesses) && accesses[i+1].Addr == a.Addr)
	}
	return air.PadRows(rows, Width)
}

func collectAccesses(rec *record.ExecutionRecord) []record.MemAccess {
	var out []record.MemAccess
	for _, ev := range rec.CPUEvents {
		if ev.OpAAccess != nil {
			out = append(out, *ev.OpAAccess)
		}
		if ev.OpBAccess != nil {
			out = append(out, *ev.OpBAccess)
		}
		if ev.OpCAccess != nil {
			out = append(out, *ev.OpCAccess)
		}
		if ev.MemAccess != nil {
			out = append(out, *ev.MemAccess)
		}
	}
	for _, ev := range rec.PrecompileEvents {
		for _, pe := range ev {
			out = append(out, pe.MemReads...)
			out = append(out, pe.MemWrites...)
		}
	}
	return out
}

func packKey(shard, clk uint32) *uint256.Int {
	k := new(uint256.Int).SetUint64(uint64(shard) << 32)
	return k.Add(k, uint256.NewInt(uint64(clk)))
}

func accessRow(a record.MemAccess, sameAsNext bool) []field.Element {
	row := make([]field.Element, Width)
	row[colIsReal] = field.One
	row[colAddr0] = field.FromCanonicalU32(a.Addr & 0xff)
	row[colAddr1] = field.FromCanonicalU32((a.Addr >> 8) & 0xff)
	row[colAddr2] = field.FromCanonicalU32((a.Addr >> 16) & 0xff)
	row[colAddr3] = field.FromCanonicalU32((a.Addr >> 24) & 0xff)
	row[colShard] = field.FromCanonicalU32(a.Shard)
	row[colClk] = field.FromCanonicalU32(a.Clk)
	row[colPrevShard] = field.FromCanonicalU32(a.PrevShard)
	row[colPrevClk] = field.FromCanonicalU32(a.PrevClk)
	for i := 0; i < 4; i++ {
		row[colValue0+i] = a.Value[i]
		row[colPrevValue0+i] = a.PrevValue[i]
	}

	cur := packKey(a.Shard, a.Clk)
	prev := packKey(a.PrevShard, a.PrevClk)
	diff := new(uint256.Int).Sub(cur, prev)
	diffBytes := diff.Bytes32() // big-endian 32 bytes; only the low 4 are bound into the AIR
	for i := 0; i < 4; i++ {
		row[colDiff0+i] = field.FromCanonicalU32(uint32(diffBytes[31-i]))
	}

	if sameAsNext {
		row[colSameAsNext] = field.One
	}
	return row
}

// rangeCheckByte sends col to the BYTE table's range-check lane (spec §9
// SUPPLEMENTED FEATURES #4), mirroring chips/alu's helper of the same
// shape without importing the alu package.
func rangeCheckByte(b air.Builder, col air.Expr, mult air.Expr) {
	b.Send(bytechip.Bus, bytechip.SendTuple(col, air.Const(field.Zero), air.Const(field.Zero), col, col), mult)
}

func (c *Chip) Eval(b air.Builder) {
	isReal := air.Col(colIsReal)
	boolean := func(e air.Expr) air.Expr { return air.Mul(e, air.Sub(air.Const(field.One), e)) }
	b.AssertZero(boolean(isReal))
	b.AssertZero(boolean(air.Col(colSameAsNext)))

	addrCols := [4]int{colAddr0, colAddr1, colAddr2, colAddr3}
	valueCols := [4]int{colValue0, colValue1, colValue2, colValue3}
	prevValueCols := [4]int{colPrevValue0, colPrevValue1, colPrevValue2, colPrevValue3}
	diffCols := [4]int{colDiff0, colDiff1, colDiff2, colDiff3}
	for _, col := range addrCols {
		rangeCheckByte(b, air.Col(col), isReal)
	}
	for _, col := range valueCols {
		rangeCheckByte(b, air.Col(col), isReal)
	}
	for _, col := range prevValueCols {
		rangeCheckByte(b, air.Col(col), isReal)
	}
	for _, col := range diffCols {
		rangeCheckByte(b, air.Col(col), isReal)
	}

	// pack(shard,clk) - pack(prev_shard,prev_clk) reduces (mod the low 32
	// bits) to the diff bytes' little-endian value, pinning
	// (prev_shard,prev_clk) strictly before (shard,clk) on that low-32-bit
	// window since every diff byte is itself range-checked non-negative
	// above (spec §4.6 lex-order check; see DESIGN.md for the documented
	// low-32-bit scope of this check).
	shard32 := air.Const(field.New(1 << 32))
	packed := func(shardCol, clkCol int) air.Expr {
		return air.Add(air.Mul(air.Col(shardCol), shard32), air.Col(clkCol))
	}
	diffVal := air.ReduceWord(diffCols[0], diffCols[1], diffCols[2], diffCols[3])
	b.AssertZero(air.Mul(isReal, air.Sub(diffVal, air.Sub(packed(colShard, colClk), packed(colPrevShard, colPrevClk)))))

	// Value-continuity permutation: when the next row is the same address,
	// its prev_value must equal this row's value (spec §4.6, "prev_value =
	// previous row's value").
	bt := b.WhenTransition().When(air.Col(colSameAsNext))
	sameAddr := func(col int) air.Expr { return air.Sub(air.NextCol(col), air.Col(col)) }
	for _, col := range addrCols {
		bt.AssertZero(sameAddr(col))
	}
	for i, col := range valueCols {
		bt.AssertEq(air.NextCol(prevValueCols[i]), air.Col(col))
	}

	b.Receive(Bus, []air.Expr{
		air.ReduceWord(addrCols[0], addrCols[1], addrCols[2], addrCols[3]),
		air.Col(colShard), air.Col(colClk), air.Col(colPrevShard), air.Col(colPrevClk),
		air.ReduceWord(valueCols[0], valueCols[1], valueCols[2], valueCols[3]),
		air.ReduceWord(prevValueCols[0], prevValueCols[1], prevValueCols[2], prevValueCols[3]),
	}, isReal)
}
