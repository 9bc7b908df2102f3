package runtime

import "github.com/rv32air/zkcore/word"

// pageSize matches the teacher's sparse RVMemory paging granularity: most
// programs touch only a handful of 4 KiB pages (stack, a small heap, the
// loaded text/data segments), so a map keyed by page number avoids
// allocating the full 32-bit address space.
const pageSize = 4096

// Memory is a sparse, byte-addressable RV32 address space. Pages are
// allocated lazily on first write; reads of an untouched page return zero
// (spec §4.6, "uninitialized memory reads as zero").
type Memory struct {
	pages map[uint32][]byte

	// lastAccess records, per word-aligned address, the (shard, clk, value)
	// of the most recent access, so the next access to that address can
	// populate a MemAccess's PrevShard/PrevClk/PrevValue without rescanning
	// history (spec §4.6 lex-order range-check).
	lastAccess map[uint32]accessMark

	// regMarks is the same bookkeeping for the 32-entry register file,
	// kept separate from lastAccess's page-backed map since registers are
	// always present (no lazy allocation needed).
	regMarks [32]accessMark
}

type accessMark struct {
	shard, clk uint32
	value      word.Word
}

// RegisterAddrBase is the first address of a reserved range the CPU chip's
// register accesses are recorded under, so the register file can share the
// Memory chip's single sorted access-chain with data memory (spec §4.6,
// "Register file. 32 words ..."; spec §4.3 constrains register reads via
// "a memory access at (shard, clk+B, instruction.op_b[0])"). No ELF-loaded
// program may address this range; Load rejects segments that would.
const RegisterAddrBase = 0xFFFFFF00

// RegAddr returns the reserved pseudo-address register r is recorded under
// in the unified access chain.
func RegAddr(r uint8) uint32 { return RegisterAddrBase + uint32(r)*4 }

// NewMemory returns an empty address space.
func NewMemory() *Memory {
	return &Memory{
		pages:      make(map[uint32][]byte),
		lastAccess: make(map[uint32]accessMark),
	}
}

// PageCount reports how many distinct pages have been touched.
func (m *Memory) PageCount() int { return len(m.pages) }

func (m *Memory) page(addr uint32, alloc bool) []byte {
	pn := addr / pageSize
	p, ok := m.pages[pn]
	if !ok {
		if !alloc {
			return nil
		}
		p = make([]byte, pageSize)
		m.pages[pn] = p
	}
	return p
}

// ReadByteAt returns the byte at addr, zero if never written.
func (m *Memory) ReadByteAt(addr uint32) uint8 {
	p := m.page(addr, false)
	if p == nil {
		return 0
	}
	return p[addr%pageSize]
}

// WriteByteAt sets the byte at addr, allocating its page if needed.
func (m *Memory) WriteByteAt(addr uint32, v uint8) {
	m.page(addr, true)[addr%pageSize] = v
}

// ReadWord reads the 4-byte little-endian word at a 4-byte-aligned addr.
// Callers must have already validated alignment (spec §4.6, misaligned
// access is a Fault raised by the caller before Memory is touched).
func (m *Memory) ReadWord(addr uint32) word.Word {
	u := uint32(m.ReadByteAt(addr)) |
		uint32(m.ReadByteAt(addr+1))<<8 |
		uint32(m.ReadByteAt(addr+2))<<16 |
		uint32(m.ReadByteAt(addr+3))<<24
	return word.FromUint32(u)
}

// WriteWord writes all four bytes of w at a 4-byte-aligned addr.
func (m *Memory) WriteWord(addr uint32, w word.Word) {
	for i := 0; i < 4; i++ {
		m.WriteByteAt(addr+uint32(i), w.Byte(i))
	}
}

// Seed preloads addr with the four bytes of w and records a (shard 0,
// clk 0) access mark holding the seeded value, used once at startup to
// install the program's initial data segment (spec §6). The mark makes the
// first real access to a seeded address chain from the initial-memory value
// rather than from zero, which is what the Memory chip's per-address
// value-continuity argument expects of initial memory (spec §4.6,
// "one dedicated row per live address with shard=0, clk=0").
func (m *Memory) Seed(addr uint32, w word.Word) {
	m.WriteWord(addr, w)
	m.lastAccess[addr] = accessMark{shard: 0, clk: 0, value: w}
}

// Touch records an access to the word-aligned address addr at (shard, clk)
// with new value v, and returns the (prevShard, prevClk, prevValue) the
// access chain needs. The very first touch of an address reports a
// zero-valued previous access, matching "uninitialized memory reads as
// zero" (spec §4.6).
func (m *Memory) Touch(addr, shard, clk uint32, v word.Word) (prevShard, prevClk uint32, prevValue word.Word) {
	prev, ok := m.lastAccess[addr]
	if !ok {
		prev = accessMark{}
	}
	m.lastAccess[addr] = accessMark{shard: shard, clk: clk, value: v}
	return prev.shard, prev.clk, prev.value
}

// TouchRegRead records a read of register r at (shard, clk) without
// changing its recorded value, returning the (prevShard, prevClk,
// prevValue) triple the access chain needs. Register 0 always reads as
// zero, both in Regs and in this chain (spec P5).
func (m *Memory) TouchRegRead(r uint8, shard, clk uint32, v word.Word) (prevShard, prevClk uint32, prevValue word.Word) {
	return m.touchReg(r, shard, clk, v)
}

// TouchRegWrite records a write of value v to register r at (shard, clk).
// Callers are responsible for forcing v to word.Zero when r == 0 before
// calling, matching "No access record writes a value != 0 to register 0"
// (spec P5); this method only threads the access chain.
func (m *Memory) TouchRegWrite(r uint8, shard, clk uint32, v word.Word) (prevShard, prevClk uint32, prevValue word.Word) {
	return m.touchReg(r, shard, clk, v)
}

func (m *Memory) touchReg(r uint8, shard, clk uint32, v word.Word) (prevShard, prevClk uint32, prevValue word.Word) {
	prev := m.regMarks[r]
	m.regMarks[r] = accessMark{shard: shard, clk: clk, value: v}
	return prev.shard, prev.clk, prev.value
}
