// Package program implements the PROGRAM chip (spec §4.1, §4.3): the
// static binding of every program-counter value in the loaded binary to
// its decoded instruction. The CPU chip sends (pc, raw_instruction) once
// per executed row; this chip receives each static pc's tuple with a
// multiplicity equal to how many times execution actually visited it, so
// loops, skipped branch arms, and dead code all balance on the bus while
// any fetch of an instruction not in the binary stays unmatched.
package program

import (
	"sort"

	"github.com/rv32air/zkcore/chips/air"
	"github.com/rv32air/zkcore/field"
	prog "github.com/rv32air/zkcore/program"
	"github.com/rv32air/zkcore/record"
)

// Bus is the name the CPU chip sends (pc, raw_instruction) tuples to.
const Bus = "program"

// Column layout: one row per static instruction address in the binary's
// Code map, holding pc, the instruction's raw fetched word, and the visit
// count (the CPU chip's own column layout re-decodes Raw the same way
// program.Decode does, so both sides of the bus agree on the tuple
// without carrying the full decoded Instruction struct through the AIR).
const (
	colIsReal = iota
	colMult
	colPC0
	colPC1
	colPC2
	colPC3
	colRaw0
	colRaw1
	colRaw2
	colRaw3
	Width
)

// Chip is constructed once per loaded program. Its row set is a property
// of the binary alone; only the multiplicity column depends on the
// ExecutionRecord (spec §4.3: the PROGRAM table commits to the *binary*,
// with the visit count as the run's lookup witness).
type Chip struct {
	prog *prog.Program
}

// New returns the PROGRAM chip for p. p must be the same Program the
// Runtime that produced the ExecutionRecord executed, or the CPU chip's
// sends will find no matching row.
func New(p *prog.Program) *Chip { return &Chip{prog: p} }

func (c *Chip) Name() string { return "program" }
func (c *Chip) Width() int   { return Width }

func (c *Chip) GenerateTrace(rec *record.ExecutionRecord) [][]field.Element {
	visits := make(map[uint32]uint32, len(c.prog.Code))
	for _, ev := range rec.CPUEvents {
		visits[ev.PC]++
	}

	pcs := make([]uint32, 0, len(c.prog.Code))
	for pc := range c.prog.Code {
		pcs = append(pcs, pc)
	}
	sort.Slice(pcs, func(i, j int) bool { return pcs[i] < pcs[j] })

	rows := make([][]field.Element, len(pcs))
	for i, pc := range pcs {
		inst := c.prog.Code[pc]
		rows[i] = []field.Element{
			field.One,
			field.FromCanonicalU32(visits[pc]),
			field.FromCanonicalU32(pc & 0xff), field.FromCanonicalU32((pc >> 8) & 0xff),
			field.FromCanonicalU32((pc >> 16) & 0xff), field.FromCanonicalU32((pc >> 24) & 0xff),
			field.FromCanonicalU32(inst.Raw & 0xff), field.FromCanonicalU32((inst.Raw >> 8) & 0xff),
			field.FromCanonicalU32((inst.Raw >> 16) & 0xff), field.FromCanonicalU32((inst.Raw >> 24) & 0xff),
		}
	}
	return air.PadRows(rows, Width)
}

func (c *Chip) Eval(b air.Builder) {
	isReal := air.Col(colIsReal)
	mult := air.Col(colMult)
	b.AssertZero(air.Mul(isReal, air.Sub(air.Const(field.One), isReal)))
	b.AssertZero(air.Mul(mult, air.Sub(air.Const(field.One), isReal)))

	pcVal := air.ReduceWord(colPC0, colPC1, colPC2, colPC3)
	rawVal := air.ReduceWord(colRaw0, colRaw1, colRaw2, colRaw3)
	// Received once per execution of this pc (spec §4.3), matching the CPU
	// chip's per-real-row send of (pc, instruction).
	b.Receive(Bus, []air.Expr{pcVal, rawVal}, mult)
}
