// Package chips assembles every concrete chip (spec §4) into the fixed
// set the debug harness drives: one GenerateTrace/Eval pair per chip,
// wired to the bus names each chip's Eval sends/receives on (spec §4.8).
package chips

import (
	"github.com/rv32air/zkcore/chips/air"
	"github.com/rv32air/zkcore/chips/alu"
	bytechip "github.com/rv32air/zkcore/chips/byte"
	"github.com/rv32air/zkcore/chips/cpu"
	memchip "github.com/rv32air/zkcore/chips/memory"
	"github.com/rv32air/zkcore/chips/poseidon2"
	progchip "github.com/rv32air/zkcore/chips/program"
	"github.com/rv32air/zkcore/program"
)

// All returns every chip this core ships, in a fixed order (CPU first
// since it's the root every bus ultimately traces back to, precompiles
// last). prog is the loaded program the PROGRAM chip enumerates static
// instructions from (spec §4.1): its trace is independent of any
// particular execution record.
func All(prog *program.Program) []air.Chip {
	return []air.Chip{
		cpu.New(),
		alu.NewAddSub(),
		alu.NewBitwise(),
		alu.NewLt(),
		alu.NewShift(),
		alu.NewMul(),
		alu.NewDiv(),
		bytechip.New(),
		memchip.New(),
		progchip.New(prog),
		poseidon2.NewExternal(),
		poseidon2.NewInternal(),
	}
}
