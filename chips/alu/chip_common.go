package alu

import (
	"github.com/rv32air/zkcore/chips/air"
	bytechip "github.com/rv32air/zkcore/chips/byte"
	"github.com/rv32air/zkcore/field"
	"github.com/rv32air/zkcore/program"
	"github.com/rv32air/zkcore/record"
	"github.com/rv32air/zkcore/word"
)

// Bus is the shared ALU bus name every ALU family chip receives from and
// the CPU chip (plus memory address arithmetic) sends to (spec §4.5).
const Bus = "alu"

// opcodeExpr returns the Expr for a fixed Opcode, used to build the receive
// tuple's opcode slot.
func opcodeExpr(op program.Opcode) air.Expr {
	return air.Const(field.FromCanonicalU32(uint32(op)))
}

// rangeCheckByte asserts col holds a value in [0,256) by looking it up in
// the BYTE table at b=0, where AND=0, OR=XOR=a holds for every a in
// [0,256) (spec §9 SUPPLEMENTED FEATURES #4). mult gates the check the same
// way the caller gates its own real-row selector.
func rangeCheckByte(b air.Builder, col air.Expr, mult air.Expr) {
	b.Send(bytechip.Bus, bytechip.SendTuple(col, air.Const(field.Zero), air.Const(field.Zero), col, col), mult)
}

// eventsFor looks up the ALU events an opcode's chip owns from rec, keyed
// the same way record.ExecutionRecord.AppendALU buckets them.
func eventsFor(rec *record.ExecutionRecord, op program.Opcode) []record.ALUEvent {
	return rec.ALUEvents[op.String()]
}

// wordCols decomposes a word.Word into four field.Element columns.
func wordCols(w word.Word) [4]field.Element {
	return [4]field.Element{w[0], w[1], w[2], w[3]}
}
