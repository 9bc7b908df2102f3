package program

// Raw RV32IM instruction encoders. These build the 32-bit instruction words
// RISC-V toolchains emit; they exist so tests (and the disassembler-less
// debug harness) can construct programs without an external assembler,
// mirroring the teacher's own EncodeRType/EncodeIType/... test helpers.

// EncodeRType encodes an R-type instruction: funct7 | rs2 | rs1 | funct3 | rd | opcode.
func EncodeRType(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return (funct7&0x7f)<<25 | (rs2&0x1f)<<20 | (rs1&0x1f)<<15 | (funct3&0x7)<<12 | (rd&0x1f)<<7 | (opcode & 0x7f)
}

// EncodeIType encodes an I-type instruction. imm is sign-extended to 12 bits.
func EncodeIType(opcode, rd, funct3, rs1 uint32, imm int32) uint32 {
	return uint32(imm&0xfff)<<20 | (rs1&0x1f)<<15 | (funct3&0x7)<<12 | (rd&0x1f)<<7 | (opcode & 0x7f)
}

// EncodeSType encodes an S-type (store) instruction. imm is sign-extended to
// 12 bits, split across bits [11:5] and [4:0].
func EncodeSType(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	hi := (u >> 5) & 0x7f
	lo := u & 0x1f
	return hi<<25 | (rs2&0x1f)<<20 | (rs1&0x1f)<<15 | (funct3&0x7)<<12 | lo<<7 | (opcode & 0x7f)
}

// EncodeBType encodes a B-type (branch) instruction. imm is the byte offset
// (even, sign-extended to 13 bits) and is scattered across the RV32 branch
// immediate encoding.
func EncodeBType(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	bit12 := (u >> 12) & 0x1
	bit11 := (u >> 11) & 0x1
	bits10_5 := (u >> 5) & 0x3f
	bits4_1 := (u >> 1) & 0xf
	return bit12<<31 | bits10_5<<25 | (rs2&0x1f)<<20 | (rs1&0x1f)<<15 | (funct3&0x7)<<12 | bits4_1<<8 | bit11<<7 | (opcode & 0x7f)
}

// EncodeUType encodes a U-type instruction. imm occupies bits [31:12] and is
// given here already shifted into that position (i.e. the caller passes the
// full 32-bit immediate value, e.g. 0x12345000, not 0x12345).
func EncodeUType(opcode, rd uint32, imm uint32) uint32 {
	return (imm & 0xfffff000) | (rd&0x1f)<<7 | (opcode & 0x7f)
}

// EncodeJType encodes a J-type (JAL) instruction. imm is the byte offset
// (even, sign-extended to 21 bits) scattered across the RV32 jump immediate
// encoding.
func EncodeJType(opcode, rd uint32, imm int32) uint32 {
	u := uint32(imm)
	bit20 := (u >> 20) & 0x1
	bits10_1 := (u >> 1) & 0x3ff
	bit11 := (u >> 11) & 0x1
	bits19_12 := (u >> 12) & 0xff
	return bit20<<31 | bits10_1<<21 | bit11<<20 | bits19_12<<12 | (rd&0x1f)<<7 | (opcode & 0x7f)
}
