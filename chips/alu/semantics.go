// Package alu implements the RV32IM integer/M-extension arithmetic (spec
// §4.5) both as a plain Go function (used by the interpreter to compute the
// actual result of an instruction) and, eventually, as the AIR constraints
// that check a claimed result against its operands (Eval, not yet wired).
// Keeping one Compute function shared by both call sites means the witness
// the interpreter produces and the constraint that checks it can never
// silently diverge.
package alu

import "github.com/rv32air/zkcore/program"

// Compute evaluates opcode on 32-bit operands b and c and returns the
// 32-bit result, using RV32IM's defined (non-trapping) semantics for every
// case including division by zero and signed overflow (spec §4.5 "division
// semantics").
func Compute(opcode program.Opcode, b, c uint32) uint32 {
	sb, sc := int32(b), int32(c)
	switch opcode {
	case program.OpAdd:
		return b + c
	case program.OpSub:
		return b - c
	case program.OpAnd:
		return b & c
	case program.OpOr:
		return b | c
	case program.OpXor:
		return b ^ c
	case program.OpSll:
		return b << (c & 0x1f)
	case program.OpSrl:
		return b >> (c & 0x1f)
	case program.OpSra:
		return uint32(sb >> (c & 0x1f))
	case program.OpSlt:
		if sb < sc {
			return 1
		}
		return 0
	case program.OpSltu:
		if b < c {
			return 1
		}
		return 0
	case program.OpMul:
		return b * c
	case program.OpMulh:
		return uint32(int64(sb) * int64(sc) >> 32)
	case program.OpMulhu:
		return uint32((uint64(b) * uint64(c)) >> 32)
	case program.OpMulhsu:
		return uint32((int64(sb) * int64(c)) >> 32)
	case program.OpDiv:
		return uint32(divSigned(sb, sc))
	case program.OpDivu:
		return divUnsigned(b, c)
	case program.OpRem:
		return uint32(remSigned(sb, sc))
	case program.OpRemu:
		return remUnsigned(b, c)
	}
	return 0
}

// divSigned implements RISC-V's non-trapping signed division: division by
// zero yields -1, and the INT_MIN / -1 overflow case yields INT_MIN rather
// than trapping (spec §4.5 edge case).
func divSigned(a, b int32) int32 {
	if b == 0 {
		return -1
	}
	if a == -2147483648 && b == -1 {
		return -2147483648
	}
	return a / b
}

func remSigned(a, b int32) int32 {
	if b == 0 {
		return a
	}
	if a == -2147483648 && b == -1 {
		return 0
	}
	return a % b
}

func divUnsigned(a, b uint32) uint32 {
	if b == 0 {
		return 0xFFFFFFFF
	}
	return a / b
}

func remUnsigned(a, b uint32) uint32 {
	if b == 0 {
		return a
	}
	return a % b
}
