package program

import "errors"

// Sentinel errors returned by Decode and Load, named after the teacher's
// ErrRVMemSegEmpty/ErrRVMemSegOverlap convention.
var (
	ErrUnknownOpcode    = errors.New("program: unknown or unsupported opcode")
	ErrEmptyProgram     = errors.New("program: no loadable text segment")
	ErrSegmentOverlap   = errors.New("program: loadable segments overlap")
	ErrEntryOutOfRange  = errors.New("program: entry point outside text segment")
	ErrUnalignedSection = errors.New("program: section not 4-byte aligned")
	ErrNot32BitRISCV    = errors.New("program: not a 32-bit RISC-V ELF")
	ErrReservedAddress  = errors.New("program: segment overlaps the reserved register address range")
)

// reservedAddrBase is the first address of the pseudo-address range the
// interpreter's register file is recorded under in the unified memory
// access-chain (runtime.RegisterAddrBase; duplicated here rather than
// imported to avoid a program<->runtime dependency cycle). No loadable
// ELF segment may reach into it.
const reservedAddrBase = 0xFFFFFF00
