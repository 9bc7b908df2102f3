// Package program implements RV32IM instruction encoding/decoding (spec §3)
// and the ELF program loader (spec §6).
package program

import (
	"debug/elf"
	"fmt"
	"io"
	"sort"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rv32air/zkcore/word"
)

// Program is a loaded RV32IM binary: its decoded text segment, initial data
// memory image, and entry point (spec §6, "Program image").
type Program struct {
	EntryPC uint32

	// Code maps a word-aligned program-counter value to its decoded
	// instruction. Only addresses within a loadable, executable ELF segment
	// appear here; fetching any other address is a Fault (spec §4.2).
	Code map[uint32]Instruction

	// Memory holds the initial contents of loadable, non-executable
	// segments (.data, .rodata, .bss), word-aligned. Addresses absent from
	// the map read as zero.
	Memory map[uint32]word.Word

	// Hash binds the program image (text + initial memory + entry point)
	// into a single digest. The PROGRAM chip commits to this hash so a
	// verifier can check a proof was generated against the expected
	// binary without re-walking the ELF (spec §4.1's PROGRAM bus lookup
	// needs a canonical enumeration of (pc, instruction); Hash is the
	// binding commitment over that same enumeration).
	Hash [32]byte
}

// segment is a loadable ELF segment after alignment/overlap validation.
type segment struct {
	addr uint32
	data []byte
	exec bool
}

// Load parses a 32-bit RISC-V ELF image from r and decodes its executable
// segments into a Program. It rejects 64-bit ELFs, non-RISC-V machine
// types, and any instruction Decode does not recognize (spec §6: "the
// loader rejects non-RV32IM opcodes before execution begins, rather than
// deferring to a runtime Fault").
func Load(r io.ReaderAt) (*Program, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("program: parse elf: %w", err)
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS32 {
		return nil, ErrNot32BitRISCV
	}
	if f.Machine != elf.EM_RISCV {
		return nil, ErrNot32BitRISCV
	}

	segs, err := loadableSegments(f)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, ErrEmptyProgram
	}
	if err := checkOverlap(segs); err != nil {
		return nil, err
	}

	p := &Program{
		EntryPC: uint32(f.Entry),
		Code:    make(map[uint32]Instruction),
		Memory:  make(map[uint32]word.Word),
	}

	hashInput := make([]byte, 0, 4096)
	for _, seg := range segs {
		if seg.addr%4 != 0 {
			return nil, ErrUnalignedSection
		}
		hashInput = append(hashInput, seg.data...)
		for off := 0; off+4 <= len(seg.data); off += 4 {
			addr := seg.addr + uint32(off)
			raw := le32(seg.data[off : off+4])
			if seg.exec {
				inst, err := Decode(raw)
				if err != nil {
					return nil, fmt.Errorf("program: decode at 0x%08x: %w", addr, err)
				}
				p.Code[addr] = inst
			} else {
				p.Memory[addr] = word.FromUint32(raw)
			}
		}
	}

	if _, ok := p.Code[p.EntryPC]; !ok {
		return nil, ErrEntryOutOfRange
	}

	p.Hash = crypto.Keccak256Hash(hashInput)
	return p, nil
}

func loadableSegments(f *elf.File) ([]segment, error) {
	var segs []segment
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Filesz == 0 {
			continue
		}
		data := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(data, 0); err != nil && err != io.EOF {
			return nil, fmt.Errorf("program: read segment: %w", err)
		}
		segs = append(segs, segment{
			addr: uint32(prog.Vaddr),
			data: data,
			exec: prog.Flags&elf.PF_X != 0,
		})
	}
	sort.Slice(segs, func(i, j int) bool { return segs[i].addr < segs[j].addr })
	return segs, nil
}

func checkOverlap(segs []segment) error {
	for i, seg := range segs {
		end := seg.addr + uint32(len(seg.data))
		if end > reservedAddrBase || end < seg.addr {
			return ErrReservedAddress
		}
		if i == 0 {
			continue
		}
		prevEnd := segs[i-1].addr + uint32(len(segs[i-1].data))
		if seg.addr < prevEnd {
			return ErrSegmentOverlap
		}
	}
	return nil
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
