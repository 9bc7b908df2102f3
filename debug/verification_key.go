package debug

import (
	"github.com/rv32air/zkcore/field"
	"github.com/rv32air/zkcore/interaction"
	"github.com/rv32air/zkcore/program"
)

// VerificationKey binds a program image to a commitment over every
// chip's generated trace, standing in for the artifact an external
// prover's setup phase would produce (spec §6's Commitment library
// "consumed" capability; spec §9's VerificationKeyStruct convention,
// mirrored from the teacher's own zkvm test suite).
type VerificationKey struct {
	ProgramHash      [32]byte
	TraceCommitments map[string]interaction.Commitment
}

// BuildVerificationKey commits every chip's rows from a completed Report
// and binds them to prog's image hash, exercising the toy Merkle
// Commitment end-to-end the way a real PCS setup would (minus any actual
// soundness property -- spec §1 scopes that out).
func BuildVerificationKey(prog *program.Program, report Report) VerificationKey {
	commitments := make(map[string]interaction.Commitment, len(report.Chips))
	for _, c := range report.Chips {
		commitments[c.Chip] = interaction.Commit(rowsToLeaves(c.Rows))
	}
	return VerificationKey{ProgramHash: prog.Hash, TraceCommitments: commitments}
}

func rowsToLeaves(rows [][]field.Element) [][]byte {
	leaves := make([][]byte, len(rows))
	for i, row := range rows {
		buf := make([]byte, 0, len(row)*8)
		for _, v := range row {
			u := v.Uint64()
			buf = append(buf,
				byte(u>>56), byte(u>>48), byte(u>>40), byte(u>>32),
				byte(u>>24), byte(u>>16), byte(u>>8), byte(u))
		}
		leaves[i] = buf
	}
	return leaves
}
