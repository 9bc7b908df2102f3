package interaction

import (
	"github.com/ethereum/go-ethereum/crypto"
)

// Commitment is a toy binary Merkle root over a trace's rows, standing in
// for the outer PCS commitment spec §1 scopes out of this core. It lets
// the debug harness exercise a commit/open round-trip (spec §6's
// "Commitment library consumed capability") without implementing FRI.
type Commitment [32]byte

// Commit hashes leaves pairwise up to a single root using Keccak-256, the
// same hash program.Program.Hash uses for the program image digest,
// duplicating an odd leaf up rather than padding with zero (the usual
// SSZ-style convention the teacher's merkle_multi_proof.go documents).
func Commit(leaves [][]byte) Commitment {
	if len(leaves) == 0 {
		return Commitment(crypto.Keccak256Hash(nil))
	}
	level := make([][32]byte, len(leaves))
	for i, leaf := range leaves {
		level[i] = crypto.Keccak256Hash(leaf)
	}
	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, crypto.Keccak256Hash(level[i][:], level[i+1][:]))
			} else {
				next = append(next, crypto.Keccak256Hash(level[i][:], level[i][:]))
			}
		}
		level = next
	}
	return Commitment(level[0])
}
