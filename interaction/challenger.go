package interaction

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	"github.com/rv32air/zkcore/field"
)

// Challenger is the Fiat-Shamir transcript capability the outer prover
// would drive a real STARK's verifier-randomness schedule from (spec §6,
// "Challenger interface is defined"); this core only needs the interface
// and a debug-usable implementation, not the schedule itself.
type Challenger interface {
	// Observe absorbs a field element into the transcript.
	Observe(v field.Element)
	// ObserveBytes absorbs raw bytes (e.g. a trace commitment digest).
	ObserveBytes(b []byte)
	// Sample squeezes a fresh extension-field element out of the
	// transcript, advancing its internal state so repeated calls diverge
	// (spec §6: "Challenger... sample() -> EF", the lookup argument's
	// challenges living in field.EF rather than the base field, per
	// field/extension.go's soundness-amplification doc comment).
	Sample() field.EF
}

// Sha3Challenger is a Challenger backed by Keccak-256, grounded the same
// way the teacher's IncrementalHasher wraps sha3.NewLegacyKeccak256 for
// incremental absorption -- debug/test tooling only, not a soundness
// claim about Fiat-Shamir itself (spec §1 scopes that out).
type Sha3Challenger struct {
	state  sha3.ShakeHash
	nSamps uint64
}

// NewSha3Challenger returns a Challenger seeded from an initial label,
// matching the teacher's convention of domain-separating a transcript
// with a fixed prefix before absorbing caller data.
func NewSha3Challenger(label string) *Sha3Challenger {
	c := &Sha3Challenger{state: sha3.NewShake256()}
	c.ObserveBytes([]byte(label))
	return c
}

func (c *Sha3Challenger) Observe(v field.Element) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v.Uint64())
	c.state.Write(buf[:])
}

func (c *Sha3Challenger) ObserveBytes(b []byte) {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(b)))
	c.state.Write(lenBuf[:])
	c.state.Write(b)
}

// Sample reads 32 fresh bytes from the sponge as four 8-byte limbs, each
// reduced into a base-field coefficient via field.New's canonical mod-p
// reduction, and assembles them into one field.EF element. A per-sample
// counter is mixed in first so consecutive Sample calls never repeat the
// same squeeze even if the underlying XOF state hadn't been advanced.
func (c *Sha3Challenger) Sample() field.EF {
	var ctr [8]byte
	binary.BigEndian.PutUint64(ctr[:], c.nSamps)
	c.state.Write(ctr[:])
	c.nSamps++

	var coeffs [4]field.Element
	for i := range coeffs {
		var out [8]byte
		if _, err := c.state.Read(out[:]); err != nil {
			panic("interaction: sha3 XOF read failed: " + err.Error())
		}
		coeffs[i] = field.New(binary.BigEndian.Uint64(out[:]))
	}
	return field.NewEF(coeffs[0], coeffs[1], coeffs[2], coeffs[3])
}
