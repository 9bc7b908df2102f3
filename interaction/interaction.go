// Package interaction implements the lookup/permutation argument's
// bookkeeping surface (spec §4.8, invariant P3: "every send is matched by
// an equal-multiplicity receive on the same bus, tuple-for-tuple"). The
// actual LogUp/permutation-column algebra a real prover commits to is the
// outer PCS's job (spec §1); what this core owns is collecting every
// chip's declared BusEvents and checking the multiset closure they claim
// actually balances, which is exactly what the debug harness (spec §7
// stratum 3) needs to catch a miswired send/receive before it ever
// reaches a prover.
package interaction

import (
	"fmt"
	"sort"

	"github.com/rv32air/zkcore/chips/air"
	"github.com/rv32air/zkcore/field"
)

// Imbalance is one bus/tuple combination whose signed multiplicity sum
// (receives positive, sends negative, per spec §4.8's "receive matches a
// send" framing) did not net to zero.
type Imbalance struct {
	Bus   string
	Tuple string
	Net   int64
}

func (i Imbalance) String() string {
	return fmt.Sprintf("bus %q tuple %s: net multiplicity %d (want 0)", i.Bus, i.Tuple, i.Net)
}

// CheckClosure aggregates every BusEvent emitted across a set of chips'
// Eval passes and verifies, per (bus, tuple) key, that the total send
// multiplicity equals the total receive multiplicity (spec §4.8 P3). It
// returns one Imbalance per offending key, sorted for stable reporting.
func CheckClosure(events []air.BusEvent) []Imbalance {
	totals := make(map[string]int64)
	order := make([]string, 0)
	for _, e := range events {
		key := e.Bus + "|" + tupleKey(e.Tuple)
		if _, ok := totals[key]; !ok {
			order = append(order, key)
		}
		delta := signedMult(e.Mult)
		if e.Receive {
			totals[key] += delta
		} else {
			totals[key] -= delta
		}
	}

	sort.Strings(order)
	var out []Imbalance
	for _, key := range order {
		if net := totals[key]; net != 0 {
			bus, tuple := splitKey(key)
			out = append(out, Imbalance{Bus: bus, Tuple: tuple, Net: net})
		}
	}
	return out
}

// signedMult reduces a field multiplicity to an int64 for closure
// bookkeeping. Every chip in this core sends/receives with small integer
// multiplicities (0, 1, or a handful), well inside int64's range, so the
// canonical uint32 representation round-trips exactly.
func signedMult(m field.Element) int64 { return int64(m.Uint32()) }

func tupleKey(tuple []field.Element) string {
	s := "("
	for i, v := range tuple {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%d", v.Uint64())
	}
	return s + ")"
}

func splitKey(key string) (bus, tuple string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '|' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}
