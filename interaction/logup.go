package interaction

import (
	"github.com/rv32air/zkcore/chips/air"
	"github.com/rv32air/zkcore/field"
)

// LogUpSum folds a set of bus events into the randomized running sum the
// permutation argument commits to (spec §4.8): each event contributes
// mult / (gamma + sum_i beta^i * t_i), receives positive and sends
// negative, with the challenges (beta, gamma) drawn from EF after trace
// commitment. A closed bus nets to exactly zero; an unbalanced one is
// nonzero except with probability O(|events| / |EF|) over the challenge
// draw. The debug harness uses CheckClosure's exact multiset check as its
// oracle; this is the algebraic form of the same statement, kept per-bus
// so each bus's cumulative sum can be checked independently the way the
// per-chip permutation columns would be.
func LogUpSum(events []air.BusEvent, bus string, beta, gamma field.EF) field.EF {
	total := field.EFZero
	for _, e := range events {
		if e.Bus != bus {
			continue
		}
		denom := gamma
		pow := field.EFOne
		for _, t := range e.Tuple {
			pow = pow.Mul(beta)
			denom = denom.Add(pow.MulBase(t))
		}
		// A zero denominator means the challenge collided with a tuple's
		// fingerprint, a probability-|events|/|EF| event the caller retries
		// by resampling; panicking matches Inverse's own zero contract.
		term := denom.Inverse().MulBase(e.Mult)
		if e.Receive {
			total = total.Add(term)
		} else {
			total = total.Sub(term)
		}
	}
	return total
}

// Buses returns the distinct bus names appearing in events, so a caller
// can run LogUpSum per bus without hard-coding the chip set's bus list.
func Buses(events []air.BusEvent) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range events {
		if _, ok := seen[e.Bus]; !ok {
			seen[e.Bus] = struct{}{}
			out = append(out, e.Bus)
		}
	}
	return out
}
