package interaction

import (
	"testing"

	"github.com/rv32air/zkcore/chips/air"
	"github.com/rv32air/zkcore/field"
)

func sampleChallenges() (beta, gamma, beta2, gamma2 field.EF) {
	c := NewSha3Challenger("logup-test")
	return c.Sample(), c.Sample(), c.Sample(), c.Sample()
}

func TestLogUpSumClosedBusIsZero(t *testing.T) {
	events := []air.BusEvent{
		send("alu", 1, 3, 4, 7),
		receive("alu", 1, 3, 4, 7),
		send("alu", 2, 9, 9, 9),
		receive("alu", 1, 9, 9, 9),
		receive("alu", 1, 9, 9, 9),
	}
	beta, gamma, _, _ := sampleChallenges()
	if sum := LogUpSum(events, "alu", beta, gamma); !sum.IsZero() {
		t.Fatalf("closed bus summed to %v, want zero", sum)
	}
}

func TestLogUpSumOpenBusIsNonzero(t *testing.T) {
	events := []air.BusEvent{
		send("alu", 1, 3, 4, 7),
		receive("alu", 1, 3, 4, 8), // tuple differs in one slot
	}
	// Two independent challenge draws: a false zero under both is
	// vanishingly unlikely, so the test is robust to a single unlucky draw.
	beta, gamma, beta2, gamma2 := sampleChallenges()
	if LogUpSum(events, "alu", beta, gamma).IsZero() && LogUpSum(events, "alu", beta2, gamma2).IsZero() {
		t.Fatal("open bus summed to zero under two independent challenges")
	}
}

func TestLogUpSumIgnoresOtherBuses(t *testing.T) {
	events := []air.BusEvent{
		send("alu", 1, 3, 4, 7),
		receive("alu", 1, 3, 4, 7),
		send("memory", 1, 5), // unmatched, but on a different bus
	}
	beta, gamma, _, _ := sampleChallenges()
	if sum := LogUpSum(events, "alu", beta, gamma); !sum.IsZero() {
		t.Fatalf("alu bus summed to %v, want zero despite open memory bus", sum)
	}
	if LogUpSum(events, "memory", beta, gamma).IsZero() {
		t.Fatal("open memory bus must not sum to zero")
	}
}

func TestBusesEnumerates(t *testing.T) {
	events := []air.BusEvent{
		send("alu", 1, 1),
		send("memory", 1, 2),
		receive("alu", 1, 1),
	}
	buses := Buses(events)
	if len(buses) != 2 {
		t.Fatalf("buses = %v, want 2 distinct", buses)
	}
}
