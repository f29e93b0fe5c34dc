package ssa

import (
	"math"
	"math/rand"
	"testing"

	"github.com/fuzzyfold/foldkinetics/energymodel"
	"github.com/fuzzyfold/foldkinetics/loopstructure"
	"github.com/fuzzyfold/foldkinetics/ratemodel"
	"github.com/fuzzyfold/foldkinetics/structure"
)

func mustSeq(t *testing.T, s string) structure.Sequence {
	t.Helper()
	seq, err := structure.ParseSequence(s)
	if err != nil {
		t.Fatalf("ParseSequence(%q): %v", s, err)
	}
	return seq
}

func mustTable(t *testing.T, db string) structure.PairTable {
	t.Helper()
	pt, err := structure.ParsePairTable(structure.DotBracket(db))
	if err != nil {
		t.Fatalf("ParsePairTable(%q): %v", db, err)
	}
	return pt
}

// TestNewFluxMatchesLogSumOverAllMoves checks that the total log flux
// equals the log-sum over every reaction the simulator built,
// regardless of how it is partitioned into pair and loop components.
func TestNewFluxMatchesLogSumOverAllMoves(t *testing.T) {
	seq := mustSeq(t, "GCCCCGGUCA")
	pt := mustTable(t, "..........")
	ls := loopstructure.New(seq, pt, energymodel.MockModel{})
	model := ratemodel.NewMetropolis(37.0, 1.0)
	sim := New(ls, model)

	var logs []float64
	for _, rxns := range sim.loopReactions {
		for _, r := range rxns {
			logs = append(logs, r.LogRate)
		}
	}
	for _, r := range sim.pairReactions {
		logs = append(logs, r.LogRate)
	}

	want := logSumExpSlice(logs)
	if math.Abs(sim.LogFlux()-want) > 1e-9 {
		t.Errorf("LogFlux = %v, want %v", sim.LogFlux(), want)
	}
}

func logSumExpSlice(xs []float64) float64 {
	if len(xs) == 0 {
		return math.Inf(-1)
	}
	max := math.Inf(-1)
	for _, x := range xs {
		if x > max {
			max = x
		}
	}
	sum := 0.0
	for _, x := range xs {
		sum += math.Exp(x - max)
	}
	return max + math.Log(sum)
}

// TestSimulateCallbackTerminationNoMutation: a callback that returns
// false on the first invocation leaves t == 0 and the structure
// untouched.
func TestSimulateCallbackTerminationNoMutation(t *testing.T) {
	seq := mustSeq(t, "GCCCCGGUCA")
	pt := mustTable(t, "..........")
	ls := loopstructure.New(seq, pt, energymodel.MockModel{})
	model := ratemodel.NewMetropolis(37.0, 1.0)
	sim := New(ls, model)

	before := string(ls.ToDotBracket())
	rng := rand.New(rand.NewSource(1))

	calls := 0
	finalT := sim.Simulate(rng, 100.0, func(t, tau, flux float64, got *loopstructure.LoopStructure) bool {
		calls++
		return false
	})

	if finalT != 0 {
		t.Errorf("finalT = %v, want 0", finalT)
	}
	if calls != 1 {
		t.Errorf("callback invoked %d times, want 1", calls)
	}
	if got := string(ls.ToDotBracket()); got != before {
		t.Errorf("structure mutated despite immediate stop: %q != %q", got, before)
	}
}

// TestSimulateAppliesOneMoveThenStops runs for a small number of
// events and checks that callback times never decrease, then asserts
// the flux invariant still holds after repair.
func TestSimulateAppliesOneMoveThenStops(t *testing.T) {
	seq := mustSeq(t, "GCCCCGGUCAGGGGCCCC")
	pt := mustTable(t, "..................")
	ls := loopstructure.New(seq, pt, energymodel.MockModel{})
	model := ratemodel.NewMetropolis(37.0, 1.0)
	sim := New(ls, model)

	rng := rand.New(rand.NewSource(42))
	lastTime := -1.0
	events := 0
	sim.Simulate(rng, 0.01, func(eventT, tau, flux float64, got *loopstructure.LoopStructure) bool {
		if eventT < lastTime {
			t.Errorf("event time decreased: %v after %v", eventT, lastTime)
		}
		lastTime = eventT
		events++
		return events < 3
	})

	if events == 0 {
		t.Fatalf("expected at least one callback invocation")
	}

	var logs []float64
	for _, rxns := range sim.loopReactions {
		for _, r := range rxns {
			logs = append(logs, r.LogRate)
		}
	}
	for _, r := range sim.pairReactions {
		logs = append(logs, r.LogRate)
	}
	want := logSumExpSlice(logs)
	if math.Abs(sim.LogFlux()-want) > 1e-6 {
		t.Errorf("LogFlux after events = %v, want %v", sim.LogFlux(), want)
	}
}

// TestSimulateDeterministicGivenSeed: two runs with the same seed over
// identical inputs produce identical (t, tau) sequences.
func TestSimulateDeterministicGivenSeed(t *testing.T) {
	run := func(seed int64) []float64 {
		seq := mustSeq(t, "GCCCCGGUCAGGGGCCCC")
		pt := mustTable(t, "..................")
		ls := loopstructure.New(seq, pt, energymodel.MockModel{})
		model := ratemodel.NewMetropolis(37.0, 1.0)
		sim := New(ls, model)
		rng := rand.New(rand.NewSource(seed))

		var times []float64
		sim.Simulate(rng, 0.02, func(t, tau, flux float64, got *loopstructure.LoopStructure) bool {
			times = append(times, t, tau)
			return len(times) < 10
		})
		return times
	}

	a := run(7)
	b := run(7)
	if len(a) != len(b) {
		t.Fatalf("trajectory lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("trajectory diverged at index %d: %v != %v", i, a[i], b[i])
		}
	}
}
