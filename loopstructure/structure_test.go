package loopstructure

import (
	"testing"

	"github.com/fuzzyfold/foldkinetics/energymodel"
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

func TestNewOpenChain(t *testing.T) {
	seq := mustSeq(t, "AAAAAA")
	pt := mustTable(t, "......")
	ls := New(seq, pt, energymodel.MockModel{})

	if got := ls.Energy(); got != 0 {
		t.Errorf("open-chain energy = %d, want 0 (Mock exterior energy)", got)
	}
	if len(ls.AllLoopHandles()) != 1 {
		t.Fatalf("open chain should decompose into exactly one exterior loop, got %d", len(ls.AllLoopHandles()))
	}
	if len(ls.AllPairs()) != 0 {
		t.Errorf("open chain should have no pairs, got %v", ls.AllPairs())
	}
	if string(ls.ToDotBracket()) != "......" {
		t.Errorf("ToDotBracket = %q, want ......", ls.ToDotBracket())
	}
}

func TestNewHairpinRoundTrip(t *testing.T) {
	seq := mustSeq(t, "GCCCCGGUCC")
	db := "(((....)))"
	// closing pair spans the whole thing, middle is a smaller stem;
	// use a pair table consistent with a single hairpin under one stem.
	pt := mustTable(t, db)

	ls := New(seq, pt, energymodel.MockModel{})
	if got := string(ls.ToDotBracket()); got != db {
		t.Errorf("round trip = %q, want %q", got, db)
	}
	if len(ls.AllPairs()) != 3 {
		t.Errorf("expected 3 formed pairs, got %d", len(ls.AllPairs()))
	}
}

func TestNewBifurcation(t *testing.T) {
	seq := mustSeq(t, "GGGGAAACCCCAAACCCCAAACCCC")
	db := "((((...))))((...))((...))"
	if len(seq) != len(db) {
		t.Fatalf("fixture length mismatch: seq=%d db=%d", len(seq), len(db))
	}
	pt := mustTable(t, db)

	ls := New(seq, pt, energymodel.MockModel{})
	if got := string(ls.ToDotBracket()); got != db {
		t.Errorf("round trip = %q, want %q", got, db)
	}
}

// TestApplyAddDelInverse checks that deleting a pair just added via
// ApplyAddMove restores the prior dot-bracket and energy exactly.
func TestApplyAddDelInverse(t *testing.T) {
	seq := mustSeq(t, "GGGGAAACCCC")
	pt := mustTable(t, "...........")
	ls := New(seq, pt, energymodel.MockModel{})

	before := string(ls.ToDotBracket())
	beforeEnergy := ls.Energy()

	edit := ls.ApplyAddMove(0, 10)
	if edit.NewPair.I != 0 || edit.NewPair.J != 10 {
		t.Fatalf("NewPair = %+v, want {0 10 ...}", edit.NewPair)
	}
	if got := string(ls.ToDotBracket()); got == before {
		t.Fatalf("dot-bracket unchanged after ApplyAddMove")
	}

	ls.ApplyDelMove(0)
	if got := string(ls.ToDotBracket()); got != before {
		t.Errorf("dot-bracket after add+del = %q, want %q", got, before)
	}
	if got := ls.Energy(); got != beforeEnergy {
		t.Errorf("energy after add+del = %d, want %d", got, beforeEnergy)
	}
	if _, ok := ls.PairOf(0); ok {
		t.Errorf("position 0 should be unpaired after del")
	}
}

// TestLoopNeighborsOpenChain: a fully unpaired chain has one exterior
// loop whose cached add-moves are exactly the pairable (i, j) with
// enough room for a minimal hairpin between them.
func TestLoopNeighborsOpenChain(t *testing.T) {
	seq := mustSeq(t, "GCCCCGGUCA")
	pt := mustTable(t, "..........")
	model := energymodel.MockModel{}
	ls := New(seq, pt, model)

	h := ls.AllLoopHandles()[0]
	moves := ls.LoopNeighbors(h)
	if len(moves) == 0 {
		t.Fatal("open chain should offer add moves")
	}

	seen := make(map[[2]int]bool)
	for _, mv := range moves {
		if mv.J < mv.I+model.MinHairpinSize()+1 {
			t.Errorf("move (%d,%d) violates the minimum hairpin size", mv.I, mv.J)
		}
		if !model.CanPair(seq[mv.I], seq[mv.J]) {
			t.Errorf("move (%d,%d) joins non-pairable bases", mv.I, mv.J)
		}
		seen[[2]int{mv.I, mv.J}] = true
	}
	// G at 0 and C at 8 are pairable with 7 unpaired positions between.
	if !seen[[2]int{0, 8}] {
		t.Errorf("expected candidate add move (0,8), got %v", moves)
	}
}

// TestMultiPairRoundTrip deletes every pair of a nested structure and
// re-adds them, asserting the structure and its energy return to the
// starting snapshot.
func TestMultiPairRoundTrip(t *testing.T) {
	seq := mustSeq(t, "GGCCCCGGCC")
	db := "((....).)."
	pt := mustTable(t, db)
	ls := New(seq, pt, energymodel.MockModel{})

	beforeEnergy := ls.Energy()
	pairs := ls.AllPairs()
	mates := make(map[int]int, len(pairs))
	for _, i := range pairs {
		mates[i], _ = ls.PairOf(i)
	}

	// Innermost first, so each deletion's outer loop stays live.
	for k := len(pairs) - 1; k >= 0; k-- {
		ls.ApplyDelMove(pairs[k])
	}
	if got := string(ls.ToDotBracket()); got != ".........." {
		t.Fatalf("after deleting all pairs: %q, want all dots", got)
	}

	for _, i := range pairs {
		ls.ApplyAddMove(i, mates[i])
	}
	if got := string(ls.ToDotBracket()); got != db {
		t.Errorf("after re-adding: %q, want %q", got, db)
	}
	if got := ls.Energy(); got != beforeEnergy {
		t.Errorf("energy after round trip = %d, want %d", got, beforeEnergy)
	}
}

// TestDelOuterBranchExposesNewAddMoves: deleting one branch of a
// bifurcated exterior merges its hairpin interior into the exterior
// loop, and the freed positions become candidate add moves there.
func TestDelOuterBranchExposesNewAddMoves(t *testing.T) {
	seq := mustSeq(t, "AGGGGCCCCAAGGGGGCCCCAAA")
	db := ".((....))..((....))...."
	pt := mustTable(t, db)
	ls := New(seq, pt, energymodel.MockModel{})

	edit := ls.ApplyDelMove(1)
	if got := string(ls.ToDotBracket()); got != "..(....)...((....))...." {
		t.Fatalf("after deleting outer branch: %q", got)
	}

	found := false
	for _, mv := range edit.Neighbors {
		if mv.I == 1 && mv.J == 8 {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("freed positions (1,8) should reappear as an add move, got %v", edit.Neighbors)
	}
}

func TestApplyAddMoveDifferentLoopsPanics(t *testing.T) {
	seq := mustSeq(t, "GGGGAAACCCCAAACCCC")
	pt := mustTable(t, "((((...))))((...))")
	ls := New(seq, pt, energymodel.MockModel{})

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic when adding a pair across loops")
		}
	}()
	// position 5 sits inside the first hairpin's loop, position 15
	// inside the second stem's hairpin loop: different loops entirely.
	ls.ApplyAddMove(5, 15)
}

func TestPairNeighborDeltaMatchesVirtualRecompute(t *testing.T) {
	seq := mustSeq(t, "GGGGAAACCCC")
	pt := mustTable(t, "((((...))))")
	ls := New(seq, pt, energymodel.MockModel{})

	for _, i := range ls.AllPairs() {
		j, _ := ls.PairOf(i)
		want := ls.virtualAddDelta(i, j)
		got, ok := ls.PairNeighborDelta(i)
		if !ok {
			t.Fatalf("pair %d has no cached neighbor delta", i)
		}
		if got != want {
			t.Errorf("PairNeighborDelta(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestEnergyOfStructureMatchesLoopStructureEnergy(t *testing.T) {
	seq := mustSeq(t, "GGGGAAACCCC")
	pt := mustTable(t, "((((...))))")

	direct := EnergyOfStructure(seq, pt, energymodel.MockModel{})
	ls := New(seq, pt, energymodel.MockModel{})
	if direct != ls.Energy() {
		t.Errorf("EnergyOfStructure = %d, want %d (LoopStructure.Energy)", direct, ls.Energy())
	}
}

func TestApplyDelMoveUnpairedPanics(t *testing.T) {
	seq := mustSeq(t, "AAAA")
	pt := mustTable(t, "....")
	ls := New(seq, pt, energymodel.MockModel{})

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic deleting an unpaired position")
		}
	}()
	ls.ApplyDelMove(0)
}
