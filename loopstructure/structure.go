package loopstructure

import (
	"fmt"
	"sort"

	"github.com/fuzzyfold/foldkinetics/energymodel"
	"github.com/fuzzyfold/foldkinetics/nnloop"
	"github.com/fuzzyfold/foldkinetics/structure"
)

// PairChange reports a pair whose stored add-ΔE changed (or was
// newly established/removed) as a side effect of a mutation. DeltaE
// always follows the add-ΔE convention: the energy change of forming
// this pair, even when the pair already exists.
type PairChange struct {
	I, J, DeltaE int
}

// AddEditList is returned by ApplyAddMove: exactly the cache slots the
// mutation touched, so a consumer (the SSA) can repair its flux caches
// in O(local) time instead of rescanning the whole structure.
type AddEditList struct {
	OuterHandle    int
	OuterNeighbors []AddMove
	InnerHandle    int
	InnerNeighbors []AddMove
	NewPair        PairChange
	PairChanges    []PairChange
}

// DelEditList is returned by ApplyDelMove, symmetric to AddEditList.
type DelEditList struct {
	Handle        int
	Neighbors     []AddMove
	RemovedHandle int
	RemovedPair   PairChange
	PairChanges   []PairChange
}

// LoopStructure is the top-level mutable state: a loop cache plus the
// position->handle lookup, formed-pair list, and per-loop/per-pair
// move caches that let the SSA enumerate legal moves without
// rescanning the whole structure after every event.
//
// LoopStructure borrows its sequence and energy model immutably for
// its whole lifetime and exclusively owns the arena and all caches.
// It is built once per simulation trajectory and mutated only through
// ApplyAddMove/ApplyDelMove.
type LoopStructure struct {
	seq   structure.Sequence
	model energymodel.Model
	cache *cache

	loopLookup    []int
	pairList      map[int]int
	loopNeighbors map[int][]AddMove
	pairNeighbors map[int]int
}

// New decomposes pairTable into nearest-neighbor loops with a
// single-pass stack walk and builds every cache: each opened pair
// starts a child loop that closes when its partner is reached, and the
// exterior loop collects the top-level branches.
func New(seq structure.Sequence, pairTable structure.PairTable, model energymodel.Model) *LoopStructure {
	if len(seq) != len(pairTable) {
		panic("loopstructure: sequence and pair table length mismatch")
	}
	n := len(seq)
	c := newCache(seq, model)

	type frame struct {
		open     int
		branches []nnloop.Pair
	}
	var stack []frame
	var topBranches []nnloop.Pair
	pairList := make(map[int]int)

	for i := 0; i < n; i++ {
		j := pairTable[i]
		if j < 0 {
			continue
		}
		if j > i {
			stack = append(stack, frame{open: i})
			continue
		}
		// j < i: i closes the pair opened at j.
		if len(stack) == 0 || stack[len(stack)-1].open != j {
			panic(fmt.Sprintf("loopstructure: malformed pair table at position %d", i))
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		closing := nnloop.Pair{I: j, J: i}
		loop := classifyLoop(&closing, top.branches)
		c.insert(loop)
		pairList[j] = i

		if len(stack) > 0 {
			parent := &stack[len(stack)-1]
			parent.branches = append(parent.branches, closing)
		} else {
			topBranches = append(topBranches, closing)
		}
	}
	if len(stack) > 0 {
		panic("loopstructure: unmatched open pair in pair table")
	}

	exterior := classifyLoop(nil, topBranches)
	c.insert(exterior)

	ls := &LoopStructure{
		seq:           seq,
		model:         model,
		cache:         c,
		loopLookup:    make([]int, n),
		pairList:      pairList,
		loopNeighbors: make(map[int][]AddMove),
		pairNeighbors: make(map[int]int),
	}

	for h := range c.entries {
		loop, _ := c.get(h)
		for _, p := range loop.InclusiveUnpairedIndices(n) {
			ls.loopLookup[p] = h
		}
		ls.loopNeighbors[h] = c.loopNeighbors(h)
	}

	for i, j := range pairList {
		ls.pairNeighbors[i] = ls.virtualAddDelta(i, j)
	}

	return ls
}

// classifyLoop mirrors nnloop's unexported classify helper at the
// package boundary: given a possibly-absent closing pair and a branch
// list gathered during decomposition, build the loop with the variant
// implied by the branch count.
func classifyLoop(closing *nnloop.Pair, branches []nnloop.Pair) nnloop.Loop {
	switch {
	case closing == nil:
		return nnloop.NewExterior(branches)
	case len(branches) == 0:
		return nnloop.NewHairpin(*closing)
	case len(branches) == 1:
		return nnloop.NewInterior(*closing, branches[0])
	default:
		return nnloop.NewMultibranch(*closing, branches)
	}
}

// virtualAddDelta computes the add-ΔE of pair (i, j), which already
// exists, by virtually joining its outer and inner loops: the ΔE of
// forming (i, j) from the joined state is the sum of the two separate
// loop energies minus the joined energy.
func (ls *LoopStructure) virtualAddDelta(i, j int) int {
	hOuter := ls.loopLookup[i]
	hInner := ls.loopLookup[j]
	outerLoop, eOuter := ls.cache.get(hOuter)
	innerLoop, eInner := ls.cache.get(hInner)
	combined := outerLoop.JoinLoop(innerLoop)
	eCombined := ls.model.EnergyOfLoop(ls.seq, combined)
	return eOuter + eInner - eCombined
}

// Energy is the sum of every live loop's cached energy.
func (ls *LoopStructure) Energy() int {
	total := 0
	for _, e := range ls.cache.entries {
		total += e.energy
	}
	return total
}

// ToPairTable renders the current pair_list into a pair table.
func (ls *LoopStructure) ToPairTable() structure.PairTable {
	pt := make(structure.PairTable, len(ls.loopLookup))
	for i := range pt {
		pt[i] = -1
	}
	for i, j := range ls.pairList {
		pt[i] = j
		pt[j] = i
	}
	return pt
}

// ToDotBracket renders the current structure as a dot-bracket string.
func (ls *LoopStructure) ToDotBracket() structure.DotBracket {
	return ls.ToPairTable().ToDotBracket()
}

// LoopHandle returns the live loop handle owning position p.
func (ls *LoopStructure) LoopHandle(p int) int { return ls.loopLookup[p] }

// PairOf returns the partner of i if i is currently paired.
func (ls *LoopStructure) PairOf(i int) (j int, ok bool) {
	j, ok = ls.pairList[i]
	return
}

// LoopNeighbors returns the cached add-moves available within loop h.
// The returned slice must not be mutated by the caller.
func (ls *LoopStructure) LoopNeighbors(h int) []AddMove { return ls.loopNeighbors[h] }

// PairNeighborDelta returns the stored add-ΔE for the pair keyed by
// its smaller index i.
func (ls *LoopStructure) PairNeighborDelta(i int) (deltaE int, ok bool) {
	deltaE, ok = ls.pairNeighbors[i]
	return
}

// AllLoopHandles returns every live loop handle, in deterministic
// ascending order (the arena's iteration order, which both the SSA's
// reaction-sampling walk and its tests depend on being stable).
func (ls *LoopStructure) AllLoopHandles() []int {
	handles := make([]int, 0, len(ls.cache.entries))
	for h := range ls.cache.entries {
		handles = append(handles, h)
	}
	sort.Ints(handles)
	return handles
}

// AllPairs returns every formed pair's smaller index, in deterministic
// ascending order.
func (ls *LoopStructure) AllPairs() []int {
	keys := make([]int, 0, len(ls.pairList))
	for i := range ls.pairList {
		keys = append(keys, i)
	}
	sort.Ints(keys)
	return keys
}

// ApplyAddMove forms pair (i, j), which must both be unpaired
// positions of the same loop. Panics if loopLookup[i] != loopLookup[j]:
// continuing from an inconsistent cache would silently corrupt every
// statistic downstream.
func (ls *LoopStructure) ApplyAddMove(i, j int) AddEditList {
	hCombo := ls.loopLookup[i]
	if other := ls.loopLookup[j]; other != hCombo {
		panic(fmt.Sprintf("loopstructure: invariant violation: positions %d and %d belong to different loops (%d vs %d)", i, j, hCombo, other))
	}
	combo, eCombo := ls.cache.get(hCombo)
	comboPairs := combo.Pairs()

	hOuter, hInner, deltaEAdd := ls.cache.applyAdd(hCombo, combo, eCombo, i, j)

	outerLoop, _ := ls.cache.get(hOuter)
	innerLoop, _ := ls.cache.get(hInner)
	for _, p := range outerLoop.InclusiveUnpairedIndices(len(ls.seq)) {
		ls.loopLookup[p] = hOuter
	}
	for _, p := range innerLoop.InclusiveUnpairedIndices(len(ls.seq)) {
		ls.loopLookup[p] = hInner
	}

	outerNbrs := ls.cache.loopNeighbors(hOuter)
	innerNbrs := ls.cache.loopNeighbors(hInner)
	ls.loopNeighbors[hOuter] = outerNbrs
	ls.loopNeighbors[hInner] = innerNbrs

	ls.pairList[i] = j
	ls.pairNeighbors[i] = deltaEAdd

	var pairChanges []PairChange
	for _, pr := range comboPairs {
		p := pr.I
		delta := ls.virtualAddDelta(p, ls.pairList[p])
		ls.pairNeighbors[p] = delta
		pairChanges = append(pairChanges, PairChange{I: p, J: ls.pairList[p], DeltaE: delta})
	}

	return AddEditList{
		OuterHandle:    hOuter,
		OuterNeighbors: outerNbrs,
		InnerHandle:    hInner,
		InnerNeighbors: innerNbrs,
		NewPair:        PairChange{I: i, J: j, DeltaE: deltaEAdd},
		PairChanges:    pairChanges,
	}
}

// ApplyDelMove removes the pair (i, pairList[i]). Panics if i is not
// currently paired.
func (ls *LoopStructure) ApplyDelMove(i int) DelEditList {
	j, ok := ls.pairList[i]
	if !ok {
		panic(fmt.Sprintf("loopstructure: invariant violation: position %d is not paired", i))
	}

	hOuter := ls.loopLookup[i]
	hInner := ls.loopLookup[j]
	addDelta := ls.pairNeighbors[i]
	deltaDel := -addDelta

	hCombo := ls.cache.applyDelete(hOuter, hInner, deltaDel)
	combined, _ := ls.cache.get(hCombo)
	comboPairs := combined.Pairs()

	delete(ls.pairList, i)
	delete(ls.pairNeighbors, i)
	delete(ls.loopNeighbors, hInner)

	for _, p := range combined.InclusiveUnpairedIndices(len(ls.seq)) {
		ls.loopLookup[p] = hCombo
	}

	nbrs := ls.cache.loopNeighbors(hCombo)
	ls.loopNeighbors[hCombo] = nbrs

	var pairChanges []PairChange
	for _, pr := range comboPairs {
		p := pr.I
		delta := ls.virtualAddDelta(p, ls.pairList[p])
		ls.pairNeighbors[p] = delta
		pairChanges = append(pairChanges, PairChange{I: p, J: ls.pairList[p], DeltaE: delta})
	}

	return DelEditList{
		Handle:        hCombo,
		Neighbors:     nbrs,
		RemovedHandle: hInner,
		RemovedPair:   PairChange{I: i, J: j, DeltaE: addDelta},
		PairChanges:   pairChanges,
	}
}

// EnergyOfStructure decomposes pairTable from scratch and sums the
// model's per-loop energy over every resulting loop. It lives here
// rather than as a method on every energymodel.Model because the
// decomposition walk is the same one New performs; implementations
// only ever score a single loop.
func EnergyOfStructure(seq structure.Sequence, pairTable structure.PairTable, model energymodel.Model) int {
	ls := New(seq, pairTable, model)
	return ls.Energy()
}
