/*
Package loopstructure implements the incremental loop-decomposition
state machine at the heart of the simulator: a handle-keyed arena of
nearest-neighbor loops with their evaluated energies, plus the
position, pair, and move caches that LoopStructure keeps consistent
under single base-pair additions and deletions. Handles are reused via
a free-list; a handle is only valid until a mutation frees it.
*/
package loopstructure

import (
	"fmt"
	"sort"

	"github.com/fuzzyfold/foldkinetics/energymodel"
	"github.com/fuzzyfold/foldkinetics/nnloop"
	"github.com/fuzzyfold/foldkinetics/structure"
)

// AddMove is one legal pair-addition candidate: forming (I, J) costs
// DeltaE (positive destabilizes, negative stabilizes).
type AddMove struct {
	I, J, DeltaE int
}

type cacheEntry struct {
	loop   nnloop.Loop
	energy int
}

// cache is the arena-like loop store: every live loop, keyed by an
// integer handle that is reused via a free-list once its loop is
// joined away. The loop cache is the sole owner of loop values; every
// other collaborator references loops only by handle.
type cache struct {
	seq     structure.Sequence
	model   energymodel.Model
	entries map[int]cacheEntry
	free    []int
	next    int
}

func newCache(seq structure.Sequence, model energymodel.Model) *cache {
	return &cache{
		seq:     seq,
		model:   model,
		entries: make(map[int]cacheEntry),
	}
}

func (c *cache) allocate() int {
	if n := len(c.free); n > 0 {
		h := c.free[n-1]
		c.free = c.free[:n-1]
		return h
	}
	h := c.next
	c.next++
	return h
}

// insert evaluates the loop's energy and stores it under a fresh
// handle.
func (c *cache) insert(loop nnloop.Loop) int {
	h := c.allocate()
	c.entries[h] = cacheEntry{loop: loop, energy: c.model.EnergyOfLoop(c.seq, loop)}
	return h
}

// get returns a live loop and its cached energy. Panics on an unknown
// handle: a missing handle here means a caller retained a stale
// reference across a mutation that freed it, a programming error.
func (c *cache) get(h int) (nnloop.Loop, int) {
	e, ok := c.entries[h]
	if !ok {
		panic(fmt.Sprintf("loopstructure: unknown loop handle %d", h))
	}
	return e.loop, e.energy
}

// freeHandle returns a handle to the free-list.
func (c *cache) freeHandle(h int) {
	if _, ok := c.entries[h]; !ok {
		panic(fmt.Sprintf("loopstructure: freeing unknown loop handle %d", h))
	}
	delete(c.entries, h)
	c.free = append(c.free, h)
}

// applyDelete joins outer and inner into one combined loop, overwrites
// the outer slot with it, and frees the inner slot. deltaE is the
// deletion ΔE (already sign-flipped from the add-ΔE convention by the
// caller); the combined energy is E_outer + E_inner + deltaE.
func (c *cache) applyDelete(hOuter, hInner, deltaE int) int {
	outerLoop, eOuter := c.get(hOuter)
	innerLoop, eInner := c.get(hInner)
	combined := outerLoop.JoinLoop(innerLoop)
	c.entries[hOuter] = cacheEntry{loop: combined, energy: eOuter + eInner + deltaE}
	c.freeHandle(hInner)
	return hOuter
}

// applyAdd splits combo at (i, j), writes the outer half back into
// hCombo's slot, allocates a fresh handle for the inner half, and
// returns both along with the add ΔE (negative when the split is
// stabilising).
func (c *cache) applyAdd(hCombo int, combo nnloop.Loop, eCombo, i, j int) (hOuter, hInner, deltaEAdd int) {
	outer, inner := combo.SplitLoop(i, j)
	eOuter := c.model.EnergyOfLoop(c.seq, outer)
	eInner := c.model.EnergyOfLoop(c.seq, inner)

	hOuter = hCombo
	c.entries[hOuter] = cacheEntry{loop: outer, energy: eOuter}
	hInner = c.allocate()
	c.entries[hInner] = cacheEntry{loop: inner, energy: eInner}

	deltaEAdd = (eOuter + eInner) - eCombo
	return hOuter, hInner, deltaEAdd
}

// loopNeighbors enumerates every legal add-move within loop h, in
// deterministic lexicographic (i, j) order.
func (c *cache) loopNeighbors(h int) []AddMove {
	loop, e := c.get(h)
	positions := loop.UnpairedIndices(len(c.seq))
	minHairpin := c.model.MinHairpinSize()

	var moves []AddMove
	for a := 0; a < len(positions); a++ {
		i := positions[a]
		for b := a + 1; b < len(positions); b++ {
			j := positions[b]
			if j < i+minHairpin+1 {
				continue
			}
			if !c.model.CanPair(c.seq[i], c.seq[j]) {
				continue
			}
			outer, inner := loop.SplitLoop(i, j)
			eOuter := c.model.EnergyOfLoop(c.seq, outer)
			eInner := c.model.EnergyOfLoop(c.seq, inner)
			moves = append(moves, AddMove{I: i, J: j, DeltaE: (eOuter + eInner) - e})
		}
	}
	sort.Slice(moves, func(a, b int) bool {
		if moves[a].I != moves[b].I {
			return moves[a].I < moves[b].I
		}
		return moves[a].J < moves[b].J
	})
	return moves
}
