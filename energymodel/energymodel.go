/*
Package energymodel defines the energy-model contract the kinetic core
consumes and two implementations: a deterministic Mock for core unit
tests, and a Turner-2004-backed model for exercising the whole
pipeline end to end.

The generic decomposition walk that sums per-loop energies into a
structure energy lives once, in loopstructure.EnergyOfStructure,
rather than being duplicated per Model implementation; a Model only
ever scores a single loop.
*/
package energymodel

import (
	"github.com/fuzzyfold/foldkinetics/nnloop"
	"github.com/fuzzyfold/foldkinetics/structure"
)

// Model is the capability set LoopStructure and the SSA require of an
// energy evaluator.
type Model interface {
	// CanPair reports whether two bases are an allowed pairing for
	// move generation.
	CanPair(a, b structure.Base) bool
	// MinHairpinSize is the minimum number of unpaired positions
	// required between i and j for (i,j) to be a legal pair.
	MinHairpinSize() int
	// EnergyOfLoop evaluates one already-fixed loop's free energy in
	// integer deci-cal/mol. Deterministic, side-effect free.
	EnergyOfLoop(seq structure.Sequence, loop nnloop.Loop) int
}
