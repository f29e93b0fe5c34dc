package energymodel

import (
	"github.com/fuzzyfold/foldkinetics/nnloop"
	"github.com/fuzzyfold/foldkinetics/structure"
)

// MockModel is a deterministic, table-free energy model for unit
// tests of nnloop/loopstructure/ssa that must not depend on Turner
// table fidelity: Watson-Crick-plus-wobble pairing, minimum hairpin
// size 3, and fixed per-kind energies.
type MockModel struct{}

// CanPair implements Model with Watson-Crick and wobble pairing only.
func (MockModel) CanPair(a, b structure.Base) bool {
	switch {
	case a == structure.A && b == structure.U, a == structure.U && b == structure.A:
		return true
	case a == structure.C && b == structure.G, a == structure.G && b == structure.C:
		return true
	case a == structure.G && b == structure.U, a == structure.U && b == structure.G:
		return true
	default:
		return false
	}
}

// MinHairpinSize implements Model.
func (MockModel) MinHairpinSize() int { return 3 }

// EnergyOfLoop implements Model with fixed, kind-dependent constants:
// hairpins cost a flat penalty, stacks/interiors get a flat bonus,
// multibranch loops scale affinely with branch count, and the
// exterior loop is free. These values carry no physical meaning; they
// exist only to give tests a stable, cheap-to-reason-about energy
// landscape.
func (MockModel) EnergyOfLoop(seq structure.Sequence, loop nnloop.Loop) int {
	switch loop.Kind() {
	case nnloop.Hairpin:
		return 450
	case nnloop.Interior:
		return -200
	case nnloop.Multibranch:
		return 340 + 40*len(loop.Branches())
	default: // Exterior
		return 0
	}
}
