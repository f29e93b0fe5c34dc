package energymodel

import (
	"math"

	"github.com/fuzzyfold/foldkinetics/energy_params"
	"github.com/fuzzyfold/foldkinetics/nnloop"
	"github.com/fuzzyfold/foldkinetics/structure"
)

// TurnerModel evaluates loop energies from a temperature-scaled
// Turner-2004 parameter table (energy_params.EnergyParams). It only
// ever evaluates one already-fixed loop, so the standard per-loop
// formulas apply directly with no dynamic programming. Known
// simplifications: no tri/tetra/hexa-loop hairpin bonuses, the affine
// multiloop model, and no dangling-end contribution in exterior loops.
type TurnerModel struct {
	params         *energy_params.EnergyParams
	minHairpinSize int
}

// NewTurnerModel builds a TurnerModel from a parsed, temperature-scaled
// parameter set. Callers typically obtain params via
// energy_params.NewEnergyParams(energy_params.Turner2004, celsius).
func NewTurnerModel(params *energy_params.EnergyParams) TurnerModel {
	return TurnerModel{params: params, minHairpinSize: 3}
}

// CanPair implements Model with Watson-Crick and wobble pairing.
func (m TurnerModel) CanPair(a, b structure.Base) bool {
	return energy_params.EncodeBasePair(baseByte(a), baseByte(b)) != energy_params.NoPair
}

// MinHairpinSize implements Model.
func (m TurnerModel) MinHairpinSize() int { return m.minHairpinSize }

func baseByte(b structure.Base) byte {
	switch b {
	case structure.A:
		return 'A'
	case structure.C:
		return 'C'
	case structure.G:
		return 'G'
	case structure.U:
		return 'U'
	default:
		return 'N'
	}
}

// EnergyOfLoop implements Model by dispatching on the loop's kind.
func (m TurnerModel) EnergyOfLoop(seq structure.Sequence, loop nnloop.Loop) int {
	switch loop.Kind() {
	case nnloop.Hairpin:
		closing, _ := loop.Closing()
		return m.hairpinEnergy(seq, closing)
	case nnloop.Interior:
		closing, _ := loop.Closing()
		return m.interiorEnergy(seq, closing, loop.Inner())
	case nnloop.Multibranch:
		closing, _ := loop.Closing()
		return m.multiLoopEnergy(seq, closing, loop.Branches(), loop)
	default: // Exterior
		return m.exteriorEnergy(seq, loop.Branches())
	}
}

func (m TurnerModel) pairType(seq structure.Sequence, i, j int) energy_params.BasePairType {
	return energy_params.EncodeBasePair(baseByte(seq[i]), baseByte(seq[j]))
}

func (m TurnerModel) nucCode(seq structure.Sequence, p int) int {
	return energy_params.NucleotideEncodedIntMap[baseByte(seq[p])]
}

// extrapolate applies the Jacobson-Stockmayer log-length correction
// for loops longer than the tabulated maximum.
func extrapolate(table []int, size int, lxc float64) int {
	if size <= energy_params.MaxLenLoop {
		return table[size]
	}
	return table[energy_params.MaxLenLoop] +
		int(lxc*math.Log(float64(size)/float64(energy_params.MaxLenLoop)))
}

func (m TurnerModel) hairpinEnergy(seq structure.Sequence, closing nnloop.Pair) int {
	i, j := closing.I, closing.J
	size := j - i - 1
	ep := m.params
	energy := extrapolate(ep.HairpinLoop, size, ep.LogExtrapolationConstant)

	basePairType := m.pairType(seq, i, j)
	if basePairType == energy_params.NoPair {
		return energy
	}
	fivePrime := m.nucCode(seq, i+1)
	threePrime := m.nucCode(seq, j-1)
	energy += ep.MismatchHairpinLoop[basePairType][fivePrime][threePrime]
	return energy
}

func (m TurnerModel) interiorEnergy(seq structure.Sequence, closing, inner nnloop.Pair) int {
	ep := m.params
	i, j := closing.I, closing.J
	k, l := inner.I, inner.J
	nbFivePrime := k - i - 1
	nbThreePrime := j - l - 1

	closingType := m.pairType(seq, i, j)
	innerType := m.pairType(seq, l, k) // read from the inner pair's own 5'->3' direction

	if nbFivePrime == 0 && nbThreePrime == 0 {
		if closingType == energy_params.NoPair || innerType == energy_params.NoPair {
			return 0
		}
		return ep.StackingPair[closingType][innerType]
	}

	if nbFivePrime == 0 || nbThreePrime == 0 {
		size := nbFivePrime + nbThreePrime
		energy := extrapolate(ep.Bulge, size, ep.LogExtrapolationConstant)
		if size == 1 && closingType != energy_params.NoPair && innerType != energy_params.NoPair {
			energy += ep.StackingPair[closingType][innerType]
		}
		if closingType == energy_params.AU || closingType == energy_params.UA {
			energy += ep.TerminalAUPenalty
		}
		if innerType == energy_params.AU || innerType == energy_params.UA {
			energy += ep.TerminalAUPenalty
		}
		return energy
	}

	size := nbFivePrime + nbThreePrime
	energy := extrapolate(ep.InteriorLoop, size, ep.LogExtrapolationConstant)
	asymmetry := nbFivePrime - nbThreePrime
	if asymmetry < 0 {
		asymmetry = -asymmetry
	}
	penalty := asymmetry * ep.Ninio
	if penalty > ep.MaxNinio {
		penalty = ep.MaxNinio
	}
	energy += penalty

	if closingType != energy_params.NoPair {
		closeFive := m.nucCode(seq, i+1)
		closeThree := m.nucCode(seq, j-1)
		energy += ep.MismatchInteriorLoop[closingType][closeFive][closeThree]
	}
	if innerType != energy_params.NoPair {
		innerFive := m.nucCode(seq, l+1)
		innerThree := m.nucCode(seq, k-1)
		energy += ep.MismatchInteriorLoop[innerType][innerFive][innerThree]
	}
	return energy
}

func (m TurnerModel) multiLoopEnergy(seq structure.Sequence, closing nnloop.Pair, branches []nnloop.Pair, loop nnloop.Loop) int {
	ep := m.params
	closingType := m.pairType(seq, closing.I, closing.J)

	energy := ep.MultiLoopClosingPenalty
	if closingType != energy_params.NoPair {
		energy += ep.MultiLoopIntern[closingType]
	}
	for _, b := range branches {
		bt := m.pairType(seq, b.I, b.J)
		if bt != energy_params.NoPair {
			energy += ep.MultiLoopIntern[bt]
		}
	}
	energy += ep.MultiLoopUnpairedNucleotideBonus * len(loop.UnpairedIndices(len(seq)))
	return energy
}

func (m TurnerModel) exteriorEnergy(seq structure.Sequence, branches []nnloop.Pair) int {
	ep := m.params
	energy := 0
	for _, b := range branches {
		bt := m.pairType(seq, b.I, b.J)
		if bt == energy_params.AU || bt == energy_params.UA {
			energy += ep.TerminalAUPenalty
		}
	}
	return energy
}
