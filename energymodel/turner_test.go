package energymodel

import (
	"testing"

	"github.com/fuzzyfold/foldkinetics/energy_params"
	"github.com/fuzzyfold/foldkinetics/nnloop"
	"github.com/fuzzyfold/foldkinetics/structure"
)

// Tests build a small synthetic EnergyParams by hand instead of
// loading a full parameter set: expectations stay readable, and the
// formulas under test are independent of which table fills the
// entries.
func syntheticParams() *energy_params.EnergyParams {
	nb := energy_params.NbDistinguishableBasePairs
	nn := energy_params.NbDistinguishableNucleotides + 1

	mat2 := func(fill int) [][]int {
		m := make([][]int, nb)
		for i := range m {
			m[i] = make([]int, nb)
			for j := range m[i] {
				m[i][j] = fill
			}
		}
		return m
	}
	mat2nn := func(fill int) [][]int {
		m := make([][]int, nb)
		for i := range m {
			m[i] = make([]int, nn)
			for j := range m[i] {
				m[i][j] = fill
			}
		}
		return m
	}
	mat3 := func(fill int) [][][]int {
		m := make([][][]int, nb)
		for i := range m {
			m[i] = make([][]int, nn)
			for j := range m[i] {
				m[i][j] = make([]int, nn)
				for k := range m[i][j] {
					m[i][j][k] = fill
				}
			}
		}
		return m
	}
	slice := func(n, fill int) []int {
		s := make([]int, n)
		for i := range s {
			s[i] = fill
		}
		return s
	}

	return &energy_params.EnergyParams{
		StackingPair:                      mat2(-200),
		HairpinLoop:                       slice(energy_params.MaxLenLoop+1, 500),
		Bulge:                             slice(energy_params.MaxLenLoop+1, 380),
		InteriorLoop:                      slice(energy_params.MaxLenLoop+1, 110),
		MismatchInteriorLoop:              mat3(0),
		Mismatch1xnInteriorLoop:           mat3(0),
		Mismatch2x3InteriorLoop:           mat3(0),
		MismatchExteriorLoop:              mat3(0),
		MismatchHairpinLoop:               mat3(-50),
		MismatchMultiLoop:                 mat3(0),
		DanglingEndsFivePrime:             mat2nn(0),
		DanglingEndsThreePrime:            mat2nn(0),
		Interior1x1Loop:                   nil,
		Interior2x1Loop:                   nil,
		Interior2x2Loop:                   nil,
		LogExtrapolationConstant:          107.856,
		MultiLoopUnpairedNucleotideBonus:  0,
		MultiLoopClosingPenalty:           340,
		TerminalAUPenalty:                 50,
		Ninio:                             30,
		MultiLoopIntern:                   slice(nb, 40),
		TetraLoop:                         map[string]int{},
		TriLoop:                           map[string]int{},
		HexaLoop:                          map[string]int{},
		MaxNinio:                          300,
	}
}

func TestTurnerHairpinEnergy(t *testing.T) {
	m := NewTurnerModel(syntheticParams())
	seq, err := structure.ParseSequence("GCCCCGGUCC")
	if err != nil {
		t.Fatalf("ParseSequence: %v", err)
	}
	loop := nnloop.NewHairpin(nnloop.Pair{I: 0, J: 9})
	// size = 8 unpaired, within table range: HairpinLoop[8] (500) + mismatch (-50).
	want := 500 - 50
	if got := m.EnergyOfLoop(seq, loop); got != want {
		t.Errorf("hairpin energy = %d, want %d", got, want)
	}
}

func TestTurnerStackEnergy(t *testing.T) {
	m := NewTurnerModel(syntheticParams())
	seq, err := structure.ParseSequence("GGCCCCGGCC")
	if err != nil {
		t.Fatalf("ParseSequence: %v", err)
	}
	loop := nnloop.NewInterior(nnloop.Pair{I: 0, J: 9}, nnloop.Pair{I: 1, J: 8})
	if got := m.EnergyOfLoop(seq, loop); got != -200 {
		t.Errorf("stack energy = %d, want -200", got)
	}
}

func TestTurnerMultiLoopEnergy(t *testing.T) {
	m := NewTurnerModel(syntheticParams())
	seq, err := structure.ParseSequence("GGGGAAACCCCAAACCCCAAACCC")
	if err != nil {
		t.Fatalf("ParseSequence: %v", err)
	}
	loop := nnloop.NewMultibranch(nnloop.Pair{I: 0, J: 23}, []nnloop.Pair{{I: 4, J: 10}, {I: 14, J: 20}})
	got := m.EnergyOfLoop(seq, loop)
	if got <= 0 {
		t.Errorf("multiloop energy = %d, want a positive affine penalty", got)
	}
}
