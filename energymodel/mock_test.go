package energymodel

import (
	"testing"

	"github.com/fuzzyfold/foldkinetics/nnloop"
	"github.com/fuzzyfold/foldkinetics/structure"
)

func TestMockModelCanPair(t *testing.T) {
	m := MockModel{}
	cases := []struct {
		a, b structure.Base
		want bool
	}{
		{structure.A, structure.U, true},
		{structure.U, structure.A, true},
		{structure.C, structure.G, true},
		{structure.G, structure.U, true},
		{structure.A, structure.C, false},
		{structure.G, structure.A, false},
	}
	for _, c := range cases {
		if got := m.CanPair(c.a, c.b); got != c.want {
			t.Errorf("CanPair(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestMockModelEnergyByKind(t *testing.T) {
	m := MockModel{}
	seq := structure.Sequence{structure.G, structure.C, structure.C, structure.C, structure.C, structure.G, structure.G, structure.U, structure.C, structure.A}
	hairpin := nnloop.NewHairpin(nnloop.Pair{I: 0, J: 9})
	if got := m.EnergyOfLoop(seq, hairpin); got != 450 {
		t.Errorf("Hairpin energy = %d, want 450", got)
	}
	interior := nnloop.NewInterior(nnloop.Pair{I: 0, J: 9}, nnloop.Pair{I: 2, J: 7})
	if got := m.EnergyOfLoop(seq, interior); got != -200 {
		t.Errorf("Interior energy = %d, want -200", got)
	}
	ext := nnloop.NewExterior(nil)
	if got := m.EnergyOfLoop(seq, ext); got != 0 {
		t.Errorf("Exterior energy = %d, want 0", got)
	}
}
