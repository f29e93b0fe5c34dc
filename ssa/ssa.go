/*
Package ssa implements a Gillespie-style stochastic simulator layered
on a loopstructure.LoopStructure: Simulator maintains running
log-space flux sums partitioned into a per-pair deletion component and
a per-loop addition component, samples waiting times and reactions
from them, and repairs exactly the cache entries an applied move
touched. A consistency guard rebuilds the total from the partial sums
whenever an incremental log-space subtraction was too ill-conditioned
to trust.
*/
package ssa

import (
	"math"
	"math/rand"
	"sort"

	"github.com/fuzzyfold/foldkinetics/logspace"
	"github.com/fuzzyfold/foldkinetics/loopstructure"
	"github.com/fuzzyfold/foldkinetics/ratemodel"
)

// consistencyEpsilon bounds the acceptable drift between log_flux and
// a fresh logaddexp(pair_flux_log, loop_flux_log) before the simulator
// forces a full recomputation from the partitioned sums.
const consistencyEpsilon = 1e-6

// ReactionKind discriminates the two move families a Reaction can
// represent.
type ReactionKind int

const (
	Add ReactionKind = iota
	Del
)

func (k ReactionKind) String() string {
	if k == Add {
		return "Add"
	}
	return "Del"
}

// Reaction is one candidate move together with its cached log-rate.
type Reaction struct {
	Kind    ReactionKind
	I, J    int
	DeltaE  int
	LogRate float64
}

func newReaction(kind ReactionKind, model ratemodel.Model, i, j, deltaE int) Reaction {
	return Reaction{Kind: kind, I: i, J: j, DeltaE: deltaE, LogRate: model.LogRate(deltaE)}
}

// Callback is invoked once per accepted event, after the waiting time
// τ has been sampled but before the move is applied. Returning false
// tells Simulate to stop without applying the pending move.
type Callback func(t, tau, flux float64, ls *loopstructure.LoopStructure) bool

// Simulator drives one independent trajectory. It owns no RNG of its
// own; Simulate takes a *rand.Rand so callers can run many
// trajectories concurrently, each with its own private source, instead
// of serializing on the package-level generator.
type Simulator struct {
	ls    *loopstructure.LoopStructure
	model ratemodel.Model

	logFlux     float64
	pairFluxLog float64
	loopFluxLog float64

	perLoopFluxLog map[int]float64
	loopReactions  map[int][]Reaction
	pairReactions  map[int]Reaction
}

// New builds a Simulator by walking every cached move in ls and
// pricing it under model.
func New(ls *loopstructure.LoopStructure, model ratemodel.Model) *Simulator {
	s := &Simulator{
		ls:             ls,
		model:          model,
		perLoopFluxLog: make(map[int]float64),
		loopReactions:  make(map[int][]Reaction),
		pairReactions:  make(map[int]Reaction),
	}

	loopLogs := make([]float64, 0)
	for _, h := range ls.AllLoopHandles() {
		rxns, logFlux := s.buildLoopReactions(h)
		s.loopReactions[h] = rxns
		s.perLoopFluxLog[h] = logFlux
		loopLogs = append(loopLogs, logFlux)
	}
	s.loopFluxLog = logspace.LogSumExp(loopLogs)

	pairLogs := make([]float64, 0)
	for _, i := range ls.AllPairs() {
		j, _ := ls.PairOf(i)
		addDelta, _ := ls.PairNeighborDelta(i)
		rxn := newReaction(Del, model, i, j, -addDelta)
		s.pairReactions[i] = rxn
		pairLogs = append(pairLogs, rxn.LogRate)
	}
	s.pairFluxLog = logspace.LogSumExp(pairLogs)

	s.logFlux = logspace.LogAddExp(s.pairFluxLog, s.loopFluxLog)
	return s
}

func (s *Simulator) buildLoopReactions(h int) ([]Reaction, float64) {
	moves := s.ls.LoopNeighbors(h)
	rxns := make([]Reaction, len(moves))
	logs := make([]float64, len(moves))
	for idx, mv := range moves {
		rxns[idx] = newReaction(Add, s.model, mv.I, mv.J, mv.DeltaE)
		logs[idx] = rxns[idx].LogRate
	}
	return rxns, logspace.LogSumExp(logs)
}

// LogFlux returns the simulator's current total log-space exit flux
// (−∞ once no reaction remains legal).
func (s *Simulator) LogFlux() float64 { return s.logFlux }

func (s *Simulator) removeLoopReaction(h int) {
	lf, ok := s.perLoopFluxLog[h]
	if !ok {
		panic("ssa: removing flux for unknown loop handle")
	}
	delete(s.perLoopFluxLog, h)
	delete(s.loopReactions, h)
	if v, stable := safeSubtract(s.loopFluxLog, lf); stable {
		s.loopFluxLog = v
	} else {
		s.recomputeFromPartials()
	}
}

func (s *Simulator) insertLoopReaction(h int, rxns []Reaction) {
	logs := make([]float64, len(rxns))
	for i, r := range rxns {
		logs[i] = r.LogRate
	}
	lf := logspace.LogSumExp(logs)
	s.loopReactions[h] = rxns
	s.perLoopFluxLog[h] = lf
	s.loopFluxLog = logspace.LogAddExp(s.loopFluxLog, lf)
}

func (s *Simulator) removePairReactionIfPresent(i int) {
	rxn, ok := s.pairReactions[i]
	if !ok {
		return
	}
	delete(s.pairReactions, i)
	if v, stable := safeSubtract(s.pairFluxLog, rxn.LogRate); stable {
		s.pairFluxLog = v
	} else {
		s.recomputeFromPartials()
	}
}

func (s *Simulator) insertPairReaction(rxn Reaction) {
	s.pairReactions[rxn.I] = rxn
	s.pairFluxLog = logspace.LogAddExp(s.pairFluxLog, rxn.LogRate)
}

// safeSubtract wraps logspace.LogSubExp, reporting whether the
// subtraction was numerically well-conditioned per
// logspace.Unreliable, so the caller can trigger the consistency
// guard instead of trusting an unstable result.
func safeSubtract(a, b float64) (float64, bool) {
	if logspace.Unreliable(a, b) {
		return a, false
	}
	return logspace.LogSubExp(a, b), true
}

// recomputeFromPartials rebuilds loopFluxLog and pairFluxLog from
// scratch, the fallback for any update whose incremental log-space
// subtraction was numerically unreliable.
func (s *Simulator) recomputeFromPartials() {
	loopLogs := make([]float64, 0, len(s.perLoopFluxLog))
	for _, lf := range s.perLoopFluxLog {
		loopLogs = append(loopLogs, lf)
	}
	s.loopFluxLog = logspace.LogSumExp(loopLogs)

	pairLogs := make([]float64, 0, len(s.pairReactions))
	for _, r := range s.pairReactions {
		pairLogs = append(pairLogs, r.LogRate)
	}
	s.pairFluxLog = logspace.LogSumExp(pairLogs)
}

// sortedLoopHandles returns loop handles with cached reactions, in
// ascending order. Reaction sampling walks them in this fixed order so
// that a seeded RNG reproduces the same trajectory exactly.
func (s *Simulator) sortedLoopHandles() []int {
	handles := make([]int, 0, len(s.loopReactions))
	for h := range s.loopReactions {
		handles = append(handles, h)
	}
	sort.Ints(handles)
	return handles
}

func (s *Simulator) sortedPairKeys() []int {
	keys := make([]int, 0, len(s.pairReactions))
	for i := range s.pairReactions {
		keys = append(keys, i)
	}
	sort.Ints(keys)
	return keys
}

// Simulate runs the Gillespie loop until simulated time reaches tMax,
// the callback requests a stop, or flux vanishes. It returns the final
// simulated time.
func (s *Simulator) Simulate(rng *rand.Rand, tMax float64, callback Callback) float64 {
	t := 0.0

	for t < tMax {
		if math.IsInf(s.loopFluxLog, -1) && math.IsInf(s.pairFluxLog, -1) {
			return t
		}
		if !math.IsInf(s.pairFluxLog, -1) && !math.IsInf(s.loopFluxLog, -1) {
			fresh := logspace.LogAddExp(s.pairFluxLog, s.loopFluxLog)
			if math.Abs(fresh-s.logFlux) > consistencyEpsilon {
				s.recomputeFromPartials()
				s.logFlux = logspace.LogAddExp(s.pairFluxLog, s.loopFluxLog)
			}
		} else {
			s.logFlux = logspace.LogAddExp(s.pairFluxLog, s.loopFluxLog)
		}

		if math.IsInf(s.logFlux, -1) {
			return t
		}

		flux := math.Exp(s.logFlux)
		u := rng.Float64()
		tau := -math.Log(u) / flux

		if !callback(t, tau, flux, s.ls) {
			return t
		}
		t += tau

		u2 := rng.Float64()
		threshold := s.logFlux + math.Log(u2)
		s.applyReaction(s.sampleReaction(threshold))
	}

	return t
}

// sampleReaction walks pair reactions, then loop reactions, in
// deterministic order, log-sum-accumulating until the running
// accumulator reaches threshold.
func (s *Simulator) sampleReaction(threshold float64) Reaction {
	if s.pairFluxLog >= threshold && !math.IsInf(s.pairFluxLog, -1) {
		acc := logspace.NegInf
		for _, i := range s.sortedPairKeys() {
			rxn := s.pairReactions[i]
			acc = logspace.LogAddExp(acc, rxn.LogRate)
			if acc >= threshold {
				return rxn
			}
		}
		// Roundoff: fall through and return the last pair reaction seen.
		keys := s.sortedPairKeys()
		if len(keys) > 0 {
			return s.pairReactions[keys[len(keys)-1]]
		}
	}

	acc := s.pairFluxLog
	for _, h := range s.sortedLoopHandles() {
		lf := s.perLoopFluxLog[h]
		next := logspace.LogAddExp(acc, lf)
		if next >= threshold {
			inner := logspace.NegInf
			rxns := s.loopReactions[h]
			for _, rxn := range rxns {
				inner = logspace.LogAddExp(inner, rxn.LogRate)
				if logspace.LogAddExp(acc, inner) >= threshold {
					return rxn
				}
			}
			if len(rxns) > 0 {
				return rxns[len(rxns)-1]
			}
		}
		acc = next
	}
	panic("ssa: no reaction chosen despite positive flux")
}

// applyReaction invokes the matching LoopStructure mutator and patches
// every flux cache the returned edit-list names.
func (s *Simulator) applyReaction(rxn Reaction) {
	switch rxn.Kind {
	case Add:
		hCombo := s.ls.LoopHandle(rxn.I)
		s.removeLoopReaction(hCombo)

		edit := s.ls.ApplyAddMove(rxn.I, rxn.J)

		outerRxns, _ := s.buildLoopReactions(edit.OuterHandle)
		innerRxns, _ := s.buildLoopReactions(edit.InnerHandle)
		s.insertLoopReaction(edit.OuterHandle, outerRxns)
		s.insertLoopReaction(edit.InnerHandle, innerRxns)

		s.updatePairReactions(append([]loopstructure.PairChange{edit.NewPair}, edit.PairChanges...))

	case Del:
		j := rxn.J
		hOuterBefore := s.ls.LoopHandle(rxn.I)
		hInnerBefore := s.ls.LoopHandle(j)
		s.removePairReactionIfPresent(rxn.I)
		s.removeLoopReaction(hOuterBefore)
		s.removeLoopReaction(hInnerBefore)

		edit := s.ls.ApplyDelMove(rxn.I)

		combinedRxns, _ := s.buildLoopReactions(edit.Handle)
		s.insertLoopReaction(edit.Handle, combinedRxns)

		s.updatePairReactions(edit.PairChanges)
	}

	s.logFlux = logspace.LogAddExp(s.pairFluxLog, s.loopFluxLog)
}

// updatePairReactions replaces the deletion reaction for every changed
// pair (including, for an Add move, the newly formed pair itself, the
// caller prepends it as a PairChange) with a freshly priced one.
func (s *Simulator) updatePairReactions(changes []loopstructure.PairChange) {
	for _, c := range changes {
		s.removePairReactionIfPresent(c.I)
		rxn := newReaction(Del, s.model, c.I, c.J, -c.DeltaE)
		s.insertPairReaction(rxn)
	}
}
