/*
Package macrostate implements named macrostates for occupancy
tracking: an ordered list of labeled structure pools, each an explicit
set of dot-bracket structures, with an implicit "Unassigned"
macrostate at index 0 for anything that matches none of them.

Fingerprinting uses lukechampine.com/blake3 to give short,
deterministic identifiers to both a single dot-bracket structure
(Fingerprint, printed on ff-trajectory's per-event lines) and a whole
macrostate's structure pool (Registry.Fingerprint, the id column of
package timeline's occupancy output).
*/
package macrostate

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"lukechampine.com/blake3"

	"github.com/fuzzyfold/foldkinetics/energymodel"
	"github.com/fuzzyfold/foldkinetics/loopstructure"
	"github.com/fuzzyfold/foldkinetics/ratemodel"
	"github.com/fuzzyfold/foldkinetics/structure"
)

// Unassigned is the index of the implicit catch-all macrostate every
// Registry starts with: structures matching none of the loaded
// macrostates classify here.
const Unassigned = 0

// Registry holds an ordered list of macrostates; index 0 is always the
// implicit "Unassigned" macrostate.
type Registry struct {
	states []*state
}

type state struct {
	name        string
	pool        []structure.DotBracket
	lookup      map[structure.DotBracket]int
	fingerprint string
	energy      *float64
}

// NewRegistry builds a Registry containing only the implicit
// Unassigned macrostate at index 0.
func NewRegistry() *Registry {
	return &Registry{states: []*state{{
		name:        "Unassigned",
		lookup:      make(map[structure.DotBracket]int),
		fingerprint: poolFingerprint(nil),
	}}}
}

// Load parses a FASTA-like macrostate file (">name" header, sequence
// line, then one dot-bracket structure per line, blank lines and '#'
// comments ignored) and appends it as a new macrostate. seq must match
// the sequence line exactly; a mismatch is a parse error, not a
// silent truncation. If model is non-nil, the macrostate's Boltzmann
// free energy over its structure pool is computed immediately and
// cached at the given Celsius temperature.
func (r *Registry) Load(rd io.Reader, source string, seq structure.Sequence, model energymodel.Model, celsius float64) error {
	scanner := bufio.NewScanner(rd)

	if !scanner.Scan() {
		return fmt.Errorf("macrostate: %s: missing header line", source)
	}
	header := strings.TrimSpace(scanner.Text())
	name, ok := strings.CutPrefix(header, ">")
	if !ok {
		return fmt.Errorf("macrostate: %s: header line must start with '>'", source)
	}
	name = strings.TrimSpace(name)

	if !scanner.Scan() {
		return fmt.Errorf("macrostate: %s: missing sequence line", source)
	}
	seqLine := strings.TrimSpace(scanner.Text())
	fileSeq, err := structure.ParseSequence(seqLine)
	if err != nil {
		return fmt.Errorf("macrostate: %s: %w", source, err)
	}
	if !sequencesEqual(fileSeq, seq) {
		return fmt.Errorf("macrostate: %s: sequence %q does not match the input sequence", source, seqLine)
	}

	st := &state{name: name, lookup: make(map[structure.DotBracket]int)}
	lineno := 2
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		db := structure.DotBracket(line)
		if _, err := structure.ParsePairTable(db); err != nil {
			return fmt.Errorf("macrostate: %s: line %d: %w", source, lineno, err)
		}
		if _, dup := st.lookup[db]; !dup {
			st.lookup[db] = len(st.pool)
			st.pool = append(st.pool, db)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("macrostate: %s: %w", source, err)
	}
	if len(st.pool) == 0 {
		return fmt.Errorf("macrostate: %s: no structures found", source)
	}
	st.fingerprint = poolFingerprint(st.pool)

	if model != nil {
		e := boltzmannFreeEnergy(st.pool, seq, model, celsius+ratemodel.KelvinOffset)
		st.energy = &e
	}

	r.states = append(r.states, st)
	return nil
}

func sequencesEqual(a, b structure.Sequence) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// boltzmannFreeEnergy computes -RT ln(sum_i exp(-E_i/RT)) over the
// macrostate's structure pool: a partition function restricted to the
// finite pool rather than the full ensemble.
func boltzmannFreeEnergy(pool []structure.DotBracket, seq structure.Sequence, model energymodel.Model, kelvinT float64) float64 {
	rt := ratemodel.BoltzmannConstant * kelvinT
	qSum := 0.0
	for _, db := range pool {
		pt, err := structure.ParsePairTable(db)
		if err != nil {
			panic(fmt.Sprintf("macrostate: invalid dot-bracket %q survived Load validation", db))
		}
		en := float64(loopstructure.EnergyOfStructure(seq, pt, model)) / 100.0
		qSum += math.Exp(-en / rt)
	}
	return -rt * math.Log(qSum)
}

// Name returns the macrostate's label.
func (r *Registry) Name(idx int) string { return r.states[idx].name }

// Energy returns the macrostate's cached Boltzmann free energy and
// whether one was computed (Load was given a non-nil model).
func (r *Registry) Energy(idx int) (float64, bool) {
	e := r.states[idx].energy
	if e == nil {
		return 0, false
	}
	return *e, true
}

// Len returns the number of macrostates, including the implicit
// Unassigned one at index 0.
func (r *Registry) Len() int { return len(r.states) }

// Classify returns the index of the macrostate containing db. Returns
// Unassigned (0) if no macrostate's pool contains db. Panics if db
// belongs to more than one macrostate: overlapping macrostates are
// ambiguous and are not silently resolved.
func (r *Registry) Classify(db structure.DotBracket) int {
	match := -1
	for i := 1; i < len(r.states); i++ {
		if _, ok := r.states[i].lookup[db]; ok {
			if match != -1 {
				panic(fmt.Sprintf("macrostate: structure %q belongs to both macrostate %q and %q", db, r.states[match].name, r.states[i].name))
			}
			match = i
		}
	}
	if match == -1 {
		return Unassigned
	}
	return match
}

// Fingerprint returns the macrostate's stable identifier, derived
// from its structure pool. It survives renames and reordering of the
// registry, which the positional index does not.
func (r *Registry) Fingerprint(idx int) string { return r.states[idx].fingerprint }

// poolFingerprint hashes a structure pool, in load order, into a
// short hex identifier.
func poolFingerprint(pool []structure.DotBracket) string {
	h := blake3.New(32, nil)
	for _, db := range pool {
		h.Write([]byte(db))
		h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%x", h.Sum(nil)[:8])
}

// Fingerprint returns a short, deterministic hex identifier for a
// single dot-bracket structure, suitable for labeling per-event
// output rows.
func Fingerprint(db structure.DotBracket) string {
	sum := blake3.Sum256([]byte(db))
	return fmt.Sprintf("%x", sum[:8])
}
