/*
Package timeline implements occupancy bookkeeping over sampling times,
consumed from the SSA callback: a Timepoint per sampling time
accumulating macrostate hit counts across many trajectories, and a
Timeline tying those points to a shared macrostate.Registry.

A Recorder wraps a Timeline with the single piece of mutable
trajectory-local state (which sampling time comes next) that the SSA
callback needs, so ff-timecourse's callback closure can stay a one-line
call to Recorder.Observe.
*/
package timeline

import (
	"fmt"
	"io"
	"sort"

	"github.com/fuzzyfold/foldkinetics/loopstructure"
	"github.com/fuzzyfold/foldkinetics/macrostate"
)

// Timepoint accumulates macrostate hit counts across many independent
// trajectories, all observed at the same absolute simulated time.
type Timepoint struct {
	Time   float64
	counts map[int]int
	Total  int
}

func newTimepoint(t float64) *Timepoint {
	return &Timepoint{Time: t, counts: make(map[int]int)}
}

// Add records one more trajectory landing in macrostate idx at this
// timepoint.
func (tp *Timepoint) Add(idx int) {
	tp.counts[idx]++
	tp.Total++
}

// Count returns the number of trajectories observed in macrostate idx
// at this timepoint.
func (tp *Timepoint) Count(idx int) int { return tp.counts[idx] }

// Occupancy returns the fraction of observed trajectories in
// macrostate idx at this timepoint, 0 if nothing has been recorded
// yet.
func (tp *Timepoint) Occupancy(idx int) float64 {
	if tp.Total == 0 {
		return 0
	}
	return float64(tp.counts[idx]) / float64(tp.Total)
}

// Indices returns the macrostate indices with at least one hit, in
// ascending order.
func (tp *Timepoint) Indices() []int {
	out := make([]int, 0, len(tp.counts))
	for idx := range tp.counts {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// Timeline is one Timepoint per sampling time, all classified against
// the same macrostate.Registry.
type Timeline struct {
	Registry *macrostate.Registry
	Points   []*Timepoint
}

// New builds an empty Timeline: one Timepoint per entry in times
// (which must already be sorted ascending; sampling times are sampled
// in order by Recorder.Observe) sharing registry.
func New(times []float64, registry *macrostate.Registry) *Timeline {
	points := make([]*Timepoint, len(times))
	for i, t := range times {
		points[i] = newTimepoint(t)
	}
	return &Timeline{Registry: registry, Points: points}
}

// Merge folds other's counts into tl, timepoint by timepoint. Both
// timelines must share the same registry and sampling-time grid: this
// is how independent trajectories run in separate LoopStructure/SSA
// instances combine their occupancy statistics.
func (tl *Timeline) Merge(other *Timeline) {
	if tl.Registry != other.Registry {
		panic("timeline: cannot merge timelines built from different macrostate registries")
	}
	if len(tl.Points) != len(other.Points) {
		panic("timeline: cannot merge timelines with different numbers of sampling times")
	}
	for i, tp := range other.Points {
		for _, idx := range tp.Indices() {
			tl.Points[i].counts[idx] += tp.counts[idx]
		}
		tl.Points[i].Total += tp.Total
	}
}

// WriteOccupancies renders one row per (timepoint, macrostate) pair
// actually observed, sorted by time then by the macrostate's cached
// free energy (unassigned-energy macrostates sort last). The id
// column carries the macrostate's pool fingerprint, a stable
// identifier across runs with renamed or reordered macrostate files.
func (tl *Timeline) WriteOccupancies(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%13s %16s %12s %10s %25s\n", "time", "id", "occupancy", "energy", "macrostate"); err != nil {
		return err
	}
	for _, tp := range tl.Points {
		indices := tp.Indices()
		sort.SliceStable(indices, func(a, b int) bool {
			ea, okA := tl.Registry.Energy(indices[a])
			eb, okB := tl.Registry.Energy(indices[b])
			switch {
			case okA && okB:
				return ea < eb
			case okA:
				return true
			case okB:
				return false
			default:
				return false
			}
		})
		for _, idx := range indices {
			occ := tp.Occupancy(idx)
			energyCol := "N/A"
			if e, ok := tl.Registry.Energy(idx); ok {
				energyCol = fmt.Sprintf("%10.2f", e)
			}
			if _, err := fmt.Fprintf(w, "%13.9f %16s %12.8f %10s %25s\n",
				tp.Time, tl.Registry.Fingerprint(idx), occ, energyCol, tl.Registry.Name(idx)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Recorder is consumed from the SSA callback: it tracks which sampling
// time comes next for one trajectory and classifies/records the
// structure each time simulated time crosses one.
type Recorder struct {
	tl   *Timeline
	next int
}

// NewRecorder builds a Recorder over tl's sampling-time grid, starting
// at the first timepoint.
func NewRecorder(tl *Timeline) *Recorder {
	return &Recorder{tl: tl}
}

// Observe is called from the SSA callback with the current structure
// and the time t up to which that structure holds (the callback's
// t + tau). It advances through every sampling time that t has reached
// or passed, recording the structure's macrostate at each (the
// structure is constant between events, so the same dot-bracket is
// recorded at every sampling time within one inter-event interval).
// Returns false once every sampling time has been recorded, the signal
// a caller can use to stop the simulation early.
func (r *Recorder) Observe(t float64, ls *loopstructure.LoopStructure) bool {
	if r.next >= len(r.tl.Points) {
		return false
	}
	db := ls.ToDotBracket()
	for r.next < len(r.tl.Points) && t >= r.tl.Points[r.next].Time {
		idx := r.tl.Registry.Classify(db)
		r.tl.Points[r.next].Add(idx)
		r.next++
	}
	return r.next < len(r.tl.Points)
}

// Done reports whether every sampling time has been recorded.
func (r *Recorder) Done() bool { return r.next >= len(r.tl.Points) }
