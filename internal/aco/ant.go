package aco

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/antsurgery/scheduler/internal/schedule"
	"github.com/antsurgery/scheduler/internal/surgery"
)

// FitnessMode selects which of an ant's completed weeks contribute to the
// fitness it reports. spec.md §9 leaves this an open question; FirstWeekOnly
// preserves the original's behavior of scoring solely on the first week.
type FitnessMode int

const (
	FitnessFirstWeekOnly FitnessMode = iota
	FitnessSumAllWeeks
)

// AntConfig is the read-only configuration shared by every ant in a colony.
type AntConfig struct {
	RoomsCount  int
	MaxWait     schedule.WaitTable
	Penalties   schedule.PenaltyTable
	Alpha       float64
	Beta        float64
	FitnessMode FitnessMode
}

// WeekResult pairs a completed week with its evaluated objective.
type WeekResult struct {
	Week      *schedule.Week
	Objective float64
}

// PathStep is one (prev, next) edge a single ant followed during
// construction; pheromones are keyed on these pairs.
type PathStep struct {
	Prev surgery.ID
	Next surgery.ID
}

// Solution is the outcome of one ant's full construction: its reported
// fitness, every week it built, and the path it followed.
type Solution struct {
	Objective float64
	Weeks     []WeekResult
	Path      []PathStep
}

// Ant is the constructive agent that grows one full schedule by repeatedly
// choosing the next surgery under probabilistic pheromone-plus-heuristic
// weighting.
type Ant struct {
	cfg            AntConfig
	rng            *rand.Rand
	bin            []surgery.Surgery
	path           []PathStep
	currentWeek    *schedule.Week
	pastWeeks      []WeekResult
	currentSurgery *surgery.ID
}

// NewAnt returns an ant ready to construct one schedule over bin (which is
// copied — the caller's slice is never mutated).
func NewAnt(cfg AntConfig, bin []surgery.Surgery, rng *rand.Rand) *Ant {
	own := make([]surgery.Surgery, len(bin))
	copy(own, bin)
	return &Ant{
		cfg:         cfg,
		rng:         rng,
		bin:         own,
		currentWeek: schedule.NewWeek(cfg.RoomsCount),
	}
}

// removeFromBin removes the surgery with the given id from the bin,
// preserving order of the rest.
func (a *Ant) removeFromBin(id surgery.ID) surgery.Surgery {
	for i, s := range a.bin {
		if s.ID == id {
			removed := s
			a.bin = append(a.bin[:i], a.bin[i+1:]...)
			return removed
		}
	}
	panic("aco: surgery not present in bin")
}

// rolloverIfFull finalizes the current week (recording its objective) and
// opens a fresh one for as long as the current week cannot take any
// remaining surgery, matching spec.md §4.4 step 2's "if current_week.is_full
// after this placement" transition. A surgery that cannot fit any day of a
// brand new, otherwise-empty week (e.g. its duration alone exceeds a
// surgeon's daily budget) can never fit any week ever, so rolling over again
// would just repeat forever — that is a CapacityOverflow invariant breach on
// the input data, and per spec.md §7 it fails fast instead of looping.
func (a *Ant) rolloverIfFull() {
	for len(a.bin) > 0 && a.currentWeek.IsFull(a.bin) {
		if len(a.currentWeek.Days) == 0 {
			panic(fmt.Sprintf("CapacityOverflow: %d remaining surgeries cannot be scheduled in any week", len(a.bin)))
		}
		obj := a.currentWeek.ObjectiveFunction(a.bin, a.cfg.MaxWait, a.cfg.Penalties, len(a.pastWeeks))
		a.pastWeeks = append(a.pastWeeks, WeekResult{Week: a.currentWeek, Objective: obj})
		a.currentWeek = schedule.NewWeek(a.cfg.RoomsCount)
	}
}

// chooseFirstSurgery samples the very first surgery of the whole
// construction from the candidates the (empty) current week can actually
// admit, weighted 2.0 for priority-1 surgeries and 1.0 otherwise, and
// schedules the chosen one. Sampling from the unfiltered bin would let a
// surgery that can never be scheduled (spec.md §8's CapacityOverflow case)
// through as the very first pick.
func (a *Ant) chooseFirstSurgery() {
	available := a.currentWeek.FilterAvailable(a.bin)
	if len(available) == 0 {
		panic("CapacityOverflow: no surgery in the bin can be scheduled in an empty week")
	}

	weights := make([]float64, len(available))
	for i, s := range available {
		if s.Priority == surgery.PriorityUrgent {
			weights[i] = 2.0
		} else {
			weights[i] = 1.0
		}
	}
	idx := weightedChoice(a.rng, weights)
	chosen := available[idx]

	a.currentWeek.Schedule(chosen)
	a.removeFromBin(chosen.ID)
	id := chosen.ID
	a.currentSurgery = &id
	a.rolloverIfFull()
}

// signedPow preserves the sign of base through exponentiation by a
// non-integer exponent, which math.Pow cannot do for a negative base. This
// is how this implementation resolves spec.md §9's "heuristic with negative
// values" note: η may be negative (moving a surgery may worsen the
// objective), and η^β must still be a real, sign-preserving number before
// the w′(c) = (w(c) − min_c w(c)) + 0.1 shift makes every candidate's weight
// strictly positive.
func signedPow(base, exp float64) float64 {
	if base < 0 {
		return -math.Pow(-base, exp)
	}
	return math.Pow(base, exp)
}

// subsequentStep implements spec.md §4.4 step 2: evaluate every available
// candidate's marginal improvement via a reversible schedule/unschedule,
// weight it by pheromone and heuristic, and sample the next surgery.
func (a *Ant) subsequentStep(round int, rho float64, pheromones PheromoneMap) {
	available := a.currentWeek.FilterAvailable(a.bin)

	j0 := a.currentWeek.ObjectiveFunction(a.bin, a.cfg.MaxWait, a.cfg.Penalties, len(a.pastWeeks))

	etas := make([]float64, len(available))
	for i, c := range available {
		tok := a.currentWeek.Schedule(c)
		jc := a.currentWeek.ObjectiveFunction(a.bin, a.cfg.MaxWait, a.cfg.Penalties, len(a.pastWeeks))
		a.currentWeek.Unschedule(tok, c)
		etas[i] = j0 - jc
	}

	weights := make([]float64, len(available))
	minWeight := math.Inf(1)
	for i, c := range available {
		key := PheromoneKey{Prev: *a.currentSurgery, Next: c.ID}
		tau := pheromones.Lookup(key, round, rho)
		w := math.Pow(tau, a.cfg.Alpha) * signedPow(etas[i], a.cfg.Beta)
		weights[i] = w
		if w < minWeight {
			minWeight = w
		}
	}
	for i := range weights {
		weights[i] = (weights[i] - minWeight) + 0.1
	}

	idx := weightedChoice(a.rng, weights)
	next := available[idx]

	a.path = append(a.path, PathStep{Prev: *a.currentSurgery, Next: next.ID})
	a.currentWeek.Schedule(next)
	a.removeFromBin(next.ID)
	id := next.ID
	a.currentSurgery = &id

	a.rolloverIfFull()
}

// Construct grows one full schedule, consulting pheromones (snapshotted for
// this round) plus the marginal-cost heuristic at every step, and returns
// the resulting Solution.
func (a *Ant) Construct(round int, rho float64, pheromones PheromoneMap) Solution {
	for len(a.bin) > 0 {
		if a.currentSurgery == nil {
			a.chooseFirstSurgery()
		} else {
			a.subsequentStep(round, rho, pheromones)
		}
	}

	finalObj := a.currentWeek.ObjectiveFunction(a.bin, a.cfg.MaxWait, a.cfg.Penalties, len(a.pastWeeks))
	a.pastWeeks = append(a.pastWeeks, WeekResult{Week: a.currentWeek, Objective: finalObj})

	fitness := a.pastWeeks[0].Objective
	if a.cfg.FitnessMode == FitnessSumAllWeeks {
		fitness = 0
		for _, w := range a.pastWeeks {
			fitness += w.Objective
		}
	}

	return Solution{Objective: fitness, Weeks: a.pastWeeks, Path: a.path}
}

// weightedChoice samples an index in [0, len(weights)) proportionally to
// weights via cumulative-sum sampling. Every weight must be >= 0 except
// that, by construction, the shift in subsequentStep guarantees this; a
// degenerate all-zero input falls back to uniform choice.
func weightedChoice(rng *rand.Rand, weights []float64) int {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return rng.Intn(len(weights))
	}
	target := rng.Float64() * sum
	var acc float64
	for i, w := range weights {
		acc += w
		if target < acc {
			return i
		}
	}
	return len(weights) - 1
}
