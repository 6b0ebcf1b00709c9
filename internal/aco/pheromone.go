// Package aco implements the ant colony optimization engine: the per-ant
// constructive procedure (Ant), the parallel colony that runs many ants per
// round and maintains the pheromone trail (AntColony), and the outer round
// loop with stopping rules (Solver).
package aco

import (
	"math"

	"github.com/antsurgery/scheduler/internal/surgery"
)

// PheromoneKey is an ordered pair of surgery ids, as they appear in a
// followed path: Prev was scheduled immediately before Next.
type PheromoneKey struct {
	Prev surgery.ID
	Next surgery.ID
}

// PheromoneMap holds deposited pheromone levels. A key absent from the map
// implicitly equals DefaultPheromone(round, rho); the map is never expected
// to carry that default explicitly.
type PheromoneMap map[PheromoneKey]float64

// DefaultPheromone is the implicit pheromone level of any pair that has
// never received a deposit, which decays round over round exactly as a
// pair that received one deposit at round 0 and evaporated ever since.
// Callers must ensure 0 < rho < 1; otherwise this diverges (spec.md §9).
func DefaultPheromone(round int, rho float64) float64 {
	return math.Pow(1-rho, float64(round-1))
}

// Lookup returns the pheromone level for key, falling back to
// DefaultPheromone when key has never been deposited on.
func (m PheromoneMap) Lookup(key PheromoneKey, round int, rho float64) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return DefaultPheromone(round, rho)
}

// Clone returns an independent copy, used to hand workers a read-only
// snapshot that the main thread is free to keep mutating after dispatch.
func (m PheromoneMap) Clone() PheromoneMap {
	clone := make(PheromoneMap, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}
