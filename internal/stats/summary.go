// Package stats summarizes the objective and duration of repeated solver
// runs (spec.md §6's -N N_EXECUTIONS and §7's "summary at end with min /
// median / max / mean ± stddev" requirement).
package stats

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// Summary is the min/median/max/mean ± population stddev of one series of
// samples (objectives across N_EXECUTIONS, or run durations in seconds).
type Summary struct {
	Min    float64
	Median float64
	Max    float64
	Mean   float64
	StdDev float64
}

// Summarize computes a Summary over samples. It returns an error only if
// samples is empty — every other montanaflynn/stats call here is on a
// non-empty slice and cannot fail.
func Summarize(samples []float64) (Summary, error) {
	if len(samples) == 0 {
		return Summary{}, fmt.Errorf("stats: no samples to summarize")
	}

	data := stats.LoadRawData(samples)

	min, err := data.Min()
	if err != nil {
		return Summary{}, err
	}
	max, err := data.Max()
	if err != nil {
		return Summary{}, err
	}
	median, err := data.Median()
	if err != nil {
		return Summary{}, err
	}
	mean, err := data.Mean()
	if err != nil {
		return Summary{}, err
	}
	stddev, err := data.StandardDeviation()
	if err != nil {
		return Summary{}, err
	}

	return Summary{Min: min, Median: median, Max: max, Mean: mean, StdDev: stddev}, nil
}

// String renders a Summary the way the acosurgeries command's end-of-run
// report prints it.
func (s Summary) String() string {
	return fmt.Sprintf("min=%.4f median=%.4f max=%.4f mean=%.4f stddev=%.4f", s.Min, s.Median, s.Max, s.Mean, s.StdDev)
}
