package aco

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/antsurgery/scheduler/internal/surgery"
)

// SolverConfig is the full set of knobs the CLI surface (spec.md §6) maps
// onto one Solve call.
type SolverConfig struct {
	Colony                 Config
	Ant                    AntConfig
	RoomsCount             int
	MaxRounds              int
	MaxRoundsWithoutImprov int
	Target                 float64
	Seed                   int64
	ProgressEvery          int
}

// Result is the outcome of one complete solve: the best objective found,
// the round it was found at, the schedule that achieved it, and total
// elapsed wall-clock time.
type Result struct {
	BestObjective float64
	BestRound     int
	BestSchedule  []WeekResult
	Elapsed       time.Duration
}

// Solve runs the round loop: dispatch a round to the colony, track
// best-so-far, and stop when the target is reached or improvement stalls.
func Solve(cfg SolverConfig, bin []surgery.Surgery, log *zap.SugaredLogger) (Result, error) {
	runID := uuid.NewString()[:8]
	log = log.With("run_id", runID)

	colony, err := NewAntColony(cfg.Colony, cfg.Ant, bin, cfg.Seed, log)
	if err != nil {
		return Result{}, fmt.Errorf("InstanceLoad/EmptyBin: %w", err)
	}

	start := time.Now()
	best := Result{BestObjective: math.Inf(1)}

	for round := 1; round <= cfg.MaxRounds; round++ {
		res, err := colony.Round(round)
		if err != nil {
			colony.Shutdown()
			return Result{}, err
		}

		if res.Objective < best.BestObjective {
			best.BestObjective = res.Objective
			best.BestRound = round
			best.BestSchedule = res.Weeks
		}

		if round%cfg.progressEveryOrDefault() == 0 {
			log.Infow("round progress", "round", round, "best_objective", best.BestObjective, "elapsed", time.Since(start))
		}

		if best.BestObjective <= cfg.Target {
			log.Infow("target reached", "round", round, "objective", best.BestObjective)
			break
		}
		if round-best.BestRound > cfg.MaxRoundsWithoutImprov {
			log.Infow("stalled, stopping", "round", round, "best_round", best.BestRound)
			break
		}
	}

	colony.Shutdown()
	best.Elapsed = time.Since(start)
	return best, nil
}

// progressEveryOrDefault returns the configured progress-log interval, or
// spec.md §7's "every 100 rounds" default when unset.
func (c SolverConfig) progressEveryOrDefault() int {
	if c.ProgressEvery <= 0 {
		return 100
	}
	return c.ProgressEvery
}

// SolutionRow is one row of the solution CSV format of spec.md §6: surgery
// id, room, global day, start slot.
type SolutionRow struct {
	SurgeryID surgery.ID
	Room      int
	Day       int
	Start     uint8
}

// Flatten walks every week/day/room of weeks and returns every scheduled
// surgery's placement as a SolutionRow, sorted ascending by surgery id.
func Flatten(weeks []WeekResult) []SolutionRow {
	var rows []SolutionRow
	for weekIndex, wr := range weeks {
		for dayIndex, day := range wr.Week.Days {
			globalDay := 1 + dayIndex + 7*weekIndex
			for roomIndex, room := range day.Rooms {
				for i, s := range room.Surgeries {
					rows = append(rows, SolutionRow{
						SurgeryID: s.ID,
						Room:      roomIndex,
						Day:       globalDay,
						Start:     room.Schedule[i].Range.Start,
					})
				}
			}
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].SurgeryID < rows[j].SurgeryID })
	return rows
}
