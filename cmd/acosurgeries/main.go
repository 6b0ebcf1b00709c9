// Command acosurgeries is the command-line front-end described in spec.md
// §6: it loads an instance CSV, runs the ACO solver N_EXECUTIONS times,
// writes the best solution CSV found across all runs, and prints a
// min/median/max/mean ± stddev summary of objectives and durations.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/antsurgery/scheduler/internal/aco"
	"github.com/antsurgery/scheduler/internal/instance"
	"github.com/antsurgery/scheduler/internal/schedule"
	"github.com/antsurgery/scheduler/internal/stats"
	"github.com/antsurgery/scheduler/internal/surgery"
)

// defaultMaxWait and defaultPenalties are the priority-indexed constants the
// original Rust implementation (fogodev/aco_surgeries) hardcodes in main.rs:
// urgent surgeries must wait no more than 3 days, and missing that deadline
// is penalized 90x as hard as missing a low-priority one.
var defaultMaxWait = schedule.WaitTable{
	surgery.PriorityUrgent: 3,
	surgery.PriorityHigh:   15,
	surgery.PriorityMedium: 60,
	surgery.PriorityLow:    365,
}

var defaultPenalties = schedule.PenaltyTable{
	surgery.PriorityUrgent: 90,
	surgery.PriorityHigh:   20,
	surgery.PriorityMedium: 5,
	surgery.PriorityLow:    1,
}

type cliFlags struct {
	file            string
	ants            int
	threads         int
	rooms           int
	alpha           float64
	beta            float64
	elitism         float64
	deposit         float64
	evaporation     float64
	maxRounds       int
	maxRoundsImprov int
	target          float64
	executions      int
	saveDurations   bool
}

func parseFlags() cliFlags {
	var f cliFlags
	pflag.StringVarP(&f.file, "file", "f", "", "instance CSV path (required)")
	pflag.IntVarP(&f.ants, "ants", "n", 8, "ants per round")
	pflag.IntVarP(&f.threads, "threads", "t", 8, "worker threads")
	pflag.IntVarP(&f.rooms, "rooms", "r", 1, "rooms per day")
	pflag.Float64VarP(&f.alpha, "alpha", "a", 1.0, "pheromone weight")
	pflag.Float64VarP(&f.beta, "beta", "b", 1.0, "heuristic weight")
	pflag.Float64VarP(&f.elitism, "elitism", "e", 1.0, "elitism factor (0 disables)")
	pflag.Float64VarP(&f.deposit, "deposit", "d", 10000.0, "pheromone deposit rate")
	pflag.Float64Var(&f.evaporation, "evaporation", 0.2, "pheromone evaporation rate")
	pflag.IntVar(&f.maxRounds, "max_rounds", 1000, "maximum rounds")
	pflag.IntVar(&f.maxRoundsImprov, "max_rounds_improv", 500, "rounds without improvement before stopping")
	pflag.Float64VarP(&f.target, "target", "T", 0.0, "early-stop objective threshold")
	pflag.IntVarP(&f.executions, "executions", "N", 5, "repeated runs")
	pflag.BoolVarP(&f.saveDurations, "save-durations", "s", false, "append per-run durations to a sibling .dat file")
	pflag.Parse()
	return f
}

func main() {
	f := parseFlags()
	if f.file == "" {
		fmt.Fprintln(os.Stderr, "acosurgeries: -f/--file is required")
		os.Exit(1)
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "acosurgeries: logger init: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	bin, err := instance.Load(f.file)
	if err != nil {
		log.Errorw("failed to load instance", "file", f.file, "error", err)
		os.Exit(1)
	}

	solverCfg := aco.SolverConfig{
		Colony: aco.Config{
			Alpha:         f.alpha,
			Beta:          f.beta,
			Rho:           f.evaporation,
			DepositRate:   f.deposit,
			ElitismFactor: f.elitism,
			ThreadsCount:  f.threads,
			AntsCount:     f.ants,
		},
		Ant: aco.AntConfig{
			RoomsCount:  f.rooms,
			MaxWait:     defaultMaxWait,
			Penalties:   defaultPenalties,
			Alpha:       f.alpha,
			Beta:        f.beta,
			FitnessMode: aco.FitnessFirstWeekOnly,
		},
		RoomsCount:             f.rooms,
		MaxRounds:              f.maxRounds,
		MaxRoundsWithoutImprov: f.maxRoundsImprov,
		Target:                 f.target,
	}

	objectives := make([]float64, 0, f.executions)
	durations := make([]float64, 0, f.executions)
	var bestOverall aco.Result
	haveBest := false

	for run := 0; run < f.executions; run++ {
		solverCfg.Seed = int64(run) + 1
		res, err := aco.Solve(solverCfg, bin, log)
		if err != nil {
			log.Errorw("run failed", "run", run, "error", err)
			os.Exit(1)
		}

		objectives = append(objectives, res.BestObjective)
		durations = append(durations, res.Elapsed.Seconds())
		if !haveBest || res.BestObjective < bestOverall.BestObjective {
			bestOverall = res
			haveBest = true
		}
		log.Infow("run complete", "run", run, "best_objective", res.BestObjective, "best_round", res.BestRound, "elapsed", res.Elapsed)
	}

	if f.saveDurations {
		if err := appendDurations(f.file, f.ants, f.threads, durations); err != nil {
			log.Warnw("failed to persist run durations", "error", err)
		}
	}

	objSummary, err := stats.Summarize(objectives)
	if err != nil {
		log.Warnw("objective summary failed", "error", err)
	}
	durSummary, err := stats.Summarize(durations)
	if err != nil {
		log.Warnw("duration summary failed", "error", err)
	}

	fmt.Printf("objective: %s\n", objSummary)
	fmt.Printf("duration(s): %s\n", durSummary)

	if haveBest {
		solutionPath := strings.TrimSuffix(f.file, ".csv") + "_solution.csv"
		if err := instance.WriteSolution(solutionPath, bestOverall.BestSchedule); err != nil {
			log.Errorw("failed to write solution", "path", solutionPath, "error", err)
			os.Exit(1)
		}
		log.Infow("best solution written", "path", solutionPath, "objective", bestOverall.BestObjective)
	}
}

// appendDurations appends this invocation's per-run durations to the
// <instance>_durations_<ants>_ants_<threads>_threads.dat sibling file named
// in spec.md §6.
func appendDurations(instancePath string, ants, threads int, durations []float64) error {
	base := strings.TrimSuffix(instancePath, ".csv")
	path := fmt.Sprintf("%s_durations_%d_ants_%d_threads.dat", base, ants, threads)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, d := range durations {
		if _, err := fmt.Fprintf(f, "%.6f\n", d); err != nil {
			return err
		}
	}
	return nil
}
