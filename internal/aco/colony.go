package aco

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/antsurgery/scheduler/internal/surgery"
)

// workItem is what the main thread hands a worker: a read-only pheromone
// snapshot plus the round number it was taken for.
type workItem struct {
	round      int
	pheromones PheromoneMap
}

// AntSolution is one ant's construction result, tagged with the worker that
// produced it for log correlation.
type AntSolution struct {
	Solution
	WorkerID int
}

// worker is a single long-lived goroutine that owns a private immutable
// clone of the instance (bin, config) and its own RNG, and blocks on its
// work channel between rounds — the same long-lived channel-worker shape as
// KartikBazzad-bunbase/docdb's internal/pool.Scheduler.worker().
type worker struct {
	id     int
	cfg    AntConfig
	bin    []surgery.Surgery
	rng    *rand.Rand
	rho    float64
	workCh chan workItem
	resCh  chan<- AntSolution
	errCh  chan<- error
	log    *zap.SugaredLogger
	wg     *sync.WaitGroup
}

func (w *worker) run() {
	defer w.wg.Done()
	for item := range w.workCh {
		sol, err := w.constructOne(item)
		if err != nil {
			w.errCh <- fmt.Errorf("worker %d round %d: %w", w.id, item.round, err)
			continue
		}
		w.resCh <- AntSolution{Solution: sol, WorkerID: w.id}
	}
}

// constructOne runs a single ant construction. It recovers from nothing and
// currently always returns a nil error: invariant breaches
// (ScheduleViolation, CapacityOverflow) are programming bugs and are allowed
// to crash the process per spec.md §7.
func (w *worker) constructOne(item workItem) (sol Solution, err error) {
	ant := NewAnt(w.cfg, w.bin, w.rng)
	sol = ant.Construct(item.round, w.rho, item.pheromones)
	return sol, nil
}

// Config holds the coefficients and sizing of an AntColony.
type Config struct {
	Alpha         float64
	Beta          float64
	Rho           float64
	DepositRate   float64
	ElitismFactor float64
	ThreadsCount  int
	AntsCount     int
}

// AntColony is the pool of long-lived ant workers plus the persistent
// pheromone map they read snapshots of and the main thread deposits onto.
type AntColony struct {
	cfg        Config
	antCfg     AntConfig
	pheromones PheromoneMap
	workers    []*worker
	resultCh   chan AntSolution
	errCh      chan error
	log        *zap.SugaredLogger
	wg         sync.WaitGroup
}

// NewAntColony constructs threadsCount long-lived workers, each seeded from
// seed XOR its own index for deterministic, reproducible reruns (spec.md
// §5).
func NewAntColony(cfg Config, antCfg AntConfig, bin []surgery.Surgery, seed int64, log *zap.SugaredLogger) (*AntColony, error) {
	if len(bin) == 0 {
		return nil, fmt.Errorf("EmptyBin: colony constructed with no surgeries")
	}
	if cfg.ThreadsCount <= 0 {
		return nil, fmt.Errorf("invalid threads_count %d", cfg.ThreadsCount)
	}
	if cfg.AntsCount <= 0 {
		return nil, fmt.Errorf("invalid ants_count %d", cfg.AntsCount)
	}

	bufPerWorker := (cfg.AntsCount + cfg.ThreadsCount - 1) / cfg.ThreadsCount

	c := &AntColony{
		cfg:        cfg,
		antCfg:     antCfg,
		pheromones: make(PheromoneMap),
		resultCh:   make(chan AntSolution, cfg.AntsCount),
		errCh:      make(chan error, cfg.AntsCount),
		log:        log,
	}

	for i := 0; i < cfg.ThreadsCount; i++ {
		w := &worker{
			id:     i,
			cfg:    antCfg,
			bin:    append([]surgery.Surgery(nil), bin...),
			rng:    rand.New(rand.NewSource(seed ^ int64(i))),
			rho:    cfg.Rho,
			workCh: make(chan workItem, bufPerWorker),
			resCh:  c.resultCh,
			errCh:  c.errCh,
			log:    log,
			wg:     &c.wg,
		}
		c.workers = append(c.workers, w)
		c.wg.Add(1)
		go w.run()
	}

	return c, nil
}

// RoundResult is what Round returns to the Solver.
type RoundResult struct {
	Objective float64
	Weeks     []WeekResult
	Duration  time.Duration
}

// Round runs one synchronous colony iteration: snapshot pheromones,
// dispatch ants_count work items round-robin to workers, collect
// ants_count responses, identify the round-best, and update pheromones
// (elitist deposit plus global evaporation).
func (c *AntColony) Round(n int) (RoundResult, error) {
	start := time.Now()

	snapshot := c.pheromones.Clone()
	for i := 0; i < c.cfg.AntsCount; i++ {
		w := c.workers[i%len(c.workers)]
		w.workCh <- workItem{round: n, pheromones: snapshot}
	}

	responses := make([]AntSolution, 0, c.cfg.AntsCount)
	var collectErr error
	for received := 0; received < c.cfg.AntsCount; received++ {
		select {
		case r := <-c.resultCh:
			responses = append(responses, r)
		case e := <-c.errCh:
			// constructOne never actually returns an error today — worker
			// faults would only originate from channel plumbing, which a
			// buffered send to a live reader cannot trigger — so this join
			// is a backstop for a path that is not presently exercised;
			// stdlib errors.Join suffices here (go.uber.org/multierr is
			// wired into instance.Load's real aggregated-row-error job
			// instead, see internal/instance/csv.go).
			collectErr = errors.Join(collectErr, e)
		}
	}
	if collectErr != nil {
		return RoundResult{}, fmt.Errorf("WorkerFault in round %d: %w", n, collectErr)
	}

	best := applyRoundUpdate(c.pheromones, responses, n, c.cfg)

	if c.log != nil {
		c.log.Debugw("round complete", "round", n, "best_objective", best.Objective, "duration", time.Since(start))
	}

	return RoundResult{Objective: best.Objective, Weeks: best.Weeks, Duration: time.Since(start)}, nil
}

// applyRoundUpdate identifies the round-best response, deposits elitist
// pheromone contributions for every response's path onto pheromones, and
// evaporates every pair — touched by a deposit this round or not — by
// (1-rho), all per spec.md §4.5 steps 4-6. It mutates pheromones in place
// and returns the round-best response.
func applyRoundUpdate(pheromones PheromoneMap, responses []AntSolution, round int, cfg Config) AntSolution {
	best := responses[0]
	for _, r := range responses[1:] {
		if r.Objective < best.Objective {
			best = r
		}
	}

	bestPathSet := make(map[PathStep]struct{}, len(best.Path))
	for _, p := range best.Path {
		bestPathSet[p] = struct{}{}
	}

	scratch := make(map[PheromoneKey]float64)
	for _, r := range responses {
		delta := cfg.DepositRate / r.Objective
		for _, p := range r.Path {
			key := PheromoneKey{Prev: p.Prev, Next: p.Next}
			scratch[key] += delta
			if _, isElite := bestPathSet[p]; isElite {
				scratch[key] += cfg.ElitismFactor * delta
			}
		}
	}

	touched := make(map[PheromoneKey]struct{}, len(scratch))
	for key, deposit := range scratch {
		old, ok := pheromones[key]
		if !ok {
			old = DefaultPheromone(round, cfg.Rho)
		}
		pheromones[key] = old*(1-cfg.Rho) + deposit
		touched[key] = struct{}{}
	}
	for key := range pheromones {
		if _, ok := touched[key]; !ok {
			pheromones[key] *= 1 - cfg.Rho
		}
	}

	return best
}

// Shutdown signals every worker to exit by closing its work channel and
// waits for all of them to drain. Workers never close their own channel, so
// this is safe to call exactly once.
func (c *AntColony) Shutdown() {
	for _, w := range c.workers {
		close(w.workCh)
	}
	c.wg.Wait()
}
