package aco

import (
	"testing"

	"go.uber.org/zap"

	"github.com/antsurgery/scheduler/internal/schedule"
	"github.com/antsurgery/scheduler/internal/surgery"
)

func testColonyConfig() Config {
	return Config{
		Alpha:         1.0,
		Beta:          1.0,
		Rho:           0.2,
		DepositRate:   10000.0,
		ElitismFactor: 1.0,
		ThreadsCount:  2,
		AntsCount:     4,
	}
}

func testBin() []surgery.Surgery {
	return []surgery.Surgery{
		{ID: 1, Duration: 5, Priority: surgery.PriorityUrgent, Speciality: 1, SurgeonID: 10},
		{ID: 2, Duration: 4, Priority: surgery.PriorityLow, Speciality: 1, SurgeonID: 11},
		{ID: 3, Duration: 6, Priority: surgery.PriorityMedium, Speciality: 1, SurgeonID: 12},
	}
}

func TestNewAntColonyRejectsEmptyBin(t *testing.T) {
	log := zap.NewNop().Sugar()
	_, err := NewAntColony(testColonyConfig(), AntConfig{RoomsCount: 1}, nil, 1, log)
	if err == nil {
		t.Fatalf("expected EmptyBin error for a nil bin")
	}
}

func TestNewAntColonyRejectsInvalidSizing(t *testing.T) {
	log := zap.NewNop().Sugar()
	bin := testBin()

	cfg := testColonyConfig()
	cfg.ThreadsCount = 0
	if _, err := NewAntColony(cfg, AntConfig{RoomsCount: 1}, bin, 1, log); err == nil {
		t.Fatalf("expected error for zero threads")
	}

	cfg = testColonyConfig()
	cfg.AntsCount = 0
	if _, err := NewAntColony(cfg, AntConfig{RoomsCount: 1}, bin, 1, log); err == nil {
		t.Fatalf("expected error for zero ants")
	}
}

func TestAntColonyRoundProducesBestAndShutsDownCleanly(t *testing.T) {
	log := zap.NewNop().Sugar()
	antCfg := AntConfig{
		RoomsCount: 1,
		MaxWait:    schedule.WaitTable{surgery.PriorityUrgent: 3, surgery.PriorityMedium: 60, surgery.PriorityLow: 365},
		Penalties:  schedule.PenaltyTable{surgery.PriorityUrgent: 90, surgery.PriorityMedium: 5, surgery.PriorityLow: 1},
		Alpha:      1.0,
		Beta:       1.0,
	}

	colony, err := NewAntColony(testColonyConfig(), antCfg, testBin(), 7, log)
	if err != nil {
		t.Fatalf("NewAntColony: %v", err)
	}
	defer colony.Shutdown()

	res, err := colony.Round(1)
	if err != nil {
		t.Fatalf("Round(1): %v", err)
	}
	if res.Objective <= 0 {
		t.Fatalf("Round objective = %v, want > 0", res.Objective)
	}
	if len(res.Weeks) == 0 {
		t.Fatalf("expected at least one completed week in the round's best solution")
	}

	if len(colony.pheromones) == 0 {
		t.Fatalf("expected Round to deposit pheromone on at least one edge")
	}
}

func TestAntColonyRoundIsDeterministicForASeed(t *testing.T) {
	log := zap.NewNop().Sugar()
	antCfg := AntConfig{
		RoomsCount: 1,
		MaxWait:    schedule.WaitTable{surgery.PriorityUrgent: 3, surgery.PriorityMedium: 60, surgery.PriorityLow: 365},
		Penalties:  schedule.PenaltyTable{surgery.PriorityUrgent: 90, surgery.PriorityMedium: 5, surgery.PriorityLow: 1},
		Alpha:      1.0,
		Beta:       1.0,
	}

	run := func() float64 {
		colony, err := NewAntColony(testColonyConfig(), antCfg, testBin(), 99, log)
		if err != nil {
			t.Fatalf("NewAntColony: %v", err)
		}
		defer colony.Shutdown()
		res, err := colony.Round(1)
		if err != nil {
			t.Fatalf("Round(1): %v", err)
		}
		return res.Objective
	}

	a := run()
	b := run()
	if a != b {
		t.Fatalf("same seed should reproduce the same round-best objective: a=%v b=%v", a, b)
	}
}

// TestApplyRoundUpdateEvaporation is spec.md §8 scenario S5: after round 1
// with rho=0.2 and a single deposit delta on pair (a,b), the persistent
// entry equals default*0.8 + delta; with no further deposit in round 2 it
// decays to (default*0.8 + delta)*0.8.
func TestApplyRoundUpdateEvaporation(t *testing.T) {
	rho := 0.2
	cfg := Config{Rho: rho, DepositRate: 1000, ElitismFactor: 0}
	pair := PathStep{Prev: 1, Next: 2}

	pheromones := make(PheromoneMap)
	responses := []AntSolution{{Solution: Solution{Objective: 100, Path: []PathStep{pair}}}}

	applyRoundUpdate(pheromones, responses, 1, cfg)

	delta := cfg.DepositRate / 100
	want := DefaultPheromone(1, rho)*(1-rho) + delta
	key := PheromoneKey{Prev: pair.Prev, Next: pair.Next}
	if got := pheromones[key]; got != want {
		t.Fatalf("round 1 pheromone = %v, want %v", got, want)
	}

	applyRoundUpdate(pheromones, []AntSolution{{Solution: Solution{Objective: 100, Path: nil}}}, 2, cfg)
	wantRound2 := want * (1 - rho)
	if got := pheromones[key]; got != wantRound2 {
		t.Fatalf("round 2 pheromone after no deposit = %v, want %v", got, wantRound2)
	}
}

// TestApplyRoundUpdateElitism is spec.md §8 scenario S6: two ants with
// objectives 100 and 200 on disjoint paths, elitism=1.0, deposit=10000 — the
// round-best ant's pair gets 2*10000/100=200, the other's gets 10000/200=50.
func TestApplyRoundUpdateElitism(t *testing.T) {
	cfg := Config{Rho: 0.2, DepositRate: 10000, ElitismFactor: 1.0}
	bestPair := PathStep{Prev: 1, Next: 2}
	otherPair := PathStep{Prev: 3, Next: 4}

	pheromones := make(PheromoneMap)
	responses := []AntSolution{
		{Solution: Solution{Objective: 100, Path: []PathStep{bestPair}}},
		{Solution: Solution{Objective: 200, Path: []PathStep{otherPair}}},
	}

	best := applyRoundUpdate(pheromones, responses, 1, cfg)
	if best.Objective != 100 {
		t.Fatalf("round-best objective = %v, want 100", best.Objective)
	}

	wantBest := DefaultPheromone(1, cfg.Rho)*(1-cfg.Rho) + 200.0
	if got := pheromones[PheromoneKey{Prev: bestPair.Prev, Next: bestPair.Next}]; got != wantBest {
		t.Fatalf("elite pair pheromone = %v, want %v", got, wantBest)
	}
	wantOther := DefaultPheromone(1, cfg.Rho)*(1-cfg.Rho) + 50.0
	if got := pheromones[PheromoneKey{Prev: otherPair.Prev, Next: otherPair.Next}]; got != wantOther {
		t.Fatalf("non-elite pair pheromone = %v, want %v", got, wantOther)
	}
}
