package schedule

import (
	"fmt"
	"math"

	"github.com/antsurgery/scheduler/internal/surgery"
)

// MaxDaysPerWeek is the capacity of a Week: at most 5 working days.
const MaxDaysPerWeek = 5

// WaitTable and PenaltyTable key the objective function's priority-indexed
// constants (max allowed wait, penalty multiplier for unscheduled surgeries
// of that priority).
type WaitTable map[surgery.Priority]float64
type PenaltyTable map[surgery.Priority]float64

// ScheduleToken is the only valid handle for reversing a Week.Schedule call.
// It records exactly where the surgery landed so Week.Unschedule can find it
// again without a search.
type ScheduleToken struct {
	DayIndex     int
	RoomIndex    int
	SurgeryIndex int
}

// Week is the top-level scheduling unit: up to MaxDaysPerWeek days plus
// every surgeon's weekly time budget.
type Week struct {
	RoomsCount     int
	Days           []*Day
	WeeklySurgeons map[surgery.SurgeonID]*surgery.SurgeonWeekly
}

// NewWeek returns an empty week that opens rooms with capacity roomsCount.
func NewWeek(roomsCount int) *Week {
	return &Week{
		RoomsCount:     roomsCount,
		WeeklySurgeons: make(map[surgery.SurgeonID]*surgery.SurgeonWeekly),
	}
}

func (w *Week) weeklyFor(id surgery.SurgeonID) surgery.SurgeonWeekly {
	if existing, ok := w.WeeklySurgeons[id]; ok {
		return *existing
	}
	return surgery.NewSurgeonWeekly()
}

// CanSchedule reports whether s can be admitted this week: the weekly
// surgeon budget allows it AND (some existing day can take it, or there is
// capacity to open a new day that actually could hold it — a fresh day is
// not guaranteed to fit s, e.g. a surgery whose duration alone exceeds a
// surgeon's daily budget never fits any day, new or old).
func (w *Week) CanSchedule(s surgery.Surgery) bool {
	weekly := w.weeklyFor(s.SurgeonID)
	if !weekly.CanAdd(s.Duration) {
		return false
	}
	for _, day := range w.Days {
		if day.CanSchedule(s) {
			return true
		}
	}
	if len(w.Days) >= MaxDaysPerWeek {
		return false
	}
	return NewDay(w.RoomsCount).CanSchedule(s)
}

// Schedule admits s into the first day that can take it, opening a new day
// if none can and capacity remains, and returns a ScheduleToken that
// reverses the placement. It panics (ScheduleViolation) if CanSchedule(s)
// does not hold.
func (w *Week) Schedule(s surgery.Surgery) ScheduleToken {
	weekly, ok := w.WeeklySurgeons[s.SurgeonID]
	if !ok {
		fresh := surgery.NewSurgeonWeekly()
		weekly = &fresh
		w.WeeklySurgeons[s.SurgeonID] = weekly
	}
	if !weekly.CanAdd(s.Duration) {
		panic(fmt.Sprintf("ScheduleViolation: surgery %d exceeds surgeon %d weekly budget", s.ID, s.SurgeonID))
	}

	for i, day := range w.Days {
		if day.CanSchedule(s) {
			roomIdx, surgIdx := day.Schedule(s)
			weekly.Add(s.Duration)
			return ScheduleToken{DayIndex: i, RoomIndex: roomIdx, SurgeryIndex: surgIdx}
		}
	}

	if len(w.Days) >= MaxDaysPerWeek {
		panic(fmt.Sprintf("ScheduleViolation: surgery %d has no available day and week is at day capacity", s.ID))
	}
	day := NewDay(w.RoomsCount)
	roomIdx, surgIdx := day.Schedule(s)
	w.Days = append(w.Days, day)
	weekly.Add(s.Duration)
	return ScheduleToken{DayIndex: len(w.Days) - 1, RoomIndex: roomIdx, SurgeryIndex: surgIdx}
}

// Unschedule reverses a placement made by Schedule. If the targeted day
// becomes empty it is removed, shifting subsequent day indices — reverse
// order undo is required when multiple speculative placements are pending.
func (w *Week) Unschedule(tok ScheduleToken, s surgery.Surgery) {
	if tok.DayIndex < 0 || tok.DayIndex >= len(w.Days) {
		panic(fmt.Sprintf("ScheduleViolation: unschedule of surgery %d references missing day %d", s.ID, tok.DayIndex))
	}
	weekly, ok := w.WeeklySurgeons[s.SurgeonID]
	if !ok {
		panic(fmt.Sprintf("ScheduleViolation: unschedule of surgery %d references unknown surgeon %d", s.ID, s.SurgeonID))
	}
	weekly.Remove(s.Duration)

	day := w.Days[tok.DayIndex]
	day.Unschedule(tok.RoomIndex, tok.SurgeryIndex, s)
	if day.Empty() {
		w.Days = append(w.Days[:tok.DayIndex], w.Days[tok.DayIndex+1:]...)
	}
}

// FilterAvailable returns the subset of bin for which CanSchedule holds.
func (w *Week) FilterAvailable(bin []surgery.Surgery) []surgery.Surgery {
	available := make([]surgery.Surgery, 0, len(bin))
	for _, s := range bin {
		if w.CanSchedule(s) {
			available = append(available, s)
		}
	}
	return available
}

// IsFull reports whether bin is non-empty but none of its surgeries can be
// scheduled this week.
func (w *Week) IsFull(bin []surgery.Surgery) bool {
	if len(bin) == 0 {
		return false
	}
	return len(w.FilterAvailable(bin)) == 0
}

// maxSaturatingBase caps the first-day-miss penalty growth so it never
// overflows into +Inf and poisons pheromone arithmetic downstream.
const maxSaturatingBase = math.MaxFloat64 / 10

// saturatingPow computes base^exp, clamping at maxSaturatingBase instead of
// overflowing to +Inf.
func saturatingPow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
		if result >= maxSaturatingBase {
			return maxSaturatingBase
		}
	}
	return result
}

// ObjectiveFunction evaluates this week's waiting-cost objective: the sum
// of per-scheduled-surgery waiting costs (plus a first-day-miss penalty for
// priority-1 surgeries scheduled after day 1) and per-unscheduled-surgery
// waiting-cost penalties for bin, weighted by penalties. weekIndex is this
// week's 0-based position in the overall schedule, used to compute each
// surgery's global day number.
func (w *Week) ObjectiveFunction(bin []surgery.Surgery, maxWait WaitTable, penalties PenaltyTable, weekIndex int) float64 {
	var total float64

	for dayIndex, day := range w.Days {
		globalDay := 1 + dayIndex + 7*weekIndex
		for _, room := range day.Rooms {
			for _, s := range room.Surgeries {
				waited := float64(s.DaysWaiting) + 2 + float64(globalDay)
				wMax := maxWait[s.Priority]
				if wMax > waited {
					total += waited * waited
				} else {
					total += waited*waited + (waited-wMax)*(waited-wMax)
				}
				if globalDay > 1 && s.Priority == surgery.PriorityUrgent {
					base := 10 * (float64(s.DaysWaiting) + 2)
					total += saturatingPow(base, globalDay)
				}
			}
		}
	}

	for _, u := range bin {
		wMax := maxWait[u.Priority]
		waitedPlus9 := float64(u.DaysWaiting) + 9
		waitedPlus7 := float64(u.DaysWaiting) + 7
		if wMax > waitedPlus9 {
			total += waitedPlus7 * waitedPlus7
		} else {
			total += (waitedPlus7*waitedPlus7 + (waitedPlus9-wMax)*(waitedPlus9-wMax)) * penalties[u.Priority]
		}
	}

	return total
}
