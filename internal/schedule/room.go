// Package schedule implements the hierarchical schedule data structure:
// RoomPerDay, Day and Week. Every mutation is reversible — schedule/
// unschedule — so the Ant's constructive loop can score a candidate surgery
// by tentatively placing it, reading the objective function, and undoing
// the placement, without ever deep-copying a Week.
package schedule

import (
	"fmt"

	"github.com/antsurgery/scheduler/internal/surgery"
)

// SlotsPerDay is the number of 15-minute slots in a single operating day.
// Slot 1 is the first usable slot.
const SlotsPerDay = 48

// cleaningGap is the number of slots reserved after every surgery before the
// room may be used again.
const cleaningGap = 2

// ScheduledEntry is the timed placement of one surgery inside a RoomPerDay.
type ScheduledEntry struct {
	Range     surgery.Range
	SurgeonID surgery.SurgeonID
}

// RoomPerDay is a single operating room on a single day: a non-empty,
// time-ordered sequence of surgeries, all sharing one speciality.
type RoomPerDay struct {
	Speciality uint32
	Surgeries  []surgery.Surgery
	Schedule   []ScheduledEntry
	UsedSlots  uint16
}

// NewRoomPerDay opens a room with first as its first surgery, anchored at
// anchorStart (slot 1 unless the surgeon already has bookings elsewhere that
// day — Day computes that anchor and passes it through).
func NewRoomPerDay(first surgery.Surgery, anchorStart uint8) *RoomPerDay {
	r := &RoomPerDay{Speciality: first.Speciality}
	entry := ScheduledEntry{
		Range:     surgery.Range{Start: anchorStart, End: anchorStart + uint8(first.Duration) + cleaningGap},
		SurgeonID: first.SurgeonID,
	}
	r.Surgeries = append(r.Surgeries, first)
	r.Schedule = append(r.Schedule, entry)
	r.UsedSlots = uint16(first.Duration) + cleaningGap
	return r
}

// lastEnd returns the end slot of the last booked range, 0 for an empty
// room (which never happens in practice since a room is always constructed
// with a first surgery, but Unschedule can transiently empty it before the
// caller removes the room).
func (r *RoomPerDay) lastEnd() uint8 {
	if len(r.Schedule) == 0 {
		return 0
	}
	return r.Schedule[len(r.Schedule)-1].Range.End
}

// CanSchedule reports whether s may be admitted to this room: matching
// speciality and enough remaining slot budget, both by used-slot accounting
// and by the tail of the room's timeline.
func (r *RoomPerDay) CanSchedule(s surgery.Surgery) bool {
	if s.Speciality != r.Speciality {
		return false
	}
	if uint32(r.UsedSlots)+uint32(s.Duration)+cleaningGap > SlotsPerDay {
		return false
	}
	if uint32(r.lastEnd())+uint32(s.Duration)+cleaningGap > SlotsPerDay {
		return false
	}
	return true
}

// WhenWillSchedule returns the range s would occupy if scheduled now,
// without mutating the room.
func (r *RoomPerDay) WhenWillSchedule(s surgery.Surgery) surgery.Range {
	start := r.lastEnd()
	return surgery.Range{Start: start, End: start + uint8(s.Duration) + cleaningGap}
}

// Schedule appends s to the room and returns its index. Callers must have
// already confirmed CanSchedule(s); Schedule panics otherwise, per the
// fail-fast ScheduleViolation policy in spec.md §7.
func (r *RoomPerDay) Schedule(s surgery.Surgery) int {
	if !r.CanSchedule(s) {
		panic(fmt.Sprintf("ScheduleViolation: surgery %d cannot be admitted to room (speciality %d, used_slots %d)", s.ID, r.Speciality, r.UsedSlots))
	}
	entry := ScheduledEntry{Range: r.WhenWillSchedule(s), SurgeonID: s.SurgeonID}
	r.Surgeries = append(r.Surgeries, s)
	r.Schedule = append(r.Schedule, entry)
	r.UsedSlots += uint16(s.Duration) + cleaningGap
	return len(r.Surgeries) - 1
}

// Unschedule removes the surgery at idx, which must be s and must be the
// last surgery scheduled into the room (reversible mutation requires
// reverse-order undo, per spec.md §4.2/§9). It panics on mismatch, a
// ScheduleViolation.
func (r *RoomPerDay) Unschedule(idx int, s surgery.Surgery) {
	if idx != len(r.Surgeries)-1 || r.Surgeries[idx].ID != s.ID {
		panic(fmt.Sprintf("ScheduleViolation: unschedule of surgery %d at index %d does not match room tail", s.ID, idx))
	}
	r.Surgeries = r.Surgeries[:idx]
	r.Schedule = r.Schedule[:idx]
	r.UsedSlots -= uint16(s.Duration) + cleaningGap
}

// Empty reports whether the room holds no surgeries, in which case Day
// removes it.
func (r *RoomPerDay) Empty() bool {
	return len(r.Surgeries) == 0
}
