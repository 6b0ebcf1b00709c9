package schedule

import (
	"fmt"

	"github.com/antsurgery/scheduler/internal/surgery"
)

// Day holds up to roomsCount operating rooms plus every surgeon's daily
// time budget for that day.
type Day struct {
	RoomsCount    int
	Rooms         []*RoomPerDay
	DailySurgeons map[surgery.SurgeonID]*surgery.SurgeonDaily
}

// NewDay returns an empty day with capacity for roomsCount rooms.
func NewDay(roomsCount int) *Day {
	return &Day{
		RoomsCount:    roomsCount,
		DailySurgeons: make(map[surgery.SurgeonID]*surgery.SurgeonDaily),
	}
}

// dailyFor returns the surgeon's tracker as it stands (a fresh zero-current
// tracker if the surgeon has no bookings yet that day), without mutating
// d.DailySurgeons.
func (d *Day) dailyFor(id surgery.SurgeonID) surgery.SurgeonDaily {
	if existing, ok := d.DailySurgeons[id]; ok {
		return *existing
	}
	return surgery.NewSurgeonDaily()
}

// anchorFor returns the slot at which a new room should start for this
// surgeon: the surgeon's next free slot if they already have bookings that
// day, else slot 1.
func anchorFor(daily surgery.SurgeonDaily) uint8 {
	if last := daily.LastEnd(); last != 0 {
		return last
	}
	return 1
}

// CanSchedule reports whether s can be admitted somewhere in this day: the
// surgeon has daily availability AND (an existing room can fit s without the
// surgeon's daily timeline overlapping the tentative placement in any other
// room, or there is capacity to open a new room and s fits in the day when
// anchored at the surgeon's next free slot).
func (d *Day) CanSchedule(s surgery.Surgery) bool {
	daily := d.dailyFor(s.SurgeonID)
	if !daily.CanAdd(s.Duration) {
		return false
	}

	for _, room := range d.Rooms {
		if room.CanSchedule(s) {
			tentative := room.WhenWillSchedule(s)
			if !daily.Overlaps(tentative) {
				return true
			}
		}
	}

	if len(d.Rooms) < d.RoomsCount {
		anchor := anchorFor(daily)
		if uint32(anchor)+uint32(s.Duration)+cleaningGap <= SlotsPerDay {
			return true
		}
	}
	return false
}

// Schedule admits s into the first compatible room, or opens a new room if
// none fits, and updates the surgeon's daily tracker in lockstep. It
// returns (room index, surgery index within that room). Schedule panics
// (ScheduleViolation) if CanSchedule(s) does not hold — callers must check
// first.
func (d *Day) Schedule(s surgery.Surgery) (roomIndex, surgeryIndex int) {
	daily, ok := d.DailySurgeons[s.SurgeonID]
	if !ok {
		fresh := surgery.NewSurgeonDaily()
		daily = &fresh
		d.DailySurgeons[s.SurgeonID] = daily
	}

	for i, room := range d.Rooms {
		if !room.CanSchedule(s) {
			continue
		}
		tentative := room.WhenWillSchedule(s)
		if daily.Overlaps(tentative) {
			continue
		}
		idx := room.Schedule(s)
		daily.Add(tentative, s.ID, s.Duration)
		return i, idx
	}

	if len(d.Rooms) >= d.RoomsCount {
		panic(fmt.Sprintf("ScheduleViolation: day has no room for surgery %d and is at room capacity %d", s.ID, d.RoomsCount))
	}
	anchor := anchorFor(*daily)
	room := NewRoomPerDay(s, anchor)
	d.Rooms = append(d.Rooms, room)
	daily.Add(room.Schedule[0].Range, s.ID, s.Duration)
	return len(d.Rooms) - 1, 0
}

// Unschedule reverses a placement made by Schedule: it removes s from the
// targeted room and from the surgeon's daily tracker. If the room becomes
// empty it is removed, shifting subsequent room indices — callers must
// unschedule multiple speculative placements in reverse order.
func (d *Day) Unschedule(roomIndex, surgeryIndex int, s surgery.Surgery) {
	if roomIndex < 0 || roomIndex >= len(d.Rooms) {
		panic(fmt.Sprintf("ScheduleViolation: unschedule of surgery %d references missing room %d", s.ID, roomIndex))
	}
	room := d.Rooms[roomIndex]
	entryRange := room.Schedule[surgeryIndex].Range

	room.Unschedule(surgeryIndex, s)

	daily, ok := d.DailySurgeons[s.SurgeonID]
	if !ok {
		panic(fmt.Sprintf("ScheduleViolation: unschedule of surgery %d references unknown surgeon %d", s.ID, s.SurgeonID))
	}
	daily.Remove(entryRange, s.ID, s.Duration)

	if room.Empty() {
		d.Rooms = append(d.Rooms[:roomIndex], d.Rooms[roomIndex+1:]...)
	}
}

// Empty reports whether the day has no open rooms, in which case Week
// removes it.
func (d *Day) Empty() bool {
	return len(d.Rooms) == 0
}
