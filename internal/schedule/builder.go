package schedule

import (
	"time"

	"github.com/mkline/careshift/internal/model"
)

// Options tunes the builder. The zero value means no weekly cap and weeks
// starting on Sunday; DefaultOptions is what the server uses when nothing is
// configured.
type Options struct {
	// WeeklyCapHours excludes a caregiver from further slots in a week once
	// another shift would push them past the cap. 0 disables the cap.
	WeeklyCapHours int
	// WeekStart is the day weekly hour counters reset.
	WeekStart time.Weekday
}

// DefaultOptions returns the builder defaults: no cap, Monday week start.
func DefaultOptions() Options {
	return Options{WeeklyCapHours: 0, WeekStart: time.Monday}
}

// SlotAssignment is the builder's decision for one slot. Unfilled slots are
// recorded, never dropped.
type SlotAssignment struct {
	Slot
	CaregiverID int64
	Unfilled    bool
}

// Schedule is one built month: every slot of the month exactly once, in
// chronological order.
type Schedule struct {
	Year  int
	Month time.Month
	Slots []SlotAssignment
}

// UnfilledSlots returns the slots no eligible caregiver could cover.
func (s *Schedule) UnfilledSlots() []Slot {
	var unfilled []Slot
	for _, sa := range s.Slots {
		if sa.Unfilled {
			unfilled = append(unfilled, sa.Slot)
		}
	}
	return unfilled
}

// HoursByCaregiver totals assigned hours per caregiver across the month.
func (s *Schedule) HoursByCaregiver() map[int64]int {
	hours := make(map[int64]int)
	for _, sa := range s.Slots {
		if !sa.Unfilled {
			hours[sa.CaregiverID] += ShiftHours
		}
	}
	return hours
}

// BuildMonth assigns a caregiver to every slot of the month, greedily and in
// chronological order. For each slot the eligible set is every caregiver not
// UNAVAILABLE for it and not blocked by the weekly cap; among the eligible,
// PREFERRED beats AVAILABLE, ties go to the fewest hours assigned so far that
// week, and remaining ties keep roster order. The same roster, availability,
// and options always produce the same schedule.
//
// This is a greedy pass, not optimal matching: it never trades an earlier
// assignment away to fill a later slot. At household scale (a handful of
// caregivers, two shifts a day) that trade-off is deliberate.
func BuildMonth(roster []model.Caregiver, avail *Availability, year int, month time.Month, opts Options) *Schedule {
	sched := &Schedule{Year: year, Month: month}

	// weekHours[weekStartDate][caregiverID] = hours assigned so far that week
	weekHours := make(map[string]map[int64]int)

	for _, slot := range MonthSlots(year, month) {
		week := WeekStartDate(slot.Date, opts.WeekStart).Format(DateLayout)
		if weekHours[week] == nil {
			weekHours[week] = make(map[int64]int)
		}

		best := -1
		bestPref := PreferenceUnavailable
		bestHours := 0
		for i, cg := range roster {
			pref := avail.For(cg.ID, slot)
			if pref == PreferenceUnavailable {
				continue
			}
			hours := weekHours[week][cg.ID]
			if opts.WeeklyCapHours > 0 && hours+ShiftHours > opts.WeeklyCapHours {
				continue
			}
			if best < 0 || better(pref, hours, bestPref, bestHours) {
				best, bestPref, bestHours = i, pref, hours
			}
		}

		if best < 0 {
			sched.Slots = append(sched.Slots, SlotAssignment{Slot: slot, Unfilled: true})
			continue
		}

		id := roster[best].ID
		sched.Slots = append(sched.Slots, SlotAssignment{Slot: slot, CaregiverID: id})
		weekHours[week][id] += ShiftHours
	}

	return sched
}

// better reports whether (pref, hours) outranks the current best. Roster order
// wins ties because the caller only replaces on a strict improvement.
func better(pref Preference, hours int, bestPref Preference, bestHours int) bool {
	if pref == PreferencePreferred && bestPref != PreferencePreferred {
		return true
	}
	if pref != PreferencePreferred && bestPref == PreferencePreferred {
		return false
	}
	return hours < bestHours
}
