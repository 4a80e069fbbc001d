package schedule

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire/storage format for calendar dates.
const DateLayout = "2006-01-02"

// ShiftHours is the fixed length of every shift.
const ShiftHours = 6

// Shift is one of the two daily care windows: AM (07:00-13:00) or PM (13:00-19:00).
type Shift string

const (
	ShiftAM Shift = "am"
	ShiftPM Shift = "pm"
)

// Shifts lists the shifts of a day in chronological order.
var Shifts = []Shift{ShiftAM, ShiftPM}

// ParseShift validates a shift string.
func ParseShift(s string) (Shift, error) {
	switch Shift(strings.ToLower(strings.TrimSpace(s))) {
	case ShiftAM:
		return ShiftAM, nil
	case ShiftPM:
		return ShiftPM, nil
	}
	return "", fmt.Errorf("invalid shift %q: must be %q or %q", s, ShiftAM, ShiftPM)
}

// StartHour returns the hour of day the shift begins.
func (s Shift) StartHour() int {
	if s == ShiftPM {
		return 13
	}
	return 7
}

// EndHour returns the hour of day the shift ends.
func (s Shift) EndHour() int {
	return s.StartHour() + ShiftHours
}

// Preference is a caregiver's stated willingness for a (weekday, shift) cell.
type Preference string

const (
	PreferencePreferred   Preference = "preferred"
	PreferenceAvailable   Preference = "available"
	PreferenceUnavailable Preference = "unavailable"
)

// ParsePreference validates a preference string.
func ParsePreference(s string) (Preference, error) {
	switch Preference(strings.ToLower(strings.TrimSpace(s))) {
	case PreferencePreferred:
		return PreferencePreferred, nil
	case PreferenceAvailable:
		return PreferenceAvailable, nil
	case PreferenceUnavailable:
		return PreferenceUnavailable, nil
	}
	return "", fmt.Errorf("invalid preference %q: must be preferred, available, or unavailable", s)
}

// ParseWeekday parses a lowercase English weekday name ("monday").
func ParseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

// Slot is one assignable unit: a concrete date plus AM or PM.
type Slot struct {
	Date  time.Time
	Shift Shift
}

// Weekday returns the slot's day of week.
func (s Slot) Weekday() time.Weekday {
	return s.Date.Weekday()
}

// DateString returns the slot's date in storage format.
func (s Slot) DateString() string {
	return s.Date.Format(DateLayout)
}

// Start returns the wall-clock start of the shift.
func (s Slot) Start() time.Time {
	return time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), s.Shift.StartHour(), 0, 0, 0, s.Date.Location())
}

// MonthSlots expands a month into its slots in chronological order, AM before
// PM on each day.
func MonthSlots(year int, month time.Month) []Slot {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()

	slots := make([]Slot, 0, days*2)
	for d := 0; d < days; d++ {
		date := first.AddDate(0, 0, d)
		for _, shift := range Shifts {
			slots = append(slots, Slot{Date: date, Shift: shift})
		}
	}
	return slots
}

// WeekStartDate truncates a date to the start of its week.
func WeekStartDate(t time.Time, weekStart time.Weekday) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	back := (int(t.Weekday()) - int(weekStart) + 7) % 7
	return t.AddDate(0, 0, -back)
}

type weeklyKey struct {
	caregiverID int64
	weekday     time.Weekday
	shift       Shift
}

type exceptionKey struct {
	caregiverID int64
	date        string
	shift       Shift
}

// Availability resolves a caregiver's preference for any slot. It is a sparse
// table: the standing weekly grid, per-date exceptions layered on top, and
// PreferenceAvailable for everything unspecified.
type Availability struct {
	weekly     map[weeklyKey]Preference
	exceptions map[exceptionKey]Preference
}

func NewAvailability() *Availability {
	return &Availability{
		weekly:     make(map[weeklyKey]Preference),
		exceptions: make(map[exceptionKey]Preference),
	}
}

// SetWeekly records the standing preference for a (weekday, shift) cell.
func (a *Availability) SetWeekly(caregiverID int64, weekday time.Weekday, shift Shift, p Preference) {
	a.weekly[weeklyKey{caregiverID, weekday, shift}] = p
}

// SetException records a one-date override. Date must be in DateLayout form.
func (a *Availability) SetException(caregiverID int64, date string, shift Shift, p Preference) {
	a.exceptions[exceptionKey{caregiverID, date, shift}] = p
}

// For resolves the preference for a caregiver and slot: exception, then weekly
// entry, then the AVAILABLE default.
func (a *Availability) For(caregiverID int64, slot Slot) Preference {
	if p, ok := a.exceptions[exceptionKey{caregiverID, slot.DateString(), slot.Shift}]; ok {
		return p
	}
	if p, ok := a.weekly[weeklyKey{caregiverID, slot.Weekday(), slot.Shift}]; ok {
		return p
	}
	return PreferenceAvailable
}
