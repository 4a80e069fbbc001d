package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/mkline/careshift/internal/model"
	"github.com/mkline/careshift/internal/schedule"
)

func builtDecember(t *testing.T) (*schedule.Schedule, map[int64]string) {
	t.Helper()
	roster := []model.Caregiver{
		{ID: 1, Name: "Alice", IsPaid: true, PayRateCents: 2000},
		{ID: 2, Name: "Bob", IsPaid: true, PayRateCents: 2000},
	}
	avail := schedule.NewAvailability()
	// Nobody covers Tuesday PM
	for _, cg := range roster {
		avail.SetWeekly(cg.ID, time.Tuesday, schedule.ShiftPM, schedule.PreferenceUnavailable)
	}
	sched := schedule.BuildMonth(roster, avail, 2024, time.December, schedule.DefaultOptions())
	return sched, map[int64]string{1: "Alice", 2: "Bob"}
}

func TestDaysMappingShape(t *testing.T) {
	sched, names := builtDecember(t)
	days := Days(sched, names)

	if len(days) != 31 {
		t.Fatalf("days = %d, want 31", len(days))
	}
	if days[0].Date != "2024-12-01" || days[30].Date != "2024-12-31" {
		t.Errorf("date range = %s..%s", days[0].Date, days[30].Date)
	}

	for _, day := range days {
		date, err := time.Parse(schedule.DateLayout, day.Date)
		if err != nil {
			t.Fatalf("bad date %q: %v", day.Date, err)
		}
		if date.Weekday() == time.Tuesday {
			if !day.PM.Unfilled || day.PM.Name != Unassigned {
				t.Errorf("%s PM = %+v, want unfilled %q", day.Date, day.PM, Unassigned)
			}
		} else if day.PM.Unfilled {
			t.Errorf("%s PM unexpectedly unfilled", day.Date)
		}
		if day.AM.Name == "" {
			t.Errorf("%s AM has no name", day.Date)
		}
	}
}

func TestDaysUnknownCaregiverName(t *testing.T) {
	sched := &schedule.Schedule{Year: 2024, Month: time.December}
	sched.Slots = append(sched.Slots, schedule.SlotAssignment{
		Slot: schedule.Slot{
			Date:  time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
			Shift: schedule.ShiftAM,
		},
		CaregiverID: 99,
	})

	days := Days(sched, nil)
	if days[0].AM.Name != "#99" {
		t.Errorf("unknown caregiver rendered as %q, want #99", days[0].AM.Name)
	}
}

func TestRenderText(t *testing.T) {
	sched, names := builtDecember(t)

	var buf strings.Builder
	if err := RenderText(&buf, sched, names); err != nil {
		t.Fatalf("render text: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "December 2024") {
		t.Error("missing month header")
	}
	if !strings.Contains(out, "2024-12-03: AM: ") {
		t.Error("missing day line for Dec 3")
	}
	if !strings.Contains(out, Unassigned) {
		t.Error("missing no-coverage label for Tuesday PM")
	}
	if got := strings.Count(out, "\n"); got < 31 {
		t.Errorf("output lines = %d, want at least 31", got)
	}
}

func TestRenderHTML(t *testing.T) {
	sched, names := builtDecember(t)

	var buf strings.Builder
	if err := RenderHTML(&buf, sched, names, time.Monday); err != nil {
		t.Fatalf("render html: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "<table>") {
		t.Error("missing calendar table")
	}
	if !strings.Contains(out, "<th>Mon</th>") {
		t.Error("week should start with Monday")
	}
	if !strings.Contains(out, "Alice") || !strings.Contains(out, "Bob") {
		t.Error("caregiver names missing from grid")
	}
	// Dec 2024: Sunday the 1st with Monday weeks -> 6 lead cells, 6 rows.
	if got := strings.Count(out, "<tr>"); got != 7 { // header + 6 weeks
		t.Errorf("rows = %d, want 7", got)
	}
	if !strings.Contains(out, "shift(s) have no coverage") {
		t.Error("missing unfilled banner")
	}
}
