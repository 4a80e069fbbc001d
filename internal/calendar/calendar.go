// Package calendar renders a built schedule for people: a date-keyed mapping
// for API consumers, a plain-text month listing, and an HTML month grid. It is
// presentation only; all scheduling decisions happen upstream.
package calendar

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/mkline/careshift/internal/schedule"
)

// Unassigned is the label shown for a slot with no caregiver.
const Unassigned = "No coverage"

// Entry is one half of a day: who covers the shift, if anyone.
type Entry struct {
	CaregiverID int64  `json:"caregiver_id,omitempty"`
	Name        string `json:"name"`
	Unfilled    bool   `json:"unfilled"`
}

// Day is the external shape of one scheduled day.
type Day struct {
	Date string `json:"date"`
	AM   Entry  `json:"am"`
	PM   Entry  `json:"pm"`
}

// Days projects a schedule into its date-keyed mapping, in date order.
// Names maps caregiver IDs to display names; unknown IDs fall back to "#id".
func Days(sched *schedule.Schedule, names map[int64]string) []Day {
	byDate := make(map[string]*Day)
	var order []string

	for _, sa := range sched.Slots {
		key := sa.DateString()
		day, ok := byDate[key]
		if !ok {
			day = &Day{Date: key}
			byDate[key] = day
			order = append(order, key)
		}

		entry := Entry{Unfilled: true, Name: Unassigned}
		if !sa.Unfilled {
			name, ok := names[sa.CaregiverID]
			if !ok {
				name = fmt.Sprintf("#%d", sa.CaregiverID)
			}
			entry = Entry{CaregiverID: sa.CaregiverID, Name: name}
		}

		if sa.Shift == schedule.ShiftAM {
			day.AM = entry
		} else {
			day.PM = entry
		}
	}

	days := make([]Day, 0, len(order))
	for _, key := range order {
		days = append(days, *byDate[key])
	}
	return days
}

// RenderText writes the schedule as a plain-text listing, one day per line.
func RenderText(w io.Writer, sched *schedule.Schedule, names map[int64]string) error {
	if _, err := fmt.Fprintf(w, "Care Schedule — %s %d\n\n", sched.Month, sched.Year); err != nil {
		return err
	}
	for _, day := range Days(sched, names) {
		if _, err := fmt.Fprintf(w, "%s: AM: %s, PM: %s\n", day.Date, day.AM.Name, day.PM.Name); err != nil {
			return err
		}
	}
	return nil
}

type htmlWeek struct {
	Days []htmlDay
}

type htmlDay struct {
	DayOfMonth int
	InMonth    bool
	AM, PM     Entry
}

type htmlMonth struct {
	Title     string
	DayNames  []string
	Weeks     []htmlWeek
	Unfilled  int
	Generated string
}

var monthTemplate = template.Must(template.New("month").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: system-ui, sans-serif; margin: 2rem; }
  table { border-collapse: collapse; width: 100%; }
  th, td { border: 1px solid #c6c6c6; padding: 0.4rem; vertical-align: top; width: 14.3%; }
  td.out { background: #f4f4f4; color: #9a9a9a; }
  .num { font-weight: 600; }
  .shift { display: block; font-size: 0.85rem; }
  .unfilled { color: #b3261e; font-style: italic; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Unfilled}}<p class="unfilled">{{.Unfilled}} shift(s) have no coverage.</p>{{end}}
<table>
<tr>{{range .DayNames}}<th>{{.}}</th>{{end}}</tr>
{{range .Weeks}}<tr>
{{range .Days}}{{if .InMonth}}<td>
  <span class="num">{{.DayOfMonth}}</span>
  <span class="shift{{if .AM.Unfilled}} unfilled{{end}}">AM: {{.AM.Name}}</span>
  <span class="shift{{if .PM.Unfilled}} unfilled{{end}}">PM: {{.PM.Name}}</span>
</td>{{else}}<td class="out"></td>{{end}}{{end}}
</tr>{{end}}
</table>
<p><small>Generated {{.Generated}}</small></p>
</body>
</html>
`))

// RenderHTML writes the schedule as an HTML month grid with weeks as rows.
func RenderHTML(w io.Writer, sched *schedule.Schedule, names map[int64]string, weekStart time.Weekday) error {
	days := Days(sched, names)

	data := htmlMonth{
		Title:     fmt.Sprintf("Care Schedule — %s %d", sched.Month, sched.Year),
		Unfilled:  len(sched.UnfilledSlots()),
		Generated: time.Now().Format("2006-01-02 15:04"),
	}
	for i := 0; i < 7; i++ {
		wd := time.Weekday((int(weekStart) + i) % 7)
		data.DayNames = append(data.DayNames, wd.String()[:3])
	}

	first := time.Date(sched.Year, sched.Month, 1, 0, 0, 0, 0, time.UTC)
	lead := (int(first.Weekday()) - int(weekStart) + 7) % 7

	week := htmlWeek{}
	for i := 0; i < lead; i++ {
		week.Days = append(week.Days, htmlDay{})
	}
	for i, day := range days {
		week.Days = append(week.Days, htmlDay{
			DayOfMonth: i + 1,
			InMonth:    true,
			AM:         day.AM,
			PM:         day.PM,
		})
		if len(week.Days) == 7 {
			data.Weeks = append(data.Weeks, week)
			week = htmlWeek{}
		}
	}
	if len(week.Days) > 0 {
		for len(week.Days) < 7 {
			week.Days = append(week.Days, htmlDay{})
		}
		data.Weeks = append(data.Weeks, week)
	}

	var buf strings.Builder
	if err := monthTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("execute month template: %w", err)
	}
	_, err := io.WriteString(w, buf.String())
	return err
}
