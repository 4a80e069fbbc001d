// Package payroll projects a built schedule into gross pay figures. Reports
// are derived on demand from the assignment set and never stored.
package payroll

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mkline/careshift/internal/model"
	"github.com/mkline/careshift/internal/schedule"
)

// Week is one caregiver's pay for one calendar week of the report period.
// Start is the week's first day and may fall in the previous month when the
// period begins mid-week.
type Week struct {
	Start      time.Time `json:"week_start"`
	Hours      int       `json:"hours"`
	GrossCents int64     `json:"gross_cents"`
}

// CaregiverSummary is one caregiver's rows plus period totals.
type CaregiverSummary struct {
	CaregiverID     int64  `json:"caregiver_id"`
	Name            string `json:"name"`
	IsPaid          bool   `json:"is_paid"`
	PayRateCents    int64  `json:"pay_rate_cents"`
	Weeks           []Week `json:"weeks"`
	TotalHours      int    `json:"total_hours"`
	TotalGrossCents int64  `json:"total_gross_cents"`
}

// Report is the full pay report for one built month.
type Report struct {
	Year            int                `json:"year"`
	Month           time.Month         `json:"month"`
	Caregivers      []CaregiverSummary `json:"caregivers"`
	TotalGrossCents int64              `json:"total_gross_cents"`
}

// BuildReport computes weekly and monthly gross pay for every caregiver on the
// roster. Gross for a week is (assigned slots that week x 6 hours) x pay rate;
// unpaid caregivers appear with zero gross. The monthly figure is the sum of
// the actual weeks in the period, not an estimate.
func BuildReport(sched *schedule.Schedule, roster []model.Caregiver, weekStart time.Weekday) *Report {
	// hours[caregiverID][weekStartDate] = hours that week
	hours := make(map[int64]map[string]int)
	weekSet := make(map[string]time.Time)

	for _, sa := range sched.Slots {
		week := schedule.WeekStartDate(sa.Date, weekStart)
		key := week.Format(schedule.DateLayout)
		weekSet[key] = week
		if sa.Unfilled {
			continue
		}
		if hours[sa.CaregiverID] == nil {
			hours[sa.CaregiverID] = make(map[string]int)
		}
		hours[sa.CaregiverID][key] += schedule.ShiftHours
	}

	weekKeys := make([]string, 0, len(weekSet))
	for key := range weekSet {
		weekKeys = append(weekKeys, key)
	}
	sort.Strings(weekKeys)

	report := &Report{Year: sched.Year, Month: sched.Month}
	for _, cg := range roster {
		summary := CaregiverSummary{
			CaregiverID:  cg.ID,
			Name:         cg.Name,
			IsPaid:       cg.IsPaid,
			PayRateCents: cg.PayRateCents,
		}
		rate := cg.PayRateCents
		if !cg.IsPaid {
			rate = 0
		}
		for _, key := range weekKeys {
			h := hours[cg.ID][key]
			week := Week{
				Start:      weekSet[key],
				Hours:      h,
				GrossCents: int64(h) * rate,
			}
			summary.Weeks = append(summary.Weeks, week)
			summary.TotalHours += week.Hours
			summary.TotalGrossCents += week.GrossCents
		}
		report.TotalGrossCents += summary.TotalGrossCents
		report.Caregivers = append(report.Caregivers, summary)
	}
	return report
}

// ParseRate parses a dollar amount like "20" or "20.50" into cents. Digits
// past two decimal places round half-up.
func ParseRate(s string) (int64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return 0, fmt.Errorf("empty pay rate")
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("invalid pay rate %q", s)
	}

	cents := int64(0)
	for _, r := range whole {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid pay rate %q", s)
		}
		cents = cents*10 + int64(r-'0')
	}
	cents *= 100

	for i, r := range frac {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid pay rate %q", s)
		}
		d := int64(r - '0')
		switch {
		case i == 0:
			cents += d * 10
		case i == 1:
			cents += d
		case i == 2:
			if d >= 5 {
				cents++
			}
		}
	}
	return cents, nil
}

// FormatCents renders cents as a dollar string, e.g. 60000 -> "$600.00".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
