package handler

import (
	"log/slog"
	"net/http"

	"github.com/mkline/careshift/internal/email"
	"github.com/mkline/careshift/internal/payroll"
	"github.com/mkline/careshift/internal/store"
)

type PayrollHandler struct {
	schedules  *store.ScheduleStore
	caregivers *store.CaregiverStore
	settings   *store.SettingsStore
	email      *email.Client
	logger     *slog.Logger
}

func NewPayrollHandler(ss *store.ScheduleStore, cs *store.CaregiverStore, sets *store.SettingsStore, ec *email.Client, logger *slog.Logger) *PayrollHandler {
	return &PayrollHandler{schedules: ss, caregivers: cs, settings: sets, email: ec, logger: logger}
}

// report loads the stored build for the month and projects it into a pay
// report. Reports are always derived fresh, never stored.
func (h *PayrollHandler) report(w http.ResponseWriter, r *http.Request) (*payroll.Report, []string) {
	year, month, err := parseMonthParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year or month")
		return nil, nil
	}

	sched, err := h.schedules.GetByMonth(year, month)
	if err != nil {
		h.logger.Error("get schedule", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get schedule")
		return nil, nil
	}
	if sched == nil {
		writeError(w, http.StatusNotFound, "no schedule built for this month")
		return nil, nil
	}

	built, err := h.schedules.LoadBuilt(sched)
	if err != nil {
		h.logger.Error("load schedule", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load schedule")
		return nil, nil
	}

	// Archived caregivers may still hold assignments in past months, so the
	// report runs over the full roster.
	roster, err := h.caregivers.ListAll()
	if err != nil {
		h.logger.Error("load roster", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load roster")
		return nil, nil
	}

	opts, err := h.settings.ScheduleOptions()
	if err != nil {
		h.logger.Error("load settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return nil, nil
	}

	emails := make([]string, 0, len(roster))
	for _, cg := range roster {
		emails = append(emails, cg.Email)
	}
	return payroll.BuildReport(built, roster, opts.WeekStart), emails
}

// Get returns the weekly and monthly gross pay report for one built month.
func (h *PayrollHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, _ := h.report(w, r)
	if report == nil {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// SendStatements emails each paid caregiver their section of the month's
// pay report. Caregivers without an email address are skipped.
func (h *PayrollHandler) SendStatements(w http.ResponseWriter, r *http.Request) {
	report, emails := h.report(w, r)
	if report == nil {
		return
	}

	if !h.email.Configured() {
		writeError(w, http.StatusServiceUnavailable, "email is not configured")
		return
	}

	sent := 0
	for i, summary := range report.Caregivers {
		if !summary.IsPaid || summary.TotalHours == 0 || emails[i] == "" {
			continue
		}
		if err := h.email.SendPayStatement(emails[i], report.Year, report.Month, &report.Caregivers[i]); err != nil {
			h.logger.Error("send pay statement", "caregiver_id", summary.CaregiverID, "error", err)
			continue
		}
		sent++
	}

	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}
