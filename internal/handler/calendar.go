package handler

import (
	"log/slog"
	"net/http"

	"github.com/mkline/careshift/internal/calendar"
	"github.com/mkline/careshift/internal/model"
	"github.com/mkline/careshift/internal/schedule"
	"github.com/mkline/careshift/internal/store"
)

type CalendarHandler struct {
	schedules  *store.ScheduleStore
	caregivers *store.CaregiverStore
	settings   *store.SettingsStore
	logger     *slog.Logger
}

func NewCalendarHandler(ss *store.ScheduleStore, cs *store.CaregiverStore, sets *store.SettingsStore, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{schedules: ss, caregivers: cs, settings: sets, logger: logger}
}

func nameMap(roster []model.Caregiver) map[int64]string {
	names := make(map[int64]string, len(roster))
	for _, cg := range roster {
		names[cg.ID] = cg.Name
	}
	return names
}

// Month renders the month's schedule as an HTML calendar grid, or as plain
// text with ?format=text for printing and pasting into messages.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseMonthParams(r)
	if err != nil {
		http.Error(w, "invalid year or month", http.StatusBadRequest)
		return
	}

	sched, err := h.schedules.GetByMonth(year, month)
	if err != nil {
		h.logger.Error("get schedule", "error", err)
		http.Error(w, "failed to get schedule", http.StatusInternalServerError)
		return
	}
	if sched == nil {
		http.Error(w, "no schedule built for this month", http.StatusNotFound)
		return
	}

	built, err := h.schedules.LoadBuilt(sched)
	if err != nil {
		h.logger.Error("load schedule", "error", err)
		http.Error(w, "failed to load schedule", http.StatusInternalServerError)
		return
	}

	roster, err := h.caregivers.ListAll()
	if err != nil {
		h.logger.Error("load roster", "error", err)
		http.Error(w, "failed to load roster", http.StatusInternalServerError)
		return
	}
	names := nameMap(roster)

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := calendar.RenderText(w, built, names); err != nil {
			h.logger.Error("render text calendar", "error", err)
		}
		return
	}

	opts, err := h.settings.ScheduleOptions()
	if err != nil {
		opts = schedule.DefaultOptions()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := calendar.RenderHTML(w, built, names, opts.WeekStart); err != nil {
		h.logger.Error("render html calendar", "error", err)
	}
}

// Days returns the calendar as structured JSON, one element per day with AM
// and PM entries, for clients that render their own views.
func (h *CalendarHandler) Days(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseMonthParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year or month")
		return
	}

	sched, err := h.schedules.GetByMonth(year, month)
	if err != nil {
		h.logger.Error("get schedule", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get schedule")
		return
	}
	if sched == nil {
		writeError(w, http.StatusNotFound, "no schedule built for this month")
		return
	}

	built, err := h.schedules.LoadBuilt(sched)
	if err != nil {
		h.logger.Error("load schedule", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load schedule")
		return
	}

	roster, err := h.caregivers.ListAll()
	if err != nil {
		h.logger.Error("load roster", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load roster")
		return
	}

	writeJSON(w, http.StatusOK, calendar.Days(built, nameMap(roster)))
}
