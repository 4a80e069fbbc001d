package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mkline/careshift/internal/model"
	"github.com/mkline/careshift/internal/push"
	"github.com/mkline/careshift/internal/schedule"
	"github.com/mkline/careshift/internal/store"
	"github.com/mkline/careshift/internal/websocket"
)

type ScheduleHandler struct {
	schedules    *store.ScheduleStore
	caregivers   *store.CaregiverStore
	availability *store.AvailabilityStore
	settings     *store.SettingsStore
	hub          *websocket.Hub
	notifier     *push.Scheduler
	logger       *slog.Logger
}

func NewScheduleHandler(
	ss *store.ScheduleStore,
	cs *store.CaregiverStore,
	as *store.AvailabilityStore,
	sets *store.SettingsStore,
	hub *websocket.Hub,
	notifier *push.Scheduler,
	logger *slog.Logger,
) *ScheduleHandler {
	return &ScheduleHandler{
		schedules:    ss,
		caregivers:   cs,
		availability: as,
		settings:     sets,
		hub:          hub,
		notifier:     notifier,
		logger:       logger,
	}
}

type scheduleResponse struct {
	Schedule    *model.Schedule    `json:"schedule"`
	Assignments []model.Assignment `json:"assignments"`
	Unfilled    []unfilledSlot     `json:"unfilled"`
}

type unfilledSlot struct {
	Date  string `json:"date"`
	Shift string `json:"shift"`
}

// Build runs the greedy builder for one month and stores the result,
// replacing any earlier build for that month. The weekly hour cap can be
// overridden per build in the request body; otherwise the configured
// default applies.
func (h *ScheduleHandler) Build(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseMonthParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year or month")
		return
	}

	opts, err := h.settings.ScheduleOptions()
	if err != nil {
		h.logger.Error("load schedule options", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	// Body is optional
	var req struct {
		WeeklyCapHours *int `json:"weekly_cap_hours"`
	}
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.WeeklyCapHours != nil {
			if *req.WeeklyCapHours < 0 {
				writeError(w, http.StatusBadRequest, "weekly_cap_hours must be >= 0")
				return
			}
			opts.WeeklyCapHours = *req.WeeklyCapHours
		}
	}

	roster, err := h.caregivers.List()
	if err != nil {
		h.logger.Error("load roster", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load roster")
		return
	}

	slots := schedule.MonthSlots(year, time.Month(month))
	if len(slots) == 0 {
		writeError(w, http.StatusBadRequest, "invalid year or month")
		return
	}
	from := slots[0].DateString()
	to := slots[len(slots)-1].DateString()

	avail, err := h.availability.LoadTable(from, to)
	if err != nil {
		h.logger.Error("load availability", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load availability")
		return
	}

	built := schedule.BuildMonth(roster, avail, year, time.Month(month), opts)

	saved, err := h.schedules.Save(built, opts.WeeklyCapHours)
	if err != nil {
		h.logger.Error("save schedule", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save schedule")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("schedule", "rebuilt", saved.ID, map[string]any{
		"year":  year,
		"month": month,
	}))
	if h.notifier != nil {
		h.notifier.NotifyScheduleUpdated(year, time.Month(month))
	}

	h.respond(w, http.StatusCreated, saved, built)
}

// Get returns the stored build for one month, with its assignments and a
// list of any slots the builder could not fill.
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	h.respond(w, http.StatusOK, sched, built)
}

func (h *ScheduleHandler) respond(w http.ResponseWriter, status int, sched *model.Schedule, built *schedule.Schedule) {
	assignments, err := h.schedules.ListAssignments(sched.ID)
	if err != nil {
		h.logger.Error("list assignments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list assignments")
		return
	}
	if assignments == nil {
		assignments = []model.Assignment{}
	}

	unfilled := []unfilledSlot{}
	for _, slot := range built.UnfilledSlots() {
		unfilled = append(unfilled, unfilledSlot{Date: slot.DateString(), Shift: string(slot.Shift)})
	}

	writeJSON(w, status, scheduleResponse{
		Schedule:    sched,
		Assignments: assignments,
		Unfilled:    unfilled,
	})
}

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.schedules.List()
	if err != nil {
		h.logger.Error("list schedules", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list schedules")
		return
	}
	if schedules == nil {
		schedules = []model.Schedule{}
	}
	writeJSON(w, http.StatusOK, schedules)
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.schedules.Delete(id); err != nil {
		h.logger.Error("delete schedule", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete schedule")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("schedule", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
