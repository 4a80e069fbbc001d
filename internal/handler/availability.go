package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mkline/careshift/internal/model"
	"github.com/mkline/careshift/internal/schedule"
	"github.com/mkline/careshift/internal/store"
	"github.com/mkline/careshift/internal/websocket"
)

type AvailabilityHandler struct {
	store      *store.AvailabilityStore
	caregivers *store.CaregiverStore
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewAvailabilityHandler(s *store.AvailabilityStore, cs *store.CaregiverStore, hub *websocket.Hub, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{store: s, caregivers: cs, hub: hub, logger: logger}
}

// caregiver resolves the {id} path value to an existing caregiver, writing
// the error response itself on failure.
func (h *AvailabilityHandler) caregiver(w http.ResponseWriter, r *http.Request) *model.Caregiver {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}
	cg, err := h.caregivers.GetByID(id)
	if err != nil {
		h.logger.Error("get caregiver", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get caregiver")
		return nil
	}
	if cg == nil {
		writeError(w, http.StatusNotFound, "caregiver not found")
		return nil
	}
	return cg
}

// GetWeekly returns a caregiver's explicit weekly preference entries.
// Cells not listed default to "available".
func (h *AvailabilityHandler) GetWeekly(w http.ResponseWriter, r *http.Request) {
	cg := h.caregiver(w, r)
	if cg == nil {
		return
	}

	entries, err := h.store.ListWeekly(cg.ID)
	if err != nil {
		h.logger.Error("list weekly availability", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list availability")
		return
	}
	if entries == nil {
		entries = []model.AvailabilityEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type weeklyCell struct {
	Weekday    string `json:"weekday"`
	Shift      string `json:"shift"`
	Preference string `json:"preference"`
}

// PutWeekly applies a batch of weekly preference updates for one caregiver.
func (h *AvailabilityHandler) PutWeekly(w http.ResponseWriter, r *http.Request) {
	cg := h.caregiver(w, r)
	if cg == nil {
		return
	}

	var req struct {
		Entries []weeklyCell `json:"entries"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Entries) == 0 {
		writeError(w, http.StatusBadRequest, "entries are required")
		return
	}

	// Validate everything before writing anything
	type parsed struct {
		weekday time.Weekday
		shift   schedule.Shift
		pref    schedule.Preference
	}
	cells := make([]parsed, 0, len(req.Entries))
	for _, e := range req.Entries {
		weekday, err := schedule.ParseWeekday(e.Weekday)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		shift, err := schedule.ParseShift(e.Shift)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		pref, err := schedule.ParsePreference(e.Preference)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		cells = append(cells, parsed{weekday, shift, pref})
	}

	for _, c := range cells {
		if err := h.store.SetWeekly(cg.ID, c.weekday, c.shift, c.pref); err != nil {
			h.logger.Error("set weekly availability", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save availability")
			return
		}
	}

	h.hub.Broadcast(websocket.NewMessage("availability", "updated", cg.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

// ListExceptions returns per-date overrides in the optional ?from=&to= range.
func (h *AvailabilityHandler) ListExceptions(w http.ResponseWriter, r *http.Request) {
	cg := h.caregiver(w, r)
	if cg == nil {
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(schedule.DateLayout, d); err != nil {
			writeError(w, http.StatusBadRequest, "dates must be YYYY-MM-DD")
			return
		}
	}

	exceptions, err := h.store.ListExceptions(cg.ID, from, to)
	if err != nil {
		h.logger.Error("list exceptions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list exceptions")
		return
	}
	if exceptions == nil {
		exceptions = []model.AvailabilityException{}
	}
	writeJSON(w, http.StatusOK, exceptions)
}

// SetException records a one-date override, e.g. a vacation day that trumps
// the weekly grid.
func (h *AvailabilityHandler) SetException(w http.ResponseWriter, r *http.Request) {
	cg := h.caregiver(w, r)
	if cg == nil {
		return
	}

	var req struct {
		Date       string `json:"date"`
		Shift      string `json:"shift"`
		Preference string `json:"preference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if _, err := time.Parse(schedule.DateLayout, req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	shift, err := schedule.ParseShift(req.Shift)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pref, err := schedule.ParsePreference(req.Preference)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.SetException(cg.ID, req.Date, shift, pref); err != nil {
		h.logger.Error("set exception", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save exception")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("availability", "updated", cg.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

// DeleteException removes a per-date override so the weekly grid applies again.
func (h *AvailabilityHandler) DeleteException(w http.ResponseWriter, r *http.Request) {
	cg := h.caregiver(w, r)
	if cg == nil {
		return
	}

	date := r.URL.Query().Get("date")
	if _, err := time.Parse(schedule.DateLayout, date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	shift, err := schedule.ParseShift(r.URL.Query().Get("shift"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.DeleteException(cg.ID, date, shift); err != nil {
		h.logger.Error("delete exception", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete exception")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("availability", "updated", cg.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}
