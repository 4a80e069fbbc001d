package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mkline/careshift/internal/payroll"
	"github.com/mkline/careshift/internal/schedule"
	"github.com/mkline/careshift/internal/store"
	"github.com/mkline/careshift/internal/websocket"
)

type SettingsHandler struct {
	store  *store.SettingsStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewSettingsHandler(s *store.SettingsStore, hub *websocket.Hub, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{store: s, hub: hub, logger: logger}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.GetAll()
	if err != nil {
		h.logger.Error("get settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// Update validates and applies a batch of settings. Unknown keys are
// rejected so typos don't silently create orphan rows.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req) == 0 {
		writeError(w, http.StatusBadRequest, "no settings provided")
		return
	}

	for key, value := range req {
		if msg := validateSetting(key, value); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
	}

	for key, value := range req {
		if err := h.store.Set(key, value); err != nil {
			h.logger.Error("set setting", "key", key, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}

	h.hub.Broadcast(websocket.NewMessage("settings", "updated", 0, nil))
	w.WriteHeader(http.StatusNoContent)
}

func validateSetting(key, value string) string {
	switch key {
	case store.SettingWeeklyCapHours:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return "schedule_weekly_cap_hours must be a non-negative integer (0 disables the cap)"
		}
	case store.SettingWeekStart:
		if _, err := schedule.ParseWeekday(value); err != nil {
			return "schedule_week_start must be a weekday name"
		}
	case store.SettingDefaultPayRate:
		if _, err := payroll.ParseRate(value); err != nil {
			return "default_pay_rate must be a dollar amount like 20.00"
		}
	case "backup_enabled":
		if value != "true" && value != "false" {
			return "backup_enabled must be true or false"
		}
	case "backup_schedule_hour":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n > 23 {
			return "backup_schedule_hour must be 0-23"
		}
	case "backup_retention_days":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return "backup_retention_days must be a positive integer"
		}
	case "backup_passphrase_salt":
		// hex salt, set by the backup configure endpoint
	default:
		return "unknown setting: " + key
	}
	return ""
}
