package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mkline/careshift/internal/model"
	"github.com/mkline/careshift/internal/push"
	"github.com/mkline/careshift/internal/store"
)

type PushHandler struct {
	store      *store.PushStore
	caregivers *store.CaregiverStore
	service    *push.Service
	logger     *slog.Logger
}

func NewPushHandler(s *store.PushStore, cs *store.CaregiverStore, svc *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{store: s, caregivers: cs, service: svc, logger: logger}
}

// VAPIDKey returns the public key browsers need to subscribe.
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	key := h.service.VAPIDPublicKey()
	if key == "" {
		writeError(w, http.StatusServiceUnavailable, "push notifications are not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": key})
}

// Subscribe registers a browser push subscription. Linking it to a caregiver
// targets that person's shift reminders at this device.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CaregiverID *int64 `json:"caregiver_id"`
		DeviceName  string `json:"device_name"`
		Endpoint    string `json:"endpoint"`
		Keys        struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint and keys are required")
		return
	}

	if req.CaregiverID != nil {
		cg, err := h.caregivers.GetByID(*req.CaregiverID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check caregiver")
			return
		}
		if cg == nil {
			writeError(w, http.StatusBadRequest, "caregiver not found")
			return
		}
	}

	sub, err := h.store.Subscribe(req.CaregiverID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth, req.DeviceName)
	if err != nil {
		h.logger.Error("save subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "endpoint is required")
		return
	}

	if err := h.store.DeleteByEndpoint(req.Endpoint); err != nil {
		h.logger.Error("delete subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PushHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.store.List()
	if err != nil {
		h.logger.Error("list subscriptions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}
	if subs == nil {
		subs = []model.PushSubscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}
