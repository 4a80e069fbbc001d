package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkline/careshift/internal/model"
	"github.com/mkline/careshift/internal/payroll"
	"github.com/mkline/careshift/internal/store"
	"github.com/mkline/careshift/internal/websocket"
)

type CaregiverHandler struct {
	store  *store.CaregiverStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewCaregiverHandler(s *store.CaregiverStore, hub *websocket.Hub, logger *slog.Logger) *CaregiverHandler {
	return &CaregiverHandler{store: s, hub: hub, logger: logger}
}

type caregiverRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	IsPaid  *bool  `json:"is_paid"`
	PayRate string `json:"pay_rate"`
}

// parse validates the request body and resolves the pay rate to cents.
// Rate defaults to zero when omitted; unpaid caregivers may still carry a
// rate for record keeping.
func (req *caregiverRequest) parse() (name string, isPaid bool, rateCents int64, errMsg string) {
	name = strings.TrimSpace(req.Name)
	if name == "" {
		return "", false, 0, "name is required"
	}

	isPaid = true
	if req.IsPaid != nil {
		isPaid = *req.IsPaid
	}

	if req.PayRate != "" {
		cents, err := payroll.ParseRate(req.PayRate)
		if err != nil {
			return "", false, 0, "pay_rate must be a dollar amount like 20.00"
		}
		rateCents = cents
	}
	return name, isPaid, rateCents, ""
}

func (h *CaregiverHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		caregivers []model.Caregiver
		err        error
	)
	if r.URL.Query().Get("include_archived") == "true" {
		caregivers, err = h.store.ListAll()
	} else {
		caregivers, err = h.store.List()
	}
	if err != nil {
		h.logger.Error("list caregivers", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list caregivers")
		return
	}
	if caregivers == nil {
		caregivers = []model.Caregiver{}
	}
	writeJSON(w, http.StatusOK, caregivers)
}

func (h *CaregiverHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	cg, err := h.store.GetByID(id)
	if err != nil {
		h.logger.Error("get caregiver", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get caregiver")
		return
	}
	if cg == nil {
		writeError(w, http.StatusNotFound, "caregiver not found")
		return
	}
	writeJSON(w, http.StatusOK, cg)
}

func (h *CaregiverHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req caregiverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	name, isPaid, rateCents, errMsg := req.parse()
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	exists, err := h.store.NameExists(name, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check name")
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "a caregiver with that name already exists")
		return
	}

	cg, err := h.store.Create(name, strings.TrimSpace(req.Phone), strings.TrimSpace(req.Email), isPaid, rateCents)
	if err != nil {
		h.logger.Error("create caregiver", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create caregiver")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("caregiver", "created", cg.ID, nil))
	writeJSON(w, http.StatusCreated, cg)
}

func (h *CaregiverHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get caregiver")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "caregiver not found")
		return
	}

	var req caregiverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	name, isPaid, rateCents, errMsg := req.parse()
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	exists, err := h.store.NameExists(name, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check name")
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "a caregiver with that name already exists")
		return
	}

	cg, err := h.store.Update(id, name, strings.TrimSpace(req.Phone), strings.TrimSpace(req.Email), isPaid, rateCents)
	if err != nil {
		h.logger.Error("update caregiver", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update caregiver")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("caregiver", "updated", cg.ID, nil))
	writeJSON(w, http.StatusOK, cg)
}

// Archive soft-deletes a caregiver. Archived caregivers keep their past
// assignments but drop out of the roster for future builds.
func (h *CaregiverHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, true)
}

func (h *CaregiverHandler) Unarchive(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, false)
}

func (h *CaregiverHandler) setArchived(w http.ResponseWriter, r *http.Request, archived bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get caregiver")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "caregiver not found")
		return
	}

	if err := h.store.SetArchived(id, archived); err != nil {
		h.logger.Error("archive caregiver", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update caregiver")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("caregiver", "updated", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// UpdateSortOrder reorders the roster. Roster position is the final
// tie-break when building a schedule, so the order is user-controlled.
func (h *CaregiverHandler) UpdateSortOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids are required")
		return
	}

	if err := h.store.UpdateSortOrder(req.IDs); err != nil {
		h.logger.Error("update sort order", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update sort order")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("caregiver", "reordered", 0, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *CaregiverHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get caregiver")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "caregiver not found")
		return
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if len(req.PIN) != 4 || !isDigits(req.PIN) {
		writeError(w, http.StatusBadRequest, "PIN must be exactly 4 digits")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash PIN")
		return
	}

	if err := h.store.SetPIN(id, string(hash)); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to set PIN")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "pin set"})
}

func (h *CaregiverHandler) ClearPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.store.ClearPIN(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear PIN")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "pin cleared"})
}

// VerifyPIN lets a caregiver confirm their identity on a shared device
// before claiming or viewing the schedule.
func (h *CaregiverHandler) VerifyPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	hash, err := h.store.GetPINHash(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get PIN")
		return
	}
	if hash == "" {
		writeError(w, http.StatusBadRequest, "no PIN set for this caregiver")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.PIN)); err != nil {
		writeError(w, http.StatusUnauthorized, "incorrect PIN")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
