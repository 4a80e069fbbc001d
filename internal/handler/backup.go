package handler

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mkline/careshift/internal/backup"
	"github.com/mkline/careshift/internal/model"
	"github.com/mkline/careshift/internal/store"
)

type BackupHandler struct {
	manager  *backup.Manager
	backups  *store.BackupStore
	settings *store.SettingsStore
	logger   *slog.Logger
}

func NewBackupHandler(m *backup.Manager, bs *store.BackupStore, ss *store.SettingsStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, backups: bs, settings: ss, logger: logger}
}

func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	backups, err := h.backups.List()
	if err != nil {
		h.logger.Error("list backups", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	if backups == nil {
		backups = []model.Backup{}
	}
	writeJSON(w, http.StatusOK, backups)
}

// Configure generates and stores the passphrase salt. The passphrase itself
// is never persisted; it must be supplied on every manual backup or restore.
func (h *BackupHandler) Configure(w http.ResponseWriter, r *http.Request) {
	existing, err := h.settings.Get("backup_passphrase_salt")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read settings")
		return
	}
	if existing != "" {
		writeError(w, http.StatusConflict, "backup passphrase already configured")
		return
	}

	salt, err := backup.GenerateSalt()
	if err != nil {
		h.logger.Error("generate salt", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate salt")
		return
	}

	if err := h.settings.Set("backup_passphrase_salt", hex.EncodeToString(salt)); err != nil {
		h.logger.Error("save salt", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save salt")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "configured"})
}

func (h *BackupHandler) passphrase(w http.ResponseWriter, r *http.Request) string {
	var req struct {
		Passphrase string `json:"passphrase"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return ""
	}
	if len(req.Passphrase) < 8 {
		writeError(w, http.StatusBadRequest, "passphrase must be at least 8 characters")
		return ""
	}
	return req.Passphrase
}

// Run starts a backup immediately.
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	passphrase := h.passphrase(w, r)
	if passphrase == "" {
		return
	}

	id, err := h.manager.RunNow(r.Context(), passphrase)
	if err != nil {
		h.logger.Error("run backup", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"backup_id": id})
}

// Restore replaces the live database with a backup. On success the process
// exits so a supervisor restarts it against the restored file; the client
// sees the connection drop.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	passphrase := h.passphrase(w, r)
	if passphrase == "" {
		return
	}

	if err := h.manager.Restore(r.Context(), id, passphrase); err != nil {
		h.logger.Error("restore backup", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
}

// Download streams the encrypted backup file for offline safekeeping.
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	body, size, err := h.manager.Download(r.Context(), id)
	if err != nil {
		h.logger.Error("download backup", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="careshift-backup-%d.db.enc"`, id))
	if size > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
	}
	io.Copy(w, body)
}
