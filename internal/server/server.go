// Package server wires stores, handlers, and background services together
// and builds the HTTP router.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mkline/careshift/internal/backup"
	"github.com/mkline/careshift/internal/email"
	"github.com/mkline/careshift/internal/handler"
	"github.com/mkline/careshift/internal/logging"
	"github.com/mkline/careshift/internal/middleware"
	"github.com/mkline/careshift/internal/push"
	"github.com/mkline/careshift/internal/store"
	ws "github.com/mkline/careshift/internal/websocket"
)

// Config carries the pieces main assembles from the environment.
type Config struct {
	Backup backup.Config
	Push   struct {
		VAPIDPublicKey  string
		VAPIDPrivateKey string
		Subscriber      string
	}
}

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	wsH            *ws.Handler
	caregiverH     *handler.CaregiverHandler
	availabilityH  *handler.AvailabilityHandler
	scheduleH      *handler.ScheduleHandler
	payrollH       *handler.PayrollHandler
	calendarH      *handler.CalendarHandler
	settingsH      *handler.SettingsHandler
	authH          *handler.AuthHandler
	pushH          *handler.PushHandler
	backupH        *handler.BackupHandler
	sessionStore   *store.SessionStore
	magicLinkStore *store.MagicLinkStore
	userStore      *store.UserStore
	rateLimiter    *middleware.RateLimiter
	backupManager  *backup.Manager
	pushScheduler  *push.Scheduler
	logger         *slog.Logger
}

func New(db *sql.DB, emailClient *email.Client, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logging.Component(logger, "websocket"))

	caregiverStore := store.NewCaregiverStore(db)
	availabilityStore := store.NewAvailabilityStore(db)
	scheduleStore := store.NewScheduleStore(db)
	settingsStore := store.NewSettingsStore(db)
	pushStore := store.NewPushStore(db)
	backupStore := store.NewBackupStore(db)

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	magicLinkStore := store.NewMagicLinkStore(db)

	backupMgr := backup.NewManager(cfg.Backup, db, backupStore, settingsStore, logging.Component(logger, "backup"), func(s backup.Status) {
		hub.Broadcast(ws.Message{
			Type:   "backup_status",
			Entity: "backup",
			Action: string(s.State),
			Extra: map[string]any{
				"in_progress": s.InProgress,
				"error":       s.Error,
			},
		})
	})

	// Push stays nil without VAPID keys; the reminder loop simply never runs
	pushLogger := logging.Component(logger, "push")
	var pushSvc *push.Service
	var pushSched *push.Scheduler
	var pushH *handler.PushHandler
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey, cfg.Push.Subscriber)
		pushSched = push.NewScheduler(pushSvc, pushStore, scheduleStore, pushLogger)
		pushH = handler.NewPushHandler(pushStore, caregiverStore, pushSvc, pushLogger)
	}

	return &Server{
		db:             db,
		hub:            hub,
		wsH:            ws.NewHandler(hub, logging.Component(logger, "websocket")),
		caregiverH:     handler.NewCaregiverHandler(caregiverStore, hub, logging.Component(logger, "caregiver")),
		availabilityH:  handler.NewAvailabilityHandler(availabilityStore, caregiverStore, hub, logging.Component(logger, "availability")),
		scheduleH:      handler.NewScheduleHandler(scheduleStore, caregiverStore, availabilityStore, settingsStore, hub, pushSched, logging.Component(logger, "schedule")),
		payrollH:       handler.NewPayrollHandler(scheduleStore, caregiverStore, settingsStore, emailClient, logging.Component(logger, "payroll")),
		calendarH:      handler.NewCalendarHandler(scheduleStore, caregiverStore, settingsStore, logging.Component(logger, "calendar")),
		settingsH:      handler.NewSettingsHandler(settingsStore, hub, logging.Component(logger, "settings")),
		authH:          handler.NewAuthHandler(userStore, sessionStore, magicLinkStore, emailClient, logging.Component(logger, "auth")),
		pushH:          pushH,
		backupH:        handler.NewBackupHandler(backupMgr, backupStore, settingsStore, logging.Component(logger, "backup")),
		sessionStore:   sessionStore,
		magicLinkStore: magicLinkStore,
		userStore:      userStore,
		rateLimiter:    middleware.NewRateLimiter(),
		backupManager:  backupMgr,
		pushScheduler:  pushSched,
		logger:         logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// MagicLinkStore returns the magic link store for cleanup tasks.
func (s *Server) MagicLinkStore() *store.MagicLinkStore {
	return s.magicLinkStore
}

// UserStore returns the user store for first-run bootstrap.
func (s *Server) UserStore() *store.UserStore {
	return s.userStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// PushScheduler returns the shift reminder scheduler, nil when push is not
// configured.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("GET /login", s.authH.LoginPage)
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /auth/verify", s.authH.Verify)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Everything else requires a session
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(logging.Component(s.logger, "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /logout", s.authH.Logout)

	// Real-time sync
	mux.Handle("GET /ws", s.wsH)

	// Caregiver roster
	mux.HandleFunc("GET /api/caregivers", s.caregiverH.List)
	mux.HandleFunc("POST /api/caregivers", s.caregiverH.Create)
	mux.HandleFunc("GET /api/caregivers/{id}", s.caregiverH.Get)
	mux.HandleFunc("PUT /api/caregivers/{id}", s.caregiverH.Update)
	mux.HandleFunc("POST /api/caregivers/{id}/archive", s.caregiverH.Archive)
	mux.HandleFunc("POST /api/caregivers/{id}/unarchive", s.caregiverH.Unarchive)
	mux.HandleFunc("PUT /api/caregivers/sort", s.caregiverH.UpdateSortOrder)
	mux.HandleFunc("POST /api/caregivers/{id}/pin", s.caregiverH.SetPIN)
	mux.HandleFunc("DELETE /api/caregivers/{id}/pin", s.caregiverH.ClearPIN)
	mux.HandleFunc("POST /api/caregivers/{id}/pin/verify", s.caregiverH.VerifyPIN)

	// Weekly availability grid and per-date exceptions
	mux.HandleFunc("GET /api/caregivers/{id}/availability", s.availabilityH.GetWeekly)
	mux.HandleFunc("PUT /api/caregivers/{id}/availability", s.availabilityH.PutWeekly)
	mux.HandleFunc("GET /api/caregivers/{id}/exceptions", s.availabilityH.ListExceptions)
	mux.HandleFunc("POST /api/caregivers/{id}/exceptions", s.availabilityH.SetException)
	mux.HandleFunc("DELETE /api/caregivers/{id}/exceptions", s.availabilityH.DeleteException)

	// Monthly schedules
	mux.HandleFunc("GET /api/schedules", s.scheduleH.List)
	mux.HandleFunc("POST /api/schedules/{year}/{month}/build", s.scheduleH.Build)
	mux.HandleFunc("GET /api/schedules/{year}/{month}", s.scheduleH.Get)
	mux.HandleFunc("DELETE /api/schedules/{id}", s.scheduleH.Delete)

	// Pay reports
	mux.HandleFunc("GET /api/schedules/{year}/{month}/payroll", s.payrollH.Get)
	mux.HandleFunc("POST /api/schedules/{year}/{month}/statements", s.payrollH.SendStatements)

	// Calendar views
	mux.HandleFunc("GET /calendar/{year}/{month}", s.calendarH.Month)
	mux.HandleFunc("GET /api/schedules/{year}/{month}/days", s.calendarH.Days)

	// Settings
	mux.HandleFunc("GET /api/settings", s.settingsH.Get)
	mux.HandleFunc("PUT /api/settings", s.settingsH.Update)

	// Push notifications
	if s.pushH != nil {
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.List)
	}

	// Backups
	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("GET /api/backups/status", s.backupH.Status)
	mux.HandleFunc("POST /api/backups/configure", s.backupH.Configure)
	mux.HandleFunc("POST /api/backups/run", s.backupH.Run)
	mux.HandleFunc("POST /api/backups/{id}/restore", s.backupH.Restore)
	mux.HandleFunc("GET /api/backups/{id}/download", s.backupH.Download)
}
