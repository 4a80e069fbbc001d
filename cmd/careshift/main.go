package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mkline/careshift/internal/backup"
	"github.com/mkline/careshift/internal/database"
	"github.com/mkline/careshift/internal/email"
	"github.com/mkline/careshift/internal/logging"
	"github.com/mkline/careshift/internal/server"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// .env is optional; real deployments set the environment directly
	godotenv.Load()

	logger := logging.Setup(env("CARESHIFT_LOG_LEVEL", "info"))

	port := env("CARESHIFT_PORT", "8080")
	dbPath := env("CARESHIFT_DB_PATH", "careshift.db")
	baseURL := env("CARESHIFT_BASE_URL", "http://localhost:"+port)

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	emailClient := email.NewClient(
		os.Getenv("CARESHIFT_POSTMARK_TOKEN"),
		os.Getenv("CARESHIFT_FROM_EMAIL"),
		baseURL,
	)

	cfg := server.Config{
		Backup: backup.Config{
			DBPath: dbPath,
			S3: backup.S3Config{
				Endpoint:  os.Getenv("CARESHIFT_S3_ENDPOINT"),
				Bucket:    os.Getenv("CARESHIFT_S3_BUCKET"),
				Region:    env("CARESHIFT_S3_REGION", "auto"),
				AccessKey: os.Getenv("CARESHIFT_S3_ACCESS_KEY"),
				SecretKey: os.Getenv("CARESHIFT_S3_SECRET_KEY"),
			},
		},
	}
	cfg.Push.VAPIDPublicKey = os.Getenv("CARESHIFT_VAPID_PUBLIC_KEY")
	cfg.Push.VAPIDPrivateKey = os.Getenv("CARESHIFT_VAPID_PRIVATE_KEY")
	cfg.Push.Subscriber = "mailto:" + env("CARESHIFT_ADMIN_EMAIL", "admin@localhost")

	srv := server.New(db, emailClient, cfg, logger)

	// First run: seed the admin account so the magic-link login has someone
	// to send to
	if adminEmail := os.Getenv("CARESHIFT_ADMIN_EMAIL"); adminEmail != "" {
		if n, err := srv.UserStore().Count(); err == nil && n == 0 {
			if _, err := srv.UserStore().Create(adminEmail, "Admin"); err != nil {
				logger.Error("create admin user", "error", err)
			} else {
				logger.Info("created admin user", "email", adminEmail)
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.BackupManager().Start(ctx)
	defer srv.BackupManager().Stop()
	if sched := srv.PushScheduler(); sched != nil {
		sched.Start(ctx)
		defer sched.Stop()
	}

	go cleanupLoop(ctx, srv, logger)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("CareShift running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// cleanupLoop periodically purges expired sessions, used magic links, and
// stale rate-limit entries.
func cleanupLoop(ctx context.Context, srv *server.Server, logger *slog.Logger) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := srv.SessionStore().DeleteExpired(); err != nil {
				logger.Error("cleanup sessions", "error", err)
			}
			if _, err := srv.MagicLinkStore().DeleteExpired(); err != nil {
				logger.Error("cleanup magic links", "error", err)
			}
			srv.RateLimiter().Cleanup()
		}
	}
}
