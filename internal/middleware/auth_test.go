package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mkline/careshift/internal/auth"
	"github.com/mkline/careshift/internal/database"
	"github.com/mkline/careshift/internal/store"
)

func setupAuthTest(t *testing.T) (*store.SessionStore, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewSessionStore(db), store.NewUserStore(db)
}

func TestRequireAuthMissingCookie(t *testing.T) {
	ss, _ := setupAuthTest(t)

	handler := RequireAuth(ss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run without a session")
	}))

	// Page request: redirect to login
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/schedule", nil))
	if rec.Code != http.StatusSeeOther {
		t.Errorf("page status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("redirect = %q, want /login", loc)
	}

	// API request: plain 401
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/caregivers", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("api status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	ss, _ := setupAuthTest(t)

	handler := RequireAuth(ss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run with a bogus token")
	}))

	req := httptest.NewRequest("GET", "/api/caregivers", nil)
	req.AddCookie(SessionCookie("bogus-token", 3600))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthValidSession(t *testing.T) {
	ss, us := setupAuthTest(t)

	u, err := us.Create("alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	sess, err := ss.Create(u.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var gotUserID, gotSessionID int64
	handler := RequireAuth(ss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = auth.UserID(r.Context())
		gotSessionID = auth.SessionID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/caregivers", nil)
	req.AddCookie(SessionCookie(sess.Token, 3600))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUserID != u.ID {
		t.Errorf("context user = %d, want %d", gotUserID, u.ID)
	}
	if gotSessionID != sess.ID {
		t.Errorf("context session = %d, want %d", gotSessionID, sess.ID)
	}
}
