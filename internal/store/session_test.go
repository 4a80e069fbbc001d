package store

import (
	"testing"
	"time"

	"github.com/mkline/careshift/internal/database"
)

func setupSessionTestDB(t *testing.T) (*SessionStore, *MagicLinkStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSessionStore(db), NewMagicLinkStore(db), NewUserStore(db)
}

func TestSessionCreateAndLookup(t *testing.T) {
	ss, _, us := setupSessionTestDB(t)

	u, err := us.Create("alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	sess, err := ss.Create(u.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 { // 32 bytes hex-encoded
		t.Errorf("token length = %d, want 64", len(sess.Token))
	}
	if sess.UserID != u.ID {
		t.Errorf("user_id = %d, want %d", sess.UserID, u.ID)
	}
	if !sess.ExpiresAt.After(time.Now()) {
		t.Error("new session already expired")
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil || got.ID != sess.ID {
		t.Errorf("lookup returned %+v", got)
	}

	if got, _ := ss.GetByToken("bogus"); got != nil {
		t.Errorf("bogus token returned %+v", got)
	}

	if err := ss.Delete(sess.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if got, _ := ss.GetByToken(sess.Token); got != nil {
		t.Error("deleted session still resolves")
	}
}

func TestSessionExpiry(t *testing.T) {
	ss, _, us := setupSessionTestDB(t)

	u, err := us.Create("alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	sess, err := ss.Create(u.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	// Force the session into the past
	if _, err := ss.db.Exec(`UPDATE sessions SET expires_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-time.Hour), sess.ID); err != nil {
		t.Fatalf("expire session: %v", err)
	}

	if got, _ := ss.GetByToken(sess.Token); got != nil {
		t.Error("expired session still resolves")
	}

	deleted, err := ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}

func TestMagicLinkConsumeOnce(t *testing.T) {
	_, ms, _ := setupSessionTestDB(t)

	link, err := ms.Create("alice@example.com")
	if err != nil {
		t.Fatalf("create magic link: %v", err)
	}
	if link.Token == "" || link.UsedAt != nil {
		t.Fatalf("fresh link = %+v", link)
	}

	used, err := ms.Consume(link.Token)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if used == nil || used.Email != "alice@example.com" {
		t.Fatalf("consume returned %+v", used)
	}

	// Second consume must fail
	again, err := ms.Consume(link.Token)
	if err != nil {
		t.Fatalf("second consume: %v", err)
	}
	if again != nil {
		t.Error("magic link consumed twice")
	}
}

func TestMagicLinkExpired(t *testing.T) {
	_, ms, _ := setupSessionTestDB(t)

	link, err := ms.Create("alice@example.com")
	if err != nil {
		t.Fatalf("create magic link: %v", err)
	}
	if _, err := ms.db.Exec(`UPDATE magic_links SET expires_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-time.Minute), link.ID); err != nil {
		t.Fatalf("expire link: %v", err)
	}

	got, err := ms.Consume(link.Token)
	if err != nil {
		t.Fatalf("consume expired: %v", err)
	}
	if got != nil {
		t.Error("expired link consumed")
	}
}
