package store

import (
	"testing"

	"github.com/mkline/careshift/internal/database"
)

func setupCaregiverTestDB(t *testing.T) *CaregiverStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewCaregiverStore(db)
}

func TestCaregiverCRUD(t *testing.T) {
	cs := setupCaregiverTestDB(t)

	cg, err := cs.Create("Alice Johnson", "545-1234", "alice@example.com", true, 2000)
	if err != nil {
		t.Fatalf("create caregiver: %v", err)
	}
	if cg.Name != "Alice Johnson" {
		t.Errorf("name = %q, want %q", cg.Name, "Alice Johnson")
	}
	if !cg.IsPaid || cg.PayRateCents != 2000 {
		t.Errorf("pay = %v/%d, want paid at 2000", cg.IsPaid, cg.PayRateCents)
	}
	if cg.SortOrder != 0 {
		t.Errorf("sort_order = %d, want 0", cg.SortOrder)
	}

	got, err := cs.GetByID(cg.ID)
	if err != nil {
		t.Fatalf("get caregiver: %v", err)
	}
	if got == nil || got.Email != "alice@example.com" {
		t.Errorf("get returned %+v", got)
	}

	updated, err := cs.Update(cg.ID, "Alice J", "545-1234", "alice@example.com", false, 0)
	if err != nil {
		t.Fatalf("update caregiver: %v", err)
	}
	if updated.Name != "Alice J" || updated.IsPaid {
		t.Errorf("update returned %+v", updated)
	}

	missing, err := cs.GetByID(9999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing caregiver, got %+v", missing)
	}
}

func TestCaregiverListOrder(t *testing.T) {
	cs := setupCaregiverTestDB(t)

	for _, name := range []string{"Alice", "Bob", "Carol"} {
		if _, err := cs.Create(name, "", "", true, 2000); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	list, err := cs.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("list = %d caregivers, want 3", len(list))
	}
	for i, want := range []string{"Alice", "Bob", "Carol"} {
		if list[i].Name != want {
			t.Errorf("list[%d] = %q, want %q", i, list[i].Name, want)
		}
	}

	// Reorder: Carol first
	if err := cs.UpdateSortOrder([]int64{list[2].ID, list[0].ID, list[1].ID}); err != nil {
		t.Fatalf("update sort order: %v", err)
	}
	list, err = cs.List()
	if err != nil {
		t.Fatalf("list after reorder: %v", err)
	}
	if list[0].Name != "Carol" {
		t.Errorf("after reorder list[0] = %q, want Carol", list[0].Name)
	}
}

func TestCaregiverArchive(t *testing.T) {
	cs := setupCaregiverTestDB(t)

	cg, err := cs.Create("Alice", "", "", true, 2000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := cs.SetArchived(cg.ID, true); err != nil {
		t.Fatalf("archive: %v", err)
	}

	active, err := cs.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("active list = %d, want 0", len(active))
	}

	all, err := cs.ListAll()
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 || !all[0].Archived {
		t.Errorf("list all = %+v, want one archived caregiver", all)
	}
}

func TestCaregiverPIN(t *testing.T) {
	cs := setupCaregiverTestDB(t)

	cg, err := cs.Create("Alice", "", "", true, 2000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	hash, err := cs.GetPINHash(cg.ID)
	if err != nil {
		t.Fatalf("get pin hash: %v", err)
	}
	if hash != "" {
		t.Errorf("new caregiver pin hash = %q, want empty", hash)
	}

	if err := cs.SetPIN(cg.ID, "hashed-pin"); err != nil {
		t.Fatalf("set pin: %v", err)
	}
	got, _ := cs.GetByID(cg.ID)
	if !got.HasPIN {
		t.Error("HasPIN = false after SetPIN")
	}

	if err := cs.ClearPIN(cg.ID); err != nil {
		t.Fatalf("clear pin: %v", err)
	}
	got, _ = cs.GetByID(cg.ID)
	if got.HasPIN {
		t.Error("HasPIN = true after ClearPIN")
	}
}

func TestCaregiverNameExists(t *testing.T) {
	cs := setupCaregiverTestDB(t)

	cg, err := cs.Create("Alice", "", "", true, 2000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	exists, err := cs.NameExists("Alice", 0)
	if err != nil {
		t.Fatalf("name exists: %v", err)
	}
	if !exists {
		t.Error("expected Alice to exist")
	}

	exists, err = cs.NameExists("Alice", cg.ID)
	if err != nil {
		t.Fatalf("name exists excluding self: %v", err)
	}
	if exists {
		t.Error("excluding self should report no duplicate")
	}
}
