package store

import (
	"testing"
	"time"

	"github.com/mkline/careshift/internal/database"
	"github.com/mkline/careshift/internal/schedule"
)

func setupAvailabilityTestDB(t *testing.T) (*AvailabilityStore, *CaregiverStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAvailabilityStore(db), NewCaregiverStore(db)
}

func TestAvailabilityWeeklyUpsert(t *testing.T) {
	as, cs := setupAvailabilityTestDB(t)
	cg, err := cs.Create("Alice", "", "", true, 2000)
	if err != nil {
		t.Fatalf("create caregiver: %v", err)
	}

	if err := as.SetWeekly(cg.ID, time.Monday, schedule.ShiftAM, schedule.PreferencePreferred); err != nil {
		t.Fatalf("set weekly: %v", err)
	}
	entries, err := as.ListWeekly(cg.ID)
	if err != nil {
		t.Fatalf("list weekly: %v", err)
	}
	if len(entries) != 1 || entries[0].Preference != "preferred" {
		t.Fatalf("entries = %+v, want one preferred", entries)
	}

	// Upsert the same cell
	if err := as.SetWeekly(cg.ID, time.Monday, schedule.ShiftAM, schedule.PreferenceUnavailable); err != nil {
		t.Fatalf("update weekly: %v", err)
	}
	entries, _ = as.ListWeekly(cg.ID)
	if len(entries) != 1 || entries[0].Preference != "unavailable" {
		t.Fatalf("entries after upsert = %+v, want one unavailable", entries)
	}

	// Setting back to available deletes the row (it's the default)
	if err := as.SetWeekly(cg.ID, time.Monday, schedule.ShiftAM, schedule.PreferenceAvailable); err != nil {
		t.Fatalf("reset weekly: %v", err)
	}
	entries, _ = as.ListWeekly(cg.ID)
	if len(entries) != 0 {
		t.Fatalf("entries after reset = %+v, want none", entries)
	}
}

func TestAvailabilityExceptions(t *testing.T) {
	as, cs := setupAvailabilityTestDB(t)
	cg, err := cs.Create("Alice", "", "", true, 2000)
	if err != nil {
		t.Fatalf("create caregiver: %v", err)
	}

	if err := as.SetException(cg.ID, "2024-12-25", schedule.ShiftAM, schedule.PreferenceUnavailable); err != nil {
		t.Fatalf("set exception: %v", err)
	}

	exceptions, err := as.ListExceptions(cg.ID, "2024-12-01", "2024-12-31")
	if err != nil {
		t.Fatalf("list exceptions: %v", err)
	}
	if len(exceptions) != 1 || exceptions[0].Date != "2024-12-25" {
		t.Fatalf("exceptions = %+v", exceptions)
	}

	// Out of range
	exceptions, _ = as.ListExceptions(cg.ID, "2025-01-01", "2025-01-31")
	if len(exceptions) != 0 {
		t.Errorf("out-of-range exceptions = %+v, want none", exceptions)
	}

	if err := as.DeleteException(cg.ID, "2024-12-25", schedule.ShiftAM); err != nil {
		t.Fatalf("delete exception: %v", err)
	}
	exceptions, _ = as.ListExceptions(cg.ID, "2024-12-01", "2024-12-31")
	if len(exceptions) != 0 {
		t.Errorf("exceptions after delete = %+v, want none", exceptions)
	}
}

func TestAvailabilityLoadTable(t *testing.T) {
	as, cs := setupAvailabilityTestDB(t)
	cg, err := cs.Create("Alice", "", "", true, 2000)
	if err != nil {
		t.Fatalf("create caregiver: %v", err)
	}

	if err := as.SetWeekly(cg.ID, time.Tuesday, schedule.ShiftPM, schedule.PreferenceUnavailable); err != nil {
		t.Fatalf("set weekly: %v", err)
	}
	// 2024-12-03 is a Tuesday; the exception flips it back on for that date.
	if err := as.SetException(cg.ID, "2024-12-03", schedule.ShiftPM, schedule.PreferencePreferred); err != nil {
		t.Fatalf("set exception: %v", err)
	}

	avail, err := as.LoadTable("2024-12-01", "2024-12-31")
	if err != nil {
		t.Fatalf("load table: %v", err)
	}

	tue3 := schedule.Slot{Date: time.Date(2024, 12, 3, 0, 0, 0, 0, time.UTC), Shift: schedule.ShiftPM}
	tue10 := schedule.Slot{Date: time.Date(2024, 12, 10, 0, 0, 0, 0, time.UTC), Shift: schedule.ShiftPM}

	if p := avail.For(cg.ID, tue3); p != schedule.PreferencePreferred {
		t.Errorf("Dec 3 PM = %s, want preferred (exception)", p)
	}
	if p := avail.For(cg.ID, tue10); p != schedule.PreferenceUnavailable {
		t.Errorf("Dec 10 PM = %s, want unavailable (weekly)", p)
	}
	// Unset cell defaults to available
	monAM := schedule.Slot{Date: time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC), Shift: schedule.ShiftAM}
	if p := avail.For(cg.ID, monAM); p != schedule.PreferenceAvailable {
		t.Errorf("Dec 2 AM = %s, want available default", p)
	}
}

func TestAvailabilityCascadeOnCaregiverDelete(t *testing.T) {
	as, cs := setupAvailabilityTestDB(t)
	cg, err := cs.Create("Alice", "", "", true, 2000)
	if err != nil {
		t.Fatalf("create caregiver: %v", err)
	}
	if err := as.SetWeekly(cg.ID, time.Monday, schedule.ShiftAM, schedule.PreferencePreferred); err != nil {
		t.Fatalf("set weekly: %v", err)
	}

	// Direct delete (archive is the normal path, but the FK must still hold)
	if _, err := cs.db.Exec(`DELETE FROM caregivers WHERE id = ?`, cg.ID); err != nil {
		t.Fatalf("delete caregiver: %v", err)
	}
	entries, err := as.ListWeekly(cg.ID)
	if err != nil {
		t.Fatalf("list weekly: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries survived caregiver delete: %+v", entries)
	}
}
