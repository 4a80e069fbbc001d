package store

import (
	"testing"
	"time"

	"github.com/mkline/careshift/internal/database"
)

func setupSettingsTestDB(t *testing.T) *SettingsStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSettingsStore(db)
}

func TestSettingsSeedDefaults(t *testing.T) {
	ss := setupSettingsTestDB(t)

	if v, err := ss.Get(SettingWeeklyCapHours); err != nil || v != "0" {
		t.Errorf("weekly cap = %q, %v; want \"0\"", v, err)
	}
	if v, err := ss.Get(SettingWeekStart); err != nil || v != "monday" {
		t.Errorf("week start = %q, %v; want \"monday\"", v, err)
	}
	if v, err := ss.Get(SettingDefaultPayRate); err != nil || v != "20.00" {
		t.Errorf("default pay rate = %q, %v; want \"20.00\"", v, err)
	}
}

func TestSettingsSetAndGetAll(t *testing.T) {
	ss := setupSettingsTestDB(t)

	if err := ss.Set(SettingWeeklyCapHours, "36"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, _ := ss.Get(SettingWeeklyCapHours); v != "36" {
		t.Errorf("after set = %q, want 36", v)
	}

	all, err := ss.GetAll()
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if all[SettingWeeklyCapHours] != "36" || all[SettingWeekStart] != "monday" {
		t.Errorf("get all = %+v", all)
	}

	if _, err := ss.Get("no_such_key"); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestSettingsScheduleOptions(t *testing.T) {
	ss := setupSettingsTestDB(t)

	opts, err := ss.ScheduleOptions()
	if err != nil {
		t.Fatalf("schedule options: %v", err)
	}
	if opts.WeeklyCapHours != 0 || opts.WeekStart != time.Monday {
		t.Errorf("default options = %+v", opts)
	}

	if err := ss.Set(SettingWeeklyCapHours, "30"); err != nil {
		t.Fatalf("set cap: %v", err)
	}
	if err := ss.Set(SettingWeekStart, "sunday"); err != nil {
		t.Fatalf("set week start: %v", err)
	}

	opts, _ = ss.ScheduleOptions()
	if opts.WeeklyCapHours != 30 || opts.WeekStart != time.Sunday {
		t.Errorf("configured options = %+v", opts)
	}

	// Malformed values fall back to the defaults
	if err := ss.Set(SettingWeekStart, "caturday"); err != nil {
		t.Fatalf("set bad week start: %v", err)
	}
	opts, _ = ss.ScheduleOptions()
	if opts.WeekStart != time.Monday {
		t.Errorf("bad week start resolved to %v, want Monday fallback", opts.WeekStart)
	}
}
