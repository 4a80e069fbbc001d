package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/mkline/careshift/internal/schedule"
)

// Settings keys seeded by the initial migration.
const (
	SettingWeeklyCapHours = "schedule_weekly_cap_hours"
	SettingWeekStart      = "schedule_week_start"
	SettingDefaultPayRate = "default_pay_rate"
)

var backupKeys = []string{
	"backup_enabled",
	"backup_schedule_hour",
	"backup_retention_days",
	"backup_passphrase_salt",
}

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("setting %q not found", key)
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *SettingsStore) GetAll() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("get all settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

func (s *SettingsStore) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// ScheduleOptions resolves the builder options from settings, falling back to
// the builder defaults for anything missing or malformed.
func (s *SettingsStore) ScheduleOptions() (schedule.Options, error) {
	opts := schedule.DefaultOptions()

	if v, err := s.Get(SettingWeeklyCapHours); err == nil {
		if cap, err := strconv.Atoi(v); err == nil && cap >= 0 {
			opts.WeeklyCapHours = cap
		}
	}
	if v, err := s.Get(SettingWeekStart); err == nil {
		if wd, err := schedule.ParseWeekday(v); err == nil {
			opts.WeekStart = wd
		}
	}
	return opts, nil
}

func (s *SettingsStore) GetBackupSettings() (map[string]string, error) {
	settings := make(map[string]string)
	for _, key := range backupKeys {
		var value string
		err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get backup setting %q: %w", key, err)
		}
		settings[key] = value
	}
	return settings, nil
}
