package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mkline/careshift/internal/model"
	"github.com/mkline/careshift/internal/schedule"
)

type AvailabilityStore struct {
	db *sql.DB
}

func NewAvailabilityStore(db *sql.DB) *AvailabilityStore {
	return &AvailabilityStore{db: db}
}

const entryCols = `id, caregiver_id, weekday, shift, preference, created_at, updated_at`

// SetWeekly upserts the standing preference for one (weekday, shift) cell.
// Setting a cell back to "available" deletes the row, since available is the
// default for unspecified cells.
func (s *AvailabilityStore) SetWeekly(caregiverID int64, weekday time.Weekday, shift schedule.Shift, pref schedule.Preference) error {
	if pref == schedule.PreferenceAvailable {
		_, err := s.db.Exec(
			`DELETE FROM availability_entries WHERE caregiver_id = ? AND weekday = ? AND shift = ?`,
			caregiverID, int(weekday), string(shift),
		)
		if err != nil {
			return fmt.Errorf("delete availability entry: %w", err)
		}
		return nil
	}

	_, err := s.db.Exec(
		`INSERT INTO availability_entries (caregiver_id, weekday, shift, preference) VALUES (?, ?, ?, ?)
		 ON CONFLICT(caregiver_id, weekday, shift) DO UPDATE SET preference = excluded.preference, updated_at = CURRENT_TIMESTAMP`,
		caregiverID, int(weekday), string(shift), string(pref),
	)
	if err != nil {
		return fmt.Errorf("upsert availability entry: %w", err)
	}
	return nil
}

// ListWeekly returns a caregiver's explicit weekly entries.
func (s *AvailabilityStore) ListWeekly(caregiverID int64) ([]model.AvailabilityEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+entryCols+` FROM availability_entries WHERE caregiver_id = ? ORDER BY weekday, shift`,
		caregiverID,
	)
	if err != nil {
		return nil, fmt.Errorf("list availability entries: %w", err)
	}
	defer rows.Close()

	var entries []model.AvailabilityEntry
	for rows.Next() {
		var e model.AvailabilityEntry
		if err := rows.Scan(&e.ID, &e.CaregiverID, &e.Weekday, &e.Shift, &e.Preference, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan availability entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SetException upserts a one-date override. Date must be YYYY-MM-DD.
func (s *AvailabilityStore) SetException(caregiverID int64, date string, shift schedule.Shift, pref schedule.Preference) error {
	_, err := s.db.Exec(
		`INSERT INTO availability_exceptions (caregiver_id, date, shift, preference) VALUES (?, ?, ?, ?)
		 ON CONFLICT(caregiver_id, date, shift) DO UPDATE SET preference = excluded.preference`,
		caregiverID, date, string(shift), string(pref),
	)
	if err != nil {
		return fmt.Errorf("upsert availability exception: %w", err)
	}
	return nil
}

// DeleteException removes a one-date override, restoring the weekly entry.
func (s *AvailabilityStore) DeleteException(caregiverID int64, date string, shift schedule.Shift) error {
	_, err := s.db.Exec(
		`DELETE FROM availability_exceptions WHERE caregiver_id = ? AND date = ? AND shift = ?`,
		caregiverID, date, string(shift),
	)
	if err != nil {
		return fmt.Errorf("delete availability exception: %w", err)
	}
	return nil
}

// ListExceptions returns a caregiver's overrides within [from, to] inclusive.
func (s *AvailabilityStore) ListExceptions(caregiverID int64, from, to string) ([]model.AvailabilityException, error) {
	rows, err := s.db.Query(
		`SELECT id, caregiver_id, date, shift, preference, created_at
		 FROM availability_exceptions
		 WHERE caregiver_id = ? AND date >= ? AND date <= ?
		 ORDER BY date, shift`,
		caregiverID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list availability exceptions: %w", err)
	}
	defer rows.Close()

	var exceptions []model.AvailabilityException
	for rows.Next() {
		var e model.AvailabilityException
		if err := rows.Scan(&e.ID, &e.CaregiverID, &e.Date, &e.Shift, &e.Preference, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan availability exception: %w", err)
		}
		exceptions = append(exceptions, e)
	}
	return exceptions, rows.Err()
}

// LoadTable builds the resolver the schedule builder consumes: every weekly
// entry plus every exception falling inside [from, to].
func (s *AvailabilityStore) LoadTable(from, to string) (*schedule.Availability, error) {
	avail := schedule.NewAvailability()

	rows, err := s.db.Query(`SELECT caregiver_id, weekday, shift, preference FROM availability_entries`)
	if err != nil {
		return nil, fmt.Errorf("load weekly entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var caregiverID int64
		var weekday int
		var shiftStr, prefStr string
		if err := rows.Scan(&caregiverID, &weekday, &shiftStr, &prefStr); err != nil {
			return nil, fmt.Errorf("scan weekly entry: %w", err)
		}
		shift, err := schedule.ParseShift(shiftStr)
		if err != nil {
			return nil, fmt.Errorf("weekly entry for caregiver %d: %w", caregiverID, err)
		}
		pref, err := schedule.ParsePreference(prefStr)
		if err != nil {
			return nil, fmt.Errorf("weekly entry for caregiver %d: %w", caregiverID, err)
		}
		avail.SetWeekly(caregiverID, time.Weekday(weekday), shift, pref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	exRows, err := s.db.Query(
		`SELECT caregiver_id, date, shift, preference FROM availability_exceptions WHERE date >= ? AND date <= ?`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("load exceptions: %w", err)
	}
	defer exRows.Close()

	for exRows.Next() {
		var caregiverID int64
		var date, shiftStr, prefStr string
		if err := exRows.Scan(&caregiverID, &date, &shiftStr, &prefStr); err != nil {
			return nil, fmt.Errorf("scan exception: %w", err)
		}
		shift, err := schedule.ParseShift(shiftStr)
		if err != nil {
			return nil, fmt.Errorf("exception for caregiver %d: %w", caregiverID, err)
		}
		pref, err := schedule.ParsePreference(prefStr)
		if err != nil {
			return nil, fmt.Errorf("exception for caregiver %d: %w", caregiverID, err)
		}
		avail.SetException(caregiverID, date, shift, pref)
	}
	return avail, exRows.Err()
}
