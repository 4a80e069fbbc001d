package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mkline/careshift/internal/model"
	"github.com/mkline/careshift/internal/schedule"
)

type ScheduleStore struct {
	db *sql.DB
}

func NewScheduleStore(db *sql.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

// Save persists a built schedule, replacing any previous build for the same
// month. The whole write is one transaction so a half-saved month can never
// be observed.
func (s *ScheduleStore) Save(built *schedule.Schedule, weeklyCapHours int) (*model.Schedule, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM schedules WHERE year = ? AND month = ?`,
		built.Year, int(built.Month),
	); err != nil {
		return nil, fmt.Errorf("delete previous schedule: %w", err)
	}

	result, err := tx.Exec(
		`INSERT INTO schedules (year, month, weekly_cap_hours) VALUES (?, ?, ?)`,
		built.Year, int(built.Month), weeklyCapHours,
	)
	if err != nil {
		return nil, fmt.Errorf("insert schedule: %w", err)
	}
	scheduleID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO assignments (schedule_id, date, shift, caregiver_id) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare assignment insert: %w", err)
	}
	defer stmt.Close()

	for _, sa := range built.Slots {
		var caregiverID any
		if !sa.Unfilled {
			caregiverID = sa.CaregiverID
		}
		if _, err := stmt.Exec(scheduleID, sa.DateString(), string(sa.Shift), caregiverID); err != nil {
			return nil, fmt.Errorf("insert assignment %s %s: %w", sa.DateString(), sa.Shift, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByMonth(built.Year, int(built.Month))
}

func (s *ScheduleStore) GetByMonth(year, month int) (*model.Schedule, error) {
	var sched model.Schedule
	err := s.db.QueryRow(
		`SELECT id, year, month, weekly_cap_hours, built_at FROM schedules WHERE year = ? AND month = ?`,
		year, month,
	).Scan(&sched.ID, &sched.Year, &sched.Month, &sched.WeeklyCapHours, &sched.BuiltAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return &sched, nil
}

func (s *ScheduleStore) List() ([]model.Schedule, error) {
	rows, err := s.db.Query(`SELECT id, year, month, weekly_cap_hours, built_at FROM schedules ORDER BY year, month`)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []model.Schedule
	for rows.Next() {
		var sched model.Schedule
		if err := rows.Scan(&sched.ID, &sched.Year, &sched.Month, &sched.WeeklyCapHours, &sched.BuiltAt); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, sched)
	}
	return schedules, rows.Err()
}

// ListAssignments returns a schedule's assignments in slot order.
func (s *ScheduleStore) ListAssignments(scheduleID int64) ([]model.Assignment, error) {
	rows, err := s.db.Query(
		`SELECT id, schedule_id, date, shift, caregiver_id FROM assignments WHERE schedule_id = ? ORDER BY date, shift`,
		scheduleID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.ScheduleID, &a.Date, &a.Shift, &a.CaregiverID); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// ListAssignmentsInRange returns filled assignments with dates inside
// [from, to] inclusive, across all schedules. Used by the shift reminder
// scheduler.
func (s *ScheduleStore) ListAssignmentsInRange(from, to string) ([]model.Assignment, error) {
	rows, err := s.db.Query(
		`SELECT id, schedule_id, date, shift, caregiver_id FROM assignments
		 WHERE caregiver_id IS NOT NULL AND date >= ? AND date <= ?
		 ORDER BY date, shift`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignments in range: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.ScheduleID, &a.Date, &a.Shift, &a.CaregiverID); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// LoadBuilt rehydrates a stored schedule into the in-memory form the payroll
// and calendar layers consume.
func (s *ScheduleStore) LoadBuilt(sched *model.Schedule) (*schedule.Schedule, error) {
	assignments, err := s.ListAssignments(sched.ID)
	if err != nil {
		return nil, err
	}

	built := &schedule.Schedule{Year: sched.Year, Month: time.Month(sched.Month)}
	for _, a := range assignments {
		date, err := time.ParseInLocation(schedule.DateLayout, a.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse assignment date %q: %w", a.Date, err)
		}
		shift, err := schedule.ParseShift(a.Shift)
		if err != nil {
			return nil, fmt.Errorf("assignment %d: %w", a.ID, err)
		}
		sa := schedule.SlotAssignment{Slot: schedule.Slot{Date: date, Shift: shift}}
		if a.CaregiverID != nil {
			sa.CaregiverID = *a.CaregiverID
		} else {
			sa.Unfilled = true
		}
		built.Slots = append(built.Slots, sa)
	}
	return built, nil
}

func (s *ScheduleStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}
