package model

import "time"

type Schedule struct {
	ID             int64     `json:"id"`
	Year           int       `json:"year"`
	Month          int       `json:"month"`
	WeeklyCapHours int       `json:"weekly_cap_hours"`
	BuiltAt        time.Time `json:"built_at"`
}

// Assignment maps one (date, shift) slot to a caregiver. A NULL caregiver
// means the slot is unfilled. Date is stored as YYYY-MM-DD.
type Assignment struct {
	ID          int64  `json:"id"`
	ScheduleID  int64  `json:"schedule_id"`
	Date        string `json:"date"`
	Shift       string `json:"shift"`
	CaregiverID *int64 `json:"caregiver_id"`
}
