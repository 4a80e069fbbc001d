package model

import "time"

// AvailabilityEntry is a caregiver's standing preference for one weekly
// (weekday, shift) cell. Weekday follows time.Weekday (0 = Sunday).
// Cells with no entry default to "available".
type AvailabilityEntry struct {
	ID          int64     `json:"id"`
	CaregiverID int64     `json:"caregiver_id"`
	Weekday     int       `json:"weekday"`
	Shift       string    `json:"shift"`
	Preference  string    `json:"preference"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AvailabilityException overrides the weekly entry for one concrete date.
// Date is stored as YYYY-MM-DD.
type AvailabilityException struct {
	ID          int64     `json:"id"`
	CaregiverID int64     `json:"caregiver_id"`
	Date        string    `json:"date"`
	Shift       string    `json:"shift"`
	Preference  string    `json:"preference"`
	CreatedAt   time.Time `json:"created_at"`
}
