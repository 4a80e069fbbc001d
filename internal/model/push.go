package model

import "time"

// Notification type constants
const (
	NotifTypeShiftReminder   = "shift_reminder"
	NotifTypeScheduleUpdated = "schedule_updated"
)

// PushSubscription is a browser push endpoint. CaregiverID links the device
// to a caregiver so shift reminders only go to the person assigned; a NULL
// caregiver receives schedule-wide notifications only.
type PushSubscription struct {
	ID          int64     `json:"id"`
	CaregiverID *int64    `json:"caregiver_id"`
	Endpoint    string    `json:"endpoint"`
	P256dhKey   string    `json:"p256dh_key"`
	AuthKey     string    `json:"auth_key"`
	DeviceName  string    `json:"device_name"`
	CreatedAt   time.Time `json:"created_at"`
}
