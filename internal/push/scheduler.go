package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mkline/careshift/internal/model"
	"github.com/mkline/careshift/internal/schedule"
	"github.com/mkline/careshift/internal/store"
)

// reminderLead is how far ahead of a shift's start time the reminder goes out.
const reminderLead = 2 * time.Hour

// Scheduler periodically checks for upcoming shifts and sends reminders to
// the assigned caregiver's devices.
type Scheduler struct {
	mu        sync.RWMutex
	service   *Service
	push      *store.PushStore
	schedules *store.ScheduleStore
	logger    *slog.Logger
	interval  time.Duration
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewScheduler creates a shift-reminder scheduler.
func NewScheduler(svc *Service, pushStore *store.PushStore, scheduleStore *store.ScheduleStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service:   svc,
		push:      pushStore,
		schedules: scheduleStore,
		logger:    logger,
		interval:  60 * time.Second,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(time.Now())
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(now time.Time) {
	// The lead window can cross midnight, so query today through the day the
	// window ends on.
	from := now.Format(schedule.DateLayout)
	to := now.Add(reminderLead).Format(schedule.DateLayout)

	assignments, err := s.schedules.ListAssignmentsInRange(from, to)
	if err != nil {
		s.logger.Error("list upcoming assignments", "error", err)
		return
	}

	for _, a := range assignments {
		if a.CaregiverID == nil {
			continue
		}

		shift, err := schedule.ParseShift(a.Shift)
		if err != nil {
			s.logger.Error("bad shift in assignment", "assignment_id", a.ID, "error", err)
			continue
		}
		date, err := time.ParseInLocation(schedule.DateLayout, a.Date, now.Location())
		if err != nil {
			s.logger.Error("bad date in assignment", "assignment_id", a.ID, "error", err)
			continue
		}

		start := time.Date(date.Year(), date.Month(), date.Day(), shift.StartHour(), 0, 0, 0, now.Location())
		until := start.Sub(now)
		if until <= 0 || until > reminderLead {
			continue
		}

		refID := fmt.Sprintf("shift-%s-%s", a.Date, a.Shift)
		sent, err := s.push.WasSent(model.NotifTypeShiftReminder, refID)
		if err != nil {
			s.logger.Error("check sent notification", "error", err)
			continue
		}
		if sent {
			continue
		}

		s.sendShiftReminder(&a, shift, start)

		if err := s.push.RecordSent(model.NotifTypeShiftReminder, refID); err != nil {
			s.logger.Error("record sent notification", "error", err)
		}
	}
}

func (s *Scheduler) sendShiftReminder(a *model.Assignment, shift schedule.Shift, start time.Time) {
	subs, err := s.push.ListByCaregiver(*a.CaregiverID)
	if err != nil {
		s.logger.Error("list subscriptions", "caregiver_id", *a.CaregiverID, "error", err)
		return
	}

	payload := Payload{
		Title: "Upcoming Shift",
		Body:  fmt.Sprintf("Your %s shift starts at %s", strings.ToUpper(string(shift)), start.Format("3:04 PM")),
		URL:   "/schedule",
		Tag:   fmt.Sprintf("shift-%s-%s", a.Date, a.Shift),
	}

	for _, sub := range subs {
		if err := s.service.Send(&sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				if err := s.push.DeleteByEndpoint(sub.Endpoint); err != nil {
					s.logger.Error("delete expired subscription", "error", err)
				}
			} else {
				s.logger.Error("send shift reminder", "error", err)
			}
		}
	}
}

// NotifyScheduleUpdated pushes a "schedule rebuilt" notice to every
// subscribed device. Called from the schedule handler after a month is built.
func (s *Scheduler) NotifyScheduleUpdated(year int, month time.Month) {
	subs, err := s.push.List()
	if err != nil {
		s.logger.Error("list subscriptions for schedule update", "error", err)
		return
	}

	payload := Payload{
		Title: "Schedule Updated",
		Body:  fmt.Sprintf("The %s %d schedule has been rebuilt", month, year),
		URL:   "/schedule",
		Tag:   fmt.Sprintf("schedule-%d-%02d", year, int(month)),
	}

	for _, sub := range subs {
		if err := s.service.Send(&sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				if err := s.push.DeleteByEndpoint(sub.Endpoint); err != nil {
					s.logger.Error("delete expired subscription", "error", err)
				}
			} else {
				s.logger.Error("send schedule update", "error", err)
			}
		}
	}
}
