package tracker

import (
	"context"
	"fmt"
	"time"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/events"
	"example.com/fittrack/internal/schedule"
)

// Reminder topics.
const (
	TopicWater = "water"
	TopicSleep = "sleep"
)

var (
	// Every two hours from 08:00 through 22:00.
	waterReminderTimes = []schedule.TimeOfDay{{Hour: 8}, {Hour: 10}, {Hour: 12}, {Hour: 14}, {Hour: 16}, {Hour: 18}, {Hour: 20}, {Hour: 22}}
	sleepReminderTime  = schedule.TimeOfDay{Hour: 22}
)

func waterTaskName(at schedule.TimeOfDay) string {
	return fmt.Sprintf("reminder-water-%02d%02d", at.Hour, at.Minute)
}

const sleepTaskName = "reminder-sleep"

// scheduleReminders arms or cancels reminder tasks to match settings. Callers hold s.mu.
func (s *Service) scheduleReminders(settings domain.Settings) {
	for _, at := range waterReminderTimes {
		name := waterTaskName(at)
		if settings.Notifications.WaterReminders {
			s.scheduler.Daily(name, at, s.waterReminder)
		} else {
			s.scheduler.Cancel(name)
		}
	}
	if settings.Notifications.SleepReminders {
		s.scheduler.Daily(sleepTaskName, sleepReminderTime, s.sleepReminder)
	} else {
		s.scheduler.Cancel(sleepTaskName)
	}
}

// waterReminder fires only while the day's water goal is unmet.
func (s *Service) waterReminder(at time.Time) {
	ctx := context.Background()
	progress, err := s.progress.WaterProgress(ctx, domain.DateOf(at))
	if err != nil {
		s.logger.Printf("water reminder: %v", err)
		return
	}
	if progress.Remaining <= 0 {
		return
	}
	s.bus.Publish(ctx, events.ReminderDue{
		Topic:   TopicWater,
		Message: fmt.Sprintf("You need %g more glasses of water today!", progress.Remaining),
		DueAt:   at,
	})
}

func (s *Service) sleepReminder(at time.Time) {
	s.bus.Publish(context.Background(), events.ReminderDue{
		Topic:   TopicSleep,
		Message: "Time to wind down for better sleep quality!",
		DueAt:   at,
	})
}
