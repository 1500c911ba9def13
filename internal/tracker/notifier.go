package tracker

import (
	"context"
	"log"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/events"
)

type settingsReader interface {
	Settings(ctx context.Context) (domain.Settings, error)
}

// notifier writes user-facing notifications to the log. Achievement alerts
// respect the achievementAlerts setting.
type notifier struct {
	settings settingsReader
	logger   *log.Logger
}

func newNotifier(settings settingsReader, logger *log.Logger) *notifier {
	return &notifier{settings: settings, logger: logger}
}

func (n *notifier) register(bus interface {
	Subscribe(h events.Handler, types ...events.Type)
}) {
	bus.Subscribe(n.handle,
		events.TypeAchievementAwarded,
		events.TypeLevelUp,
		events.TypeStreakUpdated,
		events.TypeReminderDue,
	)
}

func (n *notifier) handle(ctx context.Context, e events.Event) {
	switch ev := e.(type) {
	case events.AchievementAwarded:
		if n.alertsEnabled(ctx) {
			n.logger.Printf("achievement unlocked: %s (+%d points, total %d)", ev.Achievement.Title, ev.Achievement.Points, ev.TotalPoints)
		}
	case events.LevelUp:
		if n.alertsEnabled(ctx) {
			n.logger.Printf("level up! you reached level %d", ev.Level)
		}
	case events.StreakUpdated:
		n.logger.Printf("streak: %d day(s), longest %d", ev.Current, ev.Longest)
	case events.ReminderDue:
		n.logger.Printf("%s reminder: %s", ev.Topic, ev.Message)
	}
}

func (n *notifier) alertsEnabled(ctx context.Context) bool {
	settings, err := n.settings.Settings(ctx)
	if err != nil {
		n.logger.Printf("read settings: %v", err)
		return true
	}
	return settings.Notifications.AchievementAlerts
}
