package reminder

import (
	"context"

	"github.com/pawkeep/pawkeep/internal/conf"
	"github.com/pawkeep/pawkeep/internal/datastore/repository"
	"github.com/pawkeep/pawkeep/internal/logger"
	"github.com/pawkeep/pawkeep/internal/notification"
)

// notificationAdapter lazily resolves the notification service to
// implement NotificationCreator. This avoids hard initialization
// ordering between the reminder and notification subsystems.
type notificationAdapter struct{}

func (a *notificationAdapter) CreateAndBroadcast(ctx context.Context, title, message string) error {
	svc := notification.GetService()
	if svc == nil {
		return nil // notification service not yet initialized
	}
	_, err := svc.CreateWithComponent(ctx, notification.TypeReminder, notification.PriorityHigh, title, message, "reminder")
	return err
}

// Initialize creates and starts the reminder engine. It wires the
// dispatcher to the event bus, installs the global bus singleton, and
// starts the periodic due scan and history cleanup.
func Initialize(
	ctx context.Context,
	pets repository.PetRepository,
	history repository.ReminderRepository,
	push PushSender,
	log logger.Logger,
) (*Engine, error) {
	bus := NewEventBus()
	dispatcher := NewDispatcher(&notificationAdapter{}, push, log)
	bus.Subscribe(dispatcher.Dispatch)
	SetGlobalBus(bus)

	var opts []EngineOption
	var retentionDays int
	if settings := conf.GetSettings(); settings != nil {
		if d := settings.Reminder.CheckInterval.Std(); d > 0 {
			opts = append(opts, WithCheckInterval(d))
		}
		if d := settings.Reminder.Cooldown.Std(); d > 0 {
			opts = append(opts, WithCooldown(d))
		}
		retentionDays = settings.Reminder.HistoryRetentionDays
	}

	engine := NewEngine(pets, history, bus, log, opts...)
	engine.Start(ctx)
	engine.StartHistoryCleanup(retentionDays)

	log.Info("reminder engine initialized")
	return engine, nil
}
