package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pawkeep/pawkeep/internal/logger"
	"github.com/pawkeep/pawkeep/internal/offline"
)

// ReminderTitle is the fixed title of medication reminders.
const ReminderTitle = "Medication reminder"

// ReminderURL is the navigation target carried in reminder payloads.
const ReminderURL = "/dashboard/medications"

const dispatchTimeout = 10 * time.Second

// NotificationCreator abstracts the notification service for
// testability.
type NotificationCreator interface {
	CreateAndBroadcast(ctx context.Context, title, message string) error
}

// PushSender delivers a raw push payload. The offline cache manager
// satisfies this.
type PushSender interface {
	HandlePush(ctx context.Context, payload []byte) error
}

// Dispatcher routes reminder events to the in-app notification bell
// and the push pipeline.
type Dispatcher struct {
	notifCreator NotificationCreator
	push         PushSender
	log          logger.Logger
}

// NewDispatcher creates a Dispatcher. Either sink may be nil.
func NewDispatcher(notifCreator NotificationCreator, push PushSender, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		notifCreator: notifCreator,
		push:         push,
		log:          log,
	}
}

// Dispatch implements EventHandler.
func (d *Dispatcher) Dispatch(event *ReminderEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	title := ReminderTitle
	message := RenderMessage(event)

	if d.notifCreator != nil {
		if err := d.notifCreator.CreateAndBroadcast(ctx, title, message); err != nil {
			d.log.Error("failed to create bell notification",
				logger.Uint64("medication_id", uint64(event.MedicationID)),
				logger.Error(err))
		}
	}

	if d.push != nil {
		payload, err := json.Marshal(offline.PushPayload{
			Title: title,
			Body:  message,
			URL:   ReminderURL,
		})
		if err != nil {
			d.log.Error("failed to marshal push payload", logger.Error(err))
			return
		}
		if err := d.push.HandlePush(ctx, payload); err != nil {
			d.log.Error("failed to deliver reminder push",
				logger.Uint64("medication_id", uint64(event.MedicationID)),
				logger.Error(err))
		}
	}
}

// RenderMessage builds the reminder body shown to the owner.
func RenderMessage(event *ReminderEvent) string {
	subject := event.MedicationName
	if subject == "" {
		subject = "medication"
	}
	var msg string
	if event.PetName != "" {
		msg = fmt.Sprintf("Give %s their %s", event.PetName, subject)
	} else {
		msg = fmt.Sprintf("Time for %s", subject)
	}
	if event.Dosage != "" {
		msg += fmt.Sprintf(" (%s)", event.Dosage)
	}
	return msg
}
