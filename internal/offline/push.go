package offline

import (
	"context"
	"encoding/json"

	"github.com/pawkeep/pawkeep/internal/logger"
)

// Fixed presentation for displayed push notifications.
const (
	defaultPushTitle = "PawKeep"
	defaultPushBody  = "You have a new update"
	defaultPushURL   = "/"

	pushIconPath  = "/icon-192.png"
	pushBadgePath = "/badge-72.png"
)

// pushVibration is the fixed vibration pattern, alternating
// vibrate/pause milliseconds.
var pushVibration = []int{100, 50, 100}

// PushPayload is the wire contract for push messages. All fields are
// optional; absent fields fall back to fixed defaults.
type PushPayload struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Note is a fully resolved notification handed to the Notifier.
type Note struct {
	Title     string
	Body      string
	URL       string
	Icon      string
	Badge     string
	Vibration []int
}

// Click describes a notification activation.
type Click struct {
	// NotificationID identifies the notification to dismiss.
	NotificationID string
	// URL is the target carried in the notification data; empty means
	// the application root.
	URL string
}

// HandlePush reacts to an incoming push payload: parse, apply defaults,
// display. A malformed payload is not an error; it displays as the
// default notification.
func (m *Manager) HandlePush(ctx context.Context, payload []byte) error {
	var p PushPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			m.log.Warn("malformed push payload, using defaults", logger.Error(err))
			p = PushPayload{}
		}
	}
	if p.Title == "" {
		p.Title = defaultPushTitle
	}
	if p.Body == "" {
		p.Body = defaultPushBody
	}
	if p.URL == "" {
		p.URL = defaultPushURL
	}

	if m.notifier == nil {
		m.log.Debug("push received with no notifier attached")
		return nil
	}
	id, err := m.notifier.Display(ctx, Note{
		Title:     p.Title,
		Body:      p.Body,
		URL:       p.URL,
		Icon:      pushIconPath,
		Badge:     pushBadgePath,
		Vibration: pushVibration,
	})
	if err != nil {
		return err
	}
	m.log.Info("push notification displayed",
		logger.String("id", id),
		logger.String("url", p.URL))
	return nil
}

// HandleNotificationClick closes the clicked notification and opens or
// focuses a window at its target URL, defaulting to the application root.
func (m *Manager) HandleNotificationClick(ctx context.Context, click Click) error {
	if m.notifier != nil && click.NotificationID != "" {
		m.notifier.Dismiss(click.NotificationID)
	}
	target := click.URL
	if target == "" {
		target = defaultPushURL
	}
	if m.windows == nil {
		return nil
	}
	return m.windows.OpenWindow(ctx, target)
}
