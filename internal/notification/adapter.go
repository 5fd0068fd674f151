package notification

import (
	"context"

	"github.com/pawkeep/pawkeep/internal/offline"
)

// OfflineAdapter exposes the notification service as the display hook
// of the offline cache manager. Push payloads surface as in-app
// notifications, and clicks dismiss them.
type OfflineAdapter struct {
	service *Service
}

// NewOfflineAdapter wraps the given service.
func NewOfflineAdapter(service *Service) *OfflineAdapter {
	return &OfflineAdapter{service: service}
}

// Display stores the resolved push note as a reminder notification and
// returns its ID.
func (a *OfflineAdapter) Display(ctx context.Context, note offline.Note) (string, error) {
	n := NewNotification(TypeReminder, PriorityHigh, note.Title, note.Body).
		WithComponent("offline").
		WithMetadata("url", note.URL).
		WithMetadata("icon", note.Icon).
		WithMetadata("badge", note.Badge)
	created, err := a.service.Create(ctx, n)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

// Dismiss removes a displayed notification. Unknown IDs are ignored;
// the notification may already have expired.
func (a *OfflineAdapter) Dismiss(id string) {
	_ = a.service.Delete(id)
}
