// Package notification provides in-app notifications with live
// subscriber delivery and optional forwarding to external push
// services.
package notification

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotificationNotFound is returned when a notification lookup finds
// nothing.
var ErrNotificationNotFound = errors.New("notification not found")

// Type categorizes notifications.
type Type string

const (
	TypeReminder Type = "reminder"
	TypeInfo     Type = "info"
	TypeWarning  Type = "warning"
	TypeError    Type = "error"
	TypeSystem   Type = "system"
)

// Priority orders notifications by urgency.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Status tracks the lifecycle of a notification.
type Status string

const (
	StatusUnread       Status = "unread"
	StatusRead         Status = "read"
	StatusAcknowledged Status = "acknowledged"
)

// Notification is a single user-facing notice.
type Notification struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Priority  Priority       `json:"priority"`
	Status    Status         `json:"status"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Component string         `json:"component,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
}

// NewNotification creates an unread notification with a fresh ID.
func NewNotification(notifType Type, priority Priority, title, message string) *Notification {
	return &Notification{
		ID:        uuid.New().String(),
		Type:      notifType,
		Priority:  priority,
		Status:    StatusUnread,
		Title:     title,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// WithComponent tags the notification with its producing component.
func (n *Notification) WithComponent(component string) *Notification {
	n.Component = component
	return n
}

// WithMetadata attaches a metadata value.
func (n *Notification) WithMetadata(key string, value any) *Notification {
	if n.Metadata == nil {
		n.Metadata = make(map[string]any)
	}
	n.Metadata[key] = value
	return n
}

// WithExpiry sets an absolute expiry time.
func (n *Notification) WithExpiry(expiresAt time.Time) *Notification {
	n.ExpiresAt = &expiresAt
	return n
}

// IsExpired reports whether the notification has passed its expiry.
func (n *Notification) IsExpired() bool {
	return n.ExpiresAt != nil && time.Now().After(*n.ExpiresAt)
}

// FilterOptions narrows List results. Zero-value fields match
// everything.
type FilterOptions struct {
	Types      []Type
	Priorities []Priority
	Status     []Status
	Limit      int
	Offset     int
}

func (f *FilterOptions) matches(n *Notification) bool {
	if f == nil {
		return true
	}
	if len(f.Types) > 0 && !contains(f.Types, n.Type) {
		return false
	}
	if len(f.Priorities) > 0 && !contains(f.Priorities, n.Priority) {
		return false
	}
	if len(f.Status) > 0 && !contains(f.Status, n.Status) {
		return false
	}
	return true
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
