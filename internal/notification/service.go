package notification

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pawkeep/pawkeep/internal/logger"
)

const (
	defaultMaxNotifications = 1000
	defaultCleanupInterval  = 5 * time.Minute
	subscriberBuffer        = 64
)

// ServiceConfig configures the notification service.
type ServiceConfig struct {
	Debug              bool
	MaxNotifications   int
	CleanupInterval    time.Duration
	NotificationExpiry time.Duration
}

// DefaultServiceConfig returns the baseline configuration.
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		MaxNotifications:   defaultMaxNotifications,
		CleanupInterval:    defaultCleanupInterval,
		NotificationExpiry: 24 * time.Hour,
	}
}

type subscriber struct {
	ch     chan *Notification
	ctx    context.Context
	cancel context.CancelFunc
}

// Service stores notifications in memory, broadcasts new ones to
// subscribers, and optionally forwards them to external providers.
type Service struct {
	config *ServiceConfig
	log    logger.Logger

	mu            sync.RWMutex
	notifications map[string]*Notification
	subscribers   []*subscriber
	providers     []Provider

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Provider forwards notifications to an external delivery channel.
type Provider interface {
	Name() string
	Enabled() bool
	Send(ctx context.Context, n *Notification) error
}

// NewService creates a notification service and starts its expiry
// cleanup loop.
func NewService(config *ServiceConfig) *Service {
	if config == nil {
		config = DefaultServiceConfig()
	}
	if config.MaxNotifications <= 0 {
		config.MaxNotifications = defaultMaxNotifications
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaultCleanupInterval
	}
	s := &Service{
		config:        config,
		log:           logger.Default().With(logger.String("service", "notification")),
		notifications: make(map[string]*Notification),
		stopCh:        make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// AddProvider registers an external delivery provider.
func (s *Service) AddProvider(p Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers = append(s.providers, p)
}

// Create stores a notification and broadcasts it to subscribers and
// providers.
func (s *Service) Create(ctx context.Context, n *Notification) (*Notification, error) {
	if n.ExpiresAt == nil && s.config.NotificationExpiry > 0 {
		expiry := n.Timestamp.Add(s.config.NotificationExpiry)
		n.ExpiresAt = &expiry
	}

	s.mu.Lock()
	s.notifications[n.ID] = n
	s.evictOldestLocked()
	subs := make([]*subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	providers := make([]Provider, len(s.providers))
	copy(providers, s.providers)
	s.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub.ch <- n:
		default:
			s.log.Warn("subscriber channel full, dropping notification",
				logger.String("notification_id", n.ID))
		}
	}
	for _, p := range providers {
		if !p.Enabled() {
			continue
		}
		if err := p.Send(ctx, n); err != nil {
			s.log.Error("provider delivery failed",
				logger.String("provider", p.Name()),
				logger.String("notification_id", n.ID),
				logger.Error(err))
		}
	}
	return n, nil
}

// CreateWithComponent is a convenience wrapper used by producing
// subsystems.
func (s *Service) CreateWithComponent(ctx context.Context, notifType Type, priority Priority, title, message, component string) (*Notification, error) {
	return s.Create(ctx, NewNotification(notifType, priority, title, message).WithComponent(component))
}

// Get returns a notification by ID.
func (s *Service) Get(id string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notifications[id]
	if !ok {
		return nil, ErrNotificationNotFound
	}
	return n, nil
}

// List returns notifications matching the filter, newest first.
func (s *Service) List(filter *FilterOptions) ([]*Notification, error) {
	s.mu.RLock()
	matched := make([]*Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if n.IsExpired() {
			continue
		}
		if filter.matches(n) {
			matched = append(matched, n)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(matched) {
				return []*Notification{}, nil
			}
			matched = matched[filter.Offset:]
		}
		if filter.Limit > 0 && filter.Limit < len(matched) {
			matched = matched[:filter.Limit]
		}
	}
	return matched, nil
}

// UnreadCount returns the number of unread, unexpired notifications.
func (s *Service) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notifications {
		if n.Status == StatusUnread && !n.IsExpired() {
			count++
		}
	}
	return count
}

// MarkAsRead transitions a notification to read.
func (s *Service) MarkAsRead(id string) error {
	return s.setStatus(id, StatusRead)
}

// MarkAsAcknowledged transitions a notification to acknowledged.
func (s *Service) MarkAsAcknowledged(id string) error {
	return s.setStatus(id, StatusAcknowledged)
}

func (s *Service) setStatus(id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return ErrNotificationNotFound
	}
	n.Status = status
	return nil
}

// Delete removes a notification.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[id]; !ok {
		return ErrNotificationNotFound
	}
	delete(s.notifications, id)
	return nil
}

// Subscribe registers a live notification stream. The returned context
// is cancelled when the subscription ends.
func (s *Service) Subscribe() (<-chan *Notification, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscriber{
		ch:     make(chan *Notification, subscriberBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
	s.mu.Lock()
	s.subscribers = append(s.subscribers, sub)
	s.mu.Unlock()
	return sub.ch, ctx
}

// Unsubscribe removes a subscription created by Subscribe.
func (s *Service) Unsubscribe(ch <-chan *Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subscribers {
		if sub.ch == ch {
			sub.cancel()
			close(sub.ch)
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			return
		}
	}
}

// Stop shuts down the service and closes all subscriptions.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, sub := range s.subscribers {
			sub.cancel()
			close(sub.ch)
		}
		s.subscribers = nil
	})
}

// evictOldestLocked drops the oldest notifications above the configured
// capacity. Caller holds the write lock.
func (s *Service) evictOldestLocked() {
	overflow := len(s.notifications) - s.config.MaxNotifications
	if overflow <= 0 {
		return
	}
	all := make([]*Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		all = append(all, n)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Timestamp.Before(all[j].Timestamp)
	})
	for i := 0; i < overflow; i++ {
		delete(s.notifications, all[i].ID)
	}
}

func (s *Service) cleanupLoop() {
	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.removeExpired()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Service) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, n := range s.notifications {
		if n.IsExpired() {
			delete(s.notifications, id)
		}
	}
}
