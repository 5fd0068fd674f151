package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawkeep/pawkeep/internal/offline"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s := NewService(&ServiceConfig{
		MaxNotifications: 10,
		CleanupInterval:  time.Hour,
	})
	t.Cleanup(s.Stop)
	return s
}

func TestCreateAndGet(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	n, err := s.Create(t.Context(), NewNotification(TypeReminder, PriorityHigh, "Reminder", "Give Max his medication"))
	require.NoError(t, err)
	require.NotEmpty(t, n.ID)

	got, err := s.Get(n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Reminder", got.Title)
	assert.Equal(t, StatusUnread, got.Status)

	_, err = s.Get("no-such-id")
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestListFiltersAndOrders(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	first := NewNotification(TypeReminder, PriorityHigh, "First", "m1")
	first.Timestamp = time.Now().Add(-time.Minute)
	_, err := s.Create(t.Context(), first)
	require.NoError(t, err)
	_, err = s.Create(t.Context(), NewNotification(TypeSystem, PriorityLow, "Second", "m2"))
	require.NoError(t, err)

	all, err := s.List(nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Second", all[0].Title, "newest first")

	reminders, err := s.List(&FilterOptions{Types: []Type{TypeReminder}})
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, "First", reminders[0].Title)

	unread, err := s.List(&FilterOptions{Status: []Status{StatusUnread}, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, unread, 1)
}

func TestStatusTransitions(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	n, err := s.Create(t.Context(), NewNotification(TypeInfo, PriorityMedium, "Hello", "world"))
	require.NoError(t, err)

	require.NoError(t, s.MarkAsRead(n.ID))
	got, err := s.Get(n.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRead, got.Status)

	require.NoError(t, s.MarkAsAcknowledged(n.ID))
	got, err = s.Get(n.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAcknowledged, got.Status)

	assert.ErrorIs(t, s.MarkAsRead("missing"), ErrNotificationNotFound)
}

func TestSubscribeReceivesBroadcast(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	ch, ctx := s.Subscribe()

	created, err := s.Create(t.Context(), NewNotification(TypeReminder, PriorityHigh, "Reminder", "time for a walk"))
	require.NoError(t, err)

	select {
	case got := <-ch:
		assert.Equal(t, created.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}

	s.Unsubscribe(ch)
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription context not cancelled on unsubscribe")
	}
}

func TestEvictionKeepsNewest(t *testing.T) {
	t.Parallel()

	s := NewService(&ServiceConfig{MaxNotifications: 2, CleanupInterval: time.Hour})
	t.Cleanup(s.Stop)

	base := time.Now().Add(-time.Hour)
	var last *Notification
	for i := range 3 {
		n := NewNotification(TypeInfo, PriorityLow, "n", "m")
		n.Timestamp = base.Add(time.Duration(i) * time.Minute)
		_, err := s.Create(t.Context(), n)
		require.NoError(t, err)
		last = n
	}

	all, err := s.List(nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, last.ID, all[0].ID)
}

func TestOfflineAdapterDisplayAndDismiss(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	adapter := NewOfflineAdapter(s)

	id, err := adapter.Display(context.Background(), offline.Note{
		Title: "Reminder",
		Body:  "Give Max his medication",
		URL:   "/dashboard/medications",
	})
	require.NoError(t, err)

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, TypeReminder, got.Type)
	assert.Equal(t, "/dashboard/medications", got.Metadata["url"])

	adapter.Dismiss(id)
	_, err = s.Get(id)
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	adapter.Dismiss("already-gone")
}

func TestProviderForwarding(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	sent := make(chan *Notification, 1)
	s.AddProvider(&fakeProvider{enabled: true, sent: sent})

	_, err := s.Create(t.Context(), NewNotification(TypeReminder, PriorityHigh, "Reminder", "m"))
	require.NoError(t, err)

	select {
	case n := <-sent:
		assert.Equal(t, "Reminder", n.Title)
	case <-time.After(time.Second):
		t.Fatal("provider did not receive notification")
	}
}

type fakeProvider struct {
	enabled bool
	sent    chan *Notification
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Enabled() bool { return f.enabled }
func (f *fakeProvider) Send(_ context.Context, n *Notification) error {
	f.sent <- n
	return nil
}
