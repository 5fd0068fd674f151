package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Exercises the global handle in sequence; not parallel because the
// handle is process-wide and can only be installed once.
func TestGlobalServiceHandle(t *testing.T) {
	require.False(t, IsInitialized())
	assert.Nil(t, GetService())
	assert.Panics(t, func() { MustGetService() })

	svc := newTestService(t)
	require.NoError(t, SetServiceForTesting(svc))
	require.True(t, IsInitialized())
	assert.Same(t, svc, GetService())
	assert.Same(t, svc, MustGetService())

	// Once installed, neither path replaces the handle.
	other := NewService(&ServiceConfig{MaxNotifications: 1, CleanupInterval: time.Hour})
	t.Cleanup(other.Stop)
	assert.Error(t, SetServiceForTesting(other))
	Initialize(&ServiceConfig{MaxNotifications: 99, CleanupInterval: time.Hour})
	assert.Same(t, svc, GetService())
}
