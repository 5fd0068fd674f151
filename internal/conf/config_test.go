package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", s.Server.Addr)
	assert.Equal(t, "v1", s.Offline.Version)
	assert.Equal(t, []string{"/", "/auth/login", "/dashboard", "/offline"}, s.Offline.PrecacheManifest)
	assert.Equal(t, "/api/", s.Offline.APIPrefix)
	assert.Equal(t, "/offline", s.Offline.OfflinePath)
	assert.Equal(t, "sync-data", s.Offline.SyncTag)
	assert.Equal(t, 30*time.Second, s.Outbox.FlushInterval.Std())
	assert.Equal(t, time.Minute, s.Reminder.CheckInterval.Std())
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  addr: ":9090"
offline:
  version: v7
outbox:
  flushinterval: 2m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", s.Server.Addr)
	assert.Equal(t, "v7", s.Offline.Version)
	assert.Equal(t, 2*time.Minute, s.Outbox.FlushInterval.Std())
	// Untouched sections keep defaults
	assert.Equal(t, "/api/", s.Offline.APIPrefix)
}

func TestLoadRejectsInvalidAPIPrefix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("offline:\n  apiprefix: api/\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestStoreNamesAreVersionTagged(t *testing.T) {
	t.Parallel()

	o := OfflineSettings{Version: "v3"}
	assert.Equal(t, "pawkeep-precache-v3", o.PrecacheStoreName())
	assert.Equal(t, "pawkeep-runtime-v3", o.RuntimeStoreName())
}

func TestGetSettingsAfterLoad(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Same(t, s, GetSettings())
}
