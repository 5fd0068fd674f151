// Package conf loads and holds application settings.
package conf

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// MainSettings holds top-level application settings.
type MainSettings struct {
	Name     string `yaml:"name"`
	LogLevel string `yaml:"loglevel"`
	LogJSON  bool   `yaml:"logjson"`
}

// ServerSettings holds HTTP server settings.
type ServerSettings struct {
	Addr     string `yaml:"addr"`
	Origin   string `yaml:"origin"`
	DataPath string `yaml:"datapath"`
}

// OfflineSettings configures the offline cache manager. Bumping Version is
// the sole cache invalidation mechanism across deploys: new version, new
// store names, stale stores purged on activation.
type OfflineSettings struct {
	Version          string   `yaml:"version"`
	PrecacheManifest []string `yaml:"precachemanifest"`
	APIPrefix        string   `yaml:"apiprefix"`
	OfflinePath      string   `yaml:"offlinepath"`
	SyncTag          string   `yaml:"synctag"`
}

// PrecacheStoreName returns the version-tagged precache store identifier.
func (o *OfflineSettings) PrecacheStoreName() string {
	return "pawkeep-precache-" + o.Version
}

// RuntimeStoreName returns the version-tagged runtime store identifier.
func (o *OfflineSettings) RuntimeStoreName() string {
	return "pawkeep-runtime-" + o.Version
}

// SessionSettings holds cookie session keys. AuthKey is required in
// production; EncryptionKey is optional but recommended.
type SessionSettings struct {
	AuthKey       string   `yaml:"authkey"`
	EncryptionKey string   `yaml:"encryptionkey"`
	MaxAge        Duration `yaml:"maxage"`
}

// NotificationSettings configures the in-app notification service.
type NotificationSettings struct {
	Enabled      bool     `yaml:"enabled"`
	MaxStored    int      `yaml:"maxstored"`
	ExternalURLs []string `yaml:"externalurls"`
}

// ReminderSettings configures the medication reminder engine.
type ReminderSettings struct {
	Enabled              bool     `yaml:"enabled"`
	CheckInterval        Duration `yaml:"checkinterval"`
	Cooldown             Duration `yaml:"cooldown"`
	HistoryRetentionDays int      `yaml:"historyretentiondays"`
}

// OutboxSettings configures the offline mutation outbox.
type OutboxSettings struct {
	FlushInterval Duration `yaml:"flushinterval"`
	MaxRetries    int      `yaml:"maxretries"`
}

// Settings is the root configuration structure.
type Settings struct {
	Main         MainSettings         `yaml:"main"`
	Server       ServerSettings       `yaml:"server"`
	Offline      OfflineSettings      `yaml:"offline"`
	Session      SessionSettings      `yaml:"session"`
	Notification NotificationSettings `yaml:"notification"`
	Reminder     ReminderSettings     `yaml:"reminder"`
	Outbox       OutboxSettings       `yaml:"outbox"`
}

var (
	settingsInstance *Settings
	settingsMu       sync.RWMutex
)

// GetSettings returns the loaded settings, or nil before Load has run.
func GetSettings() *Settings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return settingsInstance
}

// SetSettings installs settings as the package-level instance.
// Tests use this to inject fixtures.
func SetSettings(s *Settings) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	settingsInstance = s
}

// Load reads configuration from the given file (optional), environment
// variables prefixed PAWKEEP_, and built-in defaults, and installs the
// result as the package-level settings instance.
func Load(configPath string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("pawkeep")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings, viper.DecodeHook(DurationDecodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := validate(settings); err != nil {
		return nil, err
	}

	SetSettings(settings)
	return settings, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("main.name", "pawkeep")
	v.SetDefault("main.loglevel", "info")
	v.SetDefault("main.logjson", false)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.origin", "http://localhost:8080")
	v.SetDefault("server.datapath", "pawkeep.db")

	v.SetDefault("offline.version", "v1")
	v.SetDefault("offline.precachemanifest", []string{"/", "/auth/login", "/dashboard", "/offline"})
	v.SetDefault("offline.apiprefix", "/api/")
	v.SetDefault("offline.offlinepath", "/offline")
	v.SetDefault("offline.synctag", "sync-data")

	v.SetDefault("session.maxage", "168h")

	v.SetDefault("notification.enabled", true)
	v.SetDefault("notification.maxstored", 100)

	v.SetDefault("reminder.enabled", true)
	v.SetDefault("reminder.checkinterval", "1m")
	v.SetDefault("reminder.cooldown", "1h")
	v.SetDefault("reminder.historyretentiondays", 30)

	v.SetDefault("outbox.flushinterval", "30s")
	v.SetDefault("outbox.maxretries", 5)
}

func validate(s *Settings) error {
	if s.Offline.Version == "" {
		return fmt.Errorf("offline.version must not be empty")
	}
	if len(s.Offline.PrecacheManifest) == 0 {
		return fmt.Errorf("offline.precachemanifest must list at least one path")
	}
	if !strings.HasPrefix(s.Offline.APIPrefix, "/") {
		return fmt.Errorf("offline.apiprefix must start with /: %q", s.Offline.APIPrefix)
	}
	return nil
}
