// Package offline implements the offline cache manager: two versioned
// response stores, an install/activate lifecycle, and a request router
// applying network-first and cache-first strategies to intercepted
// same-origin traffic. The manager is host-independent; adapters (the
// Transport, the reminder dispatcher, the platform push bridge) deliver
// events to its one-method-per-event interface.
package offline

import (
	"context"
	"net/url"
	"sync/atomic"

	"github.com/pawkeep/pawkeep/internal/errors"
	"github.com/pawkeep/pawkeep/internal/logger"
	"github.com/pawkeep/pawkeep/internal/observability"
)

// Config carries everything a manager instance needs. Instances are
// constructed at bootstrap with explicit names and manifest, never from
// module-level constants, so tests can run independent managers.
type Config struct {
	// Origin is the application origin; only requests to it are
	// candidates for interception.
	Origin string
	// PrecacheName and RuntimeName are the version-tagged store
	// identifiers. Any store named differently is stale and is purged
	// on activation.
	PrecacheName string
	RuntimeName  string
	// Manifest lists the shell paths fetched at install time.
	Manifest []string
	// APIPrefix selects the network-first strategy by path prefix.
	APIPrefix string
	// OfflinePath is the precached fallback page for failed navigations.
	OfflinePath string
	// SyncTag is the single recognized background sync tag.
	SyncTag string
}

// Notifier displays system notifications for push payloads and dismisses
// them on click.
type Notifier interface {
	Display(ctx context.Context, note Note) (id string, err error)
	Dismiss(id string)
}

// WindowOpener opens or focuses an application window at a path.
type WindowOpener interface {
	OpenWindow(ctx context.Context, path string) error
}

// Syncer flushes locally queued offline mutations to the backend.
// Implementations must be idempotent and clear queued work only after
// backend acknowledgment.
type Syncer interface {
	Flush(ctx context.Context) error
}

// Handler is the explicit per-event interface of the cache manager.
// Hosts bridge their event delivery to these methods.
type Handler interface {
	Install(ctx context.Context) error
	Activate(ctx context.Context) error
	HandleFetch(ctx context.Context, req *Request) (*Snapshot, error)
	HandleSync(ctx context.Context, tag string) error
	HandlePush(ctx context.Context, payload []byte) error
	HandleNotificationClick(ctx context.Context, click Click) error
}

// Manager implements Handler.
type Manager struct {
	cfg     Config
	origin  *url.URL
	stores  *StoreSet
	fetcher Fetcher
	log     logger.Logger

	notifier Notifier
	windows  WindowOpener
	syncer   Syncer
	metrics  *observability.Metrics

	installed atomic.Bool
	active    atomic.Bool
}

// Option configures optional manager collaborators.
type Option func(*Manager)

// WithNotifier attaches the notification display used by the push hook.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithWindowOpener attaches the window opener used on notification click.
func WithWindowOpener(w WindowOpener) Option {
	return func(m *Manager) { m.windows = w }
}

// WithSyncer attaches the background sync flush routine.
func WithSyncer(s Syncer) Option {
	return func(m *Manager) { m.syncer = s }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithStoreSet shares an existing store registry. The default is a fresh
// registry per manager; sharing one lets a replacement version observe
// and purge its predecessor's stores.
func WithStoreSet(ss *StoreSet) Option {
	return func(m *Manager) { m.stores = ss }
}

// NewManager validates cfg and builds a manager. The manager starts
// inactive: Install then Activate must run before it intercepts anything.
func NewManager(cfg Config, fetcher Fetcher, log logger.Logger, opts ...Option) (*Manager, error) {
	origin, err := url.Parse(cfg.Origin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, errors.Newf("invalid origin %q", cfg.Origin).
			Component("offline").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if cfg.PrecacheName == "" || cfg.RuntimeName == "" {
		return nil, errors.Newf("store names must not be empty").
			Component("offline").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if cfg.PrecacheName == cfg.RuntimeName {
		return nil, errors.Newf("precache and runtime stores must be named differently").
			Component("offline").
			Category(errors.CategoryConfiguration).
			Context("name", cfg.PrecacheName).
			Build()
	}
	if fetcher == nil {
		return nil, errors.Newf("fetcher is required").
			Component("offline").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if log == nil {
		log = logger.Default()
	}

	m := &Manager{
		cfg:     cfg,
		origin:  origin,
		stores:  NewStoreSet(),
		fetcher: fetcher,
		log:     log.With(logger.String("component", "offline")),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Active reports whether the manager has activated and is intercepting.
func (m *Manager) Active() bool {
	return m.active.Load()
}

// Installed reports whether install completed successfully.
func (m *Manager) Installed() bool {
	return m.installed.Load()
}

// Stores exposes the store registry for inspection.
func (m *Manager) Stores() *StoreSet {
	return m.stores
}

// Origin returns the configured application origin.
func (m *Manager) Origin() *url.URL {
	return m.origin
}

// HandleSync reacts to a platform sync event. Only the configured tag is
// recognized; any other tag is ignored without error.
func (m *Manager) HandleSync(ctx context.Context, tag string) error {
	if tag != m.cfg.SyncTag {
		m.log.Debug("ignoring unrecognized sync tag", logger.String("tag", tag))
		return nil
	}
	if m.syncer == nil {
		return nil
	}
	m.log.Info("background sync triggered", logger.String("tag", tag))
	return m.syncer.Flush(ctx)
}
