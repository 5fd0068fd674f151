package offline

import (
	"context"
	"net/http"
	"strings"

	"github.com/pawkeep/pawkeep/internal/logger"
)

// Classification buckets an intercepted request into one of the three
// routing outcomes.
type Classification int

const (
	// ClassBypass: cross-origin, passes straight to network untouched.
	ClassBypass Classification = iota
	// ClassAPI: same-origin API path, network-first.
	ClassAPI
	// ClassStatic: any other same-origin request, cache-first.
	ClassStatic
)

const (
	strategyNetworkFirst = "network-first"
	strategyCacheFirst   = "cache-first"
)

// Classify buckets a request by origin and path.
func (m *Manager) Classify(req *Request) Classification {
	if !m.sameOrigin(req) {
		return ClassBypass
	}
	if strings.HasPrefix(req.URL.Path, m.cfg.APIPrefix) {
		return ClassAPI
	}
	return ClassStatic
}

func (m *Manager) sameOrigin(req *Request) bool {
	u := req.URL
	if u.Host == "" {
		// Relative URL: can only be addressed to our origin.
		return true
	}
	return u.Scheme == m.origin.Scheme && u.Host == m.origin.Host
}

// HandleFetch routes one intercepted request. Cross-origin requests go to
// the network untouched; API paths are network-first; everything else is
// cache-first. Errors escape only on the cache-first path (a miss whose
// network fetch fails); network-first recovers locally and always returns
// a snapshot.
func (m *Manager) HandleFetch(ctx context.Context, req *Request) (*Snapshot, error) {
	switch m.Classify(req) {
	case ClassBypass:
		return m.fetcher.Fetch(ctx, req)
	case ClassAPI:
		return m.networkFirst(ctx, req), nil
	default:
		return m.cacheFirst(ctx, req)
	}
}

// networkFirst implements the API strategy: live fetch, cache successful
// GET 200s as a side effect, and on network failure fall back to cached
// data, then the offline page (navigations) or a synthetic 503.
func (m *Manager) networkFirst(ctx context.Context, req *Request) *Snapshot {
	snap, err := m.fetcher.Fetch(ctx, req)
	if err == nil {
		m.metrics.RecordNetworkFetch("api", "success")
		if req.Method == http.MethodGet && snap.OK() {
			// Fire-and-forget: the caller gets the live response without
			// waiting on the store write. Writes are idempotent, last
			// write wins, and a lost write only costs a future fetch.
			go m.storeRuntime(req.Key(), snap)
		}
		return snap
	}

	m.metrics.RecordNetworkFetch("api", "failure")
	m.log.Debug("network-first fetch failed, trying cache",
		logger.String("key", req.Key()),
		logger.Error(err))

	if cached, ok := m.lookup(req.Key(), strategyNetworkFirst); ok {
		return cached
	}
	if req.IsNavigation() {
		return m.offlineFallback()
	}
	return serviceUnavailable()
}

// cacheFirst implements the static asset strategy: serve from cache
// without touching the network, and only on a miss fetch and (for clean
// 200s) store. Failures are returned unmodified and never cached.
func (m *Manager) cacheFirst(ctx context.Context, req *Request) (*Snapshot, error) {
	if cached, ok := m.lookup(req.Key(), strategyCacheFirst); ok {
		return cached, nil
	}
	m.metrics.RecordCacheMiss(strategyCacheFirst)

	snap, err := m.fetcher.Fetch(ctx, req)
	if err != nil {
		m.metrics.RecordNetworkFetch("static", "failure")
		return nil, err
	}
	m.metrics.RecordNetworkFetch("static", "success")
	if !snap.OK() {
		// Do not cache failures; the caller handles them.
		return snap, nil
	}
	go m.storeRuntime(req.Key(), snap)
	return snap, nil
}

// lookup consults the precache store first, then the runtime store.
func (m *Manager) lookup(key, strategy string) (*Snapshot, bool) {
	if precache, ok := m.stores.Get(m.cfg.PrecacheName); ok {
		if snap, ok := precache.Match(key); ok {
			m.metrics.RecordCacheHit(m.cfg.PrecacheName, strategy)
			return snap, true
		}
	}
	if runtime, ok := m.stores.Get(m.cfg.RuntimeName); ok {
		if snap, ok := runtime.Match(key); ok {
			m.metrics.RecordCacheHit(m.cfg.RuntimeName, strategy)
			return snap, true
		}
	}
	if strategy == strategyNetworkFirst {
		m.metrics.RecordCacheMiss(strategy)
	}
	return nil, false
}

// storeRuntime writes a snapshot to the runtime store. Write failures are
// not surfaced: the store is a performance optimization, not a
// correctness path.
func (m *Manager) storeRuntime(key string, snap *Snapshot) {
	m.stores.Open(m.cfg.RuntimeName).Put(key, snap)
}

// offlineFallback returns the precached offline page, or a synthetic 503
// when the page was never precached.
func (m *Manager) offlineFallback() *Snapshot {
	key := PathKey(m.origin, m.cfg.OfflinePath)
	if precache, ok := m.stores.Get(m.cfg.PrecacheName); ok {
		if snap, ok := precache.Match(key); ok {
			m.metrics.RecordOfflineFallback()
			return snap
		}
	}
	return serviceUnavailable()
}

func serviceUnavailable() *Snapshot {
	header := http.Header{"Content-Type": []string{"text/plain; charset=utf-8"}}
	return NewSnapshot(http.StatusServiceUnavailable, header, []byte("Service Unavailable"))
}
