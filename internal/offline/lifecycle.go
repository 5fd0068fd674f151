package offline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pawkeep/pawkeep/internal/errors"
	"github.com/pawkeep/pawkeep/internal/logger"
)

// Install populates the precache store from the manifest. All-or-nothing:
// every entry is fetched into a staging buffer first, and the store is
// only created and filled once all fetches succeeded. On any failure the
// store set is left untouched so a previously activated version keeps
// serving, and the install can be retried.
//
// A successful install immediately makes this version eligible to
// activate; there is no waiting for an older version to wind down.
func (m *Manager) Install(ctx context.Context) error {
	staged := make([]*Snapshot, len(m.cfg.Manifest))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range m.cfg.Manifest {
		g.Go(func() error {
			req := &Request{Method: "GET", URL: m.origin.ResolveReference(mustRef(path))}
			snap, err := m.fetcher.Fetch(gctx, req)
			if err != nil {
				return errors.New(err).
					Component("offline").
					Category(errors.CategoryNetwork).
					Context("operation", "precache").
					Context("path", path).
					Build()
			}
			if !snap.OK() {
				return errors.Newf("precache fetch for %s returned status %d", path, snap.Status()).
					Component("offline").
					Category(errors.CategoryNetwork).
					Context("path", path).
					Build()
			}
			staged[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		m.log.Error("install aborted, precache left uncommitted", logger.Error(err))
		return err
	}

	precache := m.stores.Open(m.cfg.PrecacheName)
	for i, path := range m.cfg.Manifest {
		precache.Put(PathKey(m.origin, path), staged[i])
	}
	m.installed.Store(true)
	m.metrics.SetPrecacheEntries(precache.Len())
	m.log.Info("install complete",
		logger.String("store", m.cfg.PrecacheName),
		logger.Int("entries", precache.Len()))
	return nil
}

// Activate purges every store whose name is not the current precache or
// runtime store, then claims all clients: the manager flips active and
// starts intercepting without any page reload. Requires a completed
// install.
func (m *Manager) Activate(ctx context.Context) error {
	if !m.installed.Load() {
		return errors.Newf("activate before completed install").
			Component("offline").
			Category(errors.CategoryState).
			Build()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, name := range m.stores.Names() {
		if name == m.cfg.PrecacheName || name == m.cfg.RuntimeName {
			continue
		}
		m.stores.Delete(name)
		m.log.Info("purged stale store", logger.String("store", name))
	}

	// Runtime store exists from activation on, even before its first write.
	m.stores.Open(m.cfg.RuntimeName)
	m.active.Store(true)
	m.log.Info("activated",
		logger.String("precache", m.cfg.PrecacheName),
		logger.String("runtime", m.cfg.RuntimeName))
	return nil
}
