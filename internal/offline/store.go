package offline

import (
	"sort"
	"sync"

	gocache "github.com/patrickmn/go-cache"
)

// Store is a named cache of request key → response snapshot. Entries never
// expire individually; staleness is store-level only, handled by the
// lifecycle controller deleting whole stores whose name no longer matches
// the current version.
type Store struct {
	name    string
	entries *gocache.Cache
}

func newStore(name string) *Store {
	return &Store{
		name:    name,
		entries: gocache.New(gocache.NoExpiration, 0),
	}
}

// Name returns the store's versioned identifier.
func (s *Store) Name() string {
	return s.name
}

// Put stores a snapshot under the given request key, overwriting any
// previous entry. Last write wins.
func (s *Store) Put(key string, snap *Snapshot) {
	s.entries.Set(key, snap, gocache.NoExpiration)
}

// Match returns the snapshot stored under key, if any.
func (s *Store) Match(key string) (*Snapshot, bool) {
	v, ok := s.entries.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*Snapshot), true
}

// Delete removes the entry for key, if present.
func (s *Store) Delete(key string) {
	s.entries.Delete(key)
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	return s.entries.ItemCount()
}

// StoreSet is the named registry of cache stores, mirroring the
// platform's cache storage: stores are opened (created on demand) by
// name, enumerated, and deleted wholesale.
type StoreSet struct {
	mu     sync.RWMutex
	stores map[string]*Store
}

// NewStoreSet creates an empty store registry.
func NewStoreSet() *StoreSet {
	return &StoreSet{stores: make(map[string]*Store)}
}

// Open returns the store with the given name, creating it if absent.
func (ss *StoreSet) Open(name string) *Store {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if s, ok := ss.stores[name]; ok {
		return s
	}
	s := newStore(name)
	ss.stores[name] = s
	return s
}

// Get returns the store with the given name without creating it.
func (ss *StoreSet) Get(name string) (*Store, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	s, ok := ss.stores[name]
	return s, ok
}

// Has reports whether a store with the given name exists.
func (ss *StoreSet) Has(name string) bool {
	_, ok := ss.Get(name)
	return ok
}

// Delete removes the named store and all its entries. Returns whether a
// store was removed.
func (ss *StoreSet) Delete(name string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	_, ok := ss.stores[name]
	delete(ss.stores, name)
	return ok
}

// Names returns the sorted names of all stores.
func (ss *StoreSet) Names() []string {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	names := make([]string, 0, len(ss.stores))
	for name := range ss.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
