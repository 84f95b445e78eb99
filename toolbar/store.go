package toolbar

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultResultsCacheSize is how many toolbars a Store keeps by default.
const DefaultResultsCacheSize = 25

// A Store keeps the toolbars of the most recent requests, so their panels
// can be fetched after the page has loaded. The oldest is evicted first.
type Store struct {
	cache *lru.Cache[string, *Toolbar]
}

// NewStore returns a Store holding up to size toolbars. A size of 0 uses
// DefaultResultsCacheSize.
func NewStore(size int) *Store {
	if size <= 0 {
		size = DefaultResultsCacheSize
	}
	// only errors on a non-positive size
	cache, _ := lru.New[string, *Toolbar](size)
	return &Store{cache}
}

// Add stores the toolbar under its StoreID.
func (s *Store) Add(tb *Toolbar) {
	s.cache.Add(tb.StoreID, tb)
}

// Get returns the toolbar with the given store ID, or nil.
func (s *Store) Get(storeID string) *Toolbar {
	tb, _ := s.cache.Get(storeID)
	return tb
}

// Len returns the number of stored toolbars.
func (s *Store) Len() int {
	return s.cache.Len()
}

// Clear drops every stored toolbar.
func (s *Store) Clear() {
	s.cache.Purge()
}
