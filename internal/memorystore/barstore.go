package memorystore

import (
	"sync"

	"barreplay/internal/feed"
)

// MemoryBarStore retains replayed bars grouped by symbol.
type MemoryBarStore struct {
	globalMu sync.RWMutex
	data     map[string]*symbolBarStore
}

type symbolBarStore struct {
	mu   sync.Mutex
	bars []feed.Bar
}

func NewBarStore() *MemoryBarStore {
	return &MemoryBarStore{
		data: make(map[string]*symbolBarStore),
	}
}

func (s *MemoryBarStore) Add(b feed.Bar) {
	// Fast path: lock per-symbol store only
	s.globalMu.RLock()
	store, ok := s.data[b.Symbol]
	s.globalMu.RUnlock()

	if !ok {
		// Need to initialize new symbol store (exclusive lock)
		s.globalMu.Lock()
		if store, ok = s.data[b.Symbol]; !ok {
			store = &symbolBarStore{}
			s.data[b.Symbol] = store
		}
		s.globalMu.Unlock()
	}

	// Per-symbol locking
	store.mu.Lock()
	store.bars = append(store.bars, b)
	store.mu.Unlock()
}

func (s *MemoryBarStore) GetBySymbol(symbol string) []feed.Bar {
	s.globalMu.RLock()
	store, ok := s.data[symbol]
	s.globalMu.RUnlock()
	if !ok {
		return nil
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	cp := make([]feed.Bar, len(store.bars))
	copy(cp, store.bars)
	return cp
}

func (s *MemoryBarStore) GetAll() map[string][]feed.Bar {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()

	result := make(map[string][]feed.Bar, len(s.data))
	for sym, store := range s.data {
		store.mu.Lock()
		cp := make([]feed.Bar, len(store.bars))
		copy(cp, store.bars)
		store.mu.Unlock()
		result[sym] = cp
	}
	return result
}

// Symbols returns every symbol seen so far, in no particular order.
func (s *MemoryBarStore) Symbols() []string {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()

	out := make([]string, 0, len(s.data))
	for sym := range s.data {
		out = append(out, sym)
	}
	return out
}

// CountAll returns the total number of bars stored across all symbols.
func (s *MemoryBarStore) CountAll() int {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()

	total := 0
	for _, store := range s.data {
		store.mu.Lock()
		total += len(store.bars)
		store.mu.Unlock()
	}
	return total
}
