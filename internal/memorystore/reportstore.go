// Package memorystore keeps recent analysis results and the watched symbol
// set in process memory.
package memorystore

import (
	"sort"
	"sync"

	"patternscope/internal/analyzer"
)

// DefaultHistory is how many reports are retained per symbol.
const DefaultHistory = 10

type MemoryReportStore struct {
	globalMu sync.RWMutex
	data     map[string]*symbolReportStore
	limit    int
}

type symbolReportStore struct {
	mu      sync.Mutex
	reports []*analyzer.Report
}

func NewReportStore(limit int) *MemoryReportStore {
	if limit <= 0 {
		limit = DefaultHistory
	}
	return &MemoryReportStore{
		data:  make(map[string]*symbolReportStore),
		limit: limit,
	}
}

func (s *MemoryReportStore) Add(r *analyzer.Report) {
	if r == nil || r.Symbol == "" {
		return
	}

	s.globalMu.RLock()
	store, ok := s.data[r.Symbol]
	s.globalMu.RUnlock()

	if !ok {
		s.globalMu.Lock()
		if store, ok = s.data[r.Symbol]; !ok {
			store = &symbolReportStore{}
			s.data[r.Symbol] = store
		}
		s.globalMu.Unlock()
	}

	store.mu.Lock()
	store.reports = append(store.reports, r)
	if over := len(store.reports) - s.limit; over > 0 {
		store.reports = append(store.reports[:0:0], store.reports[over:]...)
	}
	store.mu.Unlock()
}

// Latest returns the most recently added report for symbol.
func (s *MemoryReportStore) Latest(symbol string) (*analyzer.Report, bool) {
	s.globalMu.RLock()
	store, ok := s.data[symbol]
	s.globalMu.RUnlock()
	if !ok {
		return nil, false
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.reports) == 0 {
		return nil, false
	}
	return store.reports[len(store.reports)-1], true
}

// GetBySymbol returns the retained reports for symbol, oldest first.
func (s *MemoryReportStore) GetBySymbol(symbol string) []*analyzer.Report {
	s.globalMu.RLock()
	store, ok := s.data[symbol]
	s.globalMu.RUnlock()
	if !ok {
		return nil
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	cp := make([]*analyzer.Report, len(store.reports))
	copy(cp, store.reports)
	return cp
}

// LatestAll returns the latest report of every symbol ordered by symbol.
func (s *MemoryReportStore) LatestAll() []*analyzer.Report {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()

	out := make([]*analyzer.Report, 0, len(s.data))
	for _, store := range s.data {
		store.mu.Lock()
		if n := len(store.reports); n > 0 {
			out = append(out, store.reports[n-1])
		}
		store.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// CountAll returns the total number of reports stored across all symbols.
func (s *MemoryReportStore) CountAll() int {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()

	total := 0
	for _, store := range s.data {
		store.mu.Lock()
		total += len(store.reports)
		store.mu.Unlock()
	}
	return total
}
