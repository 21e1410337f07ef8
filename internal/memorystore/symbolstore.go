package memorystore

import "sync"

// MemorySymbolStore is an insertion-ordered set of tickers.
type MemorySymbolStore struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	symbols []string
}

func NewSymbolStore(initial ...string) *MemorySymbolStore {
	s := &MemorySymbolStore{
		seen:    make(map[string]struct{}),
		symbols: make([]string, 0, len(initial)),
	}
	for _, sym := range initial {
		s.Add(sym)
	}
	return s
}

// Add inserts symbol and reports whether it was new.
func (s *MemorySymbolStore) Add(symbol string) bool {
	if symbol == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[symbol]; ok {
		return false
	}
	s.seen[symbol] = struct{}{}
	s.symbols = append(s.symbols, symbol)
	return true
}

// StartWorker adds every symbol received on ch until it is closed.
func (s *MemorySymbolStore) StartWorker(ch <-chan string) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for symbol := range ch {
			s.Add(symbol)
		}
	}()
	return done
}

func (s *MemorySymbolStore) GetAll() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.symbols))
	copy(out, s.symbols)
	return out
}
