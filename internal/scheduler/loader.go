package scheduler

import (
	"context"

	"patternscope/internal/memorystore"

	"go.uber.org/zap"
)

// WatchlistLoader streams the watched symbols for one scan run.
type WatchlistLoader struct {
	Symbols *memorystore.MemorySymbolStore
	Logger  *zap.Logger
}

// LoadSymbols sends every watched symbol into ch and closes it.
func (l *WatchlistLoader) LoadSymbols(ctx context.Context, ch chan<- string) error {
	defer close(ch)

	symbols := l.Symbols.GetAll()
	l.Logger.Info("loaded watchlist", zap.Int("count", len(symbols)))

	for _, symbol := range symbols {
		select {
		case ch <- symbol:
		case <-ctx.Done():
			l.Logger.Warn("symbol streaming interrupted", zap.Error(ctx.Err()))
			return ctx.Err()
		}
	}
	return nil
}

// DefaultLoadFn adapts loader to the DailyScanner Load hook.
func DefaultLoadFn(loader *WatchlistLoader) func(ctx context.Context) <-chan string {
	return func(ctx context.Context) <-chan string {
		symbolCh := make(chan string, 100)
		go func() {
			if err := loader.LoadSymbols(ctx, symbolCh); err != nil {
				loader.Logger.Warn("failed to load symbols", zap.Error(err))
			}
		}()
		return symbolCh
	}
}
