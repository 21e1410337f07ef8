package analyzer

import (
	"context"

	"go.uber.org/zap"
)

// ScanResult is the outcome for one symbol of a multi-symbol scan.
type ScanResult struct {
	Symbol string  `json:"symbol"`
	Report *Report `json:"report,omitempty"`
	Err    error   `json:"-"`
	Error  string  `json:"error,omitempty"`
}

// Scan analyzes symbols one after another. A failing symbol is recorded and
// the scan moves on; cancelling ctx stops it before the next symbol. onResult,
// when non-nil, is called as each symbol finishes.
func (a *Analyzer) Scan(ctx context.Context, symbols []string, days int, explain bool, onResult func(ScanResult)) []ScanResult {
	results := make([]ScanResult, 0, len(symbols))
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			a.logger.Warn("scan interrupted", zap.Int("done", len(results)), zap.Error(err))
			break
		}

		report, err := a.Analyze(ctx, Request{Symbol: symbol, Days: days, Explain: explain})
		res := ScanResult{Symbol: symbol, Report: report, Err: err}
		if err != nil {
			res.Error = err.Error()
			a.logger.Warn("scan failed for symbol", zap.String("symbol", symbol), zap.Error(err))
		}

		results = append(results, res)
		if onResult != nil {
			onResult(res)
		}
	}
	return results
}
