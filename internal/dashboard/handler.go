package dashboard

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"patternscope/internal/analyzer"
	"patternscope/internal/chart"
	"patternscope/internal/market"
	"patternscope/internal/memorystore"
	"patternscope/pkg/polygon"
	"patternscope/pkg/storage/postgres"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

//go:embed web/index.html
var indexHTML []byte

// Service is the analysis surface the dashboard drives.
type Service interface {
	Analyze(ctx context.Context, req analyzer.Request) (*analyzer.Report, error)
	Scan(ctx context.Context, symbols []string, days int, explain bool, onResult func(analyzer.ScanResult)) []analyzer.ScanResult
	CanExplain() bool
}

// HistoryStore lists persisted detections.
type HistoryStore interface {
	ListPatterns(ctx context.Context, symbol string, since time.Time, limit int) ([]postgres.PatternRecord, error)
}

// HealthCheck reports a dependency problem as a non-nil error.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	service     Service
	reports     *memorystore.MemoryReportStore
	symbols     *memorystore.MemorySymbolStore
	history     HistoryStore
	checks      map[string]HealthCheck
	defaultDays int
	budget      time.Duration
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// DefaultSymbolBudget bounds one symbol's fetch plus explanation when
// Options.SymbolBudget is unset.
const DefaultSymbolBudget = 2 * time.Minute

type Options struct {
	Reports     *memorystore.MemoryReportStore
	Symbols     *memorystore.MemorySymbolStore
	History     HistoryStore
	Checks      map[string]HealthCheck
	DefaultDays int

	// SymbolBudget is the write deadline granted per analyzed symbol.
	SymbolBudget time.Duration
	// AllowedOrigins lists extra origins that may open /ws/scan; empty
	// means same-origin only.
	AllowedOrigins []string
}

func NewHandler(service Service, opts Options, logger *zap.Logger) *Handler {
	if opts.Reports == nil {
		opts.Reports = memorystore.NewReportStore(0)
	}
	if opts.Symbols == nil {
		opts.Symbols = memorystore.NewSymbolStore()
	}
	budget := opts.SymbolBudget
	if budget <= 0 {
		budget = DefaultSymbolBudget
	}
	return &Handler{
		service:     service,
		reports:     opts.Reports,
		symbols:     opts.Symbols,
		history:     opts.History,
		checks:      opts.Checks,
		defaultDays: market.ClampDays(opts.DefaultDays),
		budget:      budget,
		upgrader:    newUpgrader(opts.AllowedOrigins),
		logger:      logger,
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /api/analyze", h.Analyze)
	mux.HandleFunc("GET /api/scan", h.Scan)
	mux.HandleFunc("GET /api/recent", h.Recent)
	mux.HandleFunc("GET /api/history", h.History)
	mux.HandleFunc("GET /ws/scan", h.ScanStream)
	mux.HandleFunc("GET /chart", h.Chart)
	mux.HandleFunc("GET /healthz", h.Health)
	return mux
}

func (h *Handler) Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, err := h.parseDays(q.Get("days"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	explain, err := h.parseExplain(q.Get("explain"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.extendWriteDeadline(w, 1)
	report, err := h.service.Analyze(r.Context(), analyzer.Request{
		Symbol:  q.Get("symbol"),
		Days:    days,
		Explain: explain,
	})
	if err != nil {
		h.fail(w, "analyze failed", q.Get("symbol"), err)
		return
	}

	h.remember(report)
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, err := h.parseDays(q.Get("days"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	explain, err := h.parseExplain(q.Get("explain"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	symbols := h.scanSymbols(q.Get("symbols"))
	if len(symbols) == 0 {
		writeError(w, http.StatusBadRequest, "symbols required")
		return
	}

	h.extendWriteDeadline(w, len(symbols))
	results := h.service.Scan(r.Context(), symbols, days, explain, func(res analyzer.ScanResult) {
		h.remember(res.Report)
	})
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) Recent(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.reports.LatestAll())
}

// historyItem is the wire form of a stored detection.
type historyItem struct {
	Symbol          string    `json:"symbol"`
	Pattern         string    `json:"pattern"`
	Date            string    `json:"date"`
	Neckline        float64   `json:"neckline"`
	Close           float64   `json:"close"`
	VolumeConfirmed bool      `json:"volume_confirmed"`
	LevelConfirmed  bool      `json:"level_confirmed"`
	RecordedAt      time.Time `json:"recorded_at"`
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusNotFound, "pattern history is not enabled")
		return
	}

	q := r.URL.Query()
	days, err := h.parseDays(q.Get("days"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	symbol := ""
	if syms := market.NormalizeSymbols(q.Get("symbol")); len(syms) > 0 {
		symbol = syms[0]
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	records, err := h.history.ListPatterns(r.Context(), symbol, since, 500)
	if err != nil {
		h.logger.Error("failed to list patterns", zap.String("symbol", symbol), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	out := make([]historyItem, 0, len(records))
	for _, rec := range records {
		out = append(out, historyItem{
			Symbol:          rec.Symbol,
			Pattern:         rec.Pattern,
			Date:            rec.Date.Format(time.DateOnly),
			Neckline:        rec.Neckline,
			Close:           rec.Close,
			VolumeConfirmed: rec.VolumeConfirmed,
			LevelConfirmed:  rec.LevelConfirmed,
			RecordedAt:      rec.RecordedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, err := h.parseDays(q.Get("days"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.extendWriteDeadline(w, 1)
	report, err := h.service.Analyze(r.Context(), analyzer.Request{Symbol: q.Get("symbol"), Days: days})
	if err != nil {
		status := statusFor(err)
		h.logger.Warn("chart failed", zap.String("symbol", q.Get("symbol")), zap.Error(err))
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := chart.RenderCandles(w, report.Series, report.Detections); err != nil {
		h.logger.Error("failed to render chart", zap.String("symbol", report.Symbol), zap.Error(err))
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	overall := "healthy"
	statuses := make(map[string]string, len(h.checks))

	for name, check := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		err := check(ctx)
		cancel()
		if err != nil {
			statuses[name] = "unhealthy"
			overall = "degraded"
			h.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			continue
		}
		statuses[name] = "healthy"
	}

	status := http.StatusOK
	if overall == "degraded" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status":  overall,
		"checks":  statuses,
		"llm":     h.service.CanExplain(),
		"reports": h.reports.CountAll(),
	})
}

// remember keeps a successful report for /api/recent and puts its symbol on
// the watch list.
func (h *Handler) remember(report *analyzer.Report) {
	if report == nil {
		return
	}
	h.reports.Add(report)
	h.symbols.Add(report.Symbol)
}

// extendWriteDeadline moves the connection's write deadline past the server
// default so a request analyzing n symbols can still deliver its reply.
func (h *Handler) extendWriteDeadline(w http.ResponseWriter, n int) {
	if n < 1 {
		n = 1
	}
	deadline := time.Now().Add(time.Duration(n) * h.budget)
	if err := http.NewResponseController(w).SetWriteDeadline(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Debug("failed to extend write deadline", zap.Error(err))
	}
}

func (h *Handler) scanSymbols(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return h.symbols.GetAll()
	}
	return market.NormalizeSymbols(raw)
}

func (h *Handler) parseDays(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return h.defaultDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid days %q", raw)
	}
	return market.ClampDays(days), nil
}

// parseExplain defaults to explaining whenever an LLM is configured.
func (h *Handler) parseExplain(raw string) (bool, error) {
	if strings.TrimSpace(raw) == "" {
		return h.service.CanExplain(), nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid explain %q", raw)
	}
	return v, nil
}

func (h *Handler) fail(w http.ResponseWriter, msg, symbol string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.String("symbol", symbol), zap.Error(err))
	} else {
		h.logger.Info(msg, zap.String("symbol", symbol), zap.Error(err))
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, analyzer.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, polygon.ErrNoData):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
