package dashboard

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"patternscope/internal/analyzer"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const wsWriteWait = 10 * time.Second

// newUpgrader keeps gorilla's same-origin check and additionally accepts
// the listed origins.
func newUpgrader(allowed []string) websocket.Upgrader {
	up := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
	}
	if len(allowed) == 0 {
		return up
	}

	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.ToLower(strings.TrimSpace(o)), "/")] = struct{}{}
	}
	up.CheckOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set[strings.ToLower(origin)]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
	return up
}

// scanMessage is one frame of the /ws/scan feed.
type scanMessage struct {
	Type   string           `json:"type"` // "result" or "done"
	Symbol string           `json:"symbol,omitempty"`
	Report *analyzer.Report `json:"report,omitempty"`
	Error  string           `json:"error,omitempty"`
	Count  int              `json:"count,omitempty"`
}

// ScanStream upgrades to a websocket and pushes one message per ticker as
// the scan reaches it, then a "done" message. Closing the socket cancels
// the remaining scan.
func (h *Handler) ScanStream(w http.ResponseWriter, r *http.Request) {
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

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The client never sends data; a read error means it went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(msg scanMessage) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(msg)
	}

	results := h.service.Scan(ctx, symbols, days, explain, func(res analyzer.ScanResult) {
		h.remember(res.Report)
		if err := send(scanMessage{Type: "result", Symbol: res.Symbol, Report: res.Report, Error: res.Error}); err != nil {
			h.logger.Debug("websocket write failed", zap.Error(err))
			cancel()
		}
	})

	if ctx.Err() != nil {
		return
	}
	if err := send(scanMessage{Type: "done", Count: len(results)}); err != nil {
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(wsWriteWait))
}
