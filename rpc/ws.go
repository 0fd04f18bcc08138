package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"eusko/core/events"
	"eusko/crypto"
	"eusko/observability"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsBacklogPage  = 200
)

// handleEventsWS streams committed event records. Query parameters: from
// (sequence to start at, default: live only), type and address filters.
func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	eventType := strings.TrimSpace(query.Get("type"))
	address := strings.TrimSpace(query.Get("address"))
	if address != "" {
		addr, err := crypto.ParseAddress(address)
		if err != nil {
			http.Error(w, "invalid address", http.StatusBadRequest)
			return
		}
		address = addr.String()
	}
	replay := false
	var from uint64
	if raw := strings.TrimSpace(query.Get("from")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid from cursor", http.StatusBadRequest)
			return
		}
		from, replay = parsed, true
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: originPatterns(s.cfg.AllowedOrigins)})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")
	observability.ModuleMetrics().StreamOpened()
	defer observability.ModuleMetrics().StreamClosed()

	ctx := conn.CloseRead(r.Context())
	if err := s.streamEvents(ctx, conn, replay, from, eventType, address); err != nil {
		if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
			s.logger.Warn("event stream aborted", "error", err)
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (s *Server) streamEvents(ctx context.Context, conn *websocket.Conn, replay bool, from uint64, eventType, address string) error {
	// Subscribe before replaying so nothing committed in between is lost.
	live := s.backend.Subscribe(ctx)
	next := from
	if replay {
		for {
			page, err := s.backend.Events(next, wsBacklogPage)
			if err != nil {
				return err
			}
			for _, rec := range page {
				next = rec.Sequence + 1
				if rec.Matches(eventType, address) {
					if err := writeRecord(ctx, conn, rec); err != nil {
						return err
					}
				}
			}
			if len(page) < wsBacklogPage {
				break
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec, ok := <-live:
			if !ok {
				return nil
			}
			if replay && rec.Sequence < next {
				continue
			}
			if !rec.Matches(eventType, address) {
				continue
			}
			if err := writeRecord(ctx, conn, rec); err != nil {
				return err
			}
		}
	}
}

func writeRecord(ctx context.Context, conn *websocket.Conn, rec events.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}

// originPatterns turns configured origins into the host patterns the
// websocket handshake matches against.
func originPatterns(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		if _, host, ok := strings.Cut(origin, "://"); ok {
			origin = host
		}
		out = append(out, strings.TrimRight(origin, "/"))
	}
	return out
}
