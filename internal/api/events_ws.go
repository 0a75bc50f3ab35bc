package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/annel0/block-engine/internal/eventbus"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	streamBuffer    = 256
	streamWriteWait = 5 * time.Second
	streamPingEvery = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamMessage конверт в том виде, в котором он уходит клиенту.
// Payload остаётся JSON, а не base64.
type streamMessage struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Priority  int             `json:"priority"`
	Payload   json.RawMessage `json:"payload"`
}

// handleEventStream транслирует события шины в websocket.
// ?types=block.destroyed,block.changed ограничивает типы.
func (rs *RestServer) handleEventStream(c *gin.Context) {
	if rs.bus == nil {
		fail(c, http.StatusServiceUnavailable, "шина событий не подключена")
		return
	}

	var filter eventbus.Filter
	if raw := c.Query("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				filter.Types = append(filter.Types, t)
			}
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	out := make(chan *eventbus.Envelope, streamBuffer)
	var dropped atomic.Uint64
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub, err := rs.bus.Subscribe(ctx, filter, func(_ context.Context, ev *eventbus.Envelope) {
		select {
		case out <- ev:
		default:
			dropped.Add(1)
		}
	})
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"),
			time.Now().Add(time.Second))
		return
	}
	defer sub.Unsubscribe()

	// клиент ничего не шлёт, читаем только ради close-фреймов
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingEvery)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			if n := dropped.Load(); n > 0 {
				rs.logger.Warn("websocket %s: отброшено %d событий при медленном клиенте", c.ClientIP(), n)
			}
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		case ev := <-out:
			msg := streamMessage{
				ID:        ev.ID,
				Type:      ev.EventType,
				Source:    ev.Source,
				Timestamp: ev.Timestamp,
				Priority:  ev.Priority,
				Payload:   json.RawMessage(ev.Payload),
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}
