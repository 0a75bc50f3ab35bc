package api

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/annel0/block-engine/internal/eventbus"
	"github.com/annel0/block-engine/internal/vec"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventStreamFiltersTypes(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.rs.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events/ws?types=" + eventbus.TypeBlockDestroyed
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// подписка оформляется после upgrade, поэтому публикуем до первого полученного сообщения
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				changed, _ := eventbus.NewEnvelope(eventbus.TypeBlockChanged, "test", 1, eventbus.BlockChanged{})
				destroyed, _ := eventbus.NewEnvelope(eventbus.TypeBlockDestroyed, "test", 5,
					eventbus.BlockDestroyed{Position: vec.Vec3{Y: 3}, URI: "core:sand", Cause: "support removed"})
				_ = ts.bus.Publish(context.Background(), changed)
				_ = ts.bus.Publish(context.Background(), destroyed)
			}
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for i := 0; i < 3; i++ {
		var msg struct {
			Type    string                  `json:"type"`
			Payload eventbus.BlockDestroyed `json:"payload"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, eventbus.TypeBlockDestroyed, msg.Type)
		assert.Equal(t, "core:sand", msg.Payload.URI)
		assert.Equal(t, vec.Vec3{Y: 3}, msg.Payload.Position)
	}
}

func TestEventStreamWithoutBus(t *testing.T) {
	ts := newTestServer(t)
	ts.rs.bus = nil
	w, resp := ts.do(t, "GET", "/api/events/ws", "")
	assert.Equal(t, 503, w.Code)
	assert.False(t, resp.Success)
}
