package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/casetrack/internal/models"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws", hub.HandleWS)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, hub *Hub, url string, want int) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return hub.ClientCount() == want }, time.Second, 10*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) models.CaseEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var evt models.CaseEvent
	require.NoError(t, json.Unmarshal(data, &evt))
	return evt
}

func TestHub_BroadcastsToAllClients(t *testing.T) {
	hub, url := startHub(t)
	first := dial(t, hub, url, 1)
	second := dial(t, hub, url, 2)

	require.NoError(t, hub.PublishCaseEvent(context.Background(), models.CaseEvent{
		Type:   models.EventCaseRegistered,
		CaseID: "c1",
		Status: models.StatusNotFound,
	}))

	assert.Equal(t, "c1", readEvent(t, first).CaseID)
	assert.Equal(t, models.EventCaseRegistered, readEvent(t, second).Type)
}

func TestHub_CaseFilter(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, hub, url+"?case_id=c2", 1)

	hub.BroadcastEvent(models.CaseEvent{Type: models.EventCaseRegistered, CaseID: "c1"})
	hub.BroadcastEvent(models.CaseEvent{Type: models.EventCaseMatched, CaseID: "c2", Status: models.StatusFound})

	evt := readEvent(t, conn)
	assert.Equal(t, "c2", evt.CaseID)
	assert.Equal(t, models.EventCaseMatched, evt.Type)
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, hub, url, 1)
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}
