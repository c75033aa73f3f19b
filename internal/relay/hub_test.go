package relay

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pastekit/pastekit/internal/common/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestLogger() *logger.Logger {
	log, _ := logger.NewLogger(logger.LoggingConfig{
		Level:  "error",
		Format: "json",
	})
	return log
}

func setupTestHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	router := gin.New()
	router.GET("/ws", hub.ServeWS)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	return hub, wsURL
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) *ChatMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg ChatMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return &msg
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	hub, wsURL := setupTestHub(t)

	first := dial(t, wsURL)
	second := dial(t, wsURL)

	// Registration races the broadcast otherwise.
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast(&ChatMessage{Sender: "demo", Text: "hello"})

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		assert.Equal(t, "demo", msg.Sender)
		assert.Equal(t, "hello", msg.Text)
	}
}

func TestHub_ClientMessageIsRelayed(t *testing.T) {
	_, wsURL := setupTestHub(t)

	sender := dial(t, wsURL)
	receiver := dial(t, wsURL)
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, sender.WriteJSON(&ChatMessage{Sender: "alice", Text: "hi all"}))

	msg := readMessage(t, receiver)
	assert.Equal(t, "alice", msg.Sender)
	assert.Equal(t, "hi all", msg.Text)
	assert.False(t, msg.SentAt.IsZero(), "relay stamps missing timestamps")
}
