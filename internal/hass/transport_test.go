package hass

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// echoServer answers every text message with the same payload.
func echoServer(t *testing.T) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(kind, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/api/websocket"
}

func TestWebSocketDialer_RoundTrip(t *testing.T) {
	endpoint := echoServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewWebSocketDialer().Dial(ctx, endpoint)
	require.NoError(t, err)

	require.NoError(t, conn.Send([]byte(`{"type":"get_states","id":1}`)))
	data, err := conn.Receive()
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"get_states","id":1}`, string(data))

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	_, err = conn.Receive()
	require.Error(t, err)
}

func TestWebSocketDialer_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewWebSocketDialer().Dial(ctx, "ws://127.0.0.1:1/api/websocket")
	require.Error(t, err)
}
