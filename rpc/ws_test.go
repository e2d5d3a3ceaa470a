package rpc

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/cemleme/GRB-contracts/core/types"
)

func TestEventsStreamFiltersByUser(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	httpServer := httptest.NewServer(env.handler)
	defer httpServer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws/events?user=" + testPlayer.Hex()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return env.bus.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, _ = env.call(t, "", "game_initializeUser", map[string]string{"user": testOther.Hex()})
	_, _ = env.call(t, "", "game_initializeUser", map[string]string{"user": testPlayer.Hex()})

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var evt types.Event
	require.NoError(t, json.Unmarshal(data, &evt))
	require.NotEmpty(t, evt.Type)
	require.Equal(t, testPlayer.Hex(), evt.Attributes["user"])
}

func TestEventsStreamUnavailableWithoutBus(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	env.server.bus = nil
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/ws/events", nil))
	require.Equal(t, 503, rec.Code)
}
