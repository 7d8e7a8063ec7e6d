package realtime

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"waste-bin-monitor/pkg/utils"
)

func newTestServer(t *testing.T, hub *Hub, auth Authenticator) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(hub, auth, nil, zap.NewNop()).RegisterRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame Frame
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame
}

func register(t *testing.T, conn *websocket.Conn, payload any) Frame {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Frame{Event: EventRegister, Data: data}))
	return readFrame(t, conn)
}

func TestRegisterThenReceiveUserFrames(t *testing.T) {
	hub := NewHub()
	srv := newTestServer(t, hub, nil)
	conn := dial(t, srv)

	reply := register(t, conn, map[string]string{"user_id": "u1"})
	require.Equal(t, EventRegistered, reply.Event)
	assert.Equal(t, 1, hub.UserSessionCount("u1"))

	frame, err := Encode(EventNotification, map[string]string{"message": "Çöp kutusu dolu"})
	require.NoError(t, err)
	assert.Equal(t, 1, hub.SendToUser("u1", frame))

	got := readFrame(t, conn)
	assert.Equal(t, EventNotification, got.Event)
	assert.JSONEq(t, `{"message":"Çöp kutusu dolu"}`, string(got.Data))
}

func TestRegisterWithBareNumericID(t *testing.T) {
	hub := NewHub()
	srv := newTestServer(t, hub, nil)
	conn := dial(t, srv)

	reply := register(t, conn, 42)
	require.Equal(t, EventRegistered, reply.Event)
	assert.Equal(t, 1, hub.UserSessionCount("42"))
}

func TestRegisterRequiresValidToken(t *testing.T) {
	hub := NewHub()
	srv := newTestServer(t, hub, JWTAuthenticator{Secret: "secret"})
	conn := dial(t, srv)

	reply := register(t, conn, map[string]string{"user_id": "u1", "token": "garbage"})
	assert.Equal(t, EventError, reply.Event)
	assert.Zero(t, hub.UserSessionCount("u1"))

	token, err := utils.GenerateToken(&utils.Claims{
		UserID:           "u1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}, "secret")
	require.NoError(t, err)

	reply = register(t, conn, map[string]string{"user_id": "u2", "token": token})
	assert.Equal(t, EventError, reply.Event)

	reply = register(t, conn, map[string]string{"token": token})
	require.Equal(t, EventRegistered, reply.Event)
	assert.Equal(t, 1, hub.UserSessionCount("u1"))
}

func TestDisconnectDetachesSession(t *testing.T) {
	hub := NewHub()
	srv := newTestServer(t, hub, nil)
	conn := dial(t, srv)

	reply := register(t, conn, map[string]string{"user_id": "u1"})
	require.Equal(t, EventRegistered, reply.Event)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return hub.SessionCount() == 0 && hub.UserSessionCount("u1") == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, hub.SendToUser("u1", []byte("late")))
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:5173"})

	req := httptest.NewRequest("GET", "/ws", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))
}
