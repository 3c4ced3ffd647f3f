package connection

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewarcade/arcade/internal/actor"
	"github.com/reviewarcade/arcade/internal/auth"
	"github.com/reviewarcade/arcade/internal/codec"
	"github.com/reviewarcade/arcade/internal/session"
)

// sessionStub stands in for the Session Actor: it records every message it
// is sent so a test can assert the connection actor forwarded init/death/
// answer traffic correctly.
type sessionStub struct {
	mu       sync.Mutex
	received []interface{}
}

func (s *sessionStub) Receive(ctx actor.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, ctx.Message())
}

func (s *sessionStub) last() interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.received) == 0 {
		return nil
	}
	return s.received[len(s.received)-1]
}

func startTestServer(t *testing.T, engine *actor.Engine, sessionPID *actor.PID, tv *auth.TeacherVerifier, tm *auth.PlayerTokenMinter) *httptest.Server {
	t.Helper()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		done := make(chan struct{})
		args := Args{
			Conn:              conn,
			Engine:            engine,
			SessionPID:        sessionPID,
			SessionCode:       "ABCD12",
			Heartbeat:         HeartbeatConfig{Interval: 20 * time.Second, Timeout: 45 * time.Second},
			OutboundQueueSize: 16,
			TeacherVerifier:   tv,
			TokenMinter:       tm,
			Done:              done,
		}
		engine.Spawn(actor.NewProps(NewProducer(args)))
	})
	return httptest.NewServer(handler)
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func newTestTeacherAuth(t *testing.T) (*auth.TeacherVerifier, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tv := auth.NewTeacherVerifier(auth.StaticRSAKeySource{PublicKey: &key.PublicKey})

	claims := struct {
		jwt.RegisteredClaims
		TeacherID string `json:"teacher_id"`
		Name      string `json:"name"`
	}{TeacherID: "t1", Name: "Ada"}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return tv, signed
}

func TestConnection_HostInitForwardsHostConnect(t *testing.T) {
	engine := actor.NewEngine()
	stub := &sessionStub{}
	sessionPID := engine.Spawn(actor.NewProps(func() actor.Actor { return stub }))

	tv, token := newTestTeacherAuth(t)
	tm := auth.NewPlayerTokenMinter([]byte("secret"))

	server := startTestServer(t, engine, sessionPID, tv, tm)
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(codec.Init{Type: "init", Role: "host", TeacherAuth: token}))

	require.Eventually(t, func() bool {
		_, ok := stub.last().(session.HostConnect)
		return ok
	}, time.Second, 10*time.Millisecond)

	hc := stub.last().(session.HostConnect)
	assert.Equal(t, "t1", hc.TeacherID)
}

func TestConnection_PlayerInitWithBadTokenGetsAuthInvalid(t *testing.T) {
	engine := actor.NewEngine()
	stub := &sessionStub{}
	sessionPID := engine.Spawn(actor.NewProps(func() actor.Actor { return stub }))

	tv, _ := newTestTeacherAuth(t)
	tm := auth.NewPlayerTokenMinter([]byte("secret"))

	server := startTestServer(t, engine, sessionPID, tv, tm)
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(codec.Init{
		Type: "init", Role: "player", PlayerID: "p1", PlayerToken: "garbage.garbage",
	}))

	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	_, msg, err := codecDecodeServer(raw)
	require.NoError(t, err)
	errMsg, ok := msg.(*codec.ErrorMsg)
	require.True(t, ok)
	assert.Equal(t, "auth_invalid", errMsg.Message)
}

func TestConnection_PlayerInitWithValidTokenForwardsPlayerConnect(t *testing.T) {
	engine := actor.NewEngine()
	stub := &sessionStub{}
	sessionPID := engine.Spawn(actor.NewProps(func() actor.Actor { return stub }))

	tv, _ := newTestTeacherAuth(t)
	tm := auth.NewPlayerTokenMinter([]byte("secret"))
	token, err := tm.Mint("ABCD12", "p1")
	require.NoError(t, err)

	server := startTestServer(t, engine, sessionPID, tv, tm)
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(codec.Init{
		Type: "init", Role: "player", PlayerID: "p1", PlayerToken: token,
	}))

	require.Eventually(t, func() bool {
		_, ok := stub.last().(session.PlayerConnect)
		return ok
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(codec.Death{Type: "death", Score: 50}))

	require.Eventually(t, func() bool {
		evt, ok := stub.last().(session.ClientEvent)
		if !ok {
			return false
		}
		_, ok = evt.Message.(*codec.Death)
		return ok
	}, time.Second, 10*time.Millisecond)
}

func TestConnection_BadMessageGetsErrorReply(t *testing.T) {
	engine := actor.NewEngine()
	stub := &sessionStub{}
	sessionPID := engine.Spawn(actor.NewProps(func() actor.Actor { return stub }))

	tv, _ := newTestTeacherAuth(t)
	tm := auth.NewPlayerTokenMinter([]byte("secret"))

	server := startTestServer(t, engine, sessionPID, tv, tm)
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"not_a_real_type"}`)))

	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	_, msg, err := codecDecodeServer(raw)
	require.NoError(t, err)
	errMsg, ok := msg.(*codec.ErrorMsg)
	require.True(t, ok)
	assert.Equal(t, "bad_message", errMsg.Message)
}

func codecDecodeServer(raw []byte) (string, interface{}, error) {
	return codec.Decode(codec.ServerToClient, raw)
}
