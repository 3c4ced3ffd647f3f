package httpapi

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewarcade/arcade/internal/actor"
	"github.com/reviewarcade/arcade/internal/auth"
	"github.com/reviewarcade/arcade/internal/registry"
)

func newTestServer(t *testing.T) (*Server, *rsa.PrivateKey) {
	t.Helper()
	engine := actor.NewEngine()
	registryPID := engine.Spawn(actor.NewProps(registry.NewProducer(engine, 50*time.Millisecond)))
	require.NotNil(t, registryPID)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	s := NewServer(engine, registryPID)
	s.NameSanitizer = auth.NewNameSanitizer()
	s.TokenMinter = auth.NewPlayerTokenMinter([]byte("test-key"))
	s.TeacherVerifier = auth.NewTeacherVerifier(auth.StaticRSAKeySource{PublicKey: &key.PublicKey})
	s.AskTimeout = time.Second
	s.Heartbeat = HeartbeatConfig{Interval: 20 * time.Second, Timeout: 45 * time.Second}
	s.OutboundQueueSize = 16
	return s, key
}

func teacherToken(t *testing.T, key *rsa.PrivateKey, teacherID string) string {
	t.Helper()
	claims := struct {
		jwt.RegisteredClaims
		TeacherID string `json:"teacher_id"`
		Name      string `json:"name"`
	}{TeacherID: teacherID, Name: "Ada"}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func createSession(t *testing.T, srv *Server, router http.Handler, token string) sessionResponse {
	t.Helper()
	body := createSessionRequest{
		GameType: "platformer", TeacherMode: "monitor",
		TimeLimitMinutes: 10, MaxPlayers: 30, QuestionSource: "math",
	}
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/reviewarcade/sessions", bytes.NewReader(raw))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var out sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCreateSession_RequiresTeacherAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	body := createSessionRequest{GameType: "platformer", TeacherMode: "monitor", TimeLimitMinutes: 10, MaxPlayers: 10, QuestionSource: "math"}
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/reviewarcade/sessions", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateSession_ThenJoin_AssignsVerifiableToken(t *testing.T) {
	srv, key := newTestServer(t)
	router := srv.Router()
	token := teacherToken(t, key, "teacher-1")

	sess := createSession(t, srv, router, token)
	assert.Len(t, sess.Code, 6)
	assert.Equal(t, "lobby", sess.Status)

	joinBody, _ := json.Marshal(joinRequest{Name: "Grace"})
	req := httptest.NewRequest(http.MethodPost, "/api/reviewarcade/sessions/"+sess.Code+"/join", bytes.NewReader(joinBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var player playerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &player))
	assert.Equal(t, "Grace", player.Name)
	assert.False(t, player.IsTeacher)
	assert.NotEmpty(t, player.PlayerToken)

	verifyErr := srv.TokenMinter.Verify(player.PlayerToken, sess.Code, player.ID)
	assert.NoError(t, verifyErr)
}

func TestJoin_UnknownCodeReturns404(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	joinBody, _ := json.Marshal(joinRequest{Name: "Grace"})
	req := httptest.NewRequest(http.MethodPost, "/api/reviewarcade/sessions/ZZZZZZ/join", bytes.NewReader(joinBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJoin_BlankNameIsRejected(t *testing.T) {
	srv, key := newTestServer(t)
	router := srv.Router()
	token := teacherToken(t, key, "teacher-1")
	sess := createSession(t, srv, router, token)

	joinBody, _ := json.Marshal(joinRequest{Name: "  "})
	req := httptest.NewRequest(http.MethodPost, "/api/reviewarcade/sessions/"+sess.Code+"/join", bytes.NewReader(joinBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionPreview_PublicAndUnauthenticated(t *testing.T) {
	srv, key := newTestServer(t)
	router := srv.Router()
	token := teacherToken(t, key, "teacher-1")
	sess := createSession(t, srv, router, token)

	req := httptest.NewRequest(http.MethodGet, "/api/reviewarcade/sessions/"+sess.Code, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var preview sessionPreviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.Equal(t, sess.Code, preview.Code)
	assert.Equal(t, "lobby", preview.Status)
	assert.Equal(t, 30, preview.MaxPlayers)
}

func TestJoinTeacher_RejectedInMonitorMode(t *testing.T) {
	srv, key := newTestServer(t)
	router := srv.Router()
	token := teacherToken(t, key, "teacher-1")
	sess := createSession(t, srv, router, token)

	req := httptest.NewRequest(http.MethodPost, "/api/reviewarcade/sessions/"+sess.Code+"/join-teacher", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSessions_OnlyReturnsCallingTeachersSessions(t *testing.T) {
	srv, key := newTestServer(t)
	router := srv.Router()
	tokenA := teacherToken(t, key, "teacher-a")
	tokenB := teacherToken(t, key, "teacher-b")

	createSession(t, srv, router, tokenA)
	createSession(t, srv, router, tokenB)

	req := httptest.NewRequest(http.MethodGet, "/api/reviewarcade/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+tokenA)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestResults_NotFoundBeforeSessionEnds(t *testing.T) {
	srv, key := newTestServer(t)
	router := srv.Router()
	token := teacherToken(t, key, "teacher-1")
	sess := createSession(t, srv, router, token)

	req := httptest.NewRequest(http.MethodGet, "/api/reviewarcade/sessions/"+sess.Code+"/results", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
