// Package httpapi is the REST + WebSocket-upgrade surface of spec §4.7:
// a stateless adapter that parses requests, talks to the Registry and to
// individual Session Actors through the actor engine's Ask/Send, and writes
// responses. Grounded on lguibr-pongo/server/handlers.go's HandleSubscribe/
// HandleGetRooms shape (spawn a per-connection actor and block on its done
// channel; Ask a long-lived actor for read state) and routed with
// go-chi/chi/v5 the way hmcalister-TwentyQuestions/main.go builds its router.
package httpapi

import (
	"context"
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	"github.com/reviewarcade/arcade/internal/actor"
	"github.com/reviewarcade/arcade/internal/auth"
	"github.com/reviewarcade/arcade/internal/question"
	"github.com/reviewarcade/arcade/internal/registry"
	"github.com/reviewarcade/arcade/internal/session"
)

// BankLoader resolves a bank id to its questions, satisfied by
// internal/store.QuestionBankStore. Left as an interface so tests can stub
// it without a live Postgres connection.
type BankLoader interface {
	LoadBank(ctx context.Context, bankID string) ([]question.Question, error)
}

// ResultsLoader reads back an archived session's results once the Session
// Actor itself is gone, satisfied by internal/store.ResultsArchive. Separate
// from session.ResultsArchiver because the actor only ever needs to write.
type ResultsLoader interface {
	Load(code string) (session.Results, error)
}

// Server holds every dependency the HTTP handlers need: the actor engine
// and registry PID to reach sessions, the auth verifiers, and the optional
// store-backed collaborators.
type Server struct {
	Engine      *actor.Engine
	RegistryPID *actor.PID

	TeacherVerifier *auth.TeacherVerifier
	TokenMinter     *auth.PlayerTokenMinter
	NameSanitizer   *auth.NameSanitizer

	BankLoader      BankLoader
	ResultsArchiver session.ResultsArchiver
	ResultsLoader   ResultsLoader

	Heartbeat          HeartbeatConfig
	OutboundQueueSize  int
	AskTimeout         time.Duration
	AnswerTimeout      time.Duration
	MaxSessionsPerProc int

	mu        sync.Mutex
	directory map[string]*sessionMeta   // code -> meta
	byTeacher map[string][]string       // teacher_id -> codes, newest first
}

// HeartbeatConfig mirrors internal/connection.HeartbeatConfig; redeclared
// here so this package doesn't need to import internal/connection just for
// a two-field struct (it still imports it in websocket.go for the Upgrader
// and Args).
type HeartbeatConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

// sessionMeta is the directory's per-session bookkeeping: everything a
// GET /sessions listing or a join-teacher ownership check needs that the
// Session Actor itself doesn't track (it doesn't know who created it, only
// who is presently attached as host).
type sessionMeta struct {
	Code             string
	TeacherID        string
	GameType         string
	TeacherMode      string // "monitor" or "play"
	MaxPlayers       int
	TimeLimitSeconds int
	CreatedAt        time.Time
}

// NewServer builds a Server with an empty session directory.
func NewServer(engine *actor.Engine, registryPID *actor.PID) *Server {
	return &Server{
		Engine:      engine,
		RegistryPID: registryPID,
		AskTimeout:  2 * time.Second,
		directory:   make(map[string]*sessionMeta),
		byTeacher:   make(map[string][]string),
	}
}

func (s *Server) recordSession(meta *sessionMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directory[meta.Code] = meta
	s.byTeacher[meta.TeacherID] = append([]string{meta.Code}, s.byTeacher[meta.TeacherID]...)
}

func (s *Server) metaFor(code string) (*sessionMeta, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.directory[code]
	return m, ok
}

func (s *Server) teacherSessions(teacherID string, limit int) []*sessionMeta {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes := s.byTeacher[teacherID]
	if limit > 0 && limit < len(codes) {
		codes = codes[:limit]
	}
	out := make([]*sessionMeta, 0, len(codes))
	for _, c := range codes {
		if m, ok := s.directory[c]; ok {
			out = append(out, m)
		}
	}
	return out
}

// sessionCodeAlphabet drops I, O, 0, 1 per spec §6.2 so a spoken or
// handwritten code is never ambiguous.
const sessionCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// generateSessionCode returns a 6-character code and retries against the
// registry's Lookup until it finds one with no live collision, spec §4.6's
// "create... reject collisions with live sessions".
func (s *Server) generateSessionCode() (string, error) {
	for attempt := 0; attempt < 16; attempt++ {
		code, err := randomCode(6)
		if err != nil {
			return "", err
		}
		if _, err := s.Engine.Ask(s.RegistryPID, registry.Lookup{Code: code}, s.AskTimeout); err != nil {
			// ErrNotFound (or any Ask error) means the code is free to use.
			return code, nil
		}
	}
	return "", errTooManyCollisions
}

func randomCode(n int) (string, error) {
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(sessionCodeAlphabet))))
		if err != nil {
			return "", err
		}
		buf[i] = sessionCodeAlphabet[idx.Int64()]
	}
	return string(buf), nil
}
