package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/go-chi/chi/v5"

	"github.com/reviewarcade/arcade/internal/actor"
	"github.com/reviewarcade/arcade/internal/auth"
	"github.com/reviewarcade/arcade/internal/question"
	"github.com/reviewarcade/arcade/internal/registry"
	"github.com/reviewarcade/arcade/internal/session"
)

// handleCreateSession is POST /sessions, spec §6.1: a teacher stands up a
// new session with a fixed question source and gets back its code.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	s.requireTeacher(func(w http.ResponseWriter, r *http.Request, claims *auth.TeacherClaims) {
		var req createSessionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request")
			return
		}

		if !validGameTypes[req.GameType] {
			writeError(w, http.StatusBadRequest, "bad_game_type")
			return
		}
		if req.TeacherMode != "monitor" && req.TeacherMode != "play" {
			writeError(w, http.StatusBadRequest, "bad_teacher_mode")
			return
		}
		if req.TimeLimitMinutes <= 0 || req.MaxPlayers <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request")
			return
		}

		if s.MaxSessionsPerProc > 0 && s.liveSessionCount() >= s.MaxSessionsPerProc {
			writeError(w, http.StatusServiceUnavailable, "max_sessions_reached")
			return
		}

		source, err := s.buildQuestionSource(r.Context(), req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_question_source")
			return
		}

		code, err := s.generateSessionCode()
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "session_codes_exhausted")
			return
		}

		cfg := session.Config{
			GameType:         req.GameType,
			TeacherMode:      req.TeacherMode == "play",
			TimeLimitSeconds: req.TimeLimitMinutes * 60,
			MaxPlayers:       req.MaxPlayers,
			Source:           source,
			AnswerTimeout:    s.AnswerTimeout,
			RegistryPID:      s.RegistryPID,
		}

		pid := s.Engine.Spawn(actor.NewProps(session.NewProducer(code, cfg, s.Engine, s.ResultsArchiver)))
		if pid == nil {
			writeError(w, http.StatusServiceUnavailable, "engine_stopping")
			return
		}
		s.Engine.Send(s.RegistryPID, registry.Create{Code: code, PID: pid}, nil)

		createdAt := time.Now()
		s.recordSession(&sessionMeta{
			Code:             code,
			TeacherID:        claims.TeacherID,
			GameType:         req.GameType,
			TeacherMode:      req.TeacherMode,
			MaxPlayers:       req.MaxPlayers,
			TimeLimitSeconds: cfg.TimeLimitSeconds,
			CreatedAt:        createdAt,
		})

		writeJSON(w, http.StatusCreated, sessionResponse{
			Code:             code,
			GameType:         req.GameType,
			TeacherMode:      req.TeacherMode,
			Status:           "lobby",
			TimeLimitSeconds: cfg.TimeLimitSeconds,
			MaxPlayers:       req.MaxPlayers,
			CreatedAt:        createdAt,
		})
	})(w, r)
}

// buildQuestionSource turns a createSessionRequest's question_source /
// question_config / question_bank_ids into the question.Source the session
// will draw from for its whole lifetime, spec §4.3.
func (s *Server) buildQuestionSource(ctx context.Context, req createSessionRequest) (question.Source, error) {
	switch req.QuestionSource {
	case "bank":
		var all []question.Question
		for _, bankID := range req.QuestionBankIDs {
			if s.BankLoader == nil {
				return nil, errNoBankLoader
			}
			qs, err := s.BankLoader.LoadBank(ctx, bankID)
			if err != nil {
				return nil, err
			}
			all = append(all, qs...)
		}
		if len(all) == 0 {
			return nil, errEmptyBank
		}
		return question.NewBankSource(all), nil

	default: // "math", and the unset-field default
		cfg := question.MathConfig{Min: 1, Max: 12, Operations: []question.Operation{question.Add, question.Sub}}
		if req.QuestionConfig != nil {
			cfg.Min = req.QuestionConfig.Min
			cfg.Max = req.QuestionConfig.Max
			for _, op := range req.QuestionConfig.Operations {
				cfg.Operations = append(cfg.Operations, question.Operation(op))
			}
			if len(cfg.Operations) == 0 {
				cfg.Operations = []question.Operation{question.Add, question.Sub}
			}
		}
		return question.NewMathSource(cfg, seedFromTime()), nil
	}
}

// handleListSessions is GET /sessions, scoped to the authenticated
// teacher's own sessions, newest first.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	s.requireTeacher(func(w http.ResponseWriter, r *http.Request, claims *auth.TeacherClaims) {
		metas := s.teacherSessions(claims.TeacherID, 0)
		out := make([]sessionResponse, 0, len(metas))
		for _, m := range metas {
			status := "lobby"
			if snap, ok := s.askSnapshot(m.Code); ok {
				status = snap.Status
			}
			out = append(out, sessionResponse{
				Code:             m.Code,
				GameType:         m.GameType,
				TeacherMode:      m.TeacherMode,
				Status:           status,
				TimeLimitSeconds: m.TimeLimitSeconds,
				MaxPlayers:       m.MaxPlayers,
				CreatedAt:        m.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	})(w, r)
}

// handleSessionPreview is GET /sessions/{code}, public so a student can
// confirm a code is live before joining.
func (s *Server) handleSessionPreview(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	snap, ok := s.askSnapshot(code)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if snap.Status == string(session.StatusEnded) {
		writeError(w, http.StatusGone, "ended")
		return
	}
	writeJSON(w, http.StatusOK, sessionPreviewResponse{
		Code:        code,
		Status:      snap.Status,
		GameType:    snap.GameType,
		PlayerCount: len(snap.Players),
		MaxPlayers:  s.maxPlayersFor(code),
	})
}

func (s *Server) maxPlayersFor(code string) int {
	if m, ok := s.metaFor(code); ok {
		return m.MaxPlayers
	}
	return 0
}

// handleJoin is POST /sessions/{code}/join, spec §6.1's public join: admit
// a new player, mint its token, and hand back its identity.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	s.doJoin(w, r, code, false)
}

// handleJoinTeacher is POST /sessions/{code}/join-teacher: a teacher
// joining their own play-mode session as a participant, spec §3's
// "is_teacher true only when the teacher joined own session in play mode".
func (s *Server) handleJoinTeacher(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	s.requireTeacher(func(w http.ResponseWriter, r *http.Request, claims *auth.TeacherClaims) {
		meta, ok := s.metaFor(code)
		if !ok {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		if meta.TeacherID != claims.TeacherID {
			writeError(w, http.StatusForbidden, "not_owner")
			return
		}
		if meta.TeacherMode != "play" {
			writeError(w, http.StatusBadRequest, "not_play_mode")
			return
		}
		s.doJoin(w, r, code, true)
	})(w, r)
}

func (s *Server) doJoin(w http.ResponseWriter, r *http.Request, code string, isTeacher bool) {
	pid, ok := s.lookupSession(code)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	var req joinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request")
		return
	}
	name := s.NameSanitizer.Clean(req.Name)
	if len([]rune(name)) < auth.MinNameRunes || strings.IndexFunc(name, unicode.IsControl) >= 0 {
		writeError(w, http.StatusBadRequest, "bad_name")
		return
	}

	reply, err := s.Engine.Ask(pid, session.Join{DisplayName: name, IsTeacher: isTeacher}, s.AskTimeout)
	if err != nil {
		switch err {
		case session.ErrSessionFull:
			writeError(w, http.StatusConflict, "full")
		case session.ErrNotAccepting:
			writeError(w, http.StatusConflict, "not_accepting")
		default:
			writeError(w, http.StatusNotFound, "not_found")
		}
		return
	}
	result := reply.(session.JoinResult)

	token, err := s.TokenMinter.Mint(code, result.PlayerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_mint_failed")
		return
	}

	writeJSON(w, http.StatusCreated, playerResponse{
		ID:          result.PlayerID,
		Name:        result.DisplayName,
		SessionCode: code,
		PlayerToken: token,
		IsTeacher:   isTeacher,
		JoinedAt:    result.JoinedAt,
	})
}

// handleResults is GET /sessions/{code}/results: prefer the live
// Session Actor's own GetResults (valid immediately after StatusEnded),
// and fall back to the Redis archive once the registry has reaped it.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if pid, ok := s.lookupSession(code); ok {
		reply, err := s.Engine.Ask(pid, session.GetResults{}, s.AskTimeout)
		if err == nil {
			results := reply.(session.Results)
			writeJSON(w, http.StatusOK, resultsFromSession(code, &results))
			return
		}
	}

	if s.ResultsLoader != nil {
		if results, err := s.ResultsLoader.Load(code); err == nil {
			writeJSON(w, http.StatusOK, resultsFromSession(code, &results))
			return
		}
	}

	writeError(w, http.StatusNotFound, "not_found")
}

func resultsFromSession(code string, results *session.Results) resultsResponse {
	lb := make([]leaderboardRowJSON, 0, len(results.Leaderboard))
	for _, e := range results.Leaderboard {
		lb = append(lb, leaderboardRowJSON{
			Rank: e.Rank, PlayerID: e.PlayerID, DisplayName: e.DisplayName,
			IsTeacher: e.IsTeacher, TotalScore: e.Score, BestStreak: e.BestStreak,
		})
	}
	stats := make([]playerStatsJSON, 0, len(results.Stats))
	for _, st := range results.Stats {
		stats = append(stats, playerStatsJSON{
			PlayerID: st.PlayerID, DisplayName: st.DisplayName,
			QuestionsAnswered: st.QuestionsAnswered, QuestionsCorrect: st.QuestionsCorrect,
			AvgTimeMs: st.AvgTimeMs,
		})
	}
	awards := make([]awardJSON, 0, len(results.Awards))
	for _, a := range results.Awards {
		awards = append(awards, awardJSON{Name: a.Title, PlayerID: a.PlayerID, DisplayName: a.DisplayName, Value: a.Value})
	}
	return resultsResponse{Code: code, Leaderboard: lb, Stats: stats, Awards: awards, EndedAt: results.EndedAt}
}

// handleHealthz reports liveness and the actor engine's current population,
// the way lguibr-pongo exposes a basic health endpoint for its load balancer.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"actors": s.Engine.Count(),
	})
}

// liveSessionCount asks the registry how many session codes it currently
// tracks (live or ended-but-not-yet-reaped), enforcing spec §6.3's
// max-sessions-per-process cap in handleCreateSession.
func (s *Server) liveSessionCount() int {
	reply, err := s.Engine.Ask(s.RegistryPID, registry.List{}, s.AskTimeout)
	if err != nil {
		return 0
	}
	codes, ok := reply.([]string)
	if !ok {
		return 0
	}
	return len(codes)
}

// lookupSession resolves code to a live Session Actor PID through the
// registry, nil/false if unknown.
func (s *Server) lookupSession(code string) (*actor.PID, bool) {
	reply, err := s.Engine.Ask(s.RegistryPID, registry.Lookup{Code: code}, s.AskTimeout)
	if err != nil {
		return nil, false
	}
	pid, ok := reply.(*actor.PID)
	return pid, ok
}

func (s *Server) askSnapshot(code string) (*session.Snapshot, bool) {
	pid, ok := s.lookupSession(code)
	if !ok {
		return nil, false
	}
	reply, err := s.Engine.Ask(pid, session.GetSnapshot{}, s.AskTimeout)
	if err != nil {
		return nil, false
	}
	snap, ok := reply.(session.Snapshot)
	if !ok {
		return nil, false
	}
	return &snap, true
}
