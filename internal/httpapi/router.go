package httpapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router builds the full chi.Router for spec §6.1/§6.2: every REST endpoint
// under /api/reviewarcade plus the /ws/reviewarcade/{code} upgrade,
// middleware-wrapped the way hmcalister-TwentyQuestions/main.go wraps its
// router (request ID, panic recovery, no-cache on every response since
// session state changes every second).
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	r.Route("/api/reviewarcade", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{code}", s.handleSessionPreview)
		r.Post("/sessions/{code}/join", s.handleJoin)
		r.Post("/sessions/{code}/join-teacher", s.handleJoinTeacher)
		r.Get("/sessions/{code}/results", s.handleResults)
	})

	r.Get("/ws/reviewarcade/{code}", s.handleWebSocket)
	r.Get("/healthz", s.handleHealthz)

	return r
}
