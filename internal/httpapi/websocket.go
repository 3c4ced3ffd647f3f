package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/reviewarcade/arcade/internal/actor"
	"github.com/reviewarcade/arcade/internal/connection"
)

// handleWebSocket is GET /ws/reviewarcade/{code}: upgrade the HTTP
// connection, resolve the session the same way the REST handlers do, and
// spawn a connection.Actor to own it. Grounded on
// lguibr-pongo/server/handlers.go's HandleSubscribe: upgrade first, spawn
// an actor, then block the handler goroutine on a done channel so the
// response doesn't return until the socket has actually closed.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	pid, ok := s.lookupSession(code)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	conn, err := connection.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Str("code", code).Err(err).Msg("websocket upgrade failed")
		return
	}

	done := make(chan struct{})
	args := connection.Args{
		Conn:              conn,
		Engine:            s.Engine,
		SessionPID:        pid,
		SessionCode:       code,
		Heartbeat:         connection.HeartbeatConfig{Interval: s.Heartbeat.Interval, Timeout: s.Heartbeat.Timeout},
		OutboundQueueSize: s.OutboundQueueSize,
		TeacherVerifier:   s.TeacherVerifier,
		TokenMinter:       s.TokenMinter,
		Done:              done,
	}

	if s.Engine.Spawn(actor.NewProps(connection.NewProducer(args))) == nil {
		_ = conn.Close()
		return
	}

	<-done
}
