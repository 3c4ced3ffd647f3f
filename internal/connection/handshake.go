package connection

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reviewarcade/arcade/internal/codec"
	"github.com/reviewarcade/arcade/internal/session"
)

var errHeartbeatTimeout = errors.New("heartbeat_timeout")

// handleRaw decodes one inbound frame and routes it: before init it accepts
// only init, after init it forwards game/session traffic to the Session
// Actor and handles pong itself.
func (a *Actor) handleRaw(data []byte) {
	tag, msg, err := codec.Decode(codec.ClientToServer, data)
	if err != nil {
		log.Debug().Str("conn", a.connAddr).Err(err).Msg("bad_message")
		a.sendOut(codec.NewError("bad_message"))
		return
	}

	if tag == "pong" {
		a.lastPongMu.Lock()
		a.lastPongAt = time.Now()
		a.lastPongMu.Unlock()
		return
	}

	if !a.attached {
		if tag != "init" {
			a.sendOut(codec.NewError("auth_required"))
			return
		}
		a.handleInit(msg.(*codec.Init))
		return
	}

	switch tag {
	case "death", "answer", "score_update", "special_event",
		"start_session", "pause_session", "resume_session", "end_session":
		a.args.Engine.Send(a.args.SessionPID, session.ClientEvent{
			ConnPID:  a.self,
			Role:     a.role,
			PlayerID: a.playerID,
			Message:  msg,
		}, a.self)
	default:
		a.sendOut(codec.NewError("bad_message"))
	}
}

// handleInit verifies the client's credentials and, on success, attaches
// this connection to the session by telling the Session Actor about it.
func (a *Actor) handleInit(msg *codec.Init) {
	switch msg.Role {
	case "host":
		claims, err := a.args.TeacherVerifier.Verify(msg.TeacherAuth)
		if err != nil {
			a.sendOut(codec.NewError("auth_invalid"))
			a.cleanup(err)
			return
		}
		a.attached = true
		a.role = "host"
		a.args.Engine.Send(a.args.SessionPID, session.HostConnect{ConnPID: a.self, TeacherID: claims.TeacherID}, a.self)

	case "player":
		if err := a.args.TokenMinter.Verify(msg.PlayerToken, a.args.SessionCode, msg.PlayerID); err != nil {
			a.sendOut(codec.NewError("auth_invalid"))
			a.cleanup(err)
			return
		}
		a.attached = true
		a.role = "player"
		a.playerID = msg.PlayerID
		a.args.Engine.Send(a.args.SessionPID, session.PlayerConnect{ConnPID: a.self, PlayerID: msg.PlayerID}, a.self)

	default:
		a.sendOut(codec.NewError("bad_message"))
	}
}
