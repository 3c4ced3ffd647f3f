package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/reviewarcade/arcade/internal/actor"
	"github.com/reviewarcade/arcade/internal/codec"
	"github.com/reviewarcade/arcade/internal/registry"
)

func (s *Session) handleHostConnect(ctx actor.Context, msg HostConnect) {
	s.mu.Lock()
	s.hostPID = msg.ConnPID
	s.hostTeacher = msg.TeacherID
	status := s.status
	players := s.playerSnapshotsLocked()
	remaining := s.remainingSecondsLocked()
	s.mu.Unlock()

	s.sendTo(msg.ConnPID, codec.NewHostState(s.code, string(status), s.cfg.GameType, players, remaining))
}

// handleJoin admits a new player at REST join time, spec §6.1's POST
// /sessions/{code}/join, ahead of any WebSocket. The host is notified
// player_connected immediately (spec scenario S1), with the player_count
// reflecting everyone who has joined so far, not just connected sockets.
func (s *Session) handleJoin(ctx actor.Context, msg Join) {
	s.mu.Lock()
	if s.status != StatusLobby {
		s.mu.Unlock()
		ctx.Reply(ErrNotAccepting)
		return
	}
	if len(s.players) >= s.cfg.MaxPlayers {
		s.mu.Unlock()
		ctx.Reply(ErrSessionFull)
		return
	}

	name := s.dedupNameLocked(msg.DisplayName)
	s.joinSeq++
	id := uuid.NewString()
	p := &player{id: id, displayName: name, isTeacher: msg.IsTeacher, joinOrder: s.joinSeq}
	p.scoring.StreakMultiplier = 1.0
	s.players[id] = p

	host := s.hostPID
	count := len(s.players)
	joinedAt := time.Now()
	s.mu.Unlock()

	s.sendTo(host, codec.NewPlayerConnected(id, name, count))
	ctx.Reply(JoinResult{PlayerID: id, DisplayName: name, JoinedAt: joinedAt})
}

// dedupNameLocked appends "#2", "#3", ... to name until it no longer
// collides case-insensitively with an already-joined player's display name,
// spec §6.1's join-name dedup rule. Must be called with s.mu held.
func (s *Session) dedupNameLocked(name string) string {
	candidate := name
	suffix := 1
	for {
		collision := false
		lower := strings.ToLower(candidate)
		for _, p := range s.players {
			if strings.ToLower(p.displayName) == lower {
				collision = true
				break
			}
		}
		if !collision {
			return candidate
		}
		suffix++
		candidate = fmt.Sprintf("%s#%d", name, suffix)
	}
}

func (s *Session) handlePlayerConnect(ctx actor.Context, msg PlayerConnect) {
	s.mu.Lock()

	p, exists := s.players[msg.PlayerID]
	if !exists {
		if len(s.players) >= s.cfg.MaxPlayers {
			s.mu.Unlock()
			s.sendTo(msg.ConnPID, codec.NewError("full"))
			return
		}
		s.joinSeq++
		p = &player{
			id:          msg.PlayerID,
			displayName: msg.DisplayName,
			joinOrder:   s.joinSeq,
		}
		p.scoring.StreakMultiplier = 1.0
		s.players[msg.PlayerID] = p
	}
	p.connPID = msg.ConnPID
	p.connected = true

	host := s.hostPID
	count := s.connectedCountLocked()
	view := s.playerViewLocked(p)
	snapshot := s.buildSnapshotLocked(msg.PlayerID)
	s.mu.Unlock()

	s.sendTo(msg.ConnPID, codec.NewPlayerState(codec.PlayerState{
		PlayerID:         view.PlayerID,
		DisplayName:      view.DisplayName,
		SessionCode:      s.code,
		Status:           string(snapshot.Status),
		TotalScore:       view.Score,
		CurrentStreak:    view.CurrentStreak,
		StreakMultiplier: view.StreakMultiplier,
		ComebackCredits:  view.ComebackCredits,
	}))
	s.sendTo(host, codec.NewPlayerConnected(msg.PlayerID, p.displayName, count))
}

func (s *Session) handleDisconnect(ctx actor.Context, msg Disconnect) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.Role == "host" {
		if s.hostPID == msg.ConnPID {
			s.hostPID = nil
		}
		return
	}

	for id, p := range s.players {
		if p.connPID == msg.ConnPID {
			p.connected = false
			p.connPID = nil
			s.sendTo(s.hostPID, codec.NewPlayerDisconnected(id, s.connectedCountLocked()))
			return
		}
	}
}

// statusLocked, playerSnapshotsLocked, remainingSecondsLocked,
// connectedCountLocked must only be called with s.mu held.

func (s *Session) statusLocked() Status { return s.status }

func (s *Session) connectedCountLocked() int {
	n := 0
	for _, p := range s.players {
		if p.connected {
			n++
		}
	}
	return n
}

func (s *Session) playerSnapshotsLocked() []codec.PlayerSnapshot {
	out := make([]codec.PlayerSnapshot, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, codec.PlayerSnapshot{
			PlayerID:      p.id,
			DisplayName:   p.displayName,
			IsTeacher:     p.isTeacher,
			Connected:     p.connected,
			TotalScore:    p.scoring.TotalScore,
			CurrentStreak: p.scoring.CurrentStreak,
			BestStreak:    p.scoring.BestStreak,
		})
	}
	return out
}

func (s *Session) remainingSecondsLocked() int {
	if s.status != StatusActive {
		if s.status == StatusPaused {
			return int(s.remainingAtPause / time.Second)
		}
		return s.cfg.TimeLimitSeconds
	}
	remaining := time.Until(s.timerEndWall)
	if remaining < 0 {
		return 0
	}
	return int(remaining / time.Second)
}

func (s *Session) startSession(ctx actor.Context) {
	s.mu.Lock()
	ready := s.status == StatusLobby && s.hostPID != nil && (!s.cfg.TeacherMode || len(s.players) >= 1)
	if !ready {
		s.mu.Unlock()
		s.sendTo(s.hostPID, codec.NewError("not_accepting"))
		return
	}
	s.status = StatusActive
	s.timerEndWall = time.Now().Add(time.Duration(s.cfg.TimeLimitSeconds) * time.Second)
	host := s.hostPID
	gameType := s.cfg.GameType
	limit := s.cfg.TimeLimitSeconds
	s.mu.Unlock()

	msg := codec.NewSessionStarted(gameType, limit)
	s.broadcastToPlayers(msg)
	s.sendTo(host, msg)
}

func (s *Session) pauseSession(ctx actor.Context) {
	s.mu.Lock()
	if s.status != StatusActive {
		s.mu.Unlock()
		return
	}
	s.status = StatusPaused
	s.remainingAtPause = time.Until(s.timerEndWall)
	if s.remainingAtPause < 0 {
		s.remainingAtPause = 0
	}
	s.mu.Unlock()

	msg := codec.NewSessionPaused()
	s.broadcastToPlayers(msg)
	s.sendTo(s.hostPID, msg)
}

func (s *Session) resumeSession(ctx actor.Context) {
	s.mu.Lock()
	if s.status != StatusPaused {
		s.mu.Unlock()
		return
	}
	s.status = StatusActive
	s.timerEndWall = time.Now().Add(s.remainingAtPause)
	remaining := int(s.remainingAtPause / time.Second)
	s.mu.Unlock()

	msg := codec.NewSessionResumed(remaining)
	s.broadcastToPlayers(msg)
	s.sendTo(s.hostPID, msg)
}

func (s *Session) endSession(ctx actor.Context) {
	s.mu.Lock()
	if s.status == StatusEnded {
		s.mu.Unlock()
		return
	}
	s.status = StatusEnded
	s.endedAt = time.Now()
	leaderboard := s.leaderboardLocked()
	awards := s.computeAwardsLocked()
	stats := s.buildStatsLocked()
	s.results = &Results{Code: s.code, Leaderboard: leaderboard, Stats: stats, Awards: awards, EndedAt: s.endedAt}
	host := s.hostPID
	s.mu.Unlock()

	msg := codec.NewSessionEnded(toCodecLeaderboard(leaderboard), toCodecAwards(awards))
	s.broadcastToPlayers(msg)
	s.sendTo(host, msg)

	if s.store != nil {
		if err := s.store.Archive(s.code, *s.results); err != nil {
			log.Error().Str("session", s.code).Err(err).Msg("failed to archive session results")
		}
	}

	if s.cfg.RegistryPID != nil {
		s.engine.Send(s.cfg.RegistryPID, registry.Ended{Code: s.code}, s.self)
	}
}

func (s *Session) handleTick(ctx actor.Context) {
	s.mu.Lock()
	active := s.status == StatusActive
	expired := active && time.Now().After(s.timerEndWall)
	s.mu.Unlock()

	if expired {
		s.endSession(ctx)
	}
}

func (s *Session) broadcastToPlayers(msg interface{}) {
	s.mu.Lock()
	pids := make([]*actor.PID, 0, len(s.players))
	for _, p := range s.players {
		if p.connPID != nil {
			pids = append(pids, p.connPID)
		}
	}
	s.mu.Unlock()

	for _, pid := range pids {
		s.sendTo(pid, msg)
	}
}
