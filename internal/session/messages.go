// Package session implements the Session Actor: the single writer behind
// a Review Arcade session, grounded on
// lguibr-pongo/game/game_actor.go's GameActor — same shape (a struct
// carrying all live state, a Receive dispatch switch, a self-ticking
// goroutine posting to its own mailbox, file-split into
// lifecycle/handlers/leaderboard/awards) generalized from a physics room to
// a question-gated scoreboard.
package session

import (
	"errors"
	"time"

	"github.com/reviewarcade/arcade/internal/actor"
	"github.com/reviewarcade/arcade/internal/question"
)

// ErrSessionFull and ErrNotAccepting are Join's error replies, spec §6.1's
// 409 "full" and 409 "not accepting" join failures.
var (
	ErrSessionFull   = errors.New("session: full")
	ErrNotAccepting  = errors.New("session: not accepting joins")
)

// HostConnect attaches a host connection. The session accepts at most one
// live host; a second HostConnect (reconnect) replaces the PID.
type HostConnect struct {
	ConnPID   *actor.PID
	TeacherID string
}

// PlayerConnect attaches a WebSocket to a player record already created by
// Join. DisplayName is only used as a fallback if, unexpectedly, no such
// player exists yet (it should not happen on the REST-then-WS flow spec
// §6.1/§6.2 describe, but a reconnect that races a slow Join reply is
// tolerated rather than rejected).
type PlayerConnect struct {
	ConnPID     *actor.PID
	PlayerID    string
	DisplayName string
}

// Join is the REST join handler's request to admit a new player, spec
// §6.1's POST /sessions/{code}/join, before any WebSocket exists. The
// Session Actor is the single writer for the players map, so it alone
// allocates the player_id and resolves display-name collisions — the HTTP
// layer only sanitizes the raw name first. Reply is JoinResult or one of
// ErrSessionFull / ErrNotAccepting.
type Join struct {
	DisplayName string
	IsTeacher   bool
}

// JoinResult is Join's successful reply payload.
type JoinResult struct {
	PlayerID    string
	DisplayName string
	JoinedAt    time.Time
}

// Disconnect notifies the session that a connection actor has gone away.
type Disconnect struct {
	ConnPID *actor.PID
	Role    string // "host" or "player"
}

// ClientEvent wraps a decoded client->server codec message with the
// identity of whoever sent it, so the Session Actor's handlers never touch
// the connection layer directly.
type ClientEvent struct {
	ConnPID  *actor.PID
	Role     string
	PlayerID string
	Message  interface{}
}

// Outbound is what the Session Actor sends to a connection actor's mailbox
// to push one server->client codec message out over the wire.
type Outbound struct {
	Msg interface{}
}

// Tick is posted to the session's own mailbox every second by its internal
// ticker goroutine, the same pattern GameActor's runTickerLoop uses for
// GameTick.
type Tick struct{}

// GetSnapshot asks for the current host_state/player_state view. Reply is
// Snapshot.
type GetSnapshot struct {
	// PlayerID, if set, narrows the reply to that player's own view in
	// addition to the host-wide snapshot.
	PlayerID string
}

// GetResults asks for the final leaderboard and awards, valid even after
// the session has ended and before the registry reaps it. Reply is
// Results or an error if the session hasn't ended yet.
type GetResults struct{}

// Config is the per-session configuration carried from POST /sessions,
// spec §4.1.
type Config struct {
	GameType         string
	TeacherMode      bool
	TimeLimitSeconds int
	MaxPlayers       int
	Source           question.Source

	// AnswerTimeout is spec §6.3's configurable answer validity window. Zero
	// means "use DefaultAnswerWindow" so hand-built Configs in tests don't
	// need to set it.
	AnswerTimeout time.Duration

	// RegistryPID, if set, receives registry.Ended{Code} when this session
	// reaches StatusEnded, so the registry can start its reap countdown.
	RegistryPID *actor.PID
}

// Snapshot is GetSnapshot's reply payload.
type Snapshot struct {
	Code             string
	Status           string
	GameType         string
	RemainingSeconds int
	Players          []PlayerView
	You              *PlayerView
}

// PlayerView is the per-player slice of state a snapshot exposes.
type PlayerView struct {
	PlayerID         string
	DisplayName      string
	Connected        bool
	Score            int
	CurrentStreak    int
	BestStreak       int
	StreakMultiplier float64
	ComebackCredits  int
}

// Results is GetResults' reply payload.
type Results struct {
	Code        string
	Leaderboard []LeaderboardEntry
	Stats       []PlayerStats
	Awards      []Award
	EndedAt     time.Time
}

// PlayerStats is one player's final per-session statistics, spec §3's
// Stats fields, for GET /sessions/{id}/results.
type PlayerStats struct {
	PlayerID          string
	DisplayName       string
	QuestionsAnswered int
	QuestionsCorrect  int
	AvgTimeMs         int64
}

// LeaderboardEntry is one dense-ranked row of the final or live leaderboard.
type LeaderboardEntry struct {
	Rank        int
	PlayerID    string
	DisplayName string
	IsTeacher   bool
	Score       int
	BestStreak  int
}

// Award is one entry of the end-of-session awards catalogue, spec §4.6.
type Award struct {
	Title       string
	PlayerID    string
	DisplayName string
	Value       int
}
