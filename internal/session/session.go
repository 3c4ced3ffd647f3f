package session

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reviewarcade/arcade/internal/actor"
	"github.com/reviewarcade/arcade/internal/scoring"
)

// Status is the session lifecycle state of spec §4.2.
type Status string

const (
	StatusLobby   Status = "lobby"
	StatusActive  Status = "active"
	StatusPaused  Status = "paused"
	StatusEnded   Status = "ended"
)

// DefaultAnswerWindow is how long a player has to answer a served question
// before it expires, spec §4.5's 120 s answer validity window, used when a
// Config doesn't set AnswerTimeout (e.g. in tests built by hand).
const DefaultAnswerWindow = 120 * time.Second

// answerTimeout returns cfg.AnswerTimeout, falling back to
// DefaultAnswerWindow when unset.
func (s *Session) answerTimeout() time.Duration {
	if s.cfg.AnswerTimeout > 0 {
		return s.cfg.AnswerTimeout
	}
	return DefaultAnswerWindow
}

// player is the full server-side record for one joined player: identity,
// connection, scoring state, and question history. Its fields are
// unexported and read by leaderboard.go and awards.go; nothing outside this
// package ever sees it directly (Snapshot/LeaderboardEntry are the public
// views).
type player struct {
	id          string
	displayName string
	isTeacher   bool
	connPID     *actor.PID
	connected   bool
	joinOrder   int

	scoring scoring.State

	pendingQuestionID string
	questionIssuedAt  time.Time
	seenQuestionIDs   []string

	questionsAnswered int
	questionsCorrect  int
	totalTimeMs       int64

	firstRunScore int // effective_score of this player's first death, for Most Improved
	lastRunScore  int // effective_score of this player's most recent death
	hasRun        bool
	creditsUsed   int // comeback credits consumed across all deaths, for Comeback King
}

// pendingAnswer is the server-side-only half of a served question.
type pendingAnswer struct {
	questionID         string
	correctIndex       int
	comebackStartScore int
}

// ResultsArchiver persists a session's final results at EndSession, spec
// §1's store component. Implemented by internal/store against Redis; a nil
// ResultsArchiver is valid and simply skips persistence (useful in tests).
type ResultsArchiver interface {
	Archive(code string, results Results) error
}

// Session is the Session Actor: the single writer for one session's state.
type Session struct {
	code   string
	cfg    Config
	engine *actor.Engine
	store  ResultsArchiver
	self   *actor.PID

	mu sync.Mutex

	status       Status
	hostPID      *actor.PID
	hostTeacher  string
	players      map[string]*player
	joinSeq      int

	// pendingAnswers holds the correct_index for each player's currently
	// outstanding question — kept off the player struct and out of any
	// snapshot so it never leaks to a client.
	pendingAnswers map[string]pendingAnswer

	timerEndWall     time.Time
	remainingAtPause time.Duration

	createdAt time.Time
	endedAt   time.Time

	results *Results // set once, at EndSession

	stopTick chan struct{}
}

// NewProducer builds the Producer for a single session. Each session gets
// its own actor instance; the registry maps session codes to the PID this
// produces.
func NewProducer(code string, cfg Config, engine *actor.Engine, store ResultsArchiver) actor.Producer {
	return func() actor.Actor {
		return &Session{
			code:      code,
			cfg:       cfg,
			engine:    engine,
			store:     store,
			status:         StatusLobby,
			players:        make(map[string]*player),
			pendingAnswers: make(map[string]pendingAnswer),
			createdAt:      time.Now(),
			stopTick:       make(chan struct{}),
		}
	}
}

func (s *Session) Receive(ctx actor.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("session", s.code).Interface("panic", r).Str("stack", string(debug.Stack())).Msg("session actor panic")
			if ctx.RequestID() != "" {
				ctx.Reply(fmt.Errorf("session: panic: %v", r))
			}
		}
	}()

	if s.self == nil {
		s.self = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case actor.Started:
		go s.runTicker()

	case HostConnect:
		s.handleHostConnect(ctx, msg)

	case Join:
		s.handleJoin(ctx, msg)

	case PlayerConnect:
		s.handlePlayerConnect(ctx, msg)

	case Disconnect:
		s.handleDisconnect(ctx, msg)

	case ClientEvent:
		s.handleClientEvent(ctx, msg)

	case Tick:
		s.handleTick(ctx)

	case GetSnapshot:
		ctx.Reply(s.buildSnapshot(msg.PlayerID))

	case GetResults:
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.results == nil {
			ctx.Reply(fmt.Errorf("session: %s has not ended", s.code))
			return
		}
		ctx.Reply(*s.results)

	case actor.Stopping:
		close(s.stopTick)

	default:
		log.Warn().Str("session", s.code).Str("type", fmt.Sprintf("%T", msg)).Msg("session actor: unknown message")
		if ctx.RequestID() != "" {
			ctx.Reply(fmt.Errorf("session: unknown message type %T", msg))
		}
	}
}

// runTicker posts Tick to this actor's own mailbox once a second, the same
// self-ticking pattern GameActor.runTickerLoop uses for GameTick.
func (s *Session) runTicker() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopTick:
			return
		case <-ticker.C:
			s.engine.Send(s.self, Tick{}, nil)
		}
	}
}

// buildSnapshot acquires the lock and returns the current host/player view,
// used both by GetSnapshot and right after a player joins.
func (s *Session) buildSnapshot(playerID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildSnapshotLocked(playerID)
}

func (s *Session) buildSnapshotLocked(playerID string) Snapshot {
	views := make([]PlayerView, 0, len(s.players))
	for _, p := range s.players {
		views = append(views, s.playerViewLocked(p))
	}

	snap := Snapshot{
		Code:             s.code,
		Status:           string(s.status),
		GameType:         s.cfg.GameType,
		RemainingSeconds: s.remainingSecondsLocked(),
		Players:          views,
	}
	if p, ok := s.players[playerID]; ok {
		v := s.playerViewLocked(p)
		snap.You = &v
	}
	return snap
}

func (s *Session) playerViewLocked(p *player) PlayerView {
	return PlayerView{
		PlayerID:         p.id,
		DisplayName:      p.displayName,
		Connected:        p.connected,
		Score:            p.scoring.TotalScore,
		CurrentStreak:    p.scoring.CurrentStreak,
		BestStreak:       p.scoring.BestStreak,
		StreakMultiplier: p.scoring.StreakMultiplier,
		ComebackCredits:  p.scoring.ComebackCredits,
	}
}

// sendTo is a small helper every handler uses to push a server->client
// message to one connection actor's outbound queue. internal/connection
// imports session and switches on Outbound to pick it up.
func (s *Session) sendTo(connPID *actor.PID, msg interface{}) {
	if connPID == nil {
		return
	}
	s.engine.Send(connPID, Outbound{Msg: msg}, s.self)
}
