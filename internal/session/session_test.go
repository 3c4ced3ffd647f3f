package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewarcade/arcade/internal/actor"
	"github.com/reviewarcade/arcade/internal/codec"
	"github.com/reviewarcade/arcade/internal/question"
	"github.com/reviewarcade/arcade/internal/scoring"
)

// recorder is a mock connection actor: it appends every Outbound message it
// receives so a test can assert on what the Session Actor sent it, the same
// role lguibr-pongo/game/test_utils.go's LocalGameState plays for broadcast
// messages but simplified to this package's single-hop Outbound type.
type recorder struct {
	mu       sync.Mutex
	received []interface{}
}

func (r *recorder) Receive(ctx actor.Context) {
	if out, ok := ctx.Message().(Outbound); ok {
		r.mu.Lock()
		r.received = append(r.received, out.Msg)
		r.mu.Unlock()
	}
}

func (r *recorder) last() interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.received) == 0 {
		return nil
	}
	return r.received[len(r.received)-1]
}

func (r *recorder) all() []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]interface{}, len(r.received))
	copy(out, r.received)
	return out
}

func spawnRecorder(t *testing.T, engine *actor.Engine) (*actor.PID, *recorder) {
	t.Helper()
	rec := &recorder{}
	pid := engine.Spawn(actor.NewProps(func() actor.Actor { return rec }))
	return pid, rec
}

func singleCorrectQuestionSource(correctIndex int) question.Source {
	return stubSource{correctIndex: correctIndex}
}

type stubSource struct{ correctIndex int }

func (s stubSource) Next(seen []string) (question.Question, error) {
	return question.Question{
		QuestionID:   "q1",
		Text:         "2 + 2 = ?",
		Options:      [4]string{"3", "4", "5", "6"},
		CorrectIndex: s.correctIndex,
	}, nil
}

func newTestSession(t *testing.T, cfg Config) (*actor.Engine, *actor.PID) {
	t.Helper()
	engine := actor.NewEngine()
	pid := engine.Spawn(actor.NewProps(NewProducer("ABCD12", cfg, engine, nil)))
	return engine, pid
}

func settle() { time.Sleep(20 * time.Millisecond) }

func TestSession_HostConnectReceivesHostState(t *testing.T) {
	cfg := Config{GameType: "platformer", TimeLimitSeconds: 300, MaxPlayers: 10, Source: singleCorrectQuestionSource(1)}
	engine, sessionPID := newTestSession(t, cfg)
	hostPID, hostRec := spawnRecorder(t, engine)

	engine.Send(sessionPID, HostConnect{ConnPID: hostPID, TeacherID: "t1"}, nil)
	settle()

	msg := hostRec.last()
	require.NotNil(t, msg)
	hs, ok := msg.(*codec.HostState)
	require.True(t, ok)
	assert.Equal(t, "ABCD12", hs.SessionCode)
	assert.Equal(t, string(StatusLobby), hs.Status)
}

func TestSession_PlayerJoinThenStartThenDeathThenCorrectAnswer(t *testing.T) {
	cfg := Config{GameType: "platformer", TimeLimitSeconds: 300, MaxPlayers: 10, Source: singleCorrectQuestionSource(1)}
	engine, sessionPID := newTestSession(t, cfg)
	hostPID, _ := spawnRecorder(t, engine)
	playerPID, playerRec := spawnRecorder(t, engine)

	engine.Send(sessionPID, HostConnect{ConnPID: hostPID}, nil)
	engine.Send(sessionPID, PlayerConnect{ConnPID: playerPID, PlayerID: "p1", DisplayName: "Ada"}, nil)
	settle()

	engine.Send(sessionPID, ClientEvent{ConnPID: hostPID, Role: "host", Message: &codec.StartSession{Type: "start_session"}}, nil)
	settle()

	engine.Send(sessionPID, ClientEvent{ConnPID: playerPID, Role: "player", PlayerID: "p1", Message: &codec.Death{Type: "death", Score: 100}}, nil)
	settle()

	q, ok := playerRec.last().(*codec.QuestionMsg)
	require.True(t, ok, "expected a question message, got %T", playerRec.last())
	assert.Equal(t, "q1", q.QuestionID)

	engine.Send(sessionPID, ClientEvent{ConnPID: playerPID, Role: "player", PlayerID: "p1", Message: &codec.Answer{Type: "answer", QuestionID: "q1", AnswerIndex: 1, TimeMs: 1200}}, nil)
	settle()

	// A correct answer changes the score, so answer_correct is followed by a
	// leaderboard_update to every connected player.
	msgs := playerRec.all()
	require.GreaterOrEqual(t, len(msgs), 2)
	ac, ok := msgs[len(msgs)-2].(*codec.AnswerCorrect)
	require.True(t, ok, "expected answer_correct, got %T", msgs[len(msgs)-2])
	_, ok = msgs[len(msgs)-1].(*codec.LeaderboardUpdate)
	require.True(t, ok, "expected leaderboard_update, got %T", msgs[len(msgs)-1])
	assert.Equal(t, 100, ac.BonusEarned)
	assert.Equal(t, 100, ac.TotalScore)
	assert.Equal(t, 1, ac.CurrentStreak)
}

func TestSession_DuplicateDeathWhilePendingIsRejected(t *testing.T) {
	cfg := Config{GameType: "platformer", TimeLimitSeconds: 300, MaxPlayers: 10, Source: singleCorrectQuestionSource(1)}
	engine, sessionPID := newTestSession(t, cfg)
	hostPID, _ := spawnRecorder(t, engine)
	playerPID, playerRec := spawnRecorder(t, engine)

	engine.Send(sessionPID, HostConnect{ConnPID: hostPID}, nil)
	engine.Send(sessionPID, PlayerConnect{ConnPID: playerPID, PlayerID: "p1"}, nil)
	engine.Send(sessionPID, ClientEvent{ConnPID: hostPID, Role: "host", Message: &codec.StartSession{}}, nil)
	settle()

	engine.Send(sessionPID, ClientEvent{ConnPID: playerPID, Role: "player", PlayerID: "p1", Message: &codec.Death{Score: 50}}, nil)
	settle()
	engine.Send(sessionPID, ClientEvent{ConnPID: playerPID, Role: "player", PlayerID: "p1", Message: &codec.Death{Score: 50}}, nil)
	settle()

	errMsg, ok := playerRec.last().(*codec.ErrorMsg)
	require.True(t, ok, "expected error, got %T", playerRec.last())
	assert.Equal(t, "pending_question", errMsg.Message)
}

func TestSession_WrongAnswerResetsStreakAndAllowsNewQuestion(t *testing.T) {
	cfg := Config{GameType: "platformer", TimeLimitSeconds: 300, MaxPlayers: 10, Source: singleCorrectQuestionSource(1)}
	engine, sessionPID := newTestSession(t, cfg)
	hostPID, _ := spawnRecorder(t, engine)
	playerPID, playerRec := spawnRecorder(t, engine)

	engine.Send(sessionPID, HostConnect{ConnPID: hostPID}, nil)
	engine.Send(sessionPID, PlayerConnect{ConnPID: playerPID, PlayerID: "p1"}, nil)
	engine.Send(sessionPID, ClientEvent{ConnPID: hostPID, Role: "host", Message: &codec.StartSession{}}, nil)
	settle()

	engine.Send(sessionPID, ClientEvent{ConnPID: playerPID, Role: "player", PlayerID: "p1", Message: &codec.Death{Score: 40}}, nil)
	settle()
	engine.Send(sessionPID, ClientEvent{ConnPID: playerPID, Role: "player", PlayerID: "p1", Message: &codec.Answer{QuestionID: "q1", AnswerIndex: 0, TimeMs: 500}}, nil)
	settle()

	aw, ok := playerRec.last().(*codec.AnswerWrong)
	require.True(t, ok, "expected answer_wrong, got %T", playerRec.last())
	assert.Equal(t, 1, aw.CorrectIndex)
	assert.False(t, aw.Respawn)

	// Next death should issue a fresh question rather than stay pending-locked.
	engine.Send(sessionPID, ClientEvent{ConnPID: playerPID, Role: "player", PlayerID: "p1", Message: &codec.Death{Score: 10}}, nil)
	settle()
	_, ok = playerRec.last().(*codec.QuestionMsg)
	assert.True(t, ok)
}

func TestSession_AnswerForStaleQuestionReturnsExpiredError(t *testing.T) {
	cfg := Config{GameType: "platformer", TimeLimitSeconds: 300, MaxPlayers: 10, Source: singleCorrectQuestionSource(1)}
	engine, sessionPID := newTestSession(t, cfg)
	hostPID, _ := spawnRecorder(t, engine)
	playerPID, playerRec := spawnRecorder(t, engine)

	engine.Send(sessionPID, HostConnect{ConnPID: hostPID}, nil)
	engine.Send(sessionPID, PlayerConnect{ConnPID: playerPID, PlayerID: "p1"}, nil)
	engine.Send(sessionPID, ClientEvent{ConnPID: hostPID, Role: "host", Message: &codec.StartSession{}}, nil)
	settle()

	engine.Send(sessionPID, ClientEvent{ConnPID: playerPID, Role: "player", PlayerID: "p1", Message: &codec.Death{Score: 40}}, nil)
	settle()

	// Wrong question_id simulates a stale/expired answer without waiting 120s.
	engine.Send(sessionPID, ClientEvent{ConnPID: playerPID, Role: "player", PlayerID: "p1", Message: &codec.Answer{QuestionID: "stale", AnswerIndex: 1, TimeMs: 100}}, nil)
	settle()

	errMsg, ok := playerRec.last().(*codec.ErrorMsg)
	require.True(t, ok)
	assert.Equal(t, "expired", errMsg.Message)
}

func TestSession_EndSessionComputesAwardsAndBroadcasts(t *testing.T) {
	cfg := Config{GameType: "platformer", TimeLimitSeconds: 300, MaxPlayers: 10, Source: singleCorrectQuestionSource(1)}
	engine, sessionPID := newTestSession(t, cfg)
	hostPID, hostRec := spawnRecorder(t, engine)
	playerPID, _ := spawnRecorder(t, engine)

	engine.Send(sessionPID, HostConnect{ConnPID: hostPID}, nil)
	engine.Send(sessionPID, PlayerConnect{ConnPID: playerPID, PlayerID: "p1", DisplayName: "Ada"}, nil)
	engine.Send(sessionPID, ClientEvent{ConnPID: hostPID, Role: "host", Message: &codec.StartSession{}}, nil)
	settle()

	engine.Send(sessionPID, ClientEvent{ConnPID: hostPID, Role: "host", Message: &codec.EndSession{}}, nil)
	settle()

	ended, ok := hostRec.last().(*codec.SessionEnded)
	require.True(t, ok, "expected session_ended, got %T", hostRec.last())
	require.Len(t, ended.FinalLeaderboard, 1)
	assert.Equal(t, "p1", ended.FinalLeaderboard[0].PlayerID)
	assert.Equal(t, 1, ended.FinalLeaderboard[0].Rank)

	results, err := engine.Ask(sessionPID, GetResults{}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ABCD12", results.(Results).Code)
}

func TestSession_LeaderboardDenseRankBreaksTiesByStreakThenJoinOrder(t *testing.T) {
	s := &Session{
		players: map[string]*player{
			"p1": {id: "p1", displayName: "Alice", joinOrder: 1, scoring: scoring.State{TotalScore: 100, BestStreak: 3}},
			"p2": {id: "p2", displayName: "Bob", joinOrder: 2, scoring: scoring.State{TotalScore: 100, BestStreak: 3}},
			"p3": {id: "p3", displayName: "Cara", joinOrder: 3, scoring: scoring.State{TotalScore: 100, BestStreak: 5}},
			"p4": {id: "p4", displayName: "Dan", joinOrder: 4, scoring: scoring.State{TotalScore: 50, BestStreak: 10}},
		},
	}

	entries := s.leaderboardLocked()
	require.Len(t, entries, 4)

	// p3 ties p1/p2 on score but has a higher best streak, so it ranks
	// first despite joining last.
	assert.Equal(t, "p3", entries[0].PlayerID)
	assert.Equal(t, 1, entries[0].Rank)

	// p1 and p2 are tied on both score and streak; join order breaks the
	// tie, and dense ranking gives them the same rank.
	assert.Equal(t, "p1", entries[1].PlayerID)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, "p2", entries[2].PlayerID)
	assert.Equal(t, 2, entries[2].Rank)

	// p4 has the highest streak of all but the lowest score, so score
	// still outranks streak when they disagree.
	assert.Equal(t, "p4", entries[3].PlayerID)
	assert.Equal(t, 3, entries[3].Rank)
}
