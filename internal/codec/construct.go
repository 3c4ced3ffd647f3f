package codec

// Constructors for every server->client message. Stamping the type tag here,
// rather than at each call site, keeps the tagged union's tags in exactly
// one place.

func NewHostState(code, status, gameType string, players []PlayerSnapshot, remaining int) *HostState {
	return &HostState{Type: "host_state", SessionCode: code, Status: status, GameType: gameType, Players: players, RemainingSeconds: remaining}
}

func NewPlayerState(p PlayerState) *PlayerState {
	p.Type = "player_state"
	return &p
}

func NewPlayerConnected(playerID, displayName string, count int) *PlayerConnected {
	return &PlayerConnected{Type: "player_connected", PlayerID: playerID, DisplayName: displayName, PlayerCount: count}
}

func NewPlayerDisconnected(playerID string, count int) *PlayerDisconnected {
	return &PlayerDisconnected{Type: "player_disconnected", PlayerID: playerID, PlayerCount: count}
}

func NewSessionStarted(gameType string, timeLimitSeconds int) *SessionStarted {
	return &SessionStarted{Type: "session_started", GameType: gameType, TimeLimitSeconds: timeLimitSeconds}
}

func NewSessionPaused() *SessionPaused {
	return &SessionPaused{Type: "session_paused"}
}

func NewSessionResumed(remainingSeconds int) *SessionResumed {
	return &SessionResumed{Type: "session_resumed", RemainingSeconds: remainingSeconds}
}

func NewSessionEnded(leaderboard []LeaderboardEntry, awards []Award) *SessionEnded {
	return &SessionEnded{Type: "session_ended", FinalLeaderboard: leaderboard, Awards: awards}
}

func NewQuestion(q Question) *QuestionMsg {
	return &QuestionMsg{Type: "question", QuestionID: q.QuestionID, Text: q.Text, Options: q.Options, Category: q.Category, Difficulty: q.Difficulty}
}

func NewAnswerCorrect(bonus, total, streak int, multiplier float64, credits, comebackStart int, respawn bool) *AnswerCorrect {
	return &AnswerCorrect{
		Type: "answer_correct", BonusEarned: bonus, TotalScore: total, CurrentStreak: streak,
		StreakMultiplier: multiplier, ComebackCredits: credits, ComebackStartScore: comebackStart, Respawn: respawn,
	}
}

func NewAnswerWrong(correctIndex int, respawn bool) *AnswerWrong {
	return &AnswerWrong{Type: "answer_wrong", CorrectIndex: correctIndex, Respawn: respawn}
}

func NewLeaderboardUpdate(top []LeaderboardEntry, yourRank, yourScore int) *LeaderboardUpdate {
	return &LeaderboardUpdate{Type: "leaderboard_update", Top: top, YourRank: yourRank, YourScore: yourScore}
}

func NewLiveEvent(playerID string, event map[string]any) *LiveEvent {
	return &LiveEvent{Type: "live_event", PlayerID: playerID, Event: event}
}

func NewPlayerScoreUpdate(playerID string, score int) *PlayerScoreUpdate {
	return &PlayerScoreUpdate{Type: "player_score_update", PlayerID: playerID, Score: score}
}

func NewPing(t int64) *Ping {
	return &Ping{Type: "ping", T: t}
}

func NewError(message string) *ErrorMsg {
	return &ErrorMsg{Type: "error", Message: message}
}
