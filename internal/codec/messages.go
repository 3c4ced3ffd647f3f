// Package codec defines the tagged JSON wire messages exchanged over a
// session's WebSocket, in both directions, and validates them against the
// schemas in spec §6.2 before anything downstream sees them.
package codec

// Question is the wire representation of a question offered to a player.
// It has no correct-index field: the correct index travels only in the
// answer_wrong payload (AnswerWrong.CorrectIndex), after the player has
// already answered.
type Question struct {
	QuestionID string   `json:"question_id"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
	Category   string   `json:"category,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
}

// --- Client -> Server ---

type Init struct {
	Type        string `json:"type"`
	Role        string `json:"role"` // "host" or "player"
	TeacherAuth string `json:"teacher_auth,omitempty"`
	PlayerToken string `json:"player_token,omitempty"`
	PlayerID    string `json:"player_id,omitempty"`
}

type Death struct {
	Type     string         `json:"type"`
	Score    int            `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type Answer struct {
	Type         string `json:"type"`
	QuestionID   string `json:"question_id"`
	AnswerIndex  int    `json:"answer_index"`
	TimeMs       int    `json:"time_ms"`
}

type ScoreUpdate struct {
	Type  string `json:"type"`
	Score int    `json:"score"`
}

type SpecialEvent struct {
	Type  string         `json:"type"`
	Event map[string]any `json:"event"`
}

type StartSession struct {
	Type string `json:"type"`
}

type PauseSession struct {
	Type string `json:"type"`
}

type ResumeSession struct {
	Type string `json:"type"`
}

type EndSession struct {
	Type string `json:"type"`
}

type Pong struct {
	Type string `json:"type"`
}

// --- Server -> Client ---

type HostState struct {
	Type            string           `json:"type"`
	SessionCode     string           `json:"session_code"`
	Status          string           `json:"status"`
	GameType        string           `json:"game_type"`
	Players         []PlayerSnapshot `json:"players"`
	RemainingSeconds int             `json:"remaining_seconds,omitempty"`
}

type PlayerState struct {
	Type             string `json:"type"`
	PlayerID         string `json:"player_id"`
	DisplayName      string `json:"display_name"`
	SessionCode      string `json:"session_code"`
	Status           string `json:"status"`
	TotalScore       int    `json:"total_score"`
	CurrentStreak    int    `json:"current_streak"`
	StreakMultiplier float64 `json:"streak_multiplier"`
	ComebackCredits  int    `json:"comeback_credits"`
	PendingQuestion  *Question `json:"pending_question,omitempty"`
}

type PlayerSnapshot struct {
	PlayerID      string `json:"player_id"`
	DisplayName   string `json:"display_name"`
	IsTeacher     bool   `json:"is_teacher"`
	Connected     bool   `json:"connected"`
	TotalScore    int    `json:"total_score"`
	CurrentStreak int    `json:"current_streak"`
	BestStreak    int    `json:"best_streak"`
}

type PlayerConnected struct {
	Type        string `json:"type"`
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	PlayerCount int    `json:"player_count"`
}

type PlayerDisconnected struct {
	Type        string `json:"type"`
	PlayerID    string `json:"player_id"`
	PlayerCount int    `json:"player_count"`
}

type SessionStarted struct {
	Type             string `json:"type"`
	GameType         string `json:"game_type"`
	TimeLimitSeconds int    `json:"time_limit_seconds"`
}

type SessionPaused struct {
	Type string `json:"type"`
}

type SessionResumed struct {
	Type             string `json:"type"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	IsTeacher   bool   `json:"is_teacher"`
	TotalScore  int    `json:"total_score"`
	BestStreak  int    `json:"best_streak"`
}

type Award struct {
	Name        string `json:"name"`
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Detail      string `json:"detail,omitempty"`
}

type SessionEnded struct {
	Type             string             `json:"type"`
	FinalLeaderboard []LeaderboardEntry `json:"final_leaderboard"`
	Awards           []Award            `json:"awards"`
}

type QuestionMsg struct {
	Type       string `json:"type"`
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
	Options    []string `json:"options"`
	Category   string `json:"category,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

type AnswerCorrect struct {
	Type              string  `json:"type"`
	BonusEarned       int     `json:"bonus_earned"`
	TotalScore        int     `json:"total_score"`
	CurrentStreak     int     `json:"current_streak"`
	StreakMultiplier  float64 `json:"streak_multiplier"`
	ComebackCredits   int     `json:"comeback_credits"`
	ComebackStartScore int    `json:"comeback_start_score"`
	Respawn           bool    `json:"respawn"`
}

type AnswerWrong struct {
	Type         string `json:"type"`
	CorrectIndex int    `json:"correct_index"`
	Respawn      bool   `json:"respawn"`
}

type LeaderboardUpdate struct {
	Type      string             `json:"type"`
	Top       []LeaderboardEntry `json:"top"`
	YourRank  int                `json:"your_rank,omitempty"`
	YourScore int                `json:"your_score,omitempty"`
}

type LiveEvent struct {
	Type     string         `json:"type"`
	PlayerID string         `json:"player_id"`
	Event    map[string]any `json:"event"`
}

type PlayerScoreUpdate struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
	Score    int    `json:"score"`
}

type Ping struct {
	Type string `json:"type"`
	T    int64  `json:"t"`
}

type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
