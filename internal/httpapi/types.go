package httpapi

import "time"

// validGameTypes is spec §3's "one of ten fixed tags". The tags themselves
// are an external (browser game engine) concern per spec §1 — this list
// only needs to be closed and stable, not semantically meaningful here.
var validGameTypes = map[string]bool{
	"platformer": true, "shooter": true, "runner": true, "puzzle": true,
	"racer": true, "breakout": true, "tower_defense": true, "maze": true,
	"rhythm": true, "survival": true,
}

// createSessionRequest is POST /sessions' body, spec §6.1.
type createSessionRequest struct {
	GameType         string          `json:"game_type"`
	TeacherMode      string          `json:"teacher_mode"` // "monitor" | "play"
	TimeLimitMinutes int             `json:"time_limit_minutes"`
	MaxPlayers       int             `json:"max_players"`
	QuestionSource   string          `json:"question_source"` // "math" | "bank"
	QuestionConfig   *mathConfigJSON `json:"question_config,omitempty"`
	QuestionBankIDs  []string        `json:"question_bank_ids,omitempty"`
}

type mathConfigJSON struct {
	Operations []string `json:"operations"`
	Min        int      `json:"min"`
	Max        int      `json:"max"`
}

// sessionResponse is what POST /sessions and the directory listing return.
type sessionResponse struct {
	Code             string    `json:"code"`
	GameType         string    `json:"game_type"`
	TeacherMode      string    `json:"teacher_mode"`
	Status           string    `json:"status"`
	TimeLimitSeconds int       `json:"time_limit_seconds"`
	MaxPlayers       int       `json:"max_players"`
	CreatedAt        time.Time `json:"created_at"`
}

// sessionPreviewResponse is GET /sessions/{code}'s public body.
type sessionPreviewResponse struct {
	Code        string `json:"code"`
	Status      string `json:"status"`
	GameType    string `json:"game_type"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
}

// joinRequest is POST /sessions/{code}/join's body.
type joinRequest struct {
	Name string `json:"name"`
}

// playerResponse is the join endpoints' success body.
type playerResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	SessionCode string    `json:"session_code"`
	PlayerToken string    `json:"player_token"`
	IsTeacher   bool      `json:"is_teacher"`
	JoinedAt    time.Time `json:"joined_at"`
}

// resultsResponse is GET /sessions/{code}/results' body.
type resultsResponse struct {
	Code        string               `json:"code"`
	Leaderboard []leaderboardRowJSON `json:"leaderboard"`
	Stats       []playerStatsJSON    `json:"stats"`
	Awards      []awardJSON          `json:"awards"`
	EndedAt     time.Time            `json:"ended_at"`
}

type leaderboardRowJSON struct {
	Rank        int    `json:"rank"`
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	IsTeacher   bool   `json:"is_teacher"`
	TotalScore  int    `json:"total_score"`
	BestStreak  int    `json:"best_streak"`
}

type playerStatsJSON struct {
	PlayerID          string `json:"player_id"`
	DisplayName       string `json:"display_name"`
	QuestionsAnswered int    `json:"questions_answered"`
	QuestionsCorrect  int    `json:"questions_correct"`
	AvgTimeMs         int64  `json:"avg_time_ms"`
}

type awardJSON struct {
	Name        string `json:"name"`
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Value       int    `json:"value"`
}
