// Package question implements the two question sources of spec §4.3: a
// math generator and a fixed-bank sampler. Both satisfy the same Source
// interface so the Session Actor never needs to know which one backs a
// given session.
package question

// Question mirrors spec §3's Question entity. CorrectIndex stays server
// side — codec.Question (the wire type sent to players) never carries it.
type Question struct {
	QuestionID   string
	Text         string
	Options      [4]string
	CorrectIndex int
	Category     string
	Difficulty   string
}

// Source produces the next question for a player, guaranteeing no repeats
// within a session per spec invariant 5, until the source is exhausted —
// at which point it falls back to least-recently-used reuse.
type Source interface {
	// Next returns a question not yet served to seen, or the
	// least-recently-served one if every question has been served already.
	Next(seen []string) (Question, error)
}
