package session

import (
	"time"

	"github.com/reviewarcade/arcade/internal/actor"
	"github.com/reviewarcade/arcade/internal/codec"
	"github.com/reviewarcade/arcade/internal/scoring"
)

// handleClientEvent dispatches a decoded client->server message to the
// right handler. Role/PlayerID were already established at init time by
// the connection actor; the Session Actor trusts them as given.
func (s *Session) handleClientEvent(ctx actor.Context, evt ClientEvent) {
	switch m := evt.Message.(type) {
	case *codec.Death:
		s.handleDeath(ctx, evt.PlayerID, m)
	case *codec.Answer:
		s.handleAnswer(ctx, evt.PlayerID, m)
	case *codec.ScoreUpdate:
		s.handleScoreUpdate(evt.PlayerID, m)
	case *codec.SpecialEvent:
		s.handleSpecialEvent(evt.PlayerID, m)
	case *codec.StartSession:
		if evt.Role == "host" {
			s.startSession(ctx)
		}
	case *codec.PauseSession:
		if evt.Role == "host" {
			s.pauseSession(ctx)
		}
	case *codec.ResumeSession:
		if evt.Role == "host" {
			s.resumeSession(ctx)
		}
	case *codec.EndSession:
		if evt.Role == "host" {
			s.endSession(ctx)
		}
	}
}

// handleDeath applies spec §4.4's death event and issues the player's next
// question, rejecting a duplicate death while one is already pending (spec
// invariant 9's idempotence requirement). A pending question whose answer
// window has passed no longer blocks a death; its run is forfeited.
func (s *Session) handleDeath(ctx actor.Context, playerID string, msg *codec.Death) {
	s.mu.Lock()
	p, ok := s.players[playerID]
	if !ok || s.status != StatusActive {
		s.mu.Unlock()
		s.sendTo(s.connPIDFor(playerID), codec.NewError("not_accepting"))
		return
	}
	if p.scoring.Pending && time.Since(p.questionIssuedAt) <= s.answerTimeout() {
		s.mu.Unlock()
		s.sendTo(p.connPID, codec.NewError("pending_question"))
		return
	}

	next, result := scoring.Death(p.scoring, msg.Score)
	p.scoring = next

	if !p.hasRun {
		p.firstRunScore = result.EffectiveScore
		p.hasRun = true
	}
	p.lastRunScore = result.EffectiveScore
	if result.CreditConsumed {
		p.creditsUsed++
	}

	q, err := s.cfg.Source.Next(p.seenQuestionIDs)
	if err != nil {
		s.mu.Unlock()
		s.sendTo(p.connPID, codec.NewError("internal"))
		return
	}
	p.pendingQuestionID = q.QuestionID
	p.questionIssuedAt = time.Now()
	p.seenQuestionIDs = append(p.seenQuestionIDs, q.QuestionID)
	s.pendingAnswers[playerID] = pendingAnswer{
		questionID:         q.QuestionID,
		correctIndex:       q.CorrectIndex,
		comebackStartScore: result.ComebackStartScore,
	}
	connPID := p.connPID
	s.mu.Unlock()

	s.sendTo(connPID, codec.NewQuestion(codec.Question{
		QuestionID: q.QuestionID,
		Text:       q.Text,
		Options:    q.Options[:],
		Category:   q.Category,
		Difficulty: q.Difficulty,
	}))
}

// handleAnswer validates and applies spec §4.4/§4.5's answer event: the
// question_id must match the player's pending one and arrive within the
// 120 s answer window, or the server replies error{"expired"} and leaves
// pending state untouched until the player's next death. A correct answer
// is followed by a leaderboard broadcast; a wrong one changes no score and
// sends none.
func (s *Session) handleAnswer(ctx actor.Context, playerID string, msg *codec.Answer) {
	s.mu.Lock()
	p, ok := s.players[playerID]
	if !ok {
		s.mu.Unlock()
		return
	}

	pending, exists := s.pendingAnswers[playerID]
	expired := !exists || pending.questionID != msg.QuestionID || time.Since(p.questionIssuedAt) > s.answerTimeout()
	if expired {
		connPID := p.connPID
		s.mu.Unlock()
		s.sendTo(connPID, codec.NewError("expired"))
		return
	}

	delete(s.pendingAnswers, playerID)
	p.questionsAnswered++
	p.totalTimeMs += int64(msg.TimeMs)
	correctIndex := pending.correctIndex
	comebackStartScore := pending.comebackStartScore
	connPID := p.connPID
	correct := msg.AnswerIndex == correctIndex

	if correct {
		p.questionsCorrect++
		next, result := scoring.AnswerCorrect(p.scoring)
		p.scoring = next
		s.mu.Unlock()

		s.sendTo(connPID, codec.NewAnswerCorrect(
			result.BonusEarned, p.scoring.TotalScore, p.scoring.CurrentStreak,
			p.scoring.StreakMultiplier, p.scoring.ComebackCredits, comebackStartScore, true,
		))
		s.broadcastLeaderboard()
	} else {
		p.scoring = scoring.AnswerWrong(p.scoring)
		s.mu.Unlock()

		s.sendTo(connPID, codec.NewAnswerWrong(correctIndex, false))
	}
}

func (s *Session) handleScoreUpdate(playerID string, msg *codec.ScoreUpdate) {
	s.mu.Lock()
	host := s.hostPID
	_, ok := s.players[playerID]
	s.mu.Unlock()
	if !ok {
		return
	}
	s.sendTo(host, codec.NewPlayerScoreUpdate(playerID, msg.Score))
}

func (s *Session) handleSpecialEvent(playerID string, msg *codec.SpecialEvent) {
	s.mu.Lock()
	host := s.hostPID
	_, ok := s.players[playerID]
	s.mu.Unlock()
	if !ok {
		return
	}
	s.sendTo(host, codec.NewLiveEvent(playerID, msg.Event))
}

func (s *Session) connPIDFor(playerID string) *actor.PID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[playerID]; ok {
		return p.connPID
	}
	return nil
}
