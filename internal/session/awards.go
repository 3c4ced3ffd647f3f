package session

import "github.com/reviewarcade/arcade/internal/codec"

// computeAwardsLocked derives the fixed end-of-session awards catalogue of
// spec §4.6: Top Score, Longest Streak, Most Improved, Quickest Mind (among
// players with at least 5 answered questions), and Comeback King. Ties are
// resolved by join order ascending. Must be called with s.mu held.
func (s *Session) computeAwardsLocked() []Award {
	if len(s.players) == 0 {
		return nil
	}

	players := make([]*player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p)
	}

	var awards []Award

	if best := pickBest(players, func(p *player) int { return p.scoring.TotalScore }); best != nil {
		awards = append(awards, newAward("Top Score", best, best.scoring.TotalScore))
	}

	if best := pickBest(players, func(p *player) int { return p.scoring.BestStreak }); best != nil {
		awards = append(awards, newAward("Longest Streak", best, best.scoring.BestStreak))
	}

	if best := pickBest(players, func(p *player) int {
		if !p.hasRun {
			return minInt
		}
		return p.lastRunScore - p.firstRunScore
	}); best != nil && best.hasRun {
		awards = append(awards, newAward("Most Improved", best, best.lastRunScore-best.firstRunScore))
	}

	if best := pickQuickest(players); best != nil {
		avg := int(best.totalTimeMs / int64(best.questionsAnswered))
		awards = append(awards, newAward("Quickest Mind", best, avg))
	}

	if best := pickBest(players, func(p *player) int { return creditRatioPermille(p) }); best != nil && best.creditsUsed > 0 {
		awards = append(awards, newAward("Comeback King", best, creditRatioPermille(best)))
	}

	return awards
}

// buildStatsLocked collects spec §3's per-player stats for the final
// results payload. Must be called with s.mu held.
func (s *Session) buildStatsLocked() []PlayerStats {
	out := make([]PlayerStats, 0, len(s.players))
	for _, p := range s.players {
		var avg int64
		if p.questionsAnswered > 0 {
			avg = p.totalTimeMs / int64(p.questionsAnswered)
		}
		out = append(out, PlayerStats{
			PlayerID:          p.id,
			DisplayName:       p.displayName,
			QuestionsAnswered: p.questionsAnswered,
			QuestionsCorrect:  p.questionsCorrect,
			AvgTimeMs:         avg,
		})
	}
	return out
}

const minInt = -1 << 62

// pickBest returns the player with the highest score(p), breaking ties by
// join order ascending. Returns nil if players is empty.
func pickBest(players []*player, score func(*player) int) *player {
	var best *player
	bestScore := minInt
	for _, p := range players {
		v := score(p)
		if best == nil || v > bestScore || (v == bestScore && p.joinOrder < best.joinOrder) {
			best, bestScore = p, v
		}
	}
	return best
}

// pickQuickest finds the lowest average answer time among players who have
// answered at least 5 questions, spec §4.6's qualifying threshold for
// Quickest Mind.
func pickQuickest(players []*player) *player {
	var best *player
	bestAvg := int64(1) << 62
	for _, p := range players {
		if p.questionsAnswered < 5 {
			continue
		}
		avg := p.totalTimeMs / int64(p.questionsAnswered)
		if best == nil || avg < bestAvg || (avg == bestAvg && p.joinOrder < best.joinOrder) {
			best, bestAvg = p, avg
		}
	}
	return best
}

// creditRatioPermille is comeback credits consumed per thousand questions
// answered, an integer stand-in for "highest ratio of credits used" that
// sorts identically to the real ratio without floating point.
func creditRatioPermille(p *player) int {
	if p.questionsAnswered == 0 {
		return 0
	}
	return (p.creditsUsed * 1000) / p.questionsAnswered
}

func newAward(name string, p *player, value int) Award {
	return Award{Title: name, PlayerID: p.id, DisplayName: p.displayName, Value: value}
}

func toCodecAwards(awards []Award) []codec.Award {
	out := make([]codec.Award, len(awards))
	for i, a := range awards {
		out[i] = codec.Award{Name: a.Title, PlayerID: a.PlayerID, DisplayName: a.DisplayName}
	}
	return out
}
