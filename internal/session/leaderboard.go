package session

import (
	"sort"

	"github.com/reviewarcade/arcade/internal/actor"
	"github.com/reviewarcade/arcade/internal/codec"
)

// leaderboardLocked computes the dense-ranked leaderboard of spec §4.6:
// ranked by total_score descending, ties broken by best_streak descending,
// then join order ascending. Must be called with s.mu held.
func (s *Session) leaderboardLocked() []LeaderboardEntry {
	players := make([]*player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p)
	}

	sort.Slice(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if a.scoring.TotalScore != b.scoring.TotalScore {
			return a.scoring.TotalScore > b.scoring.TotalScore
		}
		if a.scoring.BestStreak != b.scoring.BestStreak {
			return a.scoring.BestStreak > b.scoring.BestStreak
		}
		return a.joinOrder < b.joinOrder
	})

	entries := make([]LeaderboardEntry, len(players))
	rank := 0
	var prevScore, prevStreak int
	havePrev := false
	for i, p := range players {
		if !havePrev || p.scoring.TotalScore != prevScore || p.scoring.BestStreak != prevStreak {
			rank++
			prevScore = p.scoring.TotalScore
			prevStreak = p.scoring.BestStreak
			havePrev = true
		}
		entries[i] = LeaderboardEntry{
			Rank:        rank,
			PlayerID:    p.id,
			DisplayName: p.displayName,
			IsTeacher:   p.isTeacher,
			Score:       p.scoring.TotalScore,
			BestStreak:  p.scoring.BestStreak,
		}
	}
	return entries
}

// rankOf finds playerID's rank and score in a computed leaderboard.
func rankOf(entries []LeaderboardEntry, playerID string) (rank, score int, ok bool) {
	for _, e := range entries {
		if e.PlayerID == playerID {
			return e.Rank, e.Score, true
		}
	}
	return 0, 0, false
}

func toCodecLeaderboard(entries []LeaderboardEntry) []codec.LeaderboardEntry {
	out := make([]codec.LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = codec.LeaderboardEntry{
			Rank:        e.Rank,
			PlayerID:    e.PlayerID,
			DisplayName: e.DisplayName,
			IsTeacher:   e.IsTeacher,
			TotalScore:  e.Score,
			BestStreak:  e.BestStreak,
		}
	}
	return out
}

// broadcastLeaderboard sends leaderboard_update to the host (top 5, nothing
// player-specific) and to every connected player: top 5 plus their own
// rank/score. It does not check whether a player's rank or score changed.
func (s *Session) broadcastLeaderboard() {
	s.mu.Lock()
	entries := s.leaderboardLocked()
	top := entries
	if len(top) > 5 {
		top = top[:5]
	}
	codecTop := toCodecLeaderboard(top)

	host := s.hostPID
	type target struct {
		pid        *actor.PID
		rank, score int
	}
	targets := make([]target, 0, len(s.players))
	for _, p := range s.players {
		if p.connPID == nil {
			continue
		}
		rank, score, _ := rankOf(entries, p.id)
		targets = append(targets, target{pid: p.connPID, rank: rank, score: score})
	}
	s.mu.Unlock()

	s.sendTo(host, codec.NewLeaderboardUpdate(codecTop, 0, 0))
	for _, t := range targets {
		s.sendTo(t.pid, codec.NewLeaderboardUpdate(codecTop, t.rank, t.score))
	}
}
