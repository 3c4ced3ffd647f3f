// Package store holds review-arcade's two external collaborators: a Redis
// results archive and a Postgres question bank loader. Neither is consulted
// on the session's hot path — spec §1 keeps them boundary-only, invoked at
// session creation and session end.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reviewarcade/arcade/internal/session"
)

// resultsTTL is how long an ended session's results stay queryable after the
// registry has reaped the actor, per SPEC_FULL.md's "falls back to the
// archive after the reap grace period" supplement.
const resultsTTL = 30 * 24 * time.Hour

// ResultsArchive persists a session's final results to Redis, satisfying
// session.ResultsArchiver. Grounded on
// other_examples/83e42014_darshilgit-learning-redis.../leaderboard-main.go's
// Leaderboard type: a sorted set per session keyed by player, pipelined with
// the TTL'd full-results blob an individual GET /sessions/{id}/results needs.
type ResultsArchive struct {
	client *redis.Client
}

func NewResultsArchive(client *redis.Client) *ResultsArchive {
	return &ResultsArchive{client: client}
}

// Archive writes results under two keys: a durable JSON blob for exact
// retrieval by code, and a per-session sorted-set entry per player so the
// final standings can be ranked the way
// Leaderboard.UpdateScore/GetTopPlayers does, independent of the JSON blob.
// Archive satisfies session.ResultsArchiver.
func (a *ResultsArchive) Archive(code string, results session.Results) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	blob, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("store: marshal results for %s: %w", code, err)
	}

	pipe := a.client.Pipeline()
	pipe.Set(ctx, resultsKey(code), blob, resultsTTL)
	for _, entry := range results.Leaderboard {
		pipe.ZAdd(ctx, boardKey(code), redis.Z{
			Score:  float64(entry.Score),
			Member: entry.PlayerID,
		})
	}
	pipe.Expire(ctx, boardKey(code), resultsTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store: archive results for %s: %w", code, err)
	}
	return nil
}

// Load reads back a previously archived session's results, for
// GET /sessions/{id}/results once the session has left the registry.
func (a *ResultsArchive) Load(code string) (session.Results, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, err := a.client.Get(ctx, resultsKey(code)).Bytes()
	if err != nil {
		return session.Results{}, fmt.Errorf("store: load results for %s: %w", code, err)
	}

	var results session.Results
	if err := json.Unmarshal(raw, &results); err != nil {
		return session.Results{}, fmt.Errorf("store: decode results for %s: %w", code, err)
	}
	return results, nil
}

func resultsKey(code string) string {
	return fmt.Sprintf("arcade:results:%s", code)
}

func boardKey(code string) string {
	return fmt.Sprintf("arcade:leaderboard:%s", code)
}
