package question

import "fmt"

// BankSource samples from a fixed list of authored questions, per spec
// §4.3's bank sampler: prefer an unseen question; once every question has
// been served, fall back to the least-recently-used one rather than
// refusing to serve anything.
type BankSource struct {
	questions []Question
	// order tracks serve order across the source's lifetime so the
	// least-recently-served question can be found once the bank is
	// exhausted. Session-scoped: a BankSource is built fresh per session,
	// so this is the whole history, not just this player's.
	order []string
}

func NewBankSource(questions []Question) *BankSource {
	return &BankSource{questions: questions}
}

func (s *BankSource) Next(seen []string) (Question, error) {
	if len(s.questions) == 0 {
		return Question{}, fmt.Errorf("question: bank source is empty")
	}

	seenSet := make(map[string]struct{}, len(seen))
	for _, id := range seen {
		seenSet[id] = struct{}{}
	}

	for _, q := range s.questions {
		if _, ok := seenSet[q.QuestionID]; !ok {
			s.markServed(q.QuestionID)
			return q, nil
		}
	}

	return s.leastRecentlyUsed(), nil
}

func (s *BankSource) markServed(id string) {
	for i, served := range s.order {
		if served == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.order = append(s.order, id)
}

// leastRecentlyUsed returns the bank question that either has never been
// served at all (index order in s.questions, for ties) or was served
// longest ago.
func (s *BankSource) leastRecentlyUsed() Question {
	servedAt := make(map[string]int, len(s.order))
	for i, id := range s.order {
		servedAt[id] = i
	}

	best := s.questions[0]
	bestRank := -1
	for _, q := range s.questions {
		rank, ok := servedAt[q.QuestionID]
		if !ok {
			s.markServed(q.QuestionID)
			return q
		}
		if bestRank == -1 || rank < bestRank {
			best, bestRank = q, rank
		}
	}

	s.markServed(best.QuestionID)
	return best
}
