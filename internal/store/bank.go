package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reviewarcade/arcade/internal/question"
)

// QuestionBankStore loads a fixed bank of pre-authored questions from
// Postgres, read-only and only ever touched at session creation — once a
// question.BankSource is built from its result, the database is never
// consulted again for that session. Uses pgxpool's standard
// Query/CollectRows idiom, the only sample of this library in the pack
// being a bare go.mod manifest.
type QuestionBankStore struct {
	pool *pgxpool.Pool
}

func NewQuestionBankStore(pool *pgxpool.Pool) *QuestionBankStore {
	return &QuestionBankStore{pool: pool}
}

// LoadBank fetches every question belonging to bankID, ordered by id so
// repeated loads of the same bank produce a stable question_id ordering.
func (s *QuestionBankStore) LoadBank(ctx context.Context, bankID string) ([]question.Question, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT question_id, text, option_0, option_1, option_2, option_3,
		       correct_index, category, difficulty
		FROM question_bank_items
		WHERE bank_id = $1
		ORDER BY question_id
	`, bankID)
	if err != nil {
		return nil, fmt.Errorf("store: query bank %s: %w", bankID, err)
	}

	questions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (question.Question, error) {
		var (
			q                      question.Question
			opt0, opt1, opt2, opt3 string
		)
		if err := row.Scan(&q.QuestionID, &q.Text, &opt0, &opt1, &opt2, &opt3, &q.CorrectIndex, &q.Category, &q.Difficulty); err != nil {
			return question.Question{}, err
		}
		q.Options = [4]string{opt0, opt1, opt2, opt3}
		return q, nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: scan bank %s: %w", bankID, err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("store: bank %s has no questions", bankID)
	}

	return questions, nil
}
