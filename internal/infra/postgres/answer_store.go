package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"virtuallab-quiz-service/internal/domain"
)

// AnswerStore appends to and reads from the user_answers table.
type AnswerStore struct {
	pool *pgxpool.Pool
}

func NewAnswerStore(pool *pgxpool.Pool) *AnswerStore {
	return &AnswerStore{pool: pool}
}

const insertAnswerSQL = `
	INSERT INTO user_answers (user_id, question_id, user_answer, is_correct, created_at)
	VALUES ($1, $2, $3, $4, $5)`

// SaveAnswers writes the batch in one round trip inside a transaction.
func (s *AnswerStore) SaveAnswers(ctx context.Context, records []domain.AnswerRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		answer, err := encodeAnswer(rec.UserAnswer)
		if err != nil {
			return fmt.Errorf("encode answer for question %d: %w", rec.QuestionID, err)
		}
		batch.Queue(insertAnswerSQL, rec.UserID, rec.QuestionID, answer, rec.IsCorrect, rec.CreatedAt)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin answers tx: %w", err)
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	for range records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert answer: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close answer batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit answers: %w", err)
	}
	return nil
}

func (s *AnswerStore) ListAnswers(ctx context.Context, userID string) ([]domain.AnswerRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, question_id, user_answer, is_correct, created_at
		FROM user_answers
		WHERE user_id = $1
		ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	var out []domain.AnswerRecord
	for rows.Next() {
		var (
			rec    domain.AnswerRecord
			answer []byte
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.QuestionID, &answer, &rec.IsCorrect, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if len(answer) > 0 {
			if err := json.Unmarshal(answer, &rec.UserAnswer); err != nil {
				return nil, fmt.Errorf("decode answer %d: %w", rec.ID, err)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return out, nil
}

// encodeAnswer returns nil for an absent answer so the column stays NULL.
func encodeAnswer(a domain.Answer) ([]byte, error) {
	if a.IsZero() {
		return nil, nil
	}
	return json.Marshal(a)
}
