package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"virtuallab-quiz-service/internal/domain"
)

// QuestionLoader reads the quiz_questions table.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context) ([]domain.QuestionRow, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, topic, question, type, options, correct_answer, order_sequence
		FROM quiz_questions
		ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var out []domain.QuestionRow
	for rows.Next() {
		var (
			row                        domain.QuestionRow
			options, correct, orderSeq []byte
		)
		if err := rows.Scan(&row.ID, &row.Topic, &row.Question, &row.Type, &options, &correct, &orderSeq); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		row.Options = options
		row.CorrectAnswer = correct
		row.OrderSequence = orderSeq
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return out, nil
}
