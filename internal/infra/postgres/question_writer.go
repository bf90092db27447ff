package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"
	"virtuallab-quiz-service/internal/domain"
)

type questionModel struct {
	bun.BaseModel `bun:"table:quiz_questions"`

	ID            int64           `bun:"id,pk"`
	Topic         int             `bun:"topic,notnull"`
	Question      string          `bun:"question,notnull"`
	Type          string          `bun:"type,notnull"`
	Options       json.RawMessage `bun:"options,type:jsonb,notnull"`
	CorrectAnswer json.RawMessage `bun:"correct_answer,type:jsonb,nullzero"`
	OrderSequence json.RawMessage `bun:"order_sequence,type:jsonb,nullzero"`
}

// QuestionWriter upserts question rows; used by the seed command and tests.
type QuestionWriter struct {
	db *bun.DB
}

func NewQuestionWriter(db *bun.DB) *QuestionWriter {
	return &QuestionWriter{db: db}
}

func (w *QuestionWriter) UpsertQuestions(ctx context.Context, rows []domain.QuestionRow) error {
	if len(rows) == 0 {
		return nil
	}
	models := make([]questionModel, 0, len(rows))
	for _, r := range rows {
		options := r.Options
		if len(options) == 0 {
			options = json.RawMessage(`[]`)
		}
		models = append(models, questionModel{
			ID:            r.ID,
			Topic:         r.Topic,
			Question:      r.Question,
			Type:          r.Type,
			Options:       options,
			CorrectAnswer: r.CorrectAnswer,
			OrderSequence: r.OrderSequence,
		})
	}
	_, err := w.db.NewInsert().
		Model(&models).
		On("CONFLICT (id) DO UPDATE").
		Set("topic = EXCLUDED.topic").
		Set("question = EXCLUDED.question").
		Set("type = EXCLUDED.type").
		Set("options = EXCLUDED.options").
		Set("correct_answer = EXCLUDED.correct_answer").
		Set("order_sequence = EXCLUDED.order_sequence").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert questions: %w", err)
	}
	return nil
}
