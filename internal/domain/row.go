package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// QuestionRow mirrors a quiz_questions row as stored. The JSON columns are kept
// raw until Normalize so every store decodes them the same way.
type QuestionRow struct {
	ID            int64           `json:"id" validate:"gt=0"`
	Topic         int             `json:"topic" validate:"gte=0"`
	Question      string          `json:"question"`
	Type          string          `json:"type" validate:"required"`
	Options       json.RawMessage `json:"options"`
	CorrectAnswer json.RawMessage `json:"correct_answer,omitempty"`
	OrderSequence json.RawMessage `json:"order_sequence,omitempty"`
}

// Normalize validates the row and resolves the canonical answer once, so
// scoring never has to re-detect the shape of correct_answer.
//
// Choice questions take correct_answer as-is, or its first element when it is
// stored as an array. Ordering questions use correct_answer when it is an
// array and fall back to order_sequence otherwise. Unknown types get no key.
func (r QuestionRow) Normalize() (Question, error) {
	if err := validate.Struct(r); err != nil {
		return Question{}, fmt.Errorf("question %d: %w", r.ID, err)
	}

	var options []string
	if err := decodeNullable(r.Options, &options); err != nil {
		return Question{}, fmt.Errorf("question %d options: %w", r.ID, err)
	}
	var correct Answer
	if err := decodeNullable(r.CorrectAnswer, &correct); err != nil {
		return Question{}, fmt.Errorf("question %d correct_answer: %w", r.ID, err)
	}
	var order []string
	if err := decodeNullable(r.OrderSequence, &order); err != nil {
		return Question{}, fmt.Errorf("question %d order_sequence: %w", r.ID, err)
	}

	q := Question{
		ID:      r.ID,
		Topic:   r.Topic,
		Prompt:  r.Question,
		Type:    ParseQuestionType(r.Type),
		Options: options,
	}
	switch q.Type {
	case TypeChoice:
		switch correct.Kind {
		case KindChoice:
			q.Key = correct
		case KindSequence:
			if len(correct.Sequence) > 0 {
				q.Key = ChoiceAnswer(correct.Sequence[0])
			}
		}
	case TypeOrdering:
		if correct.Kind == KindSequence {
			q.Key = correct
		} else if order != nil {
			q.Key = SequenceAnswer(order)
		}
	}
	return q, nil
}

func decodeNullable(raw json.RawMessage, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
