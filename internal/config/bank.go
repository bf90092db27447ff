package config

import (
	"encoding/json"
	"fmt"
	"os"

	"virtuallab-quiz-service/internal/domain"

	"gopkg.in/yaml.v3"
)

type bankFile struct {
	Questions []bankEntry `yaml:"questions"`
}

type bankEntry struct {
	ID            int64    `yaml:"id"`
	Topic         int      `yaml:"topic"`
	Question      string   `yaml:"question"`
	Type          string   `yaml:"type"`
	Options       []string `yaml:"options"`
	CorrectAnswer any      `yaml:"correct_answer"`
	OrderSequence []string `yaml:"order_sequence"`
}

// LoadBankFile reads a YAML question bank into storage rows. correct_answer
// may be a string or a list.
func LoadBankFile(path string) ([]domain.QuestionRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file bankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse bank %s: %w", path, err)
	}

	rows := make([]domain.QuestionRow, 0, len(file.Questions))
	for i, e := range file.Questions {
		row := domain.QuestionRow{
			ID:       e.ID,
			Topic:    e.Topic,
			Question: e.Question,
			Type:     e.Type,
		}
		options := e.Options
		if options == nil {
			options = []string{}
		}
		if row.Options, err = json.Marshal(options); err != nil {
			return nil, fmt.Errorf("question %d: encode options: %w", i, err)
		}
		if e.CorrectAnswer != nil {
			if row.CorrectAnswer, err = json.Marshal(e.CorrectAnswer); err != nil {
				return nil, fmt.Errorf("question %d: encode correct_answer: %w", i, err)
			}
		}
		if e.OrderSequence != nil {
			if row.OrderSequence, err = json.Marshal(e.OrderSequence); err != nil {
				return nil, fmt.Errorf("question %d: encode order_sequence: %w", i, err)
			}
		}
		if _, err := row.Normalize(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
