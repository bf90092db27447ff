// Package quiz is the quiz engine: question bank, answer ledger, session
// state machine, scoring, and history aggregation. It performs no I/O beyond
// the Source handed to Load and is not safe for concurrent use.
package quiz

import (
	"context"
	"sort"

	"virtuallab-quiz-service/internal/domain"
)

// Source returns every stored question row, ordered by ascending id.
type Source interface {
	LoadQuestions(ctx context.Context) ([]domain.QuestionRow, error)
}

// Bank groups questions by topic. It is read-only; load again to observe changes.
type Bank struct {
	topics  []int
	byTopic map[int][]domain.Question
	topicOf map[int64]int
}

// Load fetches and normalizes the whole bank. Any source failure or malformed
// row fails the load with a *domain.FetchError.
func Load(ctx context.Context, src Source) (*Bank, error) {
	rows, err := src.LoadQuestions(ctx)
	if err != nil {
		return nil, &domain.FetchError{Op: "questions", Err: err}
	}
	questions := make([]domain.Question, 0, len(rows))
	for _, row := range rows {
		q, err := row.Normalize()
		if err != nil {
			return nil, &domain.FetchError{Op: "questions", Err: err}
		}
		questions = append(questions, q)
	}
	return NewBank(questions), nil
}

// NewBank groups already normalized questions. Within a topic, questions keep
// ascending id order.
func NewBank(questions []domain.Question) *Bank {
	sorted := make([]domain.Question, len(questions))
	copy(sorted, questions)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	b := &Bank{
		byTopic: make(map[int][]domain.Question),
		topicOf: make(map[int64]int, len(sorted)),
	}
	for _, q := range sorted {
		if _, ok := b.byTopic[q.Topic]; !ok {
			b.topics = append(b.topics, q.Topic)
		}
		b.byTopic[q.Topic] = append(b.byTopic[q.Topic], q)
		b.topicOf[q.ID] = q.Topic
	}
	sort.Ints(b.topics)
	return b
}

// Topics returns the topic keys in ascending order.
func (b *Bank) Topics() []int {
	out := make([]int, len(b.topics))
	copy(out, b.topics)
	return out
}

// QuestionsFor returns a copy of the topic's question sequence.
func (b *Bank) QuestionsFor(topic int) ([]domain.Question, bool) {
	qs, ok := b.byTopic[topic]
	if !ok {
		return nil, false
	}
	out := make([]domain.Question, len(qs))
	copy(out, qs)
	return out, true
}

// TopicOf reports the topic of a question id known to this bank.
func (b *Bank) TopicOf(questionID int64) (int, bool) {
	t, ok := b.topicOf[questionID]
	return t, ok
}

// TopicIndex returns the question id to topic lookup used by history aggregation.
func (b *Bank) TopicIndex() map[int64]int {
	out := make(map[int64]int, len(b.topicOf))
	for id, t := range b.topicOf {
		out[id] = t
	}
	return out
}

// Summaries lists every topic with its display name and question count.
func (b *Bank) Summaries() []domain.TopicSummary {
	out := make([]domain.TopicSummary, 0, len(b.topics))
	for _, t := range b.topics {
		out = append(out, domain.TopicSummary{
			Topic:         t,
			Name:          domain.TopicName(t),
			QuestionCount: len(b.byTopic[t]),
		})
	}
	return out
}
