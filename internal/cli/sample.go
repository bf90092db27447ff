package cli

import (
	"encoding/json"

	"virtuallab-quiz-service/internal/domain"
)

// sampleQuestions is the bank used by the memory driver and by seed without a file.
func sampleQuestions() []domain.QuestionRow {
	return []domain.QuestionRow{
		choiceRow(1, 1, "What is the main goal of an opening line?",
			[]string{"Introduce your agenda", "Grab the audience's attention", "Thank the organizers"},
			"Grab the audience's attention"),
		orderingRow(2, 1, "Arrange the parts of a strong opener.",
			[]string{"State the benefit", "Hook with a question", "Preview the structure"},
			[]string{"Hook with a question", "State the benefit", "Preview the structure"}),
		choiceRow(3, 1, "Which opener builds rapport fastest?",
			[]string{"A relevant personal story", "A list of statistics", "Reading the title slide"},
			"A relevant personal story"),
		choiceRow(4, 2, "What does a deliberate pause help with?",
			[]string{"Filling time", "Letting a key point land", "Hiding nervousness"},
			"Letting a key point land"),
		orderingRow(5, 2, "Order the vocal warm-up steps.",
			[]string{"Articulation drills", "Breathing exercises", "Pitch slides"},
			[]string{"Breathing exercises", "Pitch slides", "Articulation drills"}),
		choiceRow(6, 3, "How many ideas should one slide carry?",
			[]string{"One", "Three", "As many as fit"},
			"One"),
		orderingRow(7, 3, "Arrange the body of a talk.",
			[]string{"Supporting evidence", "Main claim", "Transition to next point"},
			[]string{"Main claim", "Supporting evidence", "Transition to next point"}),
		choiceRow(8, 4, "What should you do first with a hostile question?",
			[]string{"Answer immediately", "Acknowledge and restate it", "Ignore it"},
			"Acknowledge and restate it"),
		choiceRow(9, 4, "If you do not know the answer, you should:",
			[]string{"Guess confidently", "Offer to follow up", "Change the subject"},
			"Offer to follow up"),
	}
}

func choiceRow(id int64, topic int, prompt string, options []string, correct string) domain.QuestionRow {
	return domain.QuestionRow{
		ID:            id,
		Topic:         topic,
		Question:      prompt,
		Type:          string(domain.TypeChoice),
		Options:       mustJSON(options),
		CorrectAnswer: mustJSON(correct),
	}
}

func orderingRow(id int64, topic int, prompt string, options, order []string) domain.QuestionRow {
	return domain.QuestionRow{
		ID:            id,
		Topic:         topic,
		Question:      prompt,
		Type:          string(domain.TypeOrdering),
		Options:       mustJSON(options),
		OrderSequence: mustJSON(order),
	}
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
