package quiz

import "virtuallab-quiz-service/internal/domain"

// IsCorrect compares an answer against the question's canonical key. Missing
// answers, missing keys, and unknown question types are incorrect.
func IsCorrect(q domain.Question, answer domain.Answer) bool {
	if len(q.Options) == 0 {
		return false
	}
	switch q.Type {
	case domain.TypeChoice:
		return q.Key.Kind == domain.KindChoice &&
			answer.Kind == domain.KindChoice &&
			answer.Choice == q.Key.Choice
	case domain.TypeOrdering:
		if q.Key.Kind != domain.KindSequence || answer.Kind != domain.KindSequence {
			return false
		}
		return equalSequence(answer.Sequence, q.Key.Sequence)
	default:
		return false
	}
}

// Grade returns per-question correctness for the ledger, in question order.
func Grade(questions []domain.Question, ledger *Ledger) []bool {
	out := make([]bool, len(questions))
	for i, q := range questions {
		answer, _ := ledger.Get(i)
		out[i] = IsCorrect(q, answer)
	}
	return out
}

// Score aggregates correctness over the whole question sequence.
func Score(questions []domain.Question, ledger *Ledger) domain.Result {
	correct := 0
	for _, ok := range Grade(questions, ledger) {
		if ok {
			correct++
		}
	}
	return domain.Result{
		ScorePercent: Percent(correct, len(questions)),
		CorrectCount: correct,
		TotalCount:   len(questions),
	}
}

// Percent is round-half-up of 100*correct/total, and 0 when total is 0.
func Percent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

func equalSequence(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
