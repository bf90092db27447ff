package quiz

import "virtuallab-quiz-service/internal/domain"

// Ledger maps a question position in the active topic to the current answer.
type Ledger struct {
	answers map[int]domain.Answer
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{answers: make(map[int]domain.Answer)}
}

// Get returns the answer stored at position, if any.
func (l *Ledger) Get(position int) (domain.Answer, bool) {
	a, ok := l.answers[position]
	return a, ok
}

// SetChoice stores a single-choice answer at position.
func (l *Ledger) SetChoice(position int, value string) {
	l.answers[position] = domain.ChoiceAnswer(value)
}

// SetSequence stores a copy of seq. Whether seq is a permutation of the
// question's options is up to the caller.
func (l *Ledger) SetSequence(position int, seq []string) {
	l.answers[position] = domain.SequenceAnswer(seq)
}

// IsComplete reports whether the answer at position may be submitted: a
// non-empty choice, or a sequence as long as the question's options.
func (l *Ledger) IsComplete(position int, q domain.Question) bool {
	a, ok := l.answers[position]
	if !ok {
		return false
	}
	switch q.Type {
	case domain.TypeOrdering:
		return a.Kind == domain.KindSequence && len(a.Sequence) == len(q.Options)
	default:
		return a.Kind == domain.KindChoice && a.Choice != ""
	}
}

// Reset drops every answer.
func (l *Ledger) Reset() {
	l.answers = make(map[int]domain.Answer)
}
