package quiz

import (
	"time"

	"virtuallab-quiz-service/internal/domain"
)

// Session is the quiz run state machine:
//
//	TopicSelect -> InProgress -> Finished
//	InProgress, Finished -> TopicSelect (Reset)
//	any -> InProgress (StartTopic)
type Session struct {
	bank      *Bank
	state     domain.SessionState
	topic     int
	questions []domain.Question
	position  int
	ledger    *Ledger
	result    *domain.Result
	graded    []bool
	epoch     uint64
}

// NewSession starts in topic selection. bank may be nil until UseBank.
func NewSession(bank *Bank) *Session {
	return &Session{
		bank:   bank,
		state:  domain.StateTopicSelect,
		ledger: NewLedger(),
	}
}

// UseBank swaps the bank used by later StartTopic calls. The running topic,
// if any, keeps the questions it started with.
func (s *Session) UseBank(bank *Bank) {
	s.bank = bank
}

// State reports the lifecycle stage.
func (s *Session) State() domain.SessionState { return s.state }

// Epoch changes on every StartTopic and Reset. Callers awaiting I/O compare it
// before and after to detect that the run they acted on is gone.
func (s *Session) Epoch() uint64 { return s.epoch }

// Topic is the running or last finished topic; 0 in topic selection.
func (s *Session) Topic() int { return s.topic }

// Position is the 0-based index of the current question.
func (s *Session) Position() int { return s.position }

// Result is present only once the run is finished.
func (s *Session) Result() (domain.Result, bool) {
	if s.result == nil {
		return domain.Result{}, false
	}
	return *s.result, true
}

// StartTopic begins a fresh run of topic from any state.
func (s *Session) StartTopic(topic int) error {
	if s.bank == nil {
		return domain.ErrUnknownTopic
	}
	questions, ok := s.bank.QuestionsFor(topic)
	if !ok || len(questions) == 0 {
		return domain.ErrUnknownTopic
	}
	s.state = domain.StateInProgress
	s.topic = topic
	s.questions = questions
	s.position = 0
	s.ledger.Reset()
	s.result = nil
	s.graded = nil
	s.epoch++
	s.seedCurrent()
	return nil
}

// Current returns the question at the current position.
func (s *Session) Current() (domain.Question, bool) {
	if s.state != domain.StateInProgress {
		return domain.Question{}, false
	}
	return s.questions[s.position], true
}

// AnswerCurrent overwrites the answer at the current position. The answer's
// shape must fit the question type.
func (s *Session) AnswerCurrent(answer domain.Answer) error {
	q, ok := s.Current()
	if !ok {
		return domain.ErrNotInProgress
	}
	switch q.Type {
	case domain.TypeOrdering:
		if answer.Kind != domain.KindSequence {
			return domain.ErrInvalidAnswer
		}
		s.ledger.SetSequence(s.position, answer.Sequence)
	default:
		if answer.Kind != domain.KindChoice {
			return domain.ErrInvalidAnswer
		}
		s.ledger.SetChoice(s.position, answer.Choice)
	}
	return nil
}

// GoNext advances one question, or submits the run on the last one. An
// incomplete answer blocks with *domain.IncompleteAnswerError and leaves the
// state untouched.
func (s *Session) GoNext() (finished bool, err error) {
	if s.state != domain.StateInProgress {
		return false, domain.ErrNotInProgress
	}
	if !s.ledger.IsComplete(s.position, s.questions[s.position]) {
		return false, &domain.IncompleteAnswerError{Position: s.position}
	}
	if s.position == len(s.questions)-1 {
		s.submit()
		return true, nil
	}
	s.position++
	s.seedCurrent()
	return false, nil
}

// GoPrevious moves back one question without re-validating anything.
func (s *Session) GoPrevious() error {
	if s.state != domain.StateInProgress {
		return domain.ErrNotInProgress
	}
	if s.position == 0 {
		return domain.ErrAtFirstQuestion
	}
	s.position--
	return nil
}

// Reset returns to topic selection and drops the run.
func (s *Session) Reset() {
	s.state = domain.StateTopicSelect
	s.topic = 0
	s.questions = nil
	s.position = 0
	s.ledger.Reset()
	s.result = nil
	s.graded = nil
	s.epoch++
}

// Records builds the answer rows of a finished run, one per question in
// question order. Anonymous callers get none.
func (s *Session) Records(who domain.Identity, now time.Time) []domain.AnswerRecord {
	if s.state != domain.StateFinished || !who.Authenticated() {
		return nil
	}
	out := make([]domain.AnswerRecord, 0, len(s.questions))
	for i, q := range s.questions {
		answer, _ := s.ledger.Get(i)
		out = append(out, domain.AnswerRecord{
			UserID:     who.UserID,
			QuestionID: q.ID,
			UserAnswer: answer,
			IsCorrect:  s.graded[i],
			CreatedAt:  now,
		})
	}
	return out
}

// View snapshots the session for clients. The canonical key is not exposed.
func (s *Session) View() domain.SessionView {
	v := domain.SessionView{
		State:    s.state,
		Topic:    s.topic,
		Position: s.position,
		Total:    len(s.questions),
	}
	if q, ok := s.Current(); ok {
		v.Question = &q
		v.Answer, _ = s.ledger.Get(s.position)
	}
	if s.state == domain.StateFinished {
		r := *s.result
		v.Result = &r
	}
	return v
}

func (s *Session) submit() {
	s.graded = Grade(s.questions, s.ledger)
	result := Score(s.questions, s.ledger)
	s.result = &result
	s.state = domain.StateFinished
}

// seedCurrent starts an unvisited ordering question from its options in
// their given order.
func (s *Session) seedCurrent() {
	q, ok := s.Current()
	if !ok || q.Type != domain.TypeOrdering {
		return
	}
	if _, ok := s.ledger.Get(s.position); ok {
		return
	}
	s.ledger.SetSequence(s.position, q.Options)
}
