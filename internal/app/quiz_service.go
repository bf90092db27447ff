package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"virtuallab-quiz-service/internal/domain"
	"virtuallab-quiz-service/internal/quiz"
)

// SessionRepository abstracts where client quiz sessions live (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(clientID string) *Session
	Get(clientID string) (*Session, bool)
	Delete(clientID string)
}

// QuestionRepository returns the question rows, usually through a cache.
type QuestionRepository interface {
	LoadQuestions(ctx context.Context) ([]domain.QuestionRow, error)
}

// AnswerStore is the append-only answer log.
type AnswerStore interface {
	SaveAnswers(ctx context.Context, records []domain.AnswerRecord) error
	ListAnswers(ctx context.Context, userID string) ([]domain.AnswerRecord, error)
}

// EventPublisher announces finished quiz runs.
type EventPublisher interface {
	PublishQuizCompleted(ctx context.Context, event domain.QuizCompleted) error
}

// QuizService wires the quiz engine to storage. Every method maps to one
// user action and awaits its remote calls in order.
type QuizService struct {
	sessions  SessionRepository
	questions QuestionRepository
	answers   AnswerStore
	events    EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*QuizService)

func WithEvents(p EventPublisher) Option {
	return func(s *QuizService) { s.events = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *QuizService) { s.logger = l }
}

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

func NewQuizService(sessions SessionRepository, questions QuestionRepository, answers AnswerStore, opts ...Option) *QuizService {
	s := &QuizService{
		sessions:  sessions,
		questions: questions,
		answers:   answers,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session is one client's quiz run.
type Session struct {
	id      string
	mu      sync.Mutex
	run     *quiz.Session
	saved   bool
	warning string
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id string) *Session {
	return &Session{id: id, run: quiz.NewSession(nil)}
}

func (s *Session) ID() string { return s.id }

// State reports the run's lifecycle stage.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run.State()
}

func (s *Session) viewLocked() domain.SessionView {
	v := s.run.View()
	if v.State == domain.StateFinished {
		v.Saved = s.saved
		v.Warning = s.warning
	}
	return v
}

// Open registers a session for a connected client.
func (s *QuizService) Open(clientID string) *Session {
	return s.sessions.GetOrCreate(clientID)
}

// Close drops the client's session; in-progress state is not kept.
func (s *QuizService) Close(clientID string) {
	s.sessions.Delete(clientID)
}

// Topics lists the selectable quizzes.
func (s *QuizService) Topics(ctx context.Context) ([]domain.TopicSummary, error) {
	bank, err := quiz.Load(ctx, s.questions)
	if err != nil {
		return nil, err
	}
	return bank.Summaries(), nil
}

// Start begins topic for the client, discarding any previous run.
func (s *QuizService) Start(ctx context.Context, clientID string, topic int) (domain.SessionView, error) {
	sess, ok := s.sessions.Get(clientID)
	if !ok {
		return domain.SessionView{}, domain.ErrSessionNotFound
	}
	bank, err := quiz.Load(ctx, s.questions)
	if err != nil {
		s.logger.ErrorContext(ctx, "load question bank failed", "client_id", clientID, "error", err)
		return domain.SessionView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.run.UseBank(bank)
	if err := sess.run.StartTopic(topic); err != nil {
		return sess.viewLocked(), err
	}
	sess.saved, sess.warning = false, ""
	s.logger.DebugContext(ctx, "quiz started", "client_id", clientID, "topic", topic)
	return sess.viewLocked(), nil
}

// View returns the client's current session snapshot.
func (s *QuizService) View(clientID string) (domain.SessionView, error) {
	return s.withSession(clientID, func(*quiz.Session) error { return nil })
}

// Answer records the answer to the current question.
func (s *QuizService) Answer(_ context.Context, clientID string, answer domain.Answer) (domain.SessionView, error) {
	return s.withSession(clientID, func(run *quiz.Session) error {
		return run.AnswerCurrent(answer)
	})
}

// Previous moves back one question.
func (s *QuizService) Previous(_ context.Context, clientID string) (domain.SessionView, error) {
	return s.withSession(clientID, func(run *quiz.Session) error {
		return run.GoPrevious()
	})
}

// Reset returns the client to topic selection.
func (s *QuizService) Reset(_ context.Context, clientID string) (domain.SessionView, error) {
	return s.withSession(clientID, func(run *quiz.Session) error {
		run.Reset()
		return nil
	})
}

// Next advances the run. On the last question it submits: the result is
// always produced, answers are written in one batch when who is logged in,
// and a failed write only marks the result as unsaved.
func (s *QuizService) Next(ctx context.Context, clientID string, who domain.Identity) (domain.SessionView, error) {
	sess, ok := s.sessions.Get(clientID)
	if !ok {
		return domain.SessionView{}, domain.ErrSessionNotFound
	}

	sess.mu.Lock()
	finished, err := sess.run.GoNext()
	if err != nil || !finished {
		v := sess.viewLocked()
		sess.mu.Unlock()
		return v, err
	}
	epoch := sess.run.Epoch()
	topic := sess.run.Topic()
	result, _ := sess.run.Result()
	completedAt := s.now()
	records := sess.run.Records(who, completedAt)
	sess.mu.Unlock()

	saved, warning := s.persist(ctx, clientID, records)
	s.publish(ctx, domain.QuizCompleted{
		UserID:      who.UserID,
		Topic:       topic,
		Result:      result,
		Saved:       saved,
		CompletedAt: completedAt,
	})

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.run.Epoch() != epoch {
		s.logger.InfoContext(ctx, "discarding submit outcome for replaced run", "client_id", clientID)
		return sess.viewLocked(), nil
	}
	sess.saved, sess.warning = saved, warning
	return sess.viewLocked(), nil
}

// Profile aggregates who's answer history. Anonymous callers get an empty profile.
func (s *QuizService) Profile(ctx context.Context, who domain.Identity) (domain.Profile, error) {
	if !who.Authenticated() {
		return domain.Profile{Attempts: []domain.AttemptSummary{}}, nil
	}
	records, err := s.answers.ListAnswers(ctx, who.UserID)
	if err != nil {
		return domain.Profile{}, &domain.FetchError{Op: "answers", Err: err}
	}
	if len(records) == 0 {
		return domain.Profile{UserID: who.UserID, Attempts: []domain.AttemptSummary{}}, nil
	}
	bank, err := quiz.Load(ctx, s.questions)
	if err != nil {
		return domain.Profile{}, err
	}
	if orphaned := countOrphaned(bank, records); orphaned > 0 {
		s.logger.InfoContext(ctx, "history references questions missing from the bank",
			"user_id", who.UserID,
			"records", orphaned)
	}
	return quiz.BuildProfile(who.UserID, records, bank.TopicIndex()), nil
}

// countOrphaned counts records whose question was removed from the bank; they
// are aggregated under topic 0.
func countOrphaned(bank *quiz.Bank, records []domain.AnswerRecord) int {
	n := 0
	for _, rec := range records {
		if _, ok := bank.TopicOf(rec.QuestionID); !ok {
			n++
		}
	}
	return n
}

func (s *QuizService) withSession(clientID string, fn func(run *quiz.Session) error) (domain.SessionView, error) {
	sess, ok := s.sessions.Get(clientID)
	if !ok {
		return domain.SessionView{}, domain.ErrSessionNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	err := fn(sess.run)
	return sess.viewLocked(), err
}

func (s *QuizService) persist(ctx context.Context, clientID string, records []domain.AnswerRecord) (bool, string) {
	if len(records) == 0 {
		return false, ""
	}
	if err := s.answers.SaveAnswers(ctx, records); err != nil {
		perr := &domain.PersistenceError{Err: err}
		s.logger.WarnContext(ctx, "answer batch not saved",
			"client_id", clientID,
			"user_id", records[0].UserID,
			"count", len(records),
			"error", err)
		return false, perr.Error()
	}
	return true, ""
}

func (s *QuizService) publish(ctx context.Context, event domain.QuizCompleted) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishQuizCompleted(ctx, event); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "publish quiz completed failed", "topic", event.Topic, "error", err)
	}
}
