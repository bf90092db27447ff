package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"virtuallab-quiz-service/internal/app"
	"virtuallab-quiz-service/internal/domain"
	"virtuallab-quiz-service/internal/infra/memory"
)

var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

type recordingAnswers struct {
	mu      sync.Mutex
	calls   int
	failErr error
	inner   *memory.AnswerStore
}

func newRecordingAnswers() *recordingAnswers {
	return &recordingAnswers{inner: memory.NewAnswerStore()}
}

func (r *recordingAnswers) SaveAnswers(ctx context.Context, records []domain.AnswerRecord) error {
	r.mu.Lock()
	r.calls++
	fail := r.failErr
	r.mu.Unlock()
	if fail != nil {
		return fail
	}
	return r.inner.SaveAnswers(ctx, records)
}

func (r *recordingAnswers) ListAnswers(ctx context.Context, userID string) ([]domain.AnswerRecord, error) {
	return r.inner.ListAnswers(ctx, userID)
}

type recordingEvents struct {
	mu     sync.Mutex
	events []domain.QuizCompleted
}

func (r *recordingEvents) PublishQuizCompleted(_ context.Context, ev domain.QuizCompleted) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

type failingLoader struct{}

func (failingLoader) LoadQuestions(context.Context) ([]domain.QuestionRow, error) {
	return nil, errors.New("network down")
}

func testRows() []domain.QuestionRow {
	return []domain.QuestionRow{
		{ID: 1, Topic: 1, Question: "Pick 4", Type: "multiple_choice",
			Options: json.RawMessage(`["3","4","5"]`), CorrectAnswer: json.RawMessage(`"4"`)},
		{ID: 2, Topic: 1, Question: "Order", Type: "ordering",
			Options: json.RawMessage(`["b","a","c"]`), OrderSequence: json.RawMessage(`["a","b","c"]`)},
		{ID: 3, Topic: 1, Question: "Pick yes", Type: "multiple_choice",
			Options: json.RawMessage(`["yes","no"]`), CorrectAnswer: json.RawMessage(`["yes"]`)},
		{ID: 10, Topic: 2, Question: "Pick a", Type: "single_choice",
			Options: json.RawMessage(`["a","b"]`), CorrectAnswer: json.RawMessage(`"a"`)},
	}
}

func newTestService(answers app.AnswerStore, opts ...app.Option) *app.QuizService {
	questions := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(testRows()), time.Minute)
	opts = append([]app.Option{app.WithClock(func() time.Time { return fixedNow })}, opts...)
	return app.NewQuizService(memory.NewSessionStore(), questions, answers, opts...)
}

// playTopicOne answers 1 and 2 correctly and 3 wrong.
func playTopicOne(t *testing.T, service *app.QuizService, clientID string, who domain.Identity) domain.SessionView {
	t.Helper()
	ctx := context.Background()
	service.Open(clientID)
	if _, err := service.Start(ctx, clientID, 1); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	steps := []domain.Answer{
		domain.ChoiceAnswer("4"),
		domain.SequenceAnswer([]string{"a", "b", "c"}),
		domain.ChoiceAnswer("no"),
	}
	var view domain.SessionView
	for i, a := range steps {
		if _, err := service.Answer(ctx, clientID, a); err != nil {
			t.Fatalf("answer %d failed: %v", i, err)
		}
		var err error
		view, err = service.Next(ctx, clientID, who)
		if err != nil {
			t.Fatalf("next %d failed: %v", i, err)
		}
	}
	return view
}

func TestCompleteRunSavesBatch(t *testing.T) {
	answers := newRecordingAnswers()
	events := &recordingEvents{}
	service := newTestService(answers, app.WithEvents(events))

	view := playTopicOne(t, service, "c1", domain.Identity{UserID: "u1"})
	if view.State != domain.StateFinished {
		t.Fatalf("expected finished, got %s", view.State)
	}
	if view.Result == nil || view.Result.ScorePercent != 67 || view.Result.CorrectCount != 2 || view.Result.TotalCount != 3 {
		t.Fatalf("unexpected result %+v", view.Result)
	}
	if !view.Saved || view.Warning != "" {
		t.Fatalf("expected saved without warning, got saved=%v warning=%q", view.Saved, view.Warning)
	}
	if answers.calls != 1 {
		t.Fatalf("expected one batch write, got %d", answers.calls)
	}

	recs, _ := answers.ListAnswers(context.Background(), "u1")
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	for i, want := range []bool{true, true, false} {
		if recs[i].IsCorrect != want {
			t.Fatalf("record %d: expected correct=%v", i, want)
		}
		if !recs[i].CreatedAt.Equal(fixedNow) {
			t.Fatalf("record %d: unexpected timestamp %v", i, recs[i].CreatedAt)
		}
	}

	if len(events.events) != 1 {
		t.Fatalf("expected one event, got %d", len(events.events))
	}
	ev := events.events[0]
	if ev.UserID != "u1" || ev.Topic != 1 || !ev.Saved || ev.Result.ScorePercent != 67 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestAnonymousRunWritesNothing(t *testing.T) {
	answers := newRecordingAnswers()
	service := newTestService(answers)

	view := playTopicOne(t, service, "c1", domain.Anonymous)
	if view.Result == nil || view.Result.CorrectCount != 2 {
		t.Fatalf("expected result, got %+v", view.Result)
	}
	if view.Saved {
		t.Fatal("anonymous result must not be saved")
	}
	if answers.calls != 0 {
		t.Fatalf("expected zero writes, got %d", answers.calls)
	}
}

func TestFailedWriteKeepsResult(t *testing.T) {
	answers := newRecordingAnswers()
	answers.failErr = errors.New("insert rejected")
	service := newTestService(answers)

	view := playTopicOne(t, service, "c1", domain.Identity{UserID: "u1"})
	if view.Result == nil || view.Result.ScorePercent != 67 {
		t.Fatalf("expected result despite failure, got %+v", view.Result)
	}
	if view.Saved {
		t.Fatal("expected unsaved result")
	}
	if !strings.Contains(view.Warning, "score not saved") || !strings.Contains(view.Warning, "insert rejected") {
		t.Fatalf("unexpected warning %q", view.Warning)
	}

	// A new run clears the warning.
	ctx := context.Background()
	v, err := service.Start(ctx, "c1", 2)
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if v.Warning != "" || v.State != domain.StateInProgress {
		t.Fatalf("expected clean in-progress view, got %+v", v)
	}
}

func TestIncompleteAnswerBlocksNext(t *testing.T) {
	service := newTestService(newRecordingAnswers())
	ctx := context.Background()
	service.Open("c1")
	if _, err := service.Start(ctx, "c1", 1); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	view, err := service.Next(ctx, "c1", domain.Anonymous)
	var incomplete *domain.IncompleteAnswerError
	if !errors.As(err, &incomplete) || incomplete.Position != 0 {
		t.Fatalf("expected incomplete answer at 0, got %v", err)
	}
	if view.Position != 0 || view.State != domain.StateInProgress {
		t.Fatalf("state must not change, got %+v", view)
	}

	if _, err := service.Previous(ctx, "c1"); !errors.Is(err, domain.ErrAtFirstQuestion) {
		t.Fatalf("expected ErrAtFirstQuestion, got %v", err)
	}
}

func TestResetAndUnknownTopic(t *testing.T) {
	service := newTestService(newRecordingAnswers())
	ctx := context.Background()
	service.Open("c1")

	if _, err := service.Start(ctx, "c1", 7); !errors.Is(err, domain.ErrUnknownTopic) {
		t.Fatalf("expected ErrUnknownTopic, got %v", err)
	}
	if _, err := service.Start(ctx, "c1", 2); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	view, err := service.Reset(ctx, "c1")
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if view.State != domain.StateTopicSelect || view.Question != nil {
		t.Fatalf("expected topic selection, got %+v", view)
	}
	if _, err := service.Answer(ctx, "c1", domain.ChoiceAnswer("a")); !errors.Is(err, domain.ErrNotInProgress) {
		t.Fatalf("expected ErrNotInProgress, got %v", err)
	}
}

func TestSessionNotFound(t *testing.T) {
	service := newTestService(newRecordingAnswers())
	ctx := context.Background()
	if _, err := service.Start(ctx, "ghost", 1); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := service.Next(ctx, "ghost", domain.Anonymous); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	service.Open("c1")
	service.Close("c1")
	if _, err := service.View("c1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected closed session to be gone, got %v", err)
	}
}

func TestFetchFailureSurfaces(t *testing.T) {
	questions := memory.NewQuestionRepository(failingLoader{}, time.Minute)
	service := app.NewQuizService(memory.NewSessionStore(), questions, newRecordingAnswers())
	service.Open("c1")

	_, err := service.Start(context.Background(), "c1", 1)
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if _, err := service.Topics(context.Background()); !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError from topics, got %v", err)
	}
}

func TestProfileAcrossTwoRuns(t *testing.T) {
	answers := newRecordingAnswers()
	service := newTestService(answers)
	who := domain.Identity{UserID: "u1"}
	ctx := context.Background()

	playTopicOne(t, service, "c1", who)

	if _, err := service.Start(ctx, "c1", 2); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := service.Answer(ctx, "c1", domain.ChoiceAnswer("a")); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if _, err := service.Next(ctx, "c1", who); err != nil {
		t.Fatalf("next failed: %v", err)
	}

	profile, err := service.Profile(ctx, who)
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if profile.TotalAttempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", profile.TotalAttempts)
	}
	if profile.MostRecent == nil || profile.MostRecent.Topic != 2 || profile.MostRecent.ScorePercent != 100 {
		t.Fatalf("unexpected most recent %+v", profile.MostRecent)
	}
	if len(profile.Attempts) != 2 || profile.Attempts[0].ScorePercent != 67 {
		t.Fatalf("unexpected attempts %+v", profile.Attempts)
	}

	anon, err := service.Profile(ctx, domain.Anonymous)
	if err != nil {
		t.Fatalf("anonymous profile failed: %v", err)
	}
	if anon.TotalAttempts != 0 || anon.MostRecent != nil {
		t.Fatalf("expected empty profile, got %+v", anon)
	}
}

type blockingAnswers struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingAnswers) SaveAnswers(context.Context, []domain.AnswerRecord) error {
	close(b.entered)
	<-b.release
	return nil
}

func (b *blockingAnswers) ListAnswers(context.Context, string) ([]domain.AnswerRecord, error) {
	return nil, nil
}

func TestPendingSubmitDiscardedAfterRestart(t *testing.T) {
	answers := &blockingAnswers{entered: make(chan struct{}), release: make(chan struct{})}
	service := newTestService(answers)
	ctx := context.Background()
	who := domain.Identity{UserID: "u1"}

	service.Open("c1")
	if _, err := service.Start(ctx, "c1", 2); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := service.Answer(ctx, "c1", domain.ChoiceAnswer("a")); err != nil {
		t.Fatalf("answer failed: %v", err)
	}

	type outcome struct {
		view domain.SessionView
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := service.Next(ctx, "c1", who)
		done <- outcome{v, err}
	}()

	select {
	case <-answers.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("answer write never started")
	}

	// The user moves on while the write is still in flight.
	if _, err := service.Start(ctx, "c1", 1); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	close(answers.release)

	var got outcome
	select {
	case got = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("next did not return")
	}
	if got.err != nil {
		t.Fatalf("next failed: %v", got.err)
	}
	if v := got.view; v.State != domain.StateInProgress || v.Saved || v.Result != nil || v.Warning != "" {
		t.Fatalf("returned view carries the stale outcome: %+v", v)
	}

	current, err := service.View("c1")
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if current.State != domain.StateInProgress || current.Topic != 1 || current.Position != 0 {
		t.Fatalf("expected fresh topic 1 run, got %+v", current)
	}
	if current.Saved || current.Result != nil || current.Warning != "" {
		t.Fatalf("current view carries the stale outcome: %+v", current)
	}
}

func TestProfileLogsRecordsForRemovedQuestions(t *testing.T) {
	answers := newRecordingAnswers()
	var logs bytes.Buffer
	service := newTestService(answers, app.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	ctx := context.Background()

	err := answers.SaveAnswers(ctx, []domain.AnswerRecord{
		{UserID: "u1", QuestionID: 99, IsCorrect: true},
		{UserID: "u1", QuestionID: 10, IsCorrect: true},
	})
	if err != nil {
		t.Fatalf("seed answers: %v", err)
	}

	profile, err := service.Profile(ctx, domain.Identity{UserID: "u1"})
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if profile.TotalAttempts != 2 || profile.Attempts[0].Topic != 0 {
		t.Fatalf("expected removed question under topic 0, got %+v", profile.Attempts)
	}
	if !strings.Contains(logs.String(), "history references questions missing from the bank") ||
		!strings.Contains(logs.String(), "records=1") {
		t.Fatalf("expected orphaned-record log, got %q", logs.String())
	}
}
