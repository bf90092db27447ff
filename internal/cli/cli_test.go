package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"virtuallab-quiz-service/internal/domain"
	rediscache "virtuallab-quiz-service/internal/infra/redis"
	"virtuallab-quiz-service/internal/infra/sqlite"
	"virtuallab-quiz-service/internal/quiz"

	"github.com/alicebob/miniredis/v2"
)

func TestSampleQuestionsNormalize(t *testing.T) {
	bank, err := quiz.Load(context.Background(), staticSource(sampleQuestions()))
	if err != nil {
		t.Fatalf("load sample bank: %v", err)
	}
	if got := len(bank.Topics()); got != 4 {
		t.Fatalf("expected 4 topics, got %d", got)
	}
	for _, topic := range bank.Topics() {
		qs, _ := bank.QuestionsFor(topic)
		for _, q := range qs {
			if q.Key.IsZero() {
				t.Fatalf("question %d has no answer key", q.ID)
			}
		}
	}
}

func TestSeedAndProfileWithSQLite(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	dbPath := filepath.Join(dir, "quiz.db")
	cfgPath := filepath.Join(dir, "config.yaml")
	cfgBody := "store:\n  driver: sqlite\n  sqlite_path: " + dbPath + "\nlog:\n  level: error\n"
	if err := os.WriteFile(cfgPath, []byte(cfgBody), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	ctx := context.Background()
	if err := runSeed(ctx, cfgPath, ""); err != nil {
		t.Fatalf("seed: %v", err)
	}

	store, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rows, err := store.LoadQuestions(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != len(sampleQuestions()) {
		t.Fatalf("expected %d rows, got %d", len(sampleQuestions()), len(rows))
	}
	// One finished topic-4 run: question 8 right, question 9 wrong.
	err = store.SaveAnswers(ctx, []domain.AnswerRecord{
		{UserID: "u1", QuestionID: 8, UserAnswer: domain.ChoiceAnswer("Acknowledge and restate it"), IsCorrect: true},
		{UserID: "u1", QuestionID: 9, UserAnswer: domain.ChoiceAnswer("Guess confidently")},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	store.Close()

	var out bytes.Buffer
	if err := runProfile(ctx, cfgPath, "u1", &out); err != nil {
		t.Fatalf("profile: %v", err)
	}
	var profile domain.Profile
	if err := json.Unmarshal(out.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.TotalAttempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", profile.TotalAttempts)
	}
	if profile.MostRecent == nil || profile.MostRecent.Topic != 4 || profile.MostRecent.ScorePercent != 50 {
		t.Fatalf("unexpected most recent %+v", profile.MostRecent)
	}
}

func TestSeedInvalidatesRedisBankCache(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	mr := miniredis.RunT(t)
	if err := mr.Set(rediscache.BankKey, "[]"); err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	cfgPath := filepath.Join(dir, "config.yaml")
	cfgBody := "store:\n  driver: sqlite\n  sqlite_path: " + filepath.Join(dir, "quiz.db") +
		"\nredis:\n  addr: " + mr.Addr() + "\nlog:\n  level: error\n"
	if err := os.WriteFile(cfgPath, []byte(cfgBody), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := runSeed(context.Background(), cfgPath, ""); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if mr.Exists(rediscache.BankKey) {
		t.Fatal("expected cached bank to be dropped after seeding")
	}
}

func TestSeedRejectsMemoryDriver(t *testing.T) {
	chdir(t, t.TempDir())
	if err := runSeed(context.Background(), "missing.yaml", ""); err == nil {
		t.Fatal("expected error seeding the memory driver")
	}
}

type staticSource []domain.QuestionRow

func (s staticSource) LoadQuestions(context.Context) ([]domain.QuestionRow, error) {
	return s, nil
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
