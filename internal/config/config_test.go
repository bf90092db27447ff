package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"virtuallab-quiz-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "none", cfg.Events.Publisher)
	assert.Equal(t, "quiz.completed", cfg.Events.Topic)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeFile(t, "config.yaml", `
server:
  port: "9000"
store:
  driver: memory
redis:
  addr: "localhost:6379"
quiz:
  ttl: 5m
`)
	t.Setenv("PORT", "9100")
	t.Setenv("QUIZ_STORE_DRIVER", "sqlite")
	t.Setenv("QUIZ_SQLITE_PATH", "/tmp/q.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "/tmp/q.db", cfg.Store.SQLitePath)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 5*time.Minute, TTLDuration(cfg.Quiz.TTL, time.Minute))
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("QUIZ_LOG_LEVEL=debug\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("QUIZ_LOG_LEVEL") })

	cfg, err := Load(filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsInvalid(t *testing.T) {
	chdir(t, t.TempDir())

	path := writeFile(t, "bad.yaml", "store:\n  driver: mongo\n")
	_, err := Load(path)
	assert.Error(t, err)

	path = writeFile(t, "pg.yaml", "store:\n  driver: postgres\n")
	_, err = Load(path)
	assert.Error(t, err)

	path = writeFile(t, "kafka.yaml", "events:\n  publisher: kafka\n")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestPostgresURLSelectsPostgresDriver(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeFile(t, "pg.yaml", "postgres:\n  url: postgres://localhost/quiz\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store.Driver)
}

func TestTTLDuration(t *testing.T) {
	assert.Equal(t, time.Minute, TTLDuration("", time.Minute))
	assert.Equal(t, time.Minute, TTLDuration("soon", time.Minute))
	assert.Equal(t, 30*time.Second, TTLDuration("30s", time.Minute))
}

func TestLoadBankFile(t *testing.T) {
	path := writeFile(t, "bank.yaml", `
questions:
  - id: 2
    topic: 1
    question: Order the steps
    type: ordering
    options: [b, a, c]
    order_sequence: [a, b, c]
  - id: 1
    topic: 1
    question: Pick one
    type: multiple_choice
    options: [x, y]
    correct_answer: y
  - id: 3
    topic: 2
    question: Pick from list
    type: single_choice
    options: [p, q]
    correct_answer: [q]
`)
	rows, err := LoadBankFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	q, err := rows[0].Normalize()
	require.NoError(t, err)
	assert.Equal(t, domain.SequenceAnswer([]string{"a", "b", "c"}), q.Key)

	q, err = rows[1].Normalize()
	require.NoError(t, err)
	assert.Equal(t, domain.ChoiceAnswer("y"), q.Key)

	q, err = rows[2].Normalize()
	require.NoError(t, err)
	assert.Equal(t, domain.TypeChoice, q.Type)
	assert.Equal(t, domain.ChoiceAnswer("q"), q.Key)
}

func TestLoadBankFileRejectsInvalidRow(t *testing.T) {
	path := writeFile(t, "bank.yaml", `
questions:
  - id: 0
    topic: 1
    type: multiple_choice
`)
	_, err := LoadBankFile(path)
	assert.Error(t, err)
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
