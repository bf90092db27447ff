// Package sqlite is a single-file store for local runs: the question bank and
// the answer log live in one SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"virtuallab-quiz-service/internal/domain"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Open connects to the database at path, applies pragmas and creates the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection serializes writers and keeps in-memory databases shared.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func (s *Store) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS quiz_questions (
			id INTEGER PRIMARY KEY,
			topic INTEGER NOT NULL,
			question TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL,
			options TEXT NOT NULL DEFAULT '[]',
			correct_answer TEXT,
			order_sequence TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS user_answers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			question_id INTEGER NOT NULL,
			user_answer TEXT,
			is_correct INTEGER NOT NULL,
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_user_answers_user ON user_answers(user_id, id);`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) LoadQuestions(ctx context.Context) ([]domain.QuestionRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, topic, question, type, options, correct_answer, order_sequence
		FROM quiz_questions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var out []domain.QuestionRow
	for rows.Next() {
		var (
			row               domain.QuestionRow
			options           string
			correct, orderSeq sql.NullString
		)
		if err := rows.Scan(&row.ID, &row.Topic, &row.Question, &row.Type, &options, &correct, &orderSeq); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		row.Options = json.RawMessage(options)
		if correct.Valid {
			row.CorrectAnswer = json.RawMessage(correct.String)
		}
		if orderSeq.Valid {
			row.OrderSequence = json.RawMessage(orderSeq.String)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) UpsertQuestions(ctx context.Context, rows []domain.QuestionRow) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, r := range rows {
			options := string(r.Options)
			if options == "" {
				options = "[]"
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO quiz_questions (id, topic, question, type, options, correct_answer, order_sequence)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					topic = excluded.topic,
					question = excluded.question,
					type = excluded.type,
					options = excluded.options,
					correct_answer = excluded.correct_answer,
					order_sequence = excluded.order_sequence`,
				r.ID, r.Topic, r.Question, r.Type, options, nullableJSON(r.CorrectAnswer), nullableJSON(r.OrderSequence))
			if err != nil {
				return fmt.Errorf("upsert question %d: %w", r.ID, err)
			}
		}
		return nil
	})
}

// SaveAnswers appends the batch atomically.
func (s *Store) SaveAnswers(ctx context.Context, records []domain.AnswerRecord) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, rec := range records {
			var answer any
			if !rec.UserAnswer.IsZero() {
				data, err := json.Marshal(rec.UserAnswer)
				if err != nil {
					return fmt.Errorf("encode answer for question %d: %w", rec.QuestionID, err)
				}
				answer = string(data)
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO user_answers (user_id, question_id, user_answer, is_correct, created_at_unix)
				VALUES (?, ?, ?, ?, ?)`,
				rec.UserID, rec.QuestionID, answer, rec.IsCorrect, rec.CreatedAt.Unix())
			if err != nil {
				return fmt.Errorf("insert answer: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) ListAnswers(ctx context.Context, userID string) ([]domain.AnswerRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, question_id, user_answer, is_correct, created_at_unix
		FROM user_answers WHERE user_id = ? ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	var out []domain.AnswerRecord
	for rows.Next() {
		var (
			rec     domain.AnswerRecord
			answer  sql.NullString
			created int64
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.QuestionID, &answer, &rec.IsCorrect, &created); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if answer.Valid {
			if err := json.Unmarshal([]byte(answer.String), &rec.UserAnswer); err != nil {
				return nil, fmt.Errorf("decode answer %d: %w", rec.ID, err)
			}
		}
		rec.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
