package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a client acts on a session it never opened.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrUnknownTopic is returned when starting a topic the bank does not contain.
	ErrUnknownTopic = errors.New("unknown quiz topic")
	// ErrNotInProgress is returned for navigation or answers outside a running quiz.
	ErrNotInProgress = errors.New("quiz is not in progress")
	// ErrAtFirstQuestion is returned when moving back from the first question.
	ErrAtFirstQuestion = errors.New("already at the first question")
	// ErrInvalidAnswer indicates an answer whose shape does not fit the question type.
	ErrInvalidAnswer = errors.New("answer does not match question type")
)

// FetchError reports that the question bank or answer history could not be loaded.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IncompleteAnswerError blocks advancing past a question without a complete answer.
type IncompleteAnswerError struct {
	Position int
}

func (e *IncompleteAnswerError) Error() string {
	return fmt.Sprintf("question %d is not answered completely", e.Position+1)
}

// PersistenceError reports a failed answer batch write. The quiz result is
// still valid; only the history misses this run.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("score not saved: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
