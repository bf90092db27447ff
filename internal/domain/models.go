package domain

import "time"

// QuestionType selects the comparison rule used when scoring a question.
type QuestionType string

const (
	TypeChoice   QuestionType = "multiple_choice"
	TypeOrdering QuestionType = "ordering"
)

// ParseQuestionType maps the stored type column onto a known type.
// Unknown values are returned unchanged so scoring can reject them.
func ParseQuestionType(raw string) QuestionType {
	switch raw {
	case "multiple_choice", "single_choice", "choice":
		return TypeChoice
	case "ordering":
		return TypeOrdering
	default:
		return QuestionType(raw)
	}
}

// Question is a normalized quiz question. Key is the canonical answer and is
// never serialized to clients.
type Question struct {
	ID      int64        `json:"id"`
	Topic   int          `json:"topic"`
	Prompt  string       `json:"question"`
	Type    QuestionType `json:"type"`
	Options []string     `json:"options"`
	Key     Answer       `json:"-"`
}

// TopicSummary describes one selectable quiz.
type TopicSummary struct {
	Topic         int    `json:"topic"`
	Name          string `json:"name"`
	QuestionCount int    `json:"questionCount"`
}

// Result is the outcome of a finished quiz run.
type Result struct {
	ScorePercent int `json:"score"`
	CorrectCount int `json:"correct"`
	TotalCount   int `json:"total"`
}

// AnswerRecord is one persisted answer row. ID reflects insertion order.
type AnswerRecord struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"userId"`
	QuestionID int64     `json:"questionId"`
	UserAnswer Answer    `json:"userAnswer"`
	IsCorrect  bool      `json:"isCorrect"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Identity is the caller on whose behalf answers are persisted.
type Identity struct {
	UserID string
}

// Anonymous is the identity of a caller that is not logged in.
var Anonymous = Identity{}

func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// SessionState is the lifecycle stage of a quiz run.
type SessionState string

const (
	StateTopicSelect SessionState = "topic_select"
	StateInProgress  SessionState = "in_progress"
	StateFinished    SessionState = "finished"
)

// SessionView is the client-facing snapshot of a quiz run.
type SessionView struct {
	State    SessionState `json:"state"`
	Topic    int          `json:"topic,omitempty"`
	Position int          `json:"position"`
	Total    int          `json:"total"`
	Question *Question    `json:"question,omitempty"`
	Answer   Answer       `json:"answer"`
	Result   *Result      `json:"result,omitempty"`
	Saved    bool         `json:"saved"`
	Warning  string       `json:"warning,omitempty"`
}

// RecentQuiz is the topic and score of the latest reconstructed attempt.
type RecentQuiz struct {
	Topic        int    `json:"topic"`
	TopicName    string `json:"topicName"`
	ScorePercent int    `json:"score"`
}

// AttemptSummary is one reconstructed quiz attempt.
type AttemptSummary struct {
	Topic        int    `json:"topic"`
	TopicName    string `json:"topicName"`
	CorrectCount int    `json:"correct"`
	TotalCount   int    `json:"total"`
	ScorePercent int    `json:"score"`
}

// Profile aggregates a user's quiz history.
type Profile struct {
	UserID        string           `json:"userId"`
	TotalAttempts int              `json:"totalAttempts"`
	MostRecent    *RecentQuiz      `json:"mostRecent,omitempty"`
	Attempts      []AttemptSummary `json:"attempts"`
}

// QuizCompleted is published after a run finishes.
type QuizCompleted struct {
	UserID      string    `json:"userId,omitempty"`
	Topic       int       `json:"topic"`
	Result      Result    `json:"result"`
	Saved       bool      `json:"saved"`
	CompletedAt time.Time `json:"completedAt"`
}
