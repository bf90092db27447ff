package quiz

import "virtuallab-quiz-service/internal/domain"

// Segment splits a user's answer log (in insertion order) into reconstructed
// quiz attempts. Storage has no attempt id, so a new attempt starts whenever
// the question id does not increase or the topic differs from the previous
// record's topic. Ids missing from topicOf share the zero topic.
//
// The rule can split an attempt answered out of id order, and merge two
// same-topic retakes whose ids happen to keep increasing.
func Segment(records []domain.AnswerRecord, topicOf map[int64]int) [][]domain.AnswerRecord {
	var (
		sessions [][]domain.AnswerRecord
		current  []domain.AnswerRecord
		lastID   int64
		haveLast bool
	)
	for _, rec := range records {
		if haveLast && (rec.QuestionID <= lastID || topicOf[rec.QuestionID] != topicOf[lastID]) {
			if len(current) > 0 {
				sessions = append(sessions, current)
				current = nil
			}
		}
		current = append(current, rec)
		lastID = rec.QuestionID
		haveLast = true
	}
	if len(current) > 0 {
		sessions = append(sessions, current)
	}
	return sessions
}

// TotalAttempts counts the reconstructed attempts in the log.
func TotalAttempts(records []domain.AnswerRecord, topicOf map[int64]int) int {
	return len(Segment(records, topicOf))
}

// MostRecent reports the topic and score of the last reconstructed attempt.
func MostRecent(records []domain.AnswerRecord, topicOf map[int64]int) (domain.RecentQuiz, bool) {
	sessions := Segment(records, topicOf)
	if len(sessions) == 0 {
		return domain.RecentQuiz{}, false
	}
	s := summarize(sessions[len(sessions)-1], topicOf)
	return domain.RecentQuiz{
		Topic:        s.Topic,
		TopicName:    s.TopicName,
		ScorePercent: s.ScorePercent,
	}, true
}

// Summaries returns one summary per reconstructed attempt, oldest first.
func Summaries(records []domain.AnswerRecord, topicOf map[int64]int) []domain.AttemptSummary {
	sessions := Segment(records, topicOf)
	out := make([]domain.AttemptSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, summarize(s, topicOf))
	}
	return out
}

// BuildProfile aggregates the whole answer log of one user.
func BuildProfile(userID string, records []domain.AnswerRecord, topicOf map[int64]int) domain.Profile {
	attempts := Summaries(records, topicOf)
	p := domain.Profile{
		UserID:        userID,
		TotalAttempts: len(attempts),
		Attempts:      attempts,
	}
	if n := len(attempts); n > 0 {
		last := attempts[n-1]
		p.MostRecent = &domain.RecentQuiz{
			Topic:        last.Topic,
			TopicName:    last.TopicName,
			ScorePercent: last.ScorePercent,
		}
	}
	return p
}

func summarize(session []domain.AnswerRecord, topicOf map[int64]int) domain.AttemptSummary {
	topic := topicOf[session[0].QuestionID]
	correct := 0
	for _, rec := range session {
		if rec.IsCorrect {
			correct++
		}
	}
	return domain.AttemptSummary{
		Topic:        topic,
		TopicName:    domain.TopicName(topic),
		CorrectCount: correct,
		TotalCount:   len(session),
		ScorePercent: Percent(correct, len(session)),
	}
}
