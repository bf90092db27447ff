package http

import (
	"errors"
	"net/http"

	"virtuallab-quiz-service/internal/domain"
)

const (
	codeFetchFailed      = "fetch_failed"
	codeIncompleteAnswer = "incomplete_answer"
	codeUnknownTopic     = "unknown_topic"
	codeInvalidState     = "invalid_state"
	codeInvalidAnswer    = "invalid_answer"
	codeBadRequest       = "bad_request"
	codeInternal         = "internal"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorCode(err error) string {
	var fetchErr *domain.FetchError
	var incomplete *domain.IncompleteAnswerError
	switch {
	case errors.As(err, &fetchErr):
		return codeFetchFailed
	case errors.As(err, &incomplete):
		return codeIncompleteAnswer
	case errors.Is(err, domain.ErrUnknownTopic):
		return codeUnknownTopic
	case errors.Is(err, domain.ErrNotInProgress),
		errors.Is(err, domain.ErrAtFirstQuestion),
		errors.Is(err, domain.ErrSessionNotFound):
		return codeInvalidState
	case errors.Is(err, domain.ErrInvalidAnswer):
		return codeInvalidAnswer
	default:
		return codeInternal
	}
}

func toErrorPayload(err error) errorPayload {
	return errorPayload{Code: errorCode(err), Message: err.Error()}
}

func statusFor(code string) int {
	switch code {
	case codeFetchFailed:
		return http.StatusBadGateway
	case codeBadRequest, codeInvalidAnswer, codeIncompleteAnswer:
		return http.StatusBadRequest
	case codeUnknownTopic:
		return http.StatusNotFound
	case codeInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
