package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"virtuallab-quiz-service/internal/app"
	"virtuallab-quiz-service/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.QuizService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Topic int `json:"topic"`
}

type answerPayload struct {
	Answer domain.Answer `json:"answer"`
}

type warningPayload struct {
	Message string `json:"message"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ServeWS upgrades to a websocket and runs one quiz session for the
// connection. userId is optional; without it results are never saved.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	who := domain.Identity{UserID: r.URL.Query().Get("userId")}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	clientID := uuid.NewString()
	logger := h.logger.With("client_id", clientID, "user_id", who.UserID)
	h.service.Open(clientID)
	defer h.service.Close(clientID)
	logger.Debug("ws client connected")

	send := make(chan outboundMessage, 16)
	writerDone := make(chan struct{})

	// Single writer; gorilla connections allow one concurrent writer.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Warn("ws write error", "error", err)
				return
			}
		}
	}()

	ctx := r.Context()
	if view, err := h.service.View(clientID); err == nil {
		enqueue(send, writerDone, outboundMessage{Type: "state", Payload: view})
	}

read:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		for _, out := range h.dispatch(ctx, clientID, who, inbound) {
			if !enqueue(send, writerDone, out) {
				break read
			}
		}
	}

	close(send)
	<-writerDone
	logger.Debug("ws client disconnected")
}

// enqueue hands msg to the writer. It reports false once the writer has
// stopped, so a dead connection never blocks the reader on a full buffer.
func enqueue(send chan<- outboundMessage, writerDone <-chan struct{}, msg outboundMessage) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}

func (h *WSHandler) dispatch(ctx context.Context, clientID string, who domain.Identity, in inboundMessage) []outboundMessage {
	var (
		view domain.SessionView
		err  error
	)
	switch in.Type {
	case "topics":
		topics, err := h.service.Topics(ctx)
		if err != nil {
			return []outboundMessage{h.errorMessage(err)}
		}
		return []outboundMessage{{Type: "topics", Payload: topics}}
	case "start":
		var p startPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return []outboundMessage{badRequest("invalid start payload")}
		}
		view, err = h.service.Start(ctx, clientID, p.Topic)
	case "answer":
		var p answerPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return []outboundMessage{badRequest("invalid answer payload")}
		}
		view, err = h.service.Answer(ctx, clientID, p.Answer)
	case "next":
		view, err = h.service.Next(ctx, clientID, who)
		if err == nil && view.State == domain.StateFinished {
			out := []outboundMessage{{Type: "result", Payload: view}}
			if view.Warning != "" {
				out = append(out, outboundMessage{Type: "warning", Payload: warningPayload{Message: view.Warning}})
			}
			return out
		}
	case "previous":
		view, err = h.service.Previous(ctx, clientID)
	case "reset":
		view, err = h.service.Reset(ctx, clientID)
	default:
		return []outboundMessage{badRequest("unsupported message type")}
	}
	if err != nil {
		return []outboundMessage{h.errorMessage(err)}
	}
	return []outboundMessage{{Type: "state", Payload: view}}
}

func (h *WSHandler) errorMessage(err error) outboundMessage {
	p := toErrorPayload(err)
	if p.Code == codeFetchFailed || p.Code == codeInternal {
		h.logger.Error("quiz action failed", "code", p.Code, "error", err)
	}
	return outboundMessage{Type: "error", Payload: p}
}

func badRequest(message string) outboundMessage {
	return outboundMessage{Type: "error", Payload: errorPayload{Code: codeBadRequest, Message: message}}
}
