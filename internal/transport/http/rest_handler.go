package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"virtuallab-quiz-service/internal/app"
	"virtuallab-quiz-service/internal/catalog"
	"virtuallab-quiz-service/internal/domain"
)

// RESTHandler serves the read-only endpoints next to the websocket.
type RESTHandler struct {
	service *app.QuizService
	catalog *catalog.Catalog
	logger  *slog.Logger
}

func NewRESTHandler(service *app.QuizService, materials *catalog.Catalog, logger *slog.Logger) *RESTHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RESTHandler{service: service, catalog: materials, logger: logger}
}

// Register mounts every route, including the websocket, on mux.
func (h *RESTHandler) Register(mux *http.ServeMux, ws *WSHandler) {
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("GET /topics", h.Topics)
	mux.HandleFunc("GET /profile", h.Profile)
	mux.HandleFunc("GET /materials", h.Materials)
	if ws != nil {
		mux.HandleFunc("/ws", ws.ServeWS)
	}
}

func (h *RESTHandler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok"))
}

func (h *RESTHandler) Topics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.service.Topics(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

func (h *RESTHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Code: codeBadRequest, Message: "missing userId"})
		return
	}
	profile, err := h.service.Profile(r.Context(), domain.Identity{UserID: userID})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *RESTHandler) Materials(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, h.catalog.Filter(q.Get("type"), q.Get("q")))
}

func (h *RESTHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	p := toErrorPayload(err)
	status := statusFor(p.Code)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "code", p.Code, "error", err)
	}
	writeJSON(w, status, p)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
