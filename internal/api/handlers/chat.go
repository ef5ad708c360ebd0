package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/concierge/internal/domain"
	"github.com/Harshitk-cp/concierge/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxChatBody = 64 << 10

type ChatHandler struct {
	svc    *service.ConversationService
	logger *zap.Logger
}

func NewChatHandler(svc *service.ConversationService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, logger: logger}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	Response *domain.Reply `json:"response"`
	Error    string        `json:"error,omitempty"`
}

type historyResponse struct {
	SessionID string        `json:"session_id"`
	History   []domain.Turn `json:"history"`
}

// Chat handles one user message. The response body is {"response": ...}
// where the reply is a bare string or a slot selection object.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.svc.HandleMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionIDRequired):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrBookingFailed) && reply != nil:
			writeJSON(w, http.StatusBadGateway, chatResponse{Response: reply, Error: service.ErrBookingFailed.Error()})
		default:
			h.logger.Error("chat failed", zap.String("session_id", req.SessionID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to process message")
		}
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Response: reply})
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	history, err := h.svc.History(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get history")
		return
	}

	if history == nil {
		history = []domain.Turn{}
	}
	writeJSON(w, http.StatusOK, historyResponse{SessionID: id, History: history})
}
