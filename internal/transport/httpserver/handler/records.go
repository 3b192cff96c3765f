package handler

import (
	"errors"
	"net/http"
	"time"

	recordsdomain "care-companion-go/internal/domain/records"
	"github.com/go-chi/chi/v5"
)

type createConversationRequest struct {
	Title string `json:"title"`
}

type conversationResponse struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Title         string     `json:"title"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at"`
	IsActive      bool       `json:"is_active"`
	TotalMessages int        `json:"total_messages"`
	Summary       string     `json:"summary,omitempty"`
}

type conversationListResponse struct {
	Items []conversationResponse `json:"items"`
	Total int                    `json:"total"`
}

type appendMessageRequest struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	HasAudio bool   `json:"has_audio"`
}

type messageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	MessageOrder   int       `json:"message_order"`
	HasAudio       bool      `json:"has_audio"`
}

type messageListResponse struct {
	Items []messageResponse `json:"items"`
	Total int               `json:"total"`
}

type createMemoirRequest struct {
	ConversationID  *string `json:"conversation_id"`
	Title           string  `json:"title"`
	Content         string  `json:"content"`
	TimePeriod      string  `json:"time_period"`
	EmotionalTone   string  `json:"emotional_tone"`
	ImportanceScore float64 `json:"importance_score"`
}

type memoirResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	ConversationID  *string    `json:"conversation_id"`
	Title           string     `json:"title"`
	Content         string     `json:"content"`
	DateOfMemory    *time.Time `json:"date_of_memory"`
	ExtractedAt     time.Time  `json:"extracted_at"`
	TimePeriod      string     `json:"time_period,omitempty"`
	EmotionalTone   string     `json:"emotional_tone,omitempty"`
	ImportanceScore float64    `json:"importance_score"`
}

type memoirListResponse struct {
	Items []memoirResponse `json:"items"`
	Total int              `json:"total"`
}

func (h *Handlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	conversations, err := h.Records.ListConversations(r.Context(), userID)
	if err != nil {
		h.log.InternalError("records.list_conversations failed", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	items := make([]conversationResponse, 0, len(conversations))
	for _, c := range conversations {
		items = append(items, toConversationResponse(c))
	}
	writeJSON(w, http.StatusOK, conversationListResponse{Items: items, Total: len(items)})
}

func (h *Handlers) CreateConversation(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	var req createConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	conversation, err := h.Records.CreateConversation(r.Context(), userID, req.Title)
	if err != nil {
		if errors.Is(err, recordsdomain.ErrInvalidRecord) {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		h.log.InternalError("records.create_conversation failed", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, toConversationResponse(*conversation))
}

func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversation_id")

	messages, err := h.Records.ListMessages(r.Context(), conversationID)
	if err != nil {
		h.log.InternalError("records.list_messages failed", err, "conversation_id", conversationID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	items := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		items = append(items, toMessageResponse(m))
	}
	writeJSON(w, http.StatusOK, messageListResponse{Items: items, Total: len(items)})
}

func (h *Handlers) AppendMessage(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversation_id")

	var req appendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	message, err := h.Records.AppendMessage(r.Context(), recordsdomain.AppendMessageInput{
		ConversationID: conversationID,
		Role:           recordsdomain.Role(req.Role),
		Content:        req.Content,
		HasAudio:       req.HasAudio,
	})
	if err != nil {
		switch {
		case errors.Is(err, recordsdomain.ErrInvalidRecord):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, recordsdomain.ErrConversationNotFound):
			h.log.BusinessError("records.append_message: conversation not found", err, "conversation_id", conversationID)
			writeError(w, http.StatusNotFound, "conversation_not_found", "conversation not found")
		default:
			h.log.InternalError("records.append_message failed", err, "conversation_id", conversationID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toMessageResponse(*message))
}

func (h *Handlers) ListMemoirs(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	memoirs, err := h.Records.ListMemoirs(r.Context(), userID)
	if err != nil {
		h.log.InternalError("records.list_memoirs failed", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	items := make([]memoirResponse, 0, len(memoirs))
	for _, m := range memoirs {
		items = append(items, toMemoirResponse(m))
	}
	writeJSON(w, http.StatusOK, memoirListResponse{Items: items, Total: len(items)})
}

func (h *Handlers) CreateMemoir(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	var req createMemoirRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	memoir, err := h.Records.CreateMemoir(r.Context(), recordsdomain.CreateMemoirInput{
		UserID:          userID,
		ConversationID:  req.ConversationID,
		Title:           req.Title,
		Content:         req.Content,
		TimePeriod:      req.TimePeriod,
		EmotionalTone:   req.EmotionalTone,
		ImportanceScore: req.ImportanceScore,
	})
	if err != nil {
		if errors.Is(err, recordsdomain.ErrInvalidRecord) {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		h.log.InternalError("records.create_memoir failed", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, toMemoirResponse(*memoir))
}

func toConversationResponse(c recordsdomain.Conversation) conversationResponse {
	return conversationResponse{
		ID:            c.ID,
		UserID:        c.UserID,
		Title:         c.Title,
		StartedAt:     c.StartedAt,
		EndedAt:       c.EndedAt,
		IsActive:      c.IsActive,
		TotalMessages: c.TotalMessages,
		Summary:       c.Summary,
	}
}

func toMessageResponse(m recordsdomain.Message) messageResponse {
	return messageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           string(m.Role),
		Content:        m.Content,
		Timestamp:      m.Timestamp,
		MessageOrder:   m.MessageOrder,
		HasAudio:       m.HasAudio,
	}
}

func toMemoirResponse(m recordsdomain.Memoir) memoirResponse {
	return memoirResponse{
		ID:              m.ID,
		UserID:          m.UserID,
		ConversationID:  m.ConversationID,
		Title:           m.Title,
		Content:         m.Content,
		DateOfMemory:    m.DateOfMemory,
		ExtractedAt:     m.ExtractedAt,
		TimePeriod:      m.TimePeriod,
		EmotionalTone:   m.EmotionalTone,
		ImportanceScore: m.ImportanceScore,
	}
}
