package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hivedesk/hivedesk-backend/internal/apperr"
	"github.com/hivedesk/hivedesk-backend/internal/middleware"
	"github.com/hivedesk/hivedesk-backend/internal/services"
)

// DirectHandler serves the one-to-one messaging endpoints.
type DirectHandler struct {
	direct *services.DirectService
}

func NewDirectHandler(direct *services.DirectService) *DirectHandler {
	return &DirectHandler{direct: direct}
}

// ListConversations handles GET /api/direct/conversations: every
// reachable peer with unread count and last message, unread first.
func (h *DirectHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.Unauthorized("missing session token"))
		return
	}

	convs, err := h.direct.ListConversations(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"conversations": convs})
}

// ListMessages handles GET /api/direct/{userID}/messages. Fetching a page
// marks the peer's messages to the caller as read.
func (h *DirectHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.Unauthorized("missing session token"))
		return
	}

	before, limit := pageParams(r)
	msgs, hasMore, err := h.direct.ListMessages(r.Context(), p, chi.URLParam(r, "userID"), before, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messagePageResponse{Messages: msgs, HasMore: hasMore})
}

// SendMessage handles POST /api/direct/{userID}/messages.
func (h *DirectHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.Unauthorized("missing session token"))
		return
	}

	var in services.SendMessageInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}

	msg, err := h.direct.Send(r.Context(), p, chi.URLParam(r, "userID"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// EditMessage handles PUT /api/direct/messages/{messageID}.
func (h *DirectHandler) EditMessage(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.Unauthorized("missing session token"))
		return
	}

	var in editMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}

	msg, err := h.direct.EditMessage(r.Context(), p, chi.URLParam(r, "messageID"), in.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// DeleteMessage handles DELETE /api/direct/messages/{messageID}.
func (h *DirectHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.Unauthorized("missing session token"))
		return
	}

	if err := h.direct.DeleteMessage(r.Context(), p, chi.URLParam(r, "messageID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "message deleted"})
}
