package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hivedesk/hivedesk-backend/internal/apperr"
	"github.com/hivedesk/hivedesk-backend/internal/middleware"
	"github.com/hivedesk/hivedesk-backend/internal/services"
)

// GroupHandler serves the group conversation endpoints.
type GroupHandler struct {
	groups *services.GroupService
}

func NewGroupHandler(groups *services.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

type messagePageResponse struct {
	Messages interface{} `json:"messages"`
	HasMore  bool        `json:"has_more"`
}

type editMessageRequest struct {
	Text string `json:"text"`
}

// CreateGroup handles POST /api/groups.
func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.Unauthorized("missing session token"))
		return
	}

	var in services.CreateGroupInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}

	g, err := h.groups.CreateGroup(r.Context(), p, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// ListGroups handles GET /api/groups: the caller's groups, most recently
// active first, each with unread count and last message.
func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.Unauthorized("missing session token"))
		return
	}

	groups, err := h.groups.ListMine(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"groups": groups})
}

// GetGroup handles GET /api/groups/{groupID}.
func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.Unauthorized("missing session token"))
		return
	}

	g, err := h.groups.GetGroup(r.Context(), p, chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// UpdateGroup handles PUT /api/groups/{groupID}: metadata plus the full
// reconciled member list.
func (h *GroupHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.Unauthorized("missing session token"))
		return
	}

	var in services.UpdateGroupInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}

	g, err := h.groups.UpdateGroup(r.Context(), p, chi.URLParam(r, "groupID"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// DeleteGroup handles DELETE /api/groups/{groupID}: soft-deletes the
// conversation and its messages.
func (h *GroupHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.Unauthorized("missing session token"))
		return
	}

	if err := h.groups.DeleteGroup(r.Context(), p, chi.URLParam(r, "groupID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "group deleted"})
}

// LeaveGroup handles POST /api/groups/{groupID}/leave.
func (h *GroupHandler) LeaveGroup(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.Unauthorized("missing session token"))
		return
	}

	if err := h.groups.LeaveGroup(r.Context(), p, chi.URLParam(r, "groupID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "left group"})
}

// SetMuted handles PUT /api/groups/{groupID}/mute.
func (h *GroupHandler) SetMuted(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.Unauthorized("missing session token"))
		return
	}

	var in struct {
		Muted bool `json:"muted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}

	if err := h.groups.SetMuted(r.Context(), p, chi.URLParam(r, "groupID"), in.Muted); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "mute updated"})
}

// ListMessages handles GET /api/groups/{groupID}/messages. Fetching a
// page also resets the caller's unread counter.
func (h *GroupHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.Unauthorized("missing session token"))
		return
	}

	before, limit := pageParams(r)
	msgs, hasMore, err := h.groups.ListMessages(r.Context(), p, chi.URLParam(r, "groupID"), before, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messagePageResponse{Messages: msgs, HasMore: hasMore})
}

// SendMessage handles POST /api/groups/{groupID}/messages.
func (h *GroupHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
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

	msg, err := h.groups.SendMessage(r.Context(), p, chi.URLParam(r, "groupID"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// EditMessage handles PUT /api/groups/{groupID}/messages/{messageID}.
func (h *GroupHandler) EditMessage(w http.ResponseWriter, r *http.Request) {
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

	msg, err := h.groups.EditMessage(r.Context(), p, chi.URLParam(r, "groupID"), chi.URLParam(r, "messageID"), in.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// DeleteMessage handles DELETE /api/groups/{groupID}/messages/{messageID}.
func (h *GroupHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, apperr.Unauthorized("missing session token"))
		return
	}

	if err := h.groups.DeleteMessage(r.Context(), p, chi.URLParam(r, "groupID"), chi.URLParam(r, "messageID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "message deleted"})
}
