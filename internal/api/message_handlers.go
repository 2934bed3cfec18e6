package api

import (
	"net/http"

	"github.com/ecofinds/marketplace-api/internal/auth"
	"github.com/ecofinds/marketplace-api/internal/models"
)

// SendMessageHandler handles POST /api/v1/messages
func (a *App) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		respondError(w, auth.ErrInvalidToken)
		return
	}

	var req models.SendMessageRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	message, err := a.messageService.Send(r.Context(), caller.ID, req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusCreated, map[string]interface{}{"message": message})
}

// ConversationHandler handles GET /api/v1/messages/chat/{userId}
func (a *App) ConversationHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		respondError(w, auth.ErrInvalidToken)
		return
	}

	otherID, err := pathID(r, "userId")
	if err != nil {
		respondError(w, err)
		return
	}

	messages, err := a.messageService.Conversation(r.Context(), caller.ID, otherID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// MarkMessagesReadHandler handles PUT /api/v1/messages/read/{userId}
func (a *App) MarkMessagesReadHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		respondError(w, auth.ErrInvalidToken)
		return
	}

	senderID, err := pathID(r, "userId")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := a.messageService.MarkRead(r.Context(), caller.ID, senderID); err != nil {
		respondError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "Messages marked as read")
}

// UnreadCountHandler handles GET /api/v1/messages/unread
func (a *App) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		respondError(w, auth.ErrInvalidToken)
		return
	}

	count, err := a.messageService.UnreadCount(r.Context(), caller.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{"unreadCount": count})
}
