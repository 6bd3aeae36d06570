package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/messaging-api/internal/model"
	"github.com/sakif/messaging-api/internal/service"
)

// MessageHandler serves sending and reading direct messages.
type MessageHandler struct {
	messages *service.MessageService
	logger   *slog.Logger
}

func NewMessageHandler(messages *service.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, logger: logger}
}

type sendMessageRequest struct {
	SenderID   flexID `json:"sender_user_id"`
	ReceiverID flexID `json:"receiver_user_id"`
	Message    string `json:"message"`
}

// SuccessResponse is the envelope for operations that return no data.
type SuccessResponse struct {
	Code    int    `json:"success_code"`
	Title   string `json:"success_title"`
	Message string `json:"success_message"`
}

type messagesResponse struct {
	Messages []model.Message `json:"messages"`
}

// HandleView returns the conversation between two users, oldest first.
//
// HTTP: GET /view_messages?user_id_a=<int>&user_id_b=<int>
//
// LEGACY ALIASES:
// Older clients send user_id_sender / user_id_receiver. An alias is only
// consulted when the primary key is absent from the query entirely, so
// ?user_id_a=&user_id_sender=3 is still "user_id_a missing".
func (h *MessageHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	a, err := queryIDWithAlias(r, "user_id_a", "user_id_sender")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	b, err := queryIDWithAlias(r, "user_id_b", "user_id_receiver")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	msgs, err := h.messages.View(r.Context(), a, b)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, messagesResponse{Messages: msgs})
}

// HandleSend stores a message.
//
// HTTP: POST /send_message
// REQUEST BODY: {"sender_user_id","receiver_user_id","message"}
// RESPONSE: 200 {"success_code":200,"success_title":"Message Sent",...}
func (h *MessageHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	req := sendMessageRequest{
		SenderID:   flexID{field: "sender_user_id"},
		ReceiverID: flexID{field: "receiver_user_id"},
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if _, err := h.messages.Send(r.Context(), req.SenderID.value, req.ReceiverID.value, req.Message); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{
		Code:    http.StatusOK,
		Title:   "Message Sent",
		Message: "Message was sent successfully",
	})
}

func queryIDWithAlias(r *http.Request, key, alias string) (int64, error) {
	id, present, err := queryID(r, key)
	if err != nil || present {
		return id, err
	}
	id, _, err = queryID(r, alias)
	return id, err
}
