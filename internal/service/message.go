package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/messaging-api/internal/apperror"
	"github.com/sakif/messaging-api/internal/model"
	"github.com/sakif/messaging-api/internal/repository"
)

// MessageService sends messages and reads conversations.
type MessageService struct {
	messages repository.MessageRepository
	logger   *slog.Logger
}

func NewMessageService(messages repository.MessageRepository, logger *slog.Logger) *MessageService {
	return &MessageService{messages: messages, logger: logger}
}

// Send stores one message from sender to receiver.
//
// Id 0 means "not supplied". Any other integer, negative included, is a
// real value and is judged by the existence check.
//
// CHECK ORDER MATTERS. Each rule below is only evaluated when the previous
// one passed, so a request that breaks several rules always gets the same
// error:
//  1. all fields present          → Validation
//  2. sender != receiver          → Domain
//  3. both users exist            → NotFound
//  4. insert
func (s *MessageService) Send(ctx context.Context, senderID, receiverID int64, body string) (*model.Message, error) {
	if senderID == 0 || receiverID == 0 || strings.TrimSpace(body) == "" {
		field := "message"
		switch {
		case senderID == 0:
			field = "sender_user_id"
		case receiverID == 0:
			field = "receiver_user_id"
		}
		return nil, apperror.ValidationFailed(field, "All fields are required.")
	}

	if senderID == receiverID {
		return nil, apperror.DomainRule("sender_user_id and receiver_user_id must be different.")
	}

	found, err := s.messages.ExistingUserIDs(ctx, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("service/message: checking users: %w", err)
	}
	if !found[senderID] || !found[receiverID] {
		return nil, apperror.NotFound("sender_user_id or receiver_user_id does not exist.")
	}

	msg := &model.Message{SenderID: senderID, ReceiverID: receiverID, Body: body}
	if err := s.messages.Insert(ctx, msg); err != nil {
		return nil, fmt.Errorf("service/message: inserting message: %w", err)
	}

	s.logger.DebugContext(ctx, "message sent",
		slog.Int64("messageID", msg.ID),
		slog.Int64("senderID", senderID),
		slog.Int64("receiverID", receiverID),
	)

	return msg, nil
}

// View returns the conversation between a and b, oldest first. Either
// participant may be named first; the result is the same.
//
// Unknown ids, negative ones included, are not an error here: a
// conversation with nobody is empty.
func (s *MessageService) View(ctx context.Context, a, b int64) ([]model.Message, error) {
	if a == 0 || b == 0 {
		field := "user_id_a"
		if a != 0 {
			field = "user_id_b"
		}
		return nil, apperror.ValidationFailed(field, "user_id_a and user_id_b are required.")
	}

	msgs, err := s.messages.ListConversation(ctx, a, b)
	if err != nil {
		return nil, fmt.Errorf("service/message: listing conversation: %w", err)
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}
