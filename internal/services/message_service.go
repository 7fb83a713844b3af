package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"campusmart/internal/apperr"
	"campusmart/internal/domain"
	"campusmart/internal/events"
	"campusmart/internal/realtime"
	"campusmart/internal/repos"
	"campusmart/internal/validate"
)

type MessageService struct {
	Messages *repos.MessageRepo
	Users    *repos.UserRepo
	Hub      *realtime.Hub
	Events   Publisher
}

func NewMessageService(messages *repos.MessageRepo, users *repos.UserRepo, hub *realtime.Hub, pub Publisher) *MessageService {
	return &MessageService{Messages: messages, Users: users, Hub: hub, Events: pub}
}

type SendMessageInput struct {
	ReceiverID  string   `json:"receiver_id" validate:"required,rid"`
	Body        string   `json:"body" validate:"max=4000"`
	Attachments []string `json:"attachments" validate:"max=5,dive,required,max=500"`
}

func (s *MessageService) Send(ctx context.Context, senderID string, in SendMessageInput) (*domain.Message, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	body := strings.TrimSpace(in.Body)
	if body == "" && len(in.Attachments) == 0 {
		return nil, apperr.BadRequest("message needs a body or an attachment")
	}
	if in.ReceiverID == senderID {
		return nil, apperr.BadRequest("you cannot message yourself")
	}
	if _, err := s.Users.ByID(ctx, in.ReceiverID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound("receiver")
		}
		return nil, err
	}

	m := &domain.Message{
		ID:             uuid.NewString(),
		ConversationID: domain.ConversationID(senderID, in.ReceiverID),
		SenderID:       senderID,
		ReceiverID:     in.ReceiverID,
		Body:           body,
		Attachments:    nonNil(in.Attachments),
		CreatedAt:      domain.Now(),
	}
	if err := s.Messages.Create(ctx, m); err != nil {
		return nil, err
	}
	if s.Hub != nil {
		s.Hub.Publish(m.ReceiverID, realtime.Event{Kind: realtime.KindMessage, Data: m})
	}
	emit(ctx, s.Events, events.MessageSent, map[string]any{
		"message_id": m.ID, "sender_id": m.SenderID, "receiver_id": m.ReceiverID,
	})
	return m, nil
}

// Conversations lists the caller's threads, flagging partners with an open stream.
func (s *MessageService) Conversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	convs, err := s.Messages.Conversations(ctx, userID)
	if err != nil || s.Hub == nil {
		return convs, err
	}
	for i := range convs {
		convs[i].Online = s.Hub.Online(convs[i].PartnerID)
	}
	return convs, nil
}

// Thread returns the conversation with partnerID and marks what the caller received as read.
func (s *MessageService) Thread(ctx context.Context, userID, partnerID string, page domain.Page) ([]domain.Message, error) {
	if _, ok := validate.ID(partnerID); !ok {
		return nil, apperr.BadRequest("invalid user id")
	}
	conv := domain.ConversationID(userID, partnerID)
	msgs, err := s.Messages.Thread(ctx, conv, page)
	if err != nil {
		return nil, err
	}
	if _, err := s.Messages.MarkRead(ctx, conv, userID); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *MessageService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.Messages.UnreadCount(ctx, userID)
}
