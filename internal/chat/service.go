package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/careport/clinic-booking/internal/identity"
)

var ErrEmptyMessage = errors.New("message content is empty")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ResolveChannelOwner picks the channel a message or join targets. Patients
// always land on their own channel; staff may address any patient's channel
// and fall back to their own when no target is given.
func ResolveChannelOwner(sender identity.Identity, target *uuid.UUID) uuid.UUID {
	if sender.IsStaff() && target != nil {
		return *target
	}
	return sender.UserID
}

// Save persists one message on the resolved channel.
func (s *Service) Save(ctx context.Context, sender identity.Identity, target *uuid.UUID, content string) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	msg, err := s.repo.InsertMessage(ctx, Message{
		ChannelOwnerID: ResolveChannelOwner(sender, target),
		SenderID:       sender.UserID,
		Content:        content,
	})
	if err != nil {
		return nil, fmt.Errorf("insert chat message: %w", err)
	}
	return msg, nil
}

// History returns a channel's messages oldest first. Patients always read
// their own channel; the requested target only matters for staff.
func (s *Service) History(ctx context.Context, requester identity.Identity, target uuid.UUID) ([]Message, error) {
	owner := target
	if !requester.IsStaff() {
		owner = requester.UserID
	}

	msgs, err := s.repo.ListMessagesForChannel(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return msgs, nil
}
