package services

import (
	"context"
	"errors"

	"waconsole/internal/domain/contact"
	"waconsole/internal/domain/message"
	"waconsole/internal/events"
	"waconsole/internal/repository"
	waerrors "waconsole/pkg/errors"
	"waconsole/pkg/logger"

	"github.com/google/uuid"
)

// ContactPreview is one sidebar row: the contact summary plus its most
// recent message.
type ContactPreview struct {
	contact.Contact
	LastMessage *message.Message
}

// ContactService exposes the conversation sidebar: contact summaries with
// unread counts, ordered by recency in the repository.
type ContactService struct {
	contacts repository.ContactRepository
	messages repository.MessageRepository
	bus      events.Bus
	log      *logger.Logger
}

func NewContactService(contacts repository.ContactRepository, messages repository.MessageRepository, bus events.Bus, log *logger.Logger) *ContactService {
	return &ContactService{contacts: contacts, messages: messages, bus: bus, log: log}
}

func (s *ContactService) List(ctx context.Context) ([]ContactPreview, error) {
	contacts, err := s.contacts.List(ctx)
	if err != nil {
		return nil, err
	}

	previews := make([]ContactPreview, 0, len(contacts))
	for _, ct := range contacts {
		preview := ContactPreview{Contact: ct}
		last, err := s.messages.LastByContact(ctx, ct.ID)
		if err == nil {
			preview.LastMessage = &last
		} else if !errors.Is(err, waerrors.ErrNotFound) {
			return nil, err
		}
		previews = append(previews, preview)
	}
	return previews, nil
}

func (s *ContactService) Get(ctx context.Context, id uuid.UUID) (contact.Contact, error) {
	return s.contacts.GetByID(ctx, id)
}

// MarkRead clears the unread counter and pushes the refreshed preview to
// every connected viewer so all sidebars converge.
func (s *ContactService) MarkRead(ctx context.Context, id uuid.UUID) error {
	if err := s.contacts.ResetUnread(ctx, id); err != nil {
		return err
	}

	ct, err := s.contacts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if s.bus != nil {
		if err := s.bus.Publish(ctx, events.Event{
			Type:      events.EventContactUpdated,
			ContactID: ct.ID,
			Contact:   &ct,
		}); err != nil && s.log != nil {
			s.log.Warnf("contact preview broadcast for %s failed: %v", ct.ID, err)
		}
	}
	return nil
}
