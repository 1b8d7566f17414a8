package reconciler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"waconsole/internal/domain/contact"
	"waconsole/internal/domain/message"
	"waconsole/internal/events"
	"waconsole/internal/gateway"
	"waconsole/internal/repository"
	waerrors "waconsole/pkg/errors"
	"waconsole/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProviderGateway is the outbound surface of the messaging provider.
type ProviderGateway interface {
	SendText(ctx context.Context, to, body string) (gateway.SendResult, error)
	SendImage(ctx context.Context, to, link, caption string) (gateway.SendResult, error)
	SendDocument(ctx context.Context, to, link, filename, caption string) (gateway.SendResult, error)
}

// ViewTracker answers whether a contact's conversation is open in at least
// one viewer, to suppress unread increments.
type ViewTracker interface {
	IsBeingViewed(ctx context.Context, contactID uuid.UUID) (bool, error)
}

// Reconciler is the ordering and dedup engine between webhook deliveries,
// operator sends, the store and the broadcaster. It owns no storage; it
// enforces the invariants between the components it orchestrates:
// at most one persisted message per provider external id, and publish only
// ever after a successful append.
type Reconciler struct {
	db          *gorm.DB
	contactRepo repository.ContactRepository
	messageRepo repository.MessageRepository
	productRepo repository.ProductRepository
	gateway     ProviderGateway
	tracker     ViewTracker
	bus         events.Bus
	log         *logger.Logger
}

// SendIntent is an operator request to send a message. It is ephemeral:
// consumed synchronously and discarded once the message is persisted or the
// attempt failed.
type SendIntent struct {
	ContactID uuid.UUID
	Kind      string // "" means text
	Text      string
	MediaURL  string
	Filename  string
	ProductID *uuid.UUID
	ReplyToID *uuid.UUID
	// CorrelationID is a client-generated id echoed back in the broadcast
	// payload so the sending viewer can replace its optimistic placeholder.
	CorrelationID string
}

func New(
	db *gorm.DB,
	contactRepo repository.ContactRepository,
	messageRepo repository.MessageRepository,
	productRepo repository.ProductRepository,
	gw ProviderGateway,
	tracker ViewTracker,
	bus events.Bus,
	log *logger.Logger,
) *Reconciler {
	return &Reconciler{
		db:          db,
		contactRepo: contactRepo,
		messageRepo: messageRepo,
		productRepo: productRepo,
		gateway:     gw,
		tracker:     tracker,
		bus:         bus,
		log:         log,
	}
}

// HandleInbound processes one webhook delivery. It returns nil for
// payloads that need no work (status updates, duplicates) so the handler
// can acknowledge them; a non-nil error means the ack must be withheld and
// the provider will redeliver. Redelivery of the full sequence is safe:
// the external-id gate turns it into a no-op.
func (r *Reconciler) HandleInbound(ctx context.Context, raw []byte) error {
	inbound, err := gateway.Normalize(raw)
	if err != nil {
		return err
	}
	if inbound == nil {
		return nil
	}

	// Dedup gate. Every other side effect below is derived strictly
	// downstream of this check.
	if _, err := r.messageRepo.GetByExternalID(ctx, inbound.ExternalID); err == nil {
		if r.log != nil {
			r.log.Infof("duplicate webhook delivery for %s, ignoring", inbound.ExternalID)
		}
		return nil
	} else if !errors.Is(err, waerrors.ErrNotFound) {
		return fmt.Errorf("%w: %v", waerrors.ErrPersistence, err)
	}

	ct, err := r.contactRepo.UpsertByPhone(ctx, inbound.SenderPhone, inbound.SenderName)
	if err != nil {
		return fmt.Errorf("%w: %v", waerrors.ErrPersistence, err)
	}

	quoted := r.resolveQuotedByExternalID(ctx, inbound.QuotedExternalID)

	msg := message.Message{
		ID:          uuid.New(),
		ContactID:   ct.ID,
		Sender:      inbound.SenderPhone,
		Recipient:   message.SenderBusiness,
		Kind:        inbound.Kind,
		Text:        nullString(firstNonEmpty(inbound.Text, inbound.Caption)),
		MediaURL:    nullString(inbound.MediaURL),
		ReplyToText: nullString(quoted),
		ExternalID:  nullString(inbound.ExternalID),
	}

	viewed := r.isBeingViewed(ctx, ct.ID)

	err = r.withTx(ctx, func(contacts repository.ContactRepository, messages repository.MessageRepository) error {
		if err := messages.Create(ctx, &msg); err != nil {
			return err
		}
		if viewed {
			return contacts.TouchActivity(ctx, ct.ID)
		}
		return contacts.IncrementUnread(ctx, ct.ID)
	})
	if err != nil {
		// A concurrent retry won the insert race; the unique index on
		// external id makes this delivery a duplicate after all.
		if errors.Is(err, waerrors.ErrAlreadyExists) {
			return nil
		}
		return fmt.Errorf("%w: %v", waerrors.ErrPersistence, err)
	}

	r.publishAppend(ctx, msg, "")
	return nil
}

// SendMessage executes an outbound send intent: validate, resolve
// collaborators, call the provider, then persist and broadcast. Nothing is
// persisted when the provider call fails, so the operator can resubmit the
// same intent safely.
func (r *Reconciler) SendMessage(ctx context.Context, intent SendIntent) (message.Message, error) {
	if intent.ContactID == uuid.Nil {
		return message.Message{}, waerrors.ErrInvalidInput
	}
	if intent.Text == "" && intent.MediaURL == "" && intent.ProductID == nil {
		return message.Message{}, waerrors.ErrInvalidInput
	}

	ct, err := r.contactRepo.GetByID(ctx, intent.ContactID)
	if err != nil {
		return message.Message{}, err
	}

	msg := message.Message{
		ID:        uuid.New(),
		ContactID: ct.ID,
		Sender:    message.SenderBusiness,
		Recipient: ct.Phone,
		Kind:      intent.Kind,
		Text:      nullString(intent.Text),
		MediaURL:  nullString(intent.MediaURL),
	}
	if msg.Kind == "" {
		msg.Kind = message.KindText
	}

	if intent.ReplyToID != nil {
		msg.ReplyToText = nullString(r.resolveQuotedByID(ctx, *intent.ReplyToID))
	}

	var result gateway.SendResult
	if intent.ProductID != nil {
		result, err = r.sendProductCard(ctx, ct, *intent.ProductID, &msg)
	} else {
		result, err = r.sendPlain(ctx, ct, msg)
	}
	if err != nil {
		return message.Message{}, err
	}
	msg.ExternalID = nullString(result.ExternalID)

	err = r.withTx(ctx, func(contacts repository.ContactRepository, messages repository.MessageRepository) error {
		if err := messages.Create(ctx, &msg); err != nil {
			return err
		}
		return contacts.TouchActivity(ctx, ct.ID)
	})
	if err != nil {
		// The provider already accepted the send; surface the gap instead
		// of hiding it.
		if r.log != nil {
			r.log.Errorf("message %s sent to provider but not persisted: %v", result.ExternalID, err)
		}
		return message.Message{}, fmt.Errorf("%w: %v", waerrors.ErrPersistence, err)
	}

	r.publishAppend(ctx, msg, intent.CorrelationID)
	return msg, nil
}

func (r *Reconciler) sendPlain(ctx context.Context, ct contact.Contact, msg message.Message) (gateway.SendResult, error) {
	switch msg.Kind {
	case message.KindImage:
		return r.gateway.SendImage(ctx, ct.Phone, msg.MediaURL.String, msg.Text.String)
	case message.KindDocument:
		return r.gateway.SendDocument(ctx, ct.Phone, msg.MediaURL.String, "", msg.Text.String)
	default:
		return r.gateway.SendText(ctx, ct.Phone, msg.Text.String)
	}
}

// sendProductCard resolves the product and delivers it as two sequential
// provider messages: the lead image, then the card text. The card's
// external id is the id of the final send.
func (r *Reconciler) sendProductCard(ctx context.Context, ct contact.Contact, productID uuid.UUID, msg *message.Message) (gateway.SendResult, error) {
	p, err := r.productRepo.GetByID(ctx, productID)
	if err != nil {
		return gateway.SendResult{}, err
	}

	images := p.ImageList()
	msg.Kind = message.KindProduct
	msg.Text = nullString(p.Name)
	msg.Price = sql.NullFloat64{Float64: p.Price, Valid: true}
	msg.MediaURL = nullString(strings.Join(images, ","))

	if len(images) > 0 {
		if _, err := r.gateway.SendImage(ctx, ct.Phone, images[0], p.Name); err != nil {
			return gateway.SendResult{}, err
		}
	}

	card := p.Name
	if p.Description.Valid && p.Description.String != "" {
		card += "\n" + p.Description.String
	}
	card += fmt.Sprintf("\nPrice: %.2f", p.Price)

	return r.gateway.SendText(ctx, ct.Phone, card)
}

// AppendLocal records a business-side note in the conversation without a
// provider send: payment outcomes and similar system events. The row is
// persisted and broadcast exactly like any other append.
func (r *Reconciler) AppendLocal(ctx context.Context, contactID uuid.UUID, text string) (message.Message, error) {
	if contactID == uuid.Nil || text == "" {
		return message.Message{}, waerrors.ErrInvalidInput
	}

	ct, err := r.contactRepo.GetByID(ctx, contactID)
	if err != nil {
		return message.Message{}, err
	}

	msg := message.Message{
		ID:        uuid.New(),
		ContactID: ct.ID,
		Sender:    message.SenderBusiness,
		Recipient: ct.Phone,
		Kind:      message.KindText,
		Text:      nullString(text),
	}

	err = r.withTx(ctx, func(contacts repository.ContactRepository, messages repository.MessageRepository) error {
		if err := messages.Create(ctx, &msg); err != nil {
			return err
		}
		return contacts.TouchActivity(ctx, ct.ID)
	})
	if err != nil {
		return message.Message{}, fmt.Errorf("%w: %v", waerrors.ErrPersistence, err)
	}

	r.publishAppend(ctx, msg, "")
	return msg, nil
}

// DeleteMessage removes a message from the log ("delete for me").
func (r *Reconciler) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	return r.messageRepo.Delete(ctx, id)
}

// ListMessages returns the contact's conversation in canonical order.
func (r *Reconciler) ListMessages(ctx context.Context, contactID uuid.UUID) ([]message.Message, error) {
	if _, err := r.contactRepo.GetByID(ctx, contactID); err != nil {
		return nil, err
	}
	return r.messageRepo.ListByContact(ctx, contactID)
}

func (r *Reconciler) resolveQuotedByExternalID(ctx context.Context, externalID string) string {
	if externalID == "" {
		return ""
	}
	quoted, err := r.messageRepo.GetByExternalID(ctx, externalID)
	if err != nil || !quoted.Text.Valid || quoted.Text.String == "" {
		return message.QuotedFallback
	}
	return quoted.Text.String
}

func (r *Reconciler) resolveQuotedByID(ctx context.Context, id uuid.UUID) string {
	quoted, err := r.messageRepo.GetByID(ctx, id)
	if err != nil || !quoted.Text.Valid || quoted.Text.String == "" {
		return message.QuotedFallback
	}
	return quoted.Text.String
}

func (r *Reconciler) isBeingViewed(ctx context.Context, contactID uuid.UUID) bool {
	if r.tracker == nil {
		return false
	}
	viewed, err := r.tracker.IsBeingViewed(ctx, contactID)
	if err != nil {
		if r.log != nil {
			r.log.Warnf("presence lookup failed for contact %s: %v", contactID, err)
		}
		return false
	}
	return viewed
}

// publishAppend broadcasts a persisted message plus the refreshed contact
// preview. Broadcast failures never undo the store write that already
// succeeded; they are logged and swallowed.
func (r *Reconciler) publishAppend(ctx context.Context, msg message.Message, correlationID string) {
	if r.bus == nil {
		return
	}

	if err := r.bus.Publish(ctx, events.Event{
		Type:          events.EventNewMessage,
		ContactID:     msg.ContactID,
		CorrelationID: correlationID,
		Message:       &msg,
	}); err != nil && r.log != nil {
		r.log.Warnf("broadcast of message %s failed: %v", msg.ID, err)
	}

	ct, err := r.contactRepo.GetByID(ctx, msg.ContactID)
	if err != nil {
		return
	}
	if err := r.bus.Publish(ctx, events.Event{
		Type:      events.EventContactUpdated,
		ContactID: ct.ID,
		Contact:   &ct,
		Message:   &msg,
	}); err != nil && r.log != nil {
		r.log.Warnf("contact preview broadcast for %s failed: %v", ct.ID, err)
	}
}

// withTx runs fn inside one transaction so an inbound append and its
// unread/activity bump land atomically. Without a db handle (tests) it
// runs against the injected repositories directly.
func (r *Reconciler) withTx(ctx context.Context, fn func(repository.ContactRepository, repository.MessageRepository) error) error {
	if r.db == nil {
		return fn(r.contactRepo, r.messageRepo)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repository.NewContactRepository(tx), repository.NewMessageRepository(tx))
	})
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
