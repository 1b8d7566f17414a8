package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"waconsole/internal/domain/message"
	"waconsole/internal/domain/quotation"
	"waconsole/internal/reconciler"
	"waconsole/internal/repository"
	waerrors "waconsole/pkg/errors"
	"waconsole/pkg/logger"

	"github.com/google/uuid"
)

// MediaUploader hosts rendered quotation images somewhere the messaging
// provider can fetch them.
type MediaUploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// QuotationService builds quotations and delivers them to the customer as an
// image plus a payment link.
type QuotationService struct {
	quotations repository.QuotationRepository
	products   repository.ProductRepository
	contacts   repository.ContactRepository
	renderer   QuotationRenderer
	uploader   MediaUploader
	payments   PaymentLinker
	sender     *reconciler.Reconciler
	log        *logger.Logger
}

func NewQuotationService(
	quotations repository.QuotationRepository,
	products repository.ProductRepository,
	contacts repository.ContactRepository,
	renderer QuotationRenderer,
	uploader MediaUploader,
	payments PaymentLinker,
	sender *reconciler.Reconciler,
	log *logger.Logger,
) *QuotationService {
	return &QuotationService{
		quotations: quotations,
		products:   products,
		contacts:   contacts,
		renderer:   renderer,
		uploader:   uploader,
		payments:   payments,
		sender:     sender,
		log:        log,
	}
}

// QuotationInput carries the fields of a new quotation.
type QuotationInput struct {
	CustomerName  string
	ContactNumber string
	Address       string
	ProductID     uuid.UUID
	Quantity      int
}

// Create validates the input, upserts the customer as a contact and persists
// the quotation with the total computed from the product's current price.
func (s *QuotationService) Create(ctx context.Context, input QuotationInput) (quotation.Quotation, error) {
	if strings.TrimSpace(input.CustomerName) == "" || strings.TrimSpace(input.ContactNumber) == "" {
		return quotation.Quotation{}, waerrors.ErrInvalidInput
	}
	if input.ProductID == uuid.Nil || input.Quantity <= 0 {
		return quotation.Quotation{}, waerrors.ErrInvalidInput
	}

	p, err := s.products.GetByID(ctx, input.ProductID)
	if err != nil {
		return quotation.Quotation{}, err
	}

	ct, err := s.contacts.UpsertByPhone(ctx, strings.TrimSpace(input.ContactNumber), strings.TrimSpace(input.CustomerName))
	if err != nil {
		return quotation.Quotation{}, err
	}
	if addr := strings.TrimSpace(input.Address); addr != "" {
		if err := s.contacts.UpdateLastAddress(ctx, ct.ID, addr); err != nil && s.log != nil {
			s.log.Warnf("updating last address for contact %s failed: %v", ct.ID, err)
		}
	}

	q := quotation.Quotation{
		ID:            uuid.New(),
		CustomerName:  strings.TrimSpace(input.CustomerName),
		ContactNumber: ct.Phone,
		Address:       nullStringOf(input.Address),
		ProductID:     p.ID,
		ContactID:     ct.ID,
		Quantity:      input.Quantity,
		Price:         p.Price,
		Total:         p.Price * float64(input.Quantity),
	}
	if err := s.quotations.Create(ctx, &q); err != nil {
		return quotation.Quotation{}, err
	}
	return q, nil
}

func (s *QuotationService) Get(ctx context.Context, id uuid.UUID) (quotation.Quotation, error) {
	return s.quotations.GetByID(ctx, id)
}

func (s *QuotationService) List(ctx context.Context) ([]quotation.Quotation, error) {
	return s.quotations.List(ctx)
}

// Send renders the quotation, hosts the image, creates a payment link and
// delivers both to the customer's conversation. The quotation itself is
// already persisted; a failed send leaves no message behind and can be
// retried.
func (s *QuotationService) Send(ctx context.Context, id uuid.UUID) error {
	q, err := s.quotations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	p, err := s.products.GetByID(ctx, q.ProductID)
	if err != nil {
		return err
	}

	img, err := s.renderer.Render(ctx, q, p.Name)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("quotations/%s.png", q.ID)
	imageURL, err := s.uploader.Upload(ctx, key, img, "image/png")
	if err != nil {
		return fmt.Errorf("hosting quotation image: %w", err)
	}

	link, err := s.payments.CreateLink(ctx, q.Total, "Quotation for "+p.Name, q.CustomerName, q.ContactNumber)
	if err != nil {
		return err
	}
	// Recorded before the sends so a provider webhook can always find the
	// quotation, even if delivery below fails and is retried.
	if err := s.quotations.SetPaymentLink(ctx, q.ID, link.ID); err != nil {
		return err
	}

	if _, err := s.sender.SendMessage(ctx, reconciler.SendIntent{
		ContactID: q.ContactID,
		Kind:      message.KindImage,
		Text:      "Quotation for " + p.Name,
		MediaURL:  imageURL,
	}); err != nil {
		return err
	}

	_, err = s.sender.SendMessage(ctx, reconciler.SendIntent{
		ContactID: q.ContactID,
		Text:      fmt.Sprintf("Total: %.2f\nPay here: %s", q.Total, link.ShortURL),
	})
	return err
}

// ApplyPaymentOutcome records a provider payment event against the
// quotation that issued the link and appends the outcome to the customer's
// conversation so the operator sees it in the thread.
func (s *QuotationService) ApplyPaymentOutcome(ctx context.Context, linkID, paymentID, status string) error {
	q, err := s.quotations.GetByPaymentLinkID(ctx, linkID)
	if err != nil {
		return err
	}
	if err := s.quotations.UpdatePayment(ctx, q.ID, paymentID, status); err != nil {
		return err
	}

	text := fmt.Sprintf("Payment received for quotation %s. Thank you!", q.ID)
	if status != quotation.PaymentStatusPaid {
		text = fmt.Sprintf("Payment for quotation %s failed. Please try again.", q.ID)
	}

	_, err = s.sender.AppendLocal(ctx, q.ContactID, text)
	return err
}

func nullStringOf(value string) sql.NullString {
	value = strings.TrimSpace(value)
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
