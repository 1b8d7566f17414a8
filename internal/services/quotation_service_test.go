package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"waconsole/internal/domain/contact"
	"waconsole/internal/domain/message"
	"waconsole/internal/domain/product"
	"waconsole/internal/domain/quotation"
	"waconsole/internal/gateway"
	"waconsole/internal/reconciler"
	waerrors "waconsole/pkg/errors"

	"github.com/google/uuid"
)

type memContacts struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*contact.Contact
	addresses map[uuid.UUID]string
}

func newMemContacts() *memContacts {
	return &memContacts{
		byID:      make(map[uuid.UUID]*contact.Contact),
		addresses: make(map[uuid.UUID]string),
	}
}

func (r *memContacts) UpsertByPhone(ctx context.Context, phone, name string) (contact.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ct := range r.byID {
		if ct.Phone == phone {
			return *ct, nil
		}
	}
	ct := &contact.Contact{ID: uuid.New(), Phone: phone, Name: name}
	r.byID[ct.ID] = ct
	return *ct, nil
}

func (r *memContacts) GetByID(ctx context.Context, id uuid.UUID) (contact.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ct, ok := r.byID[id]
	if !ok {
		return contact.Contact{}, waerrors.ErrNotFound
	}
	return *ct, nil
}

func (r *memContacts) GetByPhone(ctx context.Context, phone string) (contact.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ct := range r.byID {
		if ct.Phone == phone {
			return *ct, nil
		}
	}
	return contact.Contact{}, waerrors.ErrNotFound
}

func (r *memContacts) List(ctx context.Context) ([]contact.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	contacts := make([]contact.Contact, 0, len(r.byID))
	for _, ct := range r.byID {
		contacts = append(contacts, *ct)
	}
	return contacts, nil
}

func (r *memContacts) IncrementUnread(ctx context.Context, id uuid.UUID) error { return nil }

func (r *memContacts) ResetUnread(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ct, ok := r.byID[id]
	if !ok {
		return waerrors.ErrNotFound
	}
	ct.UnreadCount = 0
	return nil
}

func (r *memContacts) TouchActivity(ctx context.Context, id uuid.UUID) error { return nil }

func (r *memContacts) UpdateLastAddress(ctx context.Context, id uuid.UUID, address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addresses[id] = address
	return nil
}

type memMessages struct {
	mu       sync.Mutex
	messages []message.Message
}

func (r *memMessages) Create(ctx context.Context, m *message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, *m)
	return nil
}

func (r *memMessages) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	return message.Message{}, waerrors.ErrNotFound
}

func (r *memMessages) GetByExternalID(ctx context.Context, externalID string) (message.Message, error) {
	return message.Message{}, waerrors.ErrNotFound
}

func (r *memMessages) ListByContact(ctx context.Context, contactID uuid.UUID) ([]message.Message, error) {
	return nil, nil
}

func (r *memMessages) LastByContact(ctx context.Context, contactID uuid.UUID) (message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].ContactID == contactID {
			return r.messages[i], nil
		}
	}
	return message.Message{}, waerrors.ErrNotFound
}

func (r *memMessages) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (r *memMessages) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

type memProducts struct {
	byID map[uuid.UUID]product.Product
}

func (r *memProducts) Create(ctx context.Context, p *product.Product) error {
	r.byID[p.ID] = *p
	return nil
}

func (r *memProducts) GetByID(ctx context.Context, id uuid.UUID) (product.Product, error) {
	p, ok := r.byID[id]
	if !ok {
		return product.Product{}, waerrors.ErrNotFound
	}
	return p, nil
}

func (r *memProducts) List(ctx context.Context) ([]product.Product, error) {
	var out []product.Product
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out, nil
}

func (r *memProducts) Update(ctx context.Context, p product.Product) error {
	if _, ok := r.byID[p.ID]; !ok {
		return waerrors.ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *memProducts) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.byID, id)
	return nil
}

type memQuotations struct {
	byID map[uuid.UUID]quotation.Quotation
}

func (r *memQuotations) Create(ctx context.Context, q *quotation.Quotation) error {
	r.byID[q.ID] = *q
	return nil
}

func (r *memQuotations) GetByID(ctx context.Context, id uuid.UUID) (quotation.Quotation, error) {
	q, ok := r.byID[id]
	if !ok {
		return quotation.Quotation{}, waerrors.ErrNotFound
	}
	return q, nil
}

func (r *memQuotations) GetByPaymentLinkID(ctx context.Context, linkID string) (quotation.Quotation, error) {
	for _, q := range r.byID {
		if q.PaymentLinkID.Valid && q.PaymentLinkID.String == linkID {
			return q, nil
		}
	}
	return quotation.Quotation{}, waerrors.ErrNotFound
}

func (r *memQuotations) List(ctx context.Context) ([]quotation.Quotation, error) { return nil, nil }

func (r *memQuotations) SetPaymentLink(ctx context.Context, id uuid.UUID, linkID string) error {
	q, ok := r.byID[id]
	if !ok {
		return waerrors.ErrNotFound
	}
	q.PaymentLinkID = sql.NullString{String: linkID, Valid: true}
	q.PaymentStatus = quotation.PaymentStatusCreated
	r.byID[id] = q
	return nil
}

func (r *memQuotations) UpdatePayment(ctx context.Context, id uuid.UUID, paymentID, status string) error {
	q, ok := r.byID[id]
	if !ok {
		return waerrors.ErrNotFound
	}
	q.PaymentID = sql.NullString{String: paymentID, Valid: true}
	q.PaymentStatus = status
	r.byID[id] = q
	return nil
}

type stubGateway struct {
	mu    sync.Mutex
	sends []string
	seq   int
}

func (g *stubGateway) next(payload string) (gateway.SendResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sends = append(g.sends, payload)
	g.seq++
	return gateway.SendResult{ExternalID: fmt.Sprintf("wamid.q.%d", g.seq)}, nil
}

func (g *stubGateway) SendText(ctx context.Context, to, body string) (gateway.SendResult, error) {
	return g.next("text:" + body)
}

func (g *stubGateway) SendImage(ctx context.Context, to, link, caption string) (gateway.SendResult, error) {
	return g.next("image:" + link)
}

func (g *stubGateway) SendDocument(ctx context.Context, to, link, filename, caption string) (gateway.SendResult, error) {
	return g.next("document:" + link)
}

type stubRenderer struct {
	img []byte
	err error
}

func (r *stubRenderer) Render(ctx context.Context, q quotation.Quotation, productName string) ([]byte, error) {
	return r.img, r.err
}

type stubUploader struct {
	key string
	url string
}

func (u *stubUploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	u.key = key
	u.url = "https://media.example.com/" + key
	return u.url, nil
}

type stubPayments struct {
	amount float64
	url    string
	err    error
}

func (p *stubPayments) CreateLink(ctx context.Context, amount float64, description, customerName, customerPhone string) (PaymentLink, error) {
	if p.err != nil {
		return PaymentLink{}, p.err
	}
	p.amount = amount
	p.url = "https://rzp.io/l/abc"
	return PaymentLink{ID: "plink_1", ShortURL: p.url}, nil
}

type quotationFixture struct {
	svc        *QuotationService
	contacts   *memContacts
	messages   *memMessages
	products   *memProducts
	quotations *memQuotations
	gateway    *stubGateway
	renderer   *stubRenderer
	uploader   *stubUploader
	payments   *stubPayments
}

func newQuotationFixture() *quotationFixture {
	f := &quotationFixture{
		contacts:   newMemContacts(),
		messages:   &memMessages{},
		products:   &memProducts{byID: make(map[uuid.UUID]product.Product)},
		quotations: &memQuotations{byID: make(map[uuid.UUID]quotation.Quotation)},
		gateway:    &stubGateway{},
		renderer:   &stubRenderer{img: []byte("png-bytes")},
		uploader:   &stubUploader{},
		payments:   &stubPayments{},
	}
	rec := reconciler.New(nil, f.contacts, f.messages, f.products, f.gateway, nil, nil, nil)
	f.svc = NewQuotationService(f.quotations, f.products, f.contacts, f.renderer, f.uploader, f.payments, rec, nil)
	return f
}

func (f *quotationFixture) seedProduct(name string, price float64) product.Product {
	p := product.Product{ID: uuid.New(), Name: name, Price: price, Images: "https://img/p.jpg"}
	f.products.byID[p.ID] = p
	return p
}

func TestCreateQuotationComputesTotalAndUpsertsContact(t *testing.T) {
	f := newQuotationFixture()
	p := f.seedProduct("Steel Chair", 500)

	q, err := f.svc.Create(context.Background(), QuotationInput{
		CustomerName:  "Asha",
		ContactNumber: "+15550020",
		Address:       "12 Main Road",
		ProductID:     p.ID,
		Quantity:      3,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if q.Total != 1500 {
		t.Fatalf("expected total 1500, got %v", q.Total)
	}
	if q.Price != 500 {
		t.Fatalf("expected unit price snapshot 500, got %v", q.Price)
	}

	ct, err := f.contacts.GetByPhone(context.Background(), "+15550020")
	if err != nil {
		t.Fatalf("contact not upserted: %v", err)
	}
	if q.ContactID != ct.ID {
		t.Fatalf("quotation not linked to contact")
	}
	if f.contacts.addresses[ct.ID] != "12 Main Road" {
		t.Fatalf("expected address recorded, got %q", f.contacts.addresses[ct.ID])
	}
}

func TestCreateQuotationValidation(t *testing.T) {
	f := newQuotationFixture()
	p := f.seedProduct("Steel Chair", 500)

	cases := []QuotationInput{
		{ContactNumber: "+1", ProductID: p.ID, Quantity: 1},                       // no name
		{CustomerName: "Asha", ProductID: p.ID, Quantity: 1},                      // no phone
		{CustomerName: "Asha", ContactNumber: "+1", ProductID: p.ID, Quantity: 0}, // bad quantity
		{CustomerName: "Asha", ContactNumber: "+1", Quantity: 1},                  // no product
	}
	for i, input := range cases {
		if _, err := f.svc.Create(context.Background(), input); !errors.Is(err, waerrors.ErrInvalidInput) {
			t.Fatalf("case %d: expected invalid input, got %v", i, err)
		}
	}

	unknown := QuotationInput{CustomerName: "Asha", ContactNumber: "+1", ProductID: uuid.New(), Quantity: 1}
	if _, err := f.svc.Create(context.Background(), unknown); !errors.Is(err, waerrors.ErrNotFound) {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}
}

func TestSendQuotationDeliversImageThenPaymentLink(t *testing.T) {
	f := newQuotationFixture()
	p := f.seedProduct("Steel Chair", 500)

	q, err := f.svc.Create(context.Background(), QuotationInput{
		CustomerName:  "Asha",
		ContactNumber: "+15550021",
		ProductID:     p.ID,
		Quantity:      2,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := f.svc.Send(context.Background(), q.ID); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if !strings.HasPrefix(f.uploader.key, "quotations/") {
		t.Fatalf("expected image hosted under quotations/, got %q", f.uploader.key)
	}
	if f.payments.amount != 1000 {
		t.Fatalf("expected payment link for 1000, got %v", f.payments.amount)
	}

	if len(f.gateway.sends) != 2 {
		t.Fatalf("expected image then payment text, got %v", f.gateway.sends)
	}
	if f.gateway.sends[0] != "image:"+f.uploader.url {
		t.Fatalf("first send should carry the hosted image, got %q", f.gateway.sends[0])
	}
	if !strings.Contains(f.gateway.sends[1], f.payments.url) {
		t.Fatalf("second send should carry the payment link, got %q", f.gateway.sends[1])
	}

	if got := f.messages.count(); got != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", got)
	}
}

func TestSendQuotationRecordsPaymentLink(t *testing.T) {
	f := newQuotationFixture()
	p := f.seedProduct("Steel Chair", 500)

	q, err := f.svc.Create(context.Background(), QuotationInput{
		CustomerName:  "Asha",
		ContactNumber: "+15550024",
		ProductID:     p.ID,
		Quantity:      1,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := f.svc.Send(context.Background(), q.ID); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	stored, _ := f.quotations.GetByID(context.Background(), q.ID)
	if !stored.PaymentLinkID.Valid || stored.PaymentLinkID.String != "plink_1" {
		t.Fatalf("expected payment link recorded, got %+v", stored.PaymentLinkID)
	}
	if stored.PaymentStatus != quotation.PaymentStatusCreated {
		t.Fatalf("expected status CREATED, got %q", stored.PaymentStatus)
	}
}

func TestApplyPaymentOutcomePaidAppendsConfirmation(t *testing.T) {
	f := newQuotationFixture()
	p := f.seedProduct("Steel Chair", 500)

	q, _ := f.svc.Create(context.Background(), QuotationInput{
		CustomerName:  "Asha",
		ContactNumber: "+15550025",
		ProductID:     p.ID,
		Quantity:      1,
	})
	if err := f.svc.Send(context.Background(), q.ID); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	sendsBefore := len(f.gateway.sends)

	if err := f.svc.ApplyPaymentOutcome(context.Background(), "plink_1", "pay_1", quotation.PaymentStatusPaid); err != nil {
		t.Fatalf("apply outcome failed: %v", err)
	}

	stored, _ := f.quotations.GetByID(context.Background(), q.ID)
	if stored.PaymentStatus != quotation.PaymentStatusPaid {
		t.Fatalf("expected status PAID, got %q", stored.PaymentStatus)
	}
	if !stored.PaymentID.Valid || stored.PaymentID.String != "pay_1" {
		t.Fatalf("expected payment id recorded, got %+v", stored.PaymentID)
	}

	// The confirmation lands in the conversation without another provider
	// send.
	if got := len(f.gateway.sends); got != sendsBefore {
		t.Fatalf("expected no extra provider calls, got %v", f.gateway.sends)
	}
	last, err := f.messages.LastByContact(context.Background(), q.ContactID)
	if err != nil {
		t.Fatalf("confirmation not appended: %v", err)
	}
	if !strings.Contains(last.Text.String, "Payment received") {
		t.Fatalf("expected confirmation text, got %q", last.Text.String)
	}
	if last.Sender != message.SenderBusiness {
		t.Fatalf("confirmation should come from the business side, got %q", last.Sender)
	}
}

func TestApplyPaymentOutcomeFailedAppendsFailureNote(t *testing.T) {
	f := newQuotationFixture()
	p := f.seedProduct("Steel Chair", 500)

	q, _ := f.svc.Create(context.Background(), QuotationInput{
		CustomerName:  "Asha",
		ContactNumber: "+15550026",
		ProductID:     p.ID,
		Quantity:      1,
	})
	if err := f.svc.Send(context.Background(), q.ID); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if err := f.svc.ApplyPaymentOutcome(context.Background(), "plink_1", "pay_2", quotation.PaymentStatusFailed); err != nil {
		t.Fatalf("apply outcome failed: %v", err)
	}

	last, _ := f.messages.LastByContact(context.Background(), q.ContactID)
	if !strings.Contains(last.Text.String, "failed") {
		t.Fatalf("expected failure note, got %q", last.Text.String)
	}
}

func TestApplyPaymentOutcomeUnknownLink(t *testing.T) {
	f := newQuotationFixture()
	err := f.svc.ApplyPaymentOutcome(context.Background(), "plink_unknown", "pay_1", quotation.PaymentStatusPaid)
	if !errors.Is(err, waerrors.ErrNotFound) {
		t.Fatalf("expected not found for unknown link, got %v", err)
	}
}

func TestSendQuotationRendererFailureSendsNothing(t *testing.T) {
	f := newQuotationFixture()
	p := f.seedProduct("Steel Chair", 500)

	q, _ := f.svc.Create(context.Background(), QuotationInput{
		CustomerName:  "Asha",
		ContactNumber: "+15550022",
		ProductID:     p.ID,
		Quantity:      1,
	})

	f.renderer.err = waerrors.ErrServiceUnavailable
	if err := f.svc.Send(context.Background(), q.ID); !errors.Is(err, waerrors.ErrServiceUnavailable) {
		t.Fatalf("expected renderer failure to surface, got %v", err)
	}
	if len(f.gateway.sends) != 0 {
		t.Fatalf("expected no provider calls, got %v", f.gateway.sends)
	}
	if got := f.messages.count(); got != 0 {
		t.Fatalf("expected no persisted messages, got %d", got)
	}
}

func TestSendQuotationPaymentFailureSendsNothing(t *testing.T) {
	f := newQuotationFixture()
	p := f.seedProduct("Steel Chair", 500)

	q, _ := f.svc.Create(context.Background(), QuotationInput{
		CustomerName:  "Asha",
		ContactNumber: "+15550023",
		ProductID:     p.ID,
		Quantity:      1,
	})

	f.payments.err = waerrors.ErrProviderUnavailable
	if err := f.svc.Send(context.Background(), q.ID); !errors.Is(err, waerrors.ErrProviderUnavailable) {
		t.Fatalf("expected payment failure to surface, got %v", err)
	}
	if len(f.gateway.sends) != 0 {
		t.Fatalf("expected no provider calls, got %v", f.gateway.sends)
	}
}
