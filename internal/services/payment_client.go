package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	waerrors "waconsole/pkg/errors"
	"waconsole/pkg/logger"
)

// PaymentLink is a hosted payment page issued for a quotation total. The ID
// ties later provider webhooks back to the quotation.
type PaymentLink struct {
	ID       string
	ShortURL string
}

// PaymentLinker creates a hosted payment page for a quotation total.
type PaymentLinker interface {
	CreateLink(ctx context.Context, amount float64, description, customerName, customerPhone string) (PaymentLink, error)
}

// PaymentClient talks to the Razorpay payment-links API.
type PaymentClient struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	secret     string
	log        *logger.Logger
}

func NewPaymentClient(baseURL, keyID, secret string, log *logger.Logger) *PaymentClient {
	return &PaymentClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		keyID:      keyID,
		secret:     secret,
		log:        log,
	}
}

type paymentLinkRequest struct {
	Amount      int64               `json:"amount"` // smallest currency unit
	Currency    string              `json:"currency"`
	Description string              `json:"description"`
	Customer    paymentLinkCustomer `json:"customer"`
}

type paymentLinkCustomer struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

type paymentLinkResponse struct {
	ID       string `json:"id"`
	ShortURL string `json:"short_url"`
}

// CreateLink returns the id and short URL of a freshly created payment link.
func (c *PaymentClient) CreateLink(ctx context.Context, amount float64, description, customerName, customerPhone string) (PaymentLink, error) {
	body, err := json.Marshal(paymentLinkRequest{
		Amount:      int64(amount * 100),
		Currency:    "INR",
		Description: description,
		Customer: paymentLinkCustomer{
			Name:    customerName,
			Contact: customerPhone,
		},
	})
	if err != nil {
		return PaymentLink{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment_links", bytes.NewReader(body))
	if err != nil {
		return PaymentLink{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return PaymentLink{}, fmt.Errorf("%w: payment link request: %v", waerrors.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= http.StatusInternalServerError {
		return PaymentLink{}, fmt.Errorf("%w: payment provider returned %d", waerrors.ErrProviderUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		if c.log != nil {
			c.log.Errorf("payment link rejected with %d: %s", resp.StatusCode, raw)
		}
		return PaymentLink{}, fmt.Errorf("%w: payment provider returned %d", waerrors.ErrProviderRejected, resp.StatusCode)
	}

	var link paymentLinkResponse
	if err := json.Unmarshal(raw, &link); err != nil {
		return PaymentLink{}, fmt.Errorf("%w: malformed payment link response", waerrors.ErrProviderRejected)
	}
	if link.ID == "" || link.ShortURL == "" {
		return PaymentLink{}, fmt.Errorf("%w: payment link response missing id or short_url", waerrors.ErrProviderRejected)
	}
	return PaymentLink{ID: link.ID, ShortURL: link.ShortURL}, nil
}
