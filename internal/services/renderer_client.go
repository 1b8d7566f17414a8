package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"waconsole/internal/domain/quotation"
	waerrors "waconsole/pkg/errors"
)

// QuotationRenderer turns a quotation into an image the customer can read
// inline in the chat.
type QuotationRenderer interface {
	Render(ctx context.Context, q quotation.Quotation, productName string) ([]byte, error)
}

// RendererClient calls the external HTML-to-image renderer service.
type RendererClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewRendererClient(baseURL string) *RendererClient {
	return &RendererClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
	}
}

type renderRequest struct {
	CustomerName  string  `json:"customer_name"`
	ContactNumber string  `json:"contact_number"`
	Address       string  `json:"address,omitempty"`
	ProductName   string  `json:"product_name"`
	Quantity      int     `json:"quantity"`
	Price         float64 `json:"price"`
	Total         float64 `json:"total"`
}

// Render returns the PNG bytes of the quotation document.
func (c *RendererClient) Render(ctx context.Context, q quotation.Quotation, productName string) ([]byte, error) {
	body, err := json.Marshal(renderRequest{
		CustomerName:  q.CustomerName,
		ContactNumber: q.ContactNumber,
		Address:       q.Address.String,
		ProductName:   productName,
		Quantity:      q.Quantity,
		Price:         q.Price,
		Total:         q.Total,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render/quotation", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: renderer request: %v", waerrors.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: renderer returned %d", waerrors.ErrServiceUnavailable, resp.StatusCode)
	}

	img, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading rendered image: %v", waerrors.ErrServiceUnavailable, err)
	}
	if len(img) == 0 {
		return nil, fmt.Errorf("%w: renderer returned empty image", waerrors.ErrServiceUnavailable)
	}
	return img, nil
}
