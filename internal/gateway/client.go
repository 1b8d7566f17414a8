package gateway

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

// Client talks to the WhatsApp Cloud API message-send endpoint.
type Client struct {
	httpClient *http.Client
	apiBase    string
	phoneID    string
	token      string
	log        *logger.Logger
}

func NewClient(apiBase, phoneID, token string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiBase:    apiBase,
		phoneID:    phoneID,
		token:      token,
		log:        log,
	}
}

func (c *Client) SendText(ctx context.Context, to, body string) (SendResult, error) {
	return c.send(ctx, textPayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: body},
	})
}

func (c *Client) SendImage(ctx context.Context, to, link, caption string) (SendResult, error) {
	return c.send(ctx, imagePayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "image",
		Image:            mediaLink{Link: link, Caption: caption},
	})
}

func (c *Client) SendDocument(ctx context.Context, to, link, filename, caption string) (SendResult, error) {
	return c.send(ctx, documentPayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "document",
		Document:         documentLink{Link: link, Filename: filename, Caption: caption},
	})
}

func (c *Client) send(ctx context.Context, payload interface{}) (SendResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return SendResult{}, fmt.Errorf("%w: %v", waerrors.ErrProviderRejected, err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.apiBase, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return SendResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport errors and timeouts are retryable; nothing was persisted.
		return SendResult{}, fmt.Errorf("%w: %v", waerrors.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	switch {
	case resp.StatusCode >= 500:
		return SendResult{}, fmt.Errorf("%w: status %d", waerrors.ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		if c.log != nil {
			c.log.Errorf("whatsapp send rejected: status %d body %s", resp.StatusCode, string(respBody))
		}
		return SendResult{}, fmt.Errorf("%w: status %d", waerrors.ErrProviderRejected, resp.StatusCode)
	}

	var parsed sendResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil || len(parsed.Messages) == 0 || parsed.Messages[0].ID == "" {
		return SendResult{}, fmt.Errorf("%w: response missing message id", waerrors.ErrProviderRejected)
	}

	return SendResult{ExternalID: parsed.Messages[0].ID}, nil
}
