package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"waconsole/internal/domain/quotation"
	"waconsole/internal/transport/httpdto"
	waerrors "waconsole/pkg/errors"
	"waconsole/pkg/logger"

	"github.com/gin-gonic/gin"
)

// PaymentOutcomes applies a verified payment event to the quotation that
// issued the link.
type PaymentOutcomes interface {
	ApplyPaymentOutcome(ctx context.Context, linkID, paymentID, status string) error
}

// PaymentWebhookHandler terminates payment-provider webhook traffic. Every
// payload is authenticated against the shared webhook secret before anything
// else looks at it.
type PaymentWebhookHandler struct {
	outcomes PaymentOutcomes
	secret   string
	log      *logger.Logger
}

func NewPaymentWebhookHandler(outcomes PaymentOutcomes, secret string, log *logger.Logger) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{outcomes: outcomes, secret: secret, log: log}
}

type paymentWebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		PaymentLink struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"payment_link"`
		Payment struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// Receive processes one payment webhook delivery. Events for links this
// console never issued, and event types it does not track, are acknowledged
// untouched; a persistence failure withholds the ack so the provider
// redelivers.
func (h *PaymentWebhookHandler) Receive(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	signature := c.GetHeader("X-Razorpay-Signature")
	if signature == "" || !h.signatureValid(raw, signature) {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid signature", "INVALID_REQUEST"))
		return
	}

	var event paymentWebhookEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid payload", "INVALID_REQUEST"))
		return
	}

	var status string
	switch event.Event {
	case "payment_link.paid":
		status = quotation.PaymentStatusPaid
	case "payment_link.expired", "payment_link.cancelled":
		status = quotation.PaymentStatusFailed
	default:
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "ignored"}))
		return
	}

	linkID := event.Payload.PaymentLink.Entity.ID
	if linkID == "" {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "ignored"}))
		return
	}

	err = h.outcomes.ApplyPaymentOutcome(c.Request.Context(), linkID, event.Payload.Payment.Entity.ID, status)
	if errors.Is(err, waerrors.ErrNotFound) {
		// Link not issued by this console.
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "ignored"}))
		return
	}
	if err != nil {
		if h.log != nil {
			h.log.Errorf("payment outcome for link %s not persisted: %s", linkID, err.Error())
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("outcome not persisted", "INTERNAL_ERROR"))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "processed"}))
}

func (h *PaymentWebhookHandler) signatureValid(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
