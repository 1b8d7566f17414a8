// Package handler provides HTTP handlers for API endpoints.
package handler

import (
	"io"
	"net/http"

	"waconsole/internal/reconciler"
	"waconsole/internal/transport/httpdto"
	"waconsole/pkg/logger"

	"github.com/gin-gonic/gin"
)

// WebhookHandler terminates provider webhook traffic: the one-time
// subscription handshake and message delivery notifications.
type WebhookHandler struct {
	reconciler  *reconciler.Reconciler
	verifyToken string
	log         *logger.Logger
}

func NewWebhookHandler(r *reconciler.Reconciler, verifyToken string, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{reconciler: r, verifyToken: verifyToken, log: log}
}

// Verify answers the provider's subscription handshake. The challenge is
// echoed back verbatim only when the verify token matches.
func (h *WebhookHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.Status(http.StatusForbidden)
}

// Receive processes one webhook delivery. Anything the reconciler absorbs
// (new message, duplicate, status-only payload) is acknowledged with a 200;
// a persistence failure withholds the ack so the provider redelivers.
func (h *WebhookHandler) Receive(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	if err := h.reconciler.HandleInbound(c.Request.Context(), raw); err != nil {
		if h.log != nil {
			h.log.Errorf("webhook delivery not persisted: %s", err.Error())
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("delivery not persisted", "INTERNAL_ERROR"))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "received"}))
}
