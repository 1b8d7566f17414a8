package handler

import (
	"net/http"

	"waconsole/internal/reconciler"
	"waconsole/internal/services"
	"waconsole/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MessageHandler exposes the conversation log and outbound sends.
type MessageHandler struct {
	reconciler *reconciler.Reconciler
}

func NewMessageHandler(r *reconciler.Reconciler) *MessageHandler {
	return &MessageHandler{reconciler: r}
}

// List returns a contact's conversation in canonical order.
func (h *MessageHandler) List(c *gin.Context) {
	contactID, err := uuid.Parse(c.Query("contact_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid contact_id", "INVALID_REQUEST"))
		return
	}

	msgs, err := h.reconciler.ListMessages(c.Request.Context(), contactID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewMessageViews(msgs)))
}

// Send submits an outbound message intent.
func (h *MessageHandler) Send(c *gin.Context) {
	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	contactID, err := uuid.Parse(req.ContactID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid contact_id", "INVALID_REQUEST"))
		return
	}

	intent := reconciler.SendIntent{
		ContactID:     contactID,
		Kind:          req.Kind,
		Text:          req.Text,
		MediaURL:      req.MediaURL,
		Filename:      req.Filename,
		CorrelationID: req.CorrelationID,
	}
	if req.ProductID != "" {
		productID, err := uuid.Parse(req.ProductID)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid product_id", "INVALID_REQUEST"))
			return
		}
		intent.ProductID = &productID
	}
	if req.ReplyToID != "" {
		replyToID, err := uuid.Parse(req.ReplyToID)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid reply_to_id", "INVALID_REQUEST"))
			return
		}
		intent.ReplyToID = &replyToID
	}

	msg, err := h.reconciler.SendMessage(c.Request.Context(), intent)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.NewMessageView(msg)))
}

// Delete removes a message from the log.
func (h *MessageHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid id", "INVALID_REQUEST"))
		return
	}

	if err := h.reconciler.DeleteMessage(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"deleted": id.String()}))
}

func writeError(c *gin.Context, err error) {
	status := services.HTTPStatus(err)
	c.JSON(status, httpdto.NewErrorResponse(err.Error(), errorCode(status)))
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusUnprocessableEntity:
		return "PROVIDER_REJECTED"
	case http.StatusBadGateway:
		return "PROVIDER_UNAVAILABLE"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return "INTERNAL_ERROR"
	}
}
