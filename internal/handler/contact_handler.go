package handler

import (
	"net/http"

	"waconsole/internal/services"
	"waconsole/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContactHandler exposes the conversation sidebar.
type ContactHandler struct {
	service *services.ContactService
}

func NewContactHandler(service *services.ContactService) *ContactHandler {
	return &ContactHandler{service: service}
}

func (h *ContactHandler) List(c *gin.Context) {
	previews, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	views := make([]httpdto.ContactPreviewView, 0, len(previews))
	for _, p := range previews {
		views = append(views, httpdto.NewContactPreviewView(p.Contact, p.LastMessage))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(views))
}

func (h *ContactHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid id", "INVALID_REQUEST"))
		return
	}

	ct, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewContactView(ct)))
}

// MarkRead clears the unread counter when the operator opens a conversation.
func (h *ContactHandler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid id", "INVALID_REQUEST"))
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "read"}))
}
