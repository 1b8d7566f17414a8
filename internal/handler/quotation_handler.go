package handler

import (
	"net/http"

	"waconsole/internal/services"
	"waconsole/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// QuotationHandler exposes quotation creation and delivery.
type QuotationHandler struct {
	service *services.QuotationService
}

func NewQuotationHandler(service *services.QuotationService) *QuotationHandler {
	return &QuotationHandler{service: service}
}

func (h *QuotationHandler) Create(c *gin.Context) {
	var req httpdto.CreateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid product_id", "INVALID_REQUEST"))
		return
	}

	q, err := h.service.Create(c.Request.Context(), services.QuotationInput{
		CustomerName:  req.CustomerName,
		ContactNumber: req.ContactNumber,
		Address:       req.Address,
		ProductID:     productID,
		Quantity:      req.Quantity,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.NewQuotationView(q)))
}

func (h *QuotationHandler) List(c *gin.Context) {
	quotations, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewQuotationViews(quotations)))
}

func (h *QuotationHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid id", "INVALID_REQUEST"))
		return
	}

	q, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewQuotationView(q)))
}

// Send delivers the quotation image and payment link to the customer.
func (h *QuotationHandler) Send(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid id", "INVALID_REQUEST"))
		return
	}

	if err := h.service.Send(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "sent"}))
}
