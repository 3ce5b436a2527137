package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/pesafrisma19/pbbkemang/internal/errors"
	"github.com/pesafrisma19/pbbkemang/internal/ownership"
	"github.com/pesafrisma19/pbbkemang/internal/services"
)

// PaymentHandler handles the payment page.
type PaymentHandler struct {
	service services.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler instance.
func NewPaymentHandler(service services.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// BillsResponse represents the response for the payment list.
type BillsResponse struct {
	Bills []ownership.Bill `json:"bills"`
	Count int              `json:"count"`
}

// Bills handles GET /api/v1/payments?q=.
func (h *PaymentHandler) Bills(c *gin.Context) {
	bills, err := h.service.Bills(c.Request.Context(), c.Query("q"))
	if err != nil {
		apierrors.InternalServerError(c, "Gagal memuat tagihan", err)
		return
	}

	noStore(c)
	c.JSON(http.StatusOK, BillsResponse{Bills: bills, Count: len(bills)})
}

// Toggle handles POST /api/v1/tax-objects/:id/toggle.
func (h *PaymentHandler) Toggle(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	obj, err := h.service.Toggle(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrTaxObjectNotFound) {
			apierrors.NotFound(c, "Objek pajak tidak ditemukan")
			return
		}
		apierrors.InternalServerError(c, "Gagal mengubah status bayar", err)
		return
	}
	c.JSON(http.StatusOK, obj)
}
