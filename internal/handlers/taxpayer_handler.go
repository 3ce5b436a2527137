package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/pesafrisma19/pbbkemang/internal/errors"
	"github.com/pesafrisma19/pbbkemang/internal/middleware"
	"github.com/pesafrisma19/pbbkemang/internal/models"
	"github.com/pesafrisma19/pbbkemang/internal/ownership"
	"github.com/pesafrisma19/pbbkemang/internal/services"
)

// TaxpayerHandler handles the admin taxpayer pages.
type TaxpayerHandler struct {
	service services.TaxpayerService
}

// NewTaxpayerHandler creates a new TaxpayerHandler instance.
func NewTaxpayerHandler(service services.TaxpayerService) *TaxpayerHandler {
	return &TaxpayerHandler{service: service}
}

// ListRequest represents the query parameters for the taxpayer list.
type ListRequest struct {
	Q      string `form:"q"`
	Status string `form:"status" binding:"omitempty,oneof=all paid unpaid"`
}

// TaxObjectRequest is one row of the tax object table in the taxpayer form.
type TaxObjectRequest struct {
	OriginalName *string `json:"original_name"`
	Persil       *string `json:"persil"`
	Blok         *string `json:"blok"`
	NOP          string  `json:"nop" binding:"required"`
	LocationName string  `json:"location_name"`
	Status       string  `json:"status" binding:"omitempty,oneof=paid unpaid"`
	AmountDue    int64   `json:"amount_due" binding:"gte=0"`
	Year         int     `json:"year" binding:"omitempty,gte=1990,lte=2100"`
}

// TaxpayerRequest is the create and edit form.
type TaxpayerRequest struct {
	NIK        string             `json:"nik" binding:"omitempty,max=32"`
	WhatsApp   string             `json:"whatsapp"`
	GroupID    string             `json:"group_id"`
	RT         string             `json:"rt"`
	RW         string             `json:"rw"`
	Name       string             `json:"name" binding:"required"`
	Address    string             `json:"address" binding:"required"`
	TaxObjects []TaxObjectRequest `json:"tax_objects" binding:"dive"`
}

func (r TaxpayerRequest) input() services.TaxpayerInput {
	in := services.TaxpayerInput{
		NIK:        r.NIK,
		WhatsApp:   r.WhatsApp,
		GroupID:    r.GroupID,
		RT:         r.RT,
		RW:         r.RW,
		Name:       r.Name,
		Address:    r.Address,
		TaxObjects: make([]services.TaxObjectInput, 0, len(r.TaxObjects)),
	}
	for _, obj := range r.TaxObjects {
		in.TaxObjects = append(in.TaxObjects, services.TaxObjectInput{
			OriginalName: obj.OriginalName,
			Persil:       obj.Persil,
			Blok:         obj.Blok,
			NOP:          obj.NOP,
			LocationName: obj.LocationName,
			Status:       models.PaymentStatus(obj.Status),
			AmountDue:    obj.AmountDue,
			Year:         obj.Year,
		})
	}
	return in
}

// List handles GET /api/v1/taxpayers.
func (h *TaxpayerHandler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}
	status, err := ownership.ParseStatusFilter(req.Status)
	if err != nil {
		apierrors.BadRequest(c, err.Error(), nil)
		return
	}

	result, err := h.service.Search(c.Request.Context(), ownership.Query{Term: req.Q, Status: status})
	if err != nil {
		apierrors.InternalServerError(c, "Gagal memuat data wajib pajak", err)
		return
	}

	noStore(c)
	c.JSON(http.StatusOK, result)
}

// Get handles GET /api/v1/taxpayers/:id.
func (h *TaxpayerHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	detail, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrTaxpayerNotFound) {
			apierrors.NotFound(c, "Wajib pajak tidak ditemukan")
			return
		}
		apierrors.InternalServerError(c, "Gagal memuat wajib pajak", err)
		return
	}

	noStore(c)
	c.JSON(http.StatusOK, detail)
}

// Create handles POST /api/v1/taxpayers.
func (h *TaxpayerHandler) Create(c *gin.Context) {
	var req TaxpayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	tp, err := h.service.Create(c.Request.Context(), req.input())
	if err != nil {
		h.writeFailed(c, err)
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Taxpayer saved from form", map[string]interface{}{
			"taxpayer_id": tp.ID.String(),
		})
	}
	c.JSON(http.StatusCreated, tp)
}

// Update handles PUT /api/v1/taxpayers/:id. The submitted tax objects
// replace the stored set.
func (h *TaxpayerHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req TaxpayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	tp, err := h.service.Update(c.Request.Context(), id, req.input())
	if err != nil {
		h.writeFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, tp)
}

// Delete handles DELETE /api/v1/taxpayers/:id.
func (h *TaxpayerHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrTaxpayerNotFound) {
			apierrors.NotFound(c, "Wajib pajak tidak ditemukan")
			return
		}
		apierrors.InternalServerError(c, "Gagal menghapus wajib pajak", err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Data berhasil dihapus"})
}

// Owners handles GET /api/v1/nops/:nop/owners.
func (h *TaxpayerHandler) Owners(c *gin.Context) {
	owners, err := h.service.Owners(c.Request.Context(), c.Param("nop"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			apierrors.BadRequest(c, "NOP tidak valid", nil)
		case errors.Is(err, services.ErrTaxObjectNotFound):
			apierrors.NotFound(c, "NOP tidak ditemukan")
		default:
			apierrors.InternalServerError(c, "Gagal memuat pemilik NOP", err)
		}
		return
	}

	noStore(c)
	c.JSON(http.StatusOK, owners)
}

func (h *TaxpayerHandler) writeFailed(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		apierrors.BadRequest(c, err.Error(), nil)
	case errors.Is(err, services.ErrTaxpayerNotFound):
		apierrors.NotFound(c, "Wajib pajak tidak ditemukan")
	default:
		storeFailed(c, err, "Gagal menyimpan wajib pajak")
	}
}
