package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/pesafrisma19/pbbkemang/internal/errors"
	"github.com/pesafrisma19/pbbkemang/internal/middleware"
	"github.com/pesafrisma19/pbbkemang/internal/services"
)

const (
	importFormField  = "file"
	templateFilename = "template_import_pbb.xlsx"
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ImportHandler handles spreadsheet uploads.
type ImportHandler struct {
	service  services.ImportService
	maxBytes int64
}

// NewImportHandler creates a new ImportHandler. Uploads larger than
// maxBytes are rejected with 413.
func NewImportHandler(service services.ImportService, maxBytes int64) *ImportHandler {
	return &ImportHandler{service: service, maxBytes: maxBytes}
}

// Upload handles POST /api/v1/imports. Row problems come back in the
// result body with status 200.
func (h *ImportHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)

	file, header, err := c.Request.FormFile(importFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.PayloadTooLarge(c, "Ukuran file melebihi batas")
			return
		}
		apierrors.BadRequest(c, "File tidak ditemukan di form", map[string]interface{}{"field": importFormField})
		return
	}
	defer file.Close()

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Import upload received", map[string]interface{}{
			"filename": header.Filename,
			"size":     header.Size,
		})
	}

	// A dropped connection must not stop the batch halfway.
	ctx := context.WithoutCancel(c.Request.Context())

	result, err := h.service.Import(ctx, header.Filename, file)
	if err != nil {
		if errors.Is(err, services.ErrUnreadableFile) {
			apierrors.BadRequest(c, "File tidak dapat dibaca", map[string]interface{}{"reason": err.Error()})
			return
		}
		apierrors.InternalServerErrorWithDetails(c, "Import gagal", err, map[string]interface{}{
			"result": result,
		})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Template handles GET /api/v1/imports/template.
func (h *ImportHandler) Template(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.service.Template(&buf); err != nil {
		apierrors.InternalServerError(c, "Gagal membuat template", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+templateFilename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
