package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/pesafrisma19/pbbkemang/internal/errors"
	"github.com/pesafrisma19/pbbkemang/internal/ownership"
	"github.com/pesafrisma19/pbbkemang/internal/services"
)

// StatsHandler serves the dashboard and the public transparency page.
type StatsHandler struct {
	service services.StatsService
}

// NewStatsHandler creates a new StatsHandler instance.
func NewStatsHandler(service services.StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

// PublicSearchResponse is the public lookup result.
type PublicSearchResponse struct {
	Results []ownership.PublicResult `json:"results"`
	Count   int                      `json:"count"`
}

// Dashboard handles GET /api/v1/dashboard/stats.
func (h *StatsHandler) Dashboard(c *gin.Context) {
	stats, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Gagal memuat statistik", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// PublicStats handles GET /api/v1/public/stats.
func (h *StatsHandler) PublicStats(c *gin.Context) {
	stats, err := h.service.Public(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Gagal memuat statistik", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// PublicSearch handles GET /api/v1/public/search?q=.
func (h *StatsHandler) PublicSearch(c *gin.Context) {
	results, err := h.service.PublicSearch(c.Request.Context(), c.Query("q"))
	if err != nil {
		if errors.Is(err, ownership.ErrQueryTooShort) {
			apierrors.BadRequest(c, "Kata kunci minimal 3 karakter", nil)
			return
		}
		apierrors.InternalServerError(c, "Pencarian gagal", err)
		return
	}
	if results == nil {
		results = []ownership.PublicResult{}
	}

	noStore(c)
	c.JSON(http.StatusOK, PublicSearchResponse{Results: results, Count: len(results)})
}
