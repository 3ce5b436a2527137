package handlers

import (
	"github.com/gin-gonic/gin"
)

// Set bundles every handler the router needs.
type Set struct {
	Health    *HealthHandler
	Auth      *AuthHandler
	Taxpayers *TaxpayerHandler
	Payments  *PaymentHandler
	Imports   *ImportHandler
	Stats     *StatsHandler
}

// RegisterRoutes mounts the API. requireSession guards the admin routes;
// limit, when non-nil, throttles the public and login routes.
func RegisterRoutes(router *gin.Engine, h Set, requireSession, limit gin.HandlerFunc) {
	throttled := []gin.HandlerFunc{}
	if limit != nil {
		throttled = append(throttled, limit)
	}

	router.GET("/health", h.Health.Health)
	router.GET("/health/ready", h.Health.Ready)

	v1 := router.Group("/api/v1")
	v1.GET("/info", h.Health.Info)

	public := v1.Group("/public", throttled...)
	{
		public.GET("/stats", h.Stats.PublicStats)
		public.GET("/search", h.Stats.PublicSearch)
	}

	v1.POST("/auth/login", append(throttled, h.Auth.Login)...)

	admin := v1.Group("", requireSession)
	{
		admin.POST("/auth/logout", h.Auth.Logout)
		admin.GET("/auth/me", h.Auth.Me)
		admin.POST("/auth/change-password", h.Auth.ChangePassword)

		admin.GET("/taxpayers", h.Taxpayers.List)
		admin.POST("/taxpayers", h.Taxpayers.Create)
		admin.GET("/taxpayers/:id", h.Taxpayers.Get)
		admin.PUT("/taxpayers/:id", h.Taxpayers.Update)
		admin.DELETE("/taxpayers/:id", h.Taxpayers.Delete)
		admin.GET("/nops/:nop/owners", h.Taxpayers.Owners)

		admin.GET("/payments", h.Payments.Bills)
		admin.POST("/tax-objects/:id/toggle", h.Payments.Toggle)

		admin.POST("/imports", h.Imports.Upload)
		admin.GET("/imports/template", h.Imports.Template)

		admin.GET("/dashboard/stats", h.Stats.Dashboard)
	}
}
