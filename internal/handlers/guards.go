package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pesafrisma19/pbbkemang/internal/auth"
	apierrors "github.com/pesafrisma19/pbbkemang/internal/errors"
	"github.com/pesafrisma19/pbbkemang/internal/middleware"
	"github.com/pesafrisma19/pbbkemang/internal/models"
	"github.com/pesafrisma19/pbbkemang/internal/ratelimit"
)

const adminKey = "admin"

// RequireSession admits requests carrying a live admin session cookie and
// stores the admin in the context.
func RequireSession(service auth.Service, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(cookieName)

		admin, err := service.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidSession) {
				apierrors.Unauthorized(c, "Sesi tidak valid, silakan login kembali")
				return
			}
			apierrors.InternalServerError(c, "Gagal memeriksa sesi", err)
			return
		}

		c.Set(adminKey, admin)
		c.Set(middleware.AdminIDKey, admin.ID)
		c.Next()
	}
}

// CurrentAdmin returns the admin stored by RequireSession.
func CurrentAdmin(c *gin.Context) (*models.Admin, bool) {
	v, ok := c.Get(adminKey)
	if !ok {
		return nil, false
	}
	admin, ok := v.(*models.Admin)
	return admin, ok
}

// RateLimit rejects clients that exceed their per-IP bucket with 429.
func RateLimit(limiter *ratelimit.KeyedLimiter) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(limiter.RetryAfter() / time.Second))
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			apierrors.TooManyRequests(c, retryAfter)
			return
		}
		c.Next()
	}
}
