package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pesafrisma19/pbbkemang/internal/auth"
	"github.com/pesafrisma19/pbbkemang/internal/config"
	apierrors "github.com/pesafrisma19/pbbkemang/internal/errors"
	"github.com/pesafrisma19/pbbkemang/internal/models"
)

// AuthHandler handles admin login, logout and password changes.
type AuthHandler struct {
	service auth.Service
	cfg     config.AuthConfig
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(service auth.Service, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{service: service, cfg: cfg}
}

// LoginRequest is the login form.
type LoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse describes the session set in the cookie.
type LoginResponse struct {
	ExpiresAt time.Time    `json:"expires_at"`
	Admin     models.Admin `json:"admin"`
}

// ChangePasswordRequest is the change-password form. The phone comes from
// the session.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	sess, err := h.service.Login(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingCredentials):
			apierrors.BadRequest(c, "Nomor WhatsApp dan password wajib diisi", nil)
		case errors.Is(err, auth.ErrAdminNotFound):
			apierrors.Unauthorized(c, "Nomor WhatsApp tidak terdaftar")
		case errors.Is(err, auth.ErrWrongPassword):
			apierrors.Unauthorized(c, "Password salah")
		default:
			apierrors.InternalServerError(c, "Gagal login", err)
		}
		return
	}

	h.setCookie(c, sess.Token, int(h.cfg.SessionTTL/time.Second))
	c.JSON(http.StatusOK, LoginResponse{Admin: sess.Admin, ExpiresAt: sess.ExpiresAt})
}

// Logout handles POST /api/v1/auth/logout. The cookie is cleared even when
// the store delete fails.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(h.cfg.SessionCookie)
	h.setCookie(c, "", -1)

	if err := h.service.Logout(c.Request.Context(), token); err != nil {
		apierrors.InternalServerError(c, "Gagal logout", err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Logout berhasil"})
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	admin, ok := CurrentAdmin(c)
	if !ok {
		apierrors.Unauthorized(c, "Sesi tidak valid, silakan login kembali")
		return
	}
	c.JSON(http.StatusOK, admin)
}

// ChangePassword handles POST /api/v1/auth/change-password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	admin, ok := CurrentAdmin(c)
	if !ok {
		apierrors.Unauthorized(c, "Sesi tidak valid, silakan login kembali")
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	err := h.service.ChangePassword(c.Request.Context(), admin.Phone, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrWrongPassword):
			apierrors.BadRequest(c, "Password lama salah", nil)
		case errors.Is(err, auth.ErrPasswordTooShort), errors.Is(err, auth.ErrMissingCredentials):
			apierrors.BadRequest(c, err.Error(), nil)
		case errors.Is(err, auth.ErrAdminNotFound):
			apierrors.Unauthorized(c, "Akun admin tidak ditemukan")
		default:
			apierrors.InternalServerError(c, "Gagal mengganti password", err)
		}
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Password berhasil diganti"})
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.SessionCookie, value, maxAge, "/", "", h.cfg.SecureCookie, true)
}
