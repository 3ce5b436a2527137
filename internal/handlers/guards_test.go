package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pesafrisma19/pbbkemang/internal/auth"
	"github.com/pesafrisma19/pbbkemang/internal/logger"
	"github.com/pesafrisma19/pbbkemang/internal/middleware"
	"github.com/pesafrisma19/pbbkemang/internal/models"
	"github.com/pesafrisma19/pbbkemang/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestRequireSession(t *testing.T) {
	admin := &models.Admin{ID: uuid.New(), Phone: "0812"}

	tests := []struct {
		name           string
		cookie         string
		authAdmin      *models.Admin
		authErr        error
		expectedStatus int
	}{
		{"valid session", "tok", admin, nil, http.StatusOK},
		{"missing cookie", "", nil, auth.ErrInvalidSession, http.StatusUnauthorized},
		{"expired session", "tok", nil, auth.ErrInvalidSession, http.StatusUnauthorized},
		{"store failure", "tok", nil, errors.New("redis: connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockAuthService{}
			svc.On("Authenticate", mock.Anything, tt.cookie).Return(tt.authAdmin, tt.authErr)

			router := gin.New()
			router.Use(middleware.Logger(logger.NewWithWriter("test", io.Discard)))
			router.GET("/private", RequireSession(svc, "admin_session"), func(c *gin.Context) {
				got, ok := CurrentAdmin(c)
				assert.True(t, ok)
				id, ok := middleware.GetAdminID(c)
				assert.True(t, ok)
				assert.Equal(t, got.ID, id)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "admin_session", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestCurrentAdmin_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := CurrentAdmin(c)
	assert.False(t, ok)
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.New(0.5, 2, time.Minute)
	defer limiter.Stop()

	router := gin.New()
	router.GET("/public", RateLimit(limiter), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/public", nil)
		req.RemoteAddr = ip + ":40000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)

	w := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code, "other clients keep their own bucket")
}
