package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	apierrors "github.com/pesafrisma19/pbbkemang/internal/errors"
	"github.com/pesafrisma19/pbbkemang/internal/repository"
)

// MessageResponse is returned by endpoints that have nothing else to say.
type MessageResponse struct {
	Message string `json:"message"`
}

// UseJSONFieldNames makes binding errors report json (or form) tag names,
// so the client sees "amount_due" rather than "AmountDue".
func UseJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
}

// bindFailed writes the response for a ShouldBind error.
func bindFailed(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierrors.ValidationError(c, validationErrors)
		return
	}
	apierrors.BadRequest(c, "Format data tidak valid", nil)
}

// idParam parses the :id path parameter.
func idParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.BadRequest(c, "ID tidak valid", map[string]interface{}{"id": c.Param("id")})
		return uuid.Nil, false
	}
	return id, true
}

// storeFailed maps a repository write error to a response. Duplicates are
// 409 with a human title; constraint violations are 400.
func storeFailed(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrDuplicateNationalID), errors.Is(err, repository.ErrDuplicateUnique):
		title, message := repository.Describe(err)
		apierrors.Conflict(c, title, message)
	case errors.Is(err, repository.ErrConstraint):
		_, message := repository.Describe(err)
		apierrors.BadRequest(c, message, nil)
	default:
		apierrors.InternalServerError(c, fallback, err)
	}
}

// noStore marks responses carrying taxpayer data as uncacheable.
func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
}
