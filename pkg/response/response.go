package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aura-webinar/storefront/pkg/errs"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Reason  string      `json:"reason,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err})
}

// Rejected sends 400 with a machine-readable reason code next to the message.
func Rejected(c *gin.Context, reason, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err, Reason: reason})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Error: err})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Error: err})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Error: err})
}

// Conflict sends 409.
func Conflict(c *gin.Context, err string) {
	c.JSON(http.StatusConflict, Body{Success: false, Error: err})
}

// TooManyRequests sends 429.
func TooManyRequests(c *gin.Context, err string) {
	c.JSON(http.StatusTooManyRequests, Body{Success: false, Error: err})
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, err string) {
	c.JSON(http.StatusServiceUnavailable, Body{Success: false, Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err})
}

// Error maps an application error to its status. Errors without a kind are
// reported as a generic 500 so internals never leak to the client.
func Error(c *gin.Context, err error) {
	switch errs.KindOf(err) {
	case errs.NotFound:
		NotFound(c, err.Error())
	case errs.Validation:
		BadRequest(c, err.Error())
	case errs.Unauthorized:
		Unauthorized(c, err.Error())
	case errs.Forbidden:
		Forbidden(c, err.Error())
	case errs.Conflict:
		Conflict(c, err.Error())
	case errs.Upstream:
		Internal(c, err.Error())
	default:
		Internal(c, "internal server error")
	}
}
