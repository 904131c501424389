package handlers

import (
	"errors"
	"net/http"

	"codenook/internal/logger"
	"codenook/internal/middleware"
	"codenook/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Render helper to inject common variables like the current user.
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}
	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	obj["CurrentPath"] = c.Request.URL.Path
	c.HTML(code, name, obj)
}

func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Title": http.StatusText(code), "Error": message, "Code": code})
}

// statusOf maps service errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthenticated), errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrMediaDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the text shown to the client for err. Store failures are
// logged and replaced by fallback.
func publicMessage(c *gin.Context, err error, fallback string) (int, string) {
	code := statusOf(err)
	switch code {
	case http.StatusInternalServerError:
		logger.L().Error(fallback,
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		return code, fallback
	case http.StatusUnauthorized, http.StatusServiceUnavailable:
		return code, err.Error()
	default:
		return code, services.Reason(err)
	}
}

// JSONError writes {"error": ...} for err.
func JSONError(c *gin.Context, err error, fallback string) {
	code, message := publicMessage(c, err, fallback)
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// PageError renders the error page for err.
func PageError(c *gin.Context, err error, fallback string) {
	code, message := publicMessage(c, err, fallback)
	RenderError(c, code, message)
}
