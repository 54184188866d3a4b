package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/martijn/usersapi/internal/api/dto"
)

// ErrorHandlerMiddleware turns panics and unanswered errors into a 500
func ErrorHandlerMiddleware(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("panic while handling request",
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"panic", err,
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
					Message: "Internal Server Error",
				})
			}
		}()

		c.Next()

		// Handlers that recorded an error without writing a response
		if len(c.Errors) > 0 && !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Message: "Internal Server Error",
				Error:   c.Errors.Last().Error(),
			})
		}
	}
}
