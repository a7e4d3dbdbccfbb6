package response

import (
	"github.com/gin-gonic/gin"
)

// ApiEnvelope is the single wire shape every endpoint responds with.
type ApiEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func Success(c *gin.Context, status int, data any) {
	c.JSON(status, ApiEnvelope{
		Success: true,
		Data:    data,
	})
}

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, ApiEnvelope{
		Success: false,
		Message: message,
	})
}
