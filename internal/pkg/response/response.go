package response

import (
	"github.com/gin-gonic/gin"
)

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, data)
}

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// ErrorWithDetails attaches the underlying error text for debugging.
// Callers must not pass details in production environments.
func ErrorWithDetails(c *gin.Context, status int, message string, details string) {
	if details == "" {
		Error(c, status, message)
		return
	}
	c.JSON(status, gin.H{"error": message, "details": details})
}
