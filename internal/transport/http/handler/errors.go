package handler

import (
	"net/http"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	errInternalServer = "Internal server error"
	errTokenInvalid   = "Token is invalid or expired"
)

// writeDomainError translates a typed domain failure into an HTTP status.
// External failures hide their detail behind a 500; the handler logs them.
func writeDomainError(c *gin.Context, err domain.Error) {
	switch err.Code {
	case domain.CodeValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Message})
	case domain.CodeNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Message})
	case domain.CodeUnauthorized:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Message})
	case domain.CodeConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	}
}
