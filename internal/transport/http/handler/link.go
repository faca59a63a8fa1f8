package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
	"github.com/bigMackD/Glyloop-sub002/internal/requestid"
	"github.com/bigMackD/Glyloop-sub002/internal/usecase"
	"github.com/gin-gonic/gin"
)

type LinkHandler struct {
	linkUsecase *usecase.LinkUsecase
	logger      *slog.Logger
}

func NewLinkHandler(linkUsecase *usecase.LinkUsecase, logger *slog.Logger) *LinkHandler {
	return &LinkHandler{linkUsecase: linkUsecase, logger: logger.With("component", "link_handler")}
}

type createLinkRequest struct {
	AuthorizationCode string `json:"authorization_code" binding:"required"`
}

type linkResponse struct {
	ID              string     `json:"id"`
	TokenExpiresAt  time.Time  `json:"token_expires_at"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toLinkResponse(l *domain.CgmLink) linkResponse {
	return linkResponse{
		ID:              l.ID().String(),
		TokenExpiresAt:  l.TokenExpiresAt(),
		LastRefreshedAt: l.LastRefreshedAt(),
		CreatedAt:       l.CreatedAt(),
	}
}

// POST /cgm/link
// Exchanges the OAuth authorization code and stores the new link. Token
// material never appears in the response.
func (h *LinkHandler) Create(c *gin.Context) {
	var req createLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.linkUsecase.Link(c.Request.Context(), usecase.LinkInput{
		UserID:            c.GetString("userID"),
		AuthorizationCode: req.AuthorizationCode,
		CorrelationID:     requestid.FromContext(c.Request.Context()),
	})
	if result.IsFailure() {
		if result.Err().Code == domain.CodeExternal {
			h.logger.ErrorContext(c.Request.Context(), "create link", "error", result.Err().Message)
		}
		writeDomainError(c, result.Err())
		return
	}
	c.JSON(http.StatusCreated, toLinkResponse(result.Value()))
}

// GET /cgm/link
func (h *LinkHandler) GetActive(c *gin.Context) {
	result := h.linkUsecase.GetActiveLink(c.Request.Context(), c.GetString("userID"))
	if result.IsFailure() {
		if result.Err().Code == domain.CodeExternal {
			h.logger.ErrorContext(c.Request.Context(), "get active link", "error", result.Err().Message)
		}
		writeDomainError(c, result.Err())
		return
	}
	c.JSON(http.StatusOK, toLinkResponse(result.Value()))
}

// DELETE /cgm/link/:id?purge=true
func (h *LinkHandler) Delete(c *gin.Context) {
	purge := c.Query("purge") == "true"

	err := h.linkUsecase.Unlink(c.Request.Context(), usecase.UnlinkInput{
		UserID:        c.GetString("userID"),
		LinkID:        c.Param("id"),
		PurgeData:     purge,
		CorrelationID: requestid.FromContext(c.Request.Context()),
	})
	if !err.IsNone() {
		if err.Code == domain.CodeExternal {
			h.logger.ErrorContext(c.Request.Context(), "unlink", "link_id", c.Param("id"), "error", err.Message)
		}
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
