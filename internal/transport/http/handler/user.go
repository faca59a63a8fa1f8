package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
	"github.com/bigMackD/Glyloop-sub002/internal/usecase"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userUsecase *usecase.UserUsecase
	logger      *slog.Logger
}

func NewUserHandler(userUsecase *usecase.UserUsecase, logger *slog.Logger) *UserHandler {
	return &UserHandler{userUsecase: userUsecase, logger: logger.With("component", "user_handler")}
}

type profileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	TirLower  int       `json:"tir_lower"`
	TirUpper  int       `json:"tir_upper"`
	CreatedAt time.Time `json:"created_at"`
}

type tirTargetRequest struct {
	Lower int `json:"lower" binding:"required"`
	Upper int `json:"upper" binding:"required"`
}

// GET /me
func (h *UserHandler) GetProfile(c *gin.Context) {
	result := h.userUsecase.GetProfile(c.Request.Context(), c.GetString("userID"))
	if result.IsFailure() {
		if result.Err().Code == domain.CodeExternal {
			h.logger.ErrorContext(c.Request.Context(), "get profile", "error", result.Err().Message)
		}
		writeDomainError(c, result.Err())
		return
	}

	user := result.Value()
	c.JSON(http.StatusOK, profileResponse{
		ID:        user.ID,
		Email:     user.Email,
		TirLower:  user.TirTarget.Lower(),
		TirUpper:  user.TirTarget.Upper(),
		CreatedAt: user.CreatedAt,
	})
}

// PUT /me/tir-target
func (h *UserHandler) UpdateTirTarget(c *gin.Context) {
	var req tirTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.userUsecase.UpdateTirTarget(c.Request.Context(), c.GetString("userID"), req.Lower, req.Upper)
	if !err.IsNone() {
		if err.Code == domain.CodeExternal {
			h.logger.ErrorContext(c.Request.Context(), "update tir target", "error", err.Message)
		}
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
