package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/roadwatch/backend/internal/apperrors"
	"github.com/roadwatch/backend/internal/middleware"
	"github.com/roadwatch/backend/internal/models"
	"github.com/roadwatch/backend/internal/services"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	engagementService *services.EngagementService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(engagementService *services.EngagementService) *CommentHandler {
	return &CommentHandler{engagementService: engagementService}
}

// RegisterCommentRoutes registers the authenticated comment routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/reports/:id/comments", h.CreateComment)
	g.DELETE("/reports/:id/comments/:comment_id", h.DeleteComment)
}

// RegisterPublicRoutes registers the public comment listing
func (h *CommentHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/reports/:id/comments", h.ListComments)
}

// CreateComment appends a comment to a report
func (h *CommentHandler) CreateComment(c echo.Context) error {
	claims := middleware.CurrentClaims(c)

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	comment, err := h.engagementService.AddComment(c.Request().Context(), c.Param("id"), claims, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, comment)
}

// ListComments returns all comments on a report
func (h *CommentHandler) ListComments(c echo.Context) error {
	comments, err := h.engagementService.ListComments(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comments)
}

// DeleteComment deletes the caller's own comment
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	claims := middleware.CurrentClaims(c)

	commentID, err := strconv.ParseUint(c.Param("comment_id"), 10, 32)
	if err != nil {
		return apperrors.Validation("Invalid comment id")
	}

	if err := h.engagementService.DeleteComment(c.Request().Context(), uint(commentID), claims.UserID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
