package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/roadwatch/backend/internal/apperrors"
	"github.com/roadwatch/backend/internal/middleware"
	"github.com/roadwatch/backend/internal/models"
	"github.com/roadwatch/backend/internal/services"
)

// EngagementHandler handles HTTP requests related to reactions and
// engagement summaries
type EngagementHandler struct {
	engagementService *services.EngagementService
}

// NewEngagementHandler creates a new EngagementHandler
func NewEngagementHandler(engagementService *services.EngagementService) *EngagementHandler {
	return &EngagementHandler{engagementService: engagementService}
}

// RegisterReactionRoutes registers the authenticated reaction routes
func (h *EngagementHandler) RegisterReactionRoutes(g *echo.Group) {
	g.POST("/reports/:id/reactions", h.AddReaction)
	g.DELETE("/reports/:id/reactions/:type", h.RemoveReaction)
}

// RegisterPublicRoutes registers the engagement lookups; viewer reactions
// are included only when the optional identity is present
func (h *EngagementHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/reports/:id/engagement", h.GetReportEngagement)
	g.POST("/reports/engagement", h.GetBulkEngagement)
}

// AddReaction sets the caller's reaction on a report, replacing any prior one
func (h *EngagementHandler) AddReaction(c echo.Context) error {
	claims := middleware.CurrentClaims(c)

	var req models.AddReactionRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	reaction, err := h.engagementService.AddReaction(c.Request().Context(), c.Param("id"), claims, req.ReactionType)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, reaction)
}

// RemoveReaction removes the caller's reaction from a report
func (h *EngagementHandler) RemoveReaction(c echo.Context) error {
	claims := middleware.CurrentClaims(c)

	if err := h.engagementService.RemoveReaction(c.Request().Context(), c.Param("id"), claims.UserID, c.Param("type")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// GetReportEngagement returns one report's engagement summary
func (h *EngagementHandler) GetReportEngagement(c echo.Context) error {
	viewerID := ""
	if claims := middleware.CurrentClaims(c); claims != nil {
		viewerID = claims.UserID
	}

	summary, err := h.engagementService.GetReportEngagement(c.Request().Context(), c.Param("id"), viewerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

// GetBulkEngagement returns engagement summaries for a batch of reports
func (h *EngagementHandler) GetBulkEngagement(c echo.Context) error {
	viewerID := ""
	if claims := middleware.CurrentClaims(c); claims != nil {
		viewerID = claims.UserID
	}

	var req models.BulkEngagementRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	summaries, err := h.engagementService.GetBulkEngagement(c.Request().Context(), req.ReportIDs, viewerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summaries)
}
