package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/roadwatch/backend/internal/apperrors"
	"github.com/roadwatch/backend/internal/media"
	"github.com/roadwatch/backend/internal/middleware"
	"github.com/roadwatch/backend/internal/models"
	"github.com/roadwatch/backend/internal/services"
)

// ReportHandler handles HTTP requests related to reports
type ReportHandler struct {
	reportService *services.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// RegisterReportRoutes registers the owner-scoped report routes
func (h *ReportHandler) RegisterReportRoutes(g *echo.Group) {
	g.POST("/reports", h.CreateReport)
	g.GET("/reports", h.ListMyReports)
	g.GET("/reports/:id", h.GetReport)
	g.DELETE("/reports/:id", h.DeleteReport)
}

// RegisterAdminRoutes registers the moderation routes
func (h *ReportHandler) RegisterAdminRoutes(g *echo.Group) {
	g.GET("/reports", h.ListAllReports)
	g.GET("/reports/review", h.ListReportsForReview)
	g.POST("/reports/:id/review", h.ReviewReport)
}

// RegisterPublicRoutes registers the unauthenticated approved feed
func (h *ReportHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/reports", h.ListApprovedReports)
}

// CreateReport submits a new report, as JSON or as multipart/form-data with
// attachments in repeated "media" file parts
func (h *ReportHandler) CreateReport(c echo.Context) error {
	claims := middleware.CurrentClaims(c)

	var req models.CreateReportRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	uploads, err := readUploads(c)
	if err != nil {
		return err
	}

	report, err := h.reportService.CreateReport(c.Request().Context(), claims, req, uploads)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, report)
}

// readUploads buffers the attachments of a multipart create request
func readUploads(c echo.Context) ([]media.Upload, error) {
	ctype := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ctype, echo.MIMEMultipartForm) {
		return nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.Validation("Invalid multipart payload")
	}

	uploads := make([]media.Upload, 0, len(form.File["media"]))
	for _, fh := range form.File["media"] {
		f, err := fh.Open()
		if err != nil {
			return nil, apperrors.Validation("Could not read uploaded file " + fh.Filename)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, apperrors.Validation("Could not read uploaded file " + fh.Filename)
		}
		uploads = append(uploads, media.Upload{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Data:        data,
		})
	}
	return uploads, nil
}

// ListMyReports returns the caller's own reports
func (h *ReportHandler) ListMyReports(c echo.Context) error {
	claims := middleware.CurrentClaims(c)
	skip, limit := parsePagination(c)

	reports, err := h.reportService.ListMyReports(c.Request().Context(), claims.UserID, skip, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reports)
}

// GetReport returns one of the caller's reports
func (h *ReportHandler) GetReport(c echo.Context) error {
	claims := middleware.CurrentClaims(c)

	report, err := h.reportService.GetReport(c.Request().Context(), c.Param("id"), claims.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

// DeleteReport soft-deletes one of the caller's reports
func (h *ReportHandler) DeleteReport(c echo.Context) error {
	claims := middleware.CurrentClaims(c)

	if err := h.reportService.DeleteReport(c.Request().Context(), c.Param("id"), claims.UserID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListApprovedReports returns the public feed of approved reports
func (h *ReportHandler) ListApprovedReports(c echo.Context) error {
	skip, limit := parsePagination(c)

	reports, err := h.reportService.ListApprovedReports(c.Request().Context(), skip, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reports)
}

// ListAllReports returns reports of any status for the moderation dashboard
func (h *ReportHandler) ListAllReports(c echo.Context) error {
	skip, limit := parsePagination(c)

	reports, err := h.reportService.ListAllReports(c.Request().Context(), skip, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reports)
}

// ListReportsForReview returns the moderation review queue
func (h *ReportHandler) ListReportsForReview(c echo.Context) error {
	skip, limit := parsePagination(c)

	reports, err := h.reportService.ListReportsForReview(c.Request().Context(), skip, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reports)
}

// ReviewReport applies a moderation decision to a report
func (h *ReportHandler) ReviewReport(c echo.Context) error {
	var req models.ReviewReportRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.reportService.ReviewReport(c.Request().Context(), c.Param("id"), req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id"), "status": req.Status})
}

// parsePagination reads skip/limit query params, defaulting and capping the
// page size
func parsePagination(c echo.Context) (int64, int64) {
	skip, _ := strconv.ParseInt(c.QueryParam("skip"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return skip, limit
}
