package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/roadwatch/backend/internal/apperrors"
	"github.com/roadwatch/backend/internal/media"
	"github.com/roadwatch/backend/internal/models"
	"github.com/roadwatch/backend/internal/repositories"
)

// occurredAtLayouts are the accepted encodings for the incident timestamp
var occurredAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// futureSkew absorbs client clock drift when rejecting future timestamps
const futureSkew = 24 * time.Hour

// ReportService orchestrates report creation, listing, moderation and media
// handling. Media uploads within one request run sequentially; the report
// document is written only after every file has a final MediaFile record.
type ReportService struct {
	reports repositories.ReportRepository
	router  *media.Router
	signer  media.URLSigner

	maxUploadBytes int64
	priorityMin    int
	priorityMax    int
}

// NewReportService creates a new ReportService
func NewReportService(reports repositories.ReportRepository, router *media.Router, signer media.URLSigner, maxUploadBytes int64, priorityMin, priorityMax int) *ReportService {
	return &ReportService{
		reports:        reports,
		router:         router,
		signer:         signer,
		maxUploadBytes: maxUploadBytes,
		priorityMin:    priorityMin,
		priorityMax:    priorityMax,
	}
}

// CreateReport validates the payload and every file, routes each file to its
// storage destination and persists the report. No report is ever left
// partially persisted: any failure before the final write aborts the request.
func (s *ReportService) CreateReport(ctx context.Context, claims *models.JwtCustomClaims, req models.CreateReportRequest, files []media.Upload) (*models.Report, error) {
	occurredAt, err := s.parseOccurredAt(req.OccurredAt)
	if err != nil {
		return nil, err
	}
	for _, usage := range req.RoadUsages {
		if !models.ValidRoadUsage(usage) {
			return nil, apperrors.Validation(fmt.Sprintf("unknown road usage %q", usage))
		}
	}
	for _, event := range req.EventTypes {
		if !models.ValidEventType(event) {
			return nil, apperrors.Validation(fmt.Sprintf("unknown event type %q", event))
		}
	}

	// validate every file before any upload is attempted
	for i := range files {
		contentType, err := media.ValidateFile(files[i].FileName, files[i].ContentType, files[i].Size, s.maxUploadBytes)
		if err != nil {
			return nil, err
		}
		files[i].ContentType = contentType
		files[i].FileName = media.SanitizeFileName(files[i].FileName)
	}

	// the report id is assigned up front so blob objects can be keyed
	// {ownerId}/{reportId}/{fileId} before the document exists
	reportID := primitive.NewObjectID()
	ref := media.FileRef{
		OwnerID:     claims.UserID,
		ReportID:    reportID.Hex(),
		Title:       req.Title,
		Description: req.Description,
	}

	mediaFiles := make([]models.MediaFile, 0, len(files))
	for _, up := range files {
		mf, err := s.router.Route(ctx, ref, up)
		if err != nil {
			// earlier files of this request are not rolled back; their blobs
			// stay keyed to a report id that will never commit
			return nil, apperrors.Internal(apperrors.CodeUploadFailed, "failed to upload media file", err)
		}
		mediaFiles = append(mediaFiles, mf)
	}

	report := &models.Report{
		ID:          reportID,
		OwnerID:     claims.UserID,
		Title:       req.Title,
		Description: req.Description,
		OccurredAt:  occurredAt,
		RoadUsages:  req.RoadUsages,
		EventTypes:  req.EventTypes,
		State:       req.State,
		City:        req.City,
		Injuries:    req.Injuries,
		MediaFiles:  mediaFiles,
		Status:      models.StatusSubmitted,
	}

	if err := s.reports.CreateReport(ctx, report); err != nil {
		return nil, apperrors.Internal(apperrors.CodeCreateFailed, "failed to create report", err)
	}
	return report, nil
}

// ListMyReports returns the caller's own reports
func (s *ReportService) ListMyReports(ctx context.Context, ownerID string, skip, limit int64) ([]models.Report, error) {
	reports, err := s.reports.GetReportsByOwner(ctx, ownerID, skip, limit)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeFetchFailed, "failed to fetch reports", err)
	}
	s.refreshMediaURLs(reports)
	return reports, nil
}

// ListAllReports returns reports of any status for the moderation dashboard
func (s *ReportService) ListAllReports(ctx context.Context, skip, limit int64) ([]models.Report, error) {
	reports, err := s.reports.GetAllReports(ctx, skip, limit)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeFetchFailed, "failed to fetch reports", err)
	}
	s.refreshMediaURLs(reports)
	return reports, nil
}

// ListReportsForReview returns reports still awaiting a moderation decision
func (s *ReportService) ListReportsForReview(ctx context.Context, skip, limit int64) ([]models.Report, error) {
	reports, err := s.reports.GetReportsByStatus(ctx, models.StatusSubmitted, skip, limit)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeFetchFailed, "failed to fetch reports", err)
	}
	s.refreshMediaURLs(reports)
	return reports, nil
}

// ListApprovedReports returns the public feed of approved reports
func (s *ReportService) ListApprovedReports(ctx context.Context, skip, limit int64) ([]models.Report, error) {
	reports, err := s.reports.GetReportsByStatus(ctx, models.StatusReviewedPass, skip, limit)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeFetchFailed, "failed to fetch reports", err)
	}
	s.refreshMediaURLs(reports)
	return reports, nil
}

// GetReport resolves a report by id and owner jointly; a report owned by a
// different user is reported as not found
func (s *ReportService) GetReport(ctx context.Context, id, ownerID string) (*models.Report, error) {
	report, err := s.reports.GetReportByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		if err == repositories.ErrReportNotFound {
			return nil, apperrors.NotFound("Report not found")
		}
		return nil, apperrors.Internal(apperrors.CodeFetchFailed, "failed to fetch report", err)
	}
	single := []models.Report{*report}
	s.refreshMediaURLs(single)
	return &single[0], nil
}

// DeleteReport soft-deletes the caller's report; media blobs are not purged
func (s *ReportService) DeleteReport(ctx context.Context, id, ownerID string) error {
	err := s.reports.SoftDeleteReport(ctx, id, ownerID)
	if err != nil {
		if err == repositories.ErrReportNotFound {
			return apperrors.NotFound("Report not found")
		}
		return apperrors.Internal(apperrors.CodeDeleteFailed, "failed to delete report", err)
	}
	return nil
}

// ReviewReport applies a moderation decision to a submitted report.
// Rejection requires a reason; approval may carry a priority within the
// configured bounds.
func (s *ReportService) ReviewReport(ctx context.Context, id string, req models.ReviewReportRequest) error {
	if req.Status != models.StatusReviewedPass && req.Status != models.StatusReviewedFail {
		return apperrors.Validation("status must be reviewed_pass or reviewed_fail")
	}

	reason := ""
	var priority *int
	switch req.Status {
	case models.StatusReviewedFail:
		if req.Reason == "" {
			return apperrors.Validation("a reason is required when rejecting a report")
		}
		reason = req.Reason
	case models.StatusReviewedPass:
		if req.Priority != nil {
			if *req.Priority < s.priorityMin || *req.Priority > s.priorityMax {
				return apperrors.Validation(fmt.Sprintf("priority must be between %d and %d", s.priorityMin, s.priorityMax))
			}
			priority = req.Priority
		}
	}

	err := s.reports.ReviewReport(ctx, id, req.Status, reason, priority)
	if err != nil {
		switch err {
		case repositories.ErrReportNotFound:
			return apperrors.NotFound("Report not found")
		case repositories.ErrAlreadyReviewed:
			return apperrors.Validation("report has already been reviewed")
		default:
			return apperrors.Internal(apperrors.CodeUpdateFailed, "failed to update report", err)
		}
	}
	return nil
}

// refreshMediaURLs regenerates the signed URL of every object-storage item.
// Video-host URLs are permanent and pass through untouched. A signing
// failure keeps the previous URL so a storage hiccup never blocks a read.
func (s *ReportService) refreshMediaURLs(reports []models.Report) {
	if s.signer == nil {
		return
	}
	for i := range reports {
		for j := range reports[i].MediaFiles {
			mf := &reports[i].MediaFiles[j]
			if mf.ObjectPath == "" {
				continue
			}
			url, err := s.signer.SignedURL(mf.ObjectPath)
			if err != nil {
				log.Printf("Signed URL refresh failed for %s: %v", mf.ObjectPath, err)
				continue
			}
			mf.URL = url
		}
	}
}

// parseOccurredAt parses the submitted timestamp against the accepted
// layouts and rejects values more than a day in the future
func (s *ReportService) parseOccurredAt(value string) (time.Time, error) {
	for _, layout := range occurredAtLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if t.After(time.Now().Add(futureSkew)) {
			return time.Time{}, apperrors.Validation("occurred_at may not be in the future")
		}
		return t, nil
	}
	return time.Time{}, apperrors.Validation(fmt.Sprintf("could not parse occurred_at value %q", value))
}
