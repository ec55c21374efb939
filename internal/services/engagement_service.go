package services

import (
	"context"
	"fmt"

	"github.com/roadwatch/backend/internal/apperrors"
	"github.com/roadwatch/backend/internal/models"
	"github.com/roadwatch/backend/internal/repositories"
)

// EngagementService handles reactions, comments and their aggregation into
// per-report engagement summaries
type EngagementService struct {
	reports   repositories.ReportRepository
	reactions repositories.ReactionRepository
	comments  repositories.CommentRepository
}

// NewEngagementService creates a new EngagementService
func NewEngagementService(reports repositories.ReportRepository, reactions repositories.ReactionRepository, comments repositories.CommentRepository) *EngagementService {
	return &EngagementService{reports: reports, reactions: reactions, comments: comments}
}

// AddReaction sets the caller's reaction on a report. A prior reaction of a
// different type is replaced in the same atomic operation.
func (s *EngagementService) AddReaction(ctx context.Context, reportID string, claims *models.JwtCustomClaims, reactionType string) (*models.Reaction, error) {
	if !models.ValidReactionType(reactionType) {
		return nil, apperrors.Validation(fmt.Sprintf("unknown reaction type %q", reactionType))
	}
	if err := s.resolveReport(ctx, reportID); err != nil {
		return nil, err
	}

	reaction := &models.Reaction{
		ReportID:     reportID,
		UserID:       claims.UserID,
		UserEmail:    claims.Email,
		ReactionType: reactionType,
	}
	if err := s.reactions.UpsertReaction(reaction); err != nil {
		return nil, apperrors.Internal(apperrors.CodeCreateFailed, "failed to save reaction", err)
	}
	return reaction, nil
}

// RemoveReaction removes the caller's reaction; removing a reaction that
// does not exist succeeds quietly
func (s *EngagementService) RemoveReaction(ctx context.Context, reportID, userID, reactionType string) error {
	if !models.ValidReactionType(reactionType) {
		return apperrors.Validation(fmt.Sprintf("unknown reaction type %q", reactionType))
	}
	if err := s.reactions.DeleteReaction(reportID, userID, reactionType); err != nil {
		return apperrors.Internal(apperrors.CodeDeleteFailed, "failed to remove reaction", err)
	}
	return nil
}

// GetReportEngagement aggregates one report's reactions and comments.
// viewerID is empty for anonymous callers.
func (s *EngagementService) GetReportEngagement(ctx context.Context, reportID, viewerID string) (*models.EngagementSummary, error) {
	if err := s.resolveReport(ctx, reportID); err != nil {
		return nil, err
	}
	summaries, err := s.summarize([]string{reportID}, viewerID)
	if err != nil {
		return nil, err
	}
	return &summaries[0], nil
}

// GetBulkEngagement aggregates engagement for many reports in one round
// trip; it exists purely so list views need not call the single-report
// variant per row. Ids that do not resolve to a visible report are dropped
// from the result, so a soft-deleted report's counts stop being served here
// just as they do on the single-report path.
func (s *EngagementService) GetBulkEngagement(ctx context.Context, reportIDs []string, viewerID string) ([]models.EngagementSummary, error) {
	if len(reportIDs) == 0 {
		return []models.EngagementSummary{}, nil
	}

	reports, err := s.reports.GetReportsByIDs(ctx, reportIDs)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeFetchFailed, "failed to fetch reports", err)
	}
	visible := make(map[string]bool, len(reports))
	for i := range reports {
		visible[reports[i].ID.Hex()] = true
	}

	// keep the request order
	resolved := make([]string, 0, len(reportIDs))
	for _, id := range reportIDs {
		if visible[id] {
			resolved = append(resolved, id)
		}
	}
	if len(resolved) == 0 {
		return []models.EngagementSummary{}, nil
	}
	return s.summarize(resolved, viewerID)
}

func (s *EngagementService) summarize(reportIDs []string, viewerID string) ([]models.EngagementSummary, error) {
	counts, err := s.reactions.GetReactionCounts(reportIDs)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeFetchFailed, "failed to fetch reactions", err)
	}
	commentCounts, err := s.comments.GetCommentCounts(reportIDs)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeFetchFailed, "failed to fetch comment counts", err)
	}

	viewer := map[string][]string{}
	if viewerID != "" {
		viewer, err = s.reactions.GetViewerReactions(reportIDs, viewerID)
		if err != nil {
			return nil, apperrors.Internal(apperrors.CodeFetchFailed, "failed to fetch viewer reactions", err)
		}
	}

	summaries := make([]models.EngagementSummary, len(reportIDs))
	for i, id := range reportIDs {
		reactionCounts := counts[id]
		if reactionCounts == nil {
			reactionCounts = map[string]int64{}
		}
		viewerReactions := viewer[id]
		if viewerReactions == nil {
			viewerReactions = []string{}
		}
		summaries[i] = models.EngagementSummary{
			ReportID:        id,
			ReactionCounts:  reactionCounts,
			ViewerReactions: viewerReactions,
			CommentCount:    commentCounts[id],
		}
	}
	return summaries, nil
}

// AddComment appends a comment to a report
func (s *EngagementService) AddComment(ctx context.Context, reportID string, claims *models.JwtCustomClaims, content string) (*models.Comment, error) {
	if err := s.resolveReport(ctx, reportID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ReportID:  reportID,
		UserID:    claims.UserID,
		UserEmail: claims.Email,
		Content:   content,
	}
	if err := s.comments.CreateComment(comment); err != nil {
		return nil, apperrors.Internal(apperrors.CodeCreateFailed, "failed to save comment", err)
	}
	return comment, nil
}

// ListComments returns all comments on a report
func (s *EngagementService) ListComments(ctx context.Context, reportID string) ([]models.Comment, error) {
	if err := s.resolveReport(ctx, reportID); err != nil {
		return nil, err
	}
	comments, err := s.comments.GetCommentsByReportID(reportID)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeFetchFailed, "failed to fetch comments", err)
	}
	return comments, nil
}

// DeleteComment deletes a comment only when the caller authored it; a
// comment authored by someone else is reported as not found
func (s *EngagementService) DeleteComment(ctx context.Context, commentID uint, userID string) error {
	err := s.comments.DeleteCommentByIDAndUser(commentID, userID)
	if err != nil {
		if err == repositories.ErrCommentNotFound {
			return apperrors.NotFound("Comment not found")
		}
		return apperrors.Internal(apperrors.CodeDeleteFailed, "failed to delete comment", err)
	}
	return nil
}

// resolveReport confirms the report exists and is not soft-deleted, so
// engagement on a deleted report answers not found
func (s *EngagementService) resolveReport(ctx context.Context, reportID string) error {
	_, err := s.reports.GetReportByID(ctx, reportID)
	if err != nil {
		if err == repositories.ErrReportNotFound {
			return apperrors.NotFound("Report not found")
		}
		return apperrors.Internal(apperrors.CodeFetchFailed, "failed to fetch report", err)
	}
	return nil
}
